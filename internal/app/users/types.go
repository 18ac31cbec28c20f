package users

type ProvisionInput struct {
	Email       string
	DisplayName string
}
