package nominations

type SubmitInput struct {
	NominatorName  string
	NominatorEmail string
	NomineeName    string
	// NomineeEmail is optional.
	NomineeEmail  *string
	Pitch         string
	Links         []string
	SuggestedTier string
}

// submission is the validated shape of SubmitInput. Field names match the HTTP body so that
// validation details can be returned as-is.
type submission struct {
	NominatorName  string   `json:"nominatorName" validate:"required,min=2,max=100"`
	NominatorEmail string   `json:"nominatorEmail" validate:"required,email,max=254"`
	NomineeName    string   `json:"nomineeName" validate:"required,min=2,max=100"`
	NomineeEmail   string   `json:"nomineeEmail" validate:"omitempty,email,max=254"`
	Pitch          string   `json:"pitch" validate:"required,min=50,max=2000"`
	Links          []string `json:"links" validate:"max=5,dive,required,http_url"`
	SuggestedTier  string   `json:"suggestedTier" validate:"required"`
}
