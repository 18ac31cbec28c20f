package nominationrepo

import "errors"

var (
	ErrNotFound      = errors.New("nomination not found")
	ErrAlreadyExists = errors.New("nomination already exists")
)
