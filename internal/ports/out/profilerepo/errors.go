package profilerepo

import "errors"

var (
	ErrNotFound = errors.New("profile not found")
	// ErrAlreadyExists indicates the ID is taken or the user already owns a profile.
	ErrAlreadyExists = errors.New("profile already exists")
	// ErrSlugTaken indicates another profile already holds the slug.
	ErrSlugTaken = errors.New("profile slug taken")
	// ErrLocked indicates the profile is under review or published and cannot be edited.
	ErrLocked = errors.New("profile locked")
)
