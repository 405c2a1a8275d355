package storage

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Keys of the two independently persisted state entries.
const (
	KeyDraft   = "formData"
	KeyProfile = "userProfileData"
)
