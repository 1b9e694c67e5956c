package domain

import "errors"

// Store-level errors. Repository implementations translate backend errors into these.
var (
	ErrNotFound         = errors.New("document not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrAlreadyExists    = errors.New("document already exists")

	// ErrConflict means a conditional write found the document in another state.
	ErrConflict = errors.New("document changed concurrently")
)
