package questrepo

import "errors"

var (
	ErrNotFound      = errors.New("quest not found")
	ErrAlreadyExists = errors.New("quest already exists")

	// ErrEncoding reports that the quest record could not be serialized
	// for storage. Implementations wrap the underlying cause.
	ErrEncoding = errors.New("quest encoding failed")
)
