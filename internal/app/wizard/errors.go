package wizard

import "errors"

// ErrNotFound is returned by the registry for unknown or foreign sessions.
var ErrNotFound = errors.New("draft session not found")

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}
