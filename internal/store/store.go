package store

import "errors"

// Sentinel errors shared by every backend. Callers match with errors.Is
// and translate into the apperr taxonomy at the service boundary.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)
