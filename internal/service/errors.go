package service

import "errors"

// ErrAccessDenied is the single error every authentication failure maps
// to. Callers must not be able to tell a wrong password from a missing
// account; the distinct causes only reach logs and metrics.
var ErrAccessDenied = errors.New("access denied")

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("email or NIK is already registered")
	ErrValidation = errors.New("validation failed")
)
