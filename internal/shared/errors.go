package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Domain errors. Every failure leaving the engine wraps exactly one of these.
	ErrNotFound     = fmt.Errorf("not found")
	ErrForbidden    = fmt.Errorf("forbidden")
	ErrConflict     = fmt.Errorf("conflict")
	ErrValidation   = fmt.Errorf("validation failed")
	ErrUnauthorized = fmt.Errorf("unauthorized")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
