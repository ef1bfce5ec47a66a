package models

import "errors"

// Error kinds shared across packages. Wrap with fmt.Errorf("...: %w", err) and
// test with errors.Is.
var (
	ErrValidation            = errors.New("validation failed")
	ErrNotFound              = errors.New("not found")
	ErrForbidden             = errors.New("forbidden")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrConflict              = errors.New("already exists")
	ErrInsufficientCredits   = errors.New("insufficient credits")
	ErrFormsIncomplete       = errors.New("required forms incomplete")
	ErrBookingCancelled      = errors.New("booking already cancelled")
	ErrRescheduleUnsupported = errors.New("rescheduling is coming soon")
)
