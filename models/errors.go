package models

import "errors"

// Sentinel errors wrapped by services with fmt.Errorf %w and mapped to
// HTTP status codes in handlers.fail.
var (
	ErrValidation        = errors.New("validation failed")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrUnknownBank       = errors.New("unknown bank")
	ErrNotFound          = errors.New("not found")
	ErrGpsRequired       = errors.New("gps fix required")
	ErrPaymentLocked     = errors.New("payment locked")
	ErrBillingLocked     = errors.New("billing locked")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrRace              = errors.New("concurrent modification")
)
