package usecase

import "errors"

// Business failure taxonomy. Services wrap these with fmt.Errorf so
// handlers can map them to HTTP codes with errors.Is while keeping the
// detailed message.
var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUpstreamUnavailable = errors.New("payment processor unavailable")
	ErrConflict            = errors.New("conflict")

	ErrSelfBooking       = errors.New("cannot book your own listing")
	ErrInvalidDateRange  = errors.New("invalid date range")
	ErrInvalidPrice      = errors.New("invalid price")
	ErrAlreadyPaid       = errors.New("reservation already paid")
	ErrAlreadyCancelled  = errors.New("reservation already cancelled")
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
)
