package services

import "errors"

var (
	// ErrTourDateNotFound is returned when the requested departure does
	// not exist
	ErrTourDateNotFound = errors.New("tour date not found")

	// ErrBookingNotFound is returned when a booking lookup matches
	// nothing
	ErrBookingNotFound = errors.New("booking not found")

	// ErrTourDateUnavailable is returned when the departure exists but
	// does not accept reservations (full or cancelled)
	ErrTourDateUnavailable = errors.New("tour date is not available for booking")

	// ErrNotEnoughSpots is returned when the party is larger than the
	// remaining capacity at intake time
	ErrNotEnoughSpots = errors.New("not enough spots left on tour date")

	// ErrInvalidSignature is returned when a webhook signature fails
	// verification
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrGatewayUnavailable is returned when the payment gateway cannot
	// be reached or rejects the request
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrInvalidCredentials is returned on a failed operator login
	ErrInvalidCredentials = errors.New("invalid email or password")
)
