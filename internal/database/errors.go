package database

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound is returned when a lookup matches no document
	ErrNotFound = errors.New("document not found")

	// ErrDuplicateReference is returned when a booking insert collides on
	// the unique bookingReference index
	ErrDuplicateReference = errors.New("booking reference already exists")

	// ErrCapacityExceeded is returned when a seat increment would push
	// currentBookings past maxParticipants
	ErrCapacityExceeded = errors.New("tour date capacity exceeded")
)

// isDuplicateKeyError detects a unique-index violation on insert
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	return false
}
