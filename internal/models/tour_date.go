package models

import "time"

// Availability is the user-facing availability label of a TourDate.
type Availability string

const (
	AvailabilityAvailable   Availability = "available"
	AvailabilityAlmostFull  Availability = "almost-full"
	AvailabilityFull        Availability = "full"
	AvailabilityWaitingList Availability = "waiting-list"
	AvailabilityCancelled   Availability = "cancelled"
)

// Valid reports whether a is a member of the closed availability set.
// Unknown values must be rejected at the boundary, never stored.
func (a Availability) Valid() bool {
	switch a {
	case AvailabilityAvailable, AvailabilityAlmostFull, AvailabilityFull,
		AvailabilityWaitingList, AvailabilityCancelled:
		return true
	}
	return false
}

// BlocksBooking reports whether a TourDate in this state rejects new
// reservations regardless of remaining numeric capacity.
func (a Availability) BlocksBooking() bool {
	return a == AvailabilityFull || a == AvailabilityCancelled
}

// OperatorAsserted reports whether this state is curated by an operator
// rather than derived from seat counts. The reconciler must not overwrite
// operator-asserted states with computed ones.
func (a Availability) OperatorAsserted() bool {
	return a == AvailabilityWaitingList || a == AvailabilityCancelled
}

// TourDate is a bookable departure of a Tour with bounded capacity.
// CurrentBookings counts confirmed seats; it is incremented only by the
// webhook reconciler on successful payment.
type TourDate struct {
	ID                string       `bson:"_id" json:"id"`
	TourID            string       `bson:"tour" json:"tour_id"`
	StartDate         time.Time    `bson:"startDate" json:"start_date"`
	EndDate           time.Time    `bson:"endDate" json:"end_date"`
	MaxParticipants   int          `bson:"maxParticipants" json:"max_participants"`
	CurrentBookings   int          `bson:"currentBookings" json:"current_bookings"`
	Availability      Availability `bson:"availability" json:"availability"`
	Price             float64      `bson:"price" json:"price"`
	EarlyBirdDiscount float64      `bson:"earlyBirdDiscount,omitempty" json:"early_bird_discount,omitempty"`
	Notes             string       `bson:"notes,omitempty" json:"-"`
	CreatedAt         time.Time    `bson:"createdAt" json:"created_at"`
	UpdatedAt         time.Time    `bson:"updatedAt" json:"updated_at"`
}

// SpotsLeft returns the remaining capacity. Can be negative if the date
// was overbooked through concurrent payments; callers treat that as zero.
func (td *TourDate) SpotsLeft() int {
	return td.MaxParticipants - td.CurrentBookings
}

// SeatPrice returns the per-participant price with the early-bird
// discount applied. Operators control the discount window by setting and
// clearing the percentage on the date.
func (td *TourDate) SeatPrice() float64 {
	if td.EarlyBirdDiscount <= 0 {
		return td.Price
	}
	return td.Price * (1 - td.EarlyBirdDiscount/100)
}

// ClassifyAvailability derives the availability label from seat counts.
//
// Only the available/full boundary is computed. "waiting-list" and
// "cancelled" are operator-asserted and pass through untouched;
// "almost-full" is operator-curated too, but collapses to "full" once
// capacity is reached.
func ClassifyAvailability(currentBookings, maxParticipants int, current Availability) Availability {
	if current.OperatorAsserted() {
		return current
	}
	if currentBookings >= maxParticipants {
		return AvailabilityFull
	}
	if current == AvailabilityAlmostFull {
		return AvailabilityAlmostFull
	}
	return AvailabilityAvailable
}
