package models

import (
	"fmt"
	"strings"
	"time"
)

// BookingStatus is the lifecycle state of a Booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is a member of the closed booking-status set.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}

// PaymentStatus is the state of the payment attached to a Booking.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusPaid       PaymentStatus = "paid"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

// Valid reports whether s is a member of the closed payment-status set.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusProcessing, PaymentStatusPaid,
		PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// Address is a customer billing address.
type Address struct {
	Line1      string `bson:"line1" json:"line1" binding:"required"`
	Line2      string `bson:"line2,omitempty" json:"line2,omitempty"`
	City       string `bson:"city" json:"city" binding:"required"`
	State      string `bson:"state" json:"state" binding:"required"`
	PostalCode string `bson:"postalCode" json:"postal_code" binding:"required"`
	Country    string `bson:"country" json:"country" binding:"required"`
}

// Customer is the person making the booking and paying for it.
type Customer struct {
	Email    string  `bson:"email" json:"email" binding:"required,email"`
	FullName string  `bson:"fullName" json:"full_name" binding:"required"`
	Phone    string  `bson:"phone" json:"phone" binding:"required"`
	Address  Address `bson:"address" json:"address"`
}

// EmergencyContact is required per rider before a tour departs.
type EmergencyContact struct {
	Name         string `bson:"name" json:"name" binding:"required"`
	Phone        string `bson:"phone" json:"phone" binding:"required"`
	Relationship string `bson:"relationship" json:"relationship" binding:"required"`
}

// Participant is one rider on the booking. The customer may or may not
// ride themselves, so participants carry their own contact details.
type Participant struct {
	FullName         string           `bson:"fullName" json:"full_name" binding:"required"`
	Email            string           `bson:"email" json:"email" binding:"required,email"`
	Phone            string           `bson:"phone" json:"phone" binding:"required"`
	EmergencyContact EmergencyContact `bson:"emergencyContact" json:"emergency_contact"`
}

// Payment groups the money side of a Booking. StripePaymentIntentID is
// the correlation id that lets a webhook find its way back to the booking
// without re-deriving business data.
type Payment struct {
	Amount                float64       `bson:"amount" json:"amount"`
	Currency              string        `bson:"currency" json:"currency"`
	StripePaymentIntentID string        `bson:"stripePaymentIntentId,omitempty" json:"stripe_payment_intent_id,omitempty"`
	Status                PaymentStatus `bson:"status" json:"status"`
}

// Booking is a reservation attempt against one TourDate. Created pending
// by reservation intake; moved to confirmed/paid or cancelled/failed
// exclusively by the webhook reconciler. Never deleted by normal flow.
type Booking struct {
	ID               string         `bson:"_id" json:"id"`
	BookingReference string         `bson:"bookingReference" json:"booking_reference"`
	TourDateID       string         `bson:"tourDate" json:"tour_date_id"`
	Customer         Customer       `bson:"customer" json:"customer"`
	Participants     []Participant  `bson:"participants" json:"participants"`
	Payment          Payment        `bson:"payment" json:"payment"`
	Status           BookingStatus  `bson:"status" json:"status"`
	BookingSource    string         `bson:"bookingSource,omitempty" json:"booking_source,omitempty"`
	DeviceInfo       map[string]any `bson:"deviceInfo,omitempty" json:"-"`
	Notes            string         `bson:"notes,omitempty" json:"-"`
	CreatedAt        time.Time      `bson:"createdAt" json:"created_at"`
	UpdatedAt        time.Time      `bson:"updatedAt" json:"updated_at"`
}

// CreateReservationRequest is the reservation-intake input.
type CreateReservationRequest struct {
	TourDateID   string        `json:"tour_date_id" binding:"required"`
	Customer     Customer      `json:"customer" binding:"required"`
	Participants []Participant `json:"participants" binding:"required,min=1,dive"`
}

// Validate applies the checks gin's binding tags cannot express.
func (r *CreateReservationRequest) Validate() error {
	if strings.TrimSpace(r.TourDateID) == "" {
		return fmt.Errorf("tour_date_id is required")
	}
	if len(r.Participants) == 0 {
		return fmt.Errorf("at least one participant is required")
	}
	for i, p := range r.Participants {
		if strings.TrimSpace(p.FullName) == "" {
			return fmt.Errorf("participant %d: full_name is required", i+1)
		}
		if strings.TrimSpace(p.EmergencyContact.Name) == "" || strings.TrimSpace(p.EmergencyContact.Phone) == "" {
			return fmt.Errorf("participant %d: emergency contact name and phone are required", i+1)
		}
	}
	return nil
}

// ReservationResponse is returned to the client so it can redeem the
// hosted payment session.
type ReservationResponse struct {
	BookingID        string  `json:"booking_id"`
	BookingReference string  `json:"booking_reference"`
	ClientSecret     string  `json:"client_secret"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
}

// BookingFilter narrows operator booking listings.
type BookingFilter struct {
	Status     BookingStatus
	TourDateID string
	Limit      int
	Offset     int
}
