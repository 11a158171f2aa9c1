package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/openroadtours/booking-backend/internal/database"
	"github.com/openroadtours/booking-backend/internal/models"
	"github.com/openroadtours/booking-backend/pkg/bookingref"
)

// referenceRetries bounds regeneration attempts when a booking reference
// collides on the unique index
const referenceRetries = 3

// TourDateStore is the departure persistence surface the services need
type TourDateStore interface {
	GetByID(ctx context.Context, id string) (*models.TourDate, error)
	IncrementBookings(ctx context.Context, id string, delta int) (*models.TourDate, error)
	SetAvailability(ctx context.Context, id string, availability models.Availability) error
}

// BookingStore is the booking persistence surface the services need
type BookingStore interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByReference(ctx context.Context, reference string) (*models.Booking, error)
	GetByPaymentIntentID(ctx context.Context, intentID string) (*models.Booking, error)
	SetPaymentIntentID(ctx context.Context, id, intentID string) error
	UpdateStatus(ctx context.Context, id string, status models.BookingStatus, paymentStatus models.PaymentStatus) error
}

// PaymentGateway creates payment intents at the external gateway
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, params *CreatePaymentIntentParams) (*PaymentIntent, error)
}

// ReservationService handles reservation intake: capacity screening,
// pending booking creation and payment intent setup. Seats are NOT
// claimed here; the count moves only when the webhook reconciler sees
// the payment succeed.
type ReservationService struct {
	bookings  BookingStore
	tourDates TourDateStore
	gateway   PaymentGateway
	logger    *logrus.Logger
}

// NewReservationService creates a new reservation service
func NewReservationService(bookings BookingStore, tourDates TourDateStore, gateway PaymentGateway, logger *logrus.Logger) *ReservationService {
	return &ReservationService{
		bookings:  bookings,
		tourDates: tourDates,
		gateway:   gateway,
		logger:    logger,
	}
}

// CreateReservation screens the departure, stores a pending booking and
// opens a payment intent for it.
//
// The capacity check here is advisory: it rejects obviously hopeless
// requests early, but the authoritative guard is the conditional seat
// increment at reconciliation time.
func (s *ReservationService) CreateReservation(ctx context.Context, req *models.CreateReservationRequest, deviceInfo map[string]any) (*models.ReservationResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tourDate, err := s.tourDates.GetByID(ctx, req.TourDateID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrTourDateNotFound
	}
	if err != nil {
		return nil, err
	}

	if tourDate.Availability.BlocksBooking() {
		return nil, ErrTourDateUnavailable
	}

	participants := len(req.Participants)
	if tourDate.SpotsLeft() < participants {
		return nil, ErrNotEnoughSpots
	}

	amount := tourDate.SeatPrice() * float64(participants)

	booking := &models.Booking{
		TourDateID:   req.TourDateID,
		Customer:     req.Customer,
		Participants: req.Participants,
		Status:       models.BookingStatusPending,
		Payment: models.Payment{
			Amount:   amount,
			Currency: "USD",
			Status:   models.PaymentStatusPending,
		},
		BookingSource: "website",
		DeviceInfo:    deviceInfo,
	}

	if err := s.createWithFreshReference(ctx, booking); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":        booking.ID,
		"booking_reference": booking.BookingReference,
		"tour_date_id":      req.TourDateID,
		"participants":      participants,
		"amount":            amount,
	}).Info("Reservation created")

	intent, err := s.gateway.CreatePaymentIntent(ctx, &CreatePaymentIntentParams{
		Amount:            amount,
		Currency:          "USD",
		BookingID:         booking.ID,
		TourDateID:        req.TourDateID,
		ParticipantsCount: participants,
		Description:       fmt.Sprintf("Booking %s", booking.BookingReference),
		ReceiptEmail:      req.Customer.Email,
	})
	if err != nil {
		// The pending booking stays behind; the client can retry and the
		// stale one simply never confirms
		s.logger.WithError(err).WithField("booking_id", booking.ID).Error("Payment intent creation failed")
		return nil, err
	}

	if err := s.bookings.SetPaymentIntentID(ctx, booking.ID, intent.ID); err != nil {
		return nil, err
	}

	return &models.ReservationResponse{
		BookingID:        booking.ID,
		BookingReference: booking.BookingReference,
		ClientSecret:     intent.ClientSecret,
		Amount:           amount,
		Currency:         "USD",
	}, nil
}

// createWithFreshReference inserts the booking, regenerating the
// reference on unique-index collisions
func (s *ReservationService) createWithFreshReference(ctx context.Context, booking *models.Booking) error {
	var err error
	for attempt := 0; attempt < referenceRetries; attempt++ {
		booking.BookingReference = bookingref.New()
		err = s.bookings.Create(ctx, booking)
		if err == nil {
			return nil
		}
		if !errors.Is(err, database.ErrDuplicateReference) {
			return err
		}
		s.logger.WithField("booking_reference", booking.BookingReference).Warn("Booking reference collision, regenerating")
	}
	return fmt.Errorf("failed to create booking after %d reference attempts: %w", referenceRetries, err)
}

// GetByReference returns the booking behind a customer-facing reference
func (s *ReservationService) GetByReference(ctx context.Context, reference string) (*models.Booking, error) {
	booking, err := s.bookings.GetByReference(ctx, reference)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	return booking, err
}
