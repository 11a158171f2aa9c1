package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/openroadtours/booking-backend/internal/database"
	"github.com/openroadtours/booking-backend/internal/models"
)

// ReconciliationService applies verified payment events to bookings and
// seat counters. It is the only writer of currentBookings and of the
// confirmed/cancelled booking transitions.
//
// Delivery is at-least-once, so every step tolerates replays: the
// booking status is checked before any counter moves, and the redis
// dedupe mark is written only after a delivery is fully applied. A
// partial failure returns an error, the handler answers 500 and the
// gateway redelivers.
type ReconciliationService struct {
	bookings  BookingStore
	tourDates TourDateStore
	dedupe    EventDeduper
	logger    *logrus.Logger
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(bookings BookingStore, tourDates TourDateStore, dedupe EventDeduper, logger *logrus.Logger) *ReconciliationService {
	return &ReconciliationService{
		bookings:  bookings,
		tourDates: tourDates,
		dedupe:    dedupe,
		logger:    logger,
	}
}

// HandleEvent applies one verified payment event. A nil return means the
// delivery is fully applied (or safely ignorable) and must be
// acknowledged with 200.
func (s *ReconciliationService) HandleEvent(ctx context.Context, event models.PaymentEvent) error {
	if s.dedupe.AlreadyProcessed(ctx, event.EventID()) {
		s.logger.WithField("event_id", event.EventID()).Info("Duplicate event delivery, already processed")
		return nil
	}

	var err error
	switch e := event.(type) {
	case models.PaymentSucceeded:
		err = s.handleSucceeded(ctx, e)
	case models.PaymentFailed:
		err = s.handleFailed(ctx, e)
	default:
		// ParsePaymentEvent only emits the two variants above
		return fmt.Errorf("unexpected event variant %T", event)
	}
	if err != nil {
		return err
	}

	s.dedupe.MarkProcessed(ctx, event.EventID())
	return nil
}

func (s *ReconciliationService) handleSucceeded(ctx context.Context, event models.PaymentSucceeded) error {
	log := s.logger.WithFields(logrus.Fields{
		"event_id":          event.EventID(),
		"payment_intent_id": event.IntentID,
		"tour_date_id":      event.TourDateID,
		"participants":      event.ParticipantsCount,
	})

	booking, err := s.bookings.GetByPaymentIntentID(ctx, event.IntentID)
	if errors.Is(err, database.ErrNotFound) {
		// Redelivery cannot conjure the booking up; acknowledge and leave
		// a trace for manual follow-up
		log.Error("No booking found for succeeded payment")
		return nil
	}
	if err != nil {
		return err
	}

	if booking.Status == models.BookingStatusConfirmed {
		log.WithField("booking_id", booking.ID).Info("Booking already confirmed, skipping")
		return nil
	}

	tourDate, err := s.tourDates.IncrementBookings(ctx, event.TourDateID, event.ParticipantsCount)
	switch {
	case errors.Is(err, database.ErrCapacityExceeded):
		// The money moved but the seats are gone. Confirm the booking
		// anyway and flag the date so no further sales happen; resolving
		// the overbooked party is an operator decision.
		log.WithField("booking_id", booking.ID).Error("Payment succeeded for a full tour date, overbooking detected")
		if err := s.forceFull(ctx, event.TourDateID); err != nil {
			return err
		}
	case errors.Is(err, database.ErrNotFound):
		log.WithField("booking_id", booking.ID).Error("Tour date missing for succeeded payment")
	case err != nil:
		return err
	default:
		if err := s.reclassify(ctx, tourDate); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"booking_id":       booking.ID,
			"current_bookings": tourDate.CurrentBookings,
			"max_participants": tourDate.MaxParticipants,
		}).Info("Seats confirmed on tour date")
	}

	if err := s.bookings.UpdateStatus(ctx, booking.ID, models.BookingStatusConfirmed, models.PaymentStatusPaid); err != nil {
		return err
	}

	log.WithField("booking_id", booking.ID).Info("Booking confirmed")
	return nil
}

func (s *ReconciliationService) handleFailed(ctx context.Context, event models.PaymentFailed) error {
	log := s.logger.WithFields(logrus.Fields{
		"event_id":          event.EventID(),
		"payment_intent_id": event.IntentID,
		"reason":            event.Reason,
	})

	booking, err := s.bookings.GetByPaymentIntentID(ctx, event.IntentID)
	if errors.Is(err, database.ErrNotFound) {
		log.Warn("No booking found for failed payment")
		return nil
	}
	if err != nil {
		return err
	}

	if booking.Status == models.BookingStatusCancelled {
		log.WithField("booking_id", booking.ID).Info("Booking already cancelled, skipping")
		return nil
	}

	// Out-of-order delivery: a failure for an intent that already
	// confirmed must not unwind the booking or the seats it holds
	if booking.Status == models.BookingStatusConfirmed {
		log.WithField("booking_id", booking.ID).Warn("Failed event for a confirmed booking, ignoring stale delivery")
		return nil
	}

	// Failure never touches the seat counter: nothing was claimed yet
	if err := s.bookings.UpdateStatus(ctx, booking.ID, models.BookingStatusCancelled, models.PaymentStatusFailed); err != nil {
		return err
	}

	log.WithField("booking_id", booking.ID).Info("Booking cancelled after failed payment")
	return nil
}

// reclassify recomputes the availability label from the updated counts
// and persists it when it changed
func (s *ReconciliationService) reclassify(ctx context.Context, tourDate *models.TourDate) error {
	next := models.ClassifyAvailability(tourDate.CurrentBookings, tourDate.MaxParticipants, tourDate.Availability)
	if next == tourDate.Availability {
		return nil
	}
	if err := s.tourDates.SetAvailability(ctx, tourDate.ID, next); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"tour_date_id": tourDate.ID,
		"availability": next,
	}).Info("Availability updated")
	return nil
}

// forceFull closes a date after an overbooking, unless an operator has
// asserted a state of their own
func (s *ReconciliationService) forceFull(ctx context.Context, tourDateID string) error {
	tourDate, err := s.tourDates.GetByID(ctx, tourDateID)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if tourDate.Availability.OperatorAsserted() || tourDate.Availability == models.AvailabilityFull {
		return nil
	}
	return s.tourDates.SetAvailability(ctx, tourDateID, models.AvailabilityFull)
}
