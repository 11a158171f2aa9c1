package services

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openroadtours/booking-backend/internal/database"
	"github.com/openroadtours/booking-backend/internal/models"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func validReservationRequest() *models.CreateReservationRequest {
	return &models.CreateReservationRequest{
		TourDateID: "td-1",
		Customer: models.Customer{
			Email:    "rider@example.com",
			FullName: "Sam Rider",
			Phone:    "+15550100",
		},
		Participants: []models.Participant{
			{
				FullName: "Sam Rider",
				Email:    "rider@example.com",
				Phone:    "+15550100",
				EmergencyContact: models.EmergencyContact{
					Name: "Alex Rider", Phone: "+15550101", Relationship: "spouse",
				},
			},
			{
				FullName: "Jo Pillion",
				Email:    "jo@example.com",
				Phone:    "+15550102",
				EmergencyContact: models.EmergencyContact{
					Name: "Pat Pillion", Phone: "+15550103", Relationship: "parent",
				},
			},
		},
	}
}

func openTourDate() *models.TourDate {
	return &models.TourDate{
		ID:              "td-1",
		TourID:          "tour-1",
		MaxParticipants: 10,
		CurrentBookings: 8,
		Availability:    models.AvailabilityAvailable,
		Price:           1799.0,
	}
}

func TestCreateReservation(t *testing.T) {
	bookings := newFakeBookingStore()
	tourDates := newFakeTourDateStore(openTourDate())
	gateway := &fakeGateway{}
	service := NewReservationService(bookings, tourDates, gateway, quietLogger())

	resp, err := service.CreateReservation(context.Background(), validReservationRequest(), nil)
	require.NoError(t, err)

	assert.NotEmpty(t, resp.BookingID)
	assert.Regexp(t, `^BK-[0-9A-Z]+-[0-9A-Z]{5}$`, resp.BookingReference)
	assert.Equal(t, "pi_fake_1_secret", resp.ClientSecret)
	assert.Equal(t, 3598.0, resp.Amount)
	assert.Equal(t, "USD", resp.Currency)

	// Booking stored pending with the intent attached
	stored := bookings.get(resp.BookingID)
	require.NotNil(t, stored)
	assert.Equal(t, models.BookingStatusPending, stored.Status)
	assert.Equal(t, models.PaymentStatusProcessing, stored.Payment.Status)
	assert.Equal(t, "pi_fake_1", stored.Payment.StripePaymentIntentID)

	// Intake never claims seats
	td, err := tourDates.GetByID(context.Background(), "td-1")
	require.NoError(t, err)
	assert.Equal(t, 8, td.CurrentBookings)

	// Intent metadata carries the reconciliation inputs
	require.Len(t, gateway.calls, 1)
	assert.Equal(t, resp.BookingID, gateway.calls[0].BookingID)
	assert.Equal(t, "td-1", gateway.calls[0].TourDateID)
	assert.Equal(t, 2, gateway.calls[0].ParticipantsCount)
}

func TestCreateReservation_EarlyBirdDiscount(t *testing.T) {
	td := openTourDate()
	td.EarlyBirdDiscount = 10
	bookings := newFakeBookingStore()
	gateway := &fakeGateway{}
	service := NewReservationService(bookings, newFakeTourDateStore(td), gateway, quietLogger())

	resp, err := service.CreateReservation(context.Background(), validReservationRequest(), nil)
	require.NoError(t, err)

	// 1799 * 0.9 * 2 participants
	assert.InDelta(t, 3238.2, resp.Amount, 0.0001)
}

func TestCreateReservation_TourDateNotFound(t *testing.T) {
	service := NewReservationService(newFakeBookingStore(), newFakeTourDateStore(), &fakeGateway{}, quietLogger())

	resp, err := service.CreateReservation(context.Background(), validReservationRequest(), nil)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrTourDateNotFound)
}

func TestCreateReservation_FullDateRejected(t *testing.T) {
	td := openTourDate()
	td.Availability = models.AvailabilityFull
	bookings := newFakeBookingStore()
	service := NewReservationService(bookings, newFakeTourDateStore(td), &fakeGateway{}, quietLogger())

	resp, err := service.CreateReservation(context.Background(), validReservationRequest(), nil)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrTourDateUnavailable)
	assert.Zero(t, bookings.count())
}

func TestCreateReservation_CancelledDateLeavesNoTrace(t *testing.T) {
	td := openTourDate()
	td.Availability = models.AvailabilityCancelled
	bookings := newFakeBookingStore()
	gateway := &fakeGateway{}
	service := NewReservationService(bookings, newFakeTourDateStore(td), gateway, quietLogger())

	resp, err := service.CreateReservation(context.Background(), validReservationRequest(), nil)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrTourDateUnavailable)

	// No booking document and no gateway call
	assert.Zero(t, bookings.count())
	assert.Empty(t, gateway.calls)
}

func TestCreateReservation_PartyLargerThanRemainingSpots(t *testing.T) {
	td := openTourDate()
	td.CurrentBookings = 9 // one seat left, party of two
	service := NewReservationService(newFakeBookingStore(), newFakeTourDateStore(td), &fakeGateway{}, quietLogger())

	resp, err := service.CreateReservation(context.Background(), validReservationRequest(), nil)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrNotEnoughSpots)
}

func TestCreateReservation_WaitingListStillBookable(t *testing.T) {
	td := openTourDate()
	td.Availability = models.AvailabilityWaitingList
	service := NewReservationService(newFakeBookingStore(), newFakeTourDateStore(td), &fakeGateway{}, quietLogger())

	resp, err := service.CreateReservation(context.Background(), validReservationRequest(), nil)
	require.NoError(t, err)
	assert.NotNil(t, resp)
}

func TestCreateReservation_GatewayFailure(t *testing.T) {
	bookings := newFakeBookingStore()
	gateway := &fakeGateway{failErr: ErrGatewayUnavailable}
	service := NewReservationService(bookings, newFakeTourDateStore(openTourDate()), gateway, quietLogger())

	resp, err := service.CreateReservation(context.Background(), validReservationRequest(), nil)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)

	// The pending booking is left behind without an intent; it never confirms
	assert.Equal(t, 1, bookings.count())
}

func TestCreateReservation_ReferenceCollisionRetried(t *testing.T) {
	// First two inserts collide on the reference index, third succeeds
	wrapped := &collidingBookingStore{fakeBookingStore: newFakeBookingStore(), collisions: 2}
	service := NewReservationService(wrapped, newFakeTourDateStore(openTourDate()), &fakeGateway{}, quietLogger())

	resp, err := service.CreateReservation(context.Background(), validReservationRequest(), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.BookingReference)
	assert.Equal(t, 0, wrapped.collisions)
}

func TestCreateReservation_ReferenceCollisionExhausted(t *testing.T) {
	bookings := newFakeBookingStore()
	wrapped := &collidingBookingStore{fakeBookingStore: bookings, collisions: referenceRetries + 1}
	service := NewReservationService(wrapped, newFakeTourDateStore(openTourDate()), &fakeGateway{}, quietLogger())

	resp, err := service.CreateReservation(context.Background(), validReservationRequest(), nil)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, database.ErrDuplicateReference)
}

func TestCreateReservation_InvalidRequest(t *testing.T) {
	service := NewReservationService(newFakeBookingStore(), newFakeTourDateStore(openTourDate()), &fakeGateway{}, quietLogger())

	req := validReservationRequest()
	req.Participants = nil

	resp, err := service.CreateReservation(context.Background(), req, nil)
	assert.Nil(t, resp)
	assert.Error(t, err)
}

func TestGetByReference(t *testing.T) {
	booking := &models.Booking{ID: "b-1", BookingReference: "BK-ABC-12345", Status: models.BookingStatusConfirmed}
	service := NewReservationService(newFakeBookingStore(booking), newFakeTourDateStore(), &fakeGateway{}, quietLogger())

	got, err := service.GetByReference(context.Background(), "BK-ABC-12345")
	require.NoError(t, err)
	assert.Equal(t, "b-1", got.ID)

	_, err = service.GetByReference(context.Background(), "BK-MISSING-00000")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

// collidingBookingStore fails the first n creates with a duplicate
// reference error
type collidingBookingStore struct {
	*fakeBookingStore
	collisions int
}

func (c *collidingBookingStore) Create(ctx context.Context, booking *models.Booking) error {
	if c.collisions > 0 {
		c.collisions--
		return database.ErrDuplicateReference
	}
	return c.fakeBookingStore.Create(ctx, booking)
}
