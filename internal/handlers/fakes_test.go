package handlers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/openroadtours/booking-backend/internal/database"
	"github.com/openroadtours/booking-backend/internal/models"
	"github.com/openroadtours/booking-backend/internal/services"
)

// fakeTourDateStore backs handler tests with an in-memory departure set
type fakeTourDateStore struct {
	mu            sync.Mutex
	dates         map[string]*models.TourDate
	failIncrement error
}

func newFakeTourDateStore(dates ...*models.TourDate) *fakeTourDateStore {
	store := &fakeTourDateStore{dates: map[string]*models.TourDate{}}
	for _, td := range dates {
		store.dates[td.ID] = td
	}
	return store
}

func (f *fakeTourDateStore) GetByID(_ context.Context, id string) (*models.TourDate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	td, ok := f.dates[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	copied := *td
	return &copied, nil
}

func (f *fakeTourDateStore) IncrementBookings(_ context.Context, id string, delta int) (*models.TourDate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIncrement != nil {
		return nil, f.failIncrement
	}
	td, ok := f.dates[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	if td.CurrentBookings+delta > td.MaxParticipants {
		return nil, database.ErrCapacityExceeded
	}
	td.CurrentBookings += delta
	copied := *td
	return &copied, nil
}

func (f *fakeTourDateStore) SetAvailability(_ context.Context, id string, availability models.Availability) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	td, ok := f.dates[id]
	if !ok {
		return database.ErrNotFound
	}
	td.Availability = availability
	return nil
}

func (f *fakeTourDateStore) ListByTour(_ context.Context, tourID string) ([]models.TourDate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dates := []models.TourDate{}
	for _, td := range f.dates {
		if td.TourID == tourID {
			dates = append(dates, *td)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].StartDate.Before(dates[j].StartDate) })
	return dates, nil
}

// fakeBookingStore is an in-memory booking collection with unique
// reference enforcement
type fakeBookingStore struct {
	mu         sync.Mutex
	bookings   map[string]*models.Booking
	nextID     int
	failUpdate error
}

func newFakeBookingStore(bookings ...*models.Booking) *fakeBookingStore {
	store := &fakeBookingStore{bookings: map[string]*models.Booking{}}
	for _, b := range bookings {
		store.bookings[b.ID] = b
	}
	return store
}

func (f *fakeBookingStore) Create(_ context.Context, booking *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.BookingReference == booking.BookingReference {
			return database.ErrDuplicateReference
		}
	}
	f.nextID++
	if booking.ID == "" {
		booking.ID = fmt.Sprintf("booking-%d", f.nextID)
	}
	copied := *booking
	f.bookings[booking.ID] = &copied
	return nil
}

func (f *fakeBookingStore) GetByReference(_ context.Context, reference string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.BookingReference == reference {
			copied := *b
			return &copied, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeBookingStore) GetByPaymentIntentID(_ context.Context, intentID string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.Payment.StripePaymentIntentID == intentID {
			copied := *b
			return &copied, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeBookingStore) SetPaymentIntentID(_ context.Context, id, intentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return database.ErrNotFound
	}
	b.Payment.StripePaymentIntentID = intentID
	b.Payment.Status = models.PaymentStatusProcessing
	return nil
}

func (f *fakeBookingStore) UpdateStatus(_ context.Context, id string, status models.BookingStatus, paymentStatus models.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate != nil {
		return f.failUpdate
	}
	b, ok := f.bookings[id]
	if !ok {
		return database.ErrNotFound
	}
	b.Status = status
	b.Payment.Status = paymentStatus
	return nil
}

func (f *fakeBookingStore) List(_ context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bookings := []models.Booking{}
	for _, b := range f.bookings {
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.TourDateID != "" && b.TourDateID != filter.TourDateID {
			continue
		}
		bookings = append(bookings, *b)
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].ID < bookings[j].ID })
	return bookings, nil
}

func (f *fakeBookingStore) get(id string) *models.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil
	}
	copied := *b
	return &copied
}

func (f *fakeBookingStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bookings)
}

// fakeTourStore is an in-memory catalogue
type fakeTourStore struct {
	tours map[string]*models.Tour
}

func newFakeTourStore(tours ...*models.Tour) *fakeTourStore {
	store := &fakeTourStore{tours: map[string]*models.Tour{}}
	for _, tour := range tours {
		store.tours[tour.Slug] = tour
	}
	return store
}

func (f *fakeTourStore) List(_ context.Context) ([]models.Tour, error) {
	tours := []models.Tour{}
	for _, tour := range f.tours {
		tours = append(tours, *tour)
	}
	sort.Slice(tours, func(i, j int) bool { return tours[i].Title < tours[j].Title })
	return tours, nil
}

func (f *fakeTourStore) GetBySlug(_ context.Context, slug string) (*models.Tour, error) {
	tour, ok := f.tours[slug]
	if !ok {
		return nil, database.ErrNotFound
	}
	copied := *tour
	return &copied, nil
}

// fakeGateway satisfies services.PaymentGateway
type fakeGateway struct {
	mu      sync.Mutex
	nextID  int
	failErr error
}

func (f *fakeGateway) CreatePaymentIntent(_ context.Context, _ *services.CreatePaymentIntentParams) (*services.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	f.nextID++
	id := fmt.Sprintf("pi_fake_%d", f.nextID)
	return &services.PaymentIntent{ID: id, ClientSecret: id + "_secret", Status: "requires_payment_method"}, nil
}

// fakeDeduper is an in-memory event dedupe set
type fakeDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeDeduper() *fakeDeduper {
	return &fakeDeduper{seen: map[string]bool{}}
}

func (f *fakeDeduper) AlreadyProcessed(_ context.Context, eventID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[eventID]
}

func (f *fakeDeduper) MarkProcessed(_ context.Context, eventID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen[eventID] = true
}
