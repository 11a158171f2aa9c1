package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/openroadtours/booking-backend/internal/models"
)

// BookingRepository handles booking documents
type BookingRepository struct {
	collection *mongo.Collection
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{collection: db.Collection(BookingsCollection)}
}

// Create inserts a new booking. The caller provides the booking
// reference; a collision on the unique index comes back as
// ErrDuplicateReference so the caller can regenerate and retry.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	now := time.Now()
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	booking.CreatedAt = now
	booking.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, booking)
	if isDuplicateKeyError(err) {
		return ErrDuplicateReference
	}
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// GetByID returns the booking with the given id
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByReference returns the booking with the given booking reference
func (r *BookingRepository) GetByReference(ctx context.Context, reference string) (*models.Booking, error) {
	return r.findOne(ctx, bson.M{"bookingReference": reference})
}

// GetByPaymentIntentID returns the booking correlated with a gateway
// payment intent
func (r *BookingRepository) GetByPaymentIntentID(ctx context.Context, intentID string) (*models.Booking, error) {
	return r.findOne(ctx, bson.M{"payment.stripePaymentIntentId": intentID})
}

func (r *BookingRepository) findOne(ctx context.Context, filter bson.M) (*models.Booking, error) {
	var booking models.Booking
	err := r.collection.FindOne(ctx, filter).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

// SetPaymentIntentID attaches the gateway payment intent to a booking
// after the intent is created
func (r *BookingRepository) SetPaymentIntentID(ctx context.Context, id, intentID string) error {
	update := bson.M{
		"$set": bson.M{
			"payment.stripePaymentIntentId": intentID,
			"payment.status":                models.PaymentStatusProcessing,
			"updatedAt":                     time.Now(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to set payment intent: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus writes the booking status and payment status together
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status models.BookingStatus, paymentStatus models.PaymentStatus) error {
	update := bson.M{
		"$set": bson.M{
			"status":         status,
			"payment.status": paymentStatus,
			"updatedAt":      time.Now(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns bookings matching the filter, newest first
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.TourDateID != "" {
		query["tourDate"] = filter.TourDateID
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetLimit(int64(limit)).
		SetSkip(int64(filter.Offset))

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}
