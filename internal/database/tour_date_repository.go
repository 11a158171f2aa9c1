package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/openroadtours/booking-backend/internal/models"
)

// TourDateRepository handles departures and their seat counters
type TourDateRepository struct {
	collection *mongo.Collection
}

// NewTourDateRepository creates a new tour date repository
func NewTourDateRepository(db *mongo.Database) *TourDateRepository {
	return &TourDateRepository{collection: db.Collection(TourDatesCollection)}
}

// GetByID returns the tour date with the given id
func (r *TourDateRepository) GetByID(ctx context.Context, id string) (*models.TourDate, error) {
	var td models.TourDate
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&td)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tour date: %w", err)
	}
	return &td, nil
}

// ListByTour returns the departures for one tour ordered by start date
func (r *TourDateRepository) ListByTour(ctx context.Context, tourID string) ([]models.TourDate, error) {
	opts := options.Find().SetSort(bson.M{"startDate": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"tour": tourID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list tour dates: %w", err)
	}
	defer cursor.Close(ctx)

	dates := []models.TourDate{}
	if err := cursor.All(ctx, &dates); err != nil {
		return nil, fmt.Errorf("failed to decode tour dates: %w", err)
	}
	return dates, nil
}

// IncrementBookings adds delta seats to currentBookings, but only if the
// result stays within maxParticipants. The filter and the $inc run as one
// document-level atomic operation, so two concurrent payments for the last
// seat cannot both succeed.
//
// Returns the updated document, ErrNotFound if the id does not exist, or
// ErrCapacityExceeded if the date exists but the increment would overshoot.
func (r *TourDateRepository) IncrementBookings(ctx context.Context, id string, delta int) (*models.TourDate, error) {
	filter := bson.M{
		"_id": id,
		"$expr": bson.M{
			"$lte": bson.A{
				bson.M{"$add": bson.A{"$currentBookings", delta}},
				"$maxParticipants",
			},
		},
	}
	update := bson.M{
		"$inc": bson.M{"currentBookings": delta},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var td models.TourDate
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&td)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Distinguish a missing date from a full one
		if _, lookupErr := r.GetByID(ctx, id); lookupErr != nil {
			return nil, lookupErr
		}
		return nil, ErrCapacityExceeded
	}
	if err != nil {
		return nil, fmt.Errorf("failed to increment bookings: %w", err)
	}
	return &td, nil
}

// SetAvailability writes the availability label
func (r *TourDateRepository) SetAvailability(ctx context.Context, id string, availability models.Availability) error {
	update := bson.M{
		"$set": bson.M{
			"availability": availability,
			"updatedAt":    time.Now(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to set availability: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
