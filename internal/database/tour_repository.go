package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/openroadtours/booking-backend/internal/models"
)

// TourRepository handles tour catalogue reads
type TourRepository struct {
	collection *mongo.Collection
}

// NewTourRepository creates a new tour repository
func NewTourRepository(db *mongo.Database) *TourRepository {
	return &TourRepository{collection: db.Collection(ToursCollection)}
}

// List returns all tours ordered by title
func (r *TourRepository) List(ctx context.Context) ([]models.Tour, error) {
	opts := options.Find().SetSort(bson.M{"title": 1})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list tours: %w", err)
	}
	defer cursor.Close(ctx)

	tours := []models.Tour{}
	if err := cursor.All(ctx, &tours); err != nil {
		return nil, fmt.Errorf("failed to decode tours: %w", err)
	}
	return tours, nil
}

// GetBySlug returns the tour with the given slug
func (r *TourRepository) GetBySlug(ctx context.Context, slug string) (*models.Tour, error) {
	var tour models.Tour
	err := r.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&tour)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tour by slug: %w", err)
	}
	return &tour, nil
}

// GetByID returns the tour with the given id
func (r *TourRepository) GetByID(ctx context.Context, id string) (*models.Tour, error) {
	var tour models.Tour
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&tour)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tour: %w", err)
	}
	return &tour, nil
}
