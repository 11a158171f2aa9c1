package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/openroadtours/booking-backend/internal/config"
)

// Collection names
const (
	ToursCollection     = "tours"
	TourDatesCollection = "tour_dates"
	BookingsCollection  = "bookings"
)

// Connect establishes the MongoDB connection and verifies it with a ping
func Connect(cfg config.MongoConfig, logger *logrus.Logger) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	logger.WithField("database", cfg.Database).Info("Connected to MongoDB")

	return client, client.Database(cfg.Database), nil
}

// EnsureIndexes creates the indexes the booking flow depends on. The
// unique index on bookingReference is what makes reference collisions a
// retryable insert error instead of silent duplicates.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	bookingIdxs := []mongo.IndexModel{
		{
			Keys:    bson.M{"bookingReference": 1},
			Options: options.Index().SetUnique(true).SetName("unique_booking_reference"),
		},
		{
			Keys:    bson.M{"payment.stripePaymentIntentId": 1},
			Options: options.Index().SetName("payment_intent_lookup").SetSparse(true),
		},
		{
			Keys:    bson.M{"tourDate": 1, "status": 1},
			Options: options.Index().SetName("tour_date_status"),
		},
	}
	if _, err := db.Collection(BookingsCollection).Indexes().CreateMany(ctx, bookingIdxs); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}

	tourIdxs := []mongo.IndexModel{
		{
			Keys:    bson.M{"slug": 1},
			Options: options.Index().SetUnique(true).SetName("unique_tour_slug"),
		},
	}
	if _, err := db.Collection(ToursCollection).Indexes().CreateMany(ctx, tourIdxs); err != nil {
		return fmt.Errorf("failed to create tour indexes: %w", err)
	}

	dateIdxs := []mongo.IndexModel{
		{
			Keys:    bson.M{"tour": 1, "startDate": 1},
			Options: options.Index().SetName("tour_start_date"),
		},
	}
	if _, err := db.Collection(TourDatesCollection).Indexes().CreateMany(ctx, dateIdxs); err != nil {
		return fmt.Errorf("failed to create tour date indexes: %w", err)
	}

	return nil
}
