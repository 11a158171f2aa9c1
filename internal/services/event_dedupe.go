package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// EventDeduper short-circuits webhook deliveries that were already fully
// processed. It is a fast path only; the durable idempotence guard is
// the booking status itself.
type EventDeduper interface {
	AlreadyProcessed(ctx context.Context, eventID string) bool
	MarkProcessed(ctx context.Context, eventID string)
}

// redisEventDeduper backs the dedupe set with redis keys. All redis
// failures fail open: a missed dedupe hit costs one redundant pass
// through the durable guard, never a double booking.
type redisEventDeduper struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewEventDeduper creates a redis-backed event deduper
func NewEventDeduper(client *redis.Client, logger *logrus.Logger) EventDeduper {
	return &redisEventDeduper{
		client: client,
		ttl:    24 * time.Hour,
		logger: logger,
	}
}

func dedupeKey(eventID string) string {
	return "webhook:event:" + eventID
}

func (d *redisEventDeduper) AlreadyProcessed(ctx context.Context, eventID string) bool {
	n, err := d.client.Exists(ctx, dedupeKey(eventID)).Result()
	if err != nil {
		d.logger.WithError(err).Warn("Event dedupe lookup failed, falling through to durable guard")
		return false
	}
	return n > 0
}

func (d *redisEventDeduper) MarkProcessed(ctx context.Context, eventID string) {
	if err := d.client.Set(ctx, dedupeKey(eventID), "1", d.ttl).Err(); err != nil {
		d.logger.WithError(err).Warn("Failed to mark event as processed")
	}
}
