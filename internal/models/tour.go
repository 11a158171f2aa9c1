package models

import "time"

// Tour represents a motorcycle tour product. Tours are authored by
// operators and are read-only inputs to the booking flow; pricing for a
// specific departure comes from the TourDate, which may override the base
// price here.
type Tour struct {
	ID           string    `bson:"_id" json:"id"`
	Title        string    `bson:"title" json:"title"`
	Slug         string    `bson:"slug" json:"slug"`
	Price        float64   `bson:"price" json:"price"`
	DurationDays int       `bson:"durationDays" json:"duration_days"`
	Summary      string    `bson:"summary,omitempty" json:"summary,omitempty"`
	CreatedAt    time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updated_at"`
}
