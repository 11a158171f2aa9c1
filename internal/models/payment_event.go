package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Stripe event types the reconciler acts on. Everything else is
// acknowledged but ignored.
const (
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventPaymentIntentFailed    = "payment_intent.payment_failed"
)

// PaymentEvent is the closed set of reconciler inputs. Exactly one of
// the two concrete variants implements it.
type PaymentEvent interface {
	// EventID is the gateway's unique event id, used for deduplication.
	EventID() string
	// PaymentIntentID correlates the event to a Booking.
	PaymentIntentID() string
	isPaymentEvent()
}

// PaymentSucceeded reports a completed payment. ParticipantsCount comes
// from the intent metadata written at reservation time, so the reconciler
// never has to re-read the booking to size the seat increment.
type PaymentSucceeded struct {
	ID                string
	IntentID          string
	TourDateID        string
	ParticipantsCount int
}

func (e PaymentSucceeded) EventID() string         { return e.ID }
func (e PaymentSucceeded) PaymentIntentID() string { return e.IntentID }
func (e PaymentSucceeded) isPaymentEvent()         {}

// PaymentFailed reports a failed payment attempt. It carries no seat
// information because failure never touches capacity.
type PaymentFailed struct {
	ID       string
	IntentID string
	Reason   string
}

func (e PaymentFailed) EventID() string         { return e.ID }
func (e PaymentFailed) PaymentIntentID() string { return e.IntentID }
func (e PaymentFailed) isPaymentEvent()         {}

// ErrUnhandledEventKind marks event types outside the reconciler's closed
// set. Callers acknowledge these with 200 so the gateway stops retrying.
type ErrUnhandledEventKind struct {
	Kind string
}

func (e *ErrUnhandledEventKind) Error() string {
	return fmt.Sprintf("unhandled event kind: %s", e.Kind)
}

// stripeEvent mirrors the subset of the gateway's event envelope the
// reconciler reads.
type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string            `json:"id"`
			Metadata map[string]string `json:"metadata"`
			LastPaymentError *struct {
				Message string `json:"message"`
			} `json:"last_payment_error"`
		} `json:"object"`
	} `json:"data"`
}

// ParsePaymentEvent decodes a verified webhook payload into one of the
// closed event variants. Unknown event types return ErrUnhandledEventKind;
// known types with malformed payloads return a plain error, which callers
// treat as a bad request.
func ParsePaymentEvent(payload []byte) (PaymentEvent, error) {
	var raw stripeEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode event payload: %w", err)
	}

	switch raw.Type {
	case EventPaymentIntentSucceeded:
		intentID := raw.Data.Object.ID
		if intentID == "" {
			return nil, fmt.Errorf("succeeded event %s has no payment intent id", raw.ID)
		}
		meta := raw.Data.Object.Metadata
		count, err := strconv.Atoi(meta["participantsCount"])
		if err != nil || count < 1 {
			return nil, fmt.Errorf("succeeded event %s has invalid participantsCount %q", raw.ID, meta["participantsCount"])
		}
		tourDateID := meta["tourDateId"]
		if tourDateID == "" {
			return nil, fmt.Errorf("succeeded event %s has no tourDateId metadata", raw.ID)
		}
		return PaymentSucceeded{
			ID:                raw.ID,
			IntentID:          intentID,
			TourDateID:        tourDateID,
			ParticipantsCount: count,
		}, nil

	case EventPaymentIntentFailed:
		intentID := raw.Data.Object.ID
		if intentID == "" {
			return nil, fmt.Errorf("failed event %s has no payment intent id", raw.ID)
		}
		reason := ""
		if raw.Data.Object.LastPaymentError != nil {
			reason = raw.Data.Object.LastPaymentError.Message
		}
		return PaymentFailed{
			ID:       raw.ID,
			IntentID: intentID,
			Reason:   reason,
		}, nil

	default:
		return nil, &ErrUnhandledEventKind{Kind: raw.Type}
	}
}
