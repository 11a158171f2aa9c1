package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/openroadtours/booking-backend/internal/config"
	"github.com/openroadtours/booking-backend/internal/models"
)

// StripeService handles payment gateway integration with Stripe. It
// talks to the REST API directly: form-encoded requests with the secret
// key as a bearer token.
type StripeService struct {
	config *config.StripeConfig
	logger *logrus.Logger
	client *http.Client
}

// PaymentIntent is the subset of the gateway's intent object the booking
// flow needs. ClientSecret is handed to the client to redeem the hosted
// payment session; it is never stored.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

// stripeErrorResponse is the error envelope the API returns on 4xx
type stripeErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewStripeService creates a new Stripe payment service
func NewStripeService(cfg *config.StripeConfig, logger *logrus.Logger) *StripeService {
	return &StripeService{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreatePaymentIntentParams contains the inputs for a new payment intent
type CreatePaymentIntentParams struct {
	// Amount in the currency's major unit (e.g. dollars)
	Amount   float64
	Currency string
	// Metadata round-trips through the gateway so the webhook reconciler
	// can act without re-deriving business data
	BookingID         string
	TourDateID        string
	ParticipantsCount int
	Description       string
	ReceiptEmail      string
}

// CreatePaymentIntent creates a payment intent at the gateway and returns
// its id and client secret
func (s *StripeService) CreatePaymentIntent(ctx context.Context, params *CreatePaymentIntentParams) (*PaymentIntent, error) {
	if s.config.SecretKey == "" {
		return nil, fmt.Errorf("payment gateway not configured: missing secret key")
	}

	// Stripe amounts are in the smallest currency unit
	amountCents := int64(math.Round(params.Amount * 100))

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", strings.ToLower(params.Currency))
	form.Set("automatic_payment_methods[enabled]", "true")
	form.Set("metadata[bookingId]", params.BookingID)
	form.Set("metadata[tourDateId]", params.TourDateID)
	form.Set("metadata[participantsCount]", strconv.Itoa(params.ParticipantsCount))
	if params.Description != "" {
		form.Set("description", params.Description)
	}
	if params.ReceiptEmail != "" {
		form.Set("receipt_email", params.ReceiptEmail)
	}

	endpoint := s.config.APIBaseURL + "/v1/payment_intents"

	s.logger.WithFields(logrus.Fields{
		"booking_id":   params.BookingID,
		"tour_date_id": params.TourDateID,
		"amount_cents": amountCents,
		"currency":     params.Currency,
	}).Info("Creating payment intent")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build payment intent request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", params.BookingID)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.WithError(err).Error("Failed to call payment gateway")
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var gwErr stripeErrorResponse
		_ = json.Unmarshal(body, &gwErr)
		s.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"error_type":  gwErr.Error.Type,
			"error_code":  gwErr.Error.Code,
		}).Error("Payment gateway rejected intent creation")
		return nil, fmt.Errorf("%w: gateway returned status %d: %s", ErrGatewayUnavailable, resp.StatusCode, gwErr.Error.Message)
	}

	var intent PaymentIntent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, fmt.Errorf("failed to parse gateway response: %w", err)
	}
	if intent.ID == "" || intent.ClientSecret == "" {
		return nil, fmt.Errorf("%w: gateway returned incomplete intent", ErrGatewayUnavailable)
	}

	s.logger.WithFields(logrus.Fields{
		"payment_intent_id": intent.ID,
		"booking_id":        params.BookingID,
	}).Info("Payment intent created")

	return &intent, nil
}

// VerifySignature checks the Stripe-Signature header against the raw
// payload. The header carries a timestamp and one or more v1 HMAC-SHA256
// signatures over "<timestamp>.<payload>"; any matching v1 signature
// within the tolerance window passes.
func (s *StripeService) VerifySignature(payload []byte, header string, now time.Time) error {
	if header == "" {
		return fmt.Errorf("%w: missing signature header", ErrInvalidSignature)
	}

	var timestamp int64
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return fmt.Errorf("%w: malformed timestamp", ErrInvalidSignature)
			}
			timestamp = ts
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp == 0 || len(signatures) == 0 {
		return fmt.Errorf("%w: header missing timestamp or v1 signature", ErrInvalidSignature)
	}

	age := now.Sub(time.Unix(timestamp, 0))
	if age > s.config.SignatureTolerance || age < -s.config.SignatureTolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(s.config.WebhookSecret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return nil
		}
	}
	return fmt.Errorf("%w: no matching v1 signature", ErrInvalidSignature)
}

// ParseEvent verifies a webhook delivery and decodes it into a payment
// event. Verification always happens before any payload parsing.
func (s *StripeService) ParseEvent(payload []byte, signatureHeader string) (models.PaymentEvent, error) {
	if err := s.VerifySignature(payload, signatureHeader, time.Now()); err != nil {
		return nil, err
	}
	return models.ParsePaymentEvent(payload)
}
