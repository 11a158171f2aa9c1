package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/openroadtours/booking-backend/internal/models"
	"github.com/openroadtours/booking-backend/internal/services"
)

// maxWebhookBody bounds the payload read; gateway events are small
const maxWebhookBody = 1 << 20

// WebhookHandler receives payment gateway webhook deliveries
type WebhookHandler struct {
	stripeService         *services.StripeService
	reconciliationService *services.ReconciliationService
	logger                *logrus.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(stripeService *services.StripeService, reconciliationService *services.ReconciliationService, logger *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{
		stripeService:         stripeService,
		reconciliationService: reconciliationService,
		logger:                logger,
	}
}

// HandleWebhook handles POST /api/v1/payments/webhook
//
// Response codes drive the gateway's retry loop: 200 acknowledges the
// delivery for good, 400 rejects a delivery that can never succeed, 500
// asks for redelivery after a transient failure.
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	event, err := h.stripeService.ParseEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		var unhandled *models.ErrUnhandledEventKind
		switch {
		case errors.Is(err, services.ErrInvalidSignature):
			h.logger.WithError(err).WithField("client_ip", c.ClientIP()).Warn("Webhook signature verification failed")
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		case errors.As(err, &unhandled):
			// Event kinds outside our closed set are acknowledged so the
			// gateway stops redelivering them
			h.logger.WithField("event_kind", unhandled.Kind).Info("Ignoring unhandled event kind")
			c.JSON(http.StatusOK, gin.H{"received": true, "ignored": true})
		default:
			h.logger.WithError(err).Warn("Malformed webhook payload")
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event payload"})
		}
		return
	}

	if err := h.reconciliationService.HandleEvent(c.Request.Context(), event); err != nil {
		h.logger.WithError(err).WithField("event_id", event.EventID()).Error("Failed to process webhook event, requesting redelivery")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "event processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
