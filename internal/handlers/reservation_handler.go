package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/openroadtours/booking-backend/internal/middleware"
	"github.com/openroadtours/booking-backend/internal/models"
	"github.com/openroadtours/booking-backend/internal/services"
)

// ReservationHandler handles reservation intake and status lookups
type ReservationHandler struct {
	reservationService *services.ReservationService
	logger             *logrus.Logger
}

// NewReservationHandler creates a new ReservationHandler
func NewReservationHandler(reservationService *services.ReservationService, logger *logrus.Logger) *ReservationHandler {
	return &ReservationHandler{
		reservationService: reservationService,
		logger:             logger,
	}
}

// Create handles POST /api/v1/reservations
// @Summary Create a reservation
// @Description Creates a pending booking and opens a payment intent for it
// @Tags Reservations
// @Accept json
// @Produce json
// @Param request body models.CreateReservationRequest true "Reservation request"
// @Success 201 {object} models.ReservationResponse
// @Failure 400 {object} map[string]interface{} "Validation error"
// @Failure 404 {object} map[string]interface{} "Tour date not found"
// @Failure 409 {object} map[string]interface{} "Tour date unavailable"
// @Failure 502 {object} map[string]interface{} "Payment gateway unavailable"
// @Router /reservations [post]
func (h *ReservationHandler) Create(c *gin.Context) {
	var req models.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	deviceInfo := middleware.GetDeviceInfo(c)

	response, err := h.reservationService.CreateReservation(c.Request.Context(), &req, deviceInfo)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTourDateNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "tour date not found"})
		case errors.Is(err, services.ErrTourDateUnavailable):
			c.JSON(http.StatusConflict, gin.H{"error": "tour date is not available for booking"})
		case errors.Is(err, services.ErrNotEnoughSpots):
			c.JSON(http.StatusConflict, gin.H{"error": "not enough spots left on this tour date"})
		case errors.Is(err, services.ErrGatewayUnavailable):
			h.logger.WithError(err).Error("Payment gateway failure during reservation")
			c.JSON(http.StatusBadGateway, gin.H{"error": "payment service temporarily unavailable"})
		default:
			h.logger.WithError(err).Error("Failed to create reservation")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create reservation"})
		}
		return
	}

	c.JSON(http.StatusCreated, response)
}

// GetByReference handles GET /api/v1/reservations/:reference
// @Summary Look up a booking by reference
// @Tags Reservations
// @Produce json
// @Param reference path string true "Booking reference"
// @Success 200 {object} models.Booking
// @Failure 404 {object} map[string]interface{} "Booking not found"
// @Router /reservations/{reference} [get]
func (h *ReservationHandler) GetByReference(c *gin.Context) {
	reference := c.Param("reference")

	booking, err := h.reservationService.GetByReference(c.Request.Context(), reference)
	if err != nil {
		if errors.Is(err, services.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to look up booking")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up booking"})
		return
	}

	c.JSON(http.StatusOK, booking)
}
