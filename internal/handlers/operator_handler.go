package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/openroadtours/booking-backend/internal/database"
	"github.com/openroadtours/booking-backend/internal/models"
	"github.com/openroadtours/booking-backend/internal/services"
)

// AvailabilityWriter is the curation surface over tour dates
type AvailabilityWriter interface {
	SetAvailability(ctx context.Context, id string, availability models.Availability) error
}

// BookingLister lists bookings for operator review
type BookingLister interface {
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
}

// OperatorHandler serves the authenticated curation surface: login,
// availability overrides and booking review
type OperatorHandler struct {
	authService *services.OperatorAuthService
	tourDates   AvailabilityWriter
	bookings    BookingLister
	logger      *logrus.Logger
}

// NewOperatorHandler creates a new OperatorHandler
func NewOperatorHandler(
	authService *services.OperatorAuthService,
	tourDates AvailabilityWriter,
	bookings BookingLister,
	logger *logrus.Logger,
) *OperatorHandler {
	return &OperatorHandler{
		authService: authService,
		tourDates:   tourDates,
		bookings:    bookings,
		logger:      logger,
	}
}

// LoginRequest is the operator login payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is the token refresh payload
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateAvailabilityRequest is the availability override payload
type UpdateAvailabilityRequest struct {
	Availability models.Availability `json:"availability" binding:"required"`
}

// Login handles POST /api/v1/operator/login
func (h *OperatorHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	pair, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		h.logger.WithError(err).Error("Operator login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, pair)
}

// Refresh handles POST /api/v1/operator/refresh
func (h *OperatorHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	pair, err := h.authService.Refresh(req.RefreshToken)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
			return
		}
		h.logger.WithError(err).Error("Token refresh failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}

	c.JSON(http.StatusOK, pair)
}

// UpdateAvailability handles PATCH /api/v1/operator/tour-dates/:id/availability
func (h *OperatorHandler) UpdateAvailability(c *gin.Context) {
	var req UpdateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if !req.Availability.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown availability state: " + string(req.Availability)})
		return
	}

	id := c.Param("id")
	if err := h.tourDates.SetAvailability(c.Request.Context(), id, req.Availability); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "tour date not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to update availability")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update availability"})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"tour_date_id": id,
		"availability": req.Availability,
	}).Info("Operator set availability")

	c.JSON(http.StatusOK, gin.H{"id": id, "availability": req.Availability})
}

// ListBookings handles GET /api/v1/operator/bookings
func (h *OperatorHandler) ListBookings(c *gin.Context) {
	filter := models.BookingFilter{
		TourDateID: c.Query("tour_date_id"),
	}

	if status := c.Query("status"); status != "" {
		bs := models.BookingStatus(status)
		if !bs.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown booking status: " + status})
			return
		}
		filter.Status = bs
	}

	bookings, err := h.bookings.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list bookings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list bookings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}
