package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/openroadtours/booking-backend/internal/database"
	"github.com/openroadtours/booking-backend/internal/models"
)

// TourStore is the catalogue read surface
type TourStore interface {
	List(ctx context.Context) ([]models.Tour, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tour, error)
}

// TourDateCatalog lists the departures of a tour
type TourDateCatalog interface {
	ListByTour(ctx context.Context, tourID string) ([]models.TourDate, error)
}

// TourHandler serves the public tour catalogue
type TourHandler struct {
	tours     TourStore
	tourDates TourDateCatalog
	logger    *logrus.Logger
}

// NewTourHandler creates a new TourHandler
func NewTourHandler(tours TourStore, tourDates TourDateCatalog, logger *logrus.Logger) *TourHandler {
	return &TourHandler{
		tours:     tours,
		tourDates: tourDates,
		logger:    logger,
	}
}

// List handles GET /api/v1/tours
func (h *TourHandler) List(c *gin.Context) {
	tours, err := h.tours.List(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list tours")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tours"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tours": tours})
}

// GetBySlug handles GET /api/v1/tours/:slug
func (h *TourHandler) GetBySlug(c *gin.Context) {
	tour, err := h.tours.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "tour not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to get tour")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get tour"})
		return
	}
	c.JSON(http.StatusOK, tour)
}

// ListDates handles GET /api/v1/tours/:slug/dates
func (h *TourHandler) ListDates(c *gin.Context) {
	tour, err := h.tours.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "tour not found"})
			return
		}
		h.logger.WithError(err).Error("Failed to get tour")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get tour"})
		return
	}

	dates, err := h.tourDates.ListByTour(c.Request.Context(), tour.ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list tour dates")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tour dates"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tour": tour, "dates": dates})
}
