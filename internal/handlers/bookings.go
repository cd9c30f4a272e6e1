package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"turnstile/internal/models"
)

// CreateBooking - POST /api/bookings
func (h *Handlers) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.services.Bookings.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err, "Failed to create booking")
		return
	}

	c.JSON(http.StatusCreated, bookingView(booking))
}

// GetBooking - GET /api/bookings/:id
// Callers poll this until the booking leaves PENDING.
func (h *Handlers) GetBooking(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id format"})
		return
	}

	booking, err := h.services.Bookings.GetByID(c.Request.Context(), bookingID)
	if err != nil {
		h.handleServiceError(c, err, "Failed to get booking")
		return
	}

	c.JSON(http.StatusOK, bookingView(booking))
}

func bookingView(b *models.Booking) models.BookingResponse {
	return models.BookingResponse{
		ID:               b.ID,
		EventID:          b.EventID,
		UserID:           b.UserID,
		Quantity:         b.Quantity,
		Status:           b.Status,
		ConfirmationCode: b.ConfirmationCode,
		CreatedAt:        b.CreatedAt.Format(time.RFC3339),
	}
}
