package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"turnstile/internal/models"
)

// CreateEvent - POST /api/events
func (h *Handlers) CreateEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.services.Events.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err, "Failed to create event")
		return
	}

	c.JSON(http.StatusCreated, models.CreateEventResponse{ID: event.ID})
}

// EventStats - GET /api/events/:id/stats
func (h *Handlers) EventStats(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id format"})
		return
	}

	stats, err := h.services.Events.Stats(c.Request.Context(), eventID)
	if err != nil {
		h.handleServiceError(c, err, "Failed to get event stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Report - GET /api/report
func (h *Handlers) Report(c *gin.Context) {
	report, err := h.services.Events.Report(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err, "Failed to build report")
		return
	}

	c.JSON(http.StatusOK, report)
}
