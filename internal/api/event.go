package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/roomhub/roomhub/internal/middleware"
	"github.com/roomhub/roomhub/internal/models"
	"github.com/roomhub/roomhub/internal/repository"
	"go.uber.org/zap"
)

type EventHandler struct {
	repo   repository.EventRepository
	logger *zap.Logger
}

func NewEventHandler(repo repository.EventRepository, logger *zap.Logger) *EventHandler {
	return &EventHandler{repo: repo, logger: logger}
}

type eventRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	StartAt     time.Time `json:"start_at" binding:"required"`
	EndAt       time.Time `json:"end_at" binding:"required"`
	Type        string    `json:"type" binding:"required"`
}

func (r eventRequest) validate() string {
	if r.EndAt.Before(r.StartAt) {
		return "event cannot end before it starts"
	}
	if !models.ValidEventType(r.Type) {
		return "unknown event type"
	}
	return ""
}

// Create handles POST /v1/events
func (h *EventHandler) Create(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := req.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	roomID := middleware.GetRoomID(c)
	userID := middleware.GetUserID(c)

	event, err := h.repo.Create(c.Request.Context(), roomID, req.Title, req.Description, req.StartAt, req.EndAt, userID, req.Type)
	if err != nil {
		h.logger.Error("failed to create event", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create event"})
		return
	}

	c.JSON(http.StatusCreated, event)
}

// List handles GET /v1/events?type=task&from=...&to=...
// from/to are RFC3339 bounds on the visible window (both optional).
func (h *EventHandler) List(c *gin.Context) {
	var from, to time.Time
	var err error
	if raw := c.Query("from"); raw != "" {
		if from, err = time.Parse(time.RFC3339, raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'from' parameter"})
			return
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err = time.Parse(time.RFC3339, raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'to' parameter"})
			return
		}
	}

	roomID := middleware.GetRoomID(c)
	events, err := h.repo.ListByRoom(c.Request.Context(), roomID)
	if err != nil {
		h.logger.Error("failed to list events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list events"})
		return
	}

	c.JSON(http.StatusOK, models.FilterEvents(events, c.Query("type"), from, to))
}

// Update handles PATCH /v1/events/:id
func (h *EventHandler) Update(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := req.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	roomID := middleware.GetRoomID(c)
	event, err := h.repo.Update(c.Request.Context(), roomID, eventID, req.Title, req.Description, req.StartAt, req.EndAt, req.Type)
	if err != nil {
		h.logger.Error("failed to update event", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update event"})
		return
	}
	if event == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}

	c.JSON(http.StatusOK, event)
}

// Delete handles DELETE /v1/events/:id — creator or admin only.
func (h *EventHandler) Delete(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	roomID := middleware.GetRoomID(c)
	userID := middleware.GetUserID(c)

	deleted, err := h.repo.Delete(c.Request.Context(), roomID, eventID, userID, middleware.IsRoomAdmin(c))
	if err != nil {
		h.logger.Error("failed to delete event", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete event"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}

	c.Status(http.StatusNoContent)
}
