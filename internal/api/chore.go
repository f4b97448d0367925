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

type ChoreHandler struct {
	repo        repository.ChoreRepository
	memberships repository.MembershipRepository
	logger      *zap.Logger
}

func NewChoreHandler(repo repository.ChoreRepository, memberships repository.MembershipRepository, logger *zap.Logger) *ChoreHandler {
	return &ChoreHandler{repo: repo, memberships: memberships, logger: logger}
}

// choreRequest is shared by create and update — the editable fields
// are the same both times. The room id never comes from the body; it
// is always the caller's resolved room.
type choreRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	AssignedTo  uuid.UUID `json:"assigned_to" binding:"required"`
	DueDate     time.Time `json:"due_date" binding:"required"`
}

// Create handles POST /v1/chores
func (h *ChoreHandler) Create(c *gin.Context) {
	var req choreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roomID := middleware.GetRoomID(c)
	userID := middleware.GetUserID(c)

	members, err := roomMemberSet(c.Request.Context(), h.memberships, roomID)
	if err != nil {
		h.logger.Error("failed to list members", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create chore"})
		return
	}
	if !members[req.AssignedTo] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "assigned user is not a member of this room"})
		return
	}

	chore, err := h.repo.Create(c.Request.Context(), roomID, req.Title, req.Description, req.AssignedTo, userID, req.DueDate)
	if err != nil {
		h.logger.Error("failed to create chore", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create chore"})
		return
	}

	c.JSON(http.StatusCreated, chore)
}

// List handles GET /v1/chores?filter=all|mine|pending|completed
func (h *ChoreHandler) List(c *gin.Context) {
	roomID := middleware.GetRoomID(c)
	userID := middleware.GetUserID(c)

	chores, err := h.repo.ListByRoom(c.Request.Context(), roomID)
	if err != nil {
		h.logger.Error("failed to list chores", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list chores"})
		return
	}

	c.JSON(http.StatusOK, models.FilterChores(chores, c.Query("filter"), userID))
}

// Update handles PATCH /v1/chores/:id
func (h *ChoreHandler) Update(c *gin.Context) {
	choreID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chore id"})
		return
	}

	var req choreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roomID := middleware.GetRoomID(c)

	members, err := roomMemberSet(c.Request.Context(), h.memberships, roomID)
	if err != nil {
		h.logger.Error("failed to list members", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update chore"})
		return
	}
	if !members[req.AssignedTo] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "assigned user is not a member of this room"})
		return
	}

	chore, err := h.repo.Update(c.Request.Context(), roomID, choreID, req.Title, req.Description, req.AssignedTo, req.DueDate)
	if err != nil {
		h.logger.Error("failed to update chore", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update chore"})
		return
	}
	if chore == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "chore not found"})
		return
	}

	c.JSON(http.StatusOK, chore)
}

// Toggle handles POST /v1/chores/:id/toggle — pending<->completed.
func (h *ChoreHandler) Toggle(c *gin.Context) {
	choreID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chore id"})
		return
	}

	roomID := middleware.GetRoomID(c)
	userID := middleware.GetUserID(c)

	chore, err := h.repo.Toggle(c.Request.Context(), roomID, choreID, userID)
	if err != nil {
		h.logger.Error("failed to toggle chore", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to toggle chore"})
		return
	}
	if chore == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "chore not found"})
		return
	}

	c.JSON(http.StatusOK, chore)
}

// Delete handles DELETE /v1/chores/:id. Only the creator or the room
// admin may delete; anyone else sees the same 404 as a missing chore.
func (h *ChoreHandler) Delete(c *gin.Context) {
	choreID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chore id"})
		return
	}

	roomID := middleware.GetRoomID(c)
	userID := middleware.GetUserID(c)

	deleted, err := h.repo.Delete(c.Request.Context(), roomID, choreID, userID, middleware.IsRoomAdmin(c))
	if err != nil {
		h.logger.Error("failed to delete chore", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete chore"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "chore not found"})
		return
	}

	c.Status(http.StatusNoContent)
}
