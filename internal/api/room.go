package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roomhub/roomhub/internal/middleware"
	"github.com/roomhub/roomhub/internal/models"
	"github.com/roomhub/roomhub/internal/repository"
	"github.com/roomhub/roomhub/internal/scope"
	"go.uber.org/zap"
)

// RoomHandler covers room setup: create, join, leave, and the current
// room's detail. These are the only endpoints reachable from the
// authenticated-no-room scope (besides the profile).
type RoomHandler struct {
	rooms       repository.RoomRepository
	memberships repository.MembershipRepository
	resolver    *scope.Resolver
	logger      *zap.Logger
}

func NewRoomHandler(
	rooms repository.RoomRepository,
	memberships repository.MembershipRepository,
	resolver *scope.Resolver,
	logger *zap.Logger,
) *RoomHandler {
	return &RoomHandler{
		rooms:       rooms,
		memberships: memberships,
		resolver:    resolver,
		logger:      logger,
	}
}

type createRoomRequest struct {
	Name string `json:"name" binding:"required"`
}

// Create handles POST /v1/rooms. The room id is the slugified name
// and gets returned for sharing with invitees; a name that collides
// with an existing slug is rejected with 409 instead of overwriting.
func (h *RoomHandler) Create(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := models.SlugifyRoomName(req.Name)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room name cannot be blank"})
		return
	}

	userID := middleware.GetUserID(c)
	room, err := h.rooms.Create(c.Request.Context(), id, req.Name, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRoomExists):
			c.JSON(http.StatusConflict, gin.H{"error": "a room with this name already exists"})
		case errors.Is(err, repository.ErrAlreadyInRoom):
			c.JSON(http.StatusConflict, gin.H{"error": "you already belong to a room"})
		default:
			h.logger.Error("failed to create room", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
		}
		return
	}

	// The caller's scope just changed; the next resolution must see
	// the new membership, not a cached no-room.
	h.resolver.Invalidate(c.Request.Context(), userID)

	c.JSON(http.StatusCreated, room)
}

type joinRoomRequest struct {
	RoomID string `json:"room_id" binding:"required"`
}

// Join handles POST /v1/rooms/join. The room id is what an invitee
// types in, exactly as shared — lookups are case-sensitive.
func (h *RoomHandler) Join(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.GetUserID(c)
	room, err := h.rooms.Join(c.Request.Context(), req.RoomID, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRoomNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		case errors.Is(err, repository.ErrAlreadyInRoom):
			c.JSON(http.StatusConflict, gin.H{"error": "you already belong to a room"})
		default:
			h.logger.Error("failed to join room", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join room"})
		}
		return
	}

	h.resolver.Invalidate(c.Request.Context(), userID)

	c.JSON(http.StatusOK, room)
}

// Leave handles POST /v1/rooms/leave. Leaving is idempotent; the room
// itself survives even when the admin walks out.
func (h *RoomHandler) Leave(c *gin.Context) {
	userID := middleware.GetUserID(c)

	if err := h.rooms.Leave(c.Request.Context(), userID); err != nil {
		h.logger.Error("failed to leave room", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to leave room"})
		return
	}

	h.resolver.Invalidate(c.Request.Context(), userID)

	c.Status(http.StatusNoContent)
}

type currentRoomResponse struct {
	Room    *models.Room    `json:"room"`
	Members []models.Member `json:"members"`
}

// Current handles GET /v1/rooms/current. Runs behind RequireRoom, so
// the resolved room id is already in the context.
func (h *RoomHandler) Current(c *gin.Context) {
	roomID := middleware.GetRoomID(c)

	room, err := h.rooms.GetByID(c.Request.Context(), roomID)
	if err != nil {
		h.logger.Error("failed to get room", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get room"})
		return
	}
	if room == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	members, err := h.memberships.ListMembers(c.Request.Context(), roomID)
	if err != nil {
		h.logger.Error("failed to list members", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list members"})
		return
	}

	c.JSON(http.StatusOK, currentRoomResponse{Room: room, Members: members})
}
