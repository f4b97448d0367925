package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/roomhub/roomhub/internal/chat"
	"github.com/roomhub/roomhub/internal/middleware"
	"github.com/roomhub/roomhub/internal/repository"
	"go.uber.org/zap"
)

// MessageHandler handles room chat. Messages are written through POST
// so they always persist; the hub only fans the accepted message out
// to live WebSocket subscribers.
type MessageHandler struct {
	repo   repository.MessageRepository
	hub    *chat.Hub
	logger *zap.Logger
}

func NewMessageHandler(repo repository.MessageRepository, hub *chat.Hub, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{repo: repo, hub: hub, logger: logger}
}

type createMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

// Create handles POST /v1/messages
func (h *MessageHandler) Create(c *gin.Context) {
	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roomID := middleware.GetRoomID(c)
	userID := middleware.GetUserID(c)

	msg, err := h.repo.Create(c.Request.Context(), roomID, userID, req.Body)
	if err != nil {
		h.logger.Error("failed to create message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}

	h.hub.Publish(c.Request.Context(), msg)

	c.JSON(http.StatusCreated, msg)
}

// List handles GET /v1/messages?before=123&limit=50
//
// Keyset pagination: "before" is a message id, 0 means newest page.
// "limit" defaults to 50, capped at 100.
func (h *MessageHandler) List(c *gin.Context) {
	var before int64
	var err error
	if b := c.Query("before"); b != "" {
		before, err = strconv.ParseInt(b, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'before' parameter"})
			return
		}
	}

	limit := 50
	if l := c.Query("limit"); l != "" {
		limit, err = strconv.Atoi(l)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'limit' parameter"})
			return
		}
		if limit > 100 {
			limit = 100
		}
	}

	roomID := middleware.GetRoomID(c)
	messages, err := h.repo.ListByRoom(c.Request.Context(), roomID, before, limit)
	if err != nil {
		h.logger.Error("failed to list messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}

	c.JSON(http.StatusOK, messages)
}

type markReadRequest struct {
	UpTo int64 `json:"up_to" binding:"required,gt=0"`
}

// MarkRead handles POST /v1/messages/read — records the caller as
// having read everything up to the given message id. Idempotent.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roomID := middleware.GetRoomID(c)
	userID := middleware.GetUserID(c)

	if err := h.repo.MarkRead(c.Request.Context(), roomID, userID, req.UpTo); err != nil {
		h.logger.Error("failed to mark messages read", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark messages read"})
		return
	}

	c.Status(http.StatusNoContent)
}
