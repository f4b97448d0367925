package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/roomhub/roomhub/internal/middleware"
	"github.com/roomhub/roomhub/internal/models"
	"github.com/roomhub/roomhub/internal/repository"
	"go.uber.org/zap"
)

type PollHandler struct {
	repo   repository.PollRepository
	logger *zap.Logger
}

func NewPollHandler(repo repository.PollRepository, logger *zap.Logger) *PollHandler {
	return &PollHandler{repo: repo, logger: logger}
}

type createPollRequest struct {
	Question  string    `json:"question" binding:"required"`
	ExpiresAt time.Time `json:"expires_at" binding:"required"`
	Options   []string  `json:"options" binding:"required"`
}

// Create handles POST /v1/polls. A poll needs at least two non-empty
// options to be a question at all; blank options are discarded before
// the count check.
func (h *PollHandler) Create(c *gin.Context) {
	var req createPollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	options := make([]string, 0, len(req.Options))
	for _, opt := range req.Options {
		if trimmed := strings.TrimSpace(opt); trimmed != "" {
			options = append(options, trimmed)
		}
	}
	if len(options) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a poll needs at least two non-empty options"})
		return
	}
	if !req.ExpiresAt.After(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expiry must be in the future"})
		return
	}

	roomID := middleware.GetRoomID(c)
	userID := middleware.GetUserID(c)

	poll, err := h.repo.Create(c.Request.Context(), roomID, req.Question, userID, req.ExpiresAt, options)
	if err != nil {
		h.logger.Error("failed to create poll", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create poll"})
		return
	}

	c.JSON(http.StatusCreated, poll)
}

// List handles GET /v1/polls?filter=all|active|closed. Active versus
// closed is decided against the clock at request time.
func (h *PollHandler) List(c *gin.Context) {
	roomID := middleware.GetRoomID(c)

	polls, err := h.repo.ListByRoom(c.Request.Context(), roomID)
	if err != nil {
		h.logger.Error("failed to list polls", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list polls"})
		return
	}

	c.JSON(http.StatusOK, models.FilterPolls(polls, c.Query("filter"), time.Now()))
}

type voteRequest struct {
	OptionID uuid.UUID `json:"option_id" binding:"required"`
}

// Vote handles POST /v1/polls/:id/vote. One vote per member per poll;
// voting again moves the existing vote to the new option. Votes
// against a closed poll are refused.
func (h *PollHandler) Vote(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid poll id"})
		return
	}

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roomID := middleware.GetRoomID(c)
	userID := middleware.GetUserID(c)

	err = h.repo.Vote(c.Request.Context(), roomID, pollID, req.OptionID, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPollNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "poll not found"})
		case errors.Is(err, repository.ErrOptionNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "option does not belong to this poll"})
		case errors.Is(err, repository.ErrPollClosed):
			c.JSON(http.StatusConflict, gin.H{"error": "poll is closed"})
		default:
			h.logger.Error("failed to record vote", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record vote"})
		}
		return
	}

	poll, err := h.repo.GetByID(c.Request.Context(), roomID, pollID)
	if err != nil {
		h.logger.Error("failed to reload poll after vote", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load poll"})
		return
	}
	if poll == nil {
		// Deleted between the vote and the reload.
		c.JSON(http.StatusNotFound, gin.H{"error": "poll not found"})
		return
	}

	c.JSON(http.StatusOK, poll)
}

// Delete handles DELETE /v1/polls/:id — creator or admin only.
func (h *PollHandler) Delete(c *gin.Context) {
	pollID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid poll id"})
		return
	}

	roomID := middleware.GetRoomID(c)
	userID := middleware.GetUserID(c)

	deleted, err := h.repo.Delete(c.Request.Context(), roomID, pollID, userID, middleware.IsRoomAdmin(c))
	if err != nil {
		h.logger.Error("failed to delete poll", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete poll"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "poll not found"})
		return
	}

	c.Status(http.StatusNoContent)
}
