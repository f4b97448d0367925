package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roomhub/roomhub/internal/middleware"
	"github.com/roomhub/roomhub/internal/models"
	"github.com/roomhub/roomhub/internal/repository"
	"github.com/roomhub/roomhub/internal/scope"
	"go.uber.org/zap"
)

// UserHandler serves the caller's own profile. This is also where a
// client bootstraps its session: /users/me returns the resolved
// access scope alongside the profile, which tells the client whether
// to show the room-setup screen or the household screens.
type UserHandler struct {
	repo     repository.UserRepository
	resolver *scope.Resolver
	logger   *zap.Logger
}

func NewUserHandler(repo repository.UserRepository, resolver *scope.Resolver, logger *zap.Logger) *UserHandler {
	return &UserHandler{repo: repo, resolver: resolver, logger: logger}
}

type meResponse struct {
	User  *models.User `json:"user"`
	Scope scope.Scope  `json:"scope"`
}

// GetMe handles GET /v1/users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	userID := middleware.GetUserID(c)

	user, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to get user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get user"})
		return
	}
	if user == nil {
		// Token is valid but the profile row is gone. 404, not 500 —
		// this is a data problem, not a server fault.
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	s, err := h.resolver.Resolve(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to resolve scope", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get user"})
		return
	}

	c.JSON(http.StatusOK, meResponse{User: user, Scope: s})
}

type updateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	PhotoURL    *string `json:"photo_url"`
}

// UpdateMe handles PATCH /v1/users/me. Pointer fields distinguish
// "not sent" from "sent empty"; an absent field stays unchanged.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.DisplayName != nil && *req.DisplayName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "display_name cannot be empty"})
		return
	}

	userID := middleware.GetUserID(c)
	user, err := h.repo.UpdateProfile(c.Request.Context(), userID, req.DisplayName, req.PhotoURL)
	if err != nil {
		h.logger.Error("failed to update profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}
