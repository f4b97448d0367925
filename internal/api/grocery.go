package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/roomhub/roomhub/internal/middleware"
	"github.com/roomhub/roomhub/internal/models"
	"github.com/roomhub/roomhub/internal/repository"
	"go.uber.org/zap"
)

type GroceryHandler struct {
	repo   repository.GroceryRepository
	logger *zap.Logger
}

func NewGroceryHandler(repo repository.GroceryRepository, logger *zap.Logger) *GroceryHandler {
	return &GroceryHandler{repo: repo, logger: logger}
}

type createGroceryRequest struct {
	Name string `json:"name" binding:"required"`
}

// Create handles POST /v1/groceries
func (h *GroceryHandler) Create(c *gin.Context) {
	var req createGroceryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roomID := middleware.GetRoomID(c)
	userID := middleware.GetUserID(c)

	item, err := h.repo.Create(c.Request.Context(), roomID, req.Name, userID)
	if err != nil {
		h.logger.Error("failed to add grocery item", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add grocery item"})
		return
	}

	c.JSON(http.StatusCreated, item)
}

// List handles GET /v1/groceries?filter=all|pending|bought
func (h *GroceryHandler) List(c *gin.Context) {
	roomID := middleware.GetRoomID(c)

	items, err := h.repo.ListByRoom(c.Request.Context(), roomID)
	if err != nil {
		h.logger.Error("failed to list grocery items", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list grocery items"})
		return
	}

	c.JSON(http.StatusOK, models.FilterGroceries(items, c.Query("filter")))
}

// Toggle handles POST /v1/groceries/:id/toggle. Buying stamps who and
// when; unbuying clears both, so toggling twice restores the item.
func (h *GroceryHandler) Toggle(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid grocery item id"})
		return
	}

	roomID := middleware.GetRoomID(c)
	userID := middleware.GetUserID(c)

	item, err := h.repo.Toggle(c.Request.Context(), roomID, itemID, userID)
	if err != nil {
		h.logger.Error("failed to toggle grocery item", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to toggle grocery item"})
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "grocery item not found"})
		return
	}

	c.JSON(http.StatusOK, item)
}

// Delete handles DELETE /v1/groceries/:id. Any member can delete —
// it's a shared shopping list.
func (h *GroceryHandler) Delete(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid grocery item id"})
		return
	}

	roomID := middleware.GetRoomID(c)

	deleted, err := h.repo.Delete(c.Request.Context(), roomID, itemID)
	if err != nil {
		h.logger.Error("failed to delete grocery item", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete grocery item"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "grocery item not found"})
		return
	}

	c.Status(http.StatusNoContent)
}
