package api

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/roomhub/roomhub/internal/middleware"
	"github.com/roomhub/roomhub/internal/models"
	"github.com/roomhub/roomhub/internal/repository"
	"go.uber.org/zap"
)

type ExpenseHandler struct {
	repo        repository.ExpenseRepository
	memberships repository.MembershipRepository
	logger      *zap.Logger
}

func NewExpenseHandler(repo repository.ExpenseRepository, memberships repository.MembershipRepository, logger *zap.Logger) *ExpenseHandler {
	return &ExpenseHandler{repo: repo, memberships: memberships, logger: logger}
}

type shareRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	Amount float64   `json:"amount" binding:"required,gt=0"`
}

type createExpenseRequest struct {
	Title        string         `json:"title" binding:"required"`
	Amount       float64        `json:"amount" binding:"required,gt=0"`
	ReceiptURL   *string        `json:"receipt_url"`
	SplitBetween []shareRequest `json:"split_between" binding:"required,min=1,dive"`
}

// Create handles POST /v1/expenses. The caller is always the payer;
// their own share, if listed, starts settled.
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req createExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roomID := middleware.GetRoomID(c)
	userID := middleware.GetUserID(c)

	members, err := roomMemberSet(c.Request.Context(), h.memberships, roomID)
	if err != nil {
		h.logger.Error("failed to list members", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create expense"})
		return
	}

	var sum float64
	seen := make(map[uuid.UUID]bool, len(req.SplitBetween))
	shares := make([]repository.ShareInput, 0, len(req.SplitBetween))
	for _, s := range req.SplitBetween {
		if seen[s.UserID] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "duplicate user in split"})
			return
		}
		if !members[s.UserID] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "split includes a user who is not a member of this room"})
			return
		}
		seen[s.UserID] = true
		sum += s.Amount
		shares = append(shares, repository.ShareInput{UserID: s.UserID, Amount: s.Amount})
	}

	// Shares must add back up to the amount, to the cent.
	if math.Abs(sum-req.Amount) > 0.005 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "split amounts must add up to the expense amount"})
		return
	}

	expense, err := h.repo.Create(c.Request.Context(), roomID, req.Title, req.Amount, userID, req.ReceiptURL, shares)
	if err != nil {
		h.logger.Error("failed to create expense", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create expense"})
		return
	}

	c.JSON(http.StatusCreated, expense)
}

// List handles GET /v1/expenses?filter=all|mine|owed|paid
func (h *ExpenseHandler) List(c *gin.Context) {
	roomID := middleware.GetRoomID(c)
	userID := middleware.GetUserID(c)

	expenses, err := h.repo.ListByRoom(c.Request.Context(), roomID)
	if err != nil {
		h.logger.Error("failed to list expenses", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list expenses"})
		return
	}

	c.JSON(http.StatusOK, models.FilterExpenses(expenses, c.Query("filter"), userID))
}

// Settle handles POST /v1/expenses/:id/settle — marks the caller's
// own share paid. Settling twice is a no-op, not an error.
func (h *ExpenseHandler) Settle(c *gin.Context) {
	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expense id"})
		return
	}

	roomID := middleware.GetRoomID(c)
	userID := middleware.GetUserID(c)

	expense, err := h.repo.Settle(c.Request.Context(), roomID, expenseID, userID)
	if err != nil {
		h.logger.Error("failed to settle expense share", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to settle expense"})
		return
	}
	if expense == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no share of this expense"})
		return
	}

	c.JSON(http.StatusOK, expense)
}

// Delete handles DELETE /v1/expenses/:id — payer or admin only.
func (h *ExpenseHandler) Delete(c *gin.Context) {
	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expense id"})
		return
	}

	roomID := middleware.GetRoomID(c)
	userID := middleware.GetUserID(c)

	deleted, err := h.repo.Delete(c.Request.Context(), roomID, expenseID, userID, middleware.IsRoomAdmin(c))
	if err != nil {
		h.logger.Error("failed to delete expense", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete expense"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "expense not found"})
		return
	}

	c.Status(http.StatusNoContent)
}
