package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roomhub/roomhub/internal/models"
	"github.com/roomhub/roomhub/internal/scope"
	"go.uber.org/zap"
)

const (
	ContextKeyRoomID   = "room_id"
	ContextKeyRoomRole = "room_role"
)

// RequireRoom is the access-scope gate for every room-scoped endpoint.
// It runs after AuthMiddleware, resolves the caller's scope, and only
// lets in-room requests through. The resolved room id — never anything
// from the request — is what handlers pass to the stores, so a write
// can only land in the caller's own room.
func RequireRoom(resolver *scope.Resolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetUserID(c)

		s, err := resolver.Resolve(c.Request.Context(), userID)
		if err != nil {
			logger.Error("failed to resolve access scope", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "failed to resolve room",
			})
			return
		}

		switch s.Kind {
		case scope.InRoom:
			c.Set(ContextKeyRoomID, s.RoomID)
			c.Set(ContextKeyRoomRole, s.Role)
			c.Next()
		case scope.NoRoom:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "not in a room",
			})
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "not authenticated",
			})
		}
	}
}

// GetRoomID extracts the resolved room id set by RequireRoom.
func GetRoomID(c *gin.Context) string {
	val, exists := c.Get(ContextKeyRoomID)
	if !exists {
		return ""
	}
	roomID, ok := val.(string)
	if !ok {
		return ""
	}
	return roomID
}

// IsRoomAdmin reports whether the caller holds the admin role in their
// resolved room.
func IsRoomAdmin(c *gin.Context) bool {
	val, exists := c.Get(ContextKeyRoomRole)
	if !exists {
		return false
	}
	role, ok := val.(string)
	return ok && role == models.RoleAdmin
}
