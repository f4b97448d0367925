package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/roomhub/roomhub/internal/chat"
	"github.com/roomhub/roomhub/internal/middleware"
	"go.uber.org/zap"
)

// WSHandler upgrades authenticated, in-room requests to a WebSocket
// subscribed to the caller's room chat. The RequireRoom gate has
// already run, so the room is the resolved one — a client cannot
// subscribe to someone else's room by picking a different id.
type WSHandler struct {
	hub      *chat.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewWSHandler(hub *chat.Hub, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients authenticate with a bearer token, not a
			// cookie, so cross-origin upgrades carry no ambient
			// credentials to protect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Stream handles GET /v1/ws
func (h *WSHandler) Stream(c *gin.Context) {
	roomID := middleware.GetRoomID(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := chat.NewClient(roomID, conn, h.logger)
	h.hub.Register(client)

	go client.WritePump()
	client.ReadPump(h.hub)
}
