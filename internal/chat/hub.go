// Package chat fans persisted room messages out to connected
// WebSocket clients. Postgres stays the source of truth — the hub only
// relays what the message store already accepted, so a dropped
// connection never loses data, it just re-reads history on reconnect.
package chat

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/roomhub/roomhub/internal/models"
	"go.uber.org/zap"
)

const channelPrefix = "chat:"

// Hub tracks connected clients per room. When Redis is configured,
// published messages take a round trip through a chat:<room_id>
// channel, which makes fanout work across multiple server instances;
// without Redis the hub broadcasts locally.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]bool

	rdb    *redis.Client
	logger *zap.Logger
}

func NewHub(rdb *redis.Client, logger *zap.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Client]bool),
		rdb:    rdb,
		logger: logger,
	}
}

// Register adds a client to its room's broadcast set.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[client.roomID]
	if !ok {
		clients = make(map[*Client]bool)
		h.rooms[client.roomID] = clients
	}
	clients[client] = true
}

// Unregister removes a client and drops the room entry once empty.
// Safe to call more than once for the same client.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[client.roomID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.roomID)
	}
}

// Publish sends a persisted message to every client in its room. With
// Redis the payload goes through pub/sub and comes back via Run, so
// clients on every instance see it; the local broadcast is only the
// degraded single-instance path.
func (h *Hub) Publish(ctx context.Context, msg *models.Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal chat message", zap.Error(err))
		return
	}

	if h.rdb != nil {
		if err := h.rdb.Publish(ctx, channelPrefix+msg.RoomID, payload).Err(); err == nil {
			return
		} else {
			h.logger.Warn("chat publish to redis failed, broadcasting locally", zap.Error(err))
		}
	}

	h.broadcast(msg.RoomID, payload)
}

// Run subscribes to every chat channel and relays payloads to local
// clients. Blocks until ctx is cancelled; a no-op without Redis.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		return
	}

	pubsub := h.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			roomID := strings.TrimPrefix(msg.Channel, channelPrefix)
			h.broadcast(roomID, []byte(msg.Payload))
		}
	}
}

// broadcast pushes a payload onto every room client's send queue. The
// sends happen under the read lock: Unregister closes send under the
// write lock, so a send and a close can never interleave. A client
// whose queue is full is dropped rather than allowed to stall the rest
// of the room; the drop itself happens after the lock is released
// because Unregister needs the write lock.
func (h *Hub) broadcast(roomID string, payload []byte) {
	var slow []*Client

	h.mu.RLock()
	for client := range h.rooms[roomID] {
		select {
		case client.send <- payload:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("dropping slow chat client",
			zap.String("room_id", roomID),
		)
		h.Unregister(client)
	}
}
