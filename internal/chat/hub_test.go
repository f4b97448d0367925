package chat

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/roomhub/roomhub/internal/models"
	"go.uber.org/zap"
)

// The conn is only touched by the pumps, so hub-level tests can run
// clients without one.
func testClient(roomID string) *Client {
	return NewClient(roomID, nil, zap.NewNop())
}

func recv(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case payload, ok := <-c.send:
		if !ok {
			t.Fatal("send channel closed")
		}
		return payload
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for payload")
	}
	return nil
}

func TestPublish_ReachesRoomClientsOnly(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())

	a := testClient("sunset-house")
	b := testClient("sunset-house")
	other := testClient("elm-street")
	hub.Register(a)
	hub.Register(b)
	hub.Register(other)

	msg := &models.Message{ID: 1, RoomID: "sunset-house", SenderID: uuid.New(), Body: "hello"}
	hub.Publish(context.Background(), msg)

	for _, c := range []*Client{a, b} {
		var got models.Message
		if err := json.Unmarshal(recv(t, c), &got); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if got.ID != msg.ID || got.Body != "hello" {
			t.Errorf("wrong message delivered: %+v", got)
		}
	}

	select {
	case payload := <-other.send:
		t.Errorf("client in another room received %s", payload)
	default:
	}
}

func TestUnregister(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	c := testClient("sunset-house")
	hub.Register(c)
	hub.Unregister(c)

	if _, ok := <-c.send; ok {
		t.Error("expected send channel closed after unregister")
	}
	if _, ok := hub.rooms["sunset-house"]; ok {
		t.Error("expected empty room pruned")
	}

	// A second unregister must not close the channel again.
	hub.Unregister(c)
}

// Clients disconnect while messages are fanning out; a send must never
// hit a channel the hub already closed.
func TestPublish_ConcurrentWithDisconnects(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	msg := &models.Message{ID: 1, RoomID: "sunset-house", Body: "x"}

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					hub.Publish(context.Background(), msg)
				}
			}
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					c := testClient("sunset-house")
					hub.Register(c)
					hub.Unregister(c)
				}
			}
		}()
	}

	time.Sleep(500 * time.Millisecond)
	close(done)
	wg.Wait()
}

func TestPublish_DropsSlowClient(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	slow := testClient("sunset-house")
	hub.Register(slow)

	msg := &models.Message{ID: 1, RoomID: "sunset-house", Body: "x"}
	for i := 0; i < sendBuffer+1; i++ {
		hub.Publish(context.Background(), msg)
	}

	// The overflowing publish unregisters the client.
	hub.mu.RLock()
	_, stillThere := hub.rooms["sunset-house"]
	hub.mu.RUnlock()
	if stillThere {
		t.Error("expected slow client dropped from room")
	}
}
