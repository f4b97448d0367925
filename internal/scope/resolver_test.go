package scope_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/roomhub/roomhub/internal/models"
	"github.com/roomhub/roomhub/internal/scope"
	"go.uber.org/zap"
)

// fakeMemberships serves memberships from a map, counting lookups so
// tests can observe how often the store is actually hit.
type fakeMemberships struct {
	byUser map[uuid.UUID]*models.Membership
	err    error
	calls  int
}

func (f *fakeMemberships) GetForUser(ctx context.Context, userID uuid.UUID) (*models.Membership, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byUser[userID], nil
}

func (f *fakeMemberships) ListMembers(ctx context.Context, roomID string) ([]models.Member, error) {
	return nil, nil
}

func newResolver(memberships *fakeMemberships) *scope.Resolver {
	return scope.NewResolver(memberships, nil, time.Minute, zap.NewNop())
}

func TestResolve_Unauthenticated(t *testing.T) {
	r := newResolver(&fakeMemberships{})

	s, err := r.Resolve(context.Background(), uuid.Nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s.Kind != scope.Unauthenticated {
		t.Errorf("Kind = %q, want %q", s.Kind, scope.Unauthenticated)
	}
}

func TestResolve_NoRoom(t *testing.T) {
	// A fresh signup has no membership row. That is a valid scope,
	// not an error.
	r := newResolver(&fakeMemberships{byUser: map[uuid.UUID]*models.Membership{}})

	s, err := r.Resolve(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s.Kind != scope.NoRoom {
		t.Errorf("Kind = %q, want %q", s.Kind, scope.NoRoom)
	}
	if s.RoomID != "" {
		t.Errorf("RoomID = %q, want empty", s.RoomID)
	}
}

func TestResolve_InRoom(t *testing.T) {
	userID := uuid.New()
	memberships := &fakeMemberships{byUser: map[uuid.UUID]*models.Membership{
		userID: {UserID: userID, RoomID: "sunset-house", Role: models.RoleAdmin},
	}}
	r := newResolver(memberships)

	s, err := r.Resolve(context.Background(), userID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if s.Kind != scope.InRoom {
		t.Fatalf("Kind = %q, want %q", s.Kind, scope.InRoom)
	}
	if s.RoomID != "sunset-house" {
		t.Errorf("RoomID = %q, want sunset-house", s.RoomID)
	}
	if !s.IsAdmin() {
		t.Error("expected admin scope")
	}
}

func TestResolve_StoreError(t *testing.T) {
	r := newResolver(&fakeMemberships{err: errors.New("connection refused")})

	if _, err := r.Resolve(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected store error to propagate")
	}
}

func TestResolve_NoCacheHitsStoreEachTime(t *testing.T) {
	// Without Redis every resolution goes to the store — the resolver
	// must not invent its own in-process cache.
	userID := uuid.New()
	memberships := &fakeMemberships{byUser: map[uuid.UUID]*models.Membership{
		userID: {UserID: userID, RoomID: "sunset-house", Role: models.RoleMember},
	}}
	r := newResolver(memberships)

	for i := 0; i < 3; i++ {
		if _, err := r.Resolve(context.Background(), userID); err != nil {
			t.Fatalf("Resolve: %v", err)
		}
	}
	if memberships.calls != 3 {
		t.Errorf("store calls = %d, want 3", memberships.calls)
	}
}
