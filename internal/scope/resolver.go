// Package scope resolves a user's access scope: which of the three
// gating states they are in (unauthenticated, authenticated without a
// room, authenticated in a room) and, when in a room, which room and
// role. The membership table is the single source of truth; Redis only
// caches the lookup and is always safe to lose.
package scope

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/roomhub/roomhub/internal/models"
	"github.com/roomhub/roomhub/internal/repository"
	"go.uber.org/zap"
)

// Kind is the three-valued gating state that decides which endpoints
// a request may reach.
type Kind string

const (
	Unauthenticated Kind = "unauthenticated"
	NoRoom          Kind = "no-room"
	InRoom          Kind = "in-room"
)

// Scope is a resolved access scope. RoomID and Role are set only when
// Kind is InRoom.
type Scope struct {
	Kind   Kind   `json:"kind"`
	RoomID string `json:"room_id,omitempty"`
	Role   string `json:"role,omitempty"`
}

func (s Scope) IsAdmin() bool {
	return s.Kind == InRoom && s.Role == models.RoleAdmin
}

// scopeCache is the slice of the Redis client the resolver uses.
// *redis.Client satisfies it.
type scopeCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// Resolver answers "which room is this user in" with a Redis
// look-aside cache in front of the membership table.
type Resolver struct {
	memberships repository.MembershipRepository
	cache       scopeCache
	ttl         time.Duration
	logger      *zap.Logger
}

// NewResolver builds a resolver. cache may be nil, in which case every
// resolution goes straight to the store.
func NewResolver(memberships repository.MembershipRepository, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *Resolver {
	r := &Resolver{
		memberships: memberships,
		ttl:         ttl,
		logger:      logger,
	}
	if cache != nil {
		r.cache = cache
	}
	return r
}

// cached is the value stored under scope:<user_id>:<gen>. A cached
// NoRoom is represented by an empty RoomID, so "user has no room" is
// also served from cache instead of hammering the store.
type cached struct {
	RoomID string `json:"room_id"`
	Role   string `json:"role"`
}

// Keys are generation-stamped. Invalidation bumps the generation
// rather than deleting the entry, which closes the refill race: a
// resolution that read the store just before a membership change
// commits can only write its stale result under the old generation,
// where no later read will find it.
func cacheKey(userID uuid.UUID, gen string) string {
	return "scope:" + userID.String() + ":" + gen
}

func genKey(userID uuid.UUID) string {
	return "scopegen:" + userID.String()
}

// generation returns the user's current cache generation, or ok=false
// when the cache is unreachable and should be skipped for this request.
func (r *Resolver) generation(ctx context.Context, userID uuid.UUID) (string, bool) {
	gen, err := r.cache.Get(ctx, genKey(userID)).Result()
	switch {
	case err == nil:
		return gen, true
	case err == redis.Nil:
		return "0", true
	default:
		r.logger.Warn("scope generation read failed", zap.Error(err))
		return "", false
	}
}

// Resolve maps an identity to its scope. A missing membership row is a
// valid state (authenticated-no-room), never an error: a freshly
// signed-up user has no membership yet. Cache failures degrade to the
// store lookup with a logged warning — Redis being down must not take
// the API down with it.
func (r *Resolver) Resolve(ctx context.Context, userID uuid.UUID) (Scope, error) {
	if userID == uuid.Nil {
		return Scope{Kind: Unauthenticated}, nil
	}

	// The generation is read before the store: if an invalidation lands
	// in between, the write below targets an already-dead key.
	var gen string
	useCache := false
	if r.cache != nil {
		gen, useCache = r.generation(ctx, userID)
	}

	if useCache {
		raw, err := r.cache.Get(ctx, cacheKey(userID, gen)).Result()
		switch {
		case err == nil:
			var entry cached
			if jsonErr := json.Unmarshal([]byte(raw), &entry); jsonErr == nil {
				if entry.RoomID == "" {
					return Scope{Kind: NoRoom}, nil
				}
				return Scope{Kind: InRoom, RoomID: entry.RoomID, Role: entry.Role}, nil
			}
			// Unparseable entry: fall through and overwrite it.
		case err != redis.Nil:
			r.logger.Warn("scope cache read failed", zap.Error(err))
			useCache = false
		}
	}

	membership, err := r.memberships.GetForUser(ctx, userID)
	if err != nil {
		return Scope{}, err
	}

	var entry cached
	s := Scope{Kind: NoRoom}
	if membership != nil {
		s = Scope{Kind: InRoom, RoomID: membership.RoomID, Role: membership.Role}
		entry = cached{RoomID: membership.RoomID, Role: membership.Role}
	}

	if useCache {
		raw, _ := json.Marshal(entry)
		if err := r.cache.Set(ctx, cacheKey(userID, gen), raw, r.ttl).Err(); err != nil {
			r.logger.Warn("scope cache write failed", zap.Error(err))
		}
	}

	return s, nil
}

// Invalidate retires the cached scope after a membership change (join,
// create, leave) by bumping the generation. The next resolution misses
// and re-reads the store; in-flight resolutions that raced the change
// write under the retired generation and are never read. Orphaned
// entries age out on their TTL.
func (r *Resolver) Invalidate(ctx context.Context, userID uuid.UUID) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Incr(ctx, genKey(userID)).Err(); err != nil {
		r.logger.Warn("scope cache invalidation failed",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}
}
