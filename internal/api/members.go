package api

import (
	"context"

	"github.com/google/uuid"
	"github.com/roomhub/roomhub/internal/repository"
)

// roomMemberSet returns the ids of the room's current members, for
// handlers that must refuse references to users outside the room.
func roomMemberSet(ctx context.Context, memberships repository.MembershipRepository, roomID string) (map[uuid.UUID]bool, error) {
	members, err := memberships.ListMembers(ctx, roomID)
	if err != nil {
		return nil, err
	}
	set := make(map[uuid.UUID]bool, len(members))
	for _, m := range members {
		set[m.UserID] = true
	}
	return set, nil
}
