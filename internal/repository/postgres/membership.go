package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/roomhub/roomhub/internal/models"
)

type MembershipStore struct {
	pool *pgxpool.Pool
}

func NewMembershipStore(pool *pgxpool.Pool) *MembershipStore {
	return &MembershipStore{pool: pool}
}

// GetForUser returns the user's sole membership, or nil, nil when the
// user is not in a room. This is the authoritative "current room"
// lookup the scope resolver runs on every room-scoped request.
func (s *MembershipStore) GetForUser(ctx context.Context, userID uuid.UUID) (*models.Membership, error) {
	query := `
		SELECT user_id, room_id, role, joined_at
		FROM memberships
		WHERE user_id = $1`

	var m models.Membership
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&m.UserID,
		&m.RoomID,
		&m.Role,
		&m.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return &m, nil
}

// ListMembers joins memberships with user profiles. Profile fields are
// read from the users table at query time; nothing is denormalized
// onto the membership row.
func (s *MembershipStore) ListMembers(ctx context.Context, roomID string) ([]models.Member, error) {
	query := `
		SELECT m.user_id, u.display_name, u.email, u.photo_url, m.role, m.joined_at
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.room_id = $1
		ORDER BY m.joined_at`

	rows, err := s.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := make([]models.Member, 0)
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.UserID, &m.DisplayName, &m.Email, &m.PhotoURL, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}

	return members, nil
}
