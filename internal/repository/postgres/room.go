package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/roomhub/roomhub/internal/models"
	"github.com/roomhub/roomhub/internal/repository"
)

type RoomStore struct {
	pool *pgxpool.Pool
}

func NewRoomStore(pool *pgxpool.Pool) *RoomStore {
	return &RoomStore{pool: pool}
}

// isUniqueViolation reports whether err is a Postgres duplicate-key
// failure (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Create inserts the room and the creator's admin membership in one
// transaction. Either both rows land or neither does — the scope
// resolver can never observe a room whose creator is not yet a member.
func (s *RoomStore) Create(ctx context.Context, id, name string, creatorID uuid.UUID) (*models.Room, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create room: %w", err)
	}
	defer tx.Rollback(ctx)

	roomQuery := `
		INSERT INTO rooms (id, name, created_by, admin_id, created_at)
		VALUES ($1, $2, $3, $3, now())
		RETURNING id, name, created_by, admin_id, created_at`

	var room models.Room
	err = tx.QueryRow(ctx, roomQuery, id, name, creatorID).Scan(
		&room.ID,
		&room.Name,
		&room.CreatedBy,
		&room.AdminID,
		&room.CreatedAt,
	)
	if err != nil {
		// Slug collision: "My House" and "my house" derive the same id.
		// Reject instead of overwriting the existing room's admin.
		if isUniqueViolation(err) {
			return nil, repository.ErrRoomExists
		}
		return nil, fmt.Errorf("insert room: %w", err)
	}

	memberQuery := `
		INSERT INTO memberships (user_id, room_id, role, joined_at)
		VALUES ($1, $2, $3, now())`

	if _, err := tx.Exec(ctx, memberQuery, creatorID, room.ID, models.RoleAdmin); err != nil {
		// memberships_pkey is (user_id): the creator is already in a room.
		if isUniqueViolation(err) {
			return nil, repository.ErrAlreadyInRoom
		}
		return nil, fmt.Errorf("insert admin membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit create room: %w", err)
	}
	return &room, nil
}

// Join checks the room exists and inserts a member-role membership in
// the same transaction. On any failure the caller's membership state
// is left exactly as it was.
func (s *RoomStore) Join(ctx context.Context, roomID string, userID uuid.UUID) (*models.Room, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin join room: %w", err)
	}
	defer tx.Rollback(ctx)

	roomQuery := `
		SELECT id, name, created_by, admin_id, created_at
		FROM rooms
		WHERE id = $1`

	var room models.Room
	err = tx.QueryRow(ctx, roomQuery, roomID).Scan(
		&room.ID,
		&room.Name,
		&room.CreatedBy,
		&room.AdminID,
		&room.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("get room: %w", err)
	}

	memberQuery := `
		INSERT INTO memberships (user_id, room_id, role, joined_at)
		VALUES ($1, $2, $3, now())`

	if _, err := tx.Exec(ctx, memberQuery, userID, room.ID, models.RoleMember); err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrAlreadyInRoom
		}
		return nil, fmt.Errorf("insert membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit join room: %w", err)
	}
	return &room, nil
}

// Leave drops the user's membership. DELETE is naturally idempotent:
// leaving twice deletes zero rows the second time, no error.
func (s *RoomStore) Leave(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM memberships WHERE user_id = $1`

	if _, err := s.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("leave room: %w", err)
	}
	return nil
}

func (s *RoomStore) GetByID(ctx context.Context, roomID string) (*models.Room, error) {
	query := `
		SELECT id, name, created_by, admin_id, created_at
		FROM rooms
		WHERE id = $1`

	var room models.Room
	err := s.pool.QueryRow(ctx, query, roomID).Scan(
		&room.ID,
		&room.Name,
		&room.CreatedBy,
		&room.AdminID,
		&room.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	return &room, nil
}
