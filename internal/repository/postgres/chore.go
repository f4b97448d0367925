package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/roomhub/roomhub/internal/models"
)

type ChoreStore struct {
	pool *pgxpool.Pool
}

func NewChoreStore(pool *pgxpool.Pool) *ChoreStore {
	return &ChoreStore{pool: pool}
}

const choreColumns = `id, room_id, title, description, assigned_to, created_by,
	due_date, status, completed_by, completed_at, created_at`

func scanChore(row pgx.Row) (*models.Chore, error) {
	var c models.Chore
	err := row.Scan(
		&c.ID,
		&c.RoomID,
		&c.Title,
		&c.Description,
		&c.AssignedTo,
		&c.CreatedBy,
		&c.DueDate,
		&c.Status,
		&c.CompletedBy,
		&c.CompletedAt,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ChoreStore) Create(ctx context.Context, roomID, title, description string, assignedTo, createdBy uuid.UUID, dueDate time.Time) (*models.Chore, error) {
	query := `
		INSERT INTO chores (room_id, title, description, assigned_to, created_by, due_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING ` + choreColumns

	c, err := scanChore(s.pool.QueryRow(ctx, query, roomID, title, description, assignedTo, createdBy, dueDate, models.ChoreStatusPending))
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	return c, nil
}

func (s *ChoreStore) ListByRoom(ctx context.Context, roomID string) ([]models.Chore, error) {
	query := `
		SELECT ` + choreColumns + `
		FROM chores
		WHERE room_id = $1
		ORDER BY due_date, created_at`

	rows, err := s.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	chores := make([]models.Chore, 0)
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chores: %w", err)
	}

	return chores, nil
}

func (s *ChoreStore) Update(ctx context.Context, roomID string, choreID uuid.UUID, title, description string, assignedTo uuid.UUID, dueDate time.Time) (*models.Chore, error) {
	query := `
		UPDATE chores
		SET title = $3, description = $4, assigned_to = $5, due_date = $6
		WHERE id = $1 AND room_id = $2
		RETURNING ` + choreColumns

	c, err := scanChore(s.pool.QueryRow(ctx, query, choreID, roomID, title, description, assignedTo, dueDate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update chore: %w", err)
	}
	return c, nil
}

// Toggle flips the status in a single statement. The CASE expressions
// reference the pre-update row, so completing stamps the actor and
// reopening clears both fields atomically.
func (s *ChoreStore) Toggle(ctx context.Context, roomID string, choreID, actorID uuid.UUID) (*models.Chore, error) {
	query := `
		UPDATE chores
		SET status       = CASE WHEN status = 'pending' THEN 'completed' ELSE 'pending' END,
		    completed_by = CASE WHEN status = 'pending' THEN $3::uuid ELSE NULL END,
		    completed_at = CASE WHEN status = 'pending' THEN now() ELSE NULL END
		WHERE id = $1 AND room_id = $2
		RETURNING ` + choreColumns

	c, err := scanChore(s.pool.QueryRow(ctx, query, choreID, roomID, actorID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("toggle chore: %w", err)
	}
	return c, nil
}

// Delete removes the chore when the actor created it or is the room
// admin. Returns false when nothing matched (missing, foreign, or not
// allowed — the handler reports all three the same way).
func (s *ChoreStore) Delete(ctx context.Context, roomID string, choreID, actorID uuid.UUID, actorIsAdmin bool) (bool, error) {
	query := `
		DELETE FROM chores
		WHERE id = $1 AND room_id = $2 AND (created_by = $3 OR $4)`

	tag, err := s.pool.Exec(ctx, query, choreID, roomID, actorID, actorIsAdmin)
	if err != nil {
		return false, fmt.Errorf("delete chore: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
