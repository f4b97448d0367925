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
	"github.com/roomhub/roomhub/internal/repository"
)

type PollStore struct {
	pool *pgxpool.Pool
}

func NewPollStore(pool *pgxpool.Pool) *PollStore {
	return &PollStore{pool: pool}
}

// Create inserts the poll and its options in one transaction. Option
// order is preserved through the position column.
func (s *PollStore) Create(ctx context.Context, roomID, question string, createdBy uuid.UUID, expiresAt time.Time, options []string) (*models.Poll, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create poll: %w", err)
	}
	defer tx.Rollback(ctx)

	pollQuery := `
		INSERT INTO polls (room_id, question, created_by, created_at, expires_at)
		VALUES ($1, $2, $3, now(), $4)
		RETURNING id, room_id, question, created_by, created_at, expires_at`

	var p models.Poll
	err = tx.QueryRow(ctx, pollQuery, roomID, question, createdBy, expiresAt).Scan(
		&p.ID,
		&p.RoomID,
		&p.Question,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert poll: %w", err)
	}

	optionQuery := `
		INSERT INTO poll_options (poll_id, text, position)
		VALUES ($1, $2, $3)
		RETURNING id, poll_id, text, position`

	p.Options = make([]models.PollOption, 0, len(options))
	for i, text := range options {
		var opt models.PollOption
		if err := tx.QueryRow(ctx, optionQuery, p.ID, text, i).Scan(&opt.ID, &opt.PollID, &opt.Text, &opt.Position); err != nil {
			return nil, fmt.Errorf("insert poll option: %w", err)
		}
		opt.Votes = make([]uuid.UUID, 0)
		p.Options = append(p.Options, opt)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit create poll: %w", err)
	}
	return &p, nil
}

func (s *PollStore) ListByRoom(ctx context.Context, roomID string) ([]models.Poll, error) {
	query := `
		SELECT id, room_id, question, created_by, created_at, expires_at
		FROM polls
		WHERE room_id = $1
		ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("list polls: %w", err)
	}
	defer rows.Close()

	polls := make([]models.Poll, 0)
	byID := make(map[uuid.UUID]int)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var p models.Poll
		if err := rows.Scan(&p.ID, &p.RoomID, &p.Question, &p.CreatedBy, &p.CreatedAt, &p.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan poll: %w", err)
		}
		p.Options = make([]models.PollOption, 0)
		byID[p.ID] = len(polls)
		ids = append(ids, p.ID)
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate polls: %w", err)
	}
	if len(polls) == 0 {
		return polls, nil
	}

	options, err := s.loadOptions(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, opt := range options {
		if i, ok := byID[opt.PollID]; ok {
			polls[i].Options = append(polls[i].Options, opt)
		}
	}

	return polls, nil
}

func (s *PollStore) GetByID(ctx context.Context, roomID string, pollID uuid.UUID) (*models.Poll, error) {
	query := `
		SELECT id, room_id, question, created_by, created_at, expires_at
		FROM polls
		WHERE id = $1 AND room_id = $2`

	var p models.Poll
	err := s.pool.QueryRow(ctx, query, pollID, roomID).Scan(
		&p.ID, &p.RoomID, &p.Question, &p.CreatedBy, &p.CreatedAt, &p.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get poll: %w", err)
	}

	p.Options, err = s.loadOptions(ctx, []uuid.UUID{p.ID})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// loadOptions fetches options with their voter sets aggregated in SQL.
// The FILTER keeps array_agg from producing {NULL} for unvoted options.
func (s *PollStore) loadOptions(ctx context.Context, pollIDs []uuid.UUID) ([]models.PollOption, error) {
	query := `
		SELECT o.id, o.poll_id, o.text, o.position,
		       COALESCE(array_agg(v.user_id ORDER BY v.voted_at) FILTER (WHERE v.user_id IS NOT NULL), '{}')
		FROM poll_options o
		LEFT JOIN poll_votes v ON v.option_id = o.id
		WHERE o.poll_id = ANY($1)
		GROUP BY o.id
		ORDER BY o.poll_id, o.position`

	rows, err := s.pool.Query(ctx, query, pollIDs)
	if err != nil {
		return nil, fmt.Errorf("list poll options: %w", err)
	}
	defer rows.Close()

	options := make([]models.PollOption, 0)
	for rows.Next() {
		var opt models.PollOption
		if err := rows.Scan(&opt.ID, &opt.PollID, &opt.Text, &opt.Position, &opt.Votes); err != nil {
			return nil, fmt.Errorf("scan poll option: %w", err)
		}
		if opt.Votes == nil {
			opt.Votes = make([]uuid.UUID, 0)
		}
		options = append(options, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate poll options: %w", err)
	}

	return options, nil
}

// Vote upserts the user's single vote. The primary key on
// (poll_id, user_id) is what makes "one vote per member" a database
// invariant; ON CONFLICT moves an existing vote to the new option.
func (s *PollStore) Vote(ctx context.Context, roomID string, pollID, optionID, userID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin vote: %w", err)
	}
	defer tx.Rollback(ctx)

	var expiresAt time.Time
	err = tx.QueryRow(ctx,
		`SELECT expires_at FROM polls WHERE id = $1 AND room_id = $2`,
		pollID, roomID,
	).Scan(&expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrPollNotFound
		}
		return fmt.Errorf("get poll expiry: %w", err)
	}
	if expiresAt.Before(time.Now()) {
		return repository.ErrPollClosed
	}

	var optionExists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM poll_options WHERE id = $1 AND poll_id = $2)`,
		optionID, pollID,
	).Scan(&optionExists)
	if err != nil {
		return fmt.Errorf("check poll option: %w", err)
	}
	if !optionExists {
		return repository.ErrOptionNotFound
	}

	voteQuery := `
		INSERT INTO poll_votes (poll_id, option_id, user_id, voted_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (poll_id, user_id)
		DO UPDATE SET option_id = EXCLUDED.option_id, voted_at = EXCLUDED.voted_at`

	if _, err := tx.Exec(ctx, voteQuery, pollID, optionID, userID); err != nil {
		return fmt.Errorf("upsert vote: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit vote: %w", err)
	}
	return nil
}

// Delete removes a poll (options and votes cascade) when the actor
// created it or is the room admin.
func (s *PollStore) Delete(ctx context.Context, roomID string, pollID, actorID uuid.UUID, actorIsAdmin bool) (bool, error) {
	query := `
		DELETE FROM polls
		WHERE id = $1 AND room_id = $2 AND (created_by = $3 OR $4)`

	tag, err := s.pool.Exec(ctx, query, pollID, roomID, actorID, actorIsAdmin)
	if err != nil {
		return false, fmt.Errorf("delete poll: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
