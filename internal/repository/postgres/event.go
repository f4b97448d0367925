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

type EventStore struct {
	pool *pgxpool.Pool
}

func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool}
}

const eventColumns = `id, room_id, title, description, start_at, end_at, created_by, event_type, created_at`

func scanEvent(row pgx.Row) (*models.CalendarEvent, error) {
	var ev models.CalendarEvent
	err := row.Scan(
		&ev.ID,
		&ev.RoomID,
		&ev.Title,
		&ev.Description,
		&ev.StartAt,
		&ev.EndAt,
		&ev.CreatedBy,
		&ev.Type,
		&ev.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (s *EventStore) Create(ctx context.Context, roomID, title, description string, startAt, endAt time.Time, createdBy uuid.UUID, eventType string) (*models.CalendarEvent, error) {
	query := `
		INSERT INTO calendar_events (room_id, title, description, start_at, end_at, created_by, event_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING ` + eventColumns

	ev, err := scanEvent(s.pool.QueryRow(ctx, query, roomID, title, description, startAt, endAt, createdBy, eventType))
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return ev, nil
}

func (s *EventStore) ListByRoom(ctx context.Context, roomID string) ([]models.CalendarEvent, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM calendar_events
		WHERE room_id = $1
		ORDER BY start_at`

	rows, err := s.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]models.CalendarEvent, 0)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

func (s *EventStore) Update(ctx context.Context, roomID string, eventID uuid.UUID, title, description string, startAt, endAt time.Time, eventType string) (*models.CalendarEvent, error) {
	query := `
		UPDATE calendar_events
		SET title = $3, description = $4, start_at = $5, end_at = $6, event_type = $7
		WHERE id = $1 AND room_id = $2
		RETURNING ` + eventColumns

	ev, err := scanEvent(s.pool.QueryRow(ctx, query, eventID, roomID, title, description, startAt, endAt, eventType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return ev, nil
}

func (s *EventStore) Delete(ctx context.Context, roomID string, eventID, actorID uuid.UUID, actorIsAdmin bool) (bool, error) {
	query := `
		DELETE FROM calendar_events
		WHERE id = $1 AND room_id = $2 AND (created_by = $3 OR $4)`

	tag, err := s.pool.Exec(ctx, query, eventID, roomID, actorID, actorIsAdmin)
	if err != nil {
		return false, fmt.Errorf("delete event: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
