package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/roomhub/roomhub/internal/models"
)

type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

// Create persists a message. The sender is recorded as having read
// their own message immediately. sender_name is joined from users for
// display; the row itself stores only the id.
func (s *MessageStore) Create(ctx context.Context, roomID string, senderID uuid.UUID, body string) (*models.Message, error) {
	query := `
		INSERT INTO messages (room_id, sender_id, body, created_at, read_by)
		VALUES ($1, $2, $3, now(), ARRAY[$2]::uuid[])
		RETURNING id, room_id, sender_id,
			(SELECT display_name FROM users WHERE id = $2),
			body, created_at, read_by`

	var msg models.Message
	err := s.pool.QueryRow(ctx, query, roomID, senderID, body).Scan(
		&msg.ID,
		&msg.RoomID,
		&msg.SenderID,
		&msg.SenderName,
		&msg.Body,
		&msg.CreatedAt,
		&msg.ReadBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &msg, nil
}

// ListByRoom pages newest-first by message id with a keyset cursor:
// before=0 means "from the latest", otherwise "strictly older than
// this id". id order matches time order because the column is
// bigserial.
func (s *MessageStore) ListByRoom(ctx context.Context, roomID string, before int64, limit int) ([]models.Message, error) {
	var query string
	var args []any

	if before > 0 {
		query = `
			SELECT m.id, m.room_id, m.sender_id, u.display_name, m.body, m.created_at, m.read_by
			FROM messages m
			JOIN users u ON u.id = m.sender_id
			WHERE m.room_id = $1 AND m.id < $2
			ORDER BY m.id DESC
			LIMIT $3`
		args = []any{roomID, before, limit}
	} else {
		query = `
			SELECT m.id, m.room_id, m.sender_id, u.display_name, m.body, m.created_at, m.read_by
			FROM messages m
			JOIN users u ON u.id = m.sender_id
			WHERE m.room_id = $1
			ORDER BY m.id DESC
			LIMIT $2`
		args = []any{roomID, limit}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.RoomID,
			&msg.SenderID,
			&msg.SenderName,
			&msg.Body,
			&msg.CreatedAt,
			&msg.ReadBy,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

// MarkRead appends the user to read_by on every room message up to the
// cursor. The containment guard makes re-marking a no-op, so the
// operation is idempotent.
func (s *MessageStore) MarkRead(ctx context.Context, roomID string, userID uuid.UUID, upTo int64) error {
	query := `
		UPDATE messages
		SET read_by = array_append(read_by, $2)
		WHERE room_id = $1
		  AND id <= $3
		  AND NOT (read_by @> ARRAY[$2]::uuid[])`

	if _, err := s.pool.Exec(ctx, query, roomID, userID, upTo); err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}
	return nil
}
