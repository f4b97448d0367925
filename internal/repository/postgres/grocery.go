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

type GroceryStore struct {
	pool *pgxpool.Pool
}

func NewGroceryStore(pool *pgxpool.Pool) *GroceryStore {
	return &GroceryStore{pool: pool}
}

const groceryColumns = `id, room_id, name, added_by, added_at, bought, bought_by, bought_at`

func scanGroceryItem(row pgx.Row) (*models.GroceryItem, error) {
	var item models.GroceryItem
	err := row.Scan(
		&item.ID,
		&item.RoomID,
		&item.Name,
		&item.AddedBy,
		&item.AddedAt,
		&item.Bought,
		&item.BoughtBy,
		&item.BoughtAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *GroceryStore) Create(ctx context.Context, roomID, name string, addedBy uuid.UUID) (*models.GroceryItem, error) {
	query := `
		INSERT INTO grocery_items (room_id, name, added_by, added_at)
		VALUES ($1, $2, $3, now())
		RETURNING ` + groceryColumns

	item, err := scanGroceryItem(s.pool.QueryRow(ctx, query, roomID, name, addedBy))
	if err != nil {
		return nil, fmt.Errorf("insert grocery item: %w", err)
	}
	return item, nil
}

func (s *GroceryStore) ListByRoom(ctx context.Context, roomID string) ([]models.GroceryItem, error) {
	query := `
		SELECT ` + groceryColumns + `
		FROM grocery_items
		WHERE room_id = $1
		ORDER BY added_at DESC`

	rows, err := s.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("list grocery items: %w", err)
	}
	defer rows.Close()

	items := make([]models.GroceryItem, 0)
	for rows.Next() {
		item, err := scanGroceryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan grocery item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grocery items: %w", err)
	}

	return items, nil
}

// Toggle flips bought<->unbought in one statement. The CASE arms read
// the pre-update value of bought, so buying stamps the actor and time
// and unbuying clears both — two toggles restore the original row.
func (s *GroceryStore) Toggle(ctx context.Context, roomID string, itemID, actorID uuid.UUID) (*models.GroceryItem, error) {
	query := `
		UPDATE grocery_items
		SET bought    = NOT bought,
		    bought_by = CASE WHEN bought THEN NULL ELSE $3::uuid END,
		    bought_at = CASE WHEN bought THEN NULL ELSE now() END
		WHERE id = $1 AND room_id = $2
		RETURNING ` + groceryColumns

	item, err := scanGroceryItem(s.pool.QueryRow(ctx, query, itemID, roomID, actorID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("toggle grocery item: %w", err)
	}
	return item, nil
}

func (s *GroceryStore) Delete(ctx context.Context, roomID string, itemID uuid.UUID) (bool, error) {
	query := `
		DELETE FROM grocery_items
		WHERE id = $1 AND room_id = $2`

	tag, err := s.pool.Exec(ctx, query, itemID, roomID)
	if err != nil {
		return false, fmt.Errorf("delete grocery item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
