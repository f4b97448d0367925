package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/roomhub/roomhub/internal/models"
	"github.com/roomhub/roomhub/internal/repository"
)

type ExpenseStore struct {
	pool *pgxpool.Pool
}

func NewExpenseStore(pool *pgxpool.Pool) *ExpenseStore {
	return &ExpenseStore{pool: pool}
}

// Create inserts the expense and every share in one transaction. The
// payer's own share starts out paid — nobody owes themselves money.
func (s *ExpenseStore) Create(ctx context.Context, roomID, title string, amount float64, paidBy uuid.UUID, receiptURL *string, shares []repository.ShareInput) (*models.Expense, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create expense: %w", err)
	}
	defer tx.Rollback(ctx)

	expenseQuery := `
		INSERT INTO expenses (room_id, title, amount, paid_by, receipt_url, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id, room_id, title, amount, paid_by, receipt_url, created_at`

	var e models.Expense
	err = tx.QueryRow(ctx, expenseQuery, roomID, title, amount, paidBy, receiptURL).Scan(
		&e.ID,
		&e.RoomID,
		&e.Title,
		&e.Amount,
		&e.PaidBy,
		&e.ReceiptURL,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}

	shareQuery := `
		INSERT INTO expense_shares (expense_id, user_id, amount, paid, paid_at)
		VALUES ($1, $2, $3, $4, CASE WHEN $4 THEN now() END)
		RETURNING expense_id, user_id, amount, paid, paid_at`

	e.Shares = make([]models.ExpenseShare, 0, len(shares))
	for _, in := range shares {
		var share models.ExpenseShare
		err := tx.QueryRow(ctx, shareQuery, e.ID, in.UserID, in.Amount, in.UserID == paidBy).Scan(
			&share.ExpenseID,
			&share.UserID,
			&share.Amount,
			&share.Paid,
			&share.PaidAt,
		)
		if err != nil {
			return nil, fmt.Errorf("insert expense share: %w", err)
		}
		e.Shares = append(e.Shares, share)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit create expense: %w", err)
	}
	return &e, nil
}

func (s *ExpenseStore) ListByRoom(ctx context.Context, roomID string) ([]models.Expense, error) {
	query := `
		SELECT id, room_id, title, amount, paid_by, receipt_url, created_at
		FROM expenses
		WHERE room_id = $1
		ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]models.Expense, 0)
	byID := make(map[uuid.UUID]int)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.RoomID, &e.Title, &e.Amount, &e.PaidBy, &e.ReceiptURL, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Shares = make([]models.ExpenseShare, 0)
		byID[e.ID] = len(expenses)
		ids = append(ids, e.ID)
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	if len(expenses) == 0 {
		return expenses, nil
	}

	shareQuery := `
		SELECT expense_id, user_id, amount, paid, paid_at
		FROM expense_shares
		WHERE expense_id = ANY($1)
		ORDER BY expense_id, user_id`

	shareRows, err := s.pool.Query(ctx, shareQuery, ids)
	if err != nil {
		return nil, fmt.Errorf("list expense shares: %w", err)
	}
	defer shareRows.Close()

	for shareRows.Next() {
		var share models.ExpenseShare
		if err := shareRows.Scan(&share.ExpenseID, &share.UserID, &share.Amount, &share.Paid, &share.PaidAt); err != nil {
			return nil, fmt.Errorf("scan expense share: %w", err)
		}
		if i, ok := byID[share.ExpenseID]; ok {
			expenses[i].Shares = append(expenses[i].Shares, share)
		}
	}
	if err := shareRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expense shares: %w", err)
	}

	return expenses, nil
}

// Settle marks the caller's share paid. Already-paid shares keep their
// original paid_at, so settling twice is idempotent.
func (s *ExpenseStore) Settle(ctx context.Context, roomID string, expenseID, userID uuid.UUID) (*models.Expense, error) {
	query := `
		UPDATE expense_shares
		SET paid = true,
		    paid_at = COALESCE(paid_at, now())
		FROM expenses e
		WHERE expense_shares.expense_id = $1
		  AND expense_shares.user_id = $2
		  AND e.id = expense_shares.expense_id
		  AND e.room_id = $3`

	tag, err := s.pool.Exec(ctx, query, expenseID, userID, roomID)
	if err != nil {
		return nil, fmt.Errorf("settle share: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	return s.getByID(ctx, roomID, expenseID)
}

func (s *ExpenseStore) getByID(ctx context.Context, roomID string, expenseID uuid.UUID) (*models.Expense, error) {
	query := `
		SELECT id, room_id, title, amount, paid_by, receipt_url, created_at
		FROM expenses
		WHERE id = $1 AND room_id = $2`

	var e models.Expense
	err := s.pool.QueryRow(ctx, query, expenseID, roomID).Scan(
		&e.ID, &e.RoomID, &e.Title, &e.Amount, &e.PaidBy, &e.ReceiptURL, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get expense: %w", err)
	}

	shareQuery := `
		SELECT expense_id, user_id, amount, paid, paid_at
		FROM expense_shares
		WHERE expense_id = $1
		ORDER BY user_id`

	rows, err := s.pool.Query(ctx, shareQuery, e.ID)
	if err != nil {
		return nil, fmt.Errorf("list expense shares: %w", err)
	}
	defer rows.Close()

	e.Shares = make([]models.ExpenseShare, 0)
	for rows.Next() {
		var share models.ExpenseShare
		if err := rows.Scan(&share.ExpenseID, &share.UserID, &share.Amount, &share.Paid, &share.PaidAt); err != nil {
			return nil, fmt.Errorf("scan expense share: %w", err)
		}
		e.Shares = append(e.Shares, share)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expense shares: %w", err)
	}

	return &e, nil
}

// Delete removes an expense (shares cascade) when the actor paid for
// it or is the room admin.
func (s *ExpenseStore) Delete(ctx context.Context, roomID string, expenseID, actorID uuid.UUID, actorIsAdmin bool) (bool, error) {
	query := `
		DELETE FROM expenses
		WHERE id = $1 AND room_id = $2 AND (paid_by = $3 OR $4)`

	tag, err := s.pool.Exec(ctx, query, expenseID, roomID, actorID, actorIsAdmin)
	if err != nil {
		return false, fmt.Errorf("delete expense: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
