package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/roomhub/roomhub/internal/models"
)

// Every method takes a context (all of these hit the network) and the
// domain-item methods all take the room id explicitly. The room id
// comes from the caller's resolved membership, never from the request
// body, so a write can only ever land in the writer's own room.
//
// Lookup methods return nil, nil for "not found"; the handler decides
// whether that is a 404 or something else. Mutations that need to
// distinguish outcomes return the sentinels in errors.go.

// UserRepository handles identity profiles.
type UserRepository interface {
	Create(ctx context.Context, email, displayName, passwordHash string) (*models.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// UpdateProfile applies the non-nil fields and returns the updated
	// user. A nil field means "leave unchanged", not "clear".
	UpdateProfile(ctx context.Context, userID uuid.UUID, displayName, photoURL *string) (*models.User, error)
}

// RoomRepository owns rooms and the membership mutations that must be
// atomic with them. Create and Join run as single transactions so the
// room write and the membership write can never be observed apart.
type RoomRepository interface {
	// Create inserts the room and the creator's admin membership in one
	// transaction. Fails with ErrRoomExists on slug collision and
	// ErrAlreadyInRoom if the creator is already in a room.
	Create(ctx context.Context, id, name string, creatorID uuid.UUID) (*models.Room, error)

	// Join verifies the room exists and inserts a member-role
	// membership in one transaction. Fails with ErrRoomNotFound or
	// ErrAlreadyInRoom; on failure the caller's membership state is
	// untouched.
	Join(ctx context.Context, roomID string, userID uuid.UUID) (*models.Room, error)

	// Leave drops the user's membership. No-op if there is none.
	Leave(ctx context.Context, userID uuid.UUID) error

	GetByID(ctx context.Context, roomID string) (*models.Room, error)
}

// MembershipRepository is the read side of room membership — what the
// access-scope resolver and member listing consume.
type MembershipRepository interface {
	// GetForUser returns the user's sole membership, or nil, nil when
	// the user is not in any room.
	GetForUser(ctx context.Context, userID uuid.UUID) (*models.Membership, error)

	// ListMembers returns the room's members joined with their profiles.
	ListMembers(ctx context.Context, roomID string) ([]models.Member, error)
}

// ChoreRepository handles the room's chore list.
type ChoreRepository interface {
	Create(ctx context.Context, roomID, title, description string, assignedTo, createdBy uuid.UUID, dueDate time.Time) (*models.Chore, error)
	ListByRoom(ctx context.Context, roomID string) ([]models.Chore, error)
	Update(ctx context.Context, roomID string, choreID uuid.UUID, title, description string, assignedTo uuid.UUID, dueDate time.Time) (*models.Chore, error)

	// Toggle flips pending<->completed. Completing stamps the acting
	// user and time; reopening clears both. Returns nil, nil when the
	// chore is not in the room.
	Toggle(ctx context.Context, roomID string, choreID, actorID uuid.UUID) (*models.Chore, error)

	Delete(ctx context.Context, roomID string, choreID, actorID uuid.UUID, actorIsAdmin bool) (bool, error)
}

// ShareInput is one member's slice of a new expense.
type ShareInput struct {
	UserID uuid.UUID
	Amount float64
}

// ExpenseRepository handles shared expenses and their splits.
type ExpenseRepository interface {
	// Create inserts the expense and all its shares in one transaction.
	// The payer's own share, if present, starts out paid.
	Create(ctx context.Context, roomID, title string, amount float64, paidBy uuid.UUID, receiptURL *string, shares []ShareInput) (*models.Expense, error)

	ListByRoom(ctx context.Context, roomID string) ([]models.Expense, error)

	// Settle marks the user's share of the expense paid. Returns
	// nil, nil when the expense or the user's share does not exist.
	Settle(ctx context.Context, roomID string, expenseID, userID uuid.UUID) (*models.Expense, error)

	Delete(ctx context.Context, roomID string, expenseID, actorID uuid.UUID, actorIsAdmin bool) (bool, error)
}

// GroceryRepository handles the shared shopping list.
type GroceryRepository interface {
	Create(ctx context.Context, roomID, name string, addedBy uuid.UUID) (*models.GroceryItem, error)
	ListByRoom(ctx context.Context, roomID string) ([]models.GroceryItem, error)

	// Toggle flips bought<->unbought. Buying stamps bought_by/bought_at;
	// unbuying clears them, so two toggles restore the original fields.
	Toggle(ctx context.Context, roomID string, itemID, actorID uuid.UUID) (*models.GroceryItem, error)

	// Delete is open to any room member — it is a shopping list.
	Delete(ctx context.Context, roomID string, itemID uuid.UUID) (bool, error)
}

// PollRepository handles polls, options, and votes.
type PollRepository interface {
	Create(ctx context.Context, roomID, question string, createdBy uuid.UUID, expiresAt time.Time, options []string) (*models.Poll, error)
	ListByRoom(ctx context.Context, roomID string) ([]models.Poll, error)
	GetByID(ctx context.Context, roomID string, pollID uuid.UUID) (*models.Poll, error)

	// Vote upserts the user's single vote for the poll; re-voting moves
	// it to the new option. Fails with ErrPollNotFound when the poll is
	// not in the room, ErrPollClosed after expiry, and ErrOptionNotFound
	// when the option is not part of the poll.
	Vote(ctx context.Context, roomID string, pollID, optionID, userID uuid.UUID) error

	Delete(ctx context.Context, roomID string, pollID, actorID uuid.UUID, actorIsAdmin bool) (bool, error)
}

// EventRepository handles the shared calendar.
type EventRepository interface {
	Create(ctx context.Context, roomID, title, description string, startAt, endAt time.Time, createdBy uuid.UUID, eventType string) (*models.CalendarEvent, error)
	ListByRoom(ctx context.Context, roomID string) ([]models.CalendarEvent, error)
	Update(ctx context.Context, roomID string, eventID uuid.UUID, title, description string, startAt, endAt time.Time, eventType string) (*models.CalendarEvent, error)
	Delete(ctx context.Context, roomID string, eventID, actorID uuid.UUID, actorIsAdmin bool) (bool, error)
}

// MessageRepository handles chat persistence.
type MessageRepository interface {
	Create(ctx context.Context, roomID string, senderID uuid.UUID, body string) (*models.Message, error)

	// ListByRoom pages newest-first by message id. before=0 starts from
	// the latest.
	ListByRoom(ctx context.Context, roomID string, before int64, limit int) ([]models.Message, error)

	// MarkRead records the user as having read every room message with
	// id <= upTo. Idempotent.
	MarkRead(ctx context.Context, roomID string, userID uuid.UUID, upTo int64) error
}
