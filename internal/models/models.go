package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Roles a member can hold within a room. The creator of a room is its
// admin; everyone who joins afterwards is a member.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User is an authenticated household member.
//
// There is intentionally no RoomID field here. The membership table is
// the single source of truth for which room a user is in; duplicating
// it onto the user row invites the two copies to disagree.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PhotoURL     *string   `json:"photo_url"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Room is the aggregate that scopes all household data. Its ID is a
// slug derived from the name at creation time; creation fails loudly
// when the slug is already taken rather than overwriting.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy uuid.UUID `json:"created_by"`
	AdminID   uuid.UUID `json:"admin_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SlugifyRoomName derives a room identifier from its display name:
// lowercase, with every run of whitespace collapsed to a single hyphen.
// "Sunset  House" and "sunset house" both map to "sunset-house".
func SlugifyRoomName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// Membership ties a user to a room with a role. A user holds at most
// one membership at a time (primary key on user_id), which is what
// makes "current room" a derived lookup instead of stored state.
type Membership struct {
	UserID   uuid.UUID `json:"user_id"`
	RoomID   string    `json:"room_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// Member is a membership joined with the user's profile, for the
// room-member listing. Profile fields come from the users table at
// query time, never from a copy on the membership row.
type Member struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	PhotoURL    *string   `json:"photo_url"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

// Chore statuses. Toggling flips between the two and sets or clears
// the completed_by/completed_at pair.
const (
	ChoreStatusPending   = "pending"
	ChoreStatusCompleted = "completed"
)

type Chore struct {
	ID          uuid.UUID  `json:"id"`
	RoomID      string     `json:"room_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AssignedTo  uuid.UUID  `json:"assigned_to"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	DueDate     time.Time  `json:"due_date"`
	Status      string     `json:"status"`
	CompletedBy *uuid.UUID `json:"completed_by"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Expense is a shared cost paid up front by one member and split
// across the room. Shares carry their own paid flags; an expense is
// settled for a member once their share is marked paid.
type Expense struct {
	ID         uuid.UUID      `json:"id"`
	RoomID     string         `json:"room_id"`
	Title      string         `json:"title"`
	Amount     float64        `json:"amount"`
	PaidBy     uuid.UUID      `json:"paid_by"`
	ReceiptURL *string        `json:"receipt_url"`
	CreatedAt  time.Time      `json:"created_at"`
	Shares     []ExpenseShare `json:"split_between"`
}

type ExpenseShare struct {
	ExpenseID uuid.UUID  `json:"expense_id"`
	UserID    uuid.UUID  `json:"user_id"`
	Amount    float64    `json:"amount"`
	Paid      bool       `json:"paid"`
	PaidAt    *time.Time `json:"paid_at"`
}

type GroceryItem struct {
	ID       uuid.UUID  `json:"id"`
	RoomID   string     `json:"room_id"`
	Name     string     `json:"name"`
	AddedBy  uuid.UUID  `json:"added_by"`
	AddedAt  time.Time  `json:"added_at"`
	Bought   bool       `json:"bought"`
	BoughtBy *uuid.UUID `json:"bought_by"`
	BoughtAt *time.Time `json:"bought_at"`
}

// Poll closes when ExpiresAt passes; votes against a closed poll are
// rejected. A user holds at most one vote per poll and re-voting moves
// it to the new option.
type Poll struct {
	ID        uuid.UUID    `json:"id"`
	RoomID    string       `json:"room_id"`
	Question  string       `json:"question"`
	CreatedBy uuid.UUID    `json:"created_by"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at"`
	Options   []PollOption `json:"options"`
}

type PollOption struct {
	ID       uuid.UUID   `json:"id"`
	PollID   uuid.UUID   `json:"poll_id"`
	Text     string      `json:"text"`
	Position int         `json:"position"`
	Votes    []uuid.UUID `json:"votes"`
}

// Expired reports whether the poll is closed at the given instant.
func (p Poll) Expired(now time.Time) bool {
	return p.ExpiresAt.Before(now)
}

// Calendar event types, matching the categories members pick from.
const (
	EventTypeTask     = "task"
	EventTypePayment  = "payment"
	EventTypeBirthday = "birthday"
	EventTypeOther    = "other"
)

type CalendarEvent struct {
	ID          uuid.UUID `json:"id"`
	RoomID      string    `json:"room_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	CreatedBy   uuid.UUID `json:"created_by"`
	Type        string    `json:"type"`
	CreatedAt   time.Time `json:"created_at"`
}

// ValidEventType reports whether t is one of the known categories.
func ValidEventType(t string) bool {
	switch t {
	case EventTypeTask, EventTypePayment, EventTypeBirthday, EventTypeOther:
		return true
	}
	return false
}

// Message is a chat message in the room's single channel. IDs are
// bigserial: messages are the highest-volume table and a monotonically
// increasing int64 doubles as the pagination cursor. SenderName is
// joined in at query time for display.
type Message struct {
	ID         int64       `json:"id"`
	RoomID     string      `json:"room_id"`
	SenderID   uuid.UUID   `json:"sender_id"`
	SenderName string      `json:"sender_name"`
	Body       string      `json:"body"`
	CreatedAt  time.Time   `json:"created_at"`
	ReadBy     []uuid.UUID `json:"read_by"`
}
