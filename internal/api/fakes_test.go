package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/roomhub/roomhub/internal/api"
	"github.com/roomhub/roomhub/internal/auth"
	"github.com/roomhub/roomhub/internal/middleware"
	"github.com/roomhub/roomhub/internal/models"
	"github.com/roomhub/roomhub/internal/repository"
	"github.com/roomhub/roomhub/internal/scope"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestRouter wires the handlers under test through the real auth
// and room middleware, so every request takes the same path it would
// in production: token -> scope resolution -> handler.
func newTestRouter(db *memDB, chores *fakeChores, groceries *fakeGroceries, polls *fakePolls, expenses *fakeExpenses) *gin.Engine {
	logger := zap.NewNop()
	resolver := scope.NewResolver(db, nil, time.Minute, logger)

	roomHandler := api.NewRoomHandler(db, db, resolver, logger)
	choreHandler := api.NewChoreHandler(chores, db, logger)
	groceryHandler := api.NewGroceryHandler(groceries, logger)
	pollHandler := api.NewPollHandler(polls, logger)
	expenseHandler := api.NewExpenseHandler(expenses, db, logger)

	router := gin.New()
	authed := router.Group("/v1")
	authed.Use(middleware.AuthMiddleware(testSecret))

	authed.POST("/rooms", roomHandler.Create)
	authed.POST("/rooms/join", roomHandler.Join)
	authed.POST("/rooms/leave", roomHandler.Leave)

	room := authed.Group("")
	room.Use(middleware.RequireRoom(resolver, logger))

	room.GET("/rooms/current", roomHandler.Current)

	room.POST("/chores", choreHandler.Create)
	room.GET("/chores", choreHandler.List)
	room.PATCH("/chores/:id", choreHandler.Update)
	room.POST("/chores/:id/toggle", choreHandler.Toggle)
	room.DELETE("/chores/:id", choreHandler.Delete)

	room.POST("/groceries", groceryHandler.Create)
	room.GET("/groceries", groceryHandler.List)
	room.POST("/groceries/:id/toggle", groceryHandler.Toggle)
	room.DELETE("/groceries/:id", groceryHandler.Delete)

	room.POST("/polls", pollHandler.Create)
	room.GET("/polls", pollHandler.List)
	room.POST("/polls/:id/vote", pollHandler.Vote)
	room.DELETE("/polls/:id", pollHandler.Delete)

	room.POST("/expenses", expenseHandler.Create)
	room.GET("/expenses", expenseHandler.List)
	room.POST("/expenses/:id/settle", expenseHandler.Settle)
	room.DELETE("/expenses/:id", expenseHandler.Delete)

	return router
}

func tokenFor(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, "user@example.com", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeInto(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

// memDB is an in-memory stand-in for the Postgres stores, mirroring
// their semantics closely enough to exercise the handlers: one
// membership per user, atomic create/join, toggle field stamping,
// single-vote upsert. Not goroutine-safe; handler tests are serial.
type memDB struct {
	rooms       map[string]*models.Room
	memberships map[uuid.UUID]*models.Membership
	users       map[uuid.UUID]*models.User
	chores      []models.Chore
	groceries   []models.GroceryItem
	polls       []models.Poll
}

func newMemDB() *memDB {
	return &memDB{
		rooms:       make(map[string]*models.Room),
		memberships: make(map[uuid.UUID]*models.Membership),
		users:       make(map[uuid.UUID]*models.User),
	}
}

func (db *memDB) addUser(displayName string) uuid.UUID {
	id := uuid.New()
	db.users[id] = &models.User{ID: id, DisplayName: displayName, Email: displayName + "@example.com", CreatedAt: time.Now()}
	return id
}

// --- RoomRepository ---

func (db *memDB) Create(ctx context.Context, id, name string, creatorID uuid.UUID) (*models.Room, error) {
	if _, exists := db.rooms[id]; exists {
		return nil, repository.ErrRoomExists
	}
	if _, exists := db.memberships[creatorID]; exists {
		return nil, repository.ErrAlreadyInRoom
	}
	room := &models.Room{ID: id, Name: name, CreatedBy: creatorID, AdminID: creatorID, CreatedAt: time.Now()}
	db.rooms[id] = room
	db.memberships[creatorID] = &models.Membership{UserID: creatorID, RoomID: id, Role: models.RoleAdmin, JoinedAt: time.Now()}
	return room, nil
}

func (db *memDB) Join(ctx context.Context, roomID string, userID uuid.UUID) (*models.Room, error) {
	room, exists := db.rooms[roomID]
	if !exists {
		return nil, repository.ErrRoomNotFound
	}
	if _, exists := db.memberships[userID]; exists {
		return nil, repository.ErrAlreadyInRoom
	}
	db.memberships[userID] = &models.Membership{UserID: userID, RoomID: roomID, Role: models.RoleMember, JoinedAt: time.Now()}
	return room, nil
}

func (db *memDB) Leave(ctx context.Context, userID uuid.UUID) error {
	delete(db.memberships, userID)
	return nil
}

func (db *memDB) GetByID(ctx context.Context, roomID string) (*models.Room, error) {
	return db.rooms[roomID], nil
}

// --- MembershipRepository ---

func (db *memDB) GetForUser(ctx context.Context, userID uuid.UUID) (*models.Membership, error) {
	return db.memberships[userID], nil
}

func (db *memDB) ListMembers(ctx context.Context, roomID string) ([]models.Member, error) {
	members := make([]models.Member, 0)
	for _, m := range db.memberships {
		if m.RoomID != roomID {
			continue
		}
		member := models.Member{UserID: m.UserID, Role: m.Role, JoinedAt: m.JoinedAt}
		if u, ok := db.users[m.UserID]; ok {
			member.DisplayName = u.DisplayName
			member.Email = u.Email
		}
		members = append(members, member)
	}
	return members, nil
}

// --- ChoreRepository ---

type fakeChores struct {
	chores []models.Chore
}

func (f *fakeChores) Create(ctx context.Context, roomID, title, description string, assignedTo, createdBy uuid.UUID, dueDate time.Time) (*models.Chore, error) {
	c := models.Chore{
		ID: uuid.New(), RoomID: roomID, Title: title, Description: description,
		AssignedTo: assignedTo, CreatedBy: createdBy, DueDate: dueDate,
		Status: models.ChoreStatusPending, CreatedAt: time.Now(),
	}
	f.chores = append(f.chores, c)
	return &c, nil
}

func (f *fakeChores) ListByRoom(ctx context.Context, roomID string) ([]models.Chore, error) {
	out := make([]models.Chore, 0)
	for _, c := range f.chores {
		if c.RoomID == roomID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChores) Update(ctx context.Context, roomID string, choreID uuid.UUID, title, description string, assignedTo uuid.UUID, dueDate time.Time) (*models.Chore, error) {
	for i := range f.chores {
		if f.chores[i].ID == choreID && f.chores[i].RoomID == roomID {
			f.chores[i].Title = title
			f.chores[i].Description = description
			f.chores[i].AssignedTo = assignedTo
			f.chores[i].DueDate = dueDate
			c := f.chores[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeChores) Toggle(ctx context.Context, roomID string, choreID, actorID uuid.UUID) (*models.Chore, error) {
	for i := range f.chores {
		if f.chores[i].ID != choreID || f.chores[i].RoomID != roomID {
			continue
		}
		if f.chores[i].Status == models.ChoreStatusPending {
			now := time.Now()
			f.chores[i].Status = models.ChoreStatusCompleted
			f.chores[i].CompletedBy = &actorID
			f.chores[i].CompletedAt = &now
		} else {
			f.chores[i].Status = models.ChoreStatusPending
			f.chores[i].CompletedBy = nil
			f.chores[i].CompletedAt = nil
		}
		c := f.chores[i]
		return &c, nil
	}
	return nil, nil
}

func (f *fakeChores) Delete(ctx context.Context, roomID string, choreID, actorID uuid.UUID, actorIsAdmin bool) (bool, error) {
	for i := range f.chores {
		if f.chores[i].ID == choreID && f.chores[i].RoomID == roomID &&
			(f.chores[i].CreatedBy == actorID || actorIsAdmin) {
			f.chores = append(f.chores[:i], f.chores[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// --- GroceryRepository ---

type fakeGroceries struct {
	items []models.GroceryItem
}

func (f *fakeGroceries) Create(ctx context.Context, roomID, name string, addedBy uuid.UUID) (*models.GroceryItem, error) {
	item := models.GroceryItem{
		ID: uuid.New(), RoomID: roomID, Name: name, AddedBy: addedBy, AddedAt: time.Now(),
	}
	f.items = append(f.items, item)
	return &item, nil
}

func (f *fakeGroceries) ListByRoom(ctx context.Context, roomID string) ([]models.GroceryItem, error) {
	out := make([]models.GroceryItem, 0)
	for _, item := range f.items {
		if item.RoomID == roomID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeGroceries) Toggle(ctx context.Context, roomID string, itemID, actorID uuid.UUID) (*models.GroceryItem, error) {
	for i := range f.items {
		if f.items[i].ID != itemID || f.items[i].RoomID != roomID {
			continue
		}
		if f.items[i].Bought {
			f.items[i].Bought = false
			f.items[i].BoughtBy = nil
			f.items[i].BoughtAt = nil
		} else {
			now := time.Now()
			f.items[i].Bought = true
			f.items[i].BoughtBy = &actorID
			f.items[i].BoughtAt = &now
		}
		item := f.items[i]
		return &item, nil
	}
	return nil, nil
}

func (f *fakeGroceries) Delete(ctx context.Context, roomID string, itemID uuid.UUID) (bool, error) {
	for i := range f.items {
		if f.items[i].ID == itemID && f.items[i].RoomID == roomID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// --- ExpenseRepository ---

type fakeExpenses struct {
	expenses []models.Expense
}

func (f *fakeExpenses) Create(ctx context.Context, roomID, title string, amount float64, paidBy uuid.UUID, receiptURL *string, shares []repository.ShareInput) (*models.Expense, error) {
	e := models.Expense{
		ID: uuid.New(), RoomID: roomID, Title: title, Amount: amount,
		PaidBy: paidBy, ReceiptURL: receiptURL, CreatedAt: time.Now(),
		Shares: make([]models.ExpenseShare, 0, len(shares)),
	}
	for _, in := range shares {
		share := models.ExpenseShare{ExpenseID: e.ID, UserID: in.UserID, Amount: in.Amount}
		if in.UserID == paidBy {
			now := time.Now()
			share.Paid = true
			share.PaidAt = &now
		}
		e.Shares = append(e.Shares, share)
	}
	f.expenses = append(f.expenses, e)
	return &e, nil
}

func (f *fakeExpenses) ListByRoom(ctx context.Context, roomID string) ([]models.Expense, error) {
	out := make([]models.Expense, 0)
	for _, e := range f.expenses {
		if e.RoomID == roomID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeExpenses) Settle(ctx context.Context, roomID string, expenseID, userID uuid.UUID) (*models.Expense, error) {
	for i := range f.expenses {
		e := &f.expenses[i]
		if e.ID != expenseID || e.RoomID != roomID {
			continue
		}
		for j := range e.Shares {
			if e.Shares[j].UserID != userID {
				continue
			}
			if !e.Shares[j].Paid {
				now := time.Now()
				e.Shares[j].Paid = true
				e.Shares[j].PaidAt = &now
			}
			out := *e
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeExpenses) Delete(ctx context.Context, roomID string, expenseID, actorID uuid.UUID, actorIsAdmin bool) (bool, error) {
	for i := range f.expenses {
		if f.expenses[i].ID == expenseID && f.expenses[i].RoomID == roomID &&
			(f.expenses[i].PaidBy == actorID || actorIsAdmin) {
			f.expenses = append(f.expenses[:i], f.expenses[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// --- PollRepository ---

type fakePolls struct {
	polls []models.Poll

	// getErr makes GetByID fail, for exercising reload failures.
	getErr error
}

func (f *fakePolls) Create(ctx context.Context, roomID, question string, createdBy uuid.UUID, expiresAt time.Time, options []string) (*models.Poll, error) {
	p := models.Poll{
		ID: uuid.New(), RoomID: roomID, Question: question,
		CreatedBy: createdBy, CreatedAt: time.Now(), ExpiresAt: expiresAt,
	}
	for i, text := range options {
		p.Options = append(p.Options, models.PollOption{
			ID: uuid.New(), PollID: p.ID, Text: text, Position: i, Votes: []uuid.UUID{},
		})
	}
	f.polls = append(f.polls, p)
	return &p, nil
}

func (f *fakePolls) ListByRoom(ctx context.Context, roomID string) ([]models.Poll, error) {
	out := make([]models.Poll, 0)
	for _, p := range f.polls {
		if p.RoomID == roomID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePolls) GetByID(ctx context.Context, roomID string, pollID uuid.UUID) (*models.Poll, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for i := range f.polls {
		if f.polls[i].ID == pollID && f.polls[i].RoomID == roomID {
			p := f.polls[i]
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakePolls) Vote(ctx context.Context, roomID string, pollID, optionID, userID uuid.UUID) error {
	for i := range f.polls {
		p := &f.polls[i]
		if p.ID != pollID || p.RoomID != roomID {
			continue
		}
		if p.Expired(time.Now()) {
			return repository.ErrPollClosed
		}
		target := -1
		for j := range p.Options {
			if p.Options[j].ID == optionID {
				target = j
			}
		}
		if target < 0 {
			return repository.ErrOptionNotFound
		}
		// Re-vote moves the existing vote.
		for j := range p.Options {
			votes := p.Options[j].Votes[:0]
			for _, v := range p.Options[j].Votes {
				if v != userID {
					votes = append(votes, v)
				}
			}
			p.Options[j].Votes = votes
		}
		p.Options[target].Votes = append(p.Options[target].Votes, userID)
		return nil
	}
	return repository.ErrPollNotFound
}

func (f *fakePolls) Delete(ctx context.Context, roomID string, pollID, actorID uuid.UUID, actorIsAdmin bool) (bool, error) {
	for i := range f.polls {
		if f.polls[i].ID == pollID && f.polls[i].RoomID == roomID &&
			(f.polls[i].CreatedBy == actorID || actorIsAdmin) {
			f.polls = append(f.polls[:i], f.polls[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
