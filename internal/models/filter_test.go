package models_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/roomhub/roomhub/internal/models"
)

func TestFilterChores_PartitionsByStatus(t *testing.T) {
	me := uuid.New()
	other := uuid.New()

	chores := []models.Chore{
		{ID: uuid.New(), Title: "Clean kitchen", AssignedTo: me, Status: models.ChoreStatusPending},
		{ID: uuid.New(), Title: "Take out trash", AssignedTo: other, Status: models.ChoreStatusCompleted},
		{ID: uuid.New(), Title: "Vacuum living room", AssignedTo: other, Status: models.ChoreStatusPending},
		{ID: uuid.New(), Title: "Water plants", AssignedTo: me, Status: models.ChoreStatusCompleted},
	}

	pending := models.FilterChores(chores, models.FilterPending, me)
	completed := models.FilterChores(chores, models.FilterCompleted, me)

	// pending and completed must partition the full set: no overlap,
	// no omission.
	if len(pending)+len(completed) != len(chores) {
		t.Fatalf("partition lost or duplicated chores: %d pending + %d completed != %d total",
			len(pending), len(completed), len(chores))
	}
	seen := make(map[uuid.UUID]bool)
	for _, c := range append(pending, completed...) {
		if seen[c.ID] {
			t.Fatalf("chore %s appears in both partitions", c.ID)
		}
		seen[c.ID] = true
	}
	for _, c := range pending {
		if c.Status != models.ChoreStatusPending {
			t.Errorf("chore %q in pending partition has status %q", c.Title, c.Status)
		}
	}
	for _, c := range completed {
		if c.Status != models.ChoreStatusCompleted {
			t.Errorf("chore %q in completed partition has status %q", c.Title, c.Status)
		}
	}
}

func TestFilterChores_Mine(t *testing.T) {
	me := uuid.New()
	other := uuid.New()

	chores := []models.Chore{
		{ID: uuid.New(), AssignedTo: me, Status: models.ChoreStatusPending},
		{ID: uuid.New(), AssignedTo: other, Status: models.ChoreStatusPending},
	}

	mine := models.FilterChores(chores, models.FilterMine, me)
	if len(mine) != 1 || mine[0].AssignedTo != me {
		t.Fatalf("expected exactly my one chore, got %d", len(mine))
	}
}

func TestFilterChores_AllAndUnknownAreIdentity(t *testing.T) {
	me := uuid.New()
	chores := []models.Chore{
		{ID: uuid.New(), Status: models.ChoreStatusPending},
		{ID: uuid.New(), Status: models.ChoreStatusCompleted},
	}

	for _, filter := range []string{models.FilterAll, "", "bogus"} {
		if got := models.FilterChores(chores, filter, me); len(got) != len(chores) {
			t.Errorf("filter %q dropped chores: got %d, want %d", filter, len(got), len(chores))
		}
	}
}

func TestFilterExpenses(t *testing.T) {
	me := uuid.New()
	other := uuid.New()

	expenses := []models.Expense{
		{
			// I paid; my share settled at creation.
			ID: uuid.New(), Title: "Groceries", PaidBy: me,
			Shares: []models.ExpenseShare{
				{UserID: me, Paid: true},
				{UserID: other, Paid: false},
			},
		},
		{
			// Other paid; I still owe.
			ID: uuid.New(), Title: "Utilities", PaidBy: other,
			Shares: []models.ExpenseShare{
				{UserID: me, Paid: false},
				{UserID: other, Paid: true},
			},
		},
		{
			// Other paid; I settled.
			ID: uuid.New(), Title: "Internet", PaidBy: other,
			Shares: []models.ExpenseShare{
				{UserID: me, Paid: true},
				{UserID: other, Paid: true},
			},
		},
	}

	if got := models.FilterExpenses(expenses, models.FilterMine, me); len(got) != 1 || got[0].Title != "Groceries" {
		t.Errorf("mine: got %d expenses", len(got))
	}
	if got := models.FilterExpenses(expenses, models.FilterOwed, me); len(got) != 1 || got[0].Title != "Utilities" {
		t.Errorf("owed: got %d expenses", len(got))
	}
	// "paid" is about my share being settled, regardless of who paid
	// up front.
	if got := models.FilterExpenses(expenses, models.FilterPaid, me); len(got) != 2 {
		t.Errorf("paid: got %d expenses, want 2", len(got))
	}
}

func TestFilterGroceries_Partition(t *testing.T) {
	items := []models.GroceryItem{
		{ID: uuid.New(), Name: "Milk", Bought: false},
		{ID: uuid.New(), Name: "Bread", Bought: true},
		{ID: uuid.New(), Name: "Eggs", Bought: false},
	}

	pending := models.FilterGroceries(items, models.FilterPending)
	bought := models.FilterGroceries(items, models.FilterBought)

	if len(pending) != 2 || len(bought) != 1 {
		t.Fatalf("got %d pending and %d bought, want 2 and 1", len(pending), len(bought))
	}
	if len(pending)+len(bought) != len(items) {
		t.Fatal("pending and bought must partition the list")
	}
}

func TestFilterPolls_ActiveVersusClosed(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	polls := []models.Poll{
		{ID: uuid.New(), Question: "Dinner?", ExpiresAt: now.Add(time.Hour)},
		{ID: uuid.New(), Question: "Movie night?", ExpiresAt: now.Add(-time.Hour)},
	}

	active := models.FilterPolls(polls, models.FilterActive, now)
	closed := models.FilterPolls(polls, models.FilterClosed, now)

	if len(active) != 1 || active[0].Question != "Dinner?" {
		t.Errorf("active: got %d polls", len(active))
	}
	if len(closed) != 1 || closed[0].Question != "Movie night?" {
		t.Errorf("closed: got %d polls", len(closed))
	}
}

func TestFilterEvents(t *testing.T) {
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	events := []models.CalendarEvent{
		{ID: uuid.New(), Title: "Pay Rent", Type: models.EventTypePayment, StartAt: base, EndAt: base.Add(time.Hour)},
		{ID: uuid.New(), Title: "Deep Clean", Type: models.EventTypeTask, StartAt: base.AddDate(0, 0, 14), EndAt: base.AddDate(0, 0, 14).Add(3 * time.Hour)},
	}

	byType := models.FilterEvents(events, models.EventTypePayment, time.Time{}, time.Time{})
	if len(byType) != 1 || byType[0].Title != "Pay Rent" {
		t.Errorf("type filter: got %d events", len(byType))
	}

	// Window covering only the first event.
	window := models.FilterEvents(events, "", base.AddDate(0, 0, -1), base.AddDate(0, 0, 7))
	if len(window) != 1 || window[0].Title != "Pay Rent" {
		t.Errorf("window filter: got %d events", len(window))
	}

	// Open-ended bounds keep everything.
	all := models.FilterEvents(events, "", time.Time{}, time.Time{})
	if len(all) != len(events) {
		t.Errorf("open window dropped events: got %d", len(all))
	}
}
