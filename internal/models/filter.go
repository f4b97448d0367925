package models

import (
	"time"

	"github.com/google/uuid"
)

// List filters are pure predicates over the room's fetched set. The
// store fetches everything for the room; what each member sees is
// narrowed here, so the same fetched slice always partitions cleanly
// (every pending chore is exactly a non-completed chore, and so on).

// Filter names shared by the list endpoints. "all" (or an empty
// filter) is always the identity.
const (
	FilterAll = "all"

	FilterMine      = "mine"
	FilterPending   = "pending"
	FilterCompleted = "completed"

	FilterOwed = "owed"
	FilterPaid = "paid"

	FilterBought = "bought"

	FilterActive = "active"
	FilterClosed = "closed"
)

// FilterChores narrows chores by status or assignee. "mine" keeps
// chores assigned to me; unknown filters behave like "all".
func FilterChores(chores []Chore, filter string, me uuid.UUID) []Chore {
	out := make([]Chore, 0, len(chores))
	for _, c := range chores {
		switch filter {
		case FilterMine:
			if c.AssignedTo != me {
				continue
			}
		case FilterPending:
			if c.Status != ChoreStatusPending {
				continue
			}
		case FilterCompleted:
			if c.Status != ChoreStatusCompleted {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// FilterExpenses narrows expenses relative to me:
//
//	"mine" — expenses I paid for.
//	"owed" — expenses where my share is unpaid and someone else paid.
//	"paid" — expenses where my share is settled.
func FilterExpenses(expenses []Expense, filter string, me uuid.UUID) []Expense {
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		switch filter {
		case FilterMine:
			if e.PaidBy != me {
				continue
			}
		case FilterOwed:
			share, ok := e.Share(me)
			if !ok || share.Paid || e.PaidBy == me {
				continue
			}
		case FilterPaid:
			share, ok := e.Share(me)
			if !ok || !share.Paid {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// Share returns my split of the expense, if I am part of it.
func (e Expense) Share(userID uuid.UUID) (ExpenseShare, bool) {
	for _, s := range e.Shares {
		if s.UserID == userID {
			return s, true
		}
	}
	return ExpenseShare{}, false
}

// FilterGroceries narrows grocery items by bought state. "pending"
// means still on the list.
func FilterGroceries(items []GroceryItem, filter string) []GroceryItem {
	out := make([]GroceryItem, 0, len(items))
	for _, item := range items {
		switch filter {
		case FilterPending:
			if item.Bought {
				continue
			}
		case FilterBought:
			if !item.Bought {
				continue
			}
		}
		out = append(out, item)
	}
	return out
}

// FilterPolls splits polls into active and closed at the given instant.
func FilterPolls(polls []Poll, filter string, now time.Time) []Poll {
	out := make([]Poll, 0, len(polls))
	for _, p := range polls {
		switch filter {
		case FilterActive:
			if p.Expired(now) {
				continue
			}
		case FilterClosed:
			if !p.Expired(now) {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// FilterEvents narrows calendar events by type and an optional
// [from, to] window. Zero bounds are open ends; an event matches the
// window when it overlaps it at all.
func FilterEvents(events []CalendarEvent, eventType string, from, to time.Time) []CalendarEvent {
	out := make([]CalendarEvent, 0, len(events))
	for _, ev := range events {
		if eventType != "" && eventType != FilterAll && ev.Type != eventType {
			continue
		}
		if !from.IsZero() && ev.EndAt.Before(from) {
			continue
		}
		if !to.IsZero() && ev.StartAt.After(to) {
			continue
		}
		out = append(out, ev)
	}
	return out
}
