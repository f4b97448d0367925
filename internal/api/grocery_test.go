package api_test

import (
	"net/http"
	"testing"

	"github.com/roomhub/roomhub/internal/models"
)

func TestGroceryToggle_RoundTrip(t *testing.T) {
	db := newMemDB()
	groceries := &fakeGroceries{}
	router := newTestRouter(db, &fakeChores{}, groceries, &fakePolls{}, &fakeExpenses{})
	alice := db.addUser("alice")
	doJSON(t, router, http.MethodPost, "/v1/rooms", tokenFor(t, alice),
		map[string]string{"name": "Sunset House"})

	w := doJSON(t, router, http.MethodPost, "/v1/groceries", tokenFor(t, alice),
		map[string]string{"name": "oat milk"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create item: got %d: %s", w.Code, w.Body.String())
	}
	var item models.GroceryItem
	decodeInto(t, w, &item)
	if item.Bought {
		t.Fatal("new item should start unbought")
	}

	w = doJSON(t, router, http.MethodPost, "/v1/groceries/"+item.ID.String()+"/toggle", tokenFor(t, alice), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("first toggle: got %d", w.Code)
	}
	var bought models.GroceryItem
	decodeInto(t, w, &bought)
	if !bought.Bought || bought.BoughtBy == nil || *bought.BoughtBy != alice || bought.BoughtAt == nil {
		t.Fatalf("expected bought and stamped by alice, got %+v", bought)
	}

	// Toggling back clears the stamps, restoring the original item.
	w = doJSON(t, router, http.MethodPost, "/v1/groceries/"+item.ID.String()+"/toggle", tokenFor(t, alice), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("second toggle: got %d", w.Code)
	}
	var restored models.GroceryItem
	decodeInto(t, w, &restored)
	if restored.Bought || restored.BoughtBy != nil || restored.BoughtAt != nil {
		t.Fatalf("expected fully cleared item after second toggle, got %+v", restored)
	}
}

func TestGroceryFilter(t *testing.T) {
	db := newMemDB()
	groceries := &fakeGroceries{}
	router := newTestRouter(db, &fakeChores{}, groceries, &fakePolls{}, &fakeExpenses{})
	alice := db.addUser("alice")
	doJSON(t, router, http.MethodPost, "/v1/rooms", tokenFor(t, alice),
		map[string]string{"name": "Sunset House"})

	var bread models.GroceryItem
	decodeInto(t, doJSON(t, router, http.MethodPost, "/v1/groceries", tokenFor(t, alice),
		map[string]string{"name": "bread"}), &bread)
	doJSON(t, router, http.MethodPost, "/v1/groceries", tokenFor(t, alice),
		map[string]string{"name": "eggs"})
	doJSON(t, router, http.MethodPost, "/v1/groceries/"+bread.ID.String()+"/toggle", tokenFor(t, alice), nil)

	var pending []models.GroceryItem
	decodeInto(t, doJSON(t, router, http.MethodGet, "/v1/groceries?filter=pending", tokenFor(t, alice), nil), &pending)
	if len(pending) != 1 || pending[0].Name != "eggs" {
		t.Errorf("expected only eggs pending, got %+v", pending)
	}

	var boughtList []models.GroceryItem
	decodeInto(t, doJSON(t, router, http.MethodGet, "/v1/groceries?filter=bought", tokenFor(t, alice), nil), &boughtList)
	if len(boughtList) != 1 || boughtList[0].Name != "bread" {
		t.Errorf("expected only bread bought, got %+v", boughtList)
	}
}

func TestGroceryDelete_AnyMember(t *testing.T) {
	db := newMemDB()
	groceries := &fakeGroceries{}
	router := newTestRouter(db, &fakeChores{}, groceries, &fakePolls{}, &fakeExpenses{})
	alice := db.addUser("alice")
	bob := db.addUser("bob")
	doJSON(t, router, http.MethodPost, "/v1/rooms", tokenFor(t, alice),
		map[string]string{"name": "Sunset House"})
	doJSON(t, router, http.MethodPost, "/v1/rooms/join", tokenFor(t, bob),
		map[string]string{"room_id": "sunset-house"})

	var item models.GroceryItem
	decodeInto(t, doJSON(t, router, http.MethodPost, "/v1/groceries", tokenFor(t, alice),
		map[string]string{"name": "butter"}), &item)

	// Bob did not add it but may still delete it.
	w := doJSON(t, router, http.MethodDelete, "/v1/groceries/"+item.ID.String(), tokenFor(t, bob), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	w = doJSON(t, router, http.MethodDelete, "/v1/groceries/"+item.ID.String(), tokenFor(t, bob), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for already-deleted item, got %d", w.Code)
	}
}
