package calendar

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	h := NewHandler(newTestService(t))
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "alice")
		return c.Next()
	})
	app.Post("/events", h.Create)
	app.Post("/events/recurring", h.CreateRecurring)
	app.Get("/events", h.List)
	app.Get("/events/today", h.Today)
	app.Delete("/events", h.DeleteByTitle)
	app.Get("/events/:eventId", h.Get)
	app.Put("/events/:eventId", h.Update)
	app.Delete("/events/:eventId", h.Delete)
	app.Post("/savings-schedule", h.RegisterSavings)
	app.Get("/summary", h.Summary)
	return app
}

func send(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func TestEventLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t)
	resp := send(t, app, http.MethodPost, "/events",
		`{"eventDate":"2024-03-20","transactionType":"WITHDRAW","eventType":"FOOD","title":"회식","amount":70000}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var e Event
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.Status != StatusScheduled {
		t.Fatalf("unexpected status %s", e.Status)
	}

	resp = send(t, app, http.MethodPost, "/events",
		`{"eventDate":"2024-03-21","transactionType":"WITHDRAW","eventType":"FOOD","title":"회식","amount":1}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate title, got %d", resp.StatusCode)
	}
	resp = send(t, app, http.MethodPost, "/events", `{"eventDate":"20-03-2024","title":"x"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", resp.StatusCode)
	}

	resp = send(t, app, http.MethodPut, "/events/"+e.ID, `{"status":"CANCELED"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp = send(t, app, http.MethodGet, "/events?year=2024&month=3", "")
	var events []Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 1 || events[0].Status != StatusCanceled {
		t.Fatalf("unexpected month listing %+v", events)
	}

	resp = send(t, app, http.MethodDelete, "/events/"+e.ID, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	resp = send(t, app, http.MethodGet, "/events/"+e.ID, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestRecurringAndDeleteByTitleOverHTTP(t *testing.T) {
	app := newTestApp(t)
	resp := send(t, app, http.MethodPost, "/events/recurring",
		`{"transactionType":"WITHDRAW","eventType":"SUBSCRIPTION","title":"OTT","amount":13500,
          "recurrence":"WEEKLY","dayOfWeek":5,"startDate":"2024-03-01","endDate":"2024-03-31"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var out registered
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 5 {
		t.Fatalf("expected the five fridays of march 2024, got %d", out.Count)
	}

	resp = send(t, app, http.MethodDelete, "/events?title=OTT", "")
	var deleted struct {
		Deleted int `json:"deleted"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&deleted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if deleted.Deleted != 5 {
		t.Fatalf("expected 5 deleted, got %d", deleted.Deleted)
	}
}

func TestRegisterSavingsOverHTTP(t *testing.T) {
	app := newTestApp(t)
	resp := send(t, app, http.MethodPost, "/savings-schedule", `{"accountNumber":"110-000-000002"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for a demand account, got %d", resp.StatusCode)
	}
	resp = send(t, app, http.MethodPost, "/savings-schedule", `{"accountNumber":"110-000-000001"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	resp = send(t, app, http.MethodPost, "/savings-schedule", `{"accountNumber":"110-000-000001"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestSummaryRejectsInvalidMonth(t *testing.T) {
	app := newTestApp(t)
	resp := send(t, app, http.MethodGet, "/summary?year=2024&month=0", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	resp = send(t, app, http.MethodGet, "/summary?year=2024&month=3", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
