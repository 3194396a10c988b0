package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newHandlerApp(t *testing.T, hook SignupHook) *fiber.App {
	t.Helper()
	h := NewHandler(NewService(NewMemoryRepository()), hook)
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if id := c.Get("X-Test-User"); id != "" {
			c.Locals("user_id", id)
		}
		return c.Next()
	})
	app.Post("/users/register", h.Register)
	app.Get("/me", h.Me)
	return app
}

func signup(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/users/register", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return resp
}

func TestRegisterEndpointStatuses(t *testing.T) {
	var hooked []string
	app := newHandlerApp(t, func(_ context.Context, userID, token string) {
		hooked = append(hooked, userID+":"+token)
	})

	resp := signup(t, app, `{"email":"minji@example.com","password":"password1","name":"박민지","inviteToken":"tok-1"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(hooked) != 1 || hooked[0] != user.ID+":tok-1" {
		t.Fatalf("signup hook not called with invite token: %v", hooked)
	}

	if resp := signup(t, app, `{"email":"minji@example.com","password":"password2","name":"다른"}`); resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", resp.StatusCode)
	}
	if resp := signup(t, app, `{"email":"x@example.com","password":"short","name":"x"}`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for short password, got %d", resp.StatusCode)
	}
	if len(hooked) != 1 {
		t.Fatalf("hook must only run for successful signups with a token")
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-Test-User", user.ID)
	me, err := app.Test(req)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for /me, got %d", me.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-Test-User", "ghost")
	if missing, _ := app.Test(req); missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", missing.StatusCode)
	}
}
