package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/hana-ti/home-planner/internal/logging"
)

func setupTestApp(t *testing.T) (*fiber.App, func()) {
	app, _, cleanup := setupCountingApp(t)
	return app, cleanup
}

func setupCountingApp(t *testing.T) (*fiber.App, *int, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app := fiber.New()
	logger := logging.Discard()
	calls := 0
	app.Use(func(c *fiber.Ctx) error {
		if u := c.Get("X-Test-User"); u != "" {
			c.Locals("user_id", u)
		}
		return c.Next()
	})
	app.Use(Idempotency(cache, time.Minute, logger))
	app.Post("/resource", func(c *fiber.Ctx) error {
		calls++
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "call": calls})
	})
	app.Post("/flaky", func(c *fiber.Ctx) error {
		calls++
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ok": false})
	})

	cleanup := func() {
		cache.Close()
		mr.Close()
	}

	return app, &calls, cleanup
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	req := httptest.NewRequest(fiber.MethodPost, "/resource", strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected %d got %d", fiber.StatusBadRequest, resp.StatusCode)
	}
}

func TestIdempotencyReturnsCachedResponse(t *testing.T) {
	app, cleanup := setupTestApp(t)
	defer cleanup()

	body := strings.NewReader("{}")
	req := httptest.NewRequest(fiber.MethodPost, "/resource", body)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(idempotencyKeyHeader, "abc123")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("first request: %v", err)
	}

	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected status %d got %d", fiber.StatusCreated, resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()

	// Second request should return the cached response without invoking handler again.
	req2 := httptest.NewRequest(fiber.MethodPost, "/resource", strings.NewReader("{}"))
	req2.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req2.Header.Set(idempotencyKeyHeader, "abc123")

	resp2, err := app.Test(req2)
	if err != nil {
		t.Fatalf("second request: %v", err)
	}

	if resp2.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected cached status %d got %d", fiber.StatusCreated, resp2.StatusCode)
	}

	cachedPayload, err := io.ReadAll(resp2.Body)
	if err != nil {
		t.Fatalf("read cached body: %v", err)
	}
	resp2.Body.Close()

	if string(cachedPayload) != string(payload) {
		t.Fatalf("expected cached payload %s got %s", string(payload), string(cachedPayload))
	}

	var decoded map[string]any
	if err := json.Unmarshal(cachedPayload, &decoded); err != nil {
		t.Fatalf("cached payload invalid json: %v", err)
	}
}

func postWithKey(t *testing.T, app *fiber.App, path, user, key string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(idempotencyKeyHeader, key)
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestIdempotencyKeysAreScopedPerUser(t *testing.T) {
	app, calls, cleanup := setupCountingApp(t)
	defer cleanup()

	postWithKey(t, app, "/resource", "alice", "same-key")
	postWithKey(t, app, "/resource", "alice", "same-key")
	if *calls != 1 {
		t.Fatalf("expected a single invocation for alice, got %d", *calls)
	}
	postWithKey(t, app, "/resource", "bob", "same-key")
	if *calls != 2 {
		t.Fatalf("expected bob's request to run, got %d invocations", *calls)
	}
}

func TestIdempotencyDoesNotStoreServerErrors(t *testing.T) {
	app, calls, cleanup := setupCountingApp(t)
	defer cleanup()

	if status := postWithKey(t, app, "/flaky", "alice", "retry-me"); status != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", status)
	}
	postWithKey(t, app, "/flaky", "alice", "retry-me")
	if *calls != 2 {
		t.Fatalf("expected the retry to reach the handler, got %d invocations", *calls)
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	app, calls, cleanup := setupCountingApp(t)
	defer cleanup()

	send := func(body string) *http.Response {
		req := httptest.NewRequest(fiber.MethodPost, "/resource", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		req.Header.Set(idempotencyKeyHeader, "transfer-1")
		req.Header.Set("X-Test-User", "alice")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		return resp
	}

	if resp := send(`{"amount":1000}`); resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	replay := send(`{"amount":1000}`)
	if replay.StatusCode != fiber.StatusCreated || replay.Header.Get(idempotentReplayHeader) != "true" {
		t.Fatalf("expected a marked replay, got %d %q", replay.StatusCode, replay.Header.Get(idempotentReplayHeader))
	}
	if resp := send(`{"amount":9000}`); resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	if *calls != 1 {
		t.Fatalf("expected one handler invocation, got %d", *calls)
	}
}
