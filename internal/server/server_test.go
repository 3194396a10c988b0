package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/hana-ti/home-planner/internal/config"
	"github.com/hana-ti/home-planner/internal/logging"
)

func TestErrorHandlerShape(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler(logging.Discard())})
	app.Get("/conflict", func(c *fiber.Ctx) error { return fiber.NewError(http.StatusConflict, "already there") })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("db exploded") })

	cases := []struct {
		path   string
		status int
		msg    string
	}{
		{"/conflict", http.StatusConflict, "already there"},
		{"/boom", http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, tc.path, nil))
		if err != nil {
			t.Fatalf("request %s: %v", tc.path, err)
		}
		if resp.StatusCode != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.path, tc.status, resp.StatusCode)
		}
		var body map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["error"] != tc.msg {
			t.Fatalf("%s: unexpected body %v", tc.path, body)
		}
	}
}

func devConfig() config.Config {
	return config.Config{
		AppName:         "HomePlanner",
		AppEnv:          "development",
		Port:            "0",
		CalendarStore:   "memory",
		JWTSecret:       "access",
		RefreshSecret:   "refresh",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		AutoDebitHour:   9,
		LoginAttempts:   5,
	}
}

func TestInMemoryServerServesRoutes(t *testing.T) {
	srv, err := New(devConfig(), Stores{}, logging.Discard())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	for path, want := range map[string]int{
		"/healthz":                    http.StatusOK,
		"/api/v1/ping":                http.StatusOK,
		"/api/v1/savings/products":    http.StatusOK,
		"/api/v1/loans/products":      http.StatusOK,
		"/api/v1/calculations/policy": http.StatusOK,
		"/api/v1/me":                  http.StatusUnauthorized,
		"/api/v1/calendar/events":     http.StatusUnauthorized,
	} {
		resp, err := srv.app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		if err != nil {
			t.Fatalf("request %s: %v", path, err)
		}
		if resp.StatusCode != want {
			t.Fatalf("%s: expected %d, got %d", path, want, resp.StatusCode)
		}
		if resp.Header.Get(fiber.HeaderXRequestID) == "" {
			t.Fatalf("%s: missing request id", path)
		}
	}
}

func TestProductionRequiresStores(t *testing.T) {
	cfg := devConfig()
	cfg.AppEnv = "production"
	if _, err := New(cfg, Stores{}, logging.Discard()); err == nil {
		t.Fatalf("expected an error without database and redis")
	}
}
