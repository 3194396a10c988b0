package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RegisterHealthRoutes adds liveness/readiness style endpoints. Stores that
// are not configured report "disabled".
func RegisterHealthRoutes(app *fiber.App, d Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		checks := fiber.Map{"postgres": "disabled", "redis": "disabled", "mongo": "disabled"}
		healthy := true
		check := func(name string, ping func() error) {
			if err := ping(); err != nil {
				checks[name] = err.Error()
				healthy = false
				return
			}
			checks[name] = "ok"
		}
		if d.DB != nil {
			check("postgres", func() error { return d.DB.Ping(ctx) })
		}
		if d.Cache != nil {
			check("redis", func() error { return d.Cache.Ping(ctx).Err() })
		}
		if d.Mongo != nil {
			check("mongo", func() error { return d.Mongo.Client().Ping(ctx, nil) })
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"status":    checks,
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}
