package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hana-ti/home-planner/internal/auth"
	"github.com/hana-ti/home-planner/internal/authevents"
)

// RegisterAuthRoutes wires authentication endpoints and the auth event stream.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter, jwt fiber.Handler, events *authevents.Handler) {
	group := r.Group("/auth")
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
	group.Post("/refresh", h.Refresh)
	group.Post("/logout", jwt, h.Logout)
	group.Get("/events", jwt, events.Stream)
}
