package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hana-ti/home-planner/internal/identity"
)

// RegisterIdentityRoutes wires signup and the profile endpoint.
func RegisterIdentityRoutes(r fiber.Router, jwt fiber.Handler, h *identity.Handler) {
	r.Post("/users/register", h.Register)
	r.Get("/me", jwt, h.Me)
}
