package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hana-ti/home-planner/internal/couple"
)

// RegisterCoupleRoutes wires couple invites and partner lookups.
func RegisterCoupleRoutes(r fiber.Router, h *couple.Handler) {
	group := r.Group("/couples")
	group.Post("/invite", h.Invite)
	group.Get("/invite", h.Lookup)
	group.Post("/accept", h.Accept)
	group.Get("/status", h.Status)
	group.Get("/partner", h.Partner)
}
