package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hana-ti/home-planner/internal/invitation"
)

// RegisterInvitationRoutes wires joint savings account invitations.
func RegisterInvitationRoutes(r fiber.Router, h *invitation.Handler) {
	group := r.Group("/invitations")
	group.Post("/", h.Create)
	group.Get("/pending", h.Pending)
	group.Get("/accounts/:accountId", h.ByAccount)
	group.Post("/accept", h.Accept)
	group.Get("/:inviteId", h.Info)
	group.Post("/:inviteId/accept", h.Accept)
	group.Post("/:inviteId/reject", h.Reject)
	group.Post("/:inviteId/expire", h.Expire)
}
