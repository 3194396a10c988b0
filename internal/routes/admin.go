package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hana-ti/home-planner/internal/scheduler"
)

// RegisterAdminRoutes wires operator endpoints behind the admin check.
func RegisterAdminRoutes(r fiber.Router, h *scheduler.Handler, admin fiber.Handler) {
	r.Post("/admin/auto-debit/run", admin, h.Run)
}
