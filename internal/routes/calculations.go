package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hana-ti/home-planner/internal/calculation"
)

// RegisterCalculationRoutes wires the LTV/DSR/DTI calculators. Single-borrower
// variants accept anonymous callers; couple variants need a session.
func RegisterCalculationRoutes(r fiber.Router, h *calculation.Handler, optional, jwt fiber.Handler) {
	group := r.Group("/calculations")
	group.Get("/policy", h.Policy)
	group.Post("/ltv", optional, h.LTV)
	group.Post("/dsr", optional, h.DSR)
	group.Post("/dti", optional, h.DTI)
	group.Post("/summary", optional, h.Summary)
	group.Post("/plans", optional, h.Plans)
	group.Post("/couple/ltv", jwt, h.CoupleLTV)
	group.Post("/couple/dsr", jwt, h.CoupleDSR)
	group.Post("/couple/dti", jwt, h.CoupleDTI)
}
