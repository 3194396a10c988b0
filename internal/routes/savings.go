package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hana-ti/home-planner/internal/savings"
)

// RegisterSavingsRoutes wires the savings catalogue, signup wizard and schedules.
func RegisterSavingsRoutes(r fiber.Router, h *savings.Handler, jwt, idem fiber.Handler) {
	group := r.Group("/savings")
	group.Get("/products", h.Products)
	group.Get("/products/:productId", h.Product)
	group.Post("/recommendations", h.Recommend)
	group.Post("/signup/steps/:step", h.ValidateStep)
	group.Get("/auto-debit-date", h.AutoDebitDate)

	group.Post("/", jwt, idem, h.Create)
	group.Get("/me", jwt, h.Mine)
	group.Post("/:accountId/join", jwt, idem, h.Join)
	group.Get("/:accountId/schedule", jwt, h.Schedule)
}
