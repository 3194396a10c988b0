package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hana-ti/home-planner/internal/mydata"
)

// RegisterMyDataRoutes wires the financial profile and existing loans.
func RegisterMyDataRoutes(r fiber.Router, h *mydata.Handler) {
	group := r.Group("/mydata")
	group.Get("/profile", h.GetProfile)
	group.Put("/profile", h.PutProfile)
	group.Get("/loans", h.ListLoans)
	group.Post("/loans", h.AddLoan)
	group.Delete("/loans/:id", h.DeleteLoan)
}
