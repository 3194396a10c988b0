package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hana-ti/home-planner/internal/calendar"
)

// RegisterCalendarRoutes wires calendar events, schedule registration and
// the monthly consumption summary.
func RegisterCalendarRoutes(r fiber.Router, h *calendar.Handler) {
	group := r.Group("/calendar")
	group.Post("/events", h.Create)
	group.Post("/events/recurring", h.CreateRecurring)
	group.Get("/events", h.List)
	group.Get("/events/today", h.Today)
	group.Delete("/events", h.DeleteByTitle)
	group.Get("/events/:eventId", h.Get)
	group.Put("/events/:eventId", h.Update)
	group.Delete("/events/:eventId", h.Delete)
	group.Post("/savings-schedule", h.RegisterSavings)
	group.Post("/loan-schedule", h.RegisterLoan)
	group.Get("/summary", h.Summary)
}
