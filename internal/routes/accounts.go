package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hana-ti/home-planner/internal/account"
)

// RegisterAccountRoutes wires account dashboards and money movement.
func RegisterAccountRoutes(r fiber.Router, h *account.Handler, idem fiber.Handler) {
	r.Post("/accounts", h.Open)
	r.Get("/accounts", h.List)
	r.Get("/accounts/:accountId", h.Get)
	r.Get("/accounts/:accountId/balance", h.Balance)
	r.Get("/accounts/:accountId/transactions", h.Transactions)
	r.Get("/accounts/:accountId/participants", h.Participants)
	r.Post("/accounts/:accountId/deposit", idem, h.Deposit)
	r.Post("/accounts/:accountId/withdraw", idem, h.Withdraw)
	r.Post("/transfers", idem, h.Transfer)
}
