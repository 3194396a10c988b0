package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hana-ti/home-planner/internal/loan"
)

// RegisterLoanRoutes wires loan products, applications, co-borrower
// invitations, review and repayment schedules.
func RegisterLoanRoutes(r fiber.Router, h *loan.Handler, jwt, idem, admin fiber.Handler) {
	group := r.Group("/loans")
	group.Get("/products", h.Products)
	group.Get("/products/:productId", h.Product)
	group.Post("/recommendations", h.Recommend)

	group.Use(jwt)
	group.Post("/applications", h.Apply)
	group.Get("/applications", h.Applications)
	group.Get("/applications/:applicationId", h.Application)
	group.Post("/applications/:applicationId/invitations", h.Invite)
	group.Get("/applications/:applicationId/invitations", h.ApplicationInvitations)
	group.Post("/applications/:applicationId/approve", admin, idem, h.Approve)
	group.Post("/applications/:applicationId/reject", admin, h.Reject)

	group.Get("/invitations/sent", h.SentInvitations)
	group.Get("/invitations/:inviteId", h.Invitation)
	group.Post("/invitations/:inviteId/accept", h.AcceptInvitation)
	group.Post("/invitations/:inviteId/reject", h.RejectInvitation)

	group.Get("/contracts", h.Contracts)
	group.Get("/contracts/:loanId/repayments", h.Repayments)
}
