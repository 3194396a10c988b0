package loan

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/hana-ti/home-planner/internal/account"
)

// Handler exposes loan HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a loan HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type applyRequest struct {
	ProductID         string `json:"productId"`
	RequestAmount     int64  `json:"requestAmount"`
	TermMonths        int    `json:"termMonths"`
	RepayType         string `json:"repayType"`
	DisburseAccountID string `json:"disburseAccountId"`
	DisburseDate      string `json:"disburseDate"`
	Joint             bool   `json:"joint"`
}

type inviteRequest struct {
	JointName  string `json:"jointName"`
	JointPhone string `json:"jointPhone"`
}

type reviewRequest struct {
	LoanAmount int64           `json:"loanAmount"`
	FinalRate  decimal.Decimal `json:"finalRate"`
	TermMonths int             `json:"termMonths"`
	Remarks    string          `json:"remarks"`
}

// Products lists the loan catalogue.
func (h *Handler) Products(c *fiber.Ctx) error {
	products, err := h.service.Products(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(products)
}

// Recommend lists the products a household qualifies for.
func (h *Handler) Recommend(c *fiber.Ctx) error {
	var req RecommendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.service.Recommend(c.UserContext(), req)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(rec)
}

// Product returns one catalogue entry.
func (h *Handler) Product(c *fiber.Ctx) error {
	p, err := h.service.Product(c.UserContext(), c.Params("productId"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(p)
}

// Apply submits a loan application.
func (h *Handler) Apply(c *fiber.Ctx) error {
	var req applyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	var disburseDate time.Time
	if req.DisburseDate != "" {
		d, err := time.Parse(time.DateOnly, req.DisburseDate)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "disburseDate must be YYYY-MM-DD")
		}
		disburseDate = d
	}
	userID, _ := c.Locals("user_id").(string)
	app, err := h.service.Apply(c.UserContext(), ApplyInput{
		UserID:            userID,
		ProductID:         req.ProductID,
		RequestAmount:     req.RequestAmount,
		TermMonths:        req.TermMonths,
		RepayType:         req.RepayType,
		DisburseAccountID: req.DisburseAccountID,
		DisburseDate:      disburseDate,
		Joint:             req.Joint,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(app)
}

// Applications lists the caller's applications.
func (h *Handler) Applications(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	list, err := h.service.Applications(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// Application returns one of the caller's applications.
func (h *Handler) Application(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	app, err := h.service.Application(c.UserContext(), c.Params("applicationId"), userID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(app)
}

// Invite creates a co-borrower invitation.
func (h *Handler) Invite(c *fiber.Ctx) error {
	var req inviteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	userID, _ := c.Locals("user_id").(string)
	inv, err := h.service.Invite(c.UserContext(), InviteInput{
		ApplicationID: c.Params("applicationId"),
		InviterID:     userID,
		JointName:     req.JointName,
		JointPhone:    req.JointPhone,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(inv)
}

// ApplicationInvitations lists the invitations of an application.
func (h *Handler) ApplicationInvitations(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	app, err := h.service.Application(c.UserContext(), c.Params("applicationId"), userID)
	if err != nil {
		return mapError(err)
	}
	invites, err := h.service.Invitations(c.UserContext(), InvitationFilter{ApplicationID: app.ID})
	if err != nil {
		return err
	}
	return c.JSON(invites)
}

// SentInvitations lists invitations the caller has sent.
func (h *Handler) SentInvitations(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	invites, err := h.service.Invitations(c.UserContext(), InvitationFilter{InviterID: userID})
	if err != nil {
		return err
	}
	return c.JSON(invites)
}

// Invitation returns one invitation, e.g. for the accept page.
func (h *Handler) Invitation(c *fiber.Ctx) error {
	inv, err := h.service.Invitation(c.UserContext(), c.Params("inviteId"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(inv)
}

// AcceptInvitation joins the caller as co-borrower.
func (h *Handler) AcceptInvitation(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	inv, err := h.service.AcceptInvitation(c.UserContext(), c.Params("inviteId"), userID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(inv)
}

// RejectInvitation declines an invitation.
func (h *Handler) RejectInvitation(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	inv, err := h.service.RejectInvitation(c.UserContext(), c.Params("inviteId"), userID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(inv)
}

// Approve approves and disburses an application.
func (h *Handler) Approve(c *fiber.Ctx) error {
	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	reviewerID, _ := c.Locals("user_id").(string)
	res, err := h.service.Approve(c.UserContext(), ApproveInput{
		ApplicationID: c.Params("applicationId"),
		ReviewerID:    reviewerID,
		Amount:        req.LoanAmount,
		Rate:          req.FinalRate,
		TermMonths:    req.TermMonths,
		Remarks:       req.Remarks,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(res)
}

// Reject declines an application.
func (h *Handler) Reject(c *fiber.Ctx) error {
	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	reviewerID, _ := c.Locals("user_id").(string)
	app, err := h.service.Reject(c.UserContext(), c.Params("applicationId"), reviewerID, req.Remarks)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(app)
}

// Contracts lists the caller's loans.
func (h *Handler) Contracts(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	contracts, err := h.service.Contracts(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(contracts)
}

// Repayments returns a loan's repayment schedule.
func (h *Handler) Repayments(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	list, err := h.service.Repayments(c.UserContext(), c.Params("loanId"), userID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(list)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrApplicationNotFound),
		errors.Is(err, ErrInvitationNotFound), errors.Is(err, ErrContractNotFound),
		errors.Is(err, account.ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotApplicant), errors.Is(err, ErrForbidden), errors.Is(err, ErrSelfReview),
		errors.Is(err, account.ErrForbidden):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrDuplicateInvitation):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNotJoint), errors.Is(err, ErrSelfInvitation):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return err
	}
}
