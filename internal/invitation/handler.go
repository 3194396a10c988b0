package invitation

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/hana-ti/home-planner/internal/account"
)

// Handler exposes joint account invitation endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds the invitation HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	AccountNumber string `json:"accountNumber"`
}

type acceptRequest struct {
	InviteID string `json:"inviteId"`
}

// Create handles POST /invitations.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.AccountNumber == "" {
		return fiber.NewError(http.StatusBadRequest, "accountNumber is required")
	}
	userID, _ := c.Locals("user_id").(string)
	inv, err := h.service.Create(c.UserContext(), userID, req.AccountNumber)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(inv)
}

// Info handles GET /invitations/:inviteId.
func (h *Handler) Info(c *fiber.Ctx) error {
	info, err := h.service.Info(c.UserContext(), c.Params("inviteId"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(info)
}

// Accept handles POST /invitations/:inviteId/accept. The id may also come in the body.
func (h *Handler) Accept(c *fiber.Ctx) error {
	id := c.Params("inviteId")
	if id == "" {
		var req acceptRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		id = req.InviteID
	}
	userID, _ := c.Locals("user_id").(string)
	inv, err := h.service.Accept(c.UserContext(), id, userID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(inv)
}

// Reject handles POST /invitations/:inviteId/reject.
func (h *Handler) Reject(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	inv, err := h.service.Reject(c.UserContext(), c.Params("inviteId"), userID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(inv)
}

// Expire handles POST /invitations/:inviteId/expire.
func (h *Handler) Expire(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	inv, err := h.service.Expire(c.UserContext(), c.Params("inviteId"), userID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(inv)
}

// Pending handles GET /invitations/pending.
func (h *Handler) Pending(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	list, err := h.service.Pending(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// ByAccount handles GET /invitations/accounts/:accountId.
func (h *Handler) ByAccount(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	list, err := h.service.ByAccount(c.UserContext(), c.Params("accountId"), userID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(list)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvitationNotFound), errors.Is(err, account.ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotOwner), errors.Is(err, ErrNotInviter), errors.Is(err, account.ErrForbidden):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrAlreadyAnswered), errors.Is(err, ErrAlreadyParticipant):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotJointAccount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return err
	}
}
