package couple

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes couple endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds the couple HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type acceptRequest struct {
	Token string `json:"token"`
}

// Invite handles POST /couples/invite.
func (h *Handler) Invite(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	link, err := h.service.Invite(c.UserContext(), userID)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(link)
}

// Lookup handles GET /couples/invite?token=.
func (h *Handler) Lookup(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return fiber.NewError(http.StatusBadRequest, "token is required")
	}
	info, err := h.service.Lookup(c.UserContext(), token)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(info)
}

// Accept handles POST /couples/accept.
func (h *Handler) Accept(c *fiber.Ctx) error {
	var req acceptRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Token == "" {
		req.Token = c.Query("token")
	}
	if req.Token == "" {
		return fiber.NewError(http.StatusBadRequest, "token is required")
	}
	userID, _ := c.Locals("user_id").(string)
	couple, err := h.service.Accept(c.UserContext(), req.Token, userID)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(couple)
}

// Status handles GET /couples/status.
func (h *Handler) Status(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	st, err := h.service.Status(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(st)
}

// Partner handles GET /couples/partner.
func (h *Handler) Partner(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	p, err := h.service.Partner(c.UserContext(), userID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(p)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInviteNotFound), errors.Is(err, ErrNoCouple), errors.Is(err, ErrPartnerNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInviteExpired):
		return fiber.NewError(http.StatusGone, err.Error())
	case errors.Is(err, ErrInviteUsed), errors.Is(err, ErrAlreadyCoupled):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrSelfInvite):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return err
	}
}
