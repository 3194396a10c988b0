package identity

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// SignupHook runs after a successful registration with the invite token the
// user signed up with, if any.
type SignupHook func(ctx context.Context, userID, inviteToken string)

// Handler serves signup and the caller's own profile.
type Handler struct {
	service  *Service
	onSignup SignupHook
}

// NewHandler wires the identity endpoints; onSignup may be nil.
func NewHandler(service *Service, onSignup SignupHook) *Handler {
	return &Handler{service: service, onSignup: onSignup}
}

type signupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	InviteToken string `json:"inviteToken"`
}

func (r signupRequest) registration() Registration {
	return Registration{Email: r.Email, Password: r.Password, Name: r.Name, Phone: r.Phone}
}

// Register handles POST /users/register.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.UserContext()
	user, err := h.service.Register(ctx, req.registration())
	if err != nil {
		return mapError(err)
	}
	if req.InviteToken != "" && h.onSignup != nil {
		h.onSignup(ctx, user.ID, req.InviteToken)
	}
	return c.Status(http.StatusCreated).JSON(user)
}

// Me handles GET /me.
func (h *Handler) Me(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return fiber.NewError(http.StatusUnauthorized, "missing user")
	}
	user, err := h.service.Get(c.UserContext(), userID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(user)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrUserExists):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrUserNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidSignup):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return err
	}
}
