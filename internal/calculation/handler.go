package calculation

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the LTV, DSR and DTI calculators over HTTP.
type Handler struct {
	service *Service
}

// NewHandler constructs a calculation handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// LTV handles POST /calculations/ltv.
func (h *Handler) LTV(c *fiber.Ctx) error {
	var req LTVRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.LTV(c.UserContext(), req)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(res)
}

// CoupleLTV handles POST /calculations/couple/ltv.
func (h *Handler) CoupleLTV(c *fiber.Ctx) error {
	var req LTVRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	userID, _ := c.Locals("user_id").(string)
	res, err := h.service.CoupleLTV(c.UserContext(), userID, req)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(res)
}

// DSR handles POST /calculations/dsr.
func (h *Handler) DSR(c *fiber.Ctx) error {
	var req DSRRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	userID, _ := c.Locals("user_id").(string)
	res, err := h.service.DSR(c.UserContext(), userID, req)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(res)
}

// CoupleDSR handles POST /calculations/couple/dsr.
func (h *Handler) CoupleDSR(c *fiber.Ctx) error {
	var req DSRRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	userID, _ := c.Locals("user_id").(string)
	res, err := h.service.CoupleDSR(c.UserContext(), userID, req)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(res)
}

// DTI handles POST /calculations/dti.
func (h *Handler) DTI(c *fiber.Ctx) error {
	var req DTIRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	userID, _ := c.Locals("user_id").(string)
	res, err := h.service.DTI(c.UserContext(), userID, req)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(res)
}

// CoupleDTI handles POST /calculations/couple/dti.
func (h *Handler) CoupleDTI(c *fiber.Ctx) error {
	var req DTIRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	userID, _ := c.Locals("user_id").(string)
	res, err := h.service.CoupleDTI(c.UserContext(), userID, req)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(res)
}

// Summary handles POST /calculations/summary.
func (h *Handler) Summary(c *fiber.Ctx) error {
	var req SummaryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	userID, _ := c.Locals("user_id").(string)
	res, err := h.service.Summary(c.UserContext(), userID, req)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(res)
}

// Plans handles POST /calculations/plans.
func (h *Handler) Plans(c *fiber.Ctx) error {
	var req PlanRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	userID, _ := c.Locals("user_id").(string)
	res, err := h.service.Plans(c.UserContext(), userID, req)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(res)
}

// Policy handles GET /calculations/policy.
func (h *Handler) Policy(c *fiber.Ctx) error {
	return c.JSON(h.service.Policy())
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNoPartner):
		return fiber.NewError(http.StatusNotFound, err.Error())
	default:
		return err
	}
}
