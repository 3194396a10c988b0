package savings

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/hana-ti/home-planner/internal/account"
	"github.com/hana-ti/home-planner/internal/ledger"
)

// Handler exposes savings HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a savings HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	ProductID        string `json:"productId"`
	StartDate        string `json:"startDate"`
	EndDate          string `json:"endDate"`
	MonthlyAmount    int64  `json:"monthlyAmount"`
	InitialDeposit   int64  `json:"initialDeposit"`
	AutoDebitAccount string `json:"autoDebitAccountNumber"`
	AutoDebitDay     int    `json:"autoDebitDay"`
}

type joinRequest struct {
	StartDate        string `json:"startDate"`
	EndDate          string `json:"endDate"`
	MonthlyAmount    int64  `json:"monthlyAmount"`
	AutoDebitAccount string `json:"autoDebitAccountNumber"`
	AutoDebitDay     int    `json:"autoDebitDay"`
}

// Products lists the savings catalogue.
func (h *Handler) Products(c *fiber.Ctx) error {
	products, err := h.service.Products(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(products)
}

// Recommend picks the product that best fits a saving goal.
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

// ValidateStep checks one signup wizard step.
func (h *Handler) ValidateStep(c *fiber.Ctx) error {
	step, err := strconv.Atoi(c.Params("step"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid step")
	}
	var form SignupForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(h.service.ValidateStep(c.UserContext(), step, form))
}

// AutoDebitDate previews the next debit date for ?day=.
func (h *Handler) AutoDebitDate(c *fiber.Ctx) error {
	day := c.QueryInt("day", 0)
	if day < 1 || day > 31 {
		return fiber.NewError(http.StatusBadRequest, "day must be within 1..31")
	}
	next := AutoDebitDate(h.service.now(), day)
	return c.JSON(fiber.Map{"day": day, "nextDebitDate": next.Format(time.DateOnly)})
}

// Create signs the caller up for a savings product.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	start, end, err := parseTerm(req.StartDate, req.EndDate)
	if err != nil {
		return err
	}
	userID, _ := c.Locals("user_id").(string)
	res, err := h.service.Create(c.UserContext(), CreateInput{
		UserID:           userID,
		ProductID:        req.ProductID,
		StartDate:        start,
		EndDate:          end,
		MonthlyAmount:    req.MonthlyAmount,
		InitialDeposit:   req.InitialDeposit,
		AutoDebitAccount: req.AutoDebitAccount,
		AutoDebitDay:     req.AutoDebitDay,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(res)
}

// Join subscribes a joint holder to an existing joint savings account.
func (h *Handler) Join(c *fiber.Ctx) error {
	var req joinRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	start, end, err := parseTerm(req.StartDate, req.EndDate)
	if err != nil {
		return err
	}
	userID, _ := c.Locals("user_id").(string)
	res, err := h.service.Join(c.UserContext(), JoinInput{
		UserID:           userID,
		AccountID:        c.Params("accountId"),
		StartDate:        start,
		EndDate:          end,
		MonthlyAmount:    req.MonthlyAmount,
		AutoDebitAccount: req.AutoDebitAccount,
		AutoDebitDay:     req.AutoDebitDay,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(res)
}

// Mine lists the caller's savings subscriptions.
func (h *Handler) Mine(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	list, err := h.service.UserSavings(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// Schedule returns the caller's payment schedule filtered by ?status=.
func (h *Handler) Schedule(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	view, err := h.service.Schedule(c.UserContext(), userID, c.Params("accountId"), c.Query("status", FilterAll))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(view)
}

func parseTerm(start, end string) (time.Time, time.Time, error) {
	var s, e time.Time
	var err error
	if start != "" {
		if s, err = time.Parse(time.DateOnly, start); err != nil {
			return s, e, fiber.NewError(http.StatusBadRequest, "startDate must be YYYY-MM-DD")
		}
	}
	if end != "" {
		if e, err = time.Parse(time.DateOnly, end); err != nil {
			return s, e, fiber.NewError(http.StatusBadRequest, "endDate must be YYYY-MM-DD")
		}
	}
	if !s.IsZero() && !e.IsZero() && e.Before(s) {
		return s, e, fiber.NewError(http.StatusBadRequest, "endDate must not precede startDate")
	}
	return s, e, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrProductNotFound), errors.Is(err, account.ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotParticipant), errors.Is(err, ErrForeignAutoDebit), errors.Is(err, account.ErrNotOwner):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrAlreadyJoined), errors.Is(err, ErrInsufficientSource),
		errors.Is(err, ledger.ErrInsufficientFunds), errors.Is(err, ErrProductInactive):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNotSavingsAccount), errors.Is(err, ErrNotJointAccount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return err
	}
}
