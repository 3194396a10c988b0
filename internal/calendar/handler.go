package calendar

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/hana-ti/home-planner/internal/account"
)

// Handler exposes calendar HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a calendar HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type eventRequest struct {
	EventDate       string `json:"eventDate"`
	TransactionType string `json:"transactionType"`
	EventType       string `json:"eventType"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Amount          int64  `json:"amount"`
}

type updateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Amount      *int64  `json:"amount"`
	Status      *string `json:"status"`
}

type recurringRequest struct {
	eventRequest
	Recurrence string `json:"recurrence"`
	DayOfWeek  int    `json:"dayOfWeek"`
	DayOfMonth int    `json:"dayOfMonth"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
}

type scheduleRequest struct {
	AccountNumber string `json:"accountNumber"`
}

type registered struct {
	Count  int     `json:"count"`
	Events []Event `json:"events"`
}

// Create adds one event.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	date, err := parseDate("eventDate", req.EventDate)
	if err != nil {
		return err
	}
	userID, _ := c.Locals("user_id").(string)
	e, err := h.service.Create(c.UserContext(), req.input(userID, date))
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(e)
}

// CreateRecurring adds a weekly or monthly series.
func (h *Handler) CreateRecurring(c *fiber.Ctx) error {
	var req recurringRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	start, err := parseDate("startDate", req.StartDate)
	if err != nil {
		return err
	}
	end, err := parseDate("endDate", req.EndDate)
	if err != nil {
		return err
	}
	userID, _ := c.Locals("user_id").(string)
	events, err := h.service.CreateRecurring(c.UserContext(), RecurringInput{
		CreateInput: req.input(userID, start),
		Recurrence: Recurrence{
			Kind:       req.Recurrence,
			DayOfWeek:  req.DayOfWeek,
			DayOfMonth: req.DayOfMonth,
			Start:      start,
			End:        end,
		},
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(registered{Count: len(events), Events: events})
}

// List returns the caller's events, narrowed by ?date=, ?from=&to= or ?year=&month=.
func (h *Handler) List(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	ctx := c.UserContext()
	var (
		events []Event
		err    error
	)
	switch {
	case c.Query("date") != "":
		date, perr := parseDate("date", c.Query("date"))
		if perr != nil {
			return perr
		}
		events, err = h.service.ByDate(ctx, userID, date)
	case c.Query("from") != "" || c.Query("to") != "":
		from, perr := parseDate("from", c.Query("from"))
		if perr != nil {
			return perr
		}
		to, perr := parseDate("to", c.Query("to"))
		if perr != nil {
			return perr
		}
		events, err = h.service.ByRange(ctx, userID, from, to)
	case c.Query("year") != "" || c.Query("month") != "":
		events, err = h.service.ByMonth(ctx, userID, c.QueryInt("year"), time.Month(c.QueryInt("month")))
	default:
		events, err = h.service.List(ctx, userID)
	}
	if err != nil {
		return mapError(err)
	}
	return c.JSON(events)
}

// Today lists today's scheduled events.
func (h *Handler) Today(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	events, err := h.service.TodayScheduled(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(events)
}

// Get returns one event.
func (h *Handler) Get(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	e, err := h.service.Get(c.UserContext(), c.Params("eventId"), userID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(e)
}

// Update edits one event.
func (h *Handler) Update(c *fiber.Ctx) error {
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	userID, _ := c.Locals("user_id").(string)
	e, err := h.service.Update(c.UserContext(), c.Params("eventId"), userID, UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
		Status:      req.Status,
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(e)
}

// Delete removes one event.
func (h *Handler) Delete(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if err := h.service.Delete(c.UserContext(), c.Params("eventId"), userID); err != nil {
		return mapError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// DeleteByTitle removes every event named by ?title=.
func (h *Handler) DeleteByTitle(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	n, err := h.service.DeleteByTitle(c.UserContext(), userID, c.Query("title"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"deleted": n})
}

// RegisterSavings copies a savings schedule into the calendar.
func (h *Handler) RegisterSavings(c *fiber.Ctx) error {
	var req scheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	userID, _ := c.Locals("user_id").(string)
	events, err := h.service.RegisterSavingsSchedule(c.UserContext(), userID, req.AccountNumber)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(registered{Count: len(events), Events: events})
}

// RegisterLoan copies a loan repayment schedule into the calendar.
func (h *Handler) RegisterLoan(c *fiber.Ctx) error {
	var req scheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	userID, _ := c.Locals("user_id").(string)
	events, err := h.service.RegisterLoanSchedule(c.UserContext(), userID, req.AccountNumber)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(registered{Count: len(events), Events: events})
}

// Summary returns the monthly consumption analysis.
func (h *Handler) Summary(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	sum, err := h.service.Summary(c.UserContext(), userID, c.QueryInt("year"), time.Month(c.QueryInt("month")))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(sum)
}

func (r eventRequest) input(userID string, date time.Time) CreateInput {
	return CreateInput{
		UserID:          userID,
		EventDate:       date,
		TransactionType: r.TransactionType,
		EventType:       r.EventType,
		Title:           r.Title,
		Description:     r.Description,
		Amount:          r.Amount,
	}
}

func parseDate(field, value string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fiber.NewError(http.StatusBadRequest, field+" must be YYYY-MM-DD")
	}
	return d, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrEventNotFound), errors.Is(err, account.ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden), errors.Is(err, account.ErrForbidden):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrDuplicateTitle), errors.Is(err, ErrAlreadyRegistered):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNotSavingsAccount),
		errors.Is(err, ErrNotLoanAccount), errors.Is(err, ErrNoSchedule):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return err
	}
}
