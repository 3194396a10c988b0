package scheduler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the on-demand auto-debit trigger.
type Handler struct {
	scheduler *Scheduler
}

// NewHandler builds the admin handler.
func NewHandler(s *Scheduler) *Handler {
	return &Handler{scheduler: s}
}

// Run handles POST /admin/auto-debit/run?date=YYYY-MM-DD; the date defaults to today.
func (h *Handler) Run(c *fiber.Ctx) error {
	date := h.scheduler.now()
	if raw := c.Query("date"); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		date = d
	}
	report, err := h.scheduler.RunAll(c.UserContext(), date)
	if errors.Is(err, ErrRunning) {
		return fiber.NewError(http.StatusConflict, err.Error())
	}
	if err != nil && len(report.Results) == 0 {
		return err
	}
	return c.JSON(report)
}
