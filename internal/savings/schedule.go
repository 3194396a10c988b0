package savings

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hana-ti/home-planner/internal/format"
)

const (
	maxScheduleRows      = 120
	defaultTermMonths    = 12
	emptyScheduleMessage = "납입 스케줄이 없습니다."
)

// Schedule filters.
const (
	FilterAll     = "ALL"
	FilterPaid    = "PAID"
	FilterPending = "PENDING"
)

// ScheduleInput describes a payment plan to expand.
type ScheduleInput struct {
	UserID       string
	AccountID    string
	Start        time.Time
	End          time.Time
	AutoDebitDay int
	Amount       int64
}

// BuildSchedule expands a plan into PENDING payments. The first payment is
// due on the start date; later ones fall monthly on the auto-debit day (or the
// start day), clamped to each month's length, until the end date.
func BuildSchedule(in ScheduleInput) []Payment {
	start := dateOnly(in.Start)
	end := dateOnly(in.End)
	if in.End.IsZero() {
		end = start.AddDate(0, defaultTermMonths, 0)
	}
	day := in.AutoDebitDay
	if day <= 0 {
		day = start.Day()
	}

	out := []Payment{newPayment(in, start)}
	for i := 1; len(out) < maxScheduleRows; i++ {
		first := time.Date(start.Year(), start.Month()+time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		due := time.Date(first.Year(), first.Month(), clampDay(first.Year(), first.Month(), day), 0, 0, 0, 0, time.UTC)
		if due.After(end) {
			break
		}
		out = append(out, newPayment(in, due))
	}
	return out
}

func newPayment(in ScheduleInput, due time.Time) Payment {
	return Payment{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		AccountID: in.AccountID,
		DueDate:   due,
		Amount:    in.Amount,
		Status:    PaymentPending,
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ScheduleSummary aggregates a payment schedule.
type ScheduleSummary struct {
	Total      int    `json:"totalCount"`
	Paid       int    `json:"paidCount"`
	Pending    int    `json:"pendingCount"`
	Overdue    int    `json:"overdueCount"`
	PaidAmount int64  `json:"paidAmount"`
	Formatted  string `json:"paidAmountFormatted"`
}

// ScheduleView is a filtered schedule with its summary.
type ScheduleView struct {
	Filter   string               `json:"filter"`
	Payments format.List[Payment] `json:"payments"`
	Summary  ScheduleSummary      `json:"summary"`
}

// FilterSchedule returns the rows matching filter. Unknown filters behave as ALL.
func FilterSchedule(payments []Payment, filter string) []Payment {
	filter = normalizeFilter(filter)
	if filter == FilterAll {
		return append([]Payment(nil), payments...)
	}
	var out []Payment
	for _, p := range payments {
		if p.Status == filter {
			out = append(out, p)
		}
	}
	return out
}

func normalizeFilter(filter string) string {
	filter = strings.ToUpper(strings.TrimSpace(filter))
	switch filter {
	case FilterPaid, FilterPending, PaymentOverdue:
		return filter
	default:
		return FilterAll
	}
}

// Summarize counts payments by status over the unfiltered schedule.
func Summarize(payments []Payment) ScheduleSummary {
	var s ScheduleSummary
	for _, p := range payments {
		s.Total++
		switch p.Status {
		case PaymentPaid:
			s.Paid++
			s.PaidAmount += p.Amount
		case PaymentPending:
			s.Pending++
		case PaymentOverdue:
			s.Overdue++
		}
	}
	s.Formatted = format.KRW(s.PaidAmount)
	return s
}

// NewScheduleView filters payments and attaches the summary.
func NewScheduleView(payments []Payment, filter string) ScheduleView {
	filter = normalizeFilter(filter)
	return ScheduleView{
		Filter:   filter,
		Payments: format.NewList(FilterSchedule(payments, filter), emptyScheduleMessage),
		Summary:  Summarize(payments),
	}
}
