package loan

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hana-ti/home-planner/internal/calculation"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// BuildRepayments expands a contract into its monthly repayment schedule.
// The first repayment is due on the start date; the last one settles the
// remaining principal.
func BuildRepayments(c Contract, months int) []Repayment {
	if months <= 0 {
		return nil
	}
	principal := decimal.NewFromInt(c.Amount)
	rate := c.Rate.DivRound(hundred, 10).DivRound(twelve, 10)
	level := calculation.EqualPaymentMonths(principal, c.Rate, months)
	evenPrincipal := principal.Div(decimal.NewFromInt(int64(months))).Truncate(0)

	remaining := principal
	out := make([]Repayment, 0, months)
	for i := 0; i < months; i++ {
		interest := remaining.Mul(rate).Round(0)
		var due decimal.Decimal
		switch {
		case i == months-1:
			due = remaining
		case c.RepayType == RepayBullet:
			due = decimal.Zero
		case c.RepayType == RepayEqualPrincipal:
			due = evenPrincipal
		default:
			due = decimal.Max(level.Sub(interest), decimal.Zero)
		}
		out = append(out, Repayment{
			ID:        uuid.NewString(),
			LoanID:    c.ID,
			DueDate:   addMonths(c.StartDate, i),
			Principal: due.IntPart(),
			Interest:  interest.IntPart(),
			Total:     due.Add(interest).IntPart(),
			Status:    RepaymentPending,
		})
		remaining = remaining.Sub(due)
	}
	return out
}

// addMonths keeps the start day, clamped to the month's length.
func addMonths(start time.Time, n int) time.Time {
	y, m, d := start.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// Due returns PENDING repayments due on or before date and OVERDUE ones due before it.
func Due(repayments []Repayment, date time.Time) []Repayment {
	var out []Repayment
	for _, r := range repayments {
		switch {
		case r.Status == RepaymentPending && !r.DueDate.After(date):
			out = append(out, r)
		case r.Status == RepaymentOverdue && r.DueDate.Before(date):
			out = append(out, r)
		}
	}
	return out
}
