package loan

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func contract(repayType string, amount int64, start time.Time) Contract {
	return Contract{
		ID:        "loan-1",
		Amount:    amount,
		Rate:      decimal.RequireFromString("3.6"),
		StartDate: start,
		RepayType: repayType,
	}
}

func sumPrincipal(rs []Repayment) int64 {
	var total int64
	for _, r := range rs {
		total += r.Principal
	}
	return total
}

func TestEqualInstallmentSchedule(t *testing.T) {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	rs := BuildRepayments(contract(RepayEqualInstallment, 12_000_000, start), 12)
	if len(rs) != 12 {
		t.Fatalf("expected 12 repayments, got %d", len(rs))
	}
	if got := sumPrincipal(rs); got != 12_000_000 {
		t.Fatalf("principal must sum to the loan amount, got %d", got)
	}
	if rs[0].Interest != 36_000 {
		t.Fatalf("expected first interest 36000, got %d", rs[0].Interest)
	}
	if rs[0].Total != rs[5].Total {
		t.Fatalf("level payments differ: %d vs %d", rs[0].Total, rs[5].Total)
	}
	if rs[1].Principal <= rs[0].Principal {
		t.Fatalf("principal share must grow, got %d then %d", rs[0].Principal, rs[1].Principal)
	}
	for _, r := range rs {
		if r.Status != RepaymentPending || r.LoanID != "loan-1" || r.Total != r.Principal+r.Interest {
			t.Fatalf("unexpected repayment %+v", r)
		}
	}
}

func TestEqualPrincipalSchedule(t *testing.T) {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	rs := BuildRepayments(contract(RepayEqualPrincipal, 1_000_000, start), 3)
	if rs[0].Principal != 333_333 || rs[1].Principal != 333_333 || rs[2].Principal != 333_334 {
		t.Fatalf("unexpected principal split %d %d %d", rs[0].Principal, rs[1].Principal, rs[2].Principal)
	}
	if rs[0].Interest != 3_000 || rs[2].Interest >= rs[1].Interest {
		t.Fatalf("interest must fall with the balance, got %d %d %d", rs[0].Interest, rs[1].Interest, rs[2].Interest)
	}
}

func TestBulletSchedule(t *testing.T) {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	rs := BuildRepayments(contract(RepayBullet, 10_000_000, start), 4)
	for _, r := range rs[:3] {
		if r.Principal != 0 || r.Interest != 30_000 {
			t.Fatalf("expected interest-only month, got %+v", r)
		}
	}
	if rs[3].Principal != 10_000_000 || rs[3].Total != 10_030_000 {
		t.Fatalf("unexpected final repayment %+v", rs[3])
	}
}

func TestScheduleClampsDueDates(t *testing.T) {
	start := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	rs := BuildRepayments(contract(RepayEqualPrincipal, 400_000, start), 4)
	want := []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30"}
	for i, r := range rs {
		if got := r.DueDate.Format(time.DateOnly); got != want[i] {
			t.Fatalf("repayment %d due %s, want %s", i, got, want[i])
		}
	}
	if BuildRepayments(contract(RepayBullet, 1, start), 0) != nil {
		t.Fatalf("zero term must build no schedule")
	}
}

func TestRepaymentDueSelection(t *testing.T) {
	on := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	before := on.AddDate(0, -1, 0)
	rs := []Repayment{
		{ID: "past-pending", Status: RepaymentPending, DueDate: before},
		{ID: "today-pending", Status: RepaymentPending, DueDate: on},
		{ID: "today-overdue", Status: RepaymentOverdue, DueDate: on},
		{ID: "past-overdue", Status: RepaymentOverdue, DueDate: before},
		{ID: "paid", Status: RepaymentPaid, DueDate: before},
		{ID: "future", Status: RepaymentPending, DueDate: on.AddDate(0, 1, 0)},
	}
	got := map[string]bool{}
	for _, r := range Due(rs, on) {
		got[r.ID] = true
	}
	if len(got) != 3 || !got["past-pending"] || !got["today-pending"] || !got["past-overdue"] {
		t.Fatalf("unexpected due set %v", got)
	}
}
