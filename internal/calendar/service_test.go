package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hana-ti/home-planner/internal/account"
	"github.com/hana-ti/home-planner/internal/format"
	"github.com/hana-ti/home-planner/internal/loan"
	"github.com/hana-ti/home-planner/internal/savings"
)

type stubAccounts struct {
	byNumber     map[string]account.Account
	participants map[string]bool
}

func (s stubAccounts) GetByNumber(_ context.Context, number string) (account.Account, error) {
	acc, ok := s.byNumber[number]
	if !ok {
		return account.Account{}, account.ErrAccountNotFound
	}
	return acc, nil
}

func (s stubAccounts) IsParticipant(_ context.Context, accountID, userID string) (bool, error) {
	return s.participants[accountID+"/"+userID], nil
}

type stubSavings map[string][]savings.Payment

func (s stubSavings) Payments(_ context.Context, accountID, _ string) ([]savings.Payment, error) {
	return s[accountID], nil
}

type stubLoans struct {
	contracts  []loan.Contract
	repayments map[string][]loan.Repayment
}

func (s stubLoans) Contracts(_ context.Context, userID string) ([]loan.Contract, error) {
	var out []loan.Contract
	for _, c := range s.contracts {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s stubLoans) Repayments(_ context.Context, loanID, _ string) (format.List[loan.Repayment], error) {
	return format.NewList(s.repayments[loanID], "상환 일정이 없습니다."), nil
}

var testNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) *Service {
	t.Helper()
	accounts := stubAccounts{
		byNumber: map[string]account.Account{
			"110-000-000001": {ID: "sav-1", UserID: "alice", Number: "110-000-000001", Type: account.TypeSaving},
			"110-000-000002": {ID: "dem-1", UserID: "alice", Number: "110-000-000002", Type: account.TypeDemand},
			"110-000-000003": {ID: "loan-1", UserID: "alice", Number: "110-000-000003", Type: account.TypeLoan},
		},
		participants: map[string]bool{"sav-1/alice": true, "dem-1/alice": true, "loan-1/alice": true},
	}
	payments := stubSavings{"sav-1": {
		{ID: "pay-1", AccountID: "sav-1", UserID: "alice", DueDate: day("2024-03-05"), Amount: 300_000, Status: "PAID"},
		{ID: "pay-2", AccountID: "sav-1", UserID: "alice", DueDate: day("2024-04-05"), Amount: 300_000, Status: "PENDING"},
	}}
	loans := stubLoans{
		contracts: []loan.Contract{{ID: "ct-1", UserID: "alice", AccountID: "loan-1"}},
		repayments: map[string][]loan.Repayment{"ct-1": {
			{ID: "rp-1", LoanID: "ct-1", DueDate: day("2024-04-15"), Principal: 1_000_000, Interest: 36_000, Total: 1_036_000},
			{ID: "rp-2", LoanID: "ct-1", DueDate: day("2024-05-15"), Principal: 1_000_000, Interest: 33_000, Total: 1_033_000},
		}},
	}
	svc := NewService(NewMemoryRepository(), accounts, payments, loans)
	svc.now = func() time.Time { return testNow }
	return svc
}

func food(userID, date, title string, amount int64) CreateInput {
	return CreateInput{UserID: userID, EventDate: day(date), TransactionType: Withdraw, EventType: TypeFood, Title: title, Amount: amount}
}

func TestCreateSetsStatusAndRejectsDuplicates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	future, err := svc.Create(ctx, food("alice", "2024-03-15", "저녁 약속", 50_000))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if future.Status != StatusScheduled || future.ID == "" {
		t.Fatalf("unexpected event %+v", future)
	}
	past, err := svc.Create(ctx, food("alice", "2024-03-10", "점심", 12_000))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if past.Status != StatusDone {
		t.Fatalf("an event dated today must be DONE, got %s", past.Status)
	}

	if _, err := svc.Create(ctx, food("alice", "2024-03-20", " 저녁 약속 ", 1)); !errors.Is(err, ErrDuplicateTitle) {
		t.Fatalf("expected ErrDuplicateTitle, got %v", err)
	}
	if _, err := svc.Create(ctx, food("bob", "2024-03-20", "저녁 약속", 1)); err != nil {
		t.Fatalf("titles are unique per user only: %v", err)
	}

	bad := food("alice", "2024-03-20", "x", 1)
	bad.EventType = "LOTTERY"
	if _, err := svc.Create(ctx, bad); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	bad = food("alice", "2024-03-20", "y", -1)
	if _, err := svc.Create(ctx, bad); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative amount, got %v", err)
	}
}

func TestUpdateAndDeleteAreOwnerOnly(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	e, _ := svc.Create(ctx, food("alice", "2024-03-15", "장보기", 80_000))
	if _, err := svc.Create(ctx, food("alice", "2024-03-16", "외식", 40_000)); err != nil {
		t.Fatalf("create: %v", err)
	}

	canceled := StatusCanceled
	if _, err := svc.Update(ctx, e.ID, "bob", UpdateInput{Status: &canceled}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	taken := "외식"
	if _, err := svc.Update(ctx, e.ID, "alice", UpdateInput{Title: &taken}); !errors.Is(err, ErrDuplicateTitle) {
		t.Fatalf("expected ErrDuplicateTitle, got %v", err)
	}
	amount := int64(90_000)
	updated, err := svc.Update(ctx, e.ID, "alice", UpdateInput{Status: &canceled, Amount: &amount})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != StatusCanceled || updated.Amount != 90_000 || updated.Title != "장보기" {
		t.Fatalf("unexpected update %+v", updated)
	}

	if err := svc.Delete(ctx, e.ID, "bob"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(ctx, e.ID, "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, e.ID, "alice"); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestQueriesByDateRangeAndMonth(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	for _, in := range []CreateInput{
		food("alice", "2024-02-28", "2월", 1),
		food("alice", "2024-03-01", "3월 첫날", 2),
		food("alice", "2024-03-10", "오늘", 3),
		food("alice", "2024-03-31", "3월 말일", 4),
		food("bob", "2024-03-10", "남의 일정", 5),
	} {
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("create %s: %v", in.Title, err)
		}
	}

	all, _ := svc.List(ctx, "alice")
	if len(all) != 4 || all[0].Title != "2월" || all[3].Title != "3월 말일" {
		t.Fatalf("unexpected list %+v", all)
	}
	march, err := svc.ByMonth(ctx, "alice", 2024, time.March)
	if err != nil || len(march) != 3 {
		t.Fatalf("expected 3 march events, got %d (%v)", len(march), err)
	}
	rng, err := svc.ByRange(ctx, "alice", day("2024-02-28"), day("2024-03-01"))
	if err != nil || len(rng) != 2 {
		t.Fatalf("range must include both bounds, got %d (%v)", len(rng), err)
	}
	if _, err := svc.ByRange(ctx, "alice", day("2024-03-02"), day("2024-03-01")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	today, _ := svc.ByDate(ctx, "alice", testNow)
	if len(today) != 1 || today[0].Title != "오늘" {
		t.Fatalf("unexpected events for today %+v", today)
	}
	if _, err := svc.ByMonth(ctx, "alice", 2024, 13); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for month 13, got %v", err)
	}
}

func TestTodayScheduledOnlyReturnsScheduled(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	done, _ := svc.Create(ctx, food("alice", "2024-03-10", "완료된 일정", 1))
	pending, _ := svc.Create(ctx, food("alice", "2024-03-10", "남은 일정", 1))
	scheduled := StatusScheduled
	if _, err := svc.Update(ctx, pending.ID, "alice", UpdateInput{Status: &scheduled}); err != nil {
		t.Fatalf("update: %v", err)
	}

	events, err := svc.TodayScheduled(ctx, "alice")
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if len(events) != 1 || events[0].ID != pending.ID || events[0].ID == done.ID {
		t.Fatalf("unexpected scheduled events %+v", events)
	}
}

func TestRecurringEventsAndDeleteByTitle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	in := RecurringInput{
		CreateInput: CreateInput{UserID: "alice", TransactionType: Withdraw, EventType: TypeManagementFee, Title: "관리비", Amount: 150_000},
		Recurrence:  Recurrence{Kind: Monthly, DayOfMonth: 25, Start: day("2024-02-01"), End: day("2024-04-30")},
	}
	events, err := svc.CreateRecurring(ctx, in)
	if err != nil {
		t.Fatalf("recurring: %v", err)
	}
	if len(events) != 3 || events[0].Status != StatusDone || events[1].Status != StatusScheduled {
		t.Fatalf("unexpected recurring events %+v", events)
	}
	if _, err := svc.CreateRecurring(ctx, in); !errors.Is(err, ErrDuplicateTitle) {
		t.Fatalf("expected ErrDuplicateTitle, got %v", err)
	}

	n, err := svc.DeleteByTitle(ctx, "alice", "관리비")
	if err != nil || n != 3 {
		t.Fatalf("expected 3 deleted, got %d (%v)", n, err)
	}
	if n, _ := svc.DeleteByTitle(ctx, "alice", "관리비"); n != 0 {
		t.Fatalf("expected nothing left, got %d", n)
	}
}

func TestRegisterSavingsSchedule(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	events, err := svc.RegisterSavingsSchedule(ctx, "alice", "110-000-000001")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	e := events[1]
	if e.Title != "적금 자동이체" || e.EventType != TypeSavings || e.TransactionType != Withdraw ||
		e.RelatedID != "pay-2" || e.Amount != 300_000 || e.Status != StatusScheduled {
		t.Fatalf("unexpected savings event %+v", e)
	}
	if events[0].Status != StatusDone {
		t.Fatalf("past payment must be DONE, got %s", events[0].Status)
	}

	if _, err := svc.RegisterSavingsSchedule(ctx, "alice", "110-000-000001"); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
	if _, err := svc.RegisterSavingsSchedule(ctx, "alice", "110-000-000002"); !errors.Is(err, ErrNotSavingsAccount) {
		t.Fatalf("expected ErrNotSavingsAccount, got %v", err)
	}
	if _, err := svc.RegisterSavingsSchedule(ctx, "bob", "110-000-000001"); !errors.Is(err, account.ErrForbidden) {
		t.Fatalf("expected account.ErrForbidden, got %v", err)
	}
	if _, err := svc.RegisterSavingsSchedule(ctx, "alice", "999"); !errors.Is(err, account.ErrAccountNotFound) {
		t.Fatalf("expected account.ErrAccountNotFound, got %v", err)
	}
}

func TestRegisterLoanSchedule(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	events, err := svc.RegisterLoanSchedule(ctx, "alice", "110-000-000003")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(events) != 2 || events[0].Title != "대출 상환금 납입" || events[0].EventType != TypeLoan ||
		events[0].Amount != 1_036_000 || events[0].RelatedID != "rp-1" {
		t.Fatalf("unexpected loan events %+v", events)
	}
	if events[0].Description != "원금 1,000,000원, 이자 36,000원" {
		t.Fatalf("unexpected description %q", events[0].Description)
	}
	if _, err := svc.RegisterLoanSchedule(ctx, "alice", "110-000-000003"); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
	if _, err := svc.RegisterLoanSchedule(ctx, "alice", "110-000-000001"); !errors.Is(err, ErrNotLoanAccount) {
		t.Fatalf("expected ErrNotLoanAccount, got %v", err)
	}
}

func TestServiceSummaryComparesPreviousMonth(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	for _, in := range []CreateInput{
		food("alice", "2024-02-10", "2월 식비", 100_000),
		food("alice", "2024-03-03", "3월 식비", 200_000),
	} {
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	sum, err := svc.Summary(ctx, "alice", 2024, time.March)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Year != 2024 || sum.Month != 3 || sum.Basic.TotalExpense != 200_000 || sum.Basic.Trend != TrendUp {
		t.Fatalf("unexpected summary %+v", sum.Basic)
	}
	assertDecimal(t, "change rate", sum.Basic.ExpenseChangeRate, "100")

	jan, err := svc.Summary(ctx, "alice", 2024, time.January)
	if err != nil {
		t.Fatalf("january summary: %v", err)
	}
	if jan.Basic.TotalCount != 0 || jan.Categories.MostExpensive != "없음" {
		t.Fatalf("unexpected empty summary %+v", jan)
	}
}
