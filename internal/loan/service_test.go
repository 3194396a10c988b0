package loan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hana-ti/home-planner/internal/account"
	"github.com/hana-ti/home-planner/internal/ledger"
	"github.com/hana-ti/home-planner/internal/notification"
)

type fixture struct {
	svc      *Service
	repo     Repository
	accounts *account.Service
	ledger   ledger.Ledger
	notifier *notification.Recorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	l := ledger.NewInMemory()
	rec := &notification.Recorder{}
	accounts := account.NewService(account.NewMemoryRepository(), l, rec)
	repo := NewMemoryRepository(DefaultProducts()...)
	svc := NewService(repo, accounts, rec)
	svc.now = func() time.Time { return time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC) }
	return fixture{svc: svc, repo: repo, accounts: accounts, ledger: l, notifier: rec}
}

func (f fixture) demand(t *testing.T, userID string) account.Account {
	t.Helper()
	acc, err := f.accounts.Open(context.Background(), account.OpenInput{UserID: userID, Type: account.TypeDemand})
	if err != nil {
		t.Fatalf("open demand account: %v", err)
	}
	return acc
}

func (f fixture) balance(t *testing.T, accountID string) int64 {
	t.Helper()
	b, err := f.accounts.Balance(context.Background(), accountID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return b.Amount
}

func TestApplyValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	own := f.demand(t, "alice")
	other := f.demand(t, "bob")

	valid := ApplyInput{UserID: "alice", ProductID: "LN-HOME-001", RequestAmount: 100_000_000, TermMonths: 360, DisburseAccountID: own.ID}
	cases := []struct {
		name   string
		mutate func(*ApplyInput)
		want   error
	}{
		{"unknown product", func(in *ApplyInput) { in.ProductID = "LN-NONE" }, ErrProductNotFound},
		{"zero amount", func(in *ApplyInput) { in.RequestAmount = 0 }, ErrInvalidInput},
		{"over product limit", func(in *ApplyInput) { in.RequestAmount = 500_000_000 }, ErrInvalidInput},
		{"term too long", func(in *ApplyInput) { in.TermMonths = 361 }, ErrInvalidInput},
		{"unknown repay type", func(in *ApplyInput) { in.RepayType = "BALLOON" }, ErrInvalidInput},
		{"foreign disburse account", func(in *ApplyInput) { in.DisburseAccountID = other.ID }, account.ErrForbidden},
		{"missing disburse account", func(in *ApplyInput) { in.DisburseAccountID = "missing" }, account.ErrAccountNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			if _, err := f.svc.Apply(ctx, in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	app, err := f.svc.Apply(ctx, valid)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if app.Status != StatusPending || app.RepayType != RepayEqualInstallment || app.Joint {
		t.Fatalf("unexpected application %+v", app)
	}
	if got := app.DisburseDate.Format(time.DateOnly); got != "2024-01-05" {
		t.Fatalf("disburse date should default to today, got %s", got)
	}
	list, err := f.svc.Applications(ctx, "bob")
	if err != nil {
		t.Fatalf("applications: %v", err)
	}
	if len(list.Items) != 0 || list.Message != emptyApplications {
		t.Fatalf("unexpected empty state %+v", list)
	}
	if _, err := f.svc.Application(ctx, app.ID, "bob"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestApproveDisbursesAndBuildsSchedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	own := f.demand(t, "alice")
	app, err := f.svc.Apply(ctx, ApplyInput{
		UserID:            "alice",
		ProductID:         "LN-CREDIT-001",
		RequestAmount:     20_000_000,
		TermMonths:        12,
		DisburseAccountID: own.ID,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	res, err := f.svc.Approve(ctx, ApproveInput{ApplicationID: app.ID, ReviewerID: "reviewer", Amount: 15_000_000, Rate: decimal.RequireFromString("4.8")})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if res.Application.Status != StatusApproved || res.Application.ReviewedAt == nil {
		t.Fatalf("unexpected application %+v", res.Application)
	}
	if res.Account.Type != account.TypeLoan || res.Contract.AccountID != res.Account.ID {
		t.Fatalf("unexpected loan account %+v", res.Account)
	}
	if res.RepaymentCount != 12 || res.Disbursed != 15_000_000 {
		t.Fatalf("unexpected approval %+v", res)
	}
	if got := f.balance(t, own.ID); got != 15_000_000 {
		t.Fatalf("expected disbursed balance 15000000, got %d", got)
	}
	if !res.Contract.Rate.Equal(decimal.RequireFromString("4.8")) {
		t.Fatalf("reviewer rate not applied: %s", res.Contract.Rate)
	}

	schedule, err := f.svc.Repayments(ctx, res.Contract.ID, "alice")
	if err != nil {
		t.Fatalf("repayments: %v", err)
	}
	if len(schedule.Items) != 12 || schedule.Items[11].Principal != 15_000_000 {
		t.Fatalf("unexpected bullet schedule %+v", schedule.Items)
	}
	if _, err := f.svc.Repayments(ctx, res.Contract.ID, "mallory"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	if _, err := f.svc.Approve(ctx, ApproveInput{ApplicationID: app.ID}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("second approval must fail, got %v", err)
	}
	if _, err := f.svc.Reject(ctx, app.ID, "reviewer", "late"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("approved application cannot be rejected, got %v", err)
	}
}

func TestJointLoanFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	own := f.demand(t, "alice")
	app, err := f.svc.Apply(ctx, ApplyInput{
		UserID:            "alice",
		ProductID:         "LN-JOINT-001",
		RequestAmount:     120_000_000,
		TermMonths:        24,
		DisburseAccountID: own.ID,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !app.Joint || app.Status != StatusWaitingForJoint || app.RepayType != RepayEqualPrincipal {
		t.Fatalf("unexpected joint application %+v", app)
	}
	if _, err := f.svc.Approve(ctx, ApproveInput{ApplicationID: app.ID}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("approval before acceptance must fail, got %v", err)
	}
	if _, err := f.svc.Invite(ctx, InviteInput{ApplicationID: app.ID, InviterID: "bob"}); !errors.Is(err, ErrNotApplicant) {
		t.Fatalf("expected ErrNotApplicant, got %v", err)
	}

	inv, err := f.svc.Invite(ctx, InviteInput{ApplicationID: app.ID, InviterID: "alice", JointName: " 김하나 ", JointPhone: "010-1234-5678"})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if inv.Status != InvitePending || inv.JointName != "김하나" {
		t.Fatalf("unexpected invitation %+v", inv)
	}
	if _, err := f.svc.Invite(ctx, InviteInput{ApplicationID: app.ID, InviterID: "alice"}); !errors.Is(err, ErrDuplicateInvitation) {
		t.Fatalf("expected ErrDuplicateInvitation, got %v", err)
	}
	if _, err := f.svc.AcceptInvitation(ctx, inv.ID, "alice"); !errors.Is(err, ErrSelfInvitation) {
		t.Fatalf("expected ErrSelfInvitation, got %v", err)
	}

	accepted, err := f.svc.AcceptInvitation(ctx, inv.ID, "bob")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != InviteAccepted || accepted.InviteeID != "bob" || accepted.RespondedAt == nil {
		t.Fatalf("unexpected accepted invitation %+v", accepted)
	}
	if _, err := f.svc.RejectInvitation(ctx, inv.ID, "bob"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("answered invitation cannot be rejected, got %v", err)
	}
	if f.notifier.Kinds()[notification.KindJointAccepted] != 1 {
		t.Fatalf("inviter should be notified, got %v", f.notifier.Kinds())
	}
	if _, err := f.svc.Approve(ctx, ApproveInput{ApplicationID: app.ID, ReviewerID: "bob"}); !errors.Is(err, ErrSelfReview) {
		t.Fatalf("co-borrower must not approve, got %v", err)
	}

	res, err := f.svc.Approve(ctx, ApproveInput{ApplicationID: app.ID, ReviewerID: "reviewer"})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if res.Account.Type != account.TypeJointLoan || !res.Contract.Rate.Equal(decimal.RequireFromString("3.2")) {
		t.Fatalf("unexpected joint contract %+v", res.Contract)
	}
	ok, err := f.accounts.IsParticipant(ctx, res.Account.ID, "bob")
	if err != nil || !ok {
		t.Fatalf("co-borrower should participate in the loan account: %v", err)
	}
	if _, err := f.svc.Repayments(ctx, res.Contract.ID, "bob"); err != nil {
		t.Fatalf("co-borrower repayments: %v", err)
	}
}

func TestInviteRequiresJointApplication(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	own := f.demand(t, "alice")
	app, err := f.svc.Apply(ctx, ApplyInput{UserID: "alice", ProductID: "LN-HOME-001", RequestAmount: 1_000_000, TermMonths: 12, DisburseAccountID: own.ID})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := f.svc.Invite(ctx, InviteInput{ApplicationID: app.ID, InviterID: "alice"}); !errors.Is(err, ErrNotJoint) {
		t.Fatalf("expected ErrNotJoint, got %v", err)
	}
	rejected, err := f.svc.Reject(ctx, app.ID, "reviewer", "소득 증빙 부족")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != StatusRejected || rejected.Remarks != "소득 증빙 부족" {
		t.Fatalf("unexpected rejected application %+v", rejected)
	}
}

func TestBorrowerCannotReviewOwnApplication(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	own := f.demand(t, "alice")
	app, err := f.svc.Apply(ctx, ApplyInput{UserID: "alice", ProductID: "LN-HOME-001", RequestAmount: 5_000_000, TermMonths: 12, DisburseAccountID: own.ID})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if _, err := f.svc.Approve(ctx, ApproveInput{ApplicationID: app.ID, ReviewerID: "alice"}); !errors.Is(err, ErrSelfReview) {
		t.Fatalf("expected ErrSelfReview on approve, got %v", err)
	}
	if _, err := f.svc.Approve(ctx, ApproveInput{ApplicationID: app.ID}); !errors.Is(err, ErrSelfReview) {
		t.Fatalf("expected ErrSelfReview without a reviewer, got %v", err)
	}
	if _, err := f.svc.Reject(ctx, app.ID, "alice", "withdrawn"); !errors.Is(err, ErrSelfReview) {
		t.Fatalf("expected ErrSelfReview on reject, got %v", err)
	}
	if got := f.balance(t, own.ID); got != 0 {
		t.Fatalf("nothing may be disbursed, balance %d", got)
	}
	accounts, _ := f.accounts.ListByUser(ctx, "alice")
	if len(accounts) != 1 {
		t.Fatalf("no loan account may be opened, got %d accounts", len(accounts))
	}

	if _, err := f.svc.Approve(ctx, ApproveInput{ApplicationID: app.ID, ReviewerID: "reviewer"}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := f.svc.Approve(ctx, ApproveInput{ApplicationID: app.ID, ReviewerID: "reviewer"}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("second approval must fail, got %v", err)
	}
	if got := f.balance(t, own.ID); got != 5_000_000 {
		t.Fatalf("expected one disbursement, balance %d", got)
	}
}
