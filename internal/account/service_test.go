package account

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/hana-ti/home-planner/internal/ledger"
	"github.com/hana-ti/home-planner/internal/notification"
)

type fixture struct {
	svc      *Service
	ledger   ledger.Ledger
	notifier *notification.Recorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	l := ledger.NewInMemory()
	rec := &notification.Recorder{}
	return fixture{svc: NewService(NewMemoryRepository(), l, rec), ledger: l, notifier: rec}
}

func (f fixture) open(t *testing.T, userID, accountType string, balance int64) Account {
	t.Helper()
	acc, err := f.svc.Open(context.Background(), OpenInput{UserID: userID, Type: accountType})
	if err != nil {
		t.Fatalf("open account: %v", err)
	}
	if balance > 0 {
		ledger.SeedBalance(f.ledger, acc.LedgerCode, balance)
	}
	return acc
}

func TestOpenAssignsNumberAndPrimaryParticipant(t *testing.T) {
	f := newFixture(t)
	acc := f.open(t, "alice", "", 0)

	if !regexp.MustCompile(`^\d{3}-\d{3}-\d{6}$`).MatchString(acc.Number) {
		t.Fatalf("unexpected account number %q", acc.Number)
	}
	if acc.Type != TypeDemand || acc.Status != StatusActive {
		t.Fatalf("unexpected account %+v", acc)
	}
	participants, err := f.svc.Participants(context.Background(), acc.ID)
	if err != nil {
		t.Fatalf("participants: %v", err)
	}
	if len(participants) != 1 || participants[0].Role != RolePrimary {
		t.Fatalf("expected a single PRIMARY participant, got %+v", participants)
	}
	if !participants[0].ContributionRate.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected full contribution, got %s", participants[0].ContributionRate)
	}

	if _, err := f.svc.Open(context.Background(), OpenInput{UserID: "alice", Type: "CHEQUE"}); err == nil {
		t.Fatalf("expected unknown type to be rejected")
	}
}

func TestTransferMovesFundsAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	from := f.open(t, "alice", TypeDemand, 50_000)
	to := f.open(t, "bob", TypeDemand, 0)

	res, err := f.svc.Transfer(ctx, TransferInput{
		FromAccountID:   from.ID,
		ToAccountNumber: to.Number,
		Amount:          20_000,
		ClientTxID:      "tx-1",
		RequestorUserID: "alice",
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if res.FromBalance != 30_000 || res.ToBalance != 20_000 {
		t.Fatalf("unexpected balances %+v", res)
	}
	if got := f.notifier.Kinds()[notification.KindTransferReceived]; got != 1 {
		t.Fatalf("expected one transfer notification, got %d", got)
	}

	if _, err := f.svc.Transfer(ctx, TransferInput{
		FromAccountID: from.ID, ToAccountID: to.ID, Amount: 20_000, ClientTxID: "tx-1",
	}); !errors.Is(err, ledger.ErrDuplicateTransaction) {
		t.Fatalf("expected duplicate transaction, got %v", err)
	}
}

func TestTransferRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	from := f.open(t, "alice", TypeDemand, 10_000)
	to := f.open(t, "bob", TypeDemand, 0)

	cases := []struct {
		name  string
		input TransferInput
		want  error
	}{
		{"not owner", TransferInput{FromAccountID: from.ID, ToAccountID: to.ID, Amount: 1_000, RequestorUserID: "bob"}, ErrNotOwner},
		{"insufficient", TransferInput{FromAccountID: from.ID, ToAccountID: to.ID, Amount: 20_000}, ledger.ErrInsufficientFunds},
		{"same account", TransferInput{FromAccountID: from.ID, ToAccountID: from.ID, Amount: 1_000}, ErrSameAccount},
		{"zero amount", TransferInput{FromAccountID: from.ID, ToAccountID: to.ID}, ledger.ErrInvalidAmount},
		{"unknown destination", TransferInput{FromAccountID: from.ID, ToAccountNumber: "000-000-000000", Amount: 1_000}, ErrAccountNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.Transfer(ctx, tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestTransactionsEmptyStateAndAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc := f.open(t, "alice", TypeSaving, 0)

	list, err := f.svc.Transactions(ctx, acc.ID, "alice")
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if !list.Empty || list.Message != emptyTransactions {
		t.Fatalf("expected empty list with message, got %+v", list)
	}

	if _, err := f.svc.Deposit(ctx, MovementInput{AccountID: acc.ID, Amount: 5_000, RequestorUserID: "alice"}); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	list, err = f.svc.Transactions(ctx, acc.ID, "alice")
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if list.Count != 1 || list.Message != "" {
		t.Fatalf("expected one entry, got %+v", list)
	}

	if _, err := f.svc.Transactions(ctx, acc.ID, "mallory"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestJointParticipantSeesAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc := f.open(t, "alice", TypeJointSaving, 0)

	rate := decimal.NewFromInt(50)
	if _, err := f.svc.AddParticipant(ctx, acc.ID, "bob", RoleJoint, &rate); err != nil {
		t.Fatalf("add participant: %v", err)
	}
	if _, err := f.svc.AddParticipant(ctx, acc.ID, "bob", RoleJoint, &rate); !errors.Is(err, ErrAlreadyParticipant) {
		t.Fatalf("expected ErrAlreadyParticipant, got %v", err)
	}

	accounts, err := f.svc.ListByUser(ctx, "bob")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(accounts) != 1 || accounts[0].ID != acc.ID {
		t.Fatalf("joint participant should see the account, got %+v", accounts)
	}
	if _, err := f.svc.Withdraw(ctx, MovementInput{AccountID: acc.ID, Amount: 1, RequestorUserID: "bob"}); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds for the joint holder, got %v", err)
	}
}

func TestClosedAccountRejectsMovements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acc := f.open(t, "alice", TypeSaving, 10_000)
	other := f.open(t, "alice", TypeDemand, 10_000)

	if err := f.svc.Close(ctx, acc.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := f.svc.Close(ctx, "missing"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if _, err := f.svc.Deposit(ctx, MovementInput{AccountID: acc.ID, Amount: 1_000}); !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive on deposit, got %v", err)
	}
	if _, err := f.svc.Transfer(ctx, TransferInput{FromAccountID: other.ID, ToAccountID: acc.ID, Amount: 1_000}); !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive on transfer, got %v", err)
	}
}
