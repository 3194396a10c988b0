package invitation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hana-ti/home-planner/internal/account"
	"github.com/hana-ti/home-planner/internal/ledger"
	"github.com/hana-ti/home-planner/internal/notification"
)

type fixture struct {
	svc      *Service
	accounts *account.Service
	notifier *notification.Recorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	rec := &notification.Recorder{}
	accounts := account.NewService(account.NewMemoryRepository(), ledger.NewInMemory(), rec)
	svc := NewService(NewMemoryRepository(), accounts, rec)
	tick := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}
	return fixture{svc: svc, accounts: accounts, notifier: rec}
}

func (f fixture) open(t *testing.T, userID, accountType string) account.Account {
	t.Helper()
	acc, err := f.accounts.Open(context.Background(), account.OpenInput{UserID: userID, Type: accountType})
	if err != nil {
		t.Fatalf("open account: %v", err)
	}
	return acc
}

func TestCreateRequiresOwnedJointAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	joint := f.open(t, "alice", account.TypeJointSaving)
	demand := f.open(t, "alice", account.TypeDemand)

	if _, err := f.svc.Create(ctx, "bob", joint.Number); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if _, err := f.svc.Create(ctx, "alice", demand.Number); !errors.Is(err, ErrNotJointAccount) {
		t.Fatalf("expected ErrNotJointAccount, got %v", err)
	}
	if _, err := f.svc.Create(ctx, "alice", "000-000000-00000"); !errors.Is(err, account.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	inv, err := f.svc.Create(ctx, "alice", " "+joint.Number)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inv.Status != StatusPending || inv.Role != account.RoleJoint || inv.AccountID != joint.ID {
		t.Fatalf("unexpected invitation %+v", inv)
	}
	if f.notifier.Kinds()[notification.KindJointInvite] != 1 {
		t.Fatalf("expected an invite notification, got %v", f.notifier.Kinds())
	}
	info, err := f.svc.Info(ctx, inv.ID)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.AccountNumber != joint.Number || info.AccountType != account.TypeJointSaving {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestAcceptAddsJointParticipant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	joint := f.open(t, "alice", account.TypeJointSaving)
	inv, err := f.svc.Create(ctx, "alice", joint.Number)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.svc.Accept(ctx, inv.ID, "alice"); !errors.Is(err, ErrAlreadyParticipant) {
		t.Fatalf("owner cannot accept, got %v", err)
	}
	accepted, err := f.svc.Accept(ctx, inv.ID, "bob")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != StatusAccepted || accepted.RespondedAt == nil {
		t.Fatalf("unexpected accepted invitation %+v", accepted)
	}
	participants, err := f.accounts.Participants(ctx, joint.ID)
	if err != nil {
		t.Fatalf("participants: %v", err)
	}
	var found bool
	for _, p := range participants {
		if p.UserID == "bob" {
			found = p.Role == account.RoleJoint && p.ContributionRate == nil
		}
	}
	if !found {
		t.Fatalf("bob should be a JOINT participant, got %+v", participants)
	}
	if _, err := f.svc.Accept(ctx, inv.ID, "carol"); !errors.Is(err, ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}
	if f.notifier.Kinds()[notification.KindJointAccepted] != 1 {
		t.Fatalf("inviter should be notified, got %v", f.notifier.Kinds())
	}
}

func TestRejectExpireAndListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	joint := f.open(t, "alice", account.TypeJointSaving)
	first, _ := f.svc.Create(ctx, "alice", joint.Number)
	second, _ := f.svc.Create(ctx, "alice", joint.Number)
	third, _ := f.svc.Create(ctx, "alice", joint.Number)

	if _, err := f.svc.Reject(ctx, first.ID, "bob"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := f.svc.Expire(ctx, second.ID, "bob"); !errors.Is(err, ErrNotInviter) {
		t.Fatalf("expected ErrNotInviter, got %v", err)
	}
	expired, err := f.svc.Expire(ctx, second.ID, "alice")
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if expired.Status != StatusExpired {
		t.Fatalf("unexpected status %s", expired.Status)
	}
	if _, err := f.svc.Expire(ctx, first.ID, "alice"); !errors.Is(err, ErrAlreadyAnswered) {
		t.Fatalf("only pending invitations expire, got %v", err)
	}

	pending, err := f.svc.Pending(ctx, "alice")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != third.ID {
		t.Fatalf("unexpected pending list %+v", pending)
	}
	if leaked, _ := f.svc.Pending(ctx, "mallory"); len(leaked) != 0 {
		t.Fatalf("outsiders must not see invite codes, got %+v", leaked)
	}
	all, err := f.svc.ByAccount(ctx, joint.ID, "alice")
	if err != nil {
		t.Fatalf("by account: %v", err)
	}
	if len(all) != 3 || all[0].ID != third.ID {
		t.Fatalf("expected newest first, got %+v", all)
	}
	if _, err := f.svc.ByAccount(ctx, joint.ID, "mallory"); !errors.Is(err, account.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.Get(ctx, "missing"); !errors.Is(err, ErrInvitationNotFound) {
		t.Fatalf("expected ErrInvitationNotFound, got %v", err)
	}
}

func TestRejectByExistingParticipant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	joint := f.open(t, "alice", account.TypeJointSaving)
	first, _ := f.svc.Create(ctx, "alice", joint.Number)
	second, _ := f.svc.Create(ctx, "alice", joint.Number)
	if _, err := f.svc.Accept(ctx, first.ID, "bob"); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if _, err := f.svc.Reject(ctx, second.ID, "bob"); !errors.Is(err, ErrAlreadyParticipant) {
		t.Fatalf("participant cannot answer another invite, got %v", err)
	}
	if _, err := f.svc.Reject(ctx, second.ID, ""); !errors.Is(err, account.ErrForbidden) {
		t.Fatalf("anonymous reject must fail, got %v", err)
	}
	withdrawn, err := f.svc.Reject(ctx, second.ID, "alice")
	if err != nil {
		t.Fatalf("inviter withdraw: %v", err)
	}
	if withdrawn.Status != StatusRejected {
		t.Fatalf("unexpected status %s", withdrawn.Status)
	}
	if pending, _ := f.svc.Pending(ctx, "bob"); len(pending) != 0 {
		t.Fatalf("expected no pending invitations, got %+v", pending)
	}
}
