package couple

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hana-ti/home-planner/internal/identity"
	"github.com/hana-ti/home-planner/internal/notification"
)

type fixture struct {
	svc      *Service
	repo     Repository
	users    *identity.Service
	notifier *notification.Recorder
	clock    *time.Time
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	repo := NewMemoryRepository()
	users := identity.NewService(identity.NewMemoryRepository())
	rec := &notification.Recorder{}
	svc := NewService(repo, users, rec, "https://planner.example/", 0)
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }
	return fixture{svc: svc, repo: repo, users: users, notifier: rec, clock: &clock}
}

func (f fixture) register(t *testing.T, email, name string) identity.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), identity.Registration{Email: email, Password: "password123", Name: name, Phone: "010-0000-0000"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return u
}

func TestInviteExpiresOlderLinks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.svc.Invite(ctx, "alice")
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if !strings.HasPrefix(first.URL, "https://planner.example/couple/accept?token=") || !strings.HasSuffix(first.URL, first.Token) {
		t.Fatalf("unexpected invite url %q", first.URL)
	}
	if got := first.ExpiresAt.Sub(*f.clock); got != 72*time.Hour {
		t.Fatalf("expected a three day lifetime, got %v", got)
	}

	if _, err := f.svc.Invite(ctx, "alice"); err != nil {
		t.Fatalf("second invite: %v", err)
	}
	if _, err := f.svc.Accept(ctx, first.Token, "bob"); !errors.Is(err, ErrInviteUsed) {
		t.Fatalf("older link should be expired, got %v", err)
	}
	pending, _ := f.repo.PendingInvites(ctx, "alice")
	if len(pending) != 1 {
		t.Fatalf("expected one pending invite, got %d", len(pending))
	}
}

func TestAcceptLinksCouple(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice@example.com", "김앨리스")
	bob := f.register(t, "bob@example.com", "박밥")
	link, err := f.svc.Invite(ctx, alice.ID)
	if err != nil {
		t.Fatalf("invite: %v", err)
	}

	if _, err := f.svc.Accept(ctx, link.Token, alice.ID); !errors.Is(err, ErrSelfInvite) {
		t.Fatalf("expected ErrSelfInvite, got %v", err)
	}
	info, err := f.svc.Lookup(ctx, link.Token)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if info.InviterName != "김앨리스" || info.Status != InvitePending {
		t.Fatalf("unexpected invite info %+v", info)
	}

	c, err := f.svc.Accept(ctx, link.Token, bob.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if c.UserID1 != alice.ID || c.UserID2 != bob.ID || c.Status != StatusActive {
		t.Fatalf("unexpected couple %+v", c)
	}
	if f.notifier.Kinds()[notification.KindCoupleAccepted] != 1 {
		t.Fatalf("inviter should be notified, got %v", f.notifier.Kinds())
	}

	partnerID, ok, err := f.svc.PartnerID(ctx, bob.ID)
	if err != nil || !ok || partnerID != alice.ID {
		t.Fatalf("unexpected partner lookup %q %v %v", partnerID, ok, err)
	}
	st, err := f.svc.Status(ctx, alice.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !st.HasCouple || st.PartnerUserID != bob.ID || st.CoupleID != c.ID {
		t.Fatalf("unexpected status %+v", st)
	}
	p, err := f.svc.Partner(ctx, alice.ID)
	if err != nil {
		t.Fatalf("partner: %v", err)
	}
	if p.Name != "박밥" || p.Email != "bob@example.com" {
		t.Fatalf("unexpected partner %+v", p)
	}

	again, _ := f.svc.Invite(ctx, alice.ID)
	if _, err := f.svc.Accept(ctx, again.Token, "carol"); !errors.Is(err, ErrAlreadyCoupled) {
		t.Fatalf("expected ErrAlreadyCoupled, got %v", err)
	}
}

func TestExpiredInviteIsMarked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	link, err := f.svc.Invite(ctx, "alice")
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	*f.clock = f.clock.Add(72 * time.Hour)

	if _, err := f.svc.Accept(ctx, link.Token, "bob"); !errors.Is(err, ErrInviteExpired) {
		t.Fatalf("expected ErrInviteExpired, got %v", err)
	}
	inv, err := f.repo.InviteByToken(ctx, link.Token)
	if err != nil {
		t.Fatalf("invite by token: %v", err)
	}
	if inv.Status != InviteExpired {
		t.Fatalf("expected EXPIRED status, got %s", inv.Status)
	}
	if _, err := f.svc.Accept(ctx, "missing", "bob"); !errors.Is(err, ErrInviteNotFound) {
		t.Fatalf("expected ErrInviteNotFound, got %v", err)
	}
}

func TestAutoAcceptAndNoPartner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, ok := f.svc.AutoAccept(ctx, "bob", ""); ok {
		t.Fatalf("empty token must not link")
	}
	if _, ok := f.svc.AutoAccept(ctx, "bob", "unknown"); ok {
		t.Fatalf("unknown token must not link")
	}
	link, _ := f.svc.Invite(ctx, "alice")
	if c, ok := f.svc.AutoAccept(ctx, "bob", link.Token); !ok || c.UserID2 != "bob" {
		t.Fatalf("expected auto accept, got %+v %v", c, ok)
	}

	if _, ok, err := f.svc.PartnerID(ctx, "carol"); ok || err != nil {
		t.Fatalf("carol has no partner: %v %v", ok, err)
	}
	st, err := f.svc.Status(ctx, "carol")
	if err != nil || st.HasCouple {
		t.Fatalf("unexpected status %+v %v", st, err)
	}
	if _, err := f.svc.Partner(ctx, "carol"); !errors.Is(err, ErrNoCouple) {
		t.Fatalf("expected ErrNoCouple, got %v", err)
	}
	if _, err := f.svc.Partner(ctx, "bob"); !errors.Is(err, ErrPartnerNotFound) {
		t.Fatalf("expected ErrPartnerNotFound for unregistered partner, got %v", err)
	}
}
