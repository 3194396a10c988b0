package couple

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hana-ti/home-planner/internal/identity"
	"github.com/hana-ti/home-planner/internal/logging"
	"github.com/hana-ti/home-planner/internal/notification"
)

const defaultInviteTTL = 72 * time.Hour

var (
	ErrInviteNotFound  = errors.New("couple invite not found")
	ErrInviteUsed      = errors.New("couple invite already processed")
	ErrInviteExpired   = errors.New("couple invite expired")
	ErrSelfInvite      = errors.New("cannot accept own couple invite")
	ErrAlreadyCoupled  = errors.New("an active couple already exists")
	ErrNoCouple        = errors.New("no active couple")
	ErrPartnerNotFound = errors.New("partner profile not found")
)

// Users resolves partner profiles.
type Users interface {
	Get(ctx context.Context, id string) (identity.User, error)
}

// Service manages couple invites and links.
type Service struct {
	repo     Repository
	users    Users
	notifier notification.Notifier
	baseURL  string
	ttl      time.Duration
	now      func() time.Time
}

// NewService wires the couple service. Links point at baseURL and stay valid for ttl.
func NewService(repo Repository, users Users, notifier notification.Notifier, baseURL string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = defaultInviteTTL
	}
	return &Service{
		repo:     repo,
		users:    users,
		notifier: notifier,
		baseURL:  strings.TrimRight(baseURL, "/"),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Invite creates a fresh link for userID and expires the user's older pending links.
func (s *Service) Invite(ctx context.Context, userID string) (Link, error) {
	pending, err := s.repo.PendingInvites(ctx, userID)
	if err != nil {
		return Link{}, err
	}
	for _, old := range pending {
		if err := s.repo.UpdateInviteStatus(ctx, old.ID, InviteExpired); err != nil {
			return Link{}, fmt.Errorf("expire invite %s: %w", old.ID, err)
		}
	}

	now := s.now().UTC()
	inv := Invite{
		ID:        uuid.NewString(),
		InviterID: userID,
		Token:     uuid.NewString(),
		Status:    InvitePending,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.CreateInvite(ctx, inv); err != nil {
		return Link{}, err
	}
	link := Link{
		InviteID:  inv.ID,
		Token:     inv.Token,
		URL:       s.baseURL + "/couple/accept?token=" + url.QueryEscape(inv.Token),
		ExpiresAt: inv.ExpiresAt,
	}
	s.notify(ctx, notification.KindCoupleInvite, userID, "커플 초대 링크가 생성되었습니다: "+link.URL)
	return link, nil
}

// Lookup describes the invite behind token for the accept page.
func (s *Service) Lookup(ctx context.Context, token string) (InviteInfo, error) {
	inv, err := s.repo.InviteByToken(ctx, token)
	if err != nil {
		return InviteInfo{}, err
	}
	info := InviteInfo{Status: inv.Status, ExpiresAt: inv.ExpiresAt}
	if inv.Status == InvitePending && inv.Expired(s.now()) {
		info.Status = InviteExpired
	}
	if u, err := s.users.Get(ctx, inv.InviterID); err == nil {
		info.InviterName = u.Name
	}
	return info, nil
}

// Accept links acceptorID with the inviter behind token.
func (s *Service) Accept(ctx context.Context, token, acceptorID string) (Couple, error) {
	inv, err := s.repo.InviteByToken(ctx, token)
	if err != nil {
		return Couple{}, err
	}
	if inv.Status != InvitePending {
		return Couple{}, fmt.Errorf("%w: %s", ErrInviteUsed, inv.Status)
	}
	if inv.Expired(s.now()) {
		if err := s.repo.UpdateInviteStatus(ctx, inv.ID, InviteExpired); err != nil {
			return Couple{}, err
		}
		return Couple{}, ErrInviteExpired
	}
	if inv.InviterID == acceptorID {
		return Couple{}, ErrSelfInvite
	}

	c := Couple{
		ID:        uuid.NewString(),
		UserID1:   inv.InviterID,
		UserID2:   acceptorID,
		Status:    StatusActive,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateCouple(ctx, c); err != nil {
		return Couple{}, err
	}
	if err := s.repo.UpdateInviteStatus(ctx, inv.ID, InviteAccepted); err != nil {
		return Couple{}, err
	}
	logging.FromContext(ctx).Info("couple linked",
		slog.String("couple_id", c.ID),
		slog.String("inviter_id", c.UserID1),
		slog.String("acceptor_id", c.UserID2))
	s.notify(ctx, notification.KindCoupleAccepted, inv.InviterID, "커플 연동이 완료되었습니다.")
	return c, nil
}

// AutoAccept accepts the invite a new user signed up with. Failures are
// logged and reported as false so they never block signup.
func (s *Service) AutoAccept(ctx context.Context, userID, token string) (Couple, bool) {
	if strings.TrimSpace(token) == "" {
		return Couple{}, false
	}
	c, err := s.Accept(ctx, token, userID)
	if err != nil {
		logging.FromContext(ctx).Warn("couple auto accept skipped", slog.String("user_id", userID), slog.Any("error", err))
		return Couple{}, false
	}
	return c, true
}

// Status reports whether userID is linked.
func (s *Service) Status(ctx context.Context, userID string) (Status, error) {
	c, err := s.repo.ActiveCouple(ctx, userID)
	if errors.Is(err, ErrNoCouple) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, err
	}
	return Status{
		HasCouple:     true,
		CoupleID:      c.ID,
		PartnerUserID: c.Partner(userID),
		Status:        c.Status,
		CreatedAt:     &c.CreatedAt,
	}, nil
}

// PartnerID returns the linked partner of userID, if any.
func (s *Service) PartnerID(ctx context.Context, userID string) (string, bool, error) {
	c, err := s.repo.ActiveCouple(ctx, userID)
	if errors.Is(err, ErrNoCouple) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return c.Partner(userID), true, nil
}

// Partner returns the linked partner's profile.
func (s *Service) Partner(ctx context.Context, userID string) (Partner, error) {
	c, err := s.repo.ActiveCouple(ctx, userID)
	if err != nil {
		return Partner{}, err
	}
	u, err := s.users.Get(ctx, c.Partner(userID))
	if errors.Is(err, identity.ErrUserNotFound) {
		return Partner{}, ErrPartnerNotFound
	}
	if err != nil {
		return Partner{}, err
	}
	return Partner{
		UserID:   u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Phone:    u.Phone,
		CoupleID: c.ID,
		Status:   c.Status,
	}, nil
}

func (s *Service) notify(ctx context.Context, kind, userID, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, notification.Message{Kind: kind, Destination: userID, Body: body}); err != nil {
		logging.FromContext(ctx).Warn("notification failed", slog.String("kind", kind), slog.Any("error", err))
	}
}
