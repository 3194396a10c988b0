package invitation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hana-ti/home-planner/internal/account"
	"github.com/hana-ti/home-planner/internal/logging"
	"github.com/hana-ti/home-planner/internal/notification"
)

var (
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrNotOwner           = errors.New("inviter does not own the account")
	ErrNotJointAccount    = errors.New("account does not accept joint participants")
	ErrAlreadyAnswered    = errors.New("invitation is no longer pending")
	ErrAlreadyParticipant = errors.New("user already participates in the account")
	ErrNotInviter         = errors.New("only the inviter can expire an invitation")
)

// Accounts is the slice of the account service used by invitations.
type Accounts interface {
	Get(ctx context.Context, id string) (account.Account, error)
	GetByNumber(ctx context.Context, number string) (account.Account, error)
	IsParticipant(ctx context.Context, accountID, userID string) (bool, error)
	AddParticipant(ctx context.Context, accountID, userID, role string, rate *decimal.Decimal) (account.Participant, error)
}

// Service manages joint savings account invitations.
type Service struct {
	repo     Repository
	accounts Accounts
	notifier notification.Notifier
	now      func() time.Time
}

// NewService wires the invitation service.
func NewService(repo Repository, accounts Accounts, notifier notification.Notifier) *Service {
	return &Service{repo: repo, accounts: accounts, notifier: notifier, now: time.Now}
}

// Create invites a JOINT participant into the account with the given number.
func (s *Service) Create(ctx context.Context, inviterID, accountNumber string) (Invitation, error) {
	acc, err := s.accounts.GetByNumber(ctx, strings.TrimSpace(accountNumber))
	if err != nil {
		return Invitation{}, err
	}
	if acc.UserID != inviterID {
		return Invitation{}, ErrNotOwner
	}
	if acc.Type != account.TypeJointSaving {
		return Invitation{}, fmt.Errorf("%w: %s", ErrNotJointAccount, acc.Type)
	}
	inv := Invitation{
		ID:        uuid.NewString(),
		AccountID: acc.ID,
		InviterID: inviterID,
		Role:      account.RoleJoint,
		Status:    StatusPending,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return Invitation{}, err
	}
	s.notify(ctx, notification.KindJointInvite, inviterID,
		fmt.Sprintf("%s 공동 적금 초대장이 생성되었습니다. 초대코드: %s", acc.Number, inv.ID))
	logging.FromContext(ctx).Info("joint invitation created",
		slog.String("invite_id", inv.ID),
		slog.String("account_id", acc.ID))
	return inv, nil
}

// Get returns an invitation.
func (s *Service) Get(ctx context.Context, id string) (Invitation, error) {
	return s.repo.Get(ctx, id)
}

// Info returns the invitation together with the account it targets.
func (s *Service) Info(ctx context.Context, id string) (AccountInfo, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return AccountInfo{}, err
	}
	acc, err := s.accounts.Get(ctx, inv.AccountID)
	if err != nil {
		return AccountInfo{}, err
	}
	return AccountInfo{Invitation: inv, AccountNumber: acc.Number, AccountType: acc.Type, ProductID: acc.ProductID}, nil
}

// Accept adds userID as a JOINT participant.
func (s *Service) Accept(ctx context.Context, id, userID string) (Invitation, error) {
	inv, err := s.pending(ctx, id)
	if err != nil {
		return Invitation{}, err
	}
	ok, err := s.accounts.IsParticipant(ctx, inv.AccountID, userID)
	if err != nil {
		return Invitation{}, err
	}
	if ok {
		return Invitation{}, ErrAlreadyParticipant
	}
	if _, err := s.accounts.AddParticipant(ctx, inv.AccountID, userID, inv.Role, nil); err != nil {
		if errors.Is(err, account.ErrAlreadyParticipant) {
			return Invitation{}, ErrAlreadyParticipant
		}
		return Invitation{}, fmt.Errorf("add participant: %w", err)
	}
	inv, err = s.respond(ctx, inv, StatusAccepted)
	if err != nil {
		return Invitation{}, err
	}
	s.notify(ctx, notification.KindJointAccepted, inv.InviterID, "공동 적금 초대가 수락되었습니다.")
	return inv, nil
}

// Reject declines a pending invitation on behalf of the invitee holding the
// code, or withdraws it when userID is the inviter.
func (s *Service) Reject(ctx context.Context, id, userID string) (Invitation, error) {
	inv, err := s.pending(ctx, id)
	if err != nil {
		return Invitation{}, err
	}
	if userID == "" {
		return Invitation{}, account.ErrForbidden
	}
	if userID != inv.InviterID {
		ok, err := s.accounts.IsParticipant(ctx, inv.AccountID, userID)
		if err != nil {
			return Invitation{}, err
		}
		if ok {
			return Invitation{}, ErrAlreadyParticipant
		}
	}
	return s.respond(ctx, inv, StatusRejected)
}

// Expire closes a pending invitation without an answer. Only its inviter may.
func (s *Service) Expire(ctx context.Context, id, userID string) (Invitation, error) {
	inv, err := s.pending(ctx, id)
	if err != nil {
		return Invitation{}, err
	}
	if userID != inv.InviterID {
		return Invitation{}, ErrNotInviter
	}
	return s.respond(ctx, inv, StatusExpired)
}

// Pending lists the PENDING invitations of accounts userID participates in.
func (s *Service) Pending(ctx context.Context, userID string) ([]Invitation, error) {
	all, err := s.repo.ByStatus(ctx, StatusPending)
	if err != nil {
		return nil, err
	}
	visible := make(map[string]bool)
	out := make([]Invitation, 0, len(all))
	for _, inv := range all {
		ok, seen := visible[inv.AccountID]
		if !seen {
			if ok, err = s.accounts.IsParticipant(ctx, inv.AccountID, userID); err != nil {
				return nil, err
			}
			visible[inv.AccountID] = ok
		}
		if ok {
			out = append(out, inv)
		}
	}
	return out, nil
}

// ByAccount lists an account's invitations for one of its participants.
func (s *Service) ByAccount(ctx context.Context, accountID, userID string) ([]Invitation, error) {
	ok, err := s.accounts.IsParticipant(ctx, accountID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, account.ErrForbidden
	}
	return s.repo.ByAccount(ctx, accountID)
}

func (s *Service) pending(ctx context.Context, id string) (Invitation, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return Invitation{}, err
	}
	if inv.Status != StatusPending {
		return Invitation{}, fmt.Errorf("%w: %s", ErrAlreadyAnswered, inv.Status)
	}
	return inv, nil
}

func (s *Service) respond(ctx context.Context, inv Invitation, status string) (Invitation, error) {
	now := s.now().UTC()
	inv.Status = status
	inv.RespondedAt = &now
	if err := s.repo.Update(ctx, inv); err != nil {
		return Invitation{}, err
	}
	return inv, nil
}

func (s *Service) notify(ctx context.Context, kind, userID, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, notification.Message{Kind: kind, Destination: userID, Body: body}); err != nil {
		logging.FromContext(ctx).Warn("notification failed", slog.String("kind", kind), slog.Any("error", err))
	}
}
