package account

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hana-ti/home-planner/internal/format"
	"github.com/hana-ti/home-planner/internal/ledger"
	"github.com/hana-ti/home-planner/internal/notification"
)

const (
	ledgerCodePrefix  = "account:"
	numberAttempts    = 5
	transferKind      = "transfer"
	emptyTransactions = "거래내역이 없습니다."
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrDuplicateNumber    = errors.New("account number already exists")
	ErrAlreadyParticipant = errors.New("user already participates in account")
	ErrNotOwner           = errors.New("not owner of source account")
	ErrForbidden          = errors.New("account is not accessible to user")
	ErrAccountInactive    = errors.New("account is not active")
	ErrSameAccount        = errors.New("source and destination accounts are identical")
)

var validTypes = map[string]bool{
	TypeSaving: true, TypeJointSaving: true, TypeLoan: true, TypeJointLoan: true, TypeDemand: true,
}

// Service exposes account operations backed by the ledger.
type Service struct {
	repo     Repository
	ledger   ledger.Ledger
	notifier notification.Notifier
	now      func() time.Time
}

// NewService builds an account service instance.
func NewService(repo Repository, ledger ledger.Ledger, notifier notification.Notifier) *Service {
	return &Service{repo: repo, ledger: ledger, notifier: notifier, now: time.Now}
}

// OpenInput captures data required to open an account.
type OpenInput struct {
	UserID    string
	ProductID string
	Type      string
}

// Open provisions an account, its ledger account and the owner's PRIMARY participation.
func (s *Service) Open(ctx context.Context, input OpenInput) (Account, error) {
	if input.UserID == "" {
		return Account{}, errors.New("user id is required")
	}
	if input.Type == "" {
		input.Type = TypeDemand
	}
	if !validTypes[input.Type] {
		return Account{}, fmt.Errorf("unknown account type %q", input.Type)
	}

	accountID := uuid.New().String()
	acc := Account{
		ID:         accountID,
		UserID:     input.UserID,
		ProductID:  input.ProductID,
		Type:       input.Type,
		Status:     StatusActive,
		LedgerCode: ledgerCodePrefix + accountID,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.ledger.EnsureAccount(ctx, acc.LedgerCode); err != nil {
		return Account{}, err
	}

	var err error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		acc.Number = NewNumber()
		if err = s.repo.Create(ctx, acc); !errors.Is(err, ErrDuplicateNumber) {
			break
		}
	}
	if err != nil {
		return Account{}, fmt.Errorf("create account: %w", err)
	}

	full := decimal.NewFromInt(100)
	if err := s.repo.AddParticipant(ctx, Participant{
		AccountID:        acc.ID,
		UserID:           acc.UserID,
		Role:             RolePrimary,
		ContributionRate: &full,
		JoinedAt:         acc.CreatedAt,
	}); err != nil {
		return Account{}, fmt.Errorf("add primary participant: %w", err)
	}
	return acc, nil
}

// Close marks an account CLOSED. Closed accounts reject every movement.
func (s *Service) Close(ctx context.Context, id string) error {
	return s.repo.UpdateStatus(ctx, id, StatusClosed)
}

// NewNumber returns a random account number formatted NNN-NNN-NNNNNN.
func NewNumber() string {
	return fmt.Sprintf("%03d-%03d-%06d", rand.IntN(1000), rand.IntN(1000), rand.IntN(1_000_000))
}

// Get retrieves account metadata.
func (s *Service) Get(ctx context.Context, id string) (Account, error) {
	return s.repo.Get(ctx, id)
}

// GetByNumber retrieves an account by its display number.
func (s *Service) GetByNumber(ctx context.Context, number string) (Account, error) {
	return s.repo.GetByNumber(ctx, strings.TrimSpace(number))
}

// ListByUser lists the accounts a user owns or participates in.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Account, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListByType lists every account of the given types.
func (s *Service) ListByType(ctx context.Context, types ...string) ([]Account, error) {
	return s.repo.ListByType(ctx, types...)
}

// Balance returns the ledger balance for the account.
func (s *Service) Balance(ctx context.Context, id string) (Balance, error) {
	acc, err := s.repo.Get(ctx, id)
	if err != nil {
		return Balance{}, err
	}
	amount, err := s.ledger.Balance(ctx, acc.LedgerCode)
	if err != nil {
		return Balance{}, err
	}
	return Balance{AccountID: acc.ID, Amount: amount, Formatted: format.KRW(amount), AsOf: s.now().UTC()}, nil
}

// MovementInput describes a cash deposit into or withdrawal from an account.
type MovementInput struct {
	AccountID       string
	Amount          int64
	ClientTxID      string
	Memo            string
	RequestorUserID string
}

// Deposit books cash into an account.
func (s *Service) Deposit(ctx context.Context, input MovementInput) (ledger.TransactionResult, error) {
	acc, err := s.usable(ctx, input.AccountID, input.RequestorUserID)
	if err != nil {
		return ledger.TransactionResult{}, err
	}
	if input.ClientTxID == "" {
		input.ClientTxID = uuid.NewString()
	}
	return s.ledger.Deposit(ctx, acc.LedgerCode, input.ClientTxID, input.Memo, input.Amount)
}

// Withdraw books cash out of an account.
func (s *Service) Withdraw(ctx context.Context, input MovementInput) (ledger.TransactionResult, error) {
	acc, err := s.usable(ctx, input.AccountID, input.RequestorUserID)
	if err != nil {
		return ledger.TransactionResult{}, err
	}
	if input.ClientTxID == "" {
		input.ClientTxID = uuid.NewString()
	}
	return s.ledger.Withdraw(ctx, acc.LedgerCode, input.ClientTxID, input.Memo, input.Amount)
}

// TransferInput captures the data needed to move funds between accounts.
// The destination is ToAccountID or, when empty, ToAccountNumber.
type TransferInput struct {
	FromAccountID   string
	ToAccountID     string
	ToAccountNumber string
	Amount          int64
	ClientTxID      string
	Memo            string
	RequestorUserID string
}

// TransferResult describes the ledger outcome of a transfer.
type TransferResult struct {
	TransactionID string    `json:"transactionId"`
	FromBalance   int64     `json:"fromBalance"`
	ToBalance     int64     `json:"toBalance"`
	CompletedAt   time.Time `json:"completedAt"`
}

// Transfer posts a balanced ledger entry between two accounts. When
// RequestorUserID is set it must own the source account.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (TransferResult, error) {
	if input.Amount <= 0 {
		return TransferResult{}, ledger.ErrInvalidAmount
	}
	if input.ClientTxID == "" {
		input.ClientTxID = uuid.New().String()
	}

	from, err := s.repo.Get(ctx, input.FromAccountID)
	if err != nil {
		return TransferResult{}, err
	}
	if input.RequestorUserID != "" && from.UserID != input.RequestorUserID {
		return TransferResult{}, ErrNotOwner
	}
	var to Account
	if input.ToAccountID != "" {
		to, err = s.repo.Get(ctx, input.ToAccountID)
	} else {
		to, err = s.repo.GetByNumber(ctx, strings.TrimSpace(input.ToAccountNumber))
	}
	if err != nil {
		return TransferResult{}, err
	}
	if from.ID == to.ID {
		return TransferResult{}, ErrSameAccount
	}
	if from.Status != StatusActive || to.Status != StatusActive {
		return TransferResult{}, ErrAccountInactive
	}

	res, err := s.ledger.Transfer(ctx, ledger.Posting{
		From:       from.LedgerCode,
		To:         to.LedgerCode,
		Kind:       transferKind,
		ClientTxID: input.ClientTxID,
		Memo:       input.Memo,
		Amount:     input.Amount,
	})
	if err != nil {
		return TransferResult{}, err
	}

	if s.notifier != nil && to.UserID != from.UserID {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTransferReceived,
			Destination: to.UserID,
			Body:        fmt.Sprintf("%s 계좌에서 %s이 입금되었습니다.", from.Number, format.Won(input.Amount)),
		})
	}

	return TransferResult{
		TransactionID: res.TransactionID,
		FromBalance:   res.FromBalance,
		ToBalance:     res.ToBalance,
		CompletedAt:   s.now().UTC(),
	}, nil
}

// Transactions returns the account history as an empty-state aware list.
func (s *Service) Transactions(ctx context.Context, accountID, userID string) (format.List[ledger.Entry], error) {
	acc, err := s.repo.Get(ctx, accountID)
	if err != nil {
		return format.List[ledger.Entry]{}, err
	}
	if userID != "" {
		ok, err := s.IsParticipant(ctx, acc.ID, userID)
		if err != nil {
			return format.List[ledger.Entry]{}, err
		}
		if !ok {
			return format.List[ledger.Entry]{}, ErrForbidden
		}
	}
	entries, err := s.ledger.History(ctx, acc.LedgerCode)
	if err != nil {
		return format.List[ledger.Entry]{}, err
	}
	return format.NewList(entries, emptyTransactions), nil
}

// AddParticipant links userID to an account with the given role.
func (s *Service) AddParticipant(ctx context.Context, accountID, userID, role string, rate *decimal.Decimal) (Participant, error) {
	if role != RolePrimary && role != RoleJoint {
		return Participant{}, fmt.Errorf("unknown participant role %q", role)
	}
	p := Participant{AccountID: accountID, UserID: userID, Role: role, ContributionRate: rate, JoinedAt: s.now().UTC()}
	if err := s.repo.AddParticipant(ctx, p); err != nil {
		return Participant{}, err
	}
	return p, nil
}

// IsParticipant reports whether userID owns or has joined the account.
func (s *Service) IsParticipant(ctx context.Context, accountID, userID string) (bool, error) {
	participants, err := s.repo.Participants(ctx, accountID)
	if err != nil {
		return false, err
	}
	for _, p := range participants {
		if p.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

// Participants lists the users linked to an account.
func (s *Service) Participants(ctx context.Context, accountID string) ([]Participant, error) {
	return s.repo.Participants(ctx, accountID)
}

func (s *Service) usable(ctx context.Context, accountID, userID string) (Account, error) {
	acc, err := s.repo.Get(ctx, accountID)
	if err != nil {
		return Account{}, err
	}
	if acc.Status != StatusActive {
		return Account{}, ErrAccountInactive
	}
	if userID != "" {
		ok, err := s.IsParticipant(ctx, acc.ID, userID)
		if err != nil {
			return Account{}, err
		}
		if !ok {
			return Account{}, ErrForbidden
		}
	}
	return acc, nil
}
