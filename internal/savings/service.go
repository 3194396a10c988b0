package savings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hana-ti/home-planner/internal/account"
	"github.com/hana-ti/home-planner/internal/format"
	"github.com/hana-ti/home-planner/internal/ledger"
	"github.com/hana-ti/home-planner/internal/logging"
)

const (
	initialDepositMemo = "적금가입 초기 입금"
	emptySavings       = "가입한 적금이 없습니다."
)

var (
	ErrProductNotFound    = errors.New("savings product not found")
	ErrProductInactive    = errors.New("savings product is not on sale")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrAlreadyJoined      = errors.New("user already holds savings on this account")
	ErrNotSavingsAccount  = errors.New("account is not a savings account")
	ErrNotJointAccount    = errors.New("account is not a joint savings account")
	ErrNotParticipant     = errors.New("user does not participate in account")
	ErrInsufficientSource = errors.New("source account balance is insufficient")
	ErrForeignAutoDebit   = errors.New("auto-debit account does not belong to user")
	ErrInvalidInput       = errors.New("invalid savings input")
)

// Accounts is the slice of the account service used by savings.
type Accounts interface {
	Open(ctx context.Context, input account.OpenInput) (account.Account, error)
	Get(ctx context.Context, id string) (account.Account, error)
	GetByNumber(ctx context.Context, number string) (account.Account, error)
	ListByType(ctx context.Context, types ...string) ([]account.Account, error)
	Balance(ctx context.Context, id string) (account.Balance, error)
	Deposit(ctx context.Context, input account.MovementInput) (ledger.TransactionResult, error)
	Transfer(ctx context.Context, input account.TransferInput) (account.TransferResult, error)
	IsParticipant(ctx context.Context, accountID, userID string) (bool, error)
	Close(ctx context.Context, id string) error
}

// Service implements savings signup, schedules and joint membership.
type Service struct {
	repo     Repository
	accounts Accounts
	now      func() time.Time
}

// NewService wires the savings service.
func NewService(repo Repository, accounts Accounts) *Service {
	return &Service{repo: repo, accounts: accounts, now: time.Now}
}

// Products lists the catalogue.
func (s *Service) Products(ctx context.Context) ([]Product, error) {
	return s.repo.ListProducts(ctx)
}

// Product returns one catalogue entry.
func (s *Service) Product(ctx context.Context, id string) (Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// ValidateStep validates a signup wizard step against the selected product.
func (s *Service) ValidateStep(ctx context.Context, step int, form SignupForm) StepResult {
	var product *Product
	if form.ProductID != "" {
		if p, err := s.repo.GetProduct(ctx, form.ProductID); err == nil {
			product = &p
		}
	}
	return ValidateStep(step, form, product)
}

// CreateInput describes a savings signup.
type CreateInput struct {
	UserID           string
	ProductID        string
	StartDate        time.Time
	EndDate          time.Time
	MonthlyAmount    int64
	InitialDeposit   int64
	AutoDebitAccount string
	AutoDebitDay     int
}

// CreateResult is the outcome of a signup.
type CreateResult struct {
	Account        account.Account `json:"account"`
	Savings        UserSavings     `json:"userSavings"`
	InitialDeposit int64           `json:"initialDeposit"`
	PaymentCount   int             `json:"paymentScheduleCount"`
	Payments       []Payment       `json:"paymentSchedules"`
}

// Create opens a savings account with its subscription, schedule and
// optional initial deposit.
func (s *Service) Create(ctx context.Context, in CreateInput) (CreateResult, error) {
	logger := logging.FromContext(ctx)
	product, err := s.repo.GetProduct(ctx, in.ProductID)
	if err != nil {
		return CreateResult{}, err
	}
	if product.Status != "" && product.Status != StatusActive {
		return CreateResult{}, ErrProductInactive
	}
	if err := checkAmount(in.MonthlyAmount, &product); err != nil {
		return CreateResult{}, err
	}
	if in.InitialDeposit < 0 {
		return CreateResult{}, fmt.Errorf("%w: initial deposit must not be negative", ErrInvalidInput)
	}
	if in.AutoDebitDay < 0 || in.AutoDebitDay > 31 {
		return CreateResult{}, fmt.Errorf("%w: auto-debit day must be within 1..31", ErrInvalidInput)
	}
	start, end := s.term(in.StartDate, in.EndDate, product.TermMonths)
	autoDebit := strings.TrimSpace(in.AutoDebitAccount)

	source, err := s.autoDebitSource(ctx, autoDebit, in.UserID)
	if err != nil {
		return CreateResult{}, err
	}
	if source != nil && in.InitialDeposit > 0 {
		if err := s.checkFunds(ctx, *source, in.InitialDeposit); err != nil {
			return CreateResult{}, err
		}
	}

	accountType := account.TypeSaving
	if product.Type == ProductJointSaving {
		accountType = account.TypeJointSaving
	}
	acc, err := s.accounts.Open(ctx, account.OpenInput{UserID: in.UserID, ProductID: product.ID, Type: accountType})
	if err != nil {
		return CreateResult{}, fmt.Errorf("open savings account: %w", err)
	}

	if in.InitialDeposit > 0 {
		if err := s.initialDeposit(ctx, acc, source, in.InitialDeposit); err != nil {
			s.discard(ctx, acc)
			return CreateResult{}, fmt.Errorf("initial deposit: %w", err)
		}
	}

	savings, payments, err := s.subscribe(ctx, subscription{
		userID:       in.UserID,
		productID:    product.ID,
		accountID:    acc.ID,
		start:        start,
		end:          end,
		amount:       in.MonthlyAmount,
		autoDebit:    autoDebit,
		autoDebitDay: in.AutoDebitDay,
	})
	if err != nil {
		if in.InitialDeposit == 0 {
			s.discard(ctx, acc)
		} else {
			logger.Error("savings subscription failed after initial deposit",
				slog.String("account_id", acc.ID), slog.Any("error", err))
		}
		return CreateResult{}, err
	}

	logger.Info("savings account created",
		slog.String("account_id", acc.ID),
		slog.String("user_savings_id", savings.ID),
		slog.Int("payments", len(payments)))
	return CreateResult{
		Account:        acc,
		Savings:        savings,
		InitialDeposit: in.InitialDeposit,
		PaymentCount:   len(payments),
		Payments:       payments,
	}, nil
}

// JoinInput describes a joint holder's own contribution plan.
type JoinInput struct {
	UserID           string
	AccountID        string
	StartDate        time.Time
	EndDate          time.Time
	MonthlyAmount    int64
	AutoDebitAccount string
	AutoDebitDay     int
}

// Join subscribes a JOINT participant to an existing joint savings account
// with their own monthly amount and schedule.
func (s *Service) Join(ctx context.Context, in JoinInput) (CreateResult, error) {
	acc, err := s.accounts.Get(ctx, in.AccountID)
	if err != nil {
		return CreateResult{}, err
	}
	if acc.Type != account.TypeJointSaving {
		return CreateResult{}, ErrNotJointAccount
	}
	ok, err := s.accounts.IsParticipant(ctx, acc.ID, in.UserID)
	if err != nil {
		return CreateResult{}, err
	}
	if !ok {
		return CreateResult{}, ErrNotParticipant
	}
	product, err := s.repo.GetProduct(ctx, acc.ProductID)
	if err != nil {
		return CreateResult{}, err
	}
	if err := checkAmount(in.MonthlyAmount, &product); err != nil {
		return CreateResult{}, err
	}
	autoDebit := strings.TrimSpace(in.AutoDebitAccount)
	if _, err := s.autoDebitSource(ctx, autoDebit, in.UserID); err != nil {
		return CreateResult{}, err
	}
	start, end := s.term(in.StartDate, in.EndDate, product.TermMonths)
	savings, payments, err := s.subscribe(ctx, subscription{
		userID:       in.UserID,
		productID:    product.ID,
		accountID:    acc.ID,
		start:        start,
		end:          end,
		amount:       in.MonthlyAmount,
		autoDebit:    autoDebit,
		autoDebitDay: in.AutoDebitDay,
	})
	if err != nil {
		return CreateResult{}, err
	}
	return CreateResult{Account: acc, Savings: savings, PaymentCount: len(payments), Payments: payments}, nil
}

type subscription struct {
	userID       string
	productID    string
	accountID    string
	start        time.Time
	end          time.Time
	amount       int64
	autoDebit    string
	autoDebitDay int
}

func (s *Service) subscribe(ctx context.Context, sub subscription) (UserSavings, []Payment, error) {
	savings := UserSavings{
		ID:               uuid.NewString(),
		UserID:           sub.userID,
		ProductID:        sub.productID,
		AccountID:        sub.accountID,
		StartDate:        sub.start,
		EndDate:          sub.end,
		MonthlyAmount:    sub.amount,
		Status:           StatusActive,
		AutoDebitAccount: sub.autoDebit,
		AutoDebitDay:     sub.autoDebitDay,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.repo.CreateSavings(ctx, savings); err != nil {
		return UserSavings{}, nil, fmt.Errorf("create user savings: %w", err)
	}
	payments := BuildSchedule(ScheduleInput{
		UserID:       sub.userID,
		AccountID:    sub.accountID,
		Start:        sub.start,
		End:          sub.end,
		AutoDebitDay: sub.autoDebitDay,
		Amount:       sub.amount,
	})
	if err := s.repo.SavePayments(ctx, payments); err != nil {
		return UserSavings{}, nil, fmt.Errorf("save payment schedule: %w", err)
	}
	return savings, payments, nil
}

// autoDebitSource resolves the account a holder pays from. It must be an
// account the holder participates in; an empty number means none.
func (s *Service) autoDebitSource(ctx context.Context, number, userID string) (*account.Account, error) {
	if number == "" {
		return nil, nil
	}
	src, err := s.accounts.GetByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("auto-debit account %s: %w", number, err)
	}
	ok, err := s.accounts.IsParticipant(ctx, src.ID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForeignAutoDebit
	}
	return &src, nil
}

func (s *Service) checkFunds(ctx context.Context, src account.Account, amount int64) error {
	balance, err := s.accounts.Balance(ctx, src.ID)
	if err != nil {
		return err
	}
	if balance.Amount < amount {
		return fmt.Errorf("%w: balance %s", ErrInsufficientSource, format.Won(balance.Amount))
	}
	return nil
}

// initialDeposit books the signup deposit: a cash deposit without a source
// account, otherwise a ledger transfer from it. The posting id is derived
// from the new account so it never collides with client transfers.
func (s *Service) initialDeposit(ctx context.Context, acc account.Account, source *account.Account, amount int64) error {
	clientTxID := "savings-init:" + acc.ID
	if source == nil {
		_, err := s.accounts.Deposit(ctx, account.MovementInput{
			AccountID:  acc.ID,
			Amount:     amount,
			ClientTxID: clientTxID,
			Memo:       initialDepositMemo,
		})
		return err
	}
	_, err := s.accounts.Transfer(ctx, account.TransferInput{
		FromAccountID: source.ID,
		ToAccountID:   acc.ID,
		Amount:        amount,
		ClientTxID:    clientTxID,
		Memo:          initialDepositMemo,
	})
	return err
}

// discard closes an account whose signup could not complete.
func (s *Service) discard(ctx context.Context, acc account.Account) {
	if err := s.accounts.Close(ctx, acc.ID); err != nil {
		logging.FromContext(ctx).Error("failed to close abandoned savings account",
			slog.String("account_id", acc.ID), slog.Any("error", err))
	}
}

func (s *Service) term(start, end time.Time, termMonths int) (time.Time, time.Time) {
	if start.IsZero() {
		start = s.now()
	}
	start = dateOnly(start)
	if end.IsZero() {
		if termMonths <= 0 {
			termMonths = defaultTermMonths
		}
		end = start.AddDate(0, termMonths, 0)
	}
	return start, dateOnly(end)
}

func checkAmount(amount int64, product *Product) error {
	res := ValidateStep(StepAmount, SignupForm{
		MonthlyAmount: fmt.Sprint(amount),
		TermMonths:    "1",
		PreferredDay:  "1",
	}, product)
	if msg, ok := res.Errors["monthlyAmount"]; ok {
		return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
	}
	return nil
}

// UserSavings lists a user's subscriptions.
func (s *Service) UserSavings(ctx context.Context, userID string) (format.List[UserSavings], error) {
	items, err := s.repo.SavingsByUser(ctx, userID)
	if err != nil {
		return format.List[UserSavings]{}, err
	}
	return format.NewList(items, emptySavings), nil
}

// Schedule returns the caller's payment schedule on a savings account.
func (s *Service) Schedule(ctx context.Context, userID, accountID, filter string) (ScheduleView, error) {
	acc, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return ScheduleView{}, err
	}
	if acc.Type != account.TypeSaving && acc.Type != account.TypeJointSaving {
		return ScheduleView{}, ErrNotSavingsAccount
	}
	ok, err := s.accounts.IsParticipant(ctx, acc.ID, userID)
	if err != nil {
		return ScheduleView{}, err
	}
	if !ok {
		return ScheduleView{}, ErrNotParticipant
	}
	payments, err := s.repo.Payments(ctx, acc.ID, userID)
	if err != nil {
		return ScheduleView{}, err
	}
	return NewScheduleView(payments, filter), nil
}

// Payments returns the raw schedule of an account; an empty userID returns every participant's rows.
func (s *Service) Payments(ctx context.Context, accountID, userID string) ([]Payment, error) {
	return s.repo.Payments(ctx, accountID, userID)
}
