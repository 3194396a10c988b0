package calendar

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
	"github.com/hana-ti/home-planner/internal/loan"
	"github.com/hana-ti/home-planner/internal/logging"
	"github.com/hana-ti/home-planner/internal/savings"
)

const (
	savingsEventTitle = "적금 자동이체"
	loanEventTitle    = "대출 상환금 납입"
)

var (
	ErrEventNotFound     = errors.New("calendar event not found")
	ErrInvalidInput      = errors.New("invalid calendar input")
	ErrDuplicateTitle    = errors.New("an event with this title already exists")
	ErrForbidden         = errors.New("event belongs to another user")
	ErrNotSavingsAccount = errors.New("account is not a savings account")
	ErrNotLoanAccount    = errors.New("account is not a loan account")
	ErrAlreadyRegistered = errors.New("schedule is already registered on the calendar")
	ErrNoSchedule        = errors.New("account has no schedule to register")
)

// Accounts is the slice of the account service used to resolve schedule owners.
type Accounts interface {
	GetByNumber(ctx context.Context, number string) (account.Account, error)
	IsParticipant(ctx context.Context, accountID, userID string) (bool, error)
}

// Savings exposes savings payment schedules.
type Savings interface {
	Payments(ctx context.Context, accountID, userID string) ([]savings.Payment, error)
}

// Loans exposes loan contracts and repayment schedules.
type Loans interface {
	Contracts(ctx context.Context, userID string) ([]loan.Contract, error)
	Repayments(ctx context.Context, loanID, userID string) (format.List[loan.Repayment], error)
}

// Service manages a user's financial calendar.
type Service struct {
	repo     Repository
	accounts Accounts
	savings  Savings
	loans    Loans
	now      func() time.Time
}

// NewService wires the calendar service.
func NewService(repo Repository, accounts Accounts, savings Savings, loans Loans) *Service {
	return &Service{repo: repo, accounts: accounts, savings: savings, loans: loans, now: time.Now}
}

// CreateInput describes a single event.
type CreateInput struct {
	UserID          string
	EventDate       time.Time
	TransactionType string
	EventType       string
	Title           string
	Description     string
	Amount          int64
	RelatedID       string
}

func (in CreateInput) validate() error {
	switch {
	case in.EventDate.IsZero():
		return fmt.Errorf("%w: 일정 날짜를 입력해주세요", ErrInvalidInput)
	case strings.TrimSpace(in.Title) == "":
		return fmt.Errorf("%w: 일정 제목을 입력해주세요", ErrInvalidInput)
	case in.Amount < 0:
		return fmt.Errorf("%w: 금액은 0원 이상이어야 합니다", ErrInvalidInput)
	case in.TransactionType != Deposit && in.TransactionType != Withdraw:
		return fmt.Errorf("%w: unknown transaction type %q", ErrInvalidInput, in.TransactionType)
	}
	if _, ok := eventTypeNames[in.EventType]; !ok {
		return fmt.Errorf("%w: unknown event type %q", ErrInvalidInput, in.EventType)
	}
	return nil
}

// Create stores a new event. Titles are unique per user.
func (s *Service) Create(ctx context.Context, in CreateInput) (Event, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := in.validate(); err != nil {
		return Event{}, err
	}
	if err := s.uniqueTitle(ctx, in.UserID, in.Title); err != nil {
		return Event{}, err
	}
	e := s.newEvent(in, s.today())
	if err := s.repo.Create(ctx, e); err != nil {
		return Event{}, fmt.Errorf("create event: %w", err)
	}
	logging.FromContext(ctx).Info("calendar event created",
		slog.String("event_id", e.ID), slog.String("event_type", e.EventType))
	return e, nil
}

// UpdateInput carries the fields to change; nil fields are kept.
type UpdateInput struct {
	Title       *string
	Description *string
	Amount      *int64
	Status      *string
}

// Update edits an event owned by userID.
func (s *Service) Update(ctx context.Context, id, userID string, in UpdateInput) (Event, error) {
	e, err := s.owned(ctx, id, userID)
	if err != nil {
		return Event{}, err
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return Event{}, fmt.Errorf("%w: 일정 제목을 입력해주세요", ErrInvalidInput)
		}
		if title != e.Title {
			if err := s.uniqueTitle(ctx, userID, title); err != nil {
				return Event{}, err
			}
		}
		e.Title = title
	}
	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.Amount != nil {
		if *in.Amount < 0 {
			return Event{}, fmt.Errorf("%w: 금액은 0원 이상이어야 합니다", ErrInvalidInput)
		}
		e.Amount = *in.Amount
	}
	if in.Status != nil {
		switch *in.Status {
		case StatusScheduled, StatusDone, StatusCanceled:
			e.Status = *in.Status
		default:
			return Event{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *in.Status)
		}
	}
	e.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, e); err != nil {
		return Event{}, fmt.Errorf("update event: %w", err)
	}
	return e, nil
}

// Delete removes an event owned by userID.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Get returns an event owned by userID.
func (s *Service) Get(ctx context.Context, id, userID string) (Event, error) {
	return s.owned(ctx, id, userID)
}

// List returns every event of the user in date order.
func (s *Service) List(ctx context.Context, userID string) ([]Event, error) {
	return s.repo.ByUser(ctx, userID)
}

// ByDate returns the events of one day.
func (s *Service) ByDate(ctx context.Context, userID string, date time.Time) ([]Event, error) {
	d := dateOnly(date)
	return s.repo.ByRange(ctx, userID, d, d)
}

// ByRange returns the events between from and to inclusive.
func (s *Service) ByRange(ctx context.Context, userID string, from, to time.Time) ([]Event, error) {
	from, to = dateOnly(from), dateOnly(to)
	if from.After(to) {
		return nil, fmt.Errorf("%w: 시작일은 종료일보다 이전이어야 합니다", ErrInvalidInput)
	}
	return s.repo.ByRange(ctx, userID, from, to)
}

// ByMonth returns the events of a calendar month.
func (s *Service) ByMonth(ctx context.Context, userID string, year int, month time.Month) ([]Event, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: 월은 1부터 12까지 입력해주세요", ErrInvalidInput)
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return s.repo.ByRange(ctx, userID, first, first.AddDate(0, 1, -1))
}

// TodayScheduled returns today's events that are still SCHEDULED.
func (s *Service) TodayScheduled(ctx context.Context, userID string) ([]Event, error) {
	events, err := s.ByDate(ctx, userID, s.today())
	if err != nil {
		return nil, err
	}
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if e.Status == StatusScheduled {
			out = append(out, e)
		}
	}
	return out, nil
}

// DeleteByTitle removes every event of the user with title and reports how many went.
func (s *Service) DeleteByTitle(ctx context.Context, userID, title string) (int, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, fmt.Errorf("%w: 일정 제목을 입력해주세요", ErrInvalidInput)
	}
	return s.repo.DeleteByTitle(ctx, userID, title)
}

// RecurringInput describes a repeating event.
type RecurringInput struct {
	CreateInput
	Recurrence Recurrence
}

// CreateRecurring expands a recurrence into individual events sharing one title.
func (s *Service) CreateRecurring(ctx context.Context, in RecurringInput) ([]Event, error) {
	in.Title = strings.TrimSpace(in.Title)
	dates, err := in.Recurrence.Dates()
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("%w: 기간 내 반복 일정이 없습니다", ErrInvalidInput)
	}
	in.EventDate = dates[0]
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.uniqueTitle(ctx, in.UserID, in.Title); err != nil {
		return nil, err
	}
	today := s.today()
	events := make([]Event, 0, len(dates))
	for _, d := range dates {
		single := in.CreateInput
		single.EventDate = d
		events = append(events, s.newEvent(single, today))
	}
	if err := s.repo.Create(ctx, events...); err != nil {
		return nil, fmt.Errorf("create recurring events: %w", err)
	}
	logging.FromContext(ctx).Info("recurring events created",
		slog.String("kind", in.Recurrence.Kind), slog.Int("count", len(events)))
	return events, nil
}

// RegisterSavingsSchedule copies the caller's savings payments into the calendar.
func (s *Service) RegisterSavingsSchedule(ctx context.Context, userID, accountNumber string) ([]Event, error) {
	acc, err := s.participantAccount(ctx, userID, accountNumber)
	if err != nil {
		return nil, err
	}
	if !acc.IsSavings() {
		return nil, ErrNotSavingsAccount
	}
	payments, err := s.savings.Payments(ctx, acc.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("load savings schedule: %w", err)
	}
	inputs := make([]CreateInput, 0, len(payments))
	for _, p := range payments {
		inputs = append(inputs, CreateInput{
			UserID:          userID,
			EventDate:       p.DueDate,
			TransactionType: Withdraw,
			EventType:       TypeSavings,
			Title:           savingsEventTitle,
			Description:     fmt.Sprintf("%s 적금 납입", acc.Number),
			Amount:          p.Amount,
			RelatedID:       p.ID,
		})
	}
	return s.registerSchedule(ctx, userID, inputs)
}

// RegisterLoanSchedule copies the repayment schedule of the loan booked on
// accountNumber into the calendar.
func (s *Service) RegisterLoanSchedule(ctx context.Context, userID, accountNumber string) ([]Event, error) {
	acc, err := s.participantAccount(ctx, userID, accountNumber)
	if err != nil {
		return nil, err
	}
	if !acc.IsLoan() {
		return nil, ErrNotLoanAccount
	}
	contracts, err := s.loans.Contracts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load contracts: %w", err)
	}
	var contract *loan.Contract
	for i := range contracts {
		if contracts[i].AccountID == acc.ID {
			contract = &contracts[i]
			break
		}
	}
	if contract == nil {
		return nil, ErrNoSchedule
	}
	repayments, err := s.loans.Repayments(ctx, contract.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("load repayments: %w", err)
	}
	inputs := make([]CreateInput, 0, len(repayments.Items))
	for _, r := range repayments.Items {
		inputs = append(inputs, CreateInput{
			UserID:          userID,
			EventDate:       r.DueDate,
			TransactionType: Withdraw,
			EventType:       TypeLoan,
			Title:           loanEventTitle,
			Description:     fmt.Sprintf("원금 %s, 이자 %s", format.Won(r.Principal), format.Won(r.Interest)),
			Amount:          r.Total,
			RelatedID:       r.ID,
		})
	}
	return s.registerSchedule(ctx, userID, inputs)
}

func (s *Service) registerSchedule(ctx context.Context, userID string, inputs []CreateInput) ([]Event, error) {
	if len(inputs) == 0 {
		return nil, ErrNoSchedule
	}
	ids := make([]string, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, in.RelatedID)
	}
	existing, err := s.repo.RelatedExisting(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: %d건", ErrAlreadyRegistered, len(existing))
	}
	today := s.today()
	events := make([]Event, 0, len(inputs))
	for _, in := range inputs {
		events = append(events, s.newEvent(in, today))
	}
	if err := s.repo.Create(ctx, events...); err != nil {
		return nil, fmt.Errorf("register schedule: %w", err)
	}
	logging.FromContext(ctx).Info("schedule registered on calendar",
		slog.String("title", events[0].Title), slog.Int("count", len(events)))
	return events, nil
}

// Summary analyses the user's spending in a month against the month before.
func (s *Service) Summary(ctx context.Context, userID string, year int, month time.Month) (Summary, error) {
	events, err := s.ByMonth(ctx, userID, year, month)
	if err != nil {
		return Summary{}, err
	}
	prevFirst := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	previous, err := s.ByMonth(ctx, userID, prevFirst.Year(), prevFirst.Month())
	if err != nil {
		return Summary{}, err
	}
	return Summarize(year, month, events, previous), nil
}

func (s *Service) participantAccount(ctx context.Context, userID, number string) (account.Account, error) {
	acc, err := s.accounts.GetByNumber(ctx, number)
	if err != nil {
		return account.Account{}, err
	}
	ok, err := s.accounts.IsParticipant(ctx, acc.ID, userID)
	if err != nil {
		return account.Account{}, err
	}
	if !ok {
		return account.Account{}, account.ErrForbidden
	}
	return acc, nil
}

func (s *Service) owned(ctx context.Context, id, userID string) (Event, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return Event{}, err
	}
	if e.UserID != userID {
		return Event{}, ErrForbidden
	}
	return e, nil
}

func (s *Service) uniqueTitle(ctx context.Context, userID, title string) error {
	exists, err := s.repo.TitleExists(ctx, userID, title)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTitle, title)
	}
	return nil
}

func (s *Service) newEvent(in CreateInput, today time.Time) Event {
	now := s.now().UTC()
	date := dateOnly(in.EventDate)
	return Event{
		ID:              uuid.NewString(),
		UserID:          in.UserID,
		EventDate:       date,
		TransactionType: in.TransactionType,
		EventType:       in.EventType,
		Title:           in.Title,
		Description:     in.Description,
		Amount:          in.Amount,
		Status:          statusFor(date, today),
		RelatedID:       in.RelatedID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (s *Service) today() time.Time {
	return dateOnly(s.now())
}
