package loan

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
	"github.com/hana-ti/home-planner/internal/format"
	"github.com/hana-ti/home-planner/internal/ledger"
	"github.com/hana-ti/home-planner/internal/logging"
	"github.com/hana-ti/home-planner/internal/notification"
)

const (
	disbursementMemo  = "대출 실행"
	emptyApplications = "대출 신청 내역이 없습니다."
	emptyRepayments   = "상환 스케줄이 없습니다."
)

var (
	ErrProductNotFound     = errors.New("loan product not found")
	ErrApplicationNotFound = errors.New("loan application not found")
	ErrInvitationNotFound  = errors.New("loan invitation not found")
	ErrContractNotFound    = errors.New("loan contract not found")
	ErrRepaymentNotFound   = errors.New("loan repayment not found")
	ErrInvalidInput        = errors.New("invalid loan input")
	ErrNotApplicant        = errors.New("only the applicant can perform this action")
	ErrNotJoint            = errors.New("application is not a joint loan")
	ErrInvalidStatus       = errors.New("operation not allowed in current status")
	ErrDuplicateInvitation = errors.New("a pending invitation already exists")
	ErrSelfInvitation      = errors.New("applicant cannot accept own invitation")
	ErrForbidden           = errors.New("loan is not accessible to user")
	ErrSelfReview          = errors.New("borrowers cannot review their own application")
)

// Accounts is the slice of the account service used by loans.
type Accounts interface {
	Open(ctx context.Context, input account.OpenInput) (account.Account, error)
	Get(ctx context.Context, id string) (account.Account, error)
	Balance(ctx context.Context, id string) (account.Balance, error)
	Deposit(ctx context.Context, input account.MovementInput) (ledger.TransactionResult, error)
	Transfer(ctx context.Context, input account.TransferInput) (account.TransferResult, error)
	AddParticipant(ctx context.Context, accountID, userID, role string, rate *decimal.Decimal) (account.Participant, error)
	IsParticipant(ctx context.Context, accountID, userID string) (bool, error)
}

// Service implements loan applications, joint invitations and approval.
type Service struct {
	repo     Repository
	accounts Accounts
	notifier notification.Notifier
	now      func() time.Time
}

// NewService wires the loan service.
func NewService(repo Repository, accounts Accounts, notifier notification.Notifier) *Service {
	return &Service{repo: repo, accounts: accounts, notifier: notifier, now: time.Now}
}

// Products lists the catalogue.
func (s *Service) Products(ctx context.Context) ([]Product, error) {
	return s.repo.ListProducts(ctx)
}

// Product returns one catalogue entry.
func (s *Service) Product(ctx context.Context, id string) (Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// ApplyInput captures a loan application.
type ApplyInput struct {
	UserID            string
	ProductID         string
	RequestAmount     int64
	TermMonths        int
	RepayType         string
	DisburseAccountID string
	DisburseDate      time.Time
	Joint             bool
}

// Apply records a loan application. Joint applications wait for the
// co-borrower before they can be approved.
func (s *Service) Apply(ctx context.Context, in ApplyInput) (Application, error) {
	product, err := s.repo.GetProduct(ctx, in.ProductID)
	if err != nil {
		return Application{}, err
	}
	if in.RepayType == "" {
		in.RepayType = product.RepayType
	}
	switch {
	case in.RequestAmount <= 0:
		return Application{}, fmt.Errorf("%w: request amount must be positive", ErrInvalidInput)
	case product.MaxAmount > 0 && in.RequestAmount > product.MaxAmount:
		return Application{}, fmt.Errorf("%w: request amount exceeds %s", ErrInvalidInput, format.Won(product.MaxAmount))
	case in.TermMonths <= 0:
		return Application{}, fmt.Errorf("%w: term must be positive", ErrInvalidInput)
	case product.MaxTermMonths > 0 && in.TermMonths > product.MaxTermMonths:
		return Application{}, fmt.Errorf("%w: term exceeds %d months", ErrInvalidInput, product.MaxTermMonths)
	case !validRepayType(in.RepayType):
		return Application{}, fmt.Errorf("%w: unknown repay type %q", ErrInvalidInput, in.RepayType)
	}

	disburse, err := s.accounts.Get(ctx, in.DisburseAccountID)
	if err != nil {
		return Application{}, fmt.Errorf("disburse account: %w", err)
	}
	ok, err := s.accounts.IsParticipant(ctx, disburse.ID, in.UserID)
	if err != nil {
		return Application{}, err
	}
	if !ok {
		return Application{}, account.ErrForbidden
	}

	now := s.now().UTC()
	disburseDate := in.DisburseDate
	if disburseDate.IsZero() {
		disburseDate = now
	}
	app := Application{
		ID:                uuid.NewString(),
		UserID:            in.UserID,
		ProductID:         product.ID,
		RequestAmount:     in.RequestAmount,
		TermMonths:        in.TermMonths,
		RepayType:         in.RepayType,
		DisburseAccountID: disburse.ID,
		DisburseDate:      dateOnly(disburseDate),
		Joint:             in.Joint || product.Joint,
		Status:            StatusPending,
		SubmittedAt:       now,
	}
	if app.Joint {
		app.Status = StatusWaitingForJoint
	}
	if err := s.repo.SaveApplication(ctx, app); err != nil {
		return Application{}, err
	}
	return app, nil
}

func validRepayType(t string) bool {
	return t == RepayEqualInstallment || t == RepayEqualPrincipal || t == RepayBullet
}

// Applications lists the caller's applications.
func (s *Service) Applications(ctx context.Context, userID string) (format.List[Application], error) {
	apps, err := s.repo.ApplicationsByUser(ctx, userID)
	if err != nil {
		return format.List[Application]{}, err
	}
	return format.NewList(apps, emptyApplications), nil
}

// Application returns one application visible to userID.
func (s *Service) Application(ctx context.Context, id, userID string) (Application, error) {
	app, err := s.repo.GetApplication(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if userID != "" && app.UserID != userID {
		return Application{}, ErrForbidden
	}
	return app, nil
}

// InviteInput describes a co-borrower invitation.
type InviteInput struct {
	ApplicationID string
	InviterID     string
	JointName     string
	JointPhone    string
}

// Invite creates a PENDING co-borrower invitation on a joint application.
func (s *Service) Invite(ctx context.Context, in InviteInput) (Invitation, error) {
	app, err := s.repo.GetApplication(ctx, in.ApplicationID)
	if err != nil {
		return Invitation{}, err
	}
	if app.UserID != in.InviterID {
		return Invitation{}, ErrNotApplicant
	}
	if !app.Joint {
		return Invitation{}, ErrNotJoint
	}
	if app.Status != StatusWaitingForJoint {
		return Invitation{}, fmt.Errorf("%w: application is %s", ErrInvalidStatus, app.Status)
	}
	existing, err := s.repo.Invitations(ctx, InvitationFilter{ApplicationID: app.ID})
	if err != nil {
		return Invitation{}, err
	}
	for _, inv := range existing {
		if inv.Status == InvitePending {
			return Invitation{}, ErrDuplicateInvitation
		}
	}
	inv := Invitation{
		ID:            uuid.NewString(),
		ApplicationID: app.ID,
		InviterID:     in.InviterID,
		JointName:     strings.TrimSpace(in.JointName),
		JointPhone:    strings.TrimSpace(in.JointPhone),
		Status:        InvitePending,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.repo.SaveInvitation(ctx, inv); err != nil {
		return Invitation{}, err
	}
	s.notify(ctx, notification.KindJointLoanInvite, in.InviterID,
		fmt.Sprintf("공동대출 초대장이 생성되었습니다. 초대코드: %s", inv.ID))
	return inv, nil
}

// Invitation returns one invitation.
func (s *Service) Invitation(ctx context.Context, id string) (Invitation, error) {
	return s.repo.GetInvitation(ctx, id)
}

// AcceptInvitation makes userID the co-borrower and moves the application to JOINT_ACCEPTED.
func (s *Service) AcceptInvitation(ctx context.Context, inviteID, userID string) (Invitation, error) {
	inv, err := s.pendingInvitation(ctx, inviteID)
	if err != nil {
		return Invitation{}, err
	}
	if inv.InviterID == userID {
		return Invitation{}, ErrSelfInvitation
	}
	app, err := s.repo.GetApplication(ctx, inv.ApplicationID)
	if err != nil {
		return Invitation{}, err
	}
	if app.Status != StatusWaitingForJoint {
		return Invitation{}, fmt.Errorf("%w: application is %s", ErrInvalidStatus, app.Status)
	}

	now := s.now().UTC()
	inv.Status = InviteAccepted
	inv.InviteeID = userID
	inv.RespondedAt = &now
	if err := s.repo.SaveInvitation(ctx, inv); err != nil {
		return Invitation{}, err
	}
	app.Status = StatusJointAccepted
	app.Remarks = "공동대출자 초대 수락"
	if err := s.repo.SaveApplication(ctx, app); err != nil {
		return Invitation{}, err
	}
	s.notify(ctx, notification.KindJointAccepted, inv.InviterID, "공동대출 초대가 수락되었습니다.")
	return inv, nil
}

// RejectInvitation declines a PENDING invitation.
func (s *Service) RejectInvitation(ctx context.Context, inviteID, userID string) (Invitation, error) {
	inv, err := s.pendingInvitation(ctx, inviteID)
	if err != nil {
		return Invitation{}, err
	}
	if inv.InviterID == userID {
		return Invitation{}, ErrSelfInvitation
	}
	now := s.now().UTC()
	inv.Status = InviteRejected
	inv.InviteeID = userID
	inv.RespondedAt = &now
	if err := s.repo.SaveInvitation(ctx, inv); err != nil {
		return Invitation{}, err
	}
	return inv, nil
}

func (s *Service) pendingInvitation(ctx context.Context, id string) (Invitation, error) {
	inv, err := s.repo.GetInvitation(ctx, id)
	if err != nil {
		return Invitation{}, err
	}
	if inv.Status != InvitePending {
		return Invitation{}, fmt.Errorf("%w: invitation is %s", ErrInvalidStatus, inv.Status)
	}
	return inv, nil
}

// Invitations lists invitations by application or inviter.
func (s *Service) Invitations(ctx context.Context, filter InvitationFilter) ([]Invitation, error) {
	return s.repo.Invitations(ctx, filter)
}

// ApproveInput captures the reviewer's decision. Zero values fall back to
// the application's request and the product rate.
type ApproveInput struct {
	ApplicationID string
	ReviewerID    string
	Amount        int64
	Rate          decimal.Decimal
	TermMonths    int
	Remarks       string
}

// Approval is the outcome of an approval.
type Approval struct {
	Application    Application     `json:"application"`
	Contract       Contract        `json:"contract"`
	Account        account.Account `json:"loanAccount"`
	RepaymentCount int             `json:"repaymentScheduleCount"`
	Disbursed      int64           `json:"disbursedAmount"`
}

// Approve opens the loan account, records the contract and its repayment
// schedule and disburses the amount to the disburse account.
func (s *Service) Approve(ctx context.Context, in ApproveInput) (Approval, error) {
	app, err := s.repo.GetApplication(ctx, in.ApplicationID)
	if err != nil {
		return Approval{}, err
	}
	switch {
	case app.Joint && app.Status != StatusJointAccepted,
		!app.Joint && app.Status != StatusPending:
		return Approval{}, fmt.Errorf("%w: application is %s", ErrInvalidStatus, app.Status)
	}
	if in.ReviewerID == "" || in.ReviewerID == app.UserID {
		return Approval{}, ErrSelfReview
	}
	product, err := s.repo.GetProduct(ctx, app.ProductID)
	if err != nil {
		return Approval{}, err
	}
	amount := in.Amount
	if amount <= 0 {
		amount = app.RequestAmount
	}
	term := in.TermMonths
	if term <= 0 {
		term = app.TermMonths
	}
	rate := in.Rate
	if !rate.IsPositive() {
		rate = product.InterestRate
	}

	var coBorrower string
	if app.Joint {
		invites, err := s.repo.Invitations(ctx, InvitationFilter{ApplicationID: app.ID})
		if err != nil {
			return Approval{}, err
		}
		for _, inv := range invites {
			if inv.Status == InviteAccepted {
				coBorrower = inv.InviteeID
				break
			}
		}
	}

	if coBorrower != "" && coBorrower == in.ReviewerID {
		return Approval{}, ErrSelfReview
	}

	accountType := account.TypeLoan
	if app.Joint {
		accountType = account.TypeJointLoan
	}
	acc, err := s.accounts.Open(ctx, account.OpenInput{UserID: app.UserID, ProductID: product.ID, Type: accountType})
	if err != nil {
		return Approval{}, fmt.Errorf("open loan account: %w", err)
	}
	if coBorrower != "" {
		half := decimal.NewFromInt(50)
		if _, err := s.accounts.AddParticipant(ctx, acc.ID, coBorrower, account.RoleJoint, &half); err != nil {
			return Approval{}, fmt.Errorf("add co-borrower: %w", err)
		}
	}

	now := s.now().UTC()
	contract := Contract{
		ID:                uuid.NewString(),
		ApplicationID:     app.ID,
		UserID:            app.UserID,
		ProductID:         product.ID,
		AccountID:         acc.ID,
		Amount:            amount,
		Rate:              rate,
		StartDate:         app.DisburseDate,
		EndDate:           app.DisburseDate.AddDate(0, term, 0),
		RepayType:         app.RepayType,
		DisburseAccountID: app.DisburseAccountID,
		Status:            ContractActive,
		CreatedAt:         now,
	}
	if err := s.repo.CreateContract(ctx, contract); err != nil {
		return Approval{}, err
	}
	repayments := BuildRepayments(contract, term)
	if err := s.repo.SaveRepayments(ctx, repayments); err != nil {
		return Approval{}, err
	}

	clientTxID := "loan-disburse:" + app.ID
	if _, err := s.accounts.Deposit(ctx, account.MovementInput{
		AccountID:  app.DisburseAccountID,
		Amount:     amount,
		ClientTxID: clientTxID,
		Memo:       disbursementMemo,
	}); err != nil {
		return Approval{}, fmt.Errorf("disburse: %w", err)
	}

	app.Status = StatusApproved
	app.ReviewedAt = &now
	app.ReviewerID = in.ReviewerID
	app.Remarks = in.Remarks
	if err := s.repo.SaveApplication(ctx, app); err != nil {
		return Approval{}, err
	}
	logging.FromContext(ctx).Info("loan approved",
		slog.String("application_id", app.ID),
		slog.String("loan_id", contract.ID),
		slog.Int64("amount", amount),
		slog.Int("repayments", len(repayments)))
	return Approval{Application: app, Contract: contract, Account: acc, RepaymentCount: len(repayments), Disbursed: amount}, nil
}

// Reject declines an application that has not been approved yet.
func (s *Service) Reject(ctx context.Context, applicationID, reviewerID, remarks string) (Application, error) {
	app, err := s.repo.GetApplication(ctx, applicationID)
	if err != nil {
		return Application{}, err
	}
	if app.Status == StatusApproved || app.Status == StatusRejected {
		return Application{}, fmt.Errorf("%w: application is %s", ErrInvalidStatus, app.Status)
	}
	if reviewerID == "" || reviewerID == app.UserID {
		return Application{}, ErrSelfReview
	}
	now := s.now().UTC()
	app.Status = StatusRejected
	app.ReviewedAt = &now
	app.ReviewerID = reviewerID
	app.Remarks = remarks
	if err := s.repo.SaveApplication(ctx, app); err != nil {
		return Application{}, err
	}
	return app, nil
}

// Contracts lists the caller's loans.
func (s *Service) Contracts(ctx context.Context, userID string) ([]Contract, error) {
	return s.repo.Contracts(ctx, userID, "")
}

// Repayments returns a contract's schedule for a borrower or co-borrower.
func (s *Service) Repayments(ctx context.Context, loanID, userID string) (format.List[Repayment], error) {
	c, err := s.repo.GetContract(ctx, loanID)
	if err != nil {
		return format.List[Repayment]{}, err
	}
	if userID != "" && c.UserID != userID {
		ok, err := s.accounts.IsParticipant(ctx, c.AccountID, userID)
		if err != nil {
			return format.List[Repayment]{}, err
		}
		if !ok {
			return format.List[Repayment]{}, ErrForbidden
		}
	}
	items, err := s.repo.Repayments(ctx, c.ID)
	if err != nil {
		return format.List[Repayment]{}, err
	}
	return format.NewList(items, emptyRepayments), nil
}

func (s *Service) notify(ctx context.Context, kind, userID, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, notification.Message{Kind: kind, Destination: userID, Body: body}); err != nil {
		logging.FromContext(ctx).Warn("notification failed", slog.String("kind", kind), slog.Any("error", err))
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
