package mydata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validRepayMethods = map[string]bool{"원리금균등": true, "원금균등": true, "만기일시": true}

// Service manages financial profiles and external loans.
type Service struct {
	repo Repository
}

// NewService creates a mydata service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Profile returns the stored profile of userID.
func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// SaveProfile validates and stores a profile.
func (s *Service) SaveProfile(ctx context.Context, p Profile) (Profile, error) {
	if p.UserID == "" {
		return Profile{}, errors.New("user id is required")
	}
	if p.AnnualIncome.IsNegative() {
		return Profile{}, errors.New("annual income must not be negative")
	}
	p.CreditGrade = strings.TrimSpace(p.CreditGrade)
	p.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpsertProfile(ctx, p); err != nil {
		return Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

// Loans lists a user's external loans.
func (s *Service) Loans(ctx context.Context, userID string) ([]Loan, error) {
	return s.repo.ListLoans(ctx, userID)
}

// AddLoan registers an external loan.
func (s *Service) AddLoan(ctx context.Context, loan Loan) (Loan, error) {
	if !loan.Balance.IsPositive() {
		return Loan{}, errors.New("balance must be positive")
	}
	if loan.InterestRate.IsNegative() {
		return Loan{}, errors.New("interest rate must not be negative")
	}
	switch loan.LoanType {
	case LoanTypeBank, LoanTypeCard, LoanTypeInstallment, LoanTypeInsurance:
	case "":
		loan.LoanType = LoanTypeBank
	default:
		return Loan{}, fmt.Errorf("unknown loan type %q", loan.LoanType)
	}
	if loan.RepayMethod != "" && !validRepayMethods[loan.RepayMethod] {
		return Loan{}, fmt.Errorf("unknown repay method %q", loan.RepayMethod)
	}
	loan.ID = uuid.New().String()
	loan.CreatedAt = time.Now().UTC()
	if err := s.repo.CreateLoan(ctx, loan); err != nil {
		return Loan{}, fmt.Errorf("create loan: %w", err)
	}
	return loan, nil
}

// RemoveLoan deletes an external loan owned by userID.
func (s *Service) RemoveLoan(ctx context.Context, userID, loanID string) error {
	return s.repo.DeleteLoan(ctx, userID, loanID)
}

// AnnualIncome returns the profile income when one is recorded and positive.
func (s *Service) AnnualIncome(ctx context.Context, userID string) (decimal.Decimal, bool) {
	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil || !p.AnnualIncome.IsPositive() {
		return decimal.Zero, false
	}
	return p.AnnualIncome, true
}
