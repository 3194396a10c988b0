package calculation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/hana-ti/home-planner/internal/mydata"
)

// ProfileSource supplies stored incomes and existing loans.
type ProfileSource interface {
	AnnualIncome(ctx context.Context, userID string) (decimal.Decimal, bool)
	Loans(ctx context.Context, userID string) ([]mydata.Loan, error)
}

// PartnerFinder resolves the partner of a user's active couple.
type PartnerFinder interface {
	PartnerID(ctx context.Context, userID string) (string, bool, error)
}

// Service resolves the inputs of a calculation and caches the results.
type Service struct {
	calc     *Calculator
	profiles ProfileSource
	partners PartnerFinder
	cache    Cache
}

// NewService wires a calculation service. cache may be nil.
func NewService(calc *Calculator, profiles ProfileSource, partners PartnerFinder, cache Cache) *Service {
	if cache == nil {
		cache = nopCache{}
	}
	return &Service{calc: calc, profiles: profiles, partners: partners, cache: cache}
}

// LTV computes an LTV result.
func (s *Service) LTV(ctx context.Context, req LTVRequest) (LTVResult, error) {
	if err := req.Validate(); err != nil {
		return LTVResult{}, invalid(err)
	}
	key, err := cacheKey("ltv", req)
	if err != nil {
		return LTVResult{}, err
	}
	return cached(ctx, s.cache, key, s.calc.now, func() (LTVResult, error) {
		return s.calc.LTV(req), nil
	})
}

// CoupleLTV computes an LTV result with the household incomes of userID's couple.
func (s *Service) CoupleLTV(ctx context.Context, userID string, req LTVRequest) (CoupleLTVResult, error) {
	if err := req.Validate(); err != nil {
		return CoupleLTVResult{}, invalid(err)
	}
	partnerID, err := s.partner(ctx, userID)
	if err != nil {
		return CoupleLTVResult{}, err
	}
	income := s.income(ctx, userID, decimal.Zero)
	spouseIncome := s.spouseIncome(ctx, partnerID)
	key, err := cacheKey("ltv-couple", req, income, spouseIncome)
	if err != nil {
		return CoupleLTVResult{}, err
	}
	return cached(ctx, s.cache, key, s.calc.now, func() (CoupleLTVResult, error) {
		return s.calc.CoupleLTV(req, income, spouseIncome), nil
	})
}

// DSR computes a DSR result. userID may be empty for anonymous callers.
func (s *Service) DSR(ctx context.Context, userID string, req DSRRequest) (DSRResult, error) {
	if err := req.Validate(); err != nil {
		return DSRResult{}, invalid(err)
	}
	income := s.income(ctx, userID, req.AnnualIncome)
	debt, err := s.debt(ctx, userID)
	if err != nil {
		return DSRResult{}, err
	}
	key, err := cacheKey("dsr", req, income, debt)
	if err != nil {
		return DSRResult{}, err
	}
	return cached(ctx, s.cache, key, s.calc.now, func() (DSRResult, error) {
		return s.calc.DSR(req, income, debt), nil
	})
}

// CoupleDSR computes a DSR result over userID and their partner.
func (s *Service) CoupleDSR(ctx context.Context, userID string, req DSRRequest) (CoupleDSRResult, error) {
	if err := req.Validate(); err != nil {
		return CoupleDSRResult{}, invalid(err)
	}
	partnerID, err := s.partner(ctx, userID)
	if err != nil {
		return CoupleDSRResult{}, err
	}
	income := s.income(ctx, userID, req.AnnualIncome)
	spouseIncome := s.spouseIncome(ctx, partnerID)
	debt, err := s.debt(ctx, userID)
	if err != nil {
		return CoupleDSRResult{}, err
	}
	spouseDebt, err := s.debt(ctx, partnerID)
	if err != nil {
		return CoupleDSRResult{}, err
	}
	key, err := cacheKey("dsr-couple", req, income, spouseIncome, debt, spouseDebt)
	if err != nil {
		return CoupleDSRResult{}, err
	}
	return cached(ctx, s.cache, key, s.calc.now, func() (CoupleDSRResult, error) {
		return s.calc.CoupleDSR(req, income, spouseIncome, debt, spouseDebt), nil
	})
}

// DTI computes a DTI result. userID may be empty for anonymous callers.
func (s *Service) DTI(ctx context.Context, userID string, req DTIRequest) (DTIResult, error) {
	if err := req.Validate(); err != nil {
		return DTIResult{}, invalid(err)
	}
	income := s.income(ctx, userID, req.AnnualIncome)
	debt, err := s.debt(ctx, userID)
	if err != nil {
		return DTIResult{}, err
	}
	key, err := cacheKey("dti", req, income, debt)
	if err != nil {
		return DTIResult{}, err
	}
	return cached(ctx, s.cache, key, s.calc.now, func() (DTIResult, error) {
		return s.calc.DTI(req, income, debt), nil
	})
}

// CoupleDTI computes a DTI result over userID and their partner.
func (s *Service) CoupleDTI(ctx context.Context, userID string, req DTIRequest) (CoupleDTIResult, error) {
	if err := req.Validate(); err != nil {
		return CoupleDTIResult{}, invalid(err)
	}
	partnerID, err := s.partner(ctx, userID)
	if err != nil {
		return CoupleDTIResult{}, err
	}
	income := s.income(ctx, userID, req.AnnualIncome)
	spouseIncome := s.spouseIncome(ctx, partnerID)
	debt, err := s.debt(ctx, userID)
	if err != nil {
		return CoupleDTIResult{}, err
	}
	spouseDebt, err := s.debt(ctx, partnerID)
	if err != nil {
		return CoupleDTIResult{}, err
	}
	key, err := cacheKey("dti-couple", req, income, spouseIncome, debt, spouseDebt)
	if err != nil {
		return CoupleDTIResult{}, err
	}
	return cached(ctx, s.cache, key, s.calc.now, func() (CoupleDTIResult, error) {
		return s.calc.CoupleDTI(req, income, spouseIncome, debt, spouseDebt), nil
	})
}

// Summary evaluates LTV, DSR and DTI concurrently and reports the tightest ceiling.
func (s *Service) Summary(ctx context.Context, userID string, req SummaryRequest) (Summary, error) {
	var out Summary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := s.LTV(gctx, LTVRequest{
			HousePrice:    req.HousePrice,
			Region:        req.Region,
			HousingStatus: req.HousingStatus,
			InterestRate:  req.InterestRate,
			LoanPeriod:    req.LoanPeriod,
			CreditGrade:   req.CreditGrade,
		})
		if err != nil {
			return fmt.Errorf("ltv: %w", err)
		}
		out.LTV = res
		return nil
	})
	g.Go(func() error {
		res, err := s.DSR(gctx, userID, DSRRequest{
			Region:              req.Region,
			AnnualIncome:        req.AnnualIncome,
			DesiredLoanAmount:   req.LoanAmount,
			DesiredInterestRate: req.InterestRate,
			DesiredLoanPeriod:   req.LoanPeriod,
			RepayMethod:         req.RepayMethod,
		})
		if err != nil {
			return fmt.Errorf("dsr: %w", err)
		}
		out.DSR = res
		return nil
	})
	g.Go(func() error {
		res, err := s.DTI(gctx, userID, DTIRequest{
			Region:              req.Region,
			AnnualIncome:        req.AnnualIncome,
			DesiredLoanAmount:   req.LoanAmount,
			DesiredInterestRate: req.InterestRate,
			DesiredLoanPeriod:   req.LoanPeriod,
			RepayMethod:         req.RepayMethod,
		})
		if err != nil {
			return fmt.Errorf("dti: %w", err)
		}
		out.DTI = res
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	bindingConstraint(&out)
	return out, nil
}

// Plans proposes loan plans. Signed-in callers default to their stored income
// and the monthly repayments of their existing loans.
func (s *Service) Plans(ctx context.Context, userID string, req PlanRequest) (PlanResult, error) {
	if err := req.Validate(); err != nil {
		return PlanResult{}, invalid(err)
	}
	req.AnnualIncome = s.income(ctx, userID, req.AnnualIncome)
	if req.ExistingMonthlyPayment.IsZero() && userID != "" {
		debt, err := s.debt(ctx, userID)
		if err != nil {
			return PlanResult{}, err
		}
		req.ExistingMonthlyPayment = AnnualToMonthly(debt.AnnualPayment)
	}
	return s.calc.Plans(req), nil
}

// Policy exposes the policy the service computes with.
func (s *Service) Policy() Policy {
	return s.calc.Policy()
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

func (s *Service) partner(ctx context.Context, userID string) (string, error) {
	if userID == "" || s.partners == nil {
		return "", ErrNoPartner
	}
	partnerID, ok, err := s.partners.PartnerID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("find partner: %w", err)
	}
	if !ok {
		return "", ErrNoPartner
	}
	return partnerID, nil
}

func (s *Service) income(ctx context.Context, userID string, requested decimal.Decimal) decimal.Decimal {
	if requested.IsPositive() {
		return requested
	}
	if userID != "" && s.profiles != nil {
		if v, ok := s.profiles.AnnualIncome(ctx, userID); ok {
			return v
		}
	}
	return s.calc.policy.DefaultAnnualIncome
}

func (s *Service) spouseIncome(ctx context.Context, partnerID string) decimal.Decimal {
	if s.profiles == nil {
		return decimal.Zero
	}
	v, _ := s.profiles.AnnualIncome(ctx, partnerID)
	return v
}

func (s *Service) debt(ctx context.Context, userID string) (ExistingDebt, error) {
	if userID == "" || s.profiles == nil {
		return s.calc.ExistingDebt(nil), nil
	}
	loans, err := s.profiles.Loans(ctx, userID)
	if err != nil {
		return ExistingDebt{}, fmt.Errorf("load existing loans: %w", err)
	}
	return s.calc.ExistingDebt(loans), nil
}
