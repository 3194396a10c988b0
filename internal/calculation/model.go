package calculation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DTI verdicts.
const (
	DTIPass = "PASS"
	DTIFail = "FAIL"
)

const (
	maxLoanYears = 50
	maxRate      = 20
)

var (
	// ErrNoPartner is returned for couple calculations when the caller has no active couple.
	ErrNoPartner = errors.New("no active couple found")
	// ErrInvalidInput wraps request validation failures.
	ErrInvalidInput = errors.New("invalid calculation input")
)

// LTVRequest asks how much can be borrowed against a house.
type LTVRequest struct {
	HousePrice      decimal.Decimal `json:"housePrice"`
	Region          string          `json:"region"`
	HousingStatus   string          `json:"housingStatus"`
	InterestRate    decimal.Decimal `json:"interestRate"`
	LoanPeriod      int             `json:"loanPeriod"`
	CreditGrade     string          `json:"creditGrade,omitempty"`
	CollateralRatio decimal.Decimal `json:"collateralRatio"`
}

// Validate checks the LTV inputs.
func (r LTVRequest) Validate() error {
	if !r.HousePrice.IsPositive() {
		return errors.New("housePrice must be positive")
	}
	if strings.TrimSpace(r.Region) == "" {
		return errors.New("region is required")
	}
	if strings.TrimSpace(r.HousingStatus) == "" {
		return errors.New("housingStatus is required")
	}
	if err := validateRate(r.InterestRate); err != nil {
		return err
	}
	return validatePeriod(r.LoanPeriod)
}

// LTVResult reports the limit and what repaying the maximum loan costs.
type LTVResult struct {
	Region                      string           `json:"region"`
	RegionType                  string           `json:"regionType"`
	IsRegulationArea            bool             `json:"isRegulationArea"`
	HousingStatus               string           `json:"housingStatus"`
	LTVLimit                    decimal.Decimal  `json:"ltvLimit"`
	HousePrice                  decimal.Decimal  `json:"housePrice"`
	MaxLoanAmount               decimal.Decimal  `json:"maxLoanAmount"`
	CreditGrade                 string           `json:"creditGrade,omitempty"`
	CollateralRatio             *decimal.Decimal `json:"collateralRatio,omitempty"`
	MaxLoanAmountWithCollateral *decimal.Decimal `json:"maxLoanAmountWithCollateral,omitempty"`
	LoanPeriod                  int              `json:"loanPeriod"`
	InterestRate                decimal.Decimal  `json:"interestRate"`
	MonthlyPayment              decimal.Decimal  `json:"monthlyPayment"`
	TotalRepaymentAmount        decimal.Decimal  `json:"totalRepaymentAmount"`
	StressRate                  decimal.Decimal  `json:"stressRate"`
	StressMonthlyPayment        decimal.Decimal  `json:"stressMonthlyPayment"`
	StressTotalRepaymentAmount  decimal.Decimal  `json:"stressTotalRepaymentAmount"`
	CalculationDate             string           `json:"calculationDate"`
	Message                     string           `json:"message"`
}

// CoupleLTVResult adds the household income to an LTV result.
type CoupleLTVResult struct {
	LTVResult
	CoupleTotalAnnualIncome decimal.Decimal `json:"coupleTotalAnnualIncome"`
	SpouseAnnualIncome      decimal.Decimal `json:"spouseAnnualIncome"`
}

// DSRRequest describes a desired loan for a debt-service ratio check.
// Zero AnnualIncome or DSRLimit means "use the stored or default value".
type DSRRequest struct {
	Region              string          `json:"region"`
	AnnualIncome        decimal.Decimal `json:"annualIncome"`
	DesiredLoanAmount   decimal.Decimal `json:"desiredLoanAmount"`
	DesiredInterestRate decimal.Decimal `json:"desiredInterestRate"`
	DesiredLoanPeriod   int             `json:"desiredLoanPeriod"`
	RepayMethod         string          `json:"repayMethod"`
	DSRLimit            decimal.Decimal `json:"dsrLimit"`
}

// Validate checks the DSR inputs.
func (r DSRRequest) Validate() error {
	return validateDesired(r.AnnualIncome, r.DesiredLoanAmount, r.DesiredInterestRate, r.DesiredLoanPeriod, r.RepayMethod, r.DSRLimit)
}

// DSRResult reports the ratio at the base and stress rates and the headroom left.
type DSRResult struct {
	Region                         string          `json:"region"`
	AnnualIncome                   decimal.Decimal `json:"annualIncome"`
	DSRLimit                       decimal.Decimal `json:"dsrLimit"`
	ExistingLoanAnnualPayment      decimal.Decimal `json:"existingLoanAnnualPayment"`
	ExistingLoanCount              int             `json:"existingLoanCount"`
	DesiredLoanAmount              decimal.Decimal `json:"desiredLoanAmount"`
	DesiredInterestRate            decimal.Decimal `json:"desiredInterestRate"`
	DesiredLoanPeriod              int             `json:"desiredLoanPeriod"`
	RepayMethod                    string          `json:"repayMethod"`
	BaseMonthlyPayment             decimal.Decimal `json:"baseMonthlyPayment"`
	BaseAnnualPayment              decimal.Decimal `json:"baseAnnualPayment"`
	BaseTotalPayment               decimal.Decimal `json:"baseTotalPayment"`
	BaseDSR                        decimal.Decimal `json:"baseDsr"`
	BaseDSRStatus                  string          `json:"baseDsrStatus"`
	StressRate                     decimal.Decimal `json:"stressRate"`
	StressMonthlyPayment           decimal.Decimal `json:"stressMonthlyPayment"`
	StressAnnualPayment            decimal.Decimal `json:"stressAnnualPayment"`
	StressTotalPayment             decimal.Decimal `json:"stressTotalPayment"`
	StressDSR                      decimal.Decimal `json:"stressDsr"`
	StressDSRStatus                string          `json:"stressDsrStatus"`
	MaxLoanAmountForBaseRate       decimal.Decimal `json:"maxLoanAmountForBaseRate"`
	MaxLoanAmountForStressRate     decimal.Decimal `json:"maxLoanAmountForStressRate"`
	MaxMonthlyPaymentForBaseRate   decimal.Decimal `json:"maxMonthlyPaymentForBaseRate"`
	MaxMonthlyPaymentForStressRate decimal.Decimal `json:"maxMonthlyPaymentForStressRate"`
	MaxAnnualPaymentForBaseRate    decimal.Decimal `json:"maxAnnualPaymentForBaseRate"`
	MaxAnnualPaymentForStressRate  decimal.Decimal `json:"maxAnnualPaymentForStressRate"`
	CalculationDate                string          `json:"calculationDate"`
	Message                        string          `json:"message"`
}

// CoupleDSRResult is a DSR computed over the household.
type CoupleDSRResult struct {
	DSRResult
	SpouseAnnualIncome              decimal.Decimal `json:"spouseAnnualIncome"`
	SpouseExistingLoanAnnualPayment decimal.Decimal `json:"spouseExistingLoanAnnualPayment"`
}

// DTIRequest describes a desired loan for a debt-to-income check.
type DTIRequest struct {
	Region              string          `json:"region"`
	AnnualIncome        decimal.Decimal `json:"annualIncome"`
	DesiredLoanAmount   decimal.Decimal `json:"desiredLoanAmount"`
	DesiredInterestRate decimal.Decimal `json:"desiredInterestRate"`
	DesiredLoanPeriod   int             `json:"desiredLoanPeriod"`
	RepayMethod         string          `json:"repayMethod"`
	DTILimit            decimal.Decimal `json:"dtiLimit"`
}

// Validate checks the DTI inputs.
func (r DTIRequest) Validate() error {
	return validateDesired(r.AnnualIncome, r.DesiredLoanAmount, r.DesiredInterestRate, r.DesiredLoanPeriod, r.RepayMethod, r.DTILimit)
}

// DTIResult reports the debt-to-income verdict.
type DTIResult struct {
	Region                          string          `json:"region"`
	AnnualIncome                    decimal.Decimal `json:"annualIncome"`
	DTILimit                        decimal.Decimal `json:"dtiLimit"`
	MaxAllowedAnnualPayment         decimal.Decimal `json:"maxAllowedAnnualPayment"`
	ExistingMortgageAnnualPayment   decimal.Decimal `json:"existingMortgageAnnualPayment"`
	ExistingOtherLoanAnnualInterest decimal.Decimal `json:"existingOtherLoanAnnualInterest"`
	TotalExistingAnnualPayment      decimal.Decimal `json:"totalExistingAnnualPayment"`
	ExistingLoanCount               int             `json:"existingLoanCount"`
	DesiredInterestRate             decimal.Decimal `json:"desiredInterestRate"`
	DesiredLoanPeriod               int             `json:"desiredLoanPeriod"`
	DesiredLoanAmount               decimal.Decimal `json:"desiredLoanAmount"`
	DesiredLoanAnnualPayment        decimal.Decimal `json:"desiredLoanAnnualPayment"`
	DesiredLoanMonthlyPayment       decimal.Decimal `json:"desiredLoanMonthlyPayment"`
	TotalAnnualPayment              decimal.Decimal `json:"totalAnnualPayment"`
	DTIRatio                        decimal.Decimal `json:"dtiRatio"`
	DTIStatus                       string          `json:"dtiStatus"`
	AvailableAnnualPayment          decimal.Decimal `json:"availableAnnualPayment"`
	MaxLoanAmountForDTILimit        decimal.Decimal `json:"maxLoanAmountForDtiLimit"`
	MaxMonthlyPaymentForDTILimit    decimal.Decimal `json:"maxMonthlyPaymentForDtiLimit"`
	MaxAnnualPaymentForDTILimit     decimal.Decimal `json:"maxAnnualPaymentForDtiLimit"`
	CalculationDate                 string          `json:"calculationDate"`
	Message                         string          `json:"message"`
}

// CoupleDTIResult is a DTI computed over the household.
type CoupleDTIResult struct {
	DTIResult
	SpouseAnnualIncome decimal.Decimal `json:"spouseAnnualIncome"`
}

// SummaryRequest carries everything the three ratios need.
type SummaryRequest struct {
	HousePrice    decimal.Decimal `json:"housePrice"`
	Region        string          `json:"region"`
	HousingStatus string          `json:"housingStatus"`
	CreditGrade   string          `json:"creditGrade,omitempty"`
	AnnualIncome  decimal.Decimal `json:"annualIncome"`
	LoanAmount    decimal.Decimal `json:"loanAmount"`
	InterestRate  decimal.Decimal `json:"interestRate"`
	LoanPeriod    int             `json:"loanPeriod"`
	RepayMethod   string          `json:"repayMethod"`
}

// Summary bundles the three ratios and the tightest loan ceiling among them.
type Summary struct {
	LTV               LTVResult       `json:"ltv"`
	DSR               DSRResult       `json:"dsr"`
	DTI               DTIResult       `json:"dti"`
	MaxLoanAmount     decimal.Decimal `json:"maxLoanAmount"`
	BindingConstraint string          `json:"bindingConstraint"`
}

// ExistingDebt aggregates a borrower's outstanding loans.
type ExistingDebt struct {
	AnnualPayment         decimal.Decimal
	MortgageAnnualPayment decimal.Decimal
	OtherAnnualInterest   decimal.Decimal
	Count                 int
}

// Add sums two debt positions.
func (d ExistingDebt) Add(o ExistingDebt) ExistingDebt {
	return ExistingDebt{
		AnnualPayment:         d.AnnualPayment.Add(o.AnnualPayment),
		MortgageAnnualPayment: d.MortgageAnnualPayment.Add(o.MortgageAnnualPayment),
		OtherAnnualInterest:   d.OtherAnnualInterest.Add(o.OtherAnnualInterest),
		Count:                 d.Count + o.Count,
	}
}

func validateDesired(income, amount, rate decimal.Decimal, years int, method string, limit decimal.Decimal) error {
	if income.IsNegative() {
		return errors.New("annualIncome must not be negative")
	}
	if !amount.IsPositive() {
		return errors.New("desiredLoanAmount must be positive")
	}
	if err := validateRate(rate); err != nil {
		return err
	}
	if err := validatePeriod(years); err != nil {
		return err
	}
	switch method {
	case "", RepayEqualPayment, RepayEqualPrincipal, RepayBullet:
	default:
		return fmt.Errorf("unknown repayMethod %q", method)
	}
	if limit.IsNegative() || limit.GreaterThan(hundred) {
		return errors.New("limit must be between 0 and 100")
	}
	return nil
}

func validateRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(maxRate)) {
		return fmt.Errorf("interest rate must be between 0 and %d", maxRate)
	}
	return nil
}

func validatePeriod(years int) error {
	if years < 1 || years > maxLoanYears {
		return fmt.Errorf("loan period must be between 1 and %d years", maxLoanYears)
	}
	return nil
}

func (r *LTVResult) stamp(at time.Time) { r.CalculationDate = at.Format(dateLayout) }
func (r *DSRResult) stamp(at time.Time) { r.CalculationDate = at.Format(dateLayout) }
func (r *DTIResult) stamp(at time.Time) { r.CalculationDate = at.Format(dateLayout) }
