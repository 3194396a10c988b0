package calculation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Plan types, from the largest loan to the smallest.
const (
	PlanBalanced = "BALANCED"
	PlanEasy     = "EASY"
	PlanFrugal   = "FRUGAL"
)

// Plan generation outcomes.
const (
	PlanStatusSuccess = "SUCCESS"
	PlanStatusPartial = "PARTIAL_SUCCESS"
	PlanStatusFailed  = "FAILED"
)

// planTarget is the share of the DSR limit a plan aims for.
type planTarget struct {
	kind           string
	share          decimal.Decimal
	description    string
	recommendation string
	recommended    bool
	name           string
}

var planTargets = []planTarget{
	{
		kind:           PlanBalanced,
		share:          decimal.RequireFromString("0.80"),
		name:           "균형형",
		description:    "균형형 플랜 - DSR 한도에 근접한 안정적인 대출 플랜",
		recommendation: "가장 추천하는 기본 플랜입니다. 안정적인 상환 부담으로 주택 구매가 가능합니다.",
		recommended:    true,
	},
	{
		kind:           PlanEasy,
		share:          decimal.RequireFromString("0.70"),
		name:           "여유형",
		description:    "여유형 플랜 - 월상환 여유를 확보한 보수적 대출 플랜",
		recommendation: "월상환 부담이 적어 현금흐름이 안정적입니다. 여유 자금으로 다른 지출에 활용할 수 있습니다.",
	},
	{
		kind:           PlanFrugal,
		share:          decimal.RequireFromString("0.60"),
		name:           "절약형",
		description:    "절약형 플랜 - 안전 최우선의 보수적 대출 플랜",
		recommendation: "가장 안전한 플랜으로, 금리 상승이나 소득 감소 상황에서도 여유가 있습니다.",
	},
}

// PlanRequest asks for loan plans on a house. Zero limits and rates fall back
// to the policy.
type PlanRequest struct {
	HousePrice              decimal.Decimal `json:"housePrice"`
	Region                  string          `json:"region"`
	HousingStatus           string          `json:"housingStatus,omitempty"`
	AnnualIncome            decimal.Decimal `json:"annualIncome"`
	ExistingMonthlyPayment  decimal.Decimal `json:"existingLoanMonthlyPayment"`
	LTVLimit                decimal.Decimal `json:"ltvLimit"`
	MaxAllowedLoanAmount    decimal.Decimal `json:"maxAllowedLoanAmount"`
	DSRLimit                decimal.Decimal `json:"dsrLimit"`
	InterestRate            decimal.Decimal `json:"rateAssumed"`
	StressRate              decimal.Decimal `json:"stressRate"`
	TermYears               int             `json:"termYears"`
	RepayMethod             string          `json:"repaymentType"`
	AvailableMonthlyPayment decimal.Decimal `json:"availableMonthlyPayment"`
}

// Validate checks the plan inputs.
func (r PlanRequest) Validate() error {
	if !r.HousePrice.IsPositive() {
		return errors.New("housePrice must be positive")
	}
	if strings.TrimSpace(r.Region) == "" {
		return errors.New("region is required")
	}
	if r.AnnualIncome.IsNegative() || r.ExistingMonthlyPayment.IsNegative() || r.AvailableMonthlyPayment.IsNegative() {
		return errors.New("amounts must not be negative")
	}
	if r.MaxAllowedLoanAmount.IsNegative() {
		return errors.New("maxAllowedLoanAmount must not be negative")
	}
	for _, limit := range []decimal.Decimal{r.LTVLimit, r.DSRLimit} {
		if limit.IsNegative() || limit.GreaterThan(hundred) {
			return errors.New("limits must be between 0 and 100")
		}
	}
	if err := validateRate(r.InterestRate); err != nil {
		return err
	}
	if err := validateRate(r.StressRate); err != nil {
		return err
	}
	if err := validatePeriod(r.TermYears); err != nil {
		return err
	}
	switch r.RepayMethod {
	case "", RepayEqualPayment, RepayEqualPrincipal, RepayBullet:
	default:
		return fmt.Errorf("unknown repaymentType %q", r.RepayMethod)
	}
	return nil
}

// Plan is one loan proposal and what it costs each month.
type Plan struct {
	Type                 string          `json:"type"`
	LoanAmount           decimal.Decimal `json:"loanAmount"`
	MonthlyPayment       decimal.Decimal `json:"monthly"`
	LTV                  decimal.Decimal `json:"ltv"`
	DSR                  decimal.Decimal `json:"dsr"`
	StressMonthlyPayment decimal.Decimal `json:"stressMonthly"`
	StressDSR            decimal.Decimal `json:"stressDsr"`
	TermYears            int             `json:"termYears"`
	InterestRate         decimal.Decimal `json:"rateAssumed"`
	RepayMethod          string          `json:"repaymentType"`
	Description          string          `json:"description"`
	Recommendation       string          `json:"recommendation"`
	Recommended          bool            `json:"isRecommended"`
}

// PlanResult echoes the resolved inputs next to the generated plans.
type PlanResult struct {
	HousePrice              decimal.Decimal `json:"housePrice"`
	Region                  string          `json:"region"`
	AnnualIncome            decimal.Decimal `json:"annualIncome"`
	ExistingMonthlyPayment  decimal.Decimal `json:"existingLoanMonthlyPayment"`
	LTVLimit                decimal.Decimal `json:"ltvLimit"`
	MaxAllowedLoanAmount    decimal.Decimal `json:"maxAllowedLoanAmount"`
	DSRLimit                decimal.Decimal `json:"dsrLimit"`
	InterestRate            decimal.Decimal `json:"rateAssumed"`
	StressRate              decimal.Decimal `json:"stressRate"`
	TermYears               int             `json:"termYears"`
	RepayMethod             string          `json:"repaymentType"`
	AvailableMonthlyPayment decimal.Decimal `json:"availableMonthlyPayment"`
	Plans                   []Plan          `json:"plans"`
	CalculationDate         string          `json:"calculationDate"`
	CalculationStatus       string          `json:"calculationStatus"`
	Warnings                []string        `json:"warnings"`
	Errors                  []string        `json:"errors"`
}

// Plans proposes balanced, easy and frugal loans sized to 80, 70 and 60
// percent of the DSR limit. A plan is dropped when its stressed DSR breaks
// the limit; the balanced plan is also dropped when it exceeds the monthly
// budget the borrower can afford.
func (c *Calculator) Plans(req PlanRequest) PlanResult {
	p := c.policy
	res := PlanResult{
		HousePrice:              req.HousePrice,
		Region:                  req.Region,
		AnnualIncome:            req.AnnualIncome,
		ExistingMonthlyPayment:  req.ExistingMonthlyPayment,
		LTVLimit:                req.LTVLimit,
		MaxAllowedLoanAmount:    req.MaxAllowedLoanAmount,
		DSRLimit:                req.DSRLimit,
		InterestRate:            req.InterestRate,
		StressRate:              req.StressRate,
		TermYears:               req.TermYears,
		RepayMethod:             req.RepayMethod,
		AvailableMonthlyPayment: req.AvailableMonthlyPayment,
		Plans:                   []Plan{},
		Warnings:                []string{},
		Errors:                  []string{},
		CalculationDate:         c.now().Format(dateLayout),
	}
	if res.LTVLimit.IsZero() {
		res.LTVLimit = p.LTVLimitFor(req.Region, req.HousingStatus)
	}
	if res.DSRLimit.IsZero() {
		res.DSRLimit = p.DSRLimit
	}
	if res.StressRate.IsZero() {
		res.StressRate = p.StressRate(req.Region, req.InterestRate)
	}
	if res.RepayMethod == "" {
		res.RepayMethod = RepayEqualPayment
	}
	ceiling := MaxAllowedLoan(req.HousePrice, res.LTVLimit)
	if res.MaxAllowedLoanAmount.IsPositive() && res.MaxAllowedLoanAmount.LessThan(ceiling) {
		ceiling = res.MaxAllowedLoanAmount.Truncate(0)
	}
	res.MaxAllowedLoanAmount = ceiling

	if !res.AnnualIncome.IsPositive() {
		res.CalculationStatus = PlanStatusFailed
		res.Errors = append(res.Errors, "연소득 정보가 없어 플랜을 생성할 수 없습니다.")
		return res
	}

	existing := res.ExistingMonthlyPayment
	existingDSR := Ratio(MonthlyToAnnual(existing), res.AnnualIncome)
	if existingDSR.GreaterThanOrEqual(res.DSRLimit) {
		res.Warnings = append(res.Warnings,
			"기존 대출로 인해 DSR 한도를 초과합니다. 아래 플랜은 기존 대출 정리 후 적용 가능합니다.",
			fmt.Sprintf("현재 기존 대출 DSR: %s%%, 허용 DSR: %s%%", existingDSR.StringFixed(2), res.DSRLimit.String()))
		existing = decimal.Zero
	}

	for _, target := range planTargets {
		plan, reason := c.plan(res, existing, ceiling, target)
		if reason != "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s 플랜 생성 실패 - %s", target.name, reason))
			continue
		}
		res.Plans = append(res.Plans, plan)
	}

	switch {
	case len(res.Plans) == 0:
		res.CalculationStatus = PlanStatusFailed
		res.Errors = append(res.Errors, "모든 플랜 생성에 실패했습니다. 입력 조건을 확인해주세요.")
	case len(res.Warnings) > 0:
		res.CalculationStatus = PlanStatusPartial
	default:
		res.CalculationStatus = PlanStatusSuccess
	}
	return res
}

// plan sizes one proposal. A non-empty reason means no plan fits.
func (c *Calculator) plan(res PlanResult, existing, ceiling decimal.Decimal, target planTarget) (Plan, string) {
	targetDSR := res.DSRLimit.Mul(target.share)
	dsrOf := func(amount decimal.Decimal, rate decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
		monthly := MonthlyPaymentByMethod(amount, rate, res.TermYears, res.RepayMethod)
		return monthly, Ratio(MonthlyToAnnual(monthly.Add(existing)), res.AnnualIncome)
	}
	amount := searchLoan(ceiling.IntPart(), func(v int64) bool {
		_, dsr := dsrOf(decimal.NewFromInt(v), res.InterestRate)
		return dsr.LessThanOrEqual(targetDSR)
	})
	if amount <= 0 {
		return Plan{}, "조건을 만족하는 대출금액을 찾을 수 없습니다."
	}
	loan := decimal.NewFromInt(amount)
	monthly, dsr := dsrOf(loan, res.InterestRate)
	stressMonthly, stressDSR := dsrOf(loan, res.StressRate)
	if stressDSR.GreaterThan(res.DSRLimit) {
		return Plan{}, fmt.Sprintf("스트레스 DSR %s%%가 한도 %s%%를 초과합니다.", stressDSR.StringFixed(2), res.DSRLimit.String())
	}
	if target.recommended && res.AvailableMonthlyPayment.IsPositive() && monthly.GreaterThan(res.AvailableMonthlyPayment) {
		return Plan{}, "가용 월상환액을 초과합니다."
	}
	return Plan{
		Type:                 target.kind,
		LoanAmount:           loan,
		MonthlyPayment:       monthly,
		LTV:                  Ratio(loan, res.HousePrice),
		DSR:                  dsr,
		StressMonthlyPayment: stressMonthly,
		StressDSR:            stressDSR,
		TermYears:            res.TermYears,
		InterestRate:         res.InterestRate,
		RepayMethod:          res.RepayMethod,
		Description:          target.description,
		Recommendation:       target.recommendation,
		Recommended:          target.recommended,
	}, ""
}

// searchLoan returns the largest amount in [0, ceiling] accepted by fits,
// assuming fits is monotone. Zero means nothing above zero fits.
func searchLoan(ceiling int64, fits func(int64) bool) int64 {
	if ceiling <= 0 {
		return 0
	}
	if fits(ceiling) {
		return ceiling
	}
	lo, hi := int64(0), ceiling
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if fits(mid) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}
