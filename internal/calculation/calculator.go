package calculation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hana-ti/home-planner/internal/mydata"
)

const dateLayout = "2006-01-02 15:04:05"

// Calculator evaluates the lending ratios against a Policy. It performs no I/O.
type Calculator struct {
	policy Policy
	now    func() time.Time
}

// NewCalculator builds a Calculator for policy.
func NewCalculator(policy Policy) *Calculator {
	return &Calculator{policy: policy, now: time.Now}
}

// Policy returns the policy in force.
func (c *Calculator) Policy() Policy {
	return c.policy
}

// LTV computes the loan ceiling for a house and the cost of borrowing it.
func (c *Calculator) LTV(req LTVRequest) LTVResult {
	p := c.policy
	regulated := p.IsRegulated(req.Region)
	limit := p.LTVLimitFor(req.Region, req.HousingStatus)
	maxLoan := MaxAllowedLoan(req.HousePrice, limit)
	months := decimal.NewFromInt(int64(req.LoanPeriod * 12))

	monthly := EqualPayment(maxLoan, req.InterestRate, req.LoanPeriod)
	stressRate := p.StressRate(req.Region, req.InterestRate)
	stressMonthly := EqualPayment(maxLoan, stressRate, req.LoanPeriod)

	res := LTVResult{
		Region:                     req.Region,
		RegionType:                 p.RegionType(req.Region),
		IsRegulationArea:           regulated,
		HousingStatus:              req.HousingStatus,
		LTVLimit:                   limit,
		HousePrice:                 req.HousePrice,
		MaxLoanAmount:              maxLoan,
		LoanPeriod:                 req.LoanPeriod,
		InterestRate:               req.InterestRate,
		MonthlyPayment:             monthly,
		TotalRepaymentAmount:       monthly.Mul(months),
		StressRate:                 stressRate,
		StressMonthlyPayment:       stressMonthly,
		StressTotalRepaymentAmount: stressMonthly.Mul(months),
		CalculationDate:            c.now().Format(dateLayout),
		Message:                    "LTV 계산이 완료되었습니다.",
	}

	if req.CreditGrade != "" {
		ratio := p.CollateralRatio(req.CreditGrade, req.CollateralRatio)
		withCollateral := MaxAllowedLoanWithCollateral(req.HousePrice, limit, ratio)
		res.CreditGrade = req.CreditGrade
		res.CollateralRatio = &ratio
		res.MaxLoanAmountWithCollateral = &withCollateral
	}
	return res
}

// CoupleLTV is LTV annotated with both partners' income.
func (c *Calculator) CoupleLTV(req LTVRequest, income, spouseIncome decimal.Decimal) CoupleLTVResult {
	res := CoupleLTVResult{
		LTVResult:               c.LTV(req),
		CoupleTotalAnnualIncome: income.Add(spouseIncome),
		SpouseAnnualIncome:      spouseIncome,
	}
	res.Message = "부부 합계 LTV 계산이 완료되었습니다."
	return res
}

// ExistingDebt folds outstanding loans into their yearly debt service.
func (c *Calculator) ExistingDebt(loans []mydata.Loan) ExistingDebt {
	debt := ExistingDebt{
		AnnualPayment:         decimal.Zero,
		MortgageAnnualPayment: decimal.Zero,
		OtherAnnualInterest:   decimal.Zero,
	}
	now := c.now()
	for _, loan := range loans {
		if !loan.Balance.IsPositive() {
			continue
		}
		method := loan.RepayMethod
		if method == "" {
			method = ExistingEqualPayment
		}
		var maturity time.Time
		if loan.MaturityDate != nil {
			maturity = *loan.MaturityDate
		}
		remaining := RemainingMonths(now, maturity, c.policy.AssumedRemainingMonths)
		annual := ExistingAnnualPayment(loan.Balance, loan.InterestRate, method, remaining)

		debt.AnnualPayment = debt.AnnualPayment.Add(annual)
		if loan.Mortgage {
			debt.MortgageAnnualPayment = debt.MortgageAnnualPayment.Add(annual)
		} else {
			debt.OtherAnnualInterest = debt.OtherAnnualInterest.Add(Percentage(loan.Balance, loan.InterestRate))
		}
		debt.Count++
	}
	return debt
}

// DSR evaluates the debt-service ratio of a desired loan on top of existing debt.
func (c *Calculator) DSR(req DSRRequest, income decimal.Decimal, debt ExistingDebt) DSRResult {
	p := c.policy
	limit := req.DSRLimit
	if limit.IsZero() {
		limit = p.DSRLimit
	}
	method := req.RepayMethod
	if method == "" {
		method = RepayEqualPayment
	}
	years := req.DesiredLoanPeriod
	months := decimal.NewFromInt(int64(years * 12))

	baseMonthly := MonthlyPaymentByMethod(req.DesiredLoanAmount, req.DesiredInterestRate, years, method)
	baseAnnual := MonthlyToAnnual(baseMonthly)
	stressRate := p.StressRate(req.Region, req.DesiredInterestRate)
	stressMonthly := MonthlyPaymentByMethod(req.DesiredLoanAmount, stressRate, years, method)
	stressAnnual := MonthlyToAnnual(stressMonthly)

	baseDSR := Ratio(debt.AnnualPayment.Add(baseAnnual), income)
	stressDSR := Ratio(debt.AnnualPayment.Add(stressAnnual), income)

	maxBase := MaxLoanForLimit(income, debt.AnnualPayment, req.DesiredInterestRate, years, limit)
	maxStress := MaxLoanForLimit(income, debt.AnnualPayment, stressRate, years, limit)
	maxBaseMonthly := EqualPayment(maxBase, req.DesiredInterestRate, years)
	maxStressMonthly := EqualPayment(maxStress, stressRate, years)

	return DSRResult{
		Region:                         req.Region,
		AnnualIncome:                   income,
		DSRLimit:                       limit,
		ExistingLoanAnnualPayment:      debt.AnnualPayment,
		ExistingLoanCount:              debt.Count,
		DesiredLoanAmount:              req.DesiredLoanAmount,
		DesiredInterestRate:            req.DesiredInterestRate,
		DesiredLoanPeriod:              years,
		RepayMethod:                    method,
		BaseMonthlyPayment:             baseMonthly,
		BaseAnnualPayment:              baseAnnual,
		BaseTotalPayment:               baseMonthly.Mul(months),
		BaseDSR:                        baseDSR,
		BaseDSRStatus:                  DetermineStatus(baseDSR, limit, p.WarningThreshold),
		StressRate:                     stressRate,
		StressMonthlyPayment:           stressMonthly,
		StressAnnualPayment:            stressAnnual,
		StressTotalPayment:             stressMonthly.Mul(months),
		StressDSR:                      stressDSR,
		StressDSRStatus:                DetermineStatus(stressDSR, limit, p.WarningThreshold),
		MaxLoanAmountForBaseRate:       maxBase,
		MaxLoanAmountForStressRate:     maxStress,
		MaxMonthlyPaymentForBaseRate:   maxBaseMonthly,
		MaxMonthlyPaymentForStressRate: maxStressMonthly,
		MaxAnnualPaymentForBaseRate:    MonthlyToAnnual(maxBaseMonthly),
		MaxAnnualPaymentForStressRate:  MonthlyToAnnual(maxStressMonthly),
		CalculationDate:                c.now().Format(dateLayout),
		Message:                        "DSR 계산이 완료되었습니다.",
	}
}

// CoupleDSR evaluates DSR over the combined income and debt of both partners.
func (c *Calculator) CoupleDSR(req DSRRequest, income, spouseIncome decimal.Decimal, debt, spouseDebt ExistingDebt) CoupleDSRResult {
	res := CoupleDSRResult{
		DSRResult:                       c.DSR(req, income.Add(spouseIncome), debt.Add(spouseDebt)),
		SpouseAnnualIncome:              spouseIncome,
		SpouseExistingLoanAnnualPayment: spouseDebt.AnnualPayment,
	}
	res.Message = "부부 합계 DSR 계산이 완료되었습니다."
	return res
}

// DTI evaluates the debt-to-income ratio of a desired loan.
func (c *Calculator) DTI(req DTIRequest, income decimal.Decimal, debt ExistingDebt) DTIResult {
	limit := req.DTILimit
	if limit.IsZero() {
		limit = c.policy.DTILimit
	}
	years := req.DesiredLoanPeriod
	maxAllowed := Percentage(income, limit)
	existing := debt.MortgageAnnualPayment.Add(debt.OtherAnnualInterest)

	desiredMonthly := MonthlyPaymentByMethod(req.DesiredLoanAmount, req.DesiredInterestRate, years, req.RepayMethod)
	desiredAnnual := MonthlyToAnnual(desiredMonthly)
	total := existing.Add(desiredAnnual)
	ratio := Ratio(total, income)

	status := DTIPass
	available := maxAllowed.Sub(total)
	if ratio.GreaterThan(limit) {
		status = DTIFail
		available = decimal.Zero
	}

	maxLoan := MaxLoanForLimit(income, existing, req.DesiredInterestRate, years, limit)
	maxMonthly := EqualPayment(maxLoan, req.DesiredInterestRate, years)

	return DTIResult{
		Region:                          req.Region,
		AnnualIncome:                    income,
		DTILimit:                        limit,
		MaxAllowedAnnualPayment:         maxAllowed,
		ExistingMortgageAnnualPayment:   debt.MortgageAnnualPayment,
		ExistingOtherLoanAnnualInterest: debt.OtherAnnualInterest,
		TotalExistingAnnualPayment:      existing,
		ExistingLoanCount:               debt.Count,
		DesiredInterestRate:             req.DesiredInterestRate,
		DesiredLoanPeriod:               years,
		DesiredLoanAmount:               req.DesiredLoanAmount,
		DesiredLoanAnnualPayment:        desiredAnnual,
		DesiredLoanMonthlyPayment:       desiredMonthly,
		TotalAnnualPayment:              total,
		DTIRatio:                        ratio,
		DTIStatus:                       status,
		AvailableAnnualPayment:          available,
		MaxLoanAmountForDTILimit:        maxLoan,
		MaxMonthlyPaymentForDTILimit:    maxMonthly,
		MaxAnnualPaymentForDTILimit:     MonthlyToAnnual(maxMonthly),
		CalculationDate:                 c.now().Format(dateLayout),
		Message:                         "DTI 계산이 완료되었습니다.",
	}
}

// CoupleDTI evaluates DTI over the combined household.
func (c *Calculator) CoupleDTI(req DTIRequest, income, spouseIncome decimal.Decimal, debt, spouseDebt ExistingDebt) CoupleDTIResult {
	res := CoupleDTIResult{
		DTIResult:          c.DTI(req, income.Add(spouseIncome), debt.Add(spouseDebt)),
		SpouseAnnualIncome: spouseIncome,
	}
	res.Message = "부부 합계 DTI 계산이 완료되었습니다."
	return res
}

func bindingConstraint(s *Summary) {
	s.MaxLoanAmount = s.LTV.MaxLoanAmount
	s.BindingConstraint = "LTV"
	if s.DSR.MaxLoanAmountForStressRate.LessThan(s.MaxLoanAmount) {
		s.MaxLoanAmount = s.DSR.MaxLoanAmountForStressRate
		s.BindingConstraint = "DSR"
	}
	if s.DTI.MaxLoanAmountForDTILimit.LessThan(s.MaxLoanAmount) {
		s.MaxLoanAmount = s.DTI.MaxLoanAmountForDTILimit
		s.BindingConstraint = "DTI"
	}
}
