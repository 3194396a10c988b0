package calculation

import (
	"time"

	"github.com/shopspring/decimal"
)

// Repayment methods for a new loan.
const (
	RepayEqualPayment   = "EPI"
	RepayEqualPrincipal = "EP"
	RepayBullet         = "BULLET"
)

// Repayment methods as reported for existing loans.
const (
	ExistingEqualPayment   = "원리금균등"
	ExistingEqualPrincipal = "원금균등"
	ExistingBullet         = "만기일시"
)

// Ratio statuses.
const (
	StatusOver  = "초과"
	StatusOK    = "적정"
	StatusUnder = "부족"
)

const (
	rateScale  = 6
	ratioScale = 4
)

var (
	hundred       = decimal.NewFromInt(100)
	twelve        = decimal.NewFromInt(12)
	twelveHundred = decimal.NewFromInt(1200)
	one           = decimal.NewFromInt(1)
)

// Percentage returns value × pct / 100 rounded half-up to whole won.
func Percentage(value, pct decimal.Decimal) decimal.Decimal {
	return value.Mul(pct).DivRound(hundred, 0)
}

// Ratio returns num / den as a percentage with four significant decimal places
// before scaling. A zero denominator yields zero.
func Ratio(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.DivRound(den, ratioScale).Mul(hundred)
}

// MaxAllowedLoan is price × ltv / 100 rounded down to whole won.
func MaxAllowedLoan(price, ltvLimit decimal.Decimal) decimal.Decimal {
	return price.Mul(ltvLimit).Div(hundred).Truncate(0)
}

// MaxAllowedLoanWithCollateral scales the LTV limit by the collateral recognition ratio first.
func MaxAllowedLoanWithCollateral(price, ltvLimit, collateralRatio decimal.Decimal) decimal.Decimal {
	effective := ltvLimit.Mul(collateralRatio).DivRound(hundred, 2)
	return price.Mul(effective).DivRound(hundred, 0)
}

// AnnualToMonthly divides by twelve, half-up to whole won.
func AnnualToMonthly(annual decimal.Decimal) decimal.Decimal {
	return annual.DivRound(twelve, 0)
}

// MonthlyToAnnual multiplies by twelve.
func MonthlyToAnnual(monthly decimal.Decimal) decimal.Decimal {
	return monthly.Mul(twelve)
}

func monthlyRate(annualRate decimal.Decimal) decimal.Decimal {
	return annualRate.DivRound(hundred, rateScale).DivRound(twelve, rateScale)
}

// EqualPaymentMonths is the level monthly installment for principal over months.
func EqualPaymentMonths(principal, annualRate decimal.Decimal, months int) decimal.Decimal {
	if months <= 0 {
		return decimal.Zero
	}
	n := decimal.NewFromInt(int64(months))
	r := monthlyRate(annualRate)
	if r.IsZero() {
		return principal.DivRound(n, 0)
	}
	power := one.Add(r).Pow(n)
	payment := principal.Mul(r).Mul(power).DivRound(power.Sub(one), 0)
	return payment.Truncate(0)
}

// EqualPayment is EqualPaymentMonths over years × 12.
func EqualPayment(principal, annualRate decimal.Decimal, years int) decimal.Decimal {
	return EqualPaymentMonths(principal, annualRate, years*12)
}

// EqualPrincipalAnnual sums the first year (or the whole term, when shorter)
// of an equal-principal schedule.
func EqualPrincipalAnnual(principal, annualRate decimal.Decimal, months int) decimal.Decimal {
	if months <= 0 {
		return decimal.Zero
	}
	monthlyPrincipal := principal.Div(decimal.NewFromInt(int64(months)))
	rate := annualRate.Div(twelveHundred)
	limit := months
	if limit > 12 {
		limit = 12
	}
	total := decimal.Zero
	for m := 0; m < limit; m++ {
		remaining := principal.Sub(monthlyPrincipal.Mul(decimal.NewFromInt(int64(m))))
		total = total.Add(monthlyPrincipal).Add(remaining.Mul(rate))
	}
	return total.Round(0)
}

// BulletAnnual is the yearly interest of a bullet loan; in the maturity year
// the principal is added.
func BulletAnnual(principal, annualRate decimal.Decimal, maturityYear bool) decimal.Decimal {
	interest := Percentage(principal, annualRate)
	if maturityYear {
		return principal.Add(interest)
	}
	return interest
}

// MonthlyPaymentByMethod gives the monthly burden of a new loan. Unknown
// methods fall back to equal payment.
func MonthlyPaymentByMethod(principal, annualRate decimal.Decimal, years int, method string) decimal.Decimal {
	if years <= 0 {
		return decimal.Zero
	}
	switch method {
	case RepayEqualPrincipal:
		return AnnualToMonthly(EqualPrincipalAnnual(principal, annualRate, years*12))
	case RepayBullet:
		return Percentage(principal, annualRate).DivRound(twelve, 0)
	default:
		return EqualPayment(principal, annualRate, years)
	}
}

// LoanFromAnnualPayment inverts the annuity formula: the principal whose
// equal-payment installment equals annualPayment / 12.
func LoanFromAnnualPayment(annualPayment, annualRate decimal.Decimal, years int) decimal.Decimal {
	if years <= 0 || !annualPayment.IsPositive() {
		return decimal.Zero
	}
	monthly := AnnualToMonthly(annualPayment)
	n := decimal.NewFromInt(int64(years * 12))
	r := annualRate.Div(hundred).DivRound(twelve, rateScale)
	if r.IsZero() {
		return monthly.Mul(n)
	}
	power := one.Add(r).Pow(n)
	return monthly.Mul(power.Sub(one)).DivRound(r.Mul(power), 0)
}

// MaxLoanForLimit is the largest new principal keeping total annual payments
// within limit percent of income.
func MaxLoanForLimit(income, existingAnnual, annualRate decimal.Decimal, years int, limit decimal.Decimal) decimal.Decimal {
	room := Percentage(income, limit).Sub(existingAnnual)
	if !room.IsPositive() {
		return decimal.Zero
	}
	return LoanFromAnnualPayment(room, annualRate, years)
}

// DetermineStatus classifies value against limit: above is 초과, more than
// threshold below is 부족, otherwise 적정.
func DetermineStatus(value, limit, threshold decimal.Decimal) string {
	switch {
	case value.GreaterThan(limit):
		return StatusOver
	case value.LessThan(limit.Sub(threshold)):
		return StatusUnder
	default:
		return StatusOK
	}
}

// RemainingMonths counts whole months from now until maturity, at least one.
// A zero maturity uses fallback.
func RemainingMonths(now, maturity time.Time, fallback int) int {
	if maturity.IsZero() {
		return fallback
	}
	months := (maturity.Year()-now.Year())*12 + int(maturity.Month()-now.Month())
	if maturity.Day() < now.Day() {
		months--
	}
	if months < 1 {
		return 1
	}
	return months
}

// ExistingAnnualPayment is the yearly debt service of an outstanding loan given its repayment method.
func ExistingAnnualPayment(balance, annualRate decimal.Decimal, method string, remainingMonths int) decimal.Decimal {
	switch method {
	case ExistingEqualPayment:
		return MonthlyToAnnual(EqualPaymentMonths(balance, annualRate, remainingMonths))
	case ExistingBullet:
		return BulletAnnual(balance, annualRate, false)
	default:
		return EqualPrincipalAnnual(balance, annualRate, remainingMonths)
	}
}
