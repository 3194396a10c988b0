package calculation

import (
	"testing"
	"time"

	"github.com/hana-ti/home-planner/internal/mydata"
)

func newTestCalculator() *Calculator {
	c := NewCalculator(DefaultPolicy())
	c.now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }
	return c
}

func TestLTVRegulatedArea(t *testing.T) {
	c := newTestCalculator()
	res := c.LTV(LTVRequest{
		HousePrice:    d("500000000"),
		Region:        "서울 강남구",
		HousingStatus: HousingNone,
		InterestRate:  d("4"),
		LoanPeriod:    30,
	})
	if !res.IsRegulationArea || res.RegionType != RegionTypeRegulated {
		t.Fatalf("expected regulated area, got %+v", res)
	}
	assertDecimal(t, "limit", res.LTVLimit, d("40"))
	assertDecimal(t, "max loan", res.MaxLoanAmount, d("200000000"))
	assertDecimal(t, "stress rate", res.StressRate, d("5.5"))
	assertDecimal(t, "total", res.TotalRepaymentAmount, res.MonthlyPayment.Mul(d("360")))
	if !res.StressMonthlyPayment.GreaterThan(res.MonthlyPayment) {
		t.Fatalf("stress payment must exceed base payment")
	}
	if res.CollateralRatio != nil || res.MaxLoanAmountWithCollateral != nil {
		t.Fatalf("collateral fields must be omitted without a credit grade")
	}
	if res.CalculationDate != "2024-03-01 09:00:00" {
		t.Fatalf("unexpected calculation date %q", res.CalculationDate)
	}
}

func TestLTVWithCreditGrade(t *testing.T) {
	c := newTestCalculator()
	res := c.LTV(LTVRequest{
		HousePrice:    d("500000000"),
		Region:        "서울 강남구",
		HousingStatus: HousingNone,
		InterestRate:  d("4"),
		LoanPeriod:    30,
		CreditGrade:   "3",
	})
	if res.CollateralRatio == nil || res.MaxLoanAmountWithCollateral == nil {
		t.Fatalf("expected collateral fields")
	}
	assertDecimal(t, "collateral ratio", *res.CollateralRatio, d("90"))
	assertDecimal(t, "collateral loan", *res.MaxLoanAmountWithCollateral, d("180000000"))
}

func TestDSRWithoutDebt(t *testing.T) {
	c := newTestCalculator()
	res := c.DSR(DSRRequest{
		DesiredLoanAmount:   d("100000000"),
		DesiredInterestRate: d("0"),
		DesiredLoanPeriod:   10,
	}, d("50000000"), c.ExistingDebt(nil))

	if res.RepayMethod != RepayEqualPayment {
		t.Fatalf("expected default repay method, got %q", res.RepayMethod)
	}
	assertDecimal(t, "limit", res.DSRLimit, d("40"))
	assertDecimal(t, "monthly", res.BaseMonthlyPayment, d("833333"))
	assertDecimal(t, "annual", res.BaseAnnualPayment, d("9999996"))
	assertDecimal(t, "dsr", res.BaseDSR, d("20"))
	if res.BaseDSRStatus != StatusUnder {
		t.Fatalf("expected %s, got %s", StatusUnder, res.BaseDSRStatus)
	}
	assertDecimal(t, "max loan", res.MaxLoanAmountForBaseRate, d("200000040"))
	assertDecimal(t, "max annual", res.MaxAnnualPaymentForBaseRate, res.MaxMonthlyPaymentForBaseRate.Mul(d("12")))
}

func TestExistingDebtSplitsMortgage(t *testing.T) {
	c := newTestCalculator()
	debt := c.ExistingDebt([]mydata.Loan{
		{Balance: d("10000000"), InterestRate: d("5"), RepayMethod: ExistingBullet},
		{Balance: d("12000000"), InterestRate: d("0"), RepayMethod: ExistingEqualPayment, Mortgage: true},
		{Balance: d("0"), InterestRate: d("3")},
	})
	if debt.Count != 2 {
		t.Fatalf("expected two loans, got %d", debt.Count)
	}
	assertDecimal(t, "other interest", debt.OtherAnnualInterest, d("500000"))
	// 12,000,000 over the assumed 60 months at 0 %.
	assertDecimal(t, "mortgage", debt.MortgageAnnualPayment, d("2400000"))
	assertDecimal(t, "total", debt.AnnualPayment, d("2900000"))
}

func TestDTIPassAndFail(t *testing.T) {
	c := newTestCalculator()
	debt := c.ExistingDebt([]mydata.Loan{
		{Balance: d("10000000"), InterestRate: d("5"), RepayMethod: ExistingBullet},
	})
	req := DTIRequest{
		DesiredLoanAmount:   d("100000000"),
		DesiredInterestRate: d("0"),
		DesiredLoanPeriod:   10,
	}

	pass := c.DTI(req, d("50000000"), debt)
	if pass.DTIStatus != DTIPass {
		t.Fatalf("expected PASS, got %s", pass.DTIStatus)
	}
	assertDecimal(t, "existing", pass.TotalExistingAnnualPayment, d("500000"))
	assertDecimal(t, "total", pass.TotalAnnualPayment, d("10499996"))
	assertDecimal(t, "ratio", pass.DTIRatio, d("21"))
	assertDecimal(t, "available", pass.AvailableAnnualPayment, d("9500004"))

	fail := c.DTI(req, d("10000000"), debt)
	if fail.DTIStatus != DTIFail {
		t.Fatalf("expected FAIL, got %s", fail.DTIStatus)
	}
	assertDecimal(t, "available on fail", fail.AvailableAnnualPayment, d("0"))
}

func TestCoupleDSRCombinesHousehold(t *testing.T) {
	c := newTestCalculator()
	own := c.ExistingDebt(nil)
	spouse := c.ExistingDebt([]mydata.Loan{
		{Balance: d("10000000"), InterestRate: d("5"), RepayMethod: ExistingBullet},
	})
	res := c.CoupleDSR(DSRRequest{
		DesiredLoanAmount:   d("100000000"),
		DesiredInterestRate: d("3"),
		DesiredLoanPeriod:   20,
	}, d("50000000"), d("30000000"), own, spouse)

	assertDecimal(t, "income", res.AnnualIncome, d("80000000"))
	assertDecimal(t, "spouse income", res.SpouseAnnualIncome, d("30000000"))
	assertDecimal(t, "existing", res.ExistingLoanAnnualPayment, d("500000"))
	if res.Message != "부부 합계 DSR 계산이 완료되었습니다." {
		t.Fatalf("unexpected message %q", res.Message)
	}
}
