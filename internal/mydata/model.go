// Package mydata keeps the financial profile the lending calculators read:
// income, credit grade and the customer's outstanding loans at other institutions.
package mydata

import (
	"time"

	"github.com/shopspring/decimal"
)

// Loan categories reported by institutions.
const (
	LoanTypeBank        = "BANK"
	LoanTypeCard        = "CARD"
	LoanTypeInstallment = "INSTALLMENT"
	LoanTypeInsurance   = "INSURANCE"
)

// Profile is a user's self-reported financial position.
type Profile struct {
	UserID        string          `json:"userId"`
	AnnualIncome  decimal.Decimal `json:"annualIncome"`
	CreditGrade   string          `json:"creditGrade"`
	HousingStatus string          `json:"housingStatus"`
	Region        string          `json:"region"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Loan is an outstanding loan held elsewhere.
type Loan struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	LoanType     string          `json:"loanType"`
	Institution  string          `json:"institution"`
	Balance      decimal.Decimal `json:"balance"`
	InterestRate decimal.Decimal `json:"interestRate"`
	RepayMethod  string          `json:"repayMethod"`
	MaturityDate *time.Time      `json:"maturityDate,omitempty"`
	Mortgage     bool            `json:"mortgage"`
	CreatedAt    time.Time       `json:"createdAt"`
}
