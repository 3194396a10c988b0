package savings

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product types.
const (
	ProductSaving      = "SAVING"
	ProductJointSaving = "JOINT_SAVING"
)

// Savings and payment statuses.
const (
	StatusActive    = "ACTIVE"
	StatusMatured   = "MATURED"
	StatusCancelled = "CANCELLED"

	PaymentPending = "PENDING"
	PaymentPaid    = "PAID"
	PaymentOverdue = "OVERDUE"
)

// Product is a savings product from the catalogue.
type Product struct {
	ID                       string          `json:"productId"`
	Name                     string          `json:"productName"`
	Type                     string          `json:"productType"`
	PaymentMethod            string          `json:"paymentMethod"`
	CompoundInterest         bool            `json:"compoundInterestYn"`
	TaxPreference            bool            `json:"taxPreferenceYn"`
	PaymentDelayMonths       int             `json:"paymentDelayMonths"`
	EarlyWithdrawPenaltyRate decimal.Decimal `json:"earlyWithdrawPenaltyRate"`
	BaseInterestRate         decimal.Decimal `json:"baseInterestRate"`
	PreferentialInterestRate decimal.Decimal `json:"preferentialInterestRate"`
	TermMonths               int             `json:"termMonths"`
	MinDepositAmount         int64           `json:"minDepositAmount"`
	MaxDepositAmount         int64           `json:"maxDepositAmount"`
	InterestPaymentMethod    string          `json:"interestPaymentMethod"`
	Status                   string          `json:"status"`
}

// MaxRate is the headline rate including the preferential rate.
func (p Product) MaxRate() decimal.Decimal {
	return p.BaseInterestRate.Add(p.PreferentialInterestRate)
}

// UserSavings is one user's subscription to a savings account.
type UserSavings struct {
	ID                 string    `json:"userSavingsId"`
	UserID             string    `json:"userId"`
	ProductID          string    `json:"productId"`
	AccountID          string    `json:"accountId"`
	StartDate          time.Time `json:"startDate"`
	EndDate            time.Time `json:"endDate"`
	MonthlyAmount      int64     `json:"monthlyAmount"`
	Status             string    `json:"status"`
	AutoDebitAccount   string    `json:"autoDebitAccountNumber,omitempty"`
	AutoDebitDay       int       `json:"autoDebitDay,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Payment is one row of a savings payment schedule.
type Payment struct {
	ID        string     `json:"paymentId"`
	UserID    string     `json:"userId"`
	AccountID string     `json:"accountId"`
	DueDate   time.Time  `json:"dueDate"`
	Amount    int64      `json:"amount"`
	Status    string     `json:"status"`
	PaidDate  *time.Time `json:"paidDate,omitempty"`
}
