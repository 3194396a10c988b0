package account

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account types.
const (
	TypeSaving      = "SAVING"
	TypeJointSaving = "JOINT_SAVING"
	TypeLoan        = "LOAN"
	TypeJointLoan   = "JOINT_LOAN"
	TypeDemand      = "DEMAND"
)

// Account statuses.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
	StatusClosed   = "CLOSED"
)

// Participant roles.
const (
	RolePrimary = "PRIMARY"
	RoleJoint   = "JOINT"
)

// Account is a bank account whose money lives in the ledger under LedgerCode.
type Account struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	ProductID  string    `json:"productId,omitempty"`
	Number     string    `json:"accountNumber"`
	Type       string    `json:"accountType"`
	Status     string    `json:"status"`
	LedgerCode string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

// IsSavings reports whether the account holds an installment savings product.
func (a Account) IsSavings() bool {
	return a.Type == TypeSaving || a.Type == TypeJointSaving
}

// IsLoan reports whether the account books a loan.
func (a Account) IsLoan() bool {
	return a.Type == TypeLoan || a.Type == TypeJointLoan
}

// Participant links a user to an account.
type Participant struct {
	AccountID        string           `json:"accountId"`
	UserID           string           `json:"userId"`
	Role             string           `json:"role"`
	ContributionRate *decimal.Decimal `json:"contributionRate,omitempty"`
	JoinedAt         time.Time        `json:"joinedAt"`
}

// Balance encapsulates available funds for an account.
type Balance struct {
	AccountID string    `json:"accountId"`
	Amount    int64     `json:"balance"`
	Formatted string    `json:"formatted"`
	AsOf      time.Time `json:"asOf"`
}
