package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

// Repayment types.
const (
	RepayEqualInstallment = "EQ_INSTALLMENT"
	RepayEqualPrincipal   = "EQ_PRINCIPAL"
	RepayBullet           = "BULLET"
)

// Application statuses.
const (
	StatusPending         = "PENDING"
	StatusWaitingForJoint = "WAITING_FOR_JOINT"
	StatusJointAccepted   = "JOINT_ACCEPTED"
	StatusApproved        = "APPROVED"
	StatusRejected        = "REJECTED"
)

// Invitation statuses.
const (
	InvitePending  = "PENDING"
	InviteAccepted = "ACCEPTED"
	InviteRejected = "REJECTED"
)

// Contract and repayment statuses.
const (
	ContractActive = "ACTIVE"
	ContractClosed = "CLOSED"

	RepaymentPending = "PENDING"
	RepaymentPaid    = "PAID"
	RepaymentOverdue = "OVERDUE"
)

// Product target groups, in recommendation priority order.
const (
	TargetNewborn    = "신생아"
	TargetNewlywed   = "신혼부부"
	TargetMultiChild = "다자녀"
	TargetFirstHome  = "생애최초"
	TargetGeneral    = "일반"
)

// Product is a loan product from the catalogue. Zero eligibility caps mean
// no cap.
type Product struct {
	ID            string          `json:"productId"`
	Name          string          `json:"productName"`
	LoanType      string          `json:"loanType"`
	InterestRate  decimal.Decimal `json:"interestRate"`
	MaxAmount     int64           `json:"maxLoanAmount"`
	MaxTermMonths int             `json:"maxLoanPeriodMonths"`
	RepayType     string          `json:"repaymentMethod"`
	Joint         bool            `json:"jointLoan"`
	Description   string          `json:"description,omitempty"`
	TargetType    string          `json:"targetType"`
	MaxIncome     int64           `json:"maxIncome,omitempty"`
	MaxHousePrice int64           `json:"maxHousePrice,omitempty"`
	MaxAssets     int64           `json:"maxAssets,omitempty"`
	MaxArea       decimal.Decimal `json:"maxArea"`
}

// Application is a customer's request for a loan.
type Application struct {
	ID                string     `json:"applicationId"`
	UserID            string     `json:"userId"`
	ProductID         string     `json:"productId"`
	RequestAmount     int64      `json:"requestAmount"`
	TermMonths        int        `json:"termMonths"`
	RepayType         string     `json:"repayType"`
	DisburseAccountID string     `json:"disburseAccountId"`
	DisburseDate      time.Time  `json:"disburseDate"`
	Joint             bool       `json:"joint"`
	Status            string     `json:"status"`
	SubmittedAt       time.Time  `json:"submittedAt"`
	ReviewedAt        *time.Time `json:"reviewedAt,omitempty"`
	ReviewerID        string     `json:"reviewerId,omitempty"`
	Remarks           string     `json:"remarks,omitempty"`
}

// Invitation asks a co-borrower to join a joint loan application.
type Invitation struct {
	ID            string     `json:"inviteId"`
	ApplicationID string     `json:"applicationId"`
	InviterID     string     `json:"inviterId"`
	InviteeID     string     `json:"inviteeId,omitempty"`
	JointName     string     `json:"jointName,omitempty"`
	JointPhone    string     `json:"jointPhone,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	RespondedAt   *time.Time `json:"respondedAt,omitempty"`
}

// Contract is an approved and disbursed loan.
type Contract struct {
	ID                string          `json:"loanId"`
	ApplicationID     string          `json:"applicationId"`
	UserID            string          `json:"userId"`
	ProductID         string          `json:"productId"`
	AccountID         string          `json:"loanAccountId"`
	Amount            int64           `json:"loanAmount"`
	Rate              decimal.Decimal `json:"finalRate"`
	StartDate         time.Time       `json:"startDate"`
	EndDate           time.Time       `json:"endDate"`
	RepayType         string          `json:"repayType"`
	DisburseAccountID string          `json:"disburseAccountId"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// Repayment is one month of a contract's repayment schedule.
type Repayment struct {
	ID        string     `json:"repayId"`
	LoanID    string     `json:"loanId"`
	DueDate   time.Time  `json:"dueDate"`
	Principal int64      `json:"principalDue"`
	Interest  int64      `json:"interestDue"`
	Total     int64      `json:"totalDue"`
	Status    string     `json:"status"`
	PaidDate  *time.Time `json:"paidDate,omitempty"`
}
