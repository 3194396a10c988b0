package calendar

import "time"

// Transaction types.
const (
	Deposit  = "DEPOSIT"
	Withdraw = "WITHDRAW"
)

// Event statuses.
const (
	StatusScheduled = "SCHEDULED"
	StatusDone      = "DONE"
	StatusCanceled  = "CANCELED"
)

// Event types.
const (
	TypeLoan           = "LOAN"
	TypeSavings        = "SAVINGS"
	TypeCard           = "CARD"
	TypeConsumption    = "CONSUMPTION"
	TypeUtility        = "UTILITY"
	TypeManagementFee  = "MANAGEMENT_FEE"
	TypeInsurance      = "INSURANCE"
	TypeTax            = "TAX"
	TypeSubscription   = "SUBSCRIPTION"
	TypeEducation      = "EDUCATION"
	TypeMedical        = "MEDICAL"
	TypeTransportation = "TRANSPORTATION"
	TypeFood           = "FOOD"
	TypeEntertainment  = "ENTERTAINMENT"
	TypeShopping       = "SHOPPING"
	TypeTravel         = "TRAVEL"
	TypeEtc            = "ETC"
)

var eventTypeNames = map[string]string{
	TypeLoan:           "대출",
	TypeSavings:        "적금",
	TypeCard:           "카드",
	TypeConsumption:    "소비",
	TypeUtility:        "공과금",
	TypeManagementFee:  "관리비",
	TypeInsurance:      "보험료",
	TypeTax:            "세금",
	TypeSubscription:   "구독료",
	TypeEducation:      "교육비",
	TypeMedical:        "의료비",
	TypeTransportation: "교통비",
	TypeFood:           "식비",
	TypeEntertainment:  "오락비",
	TypeShopping:       "쇼핑",
	TypeTravel:         "여행비",
	TypeEtc:            "기타",
}

// fixedExpenseTypes count as fixed costs in the spending pattern.
var fixedExpenseTypes = map[string]bool{
	TypeUtility:       true,
	TypeManagementFee: true,
	TypeInsurance:     true,
	TypeSubscription:  true,
	TypeLoan:          true,
}

// TypeName returns the display name of an event type.
func TypeName(eventType string) string {
	if name, ok := eventTypeNames[eventType]; ok {
		return name
	}
	return eventTypeNames[TypeEtc]
}

// Event is one entry of a user's financial calendar. Amounts are in won.
type Event struct {
	ID              string    `json:"eventId"`
	UserID          string    `json:"userId"`
	EventDate       time.Time `json:"eventDate"`
	TransactionType string    `json:"transactionType"`
	EventType       string    `json:"eventType"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Amount          int64     `json:"amount"`
	Status          string    `json:"status"`
	RelatedID       string    `json:"relatedId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// statusFor returns SCHEDULED for dates after today and DONE otherwise.
func statusFor(date, today time.Time) string {
	if date.After(today) {
		return StatusScheduled
	}
	return StatusDone
}
