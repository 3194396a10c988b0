package invitation

import "time"

// Invitation statuses.
const (
	StatusPending  = "PENDING"
	StatusAccepted = "ACCEPTED"
	StatusRejected = "REJECTED"
	StatusExpired  = "EXPIRED"
)

// Invitation asks another user to join a joint savings account.
type Invitation struct {
	ID          string     `json:"inviteId"`
	AccountID   string     `json:"accountId"`
	InviterID   string     `json:"inviterId"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
}

// AccountInfo is what an invitee sees before answering.
type AccountInfo struct {
	Invitation    Invitation `json:"invitation"`
	AccountNumber string     `json:"accountNumber"`
	AccountType   string     `json:"accountType"`
	ProductID     string     `json:"productId,omitempty"`
}
