package couple

import "time"

// Invite statuses.
const (
	InvitePending  = "PENDING"
	InviteAccepted = "ACCEPTED"
	InviteExpired  = "EXPIRED"
)

// Couple statuses.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// Invite is a shareable couple link created by InviterID.
type Invite struct {
	ID        string    `json:"inviteId"`
	InviterID string    `json:"inviterId"`
	Token     string    `json:"token"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the link is past its lifetime at now.
func (i Invite) Expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// Couple links two users. UserID1 is the inviter.
type Couple struct {
	ID        string    `json:"coupleId"`
	UserID1   string    `json:"userId1"`
	UserID2   string    `json:"userId2"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Partner returns the other member of the couple.
func (c Couple) Partner(userID string) string {
	if c.UserID1 == userID {
		return c.UserID2
	}
	return c.UserID1
}

// Link is returned to the inviter for sharing.
type Link struct {
	InviteID  string    `json:"inviteId"`
	Token     string    `json:"token"`
	URL       string    `json:"inviteUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Status describes a user's couple link.
type Status struct {
	HasCouple     bool       `json:"hasCouple"`
	CoupleID      string     `json:"coupleId,omitempty"`
	PartnerUserID string     `json:"partnerUserId,omitempty"`
	Status        string     `json:"status,omitempty"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
}

// Partner is the profile shown for the linked user.
type Partner struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	CoupleID string `json:"coupleId"`
	Status   string `json:"status"`
}

// InviteInfo is what the accept page shows for a token.
type InviteInfo struct {
	InviterName string    `json:"inviterName"`
	Status      string    `json:"status"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
