package identity

import "time"

// User is a registered planner customer.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Phone        string     `json:"phone"`
	PasswordHash []byte     `json:"-"`
	TokenVersion int        `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

// Credentials request structure.
type Credentials struct {
	Email    string
	Password string
}

// Registration carries the signup form.
type Registration struct {
	Email    string
	Password string
	Name     string
	Phone    string
}
