package auth

import "time"

type Account struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Active       bool       `json:"active"`
	IsAdmin      bool       `json:"isAdmin"`
	HasProfile   bool       `json:"-"`
	Approved     bool       `json:"approved"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
}

type AccountFilter struct {
	Query    string
	Approved *bool
}

// UserContext is the authenticated identity attached to a request.
type UserContext struct {
	AccountID int64
	Email     string
	IsAdmin   bool
	SessionID string
}

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Account   Account   `json:"account"`
}

type PurgeResult struct {
	Sessions       int64 `json:"sessions"`
	PasswordResets int64 `json:"passwordResets"`
}
