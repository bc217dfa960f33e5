package support

import "time"

const MaxSubjectLength = 200

type Ticket struct {
	ID             int64      `json:"id"`
	AccountID      int64      `json:"accountId"`
	AccountEmail   string     `json:"accountEmail"`
	OwnerFirstName string     `json:"-"`
	Subject        string     `json:"subject"`
	Message        string     `json:"message"`
	Resolved       bool       `json:"resolved"`
	ResolvedAt     *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type GuestTicket struct {
	ID         int64      `json:"id"`
	Email      string     `json:"email"`
	Subject    string     `json:"subject"`
	Message    string     `json:"message"`
	Resolved   bool       `json:"resolved"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Submitter identifies the authenticated author of a ticket.
type Submitter struct {
	AccountID   int64
	Email       string
	DisplayName string
}

type Filter struct {
	Resolved *bool
	Query    string
}
