package testfixtures

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"empdesk/internal/domain/support"
)

// AccountLookup resolves the owner details the SQL store joins in.
type AccountLookup func(accountID int64) (email, firstName string)

// SupportStore is an in-memory support.StoreAPI.
type SupportStore struct {
	mu      sync.Mutex
	lookup  AccountLookup
	nextID  int64
	tickets map[int64]support.Ticket
	guests  map[int64]support.GuestTicket
	clock   func() time.Time
}

func NewSupportStore(lookup AccountLookup) *SupportStore {
	return &SupportStore{
		lookup:  lookup,
		tickets: map[int64]support.Ticket{},
		guests:  map[int64]support.GuestTicket{},
		clock:   NewClock(time.Time{}).NowFunc(),
	}
}

// tick returns strictly increasing timestamps so ordering is deterministic.
func (s *SupportStore) tick() time.Time {
	s.nextID++
	return s.clock().Add(time.Duration(s.nextID) * time.Second)
}

func (s *SupportStore) withOwner(t support.Ticket) support.Ticket {
	if s.lookup != nil {
		t.AccountEmail, t.OwnerFirstName = s.lookup(t.AccountID)
	}
	return t
}

func (s *SupportStore) CreateTicket(_ context.Context, accountID int64, subject, message string) (support.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := s.tick()
	t := support.Ticket{ID: s.nextID, AccountID: accountID, Subject: subject, Message: message, CreatedAt: created}
	s.tickets[t.ID] = t
	return s.withOwner(t), nil
}

func (s *SupportStore) ListTicketsByAccount(ctx context.Context, accountID int64) ([]support.Ticket, error) {
	all, err := s.ListTickets(ctx, support.Filter{})
	if err != nil {
		return nil, err
	}
	var out []support.Ticket
	for _, t := range all {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *SupportStore) ListTickets(_ context.Context, filter support.Filter) ([]support.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []support.Ticket
	for _, t := range s.tickets {
		t = s.withOwner(t)
		if filter.Resolved != nil && t.Resolved != *filter.Resolved {
			continue
		}
		if filter.Query != "" && !containsFold(filter.Query, t.Subject, t.AccountEmail) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *SupportStore) SetTicketResolved(_ context.Context, ticketID int64, resolved bool) (support.Ticket, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[ticketID]
	if !ok {
		return support.Ticket{}, false, support.ErrNotFound
	}
	if t.Resolved == resolved {
		return s.withOwner(t), false, nil
	}
	t.Resolved = resolved
	t.ResolvedAt = nil
	if resolved {
		now := s.clock()
		t.ResolvedAt = &now
	}
	s.tickets[ticketID] = t
	return s.withOwner(t), true, nil
}

func (s *SupportStore) CreateGuestTicket(_ context.Context, email, subject, message string) (support.GuestTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := s.tick()
	t := support.GuestTicket{ID: s.nextID, Email: email, Subject: subject, Message: message, CreatedAt: created}
	s.guests[t.ID] = t
	return t, nil
}

func (s *SupportStore) ListGuestTickets(_ context.Context, filter support.Filter) ([]support.GuestTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []support.GuestTicket
	for _, t := range s.guests {
		if filter.Resolved != nil && t.Resolved != *filter.Resolved {
			continue
		}
		if filter.Query != "" && !containsFold(filter.Query, t.Subject, t.Email) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *SupportStore) SetGuestTicketResolved(_ context.Context, ticketID int64, resolved bool) (support.GuestTicket, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.guests[ticketID]
	if !ok {
		return support.GuestTicket{}, false, support.ErrNotFound
	}
	if t.Resolved == resolved {
		return t, false, nil
	}
	t.Resolved = resolved
	t.ResolvedAt = nil
	if resolved {
		now := s.clock()
		t.ResolvedAt = &now
	}
	s.guests[ticketID] = t
	return t, true, nil
}

func containsFold(query string, fields ...string) bool {
	q := strings.ToLower(query)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
