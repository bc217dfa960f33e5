package support

import (
	"context"
	"net/mail"
	"strings"
	"unicode/utf8"

	"empdesk/internal/domain/notifications"
)

// Notifier receives ticket events; implementations must not fail the caller.
type Notifier interface {
	TicketCreated(ctx context.Context, t notifications.TicketEvent)
	TicketResolved(ctx context.Context, t notifications.TicketEvent)
	GuestTicketCreated(ctx context.Context, t notifications.TicketEvent)
	GuestTicketResolved(ctx context.Context, t notifications.TicketEvent)
}

type Service struct {
	Store  StoreAPI
	Notify Notifier
}

func NewService(store StoreAPI, notify Notifier) *Service {
	return &Service{Store: store, Notify: notify}
}

func validateTicket(subject, message string) []FieldIssue {
	var issues []FieldIssue
	if subject == "" {
		issues = append(issues, FieldIssue{Field: "subject", Reason: "is required"})
	} else if utf8.RuneCountInString(subject) > MaxSubjectLength {
		issues = append(issues, FieldIssue{Field: "subject", Reason: "must be at most 200 characters"})
	}
	if message == "" {
		issues = append(issues, FieldIssue{Field: "message", Reason: "is required"})
	}
	return issues
}

func (s *Service) Submit(ctx context.Context, submitter Submitter, subject, message string) (Ticket, error) {
	if submitter.AccountID <= 0 {
		return Ticket{}, ErrUnauthorized
	}
	subject = strings.TrimSpace(subject)
	message = strings.TrimSpace(message)
	if issues := validateTicket(subject, message); len(issues) > 0 {
		return Ticket{}, &ValidationError{Issues: issues}
	}

	ticket, err := s.Store.CreateTicket(ctx, submitter.AccountID, subject, message)
	if err != nil {
		return Ticket{}, err
	}
	if s.Notify != nil {
		email := submitter.Email
		if email == "" {
			email = ticket.AccountEmail
		}
		s.Notify.TicketCreated(ctx, notifications.TicketEvent{
			Email:   email,
			Name:    submitter.DisplayName,
			Subject: ticket.Subject,
			Message: ticket.Message,
		})
	}
	return ticket, nil
}

func (s *Service) ListForAccount(ctx context.Context, accountID int64) ([]Ticket, error) {
	return s.Store.ListTicketsByAccount(ctx, accountID)
}

func (s *Service) ListTickets(ctx context.Context, filter Filter) ([]Ticket, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	return s.Store.ListTickets(ctx, filter)
}

// SetResolved stores the flag; the owner is emailed only when it flips to true.
func (s *Service) SetResolved(ctx context.Context, ticketID int64, resolved bool) (Ticket, bool, error) {
	ticket, changed, err := s.Store.SetTicketResolved(ctx, ticketID, resolved)
	if err != nil {
		return Ticket{}, false, err
	}
	if changed && resolved && s.Notify != nil {
		s.Notify.TicketResolved(ctx, notifications.TicketEvent{
			Email:     ticket.AccountEmail,
			FirstName: ticket.OwnerFirstName,
			Subject:   ticket.Subject,
			Message:   ticket.Message,
		})
	}
	return ticket, changed, nil
}

func (s *Service) Resolve(ctx context.Context, ticketID int64) (Ticket, bool, error) {
	return s.SetResolved(ctx, ticketID, true)
}

func (s *Service) SubmitGuest(ctx context.Context, email, subject, message string) (GuestTicket, error) {
	email = strings.TrimSpace(email)
	subject = strings.TrimSpace(subject)
	message = strings.TrimSpace(message)

	issues := validateTicket(subject, message)
	if email == "" {
		issues = append(issues, FieldIssue{Field: "email", Reason: "is required"})
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		issues = append(issues, FieldIssue{Field: "email", Reason: "must be a valid email address"})
	}
	if len(issues) > 0 {
		return GuestTicket{}, &ValidationError{Issues: issues}
	}

	ticket, err := s.Store.CreateGuestTicket(ctx, email, subject, message)
	if err != nil {
		return GuestTicket{}, err
	}
	if s.Notify != nil {
		s.Notify.GuestTicketCreated(ctx, notifications.TicketEvent{
			Email:   ticket.Email,
			Subject: ticket.Subject,
			Message: ticket.Message,
		})
	}
	return ticket, nil
}

func (s *Service) ListGuestTickets(ctx context.Context, filter Filter) ([]GuestTicket, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	return s.Store.ListGuestTickets(ctx, filter)
}

func (s *Service) SetGuestResolved(ctx context.Context, ticketID int64, resolved bool) (GuestTicket, bool, error) {
	ticket, changed, err := s.Store.SetGuestTicketResolved(ctx, ticketID, resolved)
	if err != nil {
		return GuestTicket{}, false, err
	}
	if changed && resolved && s.Notify != nil {
		s.Notify.GuestTicketResolved(ctx, notifications.TicketEvent{
			Email:   ticket.Email,
			Subject: ticket.Subject,
			Message: ticket.Message,
		})
	}
	return ticket, changed, nil
}

func (s *Service) ResolveGuest(ctx context.Context, ticketID int64) (GuestTicket, bool, error) {
	return s.SetGuestResolved(ctx, ticketID, true)
}
