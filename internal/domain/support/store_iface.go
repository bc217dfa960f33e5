package support

import "context"

type StoreAPI interface {
	CreateTicket(ctx context.Context, accountID int64, subject, message string) (Ticket, error)
	ListTicketsByAccount(ctx context.Context, accountID int64) ([]Ticket, error)
	ListTickets(ctx context.Context, filter Filter) ([]Ticket, error)
	// SetTicketResolved reports whether the stored flag changed.
	SetTicketResolved(ctx context.Context, ticketID int64, resolved bool) (Ticket, bool, error)

	CreateGuestTicket(ctx context.Context, email, subject, message string) (GuestTicket, error)
	ListGuestTickets(ctx context.Context, filter Filter) ([]GuestTicket, error)
	SetGuestTicketResolved(ctx context.Context, ticketID int64, resolved bool) (GuestTicket, bool, error)
}
