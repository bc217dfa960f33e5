package notifications

import (
	"context"
	"log/slog"
	"strings"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// Dispatcher turns domain events into email. Sends are synchronous and
// best-effort: failures are logged and never returned to the caller.
type Dispatcher struct {
	Mailer     Mailer
	From       string
	AdminEmail string
	// Observe, when set, is told the outcome of every attempted send.
	Observe func(ntype string, err error)
}

func New(mailer Mailer, from, adminEmail string) *Dispatcher {
	if strings.TrimSpace(from) == "" {
		from = "no-reply@example.com"
	}
	return &Dispatcher{Mailer: mailer, From: from, AdminEmail: adminEmail}
}

func (d *Dispatcher) AccountApproved(ctx context.Context, email string) {
	d.send(ctx, TypeAccountApproved, email, accountApprovedMessage())
}

func (d *Dispatcher) PasswordReset(ctx context.Context, email, link string) {
	d.send(ctx, TypePasswordReset, email, passwordResetMessage(link))
}

func (d *Dispatcher) TicketCreated(ctx context.Context, t TicketEvent) {
	d.send(ctx, TypeTicketCreated, d.AdminEmail, ticketCreatedMessage(t))
}

func (d *Dispatcher) TicketResolved(ctx context.Context, t TicketEvent) {
	d.send(ctx, TypeTicketResolved, t.Email, ticketResolvedMessage(t))
}

func (d *Dispatcher) GuestTicketCreated(ctx context.Context, t TicketEvent) {
	d.send(ctx, TypeGuestTicketCreated, d.AdminEmail, guestTicketCreatedMessage(t))
}

func (d *Dispatcher) GuestTicketResolved(ctx context.Context, t TicketEvent) {
	d.send(ctx, TypeGuestTicketResolved, t.Email, guestTicketResolvedMessage(t))
}

func (d *Dispatcher) send(ctx context.Context, ntype, to string, msg Message) {
	if d == nil || d.Mailer == nil {
		return
	}
	to = strings.TrimSpace(to)
	if to == "" {
		slog.Warn("notification skipped, no recipient", "type", ntype)
		return
	}
	err := d.Mailer.Send(ctx, d.From, to, msg.Subject, msg.Body)
	if err != nil {
		slog.Warn("notification email send failed", "type", ntype, "to", to, "err", err)
	}
	if d.Observe != nil {
		d.Observe(ntype, err)
	}
}
