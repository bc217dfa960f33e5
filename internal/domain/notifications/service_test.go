package notifications

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

type sentMail struct {
	from, to, subject, body string
}

type captureMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *captureMailer) Send(_ context.Context, from, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{from: from, to: to, subject: subject, body: body})
	return m.err
}

func TestDispatcherRecipients(t *testing.T) {
	mailer := &captureMailer{}
	d := New(mailer, "desk@example.com", "admin@example.com")
	ctx := context.Background()
	event := TicketEvent{Email: "emp@example.com", Name: "Ann Lee", FirstName: "Ann", Subject: "VPN", Message: "down"}

	d.AccountApproved(ctx, "new@example.com")
	d.TicketCreated(ctx, event)
	d.TicketResolved(ctx, event)
	d.GuestTicketCreated(ctx, TicketEvent{Email: "guest@example.com", Subject: "Hi", Message: "help"})
	d.GuestTicketResolved(ctx, TicketEvent{Email: "guest@example.com", Subject: "Hi", Message: "help"})

	wantTo := []string{"new@example.com", "admin@example.com", "emp@example.com", "admin@example.com", "guest@example.com"}
	if len(mailer.sent) != len(wantTo) {
		t.Fatalf("expected %d mails, got %d", len(wantTo), len(mailer.sent))
	}
	for i, to := range wantTo {
		if mailer.sent[i].to != to {
			t.Fatalf("mail %d: expected recipient %s, got %s", i, to, mailer.sent[i].to)
		}
		if mailer.sent[i].from != "desk@example.com" {
			t.Fatalf("mail %d: unexpected sender %s", i, mailer.sent[i].from)
		}
	}

	if mailer.sent[0].subject != "Your Account Has Been Approved" {
		t.Fatalf("unexpected approval subject %q", mailer.sent[0].subject)
	}
	if mailer.sent[1].subject != "New Emp Complaint Ticket from emp@example.com" {
		t.Fatalf("unexpected ticket subject %q", mailer.sent[1].subject)
	}
	if !strings.Contains(mailer.sent[1].body, "Employee: Ann Lee (emp@example.com)") {
		t.Fatalf("unexpected ticket body %q", mailer.sent[1].body)
	}
	if !strings.HasPrefix(mailer.sent[2].body, "Hello Ann,") {
		t.Fatalf("unexpected resolution body %q", mailer.sent[2].body)
	}
	if mailer.sent[3].subject != "New Guest Complaint From guest@example.com" {
		t.Fatalf("unexpected guest subject %q", mailer.sent[3].subject)
	}
}

func TestDispatcherSwallowsFailures(t *testing.T) {
	mailer := &captureMailer{err: errors.New("smtp down")}
	d := New(mailer, "", "admin@example.com")

	d.TicketCreated(context.Background(), TicketEvent{Email: "a@example.com"})
	if len(mailer.sent) != 1 {
		t.Fatalf("expected one attempt, got %d", len(mailer.sent))
	}
	if mailer.sent[0].from != "no-reply@example.com" {
		t.Fatalf("expected default sender, got %s", mailer.sent[0].from)
	}
}

func TestDispatcherSkipsBlankRecipient(t *testing.T) {
	mailer := &captureMailer{}
	d := New(mailer, "desk@example.com", "")

	d.TicketCreated(context.Background(), TicketEvent{Email: "a@example.com"})
	if len(mailer.sent) != 0 {
		t.Fatalf("expected no mail without admin address, got %d", len(mailer.sent))
	}

	var nilDispatcher *Dispatcher
	nilDispatcher.AccountApproved(context.Background(), "a@example.com")
}

func TestDispatcherReportsOutcome(t *testing.T) {
	mailer := &captureMailer{err: errors.New("smtp down")}
	d := New(mailer, "", "admin@example.com")

	var outcomes []string
	d.Observe = func(ntype string, err error) {
		outcomes = append(outcomes, ntype)
		if err == nil {
			t.Fatal("expected the send error to be reported")
		}
	}
	d.AccountApproved(context.Background(), "a@example.com")
	if len(outcomes) != 1 || outcomes[0] != TypeAccountApproved {
		t.Fatalf("unexpected outcomes %v", outcomes)
	}
}
