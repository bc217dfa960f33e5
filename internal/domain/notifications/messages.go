package notifications

import "fmt"

const (
	TypeAccountApproved     = "account_approved"
	TypePasswordReset       = "password_reset"
	TypeTicketCreated       = "ticket_created"
	TypeTicketResolved      = "ticket_resolved"
	TypeGuestTicketCreated  = "guest_ticket_created"
	TypeGuestTicketResolved = "guest_ticket_resolved"
)

type Message struct {
	Subject string
	Body    string
}

// TicketEvent carries what a ticket email needs. Email is the submitter's
// address; Name is the display name for admin mail and FirstName the greeting
// for the resolution mail.
type TicketEvent struct {
	Email     string
	Name      string
	FirstName string
	Subject   string
	Message   string
}

func accountApprovedMessage() Message {
	return Message{
		Subject: "Your Account Has Been Approved",
		Body:    "Hi, your account is approved. You can now login.",
	}
}

func passwordResetMessage(link string) Message {
	return Message{
		Subject: "Password reset requested",
		Body: fmt.Sprintf("You're receiving this email because you requested a password reset for your account.\n\n"+
			"Please go to the following page and choose a new password:\n%s\n\n"+
			"If you did not request this, you can ignore this email.", link),
	}
}

func ticketCreatedMessage(t TicketEvent) Message {
	return Message{
		Subject: fmt.Sprintf("New Emp Complaint Ticket from %s", t.Email),
		Body:    fmt.Sprintf("Employee: %s (%s)\nSubject: %s\nMessage: %s", t.Name, t.Email, t.Subject, t.Message),
	}
}

func ticketResolvedMessage(t TicketEvent) Message {
	return Message{
		Subject: "Your Problem is Resolved",
		Body: fmt.Sprintf("Hello %s,\n\nYour Problem has been resolved:\n\nSubject: %s\nMessage: %s\n\nThank you for reaching out.",
			t.FirstName, t.Subject, t.Message),
	}
}

func guestTicketCreatedMessage(t TicketEvent) Message {
	return Message{
		Subject: fmt.Sprintf("New Guest Complaint From %s", t.Email),
		Body:    fmt.Sprintf("Guest Email: %s\nSubject: %s\nMessage: %s", t.Email, t.Subject, t.Message),
	}
}

func guestTicketResolvedMessage(t TicketEvent) Message {
	return Message{
		Subject: "Your Problem is Resolved",
		Body: fmt.Sprintf("Hello,\n\nYour problem has been resolved:\n\nSubject: %s\nMessage: %s\n\nThank you for reaching out.",
			t.Subject, t.Message),
	}
}
