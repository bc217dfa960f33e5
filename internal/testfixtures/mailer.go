package testfixtures

import (
	"context"
	"sync"
)

type Mail struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Mailer records every message and optionally fails each send.
type Mailer struct {
	mu   sync.Mutex
	sent []Mail
	Err  error
}

func (m *Mailer) Send(_ context.Context, from, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, Mail{From: from, To: to, Subject: subject, Body: body})
	return m.Err
}

func (m *Mailer) Sent() []Mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Mail, len(m.sent))
	copy(out, m.sent)
	return out
}

// SentTo returns the messages addressed to the recipient.
func (m *Mailer) SentTo(to string) []Mail {
	var out []Mail
	for _, mail := range m.Sent() {
		if mail.To == to {
			out = append(out, mail)
		}
	}
	return out
}

func (m *Mailer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}
