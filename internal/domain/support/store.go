package support

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const ticketColumns = `t.id, t.account_id, a.email, COALESCE(e.first_name, ''), t.subject, t.message,
    t.resolved, t.resolved_at, t.created_at`

const ticketFrom = `
    FROM support_tickets t
    JOIN accounts a ON a.id = t.account_id
    LEFT JOIN employees e ON e.account_id = t.account_id`

func scanTicket(row pgx.Row) (Ticket, error) {
	var out Ticket
	err := row.Scan(&out.ID, &out.AccountID, &out.AccountEmail, &out.OwnerFirstName, &out.Subject,
		&out.Message, &out.Resolved, &out.ResolvedAt, &out.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Ticket{}, ErrNotFound
	}
	return out, err
}

const guestColumns = "id, email, subject, message, resolved, resolved_at, created_at"

func scanGuestTicket(row pgx.Row) (GuestTicket, error) {
	var out GuestTicket
	err := row.Scan(&out.ID, &out.Email, &out.Subject, &out.Message, &out.Resolved, &out.ResolvedAt, &out.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return GuestTicket{}, ErrNotFound
	}
	return out, err
}

func (s *Store) CreateTicket(ctx context.Context, accountID int64, subject, message string) (Ticket, error) {
	var id int64
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO support_tickets (account_id, subject, message)
    VALUES ($1, $2, $3)
    RETURNING id
  `, accountID, subject, message).Scan(&id); err != nil {
		return Ticket{}, err
	}
	return s.ticketByID(ctx, id)
}

func (s *Store) ticketByID(ctx context.Context, id int64) (Ticket, error) {
	return scanTicket(s.DB.QueryRow(ctx, "SELECT "+ticketColumns+ticketFrom+" WHERE t.id = $1", id))
}

func (s *Store) ListTicketsByAccount(ctx context.Context, accountID int64) ([]Ticket, error) {
	return s.queryTickets(ctx, "SELECT "+ticketColumns+ticketFrom+" WHERE t.account_id = $1 ORDER BY t.created_at DESC, t.id DESC", accountID)
}

func (s *Store) ListTickets(ctx context.Context, filter Filter) ([]Ticket, error) {
	query := "SELECT " + ticketColumns + ticketFrom + " WHERE 1 = 1"
	var args []any
	if filter.Resolved != nil {
		args = append(args, *filter.Resolved)
		query += fmt.Sprintf(" AND t.resolved = $%d", len(args))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		n := len(args)
		query += fmt.Sprintf(" AND (t.subject ILIKE $%d OR a.email ILIKE $%d)", n, n)
	}
	query += " ORDER BY t.created_at DESC, t.id DESC"
	return s.queryTickets(ctx, query, args...)
}

func (s *Store) queryTickets(ctx context.Context, query string, args ...any) ([]Ticket, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ticket)
	}
	return out, rows.Err()
}

// SetTicketResolved only writes when the flag actually flips, so concurrent
// callers observe a single transition.
func (s *Store) SetTicketResolved(ctx context.Context, ticketID int64, resolved bool) (Ticket, bool, error) {
	ticket, err := scanTicket(s.DB.QueryRow(ctx, `
    UPDATE support_tickets t
    SET resolved = $2, resolved_at = CASE WHEN $2::boolean THEN now() ELSE NULL END
    FROM accounts a
    LEFT JOIN employees e ON e.account_id = a.id
    WHERE t.id = $1 AND a.id = t.account_id AND t.resolved <> $2
    RETURNING `+ticketColumns, ticketID, resolved))
	if err == nil {
		return ticket, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Ticket{}, false, err
	}
	ticket, err = s.ticketByID(ctx, ticketID)
	if err != nil {
		return Ticket{}, false, err
	}
	return ticket, false, nil
}

func (s *Store) CreateGuestTicket(ctx context.Context, email, subject, message string) (GuestTicket, error) {
	return scanGuestTicket(s.DB.QueryRow(ctx, `
    INSERT INTO guest_support_tickets (email, subject, message)
    VALUES ($1, $2, $3)
    RETURNING `+guestColumns, email, subject, message))
}

func (s *Store) ListGuestTickets(ctx context.Context, filter Filter) ([]GuestTicket, error) {
	query := "SELECT " + guestColumns + " FROM guest_support_tickets WHERE 1 = 1"
	var args []any
	if filter.Resolved != nil {
		args = append(args, *filter.Resolved)
		query += fmt.Sprintf(" AND resolved = $%d", len(args))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		n := len(args)
		query += fmt.Sprintf(" AND (subject ILIKE $%d OR email ILIKE $%d)", n, n)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GuestTicket
	for rows.Next() {
		ticket, err := scanGuestTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ticket)
	}
	return out, rows.Err()
}

func (s *Store) SetGuestTicketResolved(ctx context.Context, ticketID int64, resolved bool) (GuestTicket, bool, error) {
	ticket, err := scanGuestTicket(s.DB.QueryRow(ctx, `
    UPDATE guest_support_tickets
    SET resolved = $2, resolved_at = CASE WHEN $2::boolean THEN now() ELSE NULL END
    WHERE id = $1 AND resolved <> $2
    RETURNING `+guestColumns, ticketID, resolved))
	if err == nil {
		return ticket, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return GuestTicket{}, false, err
	}
	ticket, err = scanGuestTicket(s.DB.QueryRow(ctx, "SELECT "+guestColumns+" FROM guest_support_tickets WHERE id = $1", ticketID))
	if err != nil {
		return GuestTicket{}, false, err
	}
	return ticket, false, nil
}
