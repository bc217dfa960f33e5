package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const accountColumns = `
    a.id, a.email, a.password_hash, a.is_active, a.is_admin,
    p.account_id IS NOT NULL, COALESCE(p.approved, false), a.created_at, a.last_login`

func scanAccount(row pgx.Row) (Account, error) {
	var out Account
	err := row.Scan(&out.ID, &out.Email, &out.PasswordHash, &out.Active, &out.IsAdmin,
		&out.HasProfile, &out.Approved, &out.CreatedAt, &out.LastLogin)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	return out, err
}

// CreateAccount inserts the account and its unapproved profile in one transaction.
func (s *Store) CreateAccount(ctx context.Context, email, passwordHash string) (Account, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Account{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	out := Account{Email: email, PasswordHash: passwordHash, Active: true, HasProfile: true}
	err = tx.QueryRow(ctx, `
    INSERT INTO accounts (email, password_hash)
    VALUES ($1, $2)
    RETURNING id, created_at
  `, email, passwordHash).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, ErrDuplicateAccount
		}
		return Account{}, err
	}

	if _, err := tx.Exec(ctx, "INSERT INTO profiles (account_id, approved) VALUES ($1, false)", out.ID); err != nil {
		return Account{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Account{}, err
	}
	return out, nil
}

func (s *Store) AccountByEmail(ctx context.Context, email string) (Account, error) {
	return scanAccount(s.DB.QueryRow(ctx, `
    SELECT`+accountColumns+`
    FROM accounts a
    LEFT JOIN profiles p ON p.account_id = a.id
    WHERE lower(a.email) = lower($1)
  `, email))
}

func (s *Store) AccountByID(ctx context.Context, accountID int64) (Account, error) {
	return scanAccount(s.DB.QueryRow(ctx, `
    SELECT`+accountColumns+`
    FROM accounts a
    LEFT JOIN profiles p ON p.account_id = a.id
    WHERE a.id = $1
  `, accountID))
}

func (s *Store) ListAccounts(ctx context.Context, filter AccountFilter) ([]Account, error) {
	query := `
    SELECT` + accountColumns + `
    FROM accounts a
    LEFT JOIN profiles p ON p.account_id = a.id
    WHERE 1 = 1`
	var args []any
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		query += fmt.Sprintf(" AND a.email ILIKE $%d", len(args))
	}
	if filter.Approved != nil {
		args = append(args, *filter.Approved)
		query += fmt.Sprintf(" AND COALESCE(p.approved, false) = $%d", len(args))
	}
	query += " ORDER BY a.created_at DESC, a.id DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, account)
	}
	return out, rows.Err()
}

// SetApproved stores the flag and reports the previous value. A missing
// profile row is created on the fly.
func (s *Store) SetApproved(ctx context.Context, accountID int64, approved bool) (bool, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var previous bool
	err = tx.QueryRow(ctx, "SELECT approved FROM profiles WHERE account_id = $1 FOR UPDATE", accountID).Scan(&previous)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		var exists bool
		if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)", accountID).Scan(&exists); err != nil {
			return false, err
		}
		if !exists {
			return false, ErrNotFound
		}
		if _, err := tx.Exec(ctx, "INSERT INTO profiles (account_id, approved) VALUES ($1, $2)", accountID, approved); err != nil {
			return false, err
		}
	case err != nil:
		return false, err
	default:
		if _, err := tx.Exec(ctx, "UPDATE profiles SET approved = $1, updated_at = now() WHERE account_id = $2", approved, accountID); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return previous, nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, accountID int64) error {
	_, err := s.DB.Exec(ctx, "UPDATE accounts SET last_login = now() WHERE id = $1", accountID)
	return err
}

func (s *Store) CreateSession(ctx context.Context, accountID int64, tokenHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO sessions (account_id, token_hash, expires_at)
    VALUES ($1, $2, $3)
  `, accountID, tokenHash, expires)
	return err
}

func (s *Store) SessionValid(ctx context.Context, accountID int64, tokenHash string) (bool, error) {
	var valid bool
	if err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM sessions
      WHERE account_id = $1 AND token_hash = $2 AND expires_at > now() AND revoked_at IS NULL
    )
  `, accountID, tokenHash).Scan(&valid); err != nil {
		return false, err
	}
	return valid, nil
}

func (s *Store) RevokeSession(ctx context.Context, accountID int64, tokenHash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE sessions SET revoked_at = now() WHERE account_id = $1 AND token_hash = $2 AND revoked_at IS NULL", accountID, tokenHash)
	return err
}

func (s *Store) RevokeAllSessions(ctx context.Context, accountID int64) error {
	_, err := s.DB.Exec(ctx, "UPDATE sessions SET revoked_at = now() WHERE account_id = $1 AND revoked_at IS NULL", accountID)
	return err
}

func (s *Store) CreatePasswordReset(ctx context.Context, accountID int64, tokenHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, "INSERT INTO password_resets (account_id, token_hash, expires_at) VALUES ($1, $2, $3)", accountID, tokenHash, expires)
	return err
}

// ConsumePasswordReset marks an unexpired, unused token as used and returns its account.
func (s *Store) ConsumePasswordReset(ctx context.Context, tokenHash string) (int64, error) {
	var accountID int64
	err := s.DB.QueryRow(ctx, `
    UPDATE password_resets
    SET used_at = now()
    WHERE token_hash = $1 AND expires_at > now() AND used_at IS NULL
    RETURNING account_id
  `, tokenHash).Scan(&accountID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrInvalidResetToken
	}
	return accountID, err
}

func (s *Store) UpdatePassword(ctx context.Context, accountID int64, passwordHash string) error {
	_, err := s.DB.Exec(ctx, "UPDATE accounts SET password_hash = $1 WHERE id = $2", passwordHash, accountID)
	return err
}

// PurgeStale deletes sessions and reset tokens that expired, were revoked, or
// were used before the cutoff.
func (s *Store) PurgeStale(ctx context.Context, before time.Time) (PurgeResult, error) {
	var result PurgeResult
	tag, err := s.DB.Exec(ctx, `
    DELETE FROM sessions
    WHERE expires_at < $1 OR revoked_at < $1
  `, before)
	if err != nil {
		return result, fmt.Errorf("purge sessions: %w", err)
	}
	result.Sessions = tag.RowsAffected()
	tag, err = s.DB.Exec(ctx, `
    DELETE FROM password_resets
    WHERE expires_at < $1 OR used_at < $1
  `, before)
	if err != nil {
		return result, fmt.Errorf("purge password resets: %w", err)
	}
	result.PasswordResets = tag.RowsAffected()
	return result, nil
}
