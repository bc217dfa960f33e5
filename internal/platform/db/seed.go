package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"empdesk/internal/domain/auth"
	"empdesk/internal/platform/config"
)

// Seed ensures the configured administrator exists, approved and flagged as admin.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	email := auth.NormalizeEmail(cfg.SeedAdminEmail)
	if email == "" || strings.TrimSpace(cfg.SeedAdminPassword) == "" {
		return nil
	}
	return ensureAdminAccount(ctx, pool, email, cfg.SeedAdminPassword)
}

func ensureAdminAccount(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	var id int64
	err := pool.QueryRow(ctx, "SELECT id FROM accounts WHERE lower(email) = lower($1)", email).Scan(&id)
	if err != nil {
		hash, hashErr := auth.HashPassword(password)
		if hashErr != nil {
			return hashErr
		}
		if err := pool.QueryRow(ctx, `
      INSERT INTO accounts (email, password_hash, is_admin)
      VALUES ($1, $2, true)
      RETURNING id
    `, email, hash).Scan(&id); err != nil {
			return err
		}
	} else if _, err := pool.Exec(ctx, "UPDATE accounts SET is_admin = true WHERE id = $1", id); err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
    INSERT INTO profiles (account_id, approved)
    VALUES ($1, true)
    ON CONFLICT (account_id) DO UPDATE SET approved = true, updated_at = now()
  `, id)
	return err
}
