package auth

import (
	"context"
	"time"
)

type StoreAPI interface {
	CreateAccount(ctx context.Context, email, passwordHash string) (Account, error)
	AccountByEmail(ctx context.Context, email string) (Account, error)
	AccountByID(ctx context.Context, accountID int64) (Account, error)
	ListAccounts(ctx context.Context, filter AccountFilter) ([]Account, error)
	SetApproved(ctx context.Context, accountID int64, approved bool) (bool, error)
	UpdateLastLogin(ctx context.Context, accountID int64) error
	CreateSession(ctx context.Context, accountID int64, tokenHash string, expires time.Time) error
	SessionValid(ctx context.Context, accountID int64, tokenHash string) (bool, error)
	RevokeSession(ctx context.Context, accountID int64, tokenHash string) error
	RevokeAllSessions(ctx context.Context, accountID int64) error
	CreatePasswordReset(ctx context.Context, accountID int64, tokenHash string, expires time.Time) error
	ConsumePasswordReset(ctx context.Context, tokenHash string) (int64, error)
	UpdatePassword(ctx context.Context, accountID int64, passwordHash string) error
	PurgeStale(ctx context.Context, before time.Time) (PurgeResult, error)
}
