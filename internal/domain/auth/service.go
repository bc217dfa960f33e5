package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

const resetTokenTTL = 2 * time.Hour

// Notifier receives the account events that produce email.
type Notifier interface {
	AccountApproved(ctx context.Context, email string)
	PasswordReset(ctx context.Context, email, link string)
}

type Service struct {
	Store      StoreAPI
	Notify     Notifier
	Secret     string
	SessionTTL time.Duration
}

func NewService(store StoreAPI, notify Notifier, secret string, sessionTTL time.Duration) *Service {
	if sessionTTL <= 0 {
		sessionTTL = 8 * time.Hour
	}
	return &Service{Store: store, Notify: notify, Secret: secret, SessionTTL: sessionTTL}
}

func (s *Service) Register(ctx context.Context, email, password1, password2 string) (Account, error) {
	if password1 != password2 {
		return Account{}, ErrPasswordMismatch
	}
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return Account{}, ErrInvalidEmail
	}
	if _, err := s.Store.AccountByEmail(ctx, normalized); err == nil {
		return Account{}, ErrDuplicateAccount
	} else if !errors.Is(err, ErrNotFound) {
		return Account{}, err
	}
	if err := checkPasswordPolicy(password1); err != nil {
		return Account{}, err
	}

	hash, err := HashPassword(password1)
	if err != nil {
		return Account{}, err
	}
	return s.Store.CreateAccount(ctx, normalized, hash)
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	account, err := s.Store.AccountByEmail(ctx, normalized)
	if errors.Is(err, ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if !account.Active || CheckPassword(account.PasswordHash, password) != nil {
		return Session{}, ErrInvalidCredentials
	}
	if !account.HasProfile {
		return Session{}, ErrProfileMissing
	}
	if !account.Approved {
		return Session{}, ErrNotApproved
	}

	sessionID, err := NewOpaqueToken()
	if err != nil {
		return Session{}, err
	}
	expires := time.Now().Add(s.SessionTTL)
	if err := s.Store.CreateSession(ctx, account.ID, HashToken(sessionID), expires); err != nil {
		return Session{}, err
	}
	token, err := GenerateToken(s.Secret, Claims{
		AccountID: account.ID,
		Email:     account.Email,
		IsAdmin:   account.IsAdmin,
		SessionID: sessionID,
	}, s.SessionTTL)
	if err != nil {
		return Session{}, err
	}

	if err := s.Store.UpdateLastLogin(ctx, account.ID); err != nil {
		slog.Warn("update last_login failed", "accountId", account.ID, "err", err)
	}
	return Session{Token: token, ExpiresAt: expires, Account: account}, nil
}

func (s *Service) Logout(ctx context.Context, user UserContext) error {
	if user.SessionID == "" {
		return nil
	}
	return s.Store.RevokeSession(ctx, user.AccountID, HashToken(user.SessionID))
}

// Authenticate resolves a bearer token into the identity it carries, rejecting
// revoked or expired sessions.
func (s *Service) Authenticate(ctx context.Context, token string) (UserContext, error) {
	claims, err := ParseToken(s.Secret, token)
	if err != nil {
		return UserContext{}, ErrInvalidSession
	}
	user := UserContext{AccountID: claims.AccountID, Email: claims.Email, IsAdmin: claims.IsAdmin, SessionID: claims.SessionID}
	if err := s.ValidateSession(ctx, user); err != nil {
		return UserContext{}, err
	}
	return user, nil
}

func (s *Service) ValidateSession(ctx context.Context, user UserContext) error {
	if user.SessionID == "" {
		return ErrInvalidSession
	}
	valid, err := s.Store.SessionValid(ctx, user.AccountID, HashToken(user.SessionID))
	if err != nil {
		return err
	}
	if !valid {
		return ErrInvalidSession
	}
	return nil
}

// SetApproved stores the approval flag. Only a false to true transition
// produces the approval email; revoking also ends the account's sessions.
func (s *Service) SetApproved(ctx context.Context, accountID int64, approved bool) (Account, error) {
	account, err := s.Store.AccountByID(ctx, accountID)
	if err != nil {
		return Account{}, err
	}
	previous, err := s.Store.SetApproved(ctx, accountID, approved)
	if err != nil {
		return Account{}, err
	}
	account.HasProfile = true
	account.Approved = approved

	switch {
	case approved && !previous:
		if s.Notify != nil {
			s.Notify.AccountApproved(ctx, account.Email)
		}
	case !approved && previous:
		if err := s.Store.RevokeAllSessions(ctx, accountID); err != nil {
			slog.Warn("revoke sessions after unapproval failed", "accountId", accountID, "err", err)
		}
	}
	return account, nil
}

func (s *Service) SetApprovedByEmail(ctx context.Context, email string, approved bool) (Account, error) {
	account, err := s.Store.AccountByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return Account{}, err
	}
	return s.SetApproved(ctx, account.ID, approved)
}

func (s *Service) ListAccounts(ctx context.Context, filter AccountFilter) ([]Account, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	return s.Store.ListAccounts(ctx, filter)
}

func (s *Service) Account(ctx context.Context, accountID int64) (Account, error) {
	return s.Store.AccountByID(ctx, accountID)
}

// RequestPasswordReset issues a one-time reset link for a registered email.
// The returned token is only meant for callers that deliver it out of band.
func (s *Service) RequestPasswordReset(ctx context.Context, email, baseURL string) (string, error) {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return "", ErrInvalidEmail
	}
	account, err := s.Store.AccountByEmail(ctx, normalized)
	if errors.Is(err, ErrNotFound) {
		return "", ErrUnregisteredEmail
	}
	if err != nil {
		return "", err
	}

	token, err := NewOpaqueToken()
	if err != nil {
		return "", err
	}
	if err := s.Store.CreatePasswordReset(ctx, account.ID, HashToken(token), time.Now().Add(resetTokenTTL)); err != nil {
		return "", err
	}
	if s.Notify != nil {
		s.Notify.PasswordReset(ctx, account.Email, strings.TrimRight(baseURL, "/")+"/reset/"+token+"/")
	}
	return token, nil
}

// ResetPassword consumes a reset token and returns the account it belonged to.
func (s *Service) ResetPassword(ctx context.Context, token, password1, password2 string) (int64, error) {
	if strings.TrimSpace(token) == "" {
		return 0, ErrInvalidResetToken
	}
	if password1 != password2 {
		return 0, ErrPasswordMismatch
	}
	if err := checkPasswordPolicy(password1); err != nil {
		return 0, err
	}
	hash, err := HashPassword(password1)
	if err != nil {
		return 0, err
	}

	accountID, err := s.Store.ConsumePasswordReset(ctx, HashToken(token))
	if err != nil {
		return 0, err
	}
	if err := s.Store.UpdatePassword(ctx, accountID, hash); err != nil {
		return 0, err
	}
	if err := s.Store.RevokeAllSessions(ctx, accountID); err != nil {
		slog.Warn("revoke sessions after reset failed", "accountId", accountID, "err", err)
	}
	return accountID, nil
}

// PurgeStale drops session and reset rows that can no longer authenticate
// anything. Rows are kept for the grace period after they lapse.
func (s *Service) PurgeStale(ctx context.Context, now time.Time, grace time.Duration) (PurgeResult, error) {
	return s.Store.PurgeStale(ctx, now.Add(-grace))
}
