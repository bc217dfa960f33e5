package testfixtures

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"empdesk/internal/domain/auth"
)

type session struct {
	accountID int64
	expires   time.Time
	revokedAt time.Time
}

func (s *session) revoked() bool { return !s.revokedAt.IsZero() }

type passwordReset struct {
	accountID int64
	expires   time.Time
	usedAt    time.Time
}

// AuthStore is an in-memory auth.StoreAPI.
type AuthStore struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]auth.Account
	sessions map[string]*session
	resets   map[string]*passwordReset
}

func NewAuthStore() *AuthStore {
	return &AuthStore{
		accounts: map[int64]auth.Account{},
		sessions: map[string]*session{},
		resets:   map[string]*passwordReset{},
	}
}

func (s *AuthStore) findByEmail(email string) (auth.Account, bool) {
	for _, account := range s.accounts {
		if strings.EqualFold(account.Email, email) {
			return account, true
		}
	}
	return auth.Account{}, false
}

func (s *AuthStore) CreateAccount(_ context.Context, email, passwordHash string) (auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.findByEmail(email); ok {
		return auth.Account{}, auth.ErrDuplicateAccount
	}
	s.nextID++
	account := auth.Account{
		ID:           s.nextID,
		Email:        email,
		PasswordHash: passwordHash,
		Active:       true,
		HasProfile:   true,
		CreatedAt:    time.Now(),
	}
	s.accounts[account.ID] = account
	return account, nil
}

// AddAccount inserts a ready-made account, bypassing registration.
func (s *AuthStore) AddAccount(account auth.Account) auth.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	account.ID = s.nextID
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}
	s.accounts[account.ID] = account
	return account
}

// DropProfile simulates an account whose profile row is missing.
func (s *AuthStore) DropProfile(accountID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account := s.accounts[accountID]
	account.HasProfile = false
	account.Approved = false
	s.accounts[accountID] = account
}

func (s *AuthStore) AccountByEmail(_ context.Context, email string) (auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if account, ok := s.findByEmail(email); ok {
		return account, nil
	}
	return auth.Account{}, auth.ErrNotFound
}

func (s *AuthStore) AccountByID(_ context.Context, accountID int64) (auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return auth.Account{}, auth.ErrNotFound
	}
	return account, nil
}

func (s *AuthStore) ListAccounts(_ context.Context, filter auth.AccountFilter) ([]auth.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []auth.Account
	for _, account := range s.accounts {
		if filter.Query != "" && !strings.Contains(strings.ToLower(account.Email), strings.ToLower(filter.Query)) {
			continue
		}
		if filter.Approved != nil && account.Approved != *filter.Approved {
			continue
		}
		out = append(out, account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *AuthStore) SetApproved(_ context.Context, accountID int64, approved bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return false, auth.ErrNotFound
	}
	previous := account.Approved
	account.HasProfile = true
	account.Approved = approved
	s.accounts[accountID] = account
	return previous, nil
}

func (s *AuthStore) UpdateLastLogin(_ context.Context, accountID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return auth.ErrNotFound
	}
	now := time.Now()
	account.LastLogin = &now
	s.accounts[accountID] = account
	return nil
}

func (s *AuthStore) CreateSession(_ context.Context, accountID int64, tokenHash string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[tokenHash] = &session{accountID: accountID, expires: expires}
	return nil
}

func (s *AuthStore) SessionValid(_ context.Context, accountID int64, tokenHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[tokenHash]
	if !ok {
		return false, nil
	}
	return sess.accountID == accountID && !sess.revoked() && time.Now().Before(sess.expires), nil
}

func (s *AuthStore) RevokeSession(_ context.Context, accountID int64, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[tokenHash]; ok && sess.accountID == accountID && !sess.revoked() {
		sess.revokedAt = time.Now()
	}
	return nil
}

func (s *AuthStore) RevokeAllSessions(_ context.Context, accountID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.accountID == accountID && !sess.revoked() {
			sess.revokedAt = time.Now()
		}
	}
	return nil
}

func (s *AuthStore) CreatePasswordReset(_ context.Context, accountID int64, tokenHash string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets[tokenHash] = &passwordReset{accountID: accountID, expires: expires}
	return nil
}

func (s *AuthStore) ConsumePasswordReset(_ context.Context, tokenHash string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reset, ok := s.resets[tokenHash]
	if !ok || !reset.usedAt.IsZero() || time.Now().After(reset.expires) {
		return 0, auth.ErrInvalidResetToken
	}
	reset.usedAt = time.Now()
	return reset.accountID, nil
}

func (s *AuthStore) UpdatePassword(_ context.Context, accountID int64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return auth.ErrNotFound
	}
	account.PasswordHash = passwordHash
	s.accounts[accountID] = account
	return nil
}

func (s *AuthStore) PurgeStale(_ context.Context, before time.Time) (auth.PurgeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result auth.PurgeResult
	for hash, sess := range s.sessions {
		if sess.expires.Before(before) || (sess.revoked() && sess.revokedAt.Before(before)) {
			delete(s.sessions, hash)
			result.Sessions++
		}
	}
	for hash, reset := range s.resets {
		if reset.expires.Before(before) || (!reset.usedAt.IsZero() && reset.usedAt.Before(before)) {
			delete(s.resets, hash)
			result.PasswordResets++
		}
	}
	return result, nil
}

// SessionCount reports how many session rows are stored.
func (s *AuthStore) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
