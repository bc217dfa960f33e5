package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"empdesk/internal/domain/auth"
	"empdesk/internal/testfixtures"
)

func TestRegisterErrors(t *testing.T) {
	svc := testfixtures.NewServices()
	ctx := context.Background()

	if _, err := svc.Auth.Register(ctx, "a@x.com", "Aa1!aaaa", "Aa1!aaab"); !errors.Is(err, auth.ErrPasswordMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if _, err := svc.Auth.Register(ctx, "nope", "Aa1!aaaa", "Aa1!aaaa"); !errors.Is(err, auth.ErrInvalidEmail) {
		t.Fatalf("expected invalid email, got %v", err)
	}

	_, err := svc.Auth.Register(ctx, "weak@x.com", "password", "password")
	var weak *auth.WeakPasswordError
	if !errors.As(err, &weak) || len(weak.Problems) != 3 {
		t.Fatalf("expected all three policy problems, got %v", err)
	}

	if _, err := svc.Auth.Register(ctx, "a@x.com", "Aa1!aaaa", "Aa1!aaaa"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Auth.Register(ctx, "A@X.com", "Aa1!aaaa", "Aa1!aaaa"); !errors.Is(err, auth.ErrDuplicateAccount) {
		t.Fatalf("expected duplicate, got %v", err)
	}
}

func TestRegisterDuplicateCheckedBeforePolicy(t *testing.T) {
	svc := testfixtures.NewServices()
	ctx := context.Background()
	if _, err := svc.Auth.Register(ctx, "a@x.com", "Aa1!aaaa", "Aa1!aaaa"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Auth.Register(ctx, "a@x.com", "weak", "weak"); !errors.Is(err, auth.ErrDuplicateAccount) {
		t.Fatalf("expected duplicate before weak password, got %v", err)
	}
}

func TestLoginRequiresApproval(t *testing.T) {
	svc := testfixtures.NewServices()
	ctx := context.Background()

	account, err := svc.Auth.Register(ctx, "a@x.com", "Aa1!aaaa", "Aa1!aaaa")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if account.Approved || !account.HasProfile {
		t.Fatalf("expected unapproved account with profile, got %+v", account)
	}

	if _, err := svc.Auth.Login(ctx, "a@x.com", "wrong"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Auth.Login(ctx, "missing@x.com", "Aa1!aaaa"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}
	if _, err := svc.Auth.Login(ctx, "a@x.com", "Aa1!aaaa"); !errors.Is(err, auth.ErrNotApproved) {
		t.Fatalf("expected not approved, got %v", err)
	}

	if _, err := svc.Auth.SetApproved(ctx, account.ID, true); err != nil {
		t.Fatalf("approve: %v", err)
	}
	session, err := svc.Auth.Login(ctx, "a@x.com", "Aa1!aaaa")
	if err != nil {
		t.Fatalf("login after approval: %v", err)
	}
	user, err := svc.Auth.Authenticate(ctx, session.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.AccountID != account.ID || user.Email != "a@x.com" {
		t.Fatalf("unexpected user %+v", user)
	}

	if err := svc.Auth.Logout(ctx, user); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Auth.Authenticate(ctx, session.Token); !errors.Is(err, auth.ErrInvalidSession) {
		t.Fatalf("expected revoked session, got %v", err)
	}
}

func TestLoginProfileMissing(t *testing.T) {
	svc := testfixtures.NewServices()
	account := svc.ApprovedAccount("p@x.com", "Aa1!aaaa", false)
	svc.AuthStore.DropProfile(account.ID)

	if _, err := svc.Auth.Login(context.Background(), "p@x.com", "Aa1!aaaa"); !errors.Is(err, auth.ErrProfileMissing) {
		t.Fatalf("expected profile missing, got %v", err)
	}
}

func TestApprovalEmailOnlyOnTransition(t *testing.T) {
	svc := testfixtures.NewServices()
	ctx := context.Background()
	account, err := svc.Auth.Register(ctx, "a@x.com", "Aa1!aaaa", "Aa1!aaaa")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.Auth.SetApproved(ctx, account.ID, true); err != nil {
			t.Fatalf("approve: %v", err)
		}
	}
	mails := svc.Mailer.SentTo("a@x.com")
	if len(mails) != 1 || mails[0].Subject != "Your Account Has Been Approved" {
		t.Fatalf("expected exactly one approval mail, got %+v", mails)
	}

	if _, err := svc.Auth.SetApproved(ctx, account.ID, false); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if len(svc.Mailer.Sent()) != 1 {
		t.Fatalf("revoking must not send mail, got %d", len(svc.Mailer.Sent()))
	}
	if _, err := svc.Auth.SetApproved(ctx, account.ID, true); err != nil {
		t.Fatalf("re-approve: %v", err)
	}
	if len(svc.Mailer.SentTo("a@x.com")) != 2 {
		t.Fatal("expected a second approval mail after a new false to true transition")
	}

	if _, err := svc.Auth.SetApproved(ctx, 999, true); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestApprovalSurvivesMailerFailure(t *testing.T) {
	svc := testfixtures.NewServices()
	svc.Mailer.Err = errors.New("smtp down")
	ctx := context.Background()
	account, _ := svc.Auth.Register(ctx, "a@x.com", "Aa1!aaaa", "Aa1!aaaa")

	updated, err := svc.Auth.SetApproved(ctx, account.ID, true)
	if err != nil {
		t.Fatalf("mail failure must not surface: %v", err)
	}
	if !updated.Approved {
		t.Fatal("expected approval to persist")
	}
}

func TestRevokingApprovalEndsSessions(t *testing.T) {
	svc := testfixtures.NewServices()
	ctx := context.Background()
	account := svc.ApprovedAccount("a@x.com", "Aa1!aaaa", false)
	token := svc.Login("a@x.com", "Aa1!aaaa")

	if _, err := svc.Auth.SetApproved(ctx, account.ID, false); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := svc.Auth.Authenticate(ctx, token); !errors.Is(err, auth.ErrInvalidSession) {
		t.Fatalf("expected session revoked, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc := testfixtures.NewServices()
	ctx := context.Background()
	svc.ApprovedAccount("a@x.com", "Aa1!aaaa", false)
	oldToken := svc.Login("a@x.com", "Aa1!aaaa")

	if _, err := svc.Auth.RequestPasswordReset(ctx, "nobody@x.com", "http://app"); !errors.Is(err, auth.ErrUnregisteredEmail) {
		t.Fatalf("expected unregistered email, got %v", err)
	}

	token, err := svc.Auth.RequestPasswordReset(ctx, "a@x.com", "http://app/")
	if err != nil {
		t.Fatalf("request reset: %v", err)
	}
	mails := svc.Mailer.SentTo("a@x.com")
	if len(mails) != 1 || !strings.Contains(mails[0].Body, "http://app/reset/"+token+"/") {
		t.Fatalf("expected reset link mail, got %+v", mails)
	}

	if _, err := svc.Auth.ResetPassword(ctx, token, "Bb2@bbbb", "Bb2@bbbc"); !errors.Is(err, auth.ErrPasswordMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if _, err := svc.Auth.ResetPassword(ctx, token, "weak", "weak"); !errors.Is(err, auth.ErrWeakPassword) {
		t.Fatalf("expected weak password, got %v", err)
	}
	if _, err := svc.Auth.ResetPassword(ctx, token, "Bb2@bbbb", "Bb2@bbbb"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := svc.Auth.ResetPassword(ctx, token, "Cc3#cccc", "Cc3#cccc"); !errors.Is(err, auth.ErrInvalidResetToken) {
		t.Fatalf("expected token to be single use, got %v", err)
	}

	if _, err := svc.Auth.Authenticate(ctx, oldToken); !errors.Is(err, auth.ErrInvalidSession) {
		t.Fatalf("expected existing sessions revoked, got %v", err)
	}
	if _, err := svc.Auth.Login(ctx, "a@x.com", "Bb2@bbbb"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestPurgeStaleKeepsLiveSessions(t *testing.T) {
	svc := testfixtures.NewServices()
	ctx := context.Background()
	svc.ApprovedAccount("a@x.com", "Aa1!aaaa", false)
	live := svc.Login("a@x.com", "Aa1!aaaa")
	gone := svc.Login("a@x.com", "Aa1!aaaa")

	user, err := svc.Auth.Authenticate(ctx, gone)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if err := svc.Auth.Logout(ctx, user); err != nil {
		t.Fatalf("logout: %v", err)
	}

	result, err := svc.Auth.PurgeStale(ctx, time.Now().Add(time.Second), 0)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if result.Sessions != 1 || svc.AuthStore.SessionCount() != 1 {
		t.Fatalf("expected only the revoked session purged, got %+v", result)
	}
	if _, err := svc.Auth.Authenticate(ctx, live); err != nil {
		t.Fatalf("live session should survive purge: %v", err)
	}

	result, err = svc.Auth.PurgeStale(ctx, time.Now().Add(3*time.Hour), time.Hour)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if result.Sessions != 1 || svc.AuthStore.SessionCount() != 0 {
		t.Fatalf("expected expired session purged, got %+v", result)
	}
}
