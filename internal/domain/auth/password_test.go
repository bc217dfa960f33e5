package auth

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     []string
	}{
		{name: "valid", password: "Aa1!aaaa"},
		{name: "missing upper", password: "aa1!aaaa", want: []string{msgMissingUpper}},
		{name: "missing digit", password: "Aa!aaaaa", want: []string{msgMissingDigit}},
		{name: "missing special", password: "Aa1aaaaa", want: []string{msgMissingSpecial}},
		{name: "all missing", password: "aaaaaaaa", want: []string{msgMissingUpper, msgMissingDigit, msgMissingSpecial}},
		{name: "space counts as special", password: "Aa1 aaaa"},
		{name: "unicode upper", password: "Éa1!aaaa"},
		{name: "empty", password: "", want: []string{msgMissingUpper, msgMissingDigit, msgMissingSpecial}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ValidatePassword(tc.password)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ValidatePassword(%q) = %v, want %v", tc.password, got, tc.want)
			}
		})
	}
}

func TestWeakPasswordErrorMatchesSentinel(t *testing.T) {
	err := checkPasswordPolicy("weak")
	if !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	var weak *WeakPasswordError
	if !errors.As(err, &weak) || len(weak.Problems) != 3 {
		t.Fatalf("expected three problems, got %+v", weak)
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := map[string]string{
		"  Alice@Example.COM ":  "alice@example.com",
		"bob@example.com":       "bob@example.com",
		"not-an-email":          "",
		"Bob <bob@example.com>": "",
		"":                      "",
	}
	for input, want := range tests {
		if got := NormalizeEmail(input); got != want {
			t.Fatalf("NormalizeEmail(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"john.doe42@example.com": "johndoe",
		"a@x.com":                "a",
		"123@x.com":              "",
		"no-at-sign":             "noatsign",
	}
	for input, want := range tests {
		if got := DisplayName(input); got != want {
			t.Fatalf("DisplayName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", Claims{AccountID: 9, Email: "a@x.com", IsAdmin: true, SessionID: "sid"}, time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.AccountID != 9 || !claims.IsAdmin || claims.SessionID != "sid" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if _, err := ParseToken("other", token); err == nil {
		t.Fatal("expected signature failure with wrong secret")
	}
}
