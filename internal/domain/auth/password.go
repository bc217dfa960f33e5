package auth

import (
	"net/mail"
	"strings"
	"unicode"
)

const (
	msgMissingUpper   = "Password must contain at least one uppercase letter."
	msgMissingDigit   = "Password must contain at least one number."
	msgMissingSpecial = "Password must contain at least one special character."
)

// ValidatePassword returns one message per violated rule, or nil.
func ValidatePassword(password string) []string {
	hasUpper := false
	hasDigit := false
	hasSpecial := false
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsDigit(char):
			hasDigit = true
		case !unicode.IsLetter(char):
			hasSpecial = true
		}
	}

	var problems []string
	if !hasUpper {
		problems = append(problems, msgMissingUpper)
	}
	if !hasDigit {
		problems = append(problems, msgMissingDigit)
	}
	if !hasSpecial {
		problems = append(problems, msgMissingSpecial)
	}
	return problems
}

func checkPasswordPolicy(password string) error {
	if problems := ValidatePassword(password); len(problems) > 0 {
		return &WeakPasswordError{Problems: problems}
	}
	return nil
}

// NormalizeEmail lower-cases and trims the address, returning "" when it does not parse.
func NormalizeEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return ""
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ""
	}
	return email
}

// DisplayName keeps only the letters of the email local part.
func DisplayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	var b strings.Builder
	for _, char := range local {
		if unicode.IsLetter(char) {
			b.WriteRune(char)
		}
	}
	return b.String()
}
