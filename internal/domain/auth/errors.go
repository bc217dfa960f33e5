package auth

import (
	"errors"
	"strings"
)

var (
	ErrInvalidEmail       = errors.New("invalid email")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrDuplicateAccount   = errors.New("email already registered")
	ErrWeakPassword       = errors.New("weak password")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrProfileMissing     = errors.New("no profile found")
	ErrNotApproved        = errors.New("account not approved")
	ErrNotFound           = errors.New("account not found")
	ErrUnregisteredEmail  = errors.New("email is not registered")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrInvalidSession     = errors.New("invalid session")
)

// WeakPasswordError lists every policy rule the candidate password violates.
type WeakPasswordError struct {
	Problems []string
}

func (e *WeakPasswordError) Error() string {
	return "weak password: " + strings.Join(e.Problems, " ")
}

func (e *WeakPasswordError) Is(target error) bool {
	return target == ErrWeakPassword
}
