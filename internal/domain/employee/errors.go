package employee

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound       = errors.New("employee not found")
	ErrAlreadyExists  = errors.New("employee record already exists for account")
	ErrDuplicateEmail = errors.New("employee email already exists")
	ErrDuplicatePhone = errors.New("employee phone already exists")
	ErrValidation     = errors.New("employee validation failed")
)

type FieldIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError reports every invalid field at once.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Field+": "+issue.Reason)
	}
	return "employee validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

type validator struct {
	issues []FieldIssue
}

func (v *validator) add(field, reason string) {
	v.issues = append(v.issues, FieldIssue{Field: field, Reason: reason})
}

func (v *validator) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.add(field, "is required")
	}
}

func (v *validator) err() error {
	if len(v.issues) == 0 {
		return nil
	}
	sort.SliceStable(v.issues, func(i, j int) bool { return v.issues[i].Field < v.issues[j].Field })
	return &ValidationError{Issues: v.issues}
}
