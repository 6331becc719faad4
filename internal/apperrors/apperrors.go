// Package apperrors defines the error kinds shared by the ledger engines.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation matches every ValidationError and ValidationErrors.
	ErrValidation = errors.New("validation failed")
	// ErrConfiguration matches every ConfigurationError.
	ErrConfiguration = errors.New("configuration error")
	// ErrAlreadyClosed indicates a second closing request for a closed fiscal year.
	ErrAlreadyClosed = errors.New("fiscal year already closed")
	// ErrPeriodClosed indicates a posting dated inside a closed fiscal year.
	ErrPeriodClosed = errors.New("posting date falls in a closed fiscal year")
	// ErrNotFound indicates a missing record.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a voucher id or number that already exists.
	ErrDuplicate = errors.New("duplicate voucher")
)

// ValidationError describes a single rule violation found at the write boundary.
type ValidationError struct {
	Rule        string
	Ref         string
	Description string
}

func (e ValidationError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("%s: %s", e.Rule, e.Description)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Rule, e.Ref, e.Description)
}

// Is lets errors.Is(err, ErrValidation) match.
func (e ValidationError) Is(target error) bool { return target == ErrValidation }

// ValidationErrors collects every violation found for one submission.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Is lets errors.Is(err, ErrValidation) match.
func (errs ValidationErrors) Is(target error) bool { return target == ErrValidation }

// Has reports whether any violation of rule is present.
func (errs ValidationErrors) Has(rule string) bool {
	for _, e := range errs {
		if e.Rule == rule {
			return true
		}
	}
	return false
}

// ConfigurationError reports missing or contradictory operator configuration.
type ConfigurationError struct {
	Setting     string
	Description string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Description)
}

// Is lets errors.Is(err, ErrConfiguration) match.
func (e ConfigurationError) Is(target error) bool { return target == ErrConfiguration }
