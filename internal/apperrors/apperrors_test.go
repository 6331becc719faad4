package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorIs(t *testing.T) {
	err := fmt.Errorf("posting: %w", ValidationErrors{
		{Rule: "balanced", Ref: "2025-01-001", Description: "debits (10.00) != credits (9.00)"},
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "balanced [2025-01-001]")

	var verrs ValidationErrors
	assert.True(t, errors.As(err, &verrs))
	assert.True(t, verrs.Has("balanced"))
	assert.False(t, verrs.Has("precision"))
}

func TestSingleValidationError(t *testing.T) {
	err := ValidationError{Rule: "unknown-transaction", Description: "no bank row x"}
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "unknown-transaction: no bank row x", err.Error())
}

func TestConfigurationErrorIs(t *testing.T) {
	err := fmt.Errorf("closing 2025: %w", ConfigurationError{Setting: "retained_earnings", Description: "no account has this role"})
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.NotErrorIs(t, err, ErrValidation)
}
