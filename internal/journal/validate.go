package journal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/id"
	"github.com/cleared-dev/books/internal/model"
)

// Rule names carried by apperrors.ValidationError.Rule.
const (
	RuleBalanced     = "balanced"
	RuleMinEntries   = "min-entries"
	RuleOneSided     = "one-sided"
	RuleNonNegative  = "non-negative"
	RulePrecision    = "precision"
	RuleKnownAccount = "known-account"
	RuleUniqueNumber = "unique-number"
	RuleNumberFormat = "number-format"
)

// AccountChecker tests whether an account ID exists in the chart of accounts.
type AccountChecker interface {
	Exists(id int) bool
}

// NumberChecker tests whether a voucher number is already in the ledger.
// *ledger.Tx implements it.
type NumberChecker interface {
	HasNumber(number string) bool
}

var hundred = decimal.NewFromInt(100)

// ValidateVoucher checks a voucher against the ledger invariants. numbers
// may be nil, and an empty Number is allowed since the service assigns one.
func ValidateVoucher(v model.Voucher, accounts AccountChecker, numbers NumberChecker) apperrors.ValidationErrors {
	var errs apperrors.ValidationErrors
	ref := v.Number
	if ref == "" {
		ref = v.Narration
	}

	if len(v.Entries) < 2 {
		errs = append(errs, apperrors.ValidationError{
			Rule:        RuleMinEntries,
			Ref:         ref,
			Description: fmt.Sprintf("voucher needs at least 2 entries, got %d", len(v.Entries)),
		})
	}

	debit, credit := v.Totals()
	if !debit.Equal(credit) {
		errs = append(errs, apperrors.ValidationError{
			Rule:        RuleBalanced,
			Ref:         ref,
			Description: fmt.Sprintf("debits (%s) != credits (%s)", debit.StringFixed(2), credit.StringFixed(2)),
		})
	}

	for i, e := range v.Entries {
		entryRef := fmt.Sprintf("%s#%d", ref, i+1)

		if e.Debit.IsNegative() || e.Credit.IsNegative() {
			errs = append(errs, apperrors.ValidationError{
				Rule:        RuleNonNegative,
				Ref:         entryRef,
				Description: "debit and credit must not be negative",
			})
		}

		hasDebit := !e.Debit.IsZero()
		hasCredit := !e.Credit.IsZero()
		if hasDebit == hasCredit {
			errs = append(errs, apperrors.ValidationError{
				Rule:        RuleOneSided,
				Ref:         entryRef,
				Description: "entry must have exactly one of debit or credit",
			})
		}

		if accounts != nil && !accounts.Exists(e.AccountID) {
			errs = append(errs, apperrors.ValidationError{
				Rule:        RuleKnownAccount,
				Ref:         entryRef,
				Description: fmt.Sprintf("unknown account %d", e.AccountID),
			})
		}

		for _, amt := range []decimal.Decimal{e.Debit, e.Credit} {
			if !amt.Mul(hundred).Equal(amt.Mul(hundred).Floor()) {
				errs = append(errs, apperrors.ValidationError{
					Rule:        RulePrecision,
					Ref:         entryRef,
					Description: fmt.Sprintf("amount %s has more than 2 decimal places", amt),
				})
			}
		}
	}

	if v.Number != "" {
		year, month, _, err := id.ParseEntryID(v.Number)
		switch {
		case err != nil:
			errs = append(errs, apperrors.ValidationError{
				Rule:        RuleNumberFormat,
				Ref:         v.Number,
				Description: err.Error(),
			})
		case year != v.Date.Year() || month != int(v.Date.Month()):
			errs = append(errs, apperrors.ValidationError{
				Rule:        RuleNumberFormat,
				Ref:         v.Number,
				Description: fmt.Sprintf("date %s not in %04d-%02d", v.Date.Format(dateFormat), year, month),
			})
		}
		if numbers != nil && numbers.HasNumber(v.Number) {
			errs = append(errs, apperrors.ValidationError{
				Rule:        RuleUniqueNumber,
				Ref:         v.Number,
				Description: "voucher number already in use",
			})
		}
	}

	return errs
}
