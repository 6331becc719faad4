package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/id"
	"github.com/cleared-dev/books/internal/ledger"
	"github.com/cleared-dev/books/internal/model"
)

// Service is the write boundary of the ledger: every voucher enters through it.
type Service struct {
	store    ledger.Store
	accounts AccountChecker
	validate *validator.Validate
}

// NewService creates a journal Service.
func NewService(store ledger.Store, accounts AccountChecker) *Service {
	v := validator.New()
	if err := v.RegisterValidation("voucherkind", ValidKind); err != nil {
		panic(err)
	}
	return &Service{store: store, accounts: accounts, validate: v}
}

// ValidKind validates a voucher kind field.
var ValidKind validator.Func = func(fl validator.FieldLevel) bool {
	switch model.VoucherKind(fl.Field().String()) {
	case "", model.KindManual, model.KindClosing, model.KindOpening:
		return true
	}
	return false
}

// EntryRequest is one requested debit or credit line.
type EntryRequest struct {
	AccountID int             `json:"account_id" validate:"required,gt=0"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

// PostRequest holds the parameters of a new voucher.
type PostRequest struct {
	Date      time.Time         `json:"date" validate:"required"`
	Narration string            `json:"narration" validate:"required,max=500"`
	Kind      model.VoucherKind `json:"kind" validate:"voucherkind"`
	Entries   []EntryRequest    `json:"entries" validate:"required,min=2,dive"`
}

// Double is a shorthand for the common two-entry request.
func Double(date time.Time, narration string, debitAccount, creditAccount int, amount decimal.Decimal) PostRequest {
	return PostRequest{
		Date:      date,
		Narration: narration,
		Entries: []EntryRequest{
			{AccountID: debitAccount, Debit: amount, Credit: decimal.Zero},
			{AccountID: creditAccount, Debit: decimal.Zero, Credit: amount},
		},
	}
}

func (r PostRequest) voucher() model.Voucher {
	kind := r.Kind
	if kind == "" {
		kind = model.KindManual
	}
	v := model.Voucher{
		Date:      time.Date(r.Date.Year(), r.Date.Month(), r.Date.Day(), 0, 0, 0, 0, time.UTC),
		Narration: r.Narration,
		Kind:      kind,
		Entries:   make([]model.VoucherEntry, len(r.Entries)),
	}
	for i, e := range r.Entries {
		v.Entries[i] = model.VoucherEntry{AccountID: e.AccountID, Debit: e.Debit, Credit: e.Credit}
	}
	return v
}

// Post validates req and appends it as a new voucher, returning the voucher
// with its assigned ID and number. Nothing is written when validation fails.
func (s *Service) Post(ctx context.Context, tenant string, req PostRequest) (model.Voucher, error) {
	l := zerolog.Ctx(ctx)

	if err := ledger.ValidateTenant(tenant); err != nil {
		return model.Voucher{}, err
	}
	if err := s.validate.Struct(req); err != nil {
		return model.Voucher{}, requestErrors(err)
	}

	v := req.voucher()
	if errs := ValidateVoucher(v, s.accounts, nil); len(errs) > 0 {
		l.Info().Err(errs).Str("tenant", tenant).Msg("voucher rejected")
		return model.Voucher{}, errs
	}

	// fn may run more than once when a backend retries a conflicting commit.
	var posted model.Voucher
	err := s.store.Update(ctx, tenant, func(tx *ledger.Tx) error {
		var err error
		posted, err = s.Stage(tx, v)
		return err
	})
	if err != nil {
		return model.Voucher{}, fmt.Errorf("posting voucher: %w", err)
	}
	v = posted

	l.Info().
		Str("tenant", tenant).
		Str("voucher_id", v.ID).
		Str("number", v.Number).
		Time("date", v.Date).
		Msg("voucher posted")
	return v, nil
}

// Stage validates v against the ledger inside tx, assigns an ID and number
// where missing and appends it. Callers already holding a Tx (year-end
// closing) use it to share the posting rules.
func (s *Service) Stage(tx *ledger.Tx, v model.Voucher) (model.Voucher, error) {
	if p, ok := tx.ClosedPeriodFor(v.Date); ok {
		return model.Voucher{}, fmt.Errorf("voucher dated %s, fiscal year %d: %w",
			v.Date.Format(dateFormat), p.Year, apperrors.ErrPeriodClosed)
	}
	if end := tx.ClosedThrough(); v.Date.Before(end) {
		return model.Voucher{}, fmt.Errorf("voucher dated %s, books closed through %s: %w",
			v.Date.Format(dateFormat), end.AddDate(0, 0, -1).Format(dateFormat), apperrors.ErrPeriodClosed)
	}
	if errs := ValidateVoucher(v, s.accounts, tx); len(errs) > 0 {
		return model.Voucher{}, errs
	}
	if v.ID == "" {
		v.ID = id.NewVoucherID()
	}
	if v.Number == "" {
		v.Number = id.NextEntryID(tx.Numbers(), v.Date)
	}
	if err := tx.Append(v); err != nil {
		return model.Voucher{}, err
	}
	return v, nil
}

func requestErrors(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("validating request: %w", err)
	}
	out := make(apperrors.ValidationErrors, 0, len(ve))
	for _, fe := range ve {
		out = append(out, apperrors.ValidationError{
			Rule:        "request",
			Ref:         fe.Namespace(),
			Description: fmt.Sprintf("failed %q check", fe.Tag()),
		})
	}
	return out
}
