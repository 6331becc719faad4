package closing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/balance"
	"github.com/cleared-dev/books/internal/ledger"
	"github.com/cleared-dev/books/internal/model"
)

//go:generate mockgen -source service.go -destination service_mock.go -package closing

// Committer records a finished closing outside the ledger, e.g. as a git
// commit of the books repository. It returns a reference to the record.
type Committer interface {
	Commit(ctx context.Context, message string) (string, error)
}

// Stager applies the posting rules to a voucher inside an open ledger
// update. *journal.Service implements it.
type Stager interface {
	Stage(tx *ledger.Tx, v model.Voucher) (model.Voucher, error)
}

// ErrCommit wraps a Committer failure that happened after the ledger update
// was already durable.
var ErrCommit = errors.New("recording closing commit")

// Outcome describes a completed closing.
type Outcome struct {
	Period    model.FiscalPeriod `json:"period"`
	Closing   *model.Voucher     `json:"closing,omitempty"`
	Opening   *model.Voucher     `json:"opening,omitempty"`
	NetProfit decimal.Decimal    `json:"net_profit"`
	Commit    string             `json:"commit,omitempty"`
}

// Service closes fiscal years exactly once per tenant.
type Service struct {
	store      ledger.Store
	chart      Chart
	stager     Stager
	committer  Committer
	startMonth time.Month
	startDay   int
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCommitter records every closing through c.
func WithCommitter(c Committer) Option {
	return func(s *Service) { s.committer = c }
}

// WithFiscalYearStart sets the first day of the fiscal year. The default is
// January 1.
func WithFiscalYearStart(month time.Month, day int) Option {
	return func(s *Service) { s.startMonth, s.startDay = month, day }
}

// WithClock replaces time.Now for ClosedAt timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a closing Service.
func NewService(store ledger.Store, chart Chart, stager Stager, opts ...Option) *Service {
	s := &Service{
		store:      store,
		chart:      chart,
		stager:     stager,
		startMonth: time.January,
		startDay:   1,
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Window returns the fiscal year window that starts in year.
func (s *Service) Window(year int) balance.Window {
	return balance.FiscalYear(year, s.startMonth, s.startDay)
}

// RuleClosingOrder is the validation rule violated by closing a year out of
// sequence.
const RuleClosingOrder = "closing-order"

// checkOrder refuses a year whose opening voucher would not carry the whole
// ledger forward: an earlier year with vouchers must be closed first, and no
// later year may be closed already.
func checkOrder(tx *ledger.Tx, year int, window balance.Window) error {
	periods := tx.Periods()
	for _, p := range periods {
		if !p.Start.Before(window.End) {
			return apperrors.ValidationError{
				Rule:        RuleClosingOrder,
				Ref:         fmt.Sprint(year),
				Description: fmt.Sprintf("fiscal year %d is already closed; years close in order", p.Year),
			}
		}
	}

	earlier := false
	for _, v := range tx.Vouchers() {
		if v.Date.Before(window.Start) {
			earlier = true
			break
		}
	}
	if !earlier {
		return nil
	}
	for _, p := range periods {
		if p.End.Equal(window.Start) {
			return nil
		}
	}
	return apperrors.ValidationError{
		Rule: RuleClosingOrder,
		Ref:  fmt.Sprint(year),
		Description: fmt.Sprintf("vouchers dated before %s belong to an open fiscal year; close it first",
			window.Start.Format("2006-01-02")),
	}
}

// Close closes fiscal year for tenant. The closing voucher, the opening
// voucher and the FiscalPeriod record are appended in one ledger update; a
// year that already has a FiscalPeriod fails with ErrAlreadyClosed and
// leaves the ledger untouched. Years close in order (see checkOrder).
func (s *Service) Close(ctx context.Context, tenant string, year int) (Outcome, error) {
	l := zerolog.Ctx(ctx)
	window := s.Window(year)

	var out Outcome
	err := s.store.Update(ctx, tenant, func(tx *ledger.Tx) error {
		out = Outcome{}
		if tx.IsClosed(year) {
			return fmt.Errorf("fiscal year %d: %w", year, apperrors.ErrAlreadyClosed)
		}
		if err := checkOrder(tx, year, window); err != nil {
			return err
		}

		res, err := CloseYear(window, tx.Vouchers(), s.chart)
		if err != nil {
			return err
		}
		out.NetProfit = res.NetProfit

		period := model.FiscalPeriod{
			Year:     year,
			Start:    window.Start,
			End:      window.End,
			ClosedAt: s.now().UTC().Truncate(time.Second),
		}
		if res.Closing != nil {
			v, err := s.stager.Stage(tx, *res.Closing)
			if err != nil {
				return fmt.Errorf("staging closing voucher: %w", err)
			}
			out.Closing = &v
			period.ClosingVoucherID = v.ID
		}
		if res.Opening != nil {
			v, err := s.stager.Stage(tx, *res.Opening)
			if err != nil {
				return fmt.Errorf("staging opening voucher: %w", err)
			}
			out.Opening = &v
			period.OpeningVoucherID = v.ID
		}
		out.Period = period
		return tx.MarkClosed(period)
	})
	if err != nil {
		l.Warn().Err(err).Str("tenant", tenant).Int("year", year).Msg("closing failed")
		return Outcome{}, fmt.Errorf("closing fiscal year %d: %w", year, err)
	}

	ev := l.Info().
		Str("tenant", tenant).
		Int("year", year).
		Str("net_profit", out.NetProfit.StringFixed(2))
	if out.Closing != nil {
		ev = ev.Str("closing_voucher", out.Closing.Number)
	}
	if out.Opening != nil {
		ev = ev.Str("opening_voucher", out.Opening.Number)
	}
	ev.Msg("fiscal year closed")

	if s.committer != nil {
		hash, err := s.committer.Commit(ctx, fmt.Sprintf("close: fiscal year %d", year))
		if err != nil {
			l.Error().Err(err).Int("year", year).Msg("commit after closing failed")
			return out, fmt.Errorf("%w: %w", ErrCommit, err)
		}
		out.Commit = hash
	}
	return out, nil
}
