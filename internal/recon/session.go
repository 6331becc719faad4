package recon

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cleared-dev/books/internal/apperrors"
)

var periodPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// ValidatePeriod checks a reconciliation period key such as "2025-01".
func ValidatePeriod(period string) error {
	if !periodPattern.MatchString(period) {
		return apperrors.ValidationError{
			Rule:        "period",
			Ref:         period,
			Description: "reconciliation period must look like YYYY-MM",
		}
	}
	return nil
}

// Session is one tenant's reconciliation of one period. The bank feed is
// never modified; only cleared marks change, and every change is persisted
// through the ClearedStore before it is visible.
type Session struct {
	ID     string
	Tenant string
	Period string

	store ClearedStore
	bank  []Transaction
	book  []Transaction

	mu      sync.Mutex
	known   map[Side]map[string]bool
	cleared map[Side]map[string]bool
	settled Settled
}

// NewSession loads existing marks for (tenant, period). Marks whose
// transaction is absent from the feeds are ignored.
func NewSession(ctx context.Context, store ClearedStore, tenant, period string, bankFeed, bookFeed []Transaction, opts ...SessionOption) (*Session, error) {
	if err := ValidatePeriod(period); err != nil {
		return nil, err
	}
	s := &Session{
		ID:      uuid.NewString(),
		Tenant:  tenant,
		Period:  period,
		store:   store,
		bank:    append([]Transaction(nil), bankFeed...),
		book:    append([]Transaction(nil), bookFeed...),
		known:   map[Side]map[string]bool{SideBank: {}, SideBook: {}},
		cleared: map[Side]map[string]bool{SideBank: {}, SideBook: {}},
		settled: Settled{},
	}
	for _, o := range opts {
		o(s)
	}
	for _, t := range s.bank {
		s.known[SideBank][t.ID] = true
	}
	for _, t := range s.book {
		s.known[SideBook][t.ID] = true
	}

	marks, err := store.Load(ctx, tenant, period)
	if err != nil {
		return nil, fmt.Errorf("loading cleared marks: %w", err)
	}
	for _, m := range marks {
		if s.known[m.Side][m.TransactionID] {
			s.cleared[m.Side][m.TransactionID] = true
		}
	}

	zerolog.Ctx(ctx).Debug().
		Str("session", s.ID).
		Str("tenant", tenant).
		Str("period", period).
		Int("bank_rows", len(s.bank)).
		Int("book_rows", len(s.book)).
		Int("cleared", len(marks)).
		Msg("reconciliation session opened")
	return s, nil
}

// Toggle flips the cleared mark of one transaction and returns its new state.
func (s *Session) Toggle(ctx context.Context, side Side, transactionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(side, transactionID); err != nil {
		return false, err
	}
	next := !s.cleared[side][transactionID]
	if err := s.set(ctx, side, transactionID, next); err != nil {
		return false, err
	}
	return next, nil
}

// SetCleared marks one transaction as cleared or not.
func (s *Session) SetCleared(ctx context.Context, side Side, transactionID string, cleared bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(side, transactionID); err != nil {
		return err
	}
	return s.set(ctx, side, transactionID, cleared)
}

// ClearMatches clears both transactions of every match.
func (s *Session) ClearMatches(ctx context.Context, matches []Match) error {
	for _, m := range matches {
		if err := s.SetCleared(ctx, SideBank, m.BankID, true); err != nil {
			return err
		}
		if err := s.SetCleared(ctx, SideBook, m.BookID, true); err != nil {
			return err
		}
	}
	return nil
}

// IsCleared reports the current mark of a transaction.
func (s *Session) IsCleared(side Side, transactionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isCleared(side, transactionID)
}

func (s *Session) isCleared(side Side, transactionID string) bool {
	_, settled := s.settled[side][transactionID]
	return settled || s.cleared[side][transactionID]
}

// effective merges this period's marks with the settled ones.
func (s *Session) effective(side Side) map[string]bool {
	out := make(map[string]bool, len(s.cleared[side])+len(s.settled[side]))
	for id := range s.settled[side] {
		out[id] = true
	}
	for id := range s.cleared[side] {
		out[id] = true
	}
	return out
}

// Report reconciles the feeds with the current marks.
func (s *Session) Report() Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Reconcile(s.bank, s.book, s.effective(SideBank), s.effective(SideBook))
}

// Suggest proposes matches among transactions not yet cleared.
func (s *Session) Suggest(maxDays int) []Match {
	s.mu.Lock()
	defer s.mu.Unlock()

	var bank, book []Transaction
	for _, t := range s.bank {
		if !s.isCleared(SideBank, t.ID) {
			bank = append(bank, t)
		}
	}
	for _, t := range s.book {
		if !s.isCleared(SideBook, t.ID) {
			book = append(book, t)
		}
	}
	return SuggestMatches(bank, book, maxDays)
}

func (s *Session) check(side Side, transactionID string) error {
	if !side.Valid() {
		return apperrors.ValidationError{
			Rule:        "side",
			Ref:         string(side),
			Description: "side must be bank or book",
		}
	}
	if !s.known[side][transactionID] {
		return apperrors.ValidationError{
			Rule:        "unknown-transaction",
			Ref:         transactionID,
			Description: fmt.Sprintf("no %s transaction with this id in period %s", side, s.Period),
		}
	}
	if p, ok := s.settled[side][transactionID]; ok {
		return apperrors.ValidationError{
			Rule:        "settled",
			Ref:         transactionID,
			Description: fmt.Sprintf("cleared in reconciliation %s", p),
		}
	}
	return nil
}

func (s *Session) set(ctx context.Context, side Side, transactionID string, cleared bool) error {
	if err := s.store.Set(ctx, s.Tenant, s.Period, Mark{Side: side, TransactionID: transactionID}, cleared); err != nil {
		return fmt.Errorf("saving cleared mark: %w", err)
	}
	if cleared {
		s.cleared[side][transactionID] = true
	} else {
		delete(s.cleared[side], transactionID)
	}
	return nil
}
