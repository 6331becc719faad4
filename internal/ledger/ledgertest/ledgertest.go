// Package ledgertest holds the behavior every ledger.Store backend must share.
package ledgertest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/id"
	"github.com/cleared-dev/books/internal/ledger"
	"github.com/cleared-dev/books/internal/model"
	"github.com/cleared-dev/books/internal/testfixture"
)

// Run exercises a Store implementation. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) ledger.Store) {
	t.Run("EmptySnapshot", func(t *testing.T) { testEmptySnapshot(t, newStore(t)) })
	t.Run("CommitAndRead", func(t *testing.T) { testCommitAndRead(t, newStore(t)) })
	t.Run("RollbackOnError", func(t *testing.T) { testRollback(t, newStore(t)) })
	t.Run("DuplicateNumber", func(t *testing.T) { testDuplicateNumber(t, newStore(t)) })
	t.Run("TenantIsolation", func(t *testing.T) { testTenantIsolation(t, newStore(t)) })
	t.Run("Periods", func(t *testing.T) { testPeriods(t, newStore(t)) })
	t.Run("ConcurrentWriters", func(t *testing.T) { testConcurrentWriters(t, newStore(t)) })
	t.Run("CanceledContext", func(t *testing.T) { testCanceledContext(t, newStore(t)) })
	t.Run("InvalidTenant", func(t *testing.T) { testInvalidTenant(t, newStore(t)) })
}

// AssertVouchersEqual compares vouchers field by field with decimal equality.
func AssertVouchersEqual(t *testing.T, want, got []model.Voucher) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Number, got[i].Number)
		assert.True(t, want[i].Date.Equal(got[i].Date), "voucher %s date: want %s got %s", want[i].Number, want[i].Date, got[i].Date)
		assert.Equal(t, want[i].Narration, got[i].Narration)
		assert.Equal(t, want[i].Kind, got[i].Kind)
		require.Len(t, got[i].Entries, len(want[i].Entries))
		for j, e := range want[i].Entries {
			g := got[i].Entries[j]
			assert.Equal(t, e.AccountID, g.AccountID)
			assert.True(t, e.Debit.Equal(g.Debit), "voucher %s entry %d debit: want %s got %s", want[i].Number, j, e.Debit, g.Debit)
			assert.True(t, e.Credit.Equal(g.Credit), "voucher %s entry %d credit: want %s got %s", want[i].Number, j, e.Credit, g.Credit)
		}
	}
}

func appendAll(vs []model.Voucher) func(tx *ledger.Tx) error {
	return func(tx *ledger.Tx) error {
		for _, v := range vs {
			if err := tx.Append(v); err != nil {
				return err
			}
		}
		return nil
	}
}

func testEmptySnapshot(t *testing.T, s ledger.Store) {
	snap, err := s.Snapshot(context.Background(), "acme")
	require.NoError(t, err)
	assert.Empty(t, snap.Vouchers)
	assert.Empty(t, snap.Periods)
}

func testCommitAndRead(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	vs := testfixture.WorkedVouchers()

	require.NoError(t, s.Update(ctx, "acme", appendAll(vs[:2])))
	require.NoError(t, s.Update(ctx, "acme", func(tx *ledger.Tx) error {
		assert.Len(t, tx.Vouchers(), 2, "committed vouchers are visible inside the next update")
		return tx.Append(vs[2])
	}))

	snap, err := s.Snapshot(ctx, "acme")
	require.NoError(t, err)
	AssertVouchersEqual(t, vs, snap.Vouchers)
}

func testRollback(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	vs := testfixture.WorkedVouchers()
	boom := errors.New("boom")

	err := s.Update(ctx, "acme", func(tx *ledger.Tx) error {
		if err := appendAll(vs)(tx); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	snap, err := s.Snapshot(ctx, "acme")
	require.NoError(t, err)
	assert.Empty(t, snap.Vouchers)
}

func testDuplicateNumber(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	vs := testfixture.WorkedVouchers()
	require.NoError(t, s.Update(ctx, "acme", appendAll(vs[:1])))

	dup := vs[1]
	dup.Number = vs[0].Number
	err := s.Update(ctx, "acme", appendAll([]model.Voucher{vs[2], dup}))
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	snap, err := s.Snapshot(ctx, "acme")
	require.NoError(t, err)
	assert.Len(t, snap.Vouchers, 1, "failed update must not leave partial appends")
}

func testTenantIsolation(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	vs := testfixture.WorkedVouchers()
	require.NoError(t, s.Update(ctx, "acme", appendAll(vs)))

	// Same numbers are fine in another tenant.
	require.NoError(t, s.Update(ctx, "globex", appendAll(vs[:1])))

	acme, err := s.Snapshot(ctx, "acme")
	require.NoError(t, err)
	globex, err := s.Snapshot(ctx, "globex")
	require.NoError(t, err)
	assert.Len(t, acme.Vouchers, 3)
	assert.Len(t, globex.Vouchers, 1)
}

func testPeriods(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	p := model.FiscalPeriod{
		Year:             2025,
		Start:            testfixture.Date(2025, 1, 1),
		End:              testfixture.Date(2026, 1, 1),
		ClosedAt:         time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC),
		ClosingVoucherID: "c1",
		OpeningVoucherID: "o1",
	}
	require.NoError(t, s.Update(ctx, "acme", func(tx *ledger.Tx) error { return tx.MarkClosed(p) }))

	err := s.Update(ctx, "acme", func(tx *ledger.Tx) error { return tx.MarkClosed(p) })
	assert.ErrorIs(t, err, apperrors.ErrAlreadyClosed)

	snap, err := s.Snapshot(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, snap.Periods, 1)
	got := snap.Periods[0]
	assert.Equal(t, 2025, got.Year)
	assert.True(t, p.Start.Equal(got.Start))
	assert.True(t, p.End.Equal(got.End))
	assert.True(t, p.ClosedAt.Equal(got.ClosedAt))
	assert.Equal(t, "c1", got.ClosingVoucherID)
	assert.Equal(t, "o1", got.OpeningVoucherID)
}

func testConcurrentWriters(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	const writers = 12
	date := testfixture.Date(2025, 4, 10)

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.Update(ctx, "acme", func(tx *ledger.Tx) error {
				v := testfixture.Simple(fmt.Sprintf("w%d", i), id.NextEntryID(tx.Numbers(), date), date,
					"concurrent", testfixture.Bank, testfixture.Capital, "1.00")
				return tx.Append(v)
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	snap, err := s.Snapshot(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, snap.Vouchers, writers)
	seen := make(map[string]bool)
	for _, v := range snap.Vouchers {
		assert.False(t, seen[v.Number], "number %s assigned twice", v.Number)
		seen[v.Number] = true
	}
	assert.True(t, seen[fmt.Sprintf("2025-04-%03d", writers)])
}

func testCanceledContext(t *testing.T, s ledger.Store) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.Update(ctx, "acme", func(tx *ledger.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)

	_, err = s.Snapshot(ctx, "acme")
	assert.ErrorIs(t, err, context.Canceled)
}

func testInvalidTenant(t *testing.T, s ledger.Store) {
	err := s.Update(context.Background(), "../other", func(tx *ledger.Tx) error { return nil })
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
