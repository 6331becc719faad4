// Package postgres is a ledger.Store on PostgreSQL via lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/ledger"
	"github.com/cleared-dev/books/internal/model"
)

// compile-time interface check
var _ ledger.Store = (*Store)(nil)

// maxAttempts bounds retries after a serialization failure.
const maxAttempts = 3

// Store keeps every tenant in shared tables keyed by tenant. Updates run in a
// SERIALIZABLE transaction that first takes a transaction-scoped advisory
// lock on the tenant, so writers to one tenant queue behind each other while
// other tenants proceed.
type Store struct {
	db *sql.DB
}

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects with the lib/pq driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("books/postgres: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("books/postgres: ping: %w", err)
	}
	return New(db), nil
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Update runs fn inside one serializable transaction.
func (s *Store) Update(ctx context.Context, tenant string, fn func(tx *ledger.Tx) error) error {
	if err := ledger.ValidateTenant(tenant); err != nil {
		return err
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = s.update(ctx, tenant, fn)
		if !isSerializationFailure(err) {
			return err
		}
		zerolog.Ctx(ctx).Warn().Err(err).Str("tenant", tenant).Int("attempt", attempt).Msg("retrying ledger update")
	}
	return err
}

func (s *Store) update(ctx context.Context, tenant string, fn func(tx *ledger.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("books/postgres: begin: %w", err)
	}
	defer sqlTx.Rollback() //nolint:errcheck

	if _, err := sqlTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, tenant); err != nil {
		return fmt.Errorf("books/postgres: lock tenant: %w", err)
	}

	snap, err := load(ctx, sqlTx, tenant)
	if err != nil {
		return err
	}

	tx := ledger.NewTx(snap)
	if err := fn(tx); err != nil {
		return err
	}

	vouchers, periods := tx.Staged()
	for _, v := range vouchers {
		if err := insertVoucher(ctx, sqlTx, tenant, v); err != nil {
			return err
		}
	}
	for _, p := range periods {
		if err := insertPeriod(ctx, sqlTx, tenant, p); err != nil {
			return err
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("books/postgres: commit: %w", err)
	}
	return nil
}

// Snapshot reads the tenant's ledger in a read-only repeatable-read
// transaction so vouchers and periods are mutually consistent.
func (s *Store) Snapshot(ctx context.Context, tenant string) (ledger.Snapshot, error) {
	if err := ledger.ValidateTenant(tenant); err != nil {
		return ledger.Snapshot{}, err
	}
	if err := ctx.Err(); err != nil {
		return ledger.Snapshot{}, err
	}

	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return ledger.Snapshot{}, fmt.Errorf("books/postgres: begin: %w", err)
	}
	defer sqlTx.Rollback() //nolint:errcheck

	return load(ctx, sqlTx, tenant)
}

const selectVouchers = `
SELECT
	id, number, date, narration, kind
FROM books_vouchers
WHERE tenant = $1
ORDER BY seq
`

const selectEntries = `
SELECT
	e.voucher_id, e.account_id, e.debit, e.credit
FROM books_voucher_entries e
JOIN books_vouchers v ON v.tenant = e.tenant AND v.id = e.voucher_id
WHERE e.tenant = $1
ORDER BY v.seq, e.line
`

const selectPeriods = `
SELECT
	year, start_date, end_date, closed_at, closing_voucher_id, opening_voucher_id
FROM books_fiscal_periods
WHERE tenant = $1
ORDER BY year
`

func load(ctx context.Context, q *sql.Tx, tenant string) (ledger.Snapshot, error) {
	l := zerolog.Ctx(ctx)
	var snap ledger.Snapshot

	rows, err := q.QueryContext(ctx, selectVouchers, tenant)
	if err != nil {
		l.Error().Err(err).Str("tenant", tenant).Msg("select vouchers")
		return snap, fmt.Errorf("books/postgres: select vouchers: %w", err)
	}
	index := make(map[string]int)
	for rows.Next() {
		var v model.Voucher
		if err := rows.Scan(&v.ID, &v.Number, &v.Date, &v.Narration, &v.Kind); err != nil {
			rows.Close()
			return snap, fmt.Errorf("books/postgres: scan voucher: %w", err)
		}
		index[v.ID] = len(snap.Vouchers)
		snap.Vouchers = append(snap.Vouchers, v)
	}
	if err := closeRows(rows); err != nil {
		return snap, err
	}

	rows, err = q.QueryContext(ctx, selectEntries, tenant)
	if err != nil {
		return snap, fmt.Errorf("books/postgres: select entries: %w", err)
	}
	for rows.Next() {
		var (
			voucherID string
			e         model.VoucherEntry
		)
		if err := rows.Scan(&voucherID, &e.AccountID, &e.Debit, &e.Credit); err != nil {
			rows.Close()
			return snap, fmt.Errorf("books/postgres: scan entry: %w", err)
		}
		i, ok := index[voucherID]
		if !ok {
			rows.Close()
			return snap, fmt.Errorf("books/postgres: entry for unknown voucher %s", voucherID)
		}
		snap.Vouchers[i].Entries = append(snap.Vouchers[i].Entries, e)
	}
	if err := closeRows(rows); err != nil {
		return snap, err
	}

	rows, err = q.QueryContext(ctx, selectPeriods, tenant)
	if err != nil {
		return snap, fmt.Errorf("books/postgres: select periods: %w", err)
	}
	for rows.Next() {
		var p model.FiscalPeriod
		if err := rows.Scan(&p.Year, &p.Start, &p.End, &p.ClosedAt, &p.ClosingVoucherID, &p.OpeningVoucherID); err != nil {
			rows.Close()
			return snap, fmt.Errorf("books/postgres: scan period: %w", err)
		}
		snap.Periods = append(snap.Periods, p)
	}
	if err := closeRows(rows); err != nil {
		return snap, err
	}

	for i := range snap.Vouchers {
		snap.Vouchers[i].Date = snap.Vouchers[i].Date.UTC()
	}
	for i := range snap.Periods {
		snap.Periods[i].Start = snap.Periods[i].Start.UTC()
		snap.Periods[i].End = snap.Periods[i].End.UTC()
		snap.Periods[i].ClosedAt = snap.Periods[i].ClosedAt.UTC()
	}
	return snap, nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("books/postgres: iterate rows: %w", err)
	}
	return rows.Close()
}

const insertVoucherQuery = `
INSERT INTO
    books_vouchers (tenant, id, number, date, narration, kind)
VALUES
    ($1, $2, $3, $4, $5, $6)
`

const insertEntryQuery = `
INSERT INTO
    books_voucher_entries (tenant, voucher_id, line, account_id, debit, credit)
VALUES
    ($1, $2, $3, $4, $5, $6)
`

func insertVoucher(ctx context.Context, q *sql.Tx, tenant string, v model.Voucher) error {
	l := zerolog.Ctx(ctx)

	date := v.Date.Format("2006-01-02")
	if _, err := q.ExecContext(ctx, insertVoucherQuery, tenant, v.ID, v.Number, date, v.Narration, string(v.Kind)); err != nil {
		l.Error().Err(err).Str("tenant", tenant).Str("number", v.Number).Msg("insert voucher")
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("books/postgres: voucher %s: %w", v.Number, apperrors.ErrDuplicate)
		}
		return fmt.Errorf("books/postgres: insert voucher: %w", err)
	}
	for i, e := range v.Entries {
		if _, err := q.ExecContext(ctx, insertEntryQuery, tenant, v.ID, i, e.AccountID, e.Debit, e.Credit); err != nil {
			return fmt.Errorf("books/postgres: insert entry %d of %s: %w", i, v.Number, err)
		}
	}
	return nil
}

const insertPeriodQuery = `
INSERT INTO
    books_fiscal_periods (tenant, year, start_date, end_date, closed_at, closing_voucher_id, opening_voucher_id)
VALUES
    ($1, $2, $3, $4, $5, $6, $7)
`

func insertPeriod(ctx context.Context, q *sql.Tx, tenant string, p model.FiscalPeriod) error {
	_, err := q.ExecContext(ctx, insertPeriodQuery, tenant, p.Year,
		p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"), p.ClosedAt,
		p.ClosingVoucherID, p.OpeningVoucherID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("books/postgres: fiscal year %d: %w", p.Year, apperrors.ErrAlreadyClosed)
		}
		return fmt.Errorf("books/postgres: insert period: %w", err)
	}
	return nil
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "serialization_failure"
}
