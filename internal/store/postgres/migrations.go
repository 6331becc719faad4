package postgres

import (
	"context"
	"fmt"
)

type migration struct {
	version string
	name    string
	up      string
}

// migrations run in order; applied versions are recorded in
// books_schema_migrations.
var migrations = []migration{
	{
		version: "20250101000001",
		name:    "create_books_vouchers",
		up: `
CREATE TABLE IF NOT EXISTS books_vouchers (
    tenant     TEXT NOT NULL,
    id         TEXT NOT NULL,
    number     TEXT NOT NULL,
    seq        BIGSERIAL,
    date       DATE NOT NULL,
    narration  TEXT NOT NULL DEFAULT '',
    kind       TEXT NOT NULL DEFAULT 'manual',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (tenant, id)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_books_vouchers_number ON books_vouchers (tenant, number);
CREATE INDEX IF NOT EXISTS idx_books_vouchers_date ON books_vouchers (tenant, date);
`,
	},
	{
		version: "20250101000002",
		name:    "create_books_voucher_entries",
		up: `
CREATE TABLE IF NOT EXISTS books_voucher_entries (
    tenant     TEXT NOT NULL,
    voucher_id TEXT NOT NULL,
    line       INT NOT NULL,
    account_id INT NOT NULL,
    debit      NUMERIC(20, 2) NOT NULL DEFAULT 0 CHECK (debit >= 0),
    credit     NUMERIC(20, 2) NOT NULL DEFAULT 0 CHECK (credit >= 0),
    PRIMARY KEY (tenant, voucher_id, line),
    FOREIGN KEY (tenant, voucher_id) REFERENCES books_vouchers (tenant, id) ON DELETE CASCADE
);
`,
	},
	{
		version: "20250101000003",
		name:    "create_books_fiscal_periods",
		up: `
CREATE TABLE IF NOT EXISTS books_fiscal_periods (
    tenant             TEXT NOT NULL,
    year               INT NOT NULL,
    start_date         DATE NOT NULL,
    end_date           DATE NOT NULL,
    closed_at          TIMESTAMPTZ NOT NULL,
    closing_voucher_id TEXT NOT NULL DEFAULT '',
    opening_voucher_id TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (tenant, year)
);
`,
	},
}

// Migrate creates the required tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS books_schema_migrations (
    version    TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`); err != nil {
		return fmt.Errorf("books/postgres: create migrations table: %w", err)
	}

	for _, m := range migrations {
		if err := s.apply(ctx, m); err != nil {
			return fmt.Errorf("books/postgres: migration %s failed: %w", m.name, err)
		}
	}
	return nil
}

func (s *Store) apply(ctx context.Context, m migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	var applied bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM books_schema_migrations WHERE version = $1)`, m.version).Scan(&applied)
	if err != nil {
		return err
	}
	if applied {
		return nil
	}
	if _, err := tx.ExecContext(ctx, m.up); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO books_schema_migrations (version, name) VALUES ($1, $2)`, m.version, m.name); err != nil {
		return err
	}
	return tx.Commit()
}
