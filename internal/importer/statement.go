package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cleared-dev/books/internal/ledger"
	"github.com/cleared-dev/books/internal/model"
)

// StatementPath returns where a tenant's imported bank statement lives.
func StatementPath(repoRoot, tenant string) string {
	return filepath.Join(repoRoot, "statements", tenant, "statement.csv")
}

// LoadStatement reads every imported statement transaction for tenant. A
// tenant that never imported anything has an empty statement.
func LoadStatement(repoRoot, tenant string) ([]model.BankStatementTransaction, error) {
	if err := ledger.ValidateTenant(tenant); err != nil {
		return nil, err
	}
	f, err := os.Open(StatementPath(repoRoot, tenant))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening statement: %w", err)
	}
	defer f.Close()
	return (&NativeParser{}).Parse(f)
}

// MergeStatement adds txns to the tenant's statement, skipping IDs already
// present, and returns how many rows were added. Rows are kept sorted by
// date then ID.
func MergeStatement(repoRoot, tenant string, txns []model.BankStatementTransaction) (int, error) {
	existing, err := LoadStatement(repoRoot, tenant)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]bool, len(existing))
	for _, t := range existing {
		seen[t.ID] = true
	}
	added := 0
	for _, t := range txns {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		existing = append(existing, t)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	sort.SliceStable(existing, func(i, j int) bool {
		if !existing[i].Date.Equal(existing[j].Date) {
			return existing[i].Date.Before(existing[j].Date)
		}
		return existing[i].ID < existing[j].ID
	})

	path := StatementPath(repoRoot, tenant)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("creating statement dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".statement-*.csv")
	if err != nil {
		return 0, fmt.Errorf("creating temp statement: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := WriteNative(tmp, existing); err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("closing temp statement: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("replacing statement: %w", err)
	}
	return added, nil
}
