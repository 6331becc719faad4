package recon

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/cleared-dev/books/internal/ledger"
)

// Mark is one cleared transaction of one side in one reconciliation period.
type Mark struct {
	Side          Side
	TransactionID string
}

// ClearedStore persists cleared marks keyed by (tenant, period, side, id).
// Marks live outside the ledger.
type ClearedStore interface {
	Load(ctx context.Context, tenant, period string) ([]Mark, error)
	Set(ctx context.Context, tenant, period string, m Mark, cleared bool) error
}

type markKey struct {
	tenant, period string
}

// MemoryClearedStore keeps marks in memory.
type MemoryClearedStore struct {
	mu    sync.Mutex
	marks map[markKey]map[Mark]bool
}

var _ ClearedStore = (*MemoryClearedStore)(nil)

// NewMemoryClearedStore returns an empty store.
func NewMemoryClearedStore() *MemoryClearedStore {
	return &MemoryClearedStore{marks: make(map[markKey]map[Mark]bool)}
}

// Load returns the cleared marks of a period in a stable order.
func (s *MemoryClearedStore) Load(ctx context.Context, tenant, period string) ([]Mark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Mark
	for m := range s.marks[markKey{tenant, period}] {
		out = append(out, m)
	}
	sortMarks(out)
	return out, nil
}

// Set clears or un-clears one transaction.
func (s *MemoryClearedStore) Set(ctx context.Context, tenant, period string, m Mark, cleared bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := markKey{tenant, period}
	if s.marks[k] == nil {
		s.marks[k] = make(map[Mark]bool)
	}
	if cleared {
		s.marks[k][m] = true
	} else {
		delete(s.marks[k], m)
	}
	return nil
}

// FileClearedStore keeps one CSV of marks per tenant and period:
//
//	<root>/reconciliation/<tenant>/<period>.csv
type FileClearedStore struct {
	root string
	mu   sync.Mutex
}

var _ ClearedStore = (*FileClearedStore)(nil)

// NewFileClearedStore returns a store under the books repository root.
func NewFileClearedStore(root string) *FileClearedStore {
	return &FileClearedStore{root: root}
}

func (s *FileClearedStore) path(tenant, period string) (string, error) {
	if err := ledger.ValidateTenant(tenant); err != nil {
		return "", err
	}
	if err := ValidatePeriod(period); err != nil {
		return "", err
	}
	return filepath.Join(s.root, "reconciliation", tenant, period+".csv"), nil
}

// Load reads the marks of a period. A missing file means nothing is cleared.
func (s *FileClearedStore) Load(ctx context.Context, tenant, period string) ([]Mark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(tenant, period)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return readMarks(path)
}

// Set rewrites the period file with the mark added or removed.
func (s *FileClearedStore) Set(ctx context.Context, tenant, period string, m Mark, cleared bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(tenant, period)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	marks, err := readMarks(path)
	if err != nil {
		return err
	}
	set := make(map[Mark]bool, len(marks)+1)
	for _, existing := range marks {
		set[existing] = true
	}
	if cleared {
		set[m] = true
	} else {
		delete(set, m)
	}
	out := make([]Mark, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sortMarks(out)
	return writeMarks(path, out)
}

func readMarks(path string) ([]Mark, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening cleared marks: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = 2
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading cleared marks %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var marks []Mark
	for i, rec := range records[1:] {
		side := Side(rec[0])
		if !side.Valid() {
			return nil, fmt.Errorf("cleared marks %s row %d: unknown side %q", path, i+2, rec[0])
		}
		marks = append(marks, Mark{Side: side, TransactionID: rec[1]})
	}
	return marks, nil
}

func writeMarks(path string, marks []Mark) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating reconciliation dir: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating cleared marks: %w", err)
	}

	cw := csv.NewWriter(f)
	cw.Write([]string{"side", "transaction_id"}) //nolint:errcheck
	for _, m := range marks {
		cw.Write([]string{string(m.Side), m.TransactionID}) //nolint:errcheck
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing cleared marks: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing cleared marks: %w", err)
	}
	return os.Rename(tmp, path)
}

func sortMarks(marks []Mark) {
	sort.Slice(marks, func(i, j int) bool {
		if marks[i].Side != marks[j].Side {
			return marks[i].Side < marks[j].Side
		}
		return marks[i].TransactionID < marks[j].TransactionID
	})
}
