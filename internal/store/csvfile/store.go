// Package csvfile stores each tenant's ledger as monthly journal.csv files
// inside the books repository, one directory per tenant:
//
//	<root>/ledger/<tenant>/2025/01/journal.csv
//	<root>/ledger/<tenant>/periods.csv
//
// An update touching several files is committed by first writing every new
// file next to its target and then a commit.pending manifest naming them.
// Once the manifest exists the update is durable: readers see the new files
// and the next writer finishes any rename a crash interrupted.
package csvfile

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/cleared-dev/books/internal/journal"
	"github.com/cleared-dev/books/internal/ledger"
	"github.com/cleared-dev/books/internal/model"
)

var _ ledger.Store = (*Store)(nil)

const (
	journalFile = "journal.csv"
	periodsFile = "periods.csv"
	lockFile    = ".lock"
	commitFile  = "commit.pending"
)

// ErrLocked is returned when another process holds the tenant lock for
// longer than LockTimeout.
var ErrLocked = errors.New("ledger is locked by another process")

// Store is a ledger.Store on plain CSV files. Writers are serialized by a
// per-tenant mutex within the process and an exclusive lock file across
// processes.
type Store struct {
	root        string
	LockTimeout time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	rename func(oldpath, newpath string) error
}

// New returns a Store rooted at the books repository root.
func New(root string) *Store {
	return &Store{
		root:        root,
		LockTimeout: 10 * time.Second,
		locks:       make(map[string]*sync.Mutex),
		rename:      os.Rename,
	}
}

func (s *Store) tenantDir(tenant string) string {
	return filepath.Join(s.root, "ledger", tenant)
}

func (s *Store) tenantLock(tenant string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.locks[tenant]
	if !ok {
		m = &sync.Mutex{}
		s.locks[tenant] = m
	}
	return m
}

// Update runs fn with the tenant locked and writes its staged appends when
// fn returns nil. Every touched file is written to a temporary sibling first
// and renamed into place only after all of them and the commit manifest were
// written.
func (s *Store) Update(ctx context.Context, tenant string, fn func(tx *ledger.Tx) error) error {
	if err := ledger.ValidateTenant(tenant); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := s.tenantLock(tenant)
	m.Lock()
	defer m.Unlock()

	dir := s.tenantDir(tenant)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating ledger dir: %w", err)
	}
	unlock, err := s.lockFile(ctx, dir)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.rollForward(dir); err != nil {
		return err
	}
	snap, err := s.read(dir)
	if err != nil {
		return err
	}

	tx := ledger.NewTx(snap)
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	vouchers, periods := tx.Staged()
	return s.write(dir, vouchers, periods)
}

// Snapshot reads the tenant's ledger. It takes the in-process lock so it
// never observes a half-renamed update from this process.
func (s *Store) Snapshot(ctx context.Context, tenant string) (ledger.Snapshot, error) {
	if err := ledger.ValidateTenant(tenant); err != nil {
		return ledger.Snapshot{}, err
	}
	if err := ctx.Err(); err != nil {
		return ledger.Snapshot{}, err
	}

	m := s.tenantLock(tenant)
	m.Lock()
	defer m.Unlock()
	return s.read(s.tenantDir(tenant))
}

func (s *Store) lockFile(ctx context.Context, dir string) (func(), error) {
	path := filepath.Join(dir, lockFile)
	deadline := time.Now().Add(s.LockTimeout)
	for {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return func() { os.Remove(path) }, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("creating lock file: %w", err)
		}
		pid, alive := lockHolder(path)
		if !alive {
			// The holder died without unlocking.
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("removing stale lock %s: %w", path, err)
			}
			continue
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s held by pid %d; remove it if no books process is running", ErrLocked, path, pid)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(20 * time.Millisecond):
		}
	}
}

// lockHolder returns the pid recorded in a lock file and whether that
// process may still be running. Only a process known to have exited counts
// as dead; an unreadable or half-written lock is treated as held.
func lockHolder(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, !errors.Is(err, fs.ErrNotExist)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, true
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return pid, true
	}
	return pid, !errors.Is(p.Signal(syscall.Signal(0)), os.ErrProcessDone)
}

func (s *Store) read(dir string) (ledger.Snapshot, error) {
	var snap ledger.Snapshot

	// A committed update whose renames are unfinished is read from its
	// temporary files.
	pending, err := readManifest(dir)
	if err != nil {
		return snap, err
	}
	overlay := make(map[string]string, len(pending))
	for _, p := range pending {
		overlay[p.path] = p.tmp
	}

	seen := make(map[string]bool)
	var journals []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == journalFile {
			journals = append(journals, path)
			seen[path] = true
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return snap, nil
	}
	if err != nil {
		return snap, fmt.Errorf("scanning %s: %w", dir, err)
	}
	for _, p := range pending {
		if filepath.Base(p.path) == journalFile && !seen[p.path] {
			journals = append(journals, p.path)
		}
	}
	sort.Strings(journals)

	for _, path := range journals {
		f, err := openResolved(path, overlay)
		if err != nil {
			return snap, fmt.Errorf("opening journal %s: %w", path, err)
		}
		vs, err := journal.ReadVouchers(f)
		f.Close()
		if err != nil {
			return snap, fmt.Errorf("reading journal %s: %w", path, err)
		}
		snap.Vouchers = append(snap.Vouchers, vs...)
	}

	f, err := openResolved(filepath.Join(dir, periodsFile), overlay)
	if errors.Is(err, fs.ErrNotExist) {
		return snap, nil
	}
	if err != nil {
		return snap, fmt.Errorf("opening periods: %w", err)
	}
	defer f.Close()

	snap.Periods, err = ReadPeriods(f)
	if err != nil {
		return snap, fmt.Errorf("reading periods: %w", err)
	}
	return snap, nil
}

type pendingFile struct {
	tmp, path string
}

func (s *Store) write(dir string, vouchers []model.Voucher, periods []model.FiscalPeriod) error {
	byMonth := make(map[string][]model.Voucher)
	var months []string
	for _, v := range vouchers {
		p := filepath.Join(dir, fmt.Sprintf("%04d", v.Date.Year()), fmt.Sprintf("%02d", int(v.Date.Month())), journalFile)
		if _, ok := byMonth[p]; !ok {
			months = append(months, p)
		}
		byMonth[p] = append(byMonth[p], v)
	}

	var pending []pendingFile
	cleanup := func() {
		for _, p := range pending {
			os.Remove(p.tmp)
		}
	}

	for _, path := range months {
		var buf bytes.Buffer
		existing, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			err = journal.WriteVouchers(&buf, byMonth[path])
		case err != nil:
			cleanup()
			return fmt.Errorf("reading journal %s: %w", path, err)
		default:
			buf.Write(existing)
			err = journal.AppendVouchers(&buf, byMonth[path])
		}
		if err != nil {
			cleanup()
			return fmt.Errorf("encoding journal %s: %w", path, err)
		}
		tmp, err := writeTemp(path, buf.Bytes())
		if err != nil {
			cleanup()
			return err
		}
		pending = append(pending, pendingFile{tmp: tmp, path: path})
	}

	if len(periods) > 0 {
		path := filepath.Join(dir, periodsFile)
		var all []model.FiscalPeriod
		if f, err := os.Open(path); err == nil {
			all, err = ReadPeriods(f)
			f.Close()
			if err != nil {
				cleanup()
				return fmt.Errorf("reading periods: %w", err)
			}
		}
		all = append(all, periods...)

		var buf bytes.Buffer
		if err := WritePeriods(&buf, all); err != nil {
			cleanup()
			return fmt.Errorf("encoding periods: %w", err)
		}
		tmp, err := writeTemp(path, buf.Bytes())
		if err != nil {
			cleanup()
			return err
		}
		pending = append(pending, pendingFile{tmp: tmp, path: path})
	}

	if len(pending) == 0 {
		return nil
	}
	if err := s.writeManifest(dir, pending); err != nil {
		cleanup()
		return err
	}
	return s.finish(dir, pending)
}

// finish renames committed files into place and drops the manifest.
func (s *Store) finish(dir string, pending []pendingFile) error {
	for _, p := range pending {
		err := s.rename(p.tmp, p.path)
		if errors.Is(err, fs.ErrNotExist) {
			if _, serr := os.Stat(p.path); serr == nil {
				continue // renamed before an interruption
			}
		}
		if err != nil {
			return fmt.Errorf("committing %s (completed on next update): %w", p.path, err)
		}
	}
	if err := os.Remove(filepath.Join(dir, commitFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing commit manifest: %w", err)
	}
	return nil
}

// rollForward completes an update interrupted after its manifest was written.
func (s *Store) rollForward(dir string) error {
	pending, err := readManifest(dir)
	if err != nil || len(pending) == 0 {
		return err
	}
	return s.finish(dir, pending)
}

// writeManifest records the files of one update. Renaming the manifest into
// place is the commit point.
func (s *Store) writeManifest(dir string, pending []pendingFile) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, p := range pending {
		tmp, err := filepath.Rel(dir, p.tmp)
		if err != nil {
			return fmt.Errorf("writing commit manifest: %w", err)
		}
		path, err := filepath.Rel(dir, p.path)
		if err != nil {
			return fmt.Errorf("writing commit manifest: %w", err)
		}
		if err := w.Write([]string{filepath.ToSlash(tmp), filepath.ToSlash(path)}); err != nil {
			return fmt.Errorf("writing commit manifest: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing commit manifest: %w", err)
	}

	path := filepath.Join(dir, commitFile)
	tmp, err := writeTemp(path, buf.Bytes())
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("committing manifest: %w", err)
	}
	return nil
}

func readManifest(dir string) ([]pendingFile, error) {
	f, err := os.Open(filepath.Join(dir, commitFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening commit manifest: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = 2
	var out []pendingFile
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading commit manifest: %w", err)
		}
		out = append(out, pendingFile{
			tmp:  filepath.Join(dir, filepath.FromSlash(rec[0])),
			path: filepath.Join(dir, filepath.FromSlash(rec[1])),
		})
	}
}

// openResolved opens the committed-but-unrenamed copy of path if there is
// one, else path itself.
func openResolved(path string, overlay map[string]string) (*os.File, error) {
	if tmp, ok := overlay[path]; ok {
		f, err := os.Open(tmp)
		if err == nil || !errors.Is(err, fs.ErrNotExist) {
			return f, err
		}
	}
	return os.Open(path)
}

func writeTemp(path string, data []byte) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating journal dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", tmp, err)
	}
	return tmp, nil
}
