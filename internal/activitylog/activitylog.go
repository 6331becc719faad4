// Package activitylog keeps logs/activity-log.csv, the human-readable trail
// of every write made through the CLI.
package activitylog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Actions recorded in the log.
const (
	ActionInit      = "init"
	ActionPost      = "post"
	ActionClose     = "close_year"
	ActionImport    = "import"
	ActionReconcile = "reconcile"
)

// Entry is one row in the activity log.
type Entry struct {
	Timestamp  time.Time
	Tenant     string
	Action     string
	Details    string
	VoucherID  string
	CommitHash string
}

// Header is the CSV header for activity-log.csv.
const Header = "timestamp,tenant,action,details,voucher_id,commit_hash"

const (
	numFields     = 6
	logDir        = "logs"
	logFile       = "logs/activity-log.csv"
	colTimestamp  = 0
	colTenant     = 1
	colAction     = 2
	colDetails    = 3
	colVoucherID  = 4
	colCommitHash = 5
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colTenant] = e.Tenant
	row[colAction] = e.Action
	row[colDetails] = e.Details
	row[colVoucherID] = e.VoucherID
	row[colCommitHash] = e.CommitHash
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	return Entry{
		Timestamp:  ts,
		Tenant:     record[colTenant],
		Action:     record[colAction],
		Details:    record[colDetails],
		VoucherID:  record[colVoucherID],
		CommitHash: record[colCommitHash],
	}, nil
}

// Append writes entries to <repoRoot>/logs/activity-log.csv, creating the
// file and header if needed.
func Append(repoRoot string, entries []Entry) error {
	dir := filepath.Join(repoRoot, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(repoRoot, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <repoRoot>/logs/activity-log.csv.
// Returns an empty slice if the file does not exist.
func Read(repoRoot string) ([]Entry, error) {
	path := filepath.Join(repoRoot, logFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

// ForTenant returns the entries recorded for tenant, oldest first.
func ForTenant(entries []Entry, tenant string) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Tenant == tenant {
			out = append(out, e)
		}
	}
	return out
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading activity log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
