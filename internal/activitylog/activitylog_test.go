package activitylog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp:  testTime,
		Tenant:     "acme",
		Action:     ActionPost,
		Details:    "2025-01-001 Owner capital, 500000.00",
		VoucherID:  "0b6f3a52-7f1d-4a4e-9d7e-2b1c7f0f3e11",
		CommitHash: "abc1234",
	}
}

func TestAppend_NewFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testEntry(), entries[0])
}

func TestAppend_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	e2 := testEntry()
	e2.Action = ActionClose
	e2.Details = "fiscal year 2025"
	require.NoError(t, Append(dir, []Entry{e2}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ActionPost, entries[0].Action)
	assert.Equal(t, ActionClose, entries[1].Action)

	data, err := os.ReadFile(filepath.Join(dir, "logs", "activity-log.csv"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), Header), "header written once")
}

func TestRead_NotFound(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestRead_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logs", "activity-log.csv"), []byte(Header+"\n"), 0o644))

	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	_, err := UnmarshalEntry([]string{"one", "two"})
	assert.ErrorContains(t, err, "expected 6 fields")

	_, err = UnmarshalEntry([]string{"yesterday", "acme", "post", "", "", ""})
	assert.ErrorContains(t, err, "parsing timestamp")
}

func TestTimestampFormat(t *testing.T) {
	e := testEntry()
	e.Timestamp = time.Date(2025, 1, 15, 11, 30, 0, 0, time.FixedZone("CET", 3600))
	row := MarshalEntry(e)
	assert.Equal(t, "2025-01-15T10:30:00Z", row[0])
}

func TestForTenant(t *testing.T) {
	a, b := testEntry(), testEntry()
	b.Tenant = "globex"
	got := ForTenant([]Entry{a, b, a}, "acme")
	assert.Len(t, got, 2)
	assert.Empty(t, ForTenant([]Entry{a}, "initech"))
}
