package importer

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/books/internal/apperrors"
)

func TestLoadStatement_Missing(t *testing.T) {
	txns, err := LoadStatement(t.TempDir(), "acme")
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestLoadStatement_InvalidTenant(t *testing.T) {
	_, err := LoadStatement(t.TempDir(), "../etc")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestMergeStatement(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Open("../../testdata/chase_checking.csv")
	require.NoError(t, err)
	defer f.Close()
	txns, err := (&ChaseParser{}).Parse(f)
	require.NoError(t, err)

	added, err := MergeStatement(dir, "acme", txns[3:])
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	// Re-importing the whole file only adds the rows not seen before.
	added, err = MergeStatement(dir, "acme", txns)
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	added, err = MergeStatement(dir, "acme", txns)
	require.NoError(t, err)
	assert.Zero(t, added)

	stored, err := LoadStatement(dir, "acme")
	require.NoError(t, err)
	require.Len(t, stored, 6)
	for i := 1; i < len(stored); i++ {
		assert.False(t, stored[i].Date.Before(stored[i-1].Date), "sorted by date")
	}
	assert.Equal(t, "chase_20250103_GITHUBPROS", stored[0].ID)
	assert.Equal(t, "4.00", stored[0].Debit.StringFixed(2))

	other, err := LoadStatement(dir, "globex")
	require.NoError(t, err)
	assert.Empty(t, other, "statements are per tenant")
}
