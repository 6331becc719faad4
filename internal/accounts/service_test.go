package accounts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/model"
)

func TestNewService(t *testing.T) {
	chart := DefaultChart("llc_single_member")
	svc := NewService(chart)

	assert.Len(t, svc.All(), len(chart))
}

func TestGetExists(t *testing.T) {
	svc := NewService(DefaultChart("llc_single_member"))

	acct, ok := svc.Get(1010)
	assert.True(t, ok)
	assert.Equal(t, "Business Checking", acct.Name)

	_, ok = svc.Get(9999)
	assert.False(t, ok)

	assert.True(t, svc.Exists(1010))
	assert.False(t, svc.Exists(9999))
}

func TestByType(t *testing.T) {
	svc := NewService(DefaultChart("llc_single_member"))

	assets := svc.ByType(model.AccountTypeAsset)
	assert.Len(t, assets, 2, "expected Business Checking + Business Savings")
	for _, a := range assets {
		assert.Equal(t, model.AccountTypeAsset, a.Type)
	}

	expenses := svc.ByType(model.AccountTypeExpense)
	assert.Len(t, expenses, 5)
}

func TestByRole(t *testing.T) {
	svc := NewService(DefaultChart("trading"))

	cogs, ok := svc.ByRole(model.RoleCOGS)
	require.True(t, ok)
	assert.Equal(t, 5000, cogs.ID)

	sales, ok := svc.ByRole(model.RolePrimaryRevenue)
	require.True(t, ok)
	assert.Equal(t, 4010, sales.ID)

	// The service chart has no COGS account.
	_, ok = NewService(DefaultChart("llc_single_member")).ByRole(model.RoleCOGS)
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		accounts []model.Account
		wantErr  string
	}{
		{
			name: "duplicate id",
			accounts: []model.Account{
				{ID: 1010, Name: "Checking", Type: model.AccountTypeAsset},
				{ID: 1010, Name: "Savings", Type: model.AccountTypeAsset},
			},
			wantErr: "account 1010 listed twice",
		},
		{
			name: "duplicate role",
			accounts: []model.Account{
				{ID: 3900, Name: "Retained Earnings", Type: model.AccountTypeEquity, Role: model.RoleRetainedEarnings},
				{ID: 3910, Name: "Prior Earnings", Type: model.AccountTypeEquity, Role: model.RoleRetainedEarnings},
			},
			wantErr: "role held by both 3900 and 3910",
		},
		{
			name: "role on wrong type",
			accounts: []model.Account{
				{ID: 5000, Name: "Cost of Sales", Type: model.AccountTypeRevenue, Role: model.RoleCOGS},
			},
			wantErr: "account 5000 is revenue, want expense",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewService(tt.accounts).Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrConfiguration)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromTestdata(t *testing.T) {
	dir := t.TempDir()
	acctDir := filepath.Join(dir, "accounts")
	require.NoError(t, os.MkdirAll(acctDir, 0o755))

	src, err := os.ReadFile("../../testdata/chart-of-accounts.csv")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(acctDir, "chart-of-accounts.csv"), src, 0o644))

	svc, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, svc.All(), 12)
	assert.True(t, svc.Exists(1010))
}

func TestLoadRejectsInvalidChart(t *testing.T) {
	svc := NewService([]model.Account{
		{ID: 1010, Name: "Checking", Type: model.AccountTypeAsset, Role: model.RoleBank},
		{ID: 1020, Name: "Savings", Type: model.AccountTypeAsset, Role: model.RoleBank},
	})
	dir := t.TempDir()
	require.NoError(t, svc.Save(dir))

	_, err := Load(dir)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestSaveRoundTrip(t *testing.T) {
	chart := DefaultChart("llc_single_member")
	svc := NewService(chart)

	dir := t.TempDir()
	err := svc.Save(dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "accounts", "chart-of-accounts.csv")
	_, err = os.Stat(path)
	require.NoError(t, err)

	svc2, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, svc2.All(), len(chart))

	for _, orig := range chart {
		got, ok := svc2.Get(orig.ID)
		require.True(t, ok, "account %d should exist", orig.ID)
		assert.Equal(t, orig.Name, got.Name)
		assert.Equal(t, orig.Type, got.Type)
		assert.Equal(t, orig.Role, got.Role)
	}
}
