package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountsCSV "github.com/cleared-dev/books/internal/accounts"
	"github.com/cleared-dev/books/internal/activitylog"
	"github.com/cleared-dev/books/internal/config"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "books-test-*")
	if err != nil {
		panic(err)
	}

	binaryPath = filepath.Join(tmpDir, "books")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/books")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	code := m.Run()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}

func runBooks(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// runStdout runs the binary and returns stdout only, so log lines on stderr
// do not corrupt JSON output.
func runStdout(t *testing.T, args ...string) string {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	var stderr []byte
	out, err := cmd.Output()
	if ee, ok := err.(*exec.ExitError); ok {
		stderr = ee.Stderr
	}
	require.NoError(t, err, "books %v: %s", args, stderr)
	return string(out)
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	_, err := runBooks(t, "init", dir, "--name", "Test Biz")
	require.NoError(t, err)

	expectedDirs := []string{
		"accounts",
		"ledger",
		"logs",
		"import",
		filepath.Join("import", "processed"),
		"statements",
		"reconciliation",
	}
	for _, d := range expectedDirs {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
}

func TestInit_Config(t *testing.T) {
	dir := t.TempDir()
	_, err := runBooks(t, "init", dir, "--name", "My Company", "--fiscal-year-start", "07-01")
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(dir, "books.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "My Company", cfg.Business.Name)
	assert.Equal(t, "llc_single_member", cfg.Business.EntityType)
	assert.Equal(t, "07-01", cfg.Fiscal.YearStart)
	assert.Equal(t, "default", cfg.Tenant)
	assert.Equal(t, config.DriverCSV, cfg.Storage.Driver)
}

func TestInit_TenantFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	cmd := exec.Command(binaryPath, "init", dir, "--name", "Acme", "--no-git")
	cmd.Env = append(os.Environ(), "BOOKS_TENANT=acme")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))

	cfg, err := config.Load(filepath.Join(dir, "books.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "acme", cfg.Tenant)
}

func TestInit_RejectsBadFiscalStart(t *testing.T) {
	out, err := runBooks(t, "init", t.TempDir(), "--name", "X", "--fiscal-year-start", "13-01", "--no-git")
	require.Error(t, err)
	assert.Contains(t, out, "fiscal.year_start")
}

func TestInit_Accounts(t *testing.T) {
	dir := t.TempDir()
	_, err := runBooks(t, "init", dir, "--name", "Test Biz")
	require.NoError(t, err)

	path := filepath.Join(dir, "accounts", "chart-of-accounts.csv")
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	accts, err := accountsCSV.ReadAccounts(f)
	require.NoError(t, err)
	assert.Len(t, accts, 12, "default LLC single member chart has 12 accounts")
}

func TestInit_TradingChart(t *testing.T) {
	dir := t.TempDir()
	_, err := runBooks(t, "init", dir, "--name", "Shop", "--entity-type", "trading", "--no-git")
	require.NoError(t, err)

	chart, err := accountsCSV.Load(dir)
	require.NoError(t, err)
	cogs, ok := chart.ByRole("cogs")
	require.True(t, ok)
	assert.Equal(t, 5000, cogs.ID)
}

func TestInit_GitRepo(t *testing.T) {
	dir := t.TempDir()
	_, err := runBooks(t, "init", dir, "--name", "Test Biz")
	require.NoError(t, err)

	// .git directory should exist.
	_, err = os.Stat(filepath.Join(dir, ".git"))
	require.NoError(t, err, ".git should exist")

	// git log should have an init commit.
	log := exec.Command("git", "log", "--format=%s", "-1")
	log.Dir = dir
	out, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "init:")

	// Verify author.
	authorLog := exec.Command("git", "log", "--format=%an <%ae>", "-1")
	authorLog.Dir = dir
	out, err = authorLog.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "Books <books@cleared.dev>")

	entries, err := activitylog.Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, activitylog.ActionInit, entries[0].Action)
	assert.NotEmpty(t, entries[0].CommitHash)
}

func TestInit_NoGit(t *testing.T) {
	dir := t.TempDir()
	_, err := runBooks(t, "init", dir, "--name", "Test Biz", "--no-git")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, ".git"))
	assert.True(t, os.IsNotExist(err))
}

func TestInit_Gitignore(t *testing.T) {
	dir := t.TempDir()
	_, err := runBooks(t, "init", dir, "--name", "Test Biz")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "*.lock", "ledger lock files stay out of git")
	assert.Contains(t, string(data), "commit.pending")
}

func TestInit_RequiresName(t *testing.T) {
	dir := t.TempDir()
	_, err := runBooks(t, "init", dir)
	require.Error(t, err, "init without --name should fail")
}
