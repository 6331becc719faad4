package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cleared-dev/books/internal/accounts"
	"github.com/cleared-dev/books/internal/activitylog"
	"github.com/cleared-dev/books/internal/config"
	"github.com/cleared-dev/books/internal/gitops"
	"github.com/cleared-dev/books/internal/ledger"
	"github.com/cleared-dev/books/internal/logging"
	"github.com/cleared-dev/books/internal/store/csvfile"
	"github.com/cleared-dev/books/internal/store/memory"
	"github.com/cleared-dev/books/internal/store/postgres"
)

func timeNow() time.Time { return time.Now().UTC().Truncate(time.Second) }

// app is everything a command needs once books.yaml has been read.
type app struct {
	root   string
	cfg    *config.Config
	log    zerolog.Logger
	chart  *accounts.Service
	store  ledger.Store
	closer func() error
}

// loadApp reads the repository at --repo and opens its ledger. The returned
// context carries the logger.
func loadApp(cmd *cobra.Command, v *viper.Viper) (context.Context, *app, error) {
	root, err := filepath.Abs(v.GetString("repo"))
	if err != nil {
		return nil, nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.Load(filepath.Join(root, config.FileName))
	if err != nil {
		return nil, nil, err
	}
	cfg.Override(v)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	log := logging.New(cfg.Log).With().Str("tenant", cfg.Tenant).Logger()
	ctx := log.WithContext(cmd.Context())

	chart, err := accounts.Load(root)
	if err != nil {
		return nil, nil, err
	}

	a := &app{root: root, cfg: cfg, log: log, chart: chart, closer: func() error { return nil }}
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, nil, err
		}
		a.store, a.closer = s, s.Close
	case config.DriverMemory:
		a.store = memory.New()
	default:
		a.store = csvfile.New(root)
	}
	return ctx, a, nil
}

func (a *app) Close() {
	if err := a.closer(); err != nil {
		a.log.Warn().Err(err).Msg("closing ledger store")
	}
}

// fiscalStart returns the configured first day of the fiscal year.
func (a *app) fiscalStart() (time.Month, int) {
	m, d, _ := a.cfg.Fiscal.Start() // validated in loadApp
	return m, d
}

// gitRepo returns the committer for auto-commits, or nil when disabled.
func (a *app) gitRepo() *gitops.Repo {
	if !a.cfg.Git.AutoCommit || !gitops.IsRepo(a.root) {
		return nil
	}
	return &gitops.Repo{Dir: a.root, AuthorName: a.cfg.Git.AuthorName, AuthorEmail: a.cfg.Git.AuthorEmail}
}

// record commits the repository when auto-commit is on and then appends an
// activity log entry carrying the commit hash. The entry itself is picked up
// by the next commit. Failures here never undo the ledger write.
func (a *app) record(ctx context.Context, entry activitylog.Entry, message string) error {
	if entry.CommitHash == "" {
		if repo := a.gitRepo(); repo != nil {
			hash, err := repo.Commit(ctx, message)
			if err != nil {
				a.log.Error().Err(err).Msg("auto-commit failed")
				return fmt.Errorf("committing: %w", err)
			}
			entry.CommitHash = hash
		}
	}
	entry.Timestamp = timeNow()
	entry.Tenant = a.cfg.Tenant
	if err := activitylog.Append(a.root, []activitylog.Entry{entry}); err != nil {
		a.log.Error().Err(err).Msg("writing activity log")
		return err
	}
	return nil
}
