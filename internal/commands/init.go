package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cleared-dev/books/internal/accounts"
	"github.com/cleared-dev/books/internal/activitylog"
	"github.com/cleared-dev/books/internal/buildinfo"
	"github.com/cleared-dev/books/internal/config"
	"github.com/cleared-dev/books/internal/gitops"
)

type initOptions struct {
	name        string
	entityType  string
	tenant      string
	fiscalStart string
	noGit       bool
}

func newInitCommand(v *viper.Viper) *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new books repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			opts.tenant = v.GetString("tenant")
			if opts.tenant == "" {
				opts.tenant = "default"
			}
			return runInit(cmd.Context(), cmd.OutOrStdout(), absDir, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&opts.entityType, "entity-type", "llc_single_member", "entity type: llc_single_member or trading")
	cmd.Flags().StringVar(&opts.fiscalStart, "fiscal-year-start", "01-01", "first day of the fiscal year, MM-DD")
	cmd.Flags().BoolVar(&opts.noGit, "no-git", false, "do not initialize a git repository")

	return cmd
}

func runInit(ctx context.Context, w io.Writer, dir string, opts initOptions) error {
	cfg := config.Default(opts.name, opts.entityType)
	cfg.Tenant = opts.tenant
	cfg.Fiscal.YearStart = opts.fiscalStart
	if opts.noGit {
		cfg.Git.AutoCommit = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Create directory structure.
	dirs := []string{
		"accounts",
		"ledger",
		"logs",
		"import",
		filepath.Join("import", "processed"),
		"statements",
		"reconciliation",
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Write books.yaml.
	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write chart of accounts.
	svc := accounts.NewService(accounts.DefaultChart(opts.entityType))
	if err := svc.Save(dir); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}

	// Write .gitignore.
	gitignore := "exports/\n.lock\n*.lock\n*.tmp\ncommit.pending\n.statement-*\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	// Write import/.gitkeep.
	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	entry := activitylog.Entry{Action: activitylog.ActionInit, Details: "Initialize " + opts.name + " with books " + buildinfo.Version}
	if !opts.noGit {
		if err := gitops.Init(ctx, dir); err != nil {
			return fmt.Errorf("git init: %w", err)
		}
		hash, err := gitops.CommitAll(ctx, dir, "init: Initialize "+opts.name, cfg.Git.AuthorName, cfg.Git.AuthorEmail)
		if err != nil {
			return fmt.Errorf("initial commit: %w", err)
		}
		entry.CommitHash = hash
	}

	entry.Timestamp = timeNow()
	entry.Tenant = cfg.Tenant
	if err := activitylog.Append(dir, []activitylog.Entry{entry}); err != nil {
		return err
	}

	if entry.CommitHash != "" {
		fmt.Fprintf(w, "Initialized books repository at %s (%s)\n", dir, entry.CommitHash)
	} else {
		fmt.Fprintf(w, "Initialized books repository at %s\n", dir)
	}
	return nil
}
