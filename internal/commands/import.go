package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cleared-dev/books/internal/activitylog"
	"github.com/cleared-dev/books/internal/importer"
)

func newImportCommand(v *viper.Viper) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import bank statement CSVs from import/",
		Long: `Parse every CSV in import/ into the tenant's bank statement and move the
file to import/processed/. The format is detected from the header row
unless --format is given. Rows already imported are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, err := loadApp(cmd, v)
			if err != nil {
				return err
			}
			defer a.Close()

			files, err := importer.Scan(a.root)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(w, "Nothing to import")
				return nil
			}

			reg := importer.DefaultRegistry()
			total := 0
			for _, f := range files {
				p, err := parserFor(reg, a, format, f.Path)
				if err != nil {
					return err
				}
				fh, err := os.Open(f.Path)
				if err != nil {
					return fmt.Errorf("opening %s: %w", f.Name, err)
				}
				txns, err := p.Parse(fh)
				fh.Close()
				if err != nil {
					return fmt.Errorf("%s: %w", f.Name, err)
				}

				added, err := importer.MergeStatement(a.root, a.cfg.Tenant, txns)
				if err != nil {
					return err
				}
				if err := importer.MarkProcessed(a.root, f.Name); err != nil {
					return err
				}
				a.log.Info().
					Str("file", f.Name).
					Str("format", p.Format()).
					Int("rows", len(txns)).
					Int("added", added).
					Msg("statement imported")
				fmt.Fprintf(w, "%s: %d rows, %d new (%s)\n", f.Name, len(txns), added, p.Format())
				total += added
			}

			return a.record(ctx, activitylog.Entry{
				Action:  activitylog.ActionImport,
				Details: fmt.Sprintf("%d files, %d new statement rows", len(files), total),
			}, fmt.Sprintf("import: %d statement rows", total))
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "statement format: chase or native (default: detect)")
	return cmd
}

// parserFor picks the parser named by --format, else the one recognising
// the file's header, else the format of the single configured bank account.
func parserFor(reg *importer.Registry, a *app, format, path string) (importer.Parser, error) {
	if format != "" {
		if p := reg.Get(format); p != nil {
			return p, nil
		}
		return nil, fmt.Errorf("unknown format %q", format)
	}
	p, err := reg.Detect(path)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}
	if len(a.cfg.BankAccounts) == 1 && a.cfg.BankAccounts[0].Format != "" {
		if p := reg.Get(a.cfg.BankAccounts[0].Format); p != nil {
			return p, nil
		}
	}
	return nil, fmt.Errorf("cannot detect the format of %s, use --format", path)
}
