package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

// Output formats for statements.
const (
	formatPretty   = "pretty"
	formatMarkdown = "markdown"
	formatJSON     = "json"
)

const dateFormat = "2006-01-02"

func addFormatFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVar(format, "format", formatPretty, "output format: pretty, markdown or json")
}

// write prints v as JSON or md as markdown, rendered for the terminal when
// format is pretty.
func write(w io.Writer, format string, v any, md string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatMarkdown:
		_, err := io.WriteString(w, md)
		return err
	case formatPretty:
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
		if err != nil {
			return fmt.Errorf("creating renderer: %w", err)
		}
		out, err := r.Render(md)
		if err != nil {
			return fmt.Errorf("rendering markdown: %w", err)
		}
		_, err = io.WriteString(w, out)
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// parseDate parses a YYYY-MM-DD flag value; empty means today.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		y, m, d := time.Now().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}
