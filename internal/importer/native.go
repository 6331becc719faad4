package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/model"
)

// NativeHeader is the column layout of the books statement format.
var NativeHeader = []string{"id", "date", "description", "debit", "credit"}

const nativeDateFormat = "2006-01-02"

// NativeParser parses the books statement format, which is also how
// imported statements are stored.
type NativeParser struct{}

// Format returns the parser name.
func (p *NativeParser) Format() string { return "native" }

// MatchHeader recognises the native header.
func (p *NativeParser) MatchHeader(fields []string) bool {
	if len(fields) != len(NativeHeader) {
		return false
	}
	for i, f := range fields {
		if !strings.EqualFold(strings.TrimSpace(f), NativeHeader[i]) {
			return false
		}
	}
	return true
}

// Parse reads a native statement CSV. Blank debit or credit cells mean zero.
func (p *NativeParser) Parse(r io.Reader) ([]model.BankStatementTransaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(NativeHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading statement CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	seen := make(map[string]bool)
	txns := make([]model.BankStatementTransaction, 0, len(records)-1)
	for i, rec := range records[1:] {
		txn, err := parseNativeRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if seen[txn.ID] {
			return nil, fmt.Errorf("row %d: duplicate id %q", i+2, txn.ID)
		}
		seen[txn.ID] = true
		txns = append(txns, txn)
	}
	return txns, nil
}

func parseNativeRow(rec []string) (model.BankStatementTransaction, error) {
	id := strings.TrimSpace(rec[0])
	if id == "" {
		return model.BankStatementTransaction{}, fmt.Errorf("missing id")
	}
	date, err := time.Parse(nativeDateFormat, rec[1])
	if err != nil {
		return model.BankStatementTransaction{}, fmt.Errorf("parsing date %q: %w", rec[1], err)
	}
	debit, err := parseAmount(rec[3])
	if err != nil {
		return model.BankStatementTransaction{}, err
	}
	credit, err := parseAmount(rec[4])
	if err != nil {
		return model.BankStatementTransaction{}, err
	}
	if debit.IsNegative() || credit.IsNegative() {
		return model.BankStatementTransaction{}, fmt.Errorf("negative amount in %q", id)
	}
	return model.BankStatementTransaction{
		ID:          id,
		Date:        date,
		Description: rec[2],
		Debit:       debit,
		Credit:      credit,
		Reference:   id,
	}, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return d, nil
}

// WriteNative writes txns in the native format.
func WriteNative(w io.Writer, txns []model.BankStatementTransaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(NativeHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, t := range txns {
		rec := []string{t.ID, t.Date.Format(nativeDateFormat), t.Description, cellAmount(t.Debit), cellAmount(t.Credit)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func cellAmount(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.StringFixed(2)
}
