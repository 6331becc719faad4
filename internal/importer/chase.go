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

// ChaseParser parses Chase bank checking CSV exports. Chase signs amounts
// from the account holder's side: negative rows are money out.
type ChaseParser struct{}

const (
	chaseDateFormat = "01/02/2006"
	chaseNumFields  = 7
	chaseColDate    = 1
	chaseColDesc    = 2
	chaseColAmount  = 3
	chaseColType    = 4
)

// Format returns the parser name.
func (p *ChaseParser) Format() string { return "chase" }

// MatchHeader recognises the Chase export header.
func (p *ChaseParser) MatchHeader(fields []string) bool {
	return len(fields) == chaseNumFields &&
		strings.EqualFold(fields[chaseColDate], "Posting Date") &&
		strings.EqualFold(fields[chaseColAmount], "Amount")
}

// Parse reads a Chase CSV. Each row's reference doubles as its ID; rows
// sharing a reference get a numeric suffix so IDs stay unique in the file.
func (p *ChaseParser) Parse(r io.Reader) ([]model.BankStatementTransaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = chaseNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading chase CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	seen := make(map[string]int)
	var txns []model.BankStatementTransaction
	for i, rec := range records[1:] {
		txn, err := parseChaseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		seen[txn.Reference]++
		if n := seen[txn.Reference]; n > 1 {
			txn.Reference = fmt.Sprintf("%s_%d", txn.Reference, n)
		}
		txn.ID = txn.Reference
		txns = append(txns, txn)
	}
	return txns, nil
}

func parseChaseRow(rec []string) (model.BankStatementTransaction, error) {
	date, err := time.Parse(chaseDateFormat, rec[chaseColDate])
	if err != nil {
		return model.BankStatementTransaction{}, fmt.Errorf("parsing date %q: %w", rec[chaseColDate], err)
	}

	amount, err := decimal.NewFromString(rec[chaseColAmount])
	if err != nil {
		return model.BankStatementTransaction{}, fmt.Errorf("parsing amount %q: %w", rec[chaseColAmount], err)
	}

	desc := rec[chaseColDesc]
	txn := model.BankStatementTransaction{
		Date:        date,
		Description: desc,
		Debit:       decimal.Zero,
		Credit:      decimal.Zero,
		Reference:   makeChaseRef(date, desc),
		Type:        rec[chaseColType],
	}
	if amount.IsNegative() {
		txn.Debit = amount.Neg()
	} else {
		txn.Credit = amount
	}
	return txn, nil
}

// makeChaseRef creates a reference like chase_20250103_GITHUB.
func makeChaseRef(date time.Time, desc string) string {
	prefix := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, desc)
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}
	return fmt.Sprintf("chase_%s_%s", date.Format("20060102"), prefix)
}
