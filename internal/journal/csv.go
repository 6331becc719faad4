package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/books/internal/id"
	"github.com/cleared-dev/books/internal/model"
)

// Header is the CSV header for journal.csv. Each voucher entry is one row;
// entry_id is the voucher number plus a leg suffix.
const Header = "entry_id,voucher_id,date,kind,narration,account_id,debit,credit"

const (
	numFields    = 8
	dateFormat   = "2006-01-02"
	colEntryID   = 0
	colVoucherID = 1
	colDate      = 2
	colKind      = 3
	colNarration = 4
	colAcctID    = 5
	colDebit     = 6
	colCredit    = 7
)

// ReadVouchers reads all vouchers from a journal.csv reader. Rows are grouped
// by voucher_id in order of first appearance.
func ReadVouchers(r io.Reader) ([]model.Voucher, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading journal CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var vouchers []model.Voucher
	index := make(map[string]int)
	for i, rec := range records[1:] {
		v, entry, err := UnmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		pos, seen := index[v.ID]
		if !seen {
			index[v.ID] = len(vouchers)
			v.Entries = []model.VoucherEntry{entry}
			vouchers = append(vouchers, v)
			continue
		}
		existing := &vouchers[pos]
		if existing.Number != v.Number || !existing.Date.Equal(v.Date) {
			return nil, fmt.Errorf("row %d: voucher %s has inconsistent number or date", i+2, v.ID)
		}
		existing.Entries = append(existing.Entries, entry)
	}
	return vouchers, nil
}

// WriteVouchers writes vouchers to a journal.csv writer (including header).
func WriteVouchers(w io.Writer, vouchers []model.Voucher) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, v := range vouchers {
		for _, row := range MarshalVoucher(v) {
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("writing voucher %s: %w", v.Number, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// AppendVouchers appends vouchers to an existing journal.csv writer (no header).
func AppendVouchers(w io.Writer, vouchers []model.Voucher) error {
	cw := csv.NewWriter(w)

	for _, v := range vouchers {
		for _, row := range MarshalVoucher(v) {
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("writing voucher %s: %w", v.Number, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalVoucher converts a voucher to one CSV row per entry.
func MarshalVoucher(v model.Voucher) [][]string {
	rows := make([][]string, 0, len(v.Entries))
	for i, e := range v.Entries {
		row := make([]string, numFields)
		row[colEntryID] = id.FormatLegID(v.Number, i)
		row[colVoucherID] = v.ID
		row[colDate] = v.Date.Format(dateFormat)
		row[colKind] = string(v.Kind)
		row[colNarration] = v.Narration
		row[colAcctID] = strconv.Itoa(e.AccountID)

		if !e.Debit.IsZero() {
			row[colDebit] = e.Debit.StringFixed(2)
		}
		if !e.Credit.IsZero() {
			row[colCredit] = e.Credit.StringFixed(2)
		}
		rows = append(rows, row)
	}
	return rows
}

// UnmarshalRow converts a CSV row to the voucher header it belongs to and
// the entry it carries. The returned voucher has no entries.
func UnmarshalRow(record []string) (model.Voucher, model.VoucherEntry, error) {
	if len(record) != numFields {
		return model.Voucher{}, model.VoucherEntry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	if record[colVoucherID] == "" {
		return model.Voucher{}, model.VoucherEntry{}, fmt.Errorf("missing voucher_id")
	}

	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return model.Voucher{}, model.VoucherEntry{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	accountID, err := strconv.Atoi(record[colAcctID])
	if err != nil {
		return model.Voucher{}, model.VoucherEntry{}, fmt.Errorf("parsing account_id %q: %w", record[colAcctID], err)
	}

	debit, credit := decimal.Zero, decimal.Zero

	if record[colDebit] != "" {
		debit, err = decimal.NewFromString(record[colDebit])
		if err != nil {
			return model.Voucher{}, model.VoucherEntry{}, fmt.Errorf("parsing debit %q: %w", record[colDebit], err)
		}
	}

	if record[colCredit] != "" {
		credit, err = decimal.NewFromString(record[colCredit])
		if err != nil {
			return model.Voucher{}, model.VoucherEntry{}, fmt.Errorf("parsing credit %q: %w", record[colCredit], err)
		}
	}

	kind := model.VoucherKind(record[colKind])
	if kind == "" {
		kind = model.KindManual
	}

	v := model.Voucher{
		ID:        record[colVoucherID],
		Number:    id.EntryGroup(record[colEntryID]),
		Date:      date,
		Narration: record[colNarration],
		Kind:      kind,
	}
	return v, model.VoucherEntry{AccountID: accountID, Debit: debit, Credit: credit}, nil
}
