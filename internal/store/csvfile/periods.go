package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cleared-dev/books/internal/model"
)

// PeriodsHeader is the CSV header for periods.csv.
const PeriodsHeader = "year,start,end,closed_at,closing_voucher_id,opening_voucher_id"

const dateFormat = "2006-01-02"

// ReadPeriods reads closed fiscal periods.
func ReadPeriods(r io.Reader) ([]model.FiscalPeriod, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 6

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading periods CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var out []model.FiscalPeriod
	for i, rec := range records[1:] {
		p, err := unmarshalPeriod(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// WritePeriods writes closed fiscal periods with a header.
func WritePeriods(w io.Writer, periods []model.FiscalPeriod) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(PeriodsHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, p := range periods {
		row := []string{
			strconv.Itoa(p.Year),
			p.Start.Format(dateFormat),
			p.End.Format(dateFormat),
			p.ClosedAt.UTC().Format(time.RFC3339),
			p.ClosingVoucherID,
			p.OpeningVoucherID,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing period %d: %w", p.Year, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func unmarshalPeriod(rec []string) (model.FiscalPeriod, error) {
	year, err := strconv.Atoi(rec[0])
	if err != nil {
		return model.FiscalPeriod{}, fmt.Errorf("parsing year %q: %w", rec[0], err)
	}
	start, err := time.Parse(dateFormat, rec[1])
	if err != nil {
		return model.FiscalPeriod{}, fmt.Errorf("parsing start %q: %w", rec[1], err)
	}
	end, err := time.Parse(dateFormat, rec[2])
	if err != nil {
		return model.FiscalPeriod{}, fmt.Errorf("parsing end %q: %w", rec[2], err)
	}
	closedAt, err := time.Parse(time.RFC3339, rec[3])
	if err != nil {
		return model.FiscalPeriod{}, fmt.Errorf("parsing closed_at %q: %w", rec[3], err)
	}
	return model.FiscalPeriod{
		Year:             year,
		Start:            start,
		End:              end,
		ClosedAt:         closedAt,
		ClosingVoucherID: rec[4],
		OpeningVoucherID: rec[5],
	}, nil
}
