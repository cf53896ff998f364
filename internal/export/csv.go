package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/fluxo-dev/fluxo/internal/cashflow"
	"github.com/fluxo-dev/fluxo/internal/store"
)

// CashFlowRecord is one parsed row of a cash-flow CSV.
type CashFlowRecord struct {
	AccountID     string
	Date          string // "YYYY-MM-DD" or TotalLabel
	Opening       decimal.Decimal
	HistoricalIn  decimal.Decimal
	HistoricalOut decimal.Decimal
	ProjectedIn   decimal.Decimal
	ProjectedOut  decimal.Decimal
	Closing       decimal.Decimal
}

// WriteCashFlowCSV writes each series as its buckets plus a totals row,
// prefixed by an account column. The combined series has an empty account.
func WriteCashFlowCSV(w io.Writer, series []cashflow.Series) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(append([]string{"conta"}, CashFlowHeader...)); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	line := 2
	for _, s := range series {
		for _, row := range cashFlowRows(s) {
			if err := cw.Write(append([]string{s.AccountID}, row.strings()...)); err != nil {
				return fmt.Errorf("writing row %d: %w", line, err)
			}
			line++
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCashFlowCSV reads a file written by WriteCashFlowCSV.
func ReadCashFlowCSV(r io.Reader) ([]CashFlowRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numCashFlowFields + 1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading cash-flow CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var result []CashFlowRecord
	for i, rec := range records[1:] {
		parsed, err := unmarshalCashFlowRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		result = append(result, parsed)
	}
	return result, nil
}

func unmarshalCashFlowRecord(rec []string) (CashFlowRecord, error) {
	fields := rec[1:]
	out := CashFlowRecord{AccountID: rec[0], Date: fields[colDate]}
	if out.Date != TotalLabel {
		if _, ok := store.ParseDate(out.Date); !ok {
			return CashFlowRecord{}, fmt.Errorf("invalid date %q", out.Date)
		}
	}

	targets := []*decimal.Decimal{&out.Opening, &out.HistoricalIn, &out.HistoricalOut, &out.ProjectedIn, &out.ProjectedOut, &out.Closing}
	for i, dst := range targets {
		v, err := decimal.NewFromString(fields[colOpening+i])
		if err != nil {
			return CashFlowRecord{}, fmt.Errorf("parsing %s %q: %w", CashFlowHeader[colOpening+i], fields[colOpening+i], err)
		}
		*dst = v
	}
	return out, nil
}
