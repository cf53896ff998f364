// Package export renders cash-flow and DRE reports as spreadsheets: XLSX
// workbooks, CSV files and Google Sheets ranges.
package export

import (
	"github.com/shopspring/decimal"

	"github.com/fluxo-dev/fluxo/internal/cashflow"
	"github.com/fluxo-dev/fluxo/internal/store"
)

// ConsolidatedSheet names the all-accounts sheet.
const ConsolidatedSheet = "Consolidado"

// TotalLabel heads the totals row.
const TotalLabel = "Total"

// MonthLabels are the DRE column headers.
var MonthLabels = [12]string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}

// CashFlowHeader is the column header shared by every cash-flow export.
var CashFlowHeader = []string{
	"data", "saldo_inicial", "entradas", "saidas", "entradas_previstas", "saidas_previstas", "saldo_final",
}

const (
	numCashFlowFields = 7
	colDate           = 0
	colOpening        = 1
	colHistIn         = 2
	colHistOut        = 3
	colProjIn         = 4
	colProjOut        = 5
	colClosing        = 6
)

// cashFlowRow is one bucket, or the totals row when date is TotalLabel.
type cashFlowRow struct {
	date   string
	values [numCashFlowFields - 1]decimal.Decimal
}

// cashFlowRows returns one row per bucket followed by a totals row whose
// balances are the series' first opening and last closing.
func cashFlowRows(s cashflow.Series) []cashFlowRow {
	rows := make([]cashFlowRow, 0, len(s.Buckets)+1)
	for _, b := range s.Buckets {
		rows = append(rows, cashFlowRow{
			date:   store.FormatDate(b.Date),
			values: [6]decimal.Decimal{b.Opening, b.HistoricalIn, b.HistoricalOut, b.ProjectedIn, b.ProjectedOut, b.Closing},
		})
	}
	t := s.Totals()
	rows = append(rows, cashFlowRow{
		date:   TotalLabel,
		values: [6]decimal.Decimal{s.Opening(), t.HistoricalIn, t.HistoricalOut, t.ProjectedIn, t.ProjectedOut, s.Closing()},
	})
	return rows
}

// strings renders amounts with two decimals.
func (r cashFlowRow) strings() []string {
	rec := make([]string, numCashFlowFields)
	rec[colDate] = r.date
	for i, v := range r.values {
		rec[colOpening+i] = v.StringFixed(2)
	}
	return rec
}

// cells renders amounts as numbers for spreadsheet targets.
func (r cashFlowRow) cells() []any {
	rec := make([]any, numCashFlowFields)
	rec[colDate] = r.date
	for i, v := range r.values {
		rec[colOpening+i] = v.Round(2).InexactFloat64()
	}
	return rec
}

func headerCells(header []string) []any {
	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}
	return cells
}
