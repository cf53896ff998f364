package export

import (
	"github.com/shopspring/decimal"
)

func dreHeader(first string) []any {
	cells := make([]any, 0, 14)
	cells = append(cells, first)
	for _, m := range MonthLabels {
		cells = append(cells, m)
	}
	return append(cells, TotalLabel)
}

func dreCells(label string, monthly [12]decimal.Decimal, total decimal.Decimal) []any {
	cells := make([]any, 0, 14)
	cells = append(cells, label)
	for _, v := range monthly {
		cells = append(cells, v.Round(2).InexactFloat64())
	}
	return append(cells, total.Round(2).InexactFloat64())
}
