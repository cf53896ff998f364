// Package report turns loaded rows and rollups into presentation-ready
// summaries.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fluxo-dev/fluxo/internal/model"
	"github.com/fluxo-dev/fluxo/internal/period"
)

var hundred = decimal.NewFromInt(100)

// IndicatorSet is the headline numbers for a set of months.
type IndicatorSet struct {
	Months               []period.Month
	Revenue              decimal.Decimal
	Expenses             decimal.Decimal
	NetResult            decimal.Decimal
	NetMargin            decimal.Decimal // percent of revenue
	ProjectedReceivables decimal.Decimal
	ProjectedPayables    decimal.Decimal
	ProjectedResult      decimal.Decimal
	OverdueReceivables   int
	OverduePayables      int
	Transactions         int
	Unclassified         int
}

// Indicators summarizes transactions and pending future entries that fall in
// months. Entries due before today count as overdue.
func Indicators(txns []model.Transaction, futures []model.FutureEntry, months []period.Month, today time.Time) IndicatorSet {
	set := IndicatorSet{Months: months}
	in := func(t time.Time) bool {
		for _, m := range months {
			if m.Contains(t) {
				return true
			}
		}
		return false
	}

	for _, t := range txns {
		if !in(t.Date) {
			continue
		}
		set.Transactions++
		if !t.Classified() {
			set.Unclassified++
		}
		if t.Direction == model.DirectionDebit {
			set.Expenses = set.Expenses.Add(t.Amount)
		} else {
			set.Revenue = set.Revenue.Add(t.Amount)
		}
	}
	set.NetResult = set.Revenue.Sub(set.Expenses)
	set.NetMargin = percent(set.NetResult, set.Revenue)

	today = truncateDay(today)
	for _, f := range futures {
		if !f.Projects() || !in(f.DueDate) {
			continue
		}
		overdue := f.DueDate.Before(today)
		switch f.Type {
		case model.EntryReceivable:
			set.ProjectedReceivables = set.ProjectedReceivables.Add(f.Amount)
			if overdue {
				set.OverdueReceivables++
			}
		case model.EntryPayable:
			set.ProjectedPayables = set.ProjectedPayables.Add(f.Amount)
			if overdue {
				set.OverduePayables++
			}
		}
	}
	set.ProjectedResult = set.NetResult.Add(set.ProjectedReceivables).Sub(set.ProjectedPayables)
	return set
}

// percent returns part/whole*100 rounded to two places, or zero when whole is zero.
func percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole).Round(2)
}

func truncateDay(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
