package cashflow

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fluxo-dev/fluxo/internal/model"
	"github.com/fluxo-dev/fluxo/internal/period"
)

// ItemKind tells where a line item came from.
type ItemKind string

const (
	ItemHistorical ItemKind = "historical"
	ItemProjected  ItemKind = "projected"
)

// LineItem is one transaction or future entry contributing to a bucket.
type LineItem struct {
	Kind           ItemKind
	ID             string
	AccountID      string
	Description    string
	Amount         decimal.Decimal // magnitude
	Inflow         bool
	Classification model.Classification
}

// Signed returns the amount with inflows positive.
func (li LineItem) Signed() decimal.Decimal {
	if li.Inflow {
		return li.Amount
	}
	return li.Amount.Neg()
}

// DailyBucket is one account's cash position on one calendar day.
type DailyBucket struct {
	AccountID     string
	Date          time.Time
	Opening       decimal.Decimal
	HistoricalIn  decimal.Decimal
	HistoricalOut decimal.Decimal
	ProjectedIn   decimal.Decimal
	ProjectedOut  decimal.Decimal
	Closing       decimal.Decimal
	Items         []LineItem
}

// Net is the day's movement: in minus out, historical plus projected.
func (b DailyBucket) Net() decimal.Decimal {
	return b.HistoricalIn.Sub(b.HistoricalOut).Add(b.ProjectedIn).Sub(b.ProjectedOut)
}

// Moved reports whether anything happened on the day.
func (b DailyBucket) Moved() bool {
	return len(b.Items) > 0 ||
		!b.HistoricalIn.IsZero() || !b.HistoricalOut.IsZero() ||
		!b.ProjectedIn.IsZero() || !b.ProjectedOut.IsZero()
}

// Totals sums bucket movements.
type Totals struct {
	HistoricalIn  decimal.Decimal
	HistoricalOut decimal.Decimal
	ProjectedIn   decimal.Decimal
	ProjectedOut  decimal.Decimal
}

// In is historical plus projected inflow.
func (t Totals) In() decimal.Decimal { return t.HistoricalIn.Add(t.ProjectedIn) }

// Out is historical plus projected outflow.
func (t Totals) Out() decimal.Decimal { return t.HistoricalOut.Add(t.ProjectedOut) }

// Net is In minus Out.
func (t Totals) Net() decimal.Decimal { return t.In().Sub(t.Out()) }

func (t *Totals) add(b DailyBucket) {
	t.HistoricalIn = t.HistoricalIn.Add(b.HistoricalIn)
	t.HistoricalOut = t.HistoricalOut.Add(b.HistoricalOut)
	t.ProjectedIn = t.ProjectedIn.Add(b.ProjectedIn)
	t.ProjectedOut = t.ProjectedOut.Add(b.ProjectedOut)
}

// Series is the ordered run of daily buckets for one account, or for all
// accounts combined when AccountID is empty.
type Series struct {
	AccountID   string
	AccountName string
	Buckets     []DailyBucket
}

// Totals sums every bucket in the series.
func (s Series) Totals() Totals {
	var t Totals
	for _, b := range s.Buckets {
		t.add(b)
	}
	return t
}

// Moved reports whether any bucket has movement.
func (s Series) Moved() bool {
	for _, b := range s.Buckets {
		if b.Moved() {
			return true
		}
	}
	return false
}

// Opening is the first bucket's opening balance.
func (s Series) Opening() decimal.Decimal {
	if len(s.Buckets) == 0 {
		return decimal.Zero
	}
	return s.Buckets[0].Opening
}

// Closing is the last bucket's closing balance.
func (s Series) Closing() decimal.Decimal {
	if len(s.Buckets) == 0 {
		return decimal.Zero
	}
	return s.Buckets[len(s.Buckets)-1].Closing
}

// MonthlyAggregate is the buckets of one month for one account (or all of
// them when AccountID is empty) plus totals.
type MonthlyAggregate struct {
	Month     period.Month
	AccountID string
	Buckets   []DailyBucket
	Opening   decimal.Decimal
	Closing   decimal.Decimal
	Totals    Totals
}

// Monthly splits the series into per-month aggregates, in bucket order.
func (s Series) Monthly() []MonthlyAggregate {
	var result []MonthlyAggregate
	for _, b := range s.Buckets {
		m := period.MonthOf(b.Date)
		if len(result) == 0 || result[len(result)-1].Month != m {
			result = append(result, MonthlyAggregate{Month: m, AccountID: s.AccountID, Opening: b.Opening})
		}
		agg := &result[len(result)-1]
		agg.Buckets = append(agg.Buckets, b)
		agg.Closing = b.Closing
		agg.Totals.add(b)
	}
	return result
}
