// Package cashflow buckets transactions and future entries per account and
// calendar day and carries running balances across them.
package cashflow

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fluxo-dev/fluxo/internal/model"
	"github.com/fluxo-dev/fluxo/internal/period"
)

// DefaultManualAccountName labels the pseudo-account that pools future entries.
const DefaultManualAccountName = "Lançamentos Manuais"

// MonthInput is everything BuildMonth needs for one month.
type MonthInput struct {
	Month         period.Month
	Accounts      []model.BankAccount
	Transactions  []model.Transaction
	FutureEntries []model.FutureEntry
	// Openings seeds the day-1 opening per account id. Missing accounts start at zero.
	Openings          map[string]decimal.Decimal
	ManualAccountName string
}

type dayKey struct {
	account string
	day     int
}

// BuildMonth returns one series per account with a bucket for every day of
// the month. Future entries are pooled under the manual pseudo-account,
// which is appended only when at least one entry falls in the month.
func BuildMonth(in MonthInput) []Series {
	days := in.Month.Days()

	historical := make(map[dayKey][]model.Transaction)
	for _, t := range in.Transactions {
		if !in.Month.Contains(t.Date) {
			continue
		}
		k := dayKey{t.BankID, t.Date.Day()}
		historical[k] = append(historical[k], t)
	}

	projected := make(map[int][]model.FutureEntry)
	for _, f := range in.FutureEntries {
		if !f.Projects() || !f.Type.Valid() || !in.Month.Contains(f.DueDate) {
			continue
		}
		projected[f.DueDate.Day()] = append(projected[f.DueDate.Day()], f)
	}

	series := make([]Series, 0, len(in.Accounts)+1)
	for _, acct := range in.Accounts {
		s := Series{AccountID: acct.ID, AccountName: acct.Name, Buckets: make([]DailyBucket, days)}
		for d := 1; d <= days; d++ {
			b := &s.Buckets[d-1]
			b.AccountID = acct.ID
			b.Date = in.Month.Day(d)
			for _, t := range historical[dayKey{acct.ID, d}] {
				addTransaction(b, t)
			}
		}
		rebalance(s.Buckets, in.Openings[acct.ID])
		series = append(series, s)
	}

	if len(projected) > 0 {
		name := in.ManualAccountName
		if name == "" {
			name = DefaultManualAccountName
		}
		s := Series{AccountID: model.ManualAccountID, AccountName: name, Buckets: make([]DailyBucket, days)}
		for d := 1; d <= days; d++ {
			b := &s.Buckets[d-1]
			b.AccountID = model.ManualAccountID
			b.Date = in.Month.Day(d)
			for _, f := range projected[d] {
				addFuture(b, f)
			}
		}
		rebalance(s.Buckets, in.Openings[model.ManualAccountID])
		series = append(series, s)
	}
	return series
}

func addTransaction(b *DailyBucket, t model.Transaction) {
	inflow := t.Direction != model.DirectionDebit
	if inflow {
		b.HistoricalIn = b.HistoricalIn.Add(t.Amount)
	} else {
		b.HistoricalOut = b.HistoricalOut.Add(t.Amount)
	}
	b.Items = append(b.Items, LineItem{
		Kind:           ItemHistorical,
		ID:             t.ID,
		AccountID:      b.AccountID,
		Description:    t.Description,
		Amount:         t.Amount,
		Inflow:         inflow,
		Classification: t.Classification,
	})
}

func addFuture(b *DailyBucket, f model.FutureEntry) {
	inflow := f.Type == model.EntryReceivable
	if inflow {
		b.ProjectedIn = b.ProjectedIn.Add(f.Amount)
	} else {
		b.ProjectedOut = b.ProjectedOut.Add(f.Amount)
	}
	b.Items = append(b.Items, LineItem{
		Kind:           ItemProjected,
		ID:             f.ID,
		AccountID:      b.AccountID,
		Description:    f.Description,
		Amount:         f.Amount,
		Inflow:         inflow,
		Classification: f.Classification,
	})
}

// rebalance rewrites opening and closing so that closing = opening + net and
// each opening equals the previous closing.
func rebalance(buckets []DailyBucket, opening decimal.Decimal) {
	bal := opening
	for i := range buckets {
		buckets[i].Opening = bal
		buckets[i].Closing = bal.Add(buckets[i].Net())
		bal = buckets[i].Closing
	}
}

// FilterDays keeps only buckets whose day of month is inside r. Balances are
// left as computed over the full month.
func FilterDays(series []Series, r period.DayRange) []Series {
	result := make([]Series, len(series))
	for i, s := range series {
		kept := Series{AccountID: s.AccountID, AccountName: s.AccountName}
		for _, b := range s.Buckets {
			start, end := r.Clamp(period.MonthOf(b.Date).Days())
			if d := b.Date.Day(); d >= start && d <= end {
				kept.Buckets = append(kept.Buckets, b)
			}
		}
		result[i] = kept
	}
	return result
}

// Consolidate concatenates each account's series across months, in the
// given month order, and re-derives balances from the first bucket's opening.
func Consolidate(months [][]Series) []Series {
	var order []string
	byAccount := make(map[string]*Series)
	for _, month := range months {
		for _, s := range month {
			acc, ok := byAccount[s.AccountID]
			if !ok {
				acc = &Series{AccountID: s.AccountID, AccountName: s.AccountName}
				byAccount[s.AccountID] = acc
				order = append(order, s.AccountID)
			}
			acc.Buckets = append(acc.Buckets, s.Buckets...)
		}
	}

	result := make([]Series, 0, len(order))
	for _, id := range order {
		s := *byAccount[id]
		rebalance(s.Buckets, s.Opening())
		result = append(result, s)
	}
	return result
}

// CombineAccounts merges every account's buckets by calendar day into one
// series. Its opening is the sum of the accounts' first openings. When an
// account's buckets are not contiguous (a filtered day range), the balance
// change across the gap is carried into the combined bucket after it.
func CombineAccounts(series []Series) Series {
	byDate := make(map[time.Time]*DailyBucket)
	carry := make(map[time.Time]decimal.Decimal)
	var dates []time.Time
	opening := decimal.Zero

	for _, s := range series {
		opening = opening.Add(s.Opening())
		for i, b := range s.Buckets {
			c, ok := byDate[b.Date]
			if !ok {
				c = &DailyBucket{Date: b.Date}
				byDate[b.Date] = c
				dates = append(dates, b.Date)
			}
			c.HistoricalIn = c.HistoricalIn.Add(b.HistoricalIn)
			c.HistoricalOut = c.HistoricalOut.Add(b.HistoricalOut)
			c.ProjectedIn = c.ProjectedIn.Add(b.ProjectedIn)
			c.ProjectedOut = c.ProjectedOut.Add(b.ProjectedOut)
			c.Items = append(c.Items, b.Items...)
			if i > 0 {
				if gap := b.Opening.Sub(s.Buckets[i-1].Closing); !gap.IsZero() {
					carry[b.Date] = carry[b.Date].Add(gap)
				}
			}
		}
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	combined := Series{Buckets: make([]DailyBucket, len(dates))}
	bal := opening
	for i, d := range dates {
		b := *byDate[d]
		bal = bal.Add(carry[d])
		b.Opening = bal
		b.Closing = bal.Add(b.Net())
		bal = b.Closing
		combined.Buckets[i] = b
	}
	return combined
}
