package cashflow

import (
	"github.com/shopspring/decimal"

	"github.com/fluxo-dev/fluxo/internal/model"
	"github.com/fluxo-dev/fluxo/internal/period"
)

// Input drives a full cash-flow build over one or more months.
type Input struct {
	Months            []period.Month
	Days              period.DayRange
	Accounts          []model.BankAccount
	Transactions      []model.Transaction
	FutureEntries     []model.FutureEntry
	Openings          map[string]decimal.Decimal
	HideEmpty         bool
	ManualAccountName string
}

// Report is the cash-flow view: one consolidated series per account, the
// all-accounts series, and per-month aggregates of the latter.
type Report struct {
	Months   []period.Month
	Days     period.DayRange
	Accounts []Series
	Combined Series
	Monthly  []MonthlyAggregate
	Totals   Totals
}

// Build runs the full pipeline: per-month buckets, consolidation across
// months, day filter, optional hiding of idle accounts, and the combined
// view. Months are consolidated before filtering so days outside the range
// still move the balances of the days kept.
func Build(in Input) *Report {
	months := append([]period.Month(nil), in.Months...)
	period.Sort(months)
	months = dedupe(months)

	perMonth := make([][]Series, 0, len(months))
	for _, m := range months {
		perMonth = append(perMonth, BuildMonth(MonthInput{
			Month:             m,
			Accounts:          in.Accounts,
			Transactions:      in.Transactions,
			FutureEntries:     in.FutureEntries,
			Openings:          in.Openings,
			ManualAccountName: in.ManualAccountName,
		}))
	}

	accounts := FilterDays(Consolidate(perMonth), in.Days)
	if in.HideEmpty {
		kept := accounts[:0]
		for _, s := range accounts {
			if !idle(s) {
				kept = append(kept, s)
			}
		}
		accounts = kept
	}

	combined := CombineAccounts(accounts)
	return &Report{
		Months:   months,
		Days:     in.Days,
		Accounts: accounts,
		Combined: combined,
		Monthly:  combined.Monthly(),
		Totals:   combined.Totals(),
	}
}

// Account returns the consolidated series for an account id.
func (r *Report) Account(id string) (Series, bool) {
	for _, s := range r.Accounts {
		if s.AccountID == id {
			return s, true
		}
	}
	return Series{}, false
}

// idle reports whether an account neither moves nor holds a balance in any
// kept bucket.
func idle(s Series) bool {
	for _, b := range s.Buckets {
		if b.Moved() || !b.Opening.IsZero() || !b.Closing.IsZero() {
			return false
		}
	}
	return true
}

func dedupe(months []period.Month) []period.Month {
	out := months[:0]
	for i, m := range months {
		if i > 0 && months[i-1] == m {
			continue
		}
		out = append(out, m)
	}
	return out
}
