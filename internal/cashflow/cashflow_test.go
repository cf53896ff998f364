package cashflow

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxo-dev/fluxo/internal/model"
	"github.com/fluxo-dev/fluxo/internal/period"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var (
	jan = period.NewMonth(2025, 1)
	feb = period.NewMonth(2025, 2)

	bankA = model.BankAccount{ID: "a", Name: "Banco A"}
	bankB = model.BankAccount{ID: "b", Name: "Banco B"}
)

func credit(id, bank string, t time.Time, amount string) model.Transaction {
	return model.Transaction{ID: id, BankID: bank, Date: t, Amount: dec(amount), Direction: model.DirectionCredit, Description: id}
}

func debit(id, bank string, t time.Time, amount string) model.Transaction {
	return model.Transaction{ID: id, BankID: bank, Date: t, Amount: dec(amount), Direction: model.DirectionDebit, Description: id}
}

func future(id string, due time.Time, typ model.EntryType, amount string) model.FutureEntry {
	return model.FutureEntry{ID: id, DueDate: due, Type: typ, Amount: dec(amount), Status: model.StatusPending, Description: id}
}

func assertRecurrence(t *testing.T, s Series) {
	t.Helper()
	for i, b := range s.Buckets {
		want := b.Opening.Add(b.HistoricalIn).Sub(b.HistoricalOut).Add(b.ProjectedIn).Sub(b.ProjectedOut)
		assert.True(t, want.Equal(b.Closing), "bucket %d (%s) closing %s, want %s", i, b.Date.Format("2006-01-02"), b.Closing, want)
		if i > 0 {
			prev := s.Buckets[i-1]
			assert.True(t, prev.Closing.Equal(b.Opening), "bucket %d opening %s, previous closing %s", i, b.Opening, prev.Closing)
		}
	}
}

func TestBuildMonthRunningBalance(t *testing.T) {
	series := BuildMonth(MonthInput{
		Month:    jan,
		Accounts: []model.BankAccount{bankA},
		Transactions: []model.Transaction{
			credit("t1", "a", date(2025, 1, 1), "100"),
			debit("t2", "a", date(2025, 1, 2), "30"),
		},
	})

	require.Len(t, series, 1)
	s := series[0]
	require.Len(t, s.Buckets, 31)

	assert.True(t, s.Buckets[0].Opening.IsZero())
	assert.Equal(t, "100", s.Buckets[0].Closing.String())
	assert.Equal(t, "100", s.Buckets[1].Opening.String())
	assert.Equal(t, "70", s.Buckets[1].Closing.String())
	assert.Equal(t, "70", s.Buckets[30].Closing.String())
	assertRecurrence(t, s)
}

func TestBuildMonthOneBucketPerDay(t *testing.T) {
	series := BuildMonth(MonthInput{Month: feb, Accounts: []model.BankAccount{bankA, bankB}})

	require.Len(t, series, 2)
	for _, s := range series {
		require.Len(t, s.Buckets, 28)
		for i, b := range s.Buckets {
			assert.Equal(t, date(2025, 2, i+1), b.Date)
			assert.Equal(t, s.AccountID, b.AccountID)
			assert.False(t, b.Moved())
		}
	}
}

func TestBuildMonthSplitsByAccountAndDay(t *testing.T) {
	series := BuildMonth(MonthInput{
		Month:    jan,
		Accounts: []model.BankAccount{bankA, bankB},
		Transactions: []model.Transaction{
			credit("t1", "a", date(2025, 1, 5), "10"),
			credit("t2", "a", date(2025, 1, 5), "15"),
			debit("t3", "b", date(2025, 1, 5), "7"),
			credit("t4", "a", date(2025, 2, 5), "999"),
			credit("t5", "z", date(2025, 1, 5), "999"),
		},
	})

	require.Len(t, series, 2)
	a, b := series[0].Buckets[4], series[1].Buckets[4]
	assert.Equal(t, "25", a.HistoricalIn.String())
	assert.Len(t, a.Items, 2)
	assert.Equal(t, "7", b.HistoricalOut.String())
	assert.Equal(t, "25", series[0].Closing().String())
	assert.Equal(t, "-7", series[1].Closing().String())
}

func TestBuildMonthIgnoresZeroDates(t *testing.T) {
	series := BuildMonth(MonthInput{
		Month:        jan,
		Accounts:     []model.BankAccount{bankA},
		Transactions: []model.Transaction{credit("t1", "a", time.Time{}, "100")},
	})

	require.Len(t, series, 1)
	assert.False(t, series[0].Moved())
}

func TestBuildMonthManualAccount(t *testing.T) {
	t.Run("futures without transactions", func(t *testing.T) {
		series := BuildMonth(MonthInput{
			Month:    jan,
			Accounts: []model.BankAccount{bankA},
			FutureEntries: []model.FutureEntry{
				future("f1", date(2025, 1, 10), model.EntryReceivable, "200"),
				future("f2", date(2025, 1, 12), model.EntryPayable, "50"),
			},
		})

		require.Len(t, series, 2)
		manual := series[1]
		assert.Equal(t, model.ManualAccountID, manual.AccountID)
		assert.Equal(t, DefaultManualAccountName, manual.AccountName)
		require.Len(t, manual.Buckets, 31)
		assert.Equal(t, "200", manual.Buckets[9].ProjectedIn.String())
		assert.Equal(t, "50", manual.Buckets[11].ProjectedOut.String())
		assert.Equal(t, "150", manual.Closing().String())
		assert.Equal(t, ItemProjected, manual.Buckets[9].Items[0].Kind)
		assertRecurrence(t, manual)
	})

	t.Run("absent without futures in month", func(t *testing.T) {
		series := BuildMonth(MonthInput{
			Month:         jan,
			Accounts:      []model.BankAccount{bankA},
			FutureEntries: []model.FutureEntry{future("f1", date(2025, 2, 10), model.EntryReceivable, "200")},
		})
		require.Len(t, series, 1)
		assert.Equal(t, "a", series[0].AccountID)
	})

	t.Run("settled and cancelled do not project", func(t *testing.T) {
		settled := future("f1", date(2025, 1, 10), model.EntryReceivable, "200")
		settled.Status = model.StatusSettled
		cancelled := future("f2", date(2025, 1, 11), model.EntryPayable, "10")
		cancelled.Status = model.StatusCancelled

		series := BuildMonth(MonthInput{
			Month:         jan,
			Accounts:      []model.BankAccount{bankA},
			FutureEntries: []model.FutureEntry{settled, cancelled},
		})
		require.Len(t, series, 1)
	})

	t.Run("custom name", func(t *testing.T) {
		series := BuildMonth(MonthInput{
			Month:             jan,
			FutureEntries:     []model.FutureEntry{future("f1", date(2025, 1, 1), model.EntryPayable, "1")},
			ManualAccountName: "Previstos",
		})
		require.Len(t, series, 1)
		assert.Equal(t, "Previstos", series[0].AccountName)
	})
}

func TestBuildMonthOpenings(t *testing.T) {
	series := BuildMonth(MonthInput{
		Month:        jan,
		Accounts:     []model.BankAccount{bankA},
		Transactions: []model.Transaction{debit("t1", "a", date(2025, 1, 3), "40")},
		Openings:     map[string]decimal.Decimal{"a": dec("1000")},
	})

	require.Len(t, series, 1)
	assert.Equal(t, "1000", series[0].Opening().String())
	assert.Equal(t, "960", series[0].Closing().String())
	assertRecurrence(t, series[0])
}

func TestFilterDays(t *testing.T) {
	series := BuildMonth(MonthInput{
		Month:    jan,
		Accounts: []model.BankAccount{bankA},
		Transactions: []model.Transaction{
			credit("t1", "a", date(2025, 1, 5), "100"),
			credit("t2", "a", date(2025, 1, 15), "20"),
			debit("t3", "a", date(2025, 1, 25), "7"),
		},
	})

	filtered := FilterDays(series, period.DayRange{Start: 10, End: 20})
	require.Len(t, filtered, 1)
	s := filtered[0]
	require.Len(t, s.Buckets, 11)
	for _, b := range s.Buckets {
		assert.GreaterOrEqual(t, b.Date.Day(), 10)
		assert.LessOrEqual(t, b.Date.Day(), 20)
	}

	totals := s.Totals()
	assert.Equal(t, "20", totals.HistoricalIn.String())
	assert.True(t, totals.HistoricalOut.IsZero())
	// balances still reflect movement before the range
	assert.Equal(t, "100", s.Opening().String())
	assert.Equal(t, "120", s.Closing().String())
}

func TestFilterDaysClampsToMonthLength(t *testing.T) {
	series := BuildMonth(MonthInput{Month: feb, Accounts: []model.BankAccount{bankA}})
	filtered := FilterDays(series, period.DayRange{Start: 25, End: 31})
	require.Len(t, filtered[0].Buckets, 4)
}

func TestConsolidateCarriesAcrossMonths(t *testing.T) {
	in := MonthInput{
		Accounts: []model.BankAccount{bankA},
		Transactions: []model.Transaction{
			credit("t1", "a", date(2025, 1, 31), "100"),
			debit("t2", "a", date(2025, 2, 1), "30"),
		},
	}
	in.Month = jan
	janSeries := BuildMonth(in)
	in.Month = feb
	febSeries := BuildMonth(in)

	// each month alone starts from zero
	assert.True(t, febSeries[0].Opening().IsZero())

	consolidated := Consolidate([][]Series{janSeries, febSeries})
	require.Len(t, consolidated, 1)
	s := consolidated[0]
	require.Len(t, s.Buckets, 59)
	assert.Equal(t, "100", s.Buckets[31].Opening.String())
	assert.Equal(t, "70", s.Closing().String())
	assertRecurrence(t, s)
}

func TestConsolidateKeepsFirstAppearanceOrder(t *testing.T) {
	janSeries := BuildMonth(MonthInput{Month: jan, Accounts: []model.BankAccount{bankA}})
	febSeries := BuildMonth(MonthInput{
		Month:         feb,
		Accounts:      []model.BankAccount{bankA},
		FutureEntries: []model.FutureEntry{future("f1", date(2025, 2, 3), model.EntryPayable, "5")},
	})

	consolidated := Consolidate([][]Series{janSeries, febSeries})
	require.Len(t, consolidated, 2)
	assert.Equal(t, "a", consolidated[0].AccountID)
	assert.Len(t, consolidated[0].Buckets, 59)
	assert.Equal(t, model.ManualAccountID, consolidated[1].AccountID)
	assert.Len(t, consolidated[1].Buckets, 28)
}

func TestCombineAccounts(t *testing.T) {
	series := BuildMonth(MonthInput{
		Month:    jan,
		Accounts: []model.BankAccount{bankA, bankB},
		Transactions: []model.Transaction{
			credit("t1", "a", date(2025, 1, 1), "50"),
			debit("t2", "b", date(2025, 1, 1), "20"),
			credit("t3", "b", date(2025, 1, 2), "5"),
		},
		FutureEntries: []model.FutureEntry{future("f1", date(2025, 1, 2), model.EntryPayable, "8")},
	})

	combined := CombineAccounts(series)
	assert.Empty(t, combined.AccountID)
	require.Len(t, combined.Buckets, 31)
	assert.Equal(t, "30", combined.Buckets[0].Closing.String())
	assertRecurrence(t, combined)

	for day := range combined.Buckets {
		var in, out decimal.Decimal
		for _, s := range series {
			b := s.Buckets[day]
			in = in.Add(b.HistoricalIn).Add(b.ProjectedIn)
			out = out.Add(b.HistoricalOut).Add(b.ProjectedOut)
		}
		c := combined.Buckets[day]
		assert.True(t, in.Sub(out).Equal(c.Net()), "day %d", day+1)
	}
	assert.Len(t, combined.Buckets[1].Items, 2)
}

func TestCombineAccountsSumsOpenings(t *testing.T) {
	series := BuildMonth(MonthInput{
		Month:    jan,
		Accounts: []model.BankAccount{bankA, bankB},
		Openings: map[string]decimal.Decimal{"a": dec("10"), "b": dec("-3")},
	})
	combined := CombineAccounts(series)
	assert.Equal(t, "7", combined.Opening().String())
	assert.Equal(t, "7", combined.Closing().String())
}

func TestBuild(t *testing.T) {
	in := Input{
		Months:   []period.Month{feb, jan, feb},
		Days:     period.DayRange{Start: 10, End: 20},
		Accounts: []model.BankAccount{bankA, bankB},
		Transactions: []model.Transaction{
			credit("t1", "a", date(2025, 1, 5), "100"),
			credit("t2", "a", date(2025, 1, 15), "10"),
			debit("t3", "a", date(2025, 2, 12), "4"),
			credit("t4", "a", date(2025, 2, 25), "1000"),
		},
		FutureEntries: []model.FutureEntry{future("f1", date(2025, 2, 18), model.EntryReceivable, "3")},
	}

	t.Run("all accounts", func(t *testing.T) {
		r := Build(in)
		assert.Equal(t, []period.Month{jan, feb}, r.Months)
		require.Len(t, r.Accounts, 3)
		for _, s := range r.Accounts[:2] {
			require.Len(t, s.Buckets, 22)
			assertRecurrence(t, s)
		}
		// the manual account only exists in February
		assert.Equal(t, model.ManualAccountID, r.Accounts[2].AccountID)
		assert.Len(t, r.Accounts[2].Buckets, 11)

		assert.Equal(t, "10", r.Totals.HistoricalIn.String())
		assert.Equal(t, "4", r.Totals.HistoricalOut.String())
		assert.Equal(t, "3", r.Totals.ProjectedIn.String())

		require.Len(t, r.Monthly, 2)
		assert.Equal(t, jan, r.Monthly[0].Month)
		assert.Equal(t, "10", r.Monthly[0].Totals.Net().String())
		assert.Equal(t, feb, r.Monthly[1].Month)
		assert.Equal(t, "-1", r.Monthly[1].Totals.Net().String())
		assert.True(t, r.Monthly[0].Closing.Equal(r.Monthly[1].Opening))
		assertRecurrence(t, r.Combined)
	})

	t.Run("hide empty", func(t *testing.T) {
		hidden := in
		hidden.HideEmpty = true
		r := Build(hidden)
		require.Len(t, r.Accounts, 2)
		_, ok := r.Account("b")
		assert.False(t, ok)
		_, ok = r.Account(model.ManualAccountID)
		assert.True(t, ok)
	})
}

func TestBuildFullMonthDefault(t *testing.T) {
	r := Build(Input{Months: []period.Month{feb}, Accounts: []model.BankAccount{bankA}})
	require.Len(t, r.Accounts, 1)
	assert.Len(t, r.Accounts[0].Buckets, 28)
	assert.Len(t, r.Combined.Buckets, 28)
}

func TestSeriesMonthly(t *testing.T) {
	r := Build(Input{
		Months:       []period.Month{jan, feb},
		Accounts:     []model.BankAccount{bankA},
		Transactions: []model.Transaction{credit("t1", "a", date(2025, 1, 2), "9")},
	})
	s, ok := r.Account("a")
	require.True(t, ok)

	months := s.Monthly()
	require.Len(t, months, 2)
	assert.Equal(t, "a", months[0].AccountID)
	assert.Len(t, months[0].Buckets, 31)
	assert.Equal(t, "9", months[0].Closing.String())
	assert.Equal(t, "9", months[1].Opening.String())
	assert.True(t, months[1].Totals.In().IsZero())
}

func TestLineItemSigned(t *testing.T) {
	assert.Equal(t, "5", LineItem{Amount: dec("5"), Inflow: true}.Signed().String())
	assert.Equal(t, "-5", LineItem{Amount: dec("5")}.Signed().String())
}

func bucketOn(t *testing.T, s Series, d time.Time) DailyBucket {
	t.Helper()
	for _, b := range s.Buckets {
		if b.Date.Equal(d) {
			return b
		}
	}
	require.Failf(t, "missing bucket", "no bucket on %s", d.Format("2006-01-02"))
	return DailyBucket{}
}

func TestBuildCarriesDaysOutsideRange(t *testing.T) {
	r := Build(Input{
		Months:   []period.Month{jan, feb},
		Days:     period.DayRange{Start: 10, End: 20},
		Accounts: []model.BankAccount{bankA, bankB},
		Transactions: []model.Transaction{
			credit("t1", "a", date(2025, 1, 5), "100"),
			credit("t2", "a", date(2025, 1, 25), "7"),
			credit("t3", "a", date(2025, 2, 5), "50"),
			debit("t4", "b", date(2025, 2, 3), "20"),
		},
	})

	a, ok := r.Account("a")
	require.True(t, ok)
	assert.Equal(t, "100", bucketOn(t, a, date(2025, 1, 10)).Opening.String())
	assert.Equal(t, "100", bucketOn(t, a, date(2025, 1, 20)).Closing.String())
	assert.Equal(t, "157", bucketOn(t, a, date(2025, 2, 10)).Opening.String())
	assert.Equal(t, "157", a.Closing().String())

	b, ok := r.Account("b")
	require.True(t, ok)
	assert.Equal(t, "-20", bucketOn(t, b, date(2025, 2, 10)).Opening.String())

	assert.True(t, r.Totals.In().IsZero())
	assert.True(t, r.Totals.Out().IsZero())
	assert.Equal(t, "100", r.Combined.Opening().String())
	assert.Equal(t, "100", bucketOn(t, r.Combined, date(2025, 1, 20)).Closing.String())
	assert.Equal(t, "137", bucketOn(t, r.Combined, date(2025, 2, 10)).Opening.String())
	assert.Equal(t, "137", r.Combined.Closing().String())

	require.Len(t, r.Monthly, 2)
	assert.Equal(t, "137", r.Monthly[1].Opening.String())
}

func TestBuildHideEmptyKeepsHeldBalances(t *testing.T) {
	r := Build(Input{
		Months:    []period.Month{jan},
		Accounts:  []model.BankAccount{bankA, bankB},
		Openings:  map[string]decimal.Decimal{"a": dec("10")},
		HideEmpty: true,
	})
	require.Len(t, r.Accounts, 1)
	assert.Equal(t, "a", r.Accounts[0].AccountID)
	assert.Equal(t, "10", r.Combined.Opening().String())
	assert.Equal(t, "10", r.Combined.Closing().String())

	// a balance that only appears after an out-of-range day still counts
	r = Build(Input{
		Months:       []period.Month{jan, feb},
		Days:         period.DayRange{Start: 10, End: 20},
		Accounts:     []model.BankAccount{bankA, bankB},
		Transactions: []model.Transaction{credit("t1", "b", date(2025, 2, 1), "5")},
		HideEmpty:    true,
	})
	require.Len(t, r.Accounts, 1)
	assert.Equal(t, "b", r.Accounts[0].AccountID)
	assert.Equal(t, "5", r.Combined.Closing().String())
}
