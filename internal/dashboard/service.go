// Package dashboard builds a company's reports from the store, caching
// results per data version and discarding results that went stale while
// they were computed.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fluxo-dev/fluxo/internal/cache"
	"github.com/fluxo-dev/fluxo/internal/cashflow"
	"github.com/fluxo-dev/fluxo/internal/dre"
	"github.com/fluxo-dev/fluxo/internal/log"
	"github.com/fluxo-dev/fluxo/internal/model"
	"github.com/fluxo-dev/fluxo/internal/period"
	"github.com/fluxo-dev/fluxo/internal/refresh"
	"github.com/fluxo-dev/fluxo/internal/report"
	"github.com/fluxo-dev/fluxo/internal/store"
)

// ErrStale is returned when the data changed, or a newer request for the
// same view started, before a result was ready.
var ErrStale = errors.New("result is stale")

// Views name the tracked fetches.
const (
	ViewCashFlow   = "cashflow"
	ViewDRE        = "dre"
	ViewStatement  = "statement"
	ViewIndicators = "indicators"
	ViewMargins    = "margins"
	ViewTeamCost   = "teamcost"
)

const (
	defaultCacheSize = 64
	defaultCacheTTL  = 5 * time.Minute
)

// Options configures a Service.
type Options struct {
	ChunkSize         int
	HideEmptyAccounts bool
	// CarryBalance seeds each account's opening with its balance before the
	// first selected month instead of zero.
	CarryBalance      bool
	ManualAccountName string
	UnclassifiedLabel string
	CacheSize         int
	CacheTTL          time.Duration
	Now               func() time.Time
}

// Service computes reports for one company.
type Service struct {
	reader    store.Reader
	companyID string
	loader    *store.Loader
	tracker   *refresh.Tracker
	cache     *cache.LRU[any]
	opts      Options
	logger    *log.Logger
}

// NewService creates a report service for companyID. tracker may be shared
// with writers so that their changes invalidate cached results.
func NewService(r store.Reader, companyID string, tracker *refresh.Tracker, opts Options, logger *log.Logger) *Service {
	if tracker == nil {
		tracker = refresh.NewTracker()
	}
	if logger == nil {
		logger = log.Discard()
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger = logger.WithComponent(log.ComponentDashboard).With(log.FieldCompany, companyID)
	return &Service{
		reader:    r,
		companyID: companyID,
		loader:    store.NewLoader(r, opts.ChunkSize, logger),
		tracker:   tracker,
		cache:     cache.NewLRU[any](opts.CacheSize, opts.CacheTTL),
		opts:      opts,
		logger:    logger,
	}
}

// CompanyID returns the company the service reports on.
func (s *Service) CompanyID() string { return s.companyID }

// Tracker returns the refresh tracker the service checks results against.
func (s *Service) Tracker() *refresh.Tracker { return s.tracker }

// fetch serves view from the cache for the current version, or computes it
// under a tracked context and caches it if still valid.
func fetch[T any](ctx context.Context, s *Service, view, key string, compute func(context.Context) (T, error)) (T, error) {
	var zero T

	cacheKey := func(version uint64) string {
		return fmt.Sprintf("%d|%s|%s", version, view, key)
	}
	if v, ok := s.cache.Get(cacheKey(s.tracker.Version(s.companyID))); ok {
		if result, ok := v.(T); ok {
			return result, nil
		}
	}

	fctx, token, done := s.tracker.Begin(ctx, refresh.Scope{CompanyID: s.companyID, View: view})
	defer done()

	start := time.Now()
	result, err := compute(fctx)
	if err != nil {
		cause := context.Cause(fctx)
		if errors.Is(cause, refresh.ErrSuperseded) || errors.Is(cause, refresh.ErrInvalidated) {
			return zero, fmt.Errorf("building %s: %w", view, ErrStale)
		}
		s.logger.ErrorContext(ctx, "building report failed",
			log.FieldOperation, view,
			log.FieldError, err,
		)
		return zero, fmt.Errorf("building %s: %w", view, err)
	}
	if !s.tracker.Valid(token) {
		return zero, fmt.Errorf("building %s: %w", view, ErrStale)
	}

	s.cache.Set(cacheKey(token.Version), result)
	s.logger.DebugContext(ctx, "report built",
		log.FieldOperation, view,
		log.FieldVersion, token.Version,
		log.FieldDuration, time.Since(start).Milliseconds(),
	)
	return result, nil
}

// CashFlowQuery selects the cash-flow view.
type CashFlowQuery struct {
	Months []period.Month
	Days   period.DayRange
	// BankIDs restricts the accounts shown. Future entries appear only when
	// the filter is empty or names the manual account.
	BankIDs []string
}

func (q CashFlowQuery) key() string {
	months := make([]string, len(q.Months))
	for i, m := range q.Months {
		months[i] = m.String()
	}
	banks := slices.Clone(q.BankIDs)
	slices.Sort(banks)
	return strings.Join(months, ",") + "|" + q.Days.String() + "|" + strings.Join(banks, ",")
}

// CashFlow builds the daily cash-flow report.
func (s *Service) CashFlow(ctx context.Context, q CashFlowQuery) (*cashflow.Report, error) {
	if len(q.Months) == 0 {
		return nil, errors.New("cash flow: at least one month is required")
	}
	months := slices.Clone(q.Months)
	period.Sort(months)

	return fetch(ctx, s, ViewCashFlow, q.key(), func(ctx context.Context) (*cashflow.Report, error) {
		from, to := months[0].First(), months[len(months)-1].Next().First()
		withFutures := len(q.BankIDs) == 0 || slices.Contains(q.BankIDs, model.ManualAccountID)

		ds, err := s.loader.Load(ctx, store.Query{
			CompanyID:   s.companyID,
			From:        from,
			To:          to,
			BankIDs:     q.BankIDs,
			WithFutures: withFutures,
		})
		if err != nil {
			return nil, err
		}

		accounts := ds.Banks
		if len(q.BankIDs) > 0 {
			accounts = nil
			for _, b := range ds.Banks {
				if slices.Contains(q.BankIDs, b.ID) {
					accounts = append(accounts, b)
				}
			}
		}

		var openings map[string]decimal.Decimal
		if s.opts.CarryBalance {
			openings, err = s.openings(ctx, q.BankIDs, from)
			if err != nil {
				return nil, err
			}
		}

		return cashflow.Build(cashflow.Input{
			Months:            months,
			Days:              q.Days,
			Accounts:          accounts,
			Transactions:      ds.Transactions,
			FutureEntries:     ds.FutureEntries,
			Openings:          openings,
			HideEmpty:         s.opts.HideEmptyAccounts,
			ManualAccountName: s.opts.ManualAccountName,
		}), nil
	})
}

// openings sums every transaction before from, per account.
func (s *Service) openings(ctx context.Context, bankIDs []string, from time.Time) (map[string]decimal.Decimal, error) {
	txns, err := s.reader.Transactions(ctx, store.TransactionFilter{CompanyID: s.companyID, BankIDs: bankIDs, To: from})
	if err != nil {
		return nil, fmt.Errorf("fetching opening balances: %w", err)
	}
	openings := make(map[string]decimal.Decimal)
	for _, t := range txns {
		openings[t.BankID] = openings[t.BankID].Add(t.Signed())
	}
	return openings, nil
}

// DREQuery selects a year's rollup.
type DREQuery struct {
	Year         int
	IncludeEmpty bool
}

// DRE builds the income statement tree for a year.
func (s *Service) DRE(ctx context.Context, q DREQuery) (*dre.Tree, error) {
	key := fmt.Sprintf("%d|%t", q.Year, q.IncludeEmpty)
	return fetch(ctx, s, ViewDRE, key, func(ctx context.Context) (*dre.Tree, error) {
		tree, _, err := s.rollup(ctx, q)
		return tree, err
	})
}

func (s *Service) loadYear(ctx context.Context, year int) (*store.Dataset, error) {
	return s.loader.Load(ctx, store.Query{
		CompanyID: s.companyID,
		From:      time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:        time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
}

func (s *Service) rollup(ctx context.Context, q DREQuery) (*dre.Tree, *store.Dataset, error) {
	ds, err := s.loadYear(ctx, q.Year)
	if err != nil {
		return nil, nil, err
	}
	tree := dre.Rollup(q.Year, ds.Transactions, ds.Hierarchy, dre.Options{
		UnclassifiedLabel: s.opts.UnclassifiedLabel,
		IncludeEmpty:      q.IncludeEmpty,
	})
	return tree, ds, nil
}

// Statement evaluates the company's DRE lines for a year, falling back to
// one line per commitment type when none are configured.
func (s *Service) Statement(ctx context.Context, year int) ([]dre.StatementRow, error) {
	return fetch(ctx, s, ViewStatement, fmt.Sprint(year), func(ctx context.Context) ([]dre.StatementRow, error) {
		tree, ds, err := s.rollup(ctx, DREQuery{Year: year})
		if err != nil {
			return nil, err
		}
		lines, err := s.reader.DRELines(ctx, s.companyID)
		if err != nil {
			return nil, fmt.Errorf("fetching DRE lines: %w", err)
		}
		if len(lines) == 0 {
			lines = dre.DefaultLines(ds.Hierarchy, s.opts.UnclassifiedLabel)
		}
		return dre.Statement(tree, lines), nil
	})
}

// Indicators summarizes the selected months.
func (s *Service) Indicators(ctx context.Context, months []period.Month) (report.IndicatorSet, error) {
	if len(months) == 0 {
		return report.IndicatorSet{}, errors.New("indicators: at least one month is required")
	}
	months = slices.Clone(months)
	period.Sort(months)

	key := CashFlowQuery{Months: months}.key()
	return fetch(ctx, s, ViewIndicators, key, func(ctx context.Context) (report.IndicatorSet, error) {
		ds, err := s.loader.Load(ctx, store.Query{
			CompanyID:   s.companyID,
			From:        months[0].First(),
			To:          months[len(months)-1].Next().First(),
			WithFutures: true,
		})
		if err != nil {
			return report.IndicatorSet{}, err
		}
		return report.Indicators(ds.Transactions, ds.FutureEntries, months, s.opts.Now()), nil
	})
}

// Margins computes the margin analysis for a year.
func (s *Service) Margins(ctx context.Context, year int) (report.MarginReport, error) {
	return fetch(ctx, s, ViewMargins, fmt.Sprint(year), func(ctx context.Context) (report.MarginReport, error) {
		tree, ds, err := s.rollup(ctx, DREQuery{Year: year})
		if err != nil {
			return report.MarginReport{}, err
		}
		return report.Margins(tree, ds.Hierarchy), nil
	})
}

// TeamCost computes personnel spend for a year.
func (s *Service) TeamCost(ctx context.Context, year int) (report.TeamCostReport, error) {
	return fetch(ctx, s, ViewTeamCost, fmt.Sprint(year), func(ctx context.Context) (report.TeamCostReport, error) {
		ds, err := s.loadYear(ctx, year)
		if err != nil {
			return report.TeamCostReport{}, err
		}
		return report.TeamCost(year, ds.Transactions, ds.Hierarchy), nil
	})
}
