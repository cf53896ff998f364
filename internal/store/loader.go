package store

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fluxo-dev/fluxo/internal/hierarchy"
	"github.com/fluxo-dev/fluxo/internal/log"
	"github.com/fluxo-dev/fluxo/internal/model"
)

// DefaultChunkSize is the upstream request-size limit for IN filters.
const DefaultChunkSize = 100

// maxParallelChunks bounds concurrent classification fetches.
const maxParallelChunks = 4

// Query selects the rows a report needs.
type Query struct {
	CompanyID   string
	From        time.Time
	To          time.Time // exclusive
	BankIDs     []string
	WithFutures bool
}

// Dataset is the normalized result of a Load: every transaction and future
// entry carries a resolved Classification.
type Dataset struct {
	Banks         []model.BankAccount
	Transactions  []model.Transaction
	FutureEntries []model.FutureEntry
	Hierarchy     *hierarchy.Service
}

// Loader fetches report inputs from a Reader and joins them locally.
type Loader struct {
	reader    Reader
	chunkSize int
	logger    *log.Logger
}

// NewLoader creates a Loader. chunkSize <= 0 uses DefaultChunkSize.
func NewLoader(r Reader, chunkSize int, logger *log.Logger) *Loader {
	if chunkSize <= 0 || chunkSize > DefaultChunkSize {
		chunkSize = DefaultChunkSize
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Loader{reader: r, chunkSize: chunkSize, logger: logger.WithComponent(log.ComponentStore)}
}

// Load fetches banks, transactions, future entries and the hierarchy in
// parallel, then classifications in chunks, and normalizes the result.
func (l *Loader) Load(ctx context.Context, q Query) (*Dataset, error) {
	if q.CompanyID == "" {
		return nil, fmt.Errorf("loading dataset: company id is required")
	}

	var (
		ds          Dataset
		types       []model.CommitmentType
		groups      []model.CommitmentGroup
		commitments []model.Commitment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		banks, err := l.reader.Banks(gctx, q.CompanyID)
		if err != nil {
			return fmt.Errorf("fetching banks: %w", err)
		}
		ds.Banks = banks
		return nil
	})
	g.Go(func() error {
		txns, err := l.reader.Transactions(gctx, TransactionFilter{CompanyID: q.CompanyID, BankIDs: q.BankIDs, From: q.From, To: q.To})
		if err != nil {
			return fmt.Errorf("fetching transactions: %w", err)
		}
		ds.Transactions = txns
		return nil
	})
	if q.WithFutures {
		g.Go(func() error {
			entries, err := l.reader.FutureEntries(gctx, FutureEntryFilter{CompanyID: q.CompanyID, From: q.From, To: q.To})
			if err != nil {
				return fmt.Errorf("fetching future entries: %w", err)
			}
			ds.FutureEntries = entries
			return nil
		})
	}
	g.Go(func() error {
		var err error
		types, err = l.reader.CommitmentTypes(gctx, q.CompanyID)
		if err != nil {
			return fmt.Errorf("fetching commitment types: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		groups, err = l.reader.CommitmentGroups(gctx, q.CompanyID)
		if err != nil {
			return fmt.Errorf("fetching commitment groups: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		commitments, err = l.reader.Commitments(gctx, q.CompanyID)
		if err != nil {
			return fmt.Errorf("fetching commitments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds.Hierarchy = hierarchy.NewService(types, groups, commitments)

	rows, err := l.classifications(ctx, q.CompanyID, ds.Transactions)
	if err != nil {
		return nil, err
	}
	l.normalize(&ds, rows)

	l.logger.DebugContext(ctx, "loaded dataset",
		log.FieldCompany, q.CompanyID,
		"transactions", len(ds.Transactions),
		"future_entries", len(ds.FutureEntries),
		"classifications", len(rows))
	return &ds, nil
}

// Hierarchy fetches only the commitment hierarchy.
func (l *Loader) Hierarchy(ctx context.Context, companyID string) (*hierarchy.Service, error) {
	types, err := l.reader.CommitmentTypes(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("fetching commitment types: %w", err)
	}
	groups, err := l.reader.CommitmentGroups(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("fetching commitment groups: %w", err)
	}
	commitments, err := l.reader.Commitments(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("fetching commitments: %w", err)
	}
	return hierarchy.NewService(types, groups, commitments), nil
}

// classifications fetches transaction_classifications in id chunks of at
// most chunkSize, a few chunks at a time. Result order follows chunk order.
func (l *Loader) classifications(ctx context.Context, companyID string, txns []model.Transaction) ([]model.TransactionClassification, error) {
	ids := make([]string, 0, len(txns))
	for _, t := range txns {
		ids = append(ids, t.ID)
	}
	chunks := Chunk(ids, l.chunkSize)
	results := make([][]model.TransactionClassification, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelChunks)
	for i, chunk := range chunks {
		g.Go(func() error {
			rows, err := l.reader.Classifications(gctx, companyID, chunk)
			if err != nil {
				return fmt.Errorf("fetching classifications (chunk %d of %d): %w", i+1, len(chunks), err)
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.TransactionClassification
	for _, rows := range results {
		all = append(all, rows...)
	}
	return all, nil
}

// normalize joins classification rows onto transactions and resolves names
// for both transactions and future entries. A transaction with several rows
// keeps the first one.
func (l *Loader) normalize(ds *Dataset, rows []model.TransactionClassification) {
	byTxn := make(map[string]model.Classification, len(rows))
	for _, r := range rows {
		if _, dup := byTxn[r.TransactionID]; dup {
			l.logger.Warn("transaction has more than one classification, keeping the first",
				"transaction_id", r.TransactionID)
			continue
		}
		byTxn[r.TransactionID] = model.Classification{TypeID: r.TypeID, GroupID: r.GroupID, CommitmentID: r.CommitmentID}
	}

	for i := range ds.Transactions {
		c, ok := byTxn[ds.Transactions[i].ID]
		if !ok {
			c = ds.Transactions[i].Classification
		}
		ds.Transactions[i].Classification = ds.Hierarchy.Resolve(c)
	}
	for i := range ds.FutureEntries {
		ds.FutureEntries[i].Classification = ds.Hierarchy.Resolve(ds.FutureEntries[i].Classification)
	}
}
