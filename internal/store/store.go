// Package store is the data-access boundary to the hosted backend. Every
// call is scoped by an explicit company id.
package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/fluxo-dev/fluxo/internal/model"
)

// ErrNotFound is returned when an update or delete targets a missing row.
var ErrNotFound = errors.New("not found")

// TransactionFilter selects transactions. Zero From/To leave that side open;
// To is exclusive.
type TransactionFilter struct {
	CompanyID string
	BankIDs   []string
	From      time.Time
	To        time.Time
}

// FutureEntryFilter selects future entries by due date.
type FutureEntryFilter struct {
	CompanyID string
	From      time.Time
	To        time.Time
	Statuses  []model.EntryStatus
}

// Reader is the read side of the backend query contract.
type Reader interface {
	Banks(ctx context.Context, companyID string) ([]model.BankAccount, error)
	Transactions(ctx context.Context, f TransactionFilter) ([]model.Transaction, error)
	FutureEntries(ctx context.Context, f FutureEntryFilter) ([]model.FutureEntry, error)
	FutureEntry(ctx context.Context, companyID, id string) (model.FutureEntry, error)
	CommitmentTypes(ctx context.Context, companyID string) ([]model.CommitmentType, error)
	CommitmentGroups(ctx context.Context, companyID string) ([]model.CommitmentGroup, error)
	Commitments(ctx context.Context, companyID string) ([]model.Commitment, error)
	// Classifications returns rows for the given transaction ids. Callers
	// keep len(transactionIDs) within the backend chunk size.
	Classifications(ctx context.Context, companyID string, transactionIDs []string) ([]model.TransactionClassification, error)
	DRELines(ctx context.Context, companyID string) ([]model.DRELine, error)
}

// Writer is the write side of the backend query contract.
type Writer interface {
	SaveBank(ctx context.Context, b model.BankAccount) error
	SaveHierarchy(ctx context.Context, types []model.CommitmentType, groups []model.CommitmentGroup, commitments []model.Commitment) error
	// InsertTransactions skips rows whose (company, bank, FITID) already
	// exists and returns the rows actually inserted.
	InsertTransactions(ctx context.Context, txns []model.Transaction) ([]model.Transaction, error)
	InsertClassifications(ctx context.Context, rows []model.TransactionClassification) error
	InsertFutureEntry(ctx context.Context, f model.FutureEntry) error
	UpdateFutureEntry(ctx context.Context, f model.FutureEntry) error
	DeleteFutureEntry(ctx context.Context, companyID, id string) error
	SaveDRELine(ctx context.Context, l model.DRELine) error
	DeleteDRELine(ctx context.Context, companyID, id string) error
}

// Store is a full backend connection.
type Store interface {
	Reader
	Writer
	Close() error
}

// Chunk splits items into consecutive batches of at most size elements.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	var chunks [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

// TransactionsInChunks runs fetch once per batch of at most size bank ids
// and merges the rows in date then id order. A filter within the limit is
// fetched in a single call.
func TransactionsInChunks(ctx context.Context, f TransactionFilter, size int, fetch func(context.Context, TransactionFilter) ([]model.Transaction, error)) ([]model.Transaction, error) {
	if size <= 0 || len(f.BankIDs) <= size {
		return fetch(ctx, f)
	}

	var all []model.Transaction
	for _, ids := range Chunk(f.BankIDs, size) {
		batch := f
		batch.BankIDs = ids
		rows, err := fetch(ctx, batch)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.Before(all[j].Date)
		}
		return all[i].ID < all[j].ID
	})
	return all, nil
}
