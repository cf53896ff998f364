// Package memory is an in-process Store used by tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/fluxo-dev/fluxo/internal/model"
	"github.com/fluxo-dev/fluxo/internal/store"
)

// Store keeps every table in maps guarded by one lock.
type Store struct {
	mu              sync.RWMutex
	banks           map[string]model.BankAccount
	txns            map[string]model.Transaction
	fitids          map[string]bool
	classifications map[string]model.TransactionClassification
	futures         map[string]model.FutureEntry
	types           map[string]model.CommitmentType
	groups          map[string]model.CommitmentGroup
	commitments     map[string]model.Commitment
	lines           map[string]model.DRELine
}

var _ store.Store = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		banks:           make(map[string]model.BankAccount),
		txns:            make(map[string]model.Transaction),
		fitids:          make(map[string]bool),
		classifications: make(map[string]model.TransactionClassification),
		futures:         make(map[string]model.FutureEntry),
		types:           make(map[string]model.CommitmentType),
		groups:          make(map[string]model.CommitmentGroup),
		commitments:     make(map[string]model.Commitment),
		lines:           make(map[string]model.DRELine),
	}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func fitidKey(t model.Transaction) string {
	return t.CompanyID + "\x00" + t.BankID + "\x00" + t.FITID
}

// Banks returns the company's bank accounts ordered by name.
func (s *Store) Banks(_ context.Context, companyID string) ([]model.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.BankAccount
	for _, b := range s.banks {
		if b.CompanyID == companyID {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Transactions returns matching transactions ordered by date then id.
func (s *Store) Transactions(_ context.Context, f store.TransactionFilter) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Transaction
	for _, t := range s.txns {
		if t.CompanyID != f.CompanyID {
			continue
		}
		if len(f.BankIDs) > 0 && !slices.Contains(f.BankIDs, t.BankID) {
			continue
		}
		if !f.From.IsZero() && t.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !t.Date.Before(f.To) {
			continue
		}
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// FutureEntries returns matching entries ordered by due date then id.
func (s *Store) FutureEntries(_ context.Context, f store.FutureEntryFilter) ([]model.FutureEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.FutureEntry
	for _, e := range s.futures {
		if e.CompanyID != f.CompanyID {
			continue
		}
		if !f.From.IsZero() && e.DueDate.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !e.DueDate.Before(f.To) {
			continue
		}
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, e.Status) {
			continue
		}
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].DueDate.Equal(result[j].DueDate) {
			return result[i].DueDate.Before(result[j].DueDate)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// FutureEntry returns one entry.
func (s *Store) FutureEntry(_ context.Context, companyID, id string) (model.FutureEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.futures[id]
	if !ok || e.CompanyID != companyID {
		return model.FutureEntry{}, fmt.Errorf("future entry %s: %w", id, store.ErrNotFound)
	}
	return e, nil
}

// CommitmentTypes returns types ordered by position.
func (s *Store) CommitmentTypes(_ context.Context, companyID string) ([]model.CommitmentType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.CommitmentType
	for _, t := range s.types {
		if t.CompanyID == companyID {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Position != result[j].Position {
			return result[i].Position < result[j].Position
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// CommitmentGroups returns groups ordered by name.
func (s *Store) CommitmentGroups(_ context.Context, companyID string) ([]model.CommitmentGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.CommitmentGroup
	for _, g := range s.groups {
		if g.CompanyID == companyID {
			result = append(result, g)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Commitments returns commitments ordered by name.
func (s *Store) Commitments(_ context.Context, companyID string) ([]model.Commitment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Commitment
	for _, c := range s.commitments {
		if c.CompanyID == companyID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Classifications returns rows for the given transaction ids, in id order.
func (s *Store) Classifications(_ context.Context, companyID string, transactionIDs []string) ([]model.TransactionClassification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.TransactionClassification
	for _, id := range transactionIDs {
		if c, ok := s.classifications[id]; ok && c.CompanyID == companyID {
			result = append(result, c)
		}
	}
	return result, nil
}

// DRELines returns lines ordered by position.
func (s *Store) DRELines(_ context.Context, companyID string) ([]model.DRELine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.DRELine
	for _, l := range s.lines {
		if l.CompanyID == companyID {
			l.TypeIDs = slices.Clone(l.TypeIDs)
			result = append(result, l)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}

// SaveBank inserts or replaces a bank account.
func (s *Store) SaveBank(_ context.Context, b model.BankAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.banks[b.ID] = b
	return nil
}

// SaveHierarchy inserts or replaces hierarchy rows.
func (s *Store) SaveHierarchy(_ context.Context, types []model.CommitmentType, groups []model.CommitmentGroup, commitments []model.Commitment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range types {
		s.types[t.ID] = t
	}
	for _, g := range groups {
		s.groups[g.ID] = g
	}
	for _, c := range commitments {
		s.commitments[c.ID] = c
	}
	return nil
}

// InsertTransactions inserts rows whose FITID is new for the bank.
func (s *Store) InsertTransactions(_ context.Context, txns []model.Transaction) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var inserted []model.Transaction
	for _, t := range txns {
		if t.ID == "" {
			return inserted, fmt.Errorf("inserting transaction: missing id")
		}
		if _, exists := s.txns[t.ID]; exists {
			continue
		}
		if t.FITID != "" {
			if s.fitids[fitidKey(t)] {
				continue
			}
			s.fitids[fitidKey(t)] = true
		}
		s.txns[t.ID] = t
		inserted = append(inserted, t)
	}
	return inserted, nil
}

// InsertClassifications inserts rows; a transaction already classified keeps
// its existing row.
func (s *Store) InsertClassifications(_ context.Context, rows []model.TransactionClassification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		if _, exists := s.classifications[r.TransactionID]; exists {
			continue
		}
		s.classifications[r.TransactionID] = r
	}
	return nil
}

// InsertFutureEntry inserts a new entry.
func (s *Store) InsertFutureEntry(_ context.Context, f model.FutureEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.futures[f.ID]; exists {
		return fmt.Errorf("future entry %s already exists", f.ID)
	}
	s.futures[f.ID] = f
	return nil
}

// UpdateFutureEntry replaces an existing entry.
func (s *Store) UpdateFutureEntry(_ context.Context, f model.FutureEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.futures[f.ID]
	if !ok || cur.CompanyID != f.CompanyID {
		return fmt.Errorf("future entry %s: %w", f.ID, store.ErrNotFound)
	}
	s.futures[f.ID] = f
	return nil
}

// DeleteFutureEntry removes an entry.
func (s *Store) DeleteFutureEntry(_ context.Context, companyID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.futures[id]
	if !ok || cur.CompanyID != companyID {
		return fmt.Errorf("future entry %s: %w", id, store.ErrNotFound)
	}
	delete(s.futures, id)
	return nil
}

// SaveDRELine inserts or replaces a DRE line.
func (s *Store) SaveDRELine(_ context.Context, l model.DRELine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.TypeIDs = slices.Clone(l.TypeIDs)
	s.lines[l.ID] = l
	return nil
}

// DeleteDRELine removes a DRE line.
func (s *Store) DeleteDRELine(_ context.Context, companyID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.lines[id]
	if !ok || cur.CompanyID != companyID {
		return fmt.Errorf("dre line %s: %w", id, store.ErrNotFound)
	}
	delete(s.lines, id)
	return nil
}
