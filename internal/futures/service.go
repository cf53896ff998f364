// Package futures manages payables and receivables that have not reached a
// bank statement yet.
package futures

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fluxo-dev/fluxo/internal/auditlog"
	"github.com/fluxo-dev/fluxo/internal/hierarchy"
	"github.com/fluxo-dev/fluxo/internal/log"
	"github.com/fluxo-dev/fluxo/internal/model"
	"github.com/fluxo-dev/fluxo/internal/refresh"
	"github.com/fluxo-dev/fluxo/internal/store"
)

// ErrSettled is returned when editing an entry that is settled or cancelled.
var ErrSettled = errors.New("future entry is settled or cancelled")

// Params holds the editable fields of a future entry.
type Params struct {
	DueDate        time.Time
	Amount         decimal.Decimal
	Type           model.EntryType
	Description    string
	Classification model.Classification
}

// ListFilter narrows List. Zero values select everything.
type ListFilter struct {
	From     time.Time
	To       time.Time // exclusive
	Statuses []model.EntryStatus
}

// Service creates and edits future entries for one company.
type Service struct {
	store     store.Store
	companyID string
	hierarchy *hierarchy.Service
	notifier  *refresh.Notifier
	audit     *auditlog.Log
	logger    *log.Logger
	now       func() time.Time
}

// Config wires a Service. Hierarchy, Notifier and Audit may be nil.
type Config struct {
	CompanyID string
	Hierarchy *hierarchy.Service
	Notifier  *refresh.Notifier
	Audit     *auditlog.Log
}

// NewService creates a future-entry service.
func NewService(s store.Store, cfg Config, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Discard()
	}
	return &Service{
		store:     s,
		companyID: cfg.CompanyID,
		hierarchy: cfg.Hierarchy,
		notifier:  cfg.Notifier,
		audit:     cfg.Audit,
		logger:    logger.WithComponent(log.ComponentFutures).With(log.FieldCompany, cfg.CompanyID),
		now:       time.Now,
	}
}

// Create validates and stores a new pending manual entry.
func (s *Service) Create(ctx context.Context, p Params) (model.FutureEntry, error) {
	now := s.now().UTC()
	e := model.FutureEntry{
		ID:        uuid.NewString(),
		CompanyID: s.companyID,
		Status:    model.StatusPending,
		Source:    model.SourceManual,
		CreatedAt: now,
		UpdatedAt: now,
	}
	e = s.apply(e, p)

	if err := s.validate(e); err != nil {
		return model.FutureEntry{}, err
	}
	if err := s.store.InsertFutureEntry(ctx, e); err != nil {
		return model.FutureEntry{}, fmt.Errorf("creating future entry: %w", err)
	}

	s.written(ctx, e, log.OpCreate, auditlog.ActionFutureCreate)
	return e, nil
}

// Update replaces the editable fields of a pending entry.
func (s *Service) Update(ctx context.Context, id string, p Params) (model.FutureEntry, error) {
	e, err := s.open(ctx, id)
	if err != nil {
		return model.FutureEntry{}, err
	}
	e = s.apply(e, p)
	e.UpdatedAt = s.now().UTC()

	if err := s.validate(e); err != nil {
		return model.FutureEntry{}, err
	}
	if err := s.store.UpdateFutureEntry(ctx, e); err != nil {
		return model.FutureEntry{}, fmt.Errorf("updating future entry %s: %w", id, err)
	}

	s.written(ctx, e, log.OpUpdate, auditlog.ActionFutureUpdate)
	return e, nil
}

// Settle marks a pending entry as paid or received. It stops projecting.
func (s *Service) Settle(ctx context.Context, id string) (model.FutureEntry, error) {
	return s.finish(ctx, id, model.StatusSettled, auditlog.ActionFutureSettle)
}

// Cancel marks a pending entry as not going to happen.
func (s *Service) Cancel(ctx context.Context, id string) (model.FutureEntry, error) {
	return s.finish(ctx, id, model.StatusCancelled, auditlog.ActionFutureCancel)
}

// Delete removes an entry. Settled entries stay as history.
func (s *Service) Delete(ctx context.Context, id string) error {
	e, err := s.store.FutureEntry(ctx, s.companyID, id)
	if err != nil {
		return fmt.Errorf("deleting future entry: %w", err)
	}
	if e.Status == model.StatusSettled {
		return fmt.Errorf("deleting future entry %s: %w", id, ErrSettled)
	}
	if err := s.store.DeleteFutureEntry(ctx, s.companyID, id); err != nil {
		return fmt.Errorf("deleting future entry %s: %w", id, err)
	}

	s.written(ctx, e, log.OpDelete, auditlog.ActionFutureDelete)
	return nil
}

// Get returns one entry with its classification names resolved.
func (s *Service) Get(ctx context.Context, id string) (model.FutureEntry, error) {
	e, err := s.store.FutureEntry(ctx, s.companyID, id)
	if err != nil {
		return model.FutureEntry{}, err
	}
	return s.resolve(e), nil
}

// List returns entries ordered by due date.
func (s *Service) List(ctx context.Context, f ListFilter) ([]model.FutureEntry, error) {
	entries, err := s.store.FutureEntries(ctx, store.FutureEntryFilter{
		CompanyID: s.companyID,
		From:      f.From,
		To:        f.To,
		Statuses:  f.Statuses,
	})
	if err != nil {
		return nil, fmt.Errorf("listing future entries: %w", err)
	}
	for i := range entries {
		entries[i] = s.resolve(entries[i])
	}
	return entries, nil
}

func (s *Service) finish(ctx context.Context, id string, status model.EntryStatus, action string) (model.FutureEntry, error) {
	e, err := s.open(ctx, id)
	if err != nil {
		return model.FutureEntry{}, err
	}
	e.Status = status
	e.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateFutureEntry(ctx, e); err != nil {
		return model.FutureEntry{}, fmt.Errorf("updating future entry %s: %w", id, err)
	}

	s.written(ctx, e, log.OpUpdate, action)
	return e, nil
}

// open fetches an entry that may still be edited.
func (s *Service) open(ctx context.Context, id string) (model.FutureEntry, error) {
	e, err := s.store.FutureEntry(ctx, s.companyID, id)
	if err != nil {
		return model.FutureEntry{}, fmt.Errorf("loading future entry: %w", err)
	}
	if e.Closed() {
		return model.FutureEntry{}, fmt.Errorf("future entry %s is %s: %w", id, e.Status, ErrSettled)
	}
	return e, nil
}

func (s *Service) apply(e model.FutureEntry, p Params) model.FutureEntry {
	e.DueDate = p.DueDate
	e.Amount = p.Amount
	e.Type = p.Type
	e.Description = strings.TrimSpace(p.Description)
	e.Classification = model.Classification{
		TypeID:       p.Classification.TypeID,
		GroupID:      p.Classification.GroupID,
		CommitmentID: p.Classification.CommitmentID,
	}
	if s.hierarchy != nil {
		// only ids are stored; names come back through the loader
		r := s.hierarchy.Resolve(e.Classification)
		e.Classification.TypeID, e.Classification.GroupID = r.TypeID, r.GroupID
	}
	return e
}

func (s *Service) validate(e model.FutureEntry) error {
	var h CommitmentChecker
	if s.hierarchy != nil {
		h = s.hierarchy
	}
	if errs := Validate(e, h); len(errs) > 0 {
		return ValidationErrors(errs)
	}
	return nil
}

func (s *Service) resolve(e model.FutureEntry) model.FutureEntry {
	if s.hierarchy != nil {
		e.Classification = s.hierarchy.Resolve(e.Classification)
	}
	return e
}

// written logs, audits and announces a successful write.
func (s *Service) written(ctx context.Context, e model.FutureEntry, op, action string) {
	s.logger.InfoContext(ctx, "future entry written",
		log.FieldOperation, op,
		"entry_id", e.ID,
		"status", string(e.Status),
	)
	details := fmt.Sprintf("%s %s %s due %s", e.Type, e.Amount.StringFixed(2), e.Description, store.FormatDate(e.DueDate))
	if err := s.audit.Record(s.companyID, action, e.ID, details); err != nil {
		s.logger.WarnContext(ctx, "writing audit log failed", log.FieldError, err)
	}
	s.notifier.Changed(ctx, s.companyID, refresh.TableFutureEntries, op)
}
