package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/fluxo-dev/fluxo/internal/auditlog"
	"github.com/fluxo-dev/fluxo/internal/classify"
	"github.com/fluxo-dev/fluxo/internal/importer/nfe"
	"github.com/fluxo-dev/fluxo/internal/log"
	"github.com/fluxo-dev/fluxo/internal/model"
	"github.com/fluxo-dev/fluxo/internal/refresh"
	"github.com/fluxo-dev/fluxo/internal/store"
)

// idSpace namespaces the name-based ids of imported rows, so re-importing
// the same file yields the same ids.
var idSpace = uuid.MustParse("6f1d7c3e-2b1a-4f0e-9a57-5c7d0e8b4a21")

// StatementResult summarizes one statement import.
type StatementResult struct {
	BankID     string
	Parsed     int
	Inserted   int
	Duplicates int
	Classified int
	Statement  *Statement
}

// InvoiceResult summarizes one invoice import.
type InvoiceResult struct {
	Key        string
	Entries    int
	Duplicates int
}

// Service imports statements and invoices for one company.
type Service struct {
	store     store.Store
	companyID string
	taxID     string
	registry  *Registry
	matcher   *classify.Matcher
	notifier  *refresh.Notifier
	audit     *auditlog.Log
	logger    *log.Logger
}

// Config wires a Service. Matcher, Notifier and Audit may be nil.
type Config struct {
	CompanyID string
	TaxID     string // company CNPJ, used to tell issued from received invoices
	Registry  *Registry
	Matcher   *classify.Matcher
	Notifier  *refresh.Notifier
	Audit     *auditlog.Log
}

// NewService creates an import service.
func NewService(s store.Store, cfg Config, logger *log.Logger) *Service {
	if cfg.Registry == nil {
		cfg.Registry = DefaultRegistry()
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Service{
		store:     s,
		companyID: cfg.CompanyID,
		taxID:     cfg.TaxID,
		registry:  cfg.Registry,
		matcher:   cfg.Matcher,
		notifier:  cfg.Notifier,
		audit:     cfg.Audit,
		logger:    logger.WithComponent(log.ComponentImport).With(log.FieldCompany, cfg.CompanyID),
	}
}

// ImportStatement parses an OFX statement and stores its new transactions.
// bankID may be empty, in which case the account is derived from the
// statement and saved. Rows without a classification, whether inserted now
// or by an earlier import, are run through the rules.
func (s *Service) ImportStatement(ctx context.Context, bankID string, r io.Reader) (*StatementResult, error) {
	return s.importStatement(ctx, "ofx", bankID, r)
}

func (s *Service) importStatement(ctx context.Context, format, bankID string, r io.Reader) (*StatementResult, error) {
	parser := s.registry.Get(format)
	if parser == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	stmt, err := parser.Parse(r)
	if err != nil {
		return nil, err
	}

	if bankID == "" {
		bankID = stmt.BankInfo.Key()
		if bankID == "" {
			return nil, errors.New("statement has no account id; pass a bank id")
		}
		if err := s.store.SaveBank(ctx, model.BankAccount{
			ID:            bankID,
			CompanyID:     s.companyID,
			Name:          bankID,
			AccountNumber: stmt.BankInfo.AccountID,
			Agency:        stmt.BankInfo.BranchID,
		}); err != nil {
			return nil, fmt.Errorf("saving bank %s: %w", bankID, err)
		}
	}

	txns := make([]model.Transaction, len(stmt.Transactions))
	for i, t := range stmt.Transactions {
		t.CompanyID = s.companyID
		t.BankID = bankID
		t.ID = transactionID(s.companyID, bankID, t, i)
		txns[i] = t
	}

	inserted, err := s.store.InsertTransactions(ctx, txns)
	if err != nil {
		return nil, fmt.Errorf("inserting transactions: %w", err)
	}

	result := &StatementResult{
		BankID:     bankID,
		Parsed:     len(txns),
		Inserted:   len(inserted),
		Duplicates: len(txns) - len(inserted),
		Statement:  stmt,
	}

	if s.matcher != nil && len(txns) > 0 {
		pending, err := s.unclassified(ctx, txns)
		if err != nil {
			return nil, err
		}
		n, err := classify.Apply(ctx, s.store, s.matcher, pending, s.logger)
		if err != nil {
			return nil, err
		}
		result.Classified = n
	}

	s.logger.InfoContext(ctx, "statement imported",
		log.FieldBank, bankID,
		"parsed", result.Parsed,
		"inserted", result.Inserted,
		"duplicates", result.Duplicates,
		"classified", result.Classified,
	)
	details := fmt.Sprintf("%d parsed, %d inserted, %d duplicates, %d classified",
		result.Parsed, result.Inserted, result.Duplicates, result.Classified)
	if err := s.audit.Record(s.companyID, auditlog.ActionImportStatement, bankID, details); err != nil {
		s.logger.WarnContext(ctx, "writing audit log failed", log.FieldError, err)
	}

	switch {
	case result.Inserted > 0:
		s.notifier.Changed(ctx, s.companyID, refresh.TableTransactions, log.OpImport)
	case result.Classified > 0:
		s.notifier.Changed(ctx, s.companyID, refresh.TableClassifications, log.OpCreate)
	}
	return result, nil
}

// unclassified returns the rows of txns that have no classification row in
// the store yet.
func (s *Service) unclassified(ctx context.Context, txns []model.Transaction) ([]model.Transaction, error) {
	ids := make([]string, len(txns))
	for i, t := range txns {
		ids[i] = t.ID
	}
	classified := make(map[string]bool, len(ids))
	for _, chunk := range store.Chunk(ids, store.DefaultChunkSize) {
		rows, err := s.store.Classifications(ctx, s.companyID, chunk)
		if err != nil {
			return nil, fmt.Errorf("fetching classifications: %w", err)
		}
		for _, r := range rows {
			classified[r.TransactionID] = true
		}
	}

	var pending []model.Transaction
	for _, t := range txns {
		if !classified[t.ID] {
			pending = append(pending, t)
		}
	}
	return pending, nil
}

// transactionID derives a stable id: from the FITID when present, else from
// the row's content and position in the file.
func transactionID(companyID, bankID string, t model.Transaction, index int) string {
	name := companyID + "/" + bankID + "/"
	if t.FITID != "" {
		name += "fitid/" + t.FITID
	} else {
		name += fmt.Sprintf("row/%d/%s/%s/%s/%s", index, store.FormatDate(t.Date), t.Direction, t.Amount.String(), t.Description)
	}
	return uuid.NewSHA1(idSpace, []byte(name)).String()
}

// ImportInvoice parses an NF-e and records its installments as future
// entries. Installments already imported are skipped.
func (s *Service) ImportInvoice(ctx context.Context, r io.Reader) (*InvoiceResult, error) {
	inv, err := nfe.Parse(r)
	if err != nil {
		return nil, err
	}
	entries, err := nfe.ToFutureEntries(inv, s.taxID)
	if err != nil {
		return nil, err
	}

	result := &InvoiceResult{Key: inv.Key}
	for _, e := range entries {
		e.ID = uuid.NewSHA1(idSpace, []byte(s.companyID+"/nfe/"+e.DocumentKey)).String()
		e.CompanyID = s.companyID

		_, err := s.store.FutureEntry(ctx, s.companyID, e.ID)
		if err == nil {
			result.Duplicates++
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("checking entry %s: %w", e.DocumentKey, err)
		}

		if err := s.store.InsertFutureEntry(ctx, e); err != nil {
			return nil, fmt.Errorf("inserting entry %s: %w", e.DocumentKey, err)
		}
		result.Entries++
	}

	s.logger.InfoContext(ctx, "invoice imported",
		"key", inv.Key,
		"entries", result.Entries,
		"duplicates", result.Duplicates,
	)
	details := fmt.Sprintf("NF-e %s: %d entries, %d duplicates", inv.Number, result.Entries, result.Duplicates)
	if err := s.audit.Record(s.companyID, auditlog.ActionImportInvoice, inv.Key, details); err != nil {
		s.logger.WarnContext(ctx, "writing audit log failed", log.FieldError, err)
	}

	if result.Entries > 0 {
		s.notifier.Changed(ctx, s.companyID, refresh.TableFutureEntries, log.OpImport)
	}
	return result, nil
}

// ImportFile imports one scanned file, choosing statement or invoice by
// extension. bankID applies to statements only.
func (s *Service) ImportFile(ctx context.Context, f FileInfo, bankID string) (any, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer fh.Close()

	s.logger.DebugContext(ctx, "importing file", log.FieldFile, f.Name)
	switch f.Kind() {
	case "xml":
		return s.ImportInvoice(ctx, fh)
	default:
		return s.importStatement(ctx, f.Kind(), bankID, fh)
	}
}
