// Package sqlite is a local mirror of the hosted tables backed by a single
// SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/fluxo-dev/fluxo/internal/log"
	"github.com/fluxo-dev/fluxo/internal/model"
	"github.com/fluxo-dev/fluxo/internal/store"
)

// Store implements store.Store on database/sql.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

var _ store.Store = (*Store)(nil)

// Open creates the parent directory, migrates, and opens the database.
func Open(ctx context.Context, dbPath string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database dir: %w", err)
		}
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("migrating %s: %w", dbPath, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dbPath, err)
	}
	// One writer at a time; SQLite serializes anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s: %w", dbPath, err)
	}
	return &Store{db: db, logger: logger.WithComponent(log.ComponentStore)}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func args(companyID string, ids []string) []any {
	out := make([]any, 0, len(ids)+1)
	out = append(out, companyID)
	for _, id := range ids {
		out = append(out, id)
	}
	return out
}

// Banks returns the company's bank accounts ordered by name.
func (s *Store) Banks(ctx context.Context, companyID string) ([]model.BankAccount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, name, account_number, agency FROM banks WHERE company_id = ? ORDER BY name`, companyID)
	if err != nil {
		return nil, fmt.Errorf("querying banks: %w", err)
	}
	defer rows.Close()

	var result []model.BankAccount
	for rows.Next() {
		var b model.BankAccount
		if err := rows.Scan(&b.ID, &b.CompanyID, &b.Name, &b.AccountNumber, &b.Agency); err != nil {
			return nil, fmt.Errorf("scanning bank: %w", err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// Transactions returns matching transactions ordered by date then id. Bank
// filters are sent at most store.DefaultChunkSize ids at a time.
func (s *Store) Transactions(ctx context.Context, f store.TransactionFilter) ([]model.Transaction, error) {
	return store.TransactionsInChunks(ctx, f, store.DefaultChunkSize, s.transactions)
}

func (s *Store) transactions(ctx context.Context, f store.TransactionFilter) ([]model.Transaction, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, company_id, bank_id, date, amount, direction, description, fitid
		FROM transactions WHERE company_id = ?`)
	qargs := []any{f.CompanyID}

	if len(f.BankIDs) > 0 {
		sb.WriteString(` AND bank_id IN (` + placeholders(len(f.BankIDs)) + `)`)
		for _, id := range f.BankIDs {
			qargs = append(qargs, id)
		}
	}
	if !f.From.IsZero() {
		sb.WriteString(` AND date >= ?`)
		qargs = append(qargs, store.FormatDate(f.From))
	}
	if !f.To.IsZero() {
		sb.WriteString(` AND date < ?`)
		qargs = append(qargs, store.FormatDate(f.To))
	}
	sb.WriteString(` ORDER BY date, id`)

	rows, err := s.db.QueryContext(ctx, sb.String(), qargs...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var result []model.Transaction
	for rows.Next() {
		var (
			t            model.Transaction
			date, amount sql.NullString
			direction    string
		)
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.BankID, &date, &amount, &direction, &t.Description, &t.FITID); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		t.Date = s.coerceDate(ctx, "transactions", t.ID, date)
		t.Amount, t.Direction = store.NormalizeAmount(s.coerceAmount(ctx, "transactions", t.ID, amount), model.Direction(direction))
		result = append(result, t)
	}
	return result, rows.Err()
}

func (s *Store) coerceDate(ctx context.Context, table, id string, v sql.NullString) time.Time {
	d, ok := store.ParseDate(v.String)
	if !ok {
		s.logger.WarnContext(ctx, "coercing malformed date", log.FieldTable, table, "id", id, "value", v.String)
	}
	return d
}

func (s *Store) coerceAmount(ctx context.Context, table, id string, v sql.NullString) decimal.Decimal {
	a, ok := store.ParseAmount(v.String)
	if !ok {
		s.logger.WarnContext(ctx, "coercing malformed amount to zero", log.FieldTable, table, "id", id, "value", v.String)
	}
	return a
}

const futureColumns = `id, company_id, due_date, amount, type, description, status, source, document_key,
	commitment_type_id, commitment_group_id, commitment_id, created_at, updated_at`

// FutureEntries returns matching entries ordered by due date then id.
func (s *Store) FutureEntries(ctx context.Context, f store.FutureEntryFilter) ([]model.FutureEntry, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + futureColumns + ` FROM future_entries WHERE company_id = ?`)
	qargs := []any{f.CompanyID}

	if !f.From.IsZero() {
		sb.WriteString(` AND due_date >= ?`)
		qargs = append(qargs, store.FormatDate(f.From))
	}
	if !f.To.IsZero() {
		sb.WriteString(` AND due_date < ?`)
		qargs = append(qargs, store.FormatDate(f.To))
	}
	if len(f.Statuses) > 0 {
		sb.WriteString(` AND status IN (` + placeholders(len(f.Statuses)) + `)`)
		for _, st := range f.Statuses {
			qargs = append(qargs, string(st))
		}
	}
	sb.WriteString(` ORDER BY due_date, id`)

	rows, err := s.db.QueryContext(ctx, sb.String(), qargs...)
	if err != nil {
		return nil, fmt.Errorf("querying future entries: %w", err)
	}
	defer rows.Close()

	var result []model.FutureEntry
	for rows.Next() {
		e, err := s.scanFuture(ctx, rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// FutureEntry returns one entry.
func (s *Store) FutureEntry(ctx context.Context, companyID, id string) (model.FutureEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+futureColumns+` FROM future_entries WHERE company_id = ? AND id = ?`, companyID, id)
	e, err := s.scanFuture(ctx, row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FutureEntry{}, fmt.Errorf("future entry %s: %w", id, store.ErrNotFound)
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanFuture(ctx context.Context, row scanner) (model.FutureEntry, error) {
	var (
		e                   model.FutureEntry
		due, amount         sql.NullString
		typ, status, source string
		created, updated    string
	)
	err := row.Scan(&e.ID, &e.CompanyID, &due, &amount, &typ, &e.Description, &status, &source, &e.DocumentKey,
		&e.Classification.TypeID, &e.Classification.GroupID, &e.Classification.CommitmentID, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("scanning future entry: %w", err)
	}
	e.DueDate = s.coerceDate(ctx, "future_entries", e.ID, due)
	e.Amount = s.coerceAmount(ctx, "future_entries", e.ID, amount).Abs()
	e.Type = model.EntryType(typ)
	e.Status = model.EntryStatus(status)
	e.Source = model.EntrySource(source)
	e.CreatedAt, _ = time.Parse(time.RFC3339, created)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return e, nil
}

// CommitmentTypes returns types ordered by position.
func (s *Store) CommitmentTypes(ctx context.Context, companyID string) ([]model.CommitmentType, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, name, nature, position FROM commitment_types WHERE company_id = ? ORDER BY position, id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("querying commitment types: %w", err)
	}
	defer rows.Close()

	var result []model.CommitmentType
	for rows.Next() {
		var t model.CommitmentType
		var nature string
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.Name, &nature, &t.Position); err != nil {
			return nil, fmt.Errorf("scanning commitment type: %w", err)
		}
		t.Nature = model.Nature(nature)
		result = append(result, t)
	}
	return result, rows.Err()
}

// CommitmentGroups returns groups ordered by name.
func (s *Store) CommitmentGroups(ctx context.Context, companyID string) ([]model.CommitmentGroup, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, commitment_type_id, name, team_cost FROM commitment_groups WHERE company_id = ? ORDER BY name`, companyID)
	if err != nil {
		return nil, fmt.Errorf("querying commitment groups: %w", err)
	}
	defer rows.Close()

	var result []model.CommitmentGroup
	for rows.Next() {
		var g model.CommitmentGroup
		if err := rows.Scan(&g.ID, &g.CompanyID, &g.TypeID, &g.Name, &g.TeamCost); err != nil {
			return nil, fmt.Errorf("scanning commitment group: %w", err)
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

// Commitments returns commitments ordered by name.
func (s *Store) Commitments(ctx context.Context, companyID string) ([]model.Commitment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, commitment_group_id, name FROM commitments WHERE company_id = ? ORDER BY name`, companyID)
	if err != nil {
		return nil, fmt.Errorf("querying commitments: %w", err)
	}
	defer rows.Close()

	var result []model.Commitment
	for rows.Next() {
		var c model.Commitment
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.GroupID, &c.Name); err != nil {
			return nil, fmt.Errorf("scanning commitment: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// Classifications returns rows for the given transaction ids.
func (s *Store) Classifications(ctx context.Context, companyID string, transactionIDs []string) ([]model.TransactionClassification, error) {
	if len(transactionIDs) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT transaction_id, company_id, commitment_type_id, commitment_group_id, commitment_id
		FROM transaction_classifications
		WHERE company_id = ? AND transaction_id IN (`+placeholders(len(transactionIDs))+`)
		ORDER BY transaction_id`,
		args(companyID, transactionIDs)...)
	if err != nil {
		return nil, fmt.Errorf("querying classifications: %w", err)
	}
	defer rows.Close()

	var result []model.TransactionClassification
	for rows.Next() {
		var c model.TransactionClassification
		if err := rows.Scan(&c.TransactionID, &c.CompanyID, &c.TypeID, &c.GroupID, &c.CommitmentID); err != nil {
			return nil, fmt.Errorf("scanning classification: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// DRELines returns lines ordered by position.
func (s *Store) DRELines(ctx context.Context, companyID string) ([]model.DRELine, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, position, label, kind, commitment_type_ids
		FROM dre_line_configurations WHERE company_id = ? ORDER BY position, id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("querying dre lines: %w", err)
	}
	defer rows.Close()

	var result []model.DRELine
	for rows.Next() {
		var l model.DRELine
		var kind, typeIDs string
		if err := rows.Scan(&l.ID, &l.CompanyID, &l.Position, &l.Label, &kind, &typeIDs); err != nil {
			return nil, fmt.Errorf("scanning dre line: %w", err)
		}
		l.Kind = model.LineKind(kind)
		if typeIDs != "" {
			l.TypeIDs = strings.Split(typeIDs, ",")
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

// SaveBank inserts or replaces a bank account.
func (s *Store) SaveBank(ctx context.Context, b model.BankAccount) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO banks (id, company_id, name, account_number, agency) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, account_number = excluded.account_number, agency = excluded.agency`,
		b.ID, b.CompanyID, b.Name, b.AccountNumber, b.Agency)
	if err != nil {
		return fmt.Errorf("saving bank %s: %w", b.ID, err)
	}
	return nil
}

// SaveHierarchy inserts or replaces hierarchy rows in one transaction.
func (s *Store) SaveHierarchy(ctx context.Context, types []model.CommitmentType, groups []model.CommitmentGroup, commitments []model.Commitment) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, t := range types {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO commitment_types (id, company_id, name, nature, position) VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET name = excluded.name, nature = excluded.nature, position = excluded.position`,
				t.ID, t.CompanyID, t.Name, string(t.Nature), t.Position); err != nil {
				return fmt.Errorf("saving commitment type %s: %w", t.ID, err)
			}
		}
		for _, g := range groups {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO commitment_groups (id, company_id, commitment_type_id, name, team_cost) VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET commitment_type_id = excluded.commitment_type_id, name = excluded.name, team_cost = excluded.team_cost`,
				g.ID, g.CompanyID, g.TypeID, g.Name, g.TeamCost); err != nil {
				return fmt.Errorf("saving commitment group %s: %w", g.ID, err)
			}
		}
		for _, c := range commitments {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO commitments (id, company_id, commitment_group_id, name) VALUES (?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET commitment_group_id = excluded.commitment_group_id, name = excluded.name`,
				c.ID, c.CompanyID, c.GroupID, c.Name); err != nil {
				return fmt.Errorf("saving commitment %s: %w", c.ID, err)
			}
		}
		return nil
	})
}

// InsertTransactions inserts rows, skipping FITIDs already present for the bank.
func (s *Store) InsertTransactions(ctx context.Context, txns []model.Transaction) ([]model.Transaction, error) {
	var inserted []model.Transaction
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, t := range txns {
			res, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO transactions (id, company_id, bank_id, date, amount, direction, description, fitid)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				t.ID, t.CompanyID, t.BankID, store.FormatDate(t.Date), t.Amount.String(), string(t.Direction), t.Description, t.FITID)
			if err != nil {
				return fmt.Errorf("inserting transaction %s: %w", t.ID, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				inserted = append(inserted, t)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

// InsertClassifications inserts rows; already classified transactions are left alone.
func (s *Store) InsertClassifications(ctx context.Context, rows []model.TransactionClassification) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, r := range rows {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO transaction_classifications
				(transaction_id, company_id, commitment_type_id, commitment_group_id, commitment_id)
				VALUES (?, ?, ?, ?, ?)`,
				r.TransactionID, r.CompanyID, r.TypeID, r.GroupID, r.CommitmentID); err != nil {
				return fmt.Errorf("inserting classification for %s: %w", r.TransactionID, err)
			}
		}
		return nil
	})
}

// InsertFutureEntry inserts a new entry.
func (s *Store) InsertFutureEntry(ctx context.Context, f model.FutureEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO future_entries (`+futureColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.CompanyID, store.FormatDate(f.DueDate), f.Amount.String(), string(f.Type), f.Description,
		string(f.Status), string(f.Source), f.DocumentKey,
		f.Classification.TypeID, f.Classification.GroupID, f.Classification.CommitmentID,
		f.CreatedAt.UTC().Format(time.RFC3339), f.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting future entry %s: %w", f.ID, err)
	}
	return nil
}

// UpdateFutureEntry replaces an existing entry.
func (s *Store) UpdateFutureEntry(ctx context.Context, f model.FutureEntry) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE future_entries SET due_date = ?, amount = ?, type = ?, description = ?, status = ?,
		commitment_type_id = ?, commitment_group_id = ?, commitment_id = ?, updated_at = ?
		WHERE company_id = ? AND id = ?`,
		store.FormatDate(f.DueDate), f.Amount.String(), string(f.Type), f.Description, string(f.Status),
		f.Classification.TypeID, f.Classification.GroupID, f.Classification.CommitmentID,
		f.UpdatedAt.UTC().Format(time.RFC3339), f.CompanyID, f.ID)
	if err != nil {
		return fmt.Errorf("updating future entry %s: %w", f.ID, err)
	}
	return expectOne(res, "future entry", f.ID)
}

// DeleteFutureEntry removes an entry.
func (s *Store) DeleteFutureEntry(ctx context.Context, companyID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM future_entries WHERE company_id = ? AND id = ?`, companyID, id)
	if err != nil {
		return fmt.Errorf("deleting future entry %s: %w", id, err)
	}
	return expectOne(res, "future entry", id)
}

// SaveDRELine inserts or replaces a DRE line.
func (s *Store) SaveDRELine(ctx context.Context, l model.DRELine) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dre_line_configurations (id, company_id, position, label, kind, commitment_type_ids)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET position = excluded.position, label = excluded.label,
		kind = excluded.kind, commitment_type_ids = excluded.commitment_type_ids`,
		l.ID, l.CompanyID, l.Position, l.Label, string(l.Kind), strings.Join(l.TypeIDs, ","))
	if err != nil {
		return fmt.Errorf("saving dre line %s: %w", l.ID, err)
	}
	return nil
}

// DeleteDRELine removes a DRE line.
func (s *Store) DeleteDRELine(ctx context.Context, companyID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM dre_line_configurations WHERE company_id = ? AND id = ?`, companyID, id)
	if err != nil {
		return fmt.Errorf("deleting dre line %s: %w", id, err)
	}
	return expectOne(res, "dre line", id)
}

func expectOne(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: %w", what, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
