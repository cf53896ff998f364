// Package postgres talks to the hosted backend's Postgres database.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fluxo-dev/fluxo/internal/log"
	"github.com/fluxo-dev/fluxo/internal/model"
	"github.com/fluxo-dev/fluxo/internal/store"
)

// Store implements store.Store on a pgx pool.
type Store struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

var _ store.Store = (*Store)(nil)

// Open connects to databaseURL and pings it.
func Open(ctx context.Context, databaseURL string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Discard()
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Store{pool: pool, logger: logger.WithComponent(log.ComponentStore)}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Banks returns the company's bank accounts ordered by name.
func (s *Store) Banks(ctx context.Context, companyID string) ([]model.BankAccount, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, company_id::text, name, coalesce(account_number, ''), coalesce(agency, '')
		FROM banks WHERE company_id = $1 ORDER BY name`, companyID)
	if err != nil {
		return nil, fmt.Errorf("querying banks: %w", err)
	}
	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.BankAccount, error) {
		var b model.BankAccount
		err := row.Scan(&b.ID, &b.CompanyID, &b.Name, &b.AccountNumber, &b.Agency)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning banks: %w", err)
	}
	return result, nil
}

// Transactions returns matching transactions ordered by date then id. Bank
// filters are sent at most store.DefaultChunkSize ids at a time.
func (s *Store) Transactions(ctx context.Context, f store.TransactionFilter) ([]model.Transaction, error) {
	return store.TransactionsInChunks(ctx, f, store.DefaultChunkSize, s.transactions)
}

func (s *Store) transactions(ctx context.Context, f store.TransactionFilter) ([]model.Transaction, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id::text, company_id::text, bank_id::text, date::text, amount::text,
		coalesce(direction, ''), coalesce(description, ''), coalesce(fitid, '')
		FROM transactions WHERE company_id = $1`)
	qargs := []any{f.CompanyID}

	if len(f.BankIDs) > 0 {
		qargs = append(qargs, f.BankIDs)
		fmt.Fprintf(&sb, ` AND bank_id::text = ANY($%d)`, len(qargs))
	}
	if !f.From.IsZero() {
		qargs = append(qargs, store.FormatDate(f.From))
		fmt.Fprintf(&sb, ` AND date >= $%d::date`, len(qargs))
	}
	if !f.To.IsZero() {
		qargs = append(qargs, store.FormatDate(f.To))
		fmt.Fprintf(&sb, ` AND date < $%d::date`, len(qargs))
	}
	sb.WriteString(` ORDER BY date, id`)

	rows, err := s.pool.Query(ctx, sb.String(), qargs...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Transaction, error) {
		var (
			t            model.Transaction
			date, amount *string
			direction    string
		)
		if err := row.Scan(&t.ID, &t.CompanyID, &t.BankID, &date, &amount, &direction, &t.Description, &t.FITID); err != nil {
			return t, err
		}
		t.Date = s.coerceDate(ctx, "transactions", t.ID, date)
		t.Amount, t.Direction = store.NormalizeAmount(s.coerceAmount(ctx, "transactions", t.ID, amount), model.Direction(direction))
		return t, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning transactions: %w", err)
	}
	return result, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func (s *Store) coerceDate(ctx context.Context, table, id string, v *string) time.Time {
	d, ok := store.ParseDate(deref(v))
	if !ok {
		s.logger.WarnContext(ctx, "coercing malformed date", log.FieldTable, table, "id", id, "value", deref(v))
	}
	return d
}

func (s *Store) coerceAmount(ctx context.Context, table, id string, v *string) decimal.Decimal {
	a, ok := store.ParseAmount(deref(v))
	if !ok {
		s.logger.WarnContext(ctx, "coercing malformed amount to zero", log.FieldTable, table, "id", id, "value", deref(v))
	}
	return a
}

const futureColumns = `id::text, company_id::text, due_date::text, amount::text, type, coalesce(description, ''),
	status, coalesce(source, 'manual'), coalesce(document_key, ''),
	coalesce(commitment_type_id::text, ''), coalesce(commitment_group_id::text, ''), coalesce(commitment_id::text, ''),
	created_at, updated_at`

func (s *Store) scanFuture(ctx context.Context, row pgx.Row) (model.FutureEntry, error) {
	var (
		e                   model.FutureEntry
		due, amount         *string
		typ, status, source string
	)
	err := row.Scan(&e.ID, &e.CompanyID, &due, &amount, &typ, &e.Description, &status, &source, &e.DocumentKey,
		&e.Classification.TypeID, &e.Classification.GroupID, &e.Classification.CommitmentID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return e, err
	}
	e.DueDate = s.coerceDate(ctx, "future_entries", e.ID, due)
	e.Amount = s.coerceAmount(ctx, "future_entries", e.ID, amount).Abs()
	e.Type = model.EntryType(typ)
	e.Status = model.EntryStatus(status)
	e.Source = model.EntrySource(source)
	return e, nil
}

// FutureEntries returns matching entries ordered by due date then id.
func (s *Store) FutureEntries(ctx context.Context, f store.FutureEntryFilter) ([]model.FutureEntry, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + futureColumns + ` FROM future_entries WHERE company_id = $1`)
	qargs := []any{f.CompanyID}

	if !f.From.IsZero() {
		qargs = append(qargs, store.FormatDate(f.From))
		fmt.Fprintf(&sb, ` AND due_date >= $%d::date`, len(qargs))
	}
	if !f.To.IsZero() {
		qargs = append(qargs, store.FormatDate(f.To))
		fmt.Fprintf(&sb, ` AND due_date < $%d::date`, len(qargs))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		qargs = append(qargs, statuses)
		fmt.Fprintf(&sb, ` AND status = ANY($%d)`, len(qargs))
	}
	sb.WriteString(` ORDER BY due_date, id`)

	rows, err := s.pool.Query(ctx, sb.String(), qargs...)
	if err != nil {
		return nil, fmt.Errorf("querying future entries: %w", err)
	}
	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.FutureEntry, error) {
		return s.scanFuture(ctx, row)
	})
	if err != nil {
		return nil, fmt.Errorf("scanning future entries: %w", err)
	}
	return result, nil
}

// FutureEntry returns one entry.
func (s *Store) FutureEntry(ctx context.Context, companyID, id string) (model.FutureEntry, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+futureColumns+` FROM future_entries WHERE company_id = $1 AND id::text = $2`, companyID, id)
	e, err := s.scanFuture(ctx, row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.FutureEntry{}, fmt.Errorf("future entry %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return model.FutureEntry{}, fmt.Errorf("scanning future entry: %w", err)
	}
	return e, nil
}

// CommitmentTypes returns types ordered by position.
func (s *Store) CommitmentTypes(ctx context.Context, companyID string) ([]model.CommitmentType, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, company_id::text, name, coalesce(nature, 'other'), coalesce(position, 0)
		FROM commitment_types WHERE company_id = $1 ORDER BY position, id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("querying commitment types: %w", err)
	}
	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.CommitmentType, error) {
		var t model.CommitmentType
		var nature string
		err := row.Scan(&t.ID, &t.CompanyID, &t.Name, &nature, &t.Position)
		t.Nature = model.Nature(nature)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning commitment types: %w", err)
	}
	return result, nil
}

// CommitmentGroups returns groups ordered by name.
func (s *Store) CommitmentGroups(ctx context.Context, companyID string) ([]model.CommitmentGroup, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, company_id::text, commitment_type_id::text, name, coalesce(team_cost, false)
		FROM commitment_groups WHERE company_id = $1 ORDER BY name`, companyID)
	if err != nil {
		return nil, fmt.Errorf("querying commitment groups: %w", err)
	}
	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.CommitmentGroup, error) {
		var g model.CommitmentGroup
		err := row.Scan(&g.ID, &g.CompanyID, &g.TypeID, &g.Name, &g.TeamCost)
		return g, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning commitment groups: %w", err)
	}
	return result, nil
}

// Commitments returns commitments ordered by name.
func (s *Store) Commitments(ctx context.Context, companyID string) ([]model.Commitment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, company_id::text, commitment_group_id::text, name
		FROM commitments WHERE company_id = $1 ORDER BY name`, companyID)
	if err != nil {
		return nil, fmt.Errorf("querying commitments: %w", err)
	}
	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Commitment, error) {
		var c model.Commitment
		err := row.Scan(&c.ID, &c.CompanyID, &c.GroupID, &c.Name)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning commitments: %w", err)
	}
	return result, nil
}

// Classifications returns rows for the given transaction ids.
func (s *Store) Classifications(ctx context.Context, companyID string, transactionIDs []string) ([]model.TransactionClassification, error) {
	if len(transactionIDs) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT transaction_id::text, company_id::text, coalesce(commitment_type_id::text, ''),
		coalesce(commitment_group_id::text, ''), coalesce(commitment_id::text, '')
		FROM transaction_classifications
		WHERE company_id = $1 AND transaction_id::text = ANY($2)
		ORDER BY transaction_id, created_at`, companyID, transactionIDs)
	if err != nil {
		return nil, fmt.Errorf("querying classifications: %w", err)
	}
	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.TransactionClassification, error) {
		var c model.TransactionClassification
		err := row.Scan(&c.TransactionID, &c.CompanyID, &c.TypeID, &c.GroupID, &c.CommitmentID)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning classifications: %w", err)
	}
	return result, nil
}

// DRELines returns lines ordered by position.
func (s *Store) DRELines(ctx context.Context, companyID string) ([]model.DRELine, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, company_id::text, position, label, coalesce(kind, 'sum'), coalesce(commitment_type_ids, '{}')
		FROM dre_line_configurations WHERE company_id = $1 ORDER BY position, id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("querying dre lines: %w", err)
	}
	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.DRELine, error) {
		var l model.DRELine
		var kind string
		err := row.Scan(&l.ID, &l.CompanyID, &l.Position, &l.Label, &kind, &l.TypeIDs)
		l.Kind = model.LineKind(kind)
		if len(l.TypeIDs) == 0 {
			l.TypeIDs = nil
		}
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning dre lines: %w", err)
	}
	return result, nil
}

// SaveBank inserts or replaces a bank account.
func (s *Store) SaveBank(ctx context.Context, b model.BankAccount) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO banks (id, company_id, name, account_number, agency) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, account_number = excluded.account_number, agency = excluded.agency`,
		b.ID, b.CompanyID, b.Name, b.AccountNumber, b.Agency)
	if err != nil {
		return fmt.Errorf("saving bank %s: %w", b.ID, err)
	}
	return nil
}

// SaveHierarchy upserts the hierarchy in one batch.
func (s *Store) SaveHierarchy(ctx context.Context, types []model.CommitmentType, groups []model.CommitmentGroup, commitments []model.Commitment) error {
	batch := &pgx.Batch{}
	for _, t := range types {
		batch.Queue(`INSERT INTO commitment_types (id, company_id, name, nature, position) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET name = excluded.name, nature = excluded.nature, position = excluded.position`,
			t.ID, t.CompanyID, t.Name, string(t.Nature), t.Position)
	}
	for _, g := range groups {
		batch.Queue(`INSERT INTO commitment_groups (id, company_id, commitment_type_id, name, team_cost) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET commitment_type_id = excluded.commitment_type_id, name = excluded.name, team_cost = excluded.team_cost`,
			g.ID, g.CompanyID, g.TypeID, g.Name, g.TeamCost)
	}
	for _, c := range commitments {
		batch.Queue(`INSERT INTO commitments (id, company_id, commitment_group_id, name) VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET commitment_group_id = excluded.commitment_group_id, name = excluded.name`,
			c.ID, c.CompanyID, c.GroupID, c.Name)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("saving hierarchy: %w", err)
		}
		return nil
	})
}

// InsertTransactions inserts rows, skipping FITIDs already present for the bank.
func (s *Store) InsertTransactions(ctx context.Context, txns []model.Transaction) ([]model.Transaction, error) {
	var inserted []model.Transaction
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, t := range txns {
			batch.Queue(`INSERT INTO transactions (id, company_id, bank_id, date, amount, direction, description, fitid)
				VALUES ($1, $2, $3, $4::date, $5::numeric, $6, $7, $8) ON CONFLICT DO NOTHING`,
				t.ID, t.CompanyID, t.BankID, store.FormatDate(t.Date), t.Amount.String(), string(t.Direction), t.Description, t.FITID)
		}
		br := tx.SendBatch(ctx, batch)
		for _, t := range txns {
			tag, err := br.Exec()
			if err != nil {
				br.Close()
				return fmt.Errorf("inserting transaction %s: %w", t.ID, err)
			}
			if tag.RowsAffected() > 0 {
				inserted = append(inserted, t)
			}
		}
		return br.Close()
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

// InsertClassifications inserts rows; already classified transactions are left alone.
func (s *Store) InsertClassifications(ctx context.Context, rows []model.TransactionClassification) error {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`INSERT INTO transaction_classifications
			(transaction_id, company_id, commitment_type_id, commitment_group_id, commitment_id)
			VALUES ($1, $2, nullif($3, ''), nullif($4, ''), nullif($5, '')) ON CONFLICT DO NOTHING`,
			r.TransactionID, r.CompanyID, r.TypeID, r.GroupID, r.CommitmentID)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting classifications: %w", err)
		}
		return nil
	})
}

// InsertFutureEntry inserts a new entry.
func (s *Store) InsertFutureEntry(ctx context.Context, f model.FutureEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO future_entries (id, company_id, due_date, amount, type, description, status, source, document_key,
		commitment_type_id, commitment_group_id, commitment_id, created_at, updated_at)
		VALUES ($1, $2, $3::date, $4::numeric, $5, $6, $7, $8, $9, nullif($10, ''), nullif($11, ''), nullif($12, ''), $13, $14)`,
		f.ID, f.CompanyID, store.FormatDate(f.DueDate), f.Amount.String(), string(f.Type), f.Description,
		string(f.Status), string(f.Source), f.DocumentKey,
		f.Classification.TypeID, f.Classification.GroupID, f.Classification.CommitmentID, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting future entry %s: %w", f.ID, err)
	}
	return nil
}

// UpdateFutureEntry replaces an existing entry.
func (s *Store) UpdateFutureEntry(ctx context.Context, f model.FutureEntry) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE future_entries SET due_date = $1::date, amount = $2::numeric, type = $3, description = $4, status = $5,
		commitment_type_id = nullif($6, ''), commitment_group_id = nullif($7, ''), commitment_id = nullif($8, ''), updated_at = $9
		WHERE company_id = $10 AND id::text = $11`,
		store.FormatDate(f.DueDate), f.Amount.String(), string(f.Type), f.Description, string(f.Status),
		f.Classification.TypeID, f.Classification.GroupID, f.Classification.CommitmentID, f.UpdatedAt, f.CompanyID, f.ID)
	if err != nil {
		return fmt.Errorf("updating future entry %s: %w", f.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("future entry %s: %w", f.ID, store.ErrNotFound)
	}
	return nil
}

// DeleteFutureEntry removes an entry.
func (s *Store) DeleteFutureEntry(ctx context.Context, companyID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM future_entries WHERE company_id = $1 AND id::text = $2`, companyID, id)
	if err != nil {
		return fmt.Errorf("deleting future entry %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("future entry %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// SaveDRELine inserts or replaces a DRE line.
func (s *Store) SaveDRELine(ctx context.Context, l model.DRELine) error {
	typeIDs := l.TypeIDs
	if typeIDs == nil {
		typeIDs = []string{}
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO dre_line_configurations (id, company_id, position, label, kind, commitment_type_ids)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET position = excluded.position, label = excluded.label,
		kind = excluded.kind, commitment_type_ids = excluded.commitment_type_ids`,
		l.ID, l.CompanyID, l.Position, l.Label, string(l.Kind), typeIDs)
	if err != nil {
		return fmt.Errorf("saving dre line %s: %w", l.ID, err)
	}
	return nil
}

// DeleteDRELine removes a DRE line.
func (s *Store) DeleteDRELine(ctx context.Context, companyID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM dre_line_configurations WHERE company_id = $1 AND id::text = $2`, companyID, id)
	if err != nil {
		return fmt.Errorf("deleting dre line %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("dre line %s: %w", id, store.ErrNotFound)
	}
	return nil
}
