// Package storetest holds behavior checks every store.Store backend must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxo-dev/fluxo/internal/model"
	"github.com/fluxo-dev/fluxo/internal/store"
)

const company = "c-1"

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Run exercises a backend. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("Banks", func(t *testing.T) { testBanks(t, newStore(t)) })
	t.Run("Transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
	t.Run("Classifications", func(t *testing.T) { testClassifications(t, newStore(t)) })
	t.Run("FutureEntries", func(t *testing.T) { testFutureEntries(t, newStore(t)) })
	t.Run("Hierarchy", func(t *testing.T) { testHierarchy(t, newStore(t)) })
	t.Run("DRELines", func(t *testing.T) { testDRELines(t, newStore(t)) })
}

func seedBanks(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.SaveBank(ctx, model.BankAccount{ID: "itau", CompanyID: company, Name: "Itaú", AccountNumber: "1234-5"}))
	require.NoError(t, s.SaveBank(ctx, model.BankAccount{ID: "bb", CompanyID: company, Name: "Banco do Brasil"}))
	require.NoError(t, s.SaveBank(ctx, model.BankAccount{ID: "other", CompanyID: "c-2", Name: "Outra"}))
}

func testBanks(t *testing.T, s store.Store) {
	ctx := context.Background()
	seedBanks(t, s)

	banks, err := s.Banks(ctx, company)
	require.NoError(t, err)
	require.Len(t, banks, 2)
	assert.Equal(t, "Banco do Brasil", banks[0].Name)
	assert.Equal(t, "1234-5", banks[1].AccountNumber)

	require.NoError(t, s.SaveBank(ctx, model.BankAccount{ID: "bb", CompanyID: company, Name: "BB"}))
	banks, err = s.Banks(ctx, company)
	require.NoError(t, err)
	assert.Equal(t, "BB", banks[0].Name)
}

func testTransactions(t *testing.T, s store.Store) {
	ctx := context.Background()
	seedBanks(t, s)

	txns := []model.Transaction{
		{ID: "t1", CompanyID: company, BankID: "itau", Date: date(2025, 1, 5), Amount: dec("100.00"), Direction: model.DirectionCredit, Description: "PIX RECEBIDO", FITID: "F1"},
		{ID: "t2", CompanyID: company, BankID: "itau", Date: date(2025, 1, 20), Amount: dec("30.50"), Direction: model.DirectionDebit, Description: "TARIFA", FITID: "F2"},
		{ID: "t3", CompanyID: company, BankID: "bb", Date: date(2025, 2, 1), Amount: dec("10"), Direction: model.DirectionDebit, Description: "DOC", FITID: "F1"},
	}
	inserted, err := s.InsertTransactions(ctx, txns)
	require.NoError(t, err)
	assert.Len(t, inserted, 3, "same FITID on another bank is not a duplicate")

	dup := model.Transaction{ID: "t4", CompanyID: company, BankID: "itau", Date: date(2025, 1, 5), Amount: dec("100"), Direction: model.DirectionCredit, FITID: "F1"}
	inserted, err = s.InsertTransactions(ctx, []model.Transaction{dup})
	require.NoError(t, err)
	assert.Empty(t, inserted)

	all, err := s.Transactions(ctx, store.TransactionFilter{CompanyID: company})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "t1", all[0].ID)
	assert.True(t, dec("30.5").Equal(all[1].Amount))
	assert.Equal(t, model.DirectionDebit, all[1].Direction)
	assert.Equal(t, date(2025, 1, 20), all[1].Date)

	jan, err := s.Transactions(ctx, store.TransactionFilter{CompanyID: company, From: date(2025, 1, 1), To: date(2025, 2, 1)})
	require.NoError(t, err)
	assert.Len(t, jan, 2)

	bb, err := s.Transactions(ctx, store.TransactionFilter{CompanyID: company, BankIDs: []string{"bb"}})
	require.NoError(t, err)
	require.Len(t, bb, 1)
	assert.Equal(t, "t3", bb[0].ID)

	none, err := s.Transactions(ctx, store.TransactionFilter{CompanyID: "c-2"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testClassifications(t *testing.T, s store.Store) {
	ctx := context.Background()
	seedBanks(t, s)
	_, err := s.InsertTransactions(ctx, []model.Transaction{
		{ID: "t1", CompanyID: company, BankID: "itau", Date: date(2025, 1, 5), Amount: dec("1"), Direction: model.DirectionCredit},
		{ID: "t2", CompanyID: company, BankID: "itau", Date: date(2025, 1, 6), Amount: dec("1"), Direction: model.DirectionCredit},
	})
	require.NoError(t, err)

	require.NoError(t, s.InsertClassifications(ctx, []model.TransactionClassification{
		{TransactionID: "t1", CompanyID: company, TypeID: "rec", GroupID: "vendas", CommitmentID: "loja"},
	}))
	// Classified transactions are immutable.
	require.NoError(t, s.InsertClassifications(ctx, []model.TransactionClassification{
		{TransactionID: "t1", CompanyID: company, TypeID: "x", GroupID: "y", CommitmentID: "z"},
	}))

	rows, err := s.Classifications(ctx, company, []string{"t1", "t2", "missing"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "loja", rows[0].CommitmentID)

	rows, err = s.Classifications(ctx, "c-2", []string{"t1"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func testFutureEntries(t *testing.T, s store.Store) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	e := model.FutureEntry{
		ID: "f1", CompanyID: company, DueDate: date(2025, 3, 10), Amount: dec("250.00"),
		Type: model.EntryPayable, Description: "Aluguel", Status: model.StatusPending, Source: model.SourceManual,
		Classification: model.Classification{CommitmentID: "aluguel"},
		CreatedAt:      now, UpdatedAt: now,
	}
	require.NoError(t, s.InsertFutureEntry(ctx, e))
	require.NoError(t, s.InsertFutureEntry(ctx, model.FutureEntry{
		ID: "f2", CompanyID: company, DueDate: date(2025, 4, 1), Amount: dec("80"), Type: model.EntryReceivable,
		Status: model.StatusSettled, Source: model.SourceManual, CreatedAt: now, UpdatedAt: now,
	}))

	got, err := s.FutureEntry(ctx, company, "f1")
	require.NoError(t, err)
	assert.Equal(t, e.DueDate, got.DueDate)
	assert.True(t, e.Amount.Equal(got.Amount))
	assert.Equal(t, model.EntryPayable, got.Type)
	assert.Equal(t, "aluguel", got.Classification.CommitmentID)
	assert.True(t, now.Equal(got.CreatedAt))

	march, err := s.FutureEntries(ctx, store.FutureEntryFilter{CompanyID: company, From: date(2025, 3, 1), To: date(2025, 4, 1)})
	require.NoError(t, err)
	require.Len(t, march, 1)

	pending, err := s.FutureEntries(ctx, store.FutureEntryFilter{CompanyID: company, Statuses: []model.EntryStatus{model.StatusPending}})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "f1", pending[0].ID)

	got.Amount = dec("260")
	got.Description = "Aluguel reajustado"
	require.NoError(t, s.UpdateFutureEntry(ctx, got))
	got, err = s.FutureEntry(ctx, company, "f1")
	require.NoError(t, err)
	assert.Equal(t, "Aluguel reajustado", got.Description)
	assert.True(t, dec("260").Equal(got.Amount))

	err = s.UpdateFutureEntry(ctx, model.FutureEntry{ID: "nope", CompanyID: company, Type: model.EntryPayable})
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.DeleteFutureEntry(ctx, company, "f1"))
	_, err = s.FutureEntry(ctx, company, "f1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteFutureEntry(ctx, company, "f1"), store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteFutureEntry(ctx, "c-2", "f2"), store.ErrNotFound)
}

func testHierarchy(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.SaveHierarchy(ctx,
		[]model.CommitmentType{
			{ID: "desp", CompanyID: company, Name: "Despesas", Nature: model.NatureFixedCost, Position: 2},
			{ID: "rec", CompanyID: company, Name: "Receitas", Nature: model.NatureRevenue, Position: 1},
		},
		[]model.CommitmentGroup{{ID: "pessoal", CompanyID: company, TypeID: "desp", Name: "Pessoal", TeamCost: true}},
		[]model.Commitment{{ID: "salarios", CompanyID: company, GroupID: "pessoal", Name: "Salários"}},
	))

	types, err := s.CommitmentTypes(ctx, company)
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, "rec", types[0].ID)
	assert.Equal(t, model.NatureFixedCost, types[1].Nature)

	groups, err := s.CommitmentGroups(ctx, company)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.True(t, groups[0].TeamCost)
	assert.Equal(t, "desp", groups[0].TypeID)

	commitments, err := s.Commitments(ctx, company)
	require.NoError(t, err)
	require.Len(t, commitments, 1)
	assert.Equal(t, "pessoal", commitments[0].GroupID)
}

func testDRELines(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.SaveDRELine(ctx, model.DRELine{ID: "l2", CompanyID: company, Position: 2, Label: "Resultado", Kind: model.LineSubtotal}))
	require.NoError(t, s.SaveDRELine(ctx, model.DRELine{ID: "l1", CompanyID: company, Position: 1, Label: "Receita", Kind: model.LineSum, TypeIDs: []string{"rec", "outras"}}))

	lines, err := s.DRELines(ctx, company)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "l1", lines[0].ID)
	assert.Equal(t, []string{"rec", "outras"}, lines[0].TypeIDs)
	assert.Empty(t, lines[1].TypeIDs)

	require.NoError(t, s.SaveDRELine(ctx, model.DRELine{ID: "l1", CompanyID: company, Position: 3, Label: "Receita Bruta", Kind: model.LineSum}))
	lines, err = s.DRELines(ctx, company)
	require.NoError(t, err)
	assert.Equal(t, "l2", lines[0].ID)
	assert.Equal(t, "Receita Bruta", lines[1].Label)

	require.NoError(t, s.DeleteDRELine(ctx, company, "l2"))
	assert.ErrorIs(t, s.DeleteDRELine(ctx, company, "l2"), store.ErrNotFound)
}
