package dre

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxo-dev/fluxo/internal/hierarchy"
	"github.com/fluxo-dev/fluxo/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func txn(id string, t time.Time, dir model.Direction, amount, commitment string) model.Transaction {
	return model.Transaction{
		ID:             id,
		Date:           t,
		Amount:         dec(amount),
		Direction:      dir,
		Classification: model.Classification{CommitmentID: commitment},
	}
}

func sampleTxns() []model.Transaction {
	return []model.Transaction{
		txn("t1", date(2025, 1, 5), model.DirectionCredit, "1000", "venda-produtos"),
		txn("t2", date(2025, 1, 10), model.DirectionDebit, "300", "aluguel"),
		txn("t3", date(2025, 2, 10), model.DirectionDebit, "300", "aluguel"),
		txn("t4", date(2025, 3, 1), model.DirectionDebit, "45.50", ""),
		txn("t5", date(2025, 3, 2), model.DirectionCredit, "12.25", ""),
		txn("t6", date(2024, 12, 31), model.DirectionCredit, "999", "venda-produtos"),
		txn("t7", time.Time{}, model.DirectionCredit, "999", "venda-produtos"),
	}
}

func TestRollup(t *testing.T) {
	tree := Rollup(2025, sampleTxns(), hierarchy.Default(), Options{})

	types := tree.Types()
	require.Len(t, types, 3)
	assert.Equal(t, "receitas", types[0].ID)
	assert.Equal(t, "despesas-fixas", types[1].ID)
	assert.Equal(t, UnclassifiedID, types[2].ID)

	receitas := tree.Type("receitas")
	assert.Equal(t, "1000", receitas.Monthly[0].String())
	assert.Equal(t, "1000", receitas.Total.String())

	aluguel := tree.Type("despesas-fixas").Child("ocupacao").Child("aluguel")
	require.NotNil(t, aluguel)
	assert.Equal(t, "Aluguel", aluguel.Name)
	assert.Equal(t, LevelCommitment, aluguel.Level)
	assert.Equal(t, "-300", aluguel.Monthly[0].String())
	assert.Equal(t, "-300", aluguel.Monthly[1].String())
	assert.Equal(t, "-600", aluguel.Total.String())

	unclassified := tree.Type(UnclassifiedID)
	assert.Equal(t, DefaultUnclassifiedLabel, unclassified.Name)
	leaf := unclassified.Child(UnclassifiedID).Child(UnclassifiedID)
	require.NotNil(t, leaf)
	assert.Equal(t, "-33.25", leaf.Total.String())
}

func TestRollupConservesTotal(t *testing.T) {
	txns := sampleTxns()
	tree := Rollup(2025, txns, hierarchy.Default(), Options{})

	for m := 0; m < 12; m++ {
		want := decimal.Zero
		for _, tx := range txns {
			if tx.Date.Year() == 2025 && int(tx.Date.Month())-1 == m {
				want = want.Add(tx.Signed())
			}
		}
		got := decimal.Zero
		for _, leaf := range tree.Leaves() {
			got = got.Add(leaf.Monthly[m])
		}
		assert.True(t, want.Equal(got), "month %d: leaves %s, transactions %s", m+1, got, want)
		assert.True(t, want.Equal(tree.Monthly()[m]))
	}
	assert.Equal(t, "366.75", tree.Total().String())
}

func TestRollupPartialClassification(t *testing.T) {
	txns := []model.Transaction{{
		ID:             "t1",
		Date:           date(2025, 4, 1),
		Amount:         dec("10"),
		Direction:      model.DirectionDebit,
		Classification: model.Classification{GroupID: "pessoal"},
	}}
	tree := Rollup(2025, txns, hierarchy.Default(), Options{UnclassifiedLabel: "Sem categoria"})

	g := tree.Type("despesas-fixas").Child("pessoal")
	require.NotNil(t, g)
	leaf := g.Child(UnclassifiedID)
	require.NotNil(t, leaf)
	assert.Equal(t, "Sem categoria", leaf.Name)
	assert.Equal(t, "-10", leaf.Monthly[3].String())
}

func TestRollupUnknownIDsKeepTheirID(t *testing.T) {
	txns := []model.Transaction{txn("t1", date(2025, 1, 1), model.DirectionCredit, "5", "")}
	txns[0].Classification = model.Classification{TypeID: "x", GroupID: "y", CommitmentID: "z"}

	tree := Rollup(2025, txns, nil, Options{})
	n := tree.Type("x").Child("y").Child("z")
	require.NotNil(t, n)
	assert.Equal(t, "z", n.Name)
}

func TestRollupIncludeEmpty(t *testing.T) {
	h := hierarchy.Default()
	tree := Rollup(2025, nil, h, Options{IncludeEmpty: true})

	require.Len(t, tree.Types(), len(h.Types()))
	assert.Len(t, tree.Leaves(), len(h.Commitments()))
	assert.True(t, tree.Total().IsZero())
}

func TestStatement(t *testing.T) {
	tree := Rollup(2025, sampleTxns(), hierarchy.Default(), Options{})

	rows := Statement(tree, []model.DRELine{
		{Position: 3, Label: "Resultado", Kind: model.LineSubtotal},
		{Position: 1, Label: "Receita", Kind: model.LineSum, TypeIDs: []string{"receitas"}},
		{Position: 2, Label: "Despesas", Kind: model.LineSum, TypeIDs: []string{"despesas-fixas", "custos-variaveis"}},
		{Position: 4, Label: "Não classificado", Kind: model.LineSum, TypeIDs: []string{UnclassifiedID}},
		{Position: 5, Label: "Final", Kind: model.LineSubtotal},
	})

	require.Len(t, rows, 5)
	assert.Equal(t, "Receita", rows[0].Label)
	assert.Equal(t, "1000", rows[0].Total.String())
	assert.Equal(t, "-600", rows[1].Total.String())
	assert.Equal(t, "400", rows[2].Total.String())
	assert.Equal(t, "700", rows[2].Monthly[0].String())
	assert.Equal(t, "-33.25", rows[3].Total.String())
	assert.Equal(t, "366.75", rows[4].Total.String())
}

func TestDefaultLines(t *testing.T) {
	h := hierarchy.Default()
	lines := DefaultLines(h, "")

	require.Len(t, lines, len(h.Types())+2)
	last := lines[len(lines)-1]
	assert.Equal(t, ResultLabel, last.Label)
	assert.Equal(t, model.LineSubtotal, last.Kind)
	assert.Equal(t, DefaultUnclassifiedLabel, lines[len(lines)-2].Label)
	for i, l := range lines {
		assert.Equal(t, i+1, l.Position)
	}

	tree := Rollup(2025, sampleTxns(), h, Options{})
	rows := Statement(tree, lines)
	assert.True(t, tree.Total().Equal(rows[len(rows)-1].Total))
}
