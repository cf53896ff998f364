package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxo-dev/fluxo/internal/hierarchy"
	"github.com/fluxo-dev/fluxo/internal/model"
	"github.com/fluxo-dev/fluxo/internal/store/memory"
)

func TestMatchFirstRuleWins(t *testing.T) {
	m := NewMatcher([]Rule{
		{Contains: "Uber", GroupID: "groupA"},
		{Contains: "Uber Eats", GroupID: "groupB"},
	}, nil)

	r, ok := m.Match("Uber Eats 123")
	require.True(t, ok)
	assert.Equal(t, "groupA", r.GroupID)
}

func TestMatch(t *testing.T) {
	m := NewMatcher([]Rule{
		{Contains: "", GroupID: "empty"},
		{Contains: "aluguel", CommitmentID: "aluguel"},
		{Contains: "TARIFA BANCÁRIA", CommitmentID: "tarifas"},
		{Contains: "  pix recebido ", GroupID: "vendas"},
	}, nil)

	tests := []struct {
		desc string
		want string
		ok   bool
	}{
		{"PGTO ALUGUEL MARCO", "aluguel", true},
		{"tarifa bancária pacote", "tarifas", true},
		{"PIX RECEBIDO JOAO", "vendas", true},
		{"COMPRA CARTAO", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			r, ok := m.Match(tt.desc)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, r.CommitmentID+r.GroupID)
		})
	}
}

func TestMatchComposedAndDecomposed(t *testing.T) {
	m := NewMatcher([]Rule{{Contains: "manutenção", CommitmentID: "manutencao"}}, nil)
	// "ção" written with combining cedilla and tilde
	_, ok := m.Match("MANUTENÇÃO PREDIAL")
	assert.True(t, ok)
}

func TestClassify(t *testing.T) {
	h := hierarchy.Default()
	m := NewMatcher([]Rule{{Contains: "aluguel", CommitmentID: "aluguel"}}, h)

	txns := []model.Transaction{
		{ID: "t1", CompanyID: "c1", Description: "ALUGUEL SALA"},
		{ID: "t2", CompanyID: "c1", Description: "OUTRA COISA"},
		{ID: "t3", CompanyID: "c1", Description: "ALUGUEL JA CLASSIFICADO", Classification: model.Classification{GroupID: "x"}},
	}

	rows := m.Classify(txns)
	require.Len(t, rows, 1)
	assert.Equal(t, "t1", rows[0].TransactionID)
	assert.Equal(t, "c1", rows[0].CompanyID)
	assert.Equal(t, "aluguel", rows[0].CommitmentID)
	assert.Equal(t, "ocupacao", rows[0].GroupID)
	assert.Equal(t, "despesas-fixas", rows[0].TypeID)
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	m := NewMatcher([]Rule{{Contains: "pix", GroupID: "vendas"}}, nil)

	n, err := Apply(ctx, s, m, []model.Transaction{
		{ID: "t1", CompanyID: "c1", Description: "PIX 1"},
		{ID: "t2", CompanyID: "c1", Description: "TED 2"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := s.Classifications(ctx, "c1", []string{"t1", "t2"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "vendas", rows[0].GroupID)

	n, err = Apply(ctx, s, m, []model.Transaction{{ID: "t3", Description: "nada"}}, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRulesRoundTrip(t *testing.T) {
	root := t.TempDir()

	rules, err := LoadRules(root)
	require.NoError(t, err)
	assert.Empty(t, rules)

	want := []Rule{
		{Contains: "Uber", GroupID: "transporte"},
		{Contains: "Aluguel", TypeID: "despesas-fixas", GroupID: "ocupacao", CommitmentID: "aluguel"},
	}
	require.NoError(t, SaveRules(root, want))

	got, err := LoadRules(root)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
