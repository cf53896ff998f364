package hierarchy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxo-dev/fluxo/internal/model"
)

func TestNewServiceOrdersTypesByPosition(t *testing.T) {
	svc := NewService([]model.CommitmentType{
		{ID: "b", Name: "Despesas", Position: 2},
		{ID: "a", Name: "Receitas", Position: 1},
	}, nil, nil)

	types := svc.Types()
	require.Len(t, types, 2)
	assert.Equal(t, "a", types[0].ID)
	assert.Equal(t, "b", types[1].ID)
}

func TestLookups(t *testing.T) {
	svc := Default()

	typ, ok := svc.Type("receitas")
	assert.True(t, ok)
	assert.Equal(t, "Receitas", typ.Name)

	g, ok := svc.Group("pessoal")
	assert.True(t, ok)
	assert.True(t, g.TeamCost)

	c, ok := svc.Commitment("aluguel")
	assert.True(t, ok)
	assert.Equal(t, "ocupacao", c.GroupID)

	_, ok = svc.Commitment("nope")
	assert.False(t, ok)

	assert.Len(t, svc.GroupsOf("despesas-fixas"), 3)
	assert.Len(t, svc.CommitmentsOf("pessoal"), 3)
	assert.Len(t, svc.ByNature(model.NatureRevenue), 1)
}

func TestResolve(t *testing.T) {
	svc := Default()

	tests := []struct {
		name string
		in   model.Classification
		want model.Classification
	}{
		{
			name: "commitment only derives parents",
			in:   model.Classification{CommitmentID: "aluguel"},
			want: model.Classification{
				TypeID: "despesas-fixas", TypeName: "Despesas Fixas",
				GroupID: "ocupacao", GroupName: "Ocupação",
				CommitmentID: "aluguel", CommitmentName: "Aluguel",
			},
		},
		{
			name: "group only",
			in:   model.Classification{GroupID: "vendas"},
			want: model.Classification{TypeID: "receitas", TypeName: "Receitas", GroupID: "vendas", GroupName: "Vendas"},
		},
		{
			name: "unknown ids keep ids without names",
			in:   model.Classification{CommitmentID: "ghost"},
			want: model.Classification{CommitmentID: "ghost"},
		},
		{
			name: "zero stays zero",
			in:   model.Classification{},
			want: model.Classification{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.Resolve(tt.in))
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	svc := Default()
	dir := t.TempDir()
	require.NoError(t, svc.Save(dir))

	_, err := os.Stat(filepath.Join(dir, "hierarchy", "commitments.csv"))
	require.NoError(t, err)

	got, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, svc.Types(), got.Types())
	assert.ElementsMatch(t, svc.Groups(), got.Groups())
	assert.ElementsMatch(t, svc.Commitments(), got.Commitments())
}

func TestWithCompany(t *testing.T) {
	types, groups, commitments := Default().WithCompany("c-1")
	for _, typ := range types {
		assert.Equal(t, "c-1", typ.CompanyID)
	}
	for _, g := range groups {
		assert.Equal(t, "c-1", g.CompanyID)
	}
	for _, c := range commitments {
		assert.Equal(t, "c-1", c.CompanyID)
	}
	// The source service is untouched.
	assert.Empty(t, Default().Types()[0].CompanyID)
}
