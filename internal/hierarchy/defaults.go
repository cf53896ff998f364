package hierarchy

import "github.com/fluxo-dev/fluxo/internal/model"

// Default returns the starter hierarchy written by `fluxo init`.
func Default() *Service {
	types := []model.CommitmentType{
		{ID: "receitas", Name: "Receitas", Nature: model.NatureRevenue, Position: 1},
		{ID: "custos-variaveis", Name: "Custos Variáveis", Nature: model.NatureVariableCost, Position: 2},
		{ID: "despesas-fixas", Name: "Despesas Fixas", Nature: model.NatureFixedCost, Position: 3},
		{ID: "investimentos", Name: "Investimentos", Nature: model.NatureInvestment, Position: 4},
	}
	groups := []model.CommitmentGroup{
		{ID: "vendas", TypeID: "receitas", Name: "Vendas"},
		{ID: "servicos", TypeID: "receitas", Name: "Serviços"},
		{ID: "impostos", TypeID: "custos-variaveis", Name: "Impostos sobre Vendas"},
		{ID: "insumos", TypeID: "custos-variaveis", Name: "Insumos"},
		{ID: "pessoal", TypeID: "despesas-fixas", Name: "Pessoal", TeamCost: true},
		{ID: "ocupacao", TypeID: "despesas-fixas", Name: "Ocupação"},
		{ID: "administrativo", TypeID: "despesas-fixas", Name: "Administrativo"},
		{ID: "equipamentos", TypeID: "investimentos", Name: "Equipamentos"},
	}
	commitments := []model.Commitment{
		{ID: "venda-produtos", GroupID: "vendas", Name: "Venda de Produtos"},
		{ID: "prestacao-servicos", GroupID: "servicos", Name: "Prestação de Serviços"},
		{ID: "simples-nacional", GroupID: "impostos", Name: "Simples Nacional"},
		{ID: "materia-prima", GroupID: "insumos", Name: "Matéria-prima"},
		{ID: "salarios", GroupID: "pessoal", Name: "Salários"},
		{ID: "pro-labore", GroupID: "pessoal", Name: "Pró-labore"},
		{ID: "encargos", GroupID: "pessoal", Name: "Encargos"},
		{ID: "aluguel", GroupID: "ocupacao", Name: "Aluguel"},
		{ID: "energia", GroupID: "ocupacao", Name: "Energia"},
		{ID: "tarifas-bancarias", GroupID: "administrativo", Name: "Tarifas Bancárias"},
		{ID: "software", GroupID: "administrativo", Name: "Software"},
		{ID: "maquinas", GroupID: "equipamentos", Name: "Máquinas"},
	}
	return NewService(types, groups, commitments)
}

// WithCompany returns copies of every level stamped with companyID, ready to insert.
func (s *Service) WithCompany(companyID string) ([]model.CommitmentType, []model.CommitmentGroup, []model.Commitment) {
	types := make([]model.CommitmentType, len(s.types))
	for i, t := range s.types {
		t.CompanyID = companyID
		types[i] = t
	}
	groups := make([]model.CommitmentGroup, len(s.groups))
	for i, g := range s.groups {
		g.CompanyID = companyID
		groups[i] = g
	}
	commitments := make([]model.Commitment, len(s.commitments))
	for i, c := range s.commitments {
		c.CompanyID = companyID
		commitments[i] = c
	}
	return types, groups, commitments
}
