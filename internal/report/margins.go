package report

import (
	"github.com/shopspring/decimal"

	"github.com/fluxo-dev/fluxo/internal/dre"
	"github.com/fluxo-dev/fluxo/internal/hierarchy"
	"github.com/fluxo-dev/fluxo/internal/model"
)

// MarginRow is the margin breakdown for one month, or the year when Month is 0.
// Costs are positive magnitudes.
type MarginRow struct {
	Month              int
	Revenue            decimal.Decimal
	VariableCosts      decimal.Decimal
	ContributionMargin decimal.Decimal
	ContributionPct    decimal.Decimal
	FixedCosts         decimal.Decimal
	OperatingResult    decimal.Decimal
	OperatingPct       decimal.Decimal
	Investments        decimal.Decimal
}

// MarginReport holds twelve monthly rows and the yearly total.
type MarginReport struct {
	Year   int
	Months [12]MarginRow
	Total  MarginRow
}

// Margins groups a rollup's type nodes by nature and derives contribution
// and operating margins.
func Margins(tree *dre.Tree, h *hierarchy.Service) MarginReport {
	var signed [4][13]decimal.Decimal // nature x (12 months + year)
	natureIndex := map[model.Nature]int{
		model.NatureRevenue:      0,
		model.NatureVariableCost: 1,
		model.NatureFixedCost:    2,
		model.NatureInvestment:   3,
	}

	for _, n := range tree.Types() {
		typ, ok := h.Type(n.ID)
		if !ok {
			continue
		}
		idx, ok := natureIndex[typ.Nature]
		if !ok {
			continue
		}
		for m := 0; m < 12; m++ {
			signed[idx][m] = signed[idx][m].Add(n.Monthly[m])
		}
		signed[idx][12] = signed[idx][12].Add(n.Total)
	}

	report := MarginReport{Year: tree.Year}
	for m := 0; m < 13; m++ {
		row := MarginRow{
			Revenue:       signed[0][m],
			VariableCosts: signed[1][m].Neg(),
			FixedCosts:    signed[2][m].Neg(),
			Investments:   signed[3][m].Neg(),
		}
		row.ContributionMargin = row.Revenue.Sub(row.VariableCosts)
		row.ContributionPct = percent(row.ContributionMargin, row.Revenue)
		row.OperatingResult = row.ContributionMargin.Sub(row.FixedCosts)
		row.OperatingPct = percent(row.OperatingResult, row.Revenue)
		if m == 12 {
			report.Total = row
			continue
		}
		row.Month = m + 1
		report.Months[m] = row
	}
	return report
}
