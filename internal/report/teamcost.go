package report

import (
	"github.com/shopspring/decimal"

	"github.com/fluxo-dev/fluxo/internal/dre"
	"github.com/fluxo-dev/fluxo/internal/hierarchy"
	"github.com/fluxo-dev/fluxo/internal/model"
)

// TeamCostRow is one commitment under a team-cost group. Amounts are spend,
// so debits count positive.
type TeamCostRow struct {
	GroupID        string
	GroupName      string
	CommitmentID   string
	CommitmentName string
	Monthly        [12]decimal.Decimal
	Total          decimal.Decimal
	RevenueShare   decimal.Decimal // percent of the year's revenue
}

// TeamCostReport is personnel spend for a year.
type TeamCostReport struct {
	Year         int
	Rows         []TeamCostRow
	Monthly      [12]decimal.Decimal
	Total        decimal.Decimal
	Revenue      decimal.Decimal
	RevenueShare decimal.Decimal
}

// TeamCost sums spend under every group flagged as team cost and compares
// it with the year's revenue.
func TeamCost(year int, txns []model.Transaction, h *hierarchy.Service) TeamCostReport {
	tree := dre.Rollup(year, txns, h, dre.Options{})
	report := TeamCostReport{Year: year}

	for _, typ := range h.ByNature(model.NatureRevenue) {
		if n := tree.Type(typ.ID); n != nil {
			report.Revenue = report.Revenue.Add(n.Total)
		}
	}

	for _, typeNode := range tree.Types() {
		for _, groupNode := range typeNode.Children {
			g, ok := h.Group(groupNode.ID)
			if !ok || !g.TeamCost {
				continue
			}
			for _, leaf := range groupNode.Children {
				row := TeamCostRow{
					GroupID:        g.ID,
					GroupName:      g.Name,
					CommitmentID:   leaf.ID,
					CommitmentName: leaf.Name,
					Total:          leaf.Total.Neg(),
				}
				for m := range row.Monthly {
					row.Monthly[m] = leaf.Monthly[m].Neg()
					report.Monthly[m] = report.Monthly[m].Add(row.Monthly[m])
				}
				row.RevenueShare = percent(row.Total, report.Revenue)
				report.Total = report.Total.Add(row.Total)
				report.Rows = append(report.Rows, row)
			}
		}
	}
	report.RevenueShare = percent(report.Total, report.Revenue)
	return report
}
