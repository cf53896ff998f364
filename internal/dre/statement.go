package dre

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/fluxo-dev/fluxo/internal/hierarchy"
	"github.com/fluxo-dev/fluxo/internal/model"
)

// ResultLabel is the closing subtotal of the default statement.
const ResultLabel = "Resultado do Exercício"

// StatementRow is one rendered DRE line.
type StatementRow struct {
	Label   string
	Kind    model.LineKind
	Monthly [12]decimal.Decimal
	Total   decimal.Decimal
}

// Statement evaluates the configured lines against a rollup. Sum lines add
// the type nodes they list; subtotal lines show the running total of every
// sum line before them.
func Statement(tree *Tree, lines []model.DRELine) []StatementRow {
	ordered := append([]model.DRELine(nil), lines...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	var running StatementRow
	rows := make([]StatementRow, 0, len(ordered))
	for _, l := range ordered {
		row := StatementRow{Label: l.Label, Kind: l.Kind}
		switch l.Kind {
		case model.LineSubtotal:
			row.Monthly, row.Total = running.Monthly, running.Total
		default:
			for _, id := range l.TypeIDs {
				n := tree.Type(id)
				if n == nil {
					continue
				}
				for m := range row.Monthly {
					row.Monthly[m] = row.Monthly[m].Add(n.Monthly[m])
				}
				row.Total = row.Total.Add(n.Total)
			}
			for m := range running.Monthly {
				running.Monthly[m] = running.Monthly[m].Add(row.Monthly[m])
			}
			running.Total = running.Total.Add(row.Total)
		}
		rows = append(rows, row)
	}
	return rows
}

// DefaultLines is the statement used when a company has none configured:
// one sum line per commitment type, one for unclassified amounts, then the
// result.
func DefaultLines(h *hierarchy.Service, unclassifiedLabel string) []model.DRELine {
	if unclassifiedLabel == "" {
		unclassifiedLabel = DefaultUnclassifiedLabel
	}
	var lines []model.DRELine
	for _, t := range h.Types() {
		lines = append(lines, model.DRELine{
			ID:       "default-" + t.ID,
			Position: len(lines) + 1,
			Label:    t.Name,
			Kind:     model.LineSum,
			TypeIDs:  []string{t.ID},
		})
	}
	lines = append(lines,
		model.DRELine{
			ID:       "default-" + UnclassifiedID,
			Position: len(lines) + 1,
			Label:    unclassifiedLabel,
			Kind:     model.LineSum,
			TypeIDs:  []string{UnclassifiedID},
		},
		model.DRELine{
			ID:       "default-resultado",
			Position: len(lines) + 2,
			Label:    ResultLabel,
			Kind:     model.LineSubtotal,
		},
	)
	return lines
}
