package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/fluxo-dev/fluxo/internal/export"
	"github.com/fluxo-dev/fluxo/internal/report"
)

func newIndicatorsCommand() *cobra.Command {
	var months []string
	cmd := &cobra.Command{
		Use:   "indicators",
		Short: "Show revenue, expenses, margins and pending entries for the selected months",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ms, err := monthsFlag(months)
			if err != nil {
				return err
			}
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			set, err := p.dashboard().Indicators(cmd.Context(), ms)
			if err != nil {
				return err
			}
			printIndicators(set)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&months, "month", nil, "month as YYYY-MM (repeatable; default current month)")
	return cmd
}

func printIndicators(set report.IndicatorSet) {
	keys := make([]string, len(set.Months))
	for i, m := range set.Months {
		keys[i] = m.String()
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Período\t%s\n", strings.Join(keys, ", "))
	fmt.Fprintf(w, "Receitas\t%s\n", set.Revenue.StringFixed(2))
	fmt.Fprintf(w, "Despesas\t%s\n", set.Expenses.StringFixed(2))
	fmt.Fprintf(w, "Resultado\t%s\n", set.NetResult.StringFixed(2))
	fmt.Fprintf(w, "Margem líquida\t%s%%\n", set.NetMargin.StringFixed(2))
	fmt.Fprintf(w, "A receber\t%s\t(%d vencidos)\n", set.ProjectedReceivables.StringFixed(2), set.OverdueReceivables)
	fmt.Fprintf(w, "A pagar\t%s\t(%d vencidos)\n", set.ProjectedPayables.StringFixed(2), set.OverduePayables)
	fmt.Fprintf(w, "Resultado projetado\t%s\n", set.ProjectedResult.StringFixed(2))
	fmt.Fprintf(w, "Transações\t%d\t(%d sem classificação)\n", set.Transactions, set.Unclassified)
	w.Flush()
}

func newMarginsCommand() *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "margins",
		Short: "Show contribution and operating margins per month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			m, err := p.dashboard().Margins(cmd.Context(), yearFlag(year))
			if err != nil {
				return err
			}
			printMargins(m)
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year (default current year)")
	return cmd
}

func printMargins(m report.MarginReport) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Mês\tReceita\tCusto variável\tMargem contrib.\t%\tCusto fixo\tResultado oper.\t%\tInvestimentos\t")
	row := func(label string, r report.MarginRow) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n", label,
			r.Revenue.StringFixed(2), r.VariableCosts.StringFixed(2), r.ContributionMargin.StringFixed(2),
			r.ContributionPct.StringFixed(2), r.FixedCosts.StringFixed(2), r.OperatingResult.StringFixed(2),
			r.OperatingPct.StringFixed(2), r.Investments.StringFixed(2))
	}
	for i, r := range m.Months {
		row(export.MonthLabels[i], r)
	}
	row(export.TotalLabel, m.Total)
	w.Flush()
}

func newTeamCostCommand() *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "teamcost",
		Short: "Show personnel spend and its share of revenue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			r, err := p.dashboard().TeamCost(cmd.Context(), yearFlag(year))
			if err != nil {
				return err
			}
			printTeamCost(r)
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year (default current year)")
	return cmd
}

func printTeamCost(r report.TeamCostReport) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, monthHeader(fmt.Sprintf("Equipe %d", r.Year))+"% receita\t")
	for _, row := range r.Rows {
		fmt.Fprintln(w, monthCells(row.GroupName+" / "+row.CommitmentName, row.Monthly, row.Total)+percent(row.RevenueShare))
	}
	fmt.Fprintln(w, monthCells(export.TotalLabel, r.Monthly, r.Total)+percent(r.RevenueShare))
	w.Flush()
	fmt.Printf("Receita do ano: %s\n", r.Revenue.StringFixed(2))
}

func percent(d decimal.Decimal) string {
	return d.StringFixed(2) + "%\t"
}
