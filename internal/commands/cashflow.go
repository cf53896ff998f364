package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fluxo-dev/fluxo/internal/cashflow"
	"github.com/fluxo-dev/fluxo/internal/dashboard"
	"github.com/fluxo-dev/fluxo/internal/export"
	"github.com/fluxo-dev/fluxo/internal/period"
	"github.com/fluxo-dev/fluxo/internal/store"
)

type exportFlags struct {
	xlsx  string
	csv   string
	sheet string
}

func (f *exportFlags) register(cmd *cobra.Command, withCSV bool) {
	cmd.Flags().StringVar(&f.xlsx, "xlsx", "", "write an XLSX workbook to this path")
	if withCSV {
		cmd.Flags().StringVar(&f.csv, "csv", "", "write a CSV file to this path")
	}
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "push to this sheet of the configured Google spreadsheet")
}

func newCashFlowCommand() *cobra.Command {
	var (
		months  []string
		days    string
		banks   []string
		daily   bool
		exports exportFlags
	)

	cmd := &cobra.Command{
		Use:   "cashflow",
		Short: "Show daily cash flow per account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ms, err := monthsFlag(months)
			if err != nil {
				return err
			}
			r, err := period.ParseDayRange(days)
			if err != nil {
				return err
			}
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()
			return runCashFlow(cmd.Context(), p, dashboard.CashFlowQuery{Months: ms, Days: r, BankIDs: banks}, daily, exports)
		},
	}

	cmd.Flags().StringSliceVar(&months, "month", nil, "month as YYYY-MM (repeatable; default current month)")
	cmd.Flags().StringVar(&days, "days", "", "day-of-month range, e.g. 10-20")
	cmd.Flags().StringSliceVar(&banks, "bank", nil, "restrict to bank account ids (use \"manual\" for future entries)")
	cmd.Flags().BoolVar(&daily, "daily", false, "print every day of the combined view")
	exports.register(cmd, true)

	return cmd
}

func runCashFlow(ctx context.Context, p *project, q dashboard.CashFlowQuery, daily bool, exports exportFlags) error {
	report, err := p.dashboard().CashFlow(ctx, q)
	if err != nil {
		return err
	}

	printCashFlow(report, daily)

	if exports.xlsx != "" {
		if err := writeFile(exports.xlsx, func(f *os.File) error { return export.WriteCashFlowXLSX(f, report) }); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", exports.xlsx)
	}
	if exports.csv != "" {
		series := append(append([]cashflow.Series(nil), report.Accounts...), report.Combined)
		if err := writeFile(exports.csv, func(f *os.File) error { return export.WriteCashFlowCSV(f, series) }); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", exports.csv)
	}
	if exports.sheet != "" {
		exp, err := export.NewSheetsExporter(ctx, p.cfg.Export.CredentialsFile, p.logger)
		if err != nil {
			return err
		}
		if err := exp.PushCashFlow(ctx, p.cfg.Export.SpreadsheetID, exports.sheet, report.Combined); err != nil {
			return err
		}
		fmt.Printf("Updated sheet %s\n", exports.sheet)
	}
	return nil
}

func printCashFlow(r *cashflow.Report, daily bool) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Conta\tSaldo inicial\tEntradas\tSaídas\tPrevisto (+)\tPrevisto (-)\tSaldo final\t")
	row := func(label string, s cashflow.Series) {
		t := s.Totals()
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n", label,
			s.Opening().StringFixed(2), t.HistoricalIn.StringFixed(2), t.HistoricalOut.StringFixed(2),
			t.ProjectedIn.StringFixed(2), t.ProjectedOut.StringFixed(2), s.Closing().StringFixed(2))
	}
	for _, s := range r.Accounts {
		row(s.AccountName, s)
	}
	row(export.TotalLabel, r.Combined)
	w.Flush()

	if !daily {
		return
	}
	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Data\tSaldo inicial\tEntradas\tSaídas\tPrevisto (+)\tPrevisto (-)\tSaldo final\t")
	for _, b := range r.Combined.Buckets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n", store.FormatDate(b.Date),
			b.Opening.StringFixed(2), b.HistoricalIn.StringFixed(2), b.HistoricalOut.StringFixed(2),
			b.ProjectedIn.StringFixed(2), b.ProjectedOut.StringFixed(2), b.Closing.StringFixed(2))
	}
	w.Flush()
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
