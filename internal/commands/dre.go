package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/fluxo-dev/fluxo/internal/dashboard"
	"github.com/fluxo-dev/fluxo/internal/dre"
	"github.com/fluxo-dev/fluxo/internal/export"
	"github.com/fluxo-dev/fluxo/internal/log"
	"github.com/fluxo-dev/fluxo/internal/model"
	"github.com/fluxo-dev/fluxo/internal/refresh"
)

func newDRECommand() *cobra.Command {
	var (
		year      int
		all       bool
		statement bool
		exports   exportFlags
	)

	cmd := &cobra.Command{
		Use:   "dre",
		Short: "Show the income statement (DRE) for a year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()
			return runDRE(cmd.Context(), p, dashboard.DREQuery{Year: yearFlag(year), IncludeEmpty: all}, statement, exports)
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "year (default current year)")
	cmd.Flags().BoolVar(&all, "all", false, "include hierarchy nodes without amounts")
	cmd.Flags().BoolVar(&statement, "statement", false, "show the configured DRE lines instead of the tree")
	exports.register(cmd, false)

	cmd.AddCommand(newDRELinesCommand())
	return cmd
}

func runDRE(ctx context.Context, p *project, q dashboard.DREQuery, statement bool, exports exportFlags) error {
	svc := p.dashboard()
	tree, err := svc.DRE(ctx, q)
	if err != nil {
		return err
	}
	rows, err := svc.Statement(ctx, q.Year)
	if err != nil {
		return err
	}

	if statement {
		printStatement(rows)
	} else {
		printTree(tree)
	}

	if exports.xlsx != "" {
		if err := writeFile(exports.xlsx, func(f *os.File) error { return export.WriteDREXLSX(f, tree, rows) }); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", exports.xlsx)
	}
	if exports.sheet != "" {
		exp, err := export.NewSheetsExporter(ctx, p.cfg.Export.CredentialsFile, p.logger)
		if err != nil {
			return err
		}
		if err := exp.PushStatement(ctx, p.cfg.Export.SpreadsheetID, exports.sheet, rows); err != nil {
			return err
		}
		fmt.Printf("Updated sheet %s\n", exports.sheet)
	}
	return nil
}

func monthHeader(first string) string {
	return first + "\t" + strings.Join(export.MonthLabels[:], "\t") + "\t" + export.TotalLabel + "\t"
}

func monthCells(label string, monthly [12]decimal.Decimal, total decimal.Decimal) string {
	var b strings.Builder
	b.WriteString(label)
	for _, v := range monthly {
		b.WriteString("\t" + v.StringFixed(2))
	}
	b.WriteString("\t" + total.StringFixed(2) + "\t")
	return b.String()
}

func printTree(tree *dre.Tree) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, monthHeader(fmt.Sprintf("DRE %d", tree.Year)))
	tree.Walk(func(n *dre.Node) {
		fmt.Fprintln(w, monthCells(strings.Repeat("  ", int(n.Level))+n.Name, n.Monthly, n.Total))
	})
	fmt.Fprintln(w, monthCells(export.TotalLabel, tree.Monthly(), tree.Total()))
	w.Flush()
}

func printStatement(rows []dre.StatementRow) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, monthHeader("Linha"))
	for _, r := range rows {
		fmt.Fprintln(w, monthCells(r.Label, r.Monthly, r.Total))
	}
	w.Flush()
}

func newDRELinesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lines",
		Short: "Manage DRE line configuration",
	}
	cmd.AddCommand(newDRELinesListCommand(), newDRELinesAddCommand(), newDRELinesDeleteCommand())
	return cmd
}

func newDRELinesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured DRE lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			lines, err := p.store.DRELines(cmd.Context(), p.companyID())
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				fmt.Println("No DRE lines configured; the statement uses one line per commitment type.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "POS\tID\tKIND\tLABEL\tTYPES")
			for _, l := range lines {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", l.Position, l.ID, l.Kind, l.Label, strings.Join(l.TypeIDs, ","))
			}
			return w.Flush()
		},
	}
}

func newDRELinesAddCommand() *cobra.Command {
	var (
		label    string
		kind     string
		types    []string
		position int
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a DRE line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()
			return runDRELinesAdd(cmd.Context(), p, label, model.LineKind(kind), types, position)
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "line label (required)")
	_ = cmd.MarkFlagRequired("label")
	cmd.Flags().StringVar(&kind, "kind", string(model.LineSum), "sum or subtotal")
	cmd.Flags().StringSliceVar(&types, "type", nil, "commitment type ids summed by the line (repeatable)")
	cmd.Flags().IntVar(&position, "position", 0, "position (default after the last line)")
	return cmd
}

func runDRELinesAdd(ctx context.Context, p *project, label string, kind model.LineKind, types []string, position int) error {
	if kind != model.LineSum && kind != model.LineSubtotal {
		return fmt.Errorf("invalid kind %q: must be %s or %s", kind, model.LineSum, model.LineSubtotal)
	}
	if kind == model.LineSum && len(types) == 0 {
		return fmt.Errorf("a sum line needs at least one --type")
	}

	h, err := p.hierarchy(ctx)
	if err != nil {
		return err
	}
	for _, id := range types {
		if _, ok := h.Type(id); !ok && id != dre.UnclassifiedID {
			return fmt.Errorf("unknown commitment type %q", id)
		}
	}

	if position == 0 {
		lines, err := p.store.DRELines(ctx, p.companyID())
		if err != nil {
			return err
		}
		for _, l := range lines {
			position = max(position, l.Position)
		}
		position++
	}

	line := model.DRELine{
		ID:        uuid.NewString(),
		CompanyID: p.companyID(),
		Position:  position,
		Label:     strings.TrimSpace(label),
		Kind:      kind,
		TypeIDs:   types,
	}
	if err := p.store.SaveDRELine(ctx, line); err != nil {
		return fmt.Errorf("saving DRE line: %w", err)
	}
	p.notifier.Changed(ctx, p.companyID(), refresh.TableDRELines, log.OpCreate)
	fmt.Printf("Added DRE line %s at position %d\n", line.ID, line.Position)
	return nil
}

func newDRELinesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a DRE line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			if err := p.store.DeleteDRELine(cmd.Context(), p.companyID(), args[0]); err != nil {
				return err
			}
			p.notifier.Changed(cmd.Context(), p.companyID(), refresh.TableDRELines, log.OpDelete)
			fmt.Printf("Deleted DRE line %s\n", args[0])
			return nil
		},
	}
}
