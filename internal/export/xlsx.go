package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fluxo-dev/fluxo/internal/cashflow"
	"github.com/fluxo-dev/fluxo/internal/dre"
	"github.com/fluxo-dev/fluxo/internal/model"
)

// DRE sheet names.
const (
	DRESheet       = "DRE"
	StatementSheet = "Demonstrativo"
)

const maxSheetName = 31

// Built-in excelize number format "#,##0.00".
const numFmtAmount = 4

type workbook struct {
	f      *excelize.File
	header int
	amount int
	bold   int
	names  map[string]bool
	used   bool // the default sheet has been claimed
}

func newWorkbook() (*workbook, error) {
	f := excelize.NewFile()
	wb := &workbook{f: f, names: make(map[string]bool)}

	var err error
	if wb.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("creating header style: %w", err)
	}
	if wb.amount, err = f.NewStyle(&excelize.Style{NumFmt: numFmtAmount}); err != nil {
		f.Close()
		return nil, fmt.Errorf("creating amount style: %w", err)
	}
	if wb.bold, err = f.NewStyle(&excelize.Style{NumFmt: numFmtAmount, Font: &excelize.Font{Bold: true}}); err != nil {
		f.Close()
		return nil, fmt.Errorf("creating totals style: %w", err)
	}
	return wb, nil
}

// sheet adds a sheet, reusing the workbook's default first sheet, and
// returns the name actually used.
func (wb *workbook) sheet(name string) (string, error) {
	name = wb.uniqueName(sheetName(name))
	if !wb.used {
		wb.used = true
		if err := wb.f.SetSheetName(wb.f.GetSheetName(0), name); err != nil {
			return "", fmt.Errorf("renaming sheet %q: %w", name, err)
		}
		return name, nil
	}
	if _, err := wb.f.NewSheet(name); err != nil {
		return "", fmt.Errorf("adding sheet %q: %w", name, err)
	}
	return name, nil
}

func (wb *workbook) uniqueName(name string) string {
	candidate := name
	for i := 2; wb.names[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		r := []rune(name)
		if len(r)+len([]rune(suffix)) > maxSheetName {
			r = r[:maxSheetName-len([]rune(suffix))]
		}
		candidate = string(r) + suffix
	}
	wb.names[strings.ToLower(candidate)] = true
	return candidate
}

// row writes cells starting at column A of the given 1-based row.
func (wb *workbook) row(sheet string, row int, cells []any, style int) error {
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := wb.f.SetSheetRow(sheet, start, &cells); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	if style == 0 || len(cells) == 0 {
		return nil
	}
	first := 1
	if style != wb.header {
		first = 2 // leave the label column unformatted
	}
	from, _ := excelize.CoordinatesToCellName(first, row)
	to, _ := excelize.CoordinatesToCellName(len(cells), row)
	return wb.f.SetCellStyle(sheet, from, to, style)
}

func (wb *workbook) write(w io.Writer) error {
	wb.f.SetActiveSheet(0)
	if err := wb.f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// sheetName strips characters Excel rejects and truncates to 31 runes.
func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '-'
		}
		return r
	}, strings.TrimSpace(name))
	name = strings.Trim(name, "'")
	if name == "" {
		name = "Conta"
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	return name
}

// WriteCashFlowXLSX writes the combined series to a "Consolidado" sheet
// followed by one sheet per account, each with a header, one row per
// bucket and a totals row.
func WriteCashFlowXLSX(w io.Writer, r *cashflow.Report) error {
	wb, err := newWorkbook()
	if err != nil {
		return err
	}
	defer wb.f.Close()

	if err := wb.cashFlowSheet(ConsolidatedSheet, r.Combined); err != nil {
		return err
	}
	for _, s := range r.Accounts {
		name := s.AccountName
		if name == "" {
			name = s.AccountID
		}
		if err := wb.cashFlowSheet(name, s); err != nil {
			return err
		}
	}
	return wb.write(w)
}

func (wb *workbook) cashFlowSheet(name string, s cashflow.Series) error {
	sheet, err := wb.sheet(name)
	if err != nil {
		return err
	}
	if err := wb.row(sheet, 1, headerCells(CashFlowHeader), wb.header); err != nil {
		return err
	}
	rows := cashFlowRows(s)
	for i, r := range rows {
		style := wb.amount
		if i == len(rows)-1 {
			style = wb.bold
		}
		if err := wb.row(sheet, i+2, r.cells(), style); err != nil {
			return err
		}
	}
	return wb.f.SetColWidth(sheet, "A", "G", 16)
}

// WriteDREXLSX writes the rollup tree, indented by level, and the
// statement rows when given.
func WriteDREXLSX(w io.Writer, tree *dre.Tree, rows []dre.StatementRow) error {
	wb, err := newWorkbook()
	if err != nil {
		return err
	}
	defer wb.f.Close()

	header := dreHeader("conta")

	sheet, err := wb.sheet(DRESheet)
	if err != nil {
		return err
	}
	if err := wb.row(sheet, 1, header, wb.header); err != nil {
		return err
	}
	line := 2
	var werr error
	tree.Walk(func(n *dre.Node) {
		if werr != nil {
			return
		}
		style := wb.amount
		if n.Level == dre.LevelType {
			style = wb.bold
		}
		label := strings.Repeat("  ", int(n.Level)) + n.Name
		werr = wb.row(sheet, line, dreCells(label, n.Monthly, n.Total), style)
		line++
	})
	if werr != nil {
		return werr
	}
	if err := wb.row(sheet, line, dreCells(TotalLabel, tree.Monthly(), tree.Total()), wb.bold); err != nil {
		return err
	}
	if err := wb.f.SetColWidth(sheet, "A", "A", 36); err != nil {
		return err
	}

	if len(rows) > 0 {
		sheet, err := wb.sheet(StatementSheet)
		if err != nil {
			return err
		}
		if err := wb.row(sheet, 1, dreHeader("linha"), wb.header); err != nil {
			return err
		}
		for i, r := range rows {
			style := wb.amount
			if r.Kind == model.LineSubtotal {
				style = wb.bold
			}
			if err := wb.row(sheet, i+2, dreCells(r.Label, r.Monthly, r.Total), style); err != nil {
				return err
			}
		}
		if err := wb.f.SetColWidth(sheet, "A", "A", 36); err != nil {
			return err
		}
	}

	return wb.write(w)
}
