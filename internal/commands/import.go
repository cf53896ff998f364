package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fluxo-dev/fluxo/internal/importer"
	"github.com/fluxo-dev/fluxo/internal/log"
)

func newImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import bank statements and invoices",
	}
	cmd.AddCommand(newImportOFXCommand(), newImportNFeCommand(), newImportScanCommand())
	return cmd
}

func newImportOFXCommand() *cobra.Command {
	var bankID string
	cmd := &cobra.Command{
		Use:   "ofx <file>",
		Short: "Import an OFX bank statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()
			return runImportFile(cmd.Context(), p, importer.FileInfo{Name: args[0], Path: args[0]}, "ofx", bankID)
		},
	}
	cmd.Flags().StringVar(&bankID, "bank", "", "bank account id (derived from the statement when empty)")
	return cmd
}

func newImportNFeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "nfe <file>",
		Short: "Import an NF-e XML as future entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()
			return runImportFile(cmd.Context(), p, importer.FileInfo{Name: args[0], Path: args[0]}, "xml", "")
		},
	}
}

func newImportScanCommand() *cobra.Command {
	var bankID string
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Import every file in import/ and move it to import/processed/",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(cmd)
			if err != nil {
				return err
			}
			defer p.Close()
			return runImportScan(cmd.Context(), p, bankID)
		},
	}
	cmd.Flags().StringVar(&bankID, "bank", "", "bank account id for every statement")
	return cmd
}

func (p *project) importer(ctx context.Context) (*importer.Service, error) {
	m, err := p.matcher(ctx)
	if err != nil {
		return nil, err
	}
	return importer.NewService(p.store, importer.Config{
		CompanyID: p.companyID(),
		TaxID:     p.cfg.Company.CNPJ,
		Matcher:   m,
		Notifier:  p.notifier,
		Audit:     p.audit,
	}, p.logger), nil
}

// runImportFile imports one file as the given kind ("ofx" or "xml").
func runImportFile(ctx context.Context, p *project, f importer.FileInfo, kind, bankID string) error {
	svc, err := p.importer(ctx)
	if err != nil {
		return err
	}

	fh, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", f.Path, err)
	}
	defer fh.Close()

	if kind == "xml" {
		res, err := svc.ImportInvoice(ctx, fh)
		if err != nil {
			return err
		}
		printInvoiceResult(f.Name, res)
		return nil
	}
	res, err := svc.ImportStatement(ctx, bankID, fh)
	if err != nil {
		return err
	}
	printStatementResult(f.Name, res)
	return nil
}

func runImportScan(ctx context.Context, p *project, bankID string) error {
	files, err := importer.Scan(p.root)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("Nothing to import.")
		return nil
	}
	svc, err := p.importer(ctx)
	if err != nil {
		return err
	}

	var failed int
	for _, f := range files {
		res, err := svc.ImportFile(ctx, f, bankID)
		if err != nil {
			failed++
			p.logger.ErrorContext(ctx, "import failed", log.FieldFile, f.Name, log.FieldError, err)
			fmt.Printf("%s: %v\n", f.Name, err)
			continue
		}
		switch r := res.(type) {
		case *importer.StatementResult:
			printStatementResult(f.Name, r)
		case *importer.InvoiceResult:
			printInvoiceResult(f.Name, r)
		}
		if err := importer.MarkProcessed(p.root, f.Name); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to import", failed, len(files))
	}
	return nil
}

func printStatementResult(name string, r *importer.StatementResult) {
	fmt.Printf("%s: bank %s, %d transactions, %d new, %d duplicates, %d classified\n",
		name, r.BankID, r.Parsed, r.Inserted, r.Duplicates, r.Classified)
}

func printInvoiceResult(name string, r *importer.InvoiceResult) {
	fmt.Printf("%s: NF-e %s, %d future entries, %d duplicates\n", name, r.Key, r.Entries, r.Duplicates)
}
