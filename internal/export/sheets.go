package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/fluxo-dev/fluxo/internal/cashflow"
	"github.com/fluxo-dev/fluxo/internal/dre"
	"github.com/fluxo-dev/fluxo/internal/log"
)

// ValuesClient is the slice of the Sheets API the exporter needs.
type ValuesClient interface {
	Clear(ctx context.Context, spreadsheetID, rng string) error
	Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error
}

// SheetsExporter pushes reports into a Google spreadsheet, replacing the
// target sheet's contents.
type SheetsExporter struct {
	client ValuesClient
	logger *log.Logger
}

// NewSheetsExporter authenticates with a service-account JSON file.
func NewSheetsExporter(ctx context.Context, credentialsFile string, logger *log.Logger) (*SheetsExporter, error) {
	if strings.TrimSpace(credentialsFile) == "" {
		return nil, errors.New("missing service account credentials (set export.credentials_file or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	svc, err := gsheet.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewSheetsExporterWithClient(&apiClient{svc: svc}, logger), nil
}

// NewSheetsExporterWithClient wraps an existing client.
func NewSheetsExporterWithClient(c ValuesClient, logger *log.Logger) *SheetsExporter {
	if logger == nil {
		logger = log.Discard()
	}
	return &SheetsExporter{client: c, logger: logger.WithComponent(log.ComponentExport)}
}

// PushCashFlow writes one series to sheet, header first.
func (e *SheetsExporter) PushCashFlow(ctx context.Context, spreadsheetID, sheet string, s cashflow.Series) error {
	values := [][]any{headerCells(CashFlowHeader)}
	for _, r := range cashFlowRows(s) {
		values = append(values, r.cells())
	}
	return e.push(ctx, spreadsheetID, sheet, values)
}

// PushStatement writes DRE statement rows to sheet.
func (e *SheetsExporter) PushStatement(ctx context.Context, spreadsheetID, sheet string, rows []dre.StatementRow) error {
	values := [][]any{dreHeader("linha")}
	for _, r := range rows {
		values = append(values, dreCells(r.Label, r.Monthly, r.Total))
	}
	return e.push(ctx, spreadsheetID, sheet, values)
}

func (e *SheetsExporter) push(ctx context.Context, spreadsheetID, sheet string, values [][]any) error {
	if spreadsheetID == "" {
		return errors.New("spreadsheet id is required")
	}
	rng := sheetRange(sheet)
	if err := e.client.Clear(ctx, spreadsheetID, rng); err != nil {
		return fmt.Errorf("clearing %s: %w", rng, err)
	}
	if err := e.client.Update(ctx, spreadsheetID, rng, values); err != nil {
		return fmt.Errorf("updating %s: %w", rng, err)
	}
	e.logger.InfoContext(ctx, "sheet updated",
		log.FieldOperation, log.OpExport,
		"spreadsheet_id", spreadsheetID,
		"sheet", sheet,
		log.FieldCount, len(values)-1,
	)
	return nil
}

// sheetRange addresses a whole sheet in A1 notation, quoting the name.
func sheetRange(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}

type apiClient struct {
	svc *gsheet.Service
}

func (c *apiClient) Clear(ctx context.Context, spreadsheetID, rng string) error {
	_, err := c.svc.Spreadsheets.Values.Clear(spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).
		Do()
	return err
}

func (c *apiClient) Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error {
	vr := &gsheet.ValueRange{Values: values}
	_, err := c.svc.Spreadsheets.Values.Update(spreadsheetID, rng+"!A1", vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}
