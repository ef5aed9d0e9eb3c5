// Package google mirrors the ledger into a Google Sheets tab.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

var _ ports.RecordExporter = (*Client)(nil)

// Config selects the target spreadsheet and credentials. CredentialsJSON wins
// over CredentialsFile.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewClient builds a Sheets client. Extra options replace the service
// account credentials from cfg, which is how tests point it at a fake server.
func NewClient(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Expenses"
	}

	if len(opts) == 0 {
		creds, err := loadCredentials(cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets client initialized",
		"spreadsheet_id", spreadsheetID,
		"sheet", sheetName)

	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

func loadCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// Export implements ports.RecordExporter. The tab is cleared and rewritten so
// it always matches the ledger, header row included.
func (c *Client) Export(ctx context.Context, records []core.Record) error {
	columns := fmt.Sprintf("%s!A:%c", quoteSheet(c.sheetName), 'A'+len(header)-1)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, columns, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}

	rows := toRows(records)
	vr := &gsheet.ValueRange{Values: rows}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, quoteSheet(c.sheetName)+"!A1", vr).
		ValueInputOption("RAW").
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}

	slog.InfoContext(ctx, "Records exported to Google Sheets",
		"sheet", c.sheetName,
		"count", len(records))
	return nil
}

var header = []interface{}{"Date", "Amount", "Category", "Notes"}

// toRows lays out records like the CSV export. Amounts stay strings so the
// sheet never rounds them.
func toRows(records []core.Record) [][]interface{} {
	rows := make([][]interface{}, 0, len(records)+1)
	rows = append(rows, header)
	for _, r := range records {
		rows = append(rows, []interface{}{r.Date, r.Amount.String(), r.Category.String(), r.Notes})
	}
	return rows
}

// quoteSheet wraps names that A1 notation cannot take bare.
func quoteSheet(name string) string {
	if strings.ContainsAny(name, " '!:") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}
