package reports

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsNotifier appends report rows to a Google spreadsheet
type SheetsNotifier struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	log           zerolog.Logger
}

// NewSheetsNotifier creates a Sheets notifier. Production callers pass
// option.WithCredentialsFile; tests point the client at a local server.
func NewSheetsNotifier(ctx context.Context, spreadsheetID, sheetName string, log zerolog.Logger, opts ...option.ClientOption) (*SheetsNotifier, error) {
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	if sheetName == "" {
		sheetName = "index"
	}

	return &SheetsNotifier{
		service:       service,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		log:           log.With().Str("notifier", "sheets").Logger(),
	}, nil
}

func (n *SheetsNotifier) Name() string { return "sheets" }

// Notify appends one row per section row, keyed by session date and section heading
func (n *SheetsNotifier) Notify(ctx context.Context, r *Report) error {
	values := SheetRows(r)
	if len(values) == 0 {
		return nil
	}

	_, err := n.service.Spreadsheets.Values.
		Append(n.spreadsheetID, n.sheetName+"!A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append to sheet %s: %w", n.sheetName, err)
	}

	n.log.Info().Str("report_id", r.ID).Int("rows", len(values)).Msg("Report appended")
	return nil
}

// SheetRows flattens a report into spreadsheet rows
func SheetRows(r *Report) [][]interface{} {
	var values [][]interface{}
	for _, s := range r.Sections {
		for _, row := range s.Rows {
			line := make([]interface{}, 0, len(row)+2)
			line = append(line, r.SessionDate, s.Heading)
			for _, cell := range row {
				line = append(line, cell)
			}
			values = append(values, line)
		}
	}
	return values
}
