package reports

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// XLSXNotifier writes each report to a workbook with one sheet per section
type XLSXNotifier struct {
	dir string
	log zerolog.Logger
}

// NewXLSXNotifier creates a workbook exporter writing into dir
func NewXLSXNotifier(dir string, log zerolog.Logger) *XLSXNotifier {
	return &XLSXNotifier{
		dir: dir,
		log: log.With().Str("notifier", "xlsx").Logger(),
	}
}

func (n *XLSXNotifier) Name() string { return "xlsx" }

// Path returns the workbook path for a report
func (n *XLSXNotifier) Path(r *Report) string {
	return filepath.Join(n.dir, fmt.Sprintf("%s-%s.xlsx", r.Kind, r.SessionDate))
}

// Notify writes the workbook, replacing any earlier export for the same session
func (n *XLSXNotifier) Notify(ctx context.Context, r *Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(n.dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range r.Sections {
		name := sheetName(s.Heading, i)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}

		if err := writeRow(f, name, 1, s.Columns); err != nil {
			return err
		}
		for j, row := range s.Rows {
			if err := writeRow(f, name, j+2, row); err != nil {
				return err
			}
		}
	}

	path := n.Path(r)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	n.log.Info().Str("report_id", r.ID).Str("path", path).Msg("Report exported")
	return nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", rowNum, sheet, err)
	}
	return nil
}

// sheetName makes a heading safe for Excel's 31 character sheet names
func sheetName(heading string, index int) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, heading)
	if name == "" {
		name = fmt.Sprintf("Section %d", index+1)
	}
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}
