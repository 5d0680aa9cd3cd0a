package workbook

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSX reads rows from one sheet of an Excel workbook. The first non-empty
// row of the sheet is the header; every later row becomes a Row keyed by the
// header names.
type XLSX struct {
	// Path is the workbook file path.
	Path string

	// Sheet is the sheet name to read. Empty means the first sheet.
	Sheet string

	logger *slog.Logger
}

// NewXLSX creates a reader for one sheet of a workbook file.
func NewXLSX(path, sheet string, logger *slog.Logger) *XLSX {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSX{Path: path, Sheet: sheet, logger: logger}
}

// Read loads the sheet and converts it to the raw row sequence.
func (x *XLSX) Read(ctx context.Context) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(x.Path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", x.Path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			x.logger.Warn("Failed to close workbook", slog.String("path", x.Path), slog.String("error", cerr.Error()))
		}
	}()

	sheet := x.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("sheet %q: %w", sheet, ErrEmptySheet)
	}

	header, body := splitHeader(raw)
	if len(header) == 0 {
		return nil, fmt.Errorf("sheet %q: %w", sheet, ErrEmptySheet)
	}

	rows := make([]Row, 0, len(body))
	for i, cells := range body {
		row := Row{Index: i + 1, Cells: make(map[string]string)}
		for col, name := range header {
			if name == "" || col >= len(cells) {
				continue
			}
			value := strings.TrimSpace(cells[col])
			if value == "" {
				continue
			}
			row.Cells[name] = value
			row.Columns = append(row.Columns, name)
		}
		if len(row.Cells) > 0 {
			rows = append(rows, row)
		}
	}

	x.logger.Debug("Read workbook",
		slog.String("path", x.Path),
		slog.String("sheet", sheet),
		slog.Int("rows", len(rows)))
	return rows, nil
}

// splitHeader returns the trimmed header names from the first non-empty row
// and the remaining body rows.
func splitHeader(raw [][]string) ([]string, [][]string) {
	for i, cells := range raw {
		header := make([]string, len(cells))
		empty := true
		for j, c := range cells {
			header[j] = strings.TrimSpace(c)
			if header[j] != "" {
				empty = false
			}
		}
		if !empty {
			return header, raw[i+1:]
		}
	}
	return nil, nil
}
