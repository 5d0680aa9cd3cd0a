package workbook

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is a rectangular slice of an auxiliary worksheet, used for
// pre-computed per-section summary tables.
type Table struct {
	Headers []string
	Rows    [][]string
}

// LoadTable reads an auxiliary summary worksheet into a rectangular table.
// Short rows are padded so every row has one cell per header; empty cells
// stay empty for the renderer's missing-value policy to fill.
func LoadTable(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open summary workbook %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read summary sheet %q: %w", sheet, err)
	}

	header, body := splitHeader(raw)
	if len(header) == 0 {
		return nil, fmt.Errorf("summary sheet %q: %w", sheet, ErrEmptySheet)
	}

	t := &Table{Headers: header}
	for _, cells := range body {
		row := make([]string, len(header))
		for i := range header {
			if i < len(cells) {
				row[i] = strings.TrimSpace(cells[i])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
