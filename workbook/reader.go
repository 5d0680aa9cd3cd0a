// Package workbook reads raw campaign rows from tabular source files.
package workbook

import "context"

// Row is one raw row from a tabular source. Cells maps column name to the
// raw cell text; columns whose cell is empty are absent from the map, which
// is the explicit "empty" marker consumed by the normalizer.
type Row struct {
	// Index is the 1-based row number in the source sheet, header excluded.
	Index int

	Cells map[string]string

	// Columns lists the column names present in Cells, in source header
	// order.
	Columns []string
}

// Get returns the raw cell text for a column and whether the cell was present.
func (r Row) Get(column string) (string, bool) {
	v, ok := r.Cells[column]
	return v, ok
}

// Reader yields the raw row sequence for a campaign. A read error is fatal
// for the run: a malformed source file is never a partial-failure case.
type Reader interface {
	Read(ctx context.Context) ([]Row, error)
}
