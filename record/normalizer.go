package record

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gridlab/fieldreport/workbook"
)

// FieldType declares how a column is coerced during normalization.
type FieldType string

// Supported column types.
const (
	TypeText   FieldType = "text"
	TypeNumber FieldType = "number"
	TypeTime   FieldType = "time"
)

// Column declares one typed column of the campaign sheet. Columns not
// declared are coerced as text.
type Column struct {
	Name string
	Type FieldType

	// Layout is the time layout for TypeTime columns. Empty selects the
	// built-in layout set.
	Layout string
}

// timeLayouts are tried in order for TypeTime columns without a layout.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006-01-02",
}

// Normalizer converts raw workbook rows into the canonical record set.
// It is a pure transform: diagnostics are returned, never printed.
type Normalizer struct {
	// IDField is the required identifier column.
	IDField string

	// Columns are the declared typed columns.
	Columns []Column
}

// NewNormalizer creates a normalizer for the given identifier column and
// typed column declarations.
func NewNormalizer(idField string, columns []Column) *Normalizer {
	return &Normalizer{IDField: idField, Columns: columns}
}

// Normalize validates and coerces the raw rows.
//
// Rows without an identifier are skipped and reported as diagnostics, never
// fatal. A coercion failure on a non-identifier field keeps the field as
// missing and records a diagnostic. Duplicate identifiers are a hard error:
// they return a DuplicateIdentifierError and no record set.
func (n *Normalizer) Normalize(rows []workbook.Row) ([]Record, []Diagnostic, error) {
	types := make(map[string]Column, len(n.Columns))
	for _, c := range n.Columns {
		types[c.Name] = c
	}

	var (
		records []Record
		diags   []Diagnostic
		seen    = make(map[string][]int)
	)

	for _, row := range rows {
		id, ok := row.Get(n.IDField)
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			diags = append(diags, Diagnostic{
				Kind:      DiagSkippedRow,
				SourceRow: row.Index,
				Message:   fmt.Sprintf("missing identifier field %q", n.IDField),
			})
			continue
		}
		seen[id] = append(seen[id], row.Index)

		rec := Record{
			ID:        id,
			Fields:    make(map[string]Value, len(row.Cells)),
			SourceRow: row.Index,
		}
		for _, name := range columnOrder(row) {
			raw := row.Cells[name]
			value, err := coerce(raw, types[name])
			if err != nil {
				diags = append(diags, Diagnostic{
					Kind:      DiagFieldCoercion,
					RecordID:  id,
					SourceRow: row.Index,
					Message:   fmt.Sprintf("field %q: %v", name, err),
				})
				value = Missing()
			}
			rec.Fields[name] = value
			rec.FieldOrder = append(rec.FieldOrder, name)
		}
		records = append(records, rec)
	}

	for id, at := range seen {
		if len(at) > 1 {
			sort.Ints(at)
			return nil, nil, &DuplicateIdentifierError{ID: id, Rows: at}
		}
	}
	return records, diags, nil
}

// columnOrder returns the row's column names in source header order,
// falling back to a sorted order for rows built without one.
func columnOrder(row workbook.Row) []string {
	if len(row.Columns) > 0 {
		return row.Columns
	}
	names := make([]string, 0, len(row.Cells))
	for name := range row.Cells {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func coerce(raw string, col Column) (Value, error) {
	switch col.Type {
	case TypeNumber:
		cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return Missing(), fmt.Errorf("parse number %q", raw)
		}
		return Number(f), nil
	case TypeTime:
		layouts := timeLayouts
		if col.Layout != "" {
			layouts = []string{col.Layout}
		}
		for _, layout := range layouts {
			if t, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
				return Time(t), nil
			}
		}
		return Missing(), fmt.Errorf("parse time %q", raw)
	default:
		return Text(raw), nil
	}
}
