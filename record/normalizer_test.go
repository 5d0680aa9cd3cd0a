package record

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridlab/fieldreport/workbook"
)

func testColumns() []Column {
	return []Column{
		{Name: "Depth", Type: TypeNumber},
		{Name: "Start Time", Type: TypeTime},
	}
}

func TestNormalizer_Normalize_CoercesDeclaredTypes(t *testing.T) {
	n := NewNormalizer("Step ID", testColumns())

	rows := []workbook.Row{
		{Index: 1, Cells: map[string]string{
			"Step ID":    "CAP_01",
			"Depth":      "3.50",
			"Start Time": "2025-02-14 10:30",
			"Operator":   "J. Chen",
		}},
	}

	records, diags, err := n.Normalize(rows)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Empty(t, diags)

	rec := records[0]
	assert.Equal(t, "CAP_01", rec.ID)
	assert.Equal(t, Number(3.5), rec.Field("Depth"))
	assert.Equal(t, KindTime, rec.Field("Start Time").Kind)
	assert.Equal(t, time.Date(2025, 2, 14, 10, 30, 0, 0, time.UTC), rec.Field("Start Time").Time)
	assert.Equal(t, Text("J. Chen"), rec.Field("Operator"))
}

func TestNormalizer_Normalize_SkipsRowsWithoutIdentifier(t *testing.T) {
	n := NewNormalizer("Step ID", nil)

	rows := []workbook.Row{
		{Index: 1, Cells: map[string]string{"Depth": "3.5"}},
		{Index: 2, Cells: map[string]string{"Step ID": "B"}},
	}

	records, diags, err := n.Normalize(rows)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "B", records[0].ID)

	require.Len(t, diags, 1)
	assert.Equal(t, DiagSkippedRow, diags[0].Kind)
	assert.Equal(t, 1, diags[0].SourceRow)
}

func TestNormalizer_Normalize_BadOptionalFieldBecomesMissing(t *testing.T) {
	n := NewNormalizer("Step ID", testColumns())

	rows := []workbook.Row{
		{Index: 1, Cells: map[string]string{
			"Step ID": "A",
			"Depth":   "N/A",
		}},
	}

	records, diags, err := n.Normalize(rows)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Field("Depth").IsMissing())

	require.Len(t, diags, 1)
	assert.Equal(t, DiagFieldCoercion, diags[0].Kind)
	assert.Equal(t, "A", diags[0].RecordID)
}

func TestNormalizer_Normalize_DuplicateIdentifierIsFatal(t *testing.T) {
	n := NewNormalizer("Step ID", nil)

	rows := []workbook.Row{
		{Index: 1, Cells: map[string]string{"Step ID": "A"}},
		{Index: 2, Cells: map[string]string{"Step ID": "B"}},
		{Index: 3, Cells: map[string]string{"Step ID": "A"}},
	}

	records, diags, err := n.Normalize(rows)
	assert.Nil(t, records)
	assert.Nil(t, diags)

	var dup *DuplicateIdentifierError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "A", dup.ID)
	assert.Equal(t, []int{1, 3}, dup.Rows)
}

func TestNormalizer_Normalize_FieldOrderFollowsSourceColumns(t *testing.T) {
	n := NewNormalizer("Step ID", nil)

	rows := []workbook.Row{
		{Index: 1,
			Cells:   map[string]string{"Step ID": "A", "Depth": "3.5", "Operator": "J. Chen"},
			Columns: []string{"Step ID", "Operator", "Depth"}},
	}

	records, _, err := n.Normalize(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"Step ID", "Operator", "Depth"}, records[0].FieldOrder)
}

func TestNormalizer_Normalize_NumberAcceptsThousandsSeparators(t *testing.T) {
	n := NewNormalizer("ID", []Column{{Name: "Power", Type: TypeNumber}})

	rows := []workbook.Row{
		{Index: 1, Cells: map[string]string{"ID": "A", "Power": "1,250.75"}},
	}

	records, _, err := n.Normalize(rows)
	require.NoError(t, err)
	assert.Equal(t, Number(1250.75), records[0].Field("Power"))
}
