// Package record defines the canonical test-location record model and the
// normalizer that builds it from raw workbook rows.
package record

import (
	"strconv"
	"time"
)

// Kind identifies the type of a normalized field value.
type Kind int

const (
	// KindMissing marks a field that was absent or failed coercion.
	KindMissing Kind = iota
	// KindText is a passthrough text value.
	KindText
	// KindNumber is a parsed numeric value.
	KindNumber
	// KindTime is a parsed timestamp value.
	KindTime
)

// Value is one normalized field value.
type Value struct {
	Kind   Kind
	Text   string
	Number float64
	Time   time.Time
}

// Missing returns the sentinel missing value.
func Missing() Value {
	return Value{Kind: KindMissing}
}

// Text returns a text value.
func Text(s string) Value {
	return Value{Kind: KindText, Text: s}
}

// Number returns a numeric value.
func Number(f float64) Value {
	return Value{Kind: KindNumber, Number: f}
}

// Time returns a timestamp value.
func Time(t time.Time) Value {
	return Value{Kind: KindTime, Time: t}
}

// IsMissing reports whether the value is the missing sentinel.
func (v Value) IsMissing() bool {
	return v.Kind == KindMissing
}

// String renders the value without formatting policy. Rendering with
// precision and missing-token policy belongs to the section renderer.
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindTime:
		return v.Time.Format(time.RFC3339)
	default:
		return ""
	}
}

// Record is the canonical representation of one test-location row.
type Record struct {
	// ID is the record identifier, unique within a campaign.
	ID string

	// Fields maps field name to normalized value.
	Fields map[string]Value

	// FieldOrder preserves the source column order for stable rendering.
	FieldOrder []string

	// SourceRow is the 1-based source row index, kept for diagnostics.
	SourceRow int
}

// Field returns the named field value. Absent fields read as missing.
func (r *Record) Field(name string) Value {
	if v, ok := r.Fields[name]; ok {
		return v
	}
	return Missing()
}

// Has reports whether the record carries a non-missing value for the field.
func (r *Record) Has(name string) bool {
	v, ok := r.Fields[name]
	return ok && !v.IsMissing()
}
