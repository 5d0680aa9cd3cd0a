// Package outline groups canonical records into a deterministic document
// outline. It is a pure transform with no file-system access.
package outline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gridlab/fieldreport/record"
)

// Section is one outline entry: either a configured front-matter section
// with no record, or exactly one record section.
type Section struct {
	// ID is the section identifier: the record ID, or the front-matter
	// section name.
	ID string

	// Title is the human-readable section heading.
	Title string

	// Record is nil for front-matter sections.
	Record *record.Record

	FrontMatter bool
}

// Slug returns the file-safe directory name for the section.
func (s Section) Slug() string {
	return Slugify(s.ID)
}

// Outline is the ordered section sequence for one campaign document.
type Outline struct {
	Sections []Section
}

// RecordSections returns only the record-backed sections, in outline order.
func (o *Outline) RecordSections() []Section {
	var out []Section
	for _, s := range o.Sections {
		if !s.FrontMatter {
			out = append(out, s)
		}
	}
	return out
}

// ConfigurationError is fatal: the campaign configuration references an
// ordering field that no record carries.
type ConfigurationError struct {
	Field string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("ordering field %q does not exist on any record", e.Field)
}

// Builder produces outlines from record sets and campaign configuration.
type Builder struct {
	// OrderField is the record field used to order record sections.
	OrderField string

	// FrontMatter lists the fixed leading sections in configured order.
	FrontMatter []string
}

// NewBuilder creates an outline builder.
func NewBuilder(orderField string, frontMatter []string) *Builder {
	return &Builder{OrderField: orderField, FrontMatter: frontMatter}
}

// Build orders the records into an outline: front matter first in configured
// order, then one section per record sorted ascending by the ordering field,
// ties broken by identifier. The order is deterministic for a given input.
func (b *Builder) Build(records []record.Record) (*Outline, error) {
	if b.OrderField != "" && len(records) > 0 {
		found := false
		for i := range records {
			if _, ok := records[i].Fields[b.OrderField]; ok {
				found = true
				break
			}
		}
		if !found {
			return nil, &ConfigurationError{Field: b.OrderField}
		}
	}

	o := &Outline{}
	for _, name := range b.FrontMatter {
		o.Sections = append(o.Sections, Section{
			ID:          name,
			Title:       name,
			FrontMatter: true,
		})
	}

	ordered := make([]record.Record, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return b.less(&ordered[i], &ordered[j])
	})

	for i := range ordered {
		rec := &ordered[i]
		o.Sections = append(o.Sections, Section{
			ID:     rec.ID,
			Title:  rec.ID,
			Record: rec,
		})
	}
	return o, nil
}

// less orders two records by the ordering field, identifier as tie-break.
// Records missing the ordering field sort after all records that have it.
func (b *Builder) less(a, c *record.Record) bool {
	if b.OrderField != "" {
		av, ah := a.Fields[b.OrderField]
		cv, ch := c.Fields[b.OrderField]
		ah = ah && !av.IsMissing()
		ch = ch && !cv.IsMissing()
		switch {
		case ah && !ch:
			return true
		case !ah && ch:
			return false
		case ah && ch:
			if cmp := compareValues(av, cv); cmp != 0 {
				return cmp < 0
			}
		}
	}
	return a.ID < c.ID
}

// compareValues compares ordering-key values: numerically when both are
// numeric, by time when both are timestamps, else lexicographically.
func compareValues(a, b record.Value) int {
	if a.Kind == record.KindNumber && b.Kind == record.KindNumber {
		switch {
		case a.Number < b.Number:
			return -1
		case a.Number > b.Number:
			return 1
		default:
			return 0
		}
	}
	if a.Kind == record.KindTime && b.Kind == record.KindTime {
		switch {
		case a.Time.Before(b.Time):
			return -1
		case a.Time.After(b.Time):
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a.String(), b.String())
}

// Slugify converts a section identifier to a file-safe name.
func Slugify(name string) string {
	var sb strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
