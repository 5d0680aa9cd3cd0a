package figure

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gridlab/fieldreport/record"
)

// defaultExtensions are tried in order when a category declares none.
var defaultExtensions = []string{"png", "jpg", "jpeg", "pdf"}

// Category declares one named class of figure expected per record.
type Category struct {
	// Name is the category name, e.g. "overlay" or "plot".
	Name string

	// Dir is the directory holding this category's files.
	Dir string

	// Pattern is the expected file name without extension. The tokens
	// {identifier} and {category} are expanded per record. For sweep
	// categories it is a doublestar glob matched against the directory
	// listing, extension included.
	Pattern string

	// Sweep matches every file under Dir against Pattern instead of
	// probing a single expected name. Used for plot collections.
	Sweep bool

	// Extensions are the candidate file extensions for non-sweep lookups.
	Extensions []string

	// OptOutField names a record field that disables this category for a
	// record when its text value is "no" (case-insensitive).
	OptOutField string
}

// expand substitutes the record tokens into the category pattern.
func (c Category) expand(id string) string {
	pattern := c.Pattern
	if pattern == "" {
		pattern = "{identifier}_{category}"
	}
	pattern = strings.ReplaceAll(pattern, "{identifier}", id)
	return strings.ReplaceAll(pattern, "{category}", c.Name)
}

func (c Category) extensions() []string {
	if len(c.Extensions) > 0 {
		return c.Extensions
	}
	return defaultExtensions
}

// Ref is one resolved figure slot for a section.
type Ref struct {
	// Category is the figure category name.
	Category string

	// Path is the full path of the resolved file, or of the configured
	// placeholder image when Placeholder is set.
	Path string

	// File is the base file name, used in captions.
	File string

	Placeholder bool
}

// Set holds the resolved figure slots for one record in category order.
// Missing figures with no configured placeholder have no entry; the
// diagnostic is the only trace they leave.
type Set struct {
	Refs []Ref
}

// ByCategory returns the refs for one category, in resolution order.
func (s Set) ByCategory(name string) []Ref {
	var out []Ref
	for _, r := range s.Refs {
		if r.Category == name {
			out = append(out, r)
		}
	}
	return out
}

// AmbiguousError reports multiple near-match candidates for one slot with
// no exact-case match to prefer. It surfaces as a per-record warning, never
// as a run-aborting error.
type AmbiguousError struct {
	RecordID string
	Category string
	Matches  []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("record %s, category %s: %d near-match candidates: %s",
		e.RecordID, e.Category, len(e.Matches), strings.Join(e.Matches, ", "))
}

// Resolver maps records to their expected figure files. Lookups are
// read-only and safe to run concurrently across sections.
type Resolver struct {
	categories  []Category
	placeholder string
	store       Store
	logger      *slog.Logger
}

// NewResolver creates a resolver over the given figure store. placeholder
// is the image substituted for missing figures; empty means the slot is
// omitted instead.
func NewResolver(categories []Category, placeholder string, store Store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		categories:  categories,
		placeholder: placeholder,
		store:       store,
		logger:      logger,
	}
}

// Resolve computes the figure set for one record. Missing and ambiguous
// figures degrade to the placeholder policy and record exactly one
// diagnostic per record/category pair.
func (r *Resolver) Resolve(rec *record.Record) (Set, []record.Diagnostic) {
	var (
		set   Set
		diags []record.Diagnostic
	)

	for _, cat := range r.categories {
		if cat.OptOutField != "" {
			v := rec.Field(cat.OptOutField)
			if v.Kind == record.KindText && strings.EqualFold(strings.TrimSpace(v.Text), "no") {
				continue
			}
		}

		refs, err := r.resolveCategory(rec.ID, cat)
		if err != nil {
			diags = append(diags, record.Diagnostic{
				Kind:     record.DiagAmbiguousFigure,
				RecordID: rec.ID,
				Category: cat.Name,
				Message:  err.Error(),
			})
			set.Refs = append(set.Refs, r.fallback(cat)...)
			continue
		}
		if len(refs) == 0 {
			diags = append(diags, record.Diagnostic{
				Kind:     record.DiagMissingFigure,
				RecordID: rec.ID,
				Category: cat.Name,
				Message:  fmt.Sprintf("no file matching %q under %s", cat.expand(rec.ID), cat.Dir),
			})
			set.Refs = append(set.Refs, r.fallback(cat)...)
			continue
		}
		set.Refs = append(set.Refs, refs...)
	}
	return set, diags
}

// fallback returns the placeholder ref, or nothing when no placeholder is
// configured.
func (r *Resolver) fallback(cat Category) []Ref {
	if r.placeholder == "" {
		return nil
	}
	return []Ref{{
		Category:    cat.Name,
		Path:        r.placeholder,
		File:        filepath.Base(r.placeholder),
		Placeholder: true,
	}}
}

func (r *Resolver) resolveCategory(id string, cat Category) ([]Ref, error) {
	if cat.Sweep {
		return r.sweep(id, cat)
	}
	return r.probe(id, cat)
}

// sweep matches the expanded glob against the directory listing.
func (r *Resolver) sweep(id string, cat Category) ([]Ref, error) {
	files, err := r.store.List(cat.Dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", cat.Dir, err)
	}
	pattern := cat.expand(id)

	var refs []Ref
	sort.Strings(files)
	for _, rel := range files {
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			return nil, fmt.Errorf("match pattern %q: %w", pattern, err)
		}
		if ok {
			refs = append(refs, Ref{
				Category: cat.Name,
				Path:     filepath.Join(cat.Dir, filepath.FromSlash(rel)),
				File:     filepath.Base(rel),
			})
		}
	}
	return refs, nil
}

// probe checks the expected name per extension, preferring exact-case
// matches, then falls back to normalized near-matching over the listing.
func (r *Resolver) probe(id string, cat Category) ([]Ref, error) {
	base := cat.expand(id)

	for _, ext := range cat.extensions() {
		name := base + "." + ext
		path := filepath.Join(cat.Dir, name)
		if r.store.Exists(path) {
			return []Ref{{Category: cat.Name, Path: path, File: name}}, nil
		}
	}

	files, err := r.store.List(cat.Dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", cat.Dir, err)
	}

	wanted := make(map[string]bool, len(cat.extensions()))
	for _, ext := range cat.extensions() {
		wanted[NormalizeName(base+"."+ext)] = true
	}

	var matches []string
	for _, rel := range files {
		if wanted[NormalizeName(rel)] {
			matches = append(matches, rel)
		}
	}
	sort.Strings(matches)

	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		r.logger.Debug("Figure resolved by near-match",
			slog.String("record", id),
			slog.String("category", cat.Name),
			slog.String("file", matches[0]))
		return []Ref{{
			Category: cat.Name,
			Path:     filepath.Join(cat.Dir, filepath.FromSlash(matches[0])),
			File:     filepath.Base(matches[0]),
		}}, nil
	default:
		return nil, &AmbiguousError{RecordID: id, Category: cat.Name, Matches: matches}
	}
}
