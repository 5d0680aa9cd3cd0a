package render

import (
	"fmt"
	"strings"

	"github.com/gridlab/fieldreport/figure"
	"github.com/gridlab/fieldreport/outline"
	"github.com/gridlab/fieldreport/record"
)

// Field maps one record field into the section detail table.
type Field struct {
	// Name is the record field name.
	Name string

	// Label is the table heading; defaults to Name.
	Label string
}

func (f Field) label() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// Renderer renders outline sections into LaTeX fragments.
type Renderer struct {
	// Precision is the decimal precision for numeric fields.
	Precision int

	// MissingToken renders in place of missing field values so the table
	// layout stays identical across records.
	MissingToken string

	// Fields selects and orders the record fields shown in the detail
	// table. Empty renders every field in record order.
	Fields []Field
}

// NewRenderer creates a section renderer.
func NewRenderer(precision int, missingToken string, fields []Field) *Renderer {
	if missingToken == "" {
		missingToken = "N/A"
	}
	return &Renderer{Precision: precision, MissingToken: missingToken, Fields: fields}
}

// Section renders one record section: heading, detail table, optional
// summary table markup, then one subsection per figure category. summary
// may be empty.
func (r *Renderer) Section(sec outline.Section, figs figure.Set, summary string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\\section{%s}\n", Escape(sec.Title))

	if sec.Record != nil {
		sb.WriteString(r.detailTable(sec.Record))
	}

	if summary != "" {
		sb.WriteString("\\subsection{Results}\n")
		sb.WriteString(summary)
	}

	for _, cat := range categoriesOf(figs) {
		fmt.Fprintf(&sb, "\\subsection{%s}\n", categoryHeading(cat))
		for _, ref := range figs.ByCategory(cat) {
			sb.WriteString(r.figureEnv(sec, ref))
		}
	}
	return sb.String()
}

// SummaryInclude embeds a compiled standalone summary artifact in the
// section body. fitpaper lets the wide landscape pages keep their size
// inside the portrait master document.
func SummaryInclude(pdfPath string) string {
	return fmt.Sprintf("\\includepdf[pages=-, pagecommand={\\thispagestyle{empty}}, fitpaper=true]{%s}\n", toTexPath(pdfPath))
}

// FrontMatter renders a front-matter section with free-form body text.
func (r *Renderer) FrontMatter(sec outline.Section, body string) string {
	return fmt.Sprintf("\\section*{%s}\n%s\n", Escape(sec.Title), body)
}

// detailTable renders the field/value table for one record.
func (r *Renderer) detailTable(rec *record.Record) string {
	fields := r.Fields
	if len(fields) == 0 {
		for _, name := range rec.FieldOrder {
			fields = append(fields, Field{Name: name})
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `\begin{longtable}{|p{5cm}|p{9cm}|}
\caption{%s Details}
\label{tab:%s-details} \\
\rowcolor{headerblue}
\textcolor{white}{\textbf{Field}} &
\textcolor{white}{\textbf{Value}} \\
\hline
\endfirsthead
\rowcolor{headerblue}
\textcolor{white}{\textbf{Field}} &
\textcolor{white}{\textbf{Value}} \\
\hline
\endhead
`, Escape(rec.ID), labelSafe(rec.ID))

	for _, f := range fields {
		fmt.Fprintf(&sb, "%s & %s \\\\ \\hline\n", Escape(f.label()), r.FormatValue(rec.Field(f.Name)))
	}
	sb.WriteString("\\end{longtable}\n")
	return sb.String()
}

// figureEnv renders one figure environment.
func (r *Renderer) figureEnv(sec outline.Section, ref figure.Ref) string {
	caption := fmt.Sprintf("%s %s", sec.Title, categorySingular(ref.Category))
	if ref.Placeholder {
		caption += " (figure unavailable)"
	}
	return fmt.Sprintf(`\begin{figure}[H]
    \centering
    \includegraphics[width=\textwidth]{%s}
    \caption{%s}
    \label{fig:%s-%s}
\end{figure}
`, toTexPath(ref.Path), Escape(caption), labelSafe(sec.ID), labelSafe(ref.File))
}

// categoriesOf returns the distinct categories of the set in first-seen
// order, which follows the configured category order.
func categoriesOf(figs figure.Set) []string {
	var cats []string
	seen := make(map[string]bool)
	for _, ref := range figs.Refs {
		if !seen[ref.Category] {
			seen[ref.Category] = true
			cats = append(cats, ref.Category)
		}
	}
	return cats
}

func categorySingular(cat string) string {
	if cat == "" {
		return "Figure"
	}
	return strings.ToUpper(cat[:1]) + cat[1:]
}

func categoryHeading(cat string) string {
	return categorySingular(cat) + "s"
}

// toTexPath converts a file path to the forward-slash form LaTeX expects.
func toTexPath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
