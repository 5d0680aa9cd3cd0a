package record

import "fmt"

// DiagnosticKind classifies a recoverable condition recorded during a run.
type DiagnosticKind string

// Diagnostic kinds aggregated into the run summary.
const (
	// DiagSkippedRow marks a raw row dropped for a bad or absent identifier.
	DiagSkippedRow DiagnosticKind = "skipped_row"
	// DiagFieldCoercion marks an optional field defaulted to missing.
	DiagFieldCoercion DiagnosticKind = "field_coercion"
	// DiagMissingFigure marks a figure slot degraded to the placeholder.
	DiagMissingFigure DiagnosticKind = "missing_figure"
	// DiagAmbiguousFigure marks a figure lookup with multiple near matches.
	DiagAmbiguousFigure DiagnosticKind = "ambiguous_figure"
	// DiagOrphanOutput marks stale output from a record no longer present.
	DiagOrphanOutput DiagnosticKind = "orphan_output"
	// DiagSummaryLoad marks an auxiliary summary table that failed to load.
	DiagSummaryLoad DiagnosticKind = "summary_load"
)

// Diagnostic is one recoverable condition. Diagnostics never abort a stage;
// they are collected and surfaced in the run summary.
type Diagnostic struct {
	Kind DiagnosticKind `json:"kind"`

	// RecordID is the related record identifier, empty for row-level
	// conditions where no identifier could be established.
	RecordID string `json:"record_id,omitempty"`

	// Category is the figure category for figure diagnostics.
	Category string `json:"category,omitempty"`

	// SourceRow is the 1-based source row for row-level diagnostics.
	SourceRow int `json:"source_row,omitempty"`

	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	switch {
	case d.RecordID != "" && d.Category != "":
		return fmt.Sprintf("%s [%s/%s]: %s", d.Kind, d.RecordID, d.Category, d.Message)
	case d.RecordID != "":
		return fmt.Sprintf("%s [%s]: %s", d.Kind, d.RecordID, d.Message)
	case d.SourceRow > 0:
		return fmt.Sprintf("%s [row %d]: %s", d.Kind, d.SourceRow, d.Message)
	default:
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
}
