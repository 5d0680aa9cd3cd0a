package pipeline

import (
	"time"

	"github.com/gridlab/fieldreport/record"
	"github.com/gridlab/fieldreport/typeset"
)

// Status is the overall outcome of one run.
type Status string

// Terminal run statuses.
const (
	// StatusDone means every requested artifact was produced.
	StatusDone Status = "done"
	// StatusPartialFailure means the master compiled but at least one
	// section artifact failed.
	StatusPartialFailure Status = "partial_failure"
	// StatusFailed means the master artifact failed or a stage before
	// compilation raised a fatal error.
	StatusFailed Status = "failed"
)

// Stage identifies a pipeline stage.
type Stage string

// Pipeline stages in execution order.
const (
	StageIngest    Stage = "ingest"
	StageNormalize Stage = "normalize"
	StageOutline   Stage = "outline"
	StageRender    Stage = "render"
	StageCompose   Stage = "compose"
	StageCompile   Stage = "compile"
)

// RunSummary is the single source of truth for one run's outcome. Callers
// must not infer status from artifact presence: partial output can remain
// on disk after a failed run.
type RunSummary struct {
	RunID string `json:"run_id"`

	Status Status `json:"status"`

	// Stage is the last stage the run entered.
	Stage Stage `json:"stage"`

	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`

	// Skipped lists rows dropped during normalization.
	Skipped []record.Diagnostic `json:"skipped,omitempty"`

	// Fields lists optional field values defaulted to missing.
	Fields []record.Diagnostic `json:"fields,omitempty"`

	// Figures lists missing/ambiguous figure warnings.
	Figures []record.Diagnostic `json:"figures,omitempty"`

	// Orphans lists stale output flagged, not deleted.
	Orphans []record.Diagnostic `json:"orphans,omitempty"`

	// Artifacts holds one result per compilation job, captured logs
	// included.
	Artifacts []typeset.Result `json:"artifacts,omitempty"`

	// Error describes the fatal condition of a failed run.
	Error string `json:"error,omitempty"`
}

// FailedArtifacts returns the artifacts that did not compile.
func (s *RunSummary) FailedArtifacts() []typeset.Result {
	var failed []typeset.Result
	for _, a := range s.Artifacts {
		if !a.OK {
			failed = append(failed, a)
		}
	}
	return failed
}
