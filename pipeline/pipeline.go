// Package pipeline orchestrates one report-assembly run: ingest, normalize,
// outline, per-section resolve and render, compose, and compile.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gridlab/fieldreport/compose"
	"github.com/gridlab/fieldreport/config"
	"github.com/gridlab/fieldreport/figure"
	"github.com/gridlab/fieldreport/outline"
	"github.com/gridlab/fieldreport/record"
	"github.com/gridlab/fieldreport/render"
	"github.com/gridlab/fieldreport/typeset"
	"github.com/gridlab/fieldreport/workbook"
)

// Pipeline runs one campaign report assembly. All configuration is held by
// value at construction, so multiple pipelines for different campaigns can
// run in one process.
type Pipeline struct {
	cfg    *config.Config
	reader workbook.Reader
	store  figure.Store
	engine typeset.Engine
	logger *slog.Logger
}

// New creates a pipeline with explicit collaborators, used by tests and by
// callers embedding the pipeline.
func New(cfg *config.Config, reader workbook.Reader, store figure.Store, engine typeset.Engine, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{cfg: cfg, reader: reader, store: store, engine: engine, logger: logger}
}

// NewFromConfig creates a pipeline wired to the production collaborators:
// the xlsx reader, the local figure store, and the configured typesetting
// command.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Pipeline {
	engine := typeset.WithTimeout(
		typeset.NewCommandEngine(cfg.Compile.Command, cfg.Compile.Args...),
		cfg.Compile.Timeout,
	)
	reader := workbook.NewXLSX(cfg.Input.Workbook, cfg.Input.Sheet, logger)
	return New(cfg, reader, figure.DirStore{}, engine, logger)
}

// sectionResult carries one section's render output and diagnostics out of
// the parallel stage.
type sectionResult struct {
	fragment compose.Fragment
	diags    []record.Diagnostic
}

// Run executes the full pipeline and returns the run summary. The returned
// error is non-nil only for fatal conditions; the summary is always
// populated and is the authoritative outcome.
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:   uuid.NewString(),
		Started: time.Now(),
	}
	defer func() { summary.Finished = time.Now() }()

	log := p.logger.With(slog.String("run_id", summary.RunID))
	log.Info("Starting report assembly",
		slog.String("project", p.cfg.Project.Name),
		slog.String("workbook", p.cfg.Input.Workbook))

	// Ingest. A malformed source is fatal, never partial.
	summary.Stage = StageIngest
	rows, err := p.reader.Read(ctx)
	if err != nil {
		return p.fail(summary, fmt.Errorf("read source: %w", err))
	}

	// Normalize.
	summary.Stage = StageNormalize
	normalizer := record.NewNormalizer(p.cfg.Input.IDField, columns(p.cfg))
	records, rowDiags, err := normalizer.Normalize(rows)
	if err != nil {
		return p.fail(summary, err)
	}
	for _, d := range rowDiags {
		if d.Kind == record.DiagSkippedRow {
			summary.Skipped = append(summary.Skipped, d)
		} else {
			summary.Fields = append(summary.Fields, d)
		}
	}

	// Outline. Still before any output is written.
	summary.Stage = StageOutline
	builder := outline.NewBuilder(p.cfg.Outline.OrderField, p.cfg.Outline.FrontMatter)
	o, err := builder.Build(records)
	if err != nil {
		return p.fail(summary, err)
	}
	log.Info("Built outline",
		slog.Int("records", len(records)),
		slog.Int("sections", len(o.Sections)),
		slog.Int("skipped_rows", len(summary.Skipped)))

	// Render. The output tree is created once before parallel section
	// work so section writers never race on directory creation.
	summary.Stage = StageRender
	composer := compose.NewComposer(
		p.cfg.Output.Dir,
		p.cfg.Output.MasterName,
		p.cfg.Title(),
		p.cfg.Project.Name,
		p.cfg.Project.Logo,
		log,
	)
	if err := composer.Prepare(o); err != nil {
		return p.fail(summary, err)
	}

	fragments, figDiags, err := p.renderSections(ctx, o)
	if err != nil {
		return p.fail(summary, err)
	}
	summary.Figures = figDiags

	// Compose.
	summary.Stage = StageCompose
	layout, err := composer.Compose(o, fragments, p.frontMatterBodies(o))
	if err != nil {
		return p.fail(summary, err)
	}
	summary.Orphans = composer.Orphans(o)

	// Compile.
	summary.Stage = StageCompile
	if p.cfg.Compile.Disabled {
		summary.Status = StatusDone
		p.writeRunLog(summary)
		log.Info("Compilation disabled, markup artifacts written",
			slog.String("master", layout.MasterTex))
		return summary, nil
	}

	compiler := typeset.NewCompiler(p.engine, p.cfg.Compile.Concurrency, log)
	summary.Artifacts = compiler.CompileAll(ctx, compileJobs(layout))
	summary.Status = statusOf(summary.Artifacts)
	p.writeRunLog(summary)

	log.Info("Run finished",
		slog.String("status", string(summary.Status)),
		slog.Int("artifacts", len(summary.Artifacts)),
		slog.Int("figure_warnings", len(summary.Figures)))
	return summary, nil
}

// writeRunLog records the run outcome under the output tree, so a report
// directory documents the run that produced it. A write failure degrades
// to a warning.
func (p *Pipeline) writeRunLog(summary *RunSummary) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "run %s\nstatus: %s\nstage: %s\nstarted: %s\n",
		summary.RunID, summary.Status, summary.Stage,
		summary.Started.Format(time.RFC3339))
	for _, d := range summary.Skipped {
		fmt.Fprintf(&sb, "skipped: %s\n", d)
	}
	for _, d := range summary.Fields {
		fmt.Fprintf(&sb, "field: %s\n", d)
	}
	for _, d := range summary.Figures {
		fmt.Fprintf(&sb, "figure: %s\n", d)
	}
	for _, d := range summary.Orphans {
		fmt.Fprintf(&sb, "orphan: %s\n", d)
	}
	for _, a := range summary.Artifacts {
		state := "ok"
		if !a.OK {
			state = "failed"
		}
		fmt.Fprintf(&sb, "artifact %s: %s\n", a.Job.TexPath, state)
		if !a.OK {
			fmt.Fprintf(&sb, "  %s\n%s\n", a.Err, a.Log)
		}
	}

	path := filepath.Join(p.cfg.Output.Dir, compose.MatterDir, "run.log")
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		p.logger.Warn("Failed to write run log",
			slog.String("path", path),
			slog.String("error", err.Error()))
	}
}

// renderSections resolves figures and renders fragments for every record
// section, in parallel up to the configured worker count. Diagnostics are
// accumulated per section and merged in outline order for determinism.
func (p *Pipeline) renderSections(ctx context.Context, o *outline.Outline) ([]compose.Fragment, []record.Diagnostic, error) {
	sections := o.RecordSections()

	resolver := figure.NewResolver(categories(p.cfg), p.cfg.Figures.Placeholder, p.store, p.logger)
	renderer := render.NewRenderer(p.cfg.Render.Precision, p.cfg.Render.MissingToken, fields(p.cfg))

	workers := p.cfg.Render.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var mu sync.Mutex
	results := make(map[string]sectionResult, len(sections))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, sec := range sections {
		sec := sec
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res := p.renderOne(sec, resolver, renderer)
			mu.Lock()
			results[sec.ID] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	fragments := make([]compose.Fragment, 0, len(sections))
	var diags []record.Diagnostic
	for _, sec := range sections {
		res := results[sec.ID]
		fragments = append(fragments, res.fragment)
		diags = append(diags, res.diags...)
	}
	return fragments, diags, nil
}

// renderOne resolves and renders a single section.
func (p *Pipeline) renderOne(sec outline.Section, resolver *figure.Resolver, renderer *render.Renderer) sectionResult {
	figs, diags := resolver.Resolve(sec.Record)

	summaryTex, wide, sumDiags := p.sectionSummary(sec, renderer)
	diags = append(diags, sumDiags...)

	// The summary table lives in the standalone document, compiled on its
	// own page size; the section body embeds the compiled artifact.
	summaryRef := ""
	standaloneBody := ""
	if summaryTex != "" {
		summaryRef = render.SummaryInclude(compose.StandaloneArtifactRel(sec.Slug()))
		standaloneBody = summaryTex
	}

	body := renderer.Section(sec, figs, summaryRef)
	if standaloneBody == "" {
		standaloneBody = body
	}

	return sectionResult{
		fragment: compose.Fragment{
			SectionID:  sec.ID,
			Body:       body,
			Standalone: render.Standalone(standaloneBody, wide),
		},
		diags: diags,
	}
}

// sectionSummary loads and renders the auxiliary summary table for a
// section, when one is configured and present. A load failure degrades to
// no summary with a diagnostic.
func (p *Pipeline) sectionSummary(sec outline.Section, renderer *render.Renderer) (tex string, wide bool, diags []record.Diagnostic) {
	pattern := p.cfg.Render.SummaryWorkbook
	if pattern == "" {
		return "", false, nil
	}

	path := strings.ReplaceAll(pattern, "{identifier}", sec.ID)
	if _, err := os.Stat(path); err != nil {
		return "", false, nil
	}

	table, err := workbook.LoadTable(path, p.cfg.Render.SummarySheet)
	if err != nil {
		return "", false, []record.Diagnostic{{
			Kind:     record.DiagSummaryLoad,
			RecordID: sec.ID,
			Message:  err.Error(),
		}}
	}

	if custom := p.customSummary(sec.ID); custom != nil {
		cols := make([]render.WideColumn, 0, len(custom.Columns))
		for _, c := range custom.Columns {
			cols = append(cols, render.WideColumn{Name: c.Name, WidthCM: c.WidthCM})
		}
		return renderer.WideTable(sec.Title+" Results", cols, table.Rows), true, nil
	}
	return renderer.SummaryTable(sec.Title+" Results", table), true, nil
}

// customSummary returns the wide layout designated for a section, if any.
func (p *Pipeline) customSummary(id string) *config.SummaryConfig {
	for i := range p.cfg.Render.CustomSummaries {
		if p.cfg.Render.CustomSummaries[i].Section == id {
			return &p.cfg.Render.CustomSummaries[i]
		}
	}
	return nil
}

// frontMatterBodies renders the configured front-matter sections. The
// executive summary body comes from configuration, with a generated
// default.
func (p *Pipeline) frontMatterBodies(o *outline.Outline) map[string]string {
	renderer := render.NewRenderer(p.cfg.Render.Precision, p.cfg.Render.MissingToken, nil)

	bodies := make(map[string]string)
	for i, sec := range o.Sections {
		if !sec.FrontMatter {
			continue
		}
		body := ""
		if i == 0 {
			body = p.cfg.Outline.ExecSummary
			if body == "" {
				body = fmt.Sprintf(
					"This report documents the field testing campaign for %s. The sections below cover each test location in order.",
					render.Escape(p.cfg.Project.Name))
			}
		}
		bodies[sec.ID] = renderer.FrontMatter(sec, body)
	}
	return bodies
}

// compileJobs builds the compile batch: one job per section standalone
// document plus the required master document.
func compileJobs(layout *compose.Layout) []typeset.Job {
	ids := make([]string, 0, len(layout.StandaloneTex))
	for id := range layout.StandaloneTex {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var jobs []typeset.Job
	for _, id := range ids {
		path := layout.StandaloneTex[id]
		jobs = append(jobs, typeset.Job{
			SectionID: id,
			TexPath:   path,
			WorkDir:   filepath.Dir(path),
		})
	}
	jobs = append(jobs, typeset.Job{
		TexPath: layout.MasterTex,
		WorkDir: layout.Root,
		Master:  true,
	})
	return jobs
}

// statusOf derives the terminal status: a failed master fails the run, a
// failed section artifact only degrades it.
func statusOf(results []typeset.Result) Status {
	sectionFailed := false
	for _, r := range results {
		if r.OK {
			continue
		}
		if r.Job.Master {
			return StatusFailed
		}
		sectionFailed = true
	}
	if sectionFailed {
		return StatusPartialFailure
	}
	return StatusDone
}

func (p *Pipeline) fail(summary *RunSummary, err error) (*RunSummary, error) {
	summary.Status = StatusFailed
	summary.Error = err.Error()
	p.logger.Error("Run failed",
		slog.String("run_id", summary.RunID),
		slog.String("stage", string(summary.Stage)),
		slog.String("error", err.Error()))
	return summary, err
}

func columns(cfg *config.Config) []record.Column {
	var cols []record.Column
	for _, c := range cfg.Input.Columns {
		cols = append(cols, record.Column{
			Name:   c.Name,
			Type:   record.FieldType(c.Type),
			Layout: c.Layout,
		})
	}
	return cols
}

func categories(cfg *config.Config) []figure.Category {
	var cats []figure.Category
	for _, c := range cfg.Figures.Categories {
		cats = append(cats, figure.Category{
			Name:        c.Name,
			Dir:         c.Dir,
			Pattern:     c.Pattern,
			Sweep:       c.Sweep,
			Extensions:  c.Extensions,
			OptOutField: c.OptOutField,
		})
	}
	return cats
}

func fields(cfg *config.Config) []render.Field {
	var out []render.Field
	for _, f := range cfg.Render.Fields {
		out = append(out, render.Field{Name: f.Name, Label: f.Label})
	}
	return out
}
