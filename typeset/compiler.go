package typeset

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Job is one artifact compilation request.
type Job struct {
	// SectionID is the owning section, empty for the master document.
	SectionID string

	// TexPath is the markup file to compile.
	TexPath string

	// WorkDir is the engine working directory.
	WorkDir string

	// Master marks the required artifact: the run fails when it fails.
	Master bool
}

// Result is the outcome of one compilation.
type Result struct {
	Job Job

	OK bool

	// Log is the engine's captured output.
	Log string

	// Err is the failure description, empty on success.
	Err string
}

// Compiler runs compilation jobs through the engine with bounded
// concurrency. A failed section artifact never aborts the batch.
type Compiler struct {
	engine      Engine
	concurrency int
	logger      *slog.Logger
}

// NewCompiler creates a compiler. concurrency <= 0 means sequential.
func NewCompiler(engine Engine, concurrency int, logger *slog.Logger) *Compiler {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Compiler{engine: engine, concurrency: concurrency, logger: logger}
}

// CompileAll runs every job and returns one result per job, ordered with
// section artifacts first by section ID and the master last. Section jobs
// run concurrently in independent working directories; master jobs run
// only after every section job has finished, because the master document
// embeds the compiled section artifacts.
func (c *Compiler) CompileAll(ctx context.Context, jobs []Job) []Result {
	var sections, masters []Job
	for _, job := range jobs {
		if job.Master {
			masters = append(masters, job)
		} else {
			sections = append(sections, job)
		}
	}

	sectionResults := make([]Result, len(sections))

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, job := range sections {
		i, job := i, job
		g.Go(func() error {
			res := c.compileOne(ctx, job)
			mu.Lock()
			sectionResults[i] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(sectionResults, func(i, j int) bool {
		return sectionResults[i].Job.SectionID < sectionResults[j].Job.SectionID
	})

	results := make([]Result, 0, len(jobs))
	results = append(results, sectionResults...)
	for _, job := range masters {
		results = append(results, c.compileOne(ctx, job))
	}
	return results
}

func (c *Compiler) compileOne(ctx context.Context, job Job) Result {
	log, err := c.engine.Compile(ctx, job.TexPath, job.WorkDir)
	res := Result{Job: job, OK: err == nil, Log: log}
	if err != nil {
		res.Err = err.Error()
		c.logger.Warn("Artifact compilation failed",
			slog.String("tex", job.TexPath),
			slog.Bool("master", job.Master),
			slog.String("error", err.Error()))
	} else {
		c.logger.Debug("Artifact compiled", slog.String("tex", job.TexPath))
	}
	return res
}
