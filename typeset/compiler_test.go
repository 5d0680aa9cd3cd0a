package typeset

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine fails compilation for tex paths listed in fail.
type fakeEngine struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls []string
	delay time.Duration
}

func (f *fakeEngine) Compile(ctx context.Context, texPath, workDir string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, texPath)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "timed out", ctx.Err()
		}
	}
	if f.fail[texPath] {
		return "! LaTeX Error: missing figure", errors.New("exit status 1")
	}
	return "compiled ok", nil
}

func TestCompiler_CompileAll_FailureDoesNotAbortBatch(t *testing.T) {
	engine := &fakeEngine{fail: map[string]bool{"b.tex": true}}
	c := NewCompiler(engine, 2, nil)

	results := c.CompileAll(context.Background(), []Job{
		{SectionID: "A", TexPath: "a.tex"},
		{SectionID: "B", TexPath: "b.tex"},
		{TexPath: "master.tex", Master: true},
	})

	require.Len(t, results, 3)
	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK)
	assert.Equal(t, "! LaTeX Error: missing figure", results[1].Log)
	assert.NotEmpty(t, results[1].Err)

	// Master is ordered last.
	assert.True(t, results[2].Job.Master)
	assert.True(t, results[2].OK)

	assert.Len(t, engine.calls, 3)

	// The master embeds section artifacts, so it must compile last.
	assert.Equal(t, "master.tex", engine.calls[2])
}

func TestCompiler_CompileAll_MasterRunsAfterSections(t *testing.T) {
	engine := &fakeEngine{delay: 10 * time.Millisecond}
	c := NewCompiler(engine, 4, nil)

	c.CompileAll(context.Background(), []Job{
		{TexPath: "master.tex", Master: true},
		{SectionID: "A", TexPath: "a.tex"},
		{SectionID: "B", TexPath: "b.tex"},
	})

	require.Len(t, engine.calls, 3)
	assert.Equal(t, "master.tex", engine.calls[2])
}

func TestCompiler_CompileAll_ResultsOrderedBySection(t *testing.T) {
	engine := &fakeEngine{}
	c := NewCompiler(engine, 4, nil)

	results := c.CompileAll(context.Background(), []Job{
		{SectionID: "C", TexPath: "c.tex"},
		{SectionID: "A", TexPath: "a.tex"},
		{SectionID: "B", TexPath: "b.tex"},
	})

	ids := []string{results[0].Job.SectionID, results[1].Job.SectionID, results[2].Job.SectionID}
	assert.Equal(t, []string{"A", "B", "C"}, ids)
}

func TestWithTimeout_BoundsCompilation(t *testing.T) {
	engine := WithTimeout(&fakeEngine{delay: time.Second}, 20*time.Millisecond)

	start := time.Now()
	log, err := engine.Compile(context.Background(), "slow.tex", ".")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, "timed out", log)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestCommandEngine_Argv(t *testing.T) {
	e := NewCommandEngine("tectonic", "--synctex", "--keep-logs")
	assert.Equal(t, []string{"--synctex", "--keep-logs", "doc.tex"}, e.argv("doc.tex"))

	e = NewCommandEngine("latexmk", "-pdf", "{tex}")
	assert.Equal(t, []string{"-pdf", "doc.tex"}, e.argv("doc.tex"))
}
