package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/gridlab/fieldreport/config"
	"github.com/gridlab/fieldreport/figure"
	"github.com/gridlab/fieldreport/record"
	"github.com/gridlab/fieldreport/workbook"
)

// fakeReader yields a fixed row set.
type fakeReader struct {
	rows []workbook.Row
	err  error
}

func (f *fakeReader) Read(ctx context.Context) ([]workbook.Row, error) {
	return f.rows, f.err
}

// stubEngine succeeds or fails per tex path predicate.
type stubEngine struct {
	failWhen func(texPath string) bool
}

func (s *stubEngine) Compile(ctx context.Context, texPath, workDir string) (string, error) {
	if s.failWhen != nil && s.failWhen(texPath) {
		return "! Emergency stop", errors.New("exit status 1")
	}
	return "ok", nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Project.Name = "Kingscliff SF"
	cfg.Input.Workbook = "campaign.xlsx"
	cfg.Input.IDField = "Test Step ID"
	cfg.Input.Columns = []config.ColumnConfig{
		{Name: "Sequence", Type: "number"},
		{Name: "Depth", Type: "number"},
	}
	cfg.Outline.OrderField = "Sequence"
	cfg.Outline.FrontMatter = []string{"Executive Summary"}
	cfg.Figures.Categories = []config.CategoryConfig{
		{Name: "overlay", Dir: filepath.Join(t.TempDir(), "overlays")},
	}
	cfg.Figures.Placeholder = "Theme/placeholder.png"
	cfg.Output.Dir = filepath.Join(t.TempDir(), "out")
	cfg.Render.Workers = 2
	return cfg
}

func testRows() []workbook.Row {
	return []workbook.Row{
		{Index: 1, Cells: map[string]string{"Test Step ID": "A", "Sequence": "2", "Depth": "3.5"}},
		{Index: 2, Cells: map[string]string{"Test Step ID": "B", "Sequence": "1", "Depth": "N/A"}},
	}
}

func TestPipeline_Run_Done(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg, &fakeReader{rows: testRows()}, figure.DirStore{}, &stubEngine{}, nil)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusDone, summary.Status)
	assert.Equal(t, StageCompile, summary.Stage)
	assert.NotEmpty(t, summary.RunID)

	// One missing-figure warning per record/category pair.
	require.Len(t, summary.Figures, 2)
	for _, d := range summary.Figures {
		assert.Equal(t, record.DiagMissingFigure, d.Kind)
		assert.Equal(t, "overlay", d.Category)
	}

	// B ordered before A in the master document.
	master, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "report.tex"))
	require.NoError(t, err)
	text := string(master)
	require.Contains(t, text, `\include{Matter/B/section_B}`)
	assert.Less(t, strings.Index(text, "section_B"), strings.Index(text, "section_A"))

	// Sections render the placeholder and the depth field.
	sectionA, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "Matter", "A", "section_A.tex"))
	require.NoError(t, err)
	assert.Contains(t, string(sectionA), "Theme/placeholder.png")
	assert.Contains(t, string(sectionA), "3.50")

	sectionB, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "Matter", "B", "section_B.tex"))
	require.NoError(t, err)
	assert.Contains(t, string(sectionB), "N/A")

	// Section artifacts plus master compiled.
	require.Len(t, summary.Artifacts, 3)
	assert.True(t, summary.Artifacts[2].Job.Master)
	assert.Empty(t, summary.FailedArtifacts())
}

func writeSummaryWorkbook(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Summary"))
	rows := [][]any{{"Step", "Result"}, {"1", "Pass"}}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Summary", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
}

func TestPipeline_Run_SummaryCompilesStandaloneAndEmbedsIt(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	cfg.Render.SummaryWorkbook = filepath.Join(dir, "summary_{identifier}.xlsx")
	writeSummaryWorkbook(t, filepath.Join(dir, "summary_A.xlsx"))

	p := New(cfg, &fakeReader{rows: testRows()}, figure.DirStore{}, &stubEngine{}, nil)
	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusDone, summary.Status)

	// The section embeds the compiled standalone artifact, not the table.
	sectionA, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "Matter", "A", "section_A.tex"))
	require.NoError(t, err)
	assert.Contains(t, string(sectionA), `\subsection{Results}`)
	assert.Contains(t, string(sectionA), `\includepdf[pages=-, pagecommand={\thispagestyle{empty}}, fitpaper=true]{Matter/A/section_A_standalone.pdf}`)
	assert.NotContains(t, string(sectionA), "tabularx")

	// The table itself lives in the wide standalone document.
	standaloneA, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "Matter", "A", "section_A_standalone.tex"))
	require.NoError(t, err)
	assert.Contains(t, string(standaloneA), "a3paper,landscape")
	assert.Contains(t, string(standaloneA), "tabularx")
	assert.Contains(t, string(standaloneA), "Pass")
}

func TestPipeline_Run_CustomSummaryUsesWideLayout(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	cfg.Render.SummaryWorkbook = filepath.Join(dir, "summary_{identifier}.xlsx")
	cfg.Render.CustomSummaries = []config.SummaryConfig{{
		Section: "A",
		Columns: []config.WideColumnConfig{
			{Name: "Step", WidthCM: 3},
			{Name: "Result", WidthCM: 6.5},
		},
	}}
	writeSummaryWorkbook(t, filepath.Join(dir, "summary_A.xlsx"))

	p := New(cfg, &fakeReader{rows: testRows()}, figure.DirStore{}, &stubEngine{}, nil)
	_, err := p.Run(context.Background())
	require.NoError(t, err)

	standaloneA, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "Matter", "A", "section_A_standalone.tex"))
	require.NoError(t, err)
	assert.Contains(t, string(standaloneA), "|p{3.0cm}|p{6.5cm}|")
	assert.Contains(t, string(standaloneA), `\textbf{Step}`)
}

func TestPipeline_Run_WritesRunLog(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg, &fakeReader{rows: testRows()}, figure.DirStore{}, &stubEngine{}, nil)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "Matter", "run.log"))
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "run "+summary.RunID)
	assert.Contains(t, text, "status: done")
	assert.Contains(t, text, "figure: missing_figure")
	assert.Contains(t, text, "artifact")
}

func TestPipeline_Run_SectionFailureIsPartialFailure(t *testing.T) {
	cfg := testConfig(t)
	engine := &stubEngine{failWhen: func(tex string) bool {
		return strings.Contains(tex, "section_A_standalone")
	}}
	p := New(cfg, &fakeReader{rows: testRows()}, figure.DirStore{}, engine, nil)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusPartialFailure, summary.Status)

	failed := summary.FailedArtifacts()
	require.Len(t, failed, 1)
	assert.Equal(t, "A", failed[0].Job.SectionID)
	assert.Equal(t, "! Emergency stop", failed[0].Log)
}

func TestPipeline_Run_MasterFailureFailsRun(t *testing.T) {
	cfg := testConfig(t)
	engine := &stubEngine{failWhen: func(tex string) bool {
		return strings.HasSuffix(tex, "report.tex")
	}}
	p := New(cfg, &fakeReader{rows: testRows()}, figure.DirStore{}, engine, nil)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, summary.Status)

	// Section artifacts remain on disk and the master log is captured.
	assert.FileExists(t, filepath.Join(cfg.Output.Dir, "Matter", "A", "section_A.tex"))
	failed := summary.FailedArtifacts()
	require.Len(t, failed, 1)
	assert.True(t, failed[0].Job.Master)
	assert.Equal(t, "! Emergency stop", failed[0].Log)
}

func TestPipeline_Run_DuplicateIdentifierAbortsBeforeOutput(t *testing.T) {
	cfg := testConfig(t)
	rows := append(testRows(), workbook.Row{
		Index: 3, Cells: map[string]string{"Test Step ID": "A", "Sequence": "9"},
	})
	p := New(cfg, &fakeReader{rows: rows}, figure.DirStore{}, &stubEngine{}, nil)

	summary, err := p.Run(context.Background())
	require.Error(t, err)

	var dup *record.DuplicateIdentifierError
	assert.True(t, errors.As(err, &dup))
	assert.Equal(t, StatusFailed, summary.Status)
	assert.Equal(t, StageNormalize, summary.Stage)
	assert.NotEmpty(t, summary.Error)

	// No output tree was created.
	assert.NoDirExists(t, cfg.Output.Dir)
}

func TestPipeline_Run_ReaderErrorIsFatal(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg, &fakeReader{err: errors.New("corrupt workbook")}, figure.DirStore{}, &stubEngine{}, nil)

	summary, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusFailed, summary.Status)
	assert.Equal(t, StageIngest, summary.Stage)
	assert.NoDirExists(t, cfg.Output.Dir)
}

func TestPipeline_Run_SkippedRowsAreReportedNotFatal(t *testing.T) {
	cfg := testConfig(t)
	rows := append(testRows(), workbook.Row{
		Index: 3, Cells: map[string]string{"Sequence": "7"},
	})
	p := New(cfg, &fakeReader{rows: rows}, figure.DirStore{}, &stubEngine{}, nil)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusDone, summary.Status)
	require.Len(t, summary.Skipped, 1)
	assert.Equal(t, record.DiagSkippedRow, summary.Skipped[0].Kind)

	// B's unparseable depth is a field diagnostic, not a skipped row.
	require.Len(t, summary.Fields, 1)
	assert.Equal(t, "B", summary.Fields[0].RecordID)
}

func TestPipeline_Run_CompileDisabledStopsAtMarkup(t *testing.T) {
	cfg := testConfig(t)
	cfg.Compile.Disabled = true
	p := New(cfg, &fakeReader{rows: testRows()}, figure.DirStore{}, &stubEngine{}, nil)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusDone, summary.Status)
	assert.Empty(t, summary.Artifacts)
	assert.FileExists(t, filepath.Join(cfg.Output.Dir, "report.tex"))
}

func TestPipeline_Run_UnknownOrderFieldFailsBeforeOutput(t *testing.T) {
	cfg := testConfig(t)
	cfg.Outline.OrderField = "Chainage"
	p := New(cfg, &fakeReader{rows: testRows()}, figure.DirStore{}, &stubEngine{}, nil)

	summary, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusFailed, summary.Status)
	assert.Equal(t, StageOutline, summary.Stage)
	assert.NoDirExists(t, cfg.Output.Dir)
}
