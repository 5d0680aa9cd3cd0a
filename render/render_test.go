package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridlab/fieldreport/figure"
	"github.com/gridlab/fieldreport/outline"
	"github.com/gridlab/fieldreport/record"
	"github.com/gridlab/fieldreport/workbook"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"CAP_01", `CAP\_01`},
		{"95% load", `95\% load`},
		{"V & f", `V \& f`},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Escape(tt.in), tt.in)
	}
}

func TestRenderer_FormatValue(t *testing.T) {
	r := NewRenderer(2, "N/A", nil)

	assert.Equal(t, "3.50", r.FormatValue(record.Number(3.5)))
	assert.Equal(t, "N/A", r.FormatValue(record.Missing()))
	assert.Equal(t, `50\% ramp`, r.FormatValue(record.Text("50% ramp")))
}

func testSection() outline.Section {
	rec := &record.Record{
		ID: "CAP_01",
		Fields: map[string]record.Value{
			"Depth":    record.Number(3.5),
			"Operator": record.Missing(),
		},
		FieldOrder: []string{"Depth", "Operator"},
	}
	return outline.Section{ID: "CAP_01", Title: "CAP_01", Record: rec}
}

func TestRenderer_Section_RendersFieldsAndFigures(t *testing.T) {
	r := NewRenderer(2, "N/A", nil)

	figs := figure.Set{Refs: []figure.Ref{
		{Category: "overlay", Path: "Figures/Overlays/CAP_01_overlay.png", File: "CAP_01_overlay.png"},
	}}

	out := r.Section(testSection(), figs, "")

	assert.Contains(t, out, `\section{CAP\_01}`)
	assert.Contains(t, out, `Depth & 3.50`)
	assert.Contains(t, out, `Operator & N/A`)
	assert.Contains(t, out, `\subsection{Overlays}`)
	assert.Contains(t, out, `\includegraphics[width=\textwidth]{Figures/Overlays/CAP_01_overlay.png}`)
}

func TestRenderer_Section_PlaceholderFigureIsMarked(t *testing.T) {
	r := NewRenderer(2, "N/A", nil)

	figs := figure.Set{Refs: []figure.Ref{
		{Category: "overlay", Path: "Theme/placeholder.png", File: "placeholder.png", Placeholder: true},
	}}

	out := r.Section(testSection(), figs, "")
	assert.Contains(t, out, "figure unavailable")
	assert.Contains(t, out, "Theme/placeholder.png")
}

func TestRenderer_Section_IsIdempotent(t *testing.T) {
	r := NewRenderer(2, "N/A", []Field{{Name: "Depth", Label: "Depth (m)"}})

	figs := figure.Set{Refs: []figure.Ref{
		{Category: "plot", Path: "Plots/trend_CAP_01.png", File: "trend_CAP_01.png"},
	}}

	first := r.Section(testSection(), figs, "")
	for n := 0; n < 3; n++ {
		assert.Equal(t, first, r.Section(testSection(), figs, ""))
	}
}

func TestRenderer_SummaryTable(t *testing.T) {
	r := NewRenderer(2, "-", nil)

	table := &workbook.Table{
		Headers: []string{"Step_ID", "Result"},
		Rows: [][]string{
			{"CAP_01", "Pass"},
			{"CAP_02", ""},
		},
	}

	out := r.SummaryTable("CAP Results", table)
	assert.Contains(t, out, `\caption{CAP Results}`)
	assert.Contains(t, out, `\textbf{Step ID}`)
	assert.Contains(t, out, `CAP\_01 & Pass \\ \hline`)
	assert.Contains(t, out, `CAP\_02 & - \\ \hline`)
}

func TestRenderer_WideTable_PadsShortRows(t *testing.T) {
	r := NewRenderer(2, "-", nil)

	columns := []WideColumn{
		{Name: "Step ID", WidthCM: 3},
		{Name: "Result", WidthCM: 2.5},
		{Name: "Notes", WidthCM: 5},
	}
	out := r.WideTable("Custom Results", columns, [][]string{{"CAP_01", "Pass"}})

	assert.Contains(t, out, "|p{3.0cm}|p{2.5cm}|p{5.0cm}|")
	assert.Contains(t, out, `CAP\_01 & Pass &  \\ \hline`)
}

func TestSummaryInclude_EmbedsCompiledArtifact(t *testing.T) {
	out := SummaryInclude("Matter/CAP_01/section_CAP_01_standalone.pdf")
	assert.Contains(t, out, `\includepdf[pages=-`)
	assert.Contains(t, out, "fitpaper=true")
	assert.Contains(t, out, "Matter/CAP_01/section_CAP_01_standalone.pdf")
}

func TestMaster_IncludesSectionsInOrder(t *testing.T) {
	out := Master(MasterData{
		Title:           "Hold Point Testing Report",
		Project:         "Kingscliff SF",
		LogoPath:        "Figures/Theme/logo.jpg",
		ExecSummaryPath: "Matter/section_executive_summary",
		SectionPaths:    []string{"Matter/CAP_01/section_CAP_01", "Matter/CAP_02/section_CAP_02"},
	})

	require.Contains(t, out, `\input{Matter/section_executive_summary}`)
	first := strings.Index(out, `\include{Matter/CAP_01/section_CAP_01}`)
	second := strings.Index(out, `\include{Matter/CAP_02/section_CAP_02}`)
	require.Greater(t, first, 0)
	assert.Greater(t, second, first)
	assert.Contains(t, out, `\fancyhead[R]{\includegraphics[height=0.8cm]{Figures/Theme/logo.jpg}}`)
}

func TestStandalone_WideUsesA3Landscape(t *testing.T) {
	out := Standalone("body", true)
	assert.Contains(t, out, `a3paper,landscape`)
	assert.Contains(t, out, "body")

	narrow := Standalone("body", false)
	assert.Contains(t, narrow, `a4paper`)
}
