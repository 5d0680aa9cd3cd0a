package render

import (
	"fmt"
	"strings"

	"github.com/gridlab/fieldreport/workbook"
)

// WideColumn declares one column of a wide custom summary table.
type WideColumn struct {
	Name    string
	WidthCM float64
}

// SummaryTable renders the default summary layout from an auxiliary
// worksheet table: first column fixed width, remaining columns flexible.
func (r *Renderer) SummaryTable(caption string, t *workbook.Table) string {
	columnFormat := "|p{5cm}|"
	if len(t.Headers) > 1 {
		columnFormat += strings.Repeat("X|", len(t.Headers)-1)
	}

	headers := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		headers[i] = fmt.Sprintf(`\textcolor{white}{\textbf{%s}}`, Escape(strings.ReplaceAll(h, "_", " ")))
	}

	var rows []string
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if cell == "" {
				cell = r.MissingToken
			}
			cells[i] = Escape(cell)
		}
		rows = append(rows, strings.Join(cells, " & ")+" \\\\ \\hline")
	}

	return fmt.Sprintf(`\noindent
\renewcommand{\arraystretch}{1.3}
\setlength{\tabcolsep}{6pt}
\begin{table}[H]
    \centering
    \caption{%s}
    \label{tab:%s-results}
    \begin{tabularx}{\linewidth}{%s}
        \hline
        \rowcolor{headerblue}
        %s \\ \hline
%s
    \end{tabularx}
\end{table}
`, Escape(caption), labelSafe(caption), columnFormat, strings.Join(headers, " & "), strings.Join(rows, "\n"))
}

// WideTable renders the custom wide summary layout with explicit column
// widths. rows shorter than the column set are padded with empty cells so
// the layout stays rectangular.
func (r *Renderer) WideTable(caption string, columns []WideColumn, rows [][]string) string {
	specs := make([]string, len(columns))
	headers := make([]string, len(columns))
	for i, col := range columns {
		specs[i] = fmt.Sprintf("p{%.1fcm}", col.WidthCM)
		headers[i] = fmt.Sprintf(`\textcolor{white}{\textbf{%s}}`, Escape(col.Name))
	}
	columnSpec := "|" + strings.Join(specs, "|") + "|"

	var lines []string
	for _, row := range rows {
		cells := make([]string, len(columns))
		for i := range columns {
			if i < len(row) && row[i] != "" {
				cells[i] = Escape(row[i])
			}
		}
		lines = append(lines, strings.Join(cells, " & ")+" \\\\ \\hline")
	}

	return fmt.Sprintf(`\noindent
\renewcommand{\arraystretch}{1.3}
\setlength{\tabcolsep}{6pt}
\begin{table}[H]
    \centering
    \caption{%s}
    \label{tab:%s-results}
    \begin{tabularx}{\linewidth}{%s}
    \hline
    \rowcolor{headerblue}
    %s \\ \hline
%s
    \end{tabularx}
\end{table}
`, Escape(caption), labelSafe(caption), columnSpec, strings.Join(headers, " & "), strings.Join(lines, "\n"))
}
