package render

import (
	"fmt"
	"strings"
)

// MasterData holds everything the master document needs.
type MasterData struct {
	// Title is the document title.
	Title string

	// Project is the campaign/project name shown in headers and author.
	Project string

	// LogoPath is the optional header logo image path.
	LogoPath string

	// ExecSummaryPath is the relative path of the executive summary
	// fragment, without extension.
	ExecSummaryPath string

	// SectionPaths are the relative include paths of the section
	// fragments, outline order, without extension.
	SectionPaths []string
}

// Master renders the master document that includes every section fragment
// in outline order.
func Master(d MasterData) string {
	var sb strings.Builder

	project := Escape(d.Project)
	title := Escape(d.Title)

	fmt.Fprintf(&sb, `\documentclass{article}
\usepackage{graphicx}
\usepackage{longtable}
\usepackage{float}
\usepackage[a4paper, margin=1in]{geometry}
\usepackage{tocbibind}
\usepackage{hyperref}
\usepackage{pdflscape}
\usepackage{tabularx}
\usepackage{fancyhdr}
\usepackage[table]{xcolor}
\usepackage{pdfpages}

\definecolor{headerblue}{HTML}{002060}

\title{%s}
\author{%s}
\date{\today}

\pagestyle{fancy}
\fancyhf{}
\fancyhead[L]{%s | %s}
`, title, project, title, project)

	if d.LogoPath != "" {
		fmt.Fprintf(&sb, "\\fancyhead[R]{\\includegraphics[height=0.8cm]{%s}}\n", toTexPath(d.LogoPath))
	}

	fmt.Fprintf(&sb, `\renewcommand{\headrulewidth}{0.2pt}
\setlength{\headsep}{35pt}
\fancyfoot[C]{\thepage}
\renewcommand{\footrulewidth}{0pt}

\hypersetup{
    colorlinks=true,
    linkcolor=blue,
    filecolor=magenta,
    urlcolor=cyan,
    pdftitle={%s},
    bookmarks=true,
}

\begin{document}

\maketitle
\tableofcontents
\newpage
\listoftables
\newpage
\listoffigures

\newpage
`, title)

	if d.ExecSummaryPath != "" {
		fmt.Fprintf(&sb, "\\input{%s}\n\\newpage\n", toTexPath(d.ExecSummaryPath))
	}

	for _, path := range d.SectionPaths {
		fmt.Fprintf(&sb, "\\include{%s}\n", toTexPath(path))
	}

	sb.WriteString("\n\\end{document}\n")
	return sb.String()
}

// Standalone wraps a fragment into a compilable standalone document. wide
// selects the A3 landscape layout used for wide summary tables.
func Standalone(body string, wide bool) string {
	class := `\documentclass[a4paper]{article}`
	margin := `\usepackage[margin=1in]{geometry}`
	if wide {
		class = `\documentclass[a3paper,landscape]{article}`
		margin = `\usepackage[margin=2in]{geometry}`
	}
	return fmt.Sprintf(`%s
%s
\usepackage{graphicx}
\usepackage{longtable}
\usepackage{tabularx}
\usepackage[table]{xcolor}
\usepackage{float}
\usepackage{hyperref}
\definecolor{headerblue}{HTML}{002060}
\pagestyle{empty}
\begin{document}
%s
\end{document}
`, class, margin, body)
}
