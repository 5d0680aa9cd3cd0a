// Package render turns outline sections and resolved figures into LaTeX
// markup fragments and complete documents. All functions are pure string
// transforms; rendering the same inputs yields byte-identical output.
package render

import (
	"strconv"
	"strings"

	"github.com/gridlab/fieldreport/record"
)

// escaper handles the special characters that occur in campaign data.
var escaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`_`, `\_`,
	`%`, `\%`,
	`&`, `\&`,
	`#`, `\#`,
	`$`, `\$`,
	`{`, `\{`,
	`}`, `\}`,
)

// Escape escapes LaTeX special characters in text.
func Escape(text string) string {
	return escaper.Replace(text)
}

// labelSafe keeps only characters safe inside a \label argument.
func labelSafe(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == ':':
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// FormatValue renders a field value with the configured numeric precision
// and missing-value token, escaped for LaTeX.
func (r *Renderer) FormatValue(v record.Value) string {
	if v.IsMissing() {
		return Escape(r.MissingToken)
	}
	if v.Kind == record.KindNumber {
		return Escape(formatNumber(v.Number, r.Precision))
	}
	return Escape(v.String())
}

func formatNumber(f float64, precision int) string {
	if precision < 0 {
		precision = 2
	}
	return strconv.FormatFloat(f, 'f', precision, 64)
}
