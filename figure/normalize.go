package figure

import "strings"

// NormalizeName reduces a file or identifier name to its comparison form:
// lower case, with all whitespace, underscores, and hyphens removed. Figure
// naming mismatches in campaign data are almost always case or separator
// drift, so matching happens on this form while exact names stay preferred.
func NormalizeName(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		switch r {
		case ' ', '\t', '_', '-':
			continue
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
