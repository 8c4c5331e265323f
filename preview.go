package scribe

import (
	"strings"

	"github.com/rivo/uniseg"
)

// Preview shortens s to at most n grapheme clusters for log lines, adding
// an ellipsis when text was cut. Newlines are folded to spaces.
func Preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if n <= 0 || uniseg.GraphemeClusterCount(s) <= n {
		return s
	}
	var b strings.Builder
	g := uniseg.NewGraphemes(s)
	for i := 0; i < n && g.Next(); i++ {
		b.WriteString(g.Str())
	}
	b.WriteString("…")
	return b.String()
}
