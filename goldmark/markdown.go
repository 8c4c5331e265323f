// Package goldmark renders the Markdown produced by scribe (replies and
// session exports) as ANSI-styled terminal text.
package goldmark

import "github.com/fwojciec/scribe"

const defaultWidth = 80

// Render parses source and returns styled terminal output wrapped to width.
// A non-positive width selects 80 columns.
func Render(source string, width int, theme scribe.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = defaultWidth
	}
	return newRenderer(theme, width).render([]byte(source))
}
