package goldmark

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/scribe"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// minItemWidth keeps deeply nested items readable on narrow terminals.
const minItemWidth = 10

type renderer struct {
	width int

	title   lipgloss.Style // level 1 headings
	heading lipgloss.Style // level 2 headings
	minor   lipgloss.Style // level 3+ headings
	strong  lipgloss.Style
	emph    lipgloss.Style
	code    lipgloss.Style
	muted   lipgloss.Style
	link    lipgloss.Style
}

func newRenderer(theme scribe.Theme, width int) *renderer {
	accent := ansiColor(theme.Accent)
	return &renderer{
		width:   width,
		title:   lipgloss.NewStyle().Foreground(accent).Bold(true).Underline(true),
		heading: lipgloss.NewStyle().Foreground(accent).Bold(true),
		minor:   lipgloss.NewStyle().Bold(true),
		strong:  lipgloss.NewStyle().Bold(true),
		emph:    lipgloss.NewStyle().Italic(true),
		code:    lipgloss.NewStyle().Background(ansiColor(theme.CodeBg)),
		muted:   lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true),
		link:    lipgloss.NewStyle().Underline(true),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

func (r *renderer) render(source []byte) string {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))
	blocks := r.children(doc, source, r.width)
	return strings.Join(blocks, "\n\n")
}

// children renders each block child of n, dropping empty results.
func (r *renderer) children(n ast.Node, source []byte, width int) []string {
	var out []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if s := r.block(c, source, width); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (r *renderer) block(n ast.Node, source []byte, width int) string {
	switch n := n.(type) {
	case *ast.Heading:
		style := r.minor
		switch n.Level {
		case 1:
			style = r.title
		case 2:
			style = r.heading
		}
		return wrap(style.Render(r.inline(n, source)), width)

	case *ast.Paragraph, *ast.TextBlock:
		return wrap(r.inline(n, source), width)

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return r.codeLines(n, source)

	case *ast.List:
		return strings.Join(r.list(n, source, width, 0), "\n")

	case *ast.Blockquote:
		bar := r.muted.Render("│") + " "
		inner := strings.Join(r.children(n, source, width-2), "\n\n")
		return prefixLines(inner, bar, bar)

	case *ast.ThematicBreak:
		return r.muted.Render(strings.Repeat("─", min(width, defaultWidth)))

	case *ast.HTMLBlock:
		return r.codeLines(n, source)

	default:
		return strings.Join(r.children(n, source, width), "\n\n")
	}
}

func (r *renderer) codeLines(n ast.Node, source []byte) string {
	gutter := r.muted.Render("│") + " "
	var lines []string
	if fb, ok := n.(*ast.FencedCodeBlock); ok {
		if lang := string(fb.Language(source)); lang != "" {
			lines = append(lines, r.muted.Render(lang))
		}
	}
	segs := n.Lines()
	for i := range segs.Len() {
		seg := segs.At(i)
		line := strings.TrimRight(string(seg.Value(source)), "\n")
		if _, html := n.(*ast.HTMLBlock); html {
			lines = append(lines, line)
			continue
		}
		lines = append(lines, gutter+line)
	}
	return strings.Join(lines, "\n")
}

// list renders the items of l, nesting sublists two columns deeper.
func (r *renderer) list(l *ast.List, source []byte, width, depth int) []string {
	var out []string
	num := l.Start
	for c := l.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		marker := "• "
		if l.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		indent := strings.Repeat("  ", depth)
		first := indent + marker
		rest := strings.Repeat(" ", len(indent)+lipgloss.Width(marker))
		itemWidth := max(width-lipgloss.Width(first), minItemWidth)

		var body []string
		for ic := item.FirstChild(); ic != nil; ic = ic.NextSibling() {
			if sub, ok := ic.(*ast.List); ok {
				if len(body) > 0 {
					out = append(out, prefixLines(strings.Join(body, "\n"), first, rest))
					body, first = nil, rest
				}
				out = append(out, r.list(sub, source, width, depth+1)...)
				continue
			}
			if s := r.block(ic, source, itemWidth); s != "" {
				body = append(body, s)
			}
		}
		if len(body) > 0 {
			out = append(out, prefixLines(strings.Join(body, "\n"), first, rest))
		}
	}
	return out
}

func (r *renderer) inline(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		r.writeInline(&b, c, source)
	}
	return b.String()
}

func (r *renderer) writeInline(b *strings.Builder, n ast.Node, source []byte) {
	switch n := n.(type) {
	case *ast.Text:
		b.Write(n.Segment.Value(source))
		switch {
		case n.HardLineBreak():
			b.WriteByte('\n')
		case n.SoftLineBreak():
			b.WriteByte(' ')
		}
	case *ast.String:
		b.Write(n.Value)
	case *ast.Emphasis:
		if n.Level >= 2 {
			b.WriteString(r.strong.Render(r.inline(n, source)))
		} else {
			b.WriteString(r.emph.Render(r.inline(n, source)))
		}
	case *ast.CodeSpan:
		b.WriteString(r.code.Render(r.inline(n, source)))
	case *ast.Link:
		b.WriteString(r.link.Render(r.inline(n, source)))
		b.WriteString(" " + r.muted.Render("("+string(n.Destination)+")"))
	case *ast.Image:
		b.WriteString(r.link.Render(r.inline(n, source)))
		b.WriteString(" " + r.muted.Render("("+string(n.Destination)+")"))
	case *ast.AutoLink:
		b.WriteString(r.link.Render(string(n.URL(source))))
	case *ast.RawHTML:
		for i := range n.Segments.Len() {
			seg := n.Segments.At(i)
			b.Write(seg.Value(source))
		}
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			r.writeInline(b, c, source)
		}
	}
}

func wrap(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(s)
}

// prefixLines prepends first to the first line of s and rest to the others.
func prefixLines(s, first, rest string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		if i == 0 {
			lines[i] = first + lines[i]
		} else {
			lines[i] = rest + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}
