package bubbletea

import (
	"github.com/fwojciec/scribe"
	"github.com/fwojciec/scribe/goldmark"
)

var _ MessageBlock = (*ReplyBlock)(nil)

// ReplyBlock renders an assistant reply as Markdown. Output is cached per
// width since replies never change once shown.
type ReplyBlock struct {
	text    string
	theme   scribe.Theme
	byWidth map[int]string
}

func NewReplyBlock(text string, theme scribe.Theme) *ReplyBlock {
	return &ReplyBlock{text: text, theme: theme, byWidth: make(map[int]string)}
}

func (b *ReplyBlock) View(width int) string {
	if out, ok := b.byWidth[width]; ok {
		return out
	}
	out := goldmark.Render(b.text, width, b.theme)
	b.byWidth[width] = out
	return out
}
