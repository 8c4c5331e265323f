package bubbletea_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/fwojciec/scribe"
	bt "github.com/fwojciec/scribe/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestUserBlock_View(t *testing.T) {
	t.Parallel()
	styles := bt.NewStyles(scribe.DefaultTheme())

	t.Run("prefixes the text", func(t *testing.T) {
		t.Parallel()
		view := ansi.Strip(bt.NewUserBlock("I like cats", styles).View(80))
		assert.True(t, strings.HasPrefix(view, "› I like cats"))
	})

	t.Run("wraps within width", func(t *testing.T) {
		t.Parallel()
		text := "short words that keep going and going beyond the viewport width easily"
		view := bt.NewUserBlock(text, styles).View(30)
		lines := strings.Split(view, "\n")
		assert.Greater(t, len(lines), 1)
		for _, l := range lines {
			assert.LessOrEqual(t, lipgloss.Width(l), 30)
		}
		assert.Contains(t, ansi.Strip(view), "easily")
	})
}

func TestErrorBlock_View(t *testing.T) {
	t.Parallel()
	styles := bt.NewStyles(scribe.DefaultTheme())
	view := ansi.Strip(bt.NewErrorBlock(errors.New("store unavailable"), styles).View(80))
	assert.Contains(t, view, "Error: store unavailable")
}

func TestReplyBlock_View(t *testing.T) {
	t.Parallel()
	block := bt.NewReplyBlock("Moving to Refinement phase.\n\n**Next:** polish", scribe.DefaultTheme())

	view := ansi.Strip(block.View(60))
	assert.Contains(t, view, "Moving to Refinement phase.")
	assert.Contains(t, view, "Next: polish")
	assert.Equal(t, block.View(60), block.View(60))
}

func TestPhaseBlock_View(t *testing.T) {
	t.Parallel()
	styles := bt.NewStyles(scribe.DefaultTheme())
	view := ansi.Strip(bt.NewPhaseBlock(scribe.PhaseStructureDevelopment, styles).View(60))
	assert.Contains(t, view, "── Structure Development ──")
}

func TestNewStyles(t *testing.T) {
	t.Parallel()

	styles := bt.NewStyles(scribe.DefaultTheme())
	assert.Equal(t, lipgloss.Color("4"), styles.UserMsg.GetForeground())
	assert.True(t, styles.UserMsg.GetBold())
	assert.Equal(t, lipgloss.Color("6"), styles.Question.GetForeground())
	assert.Equal(t, lipgloss.Color("5"), styles.Phase.GetBackground())
	assert.Equal(t, lipgloss.Color("1"), styles.Error.GetForeground())
	assert.Equal(t, lipgloss.Color("2"), styles.Success.GetForeground())
	assert.Equal(t, lipgloss.Color("8"), styles.Muted.GetForeground())
	assert.True(t, styles.Muted.GetFaint())

	none := bt.NewStyles(scribe.Theme{UserMsg: -1})
	assert.Equal(t, lipgloss.NoColor{}, none.UserMsg.GetForeground())
}
