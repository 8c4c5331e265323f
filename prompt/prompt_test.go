package prompt_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/fwojciec/scribe"
	"github.com/fwojciec/scribe/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaults(t *testing.T) {
	t.Parallel()
	s := prompt.Defaults()

	for _, p := range scribe.Phases() {
		got := s.Get(prompt.PhaseName(p))
		assert.Contains(t, got, "You are in the "+p.String()+" phase", p)
	}
	assert.True(t, strings.HasPrefix(s.Get(prompt.BaseName), "You are a Content Creation Assistant"))
	assert.Equal(t, "phases.structure_development", prompt.PhaseName(scribe.PhaseStructureDevelopment))
}

func TestSet_GetMissing(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zap.WarnLevel)
	s := prompt.Defaults(prompt.WithLogger(zap.New(core)))

	assert.Equal(t, s.Get(prompt.BaseName), s.Get("functions.summarize"))
	assert.Equal(t, 1, logs.FilterMessage("prompt not found, using base prompt").Len())
}

func TestSet_System(t *testing.T) {
	t.Parallel()
	s := prompt.Defaults()
	sys := s.System(scribe.PhaseRefinement)
	assert.True(t, strings.HasPrefix(sys, s.Get(prompt.BaseName)+"\n\n"))
	assert.True(t, strings.HasSuffix(sys, s.Get("phases.refinement")))
	assert.Equal(t, s.Get(prompt.BaseName), s.System(scribe.PhaseUnknown))
}

func TestLoadFS(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"base.txt":              {Data: []byte("  Custom base.\n")},
		"phases/refinement.txt": {Data: []byte("Custom refinement.")},
		"functions/extra.txt":   {Data: []byte("Extra.")},
		"notes.md":              {Data: []byte("ignored")},
	}
	s, err := prompt.LoadFS(fsys)
	require.NoError(t, err)

	assert.Equal(t, "Custom base.", s.Get(prompt.BaseName))
	assert.Equal(t, "Custom refinement.", s.Get("phases.refinement"))
	assert.Equal(t, "Extra.", s.Get("functions.extra"))
	assert.Contains(t, s.Get("phases.context_gathering"), "Context Gathering phase")
	assert.Equal(t, "Custom base.\n\nCustom refinement.", s.System(scribe.PhaseRefinement))
	assert.Contains(t, s.Names(), "functions.extra")
	assert.NotContains(t, s.Names(), "notes")
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("missing directory uses defaults", func(t *testing.T) {
		t.Parallel()
		core, logs := observer.New(zap.WarnLevel)
		s, err := prompt.Load(filepath.Join(t.TempDir(), "nope"), prompt.WithLogger(zap.New(core)))
		require.NoError(t, err)
		assert.Contains(t, s.Get(prompt.BaseName), "Content Creation Assistant")
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("file instead of directory", func(t *testing.T) {
		t.Parallel()
		f := filepath.Join(t.TempDir(), "prompts")
		require.NoError(t, os.WriteFile(f, nil, 0o644))
		_, err := prompt.Load(f)
		assert.ErrorIs(t, err, scribe.ErrValidation)
	})
}

func TestWriteDefaults(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "prompts")

	written, err := prompt.WriteDefaults(dir, false)
	require.NoError(t, err)
	assert.Len(t, written, 5)
	assert.FileExists(t, filepath.Join(dir, "base.txt"))
	assert.FileExists(t, filepath.Join(dir, "phases", "content_development.txt"))

	custom := filepath.Join(dir, "base.txt")
	require.NoError(t, os.WriteFile(custom, []byte("mine"), 0o644))
	written, err = prompt.WriteDefaults(dir, false)
	require.NoError(t, err)
	assert.Empty(t, written)

	s, err := prompt.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "mine", s.Get(prompt.BaseName))
	assert.Equal(t, prompt.Defaults().Get("phases.refinement"), s.Get("phases.refinement"))
}
