// Package prompt holds the system prompts sent to the analyzer: a base
// prompt plus one per phase. Defaults are built in; any of them can be
// overridden by a .txt file in a prompts directory, where the prompt name
// is the file's relative path without the extension and with "/" replaced
// by "." (phases/refinement.txt overrides "phases.refinement").
package prompt

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/scribe"
	"go.uber.org/zap"
)

// BaseName is the name of the prompt shared by every phase.
const BaseName = "base"

const genericPrompt = "You are a helpful assistant."

// PhaseName returns the prompt name for p, e.g. "phases.context_gathering".
func PhaseName(p scribe.Phase) string {
	return "phases." + p.Key()
}

var defaults = map[string]string{
	BaseName: `You are a Content Creation Assistant that helps users create high-quality content through a structured process.
You guide users through four phases:
1. Context Gathering - Understanding the topic, audience, and goals
2. Structure Development - Creating an outline and organization
3. Content Development - Expanding sections with details
4. Refinement - Polishing and finalizing

Your job is to ask relevant questions, analyze responses, and guide the user through this process.`,

	"phases.context_gathering": `You are in the Context Gathering phase of content creation.

In this phase, your goal is to understand:
- The topic and main ideas
- The target audience
- The purpose and goals of the content
- The tone and style preferences
- Any specific requirements or constraints

Ask focused questions to gather this information. Be conversational but purposeful.`,

	"phases.structure_development": `You are in the Structure Development phase of content creation.

In this phase, your goal is to help the user:
- Create a logical outline for their content
- Organize their ideas in a coherent flow
- Identify main sections and subsections
- Determine the right structure for their content type

Ask questions that help the user think about organization and structure.`,

	"phases.content_development": `You are in the Content Development phase of content creation.

In this phase, your goal is to help the user:
- Expand each section with supporting details
- Develop compelling arguments or explanations
- Add examples, evidence, or stories
- Create engaging content for each part of the structure

Focus on one section at a time and ask questions that help the user develop rich content.`,

	"phases.refinement": `You are in the Refinement phase of content creation.

In this phase, your goal is to help the user:
- Review and improve their content
- Ensure consistency in tone and style
- Strengthen weak areas
- Polish the final product

Ask questions that help the user critically evaluate and improve their content.`,
}

// Set is a resolved collection of prompts. It is safe for concurrent use
// once loaded.
type Set struct {
	overrides map[string]string
	logger    *zap.Logger
}

// Option configures a [Set].
type Option func(*Set)

// WithLogger sets the logger used for missing prompts and load problems.
func WithLogger(l *zap.Logger) Option {
	return func(s *Set) { s.logger = l }
}

// Defaults returns a Set holding only the built-in prompts.
func Defaults(opts ...Option) *Set {
	s := &Set{overrides: map[string]string{}, logger: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load reads overrides from dir. A missing directory is not an error: the
// built-in prompts are used and a warning is logged.
func Load(dir string, opts ...Option) (*Set, error) {
	s := Defaults(opts...)
	info, err := os.Stat(dir)
	if errors.Is(err, iofs.ErrNotExist) {
		s.logger.Warn("prompts directory not found, using defaults", zap.String("dir", dir))
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("prompt: stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("prompt: %s is not a directory: %w", dir, scribe.ErrValidation)
	}
	if err := s.loadFS(os.DirFS(dir)); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFS reads overrides from fsys.
func LoadFS(fsys iofs.FS, opts ...Option) (*Set, error) {
	s := Defaults(opts...)
	if err := s.loadFS(fsys); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Set) loadFS(fsys iofs.FS) error {
	err := doublestar.GlobWalk(fsys, "**/*.txt", func(p string, d iofs.DirEntry) error {
		if d.IsDir() {
			return nil
		}
		data, err := iofs.ReadFile(fsys, p)
		if err != nil {
			s.logger.Error("read prompt file", zap.String("path", p), zap.Error(err))
			return nil
		}
		s.overrides[nameOf(p)] = string(data)
		return nil
	})
	if err != nil {
		return fmt.Errorf("prompt: walk prompts: %w", err)
	}
	return nil
}

// nameOf maps a slash-separated relative path to a prompt name.
func nameOf(p string) string {
	return strings.ReplaceAll(strings.TrimSuffix(p, ".txt"), "/", ".")
}

// Get returns the named prompt: an override if one was loaded, else the
// built-in default, else the base prompt.
func (s *Set) Get(name string) string {
	if v, ok := s.overrides[name]; ok {
		return strings.TrimSpace(v)
	}
	if v, ok := defaults[name]; ok {
		return v
	}
	s.logger.Warn("prompt not found, using base prompt", zap.String("name", name))
	if v, ok := s.overrides[BaseName]; ok {
		return strings.TrimSpace(v)
	}
	if v, ok := defaults[BaseName]; ok {
		return v
	}
	return genericPrompt
}

// System returns the base prompt followed by the prompt for p. It has the
// signature expected by decision.WithPrompts.
func (s *Set) System(p scribe.Phase) string {
	if !p.Valid() {
		return s.Get(BaseName)
	}
	return s.Get(BaseName) + "\n\n" + s.Get(PhaseName(p))
}

// Names returns the names of every known prompt, sorted.
func (s *Set) Names() []string {
	names := maps.Clone(s.overrides)
	for k, v := range defaults {
		names[k] = v
	}
	return slices.Sorted(maps.Keys(names))
}

// WriteDefaults writes the built-in prompts under dir, one file per prompt.
// Existing files are left alone unless overwrite is set. It returns the
// paths written.
func WriteDefaults(dir string, overwrite bool) ([]string, error) {
	var written []string
	for _, name := range slices.Sorted(maps.Keys(defaults)) {
		rel := path.Join(strings.Split(name, ".")...) + ".txt"
		dst := filepath.Join(dir, filepath.FromSlash(rel))
		if !overwrite {
			if _, err := os.Stat(dst); err == nil {
				continue
			}
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return written, fmt.Errorf("prompt: create %s: %w", filepath.Dir(dst), err)
		}
		if err := os.WriteFile(dst, []byte(defaults[name]+"\n"), 0o644); err != nil {
			return written, fmt.Errorf("prompt: write %s: %w", dst, err)
		}
		written = append(written, dst)
	}
	return written, nil
}
