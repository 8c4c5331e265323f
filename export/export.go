// Package export renders a stored session as Markdown, YAML or JSON.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fwojciec/scribe"
	"gopkg.in/yaml.v3"
)

// Format names an export encoding.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatYAML     Format = "yaml"
	FormatJSON     Format = "json"
)

// Formats returns the supported formats.
func Formats() []Format {
	return []Format{FormatMarkdown, FormatYAML, FormatJSON}
}

// ParseFormat resolves a format name. "md" and "yml" are accepted aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("export: unknown format %q: %w", s, scribe.ErrValidation)
}

// Document is everything exported for one session.
type Document struct {
	Session      scribe.Session
	CurrentPhase string
	Phases       []scribe.PhaseRecord
	Transcript   []scribe.Exchange
	Structure    scribe.ContentStructure
}

// Collect reads the document for the session the store is bound to. The
// caller supplies the session metadata it already holds; CreatedAt falls
// back to the start of the first phase when unset.
func Collect(ctx context.Context, store scribe.Store, session scribe.Session) (*Document, error) {
	phases, err := store.PhaseHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: phase history: %w", err)
	}
	transcript, err := store.Transcript(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: transcript: %w", err)
	}
	structure, err := store.ContentStructure(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: content structure: %w", err)
	}

	doc := &Document{
		Session:    session,
		Phases:     phases,
		Transcript: transcript,
		Structure:  structure,
	}
	for _, p := range phases {
		if p.Current() {
			doc.CurrentPhase = p.Name
		}
	}
	if doc.Session.CreatedAt.IsZero() && len(phases) > 0 {
		doc.Session.CreatedAt = phases[0].StartedAt
	}
	return doc, nil
}

// Write encodes doc to w in format f.
func Write(w io.Writer, f Format, doc *Document) error {
	switch f {
	case FormatMarkdown:
		return Markdown(w, doc)
	case FormatYAML:
		return YAML(w, doc)
	case FormatJSON:
		return JSON(w, doc)
	}
	return fmt.Errorf("export: unknown format %q: %w", f, scribe.ErrValidation)
}

// Markdown writes a human readable report: metadata, phase history,
// content outline and transcript.
func Markdown(w io.Writer, doc *Document) error {
	var b strings.Builder
	s := doc.Session

	fmt.Fprintf(&b, "# %s\n\n", s.Topic)
	fmt.Fprintf(&b, "- **Content type:** %s\n", s.ContentType)
	fmt.Fprintf(&b, "- **Session:** `%s`\n", s.ID)
	if !s.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "- **Started:** %s\n", s.CreatedAt.Format(time.DateTime))
	}
	if doc.CurrentPhase != "" {
		fmt.Fprintf(&b, "- **Current phase:** %s\n", doc.CurrentPhase)
	}

	if len(doc.Phases) > 0 {
		b.WriteString("\n## Phases\n\n")
		for i, p := range doc.Phases {
			end := "current"
			if !p.Current() {
				end = p.EndedAt.Format(time.DateTime)
			}
			fmt.Fprintf(&b, "%d. %s (%s to %s)\n", i+1, p.Name, p.StartedAt.Format(time.DateTime), end)
		}
	}

	if len(doc.Structure.Sections) > 0 {
		b.WriteString("\n## Outline\n")
		for _, sec := range doc.Structure.Sections {
			fmt.Fprintf(&b, "\n### %s\n\n", sec.Title)
			for _, p := range sec.Points {
				fmt.Fprintf(&b, "- %s\n", p.Text)
				for _, e := range p.Evidence {
					fmt.Fprintf(&b, "  - %s\n", e.Text)
				}
			}
		}
	}

	if len(doc.Transcript) > 0 {
		b.WriteString("\n## Transcript\n\n")
		for _, ex := range doc.Transcript {
			who := "You"
			if ex.Role == scribe.RoleAssistant {
				who = "Scribe"
			}
			fmt.Fprintf(&b, "**%s:** %s\n\n", who, ex.Text)
		}
	}

	_, err := io.WriteString(w, strings.TrimRight(b.String(), "\n")+"\n")
	return err
}

// YAML writes doc as a YAML document.
func YAML(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newDTO(doc)); err != nil {
		return fmt.Errorf("export: encode yaml: %w", err)
	}
	return enc.Close()
}

// JSON writes doc as indented JSON.
func JSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(newDTO(doc)); err != nil {
		return fmt.Errorf("export: encode json: %w", err)
	}
	return nil
}
