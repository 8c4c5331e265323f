// Package json persists context windows as versioned JSON documents.
package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/scribe"
)

const envelopeVersion = 1

// naiveLayout accepts ISO-8601 timestamps written without a zone offset.
const naiveLayout = "2006-01-02T15:04:05.999999999"

// envelope is the v1 wire format for a persisted context window.
type envelope struct {
	Version        int                `json:"version"`
	SessionID      string             `json:"session_id"`
	CurrentTopic   string             `json:"current_topic"`
	ContentType    string             `json:"content_type"`
	Confidence     map[string]float64 `json:"confidence"`
	WorkingMemory  map[string]any     `json:"working_memory"`
	RecentMessages []turnDTO          `json:"recent_messages"`
}

// turnDTO is the JSON representation of a scribe.Turn.
type turnDTO struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Timestamp string         `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// MarshalWindow serializes a context window in v1 envelope format.
func MarshalWindow(w *scribe.ContextWindow) ([]byte, error) {
	return MarshalState(w.State())
}

// MarshalState serializes a window state in v1 envelope format.
func MarshalState(s scribe.WindowState) ([]byte, error) {
	env := envelope{
		Version:        envelopeVersion,
		SessionID:      s.SessionID,
		CurrentTopic:   s.Topic,
		ContentType:    s.ContentType,
		Confidence:     s.Confidence,
		WorkingMemory:  s.WorkingMemory,
		RecentMessages: make([]turnDTO, len(s.Turns)),
	}
	for i, t := range s.Turns {
		env.RecentMessages[i] = turnDTO{
			Role:      string(t.Role),
			Content:   t.Content,
			Timestamp: t.Timestamp.Format(time.RFC3339Nano),
			Metadata:  t.Metadata,
		}
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return data, nil
}

// UnmarshalState decodes a v1 envelope. A document without a version is
// read as v1. A document that is not valid JSON or carries a newer version
// is an error. Individual messages whose timestamp
// cannot be parsed are skipped and returned as defects.
func UnmarshalState(data []byte) (scribe.WindowState, []error, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return scribe.WindowState{}, nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version < 0 || env.Version > envelopeVersion {
		return scribe.WindowState{}, nil, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}

	s := scribe.WindowState{
		SessionID:     env.SessionID,
		Topic:         env.CurrentTopic,
		ContentType:   env.ContentType,
		Confidence:    env.Confidence,
		WorkingMemory: env.WorkingMemory,
		Turns:         make([]scribe.Turn, 0, len(env.RecentMessages)),
	}
	var defects []error
	for i, dto := range env.RecentMessages {
		ts, err := parseTimestamp(dto.Timestamp)
		if err != nil {
			defects = append(defects, fmt.Errorf("message %d: %w: %w", i, scribe.ErrValidation, err))
			continue
		}
		s.Turns = append(s.Turns, scribe.Turn{
			Role:      scribe.Role(dto.Role),
			Content:   dto.Content,
			Timestamp: ts,
			Metadata:  dto.Metadata,
		})
	}
	return s, defects, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("missing timestamp")
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, nil
	}
	ts, err := time.ParseInLocation(naiveLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return ts, nil
}

// RestoreWindow decodes data into w. On a document-level error w is left
// untouched. Otherwise the returned defects list every message that was
// skipped.
func RestoreWindow(w *scribe.ContextWindow, data []byte) ([]error, error) {
	s, defects, err := UnmarshalState(data)
	if err != nil {
		return nil, err
	}
	return append(defects, w.Restore(s)...), nil
}

// Save writes w to a JSON file, creating parent directories as needed.
func Save(path string, w *scribe.ContextWindow) error {
	data, err := MarshalWindow(w)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load reads a JSON file written by Save into w.
func Load(path string, w *scribe.ContextWindow) ([]error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return RestoreWindow(w, data)
}
