package scribe

import (
	"fmt"
	"maps"
	"strings"
	"time"
)

// DefaultWindowCapacity is the number of turns a window keeps by default.
const DefaultWindowCapacity = 10

// Turn is one entry of the context window.
type Turn struct {
	Role      Role
	Content   string
	Timestamp time.Time
	Metadata  map[string]any
}

// ContextWindow is a bounded FIFO of recent turns plus the scratch state
// used by decision policies. It is owned by a single session's engine and
// is not safe for concurrent use.
type ContextWindow struct {
	SessionID     string
	Topic         string
	ContentType   string
	Confidence    map[string]float64
	WorkingMemory map[string]any
	LastAnalysis  *Analysis

	buf   []Turn // ring buffer, len(buf) == capacity
	head  int    // index of the oldest turn
	count int
}

// NewContextWindow returns an empty window. A non-positive capacity selects
// DefaultWindowCapacity.
func NewContextWindow(capacity int) *ContextWindow {
	if capacity <= 0 {
		capacity = DefaultWindowCapacity
	}
	return &ContextWindow{
		Confidence:    make(map[string]float64),
		WorkingMemory: make(map[string]any),
		buf:           make([]Turn, capacity),
	}
}

// Capacity returns the maximum number of turns kept.
func (w *ContextWindow) Capacity() int { return len(w.buf) }

// Len returns the number of turns held.
func (w *ContextWindow) Len() int { return w.count }

// Append adds t as the newest turn, evicting the oldest when full.
func (w *ContextWindow) Append(t Turn) {
	if w.count < len(w.buf) {
		w.buf[(w.head+w.count)%len(w.buf)] = t
		w.count++
		return
	}
	w.buf[w.head] = t
	w.head = (w.head + 1) % len(w.buf)
}

// AddMessage appends a turn stamped with the current time.
func (w *ContextWindow) AddMessage(role Role, content string, metadata map[string]any) {
	w.Append(Turn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Metadata:  metadata,
	})
}

// Turns returns a chronological copy of the held turns.
func (w *ContextWindow) Turns() []Turn {
	out := make([]Turn, w.count)
	for i := range w.count {
		out[i] = w.buf[(w.head+i)%len(w.buf)]
	}
	return out
}

// RecentContext projects the held turns to role/text pairs, oldest first.
func (w *ContextWindow) RecentContext() []Message {
	out := make([]Message, w.count)
	for i := range w.count {
		t := w.buf[(w.head+i)%len(w.buf)]
		out[i] = Message{Role: t.Role, Content: t.Content}
	}
	return out
}

// ApplyAnalysis merges an analyzer result into the scratch state.
func (w *ContextWindow) ApplyAnalysis(a Analysis) {
	maps.Copy(w.Confidence, a.Confidence)
	// Stored as []any so the map matches what a JSON round trip yields.
	entities := make([]any, 0, len(a.Entities))
	for _, e := range a.Entities {
		entities = append(entities, e)
	}
	w.WorkingMemory["entities"] = entities
	w.WorkingMemory["intent"] = a.Intent
	w.WorkingMemory["sentiment"] = a.Sentiment
	w.LastAnalysis = &a
}

// PhaseConfidence returns the analyzer's completion confidence for p, or 0.
func (w *ContextWindow) PhaseConfidence(p Phase) float64 {
	return w.Confidence["phase_"+strings.ToLower(p.String())]
}

// Reset clears turns and scratch state. Capacity is kept.
func (w *ContextWindow) Reset() {
	clear(w.buf)
	w.head, w.count = 0, 0
	w.SessionID, w.Topic, w.ContentType = "", "", ""
	w.Confidence = make(map[string]float64)
	w.WorkingMemory = make(map[string]any)
	w.LastAnalysis = nil
}

// WindowState is the flat, serializable form of a ContextWindow.
type WindowState struct {
	SessionID     string
	Topic         string
	ContentType   string
	Confidence    map[string]float64
	WorkingMemory map[string]any
	Turns         []Turn
}

// State captures the window verbatim, timestamps included.
func (w *ContextWindow) State() WindowState {
	return WindowState{
		SessionID:     w.SessionID,
		Topic:         w.Topic,
		ContentType:   w.ContentType,
		Confidence:    maps.Clone(w.Confidence),
		WorkingMemory: maps.Clone(w.WorkingMemory),
		Turns:         w.Turns(),
	}
}

// Restore replaces the window contents with s. Turns with an unknown role
// or a missing timestamp are skipped and reported in the returned slice;
// the rest are restored. When s holds more valid turns than the capacity,
// only the newest are kept.
func (w *ContextWindow) Restore(s WindowState) []error {
	w.Reset()
	w.SessionID = s.SessionID
	w.Topic = s.Topic
	w.ContentType = s.ContentType
	maps.Copy(w.Confidence, s.Confidence)
	maps.Copy(w.WorkingMemory, s.WorkingMemory)

	var defects []error
	for i, t := range s.Turns {
		switch {
		case !t.Role.Valid():
			defects = append(defects, fmt.Errorf("turn %d: unknown role %q: %w", i, t.Role, ErrValidation))
		case t.Timestamp.IsZero():
			defects = append(defects, fmt.Errorf("turn %d: missing timestamp: %w", i, ErrValidation))
		default:
			w.Append(t)
		}
	}
	return defects
}
