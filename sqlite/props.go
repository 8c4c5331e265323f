package sqlite

import (
	"encoding/json"
	"fmt"
)

type sessionProps struct {
	ContentType string `json:"type"`
	Topic       string `json:"topic"`
}

type phaseProps struct {
	Name    string `json:"name"`
	EndedAt *int64 `json:"ended_at,omitempty"` // unix nanoseconds
}

type questionProps struct {
	Text   string `json:"text"`
	Intent string `json:"intent"`
}

type textProps struct {
	Text string `json:"text"`
}

type sectionProps struct {
	Title string `json:"title"`
}

func marshalProps(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal props: %w", err)
	}
	return string(data), nil
}

func unmarshalProps(data string, v any) error {
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("unmarshal props: %w", err)
	}
	return nil
}
