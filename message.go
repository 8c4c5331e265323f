package scribe

import "strings"

// Message is a role/text pair as sent to a provider and as projected from
// the context window.
type Message struct {
	Role    Role
	Content string
}

// CleanMessages trims message text and drops messages that end up empty.
// Providers reject empty turns, so a request with nothing left gets a
// single "Hello" user message.
func CleanMessages(msgs []Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		text := strings.TrimSpace(m.Content)
		if text == "" {
			continue
		}
		out = append(out, Message{Role: m.Role, Content: text})
	}
	if len(out) == 0 {
		out = append(out, Message{Role: RoleUser, Content: "Hello"})
	}
	return out
}
