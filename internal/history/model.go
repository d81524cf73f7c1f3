package history

import "fmt"

// Roles a message can carry.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one turn of the conversation log. Messages are immutable once
// appended; the log is capped FIFO at the configured maximum.
type Message struct {
	Role                string `json:"role" validate:"required,oneof=user assistant system"`
	Content             string `json:"content" validate:"required"`
	Timestamp           int64  `json:"timestamp"` // epoch millis
	IsIntegrationResult bool   `json:"is_integration_result,omitempty"`
}

// key is the composite identity used for deduplication on load.
func (m Message) key() string {
	return fmt.Sprintf("%d|%s|%s", m.Timestamp, m.Role, m.Content)
}

// Dedupe removes duplicate messages by (timestamp, content, role),
// preserving first-seen order.
func Dedupe(msgs []Message) []Message {
	seen := make(map[string]struct{}, len(msgs))
	out := msgs[:0:0]
	for _, m := range msgs {
		k := m.key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, m)
	}
	return out
}

// Truncate drops the oldest messages beyond max. Zero or negative max means
// no cap.
func Truncate(msgs []Message, max int) []Message {
	if max <= 0 || len(msgs) <= max {
		return msgs
	}
	return msgs[len(msgs)-max:]
}
