package events

import "time"

// Stream and subject names.
const (
	StreamEvents = "ARIA_EVENTS"

	SubjectSyncEvent   = "aria.events.sync"
	SubjectAuditEvent  = "aria.events.audit"
	SubjectSpeechEvent = "aria.events.speech"
)

// SyncEvent records the outcome of one background sync task, so that sync
// activity is observable rather than silently logged and lost.
type SyncEvent struct {
	UserID    string    `json:"user_id"`
	Component string    `json:"component"` // chat_history, settings, integrations, memories
	Operation string    `json:"operation"` // push, pull, clear
	Status    string    `json:"status"`    // succeeded, failed
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SpeechEvent carries one playback instruction to connected clients: which
// segment to render next, from which source, or that playback stopped.
type SpeechEvent struct {
	UserID   string    `json:"user_id"`
	Action   string    `json:"action"` // play, stop
	Segment  string    `json:"segment,omitempty"`
	AudioURL string    `json:"audio_url,omitempty"`
	Voice    string    `json:"voice,omitempty"`
	Source   string    `json:"source,omitempty"` // local, remote
	Sequence int       `json:"sequence"`
	Total    int       `json:"total"`
	SentAt   time.Time `json:"sent_at"`
}

// AuditEvent is published for user-visible actions against external
// collaborators, chiefly integration command execution.
type AuditEvent struct {
	UserID       string    `json:"user_id"`
	EventType    string    `json:"event_type"`
	Severity     string    `json:"severity"` // info, warn, error
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	Details      string    `json:"details"`
	Timestamp    time.Time `json:"timestamp"`
}
