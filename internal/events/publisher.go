package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// Publisher provides typed methods for publishing events to NATS JetStream.
// A nil Publisher is valid and drops every event, so components can publish
// unconditionally whether or not NATS is configured.
type Publisher struct {
	js jetstream.JetStream
}

// NewPublisher creates a new Publisher.
func NewPublisher(js jetstream.JetStream) *Publisher {
	return &Publisher{js: js}
}

// PublishSyncEvent publishes the outcome of a background sync task.
func (p *Publisher) PublishSyncEvent(ctx context.Context, event SyncEvent) error {
	return p.publish(ctx, SubjectSyncEvent, event)
}

// PublishSpeechEvent publishes a playback instruction for connected clients.
func (p *Publisher) PublishSpeechEvent(ctx context.Context, event SpeechEvent) error {
	return p.publish(ctx, SubjectSpeechEvent, event)
}

// PublishAuditEvent publishes an audit record.
func (p *Publisher) PublishAuditEvent(ctx context.Context, event AuditEvent) error {
	return p.publish(ctx, SubjectAuditEvent, event)
}

func (p *Publisher) publish(ctx context.Context, subject string, data any) error {
	if p == nil || p.js == nil {
		return nil
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling event for %s: %w", subject, err)
	}
	_, err = p.js.Publish(ctx, subject, payload)
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}
