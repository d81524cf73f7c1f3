package speech

import (
	"context"
	"time"

	"github.com/aria-assistant/aria/internal/events"
)

// EventPlayer delivers playback instructions to connected clients over the
// event stream. The client owns the actual audio output; this side only
// tells it what to render and in what order.
type EventPlayer struct {
	publisher *events.Publisher
	voices    []Voice
}

// NewEventPlayer builds a player that publishes speech events. The voice
// set is what connected clients reported supporting, fed from config.
func NewEventPlayer(publisher *events.Publisher, voices []Voice) *EventPlayer {
	return &EventPlayer{publisher: publisher, voices: voices}
}

func (p *EventPlayer) PlayLocal(ctx context.Context, userID, text, voice string, seq, total int) error {
	return p.publisher.PublishSpeechEvent(ctx, events.SpeechEvent{
		UserID:   userID,
		Action:   "play",
		Segment:  text,
		Voice:    voice,
		Source:   "local",
		Sequence: seq,
		Total:    total,
		SentAt:   time.Now().UTC(),
	})
}

func (p *EventPlayer) PlayRemote(ctx context.Context, userID, audioURL string, seq, total int) error {
	return p.publisher.PublishSpeechEvent(ctx, events.SpeechEvent{
		UserID:   userID,
		Action:   "play",
		AudioURL: audioURL,
		Source:   "remote",
		Sequence: seq,
		Total:    total,
		SentAt:   time.Now().UTC(),
	})
}

func (p *EventPlayer) Stopped(ctx context.Context, userID string) {
	_ = p.publisher.PublishSpeechEvent(ctx, events.SpeechEvent{
		UserID: userID,
		Action: "stop",
		SentAt: time.Now().UTC(),
	})
}

func (p *EventPlayer) Voices() []Voice {
	return p.voices
}
