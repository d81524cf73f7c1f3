package speech

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aria-assistant/aria/internal/metrics"
	"github.com/aria-assistant/aria/internal/store"
	"github.com/aria-assistant/aria/internal/tts"
)

// Player renders one segment for a user's session. Implementations push
// playback instructions to whatever surface the user is connected through.
type Player interface {
	PlayLocal(ctx context.Context, userID, text, voice string, seq, total int) error
	PlayRemote(ctx context.Context, userID, audioURL string, seq, total int) error
	Stopped(ctx context.Context, userID string)
	Voices() []Voice
}

// Sequencer turns assistant replies into ordered playback. Remote synthesis
// is preferred when configured; every segment's audio is fetched up front so
// a mid-reply outage cannot leave the user with half a sentence. Any remote
// failure falls back to local synthesis of the complete text.
type Sequencer struct {
	tts    *tts.Client
	player Player
	prefs  *store.Store
	pause  time.Duration

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	cancel context.CancelFunc
	done   chan struct{}
}

const defaultPause = 100 * time.Millisecond

func NewSequencer(ttsClient *tts.Client, player Player, prefs *store.Store) *Sequencer {
	return &Sequencer{
		tts:      ttsClient,
		player:   player,
		prefs:    prefs,
		pause:    defaultPause,
		sessions: make(map[string]*session),
	}
}

// Speak plays text for the user, replacing any playback already in
// progress. It blocks until the sequence finishes, is stopped, or fails.
// Empty input is a no-op.
func (s *Sequencer) Speak(ctx context.Context, userID, text string) error {
	segments := Segment(text)
	if len(segments) == 0 {
		return nil
	}

	ctx, sess := s.begin(ctx, userID)
	defer s.end(userID, sess)

	voice := s.savedVoice(ctx, userID)

	if s.tts.Enabled() && s.remotePreferred(ctx, userID) {
		urls, err := s.prefetch(ctx, segments, voice)
		if err == nil {
			err = s.playRemote(ctx, userID, urls)
		}
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) {
			return nil
		}
		metrics.SpeechFallbacksTotal.Inc()
		slog.Warn("remote synthesis failed, falling back to local playback",
			"user_id", userID, "error", err)
	}

	if err := s.playLocal(ctx, userID, segments, voice); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	return nil
}

// Stop cancels the user's playback, if any. Safe to call at any time.
func (s *Sequencer) Stop(userID string) {
	s.mu.Lock()
	sess := s.sessions[userID]
	s.mu.Unlock()
	if sess == nil {
		return
	}
	sess.cancel()
	<-sess.done
	s.player.Stopped(context.Background(), userID)
}

// Speaking reports whether playback is in progress for the user.
func (s *Sequencer) Speaking(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[userID] != nil
}

// StopAll cancels every active playback. Used during shutdown.
func (s *Sequencer) StopAll() {
	s.mu.Lock()
	users := make([]string, 0, len(s.sessions))
	for userID := range s.sessions {
		users = append(users, userID)
	}
	s.mu.Unlock()
	for _, userID := range users {
		s.Stop(userID)
	}
}

// Voices lists the player's available voices with the user's effective
// selection applied.
func (s *Sequencer) Voices(ctx context.Context, userID string) ([]Voice, *Voice) {
	voices := s.player.Voices()
	saved := s.savedVoice(ctx, userID)
	return voices, SelectVoice(saved, voices)
}

// SaveVoice persists the user's voice choice for future playback.
func (s *Sequencer) SaveVoice(ctx context.Context, userID, name string) error {
	return s.prefs.Put(ctx, userID, store.KeySavedVoice, name)
}

// begin registers a playback session for the user, cancelling and waiting
// out any session already running. Registration happens under the same lock
// acquisition as the emptiness check, so concurrent Speak calls cannot both
// see a free slot and play over each other; whoever loses the race retries
// against the winner's session.
func (s *Sequencer) begin(ctx context.Context, userID string) (context.Context, *session) {
	for {
		s.mu.Lock()
		prev := s.sessions[userID]
		if prev == nil {
			ctx, cancel := context.WithCancel(ctx)
			sess := &session{cancel: cancel, done: make(chan struct{})}
			s.sessions[userID] = sess
			s.mu.Unlock()
			return ctx, sess
		}
		s.mu.Unlock()
		prev.cancel()
		<-prev.done
	}
}

func (s *Sequencer) end(userID string, sess *session) {
	s.mu.Lock()
	if s.sessions[userID] == sess {
		delete(s.sessions, userID)
	}
	s.mu.Unlock()
	sess.cancel()
	close(sess.done)
}

// remotePreferred honors the user's saved speech source. With no saved
// preference, a configured synthesis service is used.
func (s *Sequencer) remotePreferred(ctx context.Context, userID string) bool {
	var data map[string]any
	if err := s.prefs.Get(ctx, userID, store.KeySpeechSettings, &data); err != nil {
		return true
	}
	source, _ := data["source"].(string)
	return source != "local"
}

func (s *Sequencer) savedVoice(ctx context.Context, userID string) string {
	var name string
	if err := s.prefs.Get(ctx, userID, store.KeySavedVoice, &name); err != nil {
		return ""
	}
	return name
}

func (s *Sequencer) prefetch(ctx context.Context, segments []string, voice string) ([]string, error) {
	urls := make([]string, len(segments))
	for i, segment := range segments {
		url, err := s.tts.Synthesize(ctx, segment, voice)
		if err != nil {
			return nil, err
		}
		urls[i] = url
	}
	return urls, nil
}

func (s *Sequencer) playRemote(ctx context.Context, userID string, urls []string) error {
	for i, url := range urls {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.player.PlayRemote(ctx, userID, url, i+1, len(urls)); err != nil {
			return err
		}
		metrics.SpeechSegmentsTotal.WithLabelValues("remote").Inc()
	}
	return nil
}

func (s *Sequencer) playLocal(ctx context.Context, userID string, segments []string, voice string) error {
	for i, segment := range segments {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.player.PlayLocal(ctx, userID, segment, voice, i+1, len(segments)); err != nil {
			return err
		}
		metrics.SpeechSegmentsTotal.WithLabelValues("local").Inc()
		if i < len(segments)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.pause):
			}
		}
	}
	return nil
}
