package speech

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aria-assistant/aria/internal/store"
	"github.com/aria-assistant/aria/internal/tts"
)

type played struct {
	source string
	text   string
	url    string
	seq    int
}

type fakePlayer struct {
	mu        sync.Mutex
	plays     []played
	stops     int
	active    int // plays currently in flight
	maxActive int
	failAt    int // 1-based sequence number to fail on, 0 disables
	blockFor  time.Duration
	voices    []Voice
}

func (p *fakePlayer) PlayLocal(ctx context.Context, userID, text, voice string, seq, total int) error {
	return p.record(ctx, played{source: "local", text: text, seq: seq})
}

func (p *fakePlayer) PlayRemote(ctx context.Context, userID, audioURL string, seq, total int) error {
	return p.record(ctx, played{source: "remote", url: audioURL, seq: seq})
}

func (p *fakePlayer) record(ctx context.Context, item played) error {
	p.mu.Lock()
	p.active++
	if p.active > p.maxActive {
		p.maxActive = p.active
	}
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.active--
		p.mu.Unlock()
	}()

	if p.blockFor > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.blockFor):
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failAt > 0 && item.seq == p.failAt {
		return errors.New("playback device lost")
	}
	p.plays = append(p.plays, item)
	return nil
}

func (p *fakePlayer) Stopped(ctx context.Context, userID string) {
	p.mu.Lock()
	p.stops++
	p.mu.Unlock()
}

func (p *fakePlayer) Voices() []Voice { return p.voices }

func (p *fakePlayer) recorded() []played {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]played(nil), p.plays...)
}

func setupSequencer(t *testing.T, ttsClient *tts.Client, player *fakePlayer) *Sequencer {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	seq := NewSequencer(ttsClient, player, store.New(client))
	seq.pause = time.Millisecond
	return seq
}

func TestSpeakLocalPlaysSegmentsInOrder(t *testing.T) {
	player := &fakePlayer{}
	seq := setupSequencer(t, nil, player)

	err := seq.Speak(context.Background(), "user-1", "First sentence. Second sentence. Third!")
	require.NoError(t, err)

	plays := player.recorded()
	require.Len(t, plays, 3)
	assert.Equal(t, "First sentence.", plays[0].text)
	assert.Equal(t, "Second sentence.", plays[1].text)
	assert.Equal(t, "Third!", plays[2].text)
	for i, p := range plays {
		assert.Equal(t, "local", p.source)
		assert.Equal(t, i+1, p.seq)
	}
}

func TestSpeakEmptyIsNoop(t *testing.T) {
	player := &fakePlayer{}
	seq := setupSequencer(t, nil, player)

	require.NoError(t, seq.Speak(context.Background(), "user-1", "   "))
	assert.Empty(t, player.recorded())
	assert.False(t, seq.Speaking("user-1"))
}

func TestSpeakRemotePrefetchesAllSegments(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`{"audio_url": "https://cdn.example.com/clip.mp3"}`))
	}))
	defer srv.Close()

	player := &fakePlayer{}
	seq := setupSequencer(t, tts.New(srv.URL, "", time.Second), player)

	err := seq.Speak(context.Background(), "user-1", "One. Two. Three.")
	require.NoError(t, err)

	assert.Equal(t, 3, requests)
	plays := player.recorded()
	require.Len(t, plays, 3)
	for _, p := range plays {
		assert.Equal(t, "remote", p.source)
		assert.Equal(t, "https://cdn.example.com/clip.mp3", p.url)
	}
}

func TestSpeakFallsBackToLocalOnSynthesisFailure(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"audio_url": "https://cdn.example.com/clip.mp3"}`))
	}))
	defer srv.Close()

	player := &fakePlayer{}
	seq := setupSequencer(t, tts.New(srv.URL, "", time.Second), player)

	err := seq.Speak(context.Background(), "user-1", "One. Two. Three.")
	require.NoError(t, err)

	// The second synthesis call failed, so nothing remote played and the
	// entire reply came through the local path instead.
	plays := player.recorded()
	require.Len(t, plays, 3)
	for _, p := range plays {
		assert.Equal(t, "local", p.source)
	}
}

func TestSpeakHonorsLocalSourcePreference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("synthesis service should not be called")
	}))
	defer srv.Close()

	player := &fakePlayer{}
	seq := setupSequencer(t, tts.New(srv.URL, "", time.Second), player)

	require.NoError(t, seq.prefs.Put(context.Background(), "user-1",
		store.KeySpeechSettings, map[string]any{"source": "local"}))

	err := seq.Speak(context.Background(), "user-1", "One. Two.")
	require.NoError(t, err)
	for _, p := range player.recorded() {
		assert.Equal(t, "local", p.source)
	}
}

func TestStopCancelsPlayback(t *testing.T) {
	player := &fakePlayer{blockFor: 50 * time.Millisecond}
	seq := setupSequencer(t, nil, player)

	done := make(chan error, 1)
	go func() {
		done <- seq.Speak(context.Background(), "user-1", "One. Two. Three. Four. Five.")
	}()

	require.Eventually(t, func() bool { return seq.Speaking("user-1") },
		time.Second, time.Millisecond)

	seq.Stop("user-1")
	require.NoError(t, <-done)
	assert.False(t, seq.Speaking("user-1"))
	assert.Less(t, len(player.recorded()), 5)
	player.mu.Lock()
	assert.Equal(t, 1, player.stops)
	player.mu.Unlock()
}

func TestStopWithoutPlaybackIsIdempotent(t *testing.T) {
	player := &fakePlayer{}
	seq := setupSequencer(t, nil, player)

	seq.Stop("user-1")
	seq.Stop("user-1")
	player.mu.Lock()
	assert.Zero(t, player.stops)
	player.mu.Unlock()
}

func TestSpeakReplacesActivePlayback(t *testing.T) {
	player := &fakePlayer{blockFor: 20 * time.Millisecond}
	seq := setupSequencer(t, nil, player)

	first := make(chan error, 1)
	go func() {
		first <- seq.Speak(context.Background(), "user-1", "Old reply one. Old reply two. Old reply three.")
	}()
	require.Eventually(t, func() bool { return seq.Speaking("user-1") },
		time.Second, time.Millisecond)

	require.NoError(t, seq.Speak(context.Background(), "user-1", "New reply."))
	require.NoError(t, <-first)

	plays := player.recorded()
	assert.Equal(t, "New reply.", plays[len(plays)-1].text)
}

func TestConcurrentSpeaksNeverOverlap(t *testing.T) {
	player := &fakePlayer{blockFor: 5 * time.Millisecond}
	seq := setupSequencer(t, nil, player)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = seq.Speak(context.Background(), "user-1", "One. Two. Three.")
		}()
	}
	wg.Wait()

	player.mu.Lock()
	maxActive := player.maxActive
	player.mu.Unlock()
	assert.LessOrEqual(t, maxActive, 1,
		"segments for the same user must never play concurrently")
	assert.False(t, seq.Speaking("user-1"))
}

func TestSaveVoicePersists(t *testing.T) {
	player := &fakePlayer{voices: []Voice{
		{Name: "Daniel", Lang: "en-GB"},
		{Name: "Karen", Lang: "en-AU"},
	}}
	seq := setupSequencer(t, nil, player)

	require.NoError(t, seq.SaveVoice(context.Background(), "user-1", "Daniel"))
	_, selected := seq.Voices(context.Background(), "user-1")
	require.NotNil(t, selected)
	assert.Equal(t, "Daniel", selected.Name)
}

func TestVoiceSelectionFallbacks(t *testing.T) {
	voices := []Voice{
		{Name: "Thomas", Lang: "fr-FR"},
		{Name: "Daniel", Lang: "en-GB"},
		{Name: "Karen", Lang: "en-AU"},
	}

	// No saved voice: the regional English female voice wins.
	v := SelectVoice("", voices)
	require.NotNil(t, v)
	assert.Equal(t, "Karen", v.Name)

	// Saved voice no longer available: same fallback.
	v = SelectVoice("Samantha", voices)
	require.NotNil(t, v)
	assert.Equal(t, "Karen", v.Name)

	// No English female hint: any English voice.
	v = SelectVoice("", []Voice{{Name: "Thomas", Lang: "fr-FR"}, {Name: "Arthur", Lang: "en-GB"}})
	require.NotNil(t, v)
	assert.Equal(t, "Arthur", v.Name)

	// Nothing English: first voice.
	v = SelectVoice("", []Voice{{Name: "Thomas", Lang: "fr-FR"}})
	require.NotNil(t, v)
	assert.Equal(t, "Thomas", v.Name)

	assert.Nil(t, SelectVoice("", nil))
}
