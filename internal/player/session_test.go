package player

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Karasuhime/yozora/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine is a synthetic media engine fed by scripted events
type fakeEngine struct {
	mu       sync.Mutex
	events   chan Event
	loads    []string
	seeks    []float64
	speeds   []float64
	subs     []string
	controls []bool
	stopped  bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{events: make(chan Event, 64)}
}

func (e *fakeEngine) Load(_ context.Context, sourceURL string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loads = append(e.loads, sourceURL)
	return nil
}

func (e *fakeEngine) Seek(seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seeks = append(e.seeks, seconds)
	return nil
}

func (e *fakeEngine) SetPaused(bool) error { return nil }

func (e *fakeEngine) SetFullscreen(bool) error { return nil }

func (e *fakeEngine) SetSpeed(speed float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speeds = append(e.speeds, speed)
	return nil
}

func (e *fakeEngine) SetControlsVisible(visible bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.controls = append(e.controls, visible)
	return nil
}

func (e *fakeEngine) AddSubtitle(url string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = append(e.subs, url)
	return nil
}

func (e *fakeEngine) Events() <-chan Event { return e.events }

func (e *fakeEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopped = true
	return nil
}

func (e *fakeEngine) isStopped() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopped
}

func (e *fakeEngine) emit(ev Event) { e.events <- ev }

func (e *fakeEngine) seekCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.seeks)
}

func (e *fakeEngine) lastSeek() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.seeks) == 0 {
		return -1
	}
	return e.seeks[len(e.seeks)-1]
}

type persistCall struct {
	id       string
	playback *int
	watched  *bool
}

type persistRecorder struct {
	mu    sync.Mutex
	calls []persistCall
}

func (r *persistRecorder) persist(_ context.Context, id string, update *domain.VideoStateUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, persistCall{id: id, playback: update.PlaybackSeconds, watched: update.Watched})
	return nil
}

func (r *persistRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *persistRecorder) snapshot() []persistCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]persistCall(nil), r.calls...)
}

func (r *persistRecorder) watchedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.watched != nil && *c.watched {
			n++
		}
	}
	return n
}

func testVideo(id string, resume int) *domain.Video {
	return &domain.Video{
		ID:              id,
		Title:           "test video",
		SourceURL:       "https://archive.example.com/media/" + id + ".mp4",
		DurationSeconds: 100,
		PlaybackSeconds: resume,
	}
}

func bindTestSession(t *testing.T, video *domain.Video, engine *fakeEngine, opts Options) (*Manager, *Session) {
	t.Helper()
	m := NewManager()
	s, err := m.Bind(context.Background(), video, engine, opts)
	require.NoError(t, err)
	t.Cleanup(m.Unbind)
	return m, s
}

func TestShouldResume(t *testing.T) {
	tests := []struct {
		name     string
		resume   float64
		duration float64
		want     bool
	}{
		{"just started noise", 4.999, 100, false},
		{"lower boundary", 5, 100, true},
		{"middle", 50, 100, true},
		{"just under tail", 94.999, 100, true},
		{"tail boundary", 95, 100, false},
		{"past end", 120, 100, false},
		{"zero", 0, 100, false},
		{"unknown duration", 50, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldResume(tt.resume, tt.duration))
		})
	}
}

func TestSessionResumesOnFileLoaded(t *testing.T) {
	engine := newFakeEngine()
	_, _ = bindTestSession(t, testVideo("v1", 50), engine, Options{})

	engine.emit(Event{Type: EventFileLoaded, Duration: 100})

	require.Eventually(t, func() bool { return engine.seekCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	// The resume target goes through the seek coordinator's snap-back
	assert.InDelta(t, 49.6, engine.lastSeek(), 0.0001)
}

func TestSessionStartsAtZeroForShortResume(t *testing.T) {
	engine := newFakeEngine()
	_, _ = bindTestSession(t, testVideo("v1", 4), engine, Options{})

	engine.emit(Event{Type: EventFileLoaded, Duration: 100})
	engine.emit(Event{Type: EventUnpaused})
	engine.emit(Event{Type: EventTimeUpdate, Position: 0.5})

	require.Eventually(t, func() bool {
		return len(engine.events) == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, engine.seekCount())
}

func TestSessionStartsAtZeroForNearlyFinishedResume(t *testing.T) {
	engine := newFakeEngine()
	_, _ = bindTestSession(t, testVideo("v1", 95), engine, Options{})

	engine.emit(Event{Type: EventFileLoaded, Duration: 100})

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, engine.seekCount())
}

func TestSessionBindRejectsMissingSource(t *testing.T) {
	engine := newFakeEngine()
	m := NewManager()

	_, err := m.Bind(context.Background(), &domain.Video{ID: "v1"}, engine, Options{})
	assert.ErrorIs(t, err, ErrSourceUnavailable)

	_, err = m.Bind(context.Background(), &domain.Video{ID: "v1", SourceURL: "not a url"}, engine, Options{})
	assert.ErrorIs(t, err, ErrSourceUnavailable)

	// Binding was a no-op: nothing reached the engine
	assert.Empty(t, engine.loads)
	assert.Nil(t, m.Session())
}

func TestSessionWatchedFiresExactlyOnce(t *testing.T) {
	engine := newFakeEngine()
	rec := &persistRecorder{}
	watched := 0
	var mu sync.Mutex

	_, _ = bindTestSession(t, testVideo("v1", 0), engine, Options{
		PersistProgress: true,
		Persist:         rec.persist,
		OnWatched: func() {
			mu.Lock()
			watched++
			mu.Unlock()
		},
	})

	engine.emit(Event{Type: EventFileLoaded, Duration: 100})
	engine.emit(Event{Type: EventUnpaused})
	for _, pos := range []float64{50, 89, 90, 95, 99} {
		engine.emit(Event{Type: EventTimeUpdate, Position: pos})
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return watched == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool { return rec.watchedCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	// Further ticks past the threshold change nothing
	engine.emit(Event{Type: EventTimeUpdate, Position: 99.5})
	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, watched)
	mu.Unlock()
	assert.Equal(t, 1, rec.watchedCount())
}

func TestSessionPauseSavesImmediately(t *testing.T) {
	engine := newFakeEngine()
	rec := &persistRecorder{}
	_, _ = bindTestSession(t, testVideo("v1", 0), engine, Options{
		PersistProgress: true,
		Persist:         rec.persist,
	})

	engine.emit(Event{Type: EventFileLoaded, Duration: 100})
	engine.emit(Event{Type: EventUnpaused})
	engine.emit(Event{Type: EventTimeUpdate, Position: 33})
	engine.emit(Event{Type: EventPaused})

	require.Eventually(t, func() bool { return rec.count() >= 1 }, 2*time.Second, 10*time.Millisecond)

	calls := rec.snapshot()
	last := calls[len(calls)-1]
	require.NotNil(t, last.playback)
	assert.Equal(t, 33, *last.playback)
	assert.Equal(t, "v1", last.id)
}

func TestSessionDebouncedProgressSavesLastTick(t *testing.T) {
	engine := newFakeEngine()
	rec := &persistRecorder{}
	_, s := bindTestSession(t, testVideo("v1", 0), engine, Options{
		PersistProgress: true,
		Persist:         rec.persist,
	})
	s.saver.window = 50 * time.Millisecond

	engine.emit(Event{Type: EventFileLoaded, Duration: 100})
	engine.emit(Event{Type: EventUnpaused})
	for _, pos := range []float64{10, 10.5, 11, 11.5} {
		engine.emit(Event{Type: EventTimeUpdate, Position: pos})
	}

	require.Eventually(t, func() bool { return rec.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	call := rec.snapshot()[0]
	require.NotNil(t, call.playback)
	assert.Equal(t, 11, *call.playback)

	// No further writes without further ticks
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestSessionSegmentSkipSeeksToSegmentEnd(t *testing.T) {
	engine := newFakeEngine()
	video := testVideo("v1", 0)
	video.Segments = []domain.Segment{{Start: 10, End: 20, Category: "sponsor"}}

	_, _ = bindTestSession(t, video, engine, Options{SkipCategories: []string{"sponsor"}})

	engine.emit(Event{Type: EventFileLoaded, Duration: 100})
	engine.emit(Event{Type: EventUnpaused})
	engine.emit(Event{Type: EventTimeUpdate, Position: 10})

	require.Eventually(t, func() bool { return engine.seekCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	// Segment end minus the coordinator's snap-back
	assert.InDelta(t, 19.6, engine.lastSeek(), 0.0001)
}

func TestSessionEndedFiresOnce(t *testing.T) {
	engine := newFakeEngine()
	ended := 0
	var mu sync.Mutex

	_, _ = bindTestSession(t, testVideo("v1", 0), engine, Options{
		OnEnded: func() {
			mu.Lock()
			ended++
			mu.Unlock()
		},
	})

	engine.emit(Event{Type: EventFileLoaded, Duration: 100})
	engine.emit(Event{Type: EventEnded})
	engine.emit(Event{Type: EventEnded})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return ended == 1
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, ended)
	mu.Unlock()
}

func TestSessionErrorMapping(t *testing.T) {
	engine := newFakeEngine()
	type report struct {
		code int
		msg  string
	}
	reports := make(chan report, 4)

	_, _ = bindTestSession(t, testVideo("v1", 0), engine, Options{
		OnError: func(code int, message string) {
			reports <- report{code, message}
		},
	})

	engine.emit(Event{Type: EventError, Code: ErrCodeNetwork})

	select {
	case r := <-reports:
		assert.Equal(t, ErrCodeNetwork, r.code)
		assert.Equal(t, "network error during load", r.msg)
	case <-time.After(2 * time.Second):
		t.Fatal("expected error callback")
	}
}

func TestPlaybackErrorMessages(t *testing.T) {
	assert.Equal(t, "loading aborted", playbackErrorMessage(1, Device{}))
	assert.Equal(t, "network error during load", playbackErrorMessage(2, Device{}))
	assert.Equal(t, "decode failure / corrupt file", playbackErrorMessage(3, Device{}))
	assert.Equal(t, "format unsupported", playbackErrorMessage(4, Device{}))
	assert.Equal(t,
		"format unsupported (try opening the video in the platform browser)",
		playbackErrorMessage(4, Device{AppleMobile: true}))
}

func TestSessionUnbindFlushesAndSilences(t *testing.T) {
	engine := newFakeEngine()
	rec := &persistRecorder{}
	watched := 0
	var mu sync.Mutex

	m := NewManager()
	_, err := m.Bind(context.Background(), testVideo("v1", 0), engine, Options{
		PersistProgress: true,
		Persist:         rec.persist,
		OnWatched: func() {
			mu.Lock()
			watched++
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	engine.emit(Event{Type: EventFileLoaded, Duration: 100})
	engine.emit(Event{Type: EventUnpaused})
	engine.emit(Event{Type: EventTimeUpdate, Position: 42})
	// The pause save doubles as a barrier: once it lands, the time update
	// before it has been processed too
	engine.emit(Event{Type: EventPaused})

	require.Eventually(t, func() bool { return rec.count() >= 1 }, 2*time.Second, 10*time.Millisecond)

	m.Unbind()

	// Teardown flushed the current position
	calls := rec.snapshot()
	require.NotEmpty(t, calls)
	last := calls[len(calls)-1]
	require.NotNil(t, last.playback)
	assert.Equal(t, 42, *last.playback)
	assert.True(t, engine.isStopped())

	// Events arriving after unbind must not fire anything
	before := rec.count()
	engine.emit(Event{Type: EventTimeUpdate, Position: 95})
	engine.emit(Event{Type: EventEnded})
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, before, rec.count())
	mu.Lock()
	assert.Equal(t, 0, watched)
	mu.Unlock()
}

func TestSessionPersistentRebindResetsFlags(t *testing.T) {
	engine := newFakeEngine()
	rec := &persistRecorder{}
	watched := 0
	var mu sync.Mutex

	m := NewManager()
	opts := Options{
		PersistProgress:        true,
		KeepEngineAcrossVideos: true,
		Persist:                rec.persist,
		OnWatched: func() {
			mu.Lock()
			watched++
			mu.Unlock()
		},
	}
	s1, err := m.Bind(context.Background(), testVideo("a", 0), engine, opts)
	require.NoError(t, err)
	t.Cleanup(m.Unbind)

	engine.emit(Event{Type: EventFileLoaded, Duration: 100})
	engine.emit(Event{Type: EventUnpaused})
	engine.emit(Event{Type: EventTimeUpdate, Position: 95})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return watched == 1
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return rec.watchedCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	// Rebind to a new video on the same engine: the session object survives
	s2, err := m.Bind(context.Background(), testVideo("b", 0), engine, opts)
	require.NoError(t, err)
	assert.Same(t, s1, s2)

	engine.mu.Lock()
	loads := append([]string(nil), engine.loads...)
	engine.mu.Unlock()
	require.Len(t, loads, 2)

	// The monotonic watched flag reset with the video id: video b can fire it again
	engine.emit(Event{Type: EventFileLoaded, Duration: 100})
	engine.emit(Event{Type: EventUnpaused})
	engine.emit(Event{Type: EventTimeUpdate, Position: 95})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return watched == 2
	}, 2*time.Second, 10*time.Millisecond)

	// And the watched mutations carry the right ids
	require.Eventually(t, func() bool { return rec.watchedCount() == 2 }, 2*time.Second, 10*time.Millisecond)
	var ids []string
	for _, c := range rec.snapshot() {
		if c.watched != nil {
			ids = append(ids, c.id)
		}
	}
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestSessionPersistentRebindFencesQueuedTicks(t *testing.T) {
	engine := newFakeEngine()
	rec := &persistRecorder{}

	m := NewManager()
	opts := Options{
		PersistProgress:        true,
		KeepEngineAcrossVideos: true,
		Persist:                rec.persist,
	}
	_, err := m.Bind(context.Background(), testVideo("a", 0), engine, opts)
	require.NoError(t, err)
	t.Cleanup(m.Unbind)

	engine.emit(Event{Type: EventFileLoaded, Duration: 100})
	engine.emit(Event{Type: EventUnpaused})
	// Still queued when the rebind comes in: it must be dispatched under
	// video a, never persisted under video b
	engine.emit(Event{Type: EventTimeUpdate, Position: 95})

	_, err = m.Bind(context.Background(), testVideo("b", 0), engine, opts)
	require.NoError(t, err)

	// The swap's final flush carries the old video's position under its own id
	var flushed bool
	for _, c := range rec.snapshot() {
		if c.id == "a" && c.playback != nil && *c.playback == 95 {
			flushed = true
		}
	}
	assert.True(t, flushed, "old video's last position should flush under its own id")

	// Video b plays from the start; the pause save doubles as a barrier
	engine.emit(Event{Type: EventFileLoaded, Duration: 100})
	engine.emit(Event{Type: EventUnpaused})
	engine.emit(Event{Type: EventTimeUpdate, Position: 7})
	engine.emit(Event{Type: EventPaused})

	require.Eventually(t, func() bool {
		for _, c := range rec.snapshot() {
			if c.id == "b" && c.playback != nil && *c.playback == 7 {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	for _, c := range rec.snapshot() {
		if c.id == "b" && c.playback != nil {
			assert.NotEqual(t, 95, *c.playback, "old video's position leaked into the new video")
		}
	}
}

func TestSessionRebindSameEngineDropsQueuedTicks(t *testing.T) {
	engine := newFakeEngine()
	rec := &persistRecorder{}

	m := NewManager()
	opts := Options{
		PersistProgress: true,
		Persist:         rec.persist,
	}
	_, err := m.Bind(context.Background(), testVideo("a", 0), engine, opts)
	require.NoError(t, err)
	t.Cleanup(m.Unbind)

	engine.emit(Event{Type: EventFileLoaded, Duration: 100})
	engine.emit(Event{Type: EventUnpaused})
	engine.emit(Event{Type: EventTimeUpdate, Position: 95})

	// Non-persistent rebind on the same engine: a fresh session attaches to
	// the same event channel, so anything still queued must not reach it
	_, err = m.Bind(context.Background(), testVideo("b", 0), engine, opts)
	require.NoError(t, err)

	engine.emit(Event{Type: EventFileLoaded, Duration: 100})
	engine.emit(Event{Type: EventUnpaused})
	engine.emit(Event{Type: EventTimeUpdate, Position: 7})
	engine.emit(Event{Type: EventPaused})

	require.Eventually(t, func() bool {
		for _, c := range rec.snapshot() {
			if c.id == "b" && c.playback != nil && *c.playback == 7 {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	for _, c := range rec.snapshot() {
		if c.id == "b" && c.playback != nil {
			assert.NotEqual(t, 95, *c.playback, "old video's position leaked into the new video")
		}
	}
}

func TestSessionEndToEnd(t *testing.T) {
	engine := newFakeEngine()
	rec := &persistRecorder{}
	var mu sync.Mutex
	watched, ended := 0, 0

	m := NewManager()
	_, err := m.Bind(context.Background(), testVideo("v1", 50), engine, Options{
		PersistProgress: true,
		Persist:         rec.persist,
		OnWatched: func() {
			mu.Lock()
			watched++
			mu.Unlock()
		},
		OnEnded: func() {
			mu.Lock()
			ended++
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	t.Cleanup(m.Unbind)

	// Metadata arrives: the player resumes near t=50
	engine.emit(Event{Type: EventFileLoaded, Duration: 100})
	require.Eventually(t, func() bool { return engine.seekCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.InDelta(t, 49.6, engine.lastSeek(), 0.0001)

	engine.emit(Event{Type: EventSeekComplete})
	engine.emit(Event{Type: EventUnpaused})

	// Playback advances to t=90: watched fires exactly once
	for pos := 60.0; pos <= 90.0; pos += 10 {
		engine.emit(Event{Type: EventTimeUpdate, Position: pos})
	}
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return watched == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Playback reaches the end
	engine.emit(Event{Type: EventTimeUpdate, Position: 100})
	engine.emit(Event{Type: EventEnded})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return ended == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, 1, watched)
	assert.Equal(t, 1, ended)
	mu.Unlock()
}
