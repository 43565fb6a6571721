package player

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Karasuhime/yozora/internal/domain"
	"github.com/Karasuhime/yozora/internal/log"
)

// ErrSourceUnavailable is returned by Bind when a video's source locator is
// missing or malformed.  Binding is a no-op in that case; the caller is
// responsible for surfacing "video not available" and there is no retry.
var ErrSourceUnavailable = errors.New("video source unavailable")

const (
	// resumeMinSeconds ignores resume positions in the first few seconds of
	// a video as "just started" noise
	resumeMinSeconds = 5
	// resumeMaxFraction treats resume positions in the last part of a video
	// as effectively finished and restarts from the beginning
	resumeMaxFraction = 0.95
	// subtitleProbeDelay defers the subtitle existence check so it never
	// competes with initial video buffering
	subtitleProbeDelay = 1 * time.Second
	// controlsTickInterval is how often the session loop polls the controls
	// machine for hide-timer expiry.  Needed because no engine events flow
	// while paused.
	controlsTickInterval = 250 * time.Millisecond
	persistTimeout       = 3 * time.Second
)

// PersistFunc writes a partial video state update to the archive.  Failures
// are logged and swallowed by the session; retry policy belongs to the
// archive layer.
type PersistFunc func(ctx context.Context, id string, update *domain.VideoStateUpdate) error

// SubtitleFunc resolves an external subtitle URL for a source, best effort.
type SubtitleFunc func(ctx context.Context, sourceURL string) (string, bool)

// Options configures a playback session binding
type Options struct {
	// PersistProgress enables progress and watched-state writes to the archive
	PersistProgress bool
	// KeepEngineAcrossVideos keeps the engine instance alive when the bound
	// video changes (playlist continuity).  Session flags still reset.
	KeepEngineAcrossVideos bool
	// PlaybackSpeed is applied once the file loads.  Zero means leave
	// engine default.
	PlaybackSpeed float64
	// SkipCategories lists segment categories eligible for auto-skip
	SkipCategories []string
	// Device classifies the environment for the controls policy.  Callers
	// normally pass ProbeDevice().
	Device Device

	// Persist is the single outbound mutation to the archive
	Persist PersistFunc
	// FindSubtitle is the deferred best-effort subtitle discovery probe
	FindSubtitle SubtitleFunc

	// Callbacks toward the owner.  These can be replaced mid-session with
	// Session.SetCallbacks; handlers always read the current values.
	OnWatched func()
	OnEnded   func()
	OnError   func(code int, message string)
}

// Callbacks is the mutable subset of Options that owners may swap while a
// session is live.  Event handlers read these at call time rather than
// capturing them at bind time, so a re-render never leaves a handler holding
// a stale reference.
type Callbacks struct {
	OnWatched func()
	OnEnded   func()
	OnError   func(code int, message string)
}

// Manager owns at most one playback session: the bound lifetime pairing of
// one media engine instance and one video.  Binding a new video destroys the
// previous session (or, in persistent mode, swaps the video under the same
// engine) before the new pairing goes live.
type Manager struct {
	mu      sync.Mutex
	session *Session
}

// NewManager creates an empty session manager
func NewManager() *Manager {
	return &Manager{}
}

// Bind pairs an engine with a video and starts event dispatch.
//
// Re-binding with the engine of the live session never double-subscribes:
// in persistent mode the session survives and only the video is swapped; in
// normal mode the old session is fully torn down (final progress flush
// included) before the new one attaches.
func (m *Manager) Bind(ctx context.Context, video *domain.Video, engine Engine, opts Options) (*Session, error) {
	src, err := resolveSource(video)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s := m.session; s != nil {
		if s.engine == engine && s.opts.KeepEngineAcrossVideos {
			log.Info("Rebinding session to new video", "video_id", video.ID)
			if err := s.swapVideo(ctx, video, src); err != nil {
				return nil, err
			}
			return s, nil
		}
		// Tear the old pairing down before the new one attaches.  The engine
		// is only stopped when the new binding does not reuse it.
		s.unbind(s.engine != engine)
		m.session = nil
		if s.engine == engine {
			// The old loop has exited (unbind waits for it).  Events still
			// buffered belong to the old video, whose final position is
			// already flushed; the new session must not see them.
			discardPending(engine.Events())
		}
	}

	s := newSession(video, engine, opts)
	if err := engine.Load(ctx, src); err != nil {
		s.close()
		return nil, fmt.Errorf("failed to load source into engine: %w", err)
	}
	go s.loop()

	m.session = s
	log.Info("Bound playback session", "video_id", video.ID, "source", src)
	return s, nil
}

// Unbind destroys the current session, if any.  All timers are cancelled, a
// final progress flush is attempted, and no session callback fires afterwards.
func (m *Manager) Unbind() {
	m.mu.Lock()
	s := m.session
	m.session = nil
	m.mu.Unlock()

	if s != nil {
		s.unbind(true)
	}
}

// Session returns the live session, or nil
func (m *Manager) Session() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// discardPending throws away events buffered in an engine channel nobody is
// reading anymore
func discardPending(events <-chan Event) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// resolveSource validates a video's source locator.  Accepts absolute URLs
// and absolute file paths.
func resolveSource(video *domain.Video) (string, error) {
	if video == nil || video.SourceURL == "" {
		return "", ErrSourceUnavailable
	}
	if strings.HasPrefix(video.SourceURL, "/") {
		return video.SourceURL, nil
	}
	u, err := url.ParseRequestURI(video.SourceURL)
	if err != nil || u.Scheme == "" {
		return "", ErrSourceUnavailable
	}
	return video.SourceURL, nil
}

// SessionStatus is a point-in-time snapshot of playback state for rendering
type SessionStatus struct {
	VideoID         string
	Position        float64
	Duration        float64
	Playing         bool
	Buffering       bool
	Watched         bool
	ControlsVisible bool
	Fullscreen      bool
}

// Session binds one engine to one video and dispatches the engine's event
// stream to the playback sub-components
type Session struct {
	engine Engine
	opts   Options

	mu            sync.Mutex
	video         *domain.Video
	current       float64
	duration      float64
	playing       bool
	seeking       bool
	buffering     bool
	fullscreen    bool
	endedFired    bool
	controlsShown bool
	unbound       bool

	// lastPersisted has its own lock: the persist sink runs both inline
	// under mu (immediate saves) and from timer goroutines (debounced saves)
	persistMu     sync.Mutex
	lastPersisted float64

	cbMu sync.Mutex
	cbs  Callbacks

	seek     *SeekCoordinator
	saver    *ProgressSaver
	watched  *WatchedDetector
	skipper  *SegmentSkipper
	controls *ControlsMachine

	subTimer *time.Timer
	swapCh   chan swapRequest
	done     chan struct{}
	loopDone chan struct{}
	now      func() time.Time
}

// swapRequest asks the loop goroutine to rebind the session to a new video.
// Routing the swap through the loop keeps event dispatch and the video id
// change on one goroutine: every event already queued is handled under the
// old video before the id moves.
type swapRequest struct {
	ctx   context.Context
	video *domain.Video
	src   string
	errCh chan error
}

func newSession(video *domain.Video, engine Engine, opts Options) *Session {
	s := &Session{
		engine: engine,
		opts:   opts,
		video:  video,
		cbs: Callbacks{
			OnWatched: opts.OnWatched,
			OnEnded:   opts.OnEnded,
			OnError:   opts.OnError,
		},
		seek:          NewSeekCoordinator(),
		watched:       NewWatchedDetector(nil),
		skipper:       NewSegmentSkipper(opts.SkipCategories),
		controls:      NewControlsMachine(opts.Device),
		controlsShown: true,
		swapCh:        make(chan swapRequest),
		done:          make(chan struct{}),
		loopDone:      make(chan struct{}),
		now:           time.Now,
	}
	// The saver is bound to the video id at creation.  A video swap replaces
	// the saver wholesale, so a timer armed for the previous video can never
	// write under the new video's id.
	s.saver = NewProgressSaver(s.positionSink(video.ID))
	return s
}

// SetCallbacks replaces the owner-facing callbacks.  Safe while the session
// is live; handlers read the new values on their next invocation.
func (s *Session) SetCallbacks(cbs Callbacks) {
	s.cbMu.Lock()
	s.cbs = cbs
	s.cbMu.Unlock()
}

// Status returns a snapshot of the current playback state
func (s *Session) Status() SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionStatus{
		VideoID:         s.video.ID,
		Position:        s.current,
		Duration:        s.duration,
		Playing:         s.playing,
		Buffering:       s.buffering,
		Watched:         s.watched.Fired() || s.video.Watched,
		ControlsVisible: s.controls.State() == ControlsVisible,
		Fullscreen:      s.fullscreen,
	}
}

// UserActive signals fresh user input (a key press, a touch) to the control
// visibility machine
func (s *Session) UserActive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unbound {
		return
	}
	trigger := TriggerPointerActive
	if s.opts.Device.TouchPrimary {
		trigger = TriggerTouch
	}
	s.controls.Handle(trigger, s.now())
	s.applyControlsLocked()
}

// SeekBy moves the playhead relative to the current position, subject to the
// seek coordinator's snap-back and settle policies
func (s *Session) SeekBy(delta float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unbound {
		return
	}
	target := s.current + delta
	if target < 0 {
		target = 0
	}
	s.requestSeekLocked(target)
}

// TogglePause flips the engine's pause state
func (s *Session) TogglePause() {
	s.mu.Lock()
	playing := s.playing
	unbound := s.unbound
	s.mu.Unlock()
	if unbound {
		return
	}
	if err := s.engine.SetPaused(playing); err != nil {
		log.Warn("Failed to toggle pause", "error", err)
	}
}

// SetFullscreen forwards a fullscreen change to the engine.  The resulting
// state change flows back through the event stream.
func (s *Session) SetFullscreen(on bool) {
	s.mu.Lock()
	unbound := s.unbound
	s.mu.Unlock()
	if unbound {
		return
	}
	if err := s.engine.SetFullscreen(on); err != nil {
		log.Warn("Failed to set fullscreen", "error", err)
	}
}

// SetSpeed forwards a playback speed change to the engine
func (s *Session) SetSpeed(speed float64) {
	s.mu.Lock()
	unbound := s.unbound
	s.mu.Unlock()
	if unbound || speed <= 0 {
		return
	}
	if err := s.engine.SetSpeed(speed); err != nil {
		log.Warn("Failed to set playback speed", "error", err)
	}
}

// loop is the session's single dispatch goroutine.  All component logic runs
// here in engine-emission order; the ticker only exists to expire the
// controls hide timer while no events flow (e.g. paused).
func (s *Session) loop() {
	defer close(s.loopDone)

	ticker := time.NewTicker(controlsTickInterval)
	defer ticker.Stop()

	events := s.engine.Events()
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-events:
			if !ok {
				log.Debug("Engine event channel closed")
				return
			}
			s.handleEvent(ev)
		case req := <-s.swapCh:
			// Drain first: anything the engine queued before the swap still
			// belongs to the old video and must be dispatched under its id
			s.drainEvents(events)
			req.errCh <- s.applySwap(req.ctx, req.video, req.src)
		case <-ticker.C:
			s.expireControls()
		}
	}
}

// drainEvents dispatches every event already buffered in the engine channel
// without blocking for new ones
func (s *Session) drainEvents(events <-chan Event) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.handleEvent(ev)
		default:
			return
		}
	}
}

func (s *Session) expireControls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unbound {
		return
	}
	if s.controls.Expire(s.now()) {
		s.applyControlsLocked()
	}
}

// handleEvent dispatches one engine event.  Owner callbacks are collected
// under the lock and fired after it is released so a callback may safely
// call back into the session.
func (s *Session) handleEvent(ev Event) {
	var fires []func()

	s.mu.Lock()
	if s.unbound {
		s.mu.Unlock()
		return
	}

	switch ev.Type {
	case EventFileLoaded:
		fires = s.onFileLoaded(ev)
	case EventTimeUpdate:
		fires = s.onTimeUpdate(ev)
	case EventSeekComplete:
		s.seeking = false
		if s.opts.PersistProgress {
			s.saver.SaveNow(s.current)
		}
	case EventPaused:
		s.playing = false
		if s.opts.PersistProgress {
			s.saver.SaveNow(s.current)
		}
		s.controls.Handle(TriggerPause, s.now())
		s.applyControlsLocked()
	case EventUnpaused:
		s.playing = true
		s.controls.Handle(TriggerPlay, s.now())
		s.applyControlsLocked()
	case EventBuffering:
		s.buffering = ev.Buffering
	case EventFullscreen:
		s.fullscreen = ev.Fullscreen
		trigger := TriggerFullscreenExit
		if ev.Fullscreen {
			trigger = TriggerFullscreenEnter
		}
		s.controls.Handle(trigger, s.now())
		s.applyControlsLocked()
	case EventEnded:
		if !s.endedFired {
			s.endedFired = true
			s.playing = false
			if s.opts.PersistProgress {
				s.saver.SaveNow(s.current)
			}
			if cb := s.callbacks().OnEnded; cb != nil {
				fires = append(fires, cb)
			}
		}
	case EventError:
		code := ev.Code
		msg := playbackErrorMessage(code, s.opts.Device)
		log.Error("Playback error", "video_id", s.video.ID, "code", code, "message", msg)
		if cb := s.callbacks().OnError; cb != nil {
			fires = append(fires, func() { cb(code, msg) })
		}
	}
	s.mu.Unlock()

	for _, fire := range fires {
		fire()
	}
}

// onFileLoaded computes the resume point and arms the deferred subtitle
// probe.  Resume only happens when the persisted position is past the
// just-started noise floor and not into the effectively-finished tail.
func (s *Session) onFileLoaded(ev Event) []func() {
	s.duration = ev.Duration

	resume := float64(s.video.PlaybackSeconds)
	if shouldResume(resume, s.duration) {
		log.Info("Resuming playback", "video_id", s.video.ID, "position", resume)
		s.requestSeekLocked(resume)
	}

	if s.opts.PlaybackSpeed > 0 && s.opts.PlaybackSpeed != 1.0 {
		if err := s.engine.SetSpeed(s.opts.PlaybackSpeed); err != nil {
			log.Warn("Failed to apply playback speed", "error", err)
		}
	}

	s.armSubtitleProbe()
	return nil
}

// onTimeUpdate is the per-tick dispatch: watched detection, segment skip,
// debounced progress save.  Skipped entirely mid-seek so a seek in flight
// cannot trigger skips or checkpoint writes from transient positions.
func (s *Session) onTimeUpdate(ev Event) []func() {
	var fires []func()

	s.current = ev.Position
	if !s.playing || s.seeking {
		return nil
	}

	if s.watched.OnTick(s.current, s.duration) {
		log.Info("Watched threshold crossed", "video_id", s.video.ID)
		if s.opts.PersistProgress {
			s.persistWatched(s.video.ID)
		}
		if cb := s.callbacks().OnWatched; cb != nil {
			fires = append(fires, cb)
		}
	}

	if target, ok := s.skipper.Check(s.current, s.video.Segments, s.now()); ok {
		log.Info("Skipping segment", "video_id", s.video.ID, "from", s.current, "to", target)
		s.requestSeekLocked(target)
	}

	if s.opts.PersistProgress {
		s.saver.Schedule(s.current)
	}

	return fires
}

// requestSeekLocked routes a seek through the coordinator.  Callers hold s.mu.
func (s *Session) requestSeekLocked(target float64) {
	adjusted, ok := s.seek.Request(target, s.now())
	if !ok {
		log.Debug("Seek dropped inside settle window", "target", target)
		return
	}
	s.seeking = true
	if err := s.engine.Seek(adjusted); err != nil {
		log.Warn("Seek failed", "target", adjusted, "error", err)
		s.seeking = false
	}
}

// applyControlsLocked pushes the machine's state to the engine when it changed
func (s *Session) applyControlsLocked() {
	visible := s.controls.State() == ControlsVisible
	if visible == s.controlsShown {
		return
	}
	s.controlsShown = visible
	if err := s.engine.SetControlsVisible(visible); err != nil {
		log.Warn("Failed to update controls visibility", "visible", visible, "error", err)
	}
}

func (s *Session) armSubtitleProbe() {
	if s.opts.FindSubtitle == nil {
		return
	}
	source := s.video.SourceURL
	s.subTimer = time.AfterFunc(subtitleProbeDelay, func() {
		select {
		case <-s.done:
			return
		default:
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		subURL, ok := s.opts.FindSubtitle(ctx, source)
		if !ok {
			return
		}
		log.Debug("Discovered subtitle track", "url", subURL)
		if err := s.engine.AddSubtitle(subURL); err != nil {
			log.Warn("Failed to add subtitle track", "error", err)
		}
	})
}

// positionSink builds the saver's persist function, bound to one video id
func (s *Session) positionSink(videoID string) func(seconds float64) {
	return func(seconds float64) {
		s.flushPosition(videoID, seconds)
	}
}

// flushPosition writes one position checkpoint.  Failures are logged and
// swallowed: losing a single checkpoint is an acceptable degradation and the
// next debounce cycle tries again.
func (s *Session) flushPosition(videoID string, seconds float64) {
	if !s.opts.PersistProgress || s.opts.Persist == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	playback := int(seconds)
	err := s.opts.Persist(ctx, videoID, &domain.VideoStateUpdate{PlaybackSeconds: &playback})
	if err != nil {
		log.Warn("Failed to persist playback position", "video_id", videoID, "seconds", playback, "error", err)
		return
	}
	s.persistMu.Lock()
	s.lastPersisted = seconds
	s.persistMu.Unlock()
}

// persistWatched fires the watched mutation without blocking the event loop.
// Exactly-once is guaranteed by the detector's monotonic flag, not here.
func (s *Session) persistWatched(videoID string) {
	if s.opts.Persist == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		watched := true
		if err := s.opts.Persist(ctx, videoID, &domain.VideoStateUpdate{Watched: &watched}); err != nil {
			log.Warn("Failed to persist watched state", "video_id", videoID, "error", err)
		}
	}()
}

// swapVideo rebinds the session to a new video while keeping the engine.
// The swap itself runs on the loop goroutine: that fences it against events
// the engine queued before the swap, which would otherwise be dispatched
// after the id change and persist the old video's position under the new id.
func (s *Session) swapVideo(ctx context.Context, video *domain.Video, src string) error {
	req := swapRequest{ctx: ctx, video: video, src: src, errCh: make(chan error, 1)}
	select {
	case s.swapCh <- req:
	case <-s.done:
		return errors.New("session already unbound")
	}
	select {
	case err := <-req.errCh:
		return err
	case <-s.done:
		return errors.New("session already unbound")
	}
}

// applySwap performs the rebind.  Runs on the loop goroutine only, after the
// pending events were drained.  Ordering matters: flush and cancel everything
// belonging to the old video before its id is replaced, so no stale timer can
// write the old position under the new id.
func (s *Session) applySwap(ctx context.Context, video *domain.Video, src string) error {
	s.mu.Lock()
	if s.unbound {
		s.mu.Unlock()
		return errors.New("session already unbound")
	}

	s.saver.Stop()
	if s.subTimer != nil {
		s.subTimer.Stop()
		s.subTimer = nil
	}
	oldID := s.video.ID
	oldCurrent := s.current
	oldPersist := s.opts.PersistProgress

	s.watched.Reset()
	s.skipper.Reset()
	s.seek.Reset()
	s.controls.Reset()
	s.controlsShown = true
	s.current = 0
	s.duration = 0
	s.playing = false
	s.buffering = false
	s.seeking = false
	s.endedFired = false
	s.video = video
	s.saver = NewProgressSaver(s.positionSink(video.ID))
	s.mu.Unlock()

	s.persistMu.Lock()
	s.lastPersisted = 0
	s.persistMu.Unlock()

	// Final flush for the old video, outside the lock.  Its saver is already
	// stopped, so this is the old id's last write.
	if oldPersist {
		s.flushPosition(oldID, oldCurrent)
	}

	if err := s.engine.Load(ctx, src); err != nil {
		return fmt.Errorf("failed to load source into engine: %w", err)
	}
	return nil
}

// unbind tears the session down: dispatch stops, timers are cancelled, and
// one final synchronous-as-possible progress flush is attempted
func (s *Session) unbind(stopEngine bool) {
	s.mu.Lock()
	if s.unbound {
		s.mu.Unlock()
		return
	}
	s.unbound = true
	close(s.done)
	if s.subTimer != nil {
		s.subTimer.Stop()
		s.subTimer = nil
	}
	current := s.current
	videoID := s.video.ID
	persist := s.opts.PersistProgress
	saver := s.saver
	s.mu.Unlock()

	<-s.loopDone

	saver.Stop()
	if persist {
		s.flushPosition(videoID, current)
	}

	if stopEngine {
		if err := s.engine.Stop(); err != nil {
			log.Warn("Failed to stop engine", "error", err)
		}
	}
	log.Info("Unbound playback session", "video_id", videoID)
}

// close releases a session that never went live (engine load failed before
// the loop started)
func (s *Session) close() {
	s.mu.Lock()
	if s.unbound {
		s.mu.Unlock()
		return
	}
	s.unbound = true
	close(s.done)
	s.mu.Unlock()
	s.saver.Stop()
}

func (s *Session) callbacks() Callbacks {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	return s.cbs
}

// shouldResume implements the resume window: positions under the noise floor
// or inside the final stretch restart from zero
func shouldResume(resume, duration float64) bool {
	if duration <= 0 {
		return false
	}
	return resume >= resumeMinSeconds && resume < duration*resumeMaxFraction
}

// playbackErrorMessage maps engine error codes to the user-facing messages
// shared with the archive's web player
func playbackErrorMessage(code int, device Device) string {
	switch code {
	case ErrCodeAborted:
		return "loading aborted"
	case ErrCodeNetwork:
		return "network error during load"
	case ErrCodeDecode:
		return "decode failure / corrupt file"
	case ErrCodeUnsupported:
		msg := "format unsupported"
		if device.AppleMobile {
			msg += " (try opening the video in the platform browser)"
		}
		return msg
	default:
		return fmt.Sprintf("unknown playback error (code %d)", code)
	}
}
