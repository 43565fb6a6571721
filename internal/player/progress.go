package player

import (
	"sync"
	"time"
)

// defaultSaveWindow is the debounce quiet period for progress writes.
// Playback ticks arrive several times per second; only the last tick in any
// quiet period reaches the archive.
const defaultSaveWindow = 3 * time.Second

// ProgressSaver owns the debounce/immediate-save policy for a session's
// playback position.  The persist sink is expected to be an upsert, so
// redundant saves with the same value are safe.  Persist failures are the
// sink's problem to log and swallow; the saver never retries.
type ProgressSaver struct {
	mu      sync.Mutex
	timer   *time.Timer
	window  time.Duration
	persist func(seconds float64)
	stopped bool
}

// NewProgressSaver creates a saver that writes through the given sink
func NewProgressSaver(persist func(seconds float64)) *ProgressSaver {
	return &ProgressSaver{
		window:  defaultSaveWindow,
		persist: persist,
	}
}

// Schedule records the latest playback position and (re)starts the debounce
// timer.  The prior timer is always cancelled before a new one is set, so at
// most one write fires per quiet period, carrying the last scheduled value.
func (p *ProgressSaver) Schedule(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(p.window, func() {
		p.mu.Lock()
		if p.stopped {
			p.mu.Unlock()
			return
		}
		p.timer = nil
		p.mu.Unlock()

		p.persist(seconds)
	})
}

// SaveNow cancels any pending debounce and persists immediately.  Used on
// pause, seek completion and session teardown, where a pending debounce
// would otherwise be lost with the session.
func (p *ProgressSaver) SaveNow(seconds float64) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.mu.Unlock()

	p.persist(seconds)
}

// Stop cancels any pending write without persisting.  The saver accepts no
// further work afterwards.
func (p *ProgressSaver) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.stopped = true
}
