package player

import "math"

// watchedThreshold is the playback fraction past which a video counts as watched
const watchedThreshold = 0.9

// WatchedDetector fires a callback the first time playback crosses the
// watched threshold.  The flag is monotonic within a session: once fired it
// stays fired until Reset, which happens only when the bound video changes.
type WatchedDetector struct {
	fired     bool
	onWatched func()
}

// NewWatchedDetector creates a detector that invokes onWatched at most once
// per bound video
func NewWatchedDetector(onWatched func()) *WatchedDetector {
	return &WatchedDetector{onWatched: onWatched}
}

// OnTick evaluates the current playback fraction.  Returns true on the tick
// that crossed the threshold.  Never fires while the duration is unknown
// (zero or NaN) to guard against premature detection before metadata loads.
func (d *WatchedDetector) OnTick(current, duration float64) bool {
	if d.fired {
		return false
	}
	if duration <= 0 || math.IsNaN(duration) {
		return false
	}
	if current/duration < watchedThreshold {
		return false
	}

	d.fired = true
	if d.onWatched != nil {
		d.onWatched()
	}
	return true
}

// Fired reports whether the detector has already fired for the bound video
func (d *WatchedDetector) Fired() bool {
	return d.fired
}

// Reset clears the monotonic flag.  Called when the bound video's id changes.
func (d *WatchedDetector) Reset() {
	d.fired = false
}
