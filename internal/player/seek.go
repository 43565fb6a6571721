package player

import (
	"time"
)

const (
	// defaultSnapBack shifts seek targets slightly backward so they land
	// before the nearest preceding keyframe more reliably, reducing decode
	// artifacts on seek
	defaultSnapBack = 0.4
	// defaultSettleWindow is how long after a seek further seek requests are
	// dropped to let the decoder stabilise
	defaultSettleWindow = 100 * time.Millisecond
)

// SeekCoordinator wraps every programmatic seek path (resume-on-load,
// segment skips, keyboard shortcuts) so the snap-back and settle policies
// are enforced centrally instead of per call site.
type SeekCoordinator struct {
	snapBack float64
	settle   time.Duration
	lastSeek time.Time
}

// NewSeekCoordinator creates a coordinator with the default policies
func NewSeekCoordinator() *SeekCoordinator {
	return &SeekCoordinator{
		snapBack: defaultSnapBack,
		settle:   defaultSettleWindow,
	}
}

// Request transforms a requested seek target into an adjusted target.
// Returns false when the request arrives inside the settle window of a
// previous seek; such requests are dropped, not queued.
func (c *SeekCoordinator) Request(target float64, now time.Time) (float64, bool) {
	if !c.lastSeek.IsZero() && now.Sub(c.lastSeek) < c.settle {
		return 0, false
	}

	adjusted := target - c.snapBack
	if adjusted < 0 {
		adjusted = 0
	}

	c.lastSeek = now
	return adjusted, true
}

// Reset clears the settle window, e.g. when a new video is bound
func (c *SeekCoordinator) Reset() {
	c.lastSeek = time.Time{}
}
