package player

import (
	"time"

	"github.com/Karasuhime/yozora/internal/domain"
)

const (
	// segmentEndBuffer stops skips being issued when the playhead is already
	// within half a second of a segment's end, avoiding skip/overshoot
	// oscillation near boundaries
	segmentEndBuffer = 0.5
	// skipCooldown is the minimum gap between two skips.  Protects against a
	// pathological configuration of overlapping or zero-length segments
	// causing a skip storm.
	skipCooldown = 2 * time.Second
)

// SegmentSkipper decides, on each playback tick, whether the playhead should
// jump past a skippable segment.  The scan is linear first-match; segment
// counts are single digits in practice so no interval lookup is needed.
type SegmentSkipper struct {
	categories map[string]bool // nil means skip every category
	lastSkip   time.Time
}

// NewSegmentSkipper creates a skipper limited to the given categories.
// An empty category list skips nothing.
func NewSegmentSkipper(categories []string) *SegmentSkipper {
	cats := make(map[string]bool, len(categories))
	for _, c := range categories {
		cats[c] = true
	}
	return &SegmentSkipper{categories: cats}
}

// Check returns the seek target (the segment's end) when the current
// position sits inside a skippable segment, subject to the end buffer and
// the cooldown.  Overlapping or unsorted segment lists are tolerated: the
// first match in list order wins.
func (s *SegmentSkipper) Check(current float64, segments []domain.Segment, now time.Time) (float64, bool) {
	if len(segments) == 0 {
		return 0, false
	}
	if !s.lastSkip.IsZero() && now.Sub(s.lastSkip) < skipCooldown {
		return 0, false
	}

	for _, seg := range segments {
		if !s.categories[seg.Category] {
			continue
		}
		if current >= seg.Start && current < seg.End-segmentEndBuffer {
			s.lastSkip = now
			return seg.End, true
		}
	}

	return 0, false
}

// Reset clears the cooldown.  Called when the bound video changes.
func (s *SegmentSkipper) Reset() {
	s.lastSkip = time.Time{}
}
