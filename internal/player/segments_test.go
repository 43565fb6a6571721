package player

import (
	"testing"
	"time"

	"github.com/Karasuhime/yozora/internal/domain"
	"github.com/stretchr/testify/assert"
)

func sponsorSegments() []domain.Segment {
	return []domain.Segment{
		{Start: 10, End: 20, Category: "sponsor"},
	}
}

func TestSegmentSkipperSkipsAtSegmentStart(t *testing.T) {
	s := NewSegmentSkipper([]string{"sponsor"})

	target, ok := s.Check(10.0, sponsorSegments(), time.Now())
	assert.True(t, ok)
	assert.Equal(t, 20.0, target)
}

func TestSegmentSkipperEndBuffer(t *testing.T) {
	s := NewSegmentSkipper([]string{"sponsor"})

	// Within half a second of the segment end no skip is issued, avoiding
	// oscillation around the boundary
	_, ok := s.Check(19.6, sponsorSegments(), time.Now())
	assert.False(t, ok)

	target, ok := s.Check(19.4, sponsorSegments(), time.Now())
	assert.True(t, ok)
	assert.Equal(t, 20.0, target)
}

func TestSegmentSkipperOutsideSegment(t *testing.T) {
	s := NewSegmentSkipper([]string{"sponsor"})

	_, ok := s.Check(9.9, sponsorSegments(), time.Now())
	assert.False(t, ok)
	_, ok = s.Check(20.0, sponsorSegments(), time.Now())
	assert.False(t, ok)
}

func TestSegmentSkipperCooldown(t *testing.T) {
	segments := []domain.Segment{
		{Start: 10, End: 20, Category: "sponsor"},
		{Start: 21, End: 30, Category: "sponsor"},
	}
	s := NewSegmentSkipper([]string{"sponsor"})
	now := time.Now()

	_, ok := s.Check(10.0, segments, now)
	assert.True(t, ok)

	// Landing inside the second segment within the cooldown triggers nothing
	_, ok = s.Check(21.0, segments, now.Add(500*time.Millisecond))
	assert.False(t, ok)

	// Past the cooldown the second segment skips normally
	target, ok := s.Check(21.0, segments, now.Add(2500*time.Millisecond))
	assert.True(t, ok)
	assert.Equal(t, 30.0, target)
}

func TestSegmentSkipperOverlappingSegmentsFirstMatchWins(t *testing.T) {
	segments := []domain.Segment{
		{Start: 10, End: 20, Category: "sponsor"},
		{Start: 15, End: 40, Category: "sponsor"},
	}
	s := NewSegmentSkipper([]string{"sponsor"})

	target, ok := s.Check(16.0, segments, time.Now())
	assert.True(t, ok)
	assert.Equal(t, 20.0, target)
}

func TestSegmentSkipperCategoryFilter(t *testing.T) {
	segments := []domain.Segment{
		{Start: 10, End: 20, Category: "intro"},
	}
	s := NewSegmentSkipper([]string{"sponsor"})

	_, ok := s.Check(12.0, segments, time.Now())
	assert.False(t, ok)

	both := NewSegmentSkipper([]string{"sponsor", "intro"})
	target, ok := both.Check(12.0, segments, time.Now())
	assert.True(t, ok)
	assert.Equal(t, 20.0, target)
}

func TestSegmentSkipperReset(t *testing.T) {
	s := NewSegmentSkipper([]string{"sponsor"})
	now := time.Now()

	_, ok := s.Check(10.0, sponsorSegments(), now)
	assert.True(t, ok)

	s.Reset()

	// Cooldown cleared: an immediate re-entry skips again
	_, ok = s.Check(10.0, sponsorSegments(), now.Add(time.Millisecond))
	assert.True(t, ok)
}
