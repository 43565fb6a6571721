package player

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWatchedDetectorFiresOncePastThreshold(t *testing.T) {
	fired := 0
	d := NewWatchedDetector(func() { fired++ })

	assert.False(t, d.OnTick(50, 100))
	assert.True(t, d.OnTick(90, 100))

	// Many further ticks past the threshold stay no-ops
	for i := 0; i < 10; i++ {
		assert.False(t, d.OnTick(95, 100))
	}
	assert.Equal(t, 1, fired)
	assert.True(t, d.Fired())
}

func TestWatchedDetectorExactThreshold(t *testing.T) {
	d := NewWatchedDetector(nil)

	assert.False(t, d.OnTick(89.999, 100))
	assert.True(t, d.OnTick(90.0, 100))
}

func TestWatchedDetectorUnknownDuration(t *testing.T) {
	d := NewWatchedDetector(nil)

	// Metadata not loaded yet: duration 0 or NaN must never fire
	assert.False(t, d.OnTick(1000, 0))
	assert.False(t, d.OnTick(1000, math.NaN()))
	assert.False(t, d.Fired())
}

func TestWatchedDetectorReset(t *testing.T) {
	fired := 0
	d := NewWatchedDetector(func() { fired++ })

	assert.True(t, d.OnTick(95, 100))
	d.Reset()
	assert.False(t, d.Fired())

	// A new video can fire the detector again
	assert.True(t, d.OnTick(95, 100))
	assert.Equal(t, 2, fired)
}
