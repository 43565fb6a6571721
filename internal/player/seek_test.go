package player

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeekCoordinatorSnapBack(t *testing.T) {
	c := NewSeekCoordinator()
	now := time.Now()

	adjusted, ok := c.Request(50.0, now)
	assert.True(t, ok)
	assert.InDelta(t, 49.6, adjusted, 0.0001)
}

func TestSeekCoordinatorClampsAtZero(t *testing.T) {
	c := NewSeekCoordinator()

	adjusted, ok := c.Request(0.2, time.Now())
	assert.True(t, ok)
	assert.Equal(t, 0.0, adjusted)
}

func TestSeekCoordinatorSettleWindow(t *testing.T) {
	c := NewSeekCoordinator()
	now := time.Now()

	_, ok := c.Request(50.0, now)
	assert.True(t, ok)

	// A second request 50ms later lands inside the settle window and is dropped
	_, ok = c.Request(60.0, now.Add(50*time.Millisecond))
	assert.False(t, ok)

	// 150ms after the first request the window has passed
	adjusted, ok := c.Request(60.0, now.Add(150*time.Millisecond))
	assert.True(t, ok)
	assert.InDelta(t, 59.6, adjusted, 0.0001)
}

func TestSeekCoordinatorDroppedRequestsAreNotQueued(t *testing.T) {
	c := NewSeekCoordinator()
	now := time.Now()

	_, _ = c.Request(50.0, now)
	_, ok := c.Request(60.0, now.Add(20*time.Millisecond))
	assert.False(t, ok)

	// The dropped target must not resurface; the next accepted request is
	// whatever the caller asks for then
	adjusted, ok := c.Request(70.0, now.Add(200*time.Millisecond))
	assert.True(t, ok)
	assert.InDelta(t, 69.6, adjusted, 0.0001)
}

func TestSeekCoordinatorReset(t *testing.T) {
	c := NewSeekCoordinator()
	now := time.Now()

	_, _ = c.Request(50.0, now)
	c.Reset()

	// Immediately after a reset there is no settle window
	_, ok := c.Request(60.0, now.Add(time.Millisecond))
	assert.True(t, ok)
}
