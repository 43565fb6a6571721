package player

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	touchDevice   = Device{TouchPrimary: true}
	pointerDevice = Device{}
)

func TestControlsTouchNeverHideOutsideFullscreen(t *testing.T) {
	m := NewControlsMachine(touchDevice)
	now := time.Now()

	m.Handle(TriggerPlay, now)
	assert.Equal(t, ControlsVisible, m.State())

	// No deadline is armed, so no amount of elapsed time hides the controls
	assert.False(t, m.Expire(now.Add(time.Hour)))
	assert.Equal(t, ControlsVisible, m.State())
}

func TestControlsTouchFullscreenAutoHide(t *testing.T) {
	m := NewControlsMachine(touchDevice)
	now := time.Now()

	m.Handle(TriggerPlay, now)
	m.Handle(TriggerFullscreenEnter, now)
	assert.Equal(t, ControlsVisible, m.State())

	// Before the hide delay nothing happens
	assert.False(t, m.Expire(now.Add(time.Second)))
	assert.Equal(t, ControlsVisible, m.State())

	// After the delay with playback active the controls hide
	assert.True(t, m.Expire(now.Add(2100*time.Millisecond)))
	assert.Equal(t, ControlsAutoHidden, m.State())
}

func TestControlsTouchFullscreenTouchRearms(t *testing.T) {
	m := NewControlsMachine(touchDevice)
	now := time.Now()

	m.Handle(TriggerPlay, now)
	m.Handle(TriggerFullscreenEnter, now)

	// Touch input just before expiry re-arms the timer
	m.Handle(TriggerTouch, now.Add(1900*time.Millisecond))
	assert.False(t, m.Expire(now.Add(2100*time.Millisecond)))
	assert.Equal(t, ControlsVisible, m.State())

	assert.True(t, m.Expire(now.Add(4*time.Second)))
	assert.Equal(t, ControlsAutoHidden, m.State())
}

func TestControlsTouchFullscreenPauseForcesVisible(t *testing.T) {
	m := NewControlsMachine(touchDevice)
	now := time.Now()

	m.Handle(TriggerPlay, now)
	m.Handle(TriggerFullscreenEnter, now)
	m.Handle(TriggerPause, now.Add(time.Second))

	// Pause cancelled the timer; the old deadline passing changes nothing
	assert.False(t, m.Expire(now.Add(time.Hour)))
	assert.Equal(t, ControlsVisible, m.State())
}

func TestControlsTouchFullscreenTimerInertWhilePaused(t *testing.T) {
	m := NewControlsMachine(touchDevice)
	now := time.Now()

	m.Handle(TriggerFullscreenEnter, now)
	// Playback never started: the armed deadline must not hide the controls
	assert.False(t, m.Expire(now.Add(3*time.Second)))
	assert.Equal(t, ControlsVisible, m.State())
}

func TestControlsTouchFullscreenExitForcesVisible(t *testing.T) {
	m := NewControlsMachine(touchDevice)
	now := time.Now()

	m.Handle(TriggerPlay, now)
	m.Handle(TriggerFullscreenEnter, now)
	assert.True(t, m.Expire(now.Add(3*time.Second)))

	m.Handle(TriggerFullscreenExit, now.Add(4*time.Second))
	assert.Equal(t, ControlsVisible, m.State())
}

func TestControlsPointerHidesWhilePaused(t *testing.T) {
	m := NewControlsMachine(pointerDevice)
	now := time.Now()

	m.Handle(TriggerPlay, now)
	m.Handle(TriggerPause, now.Add(time.Second))
	assert.Equal(t, ControlsVisible, m.State())

	// Deliberate override of the engine's always-show-while-paused default
	assert.True(t, m.Expire(now.Add(3100*time.Millisecond)))
	assert.Equal(t, ControlsAutoHidden, m.State())
}

func TestControlsPointerActivityWhilePausedRearms(t *testing.T) {
	m := NewControlsMachine(pointerDevice)
	now := time.Now()

	m.Handle(TriggerPause, now)
	assert.True(t, m.Expire(now.Add(2100*time.Millisecond)))

	// Mouse movement brings the controls back and arms a fresh timer
	m.Handle(TriggerPointerActive, now.Add(3*time.Second))
	assert.Equal(t, ControlsVisible, m.State())
	assert.False(t, m.Expire(now.Add(4*time.Second)))
	assert.True(t, m.Expire(now.Add(5100*time.Millisecond)))
}

func TestControlsPointerPlayCancelsHideTimer(t *testing.T) {
	m := NewControlsMachine(pointerDevice)
	now := time.Now()

	m.Handle(TriggerPause, now)
	m.Handle(TriggerPlay, now.Add(time.Second))

	assert.False(t, m.Expire(now.Add(time.Hour)))
	assert.Equal(t, ControlsVisible, m.State())
}

func TestControlsResetCancelsPendingTimer(t *testing.T) {
	m := NewControlsMachine(pointerDevice)
	now := time.Now()

	m.Handle(TriggerPause, now)
	m.Reset()

	assert.False(t, m.Expire(now.Add(time.Hour)))
	assert.Equal(t, ControlsVisible, m.State())
}
