package player

import "time"

// controlsHideDelay is how long the controls stay up after the trigger that
// armed the hide timer
const controlsHideDelay = 2 * time.Second

// ControlsState is the visibility state of the engine's on-screen controls
type ControlsState string

const (
	ControlsVisible    ControlsState = "visible"
	ControlsAutoHidden ControlsState = "auto-hidden"
)

// ControlsTrigger is a named input to the control visibility state machine.
// Modelling the inputs explicitly keeps the hide windows unit-testable with
// synthetic trigger sequences instead of a real engine and real timers.
type ControlsTrigger string

const (
	TriggerPlay            ControlsTrigger = "play"
	TriggerPause           ControlsTrigger = "pause"
	TriggerTouch           ControlsTrigger = "touch"
	TriggerPointerActive   ControlsTrigger = "pointer-active"
	TriggerFullscreenEnter ControlsTrigger = "fullscreen-enter"
	TriggerFullscreenExit  ControlsTrigger = "fullscreen-exit"
)

// ControlsMachine decides when on-screen transport controls are shown or
// auto-hidden.  Policies differ by device class:
//
//   - Touch device, not fullscreen: always visible, no hide timer runs.
//   - Touch device, fullscreen: fullscreen entry, touch input or a play
//     event arms the hide timer; it only expires while playback is active.
//     Pause or leaving fullscreen cancels the timer and forces visible.
//   - Pointer device: a pause event arms the hide timer so controls hide
//     even while paused, deliberately overriding the engine's default
//     always-show-while-paused behaviour.  Play or user activity while
//     paused cancels or re-arms.
//
// The machine is pure: transitions take explicit timestamps, and the owner
// polls Expire to apply deadline passage.
type ControlsMachine struct {
	device     Device
	state      ControlsState
	deadline   time.Time // zero when no hide timer is armed
	playing    bool
	fullscreen bool
}

// NewControlsMachine creates a machine in the visible state for the given device
func NewControlsMachine(device Device) *ControlsMachine {
	return &ControlsMachine{
		device: device,
		state:  ControlsVisible,
	}
}

// State returns the current visibility state
func (m *ControlsMachine) State() ControlsState {
	return m.state
}

// Handle feeds one trigger into the machine at the given time
func (m *ControlsMachine) Handle(tr ControlsTrigger, now time.Time) {
	switch tr {
	case TriggerPlay:
		m.playing = true
	case TriggerPause:
		m.playing = false
	case TriggerFullscreenEnter:
		m.fullscreen = true
	case TriggerFullscreenExit:
		m.fullscreen = false
	}

	if m.device.TouchPrimary {
		m.handleTouch(tr, now)
	} else {
		m.handlePointer(tr, now)
	}
}

func (m *ControlsMachine) handleTouch(tr ControlsTrigger, now time.Time) {
	if !m.fullscreen {
		// Outside fullscreen the controls never hide on touch devices
		m.show()
		return
	}

	switch tr {
	case TriggerFullscreenEnter, TriggerTouch, TriggerPlay:
		m.state = ControlsVisible
		m.deadline = now.Add(controlsHideDelay)
	case TriggerPause:
		m.show()
	}
}

func (m *ControlsMachine) handlePointer(tr ControlsTrigger, now time.Time) {
	switch tr {
	case TriggerPause:
		m.state = ControlsVisible
		m.deadline = now.Add(controlsHideDelay)
	case TriggerPlay:
		m.show()
	case TriggerPointerActive:
		if m.playing {
			// While playing the engine's own auto-hide applies
			m.show()
		} else {
			m.state = ControlsVisible
			m.deadline = now.Add(controlsHideDelay)
		}
	}
}

// Expire applies deadline passage and reports whether the state changed.
// The session loop drives this from its ticker.
func (m *ControlsMachine) Expire(now time.Time) bool {
	if m.deadline.IsZero() || now.Before(m.deadline) {
		return false
	}

	// An armed deadline on a touch device only fires during active playback
	if m.device.TouchPrimary && !m.playing {
		m.deadline = time.Time{}
		return false
	}

	m.deadline = time.Time{}
	if m.state == ControlsAutoHidden {
		return false
	}
	m.state = ControlsAutoHidden
	return true
}

// Reset cancels any pending hide timer and returns to visible.  Called on
// session teardown and video changes.
func (m *ControlsMachine) Reset() {
	m.show()
	m.playing = false
	m.fullscreen = false
}

func (m *ControlsMachine) show() {
	m.state = ControlsVisible
	m.deadline = time.Time{}
}
