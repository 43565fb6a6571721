package player

import "context"

// EventType represents the type of event emitted by a media engine
type EventType string

const (
	// EventFileLoaded indicates the engine has loaded the file's metadata.
	// Duration is populated.
	EventFileLoaded EventType = "file-loaded"
	// EventTimeUpdate indicates the playback position changed.  Position is populated.
	EventTimeUpdate EventType = "time-update"
	// EventSeekComplete indicates a previously issued seek has finished
	EventSeekComplete EventType = "seek-complete"
	// EventPaused indicates playback was paused
	EventPaused EventType = "paused"
	// EventUnpaused indicates playback resumed
	EventUnpaused EventType = "unpaused"
	// EventBuffering indicates the engine is waiting on data.  Buffering is populated.
	EventBuffering EventType = "buffering"
	// EventFullscreen indicates the engine's fullscreen state changed.  Fullscreen is populated.
	EventFullscreen EventType = "fullscreen"
	// EventEnded indicates playback reached the end of the file
	EventEnded EventType = "ended"
	// EventError indicates playback failed.  Code is populated.
	EventError EventType = "error"
	// EventShutdown indicates the engine process is gone and no further events will arrive
	EventShutdown EventType = "shutdown"
)

// Playback error codes reported through EventError.  The numbering matches
// the media error codes used by the archive's own web player so the two
// clients present consistent messaging.
const (
	ErrCodeAborted     = 1
	ErrCodeNetwork     = 2
	ErrCodeDecode      = 3
	ErrCodeUnsupported = 4
)

// Event is a single typed event emitted by a media engine
type Event struct {
	Type       EventType
	Position   float64 // seconds, for EventTimeUpdate
	Duration   float64 // seconds, for EventFileLoaded
	Buffering  bool    // for EventBuffering
	Fullscreen bool    // for EventFullscreen
	Code       int     // for EventError
}

// Engine is the surface of a media engine the playback session manager
// drives.  The mpv adapter is the production implementation; tests use a
// synthetic engine that feeds scripted events.
type Engine interface {
	// Load starts (or replaces) playback of the given source URL
	Load(ctx context.Context, sourceURL string) error

	// Seek moves the playback position to the given absolute time in seconds
	Seek(seconds float64) error

	// SetPaused pauses or resumes playback
	SetPaused(paused bool) error

	// SetSpeed sets the playback speed multiplier
	SetSpeed(speed float64) error

	// SetControlsVisible shows or hides the engine's on-screen controls
	SetControlsVisible(visible bool) error

	// SetFullscreen enters or leaves fullscreen presentation
	SetFullscreen(on bool) error

	// AddSubtitle attaches an external subtitle track
	AddSubtitle(url string) error

	// Events returns the engine's event stream.  The channel is closed once
	// the engine shuts down.
	Events() <-chan Event

	// Stop terminates playback and releases the engine
	Stop() error
}
