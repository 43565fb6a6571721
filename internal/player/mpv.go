package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/Karasuhime/yozora/internal/config"
	"github.com/Karasuhime/yozora/internal/log"
)

// MPVEngine drives an external mpv process over its JSON IPC socket and
// translates mpv's raw event stream into the typed Engine events the session
// manager consumes.
//
// The process is launched idle and stays alive across Load calls, so a
// playlist can swap videos without paying process startup again.
type MPVEngine struct {
	playerPath string
	extraArgs  string
	socketPath string

	ipc *mpvIPCClient
	cmd *exec.Cmd

	events chan Event
	quit   chan struct{}

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewMPVEngine creates an mpv-backed engine from player configuration.  The
// process is not launched until the first Load.
func NewMPVEngine(cfg *config.Config) *MPVEngine {
	socketPath := mpvSocketPath()
	return &MPVEngine{
		playerPath: cfg.Player.Path,
		extraArgs:  cfg.Player.Args,
		socketPath: socketPath,
		ipc:        newMPVIPCClient(socketPath),
		events:     make(chan Event, 64),
		quit:       make(chan struct{}),
	}
}

// Load starts the mpv process on first use, then loads the source URL,
// replacing whatever is currently playing
func (e *MPVEngine) Load(ctx context.Context, sourceURL string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return errors.New("engine already stopped")
	}
	if !e.started {
		if err := e.start(ctx); err != nil {
			return err
		}
		e.started = true
	}

	log.Info("Loading source into mpv", "url", sourceURL)
	return e.ipc.SendCommand([]interface{}{"loadfile", sourceURL, "replace"})
}

// start launches mpv idle with the IPC server enabled, waits for the control
// socket, and subscribes to the properties the session loop needs.  Callers
// hold e.mu.
func (e *MPVEngine) start(ctx context.Context) error {
	mpvPath := e.playerPath
	if mpvPath == "" {
		mpvPath = "mpv"
	}

	args := []string{
		"--no-terminal",                      // Disable terminal control
		"--idle=yes",                         // Stay alive between files
		"--keep-open=no",                     // Emit end-file when playback completes
		"--input-ipc-server=" + e.socketPath, // Set IPC socket path
	}
	if e.extraArgs != "" {
		args = append(args, ParseArgs(e.extraArgs)...)
	}

	cmd := exec.Command(mpvPath, args...)
	setupEngineProcess(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start mpv: %w", err)
	}
	e.cmd = cmd

	if err := releaseEngineProcess(cmd); err != nil {
		log.Warn("Failed to release mpv process", "error", err)
	}

	// Allow time for mpv to create the socket, then connect with retries
	time.Sleep(300 * time.Millisecond)
	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.ipc.WaitForConnection(connCtx, 20, 500*time.Millisecond); err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("failed to connect to mpv: %w", err)
	}

	for id, name := range map[int]string{
		1: "playback-time",
		2: "duration",
		3: "pause",
		4: "paused-for-cache",
		5: "fullscreen",
	} {
		if err := e.ipc.ObserveProperty(id, name); err != nil {
			log.Warn("Failed to observe mpv property", "property", name, "error", err)
		}
	}

	go e.translate()
	return nil
}

// Seek moves the playhead to an absolute position in seconds
func (e *MPVEngine) Seek(seconds float64) error {
	return e.ipc.SendCommand([]interface{}{"seek", seconds, "absolute"})
}

// SetPaused pauses or resumes playback
func (e *MPVEngine) SetPaused(paused bool) error {
	return e.ipc.SendCommand([]interface{}{"set_property", "pause", paused})
}

// SetSpeed sets the playback speed multiplier
func (e *MPVEngine) SetSpeed(speed float64) error {
	return e.ipc.SendCommand([]interface{}{"set_property", "speed", speed})
}

// SetFullscreen enters or leaves fullscreen presentation
func (e *MPVEngine) SetFullscreen(on bool) error {
	return e.ipc.SendCommand([]interface{}{"set_property", "fullscreen", on})
}

// SetControlsVisible toggles mpv's on-screen controller
func (e *MPVEngine) SetControlsVisible(visible bool) error {
	visibility := "never"
	if visible {
		visibility = "always"
	}
	return e.ipc.SendCommand([]interface{}{"script-message", "osc-visibility", visibility, "no_osd"})
}

// AddSubtitle attaches an external subtitle track without selecting it over
// an existing choice
func (e *MPVEngine) AddSubtitle(url string) error {
	return e.ipc.SendCommand([]interface{}{"sub-add", url, "auto"})
}

// Events returns the typed event stream.  Closed after Stop or when the mpv
// process goes away.
func (e *MPVEngine) Events() <-chan Event {
	return e.events
}

// Stop shuts mpv down and releases the socket
func (e *MPVEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return nil
	}
	e.stopped = true
	close(e.quit)

	if e.started {
		// Ask nicely first; the kill below covers an unresponsive process
		if err := e.ipc.SendCommand([]interface{}{"quit"}); err != nil {
			log.Debug("Failed to send quit command to mpv", "error", err)
		}
		_ = e.ipc.Close()
	}

	var killErr error
	if e.cmd != nil && e.cmd.Process != nil {
		log.Info("Stopping mpv")
		killErr = e.cmd.Process.Kill()
	}

	// Remove socket file if it exists (unix only)
	if _, err := os.Stat(e.socketPath); err == nil {
		if err := os.Remove(e.socketPath); err != nil {
			log.Warn("Failed to remove mpv socket file", "path", e.socketPath, "error", err)
		}
	}

	return killErr
}

// translate converts mpv's raw IPC messages into typed Engine events.  Runs
// until the IPC connection drops or Stop is called.
func (e *MPVEngine) translate() {
	defer close(e.events)

	var duration float64
	var loadedPending bool
	var paused bool

	// The pause property only fires on change, so after a file swap the
	// session would be left guessing at the play state.  Re-announce it
	// with every loaded event.
	emitLoaded := func() bool {
		if !e.emit(Event{Type: EventFileLoaded, Duration: duration}) {
			return false
		}
		t := EventUnpaused
		if paused {
			t = EventPaused
		}
		return e.emit(Event{Type: t})
	}

	for msg := range e.ipc.Events() {
		switch msg.Event {
		case "file-loaded":
			// mpv usually reports duration via the observed property shortly
			// after file-loaded; hold the loaded event until it arrives so
			// consumers always see a populated duration
			if duration > 0 {
				if !emitLoaded() {
					return
				}
			} else {
				loadedPending = true
			}

		case "property-change":
			var ok bool
			switch msg.Name {
			case "duration":
				if v, err := parseFloat(msg.Data); err == nil && v > 0 {
					duration = v
					if loadedPending {
						loadedPending = false
						ok = emitLoaded()
					} else {
						ok = true
					}
				} else {
					ok = true
				}
			case "playback-time":
				if v, err := parseFloat(msg.Data); err == nil {
					ok = e.emit(Event{Type: EventTimeUpdate, Position: v})
				} else {
					ok = true
				}
			case "pause":
				if v, err := parseBool(msg.Data); err == nil {
					paused = v
					t := EventUnpaused
					if paused {
						t = EventPaused
					}
					ok = e.emit(Event{Type: t})
				} else {
					ok = true
				}
			case "paused-for-cache":
				if buffering, err := parseBool(msg.Data); err == nil {
					ok = e.emit(Event{Type: EventBuffering, Buffering: buffering})
				} else {
					ok = true
				}
			case "fullscreen":
				if fullscreen, err := parseBool(msg.Data); err == nil {
					ok = e.emit(Event{Type: EventFullscreen, Fullscreen: fullscreen})
				} else {
					ok = true
				}
			default:
				ok = true
			}
			if !ok {
				return
			}

		case "playback-restart":
			// Fires after every seek lands (and at initial start, which the
			// session treats as a no-op seek completion)
			if !e.emit(Event{Type: EventSeekComplete}) {
				return
			}

		case "end-file":
			duration = 0
			loadedPending = false
			switch msg.Reason {
			case "eof":
				if !e.emit(Event{Type: EventEnded}) {
					return
				}
			case "error":
				log.Warn("mpv reported load failure", "file_error", msg.FileError)
				if !e.emit(Event{Type: EventError, Code: classifyMPVError(msg.FileError)}) {
					return
				}
			default:
				// "stop" and "quit": replaced by a new load or shutting down
			}

		case "shutdown":
			e.emit(Event{Type: EventShutdown})
			return
		}
	}

	e.emit(Event{Type: EventShutdown})
}

// emit delivers an event unless the engine was stopped.  Returns false when
// delivery was abandoned and the translator should exit.
func (e *MPVEngine) emit(ev Event) bool {
	select {
	case e.events <- ev:
		return true
	case <-e.quit:
		return false
	}
}

// classifyMPVError maps mpv's end-file error strings onto the shared
// playback error codes
func classifyMPVError(fileError string) int {
	s := strings.ToLower(fileError)
	switch {
	case strings.Contains(s, "unrecognized") || strings.Contains(s, "unsupported"):
		return ErrCodeUnsupported
	case strings.Contains(s, "corrupt") || strings.Contains(s, "decod"):
		return ErrCodeDecode
	case strings.Contains(s, "loading failed") || strings.Contains(s, "network") ||
		strings.Contains(s, "connect") || strings.Contains(s, "resolve"):
		return ErrCodeNetwork
	default:
		return ErrCodeAborted
	}
}

func parseFloat(data json.RawMessage) (float64, error) {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return 0, err
	}
	return v, nil
}

func parseBool(data json.RawMessage) (bool, error) {
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return false, err
	}
	return v, nil
}
