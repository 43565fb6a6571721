package player

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/Karasuhime/yozora/internal/log"
)

// mpvIPCClient speaks mpv's JSON IPC protocol over the control socket
type mpvIPCClient struct {
	socketPath string
	conn       net.Conn
	events     chan mpvMessage
}

// mpvMessage is one line of mpv's JSON IPC stream.  Events and command
// replies share the same framing; property changes carry Name/Data, end-file
// carries Reason/FileError.
type mpvMessage struct {
	Event     string          `json:"event"`
	ID        int             `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	FileError string          `json:"file_error,omitempty"`
	RequestID int             `json:"request_id,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func newMPVIPCClient(socketPath string) *mpvIPCClient {
	return &mpvIPCClient{
		socketPath: socketPath,
		events:     make(chan mpvMessage, 100),
	}
}

// mpvSocketPath returns the path used for the mpv control socket
func mpvSocketPath() string {
	// Use environment variable if set
	if path := os.Getenv("YOZORA_MPV_SOCKET"); path != "" {
		return path
	}

	switch runtime.GOOS {
	case "windows":
		// Windows uses named pipes instead of unix sockets
		return fmt.Sprintf(`\\.\pipe\yozora-mpv-%d`, os.Getpid())
	default:
		name := fmt.Sprintf("yozora-mpv-%d.sock", os.Getpid())
		if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
			return filepath.Join(runtimeDir, name)
		}
		return filepath.Join(os.TempDir(), name)
	}
}

// WaitForConnection attempts to connect to mpv with retries.  mpv creates the
// socket some time after process start, so the first attempts usually fail.
func (c *mpvIPCClient) WaitForConnection(ctx context.Context, maxAttempts int, retryDelay time.Duration) error {
	log.Debug("Waiting for mpv to create socket", "socket_path", c.socketPath, "max_attempts", maxAttempts)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// Check if socket file exists for unix sockets
		if runtime.GOOS != "windows" {
			if _, err := os.Stat(c.socketPath); os.IsNotExist(err) {
				log.Debug("mpv socket does not exist yet", "attempt", attempt, "path", c.socketPath)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(retryDelay):
					continue
				}
			}
		}

		err := c.Connect(ctx)
		if err == nil {
			log.Info("Connected to mpv", "attempt", attempt)
			return nil
		}

		log.Debug("Failed to connect to mpv", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay):
			// Continue and retry
		}
	}

	return fmt.Errorf("failed to connect to mpv after %d attempts", maxAttempts)
}

// Close closes the connection to mpv
func (c *mpvIPCClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// readEvents continuously reads messages from mpv until the connection drops
func (c *mpvIPCClient) readEvents() {
	scanner := bufio.NewScanner(c.conn)
	for scanner.Scan() {
		line := scanner.Text()
		log.Trace("Raw mpv message", "data", line)

		var msg mpvMessage
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			log.Error("Failed to unmarshal mpv message", "error", err)
			continue
		}

		c.events <- msg
	}

	if err := scanner.Err(); err != nil {
		log.Error("Error reading from mpv socket", "error", err)
	}

	log.Debug("mpv event reader stopped")
	close(c.events)
}

// Events returns the channel of raw mpv messages
func (c *mpvIPCClient) Events() <-chan mpvMessage {
	return c.events
}

// SendCommand sends a command to mpv
func (c *mpvIPCClient) SendCommand(cmd []interface{}) error {
	if c.conn == nil {
		return fmt.Errorf("not connected to mpv")
	}

	cmdObj := map[string]interface{}{
		"command": cmd,
	}

	data, err := json.Marshal(cmdObj)
	if err != nil {
		return fmt.Errorf("failed to marshal command: %w", err)
	}

	data = append(data, '\n')
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}

	return nil
}

// ObserveProperty subscribes to change notifications for an mpv property
func (c *mpvIPCClient) ObserveProperty(id int, name string) error {
	return c.SendCommand([]interface{}{"observe_property", id, name})
}
