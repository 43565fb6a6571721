//go:build windows

package player

import (
	"context"
	"fmt"
	"os/exec"
	"syscall"

	"github.com/Karasuhime/yozora/internal/log"
	"gopkg.in/natefinch/npipe.v2"
)

// setupEngineProcess configures the process for detached execution
func setupEngineProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// releaseEngineProcess handles post-start process management
func releaseEngineProcess(cmd *exec.Cmd) error {
	// Windows doesn't need explicit process release
	return nil
}

// Connect establishes a connection with mpv over a named pipe
func (c *mpvIPCClient) Connect(ctx context.Context) error {
	log.Debug("Connecting to Windows named pipe", "path", c.socketPath)

	conn, err := npipe.Dial(c.socketPath)
	if err != nil {
		return fmt.Errorf("failed to connect to mpv pipe: %w", err)
	}

	c.conn = conn
	go c.readEvents()
	return nil
}
