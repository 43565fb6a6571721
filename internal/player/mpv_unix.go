//go:build !windows

package player

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"syscall"

	"github.com/Karasuhime/yozora/internal/log"
)

// setupEngineProcess configures the process for detached execution
func setupEngineProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// releaseEngineProcess handles post-start process management
func releaseEngineProcess(cmd *exec.Cmd) error {
	if cmd.Process != nil {
		return cmd.Process.Release()
	}
	return nil
}

// Connect establishes a connection with mpv over a unix domain socket
func (c *mpvIPCClient) Connect(ctx context.Context) error {
	log.Debug("Connecting to unix socket", "path", c.socketPath)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("failed to connect to mpv socket: %w", err)
	}

	c.conn = conn
	go c.readEvents()
	return nil
}
