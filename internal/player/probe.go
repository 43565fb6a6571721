package player

import (
	"os"
	"runtime"
	"strconv"
	"sync"
)

// Device describes the coarse capabilities of the environment yozora is
// running in.  It drives the control visibility policy: touch-primary
// environments keep controls on screen, pointer environments auto-hide them.
type Device struct {
	// TouchPrimary indicates the primary input is a touch screen rather than
	// a pointer (e.g. running under Termux on a phone or tablet)
	TouchPrimary bool
	// AppleMobile indicates an Apple mobile platform.  Used to append a
	// platform-specific hint to unsupported-format errors.
	AppleMobile bool
}

var (
	probeOnce   sync.Once
	probeResult Device
)

// ProbeDevice classifies the runtime environment once per process and caches
// the result.  Device class does not change during a playback session, so
// re-probing is never required.
func ProbeDevice() Device {
	probeOnce.Do(func() {
		probeResult = classifyDevice(runtime.GOOS, os.Getenv)
	})
	return probeResult
}

// classifyDevice is the pure classification logic behind ProbeDevice.
// Environment overrides take precedence so users on unusual setups (e.g. a
// convertible laptop in tablet mode) can force a device class.
func classifyDevice(goos string, getenv func(string) string) Device {
	d := Device{}

	switch goos {
	case "android":
		d.TouchPrimary = true
	case "ios":
		d.TouchPrimary = true
		d.AppleMobile = true
	}

	// Termux identifies itself by env var rather than GOOS
	if getenv("TERMUX_VERSION") != "" {
		d.TouchPrimary = true
	}

	// iSH on iOS presents as linux/386, so offer an explicit override
	if v, err := strconv.ParseBool(getenv("YOZORA_TOUCH_DEVICE")); err == nil {
		d.TouchPrimary = v
	}
	if v, err := strconv.ParseBool(getenv("YOZORA_APPLE_MOBILE")); err == nil {
		d.AppleMobile = v
	}

	return d
}
