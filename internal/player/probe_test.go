package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func envMap(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestClassifyDevice(t *testing.T) {
	tests := []struct {
		name string
		goos string
		env  map[string]string
		want Device
	}{
		{
			name: "desktop linux",
			goos: "linux",
			want: Device{},
		},
		{
			name: "android",
			goos: "android",
			want: Device{TouchPrimary: true},
		},
		{
			name: "termux",
			goos: "linux",
			env:  map[string]string{"TERMUX_VERSION": "0.118"},
			want: Device{TouchPrimary: true},
		},
		{
			name: "ios",
			goos: "ios",
			want: Device{TouchPrimary: true, AppleMobile: true},
		},
		{
			name: "ish override",
			goos: "linux",
			env:  map[string]string{"YOZORA_TOUCH_DEVICE": "true", "YOZORA_APPLE_MOBILE": "true"},
			want: Device{TouchPrimary: true, AppleMobile: true},
		},
		{
			name: "touch forced off",
			goos: "android",
			env:  map[string]string{"YOZORA_TOUCH_DEVICE": "false"},
			want: Device{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyDevice(tt.goos, envMap(tt.env))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProbeDeviceIsCached(t *testing.T) {
	first := ProbeDevice()
	second := ProbeDevice()
	assert.Equal(t, first, second)
}
