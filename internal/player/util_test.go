package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"single", "--mute", []string{"--mute"}},
		{"multiple", "--mute --volume=50", []string{"--mute", "--volume=50"}},
		{"double quoted", `--title="my video"`, []string{"--title=my video"}},
		{"single quoted", "--title='my video'", []string{"--title=my video"}},
		{"extra spaces", "  --mute   --loop  ", []string{"--mute", "--loop"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseArgs(tt.in))
		})
	}
}
