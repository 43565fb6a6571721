package util

import (
	"fmt"

	"github.com/mattn/go-runewidth"
)

// TruncateString cuts a string to fit within maxWidth visual width
func TruncateString(s string, maxWidth int) string {
	width := 0
	for i, r := range s {
		charWidth := runewidth.RuneWidth(r)
		// Check if adding this rune would exceed maxWidth
		if width+charWidth > maxWidth-3 { // Reserve space for "..."
			return s[:i] + "..."
		}
		width += charWidth
	}
	return s // Return as is if it fits
}

// PadString pads a string with spaces to exactly width visual columns
func PadString(s string, width int) string {
	visual := 0
	for _, r := range s {
		visual += runewidth.RuneWidth(r)
	}
	for visual < width {
		s += " "
		visual++
	}
	return s
}

// FormatTimestamp formats a position in seconds as h:mm:ss, or m:ss for
// videos under an hour
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
