package player

import "strings"

// ParseArgs splits the config's extra-args string on spaces, keeping quoted
// runs (single or double) together.  Quote characters themselves are not
// part of the result.
func ParseArgs(argsString string) []string {
	var args []string
	var current strings.Builder
	inQuotes := false

	flush := func() {
		if current.Len() > 0 {
			args = append(args, current.String())
			current.Reset()
		}
	}

	for _, r := range argsString {
		switch {
		case r == '"' || r == '\'':
			inQuotes = !inQuotes
		case r == ' ' && !inQuotes:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return args
}
