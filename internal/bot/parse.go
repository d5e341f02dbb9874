package bot

import (
	"strings"
	"unicode"
)

// ParseCommand splits a prefixed message into a lowercased command name and
// its remaining arguments. ok is false when content is not a command.
func ParseCommand(content, prefix string) (name, args string, ok bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", "", false
	}
	rest := content[len(prefix):]

	end := strings.IndexFunc(rest, unicode.IsSpace)
	if end < 0 {
		end = len(rest)
	}
	name = strings.ToLower(rest[:end])
	if name == "" {
		return "", "", false
	}
	return name, strings.TrimSpace(rest[end:]), true
}
