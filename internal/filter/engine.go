// Package filter implements keyword normalization, title matching and the
// persisted filter list.
package filter

import (
	"strings"
	"unicode/utf8"
)

// Normalize returns the canonical stored form of a filter word.
func Normalize(word string) string {
	return strings.ToUpper(strings.TrimSpace(word))
}

// Match describes where a filter was found in a title.
// Start and End are byte offsets into the title.
type Match struct {
	Filter string
	Start  int
	End    int
}

// FirstMatch checks filters in order against title and returns the first
// one found as a case-insensitive substring. Empty titles and empty filters
// never match.
func FirstMatch(title string, filters []string) (Match, bool) {
	if title == "" {
		return Match{}, false
	}
	for _, f := range filters {
		f = Normalize(f)
		start, end := IndexFold(title, f)
		if start >= 0 {
			return Match{Filter: f, Start: start, End: end}, true
		}
	}
	return Match{}, false
}

// IndexFold finds the first case-insensitive occurrence of substr in s.
// It returns the byte span in s, or -1, -1 when substr is absent or empty.
func IndexFold(s, substr string) (int, int) {
	n := utf8.RuneCountInString(substr)
	if n == 0 {
		return -1, -1
	}
	for i := range s {
		end := i
		for k := 0; k < n && end < len(s); k++ {
			_, size := utf8.DecodeRuneInString(s[end:])
			end += size
		}
		if utf8.RuneCountInString(s[i:end]) < n {
			return -1, -1
		}
		if strings.EqualFold(s[i:end], substr) {
			return i, end
		}
	}
	return -1, -1
}

// Emphasize wraps the matched span of title in bold markers, keeping the
// title's original casing.
func Emphasize(title string, m Match) string {
	if m.Start < 0 || m.End > len(title) || m.Start > m.End {
		return title
	}
	return title[:m.Start] + "**" + title[m.Start:m.End] + "**" + title[m.End:]
}
