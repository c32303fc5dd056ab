package scorecard

import (
	"regexp"
	"strconv"
	"strings"
)

// CodeLinkNotFound is the sentinel used when no URL is present
// in the code availability notes.
const CodeLinkNotFound = "N/A"

var (
	scoreRegEx = regexp.MustCompile(`Score:\s*([0-9]+)`)
	notesRegEx = regexp.MustCompile(`(?s)Notes:\s*(.*)`)
	urlRegEx   = regexp.MustCompile(`https?://[^\s,]+`)
)

// ParseScore extracts the integer following the first "Score:" marker
// in a scorecard cell. Cells without a parseable score yield 0, never
// an error: assessment data is cleaned best-effort.
func ParseScore(s string) int {
	m := scoreRegEx.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// ParseNotes returns the trimmed remainder of the cell after the first
// "Notes:" marker, including any following lines, or "" when the marker
// is absent.
func ParseNotes(s string) string {
	m := notesRegEx.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// ExtractURL returns the first URL-looking substring (scheme + host +
// path, no whitespace or comma) or CodeLinkNotFound when none is found.
func ExtractURL(s string) string {
	if m := urlRegEx.FindString(s); m != "" {
		return m
	}
	return CodeLinkNotFound
}
