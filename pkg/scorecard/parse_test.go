package scorecard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseScore(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"well formed", "Score: 3 | Notes: ok", 3},
		{"no whitespace", "Score:4", 4},
		{"extra whitespace", "  Score:   12 | Notes: x", 12},
		{"garbage", "garbage", 0},
		{"empty", "", 0},
		{"marker without digits", "Score: n/a | Notes: none", 0},
		{"first match wins", "Score: 3, Score: 5", 3},
		{"multi line", "something\nScore: 2 | Notes: ok", 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseScore(tc.in))
		})
	}
}

func TestParseScoreNonNegative(t *testing.T) {
	// The pattern only admits decimal digits, so a minus sign fails
	// the match entirely and the cell defaults to zero.
	assert.Equal(t, 0, ParseScore("Score: -7"))
	assert.GreaterOrEqual(t, ParseScore("Score: 0"), 0)
}

func TestParseNotes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"well formed", "Score: 2 | Notes: great repo", "great repo"},
		{"no marker", "no notes marker", ""},
		{"empty", "", ""},
		{"trailing whitespace", "Notes:   spaced out   ", "spaced out"},
		{"multi line remainder", "Score: 1 | Notes: first line\nsecond line", "first line\nsecond line"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseNotes(tc.in))
		})
	}
}

func TestExtractURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"github link", "code at https://github.com/org/repo works", "https://github.com/org/repo"},
		{"http scheme", "see http://example.com/x", "http://example.com/x"},
		{"stops at comma", "https://github.com/org/repo, also mirrored", "https://github.com/org/repo"},
		{"none", "no link provided", CodeLinkNotFound},
		{"empty", "", CodeLinkNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractURL(tc.in))
		})
	}
}
