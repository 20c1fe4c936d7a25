package segment

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Policy selects how document text is cut into segments.
type Policy string

const (
	// PolicyFull partitions the whole text into consecutive segments.
	PolicyFull Policy = "full"
	// PolicyTruncate keeps only the first segment and drops the rest.
	PolicyTruncate Policy = "truncate"
)

const (
	DefaultFullMaxChars     = 4000
	DefaultTruncateMaxChars = 6000
)

// ErrInvalidMaxChars is returned when the segment bound is not positive.
var ErrInvalidMaxChars = errors.New("segment: max chars must be positive")

// ParsePolicy converts a config or request value into a Policy.
// An empty string selects PolicyFull.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyFull:
		return PolicyFull, nil
	case PolicyTruncate:
		return PolicyTruncate, nil
	}
	return "", fmt.Errorf("segment: unknown policy %q", s)
}

// DefaultMaxChars returns the segment bound used when none is configured.
func (p Policy) DefaultMaxChars() int {
	if p == PolicyTruncate {
		return DefaultTruncateMaxChars
	}
	return DefaultFullMaxChars
}

// Apply segments text according to the policy.
func (p Policy) Apply(text string, maxChars int) ([]string, error) {
	switch p {
	case PolicyFull, "":
		return Split(text, maxChars)
	case PolicyTruncate:
		return Truncate(text, maxChars)
	}
	return nil, fmt.Errorf("segment: unknown policy %q", string(p))
}

// Split partitions text into consecutive pieces of maxChars characters.
// The last piece holds the remainder. Empty text yields no segments.
func Split(text string, maxChars int) ([]string, error) {
	if maxChars <= 0 {
		return nil, ErrInvalidMaxChars
	}
	if text == "" {
		return nil, nil
	}

	segments := make([]string, 0, utf8.RuneCountInString(text)/maxChars+1)
	start, count := 0, 0
	for i := range text {
		if count == maxChars {
			segments = append(segments, text[start:i])
			start, count = i, 0
		}
		count++
	}
	segments = append(segments, text[start:])
	return segments, nil
}

// Truncate returns a single segment with the first maxChars characters of
// text. Everything after the bound is dropped. Empty text yields one empty
// segment.
func Truncate(text string, maxChars int) ([]string, error) {
	if maxChars <= 0 {
		return nil, ErrInvalidMaxChars
	}
	return []string{prefix(text, maxChars)}, nil
}

func prefix(text string, n int) string {
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}
