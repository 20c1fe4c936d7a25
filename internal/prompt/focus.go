package prompt

import (
	"errors"
	"fmt"
	"strings"
)

// Focus is a summary focus label.
type Focus string

const (
	FocusGeneralOverview Focus = "General Overview"
	FocusMethodology     Focus = "Methodology"
	FocusResults         Focus = "Results & Findings"
	FocusKeyTakeaways    Focus = "Key Takeaways"
	FocusLimitations     Focus = "Limitations & Future Work"
)

// ErrUnknownFocus is returned by ParseFocus for labels outside the fixed set.
var ErrUnknownFocus = errors.New("prompt: unknown focus")

var focuses = []Focus{
	FocusGeneralOverview,
	FocusMethodology,
	FocusResults,
	FocusKeyTakeaways,
	FocusLimitations,
}

// Focuses returns the summary focus labels in display order.
func Focuses() []Focus {
	out := make([]Focus, len(focuses))
	copy(out, focuses)
	return out
}

// ParseFocus matches s against the focus labels, ignoring case and
// surrounding whitespace. An empty string selects FocusGeneralOverview.
func ParseFocus(s string) (Focus, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FocusGeneralOverview, nil
	}
	for _, f := range focuses {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFocus, s)
}
