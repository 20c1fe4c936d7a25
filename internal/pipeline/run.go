package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgallion1/papersum/internal/prompt"
	"github.com/dgallion1/papersum/internal/segment"
)

// Generator turns one prompt into one response.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Request describes one summarize or answer run over a document.
type Request struct {
	Kind      prompt.Kind
	Directive string // Focus label or question.
	Policy    segment.Policy
	MaxChars  int
}

// ProgressFunc is called after each segment with the number of segments
// done so far and the total.
type ProgressFunc func(done, total int)

// Run segments text, then for each segment in order composes a prompt,
// calls gen and appends the response followed by a blank line.
//
// Calls are strictly sequential. The first error aborts the run and is
// returned wrapped; no partial result is returned.
func Run(ctx context.Context, gen Generator, text string, req Request, progress ProgressFunc) (string, error) {
	segments, err := req.Policy.Apply(text, req.MaxChars)
	if err != nil {
		return "", err
	}
	if progress != nil {
		progress(0, len(segments))
	}

	var result strings.Builder
	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		payload, err := prompt.Compose(req.Kind, req.Directive, seg)
		if err != nil {
			return "", err
		}
		resp, err := gen.Generate(ctx, payload)
		if err != nil {
			return "", fmt.Errorf("segment %d/%d: %w", i+1, len(segments), err)
		}
		result.WriteString(resp)
		result.WriteString("\n\n")
		if progress != nil {
			progress(i+1, len(segments))
		}
	}
	return result.String(), nil
}
