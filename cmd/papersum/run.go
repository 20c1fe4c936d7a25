package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/papersum/internal/config"
	"github.com/dgallion1/papersum/internal/parser"
	"github.com/dgallion1/papersum/internal/pipeline"
	"github.com/dgallion1/papersum/internal/prompt"
	"github.com/dgallion1/papersum/internal/segment"
)

// segmentFlags are the --policy and --max-chars overrides.
type segmentFlags struct {
	policy   string
	maxChars int
}

func (f *segmentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.policy, "policy", "", "segmenting policy: full or truncate (default from SEGMENT_POLICY)")
	cmd.Flags().IntVar(&f.maxChars, "max-chars", 0, "characters per segment (default depends on policy)")
}

// apply resolves the flags against the configured defaults. Switching
// policy without --max-chars uses the new policy's default bound.
func (f *segmentFlags) apply(cfg config.Config) (segment.Policy, int, error) {
	policy, maxChars := cfg.SegmentPolicy, cfg.SegmentMaxChars
	if f.policy != "" {
		p, err := segment.ParsePolicy(f.policy)
		if err != nil {
			return "", 0, err
		}
		if p != policy {
			policy, maxChars = p, p.DefaultMaxChars()
		}
	}
	if f.maxChars < 0 {
		return "", 0, segment.ErrInvalidMaxChars
	}
	if f.maxChars > 0 {
		maxChars = f.maxChars
	}
	return policy, maxChars, nil
}

func newSummarizeCmd(a *app) *cobra.Command {
	var focus string
	var seg segmentFlags

	cmd := &cobra.Command{
		Use:   "summarize FILE",
		Short: "Summarize a paper with the given focus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := prompt.ParseFocus(focus)
			if err != nil {
				return err
			}
			return a.run(cmd, args[0], prompt.KindSummarize, string(f), seg)
		},
	}
	cmd.Flags().StringVarP(&focus, "focus", "f", string(prompt.FocusGeneralOverview), "summary focus (see 'papersum focuses')")
	seg.register(cmd)
	return cmd
}

func newAskCmd(a *app) *cobra.Command {
	var question string
	var seg segmentFlags

	cmd := &cobra.Command{
		Use:   "ask FILE",
		Short: "Answer a question about a paper",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := strings.TrimSpace(question)
			if q == "" {
				return fmt.Errorf("--question is required")
			}
			return a.run(cmd, args[0], prompt.KindAnswer, q, seg)
		},
	}
	cmd.Flags().StringVarP(&question, "question", "q", "", "question to answer from the paper")
	seg.register(cmd)
	return cmd
}

func newFocusesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "focuses",
		Short: "List the summary focus labels",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, f := range prompt.Focuses() {
				fmt.Fprintln(a.stdout, f)
			}
		},
	}
}

// run extracts path, runs the pipeline and prints the result to stdout.
func (a *app) run(cmd *cobra.Command, path string, kind prompt.Kind, directive string, seg segmentFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	policy, maxChars, err := seg.apply(cfg)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := parser.Parse(data, path, parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext})
	if err != nil {
		return fmt.Errorf("extract %s: %w", path, err)
	}
	a.log.Debug("extracted document",
		"title", doc.Title,
		"format", doc.Format,
		"pages", doc.Pages,
		"chars", len([]rune(doc.Text)),
	)

	client := newLLMClient(cfg)
	defer client.Close()

	req := pipeline.Request{Kind: kind, Directive: directive, Policy: policy, MaxChars: maxChars}
	log := a.log.With("kind", kind, "model", client.Model())
	result, err := pipeline.Run(cmd.Context(), client, doc.Text, req, func(done, total int) {
		log.Info("progress", "segments", total, "done", done)
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(a.stdout, result)
	return err
}
