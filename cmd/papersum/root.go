package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dgallion1/papersum/internal/config"
	"github.com/dgallion1/papersum/internal/llm"
)

// app carries state shared by every subcommand.
type app struct {
	stdout  io.Writer
	stderr  io.Writer
	verbose bool
	log     *slog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "papersum",
		Short: "Summarize research papers and answer questions about them",
		Long: `papersum extracts the text of a paper (PDF, DOCX, Markdown, HTML or plain
text), splits it into segments and sends each segment to a hosted
OpenAI-compatible model, one request at a time.

Configuration comes from the environment (GROQ_API_KEY, GROQ_MODEL,
SEGMENT_POLICY, ...) and an optional .env file.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			a.log = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newSummarizeCmd(a),
		newAskCmd(a),
		newFocusesCmd(a),
		newServeCmd(a),
	)
	return root
}

// loadConfig reads and validates configuration for commands that call the
// generation API.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLLMClient(cfg config.Config) *llm.Client {
	return llm.NewClient(llm.Options{
		APIKey:      cfg.GroqAPIKey,
		Model:       cfg.GroqModel,
		BaseURL:     cfg.GroqBaseURL,
		Timeout:     cfg.LLMTimeout,
		MaxTokens:   int64(cfg.LLMMaxTokens),
		StatsWindow: cfg.LLMStatsWindow,
	})
}
