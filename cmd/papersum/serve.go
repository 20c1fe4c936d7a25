package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/papersum/internal/api"
	"github.com/dgallion1/papersum/internal/pipeline"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

// serve runs until ctx is canceled, then shuts down gracefully.
func (a *app) serve(ctx context.Context) error {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		return err
	}

	client := newLLMClient(cfg)
	defer client.Close()

	orch := pipeline.NewOrchestrator(pipeline.Config{
		WorkerCount:       cfg.WorkerCount,
		MaxQueueSize:      cfg.MaxQueueSize,
		JobTTL:            cfg.JobTTL,
		DocumentTTL:       cfg.DocumentTTL,
		DocumentCacheSize: cfg.DocumentCacheSize,
	}, client, log)
	orch.Start(context.Background())

	srv := api.NewServer(orch, client, log, cfg)
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting papersum",
			"port", cfg.Port,
			"model", cfg.GroqModel,
			"policy", cfg.SegmentPolicy,
			"max_chars", cfg.SegmentMaxChars,
			"workers", cfg.WorkerCount,
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		orch.Stop()
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// Stop accepting requests before the job queue closes.
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", "error", err)
	}
	orch.Stop()
	return nil
}
