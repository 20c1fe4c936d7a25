package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// Worker runs queued jobs through Run.
type Worker struct {
	gen Generator
	log *slog.Logger
}

func NewWorker(gen Generator, log *slog.Logger) *Worker {
	return &Worker{gen: gen, log: log}
}

// Process runs one job to completion and records the outcome on it.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "kind", job.Request.Kind)
	start := time.Now()

	job.setRunning()
	result, err := Run(ctx, w.gen, job.documentText(), job.Request, job.SetProgress)
	if err != nil {
		log.Error("job failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		job.Fail(err)
		return
	}

	snap := job.Snapshot()
	log.Info("job completed",
		"segments", snap.Progress.TotalSegments,
		"result_chars", len(result),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	job.Complete(result)
}
