package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Config sizes the worker pool and the in-memory stores.
type Config struct {
	WorkerCount       int
	MaxQueueSize      int
	JobTTL            time.Duration
	DocumentTTL       time.Duration
	DocumentCacheSize int
}

// ErrStopped is returned by Submit once the orchestrator has been stopped.
var ErrStopped = errors.New("orchestrator stopped")

// Orchestrator queues jobs and runs them on a fixed pool of workers. Each
// job is processed sequentially by one worker.
type Orchestrator struct {
	jobs  *JobStore
	docs  *DocumentStore
	queue chan *Job
	gen   Generator
	log   *slog.Logger
	cfg   Config

	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu guards stopped and the close of queue against concurrent Submit.
	mu      sync.Mutex
	stopped bool
}

func NewOrchestrator(cfg Config, gen Generator, log *slog.Logger) *Orchestrator {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}
	return &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		docs:  NewDocumentStore(cfg.DocumentCacheSize, cfg.DocumentTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		gen:   gen,
		log:   log,
		cfg:   cfg,
	}
}

// Start launches worker goroutines and the store cleanup loop.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.gen, o.log.With("worker", i))
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
				o.docs.Cleanup()
			}
		}
	}()
}

// Stop cancels in-flight jobs and waits for workers to exit.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit registers the job and queues it. It fails when the queue is full
// or the orchestrator has been stopped.
func (o *Orchestrator) Submit(job *Job) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.jobs.Put(job)
	if o.stopped {
		job.Fail(ErrStopped)
		return ErrStopped
	}
	select {
	case o.queue <- job:
		return nil
	default:
		err := fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
		job.Fail(err)
		return err
	}
}

// SubmitForDocument looks up a stored document and queues a job for it.
func (o *Orchestrator) SubmitForDocument(docID string, req Request) (*Job, error) {
	doc, err := o.docs.Get(docID)
	if err != nil {
		return nil, err
	}
	job := NewJob(doc.ID, doc.Text, req)
	if err := o.Submit(job); err != nil {
		return nil, err
	}
	return job, nil
}

// GetJob returns a job by ID, or nil.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// Documents returns the document store shared with the API handlers.
func (o *Orchestrator) Documents() *DocumentStore {
	return o.docs
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
