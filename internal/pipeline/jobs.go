package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/dgallion1/papersum/internal/prompt"
)

// JobStatus represents the state of a summarize or answer job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job tracks one Run over a stored document.
type Job struct {
	mu sync.Mutex

	ID        string
	DocID     string
	Request   Request
	Status    JobStatus
	Progress  Progress
	Result    string
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Document text captured at submit time so eviction from the
	// document store cannot affect a queued job.
	text string
}

// Progress counts segments sent to the generation service.
type Progress struct {
	TotalSegments     int `json:"total_segments"`
	SegmentsProcessed int `json:"segments_processed"`
}

// NewJob creates a queued job for the given document text.
func NewJob(docID, text string, req Request) *Job {
	now := time.Now()
	return &Job{
		ID:        newULID(),
		DocID:     docID,
		Request:   req,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
		text:      text,
	}
}

func (j *Job) setRunning() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusRunning
	j.UpdatedAt = time.Now()
}

// SetProgress records how many segments have been processed.
func (j *Job) SetProgress(done, total int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress = Progress{TotalSegments: total, SegmentsProcessed: done}
	j.UpdatedAt = time.Now()
}

// Complete stores the result and marks the job completed.
func (j *Job) Complete(result string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusCompleted
	j.Result = result
	j.text = ""
	j.UpdatedAt = time.Now()
}

// Fail records the error and marks the job failed.
func (j *Job) Fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusFailed
	j.Error = err.Error()
	j.text = ""
	j.UpdatedAt = time.Now()
}

func (j *Job) documentText() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.text
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string      `json:"job_id"`
	DocID     string      `json:"doc_id"`
	Kind      prompt.Kind `json:"kind"`
	Directive string      `json:"directive"`
	Status    JobStatus   `json:"status"`
	Progress  Progress    `json:"progress"`
	Result    string      `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Snapshot returns a copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobSnapshot{
		ID:        j.ID,
		DocID:     j.DocID,
		Kind:      j.Request.Kind,
		Directive: j.Request.Directive,
		Status:    j.Status,
		Progress:  j.Progress,
		Result:    j.Result,
		Error:     j.Error,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

func (j *Job) lastUpdate() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes jobs not updated within the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.lastUpdate()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// DocumentID derives the stable document ID for uploaded file bytes.
func DocumentID(data []byte) string {
	return ContentHashHex(data)[:16]
}
