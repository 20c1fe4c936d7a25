package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dgallion1/papersum/internal/pipeline"
	"github.com/dgallion1/papersum/internal/prompt"
	"github.com/dgallion1/papersum/internal/segment"
	"github.com/go-chi/chi/v5"
)

// segmentingOptions are the optional per-request overrides shared by the
// summarize and ask endpoints.
type segmentingOptions struct {
	Policy   string `json:"policy,omitempty"`
	MaxChars int    `json:"max_chars,omitempty"`
}

type summarizeRequest struct {
	Focus string `json:"focus"`
	segmentingOptions
}

type askRequest struct {
	Question string `json:"question"`
	segmentingOptions
}

func (s *Server) handleFocuses(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"focuses": prompt.Focuses()})
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var body summarizeRequest
	if !decodeBody(w, r, &body) {
		return
	}
	focus, err := prompt.ParseFocus(body.Focus)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.submit(w, r, prompt.KindSummarize, string(focus), body.segmentingOptions)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var body askRequest
	if !decodeBody(w, r, &body) {
		return
	}
	question := strings.TrimSpace(body.Question)
	if question == "" {
		jsonError(w, "question is required", http.StatusBadRequest)
		return
	}
	s.submit(w, r, prompt.KindAnswer, question, body.segmentingOptions)
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request, kind prompt.Kind, directive string, opts segmentingOptions) {
	req, err := s.buildRequest(kind, directive, opts)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	job, err := s.orchestrator.SubmitForDocument(chi.URLParam(r, "docID"), req)
	if err != nil {
		if errors.Is(err, pipeline.ErrDocumentNotFound) {
			jsonError(w, err.Error(), http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"doc_id":   job.DocID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

// buildRequest applies the server's segmenting defaults to opts. A policy
// override without max_chars uses that policy's own default bound.
func (s *Server) buildRequest(kind prompt.Kind, directive string, opts segmentingOptions) (pipeline.Request, error) {
	req := pipeline.Request{
		Kind:      kind,
		Directive: directive,
		Policy:    s.cfg.SegmentPolicy,
		MaxChars:  s.cfg.SegmentMaxChars,
	}
	if opts.Policy != "" {
		policy, err := segment.ParsePolicy(opts.Policy)
		if err != nil {
			return pipeline.Request{}, err
		}
		if policy != req.Policy {
			req.Policy = policy
			req.MaxChars = policy.DefaultMaxChars()
		}
	}
	if opts.MaxChars < 0 {
		return pipeline.Request{}, segment.ErrInvalidMaxChars
	}
	if opts.MaxChars > 0 {
		req.MaxChars = opts.MaxChars
	}
	return req, nil
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
