package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/papersum/internal/config"
	"github.com/dgallion1/papersum/internal/llm"
	"github.com/dgallion1/papersum/internal/pipeline"
	"github.com/dgallion1/papersum/internal/segment"
)

type echoGenerator struct {
	mu      sync.Mutex
	prompts []string
}

func (g *echoGenerator) Generate(ctx context.Context, p string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, p)
	return "part", nil
}

func (g *echoGenerator) calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

func testConfig() config.Config {
	return config.Config{
		SegmentPolicy:   segment.PolicyFull,
		SegmentMaxChars: 4000,
		MaxUploadBytes:  1 << 20,
		WorkerCount:     1,
		MaxQueueSize:    10,
	}
}

func newTestServer(t *testing.T, cfg config.Config, client *llm.Client) (*Server, *echoGenerator) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	gen := &echoGenerator{}
	orch := pipeline.NewOrchestrator(pipeline.Config{WorkerCount: cfg.WorkerCount, MaxQueueSize: cfg.MaxQueueSize}, gen, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, client, log, cfg), gen
}

func uploadRequest(t *testing.T, filename, content, title string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	if title != "" {
		mw.WriteField("title", title)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func upload(t *testing.T, s *Server, content string) string {
	t.Helper()
	rec := do(s, uploadRequest(t, "paper.txt", content, ""))
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return decode[map[string]any](t, rec)["doc_id"].(string)
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func pollJob(t *testing.T, s *Server, pollURL string) pipeline.JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec := do(s, httptest.NewRequest(http.MethodGet, pollURL, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("poll: expected 200, got %d", rec.Code)
		}
		snap := decode[pipeline.JobSnapshot](t, rec)
		if snap.Status == pipeline.StatusCompleted || snap.Status == pipeline.StatusFailed {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job did not finish")
	return pipeline.JobSnapshot{}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), nil)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}
}

func TestFocuses(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), nil)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/focuses", nil))
	got := decode[map[string][]string](t, rec)["focuses"]
	if len(got) != 5 || got[0] != "General Overview" {
		t.Errorf("unexpected focuses %v", got)
	}
}

func TestUpload_StoresDocument(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), nil)
	rec := do(s, uploadRequest(t, "../../etc/paper.txt", strings.Repeat("x", 9000), "My Paper"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[map[string]any](t, rec)
	if body["title"] != "My Paper" || body["format"] != "txt" || body["filename"] != "paper.txt" {
		t.Errorf("unexpected metadata %v", body)
	}
	if body["chars"].(float64) != 9000 || body["segments"].(float64) != 3 {
		t.Errorf("unexpected sizes %v", body)
	}
	if len(body["doc_id"].(string)) != 16 {
		t.Errorf("unexpected doc_id %v", body["doc_id"])
	}

	get := do(s, httptest.NewRequest(http.MethodGet, "/api/documents/"+body["doc_id"].(string), nil))
	if get.Code != http.StatusOK {
		t.Errorf("expected stored document, got %d", get.Code)
	}
}

func TestUpload_UnsupportedExtension(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), nil)
	rec := do(s, uploadRequest(t, "paper.exe", "data", ""))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestUpload_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadBytes = 100
	s, _ := newTestServer(t, cfg, nil)
	rec := do(s, uploadRequest(t, "paper.txt", strings.Repeat("y", 200), ""))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}

func TestDeleteDocument(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), nil)
	docID := upload(t, s, "some text")

	rec := do(s, httptest.NewRequest(http.MethodDelete, "/api/documents/"+docID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/documents/"+docID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
	rec = do(s, httptest.NewRequest(http.MethodDelete, "/api/documents/"+docID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestSummarize_RunsJob(t *testing.T) {
	s, gen := newTestServer(t, testConfig(), nil)
	docID := upload(t, s, strings.Repeat("z", 9000))

	rec := do(s, jsonRequest(http.MethodPost, "/api/documents/"+docID+"/summarize", `{"focus":"methodology"}`))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	accepted := decode[map[string]any](t, rec)

	snap := pollJob(t, s, accepted["poll_url"].(string))
	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("expected completed, got %q (%s)", snap.Status, snap.Error)
	}
	if snap.Result != "part\n\npart\n\npart\n\n" {
		t.Errorf("unexpected result %q", snap.Result)
	}
	if snap.Directive != "Methodology" {
		t.Errorf("expected canonical focus label, got %q", snap.Directive)
	}
	if n := len(gen.calls()); n != 3 {
		t.Errorf("expected 3 generation calls, got %d", n)
	}
}

func TestSummarize_TruncateOverride(t *testing.T) {
	s, gen := newTestServer(t, testConfig(), nil)
	docID := upload(t, s, strings.Repeat("z", 9000))

	rec := do(s, jsonRequest(http.MethodPost, "/api/documents/"+docID+"/summarize", `{"focus":"Key Takeaways","policy":"truncate"}`))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	snap := pollJob(t, s, decode[map[string]any](t, rec)["poll_url"].(string))
	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("expected completed, got %q", snap.Status)
	}
	calls := gen.calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call under truncate, got %d", len(calls))
	}
	if !strings.Contains(calls[0], strings.Repeat("z", 6000)) || strings.Contains(calls[0], strings.Repeat("z", 6001)) {
		t.Error("expected the 6000-char prefix in the prompt")
	}
}

func TestSummarize_BadInput(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), nil)
	docID := upload(t, s, "text")

	cases := []struct {
		name string
		path string
		body string
		want int
	}{
		{"unknown focus", "/api/documents/" + docID + "/summarize", `{"focus":"Vibes"}`, http.StatusBadRequest},
		{"bad policy", "/api/documents/" + docID + "/summarize", `{"policy":"sliding"}`, http.StatusBadRequest},
		{"negative max", "/api/documents/" + docID + "/summarize", `{"max_chars":-5}`, http.StatusBadRequest},
		{"bad json", "/api/documents/" + docID + "/summarize", `{`, http.StatusBadRequest},
		{"empty question", "/api/documents/" + docID + "/ask", `{"question":"  "}`, http.StatusBadRequest},
		{"missing document", "/api/documents/nope/summarize", `{}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(s, jsonRequest(http.MethodPost, tc.path, tc.body))
			if rec.Code != tc.want {
				t.Errorf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAsk_RunsJob(t *testing.T) {
	s, gen := newTestServer(t, testConfig(), nil)
	docID := upload(t, s, "The sample size was 42.")

	rec := do(s, jsonRequest(http.MethodPost, "/api/documents/"+docID+"/ask", `{"question":"What was the sample size?"}`))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	snap := pollJob(t, s, decode[map[string]any](t, rec)["poll_url"].(string))
	if snap.Status != pipeline.StatusCompleted || snap.Kind != "answer" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	calls := gen.calls()
	if len(calls) != 1 || !strings.Contains(calls[0], "What was the sample size?") {
		t.Errorf("expected question in the single prompt, got %v", calls)
	}
}

func TestJobStatus_NotFound(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), nil)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/jobs/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestAuth(t *testing.T) {
	cfg := testConfig()
	cfg.PapersumAPIKey = "secret"
	s, _ := newTestServer(t, cfg, nil)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/focuses", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/focuses", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	if rec := do(s, req); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/focuses", nil)
	req.Header.Set("Authorization", "Bearer secret")
	if rec := do(s, req); rec.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", rec.Code)
	}

	if rec := do(s, httptest.NewRequest(http.MethodGet, "/health", nil)); rec.Code != http.StatusOK {
		t.Errorf("expected public health, got %d", rec.Code)
	}
}

func TestLLMStats(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), nil)
	if rec := do(s, httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil)); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without client, got %d", rec.Code)
	}

	client := llm.NewClient(llm.Options{APIKey: "k", BaseURL: "http://127.0.0.1:0"})
	t.Cleanup(client.Close)
	s, _ = newTestServer(t, testConfig(), client)
	client.Stats.Record(120, false)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["model"] != llm.DefaultModel {
		t.Errorf("unexpected model %v", body["model"])
	}
	stats := body["stats"].(map[string]any)
	if stats["count"].(float64) != 1 {
		t.Errorf("unexpected stats %v", stats)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"paper.pdf":          "paper.pdf",
		"../../etc/passwd":   "passwd",
		`C:\docs\report.pdf`: "report.pdf",
		"":                   "unnamed",
		"a..b.txt":           "a_b.txt",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
