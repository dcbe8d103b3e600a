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
	"testing"
	"time"

	"github.com/mlorenz/recapd/internal/config"
	"github.com/mlorenz/recapd/internal/pipeline"
	"github.com/mlorenz/recapd/internal/summarize"
)

type fakeSummarizer struct {
	reply string
	err   error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeSummarizer) Model() string { return "fake-model" }

type fakeTranscriber struct{ text string }

func (f *fakeTranscriber) Transcribe(ctx context.Context, mediaPath string) (string, error) {
	return f.text, nil
}

const fakeReply = "1. Introduction: The sprint review covered **release 2.4**.\n\n2. Key Discussion Points:\n- Rollout finished ahead of schedule.\n\n3. Action Steps:\n- Update the changelog.\n\n4. Conclusion: Release approved."

func testConfig() config.Config {
	return config.Config{
		OpenAIAPIKey:           "test",
		WorkerCount:            1,
		MaxQueueSize:           8,
		MaxConcurrentSummarize: 2,
		MaxUploadBytes:         1 << 20,
		ContextTokens:          6000,
		JobTTL:                 time.Hour,
		CacheTTL:               time.Hour,
		SyncTimeout:            5 * time.Second,
		CORSOrigin:             "*",
	}
}

func newTestServer(t *testing.T, cfg config.Config, sum pipeline.Summarizer) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(cfg, sum, &fakeTranscriber{}, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, summarize.NewClient("http://localhost:0", "test", "fake-model"), log, cfg)
}

func multipartUpload(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestGenerateSummary_DocumentUpload(t *testing.T) {
	srv := newTestServer(t, testConfig(), &fakeSummarizer{reply: fakeReply})

	body, contentType := multipartUpload(t, "doc_file", "notes.txt", "Sprint review meeting notes.")
	req := httptest.NewRequest(http.MethodPost, "/generate_summary/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "success" {
		t.Fatalf("expected success, got %v (%v)", resp["status"], resp["message"])
	}
	if resp["summary"] != fakeReply {
		t.Errorf("unexpected summary %q", resp["summary"])
	}
	if html, _ := resp["html"].(string); !strings.Contains(html, "summary-section") {
		t.Errorf("expected compiled HTML, got %q", html)
	}
	if text, _ := resp["text"].(string); !strings.Contains(text, "1. Introduction:") {
		t.Errorf("expected plain text rendition, got %q", text)
	}
}

func TestGenerateSummary_NoFilesRejected(t *testing.T) {
	srv := newTestServer(t, testConfig(), &fakeSummarizer{reply: fakeReply})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/generate_summary/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGenerateSummary_UnsupportedDocumentRejected(t *testing.T) {
	srv := newTestServer(t, testConfig(), &fakeSummarizer{reply: fakeReply})

	body, contentType := multipartUpload(t, "doc_file", "archive.zip", "PK")
	req := httptest.NewRequest(http.MethodPost, "/generate_summary/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGenerateSummary_PipelineErrorReportedInBody(t *testing.T) {
	srv := newTestServer(t, testConfig(), &fakeSummarizer{err: context.DeadlineExceeded})

	body, contentType := multipartUpload(t, "doc_file", "notes.txt", "Sprint review meeting notes.")
	req := httptest.NewRequest(http.MethodPost, "/generate_summary/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with error body, got %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "error" {
		t.Fatalf("expected error status, got %v", resp["status"])
	}
	if msg, _ := resp["message"].(string); msg == "" {
		t.Error("expected failure message")
	}
}

func TestAsyncSubmitAndPoll(t *testing.T) {
	srv := newTestServer(t, testConfig(), &fakeSummarizer{reply: fakeReply})

	body, contentType := multipartUpload(t, "doc_file", "notes.txt", "Sprint review meeting notes.")
	req := httptest.NewRequest(http.MethodPost, "/api/summaries", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var submitResp struct {
		JobID   string `json:"job_id"`
		PollURL string `json:"poll_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &submitResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if submitResp.JobID == "" || submitResp.PollURL == "" {
		t.Fatalf("expected job_id and poll_url, got %+v", submitResp)
	}

	// Poll until the job finishes.
	deadline := time.Now().Add(5 * time.Second)
	var status string
	for time.Now().Before(deadline) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, submitResp.PollURL, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("poll: expected 200, got %d", rec.Code)
		}
		var pollResp struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &pollResp); err != nil {
			t.Fatalf("decode poll response: %v", err)
		}
		status = pollResp.Status
		if status == string(pipeline.StatusCompleted) || status == string(pipeline.StatusCached) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if status != string(pipeline.StatusCompleted) && status != string(pipeline.StatusCached) {
		t.Fatalf("job never completed, last status %q", status)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, submitResp.PollURL+"/result", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("result: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result pipeline.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Summary != fakeReply {
		t.Errorf("unexpected summary %q", result.Summary)
	}
}

func TestSummaryStatus_UnknownJob(t *testing.T) {
	srv := newTestServer(t, testConfig(), &fakeSummarizer{reply: fakeReply})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summaries/NOSUCHJOB", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAuthMiddleware_EnforcedWhenConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.RecapdAPIKey = "secret-key"
	srv := newTestServer(t, cfg, &fakeSummarizer{reply: fakeReply})

	// Health stays public.
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rec.Code)
	}

	// API without a key is rejected.
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	// Wrong key rejected.
	req := httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong key, got %d", rec.Code)
	}

	// Correct key accepted.
	req = httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with key, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLLMStatsEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig(), &fakeSummarizer{reply: fakeReply})
	srv.llm.Stats.Record(120)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Model string `json:"model"`
		Stats struct {
			Count int `json:"count"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Model != "fake-model" {
		t.Errorf("expected fake-model, got %q", resp.Model)
	}
	if resp.Stats.Count != 1 {
		t.Errorf("expected 1 sample, got %d", resp.Stats.Count)
	}
}
