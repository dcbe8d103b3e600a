package pipeline

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mlorenz/recapd/internal/chunker"
	"github.com/mlorenz/recapd/internal/summarize"
)

type stubSummarizer struct {
	mu      sync.Mutex
	calls   int32
	prompts []string
	reply   string
	errs    []error // consumed one per call, nil entries mean success
}

func (s *stubSummarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	n := atomic.AddInt32(&s.calls, 1)
	var err error
	if int(n) <= len(s.errs) {
		err = s.errs[n-1]
	}
	s.mu.Unlock()
	if err != nil {
		return "", err
	}
	return s.reply, nil
}

func (s *stubSummarizer) Model() string { return "stub-model" }

type stubTranscriber struct {
	text string
	err  error
}

func (s *stubTranscriber) Transcribe(ctx context.Context, mediaPath string) (string, error) {
	return s.text, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const structuredReply = "1. Introduction: The team reviewed the **Q3** roadmap.\n\n2. Key Discussion Points:\n- Budget was approved.\n- Hiring plan slipped.\n\n3. Action Steps:\n- Send the updated plan by **Friday**.\n\n4. Conclusion: The roadmap was accepted."

func newTestWorker(s Summarizer, tr Transcriber, cache *ResultCache, contextTokens int) *Worker {
	segCfg := chunker.Config{SegmentTokens: contextTokens, OverlapTokens: 10, MinSegmentSize: 5}
	return NewWorker(s, tr, cache, testLogger(), segCfg, contextTokens, 2, false)
}

func TestProcess_DocumentOnly(t *testing.T) {
	sum := &stubSummarizer{reply: structuredReply}
	cache := NewResultCache(time.Hour)
	w := newTestWorker(sum, &stubTranscriber{}, cache, 6000)

	job := NewJob("", nil, "notes.txt", []byte("Quarterly planning meeting notes.\n\nBudget and hiring were discussed."))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (errors %v)", snap.Status, snap.Progress.Errors)
	}
	result := job.Result()
	if result == nil {
		t.Fatal("expected result")
	}
	if result.Summary != structuredReply {
		t.Errorf("unexpected summary %q", result.Summary)
	}
	if !strings.Contains(result.HTML, `<h3 class="summary-section">`) {
		t.Errorf("expected compiled HTML, got %q", result.HTML)
	}
	if !strings.Contains(result.PlainText, "1. Introduction:") {
		t.Errorf("expected plain rendition, got %q", result.PlainText)
	}
	if !strings.Contains(sum.prompts[0], "Meeting Slides Content:") {
		t.Error("expected slide text in prompt")
	}
	if strings.Contains(sum.prompts[0], "Meeting Transcription:") {
		t.Error("no recording uploaded, transcript header must be absent")
	}
}

func TestProcess_MediaAndDocument(t *testing.T) {
	sum := &stubSummarizer{reply: structuredReply}
	w := newTestWorker(sum, &stubTranscriber{text: "Alice presented the roadmap."}, NewResultCache(time.Hour), 6000)

	job := NewJob("clip.wav", []byte("RIFFfake"), "notes.txt", []byte("Slide one: roadmap."))
	w.Process(context.Background(), job)

	if got := job.Snapshot().Status; got != StatusCompleted {
		t.Fatalf("expected completed, got %s", got)
	}
	prompt := sum.prompts[0]
	if !strings.Contains(prompt, "Meeting Transcription:\nAlice presented the roadmap.") {
		t.Errorf("expected transcript section in prompt:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Meeting Slides Content:\nSlide one: roadmap.") {
		t.Errorf("expected slides section in prompt:\n%s", prompt)
	}
}

func TestProcess_NoContentFails(t *testing.T) {
	w := newTestWorker(&stubSummarizer{reply: "x"}, &stubTranscriber{}, NewResultCache(time.Hour), 6000)

	job := NewJob("", nil, "notes.txt", []byte("   \n  "))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", snap.Status)
	}
	if len(snap.Progress.Errors) == 0 {
		t.Error("expected an error recorded")
	}
}

func TestProcess_UnsupportedDocumentFails(t *testing.T) {
	w := newTestWorker(&stubSummarizer{reply: "x"}, &stubTranscriber{}, NewResultCache(time.Hour), 6000)

	job := NewJob("", nil, "archive.zip", []byte("PK"))
	w.Process(context.Background(), job)

	if got := job.Snapshot().Status; got != StatusFailed {
		t.Fatalf("expected failed, got %s", got)
	}
}

func TestProcess_CacheHitSkipsModel(t *testing.T) {
	sum := &stubSummarizer{reply: structuredReply}
	cache := NewResultCache(time.Hour)
	w := newTestWorker(sum, &stubTranscriber{}, cache, 6000)

	content := []byte("Quarterly planning meeting notes.")
	first := NewJob("", nil, "notes.txt", content)
	w.Process(context.Background(), first)
	if got := first.Snapshot().Status; got != StatusCompleted {
		t.Fatalf("first run: expected completed, got %s", got)
	}
	callsAfterFirst := atomic.LoadInt32(&sum.calls)

	second := NewJob("", nil, "notes.txt", content)
	w.Process(context.Background(), second)
	if got := second.Snapshot().Status; got != StatusCached {
		t.Fatalf("second run: expected cached, got %s", got)
	}
	if atomic.LoadInt32(&sum.calls) != callsAfterFirst {
		t.Error("cache hit must not call the model")
	}
	if second.Result() == nil || second.Result().Summary != structuredReply {
		t.Error("expected cached result on second job")
	}
}

func TestProcess_MapReduceOverLongContent(t *testing.T) {
	sum := &stubSummarizer{reply: structuredReply}
	w := newTestWorker(sum, &stubTranscriber{}, NewResultCache(time.Hour), 50)

	long := strings.Repeat("The team discussed the migration plan in detail. ", 100)
	job := NewJob("", nil, "notes.txt", []byte(long))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (errors %v)", snap.Status, snap.Progress.Errors)
	}
	// At least two segment calls plus the combine call.
	if atomic.LoadInt32(&sum.calls) < 3 {
		t.Errorf("expected map/reduce calls, got %d", sum.calls)
	}
	if snap.Progress.SegmentsTotal < 3 {
		t.Errorf("expected segments_total >= 3, got %d", snap.Progress.SegmentsTotal)
	}
	if snap.Progress.SegmentsDone != snap.Progress.SegmentsTotal {
		t.Errorf("expected all segments done, got %d/%d", snap.Progress.SegmentsDone, snap.Progress.SegmentsTotal)
	}

	sum.mu.Lock()
	last := sum.prompts[len(sum.prompts)-1]
	sum.mu.Unlock()
	if !strings.Contains(last, "--- Part 1 ---") {
		t.Errorf("expected combine prompt last, got:\n%s", last)
	}
}

func TestProcess_DocumentSegmentsCarryBreadcrumbs(t *testing.T) {
	sum := &stubSummarizer{reply: structuredReply}
	w := newTestWorker(sum, &stubTranscriber{}, NewResultCache(time.Hour), 50)

	md := "# Budget\n\n" + strings.Repeat("The budget line items were reviewed one by one. ", 60) +
		"\n\n# Hiring\n\n" + strings.Repeat("Open roles and the hiring plan were discussed. ", 60)
	job := NewJob("", nil, "agenda.md", []byte(md))
	w.Process(context.Background(), job)

	if got := job.Snapshot().Status; got != StatusCompleted {
		t.Fatalf("expected completed, got %s", got)
	}

	sum.mu.Lock()
	prompts := append([]string(nil), sum.prompts...)
	sum.mu.Unlock()

	var sawBudget, sawHiring bool
	for _, p := range prompts {
		if strings.Contains(p, "comes from the section: Budget") {
			sawBudget = true
		}
		if strings.Contains(p, "comes from the section: Hiring") {
			sawHiring = true
		}
	}
	if !sawBudget || !sawHiring {
		t.Errorf("expected section breadcrumbs in segment prompts (budget=%v hiring=%v)", sawBudget, sawHiring)
	}
}

func TestProcess_RetriesTransientSummarizerError(t *testing.T) {
	sum := &stubSummarizer{
		reply: structuredReply,
		errs:  []error{&summarize.RetryableError{StatusCode: 503, Message: "overloaded"}},
	}
	w := newTestWorker(sum, &stubTranscriber{}, NewResultCache(time.Hour), 6000)

	job := NewJob("", nil, "notes.txt", []byte("Planning meeting notes."))
	w.Process(context.Background(), job)

	if got := job.Snapshot().Status; got != StatusCompleted {
		t.Fatalf("expected completed after retry, got %s", got)
	}
	if atomic.LoadInt32(&sum.calls) != 2 {
		t.Errorf("expected 2 calls (fail then retry), got %d", sum.calls)
	}
}
