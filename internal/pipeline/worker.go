package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mlorenz/recapd/internal/chunker"
	"github.com/mlorenz/recapd/internal/doctree"
	"github.com/mlorenz/recapd/internal/parser"
	"github.com/mlorenz/recapd/internal/summarize"
	"github.com/mlorenz/recapd/internal/summary"
)

// Summarizer produces summary text from a fully built prompt.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Transcriber converts a recording on disk to text.
type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath string) (string, error)
}

// Worker processes a single summarization job.
type Worker struct {
	summarizer  Summarizer
	transcriber Transcriber
	cache       *ResultCache
	log         *slog.Logger
	segCfg      chunker.Config

	contextTokens          int
	maxConcurrentSummarize int
	pdfFallback            bool
}

func NewWorker(summarizer Summarizer, transcriber Transcriber, cache *ResultCache, log *slog.Logger, segCfg chunker.Config, contextTokens, maxConcurrent int, pdfFallback bool) *Worker {
	if contextTokens <= 0 {
		contextTokens = 6000
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	return &Worker{
		summarizer:             summarizer,
		transcriber:            transcriber,
		cache:                  cache,
		log:                    log,
		segCfg:                 segCfg,
		contextTokens:          contextTokens,
		maxConcurrentSummarize: maxConcurrent,
		pdfFallback:            pdfFallback,
	}
}

// Process runs the full pipeline for a job: transcribe the recording, parse
// the slide document, summarize the combined content, and compile the
// summary into HTML and plain text.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID)

	// Phase 1: Transcribe the recording, if one was uploaded.
	var transcript string
	if len(job.mediaData) > 0 {
		job.SetStatus(StatusTranscribing, "transcribing")
		text, err := w.transcribeMedia(ctx, job)
		if err != nil {
			log.Error("transcription failed", "error", err)
			job.AddError(fmt.Sprintf("transcribe: %s", err))
			job.SetStatus(StatusFailed, "transcribing")
			return
		}
		transcript = strings.TrimSpace(text)
		log.Info("transcription complete", "chars", len(transcript))
	}

	// Phase 2: Parse the slide document, if one was uploaded.
	var slideText string
	var materials *doctree.Materials
	if len(job.docData) > 0 {
		job.SetStatus(StatusParsing, "parsing")
		p, err := parser.ForFile(job.DocFilename)
		if err != nil {
			log.Error("unsupported document format", "error", err)
			job.AddError(err.Error())
			job.SetStatus(StatusFailed, "parsing")
			return
		}
		if pp, ok := p.(*parser.PDFParser); ok {
			pp.FallbackPdftotext = w.pdfFallback
		}
		mat, err := p.Parse(bytes.NewReader(job.docData), job.DocFilename)
		if err != nil {
			log.Error("document parse failed", "error", err)
			job.AddError(fmt.Sprintf("parse: %s", err))
			job.SetStatus(StatusFailed, "parsing")
			return
		}
		materials = mat
		slideText = strings.TrimSpace(mat.FlattenText())
		log.Info("document parsed", "chars", len(slideText))
	}

	content := combineContent(transcript, slideText)
	if content == "" {
		job.AddError("no content to summarize")
		job.SetStatus(StatusFailed, "no_content")
		return
	}

	hash := ContentHashHex([]byte(content))
	job.SetContentHash(hash)
	if cached, ok := w.cache.Get(hash); ok {
		log.Info("result cache hit", "hash", hash[:12])
		job.SetResult(&cached)
		job.SetStatus(StatusCached, "done")
		return
	}

	// Phase 3: Summarize, mapping over segments when the content exceeds the
	// model's context budget.
	job.SetStatus(StatusSummarizing, "summarizing")
	// Document-only jobs keep the parsed section tree so segmentation can
	// follow section boundaries and carry breadcrumbs into the prompts.
	if transcript != "" {
		materials = nil
	}
	summaryText, hadErrors, err := w.summarizeContent(ctx, job, content, materials, log)
	if err != nil {
		log.Error("summarization failed", "error", err)
		job.AddError(fmt.Sprintf("summarize: %s", err))
		job.SetStatus(StatusFailed, "summarizing")
		return
	}

	// Phase 4: Compile the summary text into structured renditions.
	job.SetStatus(StatusCompiling, "compiling")
	doc := summary.Compile(summaryText)
	result := Result{
		Summary:   summaryText,
		HTML:      summary.RenderHTML(doc),
		PlainText: summary.RenderText(doc),
	}

	w.cache.Put(hash, result)
	job.SetResult(&result)
	if hadErrors {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
	log.Info("summary complete", "blocks", len(doc.Blocks), "model", w.summarizer.Model())
}

// transcribeMedia writes the uploaded bytes to a temp file (the transcriber
// and ffmpeg both want paths) and transcribes it.
func (w *Worker) transcribeMedia(ctx context.Context, job *Job) (string, error) {
	ext := filepath.Ext(job.MediaFilename)
	if ext == "" {
		ext = ".bin"
	}
	tmp, err := os.CreateTemp("", "recapd-media-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(job.mediaData); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	var text string
	var lastErr error
	for attempt := range MaxRetries {
		text, lastErr = w.transcriber.Transcribe(ctx, tmpPath)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		w.log.Warn("retryable transcription error", "job_id", job.ID, "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return text, lastErr
}

// summarizeContent runs a single-shot summary when the content fits the
// context budget, and a map/reduce over segments otherwise. A non-nil mat
// segments along the material's section boundaries, breadcrumbs included;
// otherwise the flat content is split. The bool result reports whether some
// segments failed (partial summary).
func (w *Worker) summarizeContent(ctx context.Context, job *Job, content string, mat *doctree.Materials, log *slog.Logger) (string, bool, error) {
	if chunker.EstimateTokens(content) <= w.contextTokens {
		job.SetSegmentsTotal(1)
		text, err := w.callSummarizer(ctx, summarize.BuildPrompt(content))
		if err != nil {
			return "", false, err
		}
		job.IncrSegmentsDone()
		return text, false, nil
	}

	var segments []doctree.Segment
	if mat != nil {
		segments = chunker.SegmentMaterials(mat, w.segCfg)
	}
	if len(segments) == 0 {
		segments = chunker.SegmentText(content, w.segCfg)
	}
	job.SetSegmentsTotal(len(segments) + 1) // +1 for the combine pass
	log.Info("content exceeds context budget, segmenting", "segments", len(segments))

	type segResult struct {
		idx  int
		text string
		err  error
	}
	results := make(chan segResult, len(segments))
	sem := make(chan struct{}, w.maxConcurrentSummarize)

	for i, seg := range segments {
		sem <- struct{}{}
		go func(idx int, seg doctree.Segment) {
			defer func() { <-sem }()
			prompt := summarize.BuildSegmentPrompt(seg.Text, seg.Breadcrumb, idx, len(segments))
			out, err := w.callSummarizer(ctx, prompt)
			results <- segResult{idx: idx, text: out, err: err}
		}(i, seg)
	}

	partials := make([]string, len(segments))
	hadErrors := false
	for range segments {
		r := <-results
		job.IncrSegmentsDone()
		if r.err != nil {
			log.Error("segment summarization failed", "segment", r.idx, "error", r.err)
			job.AddError(fmt.Sprintf("segment %d: %s", r.idx, r.err))
			hadErrors = true
			continue
		}
		partials[r.idx] = r.text
	}

	kept := partials[:0]
	for _, p := range partials {
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return "", false, fmt.Errorf("all %d segments failed", len(segments))
	}

	final, err := w.callSummarizer(ctx, summarize.BuildCombinePrompt(kept))
	if err != nil {
		return "", false, err
	}
	job.IncrSegmentsDone()
	return final, hadErrors, nil
}

// callSummarizer invokes the model with retry on transient failures.
func (w *Worker) callSummarizer(ctx context.Context, prompt string) (string, error) {
	var text string
	var lastErr error
	for attempt := range MaxRetries {
		text, lastErr = w.summarizer.Summarize(ctx, prompt)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		w.log.Warn("retryable summarization error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return text, lastErr
}

// combineContent merges the transcript and slide text into the document the
// model summarizes.
func combineContent(transcript, slideText string) string {
	var parts []string
	if transcript != "" {
		parts = append(parts, "Meeting Transcription:\n"+transcript)
	}
	if slideText != "" {
		parts = append(parts, "Meeting Slides Content:\n"+slideText)
	}
	return strings.Join(parts, "\n\n")
}
