package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mlorenz/recapd/internal/parser"
	"github.com/mlorenz/recapd/internal/pipeline"
	"github.com/mlorenz/recapd/internal/transcribe"
)

// audioExtensions are bare audio uploads the transcriber accepts without
// demuxing. Video containers are covered by transcribe.NeedsDemux.
var audioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
}

func isMediaFilename(name string) bool {
	return transcribe.NeedsDemux(name) || audioExtensions[strings.ToLower(filepath.Ext(name))]
}

// jobFromRequest reads the multipart upload and builds a queued job. The
// recording comes in as "mp4_file"; the slide deck as "pdf_file" or, for
// other document formats, "doc_file". At least one part is required.
func (s *Server) jobFromRequest(w http.ResponseWriter, r *http.Request) (*pipeline.Job, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	defer r.MultipartForm.RemoveAll()

	mediaName, mediaData, ok := s.readUpload(w, r, "mp4_file")
	if !ok {
		return nil, false
	}
	if mediaName != "" && !isMediaFilename(mediaName) {
		jsonError(w, fmt.Sprintf("unsupported media type: %s", filepath.Ext(mediaName)), http.StatusBadRequest)
		return nil, false
	}

	docName, docData, ok := s.readUpload(w, r, "pdf_file")
	if !ok {
		return nil, false
	}
	if docName == "" {
		docName, docData, ok = s.readUpload(w, r, "doc_file")
		if !ok {
			return nil, false
		}
	}
	if docName != "" && !parser.IsSupportedExtension(docName) {
		jsonError(w, fmt.Sprintf("unsupported document type: %s", filepath.Ext(docName)), http.StatusBadRequest)
		return nil, false
	}

	if len(mediaData) == 0 && len(docData) == 0 {
		jsonError(w, "upload a recording (mp4_file), a document (pdf_file/doc_file), or both", http.StatusBadRequest)
		return nil, false
	}

	return pipeline.NewJob(mediaName, mediaData, docName, docData), true
}

// readUpload reads one optional multipart file field. A missing field is not
// an error; a present but oversized or unreadable one is.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, field string) (string, []byte, bool) {
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return "", nil, true
	}
	if err != nil {
		jsonError(w, field+": "+err.Error(), http.StatusBadRequest)
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read "+field, http.StatusInternalServerError)
		return "", nil, false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("%s exceeds max size (%d bytes)", field, s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return "", nil, false
	}
	return sanitizeFilename(header.Filename), data, true
}

// handleGenerateSummary processes an upload synchronously and returns the
// finished summary in the response body.
func (s *Server) handleGenerateSummary(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobFromRequest(w, r)
	if !ok {
		return
	}

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.SyncTimeout)
	defer cancel()
	if err := job.Wait(ctx); err != nil {
		jsonError(w, "summary generation timed out", http.StatusGatewayTimeout)
		return
	}

	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	switch snap.Status {
	case pipeline.StatusCompleted, pipeline.StatusCached, pipeline.StatusPartial:
		result := job.Result()
		msg := "Summary generated successfully"
		if snap.Status == pipeline.StatusPartial {
			msg = "Summary generated with some segments missing"
		}
		json.NewEncoder(w).Encode(map[string]any{
			"job_id":  snap.ID,
			"status":  "success",
			"message": msg,
			"summary": result.Summary,
			"html":    result.HTML,
			"text":    result.PlainText,
		})
	default:
		json.NewEncoder(w).Encode(map[string]any{
			"job_id":  snap.ID,
			"status":  "error",
			"message": strings.Join(snap.Progress.Errors, "; "),
		})
	}
}

// handleSubmitSummary queues an upload and returns immediately with a poll
// URL.
func (s *Server) handleSubmitSummary(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobFromRequest(w, r)
	if !ok {
		return
	}

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   job.Status,
		"poll_url": fmt.Sprintf("/api/summaries/%s", job.ID),
	})
}

func (s *Server) handleSummaryStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   snap.ID,
		"status":   snap.Status,
		"phase":    snap.Phase,
		"progress": snap.Progress,
	})
}

func (s *Server) handleSummaryResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	result := job.Result()
	if result == nil {
		snap := job.Snapshot()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{
			"error":  "result not ready",
			"status": snap.Status,
			"phase":  snap.Phase,
		})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
