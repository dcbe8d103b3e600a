package pipeline

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// JobStatus represents the state of a summarization job.
type JobStatus string

const (
	StatusQueued       JobStatus = "queued"
	StatusTranscribing JobStatus = "transcribing"
	StatusParsing      JobStatus = "parsing"
	StatusSummarizing  JobStatus = "summarizing"
	StatusCompiling    JobStatus = "compiling"
	StatusCompleted    JobStatus = "completed"
	StatusFailed       JobStatus = "failed"
	StatusPartial      JobStatus = "partial"
	StatusCached       JobStatus = "cached"
)

// Result holds the three renditions of a finished summary: the raw model
// text, the escaped HTML, and the plain-text projection.
type Result struct {
	Summary   string `json:"summary"`
	HTML      string `json:"html"`
	PlainText string `json:"text"`
}

// Job tracks the state of a single meeting summarization. A job carries an
// uploaded recording, a slide document, or both.
type Job struct {
	mu sync.Mutex

	ID string `json:"job_id"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	MediaFilename string `json:"media_filename,omitempty"`
	DocFilename   string `json:"doc_filename,omitempty"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	mediaData []byte
	docData   []byte
	result    *Result
	done      chan struct{}
	doneOnce  sync.Once
}

// Progress tracks map/reduce summarization progress.
type Progress struct {
	SegmentsTotal int      `json:"segments_total"`
	SegmentsDone  int      `json:"segments_done"`
	Errors        []string `json:"errors"`
}

// NewJob creates a queued job with a fresh ID.
func NewJob(mediaFilename string, mediaData []byte, docFilename string, docData []byte) *Job {
	now := time.Now()
	return &Job{
		ID:            generateULID(),
		Status:        StatusQueued,
		Phase:         "queued",
		MediaFilename: mediaFilename,
		DocFilename:   docFilename,
		CreatedAt:     now,
		UpdatedAt:     now,
		mediaData:     mediaData,
		docData:       docData,
		done:          make(chan struct{}),
	}
}

// SetStatus updates job status atomically. Terminal statuses close the done
// channel so synchronous callers unblock.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
	j.mu.Unlock()

	switch status {
	case StatusCompleted, StatusFailed, StatusPartial, StatusCached:
		j.doneOnce.Do(func() { close(j.done) })
	}
}

// AddError records a processing error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Errors = append(j.Progress.Errors, err)
	j.UpdatedAt = time.Now()
}

// SetSegmentsTotal records how many segments the summarizer will process.
func (j *Job) SetSegmentsTotal(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.SegmentsTotal = n
	j.UpdatedAt = time.Now()
}

// IncrSegmentsDone atomically increments the processed segment count.
func (j *Job) IncrSegmentsDone() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.SegmentsDone++
	j.UpdatedAt = time.Now()
}

// SetContentHash records the hash of the combined meeting content.
func (j *Job) SetContentHash(hash string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = hash
}

// SetResult stores the finished summary.
func (j *Job) SetResult(r *Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = r
	j.UpdatedAt = time.Now()
}

// Result returns the finished summary, or nil while the job is running.
func (j *Job) Result() *Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// Wait blocks until the job reaches a terminal status or ctx is done.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID            string    `json:"job_id"`
	Status        JobStatus `json:"status"`
	Phase         string    `json:"phase"`
	MediaFilename string    `json:"media_filename,omitempty"`
	DocFilename   string    `json:"doc_filename,omitempty"`
	Progress      Progress  `json:"progress"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:            j.ID,
		Status:        j.Status,
		Phase:         j.Phase,
		MediaFilename: j.MediaFilename,
		DocFilename:   j.DocFilename,
		Progress: Progress{
			SegmentsTotal: j.Progress.SegmentsTotal,
			SegmentsDone:  j.Progress.SegmentsDone,
			Errors:        errs,
		},
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
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

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// ContentHashHex computes SHA-256 of content and returns the hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
