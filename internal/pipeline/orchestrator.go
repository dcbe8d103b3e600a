package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mlorenz/recapd/internal/chunker"
	"github.com/mlorenz/recapd/internal/config"
)

// Orchestrator manages the meeting summarization pipeline.
type Orchestrator struct {
	jobs        *JobStore
	cache       *ResultCache
	queue       chan *Job
	summarizer  Summarizer
	transcriber Transcriber
	log         *slog.Logger
	cfg         config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, summarizer Summarizer, transcriber Transcriber, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:        NewJobStore(cfg.JobTTL),
		cache:       NewResultCache(cfg.CacheTTL),
		queue:       make(chan *Job, cfg.MaxQueueSize),
		summarizer:  summarizer,
		transcriber: transcriber,
		log:         log,
		cfg:         cfg,
	}
}

// Start launches worker goroutines and the cleanup ticker.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	segCfg := chunker.Config{
		SegmentTokens:  o.cfg.ContextTokens,
		OverlapTokens:  o.cfg.ContextTokens / 20,
		MinSegmentSize: 20,
	}

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.summarizer, o.transcriber, o.cache, o.log, segCfg, o.cfg.ContextTokens, o.cfg.MaxConcurrentSummarize, o.cfg.PDFFallbackPdftotext)
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

	// Evict expired jobs and cached results.
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
				o.cache.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.AddError("queue full")
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
