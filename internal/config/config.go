package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// OpenAI-compatible API
	OpenAIAPIKey  string
	OpenAIBaseURL string
	SummaryModel  string
	WhisperModel  string

	// Auth (optional; empty disables bearer auth)
	RecapdAPIKey string

	// Transcription
	FFmpegPath string

	// Worker pool
	WorkerCount            int
	MaxQueueSize           int
	MaxConcurrentSummarize int

	// Upload limits
	MaxUploadBytes int64

	// Summarization budget: content over this many estimated tokens is
	// summarized map/reduce style.
	ContextTokens int

	// Job and cache state
	JobTTL      time.Duration
	CacheTTL    time.Duration
	SyncTimeout time.Duration

	// HTTP
	CORSOrigin string

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: envOr("OPENAI_BASE_URL", "https://api.openai.com"),
		SummaryModel:  envOr("SUMMARY_MODEL", "gpt-4o-mini"),
		WhisperModel:  envOr("WHISPER_MODEL", "whisper-1"),

		RecapdAPIKey: os.Getenv("RECAPD_API_KEY"),

		FFmpegPath: envOr("FFMPEG_PATH", "ffmpeg"),

		WorkerCount:            envInt("WORKER_COUNT", 4),
		MaxQueueSize:           envInt("MAX_QUEUE_SIZE", 100),
		MaxConcurrentSummarize: envInt("MAX_CONCURRENT_SUMMARIZE", 3),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 209715200), // 200MB, recordings are large

		ContextTokens: envInt("CONTEXT_TOKENS", 6000),

		JobTTL:      envDuration("JOB_TTL", 1*time.Hour),
		CacheTTL:    envDuration("CACHE_TTL", 6*time.Hour),
		SyncTimeout: envDuration("SYNC_TIMEOUT", 15*time.Minute),

		CORSOrigin: envOr("CORS_ORIGIN", "*"),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentSummarize <= 0 {
		cfg.MaxConcurrentSummarize = 3
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 209715200
	}
	if cfg.ContextTokens <= 0 {
		cfg.ContextTokens = 6000
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 6 * time.Hour
	}
	if cfg.SyncTimeout <= 0 {
		cfg.SyncTimeout = 15 * time.Minute
	}

	return cfg
}

func (c Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
