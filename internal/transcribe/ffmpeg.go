package transcribe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// videoExtensions are container formats that need their audio track demuxed
// before transcription. Bare audio uploads are sent as-is.
var videoExtensions = map[string]bool{
	".mp4": true,
	".mov": true,
	".mkv": true,
	".avi": true,
	".webm": true,
}

// NeedsDemux reports whether the file is a video container.
func NeedsDemux(filename string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(filename))]
}

// demuxAudio extracts the audio track to a 16 kHz mono WAV temp file using
// ffmpeg and returns its path. The caller removes the file.
func demuxAudio(ctx context.Context, ffmpegPath, videoPath string) (string, error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if _, err := exec.LookPath(ffmpegPath); err != nil {
		return "", fmt.Errorf("ffmpeg not found (install it and add it to PATH): %w", err)
	}

	tmp, err := os.CreateTemp("", "recapd-audio-*.wav")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	// Whisper wants 16 kHz mono PCM.
	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-y",
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		tmpPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("ffmpeg: %w: %s", err, tail(string(out), 300))
	}
	return tmpPath, nil
}

// segmentAudio splits an audio file into fixed-length chunks with ffmpeg's
// stream copy (no re-encode) and returns the chunk paths in order. The caller
// removes the files.
func segmentAudio(ctx context.Context, ffmpegPath, audioPath string, chunkLen time.Duration) ([]string, error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if _, err := exec.LookPath(ffmpegPath); err != nil {
		return nil, fmt.Errorf("ffmpeg not found (install it and add it to PATH): %w", err)
	}

	dir, err := os.MkdirTemp("", "recapd-chunks-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	pattern := filepath.Join(dir, "chunk-%03d"+filepath.Ext(audioPath))

	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-y",
		"-i", audioPath,
		"-f", "segment",
		"-segment_time", fmt.Sprintf("%d", int(chunkLen.Seconds())),
		"-c", "copy",
		pattern,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("ffmpeg segment: %w: %s", err, tail(string(out), 300))
	}

	chunks, err := filepath.Glob(filepath.Join(dir, "chunk-*"))
	if err != nil || len(chunks) == 0 {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("no audio chunks produced")
	}
	sort.Strings(chunks)
	return chunks, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
