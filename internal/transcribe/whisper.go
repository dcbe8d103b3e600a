// Package transcribe turns uploaded meeting recordings into text. Video
// containers are demuxed to WAV with ffmpeg, then the audio is sent to an
// OpenAI-compatible Whisper transcription endpoint.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Client calls the /v1/audio/transcriptions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	ffmpegPath string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, model, ffmpegPath string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		ffmpegPath: ffmpegPath,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
	}
}

type transcriptionResponse struct {
	Text  string `json:"text"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Transcribe converts a recording on disk to text. mediaPath may be a video
// container (audio is demuxed first) or a bare audio file.
func (c *Client) Transcribe(ctx context.Context, mediaPath string) (string, error) {
	audioPath := mediaPath
	if NeedsDemux(mediaPath) {
		demuxed, err := demuxAudio(ctx, c.ffmpegPath, mediaPath)
		if err != nil {
			return "", fmt.Errorf("extract audio: %w", err)
		}
		defer os.Remove(demuxed)
		audioPath = demuxed
	}

	text, err := c.transcribeAudio(ctx, audioPath)
	if errors.Is(err, errAudioTooLarge) {
		// The endpoint caps upload size; split long recordings and stitch
		// the transcripts back together.
		return c.transcribeInChunks(ctx, audioPath)
	}
	return text, err
}

// errAudioTooLarge signals the upload exceeded the endpoint's size limit.
var errAudioTooLarge = errors.New("audio exceeds transcription size limit")

func (c *Client) transcribeInChunks(ctx context.Context, audioPath string) (string, error) {
	chunks, err := segmentAudio(ctx, c.ffmpegPath, audioPath, 10*time.Minute)
	if err != nil {
		return "", fmt.Errorf("split audio: %w", err)
	}
	defer os.RemoveAll(filepath.Dir(chunks[0]))

	parts := make([]string, 0, len(chunks))
	for i, ch := range chunks {
		text, err := c.transcribeAudio(ctx, ch)
		if err != nil {
			return "", fmt.Errorf("transcribe chunk %d/%d: %w", i+1, len(chunks), err)
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

func (c *Client) transcribeAudio(ctx context.Context, audioPath string) (string, error) {
	audio, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer audio.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	if err := mw.WriteField("model", c.model); err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}
	if err := mw.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/audio/transcriptions", &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("transcription api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", &RetryableError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	if resp.StatusCode == http.StatusRequestEntityTooLarge {
		return "", errAudioTooLarge
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription api status %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp transcriptionResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("transcription error: %s: %s", apiResp.Error.Type, apiResp.Error.Message)
	}
	return apiResp.Text, nil
}

// RetryableError indicates a transient transcription failure.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, tail(e.Message, 200))
}

// Close releases resources.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
