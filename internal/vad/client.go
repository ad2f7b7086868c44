package vad

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Client talks to a Silero VAD HTTP server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// DetectRequest tunes one /detect call. Zero fields use the server defaults.
type DetectRequest struct {
	Threshold            float64 `json:"threshold,omitempty"`
	MinSpeechDurationMs  int     `json:"min_speech_duration_ms,omitempty"`
	MinSilenceDurationMs int     `json:"min_silence_duration_ms,omitempty"`
}

// SpeechSegment is a span of speech in seconds from the start of the upload.
type SpeechSegment struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
}

// DetectResponse is the /detect reply. Status is "success" or "error".
type DetectResponse struct {
	Status         string          `json:"status"`
	Message        string          `json:"message,omitempty"`
	SpeechSegments []SpeechSegment `json:"speech_segments"`
}

// HealthResponse is the /health reply.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewClient creates a VAD client. A zero timeout defaults to five seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Health probes the /health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("vad health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vad health: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vad health: unexpected status %d", resp.StatusCode)
	}

	var out HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("vad health: decode: %w", err)
	}
	return &out, nil
}

// Detect posts a WAV document to /detect and returns the speech segments.
func (c *Client) Detect(ctx context.Context, wav []byte, params *DetectRequest) (*DetectResponse, error) {
	body, contentType, err := detectForm(wav, params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/detect", body)
	if err != nil {
		return nil, fmt.Errorf("vad detect request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vad detect: %w", err)
	}
	defer resp.Body.Close()

	var out DetectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("vad detect: decode: %w", err)
	}
	switch {
	case resp.StatusCode != http.StatusOK:
		return &out, fmt.Errorf("vad detect: status %d: %s", resp.StatusCode, out.Message)
	case out.Status != "success":
		return &out, fmt.Errorf("vad detect: %s", out.Message)
	}
	return &out, nil
}

func detectForm(wav []byte, params *DetectRequest) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("audio_file", "frame.wav")
	if err != nil {
		return nil, "", fmt.Errorf("vad detect form: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return nil, "", fmt.Errorf("vad detect form: %w", err)
	}

	if params != nil {
		fields := []struct {
			name string
			set  bool
			val  string
		}{
			{"threshold", params.Threshold > 0, strconv.FormatFloat(params.Threshold, 'f', 2, 64)},
			{"min_speech_duration_ms", params.MinSpeechDurationMs > 0, strconv.Itoa(params.MinSpeechDurationMs)},
			{"min_silence_duration_ms", params.MinSilenceDurationMs > 0, strconv.Itoa(params.MinSilenceDurationMs)},
		}
		for _, f := range fields {
			if !f.set {
				continue
			}
			if err := mw.WriteField(f.name, f.val); err != nil {
				return nil, "", fmt.Errorf("vad detect form: %w", err)
			}
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("vad detect form: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}
