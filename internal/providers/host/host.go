package host

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"studyscribe-server-go/internal/platform/config"
)

// ErrUnavailable means the host has no caption track for the video. Callers
// fall through to audio transcription; this is an expected outcome, not a
// failure.
var ErrUnavailable = fmt.Errorf("host transcript unavailable")

// TranscriptLine is one caption cue from the hosting platform.
type TranscriptLine struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// HostTranscript is a full caption track.
type HostTranscript struct {
	VideoID  string           `json:"video_id"`
	Language string           `json:"language"`
	Lines    []TranscriptLine `json:"lines"`
}

// FullText joins the caption cues into one transcript body.
func (t *HostTranscript) FullText() string {
	parts := make([]string, 0, len(t.Lines))
	for _, line := range t.Lines {
		if s := strings.TrimSpace(line.Text); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// DurationSeconds reports the end of the last cue.
func (t *HostTranscript) DurationSeconds() float64 {
	if len(t.Lines) == 0 {
		return 0
	}
	return t.Lines[len(t.Lines)-1].End
}

// Client fetches platform-provided transcripts for remote video.
type Client interface {
	Fetch(ctx context.Context, videoID string) (*HostTranscript, error)
}

// HTTPClient talks to the transcript host API over HTTP.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewHTTPClient(cfg config.HostTranscriptConfig, logger *slog.Logger) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Fetch retrieves the caption track for videoID. Any failure short of a
// usable transcript maps to ErrUnavailable so the pipeline can fall through.
func (c *HTTPClient) Fetch(ctx context.Context, videoID string) (*HostTranscript, error) {
	url := fmt.Sprintf("%s/videos/%s/transcript", c.baseURL, videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build transcript request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("host transcript fetch failed", "video_id", videoID, "error", err)
		return nil, ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("host transcript not available",
			"video_id", videoID, "status", resp.StatusCode)
		return nil, ErrUnavailable
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, ErrUnavailable
	}

	var transcript HostTranscript
	if err := sonic.Unmarshal(body, &transcript); err != nil {
		c.logger.Debug("host transcript payload malformed", "video_id", videoID, "error", err)
		return nil, ErrUnavailable
	}
	if len(transcript.Lines) == 0 || strings.TrimSpace(transcript.FullText()) == "" {
		return nil, ErrUnavailable
	}

	transcript.VideoID = videoID
	return &transcript, nil
}
