package host

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"studyscribe-server-go/internal/platform/config"
)

func testClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewHTTPClient(config.HostTranscriptConfig{
		Enabled: true,
		BaseURL: server.URL,
		Timeout: 2 * time.Second,
	}, logger)
}

func TestFetchReturnsTranscript(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/videos/abc123/transcript" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"language": "en",
			"lines": [
				{"text": "hello there", "start": 0, "end": 2.5},
				{"text": "general kenobi", "start": 2.5, "end": 5}
			]
		}`))
	})

	transcript, err := client.Fetch(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if transcript.FullText() != "hello there general kenobi" {
		t.Fatalf("full text = %q", transcript.FullText())
	}
	if transcript.DurationSeconds() != 5 {
		t.Fatalf("duration = %v, expected 5", transcript.DurationSeconds())
	}
	if transcript.VideoID != "abc123" {
		t.Fatalf("video id = %q", transcript.VideoID)
	}
}

func TestFetchMapsMissingToUnavailable(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	if _, err := client.Fetch(context.Background(), "abc123"); err != ErrUnavailable {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestFetchMapsEmptyTrackToUnavailable(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"language": "en", "lines": []}`))
	})

	if _, err := client.Fetch(context.Background(), "abc123"); err != ErrUnavailable {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestFetchMapsMalformedBodyToUnavailable(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	})

	if _, err := client.Fetch(context.Background(), "abc123"); err != ErrUnavailable {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
