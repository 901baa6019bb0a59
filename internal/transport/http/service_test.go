package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"studyscribe-server-go/internal/domain/transcription"
	"studyscribe-server-go/internal/domain/transcription/model"
	"studyscribe-server-go/internal/platform/config"
	"studyscribe-server-go/internal/platform/errors"
)

type stubPipeline struct {
	transcript *model.Transcript
	err        error
	lastReq    *transcription.Request
}

func (p *stubPipeline) Transcribe(ctx context.Context, req *transcription.Request) (*model.Transcript, error) {
	p.lastReq = req
	if p.err != nil {
		return nil, p.err
	}
	return p.transcript, nil
}

func setupServer(t *testing.T, pipeline Transcriber) *Router {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	router, err := Build(Options{
		Config: config.DefaultConfig(),
		Logger: logger,
	})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	svc, err := NewService(pipeline, logger)
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}
	if err := svc.Register(context.Background(), router.API); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	return router
}

func postTranscribe(t *testing.T, router *Router, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.Engine.ServeHTTP(rec, req)
	return rec
}

func TestHandleTranscribeSuccess(t *testing.T) {
	pipeline := &stubPipeline{transcript: &model.Transcript{
		FullText:          "hello",
		OverallConfidence: 0.9,
		DurationSeconds:   300,
		Provider:          "OpenAIWhisper",
	}}
	router := setupServer(t, pipeline)

	rec := postTranscribe(t, router, `{
		"video_url": "https://youtu.be/dQw4w9WgXcQ",
		"principal": "user-a"
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Fatalf("success = false: %+v", resp)
	}

	if pipeline.lastReq == nil {
		t.Fatal("pipeline never invoked")
	}
	if pipeline.lastReq.Ref.Kind != model.RefRemoteVideo || pipeline.lastReq.Ref.ID != "dQw4w9WgXcQ" {
		t.Fatalf("unexpected ref: %+v", pipeline.lastReq.Ref)
	}
	if pipeline.lastReq.Principal != "user-a" {
		t.Fatalf("principal = %q", pipeline.lastReq.Principal)
	}
}

func TestHandleTranscribePrincipalFromHeader(t *testing.T) {
	pipeline := &stubPipeline{transcript: &model.Transcript{FullText: "x"}}
	router := setupServer(t, pipeline)

	req := httptest.NewRequest(http.MethodPost, "/api/transcribe",
		strings.NewReader(`{"audio_path": "uploads/a.mp3"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Principal", "user-h")
	rec := httptest.NewRecorder()
	router.Engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if pipeline.lastReq.Principal != "user-h" {
		t.Fatalf("principal = %q", pipeline.lastReq.Principal)
	}
	if pipeline.lastReq.Ref.Kind != model.RefAudioUpload {
		t.Fatalf("ref kind = %q", pipeline.lastReq.Ref.Kind)
	}
}

func TestHandleTranscribeValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing principal", `{"video_url": "https://youtu.be/dQw4w9WgXcQ"}`},
		{"no source", `{"principal": "user-a"}`},
		{"both sources", `{"principal": "user-a", "video_url": "https://youtu.be/x1234567890", "audio_path": "a.mp3"}`},
		{"bad video url", `{"principal": "user-a", "video_url": "https://example.com/clip"}`},
		{"malformed json", `{nope`},
	}

	router := setupServer(t, &stubPipeline{transcript: &model.Transcript{}})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postTranscribe(t, router, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, expected 400", rec.Code)
			}
		})
	}
}

func TestHandleTranscribeErrorMapping(t *testing.T) {
	tests := []struct {
		kind errors.Kind
		want int
	}{
		{errors.KindAlreadyProcessing, http.StatusConflict},
		{errors.KindContentUnavailable, http.StatusNotFound},
		{errors.KindSplitFailed, http.StatusBadGateway},
		{errors.KindAllSegmentsFailed, http.StatusBadGateway},
		{errors.KindProviderTimeout, http.StatusGatewayTimeout},
		{errors.KindMedia, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			pipeline := &stubPipeline{err: errors.New(tt.kind, "test", "boom")}
			router := setupServer(t, pipeline)

			rec := postTranscribe(t, router, `{
				"video_url": "https://youtu.be/dQw4w9WgXcQ",
				"principal": "user-a"
			}`)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, expected %d", rec.Code, tt.want)
			}

			var resp APIResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Success {
				t.Fatal("success must be false on error")
			}
			// The envelope carries the user-safe message, never internals.
			if strings.Contains(resp.Message, "boom") {
				t.Fatalf("internal detail leaked: %q", resp.Message)
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	router := setupServer(t, &stubPipeline{transcript: &model.Transcript{}})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.Engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
