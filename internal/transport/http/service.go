package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"studyscribe-server-go/internal/domain/transcription"
	"studyscribe-server-go/internal/domain/transcription/model"
	"studyscribe-server-go/internal/platform/errors"
)

// Transcriber is the pipeline surface the transport layer needs.
type Transcriber interface {
	Transcribe(ctx context.Context, req *transcription.Request) (*model.Transcript, error)
}

// Service exposes the transcription pipeline over HTTP.
type Service struct {
	pipeline Transcriber
	logger   *slog.Logger
}

func NewService(pipeline Transcriber, logger *slog.Logger) (*Service, error) {
	if pipeline == nil {
		return nil, errors.New(errors.KindConfig, "transport.new", "pipeline is required")
	}
	if logger == nil {
		return nil, errors.New(errors.KindConfig, "transport.new", "logger is required")
	}
	return &Service{pipeline: pipeline, logger: logger}, nil
}

// Register attaches the API routes to the router group.
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.POST("/transcribe", s.handleTranscribe)
	router.GET("/health", s.handleHealth)
	return nil
}

// transcribeRequest is the POST /api/transcribe body. Exactly one of
// video_url and audio_path must be set.
type transcribeRequest struct {
	VideoURL           string `json:"video_url"`
	AudioPath          string `json:"audio_path"`
	Principal          string `json:"principal"`
	Language           string `json:"language"`
	Quality            string `json:"quality"`
	WantWordTimestamps bool   `json:"want_word_timestamps"`
}

func (s *Service) handleTranscribe(c *gin.Context) {
	var body transcribeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	principal := strings.TrimSpace(body.Principal)
	if principal == "" {
		principal = strings.TrimSpace(c.GetHeader("X-Principal"))
	}
	if principal == "" {
		RespondError(c, http.StatusBadRequest, "principal is required", nil)
		return
	}

	ref, err := buildReference(body)
	if err != nil {
		RespondError(c, http.StatusBadRequest, err.Error(), nil)
		return
	}

	transcript, err := s.pipeline.Transcribe(c.Request.Context(), &transcription.Request{
		Ref:                ref,
		Principal:          principal,
		Language:           body.Language,
		Quality:            body.Quality,
		WantWordTimestamps: body.WantWordTimestamps,
	})
	if err != nil {
		s.logger.Warn("transcribe request failed",
			"ref", ref.Key(), "principal", principal, "error", err)
		RespondError(c, statusForError(err), errors.UserMessage(err), nil)
		return
	}

	RespondSuccess(c, http.StatusOK, transcript, "")
}

func (s *Service) handleHealth(c *gin.Context) {
	RespondSuccess(c, http.StatusOK, gin.H{"status": "up"}, "")
}

func buildReference(body transcribeRequest) (model.ContentReference, error) {
	hasVideo := strings.TrimSpace(body.VideoURL) != ""
	hasAudio := strings.TrimSpace(body.AudioPath) != ""

	switch {
	case hasVideo && hasAudio:
		return model.ContentReference{}, errors.New(errors.KindTransport, "transport.reference",
			"provide either video_url or audio_path, not both")
	case hasVideo:
		return model.NewVideoReference(body.VideoURL)
	case hasAudio:
		return model.NewUploadReference(body.AudioPath)
	default:
		return model.ContentReference{}, errors.New(errors.KindTransport, "transport.reference",
			"video_url or audio_path is required")
	}
}

// statusForError maps the pipeline failure taxonomy onto HTTP status codes.
func statusForError(err error) int {
	switch errors.KindOf(err) {
	case errors.KindAlreadyProcessing:
		return http.StatusConflict
	case errors.KindContentUnavailable:
		return http.StatusNotFound
	case errors.KindSplitFailed, errors.KindAllSegmentsFailed:
		return http.StatusBadGateway
	case errors.KindProviderTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
