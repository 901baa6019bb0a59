package openai

import (
	"context"
	"log/slog"
	"math"

	goopenai "github.com/sashabaranov/go-openai"

	"studyscribe-server-go/internal/platform/config"
	"studyscribe-server-go/internal/platform/errors"
	"studyscribe-server-go/internal/providers/stt"
)

func init() {
	stt.Register("openai", NewProvider)
}

// Provider performs recognition via the OpenAI audio transcription API.
type Provider struct {
	client *goopenai.Client
	model  string
	logger *slog.Logger
}

func NewProvider(cfg config.STTConfig, logger *slog.Logger) (stt.Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.KindConfig, "stt.openai", "api key is required")
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = goopenai.Whisper1
	}

	return &Provider{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  model,
		logger: logger,
	}, nil
}

func (p *Provider) Name() string {
	return "OpenAIWhisper"
}

// Transcribe submits one audio file and maps the verbose response into the
// provider-neutral result shape.
func (p *Provider) Transcribe(ctx context.Context, audioPath string, opts stt.Options) (*stt.Result, error) {
	const op = "stt.openai.transcribe"

	req := goopenai.AudioRequest{
		Model:    p.model,
		FilePath: audioPath,
		Format:   goopenai.AudioResponseFormatVerboseJSON,
		Language: opts.Language,
		Prompt:   opts.Prompt,
	}
	if opts.WantWordTimestamps {
		req.TimestampGranularities = []goopenai.TranscriptionTimestampGranularity{
			goopenai.TranscriptionTimestampGranularityWord,
			goopenai.TranscriptionTimestampGranularitySegment,
		}
	}

	resp, err := p.client.CreateTranscription(ctx, req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrap(errors.KindProviderTimeout, op, "recognition timed out", err)
		}
		return nil, errors.Wrap(errors.KindMedia, op, "recognition request failed", err)
	}

	result := &stt.Result{
		Text:       resp.Text,
		Language:   resp.Language,
		Confidence: confidenceFromSegments(resp.Segments),
	}
	for _, w := range resp.Words {
		result.Words = append(result.Words, stt.Word{
			Text:  w.Word,
			Start: w.Start,
			End:   w.End,
		})
	}
	return result, nil
}

// confidenceFromSegments derives a 0..1 confidence from the per-segment
// average log probabilities the verbose response carries.
func confidenceFromSegments(segments []struct {
	ID               int     `json:"id"`
	Seek             int     `json:"seek"`
	Start            float64 `json:"start"`
	End              float64 `json:"end"`
	Text             string  `json:"text"`
	Tokens           []int   `json:"tokens"`
	Temperature      float64 `json:"temperature"`
	AvgLogprob       float64 `json:"avg_logprob"`
	CompressionRatio float64 `json:"compression_ratio"`
	NoSpeechProb     float64 `json:"no_speech_prob"`
	Transient        bool    `json:"transient"`
}) float64 {
	if len(segments) == 0 {
		return 0
	}
	var sum float64
	for _, s := range segments {
		sum += s.AvgLogprob
	}
	conf := math.Exp(sum / float64(len(segments)))
	if conf > 1 {
		conf = 1
	}
	return conf
}
