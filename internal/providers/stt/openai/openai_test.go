package openai

import (
	"log/slog"
	"math"
	"os"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"

	"studyscribe-server-go/internal/platform/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewProviderRequiresAPIKey(t *testing.T) {
	_, err := NewProvider(config.STTConfig{Type: "openai"}, discardLogger())
	if err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestNewProviderDefaultsModel(t *testing.T) {
	p, err := NewProvider(config.STTConfig{Type: "openai", APIKey: "sk-test"}, discardLogger())
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}
	if p.Name() != "OpenAIWhisper" {
		t.Fatalf("name = %q", p.Name())
	}
	if p.(*Provider).model != goopenai.Whisper1 {
		t.Fatalf("model = %q, expected default", p.(*Provider).model)
	}
}

// segment is a type alias matching the anonymous struct used for the
// Segments field of goopenai.AudioResponse, which has no named type.
type segment = struct {
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
}

func TestConfidenceFromSegments(t *testing.T) {
	if got := confidenceFromSegments(nil); got != 0 {
		t.Fatalf("empty segments should give 0, got %v", got)
	}

	segments := []segment{
		{AvgLogprob: -0.1},
		{AvgLogprob: -0.3},
	}
	want := math.Exp(-0.2)
	if got := confidenceFromSegments(segments); math.Abs(got-want) > 1e-9 {
		t.Fatalf("confidence = %v, expected %v", got, want)
	}

	// Positive logprobs never push confidence past 1.
	if got := confidenceFromSegments([]segment{{AvgLogprob: 0.5}}); got != 1 {
		t.Fatalf("confidence = %v, expected clamp at 1", got)
	}
}
