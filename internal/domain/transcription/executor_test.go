package transcription

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"studyscribe-server-go/internal/domain/media"
	"studyscribe-server-go/internal/platform/errors"
	"studyscribe-server-go/internal/providers/stt"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeProvider answers recognition calls from a per-path script and tracks
// concurrency.
type fakeProvider struct {
	mu         sync.Mutex
	failPaths  map[string]bool
	failAll    bool
	delay      time.Duration
	calls      atomic.Int64
	inFlight   atomic.Int64
	peakUsage  atomic.Int64
	resultText func(path string) string
	words      []stt.Word
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Transcribe(ctx context.Context, audioPath string, opts stt.Options) (*stt.Result, error) {
	p.calls.Add(1)
	cur := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		peak := p.peakUsage.Load()
		if cur <= peak || p.peakUsage.CompareAndSwap(peak, cur) {
			break
		}
	}

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	p.mu.Lock()
	fail := p.failAll || p.failPaths[audioPath]
	p.mu.Unlock()
	if fail {
		return nil, fmt.Errorf("provider rejected %s", audioPath)
	}

	text := "text for " + audioPath
	if p.resultText != nil {
		text = p.resultText(audioPath)
	}
	return &stt.Result{Text: text, Confidence: 0.8, Language: "en", Words: p.words}, nil
}

func makeSegments(n int) []media.Segment {
	segments := make([]media.Segment, n)
	for i := range segments {
		segments[i] = media.Segment{
			Index:              i,
			LocalPath:          fmt.Sprintf("/tmp/segment_%03d.mp3", i),
			StartOffsetSeconds: float64(i * 600),
			DurationSeconds:    600,
		}
	}
	return segments
}

func TestTranscribeSegmentsOrdersResults(t *testing.T) {
	provider := &fakeProvider{}
	exec := NewExecutor(provider, 3, time.Minute, testLogger())

	results, err := exec.TranscribeSegments(context.Background(), makeSegments(7), stt.Options{}, nil)
	if err != nil {
		t.Fatalf("TranscribeSegments error: %v", err)
	}
	if len(results) != 7 {
		t.Fatalf("got %d results, expected 7", len(results))
	}
	for i, r := range results {
		if r.Index != i {
			t.Fatalf("result %d has index %d", i, r.Index)
		}
		if !r.Succeeded {
			t.Fatalf("result %d unexpectedly failed", i)
		}
	}
}

func TestTranscribeSegmentsBoundsConcurrency(t *testing.T) {
	provider := &fakeProvider{delay: 20 * time.Millisecond}
	exec := NewExecutor(provider, 3, time.Minute, testLogger())

	if _, err := exec.TranscribeSegments(context.Background(), makeSegments(9), stt.Options{}, nil); err != nil {
		t.Fatalf("TranscribeSegments error: %v", err)
	}
	if peak := provider.peakUsage.Load(); peak > 3 {
		t.Fatalf("peak concurrency = %d, limit is 3", peak)
	}
}

func TestTranscribeSegmentsPlaceholdersPartialFailure(t *testing.T) {
	provider := &fakeProvider{failPaths: map[string]bool{
		"/tmp/segment_001.mp3": true,
	}}
	exec := NewExecutor(provider, 2, time.Minute, testLogger())

	results, err := exec.TranscribeSegments(context.Background(), makeSegments(3), stt.Options{}, nil)
	if err != nil {
		t.Fatalf("partial failure must not abort: %v", err)
	}

	if results[1].Succeeded {
		t.Fatal("segment 1 should be marked failed")
	}
	if results[1].Text != "[segment 2 unavailable]" {
		t.Fatalf("placeholder text = %q", results[1].Text)
	}
	if !results[0].Succeeded || !results[2].Succeeded {
		t.Fatal("other segments should succeed")
	}
}

func TestTranscribeSegmentsAllFailed(t *testing.T) {
	provider := &fakeProvider{failPaths: map[string]bool{
		"/tmp/segment_000.mp3": true,
		"/tmp/segment_001.mp3": true,
	}}
	exec := NewExecutor(provider, 2, time.Minute, testLogger())

	_, err := exec.TranscribeSegments(context.Background(), makeSegments(2), stt.Options{}, nil)
	if !errors.IsKind(err, errors.KindAllSegmentsFailed) {
		t.Fatalf("expected all_segments_failed, got %v", err)
	}
}

func TestTranscribeSegmentsReportsProgress(t *testing.T) {
	provider := &fakeProvider{}
	exec := NewExecutor(provider, 2, time.Minute, testLogger())

	var mu sync.Mutex
	var marks [][2]int
	progress := func(done, total int) {
		mu.Lock()
		marks = append(marks, [2]int{done, total})
		mu.Unlock()
	}

	if _, err := exec.TranscribeSegments(context.Background(), makeSegments(5), stt.Options{}, progress); err != nil {
		t.Fatalf("TranscribeSegments error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := [][2]int{{2, 5}, {4, 5}, {5, 5}}
	if len(marks) != len(want) {
		t.Fatalf("progress marks = %v, expected %v", marks, want)
	}
	for i := range want {
		if marks[i] != want[i] {
			t.Fatalf("progress marks = %v, expected %v", marks, want)
		}
	}
}
