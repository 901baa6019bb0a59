package transcription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"studyscribe-server-go/internal/domain/media"
	"studyscribe-server-go/internal/domain/transcription/model"
	"studyscribe-server-go/internal/platform/errors"
	"studyscribe-server-go/internal/providers/stt"
)

// Executor drives recognition calls against the configured provider with
// bounded concurrency and per-segment timeouts.
type Executor struct {
	provider       stt.Provider
	maxConcurrency int
	segmentTimeout time.Duration
	logger         *slog.Logger
}

func NewExecutor(provider stt.Provider, maxConcurrency int, segmentTimeout time.Duration, logger *slog.Logger) *Executor {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &Executor{
		provider:       provider,
		maxConcurrency: maxConcurrency,
		segmentTimeout: segmentTimeout,
		logger:         logger,
	}
}

// TranscribeAsset recognizes one whole audio file. Standard path.
func (e *Executor) TranscribeAsset(ctx context.Context, asset *media.AudioAsset, opts stt.Options) (*stt.Result, error) {
	callCtx := ctx
	if e.segmentTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.segmentTimeout)
		defer cancel()
	}
	return e.provider.Transcribe(callCtx, asset.LocalPath, opts)
}

// TranscribeSegments recognizes every segment in index order using batches
// of at most maxConcurrency parallel calls. A failed segment yields a
// placeholder result at its index; the whole run fails only when every
// segment fails.
func (e *Executor) TranscribeSegments(ctx context.Context, segments []media.Segment, opts stt.Options, progress func(done, total int)) ([]model.SegmentResult, error) {
	const op = "transcription.execute"

	total := len(segments)
	results := make([]model.SegmentResult, total)

	for start := 0; start < total; start += e.maxConcurrency {
		end := start + e.maxConcurrency
		if end > total {
			end = total
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, seg := range segments[start:end] {
			seg := seg
			g.Go(func() error {
				results[seg.Index] = e.transcribeOne(gctx, seg, opts)
				return nil
			})
		}
		// Workers report failures through their result slot, so this only
		// surfaces context cancellation.
		if err := g.Wait(); err != nil {
			return nil, errors.Wrap(errors.KindMedia, op, "segment batch aborted", err)
		}
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.KindMedia, op, "run cancelled", err)
		}

		if progress != nil {
			progress(end, total)
		}
	}

	succeeded := 0
	for _, r := range results {
		if r.Succeeded {
			succeeded++
		}
	}
	if succeeded == 0 {
		return nil, errors.New(errors.KindAllSegmentsFailed, op,
			fmt.Sprintf("all %d segments failed", total))
	}

	e.logger.Info("segment batch run finished",
		"total", total,
		"succeeded", succeeded,
		"failed", total-succeeded)
	return results, nil
}

func (e *Executor) transcribeOne(ctx context.Context, seg media.Segment, opts stt.Options) model.SegmentResult {
	callCtx := ctx
	if e.segmentTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.segmentTimeout)
		defer cancel()
	}

	res, err := e.provider.Transcribe(callCtx, seg.LocalPath, opts)
	if err != nil {
		e.logger.Warn("segment recognition failed",
			"index", seg.Index, "path", seg.LocalPath, "error", err)
		return model.SegmentResult{
			Index:     seg.Index,
			Text:      fmt.Sprintf("[segment %d unavailable]", seg.Index+1),
			Succeeded: false,
		}
	}

	out := model.SegmentResult{
		Index:      seg.Index,
		Text:       res.Text,
		Confidence: res.Confidence,
		Language:   res.Language,
		Succeeded:  true,
	}
	for _, w := range res.Words {
		out.Words = append(out.Words, model.Word{Text: w.Text, Start: w.Start, End: w.End})
	}
	return out
}
