package transcription

import (
	"context"

	"studyscribe-server-go/internal/domain/media"
	"studyscribe-server-go/internal/domain/transcription/model"
	"studyscribe-server-go/internal/platform/errors"
	"studyscribe-server-go/internal/providers/host"
	"studyscribe-server-go/internal/providers/stt"
)

// pipelineRun carries one request's per-run state through the strategy
// cascade. Asset acquisition is lazy and memoized: the host fast path never
// touches the audio, and the chunked and standard paths share one download.
type pipelineRun struct {
	svc      *Service
	req      *Request
	workDir  string
	strategy string

	// progress is the service's bridge over the caller callback and the
	// event bus; it is run-scoped so the caller's Request stays untouched.
	progress ProgressFunc

	asset    *media.AudioAsset
	assetErr error
	acquired bool

	// segments recognized, for accounting. 1 on the standard path.
	segmentCount int
}

func (r *pipelineRun) notify(stage string, percent int) {
	if r.progress != nil {
		r.progress(stage, percent)
	}
}

func (r *pipelineRun) ensureAsset(ctx context.Context) (*media.AudioAsset, error) {
	if r.acquired {
		return r.asset, r.assetErr
	}
	r.acquired = true
	r.asset, r.assetErr = r.svc.acquirer.Acquire(ctx, r.req.Ref, r.workDir)
	return r.asset, r.assetErr
}

// effectiveDuration returns the asset's measured duration, or the configured
// fallback when the probe came up empty.
func (r *pipelineRun) effectiveDuration(ctx context.Context) (float64, error) {
	asset, err := r.ensureAsset(ctx)
	if err != nil {
		return 0, err
	}
	if asset.DurationSeconds > 0 {
		return asset.DurationSeconds, nil
	}
	return r.svc.cfg.DurationFallbackSeconds, nil
}

// needsChunking decides the split question. Unmeasurable inputs always take
// the chunked path: a single oversized request is the riskier mistake.
func (r *pipelineRun) needsChunking(ctx context.Context) (bool, error) {
	asset, err := r.ensureAsset(ctx)
	if err != nil {
		return false, err
	}
	if asset.DurationSeconds <= 0 {
		return true, nil
	}
	return asset.DurationSeconds > r.svc.cfg.StandardThresholdSeconds, nil
}

func (r *pipelineRun) sttOptions() stt.Options {
	return stt.Options{
		Language:           r.req.Language,
		Quality:            r.req.Quality,
		WantWordTimestamps: r.req.WantWordTimestamps,
	}
}

// strategy is one way to produce a transcript. attempt returns (nil, nil) to
// decline and let the cascade fall through to the next strategy.
type strategy struct {
	name    string
	applies func(ctx context.Context, run *pipelineRun) (bool, error)
	attempt func(ctx context.Context, run *pipelineRun) (*model.Transcript, error)
}

func (s *Service) strategies() []strategy {
	return []strategy{
		{
			name: "host_transcript",
			applies: func(ctx context.Context, run *pipelineRun) (bool, error) {
				return run.req.Ref.Kind == model.RefRemoteVideo && s.hostClient != nil, nil
			},
			attempt: s.attemptHostTranscript,
		},
		{
			name: "chunked",
			applies: func(ctx context.Context, run *pipelineRun) (bool, error) {
				return run.needsChunking(ctx)
			},
			attempt: s.attemptChunked,
		},
		{
			name: "standard",
			applies: func(ctx context.Context, run *pipelineRun) (bool, error) {
				return true, nil
			},
			attempt: s.attemptStandard,
		},
	}
}

// attemptHostTranscript fetches the platform's own caption track. This skips
// media download and recognition entirely when the host has one.
func (s *Service) attemptHostTranscript(ctx context.Context, run *pipelineRun) (*model.Transcript, error) {
	ht, err := s.hostClient.Fetch(ctx, run.req.Ref.ID)
	if err == host.ErrUnavailable {
		s.logger.Debug("no host transcript, falling through",
			"ref", run.req.Ref.Key())
		return nil, nil
	}
	if err != nil {
		s.logger.Warn("host transcript fetch errored, falling through",
			"ref", run.req.Ref.Key(), "error", err)
		return nil, nil
	}

	run.segmentCount = 0
	transcript := model.Transcript{
		FullText:        ht.FullText(),
		DurationSeconds: ht.DurationSeconds(),
		Language:        ht.Language,
		Provider:        "host",
		// Host captions are human- or platform-curated; treat as certain.
		OverallConfidence: 1,
	}
	return &transcript, nil
}

// attemptChunked splits the audio and recognizes the pieces in parallel.
// A failed split declines so the standard path gets one last try.
func (s *Service) attemptChunked(ctx context.Context, run *pipelineRun) (*model.Transcript, error) {
	asset, err := run.ensureAsset(ctx)
	if err != nil {
		return nil, err
	}

	total, err := run.effectiveDuration(ctx)
	if err != nil {
		return nil, err
	}

	run.notify("splitting", 0)
	segments, err := s.splitter.Split(ctx, asset, run.workDir, s.cfg.ChunkSeconds, total)
	if err != nil {
		if errors.IsKind(err, errors.KindSplitFailed) {
			s.logger.Warn("segmentation failed, falling back to single pass",
				"ref", run.req.Ref.Key(), "error", err)
			return nil, nil
		}
		return nil, err
	}

	results, err := s.executor.TranscribeSegments(ctx, segments, run.sttOptions(), func(done, total int) {
		run.notify("transcribing", done*100/total)
	})
	if err != nil {
		return nil, err
	}
	run.notify("merging", 100)

	run.segmentCount = len(segments)
	transcript := Merge(results, s.cfg.ChunkSeconds, asset.DurationSeconds, s.provider.Name())
	if transcript.DurationSeconds == 0 {
		transcript.DurationSeconds, _ = run.effectiveDuration(ctx)
	}
	return &transcript, nil
}

// attemptStandard recognizes the whole asset in one provider call.
func (s *Service) attemptStandard(ctx context.Context, run *pipelineRun) (*model.Transcript, error) {
	asset, err := run.ensureAsset(ctx)
	if err != nil {
		return nil, err
	}

	run.notify("transcribing", 0)
	res, err := s.executor.TranscribeAsset(ctx, asset, run.sttOptions())
	if err != nil {
		return nil, err
	}

	run.segmentCount = 1
	transcript := model.Transcript{
		FullText:          res.Text,
		OverallConfidence: res.Confidence,
		DurationSeconds:   asset.DurationSeconds,
		Language:          res.Language,
		Provider:          s.provider.Name(),
	}
	for _, w := range res.Words {
		transcript.Words = append(transcript.Words, model.Word{Text: w.Text, Start: w.Start, End: w.End})
	}
	return &transcript, nil
}
