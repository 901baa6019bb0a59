package transcription

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"studyscribe-server-go/internal/domain/eventbus"
	"studyscribe-server-go/internal/domain/media"
	"studyscribe-server-go/internal/domain/transcription/model"
	"studyscribe-server-go/internal/platform/config"
	"studyscribe-server-go/internal/platform/errors"
	"studyscribe-server-go/internal/platform/observability"
	"studyscribe-server-go/internal/providers/host"
	"studyscribe-server-go/internal/providers/stt"
)

// timeNow is swapped in tests that pin cache entry timestamps.
var timeNow = time.Now

// mediaAcquirer materializes a content reference as a local audio file.
type mediaAcquirer interface {
	Acquire(ctx context.Context, ref model.ContentReference, workDir string) (*media.AudioAsset, error)
}

// audioSplitter cuts an asset into fixed-duration segments. totalSeconds
// bounds the window count when the asset's own probe came up empty.
type audioSplitter interface {
	Split(ctx context.Context, asset *media.AudioAsset, workDir string, chunkSeconds int, totalSeconds float64) ([]media.Segment, error)
}

// transcriptCache is the two-tier result cache surface the service needs.
type transcriptCache interface {
	Get(ctx context.Context, key string) (*model.CacheEntry, error)
	Put(ctx context.Context, entry *model.CacheEntry) error
}

// Service orchestrates the full pipeline: cache lookup, mutual exclusion,
// strategy selection, recognition, reassembly, and cache write-back.
type Service struct {
	cfg      config.TranscriptionConfig
	mediaCfg config.MediaConfig

	acquirer   mediaAcquirer
	splitter   audioSplitter
	executor   *Executor
	provider   stt.Provider
	hostClient host.Client
	cache      transcriptCache
	locks      *LockTable
	logger     *slog.Logger
}

// Options assembles a Service. HostClient may be nil to disable the caption
// fast path.
type Options struct {
	Config     config.TranscriptionConfig
	MediaCfg   config.MediaConfig
	Acquirer   mediaAcquirer
	Splitter   audioSplitter
	Provider   stt.Provider
	HostClient host.Client
	Cache      transcriptCache
	Logger     *slog.Logger
}

func NewService(opts Options) *Service {
	return &Service{
		cfg:        opts.Config,
		mediaCfg:   opts.MediaCfg,
		acquirer:   opts.Acquirer,
		splitter:   opts.Splitter,
		executor:   NewExecutor(opts.Provider, opts.Config.MaxConcurrency, opts.Config.SegmentTimeout, opts.Logger),
		provider:   opts.Provider,
		hostClient: opts.HostClient,
		cache:      opts.Cache,
		locks:      NewLockTable(),
		logger:     opts.Logger,
	}
}

// Transcribe produces a transcript for the request, serving from cache when
// possible and rejecting concurrent duplicates fail-fast.
func (s *Service) Transcribe(ctx context.Context, req *Request) (*model.Transcript, error) {
	const op = "transcription.transcribe"

	if err := req.validate(); err != nil {
		return nil, errors.Wrap(errors.KindMedia, op, "invalid request", err)
	}

	key := model.CacheKey(req.Ref, req.Principal)

	ctx, endSpan := observability.StartSpan(ctx, "pipeline", "transcribe")
	var runErr error
	defer func() { endSpan(runErr) }()

	if entry, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("cache lookup failed, proceeding without it",
			"key", key, "error", err)
	} else if entry != nil {
		s.logger.Info("transcript served from cache", "key", key)
		observability.RecordCacheHit(ctx)
		eventbus.PublishAsync(eventbus.EventCacheHit, eventbus.TranscribeEventData{
			ContentRef: req.Ref.Key(),
			Principal:  req.Principal,
		})
		// Copy the entry so callers cannot mutate the cached value through
		// the shared Words slice.
		transcript := entry.Transcript
		transcript.Words = append([]model.Word(nil), entry.Transcript.Words...)
		return &transcript, nil
	}

	release, err := s.locks.TryAcquire(key)
	if err != nil {
		runErr = err
		return nil, err
	}
	defer release()

	workDir := filepath.Join(s.mediaCfg.TempDir, "run-"+uuid.NewString())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		runErr = errors.Wrap(errors.KindMedia, op, "create run dir", err)
		return nil, runErr
	}
	janitor := media.NewJanitor(s.logger)
	janitor.Track(workDir)
	defer janitor.Cleanup()

	eventbus.PublishAsync(eventbus.EventTranscribeStarted, eventbus.TranscribeEventData{
		ContentRef: req.Ref.Key(),
		Principal:  req.Principal,
	})

	run := &pipelineRun{svc: s, req: req, workDir: workDir}
	// Bridge caller progress onto the event bus so subscribers see the same
	// advisory notifications. The bridge lives on the run, never on the
	// caller's Request.
	run.progress = func(stage string, percent int) {
		if req.Progress != nil {
			req.Progress(stage, percent)
		}
		eventbus.PublishAsync(eventbus.EventTranscribeProgress, eventbus.TranscribeEventData{
			ContentRef: req.Ref.Key(),
			Principal:  req.Principal,
			Stage:      stage,
			Percent:    percent,
		})
	}

	transcript, err := s.runCascade(ctx, run)
	if err != nil {
		s.logger.Error("transcription run failed",
			"ref", req.Ref.Key(), "principal", req.Principal, "error", err)
		eventbus.PublishAsync(eventbus.EventTranscribeFailed, eventbus.TranscribeEventData{
			ContentRef: req.Ref.Key(),
			Principal:  req.Principal,
			Strategy:   run.strategy,
			Error:      errors.UserMessage(err),
		})
		runErr = err
		return nil, err
	}

	entry := &model.CacheEntry{
		Key:        key,
		ContentRef: req.Ref.Key(),
		Principal:  req.Principal,
		Transcript: *transcript,
		CreatedAt:  timeNow(),
	}
	// The memory tier keeps the entry as-is; give it its own Words slice.
	entry.Transcript.Words = append([]model.Word(nil), transcript.Words...)
	if err := s.cache.Put(ctx, entry); err != nil {
		// A cache write failure degrades idempotence, not correctness.
		s.logger.Warn("cache write failed", "key", key, "error", err)
	}

	observability.RecordRunOutcome(ctx, run.strategy, transcript.Provider, transcript.DurationSeconds, run.segmentCount)
	eventbus.PublishAsync(eventbus.EventTranscribeCompleted, eventbus.TranscribeEventData{
		ContentRef:   req.Ref.Key(),
		Principal:    req.Principal,
		Strategy:     run.strategy,
		Provider:     transcript.Provider,
		AudioSeconds: transcript.DurationSeconds,
		Segments:     run.segmentCount,
	})

	s.logger.Info("transcription run completed",
		"ref", req.Ref.Key(),
		"strategy", run.strategy,
		"duration_seconds", transcript.DurationSeconds,
		"segments", run.segmentCount)
	return transcript, nil
}

func (s *Service) runCascade(ctx context.Context, run *pipelineRun) (*model.Transcript, error) {
	const op = "transcription.cascade"

	for _, strat := range s.strategies() {
		ok, err := strat.applies(ctx, run)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		run.strategy = strat.name
		transcript, err := strat.attempt(ctx, run)
		if err != nil {
			return nil, err
		}
		if transcript != nil {
			return transcript, nil
		}
		// nil/nil means the strategy declined; keep falling through.
	}
	return nil, errors.New(errors.KindMedia, op, "no strategy produced a transcript")
}
