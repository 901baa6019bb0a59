package media

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"studyscribe-server-go/internal/platform/config"
	"studyscribe-server-go/internal/platform/errors"
)

// Splitter cuts an audio asset into fixed-duration segments, one ffmpeg
// invocation per window. Each segment is re-encoded to mono mp3 with its own
// leading silence trimmed, so providers are not billed for dead air at any
// chunk boundary.
type Splitter struct {
	runner CommandRunner
	cfg    config.MediaConfig
	logger *slog.Logger
}

func NewSplitter(runner CommandRunner, cfg config.MediaConfig, logger *slog.Logger) *Splitter {
	return &Splitter{runner: runner, cfg: cfg, logger: logger}
}

// Split produces contiguous segments of chunkSeconds each (the final one may
// be shorter). Segment start offsets are deterministic: index * chunkSeconds.
// totalSeconds bounds the window count; when it overestimates the real audio
// length, trailing empty windows are discarded.
func (s *Splitter) Split(ctx context.Context, asset *AudioAsset, workDir string, chunkSeconds int, totalSeconds float64) ([]Segment, error) {
	const op = "media.split"

	if chunkSeconds <= 0 {
		return nil, errors.New(errors.KindSplitFailed, op, "chunk duration must be positive")
	}
	if totalSeconds <= 0 {
		return nil, errors.New(errors.KindSplitFailed, op, "total duration must be positive")
	}

	segDir := filepath.Join(workDir, "segments")
	if err := os.MkdirAll(segDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.KindSplitFailed, op, "create segment dir", err)
	}

	count := int(math.Ceil(totalSeconds / float64(chunkSeconds)))
	segments := make([]Segment, 0, count)
	for i := 0; i < count; i++ {
		start := i * chunkSeconds
		out := filepath.Join(segDir, fmt.Sprintf("segment_%03d.mp3", i))
		res, err := s.runner.Run(ctx, s.cfg.FFmpegPath,
			"-hide_banner", "-nostdin", "-y",
			"-ss", fmt.Sprintf("%d", start),
			"-t", fmt.Sprintf("%d", chunkSeconds),
			"-i", asset.LocalPath,
			"-vn",
			"-ac", "1",
			"-ar", fmt.Sprintf("%d", s.cfg.SampleRate),
			"-c:a", "libmp3lame",
			"-b:a", s.cfg.Bitrate,
			"-af", "silenceremove=start_periods=1:start_threshold=-45dB",
			out,
		)
		if err != nil {
			s.logger.Error("ffmpeg segment encode failed",
				"source", asset.LocalPath,
				"segment", i,
				"start_seconds", start,
				"exit_code", res.ExitCode,
				"stderr", tail(res.Stderr, 500))
			return nil, errors.Wrap(errors.KindSplitFailed, op, "ffmpeg segment encode failed", err)
		}

		info, statErr := os.Stat(out)
		if statErr != nil || info.Size() == 0 {
			// The window starts past the real end of the audio; the duration
			// estimate overshot. Everything encoded so far is complete.
			break
		}

		seg := Segment{
			Index:              i,
			LocalPath:          out,
			StartOffsetSeconds: float64(start),
			DurationSeconds:    float64(chunkSeconds),
		}
		if remain := totalSeconds - seg.StartOffsetSeconds; remain > 0 && remain < seg.DurationSeconds {
			seg.DurationSeconds = remain
		}
		segments = append(segments, seg)
	}

	if len(segments) == 0 {
		return nil, errors.New(errors.KindSplitFailed, op, "segmentation produced no files")
	}

	s.logger.Info("audio asset segmented",
		"source", asset.LocalPath,
		"segments", len(segments),
		"chunk_seconds", chunkSeconds)
	return segments, nil
}
