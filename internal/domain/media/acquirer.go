package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"studyscribe-server-go/internal/domain/transcription/model"
	"studyscribe-server-go/internal/platform/config"
	"studyscribe-server-go/internal/platform/errors"
)

// Acquirer materializes a ContentReference as a local audio file. Uploads are
// transcoded to a uniform format; remote video has its audio track extracted
// with yt-dlp.
type Acquirer struct {
	runner CommandRunner
	cfg    config.MediaConfig
	logger *slog.Logger
}

func NewAcquirer(runner CommandRunner, cfg config.MediaConfig, logger *slog.Logger) *Acquirer {
	return &Acquirer{runner: runner, cfg: cfg, logger: logger}
}

// Acquire fetches or transcodes the referenced content into workDir and
// returns the resulting asset with its measured duration.
func (a *Acquirer) Acquire(ctx context.Context, ref model.ContentReference, workDir string) (*AudioAsset, error) {
	const op = "media.acquire"

	var (
		path string
		err  error
	)
	switch ref.Kind {
	case model.RefAudioUpload:
		path, err = a.transcodeUpload(ctx, ref.ID, workDir)
	case model.RefRemoteVideo:
		path, err = a.fetchVideoAudio(ctx, ref.ID, workDir)
	default:
		return nil, errors.New(errors.KindMedia, op, fmt.Sprintf("unsupported reference kind %q", ref.Kind))
	}
	if err != nil {
		return nil, err
	}

	info, statErr := os.Stat(path)
	if statErr != nil {
		return nil, errors.Wrap(errors.KindMedia, op, "acquired file missing", statErr)
	}

	asset := &AudioAsset{
		LocalPath: path,
		SizeBytes: info.Size(),
		Format:    strings.TrimPrefix(filepath.Ext(path), "."),
	}
	asset.DurationSeconds = ProbeDuration(ctx, a.runner, a.cfg.FFmpegPath, path, a.logger)

	a.logger.Info("audio asset acquired",
		"ref", ref.Key(),
		"path", path,
		"duration_seconds", asset.DurationSeconds,
		"size_bytes", asset.SizeBytes)
	return asset, nil
}

// transcodeUpload converts an uploaded file to mono mp3 at the configured
// sample rate so downstream splitting sees one uniform input shape.
func (a *Acquirer) transcodeUpload(ctx context.Context, sourcePath, workDir string) (string, error) {
	const op = "media.transcode"

	if _, err := os.Stat(sourcePath); err != nil {
		return "", errors.Wrap(errors.KindContentUnavailable, op, "uploaded file not found", err)
	}

	dest := filepath.Join(workDir, "source.mp3")
	res, err := a.runner.Run(ctx, a.cfg.FFmpegPath,
		"-hide_banner", "-nostdin", "-y",
		"-i", sourcePath,
		"-vn",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", a.cfg.SampleRate),
		"-c:a", "libmp3lame",
		"-b:a", a.cfg.Bitrate,
		dest,
	)
	if err != nil {
		a.logger.Error("ffmpeg transcode failed",
			"source", sourcePath, "exit_code", res.ExitCode, "stderr", tail(res.Stderr, 500))
		return "", errors.Wrap(errors.KindMedia, op, "ffmpeg transcode failed", err)
	}
	return dest, nil
}

// fetchVideoAudio downloads the audio track of a remote video via yt-dlp.
func (a *Acquirer) fetchVideoAudio(ctx context.Context, videoID, workDir string) (string, error) {
	const op = "media.fetch_video"

	dest := filepath.Join(workDir, "source.%(ext)s")
	res, err := a.runner.Run(ctx, a.cfg.YtdlpPath,
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "9",
		"--no-playlist",
		"-o", dest,
		"https://www.youtube.com/watch?v="+videoID,
	)
	if err != nil {
		a.logger.Error("yt-dlp fetch failed",
			"video_id", videoID, "exit_code", res.ExitCode, "stderr", tail(res.Stderr, 500))
		if isContentUnavailable(res.Stderr) {
			return "", errors.Wrap(errors.KindContentUnavailable, op, "video unavailable", err)
		}
		return "", errors.Wrap(errors.KindMedia, op, "yt-dlp fetch failed", err)
	}

	path := filepath.Join(workDir, "source.mp3")
	if _, statErr := os.Stat(path); statErr != nil {
		return "", errors.Wrap(errors.KindContentUnavailable, op, "no audio produced for video", statErr)
	}
	return path, nil
}

// isContentUnavailable classifies yt-dlp stderr into the permanent-failure
// bucket so callers can surface a useful message instead of retrying.
func isContentUnavailable(stderr string) bool {
	lower := strings.ToLower(stderr)
	for _, marker := range []string{
		"private video",
		"video unavailable",
		"not available",
		"not found",
		"copyright",
		"has been removed",
		"blocked in your country",
		"region",
		"members-only",
		"sign in to confirm your age",
	} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
