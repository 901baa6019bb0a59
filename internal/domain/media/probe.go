package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	mp3 "github.com/hajimehoshi/go-mp3"
)

var (
	ffmpegDurationRe = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+)\.(\d+)`)
	ffmpegTimeRe     = regexp.MustCompile(`time=(\d+):(\d+):(\d+)\.(\d+)`)
)

// ProbeDuration determines the duration of an audio file in seconds.
// It asks ffmpeg first and falls back to decoding mp3 headers locally.
// Returns 0 when the duration cannot be measured; the strategy selector
// substitutes its configured fallback in that case.
func ProbeDuration(ctx context.Context, runner CommandRunner, ffmpegPath, path string, logger *slog.Logger) float64 {
	res, err := runner.Run(ctx, ffmpegPath, "-hide_banner", "-nostdin", "-i", path, "-f", "null", "-")
	// ffmpeg reports file info on stderr and may exit non-zero even when
	// it read the input fine, so parse the output regardless.
	output := res.Stderr + res.Stdout
	if d, perr := ParseFFmpegDuration(output); perr == nil {
		return d
	} else if err == nil {
		err = perr
	}

	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		if d, merr := mp3Duration(path); merr == nil {
			return d
		}
	}

	if logger != nil {
		logger.Warn("duration probe failed, fallback policy applies",
			"path", path, "error", err)
	}
	return 0
}

// ParseFFmpegDuration extracts a duration from ffmpeg console output.
func ParseFFmpegDuration(output string) (float64, error) {
	if m := ffmpegDurationRe.FindStringSubmatch(output); m != nil {
		return timeComponentsToSeconds(m[1], m[2], m[3], m[4]), nil
	}
	// Progress lines carry time=HH:MM:SS.cc; the last one is the total.
	all := ffmpegTimeRe.FindAllStringSubmatch(output, -1)
	if len(all) > 0 {
		m := all[len(all)-1]
		return timeComponentsToSeconds(m[1], m[2], m[3], m[4]), nil
	}
	return 0, fmt.Errorf("no duration in ffmpeg output")
}

func timeComponentsToSeconds(hours, minutes, seconds, fraction string) float64 {
	h, _ := strconv.Atoi(hours)
	m, _ := strconv.Atoi(minutes)
	s, _ := strconv.Atoi(seconds)
	frac, _ := strconv.ParseFloat("0."+fraction, 64)
	return float64(h*3600+m*60+s) + frac
}

// mp3Duration decodes just enough of an mp3 file to compute its length.
func mp3Duration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return 0, err
	}
	if dec.SampleRate() <= 0 {
		return 0, fmt.Errorf("invalid sample rate")
	}
	// Length is total PCM bytes, 2 channels x 2 bytes per sample.
	return float64(dec.Length()) / 4 / float64(dec.SampleRate()), nil
}
