package transcription

import (
	"strings"

	"studyscribe-server-go/internal/domain/transcription/model"
)

// Merge reassembles per-segment results into one transcript. Word timestamps
// are shifted by each segment's deterministic start offset so they read as
// absolute positions in the original recording. Confidence is the mean over
// segments that succeeded.
func Merge(results []model.SegmentResult, chunkSeconds int, assetDurationSeconds float64, provider string) model.Transcript {
	texts := make([]string, 0, len(results))
	var words []model.Word
	var confSum float64
	succeeded := 0
	language := ""

	for _, r := range results {
		texts = append(texts, strings.TrimSpace(r.Text))
		if !r.Succeeded {
			continue
		}
		succeeded++
		confSum += r.Confidence
		if language == "" {
			language = r.Language
		}

		offset := float64(r.Index * chunkSeconds)
		for _, w := range r.Words {
			words = append(words, model.Word{
				Text:  w.Text,
				Start: w.Start + offset,
				End:   w.End + offset,
			})
		}
	}

	transcript := model.Transcript{
		FullText:        strings.Join(texts, "\n\n"),
		DurationSeconds: assetDurationSeconds,
		Words:           words,
		Language:        language,
		Provider:        provider,
	}
	if succeeded > 0 {
		transcript.OverallConfidence = confSum / float64(succeeded)
	}
	return transcript
}
