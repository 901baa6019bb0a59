package transcription

import (
	"fmt"

	"studyscribe-server-go/internal/domain/transcription/model"
)

// ProgressFunc receives advisory progress: a stage label and a 0-100
// percentage. Callers must never rely on it for correctness.
type ProgressFunc func(stage string, percent int)

// Request asks for one transcript. Identical requests (same reference and
// principal) are idempotent via the cache.
type Request struct {
	Ref                model.ContentReference
	Principal          string
	Language           string
	// Quality is an advisory provider hint ("fast", "accurate"); providers
	// that have no such knob ignore it.
	Quality            string
	WantWordTimestamps bool
	// Progress is optional; the service reads it but never modifies it.
	// Stages reported: "splitting" and "merging" on the chunked path,
	// "transcribing" on both recognition paths.
	Progress ProgressFunc
}

func (r *Request) validate() error {
	if r.Principal == "" {
		return fmt.Errorf("principal is required")
	}
	if r.Ref.Kind == "" || r.Ref.ID == "" {
		return fmt.Errorf("content reference is required")
	}
	return nil
}
