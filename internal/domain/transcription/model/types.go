package model

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// RefKind distinguishes the two supported content sources.
type RefKind string

const (
	RefAudioUpload RefKind = "audio"
	RefRemoteVideo RefKind = "video"
)

// ContentReference identifies a piece of input media. It is derived
// deterministically from the caller's input and immutable once created.
type ContentReference struct {
	Kind RefKind `json:"kind"`
	// ID is the opaque storage path for uploads or the normalized video
	// identifier for remote video.
	ID string `json:"id"`
}

// Key returns the canonical identity string used for cache and lock keying.
func (r ContentReference) Key() string {
	return string(r.Kind) + ":" + r.ID
}

// NewUploadReference builds a reference for an uploaded audio asset.
func NewUploadReference(storagePath string) (ContentReference, error) {
	path := strings.TrimSpace(storagePath)
	if path == "" {
		return ContentReference{}, fmt.Errorf("storage path is required")
	}
	return ContentReference{Kind: RefAudioUpload, ID: path}, nil
}

// NewVideoReference normalizes a remote video URL into a stable identifier
// so equivalent URLs map to the same cache and lock keys.
func NewVideoReference(rawURL string) (ContentReference, error) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return ContentReference{}, fmt.Errorf("video url is required")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ContentReference{}, fmt.Errorf("parse video url: %w", err)
	}

	id := extractVideoID(u)
	if id == "" {
		return ContentReference{}, fmt.Errorf("unrecognized video url: %s", raw)
	}
	return ContentReference{Kind: RefRemoteVideo, ID: id}, nil
}

func extractVideoID(u *url.URL) string {
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtu.be":
		return strings.Trim(u.Path, "/")
	case "youtube.com", "m.youtube.com":
		if v := u.Query().Get("v"); v != "" {
			return v
		}
		for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
			if strings.HasPrefix(u.Path, prefix) {
				rest := strings.TrimPrefix(u.Path, prefix)
				if i := strings.IndexByte(rest, '/'); i >= 0 {
					rest = rest[:i]
				}
				return rest
			}
		}
	}
	return ""
}

// Word is a single transcribed word with timing relative to the whole asset.
type Word struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// SegmentResult is the outcome of transcribing one segment. Failed segments
// still occupy their index so reassembly never skips a position.
type SegmentResult struct {
	Index      int     `json:"index"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Words      []Word  `json:"words,omitempty"`
	Language   string  `json:"language,omitempty"`
	Succeeded  bool    `json:"succeeded"`
}

// Transcript is the externally visible result of a pipeline run.
type Transcript struct {
	FullText          string  `json:"full_text"`
	OverallConfidence float64 `json:"overall_confidence"`
	DurationSeconds   float64 `json:"duration_seconds"`
	Words             []Word  `json:"words,omitempty"`
	Language          string  `json:"language,omitempty"`
	Provider          string  `json:"provider"`
}

// CacheEntry associates a transcript with the request identity it was
// produced for. Transcripts are principal-scoped by design.
type CacheEntry struct {
	Key        string     `json:"key"`
	ContentRef string     `json:"content_ref"`
	Principal  string     `json:"principal"`
	Transcript Transcript `json:"transcript"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// CacheKey builds the composite cache/lock key. Identical content requested
// by different principals must never share entries.
func CacheKey(ref ContentReference, principal string) string {
	return ref.Key() + "|" + principal
}
