package eventbus

// Pipeline event topics.
const (
	EventTranscribeStarted   = "transcribe:started"
	EventTranscribeProgress  = "transcribe:progress"
	EventTranscribeCompleted = "transcribe:completed"
	EventTranscribeFailed    = "transcribe:failed"

	EventCacheHit = "cache:hit"

	EventSystemError = "system:error"
	EventSystemInfo  = "system:info"
)

// TranscribeEventData describes one pipeline run's lifecycle events.
type TranscribeEventData struct {
	ContentRef   string  `json:"content_ref"`
	Principal    string  `json:"principal"`
	Strategy     string  `json:"strategy,omitempty"`
	Provider     string  `json:"provider,omitempty"`
	AudioSeconds float64 `json:"audio_seconds,omitempty"`
	Segments     int     `json:"segments,omitempty"`
	// Stage and Percent carry advisory progress.
	Stage   string `json:"stage,omitempty"`
	Percent int    `json:"percent,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SystemEventData carries out-of-band diagnostics.
type SystemEventData struct {
	Level   string      `json:"level"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
