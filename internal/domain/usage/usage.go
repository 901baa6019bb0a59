package usage

import (
	"log/slog"

	"gorm.io/gorm"

	"studyscribe-server-go/internal/domain/eventbus"
	"studyscribe-server-go/internal/platform/storage"
)

// Recorder persists one accounting row per completed transcription. It is
// driven by pipeline completion events so the pipeline itself never blocks
// on bookkeeping.
type Recorder struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRecorder(db *gorm.DB, logger *slog.Logger) *Recorder {
	return &Recorder{db: db, logger: logger}
}

// Subscribe attaches the recorder to the async bus.
func (r *Recorder) Subscribe(bus *eventbus.AsyncEventBus) error {
	return bus.SubscribeAsync(eventbus.EventTranscribeCompleted, r.onCompleted)
}

func (r *Recorder) onCompleted(data eventbus.TranscribeEventData) {
	r.Record(data)
}

// Record writes one usage row. Failures are logged, never propagated.
func (r *Recorder) Record(data eventbus.TranscribeEventData) {
	row := storage.UsageRow{
		Principal:    data.Principal,
		ContentRef:   data.ContentRef,
		Provider:     data.Provider,
		AudioSeconds: data.AudioSeconds,
		Segments:     data.Segments,
	}
	if err := r.db.Create(&row).Error; err != nil {
		r.logger.Warn("usage row insert failed",
			"principal", data.Principal, "content_ref", data.ContentRef, "error", err)
		return
	}
	r.logger.Debug("usage recorded",
		"principal", data.Principal,
		"content_ref", data.ContentRef,
		"audio_seconds", data.AudioSeconds)
}

// TotalSecondsFor sums recorded audio seconds for one principal.
func (r *Recorder) TotalSecondsFor(principal string) (float64, error) {
	var total float64
	err := r.db.Model(&storage.UsageRow{}).
		Where("principal = ?", principal).
		Select("COALESCE(SUM(audio_seconds), 0)").
		Scan(&total).Error
	return total, err
}
