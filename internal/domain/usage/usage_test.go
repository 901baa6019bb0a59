package usage

import (
	"log/slog"
	"os"
	"testing"

	"studyscribe-server-go/internal/domain/eventbus"
	"studyscribe-server-go/internal/platform/storage"
)

func setupRecorder(t *testing.T) *Recorder {
	t.Helper()

	db, err := storage.Open("file:usage_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM usage_rows")
	})

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewRecorder(db, logger)
}

func TestRecordAndSum(t *testing.T) {
	rec := setupRecorder(t)

	rec.Record(eventbus.TranscribeEventData{
		ContentRef:   "video:abc",
		Principal:    "user-a",
		Provider:     "OpenAIWhisper",
		AudioSeconds: 600,
		Segments:     1,
	})
	rec.Record(eventbus.TranscribeEventData{
		ContentRef:   "audio:uploads/x.mp3",
		Principal:    "user-a",
		Provider:     "OpenAIWhisper",
		AudioSeconds: 1900,
		Segments:     4,
	})
	rec.Record(eventbus.TranscribeEventData{
		ContentRef:   "video:other",
		Principal:    "user-b",
		AudioSeconds: 100,
	})

	total, err := rec.TotalSecondsFor("user-a")
	if err != nil {
		t.Fatalf("TotalSecondsFor error: %v", err)
	}
	if total != 2500 {
		t.Fatalf("total = %v, expected 2500", total)
	}

	none, err := rec.TotalSecondsFor("user-z")
	if err != nil {
		t.Fatalf("TotalSecondsFor error: %v", err)
	}
	if none != 0 {
		t.Fatalf("total = %v, expected 0 for unknown principal", none)
	}
}
