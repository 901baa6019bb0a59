package observability

import (
	"context"
	"log/slog"
	"time"
)

// Enabled reports whether observability has been toggled on.
func Enabled() bool {
	_, cfg := currentLogger()
	return cfg.Enabled
}

// StartSpan opens a lightweight span around an operation and returns the end
// callback. Spans are emitted through the configured logger; there is no
// exporter behind them.
func StartSpan(ctx context.Context, component, operation string) (context.Context, func(error)) {
	logger, _ := currentLogger()
	if logger == nil {
		return ctx, func(error) {}
	}

	began := time.Now()
	logger.LogAttrs(ctx, slog.LevelDebug, "span begin",
		slog.String("component", component),
		slog.String("operation", operation),
	)

	return ctx, func(err error) {
		attrs := []slog.Attr{
			slog.String("component", component),
			slog.String("operation", operation),
			slog.Duration("elapsed", time.Since(began)),
		}
		if err != nil {
			logger.LogAttrs(ctx, slog.LevelError, "span end", append(attrs, slog.Any("error", err))...)
			return
		}
		logger.LogAttrs(ctx, slog.LevelDebug, "span end", attrs...)
	}
}

// RecordMetric emits a best-effort metric datapoint via the configured logger.
func RecordMetric(ctx context.Context, name string, value float64, labels map[string]string) {
	logger, _ := currentLogger()
	if logger == nil {
		return
	}

	attrs := make([]slog.Attr, 0, 2+len(labels))
	attrs = append(attrs,
		slog.String("metric", name),
		slog.Float64("value", value),
	)
	for k, v := range labels {
		attrs = append(attrs, slog.String(k, v))
	}

	logger.LogAttrs(ctx, slog.LevelDebug, "metric", attrs...)
}

// RecordRunOutcome emits the per-run pipeline datapoints: recognized audio
// seconds and segment count, labeled by strategy and provider.
func RecordRunOutcome(ctx context.Context, strategy, provider string, audioSeconds float64, segments int) {
	labels := map[string]string{"strategy": strategy, "provider": provider}
	RecordMetric(ctx, "pipeline.audio_seconds", audioSeconds, labels)
	RecordMetric(ctx, "pipeline.segments", float64(segments), labels)
}

// RecordCacheHit counts transcript cache hits.
func RecordCacheHit(ctx context.Context) {
	RecordMetric(ctx, "pipeline.cache_hits", 1, nil)
}
