package logging

import (
	"context"
	"log/slog"
	"time"
)

// Recorder receives one event per completed domain operation.
type Recorder interface {
	Record(ctx context.Context, op string, d time.Duration, err error)
}

// LogRecorder reports operation timings at debug level and failures at warn.
type LogRecorder struct {
	logger *slog.Logger
}

func NewRecorder(logger *slog.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

func (r *LogRecorder) Record(ctx context.Context, op string, d time.Duration, err error) {
	if err != nil {
		r.logger.WarnContext(ctx, "operation failed", "op", op, "duration", d, "error", err)
		return
	}
	r.logger.DebugContext(ctx, "operation", "op", op, "duration", d)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Record(context.Context, string, time.Duration, error) {}
