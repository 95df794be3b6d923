package secevent

import (
	"context"
	"log/slog"
)

type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(ctx context.Context, ev Event) error {
	attrs := []any{"event_id", ev.ID, "event_type", string(ev.Type)}
	for k, v := range ev.Details {
		attrs = append(attrs, k, v)
	}
	s.logger.WarnContext(ctx, "security event", attrs...)
	return nil
}

func (s *LogSink) Close() error { return nil }
