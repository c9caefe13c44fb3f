package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/hamed0406/botscope/internal/domain"
)

// LogSink writes events to a zap logger: recoveries at info, failures at
// error, evictions at warn.
type LogSink struct {
	Logger *zap.Logger
}

func (l LogSink) Publish(_ context.Context, e Event) error {
	fields := []zap.Field{
		zap.String("event_id", e.ID),
		zap.String("name", e.Name),
		zap.String("url", e.URL),
	}
	if e.Status != "" {
		fields = append(fields, zap.String("status", string(e.Status)))
	}
	if e.Code != 0 {
		fields = append(fields, zap.Int("status_code", e.Code))
	}
	if e.Details != "" {
		fields = append(fields, zap.String("details", e.Details))
	}

	switch e.Kind {
	case KindStatusChanged:
		if e.Status == domain.StatusUp {
			l.Logger.Info("target_ok", fields...)
		} else {
			l.Logger.Error("target_failing", fields...)
		}
	case KindDeleted:
		l.Logger.Warn("target_evicted", fields...)
	case KindRemoved:
		l.Logger.Info("target_removed", fields...)
	case KindRegistered:
		l.Logger.Info("target_registered", fields...)
	default:
		l.Logger.Info(string(e.Kind), fields...)
	}
	return nil
}
