package temporal

import (
	"context"
	"log/slog"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/log"
)

// activityLogger returns an slog logger that writes through the activity's
// Temporal logger, or slog.Default outside an activity.
func activityLogger(ctx context.Context) *slog.Logger {
	if !activity.IsActivity(ctx) {
		return slog.Default()
	}
	return slog.New(&temporalHandler{logger: activity.GetLogger(ctx)})
}

// temporalHandler adapts a Temporal log.Logger to slog.Handler.
type temporalHandler struct {
	logger log.Logger
	attrs  []any
}

func (h *temporalHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *temporalHandler) Handle(_ context.Context, r slog.Record) error {
	kv := append([]any(nil), h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		kv = append(kv, a.Key, a.Value.Any())
		return true
	})
	switch {
	case r.Level >= slog.LevelError:
		h.logger.Error(r.Message, kv...)
	case r.Level >= slog.LevelWarn:
		h.logger.Warn(r.Message, kv...)
	case r.Level >= slog.LevelInfo:
		h.logger.Info(r.Message, kv...)
	default:
		h.logger.Debug(r.Message, kv...)
	}
	return nil
}

func (h *temporalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	kv := append([]any(nil), h.attrs...)
	for _, a := range attrs {
		kv = append(kv, a.Key, a.Value.Any())
	}
	return &temporalHandler{logger: h.logger, attrs: kv}
}

func (h *temporalHandler) WithGroup(string) slog.Handler { return h }
