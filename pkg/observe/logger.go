package observe

import (
	"context"
	"log/slog"
	"time"

	"github.com/vango-dev/reactive/pkg/reactive"
)

// Logger is a reactive.Observer that writes engine activity to a slog
// logger. Tracks and triggers are logged at debug level, failed effect runs
// at error level. Read-only violations are already logged by the Runtime.
type Logger struct {
	reactive.NopObserver

	logger *slog.Logger
}

// NewLogger returns a logging observer. A nil logger means slog.Default().
func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

// Track implements reactive.Observer.
func (l *Logger) Track(e *reactive.Effect, target *reactive.Object, key reactive.TrackedKey) {
	if !l.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	l.logger.Debug("track",
		"effect", e.ID(),
		"object", target.ID(),
		"key", key.String(),
	)
}

// Trigger implements reactive.Observer.
func (l *Logger) Trigger(target *reactive.Object, key reactive.Key, kind reactive.ChangeKind, effects []*reactive.Effect) {
	if !l.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	l.logger.Debug("trigger",
		"object", target.ID(),
		"key", string(key),
		"kind", kind.String(),
		"effects", effectIDs(effects),
	)
}

// EffectRun implements reactive.Observer.
func (l *Logger) EffectRun(e *reactive.Effect, elapsed time.Duration, err error) {
	if err == nil {
		return
	}
	l.logger.Error("effect run failed",
		"effect", e.ID(),
		"name", e.Name(),
		"elapsed", elapsed,
		"error", err,
	)
}

func effectIDs(effects []*reactive.Effect) []uint64 {
	ids := make([]uint64, len(effects))
	for i, e := range effects {
		ids[i] = e.ID()
	}
	return ids
}
