// Package telemetry defines the fire-and-forget error/event sink consumed by
// the sync engine. Implementations must never affect control flow: a failing
// sink is invisible to callers.
package telemetry

import (
	"context"

	"github.com/dmitrijs2005/clipsync/internal/logging"
)

// Sink receives breadcrumb messages and recorded errors. Tag groups related
// failures (e.g. "PullError", "DecryptError") for triage.
type Sink interface {
	Log(ctx context.Context, msg string)
	RecordError(ctx context.Context, err error, tag string)
}

// LogSink forwards telemetry into the structured logger.
type LogSink struct {
	log logging.Logger
}

func NewLogSink(log logging.Logger) *LogSink {
	return &LogSink{log: log.With("component", "telemetry")}
}

func (s *LogSink) Log(ctx context.Context, msg string) {
	s.log.Info(ctx, msg)
}

func (s *LogSink) RecordError(ctx context.Context, err error, tag string) {
	s.log.Error(ctx, "recorded error", "tag", tag, "error", err)
}

// Noop discards everything. Useful default for tests.
type Noop struct{}

func (Noop) Log(context.Context, string)                {}
func (Noop) RecordError(context.Context, error, string) {}
