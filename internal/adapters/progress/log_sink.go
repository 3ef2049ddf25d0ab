package progress

import (
	"context"
	"log/slog"

	"github.com/trebuchet-org/deltasim/internal/usecase"
)

// LogSink reports progress through the structured logger. The HTTP server
// uses it where no terminal is attached.
type LogSink struct {
	log *slog.Logger
}

// NewLogSink creates a new logging progress sink
func NewLogSink(log *slog.Logger) *LogSink {
	return &LogSink{log: log.With("component", "Progress")}
}

// OnProgress logs stage changes at debug level
func (s *LogSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	s.log.DebugContext(ctx, event.Message, "stage", event.Stage)
}

func (s *LogSink) Info(message string) {
	s.log.Info(message)
}

func (s *LogSink) Error(message string) {
	s.log.Error(message)
}

var _ usecase.ProgressSink = (*LogSink)(nil)
