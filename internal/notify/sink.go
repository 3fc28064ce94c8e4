package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"recordwatch/internal/components/assert"
	"recordwatch/internal/components/telemetry"
	"sync"
)

// Sink delivers notification lines to a channel.
type Sink interface {
	Send(ctx context.Context, lines []string) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, lines []string) error

func (f SinkFunc) Send(ctx context.Context, lines []string) error {
	return f(ctx, lines)
}

// Multi delivers to every sink, a failing sink does not stop the others.
type Multi []Sink

func (m Multi) Send(ctx context.Context, lines []string) error {
	var errs []error
	for i, s := range m {
		err := s.Send(ctx, lines)
		if err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// LogSink writes every line to the log at info level, it is the sink used
// when nothing else is configured.
type LogSink struct {
	logger *slog.Logger
	tel    telemetry.API
}

func NewLogSink(logger *slog.Logger, tel telemetry.API) LogSink {
	assert.NotNil(logger)
	return LogSink{
		logger: logger,
		tel:    telemetry.NewScopedAPI("notify", tel),
	}
}

func (s LogSink) Send(ctx context.Context, lines []string) error {
	for _, line := range lines {
		s.logger.InfoContext(ctx, "notification", "line", line)
	}
	s.tel.ReportCount("log_sink.sent", int64(len(lines)))
	return nil
}

// Memory keeps every line it is sent.
type Memory struct {
	mu    sync.Mutex
	lines []string
	calls int
}

func (m *Memory) Send(_ context.Context, lines []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, lines...)
	m.calls++
	return nil
}

func (m *Memory) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lines...)
}

// Calls is the number of Send calls received.
func (m *Memory) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
