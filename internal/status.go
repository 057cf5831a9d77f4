package application

import (
	"context"
	"log/slog"
	"time"
)

type statusSource interface {
	Status() string
}

// statusReporter logs the host status line whenever it changes.
type statusReporter struct {
	logger *slog.Logger
	source statusSource
	last   string
}

func newStatusReporter(logger *slog.Logger, source statusSource) *statusReporter {
	return &statusReporter{
		logger: logger.With("component", "status"),
		source: source,
	}
}

func (that *statusReporter) tick() {
	line := that.source.Status()
	if line == that.last {
		return
	}

	that.last = line
	that.logger.Debug(line)
}

func (that *statusReporter) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		that.tick()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
