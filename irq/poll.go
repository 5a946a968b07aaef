package irq

import (
	"context"
	"log/slog"
	"time"
)

// Poll drains source every period until ctx is done. It is the fallback for adapters
// without an interrupt capable GPIO.
func Poll(ctx context.Context, source Source, period time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			err := source.HandleInterrupt(ctx)
			if err != nil {
				logger.Error("could not service interrupt", "error", err)
			}
		}
	}
}
