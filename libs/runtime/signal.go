package runtime

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
)

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// Go runs a background worker until it returns. A panicking worker is logged and cancels
// the process context through stop, so the service shuts down instead of running degraded.
func Go(ctx context.Context, logger *slog.Logger, name string, stop context.CancelFunc, run func(context.Context)) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("background worker panicked", "worker", name, "panic", r)
				stop()
			}
		}()
		logger.Debug("background worker started", "worker", name)
		run(ctx)
		logger.Debug("background worker stopped", "worker", name)
	}()
}
