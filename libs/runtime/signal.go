package runtime

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

var shutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// SignalContext derives a context from parent that is cancelled on the first SIGINT or
// SIGTERM, logging which one arrived. The handler is released afterwards, so a second
// signal terminates the process with the default action.
func SignalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, shutdownSignals...)
	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			if logger != nil {
				logger.Info("shutdown signal received", "signal", sig.String())
			}
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
