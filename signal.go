package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// forceExit is replaced in tests.
var forceExit = func() { os.Exit(1) }

// shutdownContext returns a context that cancels on the first SIGINT/SIGTERM
// and force-exits on the second. Canceling stops the walk between listings
// and makes in-flight downloads remove their partial files. The returned
// stop func releases the signal handler once the command is done.
func shutdownContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			logger.Info("interrupted, stopping walk and downloads",
				slog.String("signal", sig.String()),
			)
			cancel()
		case <-ctx.Done():
			return
		}

		select {
		case sig := <-sigCh:
			logger.Warn("interrupted again, exiting without cleanup",
				slog.String("signal", sig.String()),
			)
			forceExit()
		case <-done:
		case <-parent.Done():
		}
	}()

	stop := func() {
		cancel()
		select {
		case <-done:
		default:
			close(done)
		}
	}

	return ctx, stop
}
