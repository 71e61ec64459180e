//go:build !windows

package shell

import (
	"context"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// watchGracefulExit quits on SIGTERM. The signal handler is installed
// before it returns.
func watchGracefulExit(ctx context.Context, quit func()) func() {
	ctx, cancel := context.WithCancel(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, unix.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			quit()
		case <-ctx.Done():
		}
	}()

	return cancel
}
