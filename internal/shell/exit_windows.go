//go:build windows

package shell

import (
	"context"
	"os"
)

// watchGracefulExit quits when the parent process writes "graceful-exit" to
// stdin. Windows has no SIGTERM to deliver to a child process.
func watchGracefulExit(ctx context.Context, quit func()) func() {
	ctx, cancel := context.WithCancel(ctx)
	go watchLines(ctx, os.Stdin, quit)
	return cancel
}
