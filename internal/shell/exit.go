package shell

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// GracefulExitMessage is the line a parent process writes to ask for exit.
const GracefulExitMessage = "graceful-exit"

// watchLines calls quit once when r yields a GracefulExitMessage line.
// It returns at EOF, on the first match, or when ctx is done.
func watchLines(ctx context.Context, r io.Reader, quit func()) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return
			}
			if strings.TrimSpace(line) == GracefulExitMessage {
				quit()
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
