// Command twium drives a logged-in browser session to post, follow, like
// and search from the terminal or on a schedule.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := execute(ctx, &env{}, os.Args[1:])
	stop()
	if err != nil {
		os.Exit(1)
	}
}
