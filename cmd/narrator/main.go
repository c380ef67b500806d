package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := newApp()
	err := newRootCmd(a).ExecuteContext(ctx)
	stop()

	if err != nil {
		a.reportError(err)

		os.Exit(1)
	}
}
