package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"vin-decoder-service/cmd/vin-decoder/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
