package main

import (
	"context"
	"time"

	"github.com/otterhq/otter/internal/app"
)

const shutdownGrace = 10 * time.Second

func main() {
	application := app.New()

	// Start returns a channel that closes on SIGINT or SIGTERM.
	<-application.Start()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	application.Stop(ctx)
}
