// Command engineroom builds and serves the historical sources knowledge base.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/LeonardSibelius/engineroom-ai/internal/adapters/driving/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
