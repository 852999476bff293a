package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sqlask/sqlask/internal/cli/sqlask"
	"github.com/sqlask/sqlask/internal/config"
	"github.com/sqlask/sqlask/internal/observability"
)

func main() {
	cfg, err := config.LoadFromEnv("sqlask")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	// The prompt blocks on stdin; a second signal falls through to the default handler.
	go func() {
		<-ctx.Done()
		stop()
	}()
	code := sqlask.Run(ctx, os.Args[1:], sqlask.Options{
		Config: cfg,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Logger: logger,
	})
	stop()
	os.Exit(code)
}
