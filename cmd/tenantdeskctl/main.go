package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gosuda/tenantdesk/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(cli.GetExitCode(err))
}
