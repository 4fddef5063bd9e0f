package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/atareao/crypta/internal/cli"
	"github.com/atareao/crypta/internal/output"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := cli.NewRootCmd(version, commit, date)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		output.NewSplogWithWriter(os.Stderr, false).Error("%v", err)
		os.Exit(1)
	}
}
