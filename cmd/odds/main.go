// Package main provides a CLI that prints exact check odds.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/parley/internal/platform/config"

	oddscmd "github.com/louisbranch/parley/internal/cmd/odds"
)

func main() {
	cfg, err := oddscmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	log.SetPrefix("[ODDS] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := oddscmd.Run(ctx, cfg, os.Stdout); err != nil {
		config.Exitf("Error: %v", err)
	}
}
