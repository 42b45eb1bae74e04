package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	playtestcmd "github.com/louisbranch/parley/internal/cmd/playtest"
)

func main() {
	cfg, err := playtestcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[PLAYTEST] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := playtestcmd.Run(ctx, cfg, os.Stdout); err != nil {
		log.Fatalf("playtest: %v", err)
	}
}
