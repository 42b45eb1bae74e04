// Package cmd is the startup path shared by parley commands. Config comes
// from the environment first and flags second; the command body then runs
// inside an OpenTelemetry tracer provider.
package cmd

import (
	"context"
	"errors"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/louisbranch/parley/internal/platform/config"
	"github.com/louisbranch/parley/internal/platform/otel"
)

// Service names reported to the tracer.
const (
	ServiceOdds     = "odds"
	ServicePlaytest = "playtest"
)

const flushTimeout = 5 * time.Second

// ParseConfig fills cfg from PARLEY_ environment variables. Flags bound to
// cfg afterwards take those values as their defaults.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses args into fs. A nil args slice parses as empty.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag set is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry runs fn with tracing set up for service and flushes
// spans when fn returns.
func RunWithTelemetry(ctx context.Context, service string, fn func(context.Context) error) error {
	if strings.TrimSpace(service) == "" {
		return errors.New("service name is required")
	}
	if fn == nil {
		return errors.New("run function is required")
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Printf("%s: flush traces: %v", service, err)
		}
	}()
	return fn(ctx)
}
