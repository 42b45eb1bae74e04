// Package playtest parses playtest command flags and runs seeded simulated
// table sessions through the contest service.
package playtest

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"

	"gopkg.in/yaml.v3"

	"github.com/louisbranch/parley/internal/core/dice"
	entrypoint "github.com/louisbranch/parley/internal/platform/cmd"
	"github.com/louisbranch/parley/internal/platform/telemetry/metrics"
	"github.com/louisbranch/parley/internal/random"
	"github.com/louisbranch/parley/internal/services/contest/app"
	"github.com/louisbranch/parley/internal/services/contest/storage/sqlite"
)

// Config holds playtest command configuration.
type Config struct {
	Seed        int64  `env:"PLAYTEST_SEED"`
	Sessions    int    `env:"PLAYTEST_SESSIONS"     envDefault:"3"`
	DBPath      string `env:"PLAYTEST_DB_PATH"      envDefault:"data/playtest.db"`
	Locale      string `env:"PLAYTEST_LOCALE"`
	MetricsPath string `env:"PLAYTEST_METRICS_PATH"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "dice seed (0 picks a random one)")
	fs.IntVar(&cfg.Sessions, "sessions", cfg.Sessions, "number of simulated table sessions")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "sqlite path for contest snapshots (:memory: keeps nothing)")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale for narrative text")
	fs.StringVar(&cfg.MetricsPath, "metrics", cfg.MetricsPath, "write prometheus textfile metrics to this path")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run simulates the configured sessions and writes a YAML report to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if cfg.Sessions <= 0 {
		return errors.New("sessions must be positive")
	}
	if cfg.Seed == 0 {
		seed, err := random.NewSeed()
		if err != nil {
			return err
		}
		cfg.Seed = seed
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServicePlaytest, func(ctx context.Context) error {
		return run(ctx, cfg, out)
	})
}

func run(ctx context.Context, cfg Config, out io.Writer) error {
	store, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}()

	recorder := metrics.NewRecorder()
	svc, err := app.New(app.Options{
		Store:   store,
		Ledger:  store,
		Metrics: recorder,
		Source:  dice.NewSource(cfg.Seed),
		Locale:  cfg.Locale,
	})
	if err != nil {
		return err
	}

	table := &simulation{svc: svc, deltas: store}
	for i := range cfg.Sessions {
		if err := table.session(ctx, i); err != nil {
			return fmt.Errorf("session %d: %w", i+1, err)
		}
	}
	report, err := table.report(ctx, cfg.Seed, svc.Locale())
	if err != nil {
		return err
	}
	log.Printf("simulated %d sessions with seed %d", cfg.Sessions, cfg.Seed)

	if cfg.MetricsPath != "" {
		if err := recorder.WriteTextfile(cfg.MetricsPath); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return encoder.Close()
}
