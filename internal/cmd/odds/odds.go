// Package odds parses odds command flags and prints exact tier
// probabilities for a dice pool across a range of difficulties.
package odds

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/louisbranch/parley/internal/core/check"
	"github.com/louisbranch/parley/internal/core/dice"
	"github.com/louisbranch/parley/internal/platform/i18n/catalog"
	entrypoint "github.com/louisbranch/parley/internal/platform/cmd"
)

// Config holds odds command configuration.
type Config struct {
	Dice          int    `env:"ODDS_DICE"           envDefault:"5"`
	Sides         int    `env:"ODDS_SIDES"          envDefault:"10"`
	Bonus         int    `env:"ODDS_BONUS"`
	MinDifficulty int    `env:"ODDS_MIN_DIFFICULTY" envDefault:"4"`
	MaxDifficulty int    `env:"ODDS_MAX_DIFFICULTY" envDefault:"24"`
	Fumbles       bool   `env:"ODDS_FUMBLES"        envDefault:"true"`
	Locale        string `env:"ODDS_LOCALE"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Dice, "dice", cfg.Dice, "dice in the pool")
	fs.IntVar(&cfg.Sides, "sides", cfg.Sides, "faces per die")
	fs.IntVar(&cfg.Bonus, "bonus", cfg.Bonus, "flat successes added to every roll")
	fs.IntVar(&cfg.MinDifficulty, "min-difficulty", cfg.MinDifficulty, "lowest difficulty row")
	fs.IntVar(&cfg.MaxDifficulty, "max-difficulty", cfg.MaxDifficulty, "highest difficulty row")
	fs.BoolVar(&cfg.Fumbles, "fumbles", cfg.Fumbles, "apply the zero-success botch rule")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale for number formatting")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.MinDifficulty > c.MaxDifficulty {
		return fmt.Errorf("min difficulty %d is above max difficulty %d", c.MinDifficulty, c.MaxDifficulty)
	}
	if c.MaxDifficulty < 0 {
		return errors.New("max difficulty must not be negative")
	}
	return nil
}

// Run prints one row per required-success step between the configured
// difficulties.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	pool := dice.Pool{Sides: cfg.Sides, Count: cfg.Dice, SuccessOn: cfg.Sides - 2}
	if err := pool.Validate(); err != nil {
		return err
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceOdds, func(context.Context) error {
		return WriteTable(out, cfg.Locale, pool, cfg.Bonus, cfg.MinDifficulty, cfg.MaxDifficulty, cfg.Fumbles)
	})
}

// WriteTable renders the odds table. Difficulties that need the same
// number of successes collapse into the first row that needs it.
func WriteTable(out io.Writer, locale string, pool dice.Pool, bonus, minDifficulty, maxDifficulty int, fumbles bool) error {
	printer := message.NewPrinter(language.Make(catalog.Default().Match(locale)))
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)

	header := []string{
		printer.Sprintf("odds.difficulty"),
		printer.Sprintf("odds.required"),
		printer.Sprintf("odds.success"),
		printer.Sprintf("odds.fumble"),
		printer.Sprintf("odds.average"),
	}
	for i := len(check.Tiers) - 1; i >= 0; i-- {
		header = append(header, check.Tiers[i].Key())
	}
	fmt.Fprintln(w, strings.Join(header, "\t")+"\t")

	lastRequired := -1
	for difficulty := max(0, minDifficulty); difficulty <= maxDifficulty; difficulty++ {
		required := check.RequiredSuccesses(difficulty)
		if required == lastRequired {
			continue
		}
		lastRequired = required
		odds, err := check.Odds(check.OddsRequest{Pool: pool, Bonus: bonus, Difficulty: difficulty, Fumbles: fumbles})
		if err != nil {
			return err
		}
		row := []string{
			printer.Sprint(difficulty),
			printer.Sprint(odds.Required),
			percent(printer, odds.Success),
			percent(printer, odds.Fumble),
			printer.Sprintf("%.2f", odds.Expectation),
		}
		for _, tier := range odds.Tiers {
			row = append(row, percent(printer, tier.Probability))
		}
		fmt.Fprintln(w, strings.Join(row, "\t")+"\t")
	}
	return w.Flush()
}

func percent(printer *message.Printer, p float64) string {
	return printer.Sprintf("%.1f%%", p*100)
}
