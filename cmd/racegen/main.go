package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/kartelo/internal/adapters/racelog"
	"github.com/okian/kartelo/internal/config"
	"github.com/okian/kartelo/internal/racegen"
	"github.com/okian/kartelo/pkg/logger"
)

type options struct {
	out         string
	races       int
	perDay      int
	minField    int
	seed        uint64
	dupRate     float64
	start       string
	maxRaceSize int
}

func main() {
	var opts options
	flag.StringVar(&opts.out, "out", "", "output file (default: stdout)")
	flag.IntVar(&opts.races, "races", racegen.DefaultRaces, "number of distinct races")
	flag.IntVar(&opts.perDay, "per-day", racegen.DefaultRacesPerDay, "races per date")
	flag.IntVar(&opts.minField, "min-field", 1, "fewest roster players per race")
	flag.Uint64Var(&opts.seed, "seed", racegen.DefaultSeed, "random seed")
	flag.Float64Var(&opts.dupRate, "dup-rate", 0, "fraction of races logged twice")
	flag.StringVar(&opts.start, "start", "2024-03-01", "date of the first race (YYYY-MM-DD)")
	flag.IntVar(&opts.maxRaceSize, "max-race-size", 0, "seats per race (default: max_race_size from config)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		os.Stderr.WriteString("racegen: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

// run generates a race log for the configured roster.
func run(ctx context.Context, opts options, stdout io.Writer) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.InitWithWriter(os.Stderr, cfg.LogFormat); err != nil {
		return err
	}
	_ = logger.SetLevelString(cfg.LogLevel)

	roster := cfg.Roster
	if cfg.PlayersFile != "" {
		if roster, err = racelog.ReadRosterFile(cfg.PlayersFile); err != nil {
			return err
		}
	}

	start, err := time.Parse("2006-01-02", opts.start)
	if err != nil {
		return fmt.Errorf("parse -start: %w", err)
	}
	seats := cfg.MaxRaceSize
	if opts.maxRaceSize > 0 {
		seats = opts.maxRaceSize
	}

	g, err := racegen.New(roster,
		racegen.WithRaces(opts.races),
		racegen.WithRacesPerDay(opts.perDay),
		racegen.WithMinField(opts.minField),
		racegen.WithSeed(opts.seed),
		racegen.WithDuplicateRate(opts.dupRate),
		racegen.WithStartDate(start),
		racegen.WithMaxRaceSize(seats),
	)
	if err != nil {
		return err
	}
	races, err := g.Generate(ctx)
	if err != nil {
		return err
	}

	if opts.out == "" {
		return racelog.Write(stdout, roster, races)
	}
	if err := racelog.WriteFile(opts.out, roster, races); err != nil {
		return err
	}
	logger.Get().Info(ctx, "race log written",
		logger.String("path", opts.out),
		logger.Int("rows", len(races)),
	)
	return nil
}
