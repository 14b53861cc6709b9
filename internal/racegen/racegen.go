// Package racegen produces synthetic race logs for demos and replay tests.
//
// Output is fully determined by the seed: the same options always yield the
// same races, and therefore the same race IDs.
package racegen

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/okian/kartelo/internal/domain/model"
	"github.com/okian/kartelo/pkg/logger"
)

// ErrInvalidOptions is returned when the generator cannot satisfy its options.
var ErrInvalidOptions = errors.New("invalid generator options")

// Defaults.
const (
	DefaultRaces       = 100
	DefaultRacesPerDay = 12
	DefaultMaxRaceSize = 8
	DefaultSeed        = 1
	firstRaceHour      = 19
	minutesPerRace     = 7
	dateLayout         = "2006-01-02"
)

// DefaultMaps is the track rotation used when none is configured.
func DefaultMaps() []string {
	return []string{
		"Luigi Circuit", "Moo Moo Meadows", "Mushroom Gorge", "Toad's Factory",
		"Mario Circuit", "Coconut Mall", "DK Summit", "Wario's Gold Mine",
		"Daisy Circuit", "Koopa Cape", "Maple Treeway", "Grumble Volcano",
		"Dry Dry Ruins", "Moonview Highway", "Bowser's Castle", "Rainbow Road",
	}
}

// Generator builds races for a roster.
type Generator struct {
	roster        []string
	maps          []string
	races         int
	racesPerDay   int
	maxRaceSize   int
	minField      int
	seed          uint64
	start         time.Time
	duplicateRate float64
	skill         map[string]float64
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithRaces sets how many distinct races to generate.
func WithRaces(n int) Option { return func(g *Generator) { g.races = n } }

// WithRacesPerDay sets how many races share a date.
func WithRacesPerDay(n int) Option { return func(g *Generator) { g.racesPerDay = n } }

// WithMaxRaceSize sets the number of seats; placements stay in [1, n].
func WithMaxRaceSize(n int) Option { return func(g *Generator) { g.maxRaceSize = n } }

// WithMinField sets the fewest roster players per race.
func WithMinField(n int) Option { return func(g *Generator) { g.minField = n } }

// WithSeed fixes the random stream.
func WithSeed(seed uint64) Option { return func(g *Generator) { g.seed = seed } }

// WithStartDate sets the date of the first race.
func WithStartDate(t time.Time) Option { return func(g *Generator) { g.start = t } }

// WithMaps replaces the track rotation.
func WithMaps(maps []string) Option {
	return func(g *Generator) { g.maps = append([]string(nil), maps...) }
}

// WithDuplicateRate makes a fraction of races appear twice in a row, like a
// result screen logged twice.
func WithDuplicateRate(p float64) Option { return func(g *Generator) { g.duplicateRate = p } }

// New creates a generator for roster.
func New(roster []string, opts ...Option) (*Generator, error) {
	g := &Generator{
		roster:      append([]string(nil), roster...),
		maps:        DefaultMaps(),
		races:       DefaultRaces,
		racesPerDay: DefaultRacesPerDay,
		maxRaceSize: DefaultMaxRaceSize,
		minField:    1,
		seed:        DefaultSeed,
		start:       time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(g)
	}
	switch {
	case len(g.roster) == 0:
		return nil, fmt.Errorf("%w: empty roster", ErrInvalidOptions)
	case len(g.maps) == 0:
		return nil, fmt.Errorf("%w: no maps", ErrInvalidOptions)
	case g.races < 0 || g.racesPerDay < 1 || g.maxRaceSize < 1:
		return nil, fmt.Errorf("%w: races=%d racesPerDay=%d maxRaceSize=%d", ErrInvalidOptions, g.races, g.racesPerDay, g.maxRaceSize)
	case g.minField < 1 || g.minField > min(len(g.roster), g.maxRaceSize):
		return nil, fmt.Errorf("%w: minField=%d", ErrInvalidOptions, g.minField)
	case g.duplicateRate < 0 || g.duplicateRate > 1:
		return nil, fmt.Errorf("%w: duplicateRate=%v", ErrInvalidOptions, g.duplicateRate)
	}

	// Each player gets a hidden skill so the replay has a signal to find.
	rng := g.rng(0)
	g.skill = make(map[string]float64, len(g.roster))
	for _, p := range g.roster {
		g.skill[p] = rng.NormFloat64()
	}
	return g, nil
}

func (g *Generator) rng(stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(g.seed, stream))
}

// Generate returns the races in log order.
func (g *Generator) Generate(ctx context.Context) ([]model.Race, error) {
	rng := g.rng(1)
	maxField := min(len(g.roster), g.maxRaceSize)
	out := make([]model.Race, 0, g.races)
	duplicates := 0

	for i := 0; i < g.races; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generate races: %w", err)
		}
		day := i / g.racesPerDay
		slot := i % g.racesPerDay
		date := g.start.AddDate(0, 0, day).Format(dateLayout)
		minutes := firstRaceHour*60 + slot*minutesPerRace
		tod := fmt.Sprintf("%02d:%02d", minutes/60%24, minutes%60)
		track := g.maps[rng.IntN(len(g.maps))]

		field := g.minField + rng.IntN(maxField-g.minField+1)
		race := model.NewRace(date, tod, track, g.placements(rng, field))
		out = append(out, race)

		if g.duplicateRate > 0 && rng.Float64() < g.duplicateRate {
			out = append(out, race)
			duplicates++
		}
	}

	logger.Get().Debug(ctx, "generated race log",
		logger.Int("races", g.races),
		logger.Int("duplicates", duplicates),
		logger.Int("players", len(g.roster)),
	)
	return out, nil
}

// placements picks field players, orders them by skill plus noise, and seats
// them on a random ascending subset of [1, maxRaceSize].
func (g *Generator) placements(rng *rand.Rand, field int) map[string]int {
	perm := rng.Perm(len(g.roster))[:field]
	type run struct {
		name  string
		score float64
	}
	runs := make([]run, 0, field)
	for _, idx := range perm {
		p := g.roster[idx]
		runs = append(runs, run{name: p, score: g.skill[p] + rng.NormFloat64()})
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].score > runs[j].score })

	seats := rng.Perm(g.maxRaceSize)[:field]
	sort.Ints(seats)

	out := make(map[string]int, field)
	for i, r := range runs {
		out[r.name] = seats[i] + 1
	}
	return out
}
