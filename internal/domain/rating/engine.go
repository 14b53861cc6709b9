// Package rating implements the Elo-style rating engine for multi-seat races.
//
// Each race is scored as a round robin of pairwise comparisons between every
// seat. Seats the log does not account for are filled by synthetic opponents
// rated at a fixed default so that a partially known race still reflects the
// size of the real field. Rating changes from partial races are damped by a
// proportional factor that grows with the number of known participants.
//
// The engine is not safe for concurrent use; it is owned by a single replay.
package rating

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/kartelo/internal/domain/model"
)

// State describes whether the engine has applied any race yet.
type State int

const (
	// StateInitialized means every player is still at the base rating.
	StateInitialized State = iota
	// StateActive means at least one race has been applied.
	StateActive
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateActive:
		return "active"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Standing is a read-only view of one roster player.
type Standing struct {
	Name   string  `json:"name"`
	Rating float64 `json:"rating"`
	Peak   float64 `json:"peak"`
	Races  int     `json:"races"`
}

// Change records how one known participant moved in a race.
type Change struct {
	Player    string
	Placement int
	K         float64
	Before    float64
	After     float64
	Delta     float64
}

// Outcome summarizes a processed race.
type Outcome struct {
	RaceID  uuid.UUID
	Known   int     // roster players present in the race
	Factor  float64 // proportional factor applied to every delta
	Changes []Change
}

type player struct {
	rating float64
	peak   float64
	races  int
}

type seat struct {
	name   string
	rating float64
	place  int
	known  bool
}

// Engine owns the ratings of a fixed roster.
type Engine struct {
	baseRating    float64
	kInitial      float64
	kLate         float64
	kThreshold    int
	unknownRating float64
	maxRaceSize   int
	factors       []float64
	saturation    float64

	roster  []string
	players map[string]*player
	state   State
}

// New creates an engine with every roster player at the base rating.
func New(roster []string, opts ...Option) (*Engine, error) {
	e := &Engine{
		baseRating:    DefaultBaseRating,
		kInitial:      DefaultKInitial,
		kLate:         DefaultKLate,
		kThreshold:    DefaultKThreshold,
		unknownRating: DefaultUnknownRating,
		maxRaceSize:   DefaultMaxRaceSize,
		factors:       DefaultProportionalFactors(),
		saturation:    DefaultFactorSaturation,
		players:       make(map[string]*player, len(roster)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if len(roster) == 0 {
		return nil, fmt.Errorf("%w: empty roster", ErrInvalidRoster)
	}
	for _, name := range roster {
		if err := e.Register(name); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Register adds a player at the base rating. It must be called before the
// player's first race.
func (e *Engine) Register(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty player name", ErrInvalidRoster)
	}
	if _, ok := e.players[name]; ok {
		return fmt.Errorf("%w: duplicate player %q", ErrInvalidRoster, name)
	}
	e.roster = append(e.roster, name)
	e.players[name] = &player{rating: e.baseRating, peak: e.baseRating}
	return nil
}

// Factor returns the proportional factor for a race with k known participants.
func (e *Engine) Factor(k int) float64 {
	switch {
	case k <= 0:
		return 0
	case k >= e.maxRaceSize:
		return 1.0
	case k <= len(e.factors):
		return e.factors[k-1]
	default:
		return e.saturation
	}
}

// KFactor returns the K-factor for a player who has completed races races.
func (e *Engine) KFactor(races int) float64 {
	if races <= e.kThreshold {
		return e.kInitial
	}
	return e.kLate
}

// ProcessRace applies one race. Validation completes before any state is
// touched, so a rejected race leaves every rating unchanged.
func (e *Engine) ProcessRace(race model.Race) (Outcome, error) {
	if err := e.validate(race); err != nil {
		return Outcome{}, err
	}

	known := race.Len()
	factor := e.Factor(known)
	seats := e.seats(race)

	changes := make([]Change, 0, known)
	for _, a := range seats {
		if !a.known {
			continue
		}
		p := e.players[a.name]
		k := e.KFactor(p.races)

		var sum float64
		for _, b := range seats {
			if b.place == a.place {
				continue
			}
			sum += pairDelta(a.rating, b.rating, a.place, b.place)
		}
		delta := factor * k * sum
		after := a.rating + delta
		if math.IsNaN(after) || math.IsInf(after, 0) {
			return Outcome{}, fmt.Errorf("%w: %q", ErrNonFiniteRating, a.name)
		}
		changes = append(changes, Change{
			Player:    a.name,
			Placement: a.place,
			K:         k,
			Before:    a.rating,
			After:     after,
			Delta:     delta,
		})
	}

	for _, c := range changes {
		p := e.players[c.Player]
		p.rating = c.After
		p.races++
		if p.rating > p.peak {
			p.peak = p.rating
		}
	}
	e.state = StateActive

	return Outcome{RaceID: race.ID, Known: known, Factor: factor, Changes: changes}, nil
}

func (e *Engine) validate(race model.Race) error {
	if race.Len() == 0 {
		return ErrEmptyRace
	}
	placements := race.Placements()
	names := make([]string, 0, len(placements))
	for name := range placements {
		names = append(names, name)
	}
	sort.Strings(names)

	taken := make(map[int]string, len(names))
	for _, name := range names {
		if _, ok := e.players[name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownPlayer, name)
		}
		place := placements[name]
		if place < 1 || place > e.maxRaceSize {
			return fmt.Errorf("%w: %q placed %d, want 1..%d", ErrInvalidPlacement, name, place, e.maxRaceSize)
		}
		if other, ok := taken[place]; ok {
			return fmt.Errorf("%w: %q and %q both placed %d", ErrDuplicatePlacement, other, name, place)
		}
		taken[place] = name
	}
	return nil
}

// seats returns every seat of the race ordered by placement: known
// participants at their logged placements and synthetic opponents in the
// lowest placements left free.
func (e *Engine) seats(race model.Race) []seat {
	seats := make([]seat, 0, e.maxRaceSize)
	taken := make(map[int]bool, race.Len())
	for _, name := range race.Participants() {
		place, _ := race.Placement(name)
		taken[place] = true
		seats = append(seats, seat{name: name, rating: e.players[name].rating, place: place, known: true})
	}

	missing := e.maxRaceSize - race.Len()
	for place := 1; place <= e.maxRaceSize && missing > 0; place++ {
		if taken[place] {
			continue
		}
		seats = append(seats, seat{rating: e.unknownRating, place: place})
		missing--
	}

	sort.Slice(seats, func(i, j int) bool { return seats[i].place < seats[j].place })
	return seats
}

// Snapshot returns every roster player's standing in roster order.
func (e *Engine) Snapshot() []Standing {
	out := make([]Standing, 0, len(e.roster))
	for _, name := range e.roster {
		out = append(out, e.standing(name))
	}
	return out
}

// Standing returns one player's standing.
func (e *Engine) Standing(name string) (Standing, error) {
	if _, ok := e.players[name]; !ok {
		return Standing{}, fmt.Errorf("%w: %q", ErrUnknownPlayer, name)
	}
	return e.standing(name), nil
}

func (e *Engine) standing(name string) Standing {
	p := e.players[name]
	return Standing{Name: name, Rating: p.rating, Peak: p.peak, Races: p.races}
}

// Roster returns the roster in registration order.
func (e *Engine) Roster() []string {
	out := make([]string, len(e.roster))
	copy(out, e.roster)
	return out
}

// State reports whether any race has been applied.
func (e *Engine) State() State { return e.state }

// MaxRaceSize returns the number of seats per race.
func (e *Engine) MaxRaceSize() int { return e.maxRaceSize }
