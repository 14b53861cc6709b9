// Package service drives a race-log replay through the rating engine and
// serves the results to the CLI and the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/kartelo/internal/adapters/racelog"
	"github.com/okian/kartelo/internal/adapters/report"
	"github.com/okian/kartelo/internal/adapters/repository"
	"github.com/okian/kartelo/internal/config"
	"github.com/okian/kartelo/internal/domain/dedupe"
	"github.com/okian/kartelo/internal/domain/rating"
	"github.com/okian/kartelo/internal/domain/types"
	"github.com/okian/kartelo/pkg/logger"
	"github.com/okian/kartelo/pkg/metrics"
)

// Rejection describes a race that was not applied.
type Rejection struct {
	Line   int    `json:"line"`
	RaceID string `json:"race_id,omitempty"`
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

// Summary counts what a replay did with its entries.
type Summary struct {
	Total      int         `json:"total"`
	Applied    int         `json:"applied"`
	Rejected   int         `json:"rejected"`
	Duplicates int         `json:"duplicates"`
	Rejections []Rejection `json:"rejections,omitempty"`
}

// Service owns the engine, the leaderboard and the race deduper.
type Service struct {
	mu sync.RWMutex

	engine      *rating.Engine
	leaderboard repository.Store
	deduper     dedupe.Deduper

	roster      []string
	engineOpts  []rating.Option
	onInvalid   string
	dedupeRaces bool
	dedupeSize  int

	trace   []types.TraceRow
	summary Summary
	started bool

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		roster:      config.DefaultRoster(),
		onInvalid:   config.OnInvalidSkip,
		dedupeRaces: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the engine and seeds the leaderboard with every roster
// player at the base rating.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("replay")
	}

	engine, err := rating.New(s.roster, s.engineOpts...)
	if err != nil {
		metrics.RecordErrorByComponent("service", "invalid_roster")
		return fmt.Errorf("start service: %w", err)
	}
	s.engine = engine
	s.leaderboard = repository.NewTreapStore(ctx)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.trace = nil
	s.summary = Summary{}

	for _, st := range engine.Snapshot() {
		if err := s.publish(ctx, st); err != nil {
			return fmt.Errorf("seed leaderboard: %w", err)
		}
	}

	s.started = true
	s.logger.Info(ctx, "rating service started",
		logger.Int("players", len(s.roster)),
		logger.Int("maxRaceSize", engine.MaxRaceSize()),
		logger.String("onInvalidRace", s.onInvalid),
		logger.Bool("dedupeRaces", s.dedupeRaces),
	)
	return nil
}

// Stop marks the service stopped. State is kept for reads.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "rating service stopped")
}

// Replay applies entries in order. Rejected entries are logged and skipped,
// or stop the replay with ErrReplayAborted under the abort policy. Races
// applied before an abort stay applied.
func (s *Service) Replay(ctx context.Context, entries []racelog.Entry) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return Summary{}, ErrNotStarted
	}

	start := time.Now()
	defer func() {
		metrics.RecordReplayDuration(float64(time.Since(start).Milliseconds()))
	}()

	var run Summary
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			s.merge(run)
			return run, err
		}
		run.Total++

		if entry.Err != nil {
			if err := s.reject(ctx, &run, entry, entry.Err); err != nil {
				s.merge(run)
				return run, err
			}
			continue
		}

		race := entry.Race
		if s.dedupeRaces && s.deduper.SeenAndRecord(ctx, race.ID.String()) {
			run.Duplicates++
			metrics.RecordRaceDuplicate()
			s.logger.Debug(ctx, "duplicate race skipped",
				logger.Int("line", entry.Line),
				logger.String("raceID", race.ID.String()),
			)
			continue
		}

		outcome, err := s.engine.ProcessRace(race)
		if err != nil {
			if err := s.reject(ctx, &run, entry, err); err != nil {
				s.merge(run)
				return run, err
			}
			continue
		}

		run.Applied++
		metrics.RecordRaceProcessed(race.Map)
		metrics.RecordRaceFactor(outcome.Factor)
		if err := s.publishChanges(ctx, outcome.Changes); err != nil {
			s.merge(run)
			return run, err
		}
		s.trace = append(s.trace, s.traceRow(entry))

		s.logger.Debug(ctx, "race applied",
			logger.Int("line", entry.Line),
			logger.String("map", race.Map),
			logger.Int("known", outcome.Known),
			logger.Float64("factor", outcome.Factor),
		)
	}

	s.merge(run)
	s.logger.Info(ctx, "replay finished",
		logger.Int("total", run.Total),
		logger.Int("applied", run.Applied),
		logger.Int("rejected", run.Rejected),
		logger.Int("duplicates", run.Duplicates),
	)
	return run, nil
}

// reject records a rejected entry and returns an error under the abort policy.
func (s *Service) reject(ctx context.Context, run *Summary, entry racelog.Entry, cause error) error {
	reason := reasonOf(cause)
	rej := Rejection{Line: entry.Line, Reason: reason, Error: cause.Error()}
	if entry.Err == nil {
		rej.RaceID = entry.Race.ID.String()
	}
	run.Rejected++
	run.Rejections = append(run.Rejections, rej)
	metrics.RecordRaceRejected(reason)
	metrics.RecordErrorByComponent("replay", reason)

	if s.onInvalid == config.OnInvalidAbort {
		s.logger.Error(ctx, "race rejected, aborting replay",
			logger.Int("line", entry.Line),
			logger.String("reason", reason),
			logger.Error(cause),
		)
		return fmt.Errorf("%w: line %d: %w", ErrReplayAborted, entry.Line, cause)
	}
	s.logger.Warn(ctx, "race rejected, skipping",
		logger.Int("line", entry.Line),
		logger.String("reason", reason),
		logger.Error(cause),
	)
	return nil
}

func (s *Service) merge(run Summary) {
	s.summary.Total += run.Total
	s.summary.Applied += run.Applied
	s.summary.Rejected += run.Rejected
	s.summary.Duplicates += run.Duplicates
	s.summary.Rejections = append(s.summary.Rejections, run.Rejections...)
}

// publishChanges pushes the new standing of every player a race moved.
func (s *Service) publishChanges(ctx context.Context, changes []rating.Change) error {
	for _, c := range changes {
		st, err := s.engine.Standing(c.Player)
		if err != nil {
			metrics.RecordErrorByComponent("replay", reasonOf(err))
			return fmt.Errorf("publish %q: %w", c.Player, err)
		}
		if err := s.publish(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) publish(ctx context.Context, st rating.Standing) error {
	metrics.UpdatePlayerRating(st.Name, st.Rating, st.Peak)
	return s.leaderboard.Upsert(ctx, repository.Entry{
		Player: st.Name,
		Rating: st.Rating,
		Peak:   st.Peak,
		Races:  st.Races,
	})
}

func (s *Service) traceRow(entry racelog.Entry) types.TraceRow {
	snap := s.engine.Snapshot()
	ratings := make(map[string]float64, len(snap))
	for _, st := range snap {
		ratings[st.Name] = st.Rating
	}
	return types.TraceRow{
		RaceID:  entry.Race.ID.String(),
		Date:    entry.Race.Date,
		Time:    entry.Race.Time,
		Map:     entry.Race.Map,
		Ratings: ratings,
	}
}

// reasonOf maps an error to a metric label.
func reasonOf(err error) string {
	switch {
	case errors.Is(err, rating.ErrInvalidPlacement):
		return "invalid_placement"
	case errors.Is(err, rating.ErrDuplicatePlacement):
		return "duplicate_placement"
	case errors.Is(err, rating.ErrUnknownPlayer):
		return "unknown_player"
	case errors.Is(err, rating.ErrEmptyRace):
		return "empty_race"
	case errors.Is(err, rating.ErrNonFiniteRating):
		return "non_finite_rating"
	default:
		return "other"
	}
}

// Snapshot returns every roster player's standing in roster order.
func (s *Service) Snapshot() ([]rating.Standing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.engine == nil {
		return nil, ErrNotStarted
	}
	return s.engine.Snapshot(), nil
}

// Roster returns the players in registration order.
func (s *Service) Roster() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.engine == nil {
		return append([]string(nil), s.roster...)
	}
	return s.engine.Roster()
}

// Trace returns a copy of the per-race rating rows.
func (s *Service) Trace() []types.TraceRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.TraceRow(nil), s.trace...)
}

// Summary returns the totals across every Replay call.
func (s *Service) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.summary
	out.Rejections = append([]Rejection(nil), s.summary.Rejections...)
	return out
}

// History returns the player's rating at the end of each race day.
func (s *Service) History(_ context.Context, player string) ([]types.HistoryPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.engine == nil {
		return nil, ErrNotStarted
	}
	if _, err := s.engine.Standing(player); err != nil {
		return nil, err
	}
	return report.DailyLast(s.trace, player), nil
}

// TopN returns the top N leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	s.mu.RLock()
	store := s.leaderboard
	s.mu.RUnlock()
	if store == nil {
		return nil, ErrNotStarted
	}

	entries, err := store.TopN(ctx, n)
	if err != nil {
		return nil, err
	}
	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = toAPIEntry(e)
	}
	return out, nil
}

// Rank returns the rank and rating for a player.
func (s *Service) Rank(ctx context.Context, player string) (types.Entry, error) {
	s.mu.RLock()
	store := s.leaderboard
	s.mu.RUnlock()
	if store == nil {
		return types.Entry{}, ErrNotStarted
	}

	e, err := store.Rank(ctx, player)
	if err != nil {
		return types.Entry{}, err
	}
	return toAPIEntry(e), nil
}

func toAPIEntry(e repository.Entry) types.Entry {
	return types.Entry{Rank: e.Rank, Player: e.Player, Rating: e.Rating, Peak: e.Peak, Races: e.Races}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"onInvalidRace":   s.onInvalid,
		"dedupeRaces":     s.dedupeRaces,
		"racesTotal":      s.summary.Total,
		"racesApplied":    s.summary.Applied,
		"racesRejected":   s.summary.Rejected,
		"racesDuplicate":  s.summary.Duplicates,
		"traceRows":       len(s.trace),
		"rosterSize":      len(s.roster),
		"engineState":     rating.StateInitialized.String(),
		"rememberedRaces": 0,
	}
	if s.engine != nil {
		stats["engineState"] = s.engine.State().String()
		stats["rosterSize"] = len(s.engine.Roster())
	}
	if s.deduper != nil {
		stats["rememberedRaces"] = s.deduper.Size()
	}
	if s.leaderboard != nil {
		count := s.leaderboard.Count(context.Background())
		stats["leaderboardPlayers"] = count
		metrics.UpdateLeaderboardPlayers(count)
	}
	return stats
}
