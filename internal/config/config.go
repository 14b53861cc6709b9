// Package config defines kartelo configuration and how it is loaded.
//
// Conventions:
// - Defaults live in New; Load layers a YAML file and env vars on top.
// - Validate reports problems wrapped in ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
)

// Policies for races the engine rejects during replay.
const (
	OnInvalidSkip  = "skip"
	OnInvalidAbort = "abort"
)

// Log output formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// DefaultRoster is used when neither roster nor players_file is configured.
func DefaultRoster() []string {
	return []string{"Raj", "Azhan", "Sameer", "Zetaa", "Adi", "Dylan", "Parum", "EnderRobot", "Lynden"}
}

// DefaultProportionalFactors returns P(1), P(2), P(3).
func DefaultProportionalFactors() []float64 {
	return []float64{0.3, 0.65, 0.95}
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// ResultsFile is the race log to replay.
	ResultsFile string `koanf:"results_file"`

	// PlayersFile optionally supplies the roster ("Player Name" column).
	PlayersFile string `koanf:"players_file"`

	// Roster lists player names when PlayersFile is empty.
	Roster []string `koanf:"roster"`

	// TrackerFile and AnalysisFile receive the replay outputs. Empty skips the write.
	TrackerFile  string `koanf:"tracker_file"`
	AnalysisFile string `koanf:"analysis_file"`

	// ArchiveFile is an optional SQLite database receiving the replay.
	ArchiveFile string `koanf:"archive_file"`

	BaseRating             float64   `koanf:"base_rating"`
	KInitial               float64   `koanf:"k_initial"`
	KLate                  float64   `koanf:"k_late"`
	KThreshold             int       `koanf:"k_threshold"`
	UnknownRating          float64   `koanf:"unknown_rating"`
	MaxRaceSize            int       `koanf:"max_race_size"`
	ProportionalFactors    []float64 `koanf:"proportional_factors"`
	ProportionalSaturation float64   `koanf:"proportional_saturation"`

	// OnInvalidRace is skip or abort.
	OnInvalidRace string `koanf:"on_invalid_race"`

	// DedupeRaces drops races whose record was already replayed.
	DedupeRaces bool `koanf:"dedupe_races"`

	// DedupeSize bounds the remembered race IDs; 0 is unbounded.
	DedupeSize int `koanf:"dedupe_size"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              LogFormatText,
		ResultsFile:            "results.csv",
		Roster:                 DefaultRoster(),
		TrackerFile:            "elo_tracker.csv",
		AnalysisFile:           "elo_post_analysis.json",
		BaseRating:             1000,
		KInitial:               40,
		KLate:                  24,
		KThreshold:             10,
		UnknownRating:          1000,
		MaxRaceSize:            8,
		ProportionalFactors:    DefaultProportionalFactors(),
		ProportionalSaturation: 0.997,
		OnInvalidRace:          OnInvalidSkip,
		DedupeRaces:            true,
		Addr:                   ":9080",
		MaxLeaderboardLimit:    100,
	}
}

// Validate checks the fields the replay depends on.
func (c *Config) Validate() error {
	switch {
	case c.MaxRaceSize < 1:
		return fmt.Errorf("%w: max_race_size must be >= 1, got %d", ErrInvalidConfig, c.MaxRaceSize)
	case c.KInitial <= 0 || c.KLate <= 0:
		return fmt.Errorf("%w: k factors must be positive", ErrInvalidConfig)
	case c.KThreshold < 0:
		return fmt.Errorf("%w: k_threshold must be >= 0", ErrInvalidConfig)
	case c.ProportionalSaturation <= 0 || c.ProportionalSaturation > 1:
		return fmt.Errorf("%w: proportional_saturation must be in (0, 1]", ErrInvalidConfig)
	case c.OnInvalidRace != OnInvalidSkip && c.OnInvalidRace != OnInvalidAbort:
		return fmt.Errorf("%w: on_invalid_race must be %q or %q, got %q", ErrInvalidConfig, OnInvalidSkip, OnInvalidAbort, c.OnInvalidRace)
	case c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON:
		return fmt.Errorf("%w: log_format must be %q or %q", ErrInvalidConfig, LogFormatText, LogFormatJSON)
	case len(c.Roster) == 0 && strings.TrimSpace(c.PlayersFile) == "":
		return fmt.Errorf("%w: roster or players_file is required", ErrInvalidConfig)
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be >= 1", ErrInvalidConfig)
	}
	for i, f := range c.ProportionalFactors {
		if f <= 0 || f > 1 {
			return fmt.Errorf("%w: proportional_factors[%d]=%v not in (0, 1]", ErrInvalidConfig, i, f)
		}
	}
	return nil
}
