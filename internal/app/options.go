package service

import (
	"github.com/okian/kartelo/internal/config"
	"github.com/okian/kartelo/internal/domain/rating"
	"github.com/okian/kartelo/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRoster sets the players the engine is built with.
func WithRoster(roster []string) Option {
	return func(s *Service) {
		s.roster = append([]string(nil), roster...)
	}
}

// WithEngineOptions passes options through to rating.New.
func WithEngineOptions(opts ...rating.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// WithInvalidRacePolicy sets what Replay does with a rejected race:
// config.OnInvalidSkip or config.OnInvalidAbort.
func WithInvalidRacePolicy(policy string) Option {
	return func(s *Service) {
		if policy == config.OnInvalidSkip || policy == config.OnInvalidAbort {
			s.onInvalid = policy
		}
	}
}

// WithRaceDedupe turns duplicate-record detection on or off. size bounds the
// remembered race IDs; 0 keeps all of them.
func WithRaceDedupe(enabled bool, size int) Option {
	return func(s *Service) {
		s.dedupeRaces = enabled
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// FromConfig maps loaded configuration onto service options. roster is
// passed separately since it may come from the players file.
func FromConfig(cfg *config.Config, roster []string) []Option {
	return []Option{
		WithRoster(roster),
		WithEngineOptions(
			rating.WithBaseRating(cfg.BaseRating),
			rating.WithKFactors(cfg.KInitial, cfg.KLate),
			rating.WithKThreshold(cfg.KThreshold),
			rating.WithUnknownRating(cfg.UnknownRating),
			rating.WithMaxRaceSize(cfg.MaxRaceSize),
			rating.WithProportionalFactors(cfg.ProportionalFactors, cfg.ProportionalSaturation),
		),
		WithInvalidRacePolicy(cfg.OnInvalidRace),
		WithRaceDedupe(cfg.DedupeRaces, cfg.DedupeSize),
	}
}
