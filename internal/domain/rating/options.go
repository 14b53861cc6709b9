package rating

// Defaults used by the original kart log.
const (
	DefaultBaseRating       = 1000
	DefaultKInitial         = 40
	DefaultKLate            = 24
	DefaultKThreshold       = 10
	DefaultUnknownRating    = 1000
	DefaultMaxRaceSize      = 8
	DefaultFactorSaturation = 0.997
)

// DefaultProportionalFactors holds P(1), P(2), P(3).
func DefaultProportionalFactors() []float64 {
	return []float64{0.3, 0.65, 0.95}
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithBaseRating sets the rating every roster player starts from.
func WithBaseRating(r float64) Option {
	return func(e *Engine) {
		e.baseRating = r
	}
}

// WithKFactors sets the K-factor used for new and for established players.
func WithKFactors(initial, late float64) Option {
	return func(e *Engine) {
		if initial > 0 {
			e.kInitial = initial
		}
		if late > 0 {
			e.kLate = late
		}
	}
}

// WithKThreshold sets the race count up to which the initial K-factor applies.
func WithKThreshold(races int) Option {
	return func(e *Engine) {
		if races >= 0 {
			e.kThreshold = races
		}
	}
}

// WithUnknownRating sets the rating of synthetic opponents.
func WithUnknownRating(r float64) Option {
	return func(e *Engine) {
		e.unknownRating = r
	}
}

// WithMaxRaceSize sets the number of seats in a race.
func WithMaxRaceSize(m int) Option {
	return func(e *Engine) {
		if m > 0 {
			e.maxRaceSize = m
		}
	}
}

// WithProportionalFactors sets P(k) for k = 1..len(factors) and the value used
// for larger partial rosters. A full roster always uses 1.0.
func WithProportionalFactors(factors []float64, saturation float64) Option {
	return func(e *Engine) {
		cp := make([]float64, 0, len(factors))
		for _, f := range factors {
			if f <= 0 || f > 1 {
				return
			}
			cp = append(cp, f)
		}
		e.factors = cp
		if saturation > 0 && saturation <= 1 {
			e.saturation = saturation
		}
	}
}
