package rating

import "math"

// deviation is the rating gap at which the stronger player is expected to
// score ten times as often.
const deviation = 400

// ExpectedScore returns the expected score of a player rated ra against a
// player rated rb.
func ExpectedScore(ra, rb float64) float64 {
	return 1 / (1 + math.Pow(10, (rb-ra)/deviation))
}

// actualScore is 1 when placement a beats placement b. Placements within a
// race are unique, so there are no draws.
func actualScore(a, b int) float64 {
	if a < b {
		return 1
	}
	return 0
}

// pairDelta is the unscaled rating change of A from one comparison with B.
func pairDelta(ra, rb float64, placeA, placeB int) float64 {
	return actualScore(placeA, placeB) - ExpectedScore(ra, rb)
}
