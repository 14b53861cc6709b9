package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpectedScore(t *testing.T) {
	tests := []struct {
		name     string
		ra, rb   float64
		expected float64
	}{{
		"equal ratings should be a coin flip",
		1000, 1000,
		0.5,
	}, {
		"400 points ahead should be ten to one",
		1400, 1000,
		10.0 / 11.0,
	}, {
		"400 points behind should be one to ten",
		1000, 1400,
		1.0 / 11.0,
	}, {
		"200 points ahead",
		1200, 1000,
		0.7597469266,
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.InDelta(t, test.expected, ExpectedScore(test.ra, test.rb), 1e-9)
		})
	}
}

func TestExpectedScoreIsComplementary(t *testing.T) {
	pairs := [][2]float64{{1000, 1000}, {1234.5, 987.25}, {800, 1600}}
	for _, p := range pairs {
		assert.InDelta(t, 1.0, ExpectedScore(p[0], p[1])+ExpectedScore(p[1], p[0]), 1e-12)
	}
}

func TestPairDelta(t *testing.T) {
	tests := []struct {
		name           string
		ra, rb         float64
		placeA, placeB int
		expected       float64
	}{{
		"win between equals",
		1000, 1000, 1, 2,
		0.5,
	}, {
		"loss between equals",
		1000, 1000, 2, 1,
		-0.5,
	}, {
		"favourite wins",
		1200, 1000, 1, 2,
		1 - 0.7597469266,
	}, {
		"favourite loses",
		1200, 1000, 4, 3,
		-0.7597469266,
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.InDelta(t, test.expected, pairDelta(test.ra, test.rb, test.placeA, test.placeB), 1e-9)
		})
	}
}

// Two known racers, 1200 beating 1000, with K=40 and P(2)=0.65.
func TestTwoKnownExample(t *testing.T) {
	e := ExpectedScore(1200, 1000)
	assert.InDelta(t, 0.76, e, 0.005)

	raw := DefaultKInitial * pairDelta(1200, 1000, 1, 2)
	assert.InDelta(t, 9.61, raw, 0.005)

	scaled := DefaultProportionalFactors()[1] * raw
	assert.InDelta(t, 6.25, scaled, 0.005)
}

func TestRawDeltasAreZeroSumAtEqualRatings(t *testing.T) {
	places := []int{2, 5, 1, 7, 3}
	var sum float64
	for i, a := range places {
		for j, b := range places {
			if i == j {
				continue
			}
			sum += pairDelta(1000, 1000, a, b)
		}
	}
	assert.InDelta(t, 0, sum, 1e-12)
}
