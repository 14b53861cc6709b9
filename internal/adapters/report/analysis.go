package report

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"

	"github.com/okian/kartelo/internal/domain/rating"
)

// PlayerRating is one player's block in the analysis file.
type PlayerRating struct {
	Peak    int `json:"Peak Rating"`
	Current int `json:"Current Rating"`
	Races   int `json:"Races"`
}

// Analysis is the post-replay summary file.
type Analysis struct {
	Players playerRatings `json:"Player Ratings"`
}

type playerRating struct {
	name string
	PlayerRating
}

// playerRatings keeps roster order when encoded.
type playerRatings []playerRating

func (p playerRatings) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.PlayerRating)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Lookup returns the block for name.
func (a Analysis) Lookup(name string) (PlayerRating, bool) {
	for _, r := range a.Players {
		if r.name == name {
			return r.PlayerRating, true
		}
	}
	return PlayerRating{}, false
}

// NewAnalysis rounds each standing half-to-even.
func NewAnalysis(standings []rating.Standing) Analysis {
	out := Analysis{Players: make(playerRatings, 0, len(standings))}
	for _, s := range standings {
		out.Players = append(out.Players, playerRating{
			name: s.Name,
			PlayerRating: PlayerRating{
				Peak:    int(math.RoundToEven(s.Peak)),
				Current: int(math.RoundToEven(s.Rating)),
				Races:   s.Races,
			},
		})
	}
	return out
}

// WriteAnalysis writes the analysis JSON with four-space indentation.
func WriteAnalysis(w io.Writer, standings []rating.Standing) error {
	b, err := json.MarshalIndent(NewAnalysis(standings), "", "    ")
	if err != nil {
		return errors.Wrap(err, "encode analysis")
	}
	_, err = w.Write(append(b, '\n'))
	return errors.Wrap(err, "write analysis")
}

// WriteAnalysisFile creates path and writes the analysis to it.
func WriteAnalysisFile(path string, standings []rating.Standing) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create analysis %s", path)
	}
	if err := WriteAnalysis(f, standings); err != nil {
		_ = f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "close analysis %s", path)
}
