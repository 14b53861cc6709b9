package racelog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/pkg/errors"
)

// ReadRoster reads player names from the "Player Name" column, keeping file
// order and dropping blanks and repeats.
func ReadRoster(r io.Reader) ([]string, error) {
	df := dataframe.ReadCSV(r, loadOptions()...)
	if df.Err != nil {
		return nil, errors.Wrap(fmt.Errorf("%w: %w", ErrMalformedRoster, df.Err), "read roster")
	}
	if !contains(df.Names(), ColPlayerName) {
		return nil, errors.Wrapf(ErrMalformedRoster, "missing column %q", ColPlayerName)
	}

	col := df.Col(ColPlayerName)
	seen := make(map[string]bool, col.Len())
	roster := make([]string, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		name := cell(col, i)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		roster = append(roster, name)
	}
	if len(roster) == 0 {
		return nil, errors.Wrap(ErrMalformedRoster, "no players")
	}
	return roster, nil
}

// ReadRosterFile opens path and parses it with ReadRoster.
func ReadRosterFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open roster %s", path)
	}
	defer f.Close()
	return ReadRoster(f)
}

// PlayersInLog lists every participant in order of first appearance.
func PlayersInLog(entries []Entry) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		for _, p := range e.Race.Participants() {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

// Unlisted returns the names in players that are missing from roster.
func Unlisted(players, roster []string) []string {
	known := make(map[string]bool, len(roster))
	for _, p := range roster {
		known[strings.TrimSpace(p)] = true
	}
	var out []string
	for _, p := range players {
		if !known[p] {
			out = append(out, p)
		}
	}
	return out
}
