// Package racelog reads and writes the race-result log.
//
// The log is a CSV with Date, Time and Map Name columns followed by one
// "<Player> Placement" column per player (and optional "<Player> Kart"
// columns, which are ignored). A player who did not race has DNR or an
// empty cell.
package racelog

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"

	"github.com/okian/kartelo/internal/domain/model"
	"github.com/okian/kartelo/internal/domain/rating"
)

// Column names of the log.
const (
	ColDate            = "Date"
	ColTime            = "Time"
	ColMap             = "Map Name"
	PlacementSuffix    = " Placement"
	ColPlayerName      = "Player Name"
	DidNotRace         = "DNR"
	firstDataLine      = 2
	placementColumnFmt = "%s" + PlacementSuffix
)

// Entry is one row of the log. Err is set when the row could not be turned
// into a race; Race is then the zero value.
type Entry struct {
	Line int
	Race model.Race
	Err  error
}

func loadOptions() []dataframe.LoadOption {
	return []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{"NA", "NaN", "<nil>"}),
	}
}

// Read parses a race log. Row-level problems are reported on the entry so
// the caller can decide whether to skip or abort; only a structurally
// broken log returns an error.
func Read(r io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read race log")
	}
	df := dataframe.ReadCSV(bytes.NewReader(data), loadOptions()...)
	if df.Err != nil {
		// gota refuses a frame without rows; a bare header is an empty log.
		if header, ok := headerOnly(data); ok {
			if err := checkColumns(header); err != nil {
				return nil, err
			}
			return []Entry{}, nil
		}
		return nil, errors.Wrap(fmt.Errorf("%w: %w", ErrMalformedLog, df.Err), "read race log")
	}

	names := df.Names()
	if err := checkColumns(names); err != nil {
		return nil, err
	}

	type placementCol struct {
		player string
		values series.Series
	}
	var cols []placementCol
	for _, name := range names {
		if player, ok := strings.CutSuffix(name, PlacementSuffix); ok && strings.TrimSpace(player) != "" {
			cols = append(cols, placementCol{player: strings.TrimSpace(player), values: df.Col(name)})
		}
	}

	dates, times, maps := df.Col(ColDate), df.Col(ColTime), df.Col(ColMap)
	entries := make([]Entry, 0, df.Nrow())
	for i := 0; i < df.Nrow(); i++ {
		entry := Entry{Line: i + firstDataLine}
		placements := make(map[string]int, len(cols))
		for _, c := range cols {
			elem := c.values.Elem(i)
			if elem.IsNA() {
				continue
			}
			place, present, err := parsePlacement(elem.String())
			if err != nil {
				entry.Err = fmt.Errorf("%w: line %d: %q placed %q", rating.ErrInvalidPlacement, entry.Line, c.player, elem.String())
				break
			}
			if present {
				placements[c.player] = place
			}
		}
		if entry.Err == nil {
			entry.Race = model.NewRace(cell(dates, i), cell(times, i), cell(maps, i), placements)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ReadFile opens path and parses it with Read.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open race log %s", path)
	}
	defer f.Close()
	return Read(f)
}

// parsePlacement returns present=false for a player who did not race.
// Integral floats such as "3.0" are accepted.
func parsePlacement(raw string) (place int, present bool, err error) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, DidNotRace) || strings.EqualFold(s, "NA") || strings.EqualFold(s, "NaN") {
		return 0, false, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false, fmt.Errorf("not an integer placement: %q", raw)
	}
	return int(f), true, nil
}

func cell(s series.Series, i int) string {
	elem := s.Elem(i)
	if elem.IsNA() {
		return ""
	}
	return strings.TrimSpace(elem.String())
}

func checkColumns(names []string) error {
	for _, col := range []string{ColDate, ColTime, ColMap} {
		if !contains(names, col) {
			return errors.Wrapf(ErrMalformedLog, "missing column %q", col)
		}
	}
	return nil
}

// headerOnly reports whether data holds a header record and nothing else.
func headerOnly(data []byte) ([]string, bool) {
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil || len(records) != 1 {
		return nil, false
	}
	header := make([]string, len(records[0]))
	for i, name := range records[0] {
		header[i] = strings.TrimSpace(name)
	}
	return header, true
}

func contains(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}

// Write emits races in the log format with one placement column per roster
// player, in roster order. Players absent from a race are written as DNR.
func Write(w io.Writer, roster []string, races []model.Race) error {
	header := []string{ColDate, ColTime, ColMap}
	for _, p := range roster {
		header = append(header, fmt.Sprintf(placementColumnFmt, p))
	}
	records := make([][]string, 0, len(races)+1)
	records = append(records, header)
	for _, race := range races {
		row := []string{race.Date, race.Time, race.Map}
		for _, p := range roster {
			if place, ok := race.Placement(p); ok {
				row = append(row, strconv.Itoa(place))
			} else {
				row = append(row, DidNotRace)
			}
		}
		records = append(records, row)
	}

	if len(races) == 0 {
		_, err := io.WriteString(w, strings.Join(header, ",")+"\n")
		return errors.Wrap(err, "write race log")
	}
	df := dataframe.LoadRecords(records, loadOptions()...)
	if df.Err != nil {
		return errors.Wrap(df.Err, "build race log")
	}
	return errors.Wrap(df.WriteCSV(w), "write race log")
}

// WriteFile creates path and writes races to it.
func WriteFile(path string, roster []string, races []model.Race) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create race log %s", path)
	}
	if err := Write(f, roster, races); err != nil {
		_ = f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "close race log %s", path)
}
