// Package report renders replay results: the per-race tracker CSV, the
// post-analysis JSON and the console leaderboard.
package report

import (
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"

	"github.com/okian/kartelo/internal/domain/types"
)

var trackerPrefix = []string{"Date", "Time", "Map Name"} //nolint:gochecknoglobals // fixed column layout

// WriteTracker writes one row per applied race with every roster player's
// rating after that race.
func WriteTracker(w io.Writer, roster []string, rows []types.TraceRow) error {
	header := append(append([]string{}, trackerPrefix...), roster...)
	if len(rows) == 0 {
		_, err := io.WriteString(w, strings.Join(header, ",")+"\n")
		return errors.Wrap(err, "write tracker")
	}

	records := make([][]string, 0, len(rows)+1)
	records = append(records, header)
	for _, row := range rows {
		rec := []string{row.Date, row.Time, row.Map}
		for _, p := range roster {
			rec = append(rec, strconv.FormatFloat(row.Ratings[p], 'f', -1, 64))
		}
		records = append(records, rec)
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return errors.Wrap(df.Err, "build tracker")
	}
	return errors.Wrap(df.WriteCSV(w), "write tracker")
}

// WriteTrackerFile creates path and writes the tracker to it.
func WriteTrackerFile(path string, roster []string, rows []types.TraceRow) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create tracker %s", path)
	}
	if err := WriteTracker(f, roster, rows); err != nil {
		_ = f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "close tracker %s", path)
}

// DailyLast returns the player's rating after the last race of each day,
// ordered by date. Rows need not be sorted.
func DailyLast(rows []types.TraceRow, player string) []types.HistoryPoint {
	last := make(map[string]float64)
	for _, row := range rows {
		if r, ok := row.Ratings[player]; ok {
			last[row.Date] = r
		}
	}
	dates := make([]string, 0, len(last))
	for d := range last {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := make([]types.HistoryPoint, 0, len(dates))
	for _, d := range dates {
		out = append(out, types.HistoryPoint{Date: d, Rating: last[d]})
	}
	return out
}
