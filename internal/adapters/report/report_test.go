package report_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/kartelo/internal/adapters/report"
	"github.com/okian/kartelo/internal/domain/rating"
	"github.com/okian/kartelo/internal/domain/types"
)

func sampleTrace() []types.TraceRow {
	return []types.TraceRow{
		{Date: "2024-03-01", Time: "20:15", Map: "Coconut Mall", Ratings: map[string]float64{"Raj": 1020, "Azhan": 980}},
		{Date: "2024-03-01", Time: "20:22", Map: "DK Summit", Ratings: map[string]float64{"Raj": 1031.25, "Azhan": 968.75}},
		{Date: "2024-03-02", Time: "19:05", Map: "Rainbow Road", Ratings: map[string]float64{"Raj": 1010.5, "Azhan": 989.5}},
	}
}

func TestWriteTracker(t *testing.T) {
	Convey("Given a replay trace", t, func() {
		var buf bytes.Buffer
		err := report.WriteTracker(&buf, []string{"Raj", "Azhan"}, sampleTrace())
		So(err, ShouldBeNil)
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

		Convey("Then there is a header and one row per race", func() {
			So(lines, ShouldHaveLength, 4)
			So(lines[0], ShouldEqual, "Date,Time,Map Name,Raj,Azhan")
			So(lines[2], ShouldEqual, "2024-03-01,20:22,DK Summit,1031.25,968.75")
		})
	})

	Convey("Given an empty trace", t, func() {
		var buf bytes.Buffer
		So(report.WriteTracker(&buf, []string{"Raj"}, nil), ShouldBeNil)

		Convey("Then only the header is written", func() {
			So(buf.String(), ShouldEqual, "Date,Time,Map Name,Raj\n")
		})
	})

	Convey("Given a file path", t, func() {
		path := filepath.Join(t.TempDir(), "elo_tracker.csv")
		So(report.WriteTrackerFile(path, []string{"Raj", "Azhan"}, sampleTrace()), ShouldBeNil)

		Convey("Then the file holds the tracker", func() {
			b, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So(string(b), ShouldStartWith, "Date,Time,Map Name,Raj,Azhan\n")
		})
	})
}

func TestDailyLast(t *testing.T) {
	Convey("Given a trace spanning two days", t, func() {
		points := report.DailyLast(sampleTrace(), "Raj")

		Convey("Then each day keeps its last rating", func() {
			So(points, ShouldResemble, []types.HistoryPoint{
				{Date: "2024-03-01", Rating: 1031.25},
				{Date: "2024-03-02", Rating: 1010.5},
			})
		})

		Convey("Then an unknown player has no history", func() {
			So(report.DailyLast(sampleTrace(), "Nobody"), ShouldBeEmpty)
		})
	})

	Convey("Given a trace whose dates are out of order", t, func() {
		rows := []types.TraceRow{
			{Date: "2024-03-02", Ratings: map[string]float64{"Raj": 1005}},
			{Date: "2024-03-01", Ratings: map[string]float64{"Raj": 990}},
			{Date: "2024-03-02", Ratings: map[string]float64{"Raj": 1012}},
		}

		Convey("Then every row of a date is merged and dates come out sorted", func() {
			So(report.DailyLast(rows, "Raj"), ShouldResemble, []types.HistoryPoint{
				{Date: "2024-03-01", Rating: 990},
				{Date: "2024-03-02", Rating: 1012},
			})
		})
	})
}

func TestWriteAnalysis(t *testing.T) {
	Convey("Given final standings", t, func() {
		standings := []rating.Standing{
			{Name: "Zetaa", Rating: 1012.5, Peak: 1040.4, Races: 12},
			{Name: "Adi", Rating: 987.5, Peak: 1000, Races: 3},
		}
		var buf bytes.Buffer
		So(report.WriteAnalysis(&buf, standings), ShouldBeNil)

		Convey("Then ratings are rounded half to even", func() {
			a := report.NewAnalysis(standings)
			z, ok := a.Lookup("Zetaa")
			So(ok, ShouldBeTrue)
			So(z, ShouldResemble, report.PlayerRating{Peak: 1040, Current: 1012, Races: 12})
			adi, _ := a.Lookup("Adi")
			So(adi.Current, ShouldEqual, 988)
		})

		Convey("Then players keep roster order in the file", func() {
			out := buf.String()
			So(strings.Index(out, `"Zetaa"`), ShouldBeLessThan, strings.Index(out, `"Adi"`))
			So(out, ShouldContainSubstring, "\n    \"Player Ratings\": {")
		})

		Convey("Then the file decodes as plain JSON", func() {
			var decoded map[string]map[string]map[string]int
			So(json.Unmarshal(buf.Bytes(), &decoded), ShouldBeNil)
			So(decoded["Player Ratings"]["Adi"]["Peak Rating"], ShouldEqual, 1000)
			So(decoded["Player Ratings"]["Zetaa"]["Races"], ShouldEqual, 12)
		})
	})
}

func TestRenderLeaderboard(t *testing.T) {
	Convey("Given leaderboard entries", t, func() {
		var buf bytes.Buffer
		report.RenderLeaderboard(&buf, []types.Entry{
			{Rank: 1, Player: "Raj", Rating: 1031.25, Peak: 1031.25, Races: 2},
			{Rank: 2, Player: "Azhan", Rating: 968.75, Peak: 1000, Races: 2},
		})

		Convey("Then a rounded table is printed", func() {
			out := buf.String()
			So(out, ShouldContainSubstring, "Player")
			So(out, ShouldNotContainSubstring, "PLAYER")
			So(out, ShouldContainSubstring, "Raj")
			So(out, ShouldContainSubstring, "1031.2")
			So(out, ShouldContainSubstring, "╭")
		})
	})
}
