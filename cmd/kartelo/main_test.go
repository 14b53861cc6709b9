package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/kartelo/internal/adapters/archive"
	"github.com/okian/kartelo/internal/adapters/racelog"
	app "github.com/okian/kartelo/internal/app"
	"github.com/okian/kartelo/internal/config"
	"github.com/okian/kartelo/internal/racegen"
	"github.com/okian/kartelo/pkg/logger"
)

const resultsCSV = `Date,Time,Map Name,Raj Placement,Azhan Placement,Sameer Placement
2024-03-01,20:15,Coconut Mall,1,2,DNR
2024-03-01,20:15,Coconut Mall,1,2,DNR
2024-03-01,20:22,DK Summit,DNR,1,2
2024-03-02,19:05,Rainbow Road,3,3,1
`

func setEnv(vars map[string]string) func() {
	for k, v := range vars {
		_ = os.Setenv(k, v)
	}
	return func() {
		for k := range vars {
			_ = os.Unsetenv(k)
		}
	}
}

func TestRun(t *testing.T) {
	convey.Convey("Given a race log and output paths", t, func() {
		dir := t.TempDir()
		results := filepath.Join(dir, "results.csv")
		tracker := filepath.Join(dir, "elo_tracker.csv")
		analysis := filepath.Join(dir, "elo_post_analysis.json")
		convey.So(os.WriteFile(results, []byte(resultsCSV), 0o600), convey.ShouldBeNil)

		env := map[string]string{
			"KARTELO_RESULTS_FILE":  results,
			"KARTELO_TRACKER_FILE":  tracker,
			"KARTELO_ANALYSIS_FILE": analysis,
			"KARTELO_ROSTER":        "Raj,Azhan,Sameer",
		}

		convey.Convey("When running a replay with the skip policy", func() {
			defer setEnv(env)()
			var out, logs bytes.Buffer
			err := run(context.Background(), options{}, &out, &logs)

			convey.Convey("Then it succeeds and prints the leaderboard", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.String(), convey.ShouldContainSubstring, "Player")
				convey.So(out.String(), convey.ShouldContainSubstring, "races: 2 applied, 1 rejected, 1 duplicate")
			})

			convey.Convey("Then the rejected row is logged with its line", func() {
				convey.So(logs.String(), convey.ShouldContainSubstring, "race rejected, skipping")
				convey.So(logs.String(), convey.ShouldContainSubstring, "line=5")
			})

			convey.Convey("Then the tracker has one row per applied race", func() {
				b, err := os.ReadFile(tracker)
				convey.So(err, convey.ShouldBeNil)
				lines := strings.Split(strings.TrimSpace(string(b)), "\n")
				convey.So(lines, convey.ShouldHaveLength, 3)
				convey.So(lines[0], convey.ShouldEqual, "Date,Time,Map Name,Raj,Azhan,Sameer")
			})

			convey.Convey("Then the analysis lists every roster player", func() {
				b, err := os.ReadFile(analysis)
				convey.So(err, convey.ShouldBeNil)
				var decoded map[string]map[string]map[string]int
				convey.So(json.Unmarshal(b, &decoded), convey.ShouldBeNil)
				convey.So(decoded["Player Ratings"], convey.ShouldHaveLength, 3)
				convey.So(decoded["Player Ratings"]["Raj"]["Races"], convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When running with the abort policy", func() {
			env["KARTELO_ON_INVALID_RACE"] = config.OnInvalidAbort
			defer setEnv(env)()
			var out, logs bytes.Buffer
			err := run(context.Background(), options{}, &out, &logs)

			convey.Convey("Then it reports the abort after writing what was applied", func() {
				convey.So(errors.Is(err, app.ErrReplayAborted), convey.ShouldBeTrue)
				convey.So(out.String(), convey.ShouldContainSubstring, "races: 2 applied, 1 rejected, 1 duplicate")
				_, statErr := os.Stat(tracker)
				convey.So(statErr, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the race log is missing", func() {
			env["KARTELO_RESULTS_FILE"] = filepath.Join(dir, "missing.csv")
			defer setEnv(env)()
			err := run(context.Background(), options{}, &bytes.Buffer{}, &bytes.Buffer{})

			convey.Convey("Then it fails with the I/O error", func() {
				convey.So(errors.Is(err, os.ErrNotExist), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the config is invalid", func() {
			env["KARTELO_MAX_RACE_SIZE"] = "0"
			defer setEnv(env)()
			err := run(context.Background(), options{}, &bytes.Buffer{}, &bytes.Buffer{})

			convey.Convey("Then it fails before replaying", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestRunWithGeneratedLog(t *testing.T) {
	convey.Convey("Given a generated log with a players file", t, func() {
		dir := t.TempDir()
		results := filepath.Join(dir, "results.csv")
		players := filepath.Join(dir, "players.csv")
		roster := config.DefaultRoster()

		convey.So(logger.Init(), convey.ShouldBeNil)
		g, err := racegen.New(roster, racegen.WithRaces(40), racegen.WithSeed(3), racegen.WithDuplicateRate(0.1))
		convey.So(err, convey.ShouldBeNil)
		races, err := g.Generate(context.Background())
		convey.So(err, convey.ShouldBeNil)
		convey.So(racelog.WriteFile(results, roster, races), convey.ShouldBeNil)
		convey.So(os.WriteFile(players, []byte("Player Name\n"+strings.Join(roster, "\n")+"\n"), 0o600), convey.ShouldBeNil)

		defer setEnv(map[string]string{
			"KARTELO_RESULTS_FILE":  results,
			"KARTELO_PLAYERS_FILE":  players,
			"KARTELO_TRACKER_FILE":  filepath.Join(dir, "tracker.csv"),
			"KARTELO_ANALYSIS_FILE": filepath.Join(dir, "analysis.json"),
			"KARTELO_ARCHIVE_FILE":  filepath.Join(dir, "kartelo.db"),
		})()

		convey.Convey("When running the replay", func() {
			var out bytes.Buffer
			err := run(context.Background(), options{top: 3}, &out, &bytes.Buffer{})

			convey.Convey("Then every distinct race is applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.String(), convey.ShouldContainSubstring, "races: 40 applied, 0 rejected")
			})

			convey.Convey("Then the archive holds the whole roster", func() {
				a, err := archive.Open(context.Background(), filepath.Join(dir, "kartelo.db"))
				convey.So(err, convey.ShouldBeNil)
				defer a.Close()
				standings, err := a.Standings(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(standings, convey.ShouldHaveLength, len(roster))
			})
		})
	})
}

func TestNewMux(t *testing.T) {
	convey.Convey("Given a started service behind the mux", t, func() {
		ctx := context.Background()
		convey.So(logger.Init(), convey.ShouldBeNil)
		svc := app.New(app.WithRoster([]string{"Raj", "Azhan"}))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()
		mux := newMux(ctx, config.New(), svc)

		get := func(target string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, http.NoBody))
			return w
		}

		convey.Convey("Then the API and docs routes are served", func() {
			convey.So(get("/healthz").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/leaderboard?limit=2").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/rank/Raj").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/rank/Nobody").Code, convey.ShouldEqual, http.StatusNotFound)
			convey.So(get("/history/Raj").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/openapi.yaml").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/leaderboard?limit=101").Code, convey.ShouldEqual, http.StatusBadRequest)
		})
	})
}
