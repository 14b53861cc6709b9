package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/kartelo/internal/adapters/racelog"
)

func TestRun(t *testing.T) {
	convey.Convey("Given generator options", t, func() {
		opts := options{races: 6, perDay: 3, minField: 2, seed: 9, start: "2024-05-01"}
		_ = os.Setenv("KARTELO_ROSTER", "Raj,Azhan,Sameer,Zetaa")
		defer func() { _ = os.Unsetenv("KARTELO_ROSTER") }()

		convey.Convey("When writing to stdout", func() {
			var out bytes.Buffer
			err := run(context.Background(), opts, &out)

			convey.Convey("Then the log reads back with one row per race", func() {
				convey.So(err, convey.ShouldBeNil)
				entries, err := racelog.Read(&out)
				convey.So(err, convey.ShouldBeNil)
				convey.So(entries, convey.ShouldHaveLength, 6)
				convey.So(entries[0].Race.Date, convey.ShouldEqual, "2024-05-01")
				convey.So(entries[3].Race.Date, convey.ShouldEqual, "2024-05-02")
				for _, e := range entries {
					convey.So(e.Err, convey.ShouldBeNil)
					convey.So(e.Race.Len(), convey.ShouldBeGreaterThanOrEqualTo, 2)
				}
			})
		})

		convey.Convey("When writing to a file", func() {
			opts.out = filepath.Join(t.TempDir(), "results.csv")
			err := run(context.Background(), opts, &bytes.Buffer{})

			convey.Convey("Then the file is created", func() {
				convey.So(err, convey.ShouldBeNil)
				entries, err := racelog.ReadFile(opts.out)
				convey.So(err, convey.ShouldBeNil)
				convey.So(entries, convey.ShouldHaveLength, 6)
			})
		})

		convey.Convey("When the start date is malformed", func() {
			opts.start = "01/05/2024"
			err := run(context.Background(), opts, &bytes.Buffer{})

			convey.Convey("Then it fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}
