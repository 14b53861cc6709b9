package service

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/kartelo/internal/domain/rating"
	"github.com/okian/kartelo/pkg/logger"
)

func TestPublishChanges(t *testing.T) {
	Convey("Given a started service", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx := context.Background()
		svc := New(WithRoster([]string{"Raj", "Azhan"}))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a change names a player the engine does not know", func() {
			err := svc.publishChanges(ctx, []rating.Change{{Player: "Raj"}, {Player: "Ghost"}})

			Convey("Then the lookup error is returned", func() {
				So(errors.Is(err, rating.ErrUnknownPlayer), ShouldBeTrue)
			})
		})

		Convey("When every change names a roster player", func() {
			err := svc.publishChanges(ctx, []rating.Change{{Player: "Azhan"}})

			Convey("Then the leaderboard is updated", func() {
				So(err, ShouldBeNil)
				e, err := svc.Rank(ctx, "Azhan")
				So(err, ShouldBeNil)
				So(e.Rating, ShouldEqual, 1000)
			})
		})
	})
}
