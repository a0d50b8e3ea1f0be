package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDo(t *testing.T) {
	fast := Policy{Attempts: 3, BaseDelay: time.Millisecond}

	Convey("Given a flaky startup step", t, func() {
		ctx := context.Background()

		Convey("It stops at the first success", func() {
			calls := 0
			err := Do(ctx, nil, "db", fast, func(context.Context) error {
				calls++
				if calls < 2 {
					return errors.New("connection refused")
				}
				return nil
			})
			So(err, ShouldBeNil)
			So(calls, ShouldEqual, 2)
		})

		Convey("It wraps the last error after the final attempt", func() {
			boom := errors.New("connection refused")
			calls := 0
			err := Do(ctx, nil, "db", fast, func(context.Context) error {
				calls++
				return boom
			})
			So(calls, ShouldEqual, 3)
			So(errors.Is(err, boom), ShouldBeTrue)
			So(err.Error(), ShouldStartWith, "db: ")
		})

		Convey("It gives up when the context ends", func() {
			cctx, cancel := context.WithCancel(ctx)
			calls := 0
			err := Do(cctx, nil, "db", Policy{Attempts: 5, BaseDelay: time.Hour}, func(context.Context) error {
				calls++
				cancel()
				return errors.New("down")
			})
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(calls, ShouldEqual, 1)
		})

		Convey("It rejects a policy without attempts", func() {
			err := Do(ctx, nil, "db", Policy{}, func(context.Context) error { return nil })
			So(err, ShouldNotBeNil)
		})
	})
}
