// Package clock provides the process clock and aligned tickers.
// Scheduling code takes a Clock so tests can drive it with a mock.
// An aligned ticker is a channel of time.Time "ticks" similar to time.Ticker,
// but the ticks are even multiples of the requested period, and are delivered
// as shortly as possible after the clock reaching these timestamps.
// For example, with period=1s, the ticker ticks shortly after the passing of each
// whole second, and the values returned are always these multiples.
package clock

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Clock is the source of "now" for everything that schedules.
type Clock = clock.Clock

// Mock is a clock that only moves when told to.
type Mock = clock.Mock

// New returns the real clock.
func New() Clock {
	return clock.New()
}

// NewMock returns a mock clock set to the unix epoch.
func NewMock() *Mock {
	return clock.NewMock()
}

// AlignedTickLossy returns an aligned ticker that may drop ticks
// (if the consumer is slow or the clock jumps forward)
func AlignedTickLossy(clk Clock, period time.Duration) <-chan time.Time {
	c := make(chan time.Time)
	go func() {
		for {
			now := clk.Now()
			diff := period - (time.Duration(now.UnixNano()) % period)
			ideal := now.Add(diff)
			clk.Sleep(diff)
			select {
			case c <- ideal:
			default:
			}
		}
	}()
	return c
}

// AlignedTickLossless returns an aligned ticker that waits for slow receivers,
// and backfills later as necessary to publish any pending ticks, at possibly
// a much more aggressive schedule. (keeps ticking until fully caught up)
// Note: clock jumps may still result in dropped ticks.
func AlignedTickLossless(clk Clock, period time.Duration) <-chan time.Time {
	c := make(chan time.Time)
	nsec := (clk.Now().UnixNano() / int64(period)) * int64(period)
	next := time.Unix(0, nsec).Add(period)
	go func() {
		for {
			now := clk.Now()

			// catch up if the consumer has run behind the clock
			for now.After(next) {
				c <- next
				next = next.Add(period)
				now = clk.Now()
			}

			clk.Sleep(next.Sub(now))
			c <- next
			next = next.Add(period)
		}
	}()
	return c
}
