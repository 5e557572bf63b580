package mdata

import (
	"fmt"
	"math"

	"github.com/grafana/metersummary/conf"
)

// Channel accumulates the values of one measured quantity within a window:
// a running total, the observed min and max, and a histogram.
// min and max are NaN until the first value is accumulated.
type Channel struct {
	cfg   conf.Channel
	hist  Histogram
	total float64
	min   float64
	max   float64
}

func NewChannel(cfg conf.Channel) Channel {
	c := Channel{cfg: cfg}
	c.Reset()
	return c
}

func (c *Channel) Name() string {
	return c.cfg.Name
}

// lookup resolves the bucket for val without touching any state
func (c *Channel) lookup(val float64) (int, error) {
	idx, ok := bucketFor(&c.cfg.Boundaries, val)
	if ok {
		return idx, nil
	}
	if strict && brokenTable(val) {
		panic(fmt.Sprintf("mdata: finite value %v misses all buckets of channel %q: %v", val, c.cfg.Name, c.cfg.Boundaries))
	}
	return 0, &BucketMissError{Channel: c.cfg.Name, Value: val}
}

// brokenTable reports whether a bucket miss for val can only be explained by bad boundaries.
// NaN and ±Inf miss legitimately.
func brokenTable(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// commit adds val, which must have been resolved to bucket idx by lookup
func (c *Channel) commit(idx int, val float64) {
	c.hist[idx]++
	c.total += val
	if val < c.min || math.IsNaN(c.min) {
		c.min = val
	}
	if val > c.max || math.IsNaN(c.max) {
		c.max = val
	}
}

// Accumulate adds val to the channel. If val doesn't fit in any bucket,
// a *BucketMissError is returned and the channel is left untouched.
func (c *Channel) Accumulate(val float64) error {
	idx, err := c.lookup(val)
	if err != nil {
		return err
	}
	c.commit(idx, val)
	return nil
}

// Summarize computes the summary of the window, given the number of samples in it.
// avg, min and max are rounded down to the configured number of decimals.
func (c *Channel) Summarize(count uint32) (ChannelSummary, error) {
	if count == 0 {
		return ChannelSummary{}, fmt.Errorf("%s: %w", c.cfg.Name, ErrEmptyWindow)
	}
	return ChannelSummary{
		Avg:  roundDown(c.total/float64(count), c.cfg.DecimalPlaces),
		Min:  roundDown(c.min, c.cfg.DecimalPlaces),
		Max:  roundDown(c.max, c.cfg.DecimalPlaces),
		Hist: c.hist,
	}, nil
}

func (c *Channel) Reset() {
	c.hist.Reset()
	c.total = 0
	c.min = math.NaN()
	c.max = math.NaN()
}

// roundDown truncates towards -Inf at the given number of decimal places
func roundDown(val float64, places int) float64 {
	p := math.Pow10(places)
	return math.Floor(val*p) / p
}
