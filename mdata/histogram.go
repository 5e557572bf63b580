package mdata

import "github.com/grafana/metersummary/conf"

// Histogram counts values into conf.NumBuckets fixed buckets.
// bucket i covers [bounds[i-1], bounds[i]), bucket 0 is open towards -Inf.
type Histogram [conf.NumBuckets]uint32

// bucketFor returns the index of the first boundary that val is strictly less than.
// NaN never matches, nor does a value at or beyond the last boundary.
func bucketFor(bounds *[conf.NumBuckets]float64, val float64) (int, bool) {
	for i, b := range bounds {
		if val < b {
			return i, true
		}
	}
	return 0, false
}

func (h *Histogram) Reset() {
	*h = Histogram{}
}

// Total returns the sum of all bucket counts
func (h *Histogram) Total() uint64 {
	var t uint64
	for _, c := range h {
		t += uint64(c)
	}
	return t
}
