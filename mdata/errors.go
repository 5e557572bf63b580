package mdata

import (
	"errors"
	"fmt"
)

// ErrEmptyWindow is returned when summarizing a window that has no samples
var ErrEmptyWindow = errors.New("no samples accumulated in window")

// BucketMissError is returned when a value doesn't fall in any histogram bucket.
// this is always the case for NaN.
type BucketMissError struct {
	Channel string
	Value   float64
}

func (e *BucketMissError) Error() string {
	return fmt.Sprintf("%s: value %v does not fit any histogram bucket", e.Channel, e.Value)
}
