package models

import (
	"time"

	"github.com/go-macaron/binding"
	macaron "gopkg.in/macaron.v1"
)

type Summaries struct {
	Format string `json:"format" form:"format" binding:"In(,json,msgp,msgpack,pickle)"`
	Limit  int    `json:"limit" form:"limit"`
}

func (s Summaries) Validate(ctx *macaron.Context, errs binding.Errors) binding.Errors {
	if s.Limit < 0 {
		errs = append(errs, binding.Error{
			FieldNames:     []string{"limit"},
			Classification: "RangeError",
			Message:        "must not be negative",
		})
	}
	return errs
}

type ReportInterval struct {
	Seconds uint32 `json:"seconds" form:"seconds"`
}

type ReportIntervalResp struct {
	Seconds uint32 `json:"seconds"`
}

// Status is the state of the current report window
type Status struct {
	Armed       bool      `json:"armed"`
	Count       uint32    `json:"count"`
	WindowStart time.Time `json:"windowStart"`
	WindowEnd   time.Time `json:"windowEnd"`
	NextClose   time.Time `json:"nextClose"`
	Interval    uint32    `json:"interval"`
	QueueLen    int       `json:"queueLength"`
}

// LatestRead is the latest accepted meter read
type LatestRead struct {
	Received time.Time   `json:"received"`
	Read     interface{} `json:"read"`
}
