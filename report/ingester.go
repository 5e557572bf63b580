package report

import (
	"context"

	"github.com/grafana/metersummary/clock"
	"github.com/grafana/metersummary/meter"
	"github.com/grafana/metersummary/stats"
	log "github.com/sirupsen/logrus"
)

var (
	// metric report.ingest.dropped is how many samples were dropped because the ingest buffer was full
	ingestDropped = stats.NewCounter32("report.ingest.dropped")
	// metric report.ingest.buffer is the range of the number of samples waiting to be processed
	ingestBuffer = stats.NewRange32("report.ingest.buffer")
)

type intervalReq struct {
	seconds uint32
	resp    chan bool
}

// Ingester runs a Reporter on its own goroutine. All access to the reporter
// goes through channels, so the accumulation state needs no locking.
type Ingester struct {
	reporter  *Reporter
	clock     clock.Clock
	samples   chan meter.Sample
	intervals chan intervalReq
	statuses  chan chan Status
}

// NewIngester creates an ingester that buffers up to bufferSize samples
func NewIngester(r *Reporter, clk clock.Clock, bufferSize int) *Ingester {
	return &Ingester{
		reporter:  r,
		clock:     clk,
		samples:   make(chan meter.Sample, bufferSize),
		intervals: make(chan intervalReq),
		statuses:  make(chan chan Status),
	}
}

// Submit hands a sample to the ingester without blocking.
// It returns false if the buffer is full and the sample was dropped.
func (i *Ingester) Submit(s meter.Sample) bool {
	select {
	case i.samples <- s:
		return true
	default:
		ingestDropped.Inc()
		return false
	}
}

// SetReportInterval requests an interval change. see Reporter.SetReportInterval
func (i *Ingester) SetReportInterval(ctx context.Context, seconds uint32) (bool, error) {
	req := intervalReq{
		seconds: seconds,
		resp:    make(chan bool, 1),
	}
	select {
	case i.intervals <- req:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	select {
	case ok := <-req.resp:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Status returns the state of the current window
func (i *Ingester) Status(ctx context.Context) (Status, error) {
	resp := make(chan Status, 1)
	select {
	case i.statuses <- resp:
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
	select {
	case st := <-resp:
		return st, nil
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
}

// Run processes samples and requests until ctx is canceled.
func (i *Ingester) Run(ctx context.Context) error {
	log.Info("report: ingester started")
	for {
		select {
		case <-ctx.Done():
			log.Infof("report: ingester stopping. %d samples in current window", i.reporter.acc.Count())
			return nil
		case s := <-i.samples:
			ingestBuffer.Value(len(i.samples))
			// errors are logged and counted by the reporter
			_ = i.reporter.Accumulate(s, i.clock.Now())
		case req := <-i.intervals:
			req.resp <- i.reporter.SetReportInterval(req.seconds, i.clock.Now())
		case resp := <-i.statuses:
			resp <- i.reporter.Status()
		}
	}
}
