// Package report turns the stream of samples into periodic summaries.
// A Reporter owns the accumulation window and its Scheduler, and hands every
// closed window to a queue. The Ingester runs a Reporter on its own goroutine.
package report

import (
	"errors"
	"time"

	"github.com/grafana/metersummary/conf"
	"github.com/grafana/metersummary/mdata"
	"github.com/grafana/metersummary/meter"
	"github.com/grafana/metersummary/stats"
	log "github.com/sirupsen/logrus"
)

var (
	// metric report.samples.accepted is how many samples were accumulated
	samplesAccepted = stats.NewCounterRate32("report.samples.accepted")
	// metric report.samples.rejected is how many samples were rejected because a value didn't fit the calibration
	samplesRejected = stats.NewCounter32("report.samples.rejected")
	// metric report.samples.discarded is how many samples were dropped while arming the scheduler
	samplesDiscarded = stats.NewCounter32("report.samples.discarded")
	// metric report.windows.closed is how many windows were closed and queued for dispatch
	windowsClosed = stats.NewCounter32("report.windows.closed")
	// metric report.windows.empty is how many windows were closed without any samples
	windowsEmpty = stats.NewCounter32("report.windows.empty")
	// metric report.windows.resynced is how many times the deadline had passed and was resynced
	windowsResynced = stats.NewCounter32("report.windows.resynced")
	// metric report.window.samples is the number of samples in the current window
	windowSamples = stats.NewGauge32("report.window.samples")
	// metric report.interval is the report interval in seconds
	reportInterval = stats.NewGauge32("report.interval")
	// metric report.next_close is the number of seconds until the current window closes
	nextClose = stats.NewTimeDiffReporter32("report.next_close", 0)
)

// Enqueuer accepts closed windows. It must not block.
type Enqueuer interface {
	Enqueue(*mdata.Summary)
}

// Reporter ties the accumulator, the scheduler and the dispatch queue together.
// It is not safe for concurrent use.
type Reporter struct {
	acc          *mdata.SampleAccumulator
	sched        *Scheduler
	queue        Enqueuer
	discardFirst bool
	closed       uint64
}

// NewReporter creates a Reporter with the given calibration and report interval in seconds.
// if discardFirst is set, the first window after arming is closed but not queued.
func NewReporter(cal conf.Calibration, interval uint32, queue Enqueuer, discardFirst bool, now time.Time) *Reporter {
	reportInterval.SetUint32(interval)
	return &Reporter{
		acc:          mdata.NewSampleAccumulator(cal, now),
		sched:        NewScheduler(interval),
		queue:        queue,
		discardFirst: discardFirst,
	}
}

// Accumulate processes a sample taken at now.
// The window is closed first if it is due, so the sample belongs to the new window.
// The first sample arms the scheduler and starts a fresh window.
// A non-nil error means the sample was rejected and nothing was accumulated.
func (r *Reporter) Accumulate(s meter.Sample, now time.Time) error {
	if !r.sched.Armed() {
		if c := r.acc.Count(); c > 0 {
			samplesDiscarded.AddUint32(c)
		}
		r.sched.Arm(now)
		r.acc.Reset(now)
		nextClose.Set(uint32(r.sched.Next().Unix()))
		log.Infof("report: first sample seen. first window closes at %s", r.sched.Next().Format(time.RFC3339))
	} else if sum, ok := r.MaybeCloseWindow(now); ok {
		r.queue.Enqueue(sum)
	}

	err := r.acc.Accumulate(s, now)
	if err != nil {
		samplesRejected.Inc()
		log.Warnf("report: sample rejected: %s", err.Error())
		return err
	}
	samplesAccepted.Inc()
	windowSamples.SetUint32(r.acc.Count())
	return nil
}

// MaybeCloseWindow closes the current window if its deadline has passed at now.
// It returns the summary of the closed window, if there is one to report.
// Empty windows are closed but not reported.
// If the window is not due, this is a no-op.
func (r *Reporter) MaybeCloseWindow(now time.Time) (*mdata.Summary, bool) {
	if !r.sched.Due(now) {
		return nil, false
	}

	sum, err := r.acc.Summarize()
	r.acc.Reset(now)
	windowSamples.SetUint32(0)
	if r.sched.Advance(now) {
		windowsResynced.Inc()
		log.Warnf("report: report time in the past. next window closes at %s", r.sched.Next().Format(time.RFC3339))
	}
	nextClose.Set(uint32(r.sched.Next().Unix()))
	r.closed++

	if err != nil {
		if errors.Is(err, mdata.ErrEmptyWindow) {
			windowsEmpty.Inc()
			log.Debug("report: closed empty window. nothing to report")
		} else {
			log.Errorf("report: failed to summarize window: %s", err.Error())
		}
		return nil, false
	}
	if r.discardFirst && r.closed == 1 {
		log.Infof("report: discarding first window (%d samples)", sum.Count)
		return nil, false
	}
	windowsClosed.Inc()
	log.Debugf("report: closed window %d - %d with %d samples", sum.Start, sum.End, sum.Count)
	return sum, true
}

// SetReportInterval changes the report interval to the given number of seconds.
// It returns false if the interval is out of bounds, in which case nothing changes.
// Accumulated data is kept; only the deadline of the current window moves.
func (r *Reporter) SetReportInterval(seconds uint32, now time.Time) bool {
	if !r.sched.SetPeriod(seconds, now) {
		log.Infof("report: report interval %d s out of bounds [%d, %d]. ignoring", seconds, MinInterval, MaxInterval)
		return false
	}
	reportInterval.SetUint32(seconds)
	if r.sched.Armed() {
		nextClose.Set(uint32(r.sched.Next().Unix()))
	}
	log.Infof("report: report interval set to %d s", seconds)
	return true
}

// Status describes the state of the current window
type Status struct {
	Armed       bool      `json:"armed"`
	Count       uint32    `json:"count"`
	WindowStart time.Time `json:"windowStart"`
	WindowEnd   time.Time `json:"windowEnd"`
	NextClose   time.Time `json:"nextClose"`
	Interval    uint32    `json:"interval"`
}

func (r *Reporter) Status() Status {
	return Status{
		Armed:       r.sched.Armed(),
		Count:       r.acc.Count(),
		WindowStart: r.acc.WindowStart(),
		WindowEnd:   r.acc.WindowEnd(),
		NextClose:   r.sched.Next(),
		Interval:    r.sched.Period(),
	}
}
