package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/grafana/metersummary/mdata"
	"github.com/grafana/metersummary/publish"
	"github.com/grafana/metersummary/stats"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	// metric dispatch.published is how many summaries were delivered
	summariesPublished = stats.NewCounterRate32("dispatch.published")
	// metric dispatch.failed is how many summaries failed to be delivered and were dropped
	summariesFailed = stats.NewCounter32("dispatch.failed")
	// metric dispatch.queue.items is the range of the number of summaries waiting for delivery
	queueItems = stats.NewRange32("dispatch.queue.items")
	// metric dispatch.publish is the duration of the publish call
	publishDuration = stats.NewLatencyHistogram15s32("dispatch.publish")
)

// Observer gets notified of every summary the dispatcher handled.
// err is the delivery error, if any. Observers must not block.
type Observer interface {
	Dispatched(s *mdata.Summary, err error)
}

// Dispatcher delivers queued summaries via a publisher, one at a time.
// Failed deliveries are logged and dropped.
type Dispatcher struct {
	queue       *Queue
	publisher   publish.Publisher
	destination string
	timeout     time.Duration
	limiter     *rate.Limiter

	sync.Mutex
	observers []Observer
}

// NewDispatcher creates a dispatcher. maxRate limits the number of deliveries
// per second; 0 means unlimited. timeout bounds a single delivery; 0 means none.
func NewDispatcher(q *Queue, p publish.Publisher, destination string, maxRate float64, timeout time.Duration) *Dispatcher {
	limit := rate.Inf
	if maxRate > 0 {
		limit = rate.Limit(maxRate)
	}
	return &Dispatcher{
		queue:       q,
		publisher:   p,
		destination: destination,
		timeout:     timeout,
		limiter:     rate.NewLimiter(limit, 1),
	}
}

func (d *Dispatcher) AddObserver(o Observer) {
	d.Lock()
	d.observers = append(d.observers, o)
	d.Unlock()
}

func (d *Dispatcher) notify(s *mdata.Summary, err error) {
	d.Lock()
	obs := d.observers
	d.Unlock()
	for _, o := range obs {
		o.Dispatched(s, err)
	}
}

// Run delivers summaries until ctx is canceled.
// Summaries still queued at that point are not delivered.
func (d *Dispatcher) Run(ctx context.Context) error {
	log.Infof("dispatch: dispatching to %q via %s publisher", d.destination, d.publisher.Type())
	for {
		for {
			if ctx.Err() != nil {
				break
			}
			s, ok := d.queue.Dequeue()
			if !ok {
				break
			}
			queueItems.Value(d.queue.Len())
			if err := d.limiter.Wait(ctx); err != nil {
				// only fails when ctx is done
				break
			}
			d.deliver(ctx, s)
		}

		select {
		case <-ctx.Done():
			if n := d.queue.Len(); n > 0 {
				log.Warnf("dispatch: stopping with %d undelivered summaries", n)
			}
			return nil
		case <-d.queue.Signal():
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, s *mdata.Summary) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	pre := time.Now()
	err := d.publisher.Publish(ctx, d.destination, s)
	publishDuration.Value(time.Since(pre))
	if err != nil {
		summariesFailed.Inc()
		log.Errorf("dispatch: failed to deliver summary for window %d - %d (%d samples), dropping it: %s", s.Start, s.End, s.Count, err.Error())
	} else {
		summariesPublished.Inc()
		log.Infof("dispatch: delivered summary for window %d - %d (%d samples)", s.Start, s.End, s.Count)
	}
	d.notify(s, err)
}

// QueueLen returns the number of summaries waiting for delivery
func (d *Dispatcher) QueueLen() int {
	return d.queue.Len()
}
