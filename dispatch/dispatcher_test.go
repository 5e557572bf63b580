package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/grafana/metersummary/mdata"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	. "github.com/smartystreets/goconvey/convey"
)

var errFake = errors.New("fake publish failure")

// mockPublisher records what it publishes and fails for the windows in fail
type mockPublisher struct {
	sync.Mutex
	fail      map[int64]bool
	published []*mdata.Summary
	dests     []string
}

func (m *mockPublisher) Publish(ctx context.Context, destination string, s *mdata.Summary) error {
	m.Lock()
	defer m.Unlock()
	if m.fail[s.Start] {
		return errFake
	}
	m.published = append(m.published, s)
	m.dests = append(m.dests, destination)
	return nil
}

func (m *mockPublisher) Type() string {
	return "mock"
}

// countingObserver signals on done after n notifications
type countingObserver struct {
	sync.Mutex
	n      int
	failed int
	done   chan struct{}
}

func (c *countingObserver) Dispatched(s *mdata.Summary, err error) {
	c.Lock()
	defer c.Unlock()
	if err != nil {
		c.failed++
	}
	c.n--
	if c.n == 0 {
		close(c.done)
	}
}

func TestDispatcher(t *testing.T) {
	Convey("Given a dispatcher with a publisher that fails one window", t, func() {
		hook := test.NewGlobal()
		defer hook.Reset()

		q := NewQueue()
		pub := &mockPublisher{fail: map[int64]bool{20: true}}
		d := NewDispatcher(q, pub, "summaries", 0, time.Second)
		obs := &countingObserver{n: 3, done: make(chan struct{})}
		d.AddObserver(obs)
		h, _ := NewHistory(10)
		d.AddObserver(h)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error)
		go func() {
			done <- d.Run(ctx)
		}()

		for _, start := range []int64{10, 20, 30} {
			q.Enqueue(summary(start))
		}

		select {
		case <-obs.done:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for the dispatcher")
		}
		cancel()
		So(<-done, ShouldBeNil)

		Convey("the good summaries are published in order and the failed one is dropped", func() {
			So(pub.published, ShouldHaveLength, 2)
			So(pub.published[0].Start, ShouldEqual, 10)
			So(pub.published[1].Start, ShouldEqual, 30)
			So(pub.dests, ShouldResemble, []string{"summaries", "summaries"})
			So(obs.failed, ShouldEqual, 1)
			So(q.Len(), ShouldEqual, 0)

			var errored bool
			for _, e := range hook.AllEntries() {
				if e.Level == logrus.ErrorLevel {
					errored = true
				}
			}
			So(errored, ShouldBeTrue)
		})
		Convey("the history only has the delivered summaries", func() {
			r := h.Recent()
			So(r, ShouldHaveLength, 2)
			So(r[0].Start, ShouldEqual, 10)
			So(r[1].Start, ShouldEqual, 30)
		})
	})
}

func TestDispatcherStops(t *testing.T) {
	q := NewQueue()
	d := NewDispatcher(q, &mockPublisher{}, "summaries", 1, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.Enqueue(summary(1))
	if err := d.Run(ctx); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if d.QueueLen() != 1 {
		t.Fatalf("expected the summary to remain queued after cancellation, got %d", d.QueueLen())
	}
}
