// Package dispatch decouples the production of summaries from their delivery.
// The reporter enqueues closed windows without ever blocking, and a single
// Dispatcher goroutine drains the queue into a publisher.
package dispatch

import (
	"sync"

	"github.com/eapache/queue"
	"github.com/grafana/metersummary/mdata"
)

// Queue is an unbounded FIFO of summaries, safe for one producer and one consumer.
type Queue struct {
	sync.Mutex
	items  *queue.Queue
	signal chan struct{}
}

func NewQueue() *Queue {
	return &Queue{
		items:  queue.New(),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds s to the back of the queue. It never blocks.
func (q *Queue) Enqueue(s *mdata.Summary) {
	q.Lock()
	q.items.Add(s)
	q.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Dequeue removes and returns the summary at the front of the queue.
// ok is false if the queue is empty.
func (q *Queue) Dequeue() (s *mdata.Summary, ok bool) {
	q.Lock()
	defer q.Unlock()
	if q.items.Length() == 0 {
		return nil, false
	}
	return q.items.Remove().(*mdata.Summary), true
}

func (q *Queue) Len() int {
	q.Lock()
	defer q.Unlock()
	return q.items.Length()
}

// Signal returns a channel that receives after an Enqueue.
// Multiple enqueues may be coalesced into a single signal, so after
// receiving, consumers should Dequeue until the queue is empty.
func (q *Queue) Signal() <-chan struct{} {
	return q.signal
}
