// Package input provides interfaces, concrete implementations, and utilities
// to ingest meter reads into metersummary
package input

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/grafana/metersummary/meter"
	"github.com/grafana/metersummary/stats"
	log "github.com/sirupsen/logrus"
)

// ErrBufferFull is returned when a valid sample could not be handed to the sink
var ErrBufferFull = errors.New("ingest buffer full")

// Sink accepts samples for accumulation without blocking
type Sink interface {
	Submit(s meter.Sample) bool
}

type Handler interface {
	ProcessRead(data []byte) error
	ProcessSample(s meter.Sample) error
}

// DefaultHandler is a base handler for meter reads, aimed to be embedded by concrete implementations
type DefaultHandler struct {
	received *stats.Counter32
	invalid  *stats.Counter32
	dropped  *stats.Counter32

	sink   Sink
	latest *Latest
}

func NewDefaultHandler(sink Sink, latest *Latest, input string) DefaultHandler {
	return DefaultHandler{
		// metric input.%s.reads.received is the count of reads received by the input
		received: stats.NewCounter32(fmt.Sprintf("input.%s.reads.received", input)),
		// metric input.%s.reads.invalid is the count of reads that could not be decoded or were incomplete
		invalid: stats.NewCounter32(fmt.Sprintf("input.%s.reads.invalid", input)),
		// metric input.%s.reads.dropped is the count of valid reads dropped because the ingest buffer was full
		dropped: stats.NewCounter32(fmt.Sprintf("input.%s.reads.dropped", input)),

		sink:   sink,
		latest: latest,
	}
}

// ProcessRead decodes and validates a json meter read, and submits its sample.
// concurrency-safe.
func (in DefaultHandler) ProcessRead(data []byte) error {
	in.received.Inc()
	read, err := meter.DecodeRead(data)
	if err != nil {
		in.invalid.Inc()
		log.Debugf("in: %s", err)
		return err
	}
	s, err := read.Sample()
	if err != nil {
		in.invalid.Inc()
		log.Debugf("in: invalid read: %s", err)
		return err
	}
	if err := in.submit(s); err != nil {
		return err
	}
	if in.latest != nil {
		in.latest.Set(read, time.Now())
	}
	return nil
}

// ProcessSample validates and submits a sample.
// concurrency-safe.
func (in DefaultHandler) ProcessSample(s meter.Sample) error {
	in.received.Inc()
	if err := s.Validate(); err != nil {
		in.invalid.Inc()
		log.Debugf("in: invalid sample %s: %s", s, err)
		return err
	}
	if err := in.submit(s); err != nil {
		return err
	}
	if in.latest != nil {
		in.latest.Set(meter.NewRead("", s), time.Now())
	}
	return nil
}

func (in DefaultHandler) submit(s meter.Sample) error {
	if !in.sink.Submit(s) {
		in.dropped.Inc()
		return ErrBufferFull
	}
	return nil
}

// Latest holds the most recent accepted read
type Latest struct {
	sync.RWMutex
	read     meter.Read
	received time.Time
}

func (l *Latest) Set(r meter.Read, received time.Time) {
	l.Lock()
	l.read = r
	l.received = received
	l.Unlock()
}

// Get returns the latest read and when it was received.
// ok is false if no read was accepted yet.
func (l *Latest) Get() (r meter.Read, received time.Time, ok bool) {
	l.RLock()
	defer l.RUnlock()
	return l.read, l.received, !l.received.IsZero()
}
