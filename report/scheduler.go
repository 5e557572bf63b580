package report

import (
	"time"
)

const (
	// MinInterval and MaxInterval bound the report interval, in seconds
	MinInterval = 15
	MaxInterval = 31 * 24 * 3600

	// DefaultInterval is the report interval in seconds when none is configured
	DefaultInterval = 3600

	// the first deadline is set slightly early so that a sample arriving at
	// exactly one period after arming already closes the window.
	armLead = 500 * time.Millisecond
)

// ValidInterval returns whether seconds is an acceptable report interval
func ValidInterval(seconds uint32) bool {
	return seconds >= MinInterval && seconds <= MaxInterval
}

// Scheduler decides when an accumulation window closes.
// It starts unarmed; the first sample arms it.
// The zero value is not usable, use NewScheduler.
type Scheduler struct {
	period uint32 // in seconds
	next   time.Time
	armed  bool
}

func NewScheduler(period uint32) *Scheduler {
	return &Scheduler{
		period: period,
	}
}

// Arm sets the first deadline relative to now
func (s *Scheduler) Arm(now time.Time) {
	s.next = now.Add(s.periodDuration() - armLead)
	s.armed = true
}

func (s *Scheduler) Armed() bool {
	return s.armed
}

// Due returns whether the current window should be closed at now
func (s *Scheduler) Due(now time.Time) bool {
	return s.armed && !now.Before(s.next)
}

// Advance moves the deadline one period ahead, for after a window was closed.
// If that deadline has already passed (e.g. we stalled for more than a period),
// the deadline is resynced to one period after now, and resynced is true.
func (s *Scheduler) Advance(now time.Time) (resynced bool) {
	s.next = s.next.Add(s.periodDuration())
	if !s.next.After(now) {
		s.next = now.Add(s.periodDuration())
		return true
	}
	return false
}

// SetPeriod changes the report interval, shifting the pending deadline by the
// difference between the new and old interval. A deadline that ends up in
// the past is clamped to now, so the window closes with the next sample.
// Returns false, without changing anything, if the interval is out of bounds.
func (s *Scheduler) SetPeriod(seconds uint32, now time.Time) bool {
	if !ValidInterval(seconds) {
		return false
	}
	if s.armed {
		s.next = s.next.Add(time.Duration(int64(seconds)-int64(s.period)) * time.Second)
		if s.next.Before(now) {
			s.next = now
		}
	}
	s.period = seconds
	return true
}

// Period returns the report interval in seconds
func (s *Scheduler) Period() uint32 {
	return s.period
}

// Next returns the deadline of the current window. Zero if unarmed.
func (s *Scheduler) Next() time.Time {
	return s.next
}

func (s *Scheduler) periodDuration() time.Duration {
	return time.Duration(s.period) * time.Second
}
