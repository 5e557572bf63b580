package mdata

import (
	"fmt"
	"time"

	"github.com/grafana/metersummary/conf"
	"github.com/grafana/metersummary/meter"
)

// PhaseAccumulator holds the 5 channels of one phase.
// all of them see exactly the same number of values.
type PhaseAccumulator struct {
	vrms          Channel
	irms          Channel
	powerActive   Channel
	powerReactive Channel
	powerFactor   Channel
}

func NewPhaseAccumulator(cal conf.Calibration) PhaseAccumulator {
	return PhaseAccumulator{
		vrms:          NewChannel(cal.Voltage),
		irms:          NewChannel(cal.Current),
		powerActive:   NewChannel(cal.ActivePower),
		powerReactive: NewChannel(cal.ReactivePower),
		powerFactor:   NewChannel(cal.PowerFactor),
	}
}

// phaseSlots are the resolved buckets of one phase reading
type phaseSlots [5]int

func (p *PhaseAccumulator) channels() [5]*Channel {
	return [5]*Channel{&p.vrms, &p.irms, &p.powerActive, &p.powerReactive, &p.powerFactor}
}

func phaseValues(ph meter.Phase) [5]float64 {
	return [5]float64{ph.Vrms, ph.Irms, ph.PowerActive, ph.PowerReactive, ph.PowerFactor}
}

func (p *PhaseAccumulator) lookup(ph meter.Phase) (phaseSlots, error) {
	var slots phaseSlots
	vals := phaseValues(ph)
	for i, c := range p.channels() {
		idx, err := c.lookup(vals[i])
		if err != nil {
			return slots, err
		}
		slots[i] = idx
	}
	return slots, nil
}

func (p *PhaseAccumulator) commit(slots phaseSlots, ph meter.Phase) {
	vals := phaseValues(ph)
	for i, c := range p.channels() {
		c.commit(slots[i], vals[i])
	}
}

// Accumulate adds the phase reading. Either all 5 channels take their value or none does.
func (p *PhaseAccumulator) Accumulate(ph meter.Phase) error {
	slots, err := p.lookup(ph)
	if err != nil {
		return err
	}
	p.commit(slots, ph)
	return nil
}

func (p *PhaseAccumulator) Summarize(count uint32) (PhaseSummary, error) {
	var ps PhaseSummary
	var firstErr error
	for i, out := range []*ChannelSummary{&ps.Vrms, &ps.Irms, &ps.PowerActive, &ps.PowerReactive, &ps.PowerFactor} {
		cs, err := p.channels()[i].Summarize(count)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		*out = cs
	}
	return ps, firstErr
}

func (p *PhaseAccumulator) Reset() {
	for _, c := range p.channels() {
		c.Reset()
	}
}

// SampleAccumulator is the state of one accumulation window:
// 3 phases, the line frequency, the number of samples and the window timestamps.
// It is not safe for concurrent use; a single goroutine should own it.
type SampleAccumulator struct {
	phases      [3]PhaseAccumulator
	frequency   Channel
	count       uint32
	windowStart time.Time
	windowEnd   time.Time
}

// NewSampleAccumulator creates an accumulator for the given calibration, with
// its window starting at now.
func NewSampleAccumulator(cal conf.Calibration, now time.Time) *SampleAccumulator {
	s := &SampleAccumulator{
		frequency: NewChannel(cal.Frequency),
	}
	for i := range s.phases {
		s.phases[i] = NewPhaseAccumulator(cal)
	}
	s.Reset(now)
	return s
}

// Accumulate adds the sample to the window.
// All 16 bucket lookups are resolved before anything is committed, so a
// rejected sample leaves every channel untouched and is not counted.
// On success the window end moves to now.
func (s *SampleAccumulator) Accumulate(sample meter.Sample, now time.Time) error {
	var slots [3]phaseSlots
	for i := range s.phases {
		var err error
		slots[i], err = s.phases[i].lookup(sample.Phase(i))
		if err != nil {
			return fmt.Errorf("phase %d: %w", i+1, err)
		}
	}
	freqSlot, err := s.frequency.lookup(sample.Frequency())
	if err != nil {
		return err
	}

	for i := range s.phases {
		s.phases[i].commit(slots[i], sample.Phase(i))
	}
	s.frequency.commit(freqSlot, sample.Frequency())
	s.count++
	s.windowEnd = now
	return nil
}

// Summarize returns the summary of the window so far.
// Count and timestamps are always set. If any channel fails to summarize,
// the first error is returned alongside the partial summary.
func (s *SampleAccumulator) Summarize() (*Summary, error) {
	sum := &Summary{
		Count: s.count,
		Start: s.windowStart.Unix(),
		End:   s.windowEnd.Unix(),
	}
	var firstErr error
	for i := range s.phases {
		ps, err := s.phases[i].Summarize(s.count)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("phase %d: %w", i+1, err)
		}
		sum.Phases[i] = ps
	}
	fs, err := s.frequency.Summarize(s.count)
	if err != nil && firstErr == nil {
		firstErr = err
	}
	sum.Frequency = fs
	return sum, firstErr
}

// Reset clears all state and starts a new window at now
func (s *SampleAccumulator) Reset(now time.Time) {
	for i := range s.phases {
		s.phases[i].Reset()
	}
	s.frequency.Reset()
	s.count = 0
	s.windowStart = now
	s.windowEnd = now
}

func (s *SampleAccumulator) Count() uint32 {
	return s.count
}

func (s *SampleAccumulator) WindowStart() time.Time {
	return s.windowStart
}

func (s *SampleAccumulator) WindowEnd() time.Time {
	return s.windowEnd
}
