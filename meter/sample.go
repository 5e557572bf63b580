// Package meter holds the measurement sample taken once per reading cycle,
// and the decoding of raw meter reads into samples.
package meter

import (
	"fmt"
	"math"
)

// Phase is one phase's reading
type Phase struct {
	Vrms          float64 `json:"vrms"`
	Irms          float64 `json:"irms"`
	PowerActive   float64 `json:"activePower"`
	PowerReactive float64 `json:"reactivePower"`
	PowerFactor   float64 `json:"powerFactor"`
}

// Sample is an immutable snapshot of one reading cycle.
// Pass it by value.
type Sample struct {
	phases    [3]Phase
	frequency float64
}

// NewSample builds a Sample from 3 phases and the line frequency
func NewSample(p1, p2, p3 Phase, frequency float64) Sample {
	return Sample{
		phases:    [3]Phase{p1, p2, p3},
		frequency: frequency,
	}
}

// Phase returns phase i (0, 1 or 2)
func (s Sample) Phase(i int) Phase {
	return s.phases[i]
}

func (s Sample) Phases() [3]Phase {
	return s.phases
}

func (s Sample) Frequency() float64 {
	return s.frequency
}

// Validate reports the first non-finite value, if any.
func (s Sample) Validate() error {
	for i, p := range s.phases {
		for _, f := range []struct {
			name string
			val  float64
		}{
			{"vrms", p.Vrms},
			{"irms", p.Irms},
			{"activePower", p.PowerActive},
			{"reactivePower", p.PowerReactive},
			{"powerFactor", p.PowerFactor},
		} {
			if math.IsNaN(f.val) || math.IsInf(f.val, 0) {
				return fmt.Errorf("phase %d %s is not a finite number: %v", i+1, f.name, f.val)
			}
		}
	}
	if math.IsNaN(s.frequency) || math.IsInf(s.frequency, 0) {
		return fmt.Errorf("frequency is not a finite number: %v", s.frequency)
	}
	return nil
}

func (s Sample) String() string {
	return fmt.Sprintf("Sample{p1=%+v p2=%+v p3=%+v f=%v}", s.phases[0], s.phases[1], s.phases[2], s.frequency)
}
