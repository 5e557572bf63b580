package meter

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrIncompleteRead = errors.New("incomplete power quality data")

// PowerQuality is the power quality block of a meter read, as the meter service
// delivers it. Every field must be present for the read to be usable.
type PowerQuality struct {
	VoltageA       *float64 `json:"voltageA"`
	CurrentA       *float64 `json:"currentA"`
	ActivePowerA   *float64 `json:"activePowerA"`
	ReactivePowerA *float64 `json:"reactivePowerA"`
	PowerFactorA   *float64 `json:"powerFactorA"`
	VoltageB       *float64 `json:"voltageB"`
	CurrentB       *float64 `json:"currentB"`
	ActivePowerB   *float64 `json:"activePowerB"`
	ReactivePowerB *float64 `json:"reactivePowerB"`
	PowerFactorB   *float64 `json:"powerFactorB"`
	VoltageC       *float64 `json:"voltageC"`
	CurrentC       *float64 `json:"currentC"`
	ActivePowerC   *float64 `json:"activePowerC"`
	ReactivePowerC *float64 `json:"reactivePowerC"`
	PowerFactorC   *float64 `json:"powerFactorC"`
	Frequency      *float64 `json:"frequency"`
}

// Read is one meter read
type Read struct {
	ReadTimeLocal string        `json:"readTimeLocal,omitempty"`
	PowerQuality  *PowerQuality `json:"powerQuality"`
}

// DecodeRead parses a json encoded meter read
func DecodeRead(data []byte) (Read, error) {
	var r Read
	err := json.Unmarshal(data, &r)
	if err != nil {
		return r, fmt.Errorf("invalid meter read: %w", err)
	}
	return r, nil
}

// missing lists the fields that are absent
func (pq *PowerQuality) missing() []string {
	var out []string
	check := func(name string, v *float64) {
		if v == nil {
			out = append(out, name)
		}
	}
	check("voltageA", pq.VoltageA)
	check("currentA", pq.CurrentA)
	check("activePowerA", pq.ActivePowerA)
	check("reactivePowerA", pq.ReactivePowerA)
	check("powerFactorA", pq.PowerFactorA)
	check("voltageB", pq.VoltageB)
	check("currentB", pq.CurrentB)
	check("activePowerB", pq.ActivePowerB)
	check("reactivePowerB", pq.ReactivePowerB)
	check("powerFactorB", pq.PowerFactorB)
	check("voltageC", pq.VoltageC)
	check("currentC", pq.CurrentC)
	check("activePowerC", pq.ActivePowerC)
	check("reactivePowerC", pq.ReactivePowerC)
	check("powerFactorC", pq.PowerFactorC)
	check("frequency", pq.Frequency)
	return out
}

// Sample maps the read onto a Sample.
// It fails unless all 16 power quality values are present and finite.
func (r Read) Sample() (Sample, error) {
	pq := r.PowerQuality
	if pq == nil {
		return Sample{}, fmt.Errorf("%w: no powerQuality block", ErrIncompleteRead)
	}
	if m := pq.missing(); len(m) > 0 {
		return Sample{}, fmt.Errorf("%w: missing %s", ErrIncompleteRead, strings.Join(m, ","))
	}
	s := NewSample(
		Phase{*pq.VoltageA, *pq.CurrentA, *pq.ActivePowerA, *pq.ReactivePowerA, *pq.PowerFactorA},
		Phase{*pq.VoltageB, *pq.CurrentB, *pq.ActivePowerB, *pq.ReactivePowerB, *pq.PowerFactorB},
		Phase{*pq.VoltageC, *pq.CurrentC, *pq.ActivePowerC, *pq.ReactivePowerC, *pq.PowerFactorC},
		*pq.Frequency,
	)
	return s, s.Validate()
}

// NewRead builds a complete Read from a sample, e.g. for load generators.
func NewRead(readTime string, s Sample) Read {
	f := func(v float64) *float64 { return &v }
	p := s.phases
	return Read{
		ReadTimeLocal: readTime,
		PowerQuality: &PowerQuality{
			VoltageA: f(p[0].Vrms), CurrentA: f(p[0].Irms), ActivePowerA: f(p[0].PowerActive), ReactivePowerA: f(p[0].PowerReactive), PowerFactorA: f(p[0].PowerFactor),
			VoltageB: f(p[1].Vrms), CurrentB: f(p[1].Irms), ActivePowerB: f(p[1].PowerActive), ReactivePowerB: f(p[1].PowerReactive), PowerFactorB: f(p[1].PowerFactor),
			VoltageC: f(p[2].Vrms), CurrentC: f(p[2].Irms), ActivePowerC: f(p[2].PowerActive), ReactivePowerC: f(p[2].PowerReactive), PowerFactorC: f(p[2].PowerFactor),
			Frequency: f(s.frequency),
		},
	}
}

// Spoof returns the sample a meter simulator reports: phase 1 at the nominal
// voltage, the nominal frequency, everything else zero.
func Spoof(voltage, frequency float64) Sample {
	return NewSample(Phase{Vrms: voltage}, Phase{}, Phase{}, frequency)
}
