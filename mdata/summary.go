package mdata

import (
	"math"
	"strconv"
)

// ChannelSummary is the summary of one quantity over a window
type ChannelSummary struct {
	Avg  float64   `msg:"avg"`
	Min  float64   `msg:"min"`
	Max  float64   `msg:"max"`
	Hist Histogram `msg:"h"`
}

// PhaseSummary is the summary of one phase over a window
type PhaseSummary struct {
	Vrms          ChannelSummary `msg:"v"`
	Irms          ChannelSummary `msg:"i"`
	PowerActive   ChannelSummary `msg:"p"`
	PowerReactive ChannelSummary `msg:"q"`
	PowerFactor   ChannelSummary `msg:"pf"`
}

// Summary is what gets reported for a window. Start and End are unix timestamps in seconds.
type Summary struct {
	Phases    [3]PhaseSummary `msg:"p"`
	Frequency ChannelSummary  `msg:"f"`
	Count     uint32          `msg:"n"`
	Start     int64           `msg:"ts"`
	End       int64           `msg:"te"`
}

// MarshalJSONFast appends the wire representation of the summary to b:
// {"p":[P,P,P],"f":Q,"n":count,"ts":start,"te":end}
// with P = {"v":Q,"i":Q,"p":Q,"q":Q,"pf":Q} and Q = {"avg":..,"min":..,"max":..,"h":[..]}
// key order is fixed, receivers may depend on it.
func (s *Summary) MarshalJSONFast(b []byte) ([]byte, error) {
	b = append(b, `{"p":[`...)
	for i := range s.Phases {
		if i > 0 {
			b = append(b, ',')
		}
		b = s.Phases[i].appendJSON(b)
	}
	b = append(b, `],"f":`...)
	b = s.Frequency.appendJSON(b)
	b = append(b, `,"n":`...)
	b = strconv.AppendUint(b, uint64(s.Count), 10)
	b = append(b, `,"ts":`...)
	b = strconv.AppendInt(b, s.Start, 10)
	b = append(b, `,"te":`...)
	b = strconv.AppendInt(b, s.End, 10)
	b = append(b, '}')
	return b, nil
}

func (s *Summary) MarshalJSON() ([]byte, error) {
	return s.MarshalJSONFast(nil)
}

func (p *PhaseSummary) appendJSON(b []byte) []byte {
	b = append(b, `{"v":`...)
	b = p.Vrms.appendJSON(b)
	b = append(b, `,"i":`...)
	b = p.Irms.appendJSON(b)
	b = append(b, `,"p":`...)
	b = p.PowerActive.appendJSON(b)
	b = append(b, `,"q":`...)
	b = p.PowerReactive.appendJSON(b)
	b = append(b, `,"pf":`...)
	b = p.PowerFactor.appendJSON(b)
	return append(b, '}')
}

func (c *ChannelSummary) appendJSON(b []byte) []byte {
	b = append(b, `{"avg":`...)
	b = appendFloat(b, c.Avg)
	b = append(b, `,"min":`...)
	b = appendFloat(b, c.Min)
	b = append(b, `,"max":`...)
	b = appendFloat(b, c.Max)
	b = append(b, `,"h":[`...)
	for i, v := range c.Hist {
		if i > 0 {
			b = append(b, ',')
		}
		b = strconv.AppendUint(b, uint64(v), 10)
	}
	return append(b, "]}"...)
}

// appendFloat renders v as the shortest representation that round trips.
// Plain decimal notation is used for 1e-4 <= |v| < 1e15, and integral values
// get a ".0" suffix so they still read as floats. NaN and Inf become null.
func appendFloat(b []byte, v float64) []byte {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return append(b, "null"...)
	}
	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e15) {
		return strconv.AppendFloat(b, v, 'e', -1, 64)
	}
	start := len(b)
	b = strconv.AppendFloat(b, v, 'f', -1, 64)
	for _, c := range b[start:] {
		if c == '.' {
			return b
		}
	}
	return append(b, ".0"...)
}
