package models

import (
	"bytes"
	"math"

	"github.com/grafana/metersummary/mdata"
	pickle "github.com/kisielk/og-rek"
	"github.com/tinylib/msgp/msgp"
)

// SummaryList is a list of summaries, oldest window first
type SummaryList []*mdata.Summary

func (l SummaryList) MarshalJSONFast(b []byte) ([]byte, error) {
	b = append(b, '[')
	var err error
	for i, s := range l {
		if i > 0 {
			b = append(b, ',')
		}
		b, err = s.MarshalJSONFast(b)
		if err != nil {
			return b, err
		}
	}
	b = append(b, ']')
	return b, nil
}

func (l SummaryList) MarshalJSON() ([]byte, error) {
	return l.MarshalJSONFast(nil)
}

func (l SummaryList) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.AppendArrayHeader(b, uint32(len(l)))
	var err error
	for _, s := range l {
		o, err = s.MarshalMsg(o)
		if err != nil {
			return o, err
		}
	}
	return o, nil
}

func pickleFloat(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return pickle.None{}
	}
	return v
}

func pickleChannel(c mdata.ChannelSummary) map[interface{}]interface{} {
	hist := make([]interface{}, len(c.Hist))
	for i, v := range c.Hist {
		hist[i] = int64(v)
	}
	return map[interface{}]interface{}{
		"avg": pickleFloat(c.Avg),
		"min": pickleFloat(c.Min),
		"max": pickleFloat(c.Max),
		"h":   hist,
	}
}

// Pickle encodes the summaries as a list of dicts with the same keys as the json encoding
func (l SummaryList) Pickle(buf []byte) ([]byte, error) {
	data := make([]interface{}, len(l))
	for i, s := range l {
		phases := make([]interface{}, len(s.Phases))
		for j, p := range s.Phases {
			phases[j] = map[interface{}]interface{}{
				"v":  pickleChannel(p.Vrms),
				"i":  pickleChannel(p.Irms),
				"p":  pickleChannel(p.PowerActive),
				"q":  pickleChannel(p.PowerReactive),
				"pf": pickleChannel(p.PowerFactor),
			}
		}
		data[i] = map[interface{}]interface{}{
			"p":  phases,
			"f":  pickleChannel(s.Frequency),
			"n":  int64(s.Count),
			"ts": s.Start,
			"te": s.End,
		}
	}
	buffer := bytes.NewBuffer(buf)
	encoder := pickle.NewEncoder(buffer)
	err := encoder.Encode(data)
	return buffer.Bytes(), err
}
