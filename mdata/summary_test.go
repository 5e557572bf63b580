package mdata

import (
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/grafana/metersummary/conf"
	"github.com/grafana/metersummary/meter"
)

func TestAppendFloat(t *testing.T) {
	cases := []struct {
		in  float64
		exp string
	}{
		{230, "230.0"},
		{0, "0.0"},
		{-3, "-3.0"},
		{1.1, "1.1"},
		{-0.5, "-0.5"},
		{49.95, "49.95"},
		{12345.6, "12345.6"},
		{0.0001, "0.0001"},
		{0.00001, "1e-05"},
		{1.5e-7, "1.5e-07"},
		{1e14, "100000000000000.0"},
		{1e15, "1e+15"},
		{-2.5e20, "-2.5e+20"},
		{math.NaN(), "null"},
		{math.Inf(1), "null"},
		{math.Inf(-1), "null"},
	}
	for _, c := range cases {
		got := string(appendFloat(nil, c.in))
		if got != c.exp {
			t.Errorf("appendFloat(%v): expected %q, got %q", c.in, c.exp, got)
		}
	}
}

// q renders a channel summary with all values in one bucket
func q(avg, min, max string, bucket int, count int) string {
	h := make([]string, conf.NumBuckets)
	for i := range h {
		h[i] = "0"
	}
	h[bucket] = strconv.Itoa(count)
	return `{"avg":` + avg + `,"min":` + min + `,"max":` + max + `,"h":[` + strings.Join(h, ",") + `]}`
}

func TestSummaryWireFormat(t *testing.T) {
	start := time.Unix(1600000000, 0)
	acc := NewSampleAccumulator(conf.DefaultCalibration(), start)
	s := meter.Spoof(230, 50)
	for i := 1; i <= 2; i++ {
		if err := acc.Accumulate(s, start.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("unexpected error %s", err)
		}
	}
	sum, err := acc.Summarize()
	if err != nil {
		t.Fatalf("unexpected error %s", err)
	}

	// zero lands in the first bucket for voltage and current, in the middle one for the rest
	zeroLow := q("0.0", "0.0", "0.0", 0, 2)
	zeroMid := q("0.0", "0.0", "0.0", 6, 2)
	phase := func(v string) string {
		return `{"v":` + v + `,"i":` + zeroLow + `,"p":` + zeroMid + `,"q":` + zeroMid + `,"pf":` + zeroMid + `}`
	}
	exp := `{"p":[` + phase(q("230.0", "230.0", "230.0", 6, 2)) + "," + phase(zeroLow) + "," + phase(zeroLow) + `],` +
		`"f":` + q("50.0", "50.0", "50.0", 6, 2) +
		`,"n":2,"ts":1600000000,"te":1600000002}`

	got, err := sum.MarshalJSONFast(nil)
	if err != nil {
		t.Fatalf("unexpected error %s", err)
	}
	if diff := cmp.Diff(exp, string(got)); diff != "" {
		t.Errorf("wire format mismatch (-want +got):\n%s", diff)
	}

	// appending to an existing buffer keeps the prefix
	prefixed, _ := sum.MarshalJSONFast([]byte("x"))
	if string(prefixed) != "x"+exp {
		t.Errorf("MarshalJSONFast did not append to the given buffer")
	}
}

func TestSummaryMsgp(t *testing.T) {
	in := &Summary{
		Count: 3600,
		Start: 1600000000,
		End:   1600003599,
	}
	in.Phases[0].Vrms = ChannelSummary{Avg: 230.1, Min: 228.5, Max: 233.9, Hist: Histogram{0, 0, 0, 0, 0, 100, 3500}}
	in.Phases[2].PowerFactor = ChannelSummary{Avg: -0.42, Min: -1, Max: 0.3, Hist: Histogram{11: 3600}}
	in.Frequency = ChannelSummary{Avg: 49.9, Min: 49.8, Max: 50.1, Hist: Histogram{3: 1, 4: 3599}}

	buf, err := in.MarshalMsg(nil)
	if err != nil {
		t.Fatalf("marshal: %s", err)
	}
	if len(buf) > in.Msgsize() {
		t.Fatalf("Msgsize %d underestimates encoded size %d", in.Msgsize(), len(buf))
	}
	var out Summary
	rest, err := out.UnmarshalMsg(buf)
	if err != nil {
		t.Fatalf("unmarshal: %s", err)
	}
	if len(rest) != 0 {
		t.Fatalf("%d bytes left over after unmarshal", len(rest))
	}
	if diff := cmp.Diff(*in, out); diff != "" {
		t.Errorf("msgp round trip mismatch (-want +got):\n%s\n%s", diff, spew.Sdump(out))
	}

	_, err = out.UnmarshalMsg(buf[:len(buf)/2])
	if err == nil {
		t.Fatalf("expected error for truncated message")
	}
}
