package models

import (
	"bytes"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/grafana/metersummary/mdata"
	pickle "github.com/kisielk/og-rek"
	"github.com/tinylib/msgp/msgp"
)

func testList() SummaryList {
	return SummaryList{
		{Count: 1, Start: 10, End: 10},
		{Count: 2, Start: 20, End: 21, Frequency: mdata.ChannelSummary{Avg: 50, Min: 49.9, Max: math.NaN()}},
	}
}

func TestSummaryListJSON(t *testing.T) {
	l := testList()
	got, err := l.MarshalJSONFast(nil)
	if err != nil {
		t.Fatal(err)
	}
	var exp []byte
	exp = append(exp, '[')
	exp, _ = l[0].MarshalJSONFast(exp)
	exp = append(exp, ',')
	exp, _ = l[1].MarshalJSONFast(exp)
	exp = append(exp, ']')
	if diff := cmp.Diff(string(exp), string(got)); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	empty, _ := SummaryList{}.MarshalJSONFast(nil)
	if string(empty) != "[]" {
		t.Fatalf("expected [] for an empty list, got %s", empty)
	}
}

func TestSummaryListMsgp(t *testing.T) {
	l := testList()
	buf, err := l.MarshalMsg(nil)
	if err != nil {
		t.Fatal(err)
	}
	n, rest, err := msgp.ReadArrayHeaderBytes(buf)
	if err != nil || n != 2 {
		t.Fatalf("expected an array of 2, got %d: %v", n, err)
	}
	var s mdata.Summary
	rest, err = s.UnmarshalMsg(rest)
	if err != nil || s.Start != 10 {
		t.Fatalf("expected first summary to start at 10, got %d: %v", s.Start, err)
	}
	rest, err = s.UnmarshalMsg(rest)
	if err != nil || s.Start != 20 || len(rest) != 0 {
		t.Fatalf("expected second summary to start at 20 and no trailing bytes, got %d, %d bytes left: %v", s.Start, len(rest), err)
	}
}

func TestSummaryListPickle(t *testing.T) {
	buf, err := testList().Pickle(nil)
	if err != nil {
		t.Fatal(err)
	}
	out, err := pickle.NewDecoder(bytes.NewReader(buf)).Decode()
	if err != nil {
		t.Fatal(err)
	}
	list, ok := out.([]interface{})
	if !ok || len(list) != 2 {
		t.Fatalf("expected a list of 2, got %#v", out)
	}
	second := list[1].(map[interface{}]interface{})
	if second["ts"] != int64(20) || second["n"] != int64(2) {
		t.Fatalf("unexpected second summary %#v", second)
	}
	f := second["f"].(map[interface{}]interface{})
	if f["avg"] != 50.0 || f["max"] != (pickle.None{}) {
		t.Fatalf("unexpected frequency %#v", f)
	}
}
