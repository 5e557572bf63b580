package stats

import (
	"testing"
	"time"
)

func TestRegistryGetOrAdd(t *testing.T) {
	r := NewRegistry()
	a := r.getOrAdd("foo", &Counter32{}).(*Counter32)
	b := r.getOrAdd("foo", &Counter32{}).(*Counter32)
	if a != b {
		t.Fatalf("expected the same counter to be returned for the same name")
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic when registering foo as a different type")
		}
	}()
	r.getOrAdd("foo", &Gauge32{})
}

func TestRange32(t *testing.T) {
	now := time.Unix(100, 0)
	r := &Range32{min: 1<<32 - 1}
	if got := string(r.ReportGraphite([]byte("q."), nil, now)); got != "" {
		t.Fatalf("expected nothing to be reported without values, got %q", got)
	}
	r.Value(5)
	r.Value(2)
	r.Value(9)
	exp := "q.min.gauge32 2 100\nq.max.gauge32 9 100\n"
	if got := string(r.ReportGraphite([]byte("q."), nil, now)); got != exp {
		t.Fatalf("expected %q, got %q", exp, got)
	}
	// reset after reporting
	if got := string(r.ReportGraphite([]byte("q."), nil, now)); got != "" {
		t.Fatalf("expected range to be reset after reporting, got %q", got)
	}
}

func TestCounter32(t *testing.T) {
	c := &Counter32{}
	c.Inc()
	c.Add(4)
	if got := string(c.ReportGraphite([]byte("c."), nil, time.Unix(7, 0))); got != "c.counter32 5 7\n" {
		t.Fatalf("unexpected report %q", got)
	}
}
