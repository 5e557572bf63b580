package kafka

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParsePartitions(t *testing.T) {
	avail := []int32{0, 1, 2, 3}
	cases := []struct {
		in      string
		exp     []int32
		wantErr bool
	}{
		{"*", avail, false},
		{"1", []int32{1}, false},
		{"0, 3", []int32{0, 3}, false},
		{"4", nil, true},
		{"a", nil, true},
	}
	for _, c := range cases {
		got, err := ParsePartitions(c.in, avail)
		if (err != nil) != c.wantErr {
			t.Errorf("%q: expected error %t, got %v", c.in, c.wantErr, err)
			continue
		}
		if diff := cmp.Diff(c.exp, got); diff != "" {
			t.Errorf("%q: mismatch (-want +got):\n%s", c.in, diff)
		}
	}
}

func TestParseBrokers(t *testing.T) {
	cases := []struct {
		in      string
		exp     []string
		wantErr bool
	}{
		{"kafka:9092", []string{"kafka:9092"}, false},
		{"a:1,b", []string{"a:1", "b"}, false},
		{"", nil, true},
		{"a:", nil, true},
		{"a:b", nil, true},
		{"a:1:2", nil, true},
	}
	for _, c := range cases {
		got, err := ParseBrokers(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("%q: expected error %t, got %v", c.in, c.wantErr, err)
			continue
		}
		if diff := cmp.Diff(c.exp, got); diff != "" {
			t.Errorf("%q: mismatch (-want +got):\n%s", c.in, diff)
		}
	}
}

func TestPartitionFor(t *testing.T) {
	if p := PartitionFor([]byte("meter-summaries"), 1); p != 0 {
		t.Fatalf("single partition should always be 0, got %d", p)
	}
	seen := make(map[int32]bool)
	for _, key := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		p := PartitionFor([]byte(key), 8)
		if p < 0 || p >= 8 {
			t.Fatalf("partition %d out of range for key %q", p, key)
		}
		if p != PartitionFor([]byte(key), 8) {
			t.Fatalf("partitioning of %q is not stable", key)
		}
		seen[p] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected keys to spread over partitions, got %v", seen)
	}
}
