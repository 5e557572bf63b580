package meter

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const fullRead = `{"readTimeLocal":"2021-05-01T10:00:00","powerQuality":{
"voltageA":230.1,"currentA":1.5,"activePowerA":300,"reactivePowerA":-20,"powerFactorA":0.98,
"voltageB":229.9,"currentB":1.4,"activePowerB":290,"reactivePowerB":-21,"powerFactorB":0.97,
"voltageC":231,"currentC":1.6,"activePowerC":310,"reactivePowerC":-19,"powerFactorC":0.99,
"frequency":50.01}}`

func TestReadSample(t *testing.T) {
	r, err := DecodeRead([]byte(fullRead))
	if err != nil {
		t.Fatalf("unexpected decode error %s", err)
	}
	s, err := r.Sample()
	if err != nil {
		t.Fatalf("unexpected error %s", err)
	}
	exp := NewSample(
		Phase{230.1, 1.5, 300, -20, 0.98},
		Phase{229.9, 1.4, 290, -21, 0.97},
		Phase{231, 1.6, 310, -19, 0.99},
		50.01,
	)
	if diff := cmp.Diff(exp, s, cmp.AllowUnexported(Sample{})); diff != "" {
		t.Errorf("sample mismatch (-want +got):\n%s", diff)
	}

	// a read built from the sample converts back into the same sample
	back, err := NewRead("now", s).Sample()
	if err != nil {
		t.Fatalf("unexpected error %s", err)
	}
	if back != s {
		t.Errorf("expected %s, got %s", s, back)
	}
}

func TestReadSampleIncomplete(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"no power quality", `{"readTimeLocal":"x"}`},
		{"missing frequency", `{"powerQuality":{"voltageA":1,"currentA":1,"activePowerA":1,"reactivePowerA":1,"powerFactorA":1,
"voltageB":1,"currentB":1,"activePowerB":1,"reactivePowerB":1,"powerFactorB":1,
"voltageC":1,"currentC":1,"activePowerC":1,"reactivePowerC":1,"powerFactorC":1}}`},
		{"empty block", `{"powerQuality":{}}`},
	}
	for _, c := range cases {
		r, err := DecodeRead([]byte(c.in))
		if err != nil {
			t.Fatalf("case %q: unexpected decode error %s", c.name, err)
		}
		_, err = r.Sample()
		if !errors.Is(err, ErrIncompleteRead) {
			t.Errorf("case %q: expected ErrIncompleteRead, got %v", c.name, err)
		}
	}
	if _, err := DecodeRead([]byte(`{"powerQuality":`)); err == nil {
		t.Errorf("expected error for truncated json")
	}
}

func TestSampleValidate(t *testing.T) {
	if err := Spoof(230, 50).Validate(); err != nil {
		t.Fatalf("spoofed sample should be valid, got %s", err)
	}
	bad := NewSample(Phase{}, Phase{Irms: math.Inf(1)}, Phase{}, 50)
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for infinite current")
	}
	bad = NewSample(Phase{}, Phase{}, Phase{}, math.NaN())
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for NaN frequency")
	}
}
