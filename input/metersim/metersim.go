// Package metersim is an input that produces spoofed meter samples on an
// aligned ticker, for running without a physical meter.
package metersim

import (
	"context"
	"flag"
	"math/rand"
	"time"

	"github.com/grafana/globalconf"
	"github.com/grafana/metersummary/clock"
	"github.com/grafana/metersummary/input"
	"github.com/grafana/metersummary/meter"
	log "github.com/sirupsen/logrus"
)

var (
	Enabled  bool
	interval time.Duration
	jitter   float64
)

func ConfigSetup() {
	fs := flag.NewFlagSet("metersim", flag.ExitOnError)
	fs.BoolVar(&Enabled, "enabled", false, "produce spoofed meter samples")
	fs.DurationVar(&interval, "interval", time.Second, "sample period")
	fs.Float64Var(&jitter, "jitter", 0, "max relative deviation applied to the spoofed voltage and frequency, e.g. 0.01 for 1%")
	globalconf.Register("metersim", fs, flag.ExitOnError)
}

func ConfigProcess() {
	if !Enabled {
		return
	}
	if interval <= 0 {
		log.Fatal("metersim: interval must be positive")
	}
	if jitter < 0 || jitter >= 1 {
		log.Fatal("metersim: jitter must be in [0, 1)")
	}
}

// MeterSim spoofs phase 1 at the nominal voltage and the nominal frequency
type MeterSim struct {
	input.Handler
	clock     clock.Clock
	interval  time.Duration
	voltage   float64
	frequency float64
	jitter    float64
	rand      *rand.Rand

	shutdown chan struct{}
	done     chan struct{}
}

func (m *MeterSim) Name() string {
	return "metersim"
}

// New creates a simulator configured from the metersim flags
func New(clk clock.Clock, voltage, frequency float64) *MeterSim {
	return NewMeterSim(clk, interval, voltage, frequency, jitter)
}

func NewMeterSim(clk clock.Clock, interval time.Duration, voltage, frequency, jitter float64) *MeterSim {
	return &MeterSim{
		clock:     clk,
		interval:  interval,
		voltage:   voltage,
		frequency: frequency,
		jitter:    jitter,
		rand:      rand.New(rand.NewSource(clk.Now().UnixNano())),
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (m *MeterSim) Start(handler input.Handler, cancel context.CancelFunc) error {
	m.Handler = handler
	log.Infof("metersim: spoofing %gV %gHz every %s", m.voltage, m.frequency, m.interval)
	ticker := clock.AlignedTickLossy(m.clock, m.interval)
	go func() {
		defer close(m.done)
		for {
			select {
			case <-m.shutdown:
				return
			case <-ticker:
				if err := m.ProcessSample(m.sample()); err != nil {
					log.Warnf("metersim: sample not accepted: %s", err)
				}
			}
		}
	}()
	return nil
}

func (m *MeterSim) sample() meter.Sample {
	return meter.Spoof(m.jittered(m.voltage), m.jittered(m.frequency))
}

func (m *MeterSim) jittered(v float64) float64 {
	if m.jitter == 0 {
		return v
	}
	return v * (1 + m.jitter*(2*m.rand.Float64()-1))
}

func (m *MeterSim) Stop() {
	close(m.shutdown)
	<-m.done
}
