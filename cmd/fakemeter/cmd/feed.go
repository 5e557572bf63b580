package cmd

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grafana/metersummary/clock"
	"github.com/grafana/metersummary/meter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Publishes a meter read every period",
	Run: func(cmd *cobra.Command, args []string) {
		if periodDur <= 0 {
			log.Fatal("period must be positive")
		}
		if jitter < 0 || jitter >= 1 {
			log.Fatal("jitter must be in [0, 1)")
		}
		outs := getOutputs()
		defer closeOutputs(outs)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
		}()

		gen := newGenerator(voltage, frequency, maxCurrent, jitter, rand.New(rand.NewSource(time.Now().UnixNano())))
		feed(ctx, clock.New(), outs, gen, periodDur, count)
	},
}

var (
	periodDur  time.Duration
	count      int
	voltage    float64
	frequency  float64
	maxCurrent float64
	jitter     float64
	spoof      bool
)

func init() {
	rootCmd.AddCommand(feedCmd)
	feedCmd.Flags().DurationVar(&periodDur, "period", time.Second, "period between reads")
	feedCmd.Flags().IntVar(&count, "count", 0, "number of reads to send. 0 means until interrupted")
	feedCmd.Flags().Float64Var(&voltage, "voltage", 230, "nominal voltage")
	feedCmd.Flags().Float64Var(&frequency, "frequency", 50, "nominal frequency")
	feedCmd.Flags().Float64Var(&maxCurrent, "max-current", 20, "max current per phase")
	feedCmd.Flags().Float64Var(&jitter, "jitter", 0.02, "max relative deviation of voltage and frequency from nominal")
	feedCmd.Flags().BoolVar(&spoof, "spoof", false, "send the reads a meter simulator would: phase 1 voltage and frequency only")
}

// generator produces plausible three phase samples around the nominal values
type generator struct {
	voltage    float64
	frequency  float64
	maxCurrent float64
	jitter     float64
	rand       *rand.Rand
}

func newGenerator(voltage, frequency, maxCurrent, jitter float64, r *rand.Rand) *generator {
	return &generator{
		voltage:    voltage,
		frequency:  frequency,
		maxCurrent: maxCurrent,
		jitter:     jitter,
		rand:       r,
	}
}

func (g *generator) around(v float64) float64 {
	return v * (1 + g.jitter*(2*g.rand.Float64()-1))
}

func (g *generator) phase() meter.Phase {
	vrms := g.around(g.voltage)
	irms := g.rand.Float64() * g.maxCurrent
	pf := 0.8 + 0.2*g.rand.Float64()
	apparent := vrms * irms
	return meter.Phase{
		Vrms:          vrms,
		Irms:          irms,
		PowerActive:   apparent * pf,
		PowerReactive: -apparent * math.Sin(math.Acos(pf)),
		PowerFactor:   pf,
	}
}

func (g *generator) Sample() meter.Sample {
	if spoof {
		return meter.Spoof(g.around(g.voltage), g.around(g.frequency))
	}
	return meter.NewSample(g.phase(), g.phase(), g.phase(), g.around(g.frequency))
}

func feed(ctx context.Context, clk clock.Clock, outs []Out, gen *generator, period time.Duration, count int) {
	ticker := clock.AlignedTickLossy(clk, period)
	sent := 0
	for {
		select {
		case <-ctx.Done():
			log.Infof("sent %d reads", sent)
			return
		case ts := <-ticker:
			read := meter.NewRead(ts.Format("2006-01-02T15:04:05"), gen.Sample())
			data, err := json.Marshal(read)
			if err != nil {
				log.Fatalf("can't encode read: %s", err.Error())
			}
			for _, o := range outs {
				if err := o.Read(ctx, data); err != nil {
					log.Warnf("%s: failed to send read: %s", o.Name(), err.Error())
				}
			}
			sent++
			if count > 0 && sent >= count {
				log.Infof("sent %d reads", sent)
				return
			}
		}
	}
}
