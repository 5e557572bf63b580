package dispatch

import (
	"flag"
	"time"

	"github.com/grafana/globalconf"
	log "github.com/sirupsen/logrus"
)

var (
	// Destination is the name of the topic, table or endpoint path summaries are published to
	Destination string
	// MaxRate is the max number of deliveries per second. 0 disables limiting
	MaxRate float64
	// Timeout bounds a single delivery
	Timeout time.Duration
	// HistorySize is the number of delivered summaries kept for the api
	HistorySize int
)

func ConfigSetup() {
	dispatchCfg := flag.NewFlagSet("dispatch", flag.ExitOnError)
	dispatchCfg.StringVar(&Destination, "destination", "meter-summaries", "name of the topic, table or path summaries are published to")
	dispatchCfg.Float64Var(&MaxRate, "max-rate", 0, "max number of summaries to publish per second. 0 means unlimited")
	dispatchCfg.DurationVar(&Timeout, "timeout", 30*time.Second, "max time a single publish may take before the summary is dropped. 0 means no timeout")
	dispatchCfg.IntVar(&HistorySize, "history-size", 24, "number of delivered summaries to keep in memory for the api")
	globalconf.Register("dispatch", dispatchCfg, flag.ExitOnError)
}

func ConfigProcess() {
	if Destination == "" {
		log.Fatal("dispatch: destination must not be empty")
	}
	if MaxRate < 0 {
		log.Fatal("dispatch: max-rate must not be negative")
	}
	if HistorySize < 1 {
		log.Fatal("dispatch: history-size must be at least 1")
	}
}
