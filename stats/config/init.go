package config

import (
	"flag"
	"strings"
	"time"

	"github.com/grafana/globalconf"
	"github.com/grafana/metersummary/stats"
	log "github.com/sirupsen/logrus"
)

var enabled bool
var prefix string
var addr string
var interval int
var bufferSize int
var timeout time.Duration

func ConfigSetup() {
	inStats := flag.NewFlagSet("stats", flag.ExitOnError)
	inStats.BoolVar(&enabled, "enabled", true, "enable sending graphite messages for instrumentation")
	inStats.StringVar(&prefix, "prefix", "metersummary.stats.$instance", "stats prefix (will add trailing dot automatically if needed)")
	inStats.StringVar(&addr, "addr", "localhost:2003", "graphite address")
	inStats.IntVar(&interval, "interval", 10, "interval in seconds at which to send statistics")
	inStats.IntVar(&bufferSize, "buffer-size", 2000, "how many messages (holding all measurements from one interval) to buffer up in case graphite endpoint is unavailable.")
	inStats.DurationVar(&timeout, "timeout", time.Second*10, "timeout after which a write is considered not successful")
	globalconf.Register("stats", inStats, flag.ExitOnError)
}

func ConfigProcess(instance string) {
	if !enabled {
		return
	}
	if interval <= 0 {
		log.Fatalf("stats: interval must be > 0, got %d", interval)
	}
	prefix = strings.Replace(prefix, "$instance", instance, -1)
}

func Start() {
	if enabled {
		stats.NewMemoryReporter()
		if _, err := stats.NewProcessReporter(); err != nil {
			log.Warnf("stats: can't report process stats: %s", err.Error())
		}
		stats.NewGraphite(prefix, addr, interval, bufferSize, timeout)
	} else {
		stats.NewDevnull()
		log.Warn("stats: running metersummary without instrumentation.")
	}
}
