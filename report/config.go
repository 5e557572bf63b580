package report

import (
	"flag"

	"github.com/grafana/globalconf"
	"github.com/grafana/metersummary/conf"
	"github.com/raintank/dur"
	log "github.com/sirupsen/logrus"
)

var (
	intervalStr     string
	calibrationFile string

	// NominalVoltage is the nominal supply voltage, 230 or 110
	NominalVoltage int
	// NominalFrequency is the nominal supply frequency, 50 or 60
	NominalFrequency int

	// Interval is the configured report interval in seconds
	Interval uint32
	// Calibration is the calibration the accumulators use
	Calibration conf.Calibration
	// DiscardFirstWindow drops the first window after arming instead of reporting it
	DiscardFirstWindow bool
	// IngestBufferSize is the number of samples the ingester buffers
	IngestBufferSize int
)

func ConfigSetup() {
	reportCfg := flag.NewFlagSet("report", flag.ExitOnError)
	reportCfg.StringVar(&intervalStr, "interval", "1h", "initial report interval. can be changed at runtime. must be between 15s and 31d")
	reportCfg.IntVar(&NominalVoltage, "nominal-voltage", 230, "nominal supply voltage: 230 or 110. selects the voltage histogram calibration")
	reportCfg.IntVar(&NominalFrequency, "nominal-frequency", 50, "nominal supply frequency: 50 or 60. selects the frequency histogram calibration")
	reportCfg.StringVar(&calibrationFile, "calibration-file", "", "optional ini file overriding histogram boundaries and decimals per channel")
	reportCfg.BoolVar(&DiscardFirstWindow, "discard-first-window", false, "don't report the first window after startup, which starts at the first sample and is 0.5s short")
	reportCfg.IntVar(&IngestBufferSize, "ingest-buffer", 1000, "number of samples to buffer between inputs and the accumulator")
	globalconf.Register("report", reportCfg, flag.ExitOnError)
}

func ConfigProcess() {
	var err error
	Interval, err = dur.ParseNDuration(intervalStr)
	if err != nil {
		log.Fatalf("report: could not parse interval %q: %s", intervalStr, err.Error())
	}
	if !ValidInterval(Interval) {
		log.Fatalf("report: interval %s out of bounds. must be between %d and %d seconds", intervalStr, MinInterval, MaxInterval)
	}
	if IngestBufferSize < 1 {
		log.Fatal("report: ingest-buffer must be at least 1")
	}
	Calibration, err = conf.NewCalibration(NominalVoltage, NominalFrequency)
	if err != nil {
		log.Fatalf("report: %s", err.Error())
	}
	if calibrationFile != "" {
		Calibration, err = conf.ReadCalibration(calibrationFile, Calibration)
		if err != nil {
			log.Fatalf("report: can't read calibration file %q: %s", calibrationFile, err.Error())
		}
		log.Infof("report: using calibration from %s", calibrationFile)
	}
}
