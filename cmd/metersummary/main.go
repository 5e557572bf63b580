package main

import (
	"context"
	"flag"
	"fmt"
	l "log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/Dieterbe/profiletrigger/heap"
	"github.com/Shopify/sarama"
	"github.com/grafana/globalconf"
	"github.com/grafana/metersummary/api"
	"github.com/grafana/metersummary/clock"
	"github.com/grafana/metersummary/dispatch"
	"github.com/grafana/metersummary/input"
	"github.com/grafana/metersummary/input/kafkain"
	"github.com/grafana/metersummary/input/metersim"
	"github.com/grafana/metersummary/logger"
	"github.com/grafana/metersummary/publish"
	"github.com/grafana/metersummary/publish/collector"
	pubKafka "github.com/grafana/metersummary/publish/kafka"
	"github.com/grafana/metersummary/publish/postgres"
	"github.com/grafana/metersummary/report"
	"github.com/grafana/metersummary/stats"
	statsConfig "github.com/grafana/metersummary/stats/config"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/raintank/dur"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	version = "(none)"

	instance    = flag.String("instance", "default", "instance identifier. used as kafka message key and in emitted metrics")
	showVersion = flag.Bool("version", false, "print version string")
	confFile    = flag.String("config", "/etc/metersummary/metersummary.ini", "configuration file path")

	// Profiling, instrumentation and logging:
	logLevel = flag.String("log-level", "info", "log level. panic|fatal|error|warning|info|debug")

	blockProfileRate = flag.Int("block-profile-rate", 0, "see https://golang.org/pkg/runtime/#SetBlockProfileRate")
	memProfileRate   = flag.Int("mem-profile-rate", 512*1024, "0 to disable. 1 for max precision (expensive!) see https://golang.org/pkg/runtime/#pkg-variables")

	proftrigPath       = flag.String("proftrigger-path", "/tmp", "path to store triggered profiles")
	proftrigFreqStr    = flag.String("proftrigger-freq", "60s", "inspect status frequency. set to 0 to disable")
	proftrigMinDiffStr = flag.String("proftrigger-min-diff", "1h", "minimum time between triggered profiles")
	proftrigHeapThresh = flag.Int("proftrigger-heap-thresh", 2000000000, "if this many bytes allocated, trigger a profile")
)

func main() {
	flag.Parse()

	// if the user just wants the version, give it and exit
	if *showVersion {
		fmt.Printf("metersummary (version: %s - runtime: %s)\n", version, runtime.Version())
		return
	}

	cfgPath, err := homedir.Expand(*confFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: invalid config path %q: %s", *confFile, err)
		os.Exit(1)
	}

	// Only try and parse the conf file if it exists
	path := ""
	if _, err := os.Stat(cfgPath); err == nil {
		path = cfgPath
	}
	config, err := globalconf.NewWithOptions(&globalconf.Options{
		Filename:  path,
		EnvPrefix: "MS_",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: configuration file error: %s", err)
		os.Exit(1)
	}

	statsConfig.ConfigSetup()
	report.ConfigSetup()
	dispatch.ConfigSetup()

	// inputs
	metersim.ConfigSetup()
	kafkain.ConfigSetup()

	// publishers
	pubKafka.ConfigSetup()
	collector.ConfigSetup()
	postgres.ConfigSetup()

	api.ConfigSetup()

	config.ParseAll()

	/***********************************
		Set up Logger
	***********************************/
	if err := logger.Setup(*logLevel, ""); err != nil {
		log.Fatal(err.Error())
	}
	log.Infof("logging level set to '%s'", *logLevel)

	if *instance == "" {
		log.Fatal("instance can't be empty")
	}

	/***********************************
		Validate settings
	***********************************/
	statsConfig.ConfigProcess(*instance)
	report.ConfigProcess()
	dispatch.ConfigProcess()
	metersim.ConfigProcess()
	kafkain.ConfigProcess(*instance)
	pubKafka.ConfigProcess(*instance)
	collector.ConfigProcess()
	postgres.ConfigProcess()
	api.ConfigProcess()

	if !metersim.Enabled && !kafkain.Enabled {
		log.Info("no input plugin enabled. reads can only be pushed over http")
	}

	proftrigFreq := dur.MustParseDuration("proftrigger-freq", *proftrigFreqStr)
	proftrigMinDiff := int(dur.MustParseNDuration("proftrigger-min-diff", *proftrigMinDiffStr))
	if proftrigFreq > 0 {
		errors := make(chan error)
		trigger, err := heap.New(heap.Config{
			Path:        *proftrigPath,
			ThreshHeap:  *proftrigHeapThresh,
			MinTimeDiff: time.Duration(proftrigMinDiff) * time.Second,
			CheckEvery:  time.Duration(proftrigFreq) * time.Second,
		}, errors)
		if err != nil {
			log.Fatalf("failed to setup profiletrigger heap: %s", err)
		}
		go func() {
			for e := range errors {
				log.Errorf("profiletrigger heap: %s", e)
			}
		}()
		go trigger.Run()
	}

	/***********************************
		configure Profiling
	***********************************/
	runtime.SetBlockProfileRate(*blockProfileRate)
	runtime.MemProfileRate = *memProfileRate

	/************************************
	    handle interrupt signals
	************************************/
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Infof("metersummary starting. version: %s - runtime: %s", version, runtime.Version())
	// metric version.%s is the version of metersummary running.  The metric value is always 1
	msVersion := stats.NewBool(fmt.Sprintf("version.%s", strings.Replace(version, ".", "_", -1)))
	msVersion.Set(true)

	statsConfig.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	/***********************************
		Initialize the accumulation pipeline
	***********************************/
	clk := clock.New()
	queue := dispatch.NewQueue()
	reporter := report.NewReporter(report.Calibration, report.Interval, queue, report.DiscardFirstWindow, clk.Now())
	ingester := report.NewIngester(reporter, clk, report.IngestBufferSize)

	/***********************************
		Initialize our publishers
	***********************************/
	var publishers publish.Multi
	var closers []func() error
	if pubKafka.Enabled {
		sarama.Logger = l.New(os.Stdout, "[Sarama] ", l.LstdFlags)
		p := pubKafka.New(*instance)
		p.Start(ctx)
		publishers = append(publishers, publish.Instrumented(p))
		closers = append(closers, p.Close)
	}
	if collector.Enabled {
		p, err := collector.New()
		if err != nil {
			log.Fatalf("failed to initialize collector publisher: %s", err.Error())
		}
		publishers = append(publishers, publish.Instrumented(p))
	}
	if postgres.Enabled {
		p, err := postgres.New(ctx)
		if err != nil {
			log.Fatalf("failed to initialize postgres publisher: %s", err.Error())
		}
		publishers = append(publishers, publish.Instrumented(p))
		closers = append(closers, p.Close)
	}

	var publisher publish.Publisher
	switch len(publishers) {
	case 0:
		log.Warn("no publisher enabled. summaries will be discarded")
		publisher = publish.Instrumented(nil)
	case 1:
		publisher = publishers[0]
	default:
		publisher = publishers
	}

	dispatcher := dispatch.NewDispatcher(queue, publisher, dispatch.Destination, dispatch.MaxRate, dispatch.Timeout)
	history, err := dispatch.NewHistory(dispatch.HistorySize)
	if err != nil {
		log.Fatalf("failed to initialize summary history: %s", err.Error())
	}
	dispatcher.AddObserver(history)

	/***********************************
		Initialize our API server
	***********************************/
	apiServer, err := api.NewServer()
	if err != nil {
		log.Fatalf("Failed to start API. %s", err.Error())
	}
	latest := &input.Latest{}
	apiServer.BindIngester(ingester)
	apiServer.BindReads(input.NewDefaultHandler(ingester, latest, "http"), latest)
	apiServer.BindHistory(history)
	apiServer.BindQueue(dispatcher)
	dispatcher.AddObserver(apiServer.Stream)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ingester.Run(gctx) })
	g.Go(func() error { return dispatcher.Run(gctx) })
	g.Go(func() error { return apiServer.Run(gctx) })

	/***********************************
		Start our inputs
	***********************************/
	// note. all these New functions must either return a valid instance or call log.Fatal
	var plugins, inputs []input.Plugin
	if metersim.Enabled {
		plugins = append(plugins, metersim.New(clk, float64(report.NominalVoltage), float64(report.NominalFrequency)))
	}
	if kafkain.Enabled {
		sarama.Logger = l.New(os.Stdout, "[Sarama] ", l.LstdFlags)
		plugins = append(plugins, kafkain.New(ingester))
	}
	for _, plugin := range plugins {
		err = plugin.Start(input.NewDefaultHandler(ingester, latest, plugin.Name()), cancel)
		if err != nil {
			log.Errorf("failed to start input plugin %s: %s", plugin.Name(), err.Error())
			cancel()
			break
		}
		inputs = append(inputs, plugin)
	}

	/***********************************
		Wait for Shutdown
	***********************************/
	select {
	case sig := <-sigChan:
		log.Infof("Received signal %q. Shutting down", sig)
	case <-gctx.Done():
		log.Info("A component signalled a fatal error. Shutting down")
	}

	for _, plugin := range inputs {
		log.Infof("Shutting down %s consumer", plugin.Name())
		plugin.Stop()
	}
	cancel()
	if err := g.Wait(); err != nil {
		log.Errorf("shutdown: %s", err.Error())
	}
	for _, c := range closers {
		if err := c(); err != nil {
			log.Warnf("shutdown: %s", err.Error())
		}
	}
	log.Info("terminating.")
}
