package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/gosuri/uilive"
	"github.com/grafana/metersummary/api/models"
	"github.com/grafana/metersummary/logger"
	log "github.com/sirupsen/logrus"
)

func init() {
	formatter := &logger.TextFormatter{}
	formatter.TimestampFormat = logger.TimestampFormat
	log.SetFormatter(formatter)
	log.SetLevel(log.InfoLevel)
}

func getStatus(ctx context.Context, client *http.Client, addr string) (models.Status, error) {
	var st models.Status
	req, err := http.NewRequestWithContext(ctx, "GET", addr+"/status", nil)
	if err != nil {
		return st, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return st, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("status %d", resp.StatusCode)
	}
	err = json.NewDecoder(resp.Body).Decode(&st)
	return st, err
}

func printStatus(out io.Writer, addr string, st models.Status, err error, now time.Time) {
	w := tabwriter.NewWriter(out, 0, 0, 1, ' ', tabwriter.AlignRight|tabwriter.Debug)
	fmt.Fprintf(w, "%s\t%s\t\n", "instance", addr)
	if err != nil {
		fmt.Fprintf(w, "%s\t%s\t\n", "error", err.Error())
		w.Flush()
		return
	}
	fmt.Fprintf(w, "%s\t%ds\t\n", "interval", st.Interval)
	if !st.Armed {
		fmt.Fprintf(w, "%s\t%s\t\n", "window", "waiting for first sample")
	} else {
		fmt.Fprintf(w, "%s\t%s\t\n", "window start", st.WindowStart.Format(time.RFC3339))
		fmt.Fprintf(w, "%s\t%d\t\n", "samples", st.Count)
		fmt.Fprintf(w, "%s\t%s\t\n", "closes in", st.NextClose.Sub(now).Truncate(time.Second))
	}
	fmt.Fprintf(w, "%s\t%d\t\n", "queued summaries", st.QueueLen)
	w.Flush()
}

func main() {
	var addr string
	var interval time.Duration
	flag.StringVar(&addr, "addr", "http://localhost:6060", "metersummary http address")
	flag.DurationVar(&interval, "interval", time.Second, "refresh interval")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n", os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "shows the live accumulation state of a metersummary instance")
		flag.PrintDefaults()
	}
	flag.Parse()
	addr = strings.TrimSuffix(addr, "/")
	if interval <= 0 {
		log.Fatal("interval must be positive")
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	client := &http.Client{Timeout: interval}
	writer := uilive.New()
	writer.Start()
	defer writer.Stop()

	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		st, err := getStatus(ctx, client, addr)
		if ctx.Err() != nil {
			return
		}
		printStatus(writer, addr, st, err, time.Now())
		writer.Flush()
		select {
		case <-tick.C:
		case <-ctx.Done():
			return
		}
	}
}
