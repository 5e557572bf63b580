// Package collector publishes summaries to an HTTP endpoint.
package collector

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang/snappy"
	"github.com/grafana/globalconf"
	"github.com/grafana/metersummary/mdata"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

var (
	sendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "collector_out",
		Name:      "send_duration_seconds",
		Help:      "Time spent sending a summary to the collector.",
		Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"status_code"})

	Enabled   bool
	addr      string
	timeout   time.Duration
	useSnappy bool
)

func ConfigSetup() {
	fs := flag.NewFlagSet("collector-out", flag.ExitOnError)
	fs.BoolVar(&Enabled, "enabled", false, "publish summaries to an http collector")
	fs.StringVar(&addr, "url", "http://localhost:8080/", "base url of the collector. the destination is appended as path")
	fs.DurationVar(&timeout, "timeout", 10*time.Second, "http request timeout")
	fs.BoolVar(&useSnappy, "snappy", false, "snappy-compress the request body")
	globalconf.Register("collector-out", fs, flag.ExitOnError)
}

func ConfigProcess() {
	if !Enabled {
		return
	}
	if _, err := url.Parse(addr); err != nil {
		log.Fatalf("collector-out: unable to parse url %q: %s", addr, err)
	}
}

// Client posts each summary as JSON to <url>/<destination>
type Client struct {
	url    string
	snappy bool
	client *http.Client
}

// New creates a client configured from the collector-out flags
func New() (*Client, error) {
	return NewClient(addr, useSnappy, timeout)
}

func NewClient(baseURL string, useSnappy bool, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse url: %q", baseURL)
	}
	return &Client{
		url:    strings.TrimSuffix(u.String(), "/"),
		snappy: useSnappy,
		client: &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) Publish(ctx context.Context, destination string, s *mdata.Summary) error {
	pre := time.Now()
	statusCode, err := c.push(ctx, destination, s)
	sendDuration.WithLabelValues(strconv.Itoa(statusCode)).Observe(time.Since(pre).Seconds())
	return err
}

func (c *Client) push(ctx context.Context, destination string, s *mdata.Summary) (int, error) {
	data, err := s.MarshalJSONFast(nil)
	if err != nil {
		return 0, err
	}

	body := new(bytes.Buffer)
	contentType := "application/json"
	if c.snappy {
		sw := snappy.NewBufferedWriter(body)
		sw.Write(data)
		sw.Close()
		contentType = "application/json+snappy"
	} else {
		body.Write(data)
	}

	req, err := http.NewRequest("POST", c.url+"/"+strings.TrimPrefix(destination, "/"), body)
	if err != nil {
		return 0, err
	}
	req = req.WithContext(ctx)
	req.Header.Add("Content-Type", contentType)
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("collector-out: failed to submit summary: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(ioutil.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	buf := make([]byte, 300)
	n, _ := resp.Body.Read(buf)
	io.Copy(ioutil.Discard, resp.Body)
	return resp.StatusCode, fmt.Errorf("collector-out: http %d - %s", resp.StatusCode, buf[:n])
}

func (*Client) Type() string {
	return "collector"
}
