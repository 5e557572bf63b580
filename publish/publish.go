// Package publish delivers summaries to their destination.
package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/grafana/metersummary/mdata"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

var (
	publishedSummaries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "metersummary",
		Name:      "summaries_published_total",
		Help:      "Number of summaries published",
	}, []string{"publisher", "destination"})
	failedSummaries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "metersummary",
		Name:      "summaries_publish_failures_total",
		Help:      "Number of summaries that failed to publish",
	}, []string{"publisher", "destination"})
	publishedSamples = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "metersummary",
		Name:      "summarized_samples_published_total",
		Help:      "Number of meter samples covered by published summaries",
	}, []string{"publisher"})
)

// Publisher delivers a summary to a destination.
// Publish must be safe to call again after a failure.
type Publisher interface {
	Publish(ctx context.Context, destination string, s *mdata.Summary) error
	Type() string
}

// Instrumented wraps a publisher with prometheus accounting
func Instrumented(p Publisher) Publisher {
	if p == nil {
		p = &nullPublisher{}
	}
	log.Infof("using %s publisher", p.Type())
	return &instrumented{p}
}

type instrumented struct {
	Publisher
}

func (i *instrumented) Publish(ctx context.Context, destination string, s *mdata.Summary) error {
	if err := i.Publisher.Publish(ctx, destination, s); err != nil {
		failedSummaries.WithLabelValues(i.Type(), destination).Inc()
		return err
	}
	publishedSummaries.WithLabelValues(i.Type(), destination).Inc()
	publishedSamples.WithLabelValues(i.Type()).Add(float64(s.Count))
	return nil
}

// nullPublisher drops all summaries passed through the publish interface
type nullPublisher struct{}

func (*nullPublisher) Publish(ctx context.Context, destination string, s *mdata.Summary) error {
	log.Debugf("publishing not enabled, dropping summary for window %d - %d", s.Start, s.End)
	return nil
}

func (*nullPublisher) Type() string {
	return "nullPublisher"
}

// Multi publishes to each of its publishers in turn.
// All publishers are tried; the errors of the ones that failed are joined.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, destination string, s *mdata.Summary) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, destination, s); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Type(), err))
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Type() string {
	types := make([]string, len(m))
	for i, p := range m {
		types[i] = p.Type()
	}
	return strings.Join(types, "+")
}
