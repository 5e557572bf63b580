package stats

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"
)

var errFmtMetricExists = "fatal: metric %q already exists as type %T"

var registry = NewRegistry()

// GraphiteMetric is anything that can report itself in the graphite line protocol
type GraphiteMetric interface {
	// ReportGraphite appends the measurements to buf and resets them for the next interval if needed
	ReportGraphite(prefix, buf []byte, now time.Time) []byte
}

// Registry tracks metrics and reporters by name
type Registry struct {
	sync.Mutex
	metrics map[string]GraphiteMetric
}

func NewRegistry() *Registry {
	return &Registry{
		metrics: make(map[string]GraphiteMetric),
	}
}

// getOrAdd registers metric under name, or returns the existing metric
// if one of the same type is already registered.
func (r *Registry) getOrAdd(name string, metric GraphiteMetric) GraphiteMetric {
	r.Lock()
	defer r.Unlock()
	if existing, ok := r.metrics[name]; ok {
		if reflect.TypeOf(existing) == reflect.TypeOf(metric) {
			return existing
		}
		panic(fmt.Sprintf(errFmtMetricExists, name, existing))
	}
	r.metrics[name] = metric
	return metric
}

type namedMetric struct {
	name   string
	metric GraphiteMetric
}

// list returns the metrics sorted by name
func (r *Registry) list() []namedMetric {
	r.Lock()
	out := make([]namedMetric, 0, len(r.metrics))
	for name, metric := range r.metrics {
		out = append(out, namedMetric{name, metric})
	}
	r.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func (r *Registry) Clear() {
	r.Lock()
	r.metrics = make(map[string]GraphiteMetric)
	r.Unlock()
}

// Report renders all registered metrics of the default registry.
func Report(prefix string, now time.Time) []byte {
	var buf []byte
	for _, m := range registry.list() {
		buf = m.metric.ReportGraphite([]byte(prefix+m.name+"."), buf, now)
	}
	return buf
}

// Clear removes all metrics from the default registry
func Clear() {
	registry.Clear()
}
