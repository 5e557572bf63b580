package dispatch

import (
	"sort"

	lru "github.com/hashicorp/golang-lru"
	"github.com/grafana/metersummary/mdata"
)

// History keeps the most recently dispatched summaries, keyed by window start
type History struct {
	cache *lru.Cache
}

func NewHistory(size int) (*History, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &History{cache: c}, nil
}

// Dispatched implements Observer
func (h *History) Dispatched(s *mdata.Summary, err error) {
	if err != nil {
		return
	}
	h.cache.Add(s.Start, s)
}

// Recent returns the retained summaries, oldest window first
func (h *History) Recent() []*mdata.Summary {
	out := make([]*mdata.Summary, 0, h.cache.Len())
	for _, k := range h.cache.Keys() {
		if v, ok := h.cache.Peek(k); ok {
			out = append(out, v.(*mdata.Summary))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// Latest returns the most recent summary, by window start
func (h *History) Latest() (*mdata.Summary, bool) {
	r := h.Recent()
	if len(r) == 0 {
		return nil, false
	}
	return r[len(r)-1], true
}
