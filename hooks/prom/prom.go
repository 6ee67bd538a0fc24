// Package prom counts ddbsession.Hooks events with Prometheus metrics.
// Namespace ids are never used as labels.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/ddbsession"
)

const (
	EventCreated    = "record_created"
	EventFlushed    = "flushed"
	EventSuppressed = "conflict_suppressed"
	EventRaised     = "conflict_raised"
	EventRemoved    = "removed"
)

type Hooks struct {
	events  *prometheus.CounterVec
	changed prometheus.Histogram
}

var _ ddbsession.Hooks = (*Hooks)(nil)

// New registers the collectors with reg (prometheus.DefaultRegisterer when nil).
func New(reg prometheus.Registerer, namespace string) (*Hooks, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	h := &Hooks{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ddbsession",
			Name:      "events_total",
			Help:      "Session namespace lifecycle events.",
		}, []string{"event"}),
		changed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ddbsession",
			Name:      "flushed_attributes",
			Help:      "Attributes written per successful close.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32},
		}),
	}
	for _, c := range []prometheus.Collector{h.events, h.changed} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	// expose zeroes before the first event
	for _, e := range []string{EventCreated, EventFlushed, EventSuppressed, EventRaised, EventRemoved} {
		h.events.WithLabelValues(e)
	}
	return h, nil
}

func (h *Hooks) RecordCreated(string) { h.events.WithLabelValues(EventCreated).Inc() }
func (h *Hooks) Removed(string)       { h.events.WithLabelValues(EventRemoved).Inc() }

func (h *Hooks) Flushed(_ string, changed []string) {
	h.events.WithLabelValues(EventFlushed).Inc()
	h.changed.Observe(float64(len(changed)))
}

func (h *Hooks) ConflictSuppressed(string, []string) {
	h.events.WithLabelValues(EventSuppressed).Inc()
}

func (h *Hooks) ConflictRaised(string, []string) {
	h.events.WithLabelValues(EventRaised).Inc()
}
