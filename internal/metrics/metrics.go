// Package metrics exposes navigation counters and state gauges in the
// Prometheus text format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starford/navkit/internal/apperr"
	"github.com/starford/navkit/internal/navigation"
	"github.com/starford/navkit/internal/state"
)

const namespace = "navkit"

// SnapshotFunc returns the current navigation state. It is called on the
// scrape goroutine.
type SnapshotFunc func(ctx context.Context) (*state.NavigationState, error)

// Recorder owns a private registry so several recorders can coexist in tests.
type Recorder struct {
	registry *prometheus.Registry
	handler  http.Handler

	events   *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// New creates a Recorder labelled with backend. When snapshot is non-nil,
// stack depth and open presentations are read from it on every scrape.
func New(backend string, snapshot SnapshotFunc) *Recorder {
	constLabels := prometheus.Labels{"backend": backend}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "events_total",
			Help:        "Navigation state changes by event and presentation type.",
			ConstLabels: constLabels,
		}, []string{"event", "type"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "failures_total",
			Help:        "Rejected navigation operations by error kind.",
			ConstLabels: constLabels,
		}, []string{"kind"}),
	}
	r.registry.MustRegister(r.events, r.failures)
	if snapshot != nil {
		r.registry.MustRegister(newStateCollector(snapshot, constLabels))
	}
	r.handler = promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
	return r
}

// Observe counts ev. It matches navigation.WithObserver.
func (r *Recorder) Observe(ev navigation.Event) {
	typ := ""
	if ev.NavigationType.Valid() {
		typ = ev.NavigationType.String()
	}
	r.events.WithLabelValues(ev.Type, typ).Inc()
}

// ObserveError counts a failed operation. It matches navservice.WithErrorHook.
func (r *Recorder) ObserveError(err error) {
	kind := "other"
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = "canceled"
	default:
		if k := apperr.KindOf(err); k != 0 {
			kind = k.String()
		}
	}
	r.failures.WithLabelValues(kind).Inc()
}

// Handler serves the registry.
func (r *Recorder) Handler() http.Handler {
	return r.handler
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

const scrapeTimeout = 2 * time.Second

type stateCollector struct {
	snapshot SnapshotFunc

	depth  *prometheus.Desc
	modals *prometheus.Desc
	active *prometheus.Desc
}

func newStateCollector(fn SnapshotFunc, constLabels prometheus.Labels) *stateCollector {
	return &stateCollector{
		snapshot: fn,
		depth: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "stack_depth"),
			"Routes pushed above the root view, per tab.",
			[]string{"tab"}, constLabels),
		modals: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "open_presentations"),
			"Open sheet, fullScreen and modal presentations.",
			nil, constLabels),
		active: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "current_tab"),
			"Set to 1 for the current tab.",
			[]string{"tab"}, constLabels),
	}
}

func (c *stateCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.depth
	ch <- c.modals
	ch <- c.active
}

func (c *stateCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), scrapeTimeout)
	defer cancel()
	s, err := c.snapshot(ctx)
	if err != nil || s == nil {
		return
	}
	for _, tab := range s.Tabs() {
		ch <- prometheus.MustNewConstMetric(c.depth, prometheus.GaugeValue,
			float64(len(s.Stack(tab))), tab)
		current := 0.0
		if tab == s.CurrentTab {
			current = 1
		}
		ch <- prometheus.MustNewConstMetric(c.active, prometheus.GaugeValue, current, tab)
	}
	ch <- prometheus.MustNewConstMetric(c.modals, prometheus.GaugeValue, float64(len(s.ModalStack)))
}
