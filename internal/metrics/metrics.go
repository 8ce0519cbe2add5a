package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/goliatone/go-editors/pkg/api"
	"github.com/goliatone/go-editors/pkg/asset"
	"github.com/goliatone/go-editors/pkg/editor"
)

const namespace = "editors"

// Metrics holds the editor collectors. A nil *Metrics records nothing.
type Metrics struct {
	StackPushTotal     prometheus.Counter
	StackPopTotal      prometheus.Counter
	SubmitTotal        prometheus.Counter
	AssetRefreshTotal  *prometheus.CounterVec
	TransportRequests  *prometheus.CounterVec
	TransportDurations *prometheus.HistogramVec
}

var (
	_ api.Observer          = (*Metrics)(nil)
	_ editor.StackObserver  = (*Metrics)(nil)
	_ asset.RefreshObserver = (*Metrics)(nil)
)

// New registers the collectors with registerer.
func New(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		StackPushTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stack_push_total",
			Help:      "Editors pushed onto the editor stack",
		}),
		StackPopTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stack_pop_total",
			Help:      "Editors popped from the editor stack",
		}),
		SubmitTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submit_total",
			Help:      "Sub-editor values submitted to their originating field",
		}),
		AssetRefreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_refresh_total",
			Help:      "Asset list refreshes by outcome",
		}, []string{"outcome"}),
		TransportRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_requests_total",
			Help:      "Requests issued through the routing context",
		}, []string{"route", "outcome"}),
		TransportDurations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transport_duration_seconds",
			Help:      "Request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"route"}),
	}
}

func (m *Metrics) StackPushed(int) {
	if m == nil {
		return
	}
	m.StackPushTotal.Inc()
}

func (m *Metrics) StackPopped(int) {
	if m == nil {
		return
	}
	m.StackPopTotal.Inc()
}

func (m *Metrics) Submitted(string) {
	if m == nil {
		return
	}
	m.SubmitTotal.Inc()
}

func (m *Metrics) ObserveRefresh(outcome string) {
	if m == nil {
		return
	}
	m.AssetRefreshTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRequest(route, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.TransportRequests.WithLabelValues(route, outcome).Inc()
	m.TransportDurations.WithLabelValues(route).Observe(duration.Seconds())
}
