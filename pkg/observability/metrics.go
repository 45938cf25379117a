package observability

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/few/pkg/domain"
)

// Metrics holds the engine collectors.
type Metrics struct {
	Actions        *prometheus.CounterVec
	ActionDuration *prometheus.HistogramVec
	Dispatches     *prometheus.CounterVec
	Refreshes      prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
// It panics if they are already registered, like prometheus.MustRegister.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "few_actions_total",
				Help: "Total number of action invocations",
			},
			[]string{"action", "kind", "error"},
		),
		ActionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "few_action_duration_seconds",
				Help:    "Duration of action invocations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"action"},
		),
		Dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "few_dispatches_total",
				Help: "Total number of patches dispatched to component stores",
			},
			[]string{"changed", "error"},
		),
		Refreshes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "few_refreshes_total",
				Help: "Total number of view refreshes requested",
			},
		),
	}
	reg.MustRegister(m.Actions, m.ActionDuration, m.Dispatches, m.Refreshes)
	return m
}

// Hooks records every lifecycle event.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnActionEnd: func(e *domain.ActionEvent) {
			m.Actions.WithLabelValues(e.Action, e.Kind.String(), strconv.FormatBool(e.IsError)).Inc()
			m.ActionDuration.WithLabelValues(e.Action).Observe(e.Duration.Seconds())
		},
		OnDispatch: func(e *domain.DispatchEvent) {
			m.Dispatches.WithLabelValues(strconv.FormatBool(e.Changed), strconv.FormatBool(e.IsError)).Inc()
		},
		OnRefresh: func(*domain.Component) {
			m.Refreshes.Inc()
		},
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// LogHooks logs action boundaries and dispatches at Debug, and failures at Warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnActionStart: func(e *domain.ActionEvent) {
			logger.Debug("action_start", "component_id", e.ComponentID, "action", e.Action, "kind", e.Kind.String())
		},
		OnActionEnd: func(e *domain.ActionEvent) {
			if e.IsError {
				logger.Warn("action_failed", "component_id", e.ComponentID, "action", e.Action, "duration", e.Duration)
				return
			}
			logger.Debug("action_end", "component_id", e.ComponentID, "action", e.Action, "duration", e.Duration)
		},
		OnDispatch: func(e *domain.DispatchEvent) {
			if e.IsError {
				logger.Warn("dispatch_failed", "component_id", e.ComponentID, "paths", e.Paths)
				return
			}
			logger.Debug("dispatch", "component_id", e.ComponentID, "paths", e.Paths, "changed", e.Changed)
		},
	}
}
