/*
Package observability turns engine lifecycle hooks into metrics and structured logs.

Metrics registers Prometheus collectors and exposes them as domain.LifecycleHooks; LogHooks
does the same with a slog.Logger. Combine both with LifecycleHooks.Merge:

	m := observability.NewMetrics(prometheus.DefaultRegisterer)
	engine := few.New(few.WithLifecycleHooks(m.Hooks().Merge(observability.LogHooks(logger))))
	http.Handle("/metrics", promhttp.Handler())
*/
package observability
