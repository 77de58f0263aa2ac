/*
Package observability turns engine lifecycle hooks into metrics and logs.

Metrics registers Prometheus collectors and exposes them as a
domain.LifecycleHooks value; LogHooks does the same for slog. Combine
fans one event out to several hook sets so both can be installed at once:

	m := observability.NewMetrics(prometheus.DefaultRegisterer)
	engine := formflow.New(store, oracle,
		formflow.WithLifecycleHooks(observability.Combine(m.Hooks(), observability.LogHooks(logger))),
	)
*/
package observability
