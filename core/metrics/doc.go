// Package metrics defines the observability contract of the ETA service.
// Every sink records served predictions; sinks may also implement the
// optional recorder interfaces for evaluations, training runs and request
// errors. NewMetricsSink builds sinks from configuration through a registry
// and returns a MultiSink automatically when several are configured.
package metrics
