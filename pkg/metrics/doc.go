/*
Package metrics defines the counter sink the storage engine reports
through, plus a Prometheus-backed implementation of it.

spec.md treats "the metrics sink" as an external collaborator: request
handlers own a counter and the core only ever increments named counters
on it. This package owns that seam: the Sink interface is what
pkg/syncstorage/adapters calls, and PrometheusSink is one concrete
backing for it (a NoopSink is provided for tests that don't care about
metrics at all).

# Usage

	sink := metrics.NewPrometheusSink()
	http.Handle("/metrics", metrics.Handler())
	...
	sink.Incr("request.put_bso")
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.RequestDuration, "put_bso")
*/
package metrics
