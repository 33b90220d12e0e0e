// Package report defines the structured-error-reporting seam spec.md
// excludes from the core ("a Sentry-style error reporter"): the storage
// engine and its adapters only ever call Reporter.Report on an Internal
// error; what happens to that report (aggregation, alerting, a real
// Sentry DSN) is the transport layer's business.
package report

import (
	"context"

	"github.com/mozilla-services/syncstorage-go/pkg/log"
)

// Reporter receives errors the engine considers unexpected (spec.md §7's
// Internal kind) along with free-form tags for correlation.
type Reporter interface {
	Report(ctx context.Context, err error, tags map[string]string)
}

// LogReporter reports errors through pkg/log at error level. It's the
// default reporter when no external sink (e.g. Sentry) is configured,
// grounded on the teacher's own log.Error/log.Errorf helpers.
type LogReporter struct{}

// NewLogReporter returns a Reporter that logs structured error events.
func NewLogReporter() *LogReporter {
	return &LogReporter{}
}

func (LogReporter) Report(_ context.Context, err error, tags map[string]string) {
	event := log.Logger.Error().Err(err)
	for k, v := range tags {
		event = event.Str(k, v)
	}
	event.Msg("internal error")
}

// NoopReporter discards every report; used by tests.
type NoopReporter struct{}

func (NoopReporter) Report(context.Context, error, map[string]string) {}
