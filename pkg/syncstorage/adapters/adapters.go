// Package adapters is the Go counterpart of
// original_source/src/web/handlers.rs: one function per endpoint class,
// taking a plain parameter struct and a bound db.DB connection, and
// returning a transport-agnostic Response envelope instead of building
// an HTTP response directly. Headers (X-Last-Modified,
// X-Weave-Records, X-Weave-Next-Offset) and the JSON/newline body
// encoding are left to the (out-of-scope) transport layer to apply from
// that envelope, matching spec.md §1's scope boundary.
//
// Every adapter that takes a Meta increments its named counter on the
// metrics.Sink it is given and reports db.KindInternal errors through
// the report.Reporter, the same shape as the original's
// `meta.metrics.incr(...)` calls and its Sentry-backed error middleware.
// Heartbeat and GetConfiguration take no Meta and record no counter.
package adapters

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/mozilla-services/syncstorage-go/pkg/metrics"
	"github.com/mozilla-services/syncstorage-go/pkg/report"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/timestamp"
)

// Response is everything a transport layer needs to build an HTTP
// response: a status class, a JSON-able body, and the handful of
// headers specific to this protocol.
type Response struct {
	Status int
	Body   interface{}

	LastModified    timestamp.SyncTimestamp
	HasLastModified bool

	Records       int
	HasRecords    bool
	NextOffset    string
	HasNextOffset bool
}

// Status classes, named rather than borrowed from net/http so a
// transport layer mapping them onto HTTP (or anything else) reads as a
// deliberate choice rather than a leaked HTTP dependency.
const (
	StatusOK                  = 200
	StatusAccepted            = 202
	StatusBadRequest          = 400
	StatusForbidden           = 403
	StatusNotFound            = 404
	StatusPreconditionFailed  = 412
	StatusInternalServerError = 500
	StatusServiceUnavailable  = 503
)

// Meta is the common request context every adapter needs: which user,
// which connection, and where to send telemetry.
type Meta struct {
	UserID  uint64
	DB      db.DB
	Metrics metrics.Sink
	Report  report.Reporter
}

func (m Meta) incr(name string) {
	if m.Metrics != nil {
		m.Metrics.Incr(name)
	}
}

// statusForError maps a backend error onto a Response, reporting
// KindInternal (and any unrecognized kind, conservatively) to the error
// sink. Callers that need bespoke handling (get_collection's
// not-found-means-empty-list, delete_collection's not-found-means-
// current-timestamp) check db.Is themselves before falling back to this.
func (m Meta) statusForError(ctx context.Context, err error) Response {
	kind := db.KindInternal
	var dbErr *db.Error
	if e, ok := err.(*db.Error); ok {
		dbErr = e
		kind = e.Kind
	}
	switch kind {
	case db.KindCollectionNotFound, db.KindBsoNotFound:
		return Response{Status: StatusNotFound, Body: errorBody("not found")}
	case db.KindBatchNotFound:
		return Response{Status: StatusBadRequest, Body: errorBody("batch not found")}
	case db.KindBatchTooLarge:
		return Response{Status: StatusBadRequest, Body: errorBody("batch too large")}
	case db.KindConflict:
		return Response{Status: StatusServiceUnavailable, Body: errorBody("conflict, retry")}
	case db.KindQuota:
		return Response{Status: StatusForbidden, Body: errorBody("quota exceeded")}
	case db.KindIntegrity:
		return Response{Status: StatusPreconditionFailed, Body: errorBody("precondition failed")}
	default:
		if m.Report != nil {
			// uuid rather than the request's own id: adapters don't carry
			// one, and every reported error needs something unique enough
			// to find in logs alongside whatever the reporter's backend
			// (Sentry, etc.) assigns it.
			tags := map[string]string{
				"user_id":  strconv.FormatUint(m.UserID, 10),
				"trace_id": uuid.NewString(),
			}
			m.Report.Report(ctx, err, tags)
		}
		_ = dbErr
		return Response{Status: StatusInternalServerError, Body: errorBody("internal error")}
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
