package adapters

import (
	"context"

	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db/params"
)

const oneKB = 1024.0

// GetCollections is get_collections: every collection the user has
// ever written to, with its last-modified timestamp.
func GetCollections(ctx context.Context, m Meta) Response {
	m.incr("request.get_collections")
	result, err := m.DB.GetCollectionTimestamps(ctx, params.GetCollectionTimestamps{UserID: m.UserID})
	if err != nil {
		return m.statusForError(ctx, err)
	}
	return Response{Status: StatusOK, Body: result, Records: len(result), HasRecords: true}
}

// GetCollectionCounts is get_collection_counts: the BSO count per
// collection.
func GetCollectionCounts(ctx context.Context, m Meta) Response {
	m.incr("request.get_collection_counts")
	result, err := m.DB.GetCollectionCounts(ctx, params.GetCollectionCounts{UserID: m.UserID})
	if err != nil {
		return m.statusForError(ctx, err)
	}
	return Response{Status: StatusOK, Body: result, Records: len(result), HasRecords: true}
}

// GetCollectionUsage is get_collection_usage: the payload bytes used
// per collection, reported in kilobytes like the original.
func GetCollectionUsage(ctx context.Context, m Meta) Response {
	m.incr("request.get_collection_usage")
	result, err := m.DB.GetCollectionUsage(ctx, params.GetCollectionUsage{UserID: m.UserID})
	if err != nil {
		return m.statusForError(ctx, err)
	}
	usage := make(map[string]float64, len(result))
	for coll, bytes := range result {
		usage[coll] = float64(bytes) / oneKB
	}
	return Response{Status: StatusOK, Body: usage, Records: len(usage), HasRecords: true}
}

// GetQuota is get_quota: total storage usage in kilobytes, paired with
// a quota limit that is always nil (the original service never enforced
// a visible per-user limit over the wire; ours is an internal
// config-driven ceiling, see pkg/syncstorage/db/boltdb's quota
// accounting).
func GetQuota(ctx context.Context, m Meta) Response {
	m.incr("request.get_quota")
	usage, err := m.DB.GetStorageUsage(ctx, params.GetStorageUsage{UserID: m.UserID})
	if err != nil {
		return m.statusForError(ctx, err)
	}
	usageKB := float64(usage) / oneKB
	return Response{Status: StatusOK, Body: []interface{}{usageKB, nil}}
}

// DeleteAll is delete_all: wipes every collection the user owns.
func DeleteAll(ctx context.Context, m Meta) Response {
	m.incr("request.delete_all")
	ts, err := m.DB.DeleteStorage(ctx, params.DeleteStorage{UserID: m.UserID})
	if err != nil {
		return m.statusForError(ctx, err)
	}
	return Response{Status: StatusOK, Body: ts, LastModified: ts, HasLastModified: true}
}

// Heartbeat is heartbeat: a liveness probe the original reports as a
// small JSON checklist rather than a bare 200/503.
func Heartbeat(ctx context.Context, req HeartbeatRequest) Response {
	checklist := map[string]interface{}{"version": req.Version}
	ok, err := req.DB.Check(ctx)
	if err != nil || !ok {
		checklist["status"] = "Err"
		checklist["database"] = "Unknown"
		if err == nil {
			checklist["database"] = "Err"
			checklist["database_msg"] = "check failed without error"
		}
		return Response{Status: StatusServiceUnavailable, Body: checklist}
	}
	checklist["status"] = "Ok"
	checklist["database"] = "Ok"
	return Response{Status: StatusOK, Body: checklist}
}

// GetConfiguration is get_configuration: a static echo of the server's
// configured limits.
func GetConfiguration(_ context.Context, req ConfigRequest) Response {
	return Response{Status: StatusOK, Body: req.Limits}
}
