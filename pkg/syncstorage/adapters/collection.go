package adapters

import (
	"context"

	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db/params"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/timestamp"
)

// DeleteCollection is delete_collection: a bare collection delete, or
// (when the request carried ?ids=...) a delete of just those BSOs
// within it. Either way, a CollectionNotFound/BsoNotFound outcome is
// not an error here: the original falls back to reporting the
// storage's current timestamp so a delete of an already-gone resource
// still succeeds idempotently.
func DeleteCollection(ctx context.Context, req CollectionRequest) Response {
	deleteBsos := len(req.Query.IDs) > 0

	var ts timestamp.SyncTimestamp
	var err error
	if deleteBsos {
		req.incr("request.delete_bsos")
		ts, err = req.DB.DeleteBsos(ctx, params.DeleteBsos{
			UserID: req.UserID, Collection: req.Collection, IDs: req.Query.IDs,
		})
	} else {
		req.incr("request.delete_collection")
		ts, err = req.DB.DeleteCollection(ctx, params.DeleteCollection{
			UserID: req.UserID, Collection: req.Collection,
		})
	}

	if err != nil {
		if db.Is(err, db.KindCollectionNotFound) || db.Is(err, db.KindBsoNotFound) {
			fallback, ferr := req.DB.GetStorageTimestamp(ctx, params.GetStorageTimestamp{UserID: req.UserID})
			if ferr != nil {
				return req.statusForError(ctx, ferr)
			}
			ts = fallback
		} else {
			return req.statusForError(ctx, err)
		}
	}

	return Response{Status: StatusOK, Body: ts, LastModified: ts, HasLastModified: deleteBsos}
}

// GetCollection is get_collection: either the full BSOs (Query.Full) or
// just their ids, paginated, under the collection's X-Last-Modified. A
// missing collection is not an error: for backward compatibility it
// returns an empty page rather than 404 (original_source's
// finish_get_collection comment: "non-existent collections must return
// an empty list").
func GetCollection(ctx context.Context, req CollectionRequest) Response {
	req.incr("request.get_collection")

	var records int
	var nextOffset string
	var hasNext bool
	var body interface{}

	if req.Query.Full {
		page, err := req.DB.GetBsos(ctx, params.GetBsos{UserID: req.UserID, Collection: req.Collection, Query: req.Query})
		if err != nil && !db.Is(err, db.KindCollectionNotFound) {
			return req.statusForError(ctx, err)
		}
		records = len(page.Items)
		if page.Offset != nil {
			nextOffset, hasNext = *page.Offset, true
		}
		body = page.Items
	} else {
		page, err := req.DB.GetBsoIDs(ctx, params.GetBsoIDs{UserID: req.UserID, Collection: req.Collection, Query: req.Query})
		if err != nil && !db.Is(err, db.KindCollectionNotFound) {
			return req.statusForError(ctx, err)
		}
		records = len(page.Items)
		if page.Offset != nil {
			nextOffset, hasNext = *page.Offset, true
		}
		body = page.Items
	}

	coll := req.Collection
	ts, err := req.DB.ExtractResource(ctx, req.UserID, &coll, nil)
	if err != nil {
		if db.Is(err, db.KindCollectionNotFound) {
			ts = timestamp.Zero
		} else {
			return req.statusForError(ctx, err)
		}
	}

	return Response{
		Status:          StatusOK,
		Body:            body,
		LastModified:    ts,
		HasLastModified: true,
		Records:         records,
		HasRecords:      true,
		NextOffset:      nextOffset,
		HasNextOffset:   hasNext,
	}
}
