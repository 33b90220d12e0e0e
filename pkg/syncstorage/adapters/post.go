package adapters

import (
	"context"

	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db/params"
)

func toParamsBsos(items []PostCollectionBso) []params.PostCollectionBso {
	out := make([]params.PostCollectionBso, len(items))
	for i, b := range items {
		out[i] = params.PostCollectionBso{ID: b.ID, SortIndex: b.SortIndex, Payload: b.Payload, TTL: b.TTL}
	}
	return out
}

// PostCollection is post_collection: a plain multi-row upload, unless
// the request carried a ?batch=... parameter, in which case it
// dispatches to PostCollectionBatch.
func PostCollection(ctx context.Context, req CollectionPostRequest) Response {
	req.incr("request.post_collection")
	if req.Batch != nil {
		return PostCollectionBatch(ctx, req)
	}

	result, err := req.DB.PostBsos(ctx, params.PostBsos{
		UserID:     req.UserID,
		Collection: req.Collection,
		Bsos:       toParamsBsos(req.Bsos.Valid),
		Failed:     req.Bsos.Invalid,
	})
	if err != nil {
		return req.statusForError(ctx, err)
	}
	return Response{Status: StatusOK, Body: result, LastModified: result.Modified, HasLastModified: true}
}

// PostCollectionBatch is post_collection_batch: resolve or create the
// target batch, and either append this request's rows to it, or, if
// committing in the same request, hand them to CommitBatch as pending
// rows so the backend can size-check and apply them together with
// whatever was already staged, without paying for a staging round-trip
// first.
func PostCollectionBatch(ctx context.Context, req CollectionPostRequest) Response {
	req.incr("request.post_collection_batch")
	breq := req.Batch

	id, err := resolveBatchID(ctx, req, breq)
	if err != nil {
		return req.statusForError(ctx, err)
	}

	ids := make([]string, len(req.Bsos.Valid))
	for i, b := range req.Bsos.Valid {
		ids[i] = b.ID
	}
	failed := map[string]string{}
	for k, v := range req.Bsos.Invalid {
		failed[k] = v
	}
	var success []string
	var pending []params.PostCollectionBso

	if breq.Commit && len(req.Bsos.Valid) > 0 {
		pending = toParamsBsos(req.Bsos.Valid)
	} else if len(req.Bsos.Valid) > 0 {
		err = req.DB.AppendToBatch(ctx, params.AppendToBatch{
			UserID: req.UserID, Collection: req.Collection, ID: id, Bsos: toParamsBsos(req.Bsos.Valid),
		})
	}
	switch {
	case err == nil:
		success = append(success, ids...)
	case db.Is(err, db.KindConflict):
		return req.statusForError(ctx, err)
	default:
		for _, i := range ids {
			failed[i] = "db error"
		}
	}

	body := map[string]interface{}{"success": success, "failed": failed}
	if !breq.Commit {
		body["batch"] = id
		return Response{Status: StatusAccepted, Body: body}
	}

	batch, err := req.DB.GetBatch(ctx, params.GetBatch{UserID: req.UserID, Collection: req.Collection, ID: id})
	if err != nil {
		return req.statusForError(ctx, err)
	}
	result, err := req.DB.CommitBatch(ctx, params.CommitBatch{
		UserID: req.UserID, Collection: req.Collection, Batch: *batch, Pending: pending,
	})
	if err != nil {
		return req.statusForError(ctx, err)
	}
	body["modified"] = result.Modified
	return Response{Status: StatusOK, Body: body, LastModified: result.Modified, HasLastModified: true}
}

func resolveBatchID(ctx context.Context, req CollectionPostRequest, breq *BatchRequest) (string, error) {
	if breq.ID == nil {
		return req.DB.CreateBatch(ctx, params.CreateBatch{UserID: req.UserID, Collection: req.Collection})
	}
	ok, err := req.DB.ValidateBatch(ctx, params.ValidateBatch{UserID: req.UserID, Collection: req.Collection, ID: *breq.ID})
	if err != nil {
		return "", err
	}
	if !ok {
		return "", db.NewError(db.KindBatchNotFound, nil)
	}
	return *breq.ID, nil
}
