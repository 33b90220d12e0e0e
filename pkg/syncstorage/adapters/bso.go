package adapters

import (
	"context"

	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db/params"
)

// DeleteBso is delete_bso.
func DeleteBso(ctx context.Context, req BsoRequest) Response {
	req.incr("request.delete_bso")
	ts, err := req.DB.DeleteBso(ctx, params.DeleteBso{UserID: req.UserID, Collection: req.Collection, ID: req.BsoID})
	if err != nil {
		return req.statusForError(ctx, err)
	}
	return Response{Status: StatusOK, Body: map[string]interface{}{"modified": ts}}
}

// GetBso is get_bso: a bare 404 when the BSO (or its collection) is
// absent, matching the original's Option<Bso>.
func GetBso(ctx context.Context, req BsoRequest) Response {
	req.incr("request.get_bso")
	bso, err := req.DB.GetBso(ctx, params.GetBso{UserID: req.UserID, Collection: req.Collection, ID: req.BsoID})
	if err != nil {
		return req.statusForError(ctx, err)
	}
	if bso == nil {
		return Response{Status: StatusNotFound}
	}
	return Response{Status: StatusOK, Body: bso}
}

// PutBso is put_bso.
func PutBso(ctx context.Context, req BsoPutRequest) Response {
	req.incr("request.put_bso")
	ts, err := req.DB.PutBso(ctx, params.PutBso{
		UserID:     req.UserID,
		Collection: req.Collection,
		ID:         req.BsoID,
		SortIndex:  req.SortIndex,
		Payload:    req.Payload,
		TTL:        req.TTL,
	})
	if err != nil {
		return req.statusForError(ctx, err)
	}
	return Response{Status: StatusOK, Body: ts, LastModified: ts, HasLastModified: true}
}
