package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mozilla-services/syncstorage-go/pkg/report"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db/boltdb"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db/mockdb"
)

func strp(s string) *string { return &s }

func TestStatusForErrorMatchesErrorKindTable(t *testing.T) {
	m := Meta{UserID: 1, Report: report.NoopReporter{}}
	cases := []struct {
		kind db.ErrorKind
		want int
	}{
		{db.KindCollectionNotFound, StatusNotFound},
		{db.KindBsoNotFound, StatusNotFound},
		{db.KindBatchNotFound, StatusBadRequest},
		{db.KindBatchTooLarge, StatusBadRequest},
		{db.KindConflict, StatusServiceUnavailable},
		{db.KindQuota, StatusForbidden},
		{db.KindIntegrity, StatusPreconditionFailed},
		{db.KindInternal, StatusInternalServerError},
	}
	for _, tc := range cases {
		resp := m.statusForError(context.Background(), db.NewError(tc.kind, nil))
		require.Equalf(t, tc.want, resp.Status, "kind %s", tc.kind)
	}
}

func TestGetBsoNotFoundIs404(t *testing.T) {
	m := Meta{UserID: 1, DB: &mockdb.MockDB{}, Report: report.NoopReporter{}}
	resp := GetBso(context.Background(), BsoRequest{Meta: m, Collection: "tabs", BsoID: "x"})
	require.Equal(t, StatusNotFound, resp.Status)
}

func TestHeartbeatReportsOkOnLiveBackend(t *testing.T) {
	req := HeartbeatRequest{DB: &mockdb.MockDB{}, Version: "test"}
	resp := Heartbeat(context.Background(), req)
	require.Equal(t, StatusOK, resp.Status)
}

func TestDeleteCollectionFallsBackToStorageTimestampWhenAbsent(t *testing.T) {
	cfg := boltdb.DefaultConfig(t.TempDir())
	pool, err := boltdb.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })

	ctx := context.Background()
	conn, err := pool.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, conn.Begin(ctx, true))
	defer conn.Commit(ctx)

	m := Meta{UserID: 42, DB: conn}
	resp := DeleteCollection(ctx, CollectionRequest{Meta: m, Collection: "never-seen"})
	require.Equal(t, StatusOK, resp.Status)
}

func TestPutThenGetBsoRoundTrip(t *testing.T) {
	cfg := boltdb.DefaultConfig(t.TempDir())
	pool, err := boltdb.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })

	ctx := context.Background()
	conn, err := pool.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, conn.Begin(ctx, true))

	m := Meta{UserID: 9, DB: conn}
	putResp := PutBso(ctx, BsoPutRequest{
		BsoRequest: BsoRequest{Meta: m, Collection: "bookmarks", BsoID: "a"},
		Payload:    strp("hi"),
	})
	require.Equal(t, StatusOK, putResp.Status)
	require.NoError(t, conn.Commit(ctx))

	conn2, err := pool.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, conn2.Begin(ctx, false))
	defer conn2.Commit(ctx)

	getResp := GetBso(ctx, BsoRequest{Meta: Meta{UserID: 9, DB: conn2}, Collection: "bookmarks", BsoID: "a"})
	require.Equal(t, StatusOK, getResp.Status)
}

func TestPutBsoOverQuotaIs403(t *testing.T) {
	cfg := boltdb.DefaultConfig(t.TempDir())
	cfg.QuotaEnabled = true
	cfg.QuotaBytesPerUser = 4
	pool, err := boltdb.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })

	ctx := context.Background()
	conn, err := pool.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, conn.Begin(ctx, true))
	defer conn.Rollback(ctx)

	m := Meta{UserID: 5, DB: conn, Report: report.NoopReporter{}}
	resp := PutBso(ctx, BsoPutRequest{
		BsoRequest: BsoRequest{Meta: m, Collection: "meta", BsoID: "a"},
		Payload:    strp("this payload is too big for the quota"),
	})
	require.Equal(t, StatusForbidden, resp.Status)
}

func TestPostCollectionBatchCommitWithInvalidIDIs400(t *testing.T) {
	cfg := boltdb.DefaultConfig(t.TempDir())
	pool, err := boltdb.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })

	ctx := context.Background()
	conn, err := pool.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, conn.Begin(ctx, true))
	defer conn.Commit(ctx)

	m := Meta{UserID: 4, DB: conn, Report: report.NoopReporter{}}
	resp := PostCollection(ctx, CollectionPostRequest{
		Meta:       m,
		Collection: "history",
		Batch:      &BatchRequest{ID: strp("not-a-real-batch"), Commit: true},
	})
	require.Equal(t, StatusBadRequest, resp.Status)
}

func TestPostCollectionBatchAcceptedWhenNotCommitted(t *testing.T) {
	cfg := boltdb.DefaultConfig(t.TempDir())
	pool, err := boltdb.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })

	ctx := context.Background()
	conn, err := pool.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, conn.Begin(ctx, true))
	defer conn.Commit(ctx)

	m := Meta{UserID: 3, DB: conn}
	resp := PostCollection(ctx, CollectionPostRequest{
		Meta:       m,
		Collection: "history",
		Bsos:       ValidatedBsos{Valid: []PostCollectionBso{{ID: "a", Payload: strp("1")}}},
		Batch:      &BatchRequest{Commit: false},
	})
	require.Equal(t, StatusAccepted, resp.Status)
}
