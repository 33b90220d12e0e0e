package boltdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	sdb "github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db/params"
)

func newTestPool(t *testing.T) *Pool {
	t.Helper()
	cfg := DefaultConfig(t.TempDir())
	cfg.PoolMaxSize = 4
	p, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func beginWrite(t *testing.T, p *Pool) sdb.DB {
	t.Helper()
	c, err := p.Get(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.Begin(context.Background(), true))
	return c
}

func strp(s string) *string { return &s }

func TestPutThenGetBso(t *testing.T) {
	p := newTestPool(t)
	ctx := context.Background()

	c := beginWrite(t, p)
	ts, err := c.PutBso(ctx, params.PutBso{UserID: 1, Collection: "bookmarks", ID: "a", Payload: strp("hello")})
	require.NoError(t, err)
	require.NoError(t, c.Commit(ctx))
	require.NotZero(t, ts)

	c2, err := p.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, c2.Begin(ctx, false))
	defer c2.Commit(ctx)

	bso, err := c2.GetBso(ctx, params.GetBso{UserID: 1, Collection: "bookmarks", ID: "a"})
	require.NoError(t, err)
	require.NotNil(t, bso)
	require.Equal(t, "hello", bso.Payload)
	require.Equal(t, ts, bso.Modified)
}

func TestGetBsoCollectionNotFound(t *testing.T) {
	p := newTestPool(t)
	ctx := context.Background()
	c, err := p.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Begin(ctx, false))
	defer c.Commit(ctx)

	_, err = c.GetBso(ctx, params.GetBso{UserID: 1, Collection: "nope", ID: "a"})
	require.Error(t, err)
	require.True(t, sdb.Is(err, sdb.KindCollectionNotFound))
}

func TestDeleteBsoNotFound(t *testing.T) {
	p := newTestPool(t)
	ctx := context.Background()
	c := beginWrite(t, p)
	_, err := c.PutBso(ctx, params.PutBso{UserID: 1, Collection: "tabs", ID: "x", Payload: strp("v")})
	require.NoError(t, err)
	require.NoError(t, c.Commit(ctx))

	c2 := beginWrite(t, p)
	_, err = c2.DeleteBso(ctx, params.DeleteBso{UserID: 1, Collection: "tabs", ID: "missing"})
	require.Error(t, err)
	require.True(t, sdb.Is(err, sdb.KindBsoNotFound))
	require.NoError(t, c2.Rollback(ctx))
}

func TestDeleteBsosNoneMatchedFails(t *testing.T) {
	p := newTestPool(t)
	ctx := context.Background()
	c := beginWrite(t, p)
	_, err := c.PutBso(ctx, params.PutBso{UserID: 1, Collection: "tabs", ID: "x", Payload: strp("v")})
	require.NoError(t, err)
	require.NoError(t, c.Commit(ctx))

	c2 := beginWrite(t, p)
	_, err = c2.DeleteBsos(ctx, params.DeleteBsos{UserID: 1, Collection: "tabs", IDs: []string{"missing"}})
	require.Error(t, err)
	require.True(t, sdb.Is(err, sdb.KindBsoNotFound))
	require.NoError(t, c2.Rollback(ctx))

	// the failed, rolled-back delete must have left the existing row in place
	c3, err := p.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, c3.Begin(ctx, false))
	defer c3.Commit(ctx)
	bso, err := c3.GetBso(ctx, params.GetBso{UserID: 1, Collection: "tabs", ID: "x"})
	require.NoError(t, err)
	require.NotNil(t, bso)
}

func TestPostBsosPartialFailure(t *testing.T) {
	p := newTestPool(t)
	ctx := context.Background()
	c := beginWrite(t, p)

	res, err := c.PostBsos(ctx, params.PostBsos{
		UserID:     1,
		Collection: "history",
		Bsos: []params.PostCollectionBso{
			{ID: "a", Payload: strp("1")},
			{ID: "b", Payload: strp("2")},
		},
		Failed: map[string]string{"c": "invalid id"},
	})
	require.NoError(t, err)
	require.NoError(t, c.Commit(ctx))

	require.ElementsMatch(t, []string{"a", "b"}, res.Success)
	require.Equal(t, map[string]string{"c": "invalid id"}, res.Failed)
}

func TestQuotaRejection(t *testing.T) {
	p := newTestPool(t)
	p.cfg.QuotaEnabled = true
	p.cfg.QuotaBytesPerUser = 4
	ctx := context.Background()

	c := beginWrite(t, p)
	_, err := c.PutBso(ctx, params.PutBso{UserID: 1, Collection: "meta", ID: "a", Payload: strp("this payload is too big")})
	require.Error(t, err)
	require.True(t, sdb.Is(err, sdb.KindQuota))
	require.NoError(t, c.Rollback(ctx))
}

func TestDeleteCollectionAbsentIsNoop(t *testing.T) {
	p := newTestPool(t)
	ctx := context.Background()
	c := beginWrite(t, p)
	_, err := c.DeleteCollection(ctx, params.DeleteCollection{UserID: 1, Collection: "never-seen"})
	require.NoError(t, err) // no error; storage timestamp returned, not 404
	require.NoError(t, c.Commit(ctx))
}

func TestBatchCreateAppendCommit(t *testing.T) {
	p := newTestPool(t)
	ctx := context.Background()

	c := beginWrite(t, p)
	id, err := c.CreateBatch(ctx, params.CreateBatch{
		UserID:     7,
		Collection: "bookmarks",
		Bsos:       []params.PostCollectionBso{{ID: "a", Payload: strp("1")}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, c.AppendToBatch(ctx, params.AppendToBatch{
		UserID: 7, Collection: "bookmarks", ID: id,
		Bsos: []params.PostCollectionBso{{ID: "b", Payload: strp("2")}},
	}))

	ok, err := c.ValidateBatch(ctx, params.ValidateBatch{UserID: 7, Collection: "bookmarks", ID: id})
	require.NoError(t, err)
	require.True(t, ok)

	batch, err := c.GetBatch(ctx, params.GetBatch{UserID: 7, Collection: "bookmarks", ID: id})
	require.NoError(t, err)
	require.Len(t, batch.BSOs, 2)

	res, err := c.CommitBatch(ctx, params.CommitBatch{UserID: 7, Collection: "bookmarks", Batch: *batch})
	require.NoError(t, err)
	require.NotZero(t, res.Modified)
	require.NoError(t, c.Commit(ctx))

	c2, err := p.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, c2.Begin(ctx, false))
	defer c2.Commit(ctx)
	bso, err := c2.GetBso(ctx, params.GetBso{UserID: 7, Collection: "bookmarks", ID: "b"})
	require.NoError(t, err)
	require.NotNil(t, bso)

	_, err = c2.GetBatch(ctx, params.GetBatch{UserID: 7, Collection: "bookmarks", ID: id})
	require.True(t, sdb.Is(err, sdb.KindBatchNotFound))
}

func TestCommitBatchRejectsOversizedPending(t *testing.T) {
	p := newTestPool(t)
	p.cfg.MaxTotalRecords = 1
	ctx := context.Background()

	c := beginWrite(t, p)
	id, err := c.CreateBatch(ctx, params.CreateBatch{
		UserID:     8,
		Collection: "bookmarks",
		Bsos:       []params.PostCollectionBso{{ID: "a", Payload: strp("1")}},
	})
	require.NoError(t, err)

	batch, err := c.GetBatch(ctx, params.GetBatch{UserID: 8, Collection: "bookmarks", ID: id})
	require.NoError(t, err)

	_, err = c.CommitBatch(ctx, params.CommitBatch{
		UserID: 8, Collection: "bookmarks", Batch: *batch,
		Pending: []params.PostCollectionBso{{ID: "b", Payload: strp("2")}},
	})
	require.Error(t, err)
	require.True(t, sdb.Is(err, sdb.KindBatchTooLarge))
	require.NoError(t, c.Rollback(ctx))
}

func TestPoolCheck(t *testing.T) {
	p := newTestPool(t)
	ok, err := p.Check(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
}
