package boltdb

import (
	"context"
	"encoding/json"
	"strconv"

	bolt "go.etcd.io/bbolt"

	"github.com/mozilla-services/syncstorage-go/pkg/log"
	"github.com/mozilla-services/syncstorage-go/pkg/metrics"
	sdb "github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db/params"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db/results"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/timestamp"
)

// batchRecord is a staged batch upload (spec.md §4.5). Its id is its own
// creation timestamp rendered as a plain decimal string, which doubles
// as per-user uniqueness under the timestamp source's monotonicity
// invariant: no two batches created by the same pool ever collide.
type batchRecord struct {
	ID      string      `json:"id"`
	Created int64       `json:"created"`
	BSOs    []bsoRecord `json:"bsos"`
}

func (r batchRecord) totalBytes() int {
	total := 0
	for _, b := range r.BSOs {
		total += b.PayloadSize
	}
	return total
}

func (r batchRecord) toBatch() sdb.Batch {
	items := make([]sdb.BSO, len(r.BSOs))
	for i, b := range r.BSOs {
		items[i] = b.toBSO()
	}
	return sdb.Batch{ID: r.ID, Modified: timestamp.SyncTimestamp(r.Created), BSOs: items}
}

func (c *conn) batchesBucket(userID uint64, collID int32, create bool) (*bolt.Bucket, error) {
	ub, err := c.userBucket(userID, create)
	if err != nil || ub == nil {
		return nil, err
	}
	if !create {
		batchRoot := ub.Bucket(bucketBatches)
		if batchRoot == nil {
			return nil, nil
		}
		return batchRoot.Bucket(collKey(collID)), nil
	}
	batchRoot, err := ub.CreateBucketIfNotExists(bucketBatches)
	if err != nil {
		return nil, err
	}
	return batchRoot.CreateBucketIfNotExists(collKey(collID))
}

func (c *conn) loadBatch(userID uint64, collID int32, id string) (*batchRecord, error) {
	bucket, err := c.batchesBucket(userID, collID, false)
	if err != nil || bucket == nil {
		return nil, err
	}
	v := bucket.Get([]byte(id))
	if v == nil {
		return nil, nil
	}
	var rec batchRecord
	if err := json.Unmarshal(v, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *conn) saveBatch(userID uint64, collID int32, rec batchRecord) error {
	bucket, err := c.batchesBucket(userID, collID, true)
	if err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return bucket.Put([]byte(rec.ID), data)
}

// stageItems converts wire-level PostCollectionBso items into staged
// bsoRecords, applying the same default-TTL and merge-over-existing
// rules PutBso/PostBsos use, but against the batch's own staged rows
// rather than the live bso bucket.
func stageItems(existing []bsoRecord, items []params.PostCollectionBso, ts timestamp.SyncTimestamp, defaultTTL int) []bsoRecord {
	byID := make(map[string]int, len(existing))
	out := append([]bsoRecord(nil), existing...)
	for i, rec := range out {
		byID[rec.ID] = i
	}
	for _, item := range items {
		idx, ok := byID[item.ID]
		var rec bsoRecord
		if ok {
			rec = out[idx]
		} else {
			rec = bsoRecord{ID: item.ID}
		}
		if item.SortIndex != nil {
			rec.SortIndex = item.SortIndex
		}
		if item.Payload != nil {
			rec.Payload = *item.Payload
			rec.PayloadSize = len(*item.Payload)
		}
		ttl := defaultTTL
		if item.TTL != nil {
			ttl = *item.TTL
		}
		rec.Expiry = int64(ts) + int64(ttl)*1000
		rec.Modified = int64(ts)
		if ok {
			out[idx] = rec
		} else {
			byID[item.ID] = len(out)
			out = append(out, rec)
		}
	}
	return out
}

func (c *conn) CreateBatch(ctx context.Context, p params.CreateBatch) (string, error) {
	collID, err := c.resolveOrAllocateCollectionID(p.Collection)
	if err != nil {
		return "", sdb.NewError(sdb.KindInternal, err)
	}
	ts := c.stamp()
	id := strconv.FormatInt(int64(ts), 10)
	rec := batchRecord{ID: id, Created: int64(ts)}
	rec.BSOs = stageItems(nil, p.Bsos, ts, c.pool.cfg.MaxTTLSeconds)
	if err := c.checkBatchSize(rec); err != nil {
		return "", err
	}
	if err := c.saveBatch(p.UserID, collID, rec); err != nil {
		return "", sdb.NewError(sdb.KindInternal, err)
	}
	return id, nil
}

func (c *conn) checkBatchSize(rec batchRecord) error {
	if c.pool.cfg.MaxTotalRecords > 0 && len(rec.BSOs) > c.pool.cfg.MaxTotalRecords {
		return sdb.NewError(sdb.KindBatchTooLarge, nil)
	}
	if c.pool.cfg.MaxTotalBytes > 0 && rec.totalBytes() > c.pool.cfg.MaxTotalBytes {
		return sdb.NewError(sdb.KindBatchTooLarge, nil)
	}
	return nil
}

// batchExpired reports whether rec was created BatchTTLSeconds or more
// ago, measured against the wall clock (without drawing a timestamp
// from the pool's Source).
func (c *conn) batchExpired(rec *batchRecord) bool {
	age := int64(timestamp.FromTime(nowFunc())) - rec.Created
	return age >= c.pool.cfg.BatchTTLSeconds*1000
}

func (c *conn) ValidateBatch(ctx context.Context, p params.ValidateBatch) (bool, error) {
	collID, ok := c.resolveCollectionID(p.Collection)
	if !ok {
		return false, nil
	}
	rec, err := c.loadBatch(p.UserID, collID, p.ID)
	if err != nil {
		return false, sdb.NewError(sdb.KindInternal, err)
	}
	if rec == nil {
		return false, nil
	}
	return !c.batchExpired(rec), nil
}

func (c *conn) AppendToBatch(ctx context.Context, p params.AppendToBatch) error {
	collID, ok := c.resolveCollectionID(p.Collection)
	if !ok {
		return sdb.NewError(sdb.KindCollectionNotFound, nil)
	}
	rec, err := c.loadBatch(p.UserID, collID, p.ID)
	if err != nil {
		return sdb.NewError(sdb.KindInternal, err)
	}
	if rec == nil || c.batchExpired(rec) {
		return sdb.NewError(sdb.KindBatchNotFound, nil)
	}
	rec.BSOs = stageItems(rec.BSOs, p.Bsos, c.stamp(), c.pool.cfg.MaxTTLSeconds)
	if err := c.checkBatchSize(*rec); err != nil {
		return err
	}
	if err := c.saveBatch(p.UserID, collID, *rec); err != nil {
		return sdb.NewError(sdb.KindInternal, err)
	}
	return nil
}

func (c *conn) GetBatch(ctx context.Context, p params.GetBatch) (*sdb.Batch, error) {
	collID, ok := c.resolveCollectionID(p.Collection)
	if !ok {
		return nil, sdb.NewError(sdb.KindCollectionNotFound, nil)
	}
	rec, err := c.loadBatch(p.UserID, collID, p.ID)
	if err != nil {
		return nil, sdb.NewError(sdb.KindInternal, err)
	}
	if rec == nil || c.batchExpired(rec) {
		return nil, sdb.NewError(sdb.KindBatchNotFound, nil)
	}
	batch := rec.toBatch()
	return &batch, nil
}

// CommitBatch applies every staged row, merged with any commit-time
// pending rows the adapter wrote straight through rather than staging,
// onto the live bso bucket under one shared timestamp, then discards
// the batch. The merged set is size-checked against the same
// max_total_records/max_total_bytes ceiling CreateBatch/AppendToBatch
// enforce at staging time, so a commit can't slip a batch over either
// limit just because its last rows arrived in the commit request
// itself. A batch with no pending items still touches the collection's
// modified timestamp (the fast path spec.md §4.5 calls for: commit is
// never a no-op from the client's perspective).
func (c *conn) CommitBatch(ctx context.Context, p params.CommitBatch) (results.CommitBatch, error) {
	collID, err := c.resolveOrAllocateCollectionID(p.Collection)
	if err != nil {
		return results.CommitBatch{}, sdb.NewError(sdb.KindInternal, err)
	}
	ts := c.stamp()

	staged := make([]bsoRecord, len(p.Batch.BSOs))
	for i, b := range p.Batch.BSOs {
		staged[i] = fromBSO(b)
	}
	merged := stageItems(staged, p.Pending, ts, c.pool.cfg.MaxTTLSeconds)
	if err := c.checkBatchSize(batchRecord{BSOs: merged}); err != nil {
		return results.CommitBatch{}, err
	}

	for _, rec := range merged {
		rec.Modified = int64(ts)
		if err := c.putRecord(p.UserID, collID, rec); err != nil {
			return results.CommitBatch{}, sdb.NewError(sdb.KindInternal, err)
		}
	}
	if err := c.touchUserCollection(p.UserID, collID, ts); err != nil {
		return results.CommitBatch{}, sdb.NewError(sdb.KindInternal, err)
	}

	bucket, err := c.batchesBucket(p.UserID, collID, false)
	if err == nil && bucket != nil {
		_ = bucket.Delete([]byte(p.Batch.ID))
	}

	metrics.BatchSizeBsos.Observe(float64(len(merged)))

	log.WithUserID(p.UserID).Debug().
		Str("collection", p.Collection).
		Str("batch", p.Batch.ID).
		Int("bsos", len(merged)).
		Msg("batch committed")

	return results.CommitBatch{Modified: ts}, nil
}

// putRecord writes a fully-built bsoRecord and keeps usage accounting in
// sync, used by batch commit where the record is already assembled.
func (c *conn) putRecord(userID uint64, collID int32, rec bsoRecord) error {
	ub, err := c.userBucket(userID, true)
	if err != nil {
		return err
	}
	bsoRoot, err := ub.CreateBucketIfNotExists(bucketBso)
	if err != nil {
		return err
	}
	collBucket, err := bsoRoot.CreateBucketIfNotExists(collKey(collID))
	if err != nil {
		return err
	}
	oldSize := 0
	if v := collBucket.Get([]byte(rec.ID)); v != nil {
		if old, err := decodeBsoRecord(v); err == nil {
			oldSize = old.PayloadSize
		}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := collBucket.Put([]byte(rec.ID), data); err != nil {
		return err
	}
	return c.addUsage(userID, collID, rec.PayloadSize-oldSize)
}
