package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	bolt "go.etcd.io/bbolt"

	"github.com/mozilla-services/syncstorage-go/pkg/metrics"
	sdb "github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db/params"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db/results"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/timestamp"
)

// bsoRecord is the on-disk shape of a BSO. db.BSO marks Expiry and
// PayloadSize `json:"-"` since they never cross the backend boundary
// outward unmodified; the backend still needs to persist them, hence
// this separate record.
type bsoRecord struct {
	ID          string `json:"id"`
	SortIndex   *int   `json:"sortindex,omitempty"`
	Payload     string `json:"payload"`
	PayloadSize int    `json:"payload_size"`
	Modified    int64  `json:"modified"`
	Expiry      int64  `json:"expiry"`
}

func (r bsoRecord) toBSO() sdb.BSO {
	return sdb.BSO{
		ID:          r.ID,
		SortIndex:   r.SortIndex,
		Payload:     r.Payload,
		PayloadSize: r.PayloadSize,
		Modified:    timestamp.SyncTimestamp(r.Modified),
		Expiry:      timestamp.SyncTimestamp(r.Expiry),
	}
}

func fromBSO(b sdb.BSO) bsoRecord {
	return bsoRecord{
		ID:          b.ID,
		SortIndex:   b.SortIndex,
		Payload:     b.Payload,
		PayloadSize: b.PayloadSize,
		Modified:    int64(b.Modified),
		Expiry:      int64(b.Expiry),
	}
}

func decodeBsoRecord(data []byte) (bsoRecord, error) {
	var rec bsoRecord
	err := json.Unmarshal(data, &rec)
	return rec, err
}

func isExpired(rec bsoRecord, now timestamp.SyncTimestamp) bool {
	return rec.Expiry != 0 && timestamp.SyncTimestamp(rec.Expiry) <= now
}

// getBsoRecord returns the live (non-expired) BSO, or nil if absent.
func (c *conn) getBsoRecord(userID uint64, collID int32, id string) (*sdb.BSO, error) {
	ub, err := c.userBucket(userID, false)
	if err != nil || ub == nil {
		return nil, nil
	}
	bsoRoot := ub.Bucket(bucketBso)
	if bsoRoot == nil {
		return nil, nil
	}
	collBucket := bsoRoot.Bucket(collKey(collID))
	if collBucket == nil {
		return nil, nil
	}
	v := collBucket.Get([]byte(id))
	if v == nil {
		return nil, nil
	}
	rec, err := decodeBsoRecord(v)
	if err != nil {
		return nil, sdb.NewError(sdb.KindInternal, err)
	}
	if isExpired(rec, timestamp.FromTime(nowFunc())) {
		return nil, nil
	}
	bso := rec.toBSO()
	return &bso, nil
}

// collectionBSOs returns every live BSO in (userID, collID), unsorted
// and unpaginated, for GetBsos/GetBsoIDs to filter and page.
func (c *conn) collectionBSOs(userID uint64, collID int32) ([]sdb.BSO, error) {
	ub, err := c.userBucket(userID, false)
	if err != nil || ub == nil {
		return nil, nil
	}
	bsoRoot := ub.Bucket(bucketBso)
	if bsoRoot == nil {
		return nil, nil
	}
	collBucket := bsoRoot.Bucket(collKey(collID))
	if collBucket == nil {
		return nil, nil
	}
	now := timestamp.FromTime(nowFunc())
	var out []sdb.BSO
	err = collBucket.ForEach(func(_, v []byte) error {
		rec, err := decodeBsoRecord(v)
		if err != nil {
			return err
		}
		if isExpired(rec, now) {
			return nil
		}
		out = append(out, rec.toBSO())
		return nil
	})
	if err != nil {
		return nil, sdb.NewError(sdb.KindInternal, err)
	}
	return out, nil
}

// filterAndSort applies q's Newer/Older/IDs filters and Sort ordering.
func filterAndSort(items []sdb.BSO, q sdb.Query) []sdb.BSO {
	var idSet map[string]bool
	if len(q.IDs) > 0 {
		idSet = make(map[string]bool, len(q.IDs))
		for _, id := range q.IDs {
			idSet[id] = true
		}
	}
	out := items[:0:0]
	for _, b := range items {
		if idSet != nil && !idSet[b.ID] {
			continue
		}
		if q.Newer != nil && b.Modified <= *q.Newer {
			continue
		}
		if q.Older != nil && b.Modified >= *q.Older {
			continue
		}
		out = append(out, b)
	}
	switch q.Sort {
	case sdb.SortOldest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Modified < out[j].Modified })
	case sdb.SortIndex:
		sort.SliceStable(out, func(i, j int) bool {
			si, sj := 0, 0
			if out[i].SortIndex != nil {
				si = *out[i].SortIndex
			}
			if out[j].SortIndex != nil {
				sj = *out[j].SortIndex
			}
			return si > sj
		})
	default: // SortNewest, the default ordering
		sort.SliceStable(out, func(i, j int) bool { return out[i].Modified > out[j].Modified })
	}
	return out
}

// paginate slices a filtered, sorted page out of items starting at the
// index encoded by offset ("" means 0), returning the next page's
// offset token or nil when there is none.
func paginate[T any](items []T, limit int, offset string) ([]T, *string, error) {
	start := 0
	if offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 {
			return nil, nil, sdb.NewError(sdb.KindIntegrity, fmt.Errorf("invalid offset %q", offset))
		}
		start = n
	}
	if start > len(items) {
		start = len(items)
	}
	end := len(items)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	page := items[start:end]
	var next *string
	if end < len(items) {
		s := strconv.Itoa(end)
		next = &s
	}
	return page, next, nil
}

func (c *conn) GetBsos(ctx context.Context, p params.GetBsos) (results.Paginated[sdb.BSO], error) {
	collID, ok := c.resolveCollectionID(p.Collection)
	if !ok {
		return results.Paginated[sdb.BSO]{}, sdb.NewError(sdb.KindCollectionNotFound, nil)
	}
	items, err := c.collectionBSOs(p.UserID, collID)
	if err != nil {
		return results.Paginated[sdb.BSO]{}, err
	}
	items = filterAndSort(items, p.Query)
	if !p.Query.Full {
		for i := range items {
			items[i].Payload = ""
		}
	}
	page, next, err := paginate(items, p.Query.Limit, p.Query.Offset)
	if err != nil {
		return results.Paginated[sdb.BSO]{}, err
	}
	return results.Paginated[sdb.BSO]{Items: page, Offset: next}, nil
}

func (c *conn) GetBsoIDs(ctx context.Context, p params.GetBsoIDs) (results.Paginated[string], error) {
	collID, ok := c.resolveCollectionID(p.Collection)
	if !ok {
		return results.Paginated[string]{}, sdb.NewError(sdb.KindCollectionNotFound, nil)
	}
	items, err := c.collectionBSOs(p.UserID, collID)
	if err != nil {
		return results.Paginated[string]{}, err
	}
	items = filterAndSort(items, p.Query)
	ids := make([]string, len(items))
	for i, b := range items {
		ids[i] = b.ID
	}
	page, next, err := paginate(ids, p.Query.Limit, p.Query.Offset)
	if err != nil {
		return results.Paginated[string]{}, err
	}
	return results.Paginated[string]{Items: page, Offset: next}, nil
}

func (c *conn) GetBso(ctx context.Context, p params.GetBso) (results.GetBso, error) {
	collID, ok := c.resolveCollectionID(p.Collection)
	if !ok {
		return nil, sdb.NewError(sdb.KindCollectionNotFound, nil)
	}
	return c.getBsoRecord(p.UserID, collID, p.ID)
}

// usageBucket returns the per-user usage bucket.
func (c *conn) usageBucket(userID uint64, create bool) (*bolt.Bucket, error) {
	ub, err := c.userBucket(userID, create)
	if err != nil || ub == nil {
		return nil, err
	}
	if !create {
		return ub.Bucket(bucketUsage), nil
	}
	return ub.CreateBucketIfNotExists(bucketUsage)
}

func (c *conn) collectionUsage(userID uint64, collID int32) int64 {
	usage, err := c.usageBucket(userID, false)
	if err != nil || usage == nil {
		return 0
	}
	v := usage.Get(collKey(collID))
	if v == nil {
		return 0
	}
	return decodeModifiedValue(v)
}

func (c *conn) addUsage(userID uint64, collID int32, delta int) error {
	if delta == 0 {
		return nil
	}
	usage, err := c.usageBucket(userID, true)
	if err != nil {
		return err
	}
	cur := int64(0)
	if v := usage.Get(collKey(collID)); v != nil {
		cur = decodeModifiedValue(v)
	}
	cur += int64(delta)
	if cur < 0 {
		cur = 0
	}
	return usage.Put(collKey(collID), modifiedValue(cur))
}

func (c *conn) totalUsage(userID uint64) int64 {
	usage, err := c.usageBucket(userID, false)
	if err != nil || usage == nil {
		return 0
	}
	var total int64
	_ = usage.ForEach(func(_, v []byte) error {
		total += decodeModifiedValue(v)
		return nil
	})
	return total
}

// applyPost writes one staged item into (userID, collID)'s bso bucket,
// merging it onto any existing row, and returns the byte-size delta this
// write caused (for usage accounting).
func (c *conn) applyPost(userID uint64, collID int32, item params.PostCollectionBso, ts timestamp.SyncTimestamp) (int, error) {
	ub, err := c.userBucket(userID, true)
	if err != nil {
		return 0, err
	}
	bsoRoot, err := ub.CreateBucketIfNotExists(bucketBso)
	if err != nil {
		return 0, err
	}
	collBucket, err := bsoRoot.CreateBucketIfNotExists(collKey(collID))
	if err != nil {
		return 0, err
	}

	var rec bsoRecord
	oldSize := 0
	if v := collBucket.Get([]byte(item.ID)); v != nil {
		rec, err = decodeBsoRecord(v)
		if err != nil {
			return 0, err
		}
		oldSize = rec.PayloadSize
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
	ttl := c.pool.cfg.MaxTTLSeconds
	if item.TTL != nil {
		ttl = *item.TTL
	}
	rec.Expiry = int64(ts) + int64(ttl)*1000
	rec.Modified = int64(ts)

	data, err := json.Marshal(rec)
	if err != nil {
		return 0, err
	}
	if err := collBucket.Put([]byte(item.ID), data); err != nil {
		return 0, err
	}
	return rec.PayloadSize - oldSize, nil
}

func (c *conn) PutBso(ctx context.Context, p params.PutBso) (timestamp.SyncTimestamp, error) {
	collID, err := c.resolveOrAllocateCollectionID(p.Collection)
	if err != nil {
		return timestamp.Zero, sdb.NewError(sdb.KindInternal, err)
	}
	if p.Payload != nil && c.pool.cfg.MaxPayloadBytes > 0 && len(*p.Payload) > c.pool.cfg.MaxPayloadBytes {
		return timestamp.Zero, sdb.NewError(sdb.KindIntegrity, fmt.Errorf("payload exceeds max_payload_bytes"))
	}
	ts := c.stamp()
	if c.pool.cfg.QuotaEnabled && p.Payload != nil {
		if c.totalUsage(p.UserID)+int64(len(*p.Payload)) > int64(c.pool.cfg.QuotaBytesPerUser) {
			metrics.QuotaRejectionsTotal.Inc()
			return timestamp.Zero, sdb.NewError(sdb.KindQuota, nil)
		}
	}
	delta, err := c.applyPost(p.UserID, collID, params.PostCollectionBso{
		ID: p.ID, SortIndex: p.SortIndex, Payload: p.Payload, TTL: p.TTL,
	}, ts)
	if err != nil {
		return timestamp.Zero, sdb.NewError(sdb.KindInternal, err)
	}
	if err := c.addUsage(p.UserID, collID, delta); err != nil {
		return timestamp.Zero, sdb.NewError(sdb.KindInternal, err)
	}
	if err := c.touchUserCollection(p.UserID, collID, ts); err != nil {
		return timestamp.Zero, sdb.NewError(sdb.KindInternal, err)
	}
	return ts, nil
}

func (c *conn) PostBsos(ctx context.Context, p params.PostBsos) (results.PostBsos, error) {
	collID, err := c.resolveOrAllocateCollectionID(p.Collection)
	if err != nil {
		return results.PostBsos{}, sdb.NewError(sdb.KindInternal, err)
	}
	ts := c.stamp()

	failed := map[string]string{}
	for id, reason := range p.Failed {
		failed[id] = reason
	}

	if c.pool.cfg.QuotaEnabled {
		projected := c.totalUsage(p.UserID)
		for _, item := range p.Bsos {
			if item.Payload != nil {
				projected += int64(len(*item.Payload))
			}
		}
		if projected > int64(c.pool.cfg.QuotaBytesPerUser) {
			metrics.QuotaRejectionsTotal.Inc()
			return results.PostBsos{}, sdb.NewError(sdb.KindQuota, nil)
		}
	}

	var success []string
	for _, item := range p.Bsos {
		if _, ok := failed[item.ID]; ok {
			continue
		}
		if item.Payload != nil && c.pool.cfg.MaxPayloadBytes > 0 && len(*item.Payload) > c.pool.cfg.MaxPayloadBytes {
			failed[item.ID] = "payload too large"
			continue
		}
		delta, err := c.applyPost(p.UserID, collID, item, ts)
		if err != nil {
			return results.PostBsos{}, sdb.NewError(sdb.KindInternal, err)
		}
		if err := c.addUsage(p.UserID, collID, delta); err != nil {
			return results.PostBsos{}, sdb.NewError(sdb.KindInternal, err)
		}
		success = append(success, item.ID)
	}
	if len(success) > 0 {
		if err := c.touchUserCollection(p.UserID, collID, ts); err != nil {
			return results.PostBsos{}, sdb.NewError(sdb.KindInternal, err)
		}
	}
	return results.PostBsos{Modified: ts, Success: success, Failed: failed}, nil
}

func (c *conn) DeleteBsos(ctx context.Context, p params.DeleteBsos) (timestamp.SyncTimestamp, error) {
	collID, ok := c.resolveCollectionID(p.Collection)
	if !ok {
		return timestamp.Zero, sdb.NewError(sdb.KindCollectionNotFound, nil)
	}
	ub, err := c.userBucket(p.UserID, true)
	if err != nil {
		return timestamp.Zero, sdb.NewError(sdb.KindInternal, err)
	}
	bsoRoot, err := ub.CreateBucketIfNotExists(bucketBso)
	if err != nil {
		return timestamp.Zero, sdb.NewError(sdb.KindInternal, err)
	}
	collBucket, err := bsoRoot.CreateBucketIfNotExists(collKey(collID))
	if err != nil {
		return timestamp.Zero, sdb.NewError(sdb.KindInternal, err)
	}
	var matched bool
	for _, id := range p.IDs {
		v := collBucket.Get([]byte(id))
		if v == nil {
			continue
		}
		matched = true
		if rec, err := decodeBsoRecord(v); err == nil {
			_ = c.addUsage(p.UserID, collID, -rec.PayloadSize)
		}
		if err := collBucket.Delete([]byte(id)); err != nil {
			return timestamp.Zero, sdb.NewError(sdb.KindInternal, err)
		}
	}
	if !matched {
		return timestamp.Zero, sdb.NewError(sdb.KindBsoNotFound, nil)
	}
	ts := c.stamp()
	if err := c.touchUserCollection(p.UserID, collID, ts); err != nil {
		return timestamp.Zero, sdb.NewError(sdb.KindInternal, err)
	}
	return ts, nil
}

func (c *conn) DeleteBso(ctx context.Context, p params.DeleteBso) (timestamp.SyncTimestamp, error) {
	collID, ok := c.resolveCollectionID(p.Collection)
	if !ok {
		return timestamp.Zero, sdb.NewError(sdb.KindCollectionNotFound, nil)
	}
	existing, err := c.getBsoRecord(p.UserID, collID, p.ID)
	if err != nil {
		return timestamp.Zero, err
	}
	if existing == nil {
		return timestamp.Zero, sdb.NewError(sdb.KindBsoNotFound, nil)
	}
	return c.DeleteBsos(ctx, params.DeleteBsos{UserID: p.UserID, Collection: p.Collection, IDs: []string{p.ID}})
}
