package boltdb

import (
	"context"

	bolt "go.etcd.io/bbolt"

	sdb "github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db/params"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/timestamp"
)

// resolveCollectionID looks a collection name up, cache first then the
// persisted registry, without allocating. Used by every read path.
func (c *conn) resolveCollectionID(name string) (int32, bool) {
	if id, ok := c.pool.cache.GetID(name); ok {
		return id, true
	}
	colls := c.tx.Bucket(bucketCollections)
	if colls == nil {
		return 0, false
	}
	v := colls.Get([]byte(name))
	if v == nil {
		return 0, false
	}
	id := decodeCollKey(v)
	c.pool.cache.Put(id, name)
	return id, true
}

// resolveOrAllocateCollectionID is resolveCollectionID's write-path
// counterpart: an unknown name is assigned the next free id and
// persisted, rather than reported missing (spec.md §4.3: writing to a
// never-seen collection implicitly creates it).
func (c *conn) resolveOrAllocateCollectionID(name string) (int32, error) {
	if id, ok := c.resolveCollectionID(name); ok {
		return id, nil
	}
	return c.pool.allocateCollectionID(c.tx, name)
}

// userBucket returns the per-user bucket, creating it (and its path)
// when create is true and tx is a write transaction.
func (c *conn) userBucket(userID uint64, create bool) (*bolt.Bucket, error) {
	users := c.tx.Bucket(bucketUsers)
	b := users.Bucket(userKey(userID))
	if b != nil || !create {
		return b, nil
	}
	return users.CreateBucketIfNotExists(userKey(userID))
}

func (c *conn) userCollectionModified(userID uint64, collID int32) (timestamp.SyncTimestamp, bool) {
	ub, err := c.userBucket(userID, false)
	if err != nil || ub == nil {
		return timestamp.Zero, false
	}
	uc := ub.Bucket(bucketUserColls)
	if uc == nil {
		return timestamp.Zero, false
	}
	v := uc.Get(collKey(collID))
	if v == nil {
		return timestamp.Zero, false
	}
	return timestamp.SyncTimestamp(decodeModifiedValue(v)), true
}

// storageModified is the max modified timestamp across every collection
// the user owns, or Zero if the user has never written anything.
func (c *conn) storageModified(userID uint64) timestamp.SyncTimestamp {
	ub, err := c.userBucket(userID, false)
	if err != nil || ub == nil {
		return timestamp.Zero
	}
	uc := ub.Bucket(bucketUserColls)
	if uc == nil {
		return timestamp.Zero
	}
	var max timestamp.SyncTimestamp
	_ = uc.ForEach(func(_, v []byte) error {
		ts := timestamp.SyncTimestamp(decodeModifiedValue(v))
		if ts > max {
			max = ts
		}
		return nil
	})
	return max
}

// touchUserCollection stamps collID's modified timestamp for userID to
// ts, creating the user's bucket tree as needed.
func (c *conn) touchUserCollection(userID uint64, collID int32, ts timestamp.SyncTimestamp) error {
	ub, err := c.userBucket(userID, true)
	if err != nil {
		return err
	}
	uc, err := ub.CreateBucketIfNotExists(bucketUserColls)
	if err != nil {
		return err
	}
	return uc.Put(collKey(collID), modifiedValue(int64(ts)))
}

func (c *conn) GetCollectionTimestamps(ctx context.Context, p params.GetCollectionTimestamps) (map[string]timestamp.SyncTimestamp, error) {
	out := map[string]timestamp.SyncTimestamp{}
	ub, err := c.userBucket(p.UserID, false)
	if err != nil || ub == nil {
		return out, nil
	}
	uc := ub.Bucket(bucketUserColls)
	if uc == nil {
		return out, nil
	}
	err = uc.ForEach(func(k, v []byte) error {
		id := decodeCollKey(k)
		name, ok := c.pool.cache.GetName(id)
		if !ok {
			return nil
		}
		out[name] = timestamp.SyncTimestamp(decodeModifiedValue(v))
		return nil
	})
	if err != nil {
		return nil, sdb.NewError(sdb.KindInternal, err)
	}
	return out, nil
}

func (c *conn) GetCollectionCounts(ctx context.Context, p params.GetCollectionCounts) (map[string]int, error) {
	out := map[string]int{}
	ub, err := c.userBucket(p.UserID, false)
	if err != nil || ub == nil {
		return out, nil
	}
	bsoRoot := ub.Bucket(bucketBso)
	if bsoRoot == nil {
		return out, nil
	}
	now := timestamp.FromTime(nowFunc())
	rootCur := bsoRoot.Cursor()
	for ck, cv := rootCur.First(); ck != nil; ck, cv = rootCur.Next() {
		if cv != nil {
			continue // not a nested bucket
		}
		collBucket := bsoRoot.Bucket(ck)
		id := decodeCollKey(ck)
		name, ok := c.pool.cache.GetName(id)
		if !ok {
			continue
		}
		n := 0
		cur := collBucket.Cursor()
		for k, v := cur.First(); k != nil; k, v = cur.Next() {
			rec, err := decodeBsoRecord(v)
			if err == nil && !isExpired(rec, now) {
				n++
			}
		}
		out[name] = n
	}
	return out, nil
}

func (c *conn) GetCollectionUsage(ctx context.Context, p params.GetCollectionUsage) (map[string]int, error) {
	out := map[string]int{}
	ub, err := c.userBucket(p.UserID, false)
	if err != nil || ub == nil {
		return out, nil
	}
	usage := ub.Bucket(bucketUsage)
	if usage == nil {
		return out, nil
	}
	err = usage.ForEach(func(k, v []byte) error {
		id := decodeCollKey(k)
		name, ok := c.pool.cache.GetName(id)
		if !ok {
			return nil
		}
		out[name] = int(decodeModifiedValue(v))
		return nil
	})
	if err != nil {
		return nil, sdb.NewError(sdb.KindInternal, err)
	}
	return out, nil
}

func (c *conn) GetStorageTimestamp(ctx context.Context, p params.GetStorageTimestamp) (timestamp.SyncTimestamp, error) {
	return c.storageModified(p.UserID), nil
}

func (c *conn) GetStorageUsage(ctx context.Context, p params.GetStorageUsage) (int, error) {
	usages, err := c.GetCollectionUsage(ctx, params.GetCollectionUsage{UserID: p.UserID})
	if err != nil {
		return 0, err
	}
	total := 0
	for _, v := range usages {
		total += v
	}
	return total, nil
}

func (c *conn) DeleteStorage(ctx context.Context, p params.DeleteStorage) (timestamp.SyncTimestamp, error) {
	users := c.tx.Bucket(bucketUsers)
	if err := users.DeleteBucket(userKey(p.UserID)); err != nil && err != bolt.ErrBucketNotFound {
		return timestamp.Zero, sdb.NewError(sdb.KindInternal, err)
	}
	return c.stamp(), nil
}

func (c *conn) DeleteCollection(ctx context.Context, p params.DeleteCollection) (timestamp.SyncTimestamp, error) {
	ts := c.stamp()
	collID, ok := c.resolveCollectionID(p.Collection)
	if !ok {
		// Deleting an absent collection is a no-op that still reports
		// the storage's current timestamp (DESIGN.md, "Open Question
		// resolutions").
		return c.storageModified(p.UserID), nil
	}
	ub, err := c.userBucket(p.UserID, false)
	if err != nil || ub == nil {
		return c.storageModified(p.UserID), nil
	}
	if bsoRoot := ub.Bucket(bucketBso); bsoRoot != nil {
		if err := bsoRoot.DeleteBucket(collKey(collID)); err != nil && err != bolt.ErrBucketNotFound {
			return timestamp.Zero, sdb.NewError(sdb.KindInternal, err)
		}
	}
	if usage := ub.Bucket(bucketUsage); usage != nil {
		_ = usage.Delete(collKey(collID))
	}
	if uc := ub.Bucket(bucketUserColls); uc != nil {
		_ = uc.Delete(collKey(collID))
	}
	return ts, nil
}

// nowFunc is the wall clock used for expiry checks; it is a variable so
// a test can substitute a fixed clock.
var nowFunc = defaultNow
