package boltdb

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	bolt "go.etcd.io/bbolt"
	"golang.org/x/sync/semaphore"

	"github.com/mozilla-services/syncstorage-go/pkg/log"
	"github.com/mozilla-services/syncstorage-go/pkg/metrics"
	sdb "github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/cache"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/timestamp"
)

// Pool is the bolt-backed realization of db.Pool. It holds exactly one
// *bolt.DB; Get does not open a new connection so much as reserve a
// permit to use it, the same behavioral contract spec.md §5 describes
// for a pooled relational driver.
type Pool struct {
	cfg Config
	bdb *bolt.DB
	sem *semaphore.Weighted

	cache *cache.Cache

	tsMu sync.Mutex
	ts   *timestamp.Source

	nextIDMu sync.Mutex
	nextID   int32

	locks sync.Map // map[string]*sync.RWMutex, keyed by "<uid>/<collection>"
}

// Open creates (or reopens) the bolt file under cfg.DataDir and returns
// a ready Pool, its in-memory collection cache seeded from the
// "collections" bucket.
func Open(cfg Config) (*Pool, error) {
	path := filepath.Join(cfg.DataDir, "syncstorage.db")
	bdb, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("boltdb: open %s: %w", path, err)
	}

	p := &Pool{
		cfg:    cfg,
		bdb:    bdb,
		sem:    semaphore.NewWeighted(int64(cfg.PoolMaxSize)),
		cache:  cache.New(),
		ts:     timestamp.NewSource(),
		nextID: cache.FirstAllocatableID,
	}

	if err := p.bootstrap(); err != nil {
		bdb.Close()
		return nil, err
	}
	log.WithComponent("boltdb").Info().Str("path", path).Int("pool_max_size", cfg.PoolMaxSize).Msg("pool opened")
	return p, nil
}

// bootstrap creates the top-level buckets if absent and seeds the
// collection cache and id allocator from whatever the "collections"
// bucket already holds.
func (p *Pool) bootstrap() error {
	return p.bdb.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketCollections); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketUsers); err != nil {
			return err
		}
		colls := tx.Bucket(bucketCollections)
		return colls.ForEach(func(k, v []byte) error {
			id := decodeCollKey(v)
			p.cache.Put(id, string(k))
			if id >= p.nextID {
				p.nextID = id + 1
			}
			return nil
		})
	})
}

// Get acquires a permit and returns a connection bound to no
// transaction yet; the caller must call Begin before using it.
func (p *Pool) Get(ctx context.Context) (sdb.DB, error) {
	timer := metrics.NewTimer()
	err := p.sem.Acquire(ctx, 1)
	timer.ObserveDuration(metrics.PoolAcquireDuration)
	if err != nil {
		return nil, sdb.NewError(sdb.KindInternal, err)
	}
	metrics.PoolInUse.Inc()
	return &conn{pool: p}, nil
}

// release returns a permit to the pool, called once per Get on either
// Commit or Rollback.
func (p *Pool) release() {
	metrics.PoolInUse.Dec()
	p.sem.Release(1)
}

// Check is a liveness probe: it opens a read-only transaction and
// checks that the top-level users bucket exists.
func (p *Pool) Check(ctx context.Context) (bool, error) {
	err := p.bdb.View(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketUsers) == nil {
			return fmt.Errorf("boltdb: missing users bucket")
		}
		return nil
	})
	if err != nil {
		return false, sdb.NewError(sdb.KindInternal, err)
	}
	return true, nil
}

// Close releases the underlying bolt file. It does not wait for
// outstanding permits; callers drain in-flight requests first.
func (p *Pool) Close() error {
	return p.bdb.Close()
}

// lockFor returns the striped RWMutex for (userID, collection), creating
// it on first use. The table only ever grows, which is fine: one entry
// per collection name a user has touched is bounded by the size of the
// collection namespace itself.
func (p *Pool) lockFor(userID uint64, collection string) *sync.RWMutex {
	key := fmt.Sprintf("%d/%s", userID, collection)
	v, _ := p.locks.LoadOrStore(key, &sync.RWMutex{})
	return v.(*sync.RWMutex)
}

// allocateCollectionID assigns the next free id and persists it,
// updating the cache under the same bolt write transaction so a crash
// between the two never happens.
func (p *Pool) allocateCollectionID(tx *bolt.Tx, name string) (int32, error) {
	p.nextIDMu.Lock()
	id := p.nextID
	p.nextID++
	p.nextIDMu.Unlock()

	colls := tx.Bucket(bucketCollections)
	if err := colls.Put([]byte(name), collKey(id)); err != nil {
		return 0, err
	}
	p.cache.Put(id, name)
	return id, nil
}

// now returns the next strictly-increasing timestamp for this pool,
// serialized the same way every other shared resource here is.
func (p *Pool) now() timestamp.SyncTimestamp {
	p.tsMu.Lock()
	defer p.tsMu.Unlock()
	return p.ts.Now()
}

func (p *Pool) observe(ts timestamp.SyncTimestamp) {
	p.tsMu.Lock()
	defer p.tsMu.Unlock()
	p.ts.Observe(ts)
}

var _ sdb.Pool = (*Pool)(nil)
