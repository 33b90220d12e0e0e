package boltdb

import (
	"context"
	"sync"

	bolt "go.etcd.io/bbolt"

	sdb "github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db/params"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/timestamp"
)

// heldLock remembers a collection lock acquired during this connection's
// transaction so Commit/Rollback can release it.
type heldLock struct {
	mu    *sync.RWMutex
	write bool
}

// conn is one checked-out connection: a bolt transaction plus whatever
// collection locks it is holding. It implements db.DB. Not safe for
// concurrent use — exactly like the single request it is bound to.
type conn struct {
	pool *Pool
	tx   *bolt.Tx

	held []heldLock

	// modified is the timestamp this transaction's writes (if any) were
	// stamped with; taken lazily on the first write so a read-only
	// transaction never advances the clock.
	modified timestamp.SyncTimestamp
}

func (c *conn) Begin(ctx context.Context, forWrite bool) error {
	tx, err := c.pool.bdb.Begin(forWrite)
	if err != nil {
		return sdb.NewError(sdb.KindInternal, err)
	}
	c.tx = tx
	return nil
}

func (c *conn) Commit(ctx context.Context) error {
	err := c.tx.Commit()
	c.releaseLocks()
	c.pool.release()
	if err != nil {
		return sdb.NewError(sdb.KindInternal, err)
	}
	return nil
}

func (c *conn) Rollback(ctx context.Context) error {
	err := c.tx.Rollback()
	c.releaseLocks()
	c.pool.release()
	if err != nil {
		return sdb.NewError(sdb.KindInternal, err)
	}
	return nil
}

func (c *conn) releaseLocks() {
	// Release in reverse acquisition order.
	for i := len(c.held) - 1; i >= 0; i-- {
		h := c.held[i]
		if h.write {
			h.mu.Unlock()
		} else {
			h.mu.RUnlock()
		}
	}
	c.held = nil
}

func (c *conn) LockForRead(ctx context.Context, p params.LockCollection) error {
	mu := c.pool.lockFor(p.UserID, p.Collection)
	mu.RLock()
	c.held = append(c.held, heldLock{mu: mu, write: false})
	return nil
}

func (c *conn) LockForWrite(ctx context.Context, p params.LockCollection) error {
	mu := c.pool.lockFor(p.UserID, p.Collection)
	mu.Lock()
	c.held = append(c.held, heldLock{mu: mu, write: true})
	return nil
}

func (c *conn) Check(ctx context.Context) (bool, error) {
	return c.pool.Check(ctx)
}

// stamp returns this transaction's shared modified timestamp, minting it
// from the pool's clock on first use so every write inside one
// transaction carries the exact same value (spec.md §4.2).
func (c *conn) stamp() timestamp.SyncTimestamp {
	if c.modified == timestamp.Zero {
		c.modified = c.pool.now()
	}
	return c.modified
}

// ExtractResource resolves the precondition/last-modified timestamp for
// the narrowest resource named: a single BSO if bsoID is set, else a
// collection if collection is set, else the whole storage for the user
// (spec.md §4.3).
func (c *conn) ExtractResource(ctx context.Context, userID uint64, collection *string, bsoID *string) (timestamp.SyncTimestamp, error) {
	if collection != nil && bsoID != nil {
		collID, ok := c.resolveCollectionID(*collection)
		if !ok {
			return timestamp.Zero, sdb.NewError(sdb.KindCollectionNotFound, nil)
		}
		bso, err := c.getBsoRecord(userID, collID, *bsoID)
		if err != nil {
			return timestamp.Zero, err
		}
		if bso == nil {
			return timestamp.Zero, sdb.NewError(sdb.KindBsoNotFound, nil)
		}
		return bso.Modified, nil
	}
	if collection != nil {
		collID, ok := c.resolveCollectionID(*collection)
		if !ok {
			return timestamp.Zero, sdb.NewError(sdb.KindCollectionNotFound, nil)
		}
		ts, ok := c.userCollectionModified(userID, collID)
		if !ok {
			return timestamp.Zero, sdb.NewError(sdb.KindCollectionNotFound, nil)
		}
		return ts, nil
	}
	return c.storageModified(userID), nil
}

var _ sdb.DB = (*conn)(nil)
