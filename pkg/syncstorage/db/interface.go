package db

import (
	"context"

	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db/params"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db/results"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/timestamp"
)

// Pool is the capability every storage backend exposes to hand out a
// connection for the lifetime of one request (spec.md §4.3, §5). A
// connection is released back to the pool by the caller's Commit or
// Rollback.
type Pool interface {
	// Get blocks until a connection is available or ctx is done.
	Get(ctx context.Context) (DB, error)
	// Check is a liveness probe independent of any single connection.
	Check(ctx context.Context) (bool, error)
	// Close releases all resources held by the pool.
	Close() error
}

// DB is the full capability set spec.md §4.3 defines: every backend
// (the production bolt-backed store, and the mock) implements it. A DB
// value is bound to one connection and, once Begin has been called, one
// live transaction.
type DB interface {
	// Transaction control (spec.md §4.3, §5).
	Begin(ctx context.Context, forWrite bool) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	LockForRead(ctx context.Context, p params.LockCollection) error
	LockForWrite(ctx context.Context, p params.LockCollection) error
	ExtractResource(ctx context.Context, userID uint64, collection *string, bsoID *string) (timestamp.SyncTimestamp, error)
	Check(ctx context.Context) (bool, error)

	// Read-side.
	GetCollectionTimestamps(ctx context.Context, p params.GetCollectionTimestamps) (map[string]timestamp.SyncTimestamp, error)
	GetCollectionCounts(ctx context.Context, p params.GetCollectionCounts) (map[string]int, error)
	GetCollectionUsage(ctx context.Context, p params.GetCollectionUsage) (map[string]int, error)
	GetStorageTimestamp(ctx context.Context, p params.GetStorageTimestamp) (timestamp.SyncTimestamp, error)
	GetStorageUsage(ctx context.Context, p params.GetStorageUsage) (int, error)
	GetBsos(ctx context.Context, p params.GetBsos) (results.Paginated[BSO], error)
	GetBsoIDs(ctx context.Context, p params.GetBsoIDs) (results.Paginated[string], error)
	GetBso(ctx context.Context, p params.GetBso) (results.GetBso, error)

	// Write-side.
	DeleteStorage(ctx context.Context, p params.DeleteStorage) (timestamp.SyncTimestamp, error)
	DeleteCollection(ctx context.Context, p params.DeleteCollection) (timestamp.SyncTimestamp, error)
	DeleteBsos(ctx context.Context, p params.DeleteBsos) (timestamp.SyncTimestamp, error)
	DeleteBso(ctx context.Context, p params.DeleteBso) (timestamp.SyncTimestamp, error)
	PutBso(ctx context.Context, p params.PutBso) (timestamp.SyncTimestamp, error)
	PostBsos(ctx context.Context, p params.PostBsos) (results.PostBsos, error)

	// Batch.
	CreateBatch(ctx context.Context, p params.CreateBatch) (string, error)
	ValidateBatch(ctx context.Context, p params.ValidateBatch) (bool, error)
	AppendToBatch(ctx context.Context, p params.AppendToBatch) error
	GetBatch(ctx context.Context, p params.GetBatch) (*Batch, error)
	CommitBatch(ctx context.Context, p params.CommitBatch) (results.CommitBatch, error)
}
