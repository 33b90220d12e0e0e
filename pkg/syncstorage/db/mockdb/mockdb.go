// Package mockdb provides a default-valued stub realization of the
// storage backend interface, used only by tests. It is the Go
// translation of original_source/src/db/mock.rs's `mock_db_method!`
// macro: every method returns its result type's zero value and a nil
// error; Begin/Commit/Rollback/Check always succeed.
package mockdb

import (
	"context"

	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db/params"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db/results"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/timestamp"
)

// Pool hands out MockDB connections; it never blocks and never errors.
type Pool struct{}

// New returns a new mock pool.
func New() *Pool {
	return &Pool{}
}

func (*Pool) Get(context.Context) (db.DB, error)   { return &MockDB{}, nil }
func (*Pool) Check(context.Context) (bool, error)  { return true, nil }
func (*Pool) Close() error                         { return nil }

// MockDB implements db.DB with every method returning a zero value.
type MockDB struct{}

func (*MockDB) Begin(context.Context, bool) error   { return nil }
func (*MockDB) Commit(context.Context) error        { return nil }
func (*MockDB) Rollback(context.Context) error      { return nil }
func (*MockDB) Check(context.Context) (bool, error) { return true, nil }

func (*MockDB) LockForRead(context.Context, params.LockCollection) error  { return nil }
func (*MockDB) LockForWrite(context.Context, params.LockCollection) error { return nil }

func (*MockDB) ExtractResource(context.Context, uint64, *string, *string) (timestamp.SyncTimestamp, error) {
	return timestamp.Zero, nil
}

func (*MockDB) GetCollectionTimestamps(context.Context, params.GetCollectionTimestamps) (map[string]timestamp.SyncTimestamp, error) {
	return map[string]timestamp.SyncTimestamp{}, nil
}

func (*MockDB) GetCollectionCounts(context.Context, params.GetCollectionCounts) (map[string]int, error) {
	return map[string]int{}, nil
}

func (*MockDB) GetCollectionUsage(context.Context, params.GetCollectionUsage) (map[string]int, error) {
	return map[string]int{}, nil
}

func (*MockDB) GetStorageTimestamp(context.Context, params.GetStorageTimestamp) (timestamp.SyncTimestamp, error) {
	return timestamp.Zero, nil
}

func (*MockDB) GetStorageUsage(context.Context, params.GetStorageUsage) (int, error) {
	return 0, nil
}

func (*MockDB) GetBsos(context.Context, params.GetBsos) (results.Paginated[db.BSO], error) {
	return results.Paginated[db.BSO]{}, nil
}

func (*MockDB) GetBsoIDs(context.Context, params.GetBsoIDs) (results.Paginated[string], error) {
	return results.Paginated[string]{}, nil
}

func (*MockDB) GetBso(context.Context, params.GetBso) (results.GetBso, error) {
	return nil, nil
}

func (*MockDB) DeleteStorage(context.Context, params.DeleteStorage) (timestamp.SyncTimestamp, error) {
	return timestamp.Zero, nil
}

func (*MockDB) DeleteCollection(context.Context, params.DeleteCollection) (timestamp.SyncTimestamp, error) {
	return timestamp.Zero, nil
}

func (*MockDB) DeleteBsos(context.Context, params.DeleteBsos) (timestamp.SyncTimestamp, error) {
	return timestamp.Zero, nil
}

func (*MockDB) DeleteBso(context.Context, params.DeleteBso) (timestamp.SyncTimestamp, error) {
	return timestamp.Zero, nil
}

func (*MockDB) PutBso(context.Context, params.PutBso) (timestamp.SyncTimestamp, error) {
	return timestamp.Zero, nil
}

func (*MockDB) PostBsos(context.Context, params.PostBsos) (results.PostBsos, error) {
	return results.PostBsos{Failed: map[string]string{}}, nil
}

func (*MockDB) CreateBatch(context.Context, params.CreateBatch) (string, error) {
	return "", nil
}

func (*MockDB) ValidateBatch(context.Context, params.ValidateBatch) (bool, error) {
	return false, nil
}

func (*MockDB) AppendToBatch(context.Context, params.AppendToBatch) error {
	return nil
}

func (*MockDB) GetBatch(context.Context, params.GetBatch) (*db.Batch, error) {
	return nil, nil
}

func (*MockDB) CommitBatch(context.Context, params.CommitBatch) (results.CommitBatch, error) {
	return results.CommitBatch{}, nil
}

var _ db.Pool = (*Pool)(nil)
var _ db.DB = (*MockDB)(nil)
