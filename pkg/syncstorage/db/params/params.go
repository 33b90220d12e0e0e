// Package params holds the closed set of parameter records passed
// across the storage backend boundary (spec.md §4.3), one struct per
// operation family.
package params

import (
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db"
)

// PostCollectionBso is one BSO within a post_bsos/batch request body.
// Missing fields (nil SortIndex/TTL, or a nil Payload) leave existing
// fields untouched on an update; on create, Payload defaults to "" and
// TTL defaults to the backend's configured maximum.
type PostCollectionBso struct {
	ID        string
	SortIndex *int
	Payload   *string
	TTL       *int
}

type GetCollectionTimestamps struct{ UserID uint64 }
type GetCollectionCounts struct{ UserID uint64 }
type GetCollectionUsage struct{ UserID uint64 }
type GetStorageTimestamp struct{ UserID uint64 }
type GetStorageUsage struct{ UserID uint64 }

type GetBsos struct {
	UserID     uint64
	Collection string
	Query      db.Query
}

type GetBsoIDs struct {
	UserID     uint64
	Collection string
	Query      db.Query
}

type GetBso struct {
	UserID     uint64
	Collection string
	ID         string
}

type DeleteStorage struct{ UserID uint64 }

type DeleteCollection struct {
	UserID     uint64
	Collection string
}

type DeleteBsos struct {
	UserID     uint64
	Collection string
	IDs        []string
}

type DeleteBso struct {
	UserID     uint64
	Collection string
	ID         string
}

type PutBso struct {
	UserID     uint64
	Collection string
	ID         string
	SortIndex  *int
	Payload    *string
	TTL        *int
}

type PostBsos struct {
	UserID     uint64
	Collection string
	Bsos       []PostCollectionBso
	// Failed carries ids the transport layer already rejected (e.g.
	// malformed payloads) before this request reached the backend; they
	// pass through untouched into the response's Failed map.
	Failed map[string]string
}

type CreateBatch struct {
	UserID     uint64
	Collection string
	Bsos       []PostCollectionBso
}

type ValidateBatch struct {
	UserID     uint64
	Collection string
	ID         string
}

type AppendToBatch struct {
	UserID     uint64
	Collection string
	ID         string
	Bsos       []PostCollectionBso
}

type GetBatch struct {
	UserID     uint64
	Collection string
	ID         string
}

type CommitBatch struct {
	UserID     uint64
	Collection string
	Batch      db.Batch
	// Pending carries rows submitted in the same request as the commit
	// flag, not yet staged onto Batch (the adapter's write-straight-
	// through optimization for commit-with-pending-items); the backend
	// must size-check and apply these together with Batch.BSOs.
	Pending []PostCollectionBso
}

type LockCollection struct {
	UserID     uint64
	Collection string
}
