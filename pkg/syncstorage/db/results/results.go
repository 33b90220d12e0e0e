// Package results holds the closed set of result records returned
// across the storage backend boundary (spec.md §4.3).
package results

import (
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db"
	"github.com/mozilla-services/syncstorage-go/pkg/syncstorage/timestamp"
)

// Paginated wraps a page of results with the opaque continuation token
// backends must round-trip exactly; a nil Offset means the page is the
// last one.
type Paginated[T any] struct {
	Items  []T
	Offset *string
}

// PostBsos is the result of post_bsos: the shared modification
// timestamp plus per-id success/failure.
type PostBsos struct {
	Modified timestamp.SyncTimestamp
	Success  []string
	Failed   map[string]string
}

// CommitBatch is the result of commit_batch.
type CommitBatch struct {
	Modified timestamp.SyncTimestamp
}

// GetBso is the result of get_bso: the full BSO, or nil if absent/expired.
type GetBso = *db.BSO
