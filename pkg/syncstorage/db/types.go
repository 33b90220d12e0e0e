package db

import "github.com/mozilla-services/syncstorage-go/pkg/syncstorage/timestamp"

// BSO is the canonical Basic Storage Object: one record in a user's
// collection, keyed by (user, collection, id). SortIndex is nil when
// the client never set one.
type BSO struct {
	ID          string                  `json:"id"`
	SortIndex   *int                    `json:"sortindex,omitempty"`
	Payload     string                  `json:"payload"`
	PayloadSize int                     `json:"-"`
	Modified    timestamp.SyncTimestamp `json:"modified"`
	Expiry      timestamp.SyncTimestamp `json:"-"`
}

// SortOrder is the client-requested ordering for a collection query.
type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
	SortIndex  SortOrder = "index"
)

// Query describes a bounded, paginated read over a collection's BSOs.
type Query struct {
	Newer  *timestamp.SyncTimestamp
	Older  *timestamp.SyncTimestamp
	IDs    []string
	Limit  int
	Offset string
	Sort   SortOrder
	Full   bool
}

// Batch is a staged multi-request upload: create_batch -> append* ->
// validate -> commit (spec.md §4.5). ID is the batch's creation
// timestamp rendered as a decimal string, which also establishes
// per-user uniqueness under the monotonicity invariant.
type Batch struct {
	ID       string
	Modified timestamp.SyncTimestamp
	BSOs     []BSO
}
