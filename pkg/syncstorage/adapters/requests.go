package adapters

import "github.com/mozilla-services/syncstorage-go/pkg/syncstorage/db"

// ReplyFormat selects get_collection's body encoding, carried over from
// original_source/src/web/extractors.rs's Accept-header negotiation
// (application/json vs application/newlines).
type ReplyFormat int

const (
	ReplyJSON ReplyFormat = iota
	ReplyNewlines
)

// CollectionRequest is get_collection/delete_collection's parameter set.
type CollectionRequest struct {
	Meta
	Collection string
	Query      db.Query
	Reply      ReplyFormat
}

// ValidatedBsos splits a post_collection body into rows the transport
// layer already accepted and ones it already rejected (malformed ids,
// oversized payloads) before reaching the backend.
type ValidatedBsos struct {
	Valid   []PostCollectionBso
	Invalid map[string]string
}

// PostCollectionBso mirrors params.PostCollectionBso; kept as a
// separate type at the adapter boundary the way the original's
// BatchBsoBody duplicates PostCollectionBso, so the transport layer
// never needs to import the backend's params package directly.
type PostCollectionBso struct {
	ID        string
	SortIndex *int
	Payload   *string
	TTL       *int
}

// BatchRequest is post_collection's optional ?batch=... query parameter.
type BatchRequest struct {
	ID     *string
	Commit bool
}

// CollectionPostRequest is post_collection/post_collection_batch's
// parameter set.
type CollectionPostRequest struct {
	Meta
	Collection string
	Bsos       ValidatedBsos
	Batch      *BatchRequest
}

// BsoRequest is delete_bso/get_bso's parameter set.
type BsoRequest struct {
	Meta
	Collection string
	BsoID      string
}

// BsoPutRequest is put_bso's parameter set.
type BsoPutRequest struct {
	BsoRequest
	SortIndex *int
	Payload   *string
	TTL       *int
}

// Limits is get_configuration's body: the server's advertised request
// limits, sourced from pkg/config.
type Limits struct {
	MaxPayloadBytes  int `json:"max_post_bytes"`
	MaxTotalBytes    int `json:"max_total_bytes"`
	MaxTotalRecords  int `json:"max_total_records"`
	MaxRequestBytes  int `json:"max_request_bytes"`
	MaxRecordPayload int `json:"max_record_payload_bytes"`
}

// ConfigRequest is get_configuration's parameter set.
type ConfigRequest struct {
	Limits Limits
}

// HeartbeatRequest is heartbeat's parameter set.
type HeartbeatRequest struct {
	DB      db.DB
	Version string
}
