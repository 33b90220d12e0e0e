package boltdb

// Config holds the knobs spec.md §6 lists under "Configuration", minus
// the ones that belong to the (out-of-scope) transport layer.
type Config struct {
	// DataDir is where the backing bbolt file is created. Named to
	// echo spec.md's database_url, since this is the one setting that
	// tells the backend where its durable state lives.
	DataDir string

	// PoolMaxSize bounds how many logical connections (semaphore
	// permits) may be checked out at once.
	PoolMaxSize int

	// BatchTTLSeconds bounds how long a staged batch stays valid.
	BatchTTLSeconds int64

	// MaxPayloadBytes bounds a single BSO's payload size. Enforced by
	// the (out-of-scope) request layer before a put/post reaches the
	// backend; carried here so the backend can also enforce it
	// defensively on direct PutBso/PostBsos calls. Staged batch rows are
	// not checked against it.
	MaxPayloadBytes int

	// MaxTTLSeconds is the TTL a put_bso/post_bsos call uses when the
	// client didn't supply one.
	MaxTTLSeconds int

	// QuotaEnabled turns on the per-user payload_size ceiling.
	QuotaEnabled bool
	// QuotaBytesPerUser is that ceiling.
	QuotaBytesPerUser int

	// MaxTotalRecords and MaxTotalBytes bound a single batch commit,
	// when non-zero (spec.md §9's second Open Question: this was only
	// a TODO upstream, SPEC_FULL.md §4.5 resolves it to "enforce when
	// configured").
	MaxTotalRecords int
	MaxTotalBytes   int
}

// DefaultConfig returns the configuration used when no overrides are
// supplied, matching the original service's defaults (2MB payloads,
// 2-week max TTL).
func DefaultConfig(dataDir string) Config {
	return Config{
		DataDir:           dataDir,
		PoolMaxSize:       10,
		BatchTTLSeconds:   2 * 60 * 60,
		MaxPayloadBytes:   2 * 1024 * 1024,
		MaxTTLSeconds:     14 * 24 * 60 * 60,
		QuotaEnabled:      false,
		QuotaBytesPerUser: 2 * 1024 * 1024 * 1024,
		MaxTotalRecords:   0,
		MaxTotalBytes:     0,
	}
}
