package boltdb

// Bucket layout. Every bucket below "users/<uid>/" is created lazily,
// on the first write that needs it; readers treat a missing bucket as
// an empty table, never as an error.
//
//	collections/                        name (string)        -> id (4B BE)
//	    global registry, the durable backing for pkg/syncstorage/cache;
//	    the in-memory Cache is seeded from this bucket at startup and
//	    kept in sync on every allocation.
//
//	users/<uid:8B BE>/
//	    collections/                     collection id (4B BE) -> modified (8B BE)
//	        the user_collections table: one row per collection the user
//	        has ever written to, holding that collection's last-modified
//	        timestamp.
//	    usage/                           collection id (4B BE) -> total bytes (8B BE)
//	        dedicated cumulative payload-size accounting per collection,
//	        updated on every put/delete so get_collection_usage and
//	        get_storage_usage never scan the bso table itself.
//	    bso/<collection id:4B BE>/       bso id (string)       -> JSON(bsoRecord)
//	        one nested bucket per collection, holding that collection's
//	        rows.
//	    batches/<collection id:4B BE>/   batch id (string)     -> JSON(batchRecord)
//	        staged batch uploads, see batch.go.
var (
	bucketCollections = []byte("collections")
	bucketUsers       = []byte("users")
	bucketUserColls   = []byte("collections")
	bucketUsage       = []byte("usage")
	bucketBso         = []byte("bso")
	bucketBatches     = []byte("batches")
)
