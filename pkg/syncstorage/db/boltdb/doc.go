// Package boltdb implements the storage backend interface (pkg/syncstorage/db)
// over an embedded bbolt database. It stands in for the distributed
// relational store (MySQL/Spanner) the original service ran against,
// giving the same schema shape (spec.md §6) but one strongly-consistent
// embedded file instead of a cluster: four logical tables —
// collections, user_collections, bso, batches — each modeled as a
// nested bucket hierarchy (schema.go).
//
// A Pool owns the single *bolt.DB handle, a semaphore sized to
// pool_max_size standing in for a connection limit bbolt itself doesn't
// need, a striped per-(user, collection) lock table taken through
// LockForRead/LockForWrite (Begin takes no collection lock, and bbolt
// still admits one write transaction at a time), and the one
// timestamp.Source for the whole store. Every value handed out by Get
// binds one bbolt transaction to one request.
package boltdb
