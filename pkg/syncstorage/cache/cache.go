// Package cache implements the in-memory collection name/id cache
// shared by every connection the production backend hands out.
//
// It is seeded at construction with the closed set of reserved
// collections and protects its bidirectional mapping with a single
// lock, following spec.md §9's warning against the teacher's own
// two-lock CollectionCache (original_source/src/db/spanner/pool.go),
// which can let a reader observe one half of a new (id, name) pairing.
package cache

import "sync"

// reservedCollections is the closed set of well-known collections,
// bound to their historical reserved ids.
var reservedCollections = map[string]int32{
	"clients":     1,
	"crypto":      2,
	"forms":       3,
	"history":     4,
	"keys":        5,
	"meta":        6,
	"bookmarks":   7,
	"prefs":       8,
	"tabs":        9,
	"passwords":   10,
	"addons":      11,
	"addresses":   12,
	"creditcards": 13,
}

// FirstAllocatableID is the first id the backend may assign to a
// newly-seen collection name; ids below it are reserved.
const FirstAllocatableID int32 = 100

// Cache is a bidirectional name<->id mapping, safe for concurrent use.
type Cache struct {
	mu     sync.RWMutex
	byName map[string]int32
	byID   map[int32]string
}

// New returns a Cache seeded with the reserved collections.
func New() *Cache {
	c := &Cache{
		byName: make(map[string]int32, len(reservedCollections)+16),
		byID:   make(map[int32]string, len(reservedCollections)+16),
	}
	for name, id := range reservedCollections {
		c.byName[name] = id
		c.byID[id] = name
	}
	return c
}

// GetID returns the id bound to name, if any. Never fails.
func (c *Cache) GetID(name string) (int32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byName[name]
	return id, ok
}

// GetName returns the name bound to id, if any. Never fails.
func (c *Cache) GetName(id int32) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.byID[id]
	return name, ok
}

// Put upserts both directions of the (id, name) pairing atomically with
// respect to readers: the single write lock below means no reader ever
// observes only one half of a new pairing.
func (c *Cache) Put(id int32, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byName[name] = id
	c.byID[id] = name
}
