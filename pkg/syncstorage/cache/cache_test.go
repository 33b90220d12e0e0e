package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeededReservedCollections(t *testing.T) {
	c := New()
	id, ok := c.GetID("bookmarks")
	assert.True(t, ok)
	assert.Equal(t, int32(7), id)

	name, ok := c.GetName(7)
	assert.True(t, ok)
	assert.Equal(t, "bookmarks", name)
}

func TestGetMissReturnsFalse(t *testing.T) {
	c := New()
	_, ok := c.GetID("nonesuch")
	assert.False(t, ok)
	_, ok = c.GetName(999)
	assert.False(t, ok)
}

func TestPutUpsertsBothDirections(t *testing.T) {
	c := New()
	c.Put(FirstAllocatableID, "custom")

	id, ok := c.GetID("custom")
	assert.True(t, ok)
	assert.Equal(t, FirstAllocatableID, id)

	name, ok := c.GetName(FirstAllocatableID)
	assert.True(t, ok)
	assert.Equal(t, "custom", name)
}

func TestConcurrentPutAndGet(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := int32(0); i < 100; i++ {
		wg.Add(1)
		go func(i int32) {
			defer wg.Done()
			id := FirstAllocatableID + i
			c.Put(id, "name")
			_, _ = c.GetID("name")
			_, _ = c.GetName(id)
		}(i)
	}
	wg.Wait()
}
