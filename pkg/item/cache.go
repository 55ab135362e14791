package item

import (
	"sync"

	"github.com/google/btree"
)

const indexDegree = 8

// Cache holds the mount's in-memory metadata items. Clean and dirty items
// live in two ordered indexes guarded by a single lock; dirty items shadow
// their clean counterparts until written back.
type Cache struct {
	mu    sync.Mutex
	items *btree.BTreeG[Item]
	dirty *btree.BTreeG[Item]
}

func NewCache() *Cache {
	return &Cache{
		items: btree.NewG(indexDegree, less),
		dirty: btree.NewG(indexDegree, less),
	}
}

// Insert adds or replaces a clean item.
func (c *Cache) Insert(it Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.ReplaceOrInsert(it)
}

// InsertDirty adds or replaces an item pending write-back.
func (c *Cache) InsertDirty(it Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty.ReplaceOrInsert(it)
}

func (c *Cache) Lookup(key Key) (Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if it, ok := c.dirty.Get(Item{Key: key}); ok {
		return it, true
	}
	return c.items.Get(Item{Key: key})
}

// Clean moves a dirty item into the clean index, e.g. after write-back.
func (c *Cache) Clean(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.dirty.Delete(Item{Key: key})
	if !ok {
		return false
	}
	c.items.ReplaceOrInsert(it)
	return true
}

// Delete removes the item from both indexes.
func (c *Cache) Delete(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, cleanOK := c.items.Delete(Item{Key: key})
	_, dirtyOK := c.dirty.Delete(Item{Key: key})
	return cleanOK || dirtyOK
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Len()
}

func (c *Cache) DirtyLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty.Len()
}

// AscendClean visits clean items in key order while fn returns true.
func (c *Cache) AscendClean(fn func(Item) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Ascend(btree.ItemIteratorG[Item](fn))
}

// AscendDirty visits dirty items in key order while fn returns true.
func (c *Cache) AscendDirty(fn func(Item) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty.Ascend(btree.ItemIteratorG[Item](fn))
}
