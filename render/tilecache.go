package render

import (
	"fmt"
	"slices"
	"sync"

	"github.com/eak1mov/go-mapsforge/cache"
	"github.com/eak1mov/go-mapsforge/tile"
)

// TileStore persists encoded tiles.
type TileStore interface {
	tile.Reader
	tile.Writer
}

// TileCache keeps recently encoded tiles in memory in front of an optional
// persistent store. It is safe for concurrent use.
type TileCache struct {
	mu     sync.Mutex
	memory *cache.LRU[tile.ID, []byte]
	store  TileStore
}

// NewTileCache returns a cache holding up to capacity tiles in memory.
// store may be nil.
func NewTileCache(capacity int, store TileStore) (*TileCache, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("tile cache: %w: %d", cache.ErrInvalidCapacity, capacity)
	}
	return &TileCache{memory: cache.New[tile.ID, []byte](capacity), store: store}, nil
}

// Get returns the tile data, or an empty slice if the tile is not cached.
func (c *TileCache) Get(id tile.ID) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if data, ok := c.memory.Get(id); ok {
		return data, nil
	}
	if c.store == nil {
		return nil, nil
	}
	data, err := c.store.ReadTile(id)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		c.memory.Add(id, data)
	}
	return data, nil
}

// Put stores the tile data in memory and in the store.
func (c *TileCache) Put(id tile.ID, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data = slices.Clone(data)
	c.memory.Add(id, data)
	if c.store == nil {
		return nil
	}
	return c.store.WriteTile(id, data)
}

// Finalize flushes the store.
func (c *TileCache) Finalize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	return c.store.Finalize()
}
