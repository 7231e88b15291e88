package mapfile

import (
	"fmt"

	"github.com/eak1mov/go-mapsforge/cache"
	"github.com/eak1mov/go-mapsforge/mapfile/spec"
)

// DefaultIndexCacheCapacity is the number of index blocks kept per file.
const DefaultIndexCacheCapacity = 64

type indexBlockKey struct {
	subFile spec.SubFileKey
	block   int64
}

// IndexCache reads index entries of sub-files, keeping whole index blocks
// of 128 entries in memory.
//
// IndexCache is not safe for concurrent use.
type IndexCache struct {
	fileAccess FileAccessFunc
	blocks     *cache.LRU[indexBlockKey, []byte]
}

func NewIndexCache(fileAccess FileAccessFunc, capacity int) *IndexCache {
	return &IndexCache{
		fileAccess: fileAccess,
		blocks:     cache.New[indexBlockKey, []byte](capacity),
	}
}

// IndexEntry returns the 5-byte index entry of a block.
func (c *IndexCache) IndexEntry(s *spec.SubFile, blockNumber int64) (uint64, error) {
	if blockNumber < 0 || blockNumber >= s.NumberOfBlocks {
		return 0, fmt.Errorf("%w: block number %d of %d", spec.ErrInvalidIndex, blockNumber, s.NumberOfBlocks)
	}

	key := indexBlockKey{subFile: s.Key(), block: blockNumber / spec.IndexEntriesPerBlock}
	block, ok := c.blocks.Get(key)
	if !ok {
		var err error
		if block, err = c.readBlock(s, key.block); err != nil {
			return 0, err
		}
		c.blocks.Add(key, block)
	}

	offset := int(blockNumber%spec.IndexEntriesPerBlock) * spec.IndexEntryLength
	if offset+spec.IndexEntryLength > len(block) {
		return 0, fmt.Errorf("%w: entry %d outside index block of %d bytes", spec.ErrInvalidIndex, blockNumber, len(block))
	}
	return spec.Uint40(block[offset:]), nil
}

func (c *IndexCache) readBlock(s *spec.SubFile, indexBlock int64) ([]byte, error) {
	position := s.IndexStartAddress + indexBlock*spec.IndexBlockSize
	size := min(spec.IndexBlockSize, s.IndexEndAddress-position)
	if size <= 0 {
		return nil, fmt.Errorf("%w: index block %d past index end", spec.ErrInvalidIndex, indexBlock)
	}
	data, err := c.fileAccess(uint64(position), uint64(size))
	if err != nil {
		return nil, fmt.Errorf("%w: reading index block %d: %w", spec.ErrInvalidIndex, indexBlock, err)
	}
	if int64(len(data)) != size {
		return nil, fmt.Errorf("%w: short index block %d: %d of %d bytes", spec.ErrInvalidIndex, indexBlock, len(data), size)
	}
	return data, nil
}

// Clear drops all cached index blocks.
func (c *IndexCache) Clear() {
	c.blocks.Clear()
}
