package pools

import (
	"sync"
	"sync/atomic"
)

// BytePool is a multi-tiered byte slice pool for request and response buffers
type BytePool struct {
	pools []*sync.Pool
	sizes []int

	gets   atomic.Uint64
	misses atomic.Uint64
}

// Common buffer sizes for HTTP workloads
var defaultSizes = []int{
	512,   // Small requests/responses
	1024,  // Default read buffer
	4096,  // Medium
	32768, // Extra large
}

// NewBytePool creates a new byte pool with standard size tiers
func NewBytePool() *BytePool {
	return NewBytePoolWithSizes(defaultSizes)
}

// NewBytePoolWithSizes creates a byte pool with custom size tiers (ascending)
func NewBytePoolWithSizes(sizes []int) *BytePool {
	bp := &BytePool{
		pools: make([]*sync.Pool, len(sizes)),
		sizes: sizes,
	}

	for i, size := range sizes {
		sz := size
		bp.pools[i] = &sync.Pool{
			New: func() any {
				buf := make([]byte, sz)
				return &buf
			},
		}
	}

	return bp
}

// Get returns a byte slice of exactly size bytes, backed by a pooled array when one fits
func (bp *BytePool) Get(size int) []byte {
	bp.gets.Add(1)

	for i, poolSize := range bp.sizes {
		if size <= poolSize {
			buf := *bp.pools[i].Get().(*[]byte)
			return buf[:size]
		}
	}

	// Size too large, allocate directly
	bp.misses.Add(1)
	return make([]byte, size)
}

// Put returns a byte slice to the pool.
// Slices whose capacity does not match a tier are left to the GC.
func (bp *BytePool) Put(buf []byte) {
	capacity := cap(buf)

	for i, poolSize := range bp.sizes {
		if capacity == poolSize {
			buf = buf[:capacity]
			bp.pools[i].Put(&buf)
			return
		}
	}
}

// BytePoolStats contains pool statistics
type BytePoolStats struct {
	Gets   uint64
	Misses uint64 // requests larger than the largest tier
}

// Stats returns pool statistics
func (bp *BytePool) Stats() BytePoolStats {
	return BytePoolStats{
		Gets:   bp.gets.Load(),
		Misses: bp.misses.Load(),
	}
}
