package freq

import (
	"errors"
	"unsafe"
)

// ErrOutOfMemory is returned when storing a key would take the arena past
// its byte limit.
var ErrOutOfMemory = errors.New("out of memory")

// DefaultBlockSize is the size of each arena block.
const DefaultBlockSize = 64 * 1024

// Arena is a bump allocator for key bytes. Blocks are never reallocated or
// reused, so strings handed out by Alloc stay valid for the arena's
// lifetime. There is no per-key free.
type Arena struct {
	blocks    [][]byte
	blockSize int
	limit     int // 0 means unlimited
	used      int
}

// NewArena creates an arena. A limit of 0 means no limit.
func NewArena(blockSize, limit int) *Arena {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Arena{blockSize: blockSize, limit: limit}
}

// Alloc copies b into the arena and returns it as a string backed by arena
// memory.
func (a *Arena) Alloc(b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	if a.limit > 0 && a.used+len(b) > a.limit {
		return "", ErrOutOfMemory
	}

	var cur []byte
	if n := len(a.blocks); n > 0 {
		cur = a.blocks[n-1]
	}
	if cap(cur)-len(cur) < len(b) {
		size := a.blockSize
		if len(b) > size {
			size = len(b)
		}
		cur = make([]byte, 0, size)
		a.blocks = append(a.blocks, cur)
	}

	off := len(cur)
	cur = append(cur, b...)
	a.blocks[len(a.blocks)-1] = cur
	a.used += len(b)

	return unsafe.String(&cur[off], len(b)), nil
}

// Used returns the number of key bytes stored.
func (a *Arena) Used() int { return a.used }

// Blocks returns the number of blocks allocated.
func (a *Arena) Blocks() int { return len(a.blocks) }
