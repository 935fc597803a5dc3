// File: pool/bytepool.go
// Author: momentics <momentics@gmail.com>

package pool

import "sync/atomic"

// BytePool hands out read buffers of one fixed size. Buffers are pooled as
// *[]byte so Put does not allocate.
type BytePool struct {
	objs   ObjectPool[*[]byte]
	size   int
	gets   atomic.Uint64
	misses atomic.Uint64
}

// NewBytePool returns a pool of size-byte buffers. size must be positive.
func NewBytePool(size int) *BytePool {
	if size <= 0 {
		panic("pool: buffer size must be positive")
	}
	b := &BytePool{size: size}
	b.objs = NewSyncPool(func() *[]byte {
		b.misses.Add(1)
		buf := make([]byte, size)
		return &buf
	})
	return b
}

// Size reports the length of buffers returned by GetBuffer.
func (b *BytePool) Size() int { return b.size }

// GetBuffer returns a buffer of exactly Size bytes. Contents are undefined.
func (b *BytePool) GetBuffer() []byte {
	b.gets.Add(1)
	p := b.objs.Get()
	return (*p)[:b.size]
}

// PutBuffer returns buf to the pool. Buffers of a foreign capacity are dropped.
func (b *BytePool) PutBuffer(buf []byte) {
	if cap(buf) != b.size {
		return
	}
	buf = buf[:b.size]
	b.objs.Put(&buf)
}

// Stats reports how many buffers were requested and how many had to be allocated.
func (b *BytePool) Stats() (gets, allocs uint64) {
	return b.gets.Load(), b.misses.Load()
}
