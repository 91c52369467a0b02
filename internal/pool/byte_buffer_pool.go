// Package pool provides pooled byte buffers for transient record reads.
//
// The header-index pass reads and discards thousands of small payloads per
// file; pooling the scratch buffer keeps that pass allocation-free after
// warmup.
package pool

import "sync"

const (
	// ScanBufferDefaultSize covers the header strings and small scalar
	// records the index pass materializes.
	ScanBufferDefaultSize = 1024

	// ScanBufferMaxThreshold discards oversized buffers instead of
	// returning them to the pool.
	ScanBufferMaxThreshold = 64 * 1024
)

// ByteBuffer is a length-tracked byte slice reused across record reads.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a ByteBuffer with the given initial capacity.
func NewByteBuffer(size int) *ByteBuffer {
	return &ByteBuffer{B: make([]byte, 0, size)}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset empties the buffer while keeping its allocation.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the current length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// Resize sets the buffer length to n, reallocating if the capacity is
// insufficient. Existing contents are not preserved on reallocation.
func (bb *ByteBuffer) Resize(n int) {
	if cap(bb.B) < n {
		bb.B = make([]byte, n)
		return
	}
	bb.B = bb.B[:n]
}

// ByteBufferPool pools ByteBuffers to minimize allocations.
//
// Buffers larger than maxThreshold are dropped on Put so a single huge
// record cannot pin memory for the lifetime of the pool.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a pool whose fresh buffers have defaultSize
// capacity and whose returned buffers are discarded above maxThreshold.
func NewByteBufferPool(defaultSize, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var scanPool = NewByteBufferPool(ScanBufferDefaultSize, ScanBufferMaxThreshold)

// GetScanBuffer retrieves a ByteBuffer from the default scan pool.
func GetScanBuffer() *ByteBuffer {
	return scanPool.Get()
}

// PutScanBuffer returns a ByteBuffer to the default scan pool.
func PutScanBuffer(bb *ByteBuffer) {
	scanPool.Put(bb)
}
