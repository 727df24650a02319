// Package ring implements the input sample ring: a circular buffer
// written by the frontend producer and drained in fixed blocks by the
// master FFT stage.
package ring

import "sync/atomic"

// Buffer is a circular buffer of complex128 samples. Real-sampled
// frontends store their samples with a zero imaginary part; the FFT stage
// decides whether to run a real or complex transform based on the
// frontend descriptor, not on the ring's contents.
//
// write/read pointers are monotonically increasing sample counts (not
// indices); callers mod by len(data) to find the slot. This lets a
// reader detect falling behind by comparing the gap to cap(data).
type Buffer struct {
	data  []complex128
	write atomic.Uint64
	read  atomic.Uint64
}

// New allocates a ring of the given capacity, which should be at least
// 2*(block+impulseLength) per the overlap-save contract.
func New(capacity int) *Buffer {
	return &Buffer{data: make([]complex128, capacity)}
}

// Cap returns the ring's capacity in samples.
func (b *Buffer) Cap() int { return len(b.data) }

// Write appends samples, wrapping as needed, and advances the write
// pointer. The frontend producer is the only writer.
func (b *Buffer) Write(samples []complex128) {
	n := len(b.data)
	w := b.write.Load()
	for i, s := range samples {
		b.data[(int(w)+i)%n] = s
	}
	b.write.Store(w + uint64(len(samples)))
}

// WritePointer returns the current write pointer (total samples written).
func (b *Buffer) WritePointer() uint64 { return b.write.Load() }

// ReadPointer returns the current read pointer (total samples consumed).
func (b *Buffer) ReadPointer() uint64 { return b.read.Load() }

// Available reports how many unread samples are buffered.
func (b *Buffer) Available() uint64 { return b.write.Load() - b.read.Load() }

// Peek copies n samples starting `back` samples before the current write
// pointer into dst, without advancing the read pointer. Used by the master
// FFT stage to assemble an overlap-save block (new `block` samples plus
// `impulseLength-1` samples of history).
func (b *Buffer) Peek(dst []complex128, back int) {
	n := len(b.data)
	w := int(b.write.Load())
	start := w - back
	for i := range dst {
		idx := ((start+i)%n + n) % n
		dst[i] = b.data[idx]
	}
}

// Advance moves the read pointer forward by n samples, as the master FFT
// stage does after consuming one block.
func (b *Buffer) Advance(n int) { b.read.Add(uint64(n)) }
