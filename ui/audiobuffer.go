package ui

import (
	"io"
	"sync"
)

// AudioRingBuffer is a byte FIFO between the emulation goroutine and the
// audio device. Write never blocks: on overflow the oldest bytes are
// dropped. Read blocks until data arrives or the buffer is closed.
type AudioRingBuffer struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []byte
	head   int // next byte to read
	count  int
	closed bool
}

// NewAudioRingBuffer creates a ring buffer holding capacity bytes.
func NewAudioRingBuffer(capacity int) *AudioRingBuffer {
	rb := &AudioRingBuffer{buf: make([]byte, capacity)}
	rb.cond = sync.NewCond(&rb.mu)
	return rb
}

// Write appends p, discarding the oldest data that no longer fits.
func (rb *AudioRingBuffer) Write(p []byte) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.closed || len(p) == 0 {
		return
	}

	size := len(rb.buf)
	if len(p) > size {
		p = p[len(p)-size:]
	}
	if over := rb.count + len(p) - size; over > 0 {
		rb.head = (rb.head + over) % size
		rb.count -= over
	}

	tail := (rb.head + rb.count) % size
	n := copy(rb.buf[tail:], p)
	copy(rb.buf, p[n:])
	rb.count += len(p)

	rb.cond.Signal()
}

// Read implements io.Reader. It returns io.EOF once the buffer is closed
// and drained.
func (rb *AudioRingBuffer) Read(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for rb.count == 0 {
		if rb.closed {
			return 0, io.EOF
		}
		rb.cond.Wait()
	}

	n := min(len(p), rb.count)
	size := len(rb.buf)
	first := copy(p[:n], rb.buf[rb.head:min(rb.head+n, size)])
	copy(p[first:n], rb.buf)
	rb.head = (rb.head + n) % size
	rb.count -= n

	return n, nil
}

// Buffered returns the number of bytes waiting to be read.
func (rb *AudioRingBuffer) Buffered() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Clear discards all buffered data.
func (rb *AudioRingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.head = 0
	rb.count = 0
}

// Close wakes blocked readers; later reads drain what is left, then EOF.
func (rb *AudioRingBuffer) Close() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.closed = true
	rb.cond.Broadcast()
}

// appendSamples encodes samples as little-endian bytes onto dst.
func appendSamples(dst []byte, samples []int16) []byte {
	for _, sample := range samples {
		dst = append(dst, byte(sample), byte(sample>>8))
	}
	return dst
}
