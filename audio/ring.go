package audio

import (
	"sync"
	"time"
)

// RawFrameBatch is one block of samples as delivered by the capture
// callback, in the device's native interleaved S16LE format.
type RawFrameBatch struct {
	Data   []byte
	Frames uint32
	At     time.Time
}

// RingBuffer is a fixed-capacity single-producer/single-consumer queue of
// frame batches. When full it evicts the oldest unread batch instead of
// blocking the producer: the capture callback must never stall, so old audio
// is traded for continued capture. Evictions are counted.
type RingBuffer struct {
	mu       sync.Mutex
	buf      []RawFrameBatch
	head     int // index of oldest batch
	count    int
	overflow uint64
}

func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer{buf: make([]RawFrameBatch, capacity)}
}

// Push enqueues a batch, evicting the oldest one if the buffer is full.
// Never blocks.
func (r *RingBuffer) Push(b RawFrameBatch) {
	r.mu.Lock()
	if r.count == len(r.buf) {
		r.head = (r.head + 1) % len(r.buf)
		r.count--
		r.overflow++
	}
	r.buf[(r.head+r.count)%len(r.buf)] = b
	r.count++
	r.mu.Unlock()
}

// Pop dequeues the oldest batch.
func (r *RingBuffer) Pop() (RawFrameBatch, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count == 0 {
		return RawFrameBatch{}, false
	}
	b := r.buf[r.head]
	r.buf[r.head] = RawFrameBatch{}
	r.head = (r.head + 1) % len(r.buf)
	r.count--
	return b, true
}

// Drain removes and returns every buffered batch in order.
func (r *RingBuffer) Drain() []RawFrameBatch {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RawFrameBatch, 0, r.count)
	for r.count > 0 {
		out = append(out, r.buf[r.head])
		r.buf[r.head] = RawFrameBatch{}
		r.head = (r.head + 1) % len(r.buf)
		r.count--
	}
	return out
}

func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Overflow returns the number of batches evicted so far.
func (r *RingBuffer) Overflow() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overflow
}
