package channel

import "sync/atomic"

// Ring is a bounded single-producer/single-consumer queue. Exactly one
// goroutine may push and exactly one may pop; with that discipline push and
// pop are wait-free and never allocate.
type Ring[T any] struct {
	data []T
	mask uint64

	// head is owned by the consumer, tail by the producer. Each side only
	// loads the other's index, so no CAS is needed.
	head atomic.Uint64
	_    [56]byte
	tail atomic.Uint64
	_    [56]byte
}

// NewRing allocates a ring holding at least capacity items. The capacity is
// rounded up to a power of two.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	size := nextPowerOf2(uint64(capacity))
	return &Ring[T]{
		data: make([]T, size),
		mask: size - 1,
	}
}

// TryPush appends v. It returns false when the ring is full.
func (r *Ring[T]) TryPush(v T) bool {
	tail := r.tail.Load()
	head := r.head.Load()
	if tail-head >= uint64(len(r.data)) {
		return false
	}
	r.data[tail&r.mask] = v
	r.tail.Store(tail + 1)
	return true
}

// TryPop removes the oldest item.
func (r *Ring[T]) TryPop() (T, bool) {
	var zero T
	head := r.head.Load()
	tail := r.tail.Load()
	if head == tail {
		return zero, false
	}
	v := r.data[head&r.mask]
	r.data[head&r.mask] = zero
	r.head.Store(head + 1)
	return v, true
}

// Drain pops every item visible at call time, in FIFO order, and returns
// how many were visited. Items pushed while draining wait for the next call.
func (r *Ring[T]) Drain(visit func(T)) int {
	var zero T
	head := r.head.Load()
	tail := r.tail.Load()
	n := int(tail - head)
	for ; head != tail; head++ {
		v := r.data[head&r.mask]
		r.data[head&r.mask] = zero
		// Publish each slot as consumed before the visitor runs so a
		// producer waiting on space can make progress.
		r.head.Store(head + 1)
		if visit != nil {
			visit(v)
		}
	}
	return n
}

// Len returns the number of queued items. It is a snapshot and may be
// stale by the time it is used.
func (r *Ring[T]) Len() int {
	return int(r.tail.Load() - r.head.Load())
}

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int {
	return len(r.data)
}

// nextPowerOf2 rounds up to the next power of 2
func nextPowerOf2(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
