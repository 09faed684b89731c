package events

// ringBuffer is a fixed-capacity circular buffer. It is not safe for
// concurrent use; Bus guards it with its own mutex.
type ringBuffer[T any] struct {
	entries []T
	size    int
	head    int
	count   int
}

func newRingBuffer[T any](size int) *ringBuffer[T] {
	return &ringBuffer[T]{
		entries: make([]T, size),
		size:    size,
	}
}

// Write adds an entry, overwriting the oldest entry if full.
func (rb *ringBuffer[T]) Write(entry T) {
	rb.entries[rb.head] = entry
	rb.head = (rb.head + 1) % rb.size

	if rb.count < rb.size {
		rb.count++
	}
}

// ReadAll returns all entries oldest first.
func (rb *ringBuffer[T]) ReadAll() []T {
	if rb.count == 0 {
		return nil
	}

	result := make([]T, rb.count)

	if rb.count < rb.size {
		copy(result, rb.entries[:rb.count])
	} else {
		// Buffer is full, oldest entry is at head
		firstPart := rb.entries[rb.head:]
		secondPart := rb.entries[:rb.head]
		copy(result, firstPart)
		copy(result[len(firstPart):], secondPart)
	}

	return result
}

// Count returns the number of entries in the buffer.
func (rb *ringBuffer[T]) Count() int {
	return rb.count
}
