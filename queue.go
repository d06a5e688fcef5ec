package telnet

// queue is a growable FIFO that producers append to at the tail and consumers drain
// from the head.  Drained space at the front is reclaimed lazily the next time the
// buffer would otherwise have to grow.
type queue[T any] struct {
	buffer     []T
	startIndex int
	endIndex   int
}

func newQueue[T any](size int) *queue[T] {
	return &queue[T]{
		buffer: make([]T, size),
	}
}

func (q *queue[T]) straighten() {
	if q.startIndex == 0 {
		return
	}

	length := q.endIndex - q.startIndex
	if length > 0 {
		copy(q.buffer[:length], q.buffer[q.startIndex:q.endIndex])
	}

	q.startIndex = 0
	q.endIndex = length
}

// Queue appends elements to the tail
func (q *queue[T]) Queue(elements ...T) {
	if q.endIndex+len(elements) > len(q.buffer) {
		q.straighten()
	}

	if q.endIndex+len(elements) > len(q.buffer) {
		newSize := len(q.buffer) * 2
		if newSize < q.endIndex+len(elements) {
			newSize = q.endIndex + len(elements)
		}

		newBuffer := make([]T, newSize)
		copy(newBuffer, q.buffer[:q.endIndex])
		q.buffer = newBuffer
	}

	copy(q.buffer[q.endIndex:], elements)
	q.endIndex += len(elements)
}

// DropElements removes up to n elements from the head
func (q *queue[T]) DropElements(n int) {
	newStart := q.startIndex + n
	if newStart > q.endIndex {
		newStart = q.endIndex
	}
	q.startIndex = newStart

	if q.startIndex == q.endIndex {
		q.startIndex = 0
		q.endIndex = 0
	}
}

// Buffer returns the queued elements, head first. The slice is only valid until the
// next call to Queue.
func (q *queue[T]) Buffer() []T {
	return q.buffer[q.startIndex:q.endIndex]
}

// Clear empties the queue without releasing its storage
func (q *queue[T]) Clear() {
	q.startIndex = 0
	q.endIndex = 0
}

func (q *queue[T]) Len() int {
	return q.endIndex - q.startIndex
}
