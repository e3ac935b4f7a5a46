package keystroke

import "sync"

// Queue is an unbounded FIFO of encodable keys. The producer is the input surface and
// the consumer is the relay loop; an entry leaves the queue only through
// Dequeue, which the relay calls after a confirmed send.
type Queue struct {
	mu    sync.Mutex
	items []Key
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends k to the tail. Keys without a wire encoding are rejected
// with ErrUnknownKey, so every queued key can be sent.
func (q *Queue) Enqueue(k Key) error {
	if _, err := Encode(k); err != nil {
		return err
	}
	q.mu.Lock()
	q.items = append(q.items, k)
	q.mu.Unlock()
	return nil
}

// EnqueueAll appends keys in order. If any key has no wire encoding none
// are queued.
func (q *Queue) EnqueueAll(keys []Key) error {
	for _, k := range keys {
		if _, err := Encode(k); err != nil {
			return err
		}
	}
	q.mu.Lock()
	q.items = append(q.items, keys...)
	q.mu.Unlock()
	return nil
}

// Peek returns the head without removing it.
func (q *Queue) Peek() (Key, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	return q.items[0], true
}

// Dequeue removes the head. It does nothing on an empty queue.
func (q *Queue) Dequeue() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return
	}
	q.items[0] = nil
	q.items = q.items[1:]
	if len(q.items) == 0 {
		// release the drained backing array
		q.items = nil
	}
}

// Len returns the number of queued keys.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Snapshot returns a copy of the queued keys, head first.
func (q *Queue) Snapshot() []Key {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Key, len(q.items))
	copy(out, q.items)
	return out
}
