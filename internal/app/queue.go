package app

import (
	"sync"

	"github.com/bft-labs/meshbridge/internal/domain"
)

// Queue holds frames waiting for the LMIC link, in transmission order.
// It is unbounded and safe for one producer and one consumer running
// concurrently.
type Queue struct {
	mu     sync.Mutex
	frames []domain.Frame
	peak   int
	ready  chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Enqueue appends the frames of one command. They stay contiguous.
func (q *Queue) Enqueue(frames ...domain.Frame) {
	if len(frames) == 0 {
		return
	}

	q.mu.Lock()
	q.frames = append(q.frames, frames...)
	if len(q.frames) > q.peak {
		q.peak = len(q.frames)
	}
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Dequeue removes the oldest frame. ok is false when the queue is empty.
func (q *Queue) Dequeue() (f domain.Frame, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.frames) == 0 {
		return nil, false
	}
	f = q.frames[0]
	q.frames[0] = nil
	q.frames = q.frames[1:]
	if len(q.frames) == 0 {
		// Drop the drained backing array.
		q.frames = nil
	}
	return f, true
}

// Len returns the number of queued frames.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}

// Peak returns the largest depth seen since creation.
func (q *Queue) Peak() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.peak
}

// Ready is signalled after Enqueue. A consumer that finds the queue empty
// waits on it before trying again.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}
