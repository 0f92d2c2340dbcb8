// Package queue implements the in-memory task queue shared between the
// stream subscribers (producers) and the task pipeline (consumer).
package queue

import (
	"sync"
	"time"

	"github.com/scaleout-labs/fednworker/internal/types"
)

// Queue is a multi-producer, single-consumer FIFO of task envelopes. Pop
// blocks for up to a timeout, matching the pipeline's 1-second poll.
type Queue struct {
	mu     sync.Mutex
	items  []types.Task
	notify chan struct{}
}

// New returns an empty Queue.
func New() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Push enqueues t and wakes any goroutine blocked in Pop.
func (q *Queue) Push(t types.Task) {
	q.mu.Lock()
	q.items = append(q.items, t)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Pop removes and returns the oldest task. If the queue is empty it waits up
// to timeout for one to arrive; ok is false on timeout.
func (q *Queue) Pop(timeout time.Duration) (task types.Task, ok bool) {
	deadline := time.Now().Add(timeout)
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			task = q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return task, true
		}
		q.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return types.Task{}, false
		}
		select {
		case <-q.notify:
		case <-time.After(remaining):
			return types.Task{}, false
		}
	}
}

// Len reports the current queue depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
