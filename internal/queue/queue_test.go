package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/scaleout-labs/fednworker/internal/types"
)

func TestPopTimesOutOnEmptyQueue(t *testing.T) {
	q := New()
	start := time.Now()
	_, ok := q.Pop(50 * time.Millisecond)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestPushThenPopReturnsTask(t *testing.T) {
	q := New()
	q.Push(types.Task{ModelID: "m1"})
	task, ok := q.Pop(time.Second)
	assert.True(t, ok)
	assert.Equal(t, "m1", task.ModelID)
	assert.Equal(t, 0, q.Len())
}

func TestFIFOOrder(t *testing.T) {
	q := New()
	q.Push(types.Task{ModelID: "first"})
	q.Push(types.Task{ModelID: "second"})

	first, ok := q.Pop(time.Second)
	assert.True(t, ok)
	assert.Equal(t, "first", first.ModelID)

	second, ok := q.Pop(time.Second)
	assert.True(t, ok)
	assert.Equal(t, "second", second.ModelID)
}

func TestPopWakesOnConcurrentPush(t *testing.T) {
	q := New()
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		time.Sleep(20 * time.Millisecond)
		q.Push(types.Task{ModelID: "delayed"})
	}()

	task, ok := q.Pop(time.Second)
	assert.True(t, ok)
	assert.Equal(t, "delayed", task.ModelID)
	wg.Wait()
}
