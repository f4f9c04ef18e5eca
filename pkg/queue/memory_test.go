package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryQueue(t *testing.T) {
	q := NewInMemoryQueue(2)

	require.NoError(t, q.Enqueue("a"))
	require.NoError(t, q.Enqueue("b"))
	assert.ErrorIs(t, q.Enqueue("c"), ErrQueueFull)
	assert.Equal(t, 2, q.Size())

	assert.Equal(t, "a", q.Dequeue())
	assert.Equal(t, []interface{}{"b"}, q.ReadAllMessages())
	assert.Nil(t, q.ReadAllMessages())

	require.NoError(t, q.Enqueue("d"))
	q.ClearQueue()
	assert.Equal(t, 0, q.Size())
}

func TestInMemoryQueue_DefaultSize(t *testing.T) {
	q := NewInMemoryQueue(0)
	for i := 0; i < QueueBufferSize; i++ {
		require.NoError(t, q.Enqueue(i))
	}
	assert.ErrorIs(t, q.Enqueue(-1), ErrQueueFull)
}

func TestInMemoryQueue_ConcurrentProducers(t *testing.T) {
	q := NewInMemoryQueue(1000)

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				assert.NoError(t, q.Enqueue(i))
			}
		}()
	}

	drained := 0
	for drained < 400 {
		drained += len(q.ReadAllMessages())
	}
	wg.Wait()
	assert.Equal(t, 400, drained)
}
