package queue

import "errors"

var ErrQueueFull = errors.New("queue is full")

// Queue is a bounded FIFO filled by receive loops and drained once per tick.
type Queue interface {
	Enqueue(item interface{}) error
	Dequeue() interface{}
	Size() int
	ReadAllMessages() []interface{}
	ClearQueue()
}
