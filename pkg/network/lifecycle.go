package network

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	ErrNotReady       = errors.New("not ready")
	ErrClosed         = errors.New("closed")
	ErrAlreadyStarted = errors.New("already started")
	ErrServerFailed   = errors.New("server failed to start")
	ErrClientFailed   = errors.New("client failed to start")
)

// State is the lifecycle state of a server or client socket.
type State int32

const (
	StateCreated State = iota
	StateInitializing
	StateRunning
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// lifecycle tracks Created -> Initializing -> Running -> Closed, with Failed
// as the terminal state of an unsuccessful initialization.
type lifecycle struct {
	state     atomic.Int32
	ready     chan struct{}
	done      chan struct{}
	readyOnce sync.Once
	closeOnce sync.Once
	initErr   error
	errLock   sync.Mutex
	failErr   error
}

func newLifecycle(failErr error) *lifecycle {
	return &lifecycle{
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
		failErr: failErr,
	}
}

func (l *lifecycle) State() State {
	return State(l.state.Load())
}

// Ready reports whether the socket is running.
func (l *lifecycle) Ready() bool {
	return l.State() == StateRunning
}

func (l *lifecycle) begin() error {
	if !l.state.CompareAndSwap(int32(StateCreated), int32(StateInitializing)) {
		return fmt.Errorf("%w: %s", ErrAlreadyStarted, l.State())
	}
	return nil
}

// fail moves to Failed and wakes waiters.
func (l *lifecycle) fail(err error) error {
	l.errLock.Lock()
	l.initErr = err
	l.errLock.Unlock()
	l.state.Store(int32(StateFailed))
	l.readyOnce.Do(func() { close(l.ready) })
	return fmt.Errorf("%w: %v", l.failErr, err)
}

// run moves to Running unless the socket was closed while initializing.
func (l *lifecycle) run() bool {
	ok := l.state.CompareAndSwap(int32(StateInitializing), int32(StateRunning))
	l.readyOnce.Do(func() { close(l.ready) })
	return ok
}

// close moves to Closed. It returns false if already closed.
func (l *lifecycle) close() bool {
	closed := false
	l.closeOnce.Do(func() {
		closed = true
		for {
			s := l.state.Load()
			if State(s) == StateFailed || l.state.CompareAndSwap(s, int32(StateClosed)) {
				break
			}
		}
		close(l.done)
		l.readyOnce.Do(func() { close(l.ready) })
	})
	return closed
}

func (l *lifecycle) closing() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

// WaitReady blocks until the socket is running, failed, closed or ctx is done.
func (l *lifecycle) WaitReady(ctx context.Context) error {
	select {
	case <-l.ready:
	default:
		select {
		case <-l.ready:
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrNotReady, ctx.Err())
		}
	}

	switch l.State() {
	case StateRunning:
		return nil
	case StateFailed:
		l.errLock.Lock()
		defer l.errLock.Unlock()
		return fmt.Errorf("%w: %v", l.failErr, l.initErr)
	case StateClosed:
		return ErrClosed
	default:
		return ErrNotReady
	}
}
