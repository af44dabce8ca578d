package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chazu/ipe/vm"
)

// ErrWorkerStopped is returned by Do once the worker has been stopped.
var ErrWorkerStopped = errors.New("server: session worker stopped")

// workRequest is a unit of work to be executed on a session's goroutine.
type workRequest struct {
	fn   func(*vm.Session) (interface{}, error)
	done chan workResult
}

// workResult holds the return value from a session operation.
type workResult struct {
	value interface{}
	err   error
}

// SessionWorker serializes all access to one vm.Session through a single
// goroutine. The evaluator is single-threaded; concurrent RPCs that target
// the same session queue here.
type SessionWorker struct {
	session  *vm.Session
	requests chan workRequest
	quit     chan struct{}
	stopOnce sync.Once
}

// NewSessionWorker creates a SessionWorker and starts its goroutine.
func NewSessionWorker(s *vm.Session) *SessionWorker {
	w := &SessionWorker{
		session:  s,
		requests: make(chan workRequest, 16),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *SessionWorker) loop() {
	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs fn on the session, recovering from panics so a misbehaving
// request cannot take the worker down.
func (w *SessionWorker) execute(fn func(*vm.Session) (interface{}, error)) (result workResult) {
	defer func() {
		if r := recover(); r != nil {
			result = workResult{err: fmt.Errorf("panic: %v", r)}
		}
	}()
	v, err := fn(w.session)
	return workResult{value: v, err: err}
}

// Do submits fn for execution on the session goroutine and blocks until it
// completes or ctx is done.
func (w *SessionWorker) Do(ctx context.Context, fn func(*vm.Session) (interface{}, error)) (interface{}, error) {
	select {
	case <-w.quit:
		return nil, ErrWorkerStopped
	default:
	}

	req := workRequest{
		fn:   fn,
		done: make(chan workResult, 1),
	}
	select {
	case w.requests <- req:
	case <-w.quit:
		return nil, ErrWorkerStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case result := <-req.done:
		return result.value, result.err
	case <-w.quit:
		return nil, ErrWorkerStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stop shuts down the worker goroutine. Requests already queued are dropped.
func (w *SessionWorker) Stop() {
	w.stopOnce.Do(func() { close(w.quit) })
}
