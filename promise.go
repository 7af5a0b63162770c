package craby

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Promise is the handle of a deferred computation. It is created pending
// and settles exactly once, by Resolve or Reject.
type Promise[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

// NewPromise returns a pending promise.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{done: make(chan struct{})}
}

// Resolve fulfills the promise with v. It reports false if the promise was
// already settled, in which case v is dropped.
func (p *Promise[T]) Resolve(v T) bool {
	settled := false
	p.once.Do(func() {
		p.val = v
		settled = true
		close(p.done)
	})
	return settled
}

// Reject fails the promise with err. It reports false if the promise was
// already settled.
func (p *Promise[T]) Reject(err error) bool {
	if err == nil {
		err = &PromiseRejection{Message: "rejected with nil error"}
	}
	settled := false
	p.once.Do(func() {
		p.err = err
		settled = true
		close(p.done)
	})
	return settled
}

// Done is closed once the promise settles.
func (p *Promise[T]) Done() <-chan struct{} { return p.done }

// Settled reports whether the promise has been resolved or rejected.
func (p *Promise[T]) Settled() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Await blocks until the promise settles or ctx is done. Giving up on a
// promise does not cancel the work behind it.
func (p *Promise[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Pool bounds the number of deferred calls running at once.
type Pool struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// NewPool returns a pool running at most n calls concurrently.
// n <= 0 selects GOMAXPROCS.
func NewPool(n int) *Pool {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return &Pool{sem: semaphore.NewWeighted(int64(n))}
}

// Wait blocks until every call started on the pool has settled.
func (p *Pool) Wait() { p.wg.Wait() }

// Go runs fn on the pool and returns its promise immediately. The promise
// settles on every path: with fn's value, with fn's error, or with a
// PromiseRejection when fn panics.
//
// ctx only governs admission to the pool. Once fn starts it runs to
// completion.
func Go[T any](ctx context.Context, pool *Pool, fn func() (T, error)) *Promise[T] {
	return goNamed(ctx, pool, "", fn)
}

func goNamed[T any](ctx context.Context, pool *Pool, method string, fn func() (T, error)) *Promise[T] {
	p := NewPromise[T]()
	pool.wg.Add(1)
	go func() {
		defer pool.wg.Done()
		if err := pool.sem.Acquire(ctx, 1); err != nil {
			p.Reject(&PromiseRejection{Method: method, Message: "not started: " + err.Error(), Cause: err})
			return
		}
		defer pool.sem.Release(1)

		defer func() {
			if r := recover(); r != nil {
				p.Reject(&PromiseRejection{
					Method:  method,
					Message: fmt.Sprintf("panic: %v", r),
					Cause:   &DirectCallAbort{Method: method, Panic: r, Stack: debug.Stack()},
				})
			}
		}()

		v, err := fn()
		if err != nil {
			p.Reject(err)
			return
		}
		p.Resolve(v)
	}()
	return p
}
