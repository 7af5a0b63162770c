// Package crabytest provides helpers for testing module implementations
// hosted by craby.Module.
//
// Calls are described the way the calling environment would make them,
// usually as a JSON argument list:
//
//	res := crabytest.NewCall("add").WithJSON(`[5, 10]`).Invoke(t, mod)
//	crabytest.AssertValue(t, res, 15.0)
package crabytest

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/l2hyunwoo/craby"
	"github.com/l2hyunwoo/craby/internal/errors"
)

// DefaultTimeout bounds how long Await and WaitFor block.
const DefaultTimeout = 5 * time.Second

// CallBuilder describes one method call.
type CallBuilder struct {
	method string
	args   []any
	ctx    context.Context
}

// NewCall starts describing a call to method.
func NewCall(method string) *CallBuilder {
	return &CallBuilder{method: method, ctx: context.Background()}
}

// WithArgs sets the arguments as calling-environment values.
func (b *CallBuilder) WithArgs(args ...any) *CallBuilder {
	b.args = args
	return b
}

// WithJSON sets the arguments from a JSON array, decoded the way a
// JavaScript caller's values arrive: numbers as float64, objects as
// map[string]any.
func (b *CallBuilder) WithJSON(args string) *CallBuilder {
	var decoded []any
	if err := json.Unmarshal([]byte(args), &decoded); err != nil {
		panic("crabytest: WithJSON: " + err.Error())
	}
	b.args = decoded
	return b
}

// WithContext sets the caller's context.
func (b *CallBuilder) WithContext(ctx context.Context) *CallBuilder {
	b.ctx = ctx
	return b
}

// Result is the outcome of a call. For deferred methods it is the outcome
// of the settled promise once Await was called.
type Result struct {
	Value   any
	Err     error
	Elapsed time.Duration

	promise *craby.Promise[any]
}

// Pending reports whether the call returned a promise that has not been
// awaited yet.
func (r *Result) Pending() bool {
	return r.promise != nil
}

// Invoke makes the call. It returns as soon as the module does, so a
// deferred call yields a pending result.
func (b *CallBuilder) Invoke(t testing.TB, mod *craby.Module) *Result {
	t.Helper()
	start := time.Now()
	v, err := mod.Invoke(b.ctx, b.method, b.args...)
	res := &Result{Value: v, Err: err, Elapsed: time.Since(start)}
	if p, ok := v.(*craby.Promise[any]); ok {
		res.Value, res.promise = nil, p
	}
	return res
}

// Await waits for a pending result to settle. It fails the test after
// DefaultTimeout.
func (r *Result) Await(t testing.TB) *Result {
	t.Helper()
	if r.promise == nil {
		t.Fatal("crabytest: Await on a result without a promise")
	}
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()
	v, err := r.promise.Await(ctx)
	if ctx.Err() != nil {
		t.Fatalf("crabytest: promise not settled after %s", DefaultTimeout)
	}
	r.Value, r.Err, r.promise = v, err, nil
	return r
}

// Call invokes and, for deferred methods, awaits.
func (b *CallBuilder) Call(t testing.TB, mod *craby.Module) *Result {
	t.Helper()
	res := b.Invoke(t, mod)
	if res.Pending() {
		res.Await(t)
	}
	return res
}

// AssertValue checks that the call succeeded with want, compared as JSON.
func AssertValue(t testing.TB, r *Result, want any) {
	t.Helper()
	if r.Err != nil {
		t.Errorf("unexpected error: %v", r.Err)
		return
	}
	if r.Pending() {
		t.Error("result is still pending; call Await first")
		return
	}
	wantJSON, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal want: %v", err)
	}
	gotJSON, err := json.Marshal(r.Value)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	if string(wantJSON) != string(gotJSON) {
		t.Errorf("result mismatch:\nwant: %s\n got: %s", wantJSON, gotJSON)
	}
}

// AssertCode checks that the call failed with code.
func AssertCode(t testing.TB, r *Result, code craby.ErrorCode) {
	t.Helper()
	if r.Err == nil {
		t.Errorf("expected %s error, got result %v", code, r.Value)
		return
	}
	if got := craby.CodeOf(r.Err); got != code {
		t.Errorf("expected error code %s, got %s (%v)", code, got, r.Err)
	}
}

// AssertMismatch checks that the call failed boundary conversion at path
// and returns the error for further inspection.
func AssertMismatch(t testing.TB, r *Result, path string) *craby.TypeMismatchError {
	t.Helper()
	var tm *craby.TypeMismatchError
	if !errors.As(r.Err, &tm) {
		t.Fatalf("expected TypeMismatchError at %s, got %v", path, r.Err)
	}
	if tm.Path != path {
		t.Errorf("mismatch path = %s, want %s", tm.Path, path)
	}
	return tm
}

// Recorder counts deliveries of a signal.
type Recorder struct {
	mu    sync.Mutex
	count int
	cond  chan struct{}
	sub   *craby.Subscription
}

// Record subscribes to sig until the test ends.
func Record(t testing.TB, sig *craby.Signal) *Recorder {
	t.Helper()
	if sig == nil {
		t.Fatal("crabytest: Record on a nil signal")
	}
	r := &Recorder{cond: make(chan struct{})}
	r.sub = sig.Subscribe(r.deliver)
	t.Cleanup(r.sub.Remove)
	return r
}

func (r *Recorder) deliver() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
	close(r.cond)
	r.cond = make(chan struct{})
}

// Count returns the deliveries so far.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// WaitFor blocks until at least n deliveries happened, failing the test
// after DefaultTimeout.
func (r *Recorder) WaitFor(t testing.TB, n int) {
	t.Helper()
	deadline := time.After(DefaultTimeout)
	for {
		r.mu.Lock()
		count, cond := r.count, r.cond
		r.mu.Unlock()
		if count >= n {
			return
		}
		select {
		case <-cond:
		case <-deadline:
			t.Fatalf("crabytest: %d of %d deliveries after %s", count, n, DefaultTimeout)
		}
	}
}
