package craby

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l2hyunwoo/craby/crabygen/dispatch"
	"github.com/l2hyunwoo/craby/crabygen/ir"
	"github.com/l2hyunwoo/craby/crabygen/provider"
	"github.com/l2hyunwoo/craby/internal/errors"
	"github.com/l2hyunwoo/craby/internal/testfixtures"
)

func calculatorSpec(t *testing.T) *ir.ModuleSpec {
	t.Helper()
	p := &provider.SourceProvider{}
	specs, err := p.BuildSchema(context.Background(), provider.SourceInputOptions{
		Units: []provider.Unit{{
			Path:    "NativeCalculator.ts",
			Content: testfixtures.File(t, "calculator", "NativeCalculator.ts"),
		}},
	})
	require.NoError(t, err)
	require.Len(t, specs, 1)
	return specs[0]
}

func newCalculator(t *testing.T, opts ...Option) *Module {
	t.Helper()
	mod, err := NewModule(calculatorSpec(t), opts...)
	require.NoError(t, err)

	require.NoError(t, mod.Implement("add", func(ctx context.Context, args []any) (any, error) {
		return args[0].(float64) + args[1].(float64), nil
	}))
	require.NoError(t, mod.Implement("divide", func(ctx context.Context, args []any) (any, error) {
		a, b := args[0].(float64), args[1].(float64)
		if b == 0 {
			return None[any](), nil
		}
		return Some[any](a / b), nil
	}))
	require.NoError(t, mod.Implement("sum", func(ctx context.Context, args []any) (any, error) {
		total := 0.0
		for _, v := range args[0].([]any) {
			total += v.(float64)
		}
		return total, nil
	}))
	return mod
}

func TestModule_DirectCall(t *testing.T) {
	mod := newCalculator(t)
	assert.Equal(t, dispatch.Direct, mod.Plan().Mode("add"))

	got, err := mod.Invoke(context.Background(), "add", 5, 10)
	require.NoError(t, err)
	assert.Equal(t, 15.0, got)
}

func TestModule_NullableResult(t *testing.T) {
	mod := newCalculator(t)

	got, err := mod.Invoke(context.Background(), "divide", 9, 3)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)

	got, err = mod.Invoke(context.Background(), "divide", 1, 0)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestModule_DeferredCall(t *testing.T) {
	mod := newCalculator(t)
	assert.Equal(t, dispatch.Deferred, mod.Plan().Mode("sum"))

	res, err := mod.Invoke(context.Background(), "sum", []any{1, 2, 3.5})
	require.NoError(t, err)
	p, ok := res.(*Promise[any])
	require.True(t, ok, "deferred call returns a promise, got %T", res)

	got, err := p.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6.5, got)
}

func TestModule_DeferredDoesNotBlock(t *testing.T) {
	spec := &ir.ModuleSpec{
		Name: "Slow",
		Methods: []ir.Method{{
			Name:   "wait",
			Return: ir.PromiseOf(ir.Number()),
		}},
	}
	mod, err := NewModule(spec)
	require.NoError(t, err)
	require.NoError(t, mod.Implement("wait", func(ctx context.Context, args []any) (any, error) {
		time.Sleep(2000 * time.Millisecond)
		return 1.0, nil
	}))

	start := time.Now()
	res, err := mod.Invoke(context.Background(), "wait")
	elapsed := time.Since(start)
	require.NoError(t, err)

	assert.Less(t, elapsed, 10*time.Millisecond)
	assert.False(t, res.(*Promise[any]).Settled())
}

func TestModule_DeferredRejection(t *testing.T) {
	spec := &ir.ModuleSpec{
		Name: "Jobs",
		Methods: []ir.Method{
			{Name: "fail", Return: ir.PromiseOf(ir.Void())},
			{Name: "explode", Return: ir.PromiseOf(ir.String())},
		},
	}
	mod, err := NewModule(spec)
	require.NoError(t, err)
	require.NoError(t, mod.Implement("fail", func(ctx context.Context, args []any) (any, error) {
		return nil, errors.New("disk full")
	}))
	require.NoError(t, mod.Implement("explode", func(ctx context.Context, args []any) (any, error) {
		panic("boom")
	}))

	ctx := context.Background()

	res, err := mod.Invoke(ctx, "fail")
	require.NoError(t, err)
	_, err = res.(*Promise[any]).Await(ctx)
	var rejection *PromiseRejection
	require.True(t, errors.As(err, &rejection), "got %T", err)
	assert.Equal(t, "fail", rejection.Method)
	assert.Equal(t, "disk full", rejection.Message)
	assert.Equal(t, CodePromiseRejected, CodeOf(err))

	res, err = mod.Invoke(ctx, "explode")
	require.NoError(t, err)
	_, err = res.(*Promise[any]).Await(ctx)
	require.True(t, errors.As(err, &rejection), "got %T", err)
	assert.Contains(t, rejection.Message, "panic: boom")
}

func TestModule_DirectCallAbort(t *testing.T) {
	mod := newCalculator(t)
	require.NoError(t, mod.Implement("add", func(ctx context.Context, args []any) (any, error) {
		panic("overflow")
	}))

	got, err := mod.Invoke(context.Background(), "add", 1, 2)
	assert.Nil(t, got)
	var abort *DirectCallAbort
	require.True(t, errors.As(err, &abort), "got %T", err)
	assert.Equal(t, "add", abort.Method)
	assert.Equal(t, "overflow", abort.Panic)
	assert.NotEmpty(t, abort.Stack)
	assert.Equal(t, CodeCallAborted, CodeOf(err))

	// The module stays usable.
	_, err = mod.Invoke(context.Background(), "sum", []any{})
	require.NoError(t, err)
}

func TestModule_InvokeErrors(t *testing.T) {
	mod := newCalculator(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		method string
		args   []any
		code   ErrorCode
		want   string
	}{
		{"unknown method", "mul", nil, CodeNotFound, `Calculator has no method "mul"`},
		{"argument count", "add", []any{1}, CodeInvalidArgument, "expected 2 argument(s), got 1"},
		{"argument type", "add", []any{1, "2"}, CodeTypeMismatch, `TypeMismatch: add.b: expected number, got string "2"`},
		{"element type", "sum", []any{[]any{1, true}}, CodeTypeMismatch, "TypeMismatch: sum.values[1]: expected number, got boolean"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mod.Invoke(ctx, tt.method, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeOf(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := mod.Invoke(ctx, "add", 1, 2, 3)
	var callErr *Error
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, map[string]any{"expected": 2, "got": 3}, callErr.Details)

	bare, err := NewModule(calculatorSpec(t))
	require.NoError(t, err)
	_, err = bare.Invoke(ctx, "add", 1, 2)
	assert.Equal(t, CodeNotImplemented, CodeOf(err))
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "Calculator.add is not implemented", callErr.Message)
	assert.Equal(t, map[string]any{"method": "add"}, callErr.Details)
	assert.Equal(t, CodeNotFound, CodeOf(bare.Implement("mul", func(context.Context, []any) (any, error) { return nil, nil })))
}

func TestModule_Interceptors(t *testing.T) {
	var (
		mu    sync.Mutex
		order []string
	)
	record := func(tag string) Interceptor {
		return func(ctx context.Context, call CallInfo, args []any, next HandlerFunc) (any, error) {
			mu.Lock()
			order = append(order, tag+":"+call.Method+":"+call.Mode.String())
			mu.Unlock()
			return next(ctx, args)
		}
	}

	mod := newCalculator(t,
		WithInterceptor(record("outer")),
		WithInterceptor(record("inner")),
		WithInterceptor(LoggingInterceptor(nil)),
	)
	require.NoError(t, mod.Implement("add", func(ctx context.Context, args []any) (any, error) {
		call, ok := CallFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, CallInfo{Module: "Calculator", Method: "add", Mode: dispatch.Direct}, call)
		return 0.0, nil
	}))

	ctx := context.Background()
	_, err := mod.Invoke(ctx, "add", 1, 2)
	require.NoError(t, err)

	res, err := mod.Invoke(ctx, "sum", []any{})
	require.NoError(t, err)
	_, err = res.(*Promise[any]).Await(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"outer:add:direct",
		"inner:add:direct",
		"outer:sum:deferred",
		"inner:sum:deferred",
	}, order)
}

func TestModule_Signals(t *testing.T) {
	spec := &ir.ModuleSpec{
		Name:    "Downloader",
		Methods: []ir.Method{{Name: "start", Return: ir.Void()}},
		Signals: []ir.SignalDef{{Name: "onProgress"}},
	}
	mod, err := NewModule(spec)
	require.NoError(t, err)

	var (
		wg     sync.WaitGroup
		first  atomic.Int32
		second atomic.Int32
	)
	wg.Add(2)
	mod.Signal("onProgress").Subscribe(func() { first.Add(1); wg.Done() })
	mod.Signal("onProgress").Subscribe(func() { second.Add(1); wg.Done() })

	require.NoError(t, mod.Implement("start", func(ctx context.Context, args []any) (any, error) {
		return nil, mod.Emit("onProgress")
	}))
	got, err := mod.Invoke(context.Background(), "start")
	require.NoError(t, err)
	assert.Nil(t, got)

	wg.Wait()
	// Give a duplicate delivery the chance to show up.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), first.Load())
	assert.Equal(t, int32(1), second.Load())

	assert.Nil(t, mod.Signal("onMissing"))
	assert.Equal(t, CodeNotFound, CodeOf(mod.Emit("onMissing")))
}

func TestNewModule_RejectsInvalidSpec(t *testing.T) {
	spec := &ir.ModuleSpec{
		Name: "Graph",
		Methods: []ir.Method{{
			Name:   "head",
			Return: ir.ObjectRef("Node"),
		}},
		TypeDefs: []ir.TypeDef{
			&ir.ObjectTypeDef{Name: "Node", Fields: []ir.Field{{Name: "next", Type: ir.ObjectRef("Node")}}},
		},
	}
	_, err := NewModule(spec)
	require.Error(t, err)
	var cyclic *ir.CyclicTypeError
	require.True(t, errors.As(err, &cyclic), "got %v", err)
	assert.Equal(t, "Node.next", cyclic.Field)
}
