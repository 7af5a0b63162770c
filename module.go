// Package craby hosts native modules described by a validated ModuleSpec.
//
// A Module is the in-process counterpart of the generated bridge: it checks
// and converts arguments at the boundary, dispatches each method the way
// the generation-time plan decided, and delivers signals to listeners.
//
//	mod, err := craby.NewModule(spec)
//	mod.Implement("add", func(ctx context.Context, args []any) (any, error) {
//	    return args[0].(float64) + args[1].(float64), nil
//	})
//	sum, err := mod.Invoke(ctx, "add", 5, 10)
package craby

import (
	"context"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"

	"github.com/l2hyunwoo/craby/crabygen/dispatch"
	"github.com/l2hyunwoo/craby/crabygen/ir"
	"github.com/l2hyunwoo/craby/internal/errors"
	"github.com/l2hyunwoo/craby/internal/logger"
)

// MethodFunc implements one method. It receives canonical arguments in
// declared order and returns a canonical result (nil for void).
type MethodFunc func(ctx context.Context, args []any) (any, error)

// Module hosts the implementation of one module.
type Module struct {
	spec      *ir.ModuleSpec
	plan      *dispatch.Plan
	marshaler *Marshaler
	pool      *Pool
	logger    *zap.Logger

	mu           sync.RWMutex
	impls        map[string]MethodFunc
	interceptors []Interceptor

	signals map[string]*Signal
}

// Option configures a Module.
type Option func(*Module)

// WithLogger sets the module's logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Module) { m.logger = l }
}

// WithPool runs deferred methods on pool. Modules may share a pool.
func WithPool(p *Pool) Option {
	return func(m *Module) { m.pool = p }
}

// WithInterceptor adds an interceptor around every call. Interceptors run
// in the order added.
func WithInterceptor(i Interceptor) Option {
	return func(m *Module) { m.interceptors = append(m.interceptors, i) }
}

// NewModule validates spec and creates a host for it. Every method starts
// unimplemented.
func NewModule(spec *ir.ModuleSpec, opts ...Option) (*Module, error) {
	if err := spec.Validate(); err != nil {
		return nil, errors.Wrapf(err, "module %s", spec.Name)
	}
	m := &Module{
		spec:      spec,
		plan:      dispatch.NewPlan(spec),
		marshaler: NewMarshaler(spec),
		impls:     make(map[string]MethodFunc),
		signals:   make(map[string]*Signal, len(spec.Signals)),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logger.Named("module")
	}
	if m.pool == nil {
		m.pool = NewPool(0)
	}
	for _, s := range spec.Signals {
		sig := NewSignal(s.Name)
		sig.logger = m.logger
		m.signals[s.Name] = sig
	}
	return m, nil
}

// Spec returns the hosted module's spec.
func (m *Module) Spec() *ir.ModuleSpec { return m.spec }

// Plan returns the dispatch decisions the module follows.
func (m *Module) Plan() *dispatch.Plan { return m.plan }

// Implement binds fn to the named method, replacing any earlier binding.
func (m *Module) Implement(name string, fn MethodFunc) error {
	if _, ok := m.plan.Method(name); !ok {
		return Errorf(CodeNotFound, "%s has no method %q", m.spec.Name, name)
	}
	if fn == nil {
		return Errorf(CodeInvalidArgument, "nil implementation for %s.%s", m.spec.Name, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.impls[name] = fn
	return nil
}

// Invoke calls a method with calling-environment arguments.
//
// Arguments are checked and converted before anything runs; a mismatch is
// returned as *TypeMismatchError. A direct method runs on the calling
// goroutine and Invoke returns its converted result; a panic becomes
// *DirectCallAbort. A deferred method returns a pending *Promise[any] at
// once, and the promise settles with the converted result or a
// *PromiseRejection.
func (m *Module) Invoke(ctx context.Context, name string, args ...any) (any, error) {
	method, ok := m.spec.FindMethod(name)
	if !ok {
		return nil, Errorf(CodeNotFound, "%s has no method %q", m.spec.Name, name)
	}
	if len(args) != len(method.Params) {
		return nil, Errorf(CodeInvalidArgument, "%s.%s: expected %d argument(s), got %d",
			m.spec.Name, name, len(method.Params), len(args)).
			WithDetail("expected", len(method.Params)).
			WithDetail("got", len(args))
	}

	canon := make([]any, len(args))
	for i, p := range method.Params {
		v, err := m.marshaler.FromBoundaryAt(name+"."+p.Name, p.Type, args[i])
		if err != nil {
			return nil, err
		}
		canon[i] = v
	}

	m.mu.RLock()
	impl := m.impls[name]
	chain := chainInterceptors(m.interceptors)
	m.mu.RUnlock()
	if impl == nil {
		return nil, NewError(CodeNotImplemented, m.spec.Name+"."+name+" is not implemented").
			WithDetail("method", name)
	}

	plan, _ := m.plan.Method(name)
	info := CallInfo{Module: m.spec.Name, Method: name, Mode: plan.Mode}
	handler := HandlerFunc(impl)
	if chain != nil {
		handler = func(ctx context.Context, args []any) (any, error) {
			return chain(ctx, info, args, HandlerFunc(impl))
		}
	}

	m.logger.Debug("invoke",
		zap.String(logger.FieldModule, m.spec.Name),
		zap.String(logger.FieldMethod, name),
		zap.Stringer(logger.FieldMode, plan.Mode))

	if plan.Mode == dispatch.Deferred {
		return m.invokeDeferred(ctx, info, plan, handler, canon), nil
	}
	return m.invokeDirect(newCallContext(ctx, info), info, plan, handler, canon)
}

func (m *Module) invokeDirect(ctx context.Context, info CallInfo, plan dispatch.MethodPlan, handler HandlerFunc, args []any) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			abort := &DirectCallAbort{Method: info.Method, Panic: r, Stack: debug.Stack()}
			m.logger.Warn("direct call aborted",
				zap.String(logger.FieldModule, info.Module),
				zap.String(logger.FieldMethod, info.Method),
				zap.Any("panic", r))
			res, err = nil, abort
		}
	}()

	out, err := handler(ctx, args)
	if err != nil {
		return nil, err
	}
	return m.marshaler.ToBoundaryAt(info.Method, plan.Result, out)
}

// invokeDeferred hands the call to the pool. The implementation's context
// keeps the caller's values but not its cancellation: once started, the work
// runs to completion.
func (m *Module) invokeDeferred(ctx context.Context, info CallInfo, plan dispatch.MethodPlan, handler HandlerFunc, args []any) *Promise[any] {
	workCtx := newCallContext(context.WithoutCancel(ctx), info)
	p := goNamed(ctx, m.pool, info.Method, func() (any, error) {
		out, err := handler(workCtx, args)
		if err != nil {
			var rejection *PromiseRejection
			if errors.As(err, &rejection) {
				return nil, err
			}
			return nil, &PromiseRejection{Method: info.Method, Message: err.Error(), Cause: err}
		}
		res, err := m.marshaler.ToBoundaryAt(info.Method, plan.Result, out)
		if err != nil {
			return nil, &PromiseRejection{Method: info.Method, Message: err.Error(), Cause: err}
		}
		return res, nil
	})

	go func() {
		<-p.Done()
		if _, err := p.Await(context.Background()); err != nil {
			m.logger.Warn("promise rejected",
				zap.String(logger.FieldModule, info.Module),
				zap.String(logger.FieldMethod, info.Method),
				zap.Error(err))
		}
	}()
	return p
}

// Signal returns the named signal, or nil if the module declares none.
func (m *Module) Signal(name string) *Signal {
	return m.signals[name]
}

// Emit notifies every listener of the named signal without waiting for them.
func (m *Module) Emit(name string) error {
	sig := m.signals[name]
	if sig == nil {
		return Errorf(CodeNotFound, "%s has no signal %q", m.spec.Name, name)
	}
	m.logger.Debug("emit",
		zap.String(logger.FieldModule, m.spec.Name),
		zap.String(logger.FieldSignal, name),
		zap.Int(logger.FieldCount, sig.Len()))
	sig.Emit()
	return nil
}
