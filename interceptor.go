package craby

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/l2hyunwoo/craby/internal/logger"
)

// HandlerFunc represents the next handler in an interceptor chain.
// It receives canonical arguments and returns the canonical result.
type HandlerFunc func(ctx context.Context, args []any) (res any, err error)

// Interceptor is a hook that wraps every method call of a Module.
//
//	func timing(ctx context.Context, call craby.CallInfo, args []any, next craby.HandlerFunc) (any, error) {
//	    start := time.Now()
//	    res, err := next(ctx, args)
//	    log.Printf("%s.%s took %v", call.Module, call.Method, time.Since(start))
//	    return res, err
//	}
//
// For deferred methods the chain runs on the worker, so an interceptor
// observes the real duration and the settled outcome.
type Interceptor func(ctx context.Context, call CallInfo, args []any, next HandlerFunc) (res any, err error)

// chainInterceptors combines multiple interceptors into a single one.
// The first interceptor in the slice is the outer-most one (runs first).
func chainInterceptors(interceptors []Interceptor) Interceptor {
	if len(interceptors) == 0 {
		return nil
	}
	if len(interceptors) == 1 {
		return interceptors[0]
	}
	return func(ctx context.Context, call CallInfo, args []any, handler HandlerFunc) (any, error) {
		// Chain: i[0] -> i[1] -> ... -> handler
		chain := handler
		for i := len(interceptors) - 1; i >= 0; i-- {
			current := interceptors[i]
			next := chain
			chain = func(ctx context.Context, args []any) (any, error) {
				return current(ctx, call, args, next)
			}
		}
		return chain(ctx, args)
	}
}

// LoggingInterceptor logs every call at debug level and failures at warn.
func LoggingInterceptor(l *zap.Logger) Interceptor {
	if l == nil {
		l = logger.Named("module")
	}
	return func(ctx context.Context, call CallInfo, args []any, next HandlerFunc) (any, error) {
		start := time.Now()
		res, err := next(ctx, args)
		fields := []zap.Field{
			zap.String(logger.FieldModule, call.Module),
			zap.String(logger.FieldMethod, call.Method),
			zap.Stringer(logger.FieldMode, call.Mode),
			zap.Int64(logger.FieldDurationMS, time.Since(start).Milliseconds()),
		}
		if err != nil {
			l.Warn("call failed", append(fields, zap.Error(err))...)
		} else {
			l.Debug("call", fields...)
		}
		return res, err
	}
}
