package craby

import (
	"context"

	"github.com/l2hyunwoo/craby/crabygen/dispatch"
)

type contextKey struct {
	name string
}

var callInfoKey = &contextKey{"call_info"}

// CallInfo identifies the method call in progress.
type CallInfo struct {
	Module string
	Method string
	Mode   dispatch.Mode
}

// CallFromContext returns the call a method implementation is serving.
func CallFromContext(ctx context.Context) (CallInfo, bool) {
	info, ok := ctx.Value(callInfoKey).(CallInfo)
	return info, ok
}

func newCallContext(ctx context.Context, info CallInfo) context.Context {
	return context.WithValue(ctx, callInfoKey, info)
}
