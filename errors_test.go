package craby

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/l2hyunwoo/craby/internal/errors"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{NewError(CodeNotFound, "no method"), "not_found: no method"},
		{Errorf(CodeInvalidArgument, "expected %d argument(s)", 2), "invalid_argument: expected 2 argument(s)"},
		{&TypeMismatchError{Path: "Profile.address.city", Expected: "string", Got: "missing field"}, "TypeMismatch: Profile.address.city: expected string, got missing field"},
		{&PromiseRejection{Method: "sum", Message: "overflow"}, "sum: promise rejected: overflow"},
		{&PromiseRejection{Message: "overflow"}, "promise rejected: overflow"},
		{&DirectCallAbort{Method: "add", Panic: "boom"}, "add: call aborted: boom"},
	}
	for _, tt := range tests {
		assert.EqualError(t, tt.err, tt.want)
	}
}

func TestError_WithDetail(t *testing.T) {
	base := NewError(CodeTypeMismatch, "bad value")
	withPath := base.WithDetail("path", "add.a")
	both := withPath.WithDetail("got", "string")

	assert.Nil(t, base.Details)
	assert.Equal(t, map[string]any{"path": "add.a"}, withPath.Details)
	assert.Equal(t, map[string]any{"path": "add.a", "got": "string"}, both.Details)
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ""},
		{"plain", errors.New("plain"), CodeInternal},
		{"call error", NewError(CodeNotImplemented, "x"), CodeNotImplemented},
		{"wrapped call error", errors.Wrap(NewError(CodeNotFound, "x"), "context"), CodeNotFound},
		{"mismatch", &TypeMismatchError{}, CodeTypeMismatch},
		{"abort", &DirectCallAbort{}, CodeCallAborted},
		{"rejection", &PromiseRejection{Cause: errors.New("io")}, CodePromiseRejected},
		{"rejection keeps cause code", &PromiseRejection{Cause: NewError(CodeNotFound, "x")}, CodeNotFound},
		{"canceled", errors.Wrap(context.Canceled, "wait"), CodeCanceled},
		{"deadline", context.DeadlineExceeded, CodeDeadlineExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}
