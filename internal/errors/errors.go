// Package errors provides error handling for craby.
//
// It re-exports github.com/cockroachdb/errors so that every package wraps,
// annotates and inspects errors the same way:
//
//	if err := load(path); err != nil {
//	    return errors.Wrapf(err, "load %s", path)
//	}
//
//	return errors.WithHint(err, "run `craby doctor` to inspect the project")
package errors

import (
	crdb "github.com/cockroachdb/errors"
	"go.uber.org/multierr"
)

// Creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Inspection
var (
	Is           = crdb.Is
	As           = crdb.As
	Unwrap       = crdb.Unwrap
	UnwrapAll    = crdb.UnwrapAll
	GetAllHints  = crdb.GetAllHints
	FlattenHints = crdb.FlattenHints
)

// Aggregation. Generation reports every failure at once, so callers collect
// with Append and split with Errors.
var (
	Append  = multierr.Append
	Combine = multierr.Combine
	Errors  = multierr.Errors
)
