// Package cxx emits the C++ side of the bridge: a TurboModule per module
// whose thunks marshal JSI values, call the Rust functions and, for
// deferred methods, settle a promise from a worker thread.
package cxx

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/l2hyunwoo/craby/crabygen/ir"
	"github.com/l2hyunwoo/craby/crabygen/naming"
)

// typeNamer spells IR types as C++ types inside one module's namespace.
type typeNamer struct {
	ns string // e.g. craby::calculator::bridging
}

func (n typeNamer) cxxType(t ir.Type) string {
	switch x := t.(type) {
	case *ir.NumberType:
		return "double"
	case *ir.StringType:
		return "rust::String"
	case *ir.BooleanType:
		return "bool"
	case *ir.VoidType:
		return "void"
	case *ir.ObjectRefType:
		return n.ns + "::" + x.Name
	case *ir.EnumRefType:
		return n.ns + "::" + x.Name
	case *ir.ArrayType:
		return "rust::Vec<" + n.cxxType(x.Elem) + ">"
	case *ir.NullableType:
		return n.ns + "::" + naming.Carrier(x)
	case *ir.PromiseType:
		return n.cxxType(x.Elem)
	default:
		return "void"
	}
}

// promiseType is the react::AsyncPromise instantiation for a deferred result.
func (n typeNamer) promiseType(result ir.Type) string {
	if result.Kind() == ir.KindVoid {
		return "react::AsyncPromise<>"
	}
	return "react::AsyncPromise<" + n.cxxType(result) + ">"
}

// fromJs converts the JSI value expression v to t.
func (n typeNamer) fromJs(t ir.Type, v string) string {
	return fmt.Sprintf("react::bridging::fromJs<%s>(rt, %s, callInvoker)", n.cxxType(t), v)
}

func cxxLiteral(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return strconv.Quote(x)
	default:
		return "0"
	}
}

// writer accumulates C++ source with two-space indentation.
type writer struct {
	buf   bytes.Buffer
	depth int
}

func (w *writer) line(format string, args ...any) {
	if format == "" {
		w.buf.WriteByte('\n')
		return
	}
	w.buf.WriteString(strings.Repeat("  ", w.depth))
	if len(args) == 0 {
		w.buf.WriteString(format)
	} else {
		fmt.Fprintf(&w.buf, format, args...)
	}
	w.buf.WriteByte('\n')
}

func (w *writer) raw(s string) { w.buf.WriteString(s) }

func (w *writer) in()  { w.depth++ }
func (w *writer) out() { w.depth-- }

func (w *writer) bytes() []byte { return w.buf.Bytes() }
