// Package rust emits the native-side declarations of a module: the cxx
// bridge, the Spec trait that implementations satisfy, and the glue that
// connects the two.
package rust

import (
	"strconv"

	"github.com/l2hyunwoo/craby/crabygen/ir"
	"github.com/l2hyunwoo/craby/crabygen/naming"
)

// bridgeType spells t as it crosses the cxx bridge. Nullable values travel
// as carrier structs; Promise results as cxx Result.
func bridgeType(t ir.Type) string {
	switch x := t.(type) {
	case *ir.NumberType:
		return "f64"
	case *ir.StringType:
		return "String"
	case *ir.BooleanType:
		return "bool"
	case *ir.VoidType:
		return "()"
	case *ir.ObjectRefType:
		return x.Name
	case *ir.EnumRefType:
		return x.Name
	case *ir.ArrayType:
		return "Vec<" + bridgeType(x.Elem) + ">"
	case *ir.NullableType:
		return naming.Carrier(x)
	case *ir.PromiseType:
		return "Result<" + bridgeType(x.Elem) + ">"
	default:
		return "()"
	}
}

// specType spells t in the Spec trait, where a top-level Nullable is an
// Option and a Promise is a fallible Result.
func specType(t ir.Type) string {
	switch x := t.(type) {
	case *ir.NullableType:
		return "Option<" + bridgeType(x.Elem) + ">"
	case *ir.PromiseType:
		return "Result<" + specType(x.Elem) + ", anyhow::Error>"
	default:
		return bridgeType(t)
	}
}

// bridgeReturnType is a method's return type on the bridge. Every method
// is fallible there: a panic in a direct call surfaces as a C++ exception
// instead of aborting.
func bridgeReturnType(t ir.Type) string {
	return "Result<" + bridgeType(ir.Unwrap(t)) + ">"
}

// glueReturnType is the return type of the Rust function cxx calls.
func glueReturnType(t ir.Type) string {
	return "Result<" + bridgeType(ir.Unwrap(t)) + ", anyhow::Error>"
}

func returnSuffix(rs string) string {
	if rs == "()" || rs == "" {
		return ""
	}
	return " -> " + rs
}

func isNullable(t ir.Type) bool {
	return t != nil && t.Kind() == ir.KindNullable
}

func enumValue(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return strconv.Quote(x)
	default:
		return ""
	}
}
