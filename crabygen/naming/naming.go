// Package naming derives the identifiers shared by the Rust and C++
// emitters, so both sides of the bridge agree on every symbol.
package naming

import (
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/l2hyunwoo/craby/crabygen/ir"
)

// Module holds the casing variants of a module name.
type Module struct {
	Name   string // as registered, e.g. "CrabyTest"
	Pascal string // CrabyTest
	Snake  string // craby_test
	Flat   string // crabytest
}

// ForModule derives the naming variants of a registered module name.
func ForModule(name string) Module {
	snake := strcase.ToSnake(name)
	return Module{
		Name:   name,
		Pascal: strcase.ToCamel(name),
		Snake:  snake,
		Flat:   strings.ReplaceAll(snake, "_", ""),
	}
}

// Namespace is the C++ namespace of the module's bridge declarations.
func (m Module) Namespace(root string) string {
	return root + "::" + m.Flat + "::bridging"
}

// CxxModule is the C++ TurboModule class name.
func (m Module) CxxModule() string { return "Cxx" + m.Pascal + "Module" }

// ModuleProvider is the Objective-C class registering the module on iOS.
func (m Module) ModuleProvider() string { return m.Pascal + "ModuleProvider" }

// SpecTrait is the Rust trait each module implementation satisfies.
func (m Module) SpecTrait() string { return m.Pascal + "Spec" }

// SignalEnum is the Rust enum listing the module's signals.
func (m Module) SignalEnum() string { return m.Pascal + "Signal" }

// ImplModule is the Rust module holding the user's implementation.
func (m Module) ImplModule() string { return m.Snake + "_impl" }

// ExternFn is the bridge-level function name of a method: it is prefixed
// with the module so several modules can share one crate.
func (m Module) ExternFn(method string) string {
	return m.Snake + "_" + strcase.ToSnake(method)
}

// EmitFn is the C++ function Rust calls to raise a signal.
func (m Module) EmitFn() string { return m.Snake + "_emit" }

// Snake converts a declared name to snake_case.
func Snake(name string) string { return strcase.ToSnake(name) }

// Pascal converts a declared name to PascalCase.
func Pascal(name string) string { return strcase.ToCamel(name) }

// Carrier is the name of the bridge struct that represents a Nullable type,
// e.g. NullableString, NullableProfile, NullableNumberArray.
func Carrier(t *ir.NullableType) string {
	return "Nullable" + Ident(t.Elem)
}

// Ident spells a type as a single identifier fragment.
func Ident(t ir.Type) string {
	switch x := t.(type) {
	case *ir.NumberType:
		return "Number"
	case *ir.StringType:
		return "String"
	case *ir.BooleanType:
		return "Boolean"
	case *ir.VoidType:
		return "Void"
	case *ir.ObjectRefType:
		return x.Name
	case *ir.EnumRefType:
		return x.Name
	case *ir.ArrayType:
		return Ident(x.Elem) + "Array"
	case *ir.NullableType:
		return Carrier(x)
	case *ir.PromiseType:
		return Ident(x.Elem) + "Promise"
	default:
		return "Unknown"
	}
}
