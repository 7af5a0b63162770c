package provider

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/l2hyunwoo/craby/crabygen/ir"
)

// numberAliases are React Native codegen aliases that all resolve to Number.
var numberAliases = map[string]bool{
	"Int32":  true,
	"Float":  true,
	"Double": true,
}

// resolve maps a declared type expression to its canonical Type.
// Unsupported constructs are recorded on the unit and reported as !ok.
// Placement rules (Promise position, nested Nullable) are checked later by
// ModuleSpec.Validate, once every definition is known.
func (u *unit) resolve(n *sitter.Node, context string) (ir.Type, bool) {
	switch n.Type() {
	case "predefined_type":
		switch text := u.text(n); text {
		case "number":
			return ir.Number(), true
		case "string":
			return ir.String(), true
		case "boolean":
			return ir.Boolean(), true
		case "void":
			return ir.Void(), true
		default:
			u.unsupported(n, text, context)
			return nil, false
		}

	case "type_identifier":
		return u.resolveName(n, u.text(n), context)

	case "generic_type":
		return u.resolveGeneric(n, context)

	case "array_type":
		elem, ok := u.resolveChild(n, context)
		if !ok {
			return nil, false
		}
		return ir.ArrayOf(elem), true

	case "parenthesized_type":
		return u.resolveChild(n, context)

	case "union_type":
		return u.resolveUnion(n, context)

	case "literal_type":
		if u.isNull(n) {
			u.unsupported(n, "bare null", context)
		} else {
			u.unsupported(n, "literal type", context)
		}
		return nil, false

	case "intersection_type":
		u.unsupported(n, "intersection", context)
	case "tuple_type":
		u.unsupported(n, "tuple", context)
	case "function_type":
		u.unsupported(n, "function type", context)
	case "constructor_type":
		u.unsupported(n, "class", context)
	case "object_type":
		u.unsupported(n, "type literal", context)
	case "nested_type_identifier":
		u.unsupported(n, "qualified type "+u.text(n), context)
	default:
		u.unsupported(n, strings.ReplaceAll(n.Type(), "_", " "), context)
	}
	return nil, false
}

func (u *unit) resolveChild(n *sitter.Node, context string) (ir.Type, bool) {
	if n.NamedChildCount() == 0 {
		u.unsupported(n, "empty type", context)
		return nil, false
	}
	return u.resolve(n.NamedChild(0), context)
}

func (u *unit) resolveName(n *sitter.Node, name, context string) (ir.Type, bool) {
	if numberAliases[name] {
		return ir.Number(), true
	}
	switch name {
	case "Signal":
		u.unsupported(n, "Signal outside a module property", context)
		return nil, false
	case "Promise", "Array", "ReadonlyArray":
		u.unsupported(n, name+" without a type argument", context)
		return nil, false
	}

	d, ok := u.decls[name]
	if !ok {
		u.unsupported(n, fmt.Sprintf("unknown type %q", name), context)
		return nil, false
	}
	switch d.kind {
	case declObject:
		return ir.ObjectRef(name), true
	case declEnum:
		return ir.EnumRef(name), true
	case declClass:
		u.unsupported(n, "class", context)
	default:
		u.unsupported(n, "module interface "+name, context)
	}
	return nil, false
}

func (u *unit) resolveGeneric(n *sitter.Node, context string) (ir.Type, bool) {
	name := u.childText(n, "type_identifier")
	args := firstChild(n, "type_arguments")

	var argNodes []*sitter.Node
	if args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			if a := args.NamedChild(i); a.Type() != "comment" {
				argNodes = append(argNodes, a)
			}
		}
	}

	switch name {
	case "Promise", "Array", "ReadonlyArray":
	default:
		u.unsupported(n, "generic type "+u.text(n), context)
		return nil, false
	}
	if len(argNodes) != 1 {
		u.unsupported(n, fmt.Sprintf("%s with %d type arguments", name, len(argNodes)), context)
		return nil, false
	}

	elem, ok := u.resolve(argNodes[0], context)
	if !ok {
		return nil, false
	}
	if name == "Promise" {
		return ir.PromiseOf(elem), true
	}
	return ir.ArrayOf(elem), true
}

// resolveUnion accepts exactly `T | null` and `null | T`.
func (u *unit) resolveUnion(n *sitter.Node, context string) (ir.Type, bool) {
	var arms []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() != "comment" {
			arms = append(arms, c)
		}
	}

	switch len(arms) {
	case 1:
		// Leading pipe: `| T`.
		return u.resolve(arms[0], context)
	case 2:
	default:
		u.unsupported(n, "union", context)
		return nil, false
	}

	leftNull, rightNull := u.isNull(arms[0]), u.isNull(arms[1])
	var inner *sitter.Node
	switch {
	case leftNull && !rightNull:
		inner = arms[1]
	case rightNull && !leftNull:
		inner = arms[0]
	default:
		u.unsupported(n, "union", context)
		return nil, false
	}

	t, ok := u.resolve(inner, context)
	if !ok {
		return nil, false
	}
	return ir.Nullable(t), true
}

func (u *unit) isNull(n *sitter.Node) bool {
	switch n.Type() {
	case "literal_type", "predefined_type", "null":
		return u.text(n) == "null"
	}
	return false
}
