package ir

import (
	"fmt"

	"github.com/l2hyunwoo/craby/internal/errors"
)

// position is where a type expression appears; it decides which variants are
// legal at the top level.
type position int

const (
	posParam position = iota
	posReturn
	posField
)

// Validate checks the whole module for structural issues.
// It runs after every definition has been registered so forward references
// between object types are allowed. All failures are returned together.
func (s *ModuleSpec) Validate() error {
	var err error

	err = errors.Append(err, s.checkNames())

	for _, m := range s.Methods {
		for _, p := range m.Params {
			err = errors.Append(err, s.checkType(p.Type, posParam, m.Source, s.Name+"."+m.Name+" param "+p.Name))
		}
		err = errors.Append(err, s.checkType(m.Return, posReturn, m.Source, s.Name+"."+m.Name+" return type"))
	}

	for _, t := range s.TypeDefs {
		switch d := t.(type) {
		case *ObjectTypeDef:
			for _, f := range d.Fields {
				err = errors.Append(err, s.checkType(f.Type, posField, f.Source, d.Name+"."+f.Name))
			}
		case *EnumTypeDef:
			err = errors.Append(err, checkEnum(d))
		}
	}

	// Cycle detection needs resolvable references; skip it when any are dangling.
	if err == nil {
		err = s.detectCycles()
	}
	return err
}

func (s *ModuleSpec) checkNames() error {
	var err error

	callables := make(map[string]Source)
	for _, m := range s.Methods {
		if prev, ok := callables[m.Name]; ok {
			err = errors.Append(err, &DuplicateDefinitionError{Source: m.Source, What: "method", Name: m.Name, Previous: prev})
			continue
		}
		callables[m.Name] = m.Source
	}
	for _, sig := range s.Signals {
		if prev, ok := callables[sig.Name]; ok {
			err = errors.Append(err, &DuplicateDefinitionError{Source: sig.Source, What: "signal", Name: sig.Name, Previous: prev})
			continue
		}
		callables[sig.Name] = sig.Source
	}

	types := make(map[string]Source)
	for _, t := range s.TypeDefs {
		if prev, ok := types[t.DefName()]; ok {
			err = errors.Append(err, &DuplicateDefinitionError{Source: t.Src(), What: "type", Name: t.DefName(), Previous: prev})
			continue
		}
		types[t.DefName()] = t.Src()

		// The implementation type takes the module's name on the native side.
		if t.DefName() == s.Name {
			err = errors.Append(err, &DuplicateDefinitionError{Source: t.Src(), What: "type named after module", Name: t.DefName(), Previous: s.Source})
		}

		if d, ok := t.(*ObjectTypeDef); ok {
			fields := make(map[string]Source)
			for _, f := range d.Fields {
				if prev, ok := fields[f.Name]; ok {
					err = errors.Append(err, &DuplicateDefinitionError{Source: f.Source, What: "field", Name: d.Name + "." + f.Name, Previous: prev})
					continue
				}
				fields[f.Name] = f.Source
			}
		}
	}
	return err
}

func checkEnum(d *EnumTypeDef) error {
	var err error
	if len(d.Variants) == 0 {
		err = errors.Append(err, &UnsupportedTypeError{Source: d.Source, Construct: "empty enum", Context: d.Name})
	}
	labels := make(map[string]bool)
	values := make(map[any]bool)
	for _, v := range d.Variants {
		if labels[v.Label] {
			err = errors.Append(err, &DuplicateDefinitionError{Source: d.Source, What: "enum variant", Name: d.Name + "." + v.Label})
		}
		labels[v.Label] = true

		switch v.Value.(type) {
		case string:
			if d.Kind != EnumString {
				err = errors.Append(err, &UnsupportedTypeError{Source: d.Source, Construct: "mixed enum members", Context: d.Name})
			}
		case float64:
			if d.Kind != EnumNumeric {
				err = errors.Append(err, &UnsupportedTypeError{Source: d.Source, Construct: "mixed enum members", Context: d.Name})
			}
		default:
			err = errors.Append(err, &UnsupportedTypeError{Source: d.Source, Construct: fmt.Sprintf("enum value %v", v.Value), Context: d.Name})
		}

		if values[v.Value] {
			err = errors.Append(err, &DuplicateDefinitionError{Source: d.Source, What: "enum value", Name: fmt.Sprintf("%s = %v", d.Name, v.Value)})
		}
		values[v.Value] = true
	}
	return err
}

// checkType enforces the placement rules of the closed union: Promise only
// at the top of a return type, Void only as a return or Promise payload,
// no Nullable directly inside Nullable, and no dangling references.
func (s *ModuleSpec) checkType(t Type, pos position, src Source, context string) error {
	if t == nil {
		return &UnsupportedTypeError{Source: src, Construct: "missing type", Context: context}
	}

	var err error
	depth := 0
	var parent Type
	Walk(t, func(cur Type) {
		defer func() { parent = cur; depth++ }()

		switch x := cur.(type) {
		case *PromiseType:
			if pos != posReturn || depth > 0 {
				err = errors.Append(err, &UnsupportedTypeError{Source: src, Construct: "Promise outside a method return type", Context: context})
			}
		case *VoidType:
			returnTop := pos == posReturn && depth == 0
			promisePayload := parent != nil && parent.Kind() == KindPromise && depth == 1
			if !returnTop && !promisePayload {
				err = errors.Append(err, &UnsupportedTypeError{Source: src, Construct: "void", Context: context})
			}
		case *NullableType:
			if x.Elem != nil && x.Elem.Kind() == KindNullable {
				err = errors.Append(err, &UnsupportedTypeError{Source: src, Construct: "nested nullable", Context: context})
			}
		case *ObjectRefType:
			if s.Object(x.Name) == nil {
				err = errors.Append(err, &UnsupportedTypeError{Source: src, Construct: fmt.Sprintf("unknown type %q", x.Name), Context: context})
			}
		case *EnumRefType:
			if s.Enum(x.Name) == nil {
				err = errors.Append(err, &UnsupportedTypeError{Source: src, Construct: fmt.Sprintf("unknown enum %q", x.Name), Context: context})
			}
		}
	})
	return err
}

// edge is a non-nullable containment from one object to another.
type edge struct {
	target string
	field  Field
}

// detectCycles walks the object graph restricted to non-Nullable edges.
// Arrays are not an indirection: Foo[] inside Foo is still a cycle.
func (s *ModuleSpec) detectCycles() error {
	var err error

	objects := s.Objects()
	edges := make(map[string][]edge, len(objects))
	for _, d := range objects {
		for _, f := range d.Fields {
			if target, ok := directObjectRef(f.Type); ok {
				edges[d.Name] = append(edges[d.Name], edge{target: target, field: f})
			}
		}
	}

	visited := make(map[string]bool)
	inStack := make(map[string]bool)
	var stack []string

	var visit func(name string)
	visit = func(name string) {
		visited[name] = true
		inStack[name] = true
		stack = append(stack, name)

		for _, e := range edges[name] {
			if inStack[e.target] {
				err = errors.Append(err, cycleError(stack, name, e))
				continue
			}
			if !visited[e.target] {
				visit(e.target)
			}
		}

		stack = stack[:len(stack)-1]
		inStack[name] = false
	}

	for _, d := range objects {
		if !visited[d.Name] {
			visit(d.Name)
		}
	}
	return err
}

// directObjectRef returns the object a field type contains without passing
// through a Nullable wrapper.
func directObjectRef(t Type) (string, bool) {
	for t != nil {
		switch x := t.(type) {
		case *NullableType:
			return "", false
		case *ObjectRefType:
			return x.Name, true
		}
		t = Elem(t)
	}
	return "", false
}

func cycleError(stack []string, from string, e edge) *CyclicTypeError {
	start := 0
	for i, n := range stack {
		if n == e.target {
			start = i
			break
		}
	}
	path := append(append([]string(nil), stack[start:]...), e.target)
	return &CyclicTypeError{
		Source: e.field.Source,
		Path:   path,
		Field:  from + "." + e.field.Name,
	}
}
