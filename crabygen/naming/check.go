package naming

import (
	"github.com/l2hyunwoo/craby/crabygen/ir"
	"github.com/l2hyunwoo/craby/internal/errors"
)

// Check reports declarations that are distinct as written but collide once
// the emitters convert their case, e.g. methods getValue and get_value both
// becoming get_value. It also catches Nullable carriers that share a
// struct name with each other or with a declared type.
func Check(spec *ir.ModuleSpec) error {
	var err error

	methods := make(symbols)
	for _, m := range spec.Methods {
		err = errors.Append(err, methods.add(m.Source, "method", Snake(m.Name), m.Name))

		params := make(symbols)
		for _, p := range m.Params {
			err = errors.Append(err, params.add(m.Source, "parameter", Snake(p.Name), m.Name+"."+p.Name))
		}
	}

	signals := make(symbols)
	for _, s := range spec.Signals {
		err = errors.Append(err, signals.add(s.Source, "signal", Pascal(s.Name), s.Name))
	}

	bridge := make(symbols)
	for _, t := range spec.TypeDefs {
		err = errors.Append(err, bridge.add(t.Src(), "type", t.DefName(), t.DefName()))

		switch d := t.(type) {
		case *ir.ObjectTypeDef:
			fields := make(symbols)
			for _, f := range d.Fields {
				err = errors.Append(err, fields.add(f.Source, "field", Snake(f.Name), d.Name+"."+f.Name))
			}
		case *ir.EnumTypeDef:
			variants := make(symbols)
			for _, v := range d.Variants {
				err = errors.Append(err, variants.add(d.Source, "enum variant", Pascal(v.Label), d.Name+"."+v.Label))
			}
		}
	}
	for _, n := range spec.NullableTypes() {
		err = errors.Append(err, bridge.add(spec.Source, "nullable carrier", Carrier(n), n.String()))
	}
	return err
}

// CheckModules reports modules whose names differ only in case or
// separators. They would share a C++ namespace and generated file names.
func CheckModules(specs []*ir.ModuleSpec) error {
	var err error
	seen := make(symbols)
	for _, s := range specs {
		err = errors.Append(err, seen.add(s.Source, "module", ForModule(s.Name).Flat, s.Name))
	}
	return err
}

type symbol struct {
	declared string
	source   ir.Source
}

// symbols maps an emitted identifier to the declaration that claimed it.
type symbols map[string]symbol

// add claims key for declared. Declaring the same name twice is left to
// ir.Validate; only distinct declarations that meet at key are reported.
func (s symbols) add(src ir.Source, what, key, declared string) error {
	prev, ok := s[key]
	if !ok {
		s[key] = symbol{declared: declared, source: src}
		return nil
	}
	if prev.declared == declared {
		return nil
	}
	return errors.WithHintf(
		&ir.DuplicateDefinitionError{Source: src, What: what, Name: declared, Previous: prev.source},
		"%s and %s are both emitted as %s; rename one of them", prev.declared, declared, key)
}
