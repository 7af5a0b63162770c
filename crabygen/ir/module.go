package ir

import "strconv"

// Source represents a location in an interface description unit.
type Source struct {
	File   string
	Line   int
	Column int
}

// IsZero returns true if the source location is empty.
func (s Source) IsZero() bool {
	return s.File == "" && s.Line == 0 && s.Column == 0
}

// String formats the location as file:line:col.
func (s Source) String() string {
	if s.IsZero() {
		return "<unknown>"
	}
	out := s.File
	if out == "" {
		out = "<input>"
	}
	if s.Line > 0 {
		out += ":" + strconv.Itoa(s.Line)
		if s.Column > 0 {
			out += ":" + strconv.Itoa(s.Column)
		}
	}
	return out
}

// ModuleSpec is the validated description of one native module.
// It is built once by the extractor and never mutated afterwards.
type ModuleSpec struct {
	// Name is the registered module name, e.g. "Calculator".
	Name string

	// Methods in declaration order. Emission order follows this slice.
	Methods []Method

	// Signals in declaration order.
	Signals []SignalDef

	// TypeDefs holds the object and enum definitions the methods reach,
	// in declaration order. Names are unique.
	TypeDefs []TypeDef

	// Source is where the module contract was declared.
	Source Source
}

// Method is one callable operation of a module.
type Method struct {
	Name   string
	Params []Param
	Return Type
	Source Source
}

// IsAsync reports whether the method returns PromiseOf(_).
func (m Method) IsAsync() bool {
	return m.Return != nil && m.Return.Kind() == KindPromise
}

// Param is a named, typed method parameter.
type Param struct {
	Name string
	Type Type
}

// SignalDef is a payload-free event channel.
type SignalDef struct {
	Name   string
	Source Source
}

// TypeDef is a named definition referenced by ObjectRef or EnumRef.
type TypeDef interface {
	// DefName returns the declared name.
	DefName() string

	// Src returns the declaration location.
	Src() Source

	sealed()
}

// ObjectTypeDef is an object shape with ordered fields.
type ObjectTypeDef struct {
	Name   string
	Fields []Field
	Source Source
}

// Field is a named object member. A field whose Type is not Nullable is
// mandatory in every representation.
type Field struct {
	Name   string
	Type   Type
	Source Source
}

// EnumKind distinguishes string-valued and numeric-valued enums.
type EnumKind int

const (
	EnumString EnumKind = iota
	EnumNumeric
)

func (k EnumKind) String() string {
	if k == EnumNumeric {
		return "Numeric"
	}
	return "String"
}

// EnumTypeDef is an enumeration with ordered variants.
type EnumTypeDef struct {
	Name     string
	Kind     EnumKind
	Variants []EnumVariant
	Source   Source
}

// EnumVariant is a labelled literal. Value is a string for EnumString and a
// float64 holding an integral value for EnumNumeric.
type EnumVariant struct {
	Label string
	Value any
}

func (d *ObjectTypeDef) DefName() string { return d.Name }
func (d *ObjectTypeDef) Src() Source     { return d.Source }
func (*ObjectTypeDef) sealed()           {}

func (d *EnumTypeDef) DefName() string { return d.Name }
func (d *EnumTypeDef) Src() Source     { return d.Source }
func (*EnumTypeDef) sealed()           {}

// Variant returns the variant whose literal value equals v.
func (d *EnumTypeDef) Variant(v any) (EnumVariant, bool) {
	for _, variant := range d.Variants {
		if variant.Value == v {
			return variant, true
		}
	}
	return EnumVariant{}, false
}

// FindType looks up a definition by name. Returns nil if not found.
func (s *ModuleSpec) FindType(name string) TypeDef {
	for _, t := range s.TypeDefs {
		if t.DefName() == name {
			return t
		}
	}
	return nil
}

// Object returns the named object definition, or nil.
func (s *ModuleSpec) Object(name string) *ObjectTypeDef {
	d, _ := s.FindType(name).(*ObjectTypeDef)
	return d
}

// Enum returns the named enum definition, or nil.
func (s *ModuleSpec) Enum(name string) *EnumTypeDef {
	d, _ := s.FindType(name).(*EnumTypeDef)
	return d
}

// FindMethod looks up a method by name.
func (s *ModuleSpec) FindMethod(name string) (Method, bool) {
	for _, m := range s.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return Method{}, false
}

// HasSignal reports whether a signal with the given name is declared.
func (s *ModuleSpec) HasSignal(name string) bool {
	for _, sig := range s.Signals {
		if sig.Name == name {
			return true
		}
	}
	return false
}

// Objects returns the object definitions in declaration order.
func (s *ModuleSpec) Objects() []*ObjectTypeDef {
	var out []*ObjectTypeDef
	for _, t := range s.TypeDefs {
		if d, ok := t.(*ObjectTypeDef); ok {
			out = append(out, d)
		}
	}
	return out
}

// Enums returns the enum definitions in declaration order.
func (s *ModuleSpec) Enums() []*EnumTypeDef {
	var out []*EnumTypeDef
	for _, t := range s.TypeDefs {
		if d, ok := t.(*EnumTypeDef); ok {
			out = append(out, d)
		}
	}
	return out
}

// NullableTypes returns every distinct Nullable type used by the module's
// methods and fields, in first-use order.
func (s *ModuleSpec) NullableTypes() []*NullableType {
	var out []*NullableType
	seen := make(map[string]bool)
	visit := func(t Type) {
		Walk(t, func(n Type) {
			nt, ok := n.(*NullableType)
			if !ok || seen[nt.String()] {
				return
			}
			seen[nt.String()] = true
			out = append(out, nt)
		})
	}
	for _, m := range s.Methods {
		for _, p := range m.Params {
			visit(p.Type)
		}
		visit(m.Return)
	}
	for _, d := range s.Objects() {
		for _, f := range d.Fields {
			visit(f.Type)
		}
	}
	return out
}
