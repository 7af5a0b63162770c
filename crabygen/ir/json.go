package ir

import "encoding/json"

// JSON serialization support for IR types.
// Types and definitions include a "kind" field for discrimination.

type typeJSON struct {
	Kind string `json:"kind"`
	Name string `json:"name,omitempty"`
	Elem Type   `json:"elem,omitempty"`
}

func marshalType(t Type) ([]byte, error) {
	out := typeJSON{Kind: t.Kind().String(), Elem: Elem(t)}
	if name, ok := RefName(t); ok {
		out.Name = name
	}
	return json.Marshal(out)
}

func (t *NumberType) MarshalJSON() ([]byte, error)    { return marshalType(t) }
func (t *StringType) MarshalJSON() ([]byte, error)    { return marshalType(t) }
func (t *BooleanType) MarshalJSON() ([]byte, error)   { return marshalType(t) }
func (t *VoidType) MarshalJSON() ([]byte, error)      { return marshalType(t) }
func (t *ObjectRefType) MarshalJSON() ([]byte, error) { return marshalType(t) }
func (t *EnumRefType) MarshalJSON() ([]byte, error)   { return marshalType(t) }
func (t *ArrayType) MarshalJSON() ([]byte, error)     { return marshalType(t) }
func (t *NullableType) MarshalJSON() ([]byte, error)  { return marshalType(t) }
func (t *PromiseType) MarshalJSON() ([]byte, error)   { return marshalType(t) }

// MarshalJSON implements json.Marshaler for ObjectTypeDef.
func (d *ObjectTypeDef) MarshalJSON() ([]byte, error) {
	type field struct {
		Name string `json:"name"`
		Type Type   `json:"type"`
	}
	fields := make([]field, len(d.Fields))
	for i, f := range d.Fields {
		fields[i] = field{Name: f.Name, Type: f.Type}
	}
	return json.Marshal(&struct {
		Kind   string  `json:"kind"`
		Name   string  `json:"name"`
		Fields []field `json:"fields"`
	}{
		Kind:   "object",
		Name:   d.Name,
		Fields: fields,
	})
}

// MarshalJSON implements json.Marshaler for EnumTypeDef.
func (d *EnumTypeDef) MarshalJSON() ([]byte, error) {
	type variant struct {
		Label string `json:"label"`
		Value any    `json:"value"`
	}
	variants := make([]variant, len(d.Variants))
	for i, v := range d.Variants {
		variants[i] = variant{Label: v.Label, Value: v.Value}
	}
	return json.Marshal(&struct {
		Kind     string    `json:"kind"`
		Name     string    `json:"name"`
		EnumKind string    `json:"enumKind"`
		Variants []variant `json:"variants"`
	}{
		Kind:     "enum",
		Name:     d.Name,
		EnumKind: d.Kind.String(),
		Variants: variants,
	})
}

// MarshalJSON implements json.Marshaler for ModuleSpec.
func (s *ModuleSpec) MarshalJSON() ([]byte, error) {
	type param struct {
		Name string `json:"name"`
		Type Type   `json:"type"`
	}
	type method struct {
		Name    string  `json:"name"`
		Params  []param `json:"params"`
		Return  Type    `json:"returnType"`
		IsAsync bool    `json:"isAsync"`
	}
	methods := make([]method, len(s.Methods))
	for i, m := range s.Methods {
		params := make([]param, len(m.Params))
		for j, p := range m.Params {
			params[j] = param{Name: p.Name, Type: p.Type}
		}
		methods[i] = method{Name: m.Name, Params: params, Return: m.Return, IsAsync: m.IsAsync()}
	}
	signals := make([]string, len(s.Signals))
	for i, sig := range s.Signals {
		signals[i] = sig.Name
	}
	return json.Marshal(&struct {
		Name     string    `json:"name"`
		Methods  []method  `json:"methods"`
		Signals  []string  `json:"signals"`
		TypeDefs []TypeDef `json:"typeDefs"`
	}{
		Name:     s.Name,
		Methods:  methods,
		Signals:  signals,
		TypeDefs: s.TypeDefs,
	})
}
