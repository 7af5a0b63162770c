package craby

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/l2hyunwoo/craby/crabygen/ir"
)

// Object is the canonical value of an object type: its fields in declared
// order.
type Object struct {
	Type   string
	fields []ObjectField
}

// ObjectField is one named member of an Object.
type ObjectField struct {
	Name  string
	Value any
}

// Get returns the value of the named field.
func (o *Object) Get(name string) (any, bool) {
	for _, f := range o.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Fields returns the fields in declared order.
func (o *Object) Fields() []ObjectField {
	return append([]ObjectField(nil), o.fields...)
}

// Len returns the number of fields.
func (o *Object) Len() int { return len(o.fields) }

// EnumValue is the canonical value of an enum: the matched variant.
type EnumValue struct {
	Enum  string
	Label string
	Value any
}

func (v EnumValue) String() string { return v.Enum + "." + v.Label }

// Marshaler converts values between the calling environment and their
// canonical form, following the types declared by one module.
//
// Boundary values are what a JavaScript engine hands over after decoding:
// nil, numbers, strings, bools, []any and map[string]any. Canonical values
// are float64, string, bool, []any, *Object, Nullable[any] and EnumValue.
type Marshaler struct {
	spec *ir.ModuleSpec
}

// NewMarshaler creates a marshaler resolving references against spec.
func NewMarshaler(spec *ir.ModuleSpec) *Marshaler {
	return &Marshaler{spec: spec}
}

// FromBoundary converts a calling-environment value to the canonical form
// of t.
func (m *Marshaler) FromBoundary(t ir.Type, v any) (any, error) {
	return m.from("", t, v)
}

// FromBoundaryAt is FromBoundary with the mismatch path rooted at path.
func (m *Marshaler) FromBoundaryAt(path string, t ir.Type, v any) (any, error) {
	return m.from(path, t, v)
}

// ToBoundary converts a canonical value of t back to the calling
// environment's representation.
func (m *Marshaler) ToBoundary(t ir.Type, v any) (any, error) {
	return m.to("", t, v)
}

// ToBoundaryAt is ToBoundary with the mismatch path rooted at path.
func (m *Marshaler) ToBoundaryAt(path string, t ir.Type, v any) (any, error) {
	return m.to(path, t, v)
}

func mismatch(path string, t ir.Type, got string) error {
	if path == "" {
		path = t.String()
	}
	return &TypeMismatchError{Path: path, Expected: t.String(), Got: got}
}

// describe names the kind of a boundary value for mismatch reports.
func describe(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return "string " + strconv.Quote(x)
	case bool:
		return "boolean"
	case map[string]any, *Object:
		return "object"
	case nullable:
		inner, ok := x.boundary()
		if !ok {
			return "null"
		}
		return describe(inner)
	}
	if f, ok := toFloat(v); ok {
		return "number " + strconv.FormatFloat(f, 'g', -1, 64)
	}
	if k := reflect.ValueOf(v).Kind(); k == reflect.Slice || k == reflect.Array {
		return "array"
	}
	return fmt.Sprintf("%T", v)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}

// toSlice spreads any slice or array into []any. A nil slice is empty.
func toSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return []any{}, true
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// isNull reports whether v stands for null: nil itself or a typed nil
// pointer, map or slice, the way encoding/json writes them.
func isNull(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

func (m *Marshaler) from(path string, t ir.Type, v any) (any, error) {
	// A present Nullable handed in directly stands for its value.
	if n, ok := v.(nullable); ok && t.Kind() != ir.KindNullable {
		inner, present := n.boundary()
		if !present {
			return nil, mismatch(path, t, "null")
		}
		v = inner
	}

	switch x := t.(type) {
	case *ir.NumberType:
		if f, ok := toFloat(v); ok {
			return f, nil
		}
	case *ir.StringType:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case *ir.BooleanType:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case *ir.VoidType:
		if v == nil {
			return nil, nil
		}
	case *ir.PromiseType:
		return m.from(path, x.Elem, v)
	case *ir.NullableType:
		return m.fromNullable(path, x, v)
	case *ir.ArrayType:
		items, ok := toSlice(v)
		if !ok {
			break
		}
		out := make([]any, len(items))
		for i, item := range items {
			conv, err := m.from(fmt.Sprintf("%s[%d]", pathOr(path, t), i), x.Elem, item)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	case *ir.ObjectRefType:
		return m.fromObject(path, x, v)
	case *ir.EnumRefType:
		return m.fromEnum(path, x, v)
	}
	return nil, mismatch(path, t, describe(v))
}

func pathOr(path string, t ir.Type) string {
	if path == "" {
		return t.String()
	}
	return path
}

func (m *Marshaler) fromNullable(path string, t *ir.NullableType, v any) (any, error) {
	if n, ok := v.(nullable); ok {
		inner, present := n.boundary()
		if !present {
			return None[any](), nil
		}
		v = inner
	}
	if isNull(v) {
		return None[any](), nil
	}
	conv, err := m.from(path, t.Elem, v)
	if err != nil {
		return nil, err
	}
	return Some(conv), nil
}

func (m *Marshaler) fromObject(path string, t *ir.ObjectRefType, v any) (any, error) {
	def := m.spec.Object(t.Name)
	if def == nil {
		return nil, mismatch(path, t, "undeclared object type")
	}
	if path == "" {
		path = def.Name
	}

	var lookup func(string) (any, bool)
	switch x := v.(type) {
	case map[string]any:
		lookup = func(name string) (any, bool) {
			fv, ok := x[name]
			return fv, ok
		}
	case *Object:
		if x == nil {
			return nil, mismatch(path, t, "null")
		}
		lookup = x.Get
	default:
		return nil, mismatch(path, t, describe(v))
	}

	obj := &Object{Type: def.Name, fields: make([]ObjectField, 0, len(def.Fields))}
	for _, f := range def.Fields {
		fpath := path + "." + f.Name
		raw, ok := lookup(f.Name)
		if !ok && f.Type.Kind() != ir.KindNullable {
			return nil, &TypeMismatchError{Path: fpath, Expected: f.Type.String(), Got: "missing field"}
		}
		conv, err := m.from(fpath, f.Type, raw)
		if err != nil {
			return nil, err
		}
		obj.fields = append(obj.fields, ObjectField{Name: f.Name, Value: conv})
	}
	return obj, nil
}

func (m *Marshaler) fromEnum(path string, t *ir.EnumRefType, v any) (any, error) {
	def := m.spec.Enum(t.Name)
	if def == nil {
		return nil, mismatch(path, t, "undeclared enum type")
	}
	if ev, ok := v.(EnumValue); ok {
		v = ev.Value
	}

	var key any
	switch def.Kind {
	case ir.EnumString:
		s, ok := v.(string)
		if !ok {
			return nil, mismatch(path, t, describe(v))
		}
		key = s
	case ir.EnumNumeric:
		f, ok := toFloat(v)
		if !ok {
			return nil, mismatch(path, t, describe(v))
		}
		key = f
	}

	variant, ok := def.Variant(key)
	if !ok {
		return nil, mismatch(path, t, "unknown enum value "+describe(v))
	}
	return EnumValue{Enum: def.Name, Label: variant.Label, Value: variant.Value}, nil
}

func (m *Marshaler) to(path string, t ir.Type, v any) (any, error) {
	switch x := t.(type) {
	case *ir.NullableType:
		if n, ok := v.(nullable); ok {
			inner, present := n.boundary()
			if !present {
				return nil, nil
			}
			v = inner
		}
		if isNull(v) {
			return nil, nil
		}
		return m.to(path, x.Elem, v)
	case *ir.PromiseType:
		return m.to(path, x.Elem, v)
	case *ir.ArrayType:
		items, ok := toSlice(v)
		if !ok {
			return nil, mismatch(path, t, describe(v))
		}
		out := make([]any, len(items))
		for i, item := range items {
			conv, err := m.to(fmt.Sprintf("%s[%d]", pathOr(path, t), i), x.Elem, item)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	case *ir.ObjectRefType:
		canon, err := m.fromObject(path, x, v)
		if err != nil {
			return nil, err
		}
		obj := canon.(*Object)
		def := m.spec.Object(x.Name)
		out := make(map[string]any, len(def.Fields))
		base := path
		if base == "" {
			base = def.Name
		}
		for i, f := range def.Fields {
			conv, err := m.to(base+"."+f.Name, f.Type, obj.fields[i].Value)
			if err != nil {
				return nil, err
			}
			out[f.Name] = conv
		}
		return out, nil
	case *ir.EnumRefType:
		canon, err := m.fromEnum(path, x, v)
		if err != nil {
			return nil, err
		}
		return canon.(EnumValue).Value, nil
	case *ir.VoidType:
		return nil, nil
	default:
		return m.from(path, t, v)
	}
}
