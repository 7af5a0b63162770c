// Package ir defines the intermediate representation shared by the schema
// extractor, the emitters and the runtime marshaler.
//
// Every declared type is resolved into the closed Type union below. Emitters
// consume it through exhaustive type switches; there is no other variant.
package ir

// Kind identifies a Type variant.
type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindBoolean
	KindVoid
	KindObject
	KindArray
	KindNullable
	KindEnum
	KindPromise
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "Number"
	case KindString:
		return "String"
	case KindBoolean:
		return "Boolean"
	case KindVoid:
		return "Void"
	case KindObject:
		return "ObjectRef"
	case KindArray:
		return "ArrayOf"
	case KindNullable:
		return "Nullable"
	case KindEnum:
		return "EnumRef"
	case KindPromise:
		return "PromiseOf"
	default:
		return "Unknown"
	}
}

// Type is a canonical resolved type.
type Type interface {
	// Kind returns the variant tag.
	Kind() Kind

	// String renders the type in declaration syntax, e.g. "Foo[] | null".
	String() string

	sealed()
}

type (
	NumberType  struct{}
	StringType  struct{}
	BooleanType struct{}
	VoidType    struct{}

	// ObjectRefType refers to an ObjectTypeDef by name.
	ObjectRefType struct{ Name string }

	// EnumRefType refers to an EnumTypeDef by name.
	EnumRefType struct{ Name string }

	ArrayType    struct{ Elem Type }
	NullableType struct{ Elem Type }
	PromiseType  struct{ Elem Type }
)

func Number() Type               { return &NumberType{} }
func String() Type               { return &StringType{} }
func Boolean() Type              { return &BooleanType{} }
func Void() Type                 { return &VoidType{} }
func ObjectRef(name string) Type { return &ObjectRefType{Name: name} }
func EnumRef(name string) Type   { return &EnumRefType{Name: name} }
func ArrayOf(elem Type) Type     { return &ArrayType{Elem: elem} }
func Nullable(elem Type) Type    { return &NullableType{Elem: elem} }
func PromiseOf(elem Type) Type   { return &PromiseType{Elem: elem} }

func (*NumberType) Kind() Kind    { return KindNumber }
func (*StringType) Kind() Kind    { return KindString }
func (*BooleanType) Kind() Kind   { return KindBoolean }
func (*VoidType) Kind() Kind      { return KindVoid }
func (*ObjectRefType) Kind() Kind { return KindObject }
func (*EnumRefType) Kind() Kind   { return KindEnum }
func (*ArrayType) Kind() Kind     { return KindArray }
func (*NullableType) Kind() Kind  { return KindNullable }
func (*PromiseType) Kind() Kind   { return KindPromise }

func (*NumberType) String() string      { return "number" }
func (*StringType) String() string      { return "string" }
func (*BooleanType) String() string     { return "boolean" }
func (*VoidType) String() string        { return "void" }
func (t *ObjectRefType) String() string { return t.Name }
func (t *EnumRefType) String() string   { return t.Name }
func (t *PromiseType) String() string   { return "Promise<" + t.Elem.String() + ">" }
func (t *NullableType) String() string  { return t.Elem.String() + " | null" }

func (t *ArrayType) String() string {
	if t.Elem.Kind() == KindNullable {
		return "(" + t.Elem.String() + ")[]"
	}
	return t.Elem.String() + "[]"
}

func (*NumberType) sealed()    {}
func (*StringType) sealed()    {}
func (*BooleanType) sealed()   {}
func (*VoidType) sealed()      {}
func (*ObjectRefType) sealed() {}
func (*EnumRefType) sealed()   {}
func (*ArrayType) sealed()     {}
func (*NullableType) sealed()  {}
func (*PromiseType) sealed()   {}

// Equal reports whether a and b are structurally identical.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case *ObjectRefType:
		return x.Name == b.(*ObjectRefType).Name
	case *EnumRefType:
		return x.Name == b.(*EnumRefType).Name
	case *ArrayType:
		return Equal(x.Elem, b.(*ArrayType).Elem)
	case *NullableType:
		return Equal(x.Elem, b.(*NullableType).Elem)
	case *PromiseType:
		return Equal(x.Elem, b.(*PromiseType).Elem)
	default:
		return true
	}
}

// Elem returns the wrapped type of ArrayOf, Nullable and PromiseOf, or nil.
func Elem(t Type) Type {
	switch x := t.(type) {
	case *ArrayType:
		return x.Elem
	case *NullableType:
		return x.Elem
	case *PromiseType:
		return x.Elem
	}
	return nil
}

// RefName returns the referenced definition name of an ObjectRef or EnumRef.
func RefName(t Type) (string, bool) {
	switch x := t.(type) {
	case *ObjectRefType:
		return x.Name, true
	case *EnumRefType:
		return x.Name, true
	}
	return "", false
}

// Walk calls fn for t and every type nested inside it, outermost first.
func Walk(t Type, fn func(Type)) {
	for t != nil {
		fn(t)
		t = Elem(t)
	}
}

// Unwrap strips a PromiseOf wrapper, returning the settled value type.
func Unwrap(t Type) Type {
	if p, ok := t.(*PromiseType); ok {
		return p.Elem
	}
	return t
}
