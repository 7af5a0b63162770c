package ir

import "testing"

func TestTypeString(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{Number(), "number"},
		{String(), "string"},
		{Boolean(), "boolean"},
		{Void(), "void"},
		{ObjectRef("User"), "User"},
		{EnumRef("Color"), "Color"},
		{ArrayOf(Number()), "number[]"},
		{Nullable(ObjectRef("Sub")), "Sub | null"},
		{ArrayOf(Nullable(String())), "(string | null)[]"},
		{Nullable(ArrayOf(String())), "string[] | null"},
		{PromiseOf(Void()), "Promise<void>"},
		{PromiseOf(ArrayOf(EnumRef("E"))), "Promise<E[]>"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindNumber, "Number"},
		{KindObject, "ObjectRef"},
		{KindArray, "ArrayOf"},
		{KindNullable, "Nullable"},
		{KindPromise, "PromiseOf"},
		{Kind(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Type
		want bool
	}{
		{"same primitive", Number(), Number(), true},
		{"different primitive", Number(), String(), false},
		{"same ref", ObjectRef("A"), ObjectRef("A"), true},
		{"different ref", ObjectRef("A"), ObjectRef("B"), false},
		{"object vs enum ref", ObjectRef("A"), EnumRef("A"), false},
		{"nested equal", ArrayOf(Nullable(ObjectRef("A"))), ArrayOf(Nullable(ObjectRef("A"))), true},
		{"nested different", ArrayOf(Nullable(ObjectRef("A"))), ArrayOf(ObjectRef("A")), false},
		{"both nil", nil, nil, true},
		{"one nil", Number(), nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestWalkAndUnwrap(t *testing.T) {
	typ := PromiseOf(ArrayOf(Nullable(ObjectRef("A"))))

	var kinds []Kind
	Walk(typ, func(t Type) { kinds = append(kinds, t.Kind()) })
	want := []Kind{KindPromise, KindArray, KindNullable, KindObject}
	if len(kinds) != len(want) {
		t.Fatalf("Walk visited %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("Walk[%d] = %v, want %v", i, kinds[i], want[i])
		}
	}

	if got := Unwrap(typ); !Equal(got, ArrayOf(Nullable(ObjectRef("A")))) {
		t.Errorf("Unwrap() = %v", got)
	}
	if got := Unwrap(Number()); !Equal(got, Number()) {
		t.Errorf("Unwrap(number) = %v", got)
	}
}

func TestMethodIsAsync(t *testing.T) {
	if (Method{Name: "a", Return: Number()}).IsAsync() {
		t.Error("number return must not be async")
	}
	if !(Method{Name: "b", Return: PromiseOf(Number())}).IsAsync() {
		t.Error("Promise return must be async")
	}
}

func TestNullableTypes(t *testing.T) {
	spec := &ModuleSpec{
		Name: "M",
		Methods: []Method{
			{Name: "a", Params: []Param{{Name: "x", Type: Nullable(Number())}}, Return: Nullable(ObjectRef("Obj"))},
			{Name: "b", Params: []Param{{Name: "y", Type: Nullable(Number())}}, Return: Void()},
		},
		TypeDefs: []TypeDef{
			&ObjectTypeDef{Name: "Obj", Fields: []Field{{Name: "s", Type: Nullable(String())}}},
		},
	}
	got := spec.NullableTypes()
	want := []string{"number | null", "Obj | null", "string | null"}
	if len(got) != len(want) {
		t.Fatalf("NullableTypes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i].String() != want[i] {
			t.Errorf("NullableTypes()[%d] = %q, want %q", i, got[i].String(), want[i])
		}
	}
}

func TestSourceString(t *testing.T) {
	tests := []struct {
		src  Source
		want string
	}{
		{Source{}, "<unknown>"},
		{Source{File: "a.ts"}, "a.ts"},
		{Source{File: "a.ts", Line: 3}, "a.ts:3"},
		{Source{File: "a.ts", Line: 3, Column: 7}, "a.ts:3:7"},
		{Source{Line: 1, Column: 2}, "<input>:1:2"},
	}
	for _, tt := range tests {
		if got := tt.src.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
