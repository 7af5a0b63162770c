package ir

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestModuleSpecJSON(t *testing.T) {
	spec := &ModuleSpec{
		Name: "Calculator",
		Methods: []Method{
			{Name: "add", Params: []Param{{Name: "a", Type: Number()}}, Return: PromiseOf(Nullable(ObjectRef("R")))},
		},
		Signals: []SignalDef{{Name: "onDone"}},
		TypeDefs: []TypeDef{
			&ObjectTypeDef{Name: "R", Fields: []Field{{Name: "v", Type: ArrayOf(EnumRef("E"))}}},
			&EnumTypeDef{Name: "E", Kind: EnumNumeric, Variants: []EnumVariant{{"One", 1.0}}},
		},
	}
	data, err := json.Marshal(spec)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	got := string(data)
	want := []string{
		`"name":"Calculator"`,
		`"params":[{"name":"a","type":{"kind":"Number"}}]`,
		`"returnType":{"kind":"PromiseOf","elem":{"kind":"Nullable","elem":{"kind":"ObjectRef","name":"R"}}}`,
		`"isAsync":true`,
		`"signals":["onDone"]`,
		`{"kind":"object","name":"R","fields":[{"name":"v","type":{"kind":"ArrayOf","elem":{"kind":"EnumRef","name":"E"}}}]}`,
		`{"kind":"enum","name":"E","enumKind":"Numeric","variants":[{"label":"One","value":1}]}`,
	}
	for _, w := range want {
		if !strings.Contains(got, w) {
			t.Errorf("JSON missing %s\ngot: %s", w, got)
		}
	}
}
