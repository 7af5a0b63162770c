package naming

import (
	"testing"

	"github.com/l2hyunwoo/craby/crabygen/ir"
)

func TestForModule(t *testing.T) {
	tests := []struct {
		name                string
		pascal, snake, flat string
	}{
		{"Calculator", "Calculator", "calculator", "calculator"},
		{"CrabyTest", "CrabyTest", "craby_test", "crabytest"},
		{"imageLoader", "ImageLoader", "image_loader", "imageloader"},
	}
	for _, tt := range tests {
		m := ForModule(tt.name)
		if m.Pascal != tt.pascal || m.Snake != tt.snake || m.Flat != tt.flat {
			t.Errorf("ForModule(%q) = %+v, want %s/%s/%s", tt.name, m, tt.pascal, tt.snake, tt.flat)
		}
	}

	m := ForModule("CrabyTest")
	if got := m.Namespace("craby"); got != "craby::crabytest::bridging" {
		t.Errorf("Namespace = %s", got)
	}
	if got := m.ExternFn("getProfile"); got != "craby_test_get_profile" {
		t.Errorf("ExternFn = %s", got)
	}
	if m.CxxModule() != "CxxCrabyTestModule" || m.SpecTrait() != "CrabyTestSpec" || m.ImplModule() != "craby_test_impl" {
		t.Errorf("derived names = %s, %s, %s", m.CxxModule(), m.SpecTrait(), m.ImplModule())
	}
}

func TestCarrier(t *testing.T) {
	tests := []struct {
		t    ir.Type
		want string
	}{
		{ir.Nullable(ir.String()), "NullableString"},
		{ir.Nullable(ir.Number()), "NullableNumber"},
		{ir.Nullable(ir.ObjectRef("Profile")), "NullableProfile"},
		{ir.Nullable(ir.ArrayOf(ir.Number())), "NullableNumberArray"},
		{ir.Nullable(ir.ArrayOf(ir.Nullable(ir.EnumRef("Mode")))), "NullableNullableModeArray"},
	}
	for _, tt := range tests {
		if got := Carrier(tt.t.(*ir.NullableType)); got != tt.want {
			t.Errorf("Carrier(%s) = %s, want %s", tt.t, got, tt.want)
		}
	}
}
