package rust

import (
	"context"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/l2hyunwoo/craby/crabygen/ir"
	"github.com/l2hyunwoo/craby/crabygen/provider"
	"github.com/l2hyunwoo/craby/crabygen/sink"
	"github.com/l2hyunwoo/craby/internal/testfixtures"
)

func loadFixture(t *testing.T, name string) []*ir.ModuleSpec {
	t.Helper()
	var units []provider.Unit
	for _, f := range testfixtures.Archive(t, name).Files {
		units = append(units, provider.Unit{Path: f.Name, Content: f.Data})
	}
	p := &provider.SourceProvider{}
	specs, err := p.BuildSchema(context.Background(), provider.SourceInputOptions{Units: units})
	if err != nil {
		t.Fatalf("BuildSchema(%s): %v", name, err)
	}
	return specs
}

func assertContains(t *testing.T, output string, want []string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(output, w) {
			t.Errorf("output missing:\n%s\n\nfull output:\n%s", w, output)
		}
	}
}

func TestEmitGenerated_Golden(t *testing.T) {
	spec := loadFixture(t, "calculator")[0]
	out := NewEmitter(spec, "craby").EmitGenerated()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "calculator.rs", out)
}

func TestEmitGenerated_Profile(t *testing.T) {
	spec := loadFixture(t, "profile")[0]
	out := string(NewEmitter(spec, "craby").EmitGenerated())

	assertContains(t, out, []string{
		sink.Header,
		`#[cxx::bridge(namespace = "craby::accounts::bridging")]`,
		"    struct Profile {\n        pub name: String,\n        pub age: f64,\n        pub status: Status,\n        pub address: NullableAddress,\n        pub tags: Vec<String>,\n    }",
		"    struct Address {\n        pub city: String,\n        pub zip: NullableString,\n    }",
		"    enum Status {\n        Active,\n        Suspended,\n    }",
		"    enum Priority {\n        Low = 0,\n        Normal = 5,\n        High = 6,\n    }",
		"    struct NullableAddress {\n        null: bool,\n        val: Address,\n    }",
		"#[cxx_name = \"getProfile\"]\n        fn accounts_get_profile(id: String) -> Result<Profile>;",
		"fn accounts_save_profile(profile: Profile) -> Result<()>;",
		"fn accounts_find_by_status(status: Status, priority: Priority) -> Result<Vec<Profile>>;",
		"include!(\"CxxAccountsModule.hpp\");",
		"fn accounts_emit(signal: &str);",
		"pub trait AccountsSpec {\n    fn get_profile(id: String) -> Result<Profile, anyhow::Error>;\n    fn save_profile(profile: Profile);\n    fn find_by_status(status: Status, priority: Priority) -> Vec<Profile>;\n}",
		"pub enum AccountsSignal {\n    OnProfileChanged,\n}",
		`AccountsSignal::OnProfileChanged => "onProfileChanged",`,
		"pub fn emit_signal(signal: AccountsSignal) {\n    accounts_emit(signal.name());\n}",
		"impl Default for Status {\n    fn default() -> Self {\n        Status::Active\n    }\n}",
		"impl From<Option<Address>> for NullableAddress {",
		"fn accounts_get_profile(id: String) -> Result<Profile, anyhow::Error> {\n    catch_panic(|| Accounts::get_profile(id))?\n}",
		"fn accounts_save_profile(profile: Profile) -> Result<(), anyhow::Error> {\n    catch_panic(|| Accounts::save_profile(profile))\n}",
	})

	if strings.Contains(out, "Unused") {
		t.Error("unreachable types must not be emitted")
	}
}

func TestEmitGenerated_NullableBoundary(t *testing.T) {
	spec := &ir.ModuleSpec{
		Name: "Finder",
		Methods: []ir.Method{{
			Name:   "find",
			Params: []ir.Param{{Name: "query", Type: ir.Nullable(ir.String())}},
			Return: ir.PromiseOf(ir.Nullable(ir.ObjectRef("Item"))),
		}},
		TypeDefs: []ir.TypeDef{
			&ir.ObjectTypeDef{Name: "Item", Fields: []ir.Field{{Name: "type", Type: ir.String()}}},
		},
	}
	out := string(NewEmitter(spec, "craby").EmitGenerated())

	assertContains(t, out, []string{
		"fn finder_find(query: NullableString) -> Result<NullableItem>;",
		"fn find(query: Option<String>) -> Result<Option<Item>, anyhow::Error>;",
		"fn finder_find(query: NullableString) -> Result<NullableItem, anyhow::Error> {\n    catch_panic(|| Finder::find(query.into()).map(Into::into))?\n}",
		"pub r#type: String,",
	})
	if strings.Contains(out, "unsafe extern") {
		t.Error("modules without signals must not declare the emit hook")
	}
}

func TestEmitGenerated_DirectCallsAreFallible(t *testing.T) {
	spec := &ir.ModuleSpec{
		Name: "Clock",
		Methods: []ir.Method{
			{Name: "now", Return: ir.Number()},
			{Name: "reset", Return: ir.Void()},
		},
	}
	out := string(NewEmitter(spec, "craby").EmitGenerated())

	// A panic must reach the C++ thunk as rust::Error, so every bridge
	// function returns a Result even when the trait method does not.
	assertContains(t, out, []string{
		"fn clock_now() -> Result<f64>;",
		"fn clock_reset() -> Result<()>;",
		"fn now() -> f64;",
		"fn reset();",
		"std::panic::catch_unwind(std::panic::AssertUnwindSafe(f))",
		"fn clock_now() -> Result<f64, anyhow::Error> {\n    catch_panic(|| Clock::now())\n}",
		"fn clock_reset() -> Result<(), anyhow::Error> {\n    catch_panic(|| Clock::reset())\n}",
	})
	if strings.Count(out, "fn catch_panic<T>") != 1 {
		t.Error("catch_panic must be declared once per module")
	}

	empty := string(NewEmitter(&ir.ModuleSpec{Name: "Quiet"}, "craby").EmitGenerated())
	if strings.Contains(empty, "catch_panic") {
		t.Error("modules without methods need no catch_panic")
	}
}

func TestEmitImplStub(t *testing.T) {
	spec := loadFixture(t, "calculator")[0]
	out := string(NewEmitter(spec, "craby").EmitImplStub())

	assertContains(t, out, []string{
		"use crate::generated::calculator::*;",
		"pub struct Calculator;",
		"impl CalculatorSpec for Calculator {",
		"    fn divide(a: f64, b: f64) -> Option<f64> {\n        unimplemented!()\n    }",
	})
	if strings.Contains(out, sink.Header) {
		t.Error("the implementation stub is user-owned and must not carry the generated header")
	}
}

func TestGenerator(t *testing.T) {
	specs := append(loadFixture(t, "profile"), loadFixture(t, "calculator")...)
	g := &Generator{Namespace: "craby", CrateDir: "crates/lib"}
	out := sink.NewMemorySink()

	if err := g.Generate(context.Background(), specs, out); err != nil {
		t.Fatal(err)
	}

	var paths []string
	stubs := 0
	for _, f := range out.Staged() {
		paths = append(paths, f.Path)
		if f.CreateOnly {
			stubs++
		}
	}
	want := []string{
		"crates/lib/src/accounts_impl.rs",
		"crates/lib/src/calculator_impl.rs",
		"crates/lib/src/generated/accounts.rs",
		"crates/lib/src/generated/calculator.rs",
		"crates/lib/src/generated/mod.rs",
		"crates/lib/src/lib.rs",
	}
	if strings.Join(paths, "\n") != strings.Join(want, "\n") {
		t.Errorf("staged paths:\n%s\nwant:\n%s", strings.Join(paths, "\n"), strings.Join(want, "\n"))
	}
	if stubs != 2 {
		t.Errorf("got %d create-only stubs, want 2", stubs)
	}

	index := string(out.Get("crates/lib/src/generated/mod.rs"))
	if !strings.HasSuffix(index, "pub mod accounts;\npub mod calculator;\n") {
		t.Errorf("mod.rs = %q", index)
	}

	lib := string(out.Get("crates/lib/src/lib.rs"))
	want = []string{sink.Header, "pub(crate) mod generated;\npub(crate) mod accounts_impl;\npub(crate) mod calculator_impl;\n"}
	if lib != strings.Join(want, "\n") {
		t.Errorf("lib.rs = %q", lib)
	}
}
