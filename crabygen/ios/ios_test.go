package ios

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/l2hyunwoo/craby/crabygen/ir"
	"github.com/l2hyunwoo/craby/crabygen/sink"
)

func TestEmitProvider(t *testing.T) {
	out := string(EmitProvider(&ir.ModuleSpec{Name: "FastCalculator"}, "craby"))

	want := []string{
		sink.Header,
		`#import "CxxFastCalculatorModule.hpp"`,
		"#import <ReactCommon/CxxTurboModuleUtils.h>",
		"@interface FastCalculatorModuleProvider : NSObject\n@end",
		"@implementation FastCalculatorModuleProvider\n+ (void)load {",
		"registerCxxModuleToGlobalModuleMap(\n      craby::fastcalculator::CxxFastCalculatorModule::kModuleName,",
		"return std::make_shared<craby::fastcalculator::CxxFastCalculatorModule>(jsInvoker);",
	}
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output missing:\n%s\n\nfull output:\n%s", w, out)
		}
	}
	if !strings.HasSuffix(out, "}\n@end\n") {
		t.Errorf("provider is not closed:\n%s", out)
	}
}

func TestGenerator(t *testing.T) {
	specs := []*ir.ModuleSpec{{Name: "Calculator"}, {Name: "Timer"}}
	g := &Generator{Namespace: "acme", Dir: "ios"}
	out := sink.NewMemorySink()

	if err := g.Generate(context.Background(), specs, out); err != nil {
		t.Fatal(err)
	}

	var paths []string
	for _, f := range out.Staged() {
		paths = append(paths, f.Path)
	}
	want := "ios/CalculatorModuleProvider.mm\nios/TimerModuleProvider.mm"
	if got := strings.Join(paths, "\n"); got != want {
		t.Errorf("staged paths:\n%s\nwant:\n%s", got, want)
	}
	if !strings.Contains(string(out.Get("ios/TimerModuleProvider.mm")), "acme::timer::CxxTimerModule::kModuleName") {
		t.Error("provider does not use the configured namespace")
	}
}

func TestGenerator_WritesToFilesystem(t *testing.T) {
	root := t.TempDir()
	g := &Generator{Namespace: "craby", Dir: "ios"}

	if err := g.Generate(context.Background(), []*ir.ModuleSpec{{Name: "Calculator"}}, sink.NewFilesystemSink(root)); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(root, "ios", "CalculatorModuleProvider.mm"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), sink.Header) {
		t.Errorf("provider = %q", data)
	}
}
