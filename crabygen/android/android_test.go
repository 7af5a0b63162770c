package android

import (
	"context"
	"strings"
	"testing"

	"github.com/l2hyunwoo/craby/crabygen/ir"
	"github.com/l2hyunwoo/craby/crabygen/sink"
)

var modules = []*ir.ModuleSpec{{Name: "Calculator"}, {Name: "ImageLoader"}}

func assertContains(t *testing.T, output string, want []string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(output, w) {
			t.Errorf("output missing:\n%s\n\nfull output:\n%s", w, output)
		}
	}
}

func TestEmitOnLoad(t *testing.T) {
	out := string(EmitOnLoad(modules, "craby"))

	assertContains(t, out, []string{
		sink.Header,
		"#include <jni.h>\n#include <ReactCommon/CxxTurboModuleUtils.h>\n#include <CxxCalculatorModule.hpp>\n#include <CxxImageLoaderModule.hpp>\n",
		"jint JNI_OnLoad(JavaVM *vm, void *reserved) {",
		"      craby::calculator::CxxCalculatorModule::kModuleName,",
		"        return std::make_shared<craby::calculator::CxxCalculatorModule>(jsInvoker);",
		"      craby::imageloader::CxxImageLoaderModule::kModuleName,",
		"  return JNI_VERSION_1_6;\n}\n",
	})
	if n := strings.Count(out, "JNI_OnLoad"); n != 1 {
		t.Errorf("JNI_OnLoad defined %d times", n)
	}
}

func TestEmitCMakeLists(t *testing.T) {
	out := string(EmitCMakeLists("fast_calculator", "../cpp", modules))

	assertContains(t, out, []string{
		"project(craby-fast-calculator)",
		"set (CMAKE_CXX_STANDARD 20)",
		"add_library(fast-calculator-lib STATIC IMPORTED)",
		`IMPORTED_LOCATION "${CMAKE_SOURCE_DIR}/src/main/jni/libs/${ANDROID_ABI}/libfast_calculator.a"`,
		"add_library(cxx-fast-calculator SHARED\n" +
			"  src/main/jni/OnLoad.cpp\n" +
			"  src/main/jni/src/calculator.rs.cc\n" +
			"  src/main/jni/src/image_loader.rs.cc\n" +
			"  ../cpp/CxxCalculatorModule.cpp\n" +
			"  ../cpp/CxxImageLoaderModule.cpp\n" +
			")",
		"target_include_directories(cxx-fast-calculator PRIVATE\n  ../cpp\n)",
		"  hermes-engine::libhermes\n  fast-calculator-lib\n)",
	})
}

func TestGenerator(t *testing.T) {
	g := &Generator{Library: "fast_calculator", Namespace: "craby", Dir: "android", CxxDir: "shared/cpp"}
	out := sink.NewMemorySink()

	if err := g.Generate(context.Background(), modules, out); err != nil {
		t.Fatal(err)
	}

	var paths []string
	for _, f := range out.Staged() {
		paths = append(paths, f.Path)
	}
	want := "android/CMakeLists.txt\nandroid/src/main/jni/OnLoad.cpp"
	if got := strings.Join(paths, "\n"); got != want {
		t.Errorf("staged paths:\n%s\nwant:\n%s", got, want)
	}
	assertContains(t, string(out.Get("android/CMakeLists.txt")), []string{"  ../shared/cpp/CxxCalculatorModule.cpp\n"})
}

func TestGenerator_RequiresLibrary(t *testing.T) {
	g := &Generator{Namespace: "craby", Dir: "android", CxxDir: "cpp"}
	err := g.Generate(context.Background(), modules, sink.NewMemorySink())
	if err == nil || !strings.Contains(err.Error(), "library name is required") {
		t.Errorf("Generate() error = %v", err)
	}
}
