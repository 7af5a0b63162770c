// Package android emits the JNI entry point registering the C++ TurboModules
// and the CMake project that links them against the prebuilt Rust library.
package android

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/iancoleman/strcase"
	"go.uber.org/zap"

	"github.com/l2hyunwoo/craby/crabygen/ir"
	"github.com/l2hyunwoo/craby/crabygen/naming"
	"github.com/l2hyunwoo/craby/crabygen/sink"
	"github.com/l2hyunwoo/craby/internal/errors"
	"github.com/l2hyunwoo/craby/internal/logger"
)

// Generator stages the Android build glue shared by all modules.
type Generator struct {
	// Library is the Rust crate name, e.g. "fast_calculator".
	Library string

	// Namespace is the C++ root namespace of the module classes.
	Namespace string

	// Dir is the Android directory relative to the project, e.g. "android".
	Dir string

	// CxxDir holds the C++ modules, relative to the project.
	CxxDir string

	Logger *zap.Logger
}

// Name returns the generator's identifier.
func (g *Generator) Name() string { return "android" }

func (g *Generator) OnLoadPath() string {
	return path.Join(g.Dir, "src", "main", "jni", "OnLoad.cpp")
}

func (g *Generator) CMakePath() string {
	return path.Join(g.Dir, "CMakeLists.txt")
}

// Generate writes OnLoad.cpp and CMakeLists.txt to out.
func (g *Generator) Generate(ctx context.Context, specs []*ir.ModuleSpec, out sink.OutputSink) error {
	log := g.Logger
	if log == nil {
		log = logger.Named("android")
	}
	if g.Library == "" {
		return errors.New("android: library name is required")
	}

	cxxDir, err := filepath.Rel(filepath.FromSlash(g.Dir), filepath.FromSlash(g.CxxDir))
	if err != nil {
		return errors.Wrapf(err, "locate %s from %s", g.CxxDir, g.Dir)
	}

	files := []struct {
		path    string
		content []byte
	}{
		{g.OnLoadPath(), EmitOnLoad(specs, g.Namespace)},
		{g.CMakePath(), EmitCMakeLists(g.Library, filepath.ToSlash(cxxDir), specs)},
	}
	for _, f := range files {
		if err := out.WriteFile(ctx, f.path, f.content); err != nil {
			return errors.Wrapf(err, "stage %s", f.path)
		}
		log.Debug("staged android glue", zap.String(logger.FieldFile, f.path))
	}
	return nil
}

// EmitOnLoad renders the JNI_OnLoad that registers every module. A shared
// library has a single JNI_OnLoad, so all modules share it.
func EmitOnLoad(specs []*ir.ModuleSpec, namespace string) []byte {
	var buf bytes.Buffer
	buf.WriteString(sink.Header)
	buf.WriteString("#include <jni.h>\n")
	buf.WriteString("#include <ReactCommon/CxxTurboModuleUtils.h>\n")
	for _, spec := range specs {
		fmt.Fprintf(&buf, "#include <%s.hpp>\n", naming.ForModule(spec.Name).CxxModule())
	}
	buf.WriteString("\njint JNI_OnLoad(JavaVM *vm, void *reserved) {\n")
	for _, spec := range specs {
		names := naming.ForModule(spec.Name)
		cls := fmt.Sprintf("%s::%s::%s", namespace, names.Flat, names.CxxModule())
		buf.WriteString("  facebook::react::registerCxxModuleToGlobalModuleMap(\n")
		fmt.Fprintf(&buf, "      %s::kModuleName,\n", cls)
		buf.WriteString("      [](std::shared_ptr<facebook::react::CallInvoker> jsInvoker) {\n")
		fmt.Fprintf(&buf, "        return std::make_shared<%s>(jsInvoker);\n", cls)
		buf.WriteString("      });\n")
	}
	buf.WriteString("  return JNI_VERSION_1_6;\n")
	buf.WriteString("}\n")
	return buf.Bytes()
}

// EmitCMakeLists renders the CMake project building the C++ modules into one
// shared library. cxxDir is the C++ directory relative to CMakeLists.txt.
func EmitCMakeLists(library, cxxDir string, specs []*ir.ModuleSpec) []byte {
	kebab := strcase.ToKebab(library)
	lib := kebab + "-lib"

	var buf bytes.Buffer
	buf.WriteString("# Code generated by craby. DO NOT EDIT.\n")
	buf.WriteString("cmake_minimum_required(VERSION 3.13)\n\n")
	fmt.Fprintf(&buf, "project(craby-%s)\n\n", kebab)
	buf.WriteString("set (CMAKE_VERBOSE_MAKEFILE ON)\n")
	buf.WriteString("set (CMAKE_CXX_STANDARD 20)\n\n")
	buf.WriteString("find_package(ReactAndroid REQUIRED CONFIG)\n")
	buf.WriteString("find_package(hermes-engine REQUIRED CONFIG)\n\n")

	buf.WriteString("# Prebuilt Rust library\n")
	fmt.Fprintf(&buf, "add_library(%s STATIC IMPORTED)\n", lib)
	fmt.Fprintf(&buf, "set_target_properties(%s PROPERTIES\n", lib)
	fmt.Fprintf(&buf, "  IMPORTED_LOCATION \"${CMAKE_SOURCE_DIR}/src/main/jni/libs/${ANDROID_ABI}/lib%s.a\"\n", strcase.ToSnake(library))
	buf.WriteString(")\n")
	fmt.Fprintf(&buf, "target_include_directories(%s INTERFACE\n", lib)
	buf.WriteString("  \"${CMAKE_SOURCE_DIR}/src/main/jni/include\"\n")
	buf.WriteString(")\n\n")

	fmt.Fprintf(&buf, "add_library(cxx-%s SHARED\n", kebab)
	buf.WriteString("  src/main/jni/OnLoad.cpp\n")
	for _, spec := range specs {
		fmt.Fprintf(&buf, "  src/main/jni/src/%s.rs.cc\n", naming.ForModule(spec.Name).Snake)
	}
	for _, spec := range specs {
		fmt.Fprintf(&buf, "  %s/%s.cpp\n", cxxDir, naming.ForModule(spec.Name).CxxModule())
	}
	buf.WriteString(")\n")
	fmt.Fprintf(&buf, "target_include_directories(cxx-%s PRIVATE\n", kebab)
	fmt.Fprintf(&buf, "  %s\n", cxxDir)
	buf.WriteString(")\n\n")

	fmt.Fprintf(&buf, "target_link_libraries(cxx-%s\n", kebab)
	buf.WriteString("  ReactAndroid::reactnative\n")
	buf.WriteString("  ReactAndroid::jsi\n")
	buf.WriteString("  hermes-engine::libhermes\n")
	fmt.Fprintf(&buf, "  %s\n", lib)
	buf.WriteString(")\n")
	return buf.Bytes()
}
