package cxx

import (
	"github.com/l2hyunwoo/craby/crabygen/dispatch"
	"github.com/l2hyunwoo/craby/crabygen/ir"
	"github.com/l2hyunwoo/craby/crabygen/naming"
	"github.com/l2hyunwoo/craby/crabygen/sink"
)

// Emitter renders the C++ artifacts of one module.
type Emitter struct {
	spec  *ir.ModuleSpec
	plan  *dispatch.Plan
	names naming.Module
	root  string
	types typeNamer
}

// NewEmitter creates an emitter for spec. The dispatch plan decides which
// thunks run synchronously and which return a promise.
func NewEmitter(spec *ir.ModuleSpec, plan *dispatch.Plan, namespace string) *Emitter {
	names := naming.ForModule(spec.Name)
	return &Emitter{
		spec:  spec,
		plan:  plan,
		names: names,
		root:  namespace,
		types: typeNamer{ns: names.Namespace(namespace)},
	}
}

// HeaderName is the file name of the module's class declaration.
func (e *Emitter) HeaderName() string { return e.names.CxxModule() + ".hpp" }

// SourceName is the file name of the module's implementation.
func (e *Emitter) SourceName() string { return e.names.CxxModule() + ".cpp" }

func (e *Emitter) hasSignals() bool { return len(e.spec.Signals) > 0 }

// EmitHeader renders Cxx<Module>Module.hpp: the TurboModule class and the
// JSI bridging of the module's shared types.
func (e *Emitter) EmitHeader() []byte {
	w := &writer{}
	w.raw(sink.Header)
	w.line("#pragma once")
	w.line("")
	w.line("#include <memory>")
	if e.hasSignals() {
		w.line("#include <map>")
		w.line("#include <mutex>")
		w.line("#include <string>")
		w.line("#include <unordered_map>")
		w.line("#include <vector>")
	}
	w.line("#include <ReactCommon/TurboModule.h>")
	w.line("#include <jsi/jsi.h>")
	w.line("#include <react/bridging/Bridging.h>")
	w.line("")
	w.line(`#include "rust/cxx.h"`)
	w.line(`#include "bridging-generated.hpp"`)
	w.line("")

	if e.hasSignals() {
		w.line("namespace %s {", e.types.ns)
		w.line("void %s(rust::Str signal);", e.names.EmitFn())
		w.line("} // namespace %s", e.types.ns)
		w.line("")
	}
	w.line(`#include "%s.rs.h"`, e.names.Snake)
	w.line("")

	w.line("namespace %s {", e.root)
	w.line("namespace %s {", e.names.Flat)
	w.line("")
	e.emitClass(w)
	w.line("")
	w.line("} // namespace %s", e.names.Flat)
	w.line("} // namespace %s", e.root)

	if len(e.spec.TypeDefs) > 0 || len(e.spec.NullableTypes()) > 0 {
		w.line("")
		e.emitBridging(w)
	}
	return w.bytes()
}

func (e *Emitter) emitClass(w *writer) {
	cls := e.names.CxxModule()

	w.line("class JSI_EXPORT %s : public facebook::react::TurboModule {", cls)
	w.line("public:")
	w.in()
	w.line("static constexpr const char *kModuleName = %q;", e.spec.Name)
	w.line("")
	w.line("%s(std::shared_ptr<facebook::react::CallInvoker> jsInvoker);", cls)
	if e.hasSignals() {
		w.line("~%s();", cls)
	}
	for _, m := range e.spec.Methods {
		w.line("")
		e.thunkDecl(w, m.Name)
	}
	for _, s := range e.spec.Signals {
		w.line("")
		e.thunkDecl(w, s.Name)
	}
	if e.hasSignals() {
		w.line("")
		w.line("// Notifies the listeners of every live instance.")
		w.line("static void emit(const std::string &signal);")
	}
	w.out()
	w.line("")
	w.line("protected:")
	w.in()
	w.line("std::shared_ptr<facebook::react::CallInvoker> callInvoker_;")
	w.out()

	if e.hasSignals() {
		w.line("")
		w.line("private:")
		w.in()
		w.line("struct Listeners {")
		w.in()
		w.line("std::mutex mutex;")
		w.line("std::unordered_map<std::string, std::map<size_t, std::shared_ptr<facebook::jsi::Function>>> bySignal;")
		w.line("size_t nextId = 0;")
		w.out()
		w.line("};")
		w.line("")
		w.line("facebook::jsi::Value subscribe(facebook::jsi::Runtime &rt,")
		w.line("                               const std::string &signal,")
		w.line("                               const facebook::jsi::Value &listener);")
		w.line("void emitSignal(const std::string &signal);")
		w.line("")
		w.line("std::shared_ptr<Listeners> listeners_ = std::make_shared<Listeners>();")
		w.line("facebook::jsi::Runtime *runtime_ = nullptr;")
		w.line("")
		w.line("static inline std::mutex instancesMutex_;")
		w.line("static inline std::vector<%s *> instances_;", cls)
		w.out()
	}
	w.line("};")
}

func (e *Emitter) thunkDecl(w *writer, name string) {
	w.line("static facebook::jsi::Value")
	w.line("%s(facebook::jsi::Runtime &rt,", name)
	w.line("    facebook::react::TurboModule &turboModule,")
	w.line("    const facebook::jsi::Value args[], size_t count);")
}
