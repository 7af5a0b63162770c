package cxx

import (
	"fmt"
	"strings"

	"github.com/l2hyunwoo/craby/crabygen/dispatch"
	"github.com/l2hyunwoo/craby/crabygen/ir"
	"github.com/l2hyunwoo/craby/crabygen/sink"
)

// EmitSource renders Cxx<Module>Module.cpp: the constructor registering
// every thunk, the thunks themselves and, when the module declares
// signals, the listener bookkeeping behind subscribe and emit.
func (e *Emitter) EmitSource() []byte {
	w := &writer{}
	w.raw(sink.Header)
	w.line(`#include "%s"`, e.HeaderName())
	w.line("")
	w.line("#include <utility>")
	if e.plan.Deferred() {
		w.line("#include <thread>")
	}
	if e.hasSignals() {
		w.line("#include <algorithm>")
	}
	w.line("")
	w.line("using namespace facebook;")
	w.line("")
	w.line("namespace %s {", e.root)
	w.line("namespace %s {", e.names.Flat)
	w.line("")

	e.emitConstructor(w)
	for _, m := range e.spec.Methods {
		w.line("")
		plan, _ := e.plan.Method(m.Name)
		if plan.Mode == dispatch.Deferred {
			e.emitDeferredThunk(w, m, plan)
		} else {
			e.emitDirectThunk(w, m, plan)
		}
	}
	if e.hasSignals() {
		for _, s := range e.spec.Signals {
			w.line("")
			e.emitSignalThunk(w, s)
		}
		w.line("")
		e.emitListeners(w)
	}

	w.line("")
	w.line("} // namespace %s", e.names.Flat)
	w.line("} // namespace %s", e.root)

	if e.hasSignals() {
		w.line("")
		w.line("namespace %s {", e.types.ns)
		w.line("")
		w.line("void %s(rust::Str signal) {", e.names.EmitFn())
		w.line("  %s::%s::%s::emit(std::string(signal));", e.root, e.names.Flat, e.names.CxxModule())
		w.line("}")
		w.line("")
		w.line("} // namespace %s", e.types.ns)
	}
	return w.bytes()
}

func (e *Emitter) emitConstructor(w *writer) {
	cls := e.names.CxxModule()

	w.line("%s::%s(std::shared_ptr<react::CallInvoker> jsInvoker)", cls, cls)
	w.line("    : TurboModule(%s::kModuleName, jsInvoker) {", cls)
	w.in()
	w.line("callInvoker_ = std::move(jsInvoker);")
	for _, m := range e.spec.Methods {
		w.line("methodMap_[%q] = MethodMetadata{%d, &%s::%s};", m.Name, len(m.Params), cls, m.Name)
	}
	for _, s := range e.spec.Signals {
		w.line("methodMap_[%q] = MethodMetadata{1, &%s::%s};", s.Name, cls, s.Name)
	}
	if e.hasSignals() {
		w.line("")
		w.line("std::lock_guard<std::mutex> lock(instancesMutex_);")
		w.line("instances_.push_back(this);")
	}
	w.out()
	w.line("}")

	if e.hasSignals() {
		w.line("")
		w.line("%s::~%s() {", cls, cls)
		w.in()
		w.line("std::lock_guard<std::mutex> lock(instancesMutex_);")
		w.line("instances_.erase(std::remove(instances_.begin(), instances_.end(), this), instances_.end());")
		w.out()
		w.line("}")
	}
}

func (e *Emitter) thunkHead(w *writer, name string) {
	cls := e.names.CxxModule()
	w.line("jsi::Value %s::%s(jsi::Runtime &rt,", cls, name)
	w.line("    react::TurboModule &turboModule,")
	w.line("    const jsi::Value args[],")
	w.line("    size_t count) {")
	w.in()
	w.line("auto &thisModule = static_cast<%s &>(turboModule);", cls)
	w.line("auto callInvoker = thisModule.callInvoker_;")
}

// emitArgs checks the argument count and converts every argument. The
// conversions run on the JS thread before any work is scheduled.
func (e *Emitter) emitArgs(w *writer, m ir.Method) []string {
	w.line("if (%d != count) {", len(m.Params))
	w.line(`  throw jsi::JSError(rt, "Expected %d argument%s");`, len(m.Params), plural(len(m.Params)))
	w.line("}")
	args := make([]string, len(m.Params))
	for i, p := range m.Params {
		args[i] = fmt.Sprintf("arg%d", i)
		w.line("auto %s = %s;", args[i], e.types.fromJs(p.Type, fmt.Sprintf("args[%d]", i)))
	}
	return args
}

func moved(args []string) string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = "std::move(" + a + ")"
	}
	return strings.Join(out, ", ")
}

func (e *Emitter) rustCall(m ir.Method, args []string) string {
	return fmt.Sprintf("%s::%s(%s)", e.types.ns, m.Name, moved(args))
}

func (e *Emitter) emitDirectThunk(w *writer, m ir.Method, plan dispatch.MethodPlan) {
	e.thunkHead(w, m.Name)
	w.line("try {")
	w.in()
	args := e.emitArgs(w, m)
	if plan.Result.Kind() == ir.KindVoid {
		w.line("%s;", e.rustCall(m, args))
		w.line("return jsi::Value::undefined();")
	} else {
		w.line("auto ret = %s;", e.rustCall(m, args))
		w.line("return react::bridging::toJs(rt, ret);")
	}
	w.out()
	w.line("} catch (const jsi::JSError &err) {")
	w.line("  throw;")
	w.line("} catch (const std::exception &err) {")
	w.line("  throw jsi::JSError(rt, %s::errorMessage(err));", e.root)
	w.line("}")
	w.out()
	w.line("}")
}

// emitDeferredThunk returns a pending promise at once and runs the Rust
// call on a detached thread that settles it exactly once.
func (e *Emitter) emitDeferredThunk(w *writer, m ir.Method, plan dispatch.MethodPlan) {
	e.thunkHead(w, m.Name)
	w.line("try {")
	w.in()
	args := e.emitArgs(w, m)
	w.line("%s promise(rt, callInvoker);", e.types.promiseType(plan.Result))
	w.line("")

	captures := append([]string{"promise"}, args...)
	w.line("std::thread([%s]() mutable {", strings.Join(captures, ", "))
	w.in()
	w.line("try {")
	w.in()
	if plan.Result.Kind() == ir.KindVoid {
		w.line("%s;", e.rustCall(m, args))
		w.line("promise.resolve();")
	} else {
		w.line("auto ret = %s;", e.rustCall(m, args))
		w.line("promise.resolve(ret);")
	}
	w.out()
	w.line("} catch (const std::exception &err) {")
	w.line("  promise.reject(%s::errorMessage(err));", e.root)
	w.line("} catch (...) {")
	w.line(`  promise.reject("unknown error");`)
	w.line("}")
	w.out()
	w.line("}).detach();")
	w.line("")
	w.line("return react::bridging::toJs(rt, promise);")
	w.out()
	w.line("} catch (const jsi::JSError &err) {")
	w.line("  throw;")
	w.line("} catch (const std::exception &err) {")
	w.line("  throw jsi::JSError(rt, %s::errorMessage(err));", e.root)
	w.line("}")
	w.out()
	w.line("}")
}

func (e *Emitter) emitSignalThunk(w *writer, s ir.SignalDef) {
	e.thunkHead(w, s.Name)
	w.line("if (1 != count) {")
	w.line(`  throw jsi::JSError(rt, "Expected 1 argument");`)
	w.line("}")
	w.line("return thisModule.subscribe(rt, %q, args[0]);", s.Name)
	w.out()
	w.line("}")
}

func (e *Emitter) emitListeners(w *writer) {
	cls := e.names.CxxModule()

	w.line("jsi::Value %s::subscribe(jsi::Runtime &rt,", cls)
	w.line("                         const std::string &signal,")
	w.line("                         const jsi::Value &listener) {")
	w.in()
	w.line("if (!listener.isObject() || !listener.asObject(rt).isFunction(rt)) {")
	w.line(`  throw jsi::JSError(rt, "TypeMismatch: expected function");`)
	w.line("}")
	w.line("")
	w.line("size_t id;")
	w.line("{")
	w.in()
	w.line("std::lock_guard<std::mutex> lock(listeners_->mutex);")
	w.line("id = listeners_->nextId++;")
	w.line("listeners_->bySignal[signal][id] =")
	w.line("    std::make_shared<jsi::Function>(listener.asObject(rt).asFunction(rt));")
	w.line("runtime_ = &rt;")
	w.out()
	w.line("}")
	w.line("")
	w.line("std::weak_ptr<Listeners> weak = listeners_;")
	w.line("return jsi::Function::createFromHostFunction(")
	w.line("    rt,")
	w.line(`    jsi::PropNameID::forAscii(rt, "remove"),`)
	w.line("    0,")
	w.line("    [weak, signal, id](jsi::Runtime &, const jsi::Value &, const jsi::Value *, size_t) {")
	w.line("      if (auto listeners = weak.lock()) {")
	w.line("        std::lock_guard<std::mutex> lock(listeners->mutex);")
	w.line("        listeners->bySignal[signal].erase(id);")
	w.line("      }")
	w.line("      return jsi::Value::undefined();")
	w.line("    });")
	w.out()
	w.line("}")
	w.line("")

	w.line("void %s::emitSignal(const std::string &signal) {", cls)
	w.in()
	w.line("std::vector<std::shared_ptr<jsi::Function>> targets;")
	w.line("jsi::Runtime *rt = nullptr;")
	w.line("{")
	w.in()
	w.line("std::lock_guard<std::mutex> lock(listeners_->mutex);")
	w.line("rt = runtime_;")
	w.line("auto it = listeners_->bySignal.find(signal);")
	w.line("if (it == listeners_->bySignal.end()) {")
	w.line("  return;")
	w.line("}")
	w.line("for (auto &entry : it->second) {")
	w.line("  targets.push_back(entry.second);")
	w.line("}")
	w.out()
	w.line("}")
	w.line("")
	w.line("for (auto &listener : targets) {")
	w.line("  callInvoker_->invokeAsync([listener, rt]() { listener->call(*rt); });")
	w.line("}")
	w.out()
	w.line("}")
	w.line("")

	w.line("void %s::emit(const std::string &signal) {", cls)
	w.in()
	w.line("std::vector<%s *> targets;", cls)
	w.line("{")
	w.line("  std::lock_guard<std::mutex> lock(instancesMutex_);")
	w.line("  targets = instances_;")
	w.line("}")
	w.line("for (auto *instance : targets) {")
	w.line("  instance->emitSignal(signal);")
	w.line("}")
	w.out()
	w.line("}")
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
