package cxx

import (
	"github.com/l2hyunwoo/craby/crabygen/ir"
	"github.com/l2hyunwoo/craby/crabygen/naming"
	"github.com/l2hyunwoo/craby/crabygen/sink"
)

// SharedHeaderName is the header with bridging shared by every module.
const SharedHeaderName = "bridging-generated.hpp"

// emitBridging writes the react::Bridging specialisations for the module's
// enums, structs and Nullable carriers. All specialisations are declared
// first so their definitions may refer to each other in any order.
func (e *Emitter) emitBridging(w *writer) {
	enums := e.spec.Enums()
	objects := e.spec.Objects()
	carriers := e.spec.NullableTypes()

	w.line("namespace facebook {")
	w.line("namespace react {")
	w.line("")
	for _, d := range enums {
		w.line("template <> struct Bridging<%s>;", e.types.ns+"::"+d.Name)
	}
	for _, d := range objects {
		w.line("template <> struct Bridging<%s>;", e.types.ns+"::"+d.Name)
	}
	for _, n := range carriers {
		w.line("template <> struct Bridging<%s>;", e.types.cxxType(n))
	}

	for _, d := range enums {
		w.line("")
		e.emitEnumBridging(w, d)
	}
	for _, d := range objects {
		w.line("")
		e.emitStructBridging(w, d)
	}
	for _, n := range carriers {
		w.line("")
		e.emitCarrierBridging(w, n)
	}

	w.line("")
	w.line("} // namespace react")
	w.line("} // namespace facebook")
}

// emitEnumBridging maps declared literal values to variants and back.
// Any other value is a type mismatch.
func (e *Emitter) emitEnumBridging(w *writer, d *ir.EnumTypeDef) {
	typ := e.types.ns + "::" + d.Name
	mismatch := `throw jsi::JSError(rt, "TypeMismatch: invalid enum value (` + d.Name + `)");`

	w.line("template <>")
	w.line("struct Bridging<%s> {", typ)
	w.in()
	w.line("static %s fromJs(jsi::Runtime &rt, const jsi::Value &value, std::shared_ptr<CallInvoker> callInvoker) {", typ)
	w.in()
	if d.Kind == ir.EnumString {
		w.line("if (!value.isString()) {")
		w.line("  %s", mismatch)
		w.line("}")
		w.line("auto raw = value.asString(rt).utf8(rt);")
	} else {
		w.line("if (!value.isNumber()) {")
		w.line("  %s", mismatch)
		w.line("}")
		w.line("auto raw = value.asNumber();")
	}
	for i, v := range d.Variants {
		cond := "if"
		if i > 0 {
			cond = "} else if"
		}
		w.line("%s (raw == %s) {", cond, cxxLiteral(v.Value))
		w.line("  return %s::%s;", typ, naming.Pascal(v.Label))
	}
	if len(d.Variants) > 0 {
		w.line("}")
	}
	w.line("%s", mismatch)
	w.out()
	w.line("}")
	w.line("")
	w.line("static jsi::Value toJs(jsi::Runtime &rt, %s value) {", typ)
	w.in()
	w.line("switch (value) {")
	for _, v := range d.Variants {
		w.line("case %s::%s:", typ, naming.Pascal(v.Label))
		if d.Kind == ir.EnumString {
			w.line("  return jsi::String::createFromUtf8(rt, %s);", cxxLiteral(v.Value))
		} else {
			w.line("  return jsi::Value(%s);", cxxLiteral(v.Value))
		}
	}
	w.line("default:")
	w.line("  %s", mismatch)
	w.line("}")
	w.out()
	w.line("}")
	w.out()
	w.line("};")
}

// emitStructBridging converts a JS object field by field. A missing
// non-nullable field is a type mismatch naming the field; nullable fields
// may be absent.
func (e *Emitter) emitStructBridging(w *writer, d *ir.ObjectTypeDef) {
	typ := e.types.ns + "::" + d.Name

	w.line("template <>")
	w.line("struct Bridging<%s> {", typ)
	w.in()
	w.line("static %s fromJs(jsi::Runtime &rt, const jsi::Value &value, std::shared_ptr<CallInvoker> callInvoker) {", typ)
	w.in()
	w.line("if (!value.isObject()) {")
	w.line(`  throw jsi::JSError(rt, "TypeMismatch: expected object (%s)");`, d.Name)
	w.line("}")
	w.line("auto obj = value.asObject(rt);")
	for _, f := range d.Fields {
		if f.Type.Kind() == ir.KindNullable {
			continue
		}
		w.line("if (!obj.hasProperty(rt, %q)) {", f.Name)
		w.line(`  throw jsi::JSError(rt, "TypeMismatch: missing field %s.%s");`, d.Name, f.Name)
		w.line("}")
	}
	w.line("")
	w.line("%s ret = {", typ)
	w.in()
	for _, f := range d.Fields {
		w.line("%s,", e.types.fromJs(f.Type, `obj.getProperty(rt, "`+f.Name+`")`))
	}
	w.out()
	w.line("};")
	w.line("return ret;")
	w.out()
	w.line("}")
	w.line("")
	w.line("static jsi::Value toJs(jsi::Runtime &rt, const %s &value) {", typ)
	w.in()
	w.line("jsi::Object obj = jsi::Object(rt);")
	for _, f := range d.Fields {
		w.line("obj.setProperty(rt, %q, react::bridging::toJs(rt, value.%s));", f.Name, naming.Snake(f.Name))
	}
	w.line("return jsi::Value(rt, obj);")
	w.out()
	w.line("}")
	w.out()
	w.line("};")
}

// emitCarrierBridging maps null and undefined to an absent carrier.
func (e *Emitter) emitCarrierBridging(w *writer, n *ir.NullableType) {
	typ := e.types.cxxType(n)

	w.line("template <>")
	w.line("struct Bridging<%s> {", typ)
	w.in()
	w.line("static %s fromJs(jsi::Runtime &rt, const jsi::Value &value, std::shared_ptr<CallInvoker> callInvoker) {", typ)
	w.in()
	w.line("if (value.isNull() || value.isUndefined()) {")
	w.line("  return %s{true, {}};", typ)
	w.line("}")
	w.line("return %s{false, %s};", typ, e.types.fromJs(n.Elem, "value"))
	w.out()
	w.line("}")
	w.line("")
	w.line("static jsi::Value toJs(jsi::Runtime &rt, const %s &value) {", typ)
	w.in()
	w.line("if (value.null) {")
	w.line("  return jsi::Value::null();")
	w.line("}")
	w.line("return react::bridging::toJs(rt, value.val);")
	w.out()
	w.line("}")
	w.out()
	w.line("};")
}

// EmitSharedHeader renders bridging-generated.hpp.
func EmitSharedHeader(namespace string) []byte {
	w := &writer{}
	w.raw(sink.Header)
	w.line("#pragma once")
	w.line("")
	w.line("#include <exception>")
	w.line("#include <string>")
	w.line("#include <jsi/jsi.h>")
	w.line("#include <react/bridging/Bridging.h>")
	w.line("")
	w.line(`#include "rust/cxx.h"`)
	w.line("")
	w.line("namespace %s {", namespace)
	w.line("")
	w.line("inline std::string errorMessage(const std::exception &err) {")
	w.line("  return std::string(err.what());")
	w.line("}")
	w.line("")
	w.line("} // namespace %s", namespace)
	w.line("")
	w.line("namespace facebook {")
	w.line("namespace react {")
	w.line("")
	w.line("template <>")
	w.line("struct Bridging<rust::String> {")
	w.in()
	w.line("static rust::String fromJs(jsi::Runtime &rt, const jsi::Value &value, std::shared_ptr<CallInvoker> callInvoker) {")
	w.line("  if (!value.isString()) {")
	w.line(`    throw jsi::JSError(rt, "TypeMismatch: expected string");`)
	w.line("  }")
	w.line("  return rust::String(value.asString(rt).utf8(rt));")
	w.line("}")
	w.line("")
	w.line("static jsi::Value toJs(jsi::Runtime &rt, const rust::String &value) {")
	w.line("  return jsi::String::createFromUtf8(rt, std::string(value));")
	w.line("}")
	w.out()
	w.line("};")
	w.line("")
	w.line("template <typename T>")
	w.line("struct Bridging<rust::Vec<T>> {")
	w.in()
	w.line("static rust::Vec<T> fromJs(jsi::Runtime &rt, const jsi::Value &value, std::shared_ptr<CallInvoker> callInvoker) {")
	w.in()
	w.line("if (!value.isObject() || !value.asObject(rt).isArray(rt)) {")
	w.line(`  throw jsi::JSError(rt, "TypeMismatch: expected array");`)
	w.line("}")
	w.line("auto arr = value.asObject(rt).asArray(rt);")
	w.line("size_t len = arr.length(rt);")
	w.line("rust::Vec<T> vec;")
	w.line("vec.reserve(len);")
	w.line("for (size_t i = 0; i < len; i++) {")
	w.line("  auto element = arr.getValueAtIndex(rt, i);")
	w.line("  vec.push_back(react::bridging::fromJs<T>(rt, element, callInvoker));")
	w.line("}")
	w.line("return vec;")
	w.out()
	w.line("}")
	w.line("")
	w.line("static jsi::Array toJs(jsi::Runtime &rt, const rust::Vec<T> &vec) {")
	w.in()
	w.line("auto arr = jsi::Array(rt, vec.size());")
	w.line("for (size_t i = 0; i < vec.size(); i++) {")
	w.line("  arr.setValueAtIndex(rt, i, react::bridging::toJs(rt, vec[i]));")
	w.line("}")
	w.line("return arr;")
	w.out()
	w.line("}")
	w.out()
	w.line("};")
	w.line("")
	w.line("} // namespace react")
	w.line("} // namespace facebook")
	return w.bytes()
}
