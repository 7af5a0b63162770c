package rust

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/l2hyunwoo/craby/crabygen/ir"
	"github.com/l2hyunwoo/craby/crabygen/naming"
	"github.com/l2hyunwoo/craby/crabygen/sink"
)

// Emitter renders the Rust artifacts of one module.
type Emitter struct {
	spec      *ir.ModuleSpec
	names     naming.Module
	namespace string
	indent    string
}

// NewEmitter creates an emitter for spec whose C++ declarations live under
// the given root namespace.
func NewEmitter(spec *ir.ModuleSpec, namespace string) *Emitter {
	return &Emitter{
		spec:      spec,
		names:     naming.ForModule(spec.Name),
		namespace: namespace,
		indent:    "    ",
	}
}

// EmitGenerated renders src/generated/<module>.rs.
func (e *Emitter) EmitGenerated() []byte {
	var buf bytes.Buffer
	buf.WriteString(sink.Header)
	buf.WriteString("\n")
	fmt.Fprintf(&buf, "use bridging::*;\n")
	fmt.Fprintf(&buf, "use crate::%s::%s;\n\n", e.names.ImplModule(), e.names.Pascal)

	e.emitBridge(&buf)
	buf.WriteString("\n")
	e.emitTrait(&buf)

	if len(e.spec.Signals) > 0 {
		buf.WriteString("\n")
		e.emitSignals(&buf)
	}
	for _, d := range e.spec.Enums() {
		buf.WriteString("\n")
		e.emitEnumDefault(&buf, d)
	}
	for _, n := range e.spec.NullableTypes() {
		buf.WriteString("\n")
		e.emitConversions(&buf, n)
	}
	if len(e.spec.Methods) > 0 {
		buf.WriteString("\n")
		e.emitCatchPanic(&buf)
	}
	for _, m := range e.spec.Methods {
		buf.WriteString("\n")
		e.emitGlue(&buf, m)
	}
	return buf.Bytes()
}

func (e *Emitter) emitBridge(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "#[cxx::bridge(namespace = %q)]\n", e.names.Namespace(e.namespace))
	buf.WriteString("pub mod bridging {\n")

	for _, d := range e.spec.Objects() {
		e.emitStruct(buf, d)
		buf.WriteString("\n")
	}
	for _, d := range e.spec.Enums() {
		e.emitEnum(buf, d)
		buf.WriteString("\n")
	}
	for _, n := range e.spec.NullableTypes() {
		e.emitCarrier(buf, n)
		buf.WriteString("\n")
	}

	in := e.indent
	buf.WriteString(in + "extern \"Rust\" {\n")
	for i, m := range e.spec.Methods {
		if i > 0 {
			buf.WriteString("\n")
		}
		fmt.Fprintf(buf, "%s%s#[cxx_name = %q]\n", in, in, m.Name)
		fmt.Fprintf(buf, "%s%sfn %s(%s)%s;\n", in, in, e.names.ExternFn(m.Name), e.params(m), returnSuffix(bridgeReturnType(m.Return)))
	}
	buf.WriteString(in + "}\n")

	if len(e.spec.Signals) > 0 {
		buf.WriteString("\n")
		buf.WriteString(in + "unsafe extern \"C++\" {\n")
		fmt.Fprintf(buf, "%s%sinclude!(%q);\n\n", in, in, e.names.CxxModule()+".hpp")
		fmt.Fprintf(buf, "%s%sfn %s(signal: &str);\n", in, in, e.names.EmitFn())
		buf.WriteString(in + "}\n")
	}
	buf.WriteString("}\n")
}

func (e *Emitter) emitStruct(buf *bytes.Buffer, d *ir.ObjectTypeDef) {
	in := e.indent
	buf.WriteString(in + "#[derive(Clone, Default)]\n")
	fmt.Fprintf(buf, "%sstruct %s {\n", in, d.Name)
	for _, f := range d.Fields {
		fmt.Fprintf(buf, "%s%spub %s: %s,\n", in, in, ident(naming.Snake(f.Name)), bridgeType(f.Type))
	}
	buf.WriteString(in + "}\n")
}

// emitEnum declares a shared enum. Numeric enums keep their literal values
// as discriminants; string enums are numbered in declaration order and
// mapped to their literals by the C++ bridging.
func (e *Emitter) emitEnum(buf *bytes.Buffer, d *ir.EnumTypeDef) {
	in := e.indent
	fmt.Fprintf(buf, "%senum %s {\n", in, d.Name)
	for _, v := range d.Variants {
		if d.Kind == ir.EnumNumeric {
			fmt.Fprintf(buf, "%s%s%s = %s,\n", in, in, naming.Pascal(v.Label), enumValue(v.Value))
		} else {
			fmt.Fprintf(buf, "%s%s%s,\n", in, in, naming.Pascal(v.Label))
		}
	}
	buf.WriteString(in + "}\n")
}

func (e *Emitter) emitCarrier(buf *bytes.Buffer, n *ir.NullableType) {
	in := e.indent
	buf.WriteString(in + "#[derive(Clone, Default)]\n")
	fmt.Fprintf(buf, "%sstruct %s {\n", in, naming.Carrier(n))
	fmt.Fprintf(buf, "%s%snull: bool,\n", in, in)
	fmt.Fprintf(buf, "%s%sval: %s,\n", in, in, bridgeType(n.Elem))
	buf.WriteString(in + "}\n")
}

func (e *Emitter) emitTrait(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "pub trait %s {\n", e.names.SpecTrait())
	for _, m := range e.spec.Methods {
		fmt.Fprintf(buf, "%s%s;\n", e.indent, e.traitSignature(m))
	}
	buf.WriteString("}\n")
}

func (e *Emitter) traitSignature(m ir.Method) string {
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = ident(naming.Snake(p.Name)) + ": " + specType(p.Type)
	}
	return fmt.Sprintf("fn %s(%s)%s", ident(naming.Snake(m.Name)), strings.Join(params, ", "), returnSuffix(specType(m.Return)))
}

func (e *Emitter) emitSignals(buf *bytes.Buffer) {
	enum := e.names.SignalEnum()
	in := e.indent

	fmt.Fprintf(buf, "pub enum %s {\n", enum)
	for _, s := range e.spec.Signals {
		fmt.Fprintf(buf, "%s%s,\n", in, naming.Pascal(s.Name))
	}
	buf.WriteString("}\n\n")

	fmt.Fprintf(buf, "impl %s {\n", enum)
	fmt.Fprintf(buf, "%spub fn name(&self) -> &'static str {\n", in)
	fmt.Fprintf(buf, "%s%smatch self {\n", in, in)
	for _, s := range e.spec.Signals {
		fmt.Fprintf(buf, "%s%s%s%s::%s => %q,\n", in, in, in, enum, naming.Pascal(s.Name), s.Name)
	}
	fmt.Fprintf(buf, "%s%s}\n", in, in)
	fmt.Fprintf(buf, "%s}\n", in)
	buf.WriteString("}\n\n")

	fmt.Fprintf(buf, "pub fn emit_signal(signal: %s) {\n", enum)
	fmt.Fprintf(buf, "%s%s(signal.name());\n", in, e.names.EmitFn())
	buf.WriteString("}\n")
}

func (e *Emitter) emitEnumDefault(buf *bytes.Buffer, d *ir.EnumTypeDef) {
	if len(d.Variants) == 0 {
		return
	}
	in := e.indent
	fmt.Fprintf(buf, "impl Default for %s {\n", d.Name)
	fmt.Fprintf(buf, "%sfn default() -> Self {\n", in)
	fmt.Fprintf(buf, "%s%s%s::%s\n", in, in, d.Name, naming.Pascal(d.Variants[0].Label))
	fmt.Fprintf(buf, "%s}\n", in)
	buf.WriteString("}\n")
}

func (e *Emitter) emitConversions(buf *bytes.Buffer, n *ir.NullableType) {
	carrier := naming.Carrier(n)
	elem := bridgeType(n.Elem)
	in := e.indent

	fmt.Fprintf(buf, "impl From<%s> for Option<%s> {\n", carrier, elem)
	fmt.Fprintf(buf, "%sfn from(v: %s) -> Self {\n", in, carrier)
	fmt.Fprintf(buf, "%s%sif v.null {\n", in, in)
	fmt.Fprintf(buf, "%s%s%sNone\n", in, in, in)
	fmt.Fprintf(buf, "%s%s} else {\n", in, in)
	fmt.Fprintf(buf, "%s%s%sSome(v.val)\n", in, in, in)
	fmt.Fprintf(buf, "%s%s}\n", in, in)
	fmt.Fprintf(buf, "%s}\n", in)
	buf.WriteString("}\n\n")

	fmt.Fprintf(buf, "impl From<Option<%s>> for %s {\n", elem, carrier)
	fmt.Fprintf(buf, "%sfn from(v: Option<%s>) -> Self {\n", in, elem)
	fmt.Fprintf(buf, "%s%smatch v {\n", in, in)
	fmt.Fprintf(buf, "%s%s%sSome(val) => %s { null: false, val },\n", in, in, in, carrier)
	fmt.Fprintf(buf, "%s%s%sNone => %s { null: true, val: Default::default() },\n", in, in, in, carrier)
	fmt.Fprintf(buf, "%s%s}\n", in, in)
	fmt.Fprintf(buf, "%s}\n", in)
	buf.WriteString("}\n")
}

// emitCatchPanic writes the helper that turns a panic in an implementation
// into an error, which cxx rethrows on the C++ side.
func (e *Emitter) emitCatchPanic(buf *bytes.Buffer) {
	in := e.indent
	buf.WriteString("fn catch_panic<T>(f: impl FnOnce() -> T) -> Result<T, anyhow::Error> {\n")
	fmt.Fprintf(buf, "%sstd::panic::catch_unwind(std::panic::AssertUnwindSafe(f)).map_err(|e| {\n", in)
	fmt.Fprintf(buf, "%s%sif let Some(s) = e.downcast_ref::<String>() {\n", in, in)
	fmt.Fprintf(buf, "%s%s%sanyhow::anyhow!(\"{}\", s)\n", in, in, in)
	fmt.Fprintf(buf, "%s%s} else if let Some(s) = e.downcast_ref::<&str>() {\n", in, in)
	fmt.Fprintf(buf, "%s%s%sanyhow::anyhow!(\"{}\", s)\n", in, in, in)
	fmt.Fprintf(buf, "%s%s} else {\n", in, in)
	fmt.Fprintf(buf, "%s%s%sanyhow::anyhow!(\"unknown panic\")\n", in, in, in)
	fmt.Fprintf(buf, "%s%s}\n", in, in)
	fmt.Fprintf(buf, "%s})\n", in)
	buf.WriteString("}\n")
}

// emitGlue writes the Rust function the bridge calls, forwarding to the
// implementation under catch_panic and converting Nullable carriers at the
// boundary. A deferred call's own error passes through unchanged.
func (e *Emitter) emitGlue(buf *bytes.Buffer, m ir.Method) {
	args := make([]string, len(m.Params))
	for i, p := range m.Params {
		args[i] = ident(naming.Snake(p.Name))
		if isNullable(p.Type) {
			args[i] += ".into()"
		}
	}

	call := fmt.Sprintf("%s::%s(%s)", e.names.Pascal, ident(naming.Snake(m.Name)), strings.Join(args, ", "))
	switch ret := m.Return.(type) {
	case *ir.NullableType:
		call += ".into()"
	case *ir.PromiseType:
		if isNullable(ret.Elem) {
			call += ".map(Into::into)"
		}
	}

	body := "catch_panic(|| " + call + ")"
	if m.IsAsync() {
		body += "?"
	}
	fmt.Fprintf(buf, "fn %s(%s)%s {\n", e.names.ExternFn(m.Name), e.params(m), returnSuffix(glueReturnType(m.Return)))
	fmt.Fprintf(buf, "%s%s\n", e.indent, body)
	buf.WriteString("}\n")
}

func (e *Emitter) params(m ir.Method) string {
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = ident(naming.Snake(p.Name)) + ": " + bridgeType(p.Type)
	}
	return strings.Join(params, ", ")
}

// EmitImplStub renders the user-owned src/<module>_impl.rs skeleton.
func (e *Emitter) EmitImplStub() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "use crate::generated::%s::*;\n\n", e.names.Snake)
	fmt.Fprintf(&buf, "pub struct %s;\n\n", e.names.Pascal)
	fmt.Fprintf(&buf, "impl %s for %s {\n", e.names.SpecTrait(), e.names.Pascal)
	for i, m := range e.spec.Methods {
		if i > 0 {
			buf.WriteString("\n")
		}
		fmt.Fprintf(&buf, "%s%s {\n", e.indent, e.traitSignature(m))
		fmt.Fprintf(&buf, "%s%sunimplemented!()\n", e.indent, e.indent)
		fmt.Fprintf(&buf, "%s}\n", e.indent)
	}
	buf.WriteString("}\n")
	return buf.Bytes()
}

// EmitModIndex renders src/generated/mod.rs for the given modules.
func EmitModIndex(specs []*ir.ModuleSpec) []byte {
	mods := make([]string, len(specs))
	for i, s := range specs {
		mods[i] = naming.ForModule(s.Name).Snake
	}
	sort.Strings(mods)

	var buf bytes.Buffer
	buf.WriteString(sink.Header)
	buf.WriteString("\n")
	for _, m := range mods {
		fmt.Fprintf(&buf, "pub mod %s;\n", m)
	}
	return buf.Bytes()
}

// EmitLib renders the crate root: the generated declarations plus every
// module's implementation file.
func EmitLib(specs []*ir.ModuleSpec) []byte {
	impls := make([]string, len(specs))
	for i, s := range specs {
		impls[i] = naming.ForModule(s.Name).ImplModule()
	}
	sort.Strings(impls)

	var buf bytes.Buffer
	buf.WriteString(sink.Header)
	buf.WriteString("\npub(crate) mod generated;\n")
	for _, m := range impls {
		fmt.Fprintf(&buf, "pub(crate) mod %s;\n", m)
	}
	return buf.Bytes()
}
