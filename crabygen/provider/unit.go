package provider

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/l2hyunwoo/craby/crabygen/ir"
	"github.com/l2hyunwoo/craby/internal/errors"
)

// moduleBases are the interfaces a module contract extends.
var moduleBases = map[string]bool{
	"TurboModule":  true,
	"NativeModule": true,
}

type declKind int

const (
	declObject declKind = iota // interface or object type alias
	declEnum
	declClass
	declModule
)

type decl struct {
	name string
	kind declKind
	node *sitter.Node // interface_declaration, type_alias_declaration, enum_declaration, class_declaration
	src  ir.Source
}

type registration struct {
	iface  string
	module string
	src    ir.Source
}

// unit holds the per-file extraction state.
type unit struct {
	path    string
	content []byte

	decls map[string]*decl
	order []string
	regs  []registration

	// defs caches resolved definitions shared by the modules of this unit.
	defs    map[string]ir.TypeDef
	defErrs map[string]bool

	err error
}

func newUnit(path string, content []byte) *unit {
	return &unit{
		path:    path,
		content: content,
		decls:   make(map[string]*decl),
		defs:    make(map[string]ir.TypeDef),
		defErrs: make(map[string]bool),
	}
}

func (u *unit) text(n *sitter.Node) string {
	return string(u.content[n.StartByte():n.EndByte()])
}

func (u *unit) source(n *sitter.Node) ir.Source {
	p := n.StartPoint()
	return ir.Source{File: u.path, Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

func (u *unit) fail(err error) {
	u.err = errors.Append(u.err, err)
}

func (u *unit) unsupported(n *sitter.Node, construct, context string) {
	u.fail(&ir.UnsupportedTypeError{Source: u.source(n), Construct: construct, Context: context})
}

// syntaxError reports the first ERROR or MISSING node in the tree.
func (u *unit) syntaxError(root *sitter.Node) error {
	bad := findBad(root)
	if bad == nil {
		return &ir.SchemaParseError{Source: u.source(root), Message: "syntax error"}
	}
	if bad.IsMissing() {
		return &ir.SchemaParseError{Source: u.source(bad), Message: fmt.Sprintf("syntax error: missing %q", bad.Type())}
	}
	snippet := strings.TrimSpace(u.text(bad))
	if len(snippet) > 40 {
		snippet = snippet[:40] + "..."
	}
	return &ir.SchemaParseError{Source: u.source(bad), Message: fmt.Sprintf("syntax error near %q", snippet)}
}

func findBad(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if bad := findBad(n.Child(i)); bad != nil {
			return bad
		}
	}
	return nil
}

// collect records top-level declarations and registry calls.
func (u *unit) collect(root *sitter.Node) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		u.collectStatement(root.NamedChild(i))
	}
	u.collectRegistrations(root)
}

func (u *unit) collectStatement(n *sitter.Node) {
	switch n.Type() {
	case "export_statement":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			u.collectStatement(n.NamedChild(i))
		}
	case "interface_declaration":
		name := u.childText(n, "type_identifier")
		kind := declObject
		if u.extendsModuleBase(n) {
			kind = declModule
		}
		u.declare(n, name, kind)
	case "type_alias_declaration":
		u.declare(n, u.childText(n, "type_identifier"), declObject)
	case "enum_declaration":
		u.declare(n, u.childText(n, "identifier"), declEnum)
	case "class_declaration", "abstract_class_declaration":
		u.declare(n, u.childText(n, "type_identifier"), declClass)
	}
}

func (u *unit) declare(n *sitter.Node, name string, kind declKind) {
	if name == "" {
		return
	}
	src := u.source(n)
	if prev, ok := u.decls[name]; ok {
		u.fail(&ir.DuplicateDefinitionError{Source: src, What: "type", Name: name, Previous: prev.src})
		return
	}
	if kind != declModule && isReservedName(name) {
		u.unsupported(n, fmt.Sprintf("reserved name %q", name), "type declaration")
		return
	}
	u.decls[name] = &decl{name: name, kind: kind, node: n, src: src}
	u.order = append(u.order, name)
}

func isReservedName(name string) bool {
	return name == "Promise" || name == "Signal" || strings.HasPrefix(name, "Nullable")
}

// childText returns the text of the first direct child of the given type.
func (u *unit) childText(n *sitter.Node, typ string) string {
	if c := firstChild(n, typ); c != nil {
		return u.text(c)
	}
	return ""
}

func firstChild(n *sitter.Node, types ...string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		for _, t := range types {
			if c.Type() == t {
				return c
			}
		}
	}
	return nil
}

func hasChild(n *sitter.Node, typ string) bool {
	return firstChild(n, typ) != nil
}

func (u *unit) extendsModuleBase(n *sitter.Node) bool {
	clause := firstChild(n, "extends_type_clause")
	if clause == nil {
		return false
	}
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		base := clause.NamedChild(i)
		name := u.text(base)
		if base.Type() == "generic_type" {
			name = u.childText(base, "type_identifier")
		}
		if moduleBases[name] {
			return true
		}
	}
	return false
}

// collectRegistrations finds Registry.get<Spec>('Name') and
// Registry.getEnforcing<Spec>('Name') calls anywhere in the unit.
func (u *unit) collectRegistrations(n *sitter.Node) {
	if n.Type() == "call_expression" {
		if reg, ok := u.registration(n); ok {
			u.regs = append(u.regs, reg)
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		u.collectRegistrations(n.NamedChild(i))
	}
}

func (u *unit) registration(call *sitter.Node) (registration, bool) {
	fn := firstChild(call, "member_expression")
	if fn == nil {
		return registration{}, false
	}
	object := fn.NamedChild(0)
	method := firstChild(fn, "property_identifier")
	if object == nil || method == nil || !strings.HasSuffix(u.text(object), "Registry") {
		return registration{}, false
	}
	if m := u.text(method); m != "get" && m != "getEnforcing" {
		return registration{}, false
	}

	args := firstChild(call, "arguments")
	if args == nil || args.NamedChildCount() == 0 || args.NamedChild(0).Type() != "string" {
		return registration{}, false
	}
	reg := registration{module: u.stringValue(args.NamedChild(0)), src: u.source(call)}

	if targs := firstChild(call, "type_arguments"); targs != nil && targs.NamedChildCount() > 0 {
		reg.iface = u.text(targs.NamedChild(0))
	}
	return reg, reg.module != ""
}

func (u *unit) stringValue(n *sitter.Node) string {
	if frag := firstChild(n, "string_fragment"); frag != nil {
		return u.text(frag)
	}
	return strings.Trim(u.text(n), `"'`)
}

// buildModules turns each registered module interface into a ModuleSpec.
func (u *unit) buildModules() []*ir.ModuleSpec {
	var modules []*ir.ModuleSpec
	bound := make(map[string]bool)

	for _, reg := range u.regs {
		iface := reg.iface
		if iface == "" {
			iface = u.soleModuleInterface()
		}
		d, ok := u.decls[iface]
		if !ok || d.kind != declModule {
			u.fail(&ir.SchemaParseError{Source: reg.src, Message: fmt.Sprintf("module %q registers %q, which is not an interface extending TurboModule", reg.module, iface)})
			continue
		}
		if bound[iface] {
			u.fail(&ir.DuplicateDefinitionError{Source: reg.src, What: "registration of", Name: iface, Previous: d.src})
			continue
		}
		bound[iface] = true
		modules = append(modules, u.buildModule(reg.module, d))
	}

	for _, name := range u.order {
		if d := u.decls[name]; d.kind == declModule && !bound[name] {
			u.fail(&ir.SchemaParseError{Source: d.src, Message: fmt.Sprintf("module interface %q is never registered; add TurboModuleRegistry.getEnforcing<%s>('Name')", name, name)})
		}
	}
	return modules
}

func (u *unit) soleModuleInterface() string {
	found := ""
	for _, name := range u.order {
		if u.decls[name].kind == declModule {
			if found != "" {
				return ""
			}
			found = name
		}
	}
	return found
}

func (u *unit) buildModule(name string, d *decl) *ir.ModuleSpec {
	spec := &ir.ModuleSpec{Name: name, Source: d.src}

	if hasChild(d.node, "type_parameters") {
		u.unsupported(d.node, "generic type", d.name)
	}

	body := firstChild(d.node, "interface_body", "object_type")
	if body == nil {
		return spec
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "comment":
		case "method_signature":
			if m, ok := u.method(name, member); ok {
				spec.Methods = append(spec.Methods, m)
			}
		case "property_signature":
			if sig, ok := u.signal(name, member); ok {
				spec.Signals = append(spec.Signals, sig)
			}
		default:
			u.unsupported(member, strings.ReplaceAll(member.Type(), "_", " "), name)
		}
	}

	spec.TypeDefs = u.reachableDefs(spec)
	return spec
}

func (u *unit) memberName(member *sitter.Node, context string) (string, bool) {
	id := firstChild(member, "property_identifier")
	if id == nil {
		u.unsupported(member, "computed member name", context)
		return "", false
	}
	if hasChild(member, "?") {
		u.unsupported(member, "optional member", context+"."+u.text(id))
		return "", false
	}
	return u.text(id), true
}

func (u *unit) method(module string, n *sitter.Node) (ir.Method, bool) {
	name, ok := u.memberName(n, module)
	if !ok {
		return ir.Method{}, false
	}
	context := module + "." + name
	m := ir.Method{Name: name, Source: u.source(n)}
	ok = true

	if hasChild(n, "type_parameters") {
		u.unsupported(n, "generic type", context)
		ok = false
	}

	if params := firstChild(n, "formal_parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			p := params.NamedChild(i)
			if p.Type() == "comment" {
				continue
			}
			param, pok := u.param(p, context)
			if !pok {
				ok = false
				continue
			}
			m.Params = append(m.Params, param)
		}
	}

	ret := firstChild(n, "type_annotation")
	if ret == nil || ret.NamedChildCount() == 0 {
		u.unsupported(n, "missing return type", context)
		return ir.Method{}, false
	}
	t, tok := u.resolve(ret.NamedChild(0), context+" return type")
	if !tok {
		return ir.Method{}, false
	}
	m.Return = t
	return m, ok
}

func (u *unit) param(p *sitter.Node, context string) (ir.Param, bool) {
	if p.Type() != "required_parameter" {
		u.unsupported(p, strings.ReplaceAll(p.Type(), "_", " "), context)
		return ir.Param{}, false
	}
	id := firstChild(p, "identifier")
	if id == nil {
		u.unsupported(p, "destructured parameter", context)
		return ir.Param{}, false
	}
	name := u.text(id)
	ann := firstChild(p, "type_annotation")
	if ann == nil || ann.NamedChildCount() == 0 {
		u.unsupported(p, "untyped parameter", context+" param "+name)
		return ir.Param{}, false
	}
	t, ok := u.resolve(ann.NamedChild(0), context+" param "+name)
	return ir.Param{Name: name, Type: t}, ok
}

// signal accepts `name: Signal` properties; every other property is an error.
func (u *unit) signal(module string, n *sitter.Node) (ir.SignalDef, bool) {
	name, ok := u.memberName(n, module)
	if !ok {
		return ir.SignalDef{}, false
	}
	ann := firstChild(n, "type_annotation")
	if ann != nil && ann.NamedChildCount() > 0 {
		t := ann.NamedChild(0)
		switch {
		case t.Type() == "type_identifier" && u.text(t) == "Signal":
			return ir.SignalDef{Name: name, Source: u.source(n)}, true
		case t.Type() == "generic_type" && u.childText(t, "type_identifier") == "Signal":
			u.unsupported(n, "signal payload", module+"."+name)
			return ir.SignalDef{}, false
		}
	}
	u.unsupported(n, "property signature (only methods and Signal properties are allowed)", module+"."+name)
	return ir.SignalDef{}, false
}

// reachableDefs resolves every definition reachable from the module's
// methods and returns them in declaration order.
func (u *unit) reachableDefs(spec *ir.ModuleSpec) []ir.TypeDef {
	reached := make(map[string]bool)
	var queue []string
	enqueue := func(t ir.Type) {
		ir.Walk(t, func(n ir.Type) {
			if name, ok := ir.RefName(n); ok && !reached[name] {
				reached[name] = true
				queue = append(queue, name)
			}
		})
	}
	for _, m := range spec.Methods {
		for _, p := range m.Params {
			enqueue(p.Type)
		}
		enqueue(m.Return)
	}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if obj, ok := u.definition(name).(*ir.ObjectTypeDef); ok {
			for _, f := range obj.Fields {
				enqueue(f.Type)
			}
		}
	}

	var defs []ir.TypeDef
	for _, name := range u.order {
		if reached[name] {
			if d := u.definition(name); d != nil {
				defs = append(defs, d)
			}
		}
	}
	return defs
}

// definition resolves a declaration once per unit.
func (u *unit) definition(name string) ir.TypeDef {
	if d, ok := u.defs[name]; ok {
		return d
	}
	if u.defErrs[name] {
		return nil
	}
	d, ok := u.decls[name]
	if !ok {
		return nil
	}

	var def ir.TypeDef
	switch d.kind {
	case declObject:
		def = u.objectDef(d)
	case declEnum:
		def = u.enumDef(d)
	}
	if def == nil {
		u.defErrs[name] = true
		return nil
	}
	u.defs[name] = def
	return def
}

func (u *unit) objectDef(d *decl) ir.TypeDef {
	if hasChild(d.node, "type_parameters") {
		u.unsupported(d.node, "generic type", d.name)
		return nil
	}
	if hasChild(d.node, "extends_type_clause") {
		u.unsupported(d.node, "interface inheritance", d.name)
		return nil
	}

	var body *sitter.Node
	switch d.node.Type() {
	case "interface_declaration":
		body = firstChild(d.node, "interface_body", "object_type")
	case "type_alias_declaration":
		value := d.node.NamedChild(int(d.node.NamedChildCount()) - 1)
		if value == nil || value.Type() != "object_type" {
			u.unsupported(d.node, "type alias (only object shapes may be aliased)", d.name)
			return nil
		}
		body = value
	}
	if body == nil {
		return nil
	}

	obj := &ir.ObjectTypeDef{Name: d.name, Source: d.src}
	ok := true
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "comment":
			continue
		case "property_signature":
		default:
			u.unsupported(member, strings.ReplaceAll(member.Type(), "_", " "), d.name)
			ok = false
			continue
		}

		fname, fok := u.memberName(member, d.name)
		if !fok {
			ok = false
			continue
		}
		ann := firstChild(member, "type_annotation")
		if ann == nil || ann.NamedChildCount() == 0 {
			u.unsupported(member, "untyped field", d.name+"."+fname)
			ok = false
			continue
		}
		t, tok := u.resolve(ann.NamedChild(0), d.name+"."+fname)
		if !tok {
			ok = false
			continue
		}
		obj.Fields = append(obj.Fields, ir.Field{Name: fname, Type: t, Source: u.source(member)})
	}
	if !ok {
		return nil
	}
	return obj
}

// enumDef builds an enum. Members without an initializer continue numbering
// from the previous numeric member, starting at 0.
func (u *unit) enumDef(d *decl) ir.TypeDef {
	body := firstChild(d.node, "enum_body")
	if body == nil {
		u.unsupported(d.node, "empty enum", d.name)
		return nil
	}

	def := &ir.EnumTypeDef{Name: d.name, Source: d.src}
	var (
		sawString, sawNumber bool
		next                 float64
		ok                   = true
	)
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "comment":
		case "property_identifier":
			def.Variants = append(def.Variants, ir.EnumVariant{Label: u.text(member), Value: next})
			sawNumber = true
			next++
		case "enum_assignment":
			label := member.NamedChild(0)
			value := member.NamedChild(int(member.NamedChildCount()) - 1)
			if label == nil || value == nil || label.Type() != "property_identifier" {
				u.unsupported(member, "computed enum member", d.name)
				ok = false
				continue
			}
			switch value.Type() {
			case "string":
				def.Variants = append(def.Variants, ir.EnumVariant{Label: u.text(label), Value: u.stringValue(value)})
				sawString = true
			case "number", "unary_expression":
				raw := strings.ReplaceAll(u.text(value), " ", "")
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil || v != math.Trunc(v) {
					u.unsupported(value, fmt.Sprintf("non-integer enum value %s", raw), d.name+"."+u.text(label))
					ok = false
					continue
				}
				def.Variants = append(def.Variants, ir.EnumVariant{Label: u.text(label), Value: v})
				sawNumber = true
				next = v + 1
			default:
				u.unsupported(value, "computed enum value", d.name+"."+u.text(label))
				ok = false
			}
		default:
			u.unsupported(member, strings.ReplaceAll(member.Type(), "_", " "), d.name)
			ok = false
		}
	}

	if sawString && sawNumber {
		u.unsupported(d.node, "mixed enum members", d.name)
		return nil
	}
	if !ok {
		return nil
	}
	if sawNumber {
		def.Kind = ir.EnumNumeric
	}
	return def
}
