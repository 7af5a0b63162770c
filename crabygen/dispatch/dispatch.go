// Package dispatch decides, once per method at generation time, whether a
// call runs synchronously on the caller's thread or is deferred to a worker
// and observed through a promise.
package dispatch

import "github.com/l2hyunwoo/craby/crabygen/ir"

// Mode is the execution strategy of a method.
type Mode int

const (
	// Direct methods run synchronously and return their result in place.
	Direct Mode = iota
	// Deferred methods return a pending promise immediately; the work runs
	// on another thread and settles the promise exactly once.
	Deferred
)

func (m Mode) String() string {
	switch m {
	case Direct:
		return "direct"
	case Deferred:
		return "deferred"
	default:
		return "unknown"
	}
}

// Classify returns Deferred for methods returning Promise<T>, Direct otherwise.
func Classify(m ir.Method) Mode {
	if m.IsAsync() {
		return Deferred
	}
	return Direct
}

// MethodPlan is the dispatch decision for one method.
type MethodPlan struct {
	Name string
	Mode Mode

	// Result is the value the call ultimately produces: the Promise payload
	// for Deferred methods, the return type for Direct ones.
	Result ir.Type
}

// Plan holds the dispatch decisions of a module, in method order.
type Plan struct {
	Module  string
	Methods []MethodPlan

	index map[string]int
}

// NewPlan classifies every method of spec.
func NewPlan(spec *ir.ModuleSpec) *Plan {
	p := &Plan{
		Module:  spec.Name,
		Methods: make([]MethodPlan, 0, len(spec.Methods)),
		index:   make(map[string]int, len(spec.Methods)),
	}
	for _, m := range spec.Methods {
		p.index[m.Name] = len(p.Methods)
		p.Methods = append(p.Methods, MethodPlan{
			Name:   m.Name,
			Mode:   Classify(m),
			Result: ir.Unwrap(m.Return),
		})
	}
	return p
}

// Method returns the plan for the named method.
func (p *Plan) Method(name string) (MethodPlan, bool) {
	i, ok := p.index[name]
	if !ok {
		return MethodPlan{}, false
	}
	return p.Methods[i], true
}

// Mode returns the mode of the named method. Unknown methods are Direct.
func (p *Plan) Mode(name string) Mode {
	mp, _ := p.Method(name)
	return mp.Mode
}

// Deferred reports whether any method of the module is deferred.
func (p *Plan) Deferred() bool {
	for _, m := range p.Methods {
		if m.Mode == Deferred {
			return true
		}
	}
	return false
}
