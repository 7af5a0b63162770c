package cxx

import (
	"context"
	"path"

	"go.uber.org/zap"

	"github.com/l2hyunwoo/craby/crabygen/dispatch"
	"github.com/l2hyunwoo/craby/crabygen/ir"
	"github.com/l2hyunwoo/craby/crabygen/naming"
	"github.com/l2hyunwoo/craby/crabygen/sink"
	"github.com/l2hyunwoo/craby/internal/errors"
	"github.com/l2hyunwoo/craby/internal/logger"
)

// Generator stages the C++ artifacts of a set of modules.
type Generator struct {
	// Namespace is the C++ root namespace, e.g. "craby".
	Namespace string

	// Dir is the output directory relative to the project, e.g. "cpp".
	Dir string

	Logger *zap.Logger
}

// Name returns the generator's identifier.
func (g *Generator) Name() string { return "cxx" }

// HeaderPath is the class declaration path of a module.
func (g *Generator) HeaderPath(module string) string {
	return path.Join(g.Dir, naming.ForModule(module).CxxModule()+".hpp")
}

// SourcePath is the implementation path of a module.
func (g *Generator) SourcePath(module string) string {
	return path.Join(g.Dir, naming.ForModule(module).CxxModule()+".cpp")
}

func (g *Generator) SharedHeaderPath() string {
	return path.Join(g.Dir, SharedHeaderName)
}

// Generate stages a header and a source file per module, plus the shared
// bridging header. Plans are looked up by module name; a missing plan is
// computed from the module.
func (g *Generator) Generate(ctx context.Context, specs []*ir.ModuleSpec, plans map[string]*dispatch.Plan, out *sink.MemorySink) error {
	log := g.Logger
	if log == nil {
		log = logger.Named("cxx")
	}

	for _, spec := range specs {
		plan := plans[spec.Name]
		if plan == nil {
			plan = dispatch.NewPlan(spec)
		}
		e := NewEmitter(spec, plan, g.Namespace)

		hpp := g.HeaderPath(spec.Name)
		if err := out.WriteFile(ctx, hpp, e.EmitHeader()); err != nil {
			return errors.Wrapf(err, "stage %s", hpp)
		}
		cpp := g.SourcePath(spec.Name)
		if err := out.WriteFile(ctx, cpp, e.EmitSource()); err != nil {
			return errors.Wrapf(err, "stage %s", cpp)
		}
		log.Debug("staged c++ module",
			zap.String(logger.FieldModule, spec.Name),
			zap.String(logger.FieldFile, cpp))
	}

	if err := out.WriteFile(ctx, g.SharedHeaderPath(), EmitSharedHeader(g.Namespace)); err != nil {
		return errors.Wrapf(err, "stage %s", SharedHeaderName)
	}
	return nil
}
