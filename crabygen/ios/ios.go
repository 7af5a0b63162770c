// Package ios emits the Objective-C++ glue that registers each C++
// TurboModule with React Native's global module map when the app loads.
package ios

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"go.uber.org/zap"

	"github.com/l2hyunwoo/craby/crabygen/ir"
	"github.com/l2hyunwoo/craby/crabygen/naming"
	"github.com/l2hyunwoo/craby/crabygen/sink"
	"github.com/l2hyunwoo/craby/internal/errors"
	"github.com/l2hyunwoo/craby/internal/logger"
)

// Generator stages one module provider per module.
type Generator struct {
	// Namespace is the C++ root namespace of the module classes.
	Namespace string

	// Dir is the iOS directory relative to the project, e.g. "ios".
	Dir string

	Logger *zap.Logger
}

// Name returns the generator's identifier.
func (g *Generator) Name() string { return "ios" }

// ProviderPath is the path of a module's provider.
func (g *Generator) ProviderPath(module string) string {
	return path.Join(g.Dir, naming.ForModule(module).ModuleProvider()+".mm")
}

// Generate writes a provider for every module to out.
func (g *Generator) Generate(ctx context.Context, specs []*ir.ModuleSpec, out sink.OutputSink) error {
	log := g.Logger
	if log == nil {
		log = logger.Named("ios")
	}
	for _, spec := range specs {
		p := g.ProviderPath(spec.Name)
		if err := out.WriteFile(ctx, p, EmitProvider(spec, g.Namespace)); err != nil {
			return errors.Wrapf(err, "stage %s", p)
		}
		log.Debug("staged module provider",
			zap.String(logger.FieldModule, spec.Name),
			zap.String(logger.FieldFile, p))
	}
	return nil
}

// EmitProvider renders <Module>ModuleProvider.mm. Its +load registers the
// module's C++ class before the first bridge lookup.
func EmitProvider(spec *ir.ModuleSpec, namespace string) []byte {
	names := naming.ForModule(spec.Name)
	cls := fmt.Sprintf("%s::%s::%s", namespace, names.Flat, names.CxxModule())
	provider := names.ModuleProvider()

	var buf bytes.Buffer
	buf.WriteString(sink.Header)
	fmt.Fprintf(&buf, "#import \"%s.hpp\"\n", names.CxxModule())
	buf.WriteString("#import <ReactCommon/CxxTurboModuleUtils.h>\n\n")
	fmt.Fprintf(&buf, "@interface %s : NSObject\n@end\n\n", provider)
	fmt.Fprintf(&buf, "@implementation %s\n", provider)
	buf.WriteString("+ (void)load {\n")
	buf.WriteString("  facebook::react::registerCxxModuleToGlobalModuleMap(\n")
	fmt.Fprintf(&buf, "      %s::kModuleName,\n", cls)
	buf.WriteString("      [](std::shared_ptr<facebook::react::CallInvoker> jsInvoker) {\n")
	fmt.Fprintf(&buf, "        return std::make_shared<%s>(jsInvoker);\n", cls)
	buf.WriteString("      });\n")
	buf.WriteString("}\n")
	buf.WriteString("@end\n")
	return buf.Bytes()
}
