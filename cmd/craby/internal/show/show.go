// Package show prints the modules of a project as the generator sees them.
package show

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"

	"github.com/l2hyunwoo/craby/cmd/craby/internal/diag"
	"github.com/l2hyunwoo/craby/crabygen"
	"github.com/l2hyunwoo/craby/crabygen/dispatch"
	"github.com/l2hyunwoo/craby/crabygen/ir"
	"github.com/l2hyunwoo/craby/internal/errors"
	"github.com/l2hyunwoo/craby/internal/logger"
	"github.com/l2hyunwoo/craby/internal/project"
)

type Cmd struct {
	Project string   `help:"Project root." short:"p" default:"." type:"path"`
	Format  string   `help:"Output format." enum:"tree,json,yaml" default:"tree" short:"f"`
	Set     []string `help:"Override a craby.toml value (key=value)." placeholder:"KEY=VALUE"`
}

func (c *Cmd) Run(ctx context.Context) error {
	p, err := project.Open(c.Project, c.Set...)
	if err != nil {
		return err
	}
	specs, err := crabygen.Parse(ctx, p.GeneratorConfig(logger.Named("show")))
	if err != nil {
		diag.Print(os.Stderr, err)
		return errors.New("invalid module specs")
	}

	switch c.Format {
	case "json":
		return writeJSON(os.Stdout, specs)
	case "yaml":
		return writeYAML(os.Stdout, specs)
	}

	pterm.Info.Printf("%d module(s) found in %s\n\n", len(specs), p.Config.Project.Name)
	for i, spec := range specs {
		pterm.Printf("%s (%d/%d)\n", pterm.Bold.Sprint(spec.Name), i+1, len(specs))
		if err := pterm.DefaultTree.WithRoot(Tree(spec)).Render(); err != nil {
			return err
		}
	}
	return nil
}

// Tree lays out one module: its methods with their dispatch mode, then its
// signals, object types and enums.
func Tree(spec *ir.ModuleSpec) pterm.TreeNode {
	plan := dispatch.NewPlan(spec)

	var methods []pterm.TreeNode
	for _, m := range spec.Methods {
		params := make([]string, len(m.Params))
		for i, p := range m.Params {
			params[i] = p.Name + ": " + p.Type.String()
		}
		sig := fmt.Sprintf("%s(%s): %s", m.Name, strings.Join(params, ", "), m.Return)
		methods = append(methods, pterm.TreeNode{Text: sig + " " + pterm.Gray("["+plan.Mode(m.Name).String()+"]")})
	}

	var signals []pterm.TreeNode
	for _, s := range spec.Signals {
		signals = append(signals, pterm.TreeNode{Text: s.Name})
	}

	var objects []pterm.TreeNode
	for _, o := range spec.Objects() {
		var fields []pterm.TreeNode
		for _, f := range o.Fields {
			fields = append(fields, pterm.TreeNode{Text: f.Name + ": " + f.Type.String()})
		}
		objects = append(objects, pterm.TreeNode{Text: pterm.Blue(o.Name), Children: fields})
	}

	var enums []pterm.TreeNode
	for _, e := range spec.Enums() {
		var variants []pterm.TreeNode
		for _, v := range e.Variants {
			variants = append(variants, pterm.TreeNode{Text: fmt.Sprintf("%s = %s", v.Label, literal(v.Value))})
		}
		enums = append(enums, pterm.TreeNode{Text: pterm.Blue(e.Name) + " (" + e.Kind.String() + ")", Children: variants})
	}

	return pterm.TreeNode{Children: []pterm.TreeNode{
		section("Methods", methods),
		section("Signals", signals),
		section("Object types", objects),
		section("Enum types", enums),
	}}
}

func section(title string, children []pterm.TreeNode) pterm.TreeNode {
	text := fmt.Sprintf("%s (%d)", title, len(children))
	if len(children) == 0 {
		children = []pterm.TreeNode{{Text: pterm.Gray("(none)")}}
	}
	return pterm.TreeNode{Text: text, Children: children}
}

func literal(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprint(v)
}

func writeJSON(w io.Writer, specs []*ir.ModuleSpec) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(specs)
}

// writeYAML converts the JSON form, so both formats share one schema and
// keep its key order.
func writeYAML(w io.Writer, specs []*ir.ModuleSpec) error {
	data, err := json.Marshal(specs)
	if err != nil {
		return err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, "convert to yaml")
	}
	blockStyle(&doc)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	return enc.Close()
}

// blockStyle drops the flow and quoting styles the JSON input carries.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
