// Package codegen implements `craby codegen`.
package codegen

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pterm/pterm"
	"go.uber.org/zap"

	"github.com/l2hyunwoo/craby/cmd/craby/internal/diag"
	"github.com/l2hyunwoo/craby/crabygen"
	"github.com/l2hyunwoo/craby/crabygen/sink"
	"github.com/l2hyunwoo/craby/internal/config"
	"github.com/l2hyunwoo/craby/internal/errors"
	"github.com/l2hyunwoo/craby/internal/logger"
	"github.com/l2hyunwoo/craby/internal/project"
)

// ErrFailed is returned after the diagnostics of a failed run were printed.
var ErrFailed = errors.New("code generation failed")

type Cmd struct {
	Project string   `help:"Project root." short:"p" default:"." type:"path"`
	DryRun  bool     `help:"Print the generated files as a txtar archive instead of writing them." name:"dry-run"`
	Watch   bool     `help:"Regenerate whenever a spec file or craby.toml changes." short:"w"`
	Set     []string `help:"Override a craby.toml value (key=value)." placeholder:"KEY=VALUE"`
}

func (c *Cmd) Run(ctx context.Context) error {
	log := logger.Named("codegen")
	if c.Watch && c.DryRun {
		return errors.New("--watch and --dry-run cannot be combined")
	}

	err := c.generate(ctx, os.Stdout, os.Stderr, log)
	if !c.Watch {
		return err
	}

	p, openErr := project.Open(c.Project, c.Set...)
	if openErr != nil {
		return openErr
	}
	// One pass at a time; a burst during a pass schedules the next one.
	var running sync.Mutex
	w := &Watcher{
		Dirs:  []string{p.Path(p.Config.Project.SourceDir)},
		Files: []string{p.Path(config.FileName)},
		Match: SpecFilter(p.Config.Codegen.SpecPrefix),
		OnChange: func() {
			running.Lock()
			defer running.Unlock()
			pterm.Info.Println("change detected, regenerating")
			_ = c.generate(ctx, os.Stdout, os.Stderr, log)
		},
		Logger: log,
	}
	pterm.Info.Println("watching for changes (Ctrl+C to stop)")
	return w.Run(ctx)
}

// generate runs one full generation pass. craby.toml is reloaded every time
// so watch mode picks up configuration edits.
func (c *Cmd) generate(ctx context.Context, stdout, stderr io.Writer, log *zap.Logger) error {
	p, err := project.Open(c.Project, c.Set...)
	if err != nil {
		diag.Print(stderr, err)
		return ErrFailed
	}
	cfg := p.GeneratorConfig(log)
	cfg.DryRun = c.DryRun

	result, err := crabygen.Generate(ctx, cfg)
	if err != nil {
		diag.Print(stderr, err)
		return ErrFailed
	}

	if c.DryRun {
		_, err := stdout.Write(result.Archive())
		return err
	}
	printSummary(stdout, result)
	return nil
}

func printSummary(w io.Writer, result *crabygen.GenerateResult) {
	counts := make(map[sink.Status]int)
	for _, f := range result.Files {
		counts[f.Status]++
		var status string
		switch f.Status {
		case sink.StatusWritten:
			status = pterm.Green(string(f.Status))
		case sink.StatusSkipped:
			status = pterm.Yellow(string(f.Status))
		default:
			status = pterm.Gray(string(f.Status))
		}
		pterm.Fprintln(w, fmt.Sprintf("  %-9s %s", status, f.Path))
	}
	pterm.Fprintln(w, fmt.Sprintf("%d module(s): %d written, %d unchanged, %d skipped",
		len(result.Modules), counts[sink.StatusWritten], counts[sink.StatusUnchanged], counts[sink.StatusSkipped]))
}
