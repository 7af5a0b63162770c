// Package doctor implements `craby doctor`.
package doctor

import (
	"io"
	"os"

	"github.com/pterm/pterm"

	"github.com/l2hyunwoo/craby/internal/errors"
	"github.com/l2hyunwoo/craby/internal/project"
)

type Cmd struct {
	Project string   `help:"Project root." short:"p" default:"." type:"path"`
	Set     []string `help:"Override a craby.toml value (key=value)." placeholder:"KEY=VALUE"`
}

func (c *Cmd) Run() error {
	report := project.Doctor(c.Project, c.Set...)
	Print(os.Stdout, report)
	if !report.Passed() {
		return errors.New("some checks failed")
	}
	return nil
}

// Print renders the report as a checklist grouped by section.
func Print(w io.Writer, report *project.Report) {
	for _, section := range report.Sections() {
		pterm.Fprintln(w)
		pterm.Fprintln(w, pterm.Bold.Sprint(section))
		for _, res := range report.Results {
			if res.Section != section {
				continue
			}
			line := mark(res.Status) + " " + res.Name
			if res.Detail != "" {
				line += " " + pterm.Gray("("+res.Detail+")")
			}
			pterm.Fprintln(w, line)
		}
	}
}

func mark(s project.Status) string {
	switch s {
	case project.StatusOK:
		return pterm.Green("✓")
	case project.StatusWarn:
		return pterm.Yellow("!")
	case project.StatusSkipped:
		return pterm.Gray("-")
	}
	return pterm.Red("✗")
}
