// Package diag renders generation failures for the terminal.
package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"github.com/l2hyunwoo/craby/crabygen/ir"
	"github.com/l2hyunwoo/craby/internal/errors"
)

// Diagnostic is one reported failure.
type Diagnostic struct {
	Source  ir.Source
	Kind    string
	Message string
	Hint    string
}

// String formats d as file:line:col: kind: message.
func (d Diagnostic) String() string {
	var b strings.Builder
	if !d.Source.IsZero() {
		b.WriteString(d.Source.String())
		b.WriteString(": ")
	}
	b.WriteString(d.Kind)
	b.WriteString(": ")
	b.WriteString(d.Message)
	return b.String()
}

// Collect splits an aggregated error into one diagnostic per failure.
func Collect(err error) []Diagnostic {
	if err == nil {
		return nil
	}
	var out []Diagnostic
	for _, e := range errors.Errors(err) {
		d := classify(e)
		d.Source, _ = ir.Location(e)
		d.Hint = errors.FlattenHints(e)
		out = append(out, d)
	}
	return out
}

func classify(err error) Diagnostic {
	var (
		unsupported *ir.UnsupportedTypeError
		duplicate   *ir.DuplicateDefinitionError
		cyclic      *ir.CyclicTypeError
		parse       *ir.SchemaParseError
	)
	switch {
	case errors.As(err, &unsupported):
		msg := unsupported.Construct
		if unsupported.Context != "" {
			msg += " in " + unsupported.Context
		}
		return Diagnostic{Kind: "unsupported type", Message: msg}
	case errors.As(err, &duplicate):
		msg := fmt.Sprintf("%s %q", duplicate.What, duplicate.Name)
		if !duplicate.Previous.IsZero() {
			msg += " (previously defined at " + duplicate.Previous.String() + ")"
		}
		return Diagnostic{Kind: "duplicate definition", Message: msg}
	case errors.As(err, &cyclic):
		msg := fmt.Sprintf("%s via non-nullable field %s", strings.Join(cyclic.Path, " -> "), cyclic.Field)
		return Diagnostic{Kind: "cyclic type", Message: msg}
	case errors.As(err, &parse):
		return Diagnostic{Kind: "syntax error", Message: parse.Message}
	}
	return Diagnostic{Kind: "error", Message: err.Error()}
}

// Print writes every diagnostic of err to w. A hint follows the first
// diagnostic that carries it.
func Print(w io.Writer, err error) {
	shown := make(map[string]bool)
	for _, d := range Collect(err) {
		loc := ""
		if !d.Source.IsZero() {
			loc = pterm.Bold.Sprint(d.Source.String()) + ": "
		}
		pterm.Fprintln(w, loc+pterm.Red(d.Kind)+": "+d.Message)
		if d.Hint != "" && !shown[d.Hint] {
			shown[d.Hint] = true
			pterm.Fprintln(w, pterm.Cyan("hint")+": "+d.Hint)
		}
	}
}
