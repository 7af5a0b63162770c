package ir

import (
	"fmt"
	"strings"

	"github.com/l2hyunwoo/craby/internal/errors"
)

// UnsupportedTypeError reports a declared type construct outside the closed
// Type union, or one used in a position where it is not allowed.
type UnsupportedTypeError struct {
	Source    Source
	Construct string

	// Context names the declaration being resolved, e.g. "Calculator.add param a".
	Context string
}

func (e *UnsupportedTypeError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: unsupported type %s in %s", e.Source, e.Construct, e.Context)
	}
	return fmt.Sprintf("%s: unsupported type %s", e.Source, e.Construct)
}

// DuplicateDefinitionError reports a name collision among methods, signals,
// type definitions, enum variants or modules.
type DuplicateDefinitionError struct {
	Source Source

	// What is the kind of the colliding entity, e.g. "method" or "signal".
	What string
	Name string

	// Previous is where the first definition was seen, if known.
	Previous Source
}

func (e *DuplicateDefinitionError) Error() string {
	msg := fmt.Sprintf("%s: duplicate %s %q", e.Source, e.What, e.Name)
	if !e.Previous.IsZero() {
		msg += " (previously defined at " + e.Previous.String() + ")"
	}
	return msg
}

// CyclicTypeError reports an object type that contains itself through
// non-nullable fields.
type CyclicTypeError struct {
	Source Source

	// Path lists the types along the cycle, starting and ending with the
	// same name.
	Path []string

	// Field is the Type.field edge that closes the cycle.
	Field string
}

func (e *CyclicTypeError) Error() string {
	return fmt.Sprintf("%s: cyclic type %s via non-nullable field %s; wrap the field in `| null`",
		e.Source, strings.Join(e.Path, " -> "), e.Field)
}

// SchemaParseError reports malformed interface-description syntax.
type SchemaParseError struct {
	Source  Source
	Message string
}

func (e *SchemaParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

// Location extracts the source location from any generation-time error,
// looking through wrapping.
func Location(err error) (Source, bool) {
	var (
		unsupported *UnsupportedTypeError
		duplicate   *DuplicateDefinitionError
		cyclic      *CyclicTypeError
		parse       *SchemaParseError
	)
	switch {
	case errors.As(err, &unsupported):
		return unsupported.Source, true
	case errors.As(err, &duplicate):
		return duplicate.Source, true
	case errors.As(err, &cyclic):
		return cyclic.Source, true
	case errors.As(err, &parse):
		return parse.Source, true
	}
	return Source{}, false
}
