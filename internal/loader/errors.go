package loader

import (
	"fmt"

	"github.com/patrickwarner/marketpulse/internal/models"
)

// SchemaError reports a required column missing from a source file. It is
// fatal for that source only; the remaining sources still load.
type SchemaError struct {
	Source string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("source %s: missing required column %q", e.Source, e.Column)
}

// ValidationError reports a single row whose values fall outside the accepted
// domain. The row is excluded and the load continues; callers see it as a
// diagnostic, never as a returned error.
type ValidationError struct {
	Source string
	Line   int
	Field  string
	Code   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("source %s line %d: field %s %s", e.Source, e.Line, e.Field, e.Reason)
}

// Diagnostic converts the validation failure into its reportable form.
func (e *ValidationError) Diagnostic() models.Diagnostic {
	return models.Diagnostic{
		Source:  e.Source,
		Line:    e.Line,
		Field:   e.Field,
		Code:    e.Code,
		Message: e.Error(),
	}
}
