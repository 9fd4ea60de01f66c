package document

import (
	"fmt"
	"strings"
)

// Severity of a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is one compiler or exporter message.
type Diagnostic struct {
	Severity Severity
	Path     string
	Line     int
	Message  string
	Hint     string
	// Source names the stage or theme that produced the diagnostic.
	Source string
}

func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(string(d.Severity))
	if d.Source != "" {
		fmt.Fprintf(&b, "[%s]", d.Source)
	}
	b.WriteString(": ")
	b.WriteString(d.Message)
	if d.Path != "" {
		if d.Line > 0 {
			fmt.Fprintf(&b, " (%s:%d)", d.Path, d.Line)
		} else {
			fmt.Fprintf(&b, " (%s)", d.Path)
		}
	}
	return b.String()
}

// Diagnostics is an ordered list of diagnostics.
type Diagnostics []Diagnostic

// HasErrors reports whether any diagnostic has error severity.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only error-severity diagnostics.
func (ds Diagnostics) Errors() Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// Errorf builds an error diagnostic.
func Errorf(source, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityError, Source: source, Message: fmt.Sprintf(format, args...)}
}

// Warningf builds a warning diagnostic.
func Warningf(source, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Source: source, Message: fmt.Sprintf(format, args...)}
}

// DiagnosticError adapts diagnostics to the error interface.
type DiagnosticError struct {
	Diagnostics Diagnostics
}

func (e *DiagnosticError) Error() string {
	errs := e.Diagnostics.Errors()
	if len(errs) == 0 {
		errs = e.Diagnostics
	}
	switch len(errs) {
	case 0:
		return "no diagnostics"
	case 1:
		return errs[0].String()
	default:
		return fmt.Sprintf("%s (and %d more)", errs[0].String(), len(errs)-1)
	}
}
