// Package render turns PlantUML source into diagram output by calling an
// external PlantUML backend.
package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Format is a PlantUML output type.
type Format string

const (
	FormatUTXT Format = "utxt" // unicode art
	FormatTXT  Format = "txt"  // ascii art
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatUTXT, FormatTXT, FormatSVG, FormatPNG}
}

// ParseFormat validates s.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format %q", s)
}

// IsText reports whether output in this format can be shown in a terminal.
func (f Format) IsText() bool {
	return f == FormatUTXT || f == FormatTXT
}

// Extension is the file extension used when exporting.
func (f Format) Extension() string {
	if f.IsText() {
		return "txt"
	}
	return string(f)
}

// Output is one rendered diagram.
type Output struct {
	Format Format
	Data   []byte
}

// Text returns the diagram as a string; empty for binary formats.
func (o *Output) Text() string {
	if o == nil || !o.Format.IsText() {
		return ""
	}
	return string(o.Data)
}

// Backend renders PlantUML source.
type Backend interface {
	Render(ctx context.Context, source string, format Format) (*Output, error)
	Name() string
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, source string, format Format) (*Output, error)

func (f BackendFunc) Render(ctx context.Context, source string, format Format) (*Output, error) {
	return f(ctx, source, format)
}

func (f BackendFunc) Name() string { return "func" }

// ErrDiagram is matched by errors describing a problem in the diagram
// source, as opposed to a broken backend.
var ErrDiagram = errors.New("diagram error")

// DiagnosticError carries the message PlantUML reported for bad source.
// Line is 1-based, 0 when unknown.
type DiagnosticError struct {
	Message string
	Line    int
}

func (e *DiagnosticError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

func (e *DiagnosticError) Is(target error) bool { return target == ErrDiagram }

// Diagnostic extracts the user-facing message from a backend error.
func Diagnostic(err error) string {
	if err == nil {
		return ""
	}
	var d *DiagnosticError
	if errors.As(err, &d) {
		return d.Error()
	}
	return err.Error()
}
