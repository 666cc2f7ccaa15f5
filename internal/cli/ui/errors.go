// Package ui renders compiler errors and status messages for the
// terminal.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/protoforge/protoforge/internal/compiler/errors"
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Context     string
	Problem     string
	Location    string
	Suggestions []string
	NoColor     bool
}

// FormatError creates a standardized error message with location and
// suggestions.
//
// Example output:
//
//	❌ UNRESOLVED REFERENCE: RES101
//	   unresolved reference "Noed" in shapes.Tree
//	   at shapes/tree.proto
//
//	   Did you mean: Node?
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	headerColor := color.New(color.FgRed, color.Bold)
	bodyColor := color.New(color.FgRed)
	if opts.NoColor {
		headerColor.DisableColor()
		bodyColor.DisableColor()
	}

	if opts.Context != "" {
		headerColor.Fprintf(&b, "❌ %s\n", strings.ToUpper(opts.Context))
	}
	if opts.Problem != "" {
		bodyColor.Fprintf(&b, "   %s\n", opts.Problem)
	}
	if opts.Location != "" {
		bodyColor.Fprintf(&b, "   at %s\n", opts.Location)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		yellow := color.New(color.FgYellow)
		if opts.NoColor {
			yellow.DisableColor()
		}
		yellow.Fprintf(&b, "   %s\n", strings.Join(opts.Suggestions, "\n   "))
	}

	return b.String()
}

// FormatCompileError renders a structured compile error.
func FormatCompileError(ce *errors.CompileError) string {
	opts := ErrorOptions{
		Context:  fmt.Sprintf("%s error: %s", ce.Category, ce.Code),
		Problem:  ce.Message,
		Location: ce.File,
	}
	if ce.Suggestion != "" {
		opts.Suggestions = []string{ce.Suggestion}
	}
	return FormatError(opts)
}

// WriteError writes a formatted error message to the writer
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}
