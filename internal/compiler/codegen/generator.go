// Package codegen maps resolved field shapes to Go type expressions and
// assembles the generated declarations into one output unit per schema
// package. It runs strictly after cycle breaking has frozen every
// NeedsIndirection flag.
package codegen

import (
	"bytes"
	"fmt"
	"strings"
)

// generator accumulates one declaration fragment at a time.
type generator struct {
	buf    bytes.Buffer
	indent int
}

// writeLine writes a formatted line with proper indentation.
func (g *generator) writeLine(format string, args ...interface{}) {
	if format == "" {
		g.buf.WriteString("\n")
		return
	}
	for i := 0; i < g.indent; i++ {
		g.buf.WriteString("\t")
	}
	if len(args) > 0 {
		fmt.Fprintf(&g.buf, format, args...)
	} else {
		g.buf.WriteString(format)
	}
	g.buf.WriteString("\n")
}

// writeComment writes a schema comment as a Go doc comment.
func (g *generator) writeComment(comment string) {
	for _, line := range strings.Split(comment, "\n") {
		g.writeLine("// %s", strings.TrimRight(line, " \t"))
	}
}

func (g *generator) String() string { return g.buf.String() }

// initialisms that should be all caps in generated Go identifiers.
var initialisms = map[string]string{
	"id":    "ID",
	"url":   "URL",
	"uri":   "URI",
	"uuid":  "UUID",
	"api":   "API",
	"http":  "HTTP",
	"https": "HTTPS",
	"json":  "JSON",
	"xml":   "XML",
	"html":  "HTML",
	"sql":   "SQL",
	"ip":    "IP",
	"tcp":   "TCP",
	"udp":   "UDP",
}

// goName converts a snake_case schema identifier to PascalCase.
func goName(name string) string {
	parts := strings.Split(name, "_")
	for i, part := range parts {
		if len(part) == 0 {
			continue
		}
		if upper, ok := initialisms[strings.ToLower(part)]; ok {
			parts[i] = upper
		} else {
			parts[i] = strings.ToUpper(part[0:1]) + part[1:]
		}
	}
	return strings.Join(parts, "")
}

// declName returns the hoisted identifier for a declaration: its full
// dotted path below the package, joined with underscores, so nested
// types never depend on Go supporting nested declarations.
func declName(pkg, fqn string) string {
	local := fqn
	if pkg != "" {
		local = strings.TrimPrefix(fqn, pkg+".")
	}
	segments := strings.Split(local, ".")
	for i, s := range segments {
		segments[i] = goName(s)
	}
	return strings.Join(segments, "_")
}

// goPackageName derives the Go package identifier for a schema package.
func goPackageName(pkg string) string {
	if pkg == "" {
		return "pb"
	}
	last := pkg
	if i := strings.LastIndexByte(pkg, '.'); i >= 0 {
		last = pkg[i+1:]
	}
	var sb strings.Builder
	for _, r := range strings.ToLower(last) {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	name := sb.String()
	if name == "" || name[0] >= '0' && name[0] <= '9' {
		name = "pkg" + name
	}
	return name
}

// packageAlias returns the deterministic import alias used when one
// generated package references a type from another.
func packageAlias(pkg string) string {
	return strings.ReplaceAll(pkg, ".", "_")
}

// packagePath returns the relative output directory for a package.
func packagePath(pkg string) string {
	if pkg == "" {
		return "pb"
	}
	return strings.ReplaceAll(pkg, ".", "/")
}
