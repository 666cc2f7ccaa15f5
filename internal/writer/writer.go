// Package writer persists output units to the filesystem, one Go file
// per schema package, formatted with goimports before writing.
package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/tools/imports"

	"github.com/protoforge/protoforge/internal/compiler/codegen"
)

// Write persists every unit under dir and returns the written paths in
// emission order.
func Write(dir string, units []codegen.OutputUnit) ([]string, error) {
	written := make([]string, 0, len(units))
	for i := range units {
		path, err := writeUnit(dir, &units[i])
		if err != nil {
			return nil, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeUnit(dir string, unit *codegen.OutputUnit) (string, error) {
	target := filepath.Join(dir, filepath.FromSlash(unit.Path), fileName(unit))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	src, err := Format(target, []byte(unit.Source()))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(target, src, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", target, err)
	}
	return target, nil
}

// Format runs goimports over a generated source buffer. A formatting
// failure means the generator emitted invalid Go and is surfaced as-is.
func Format(filename string, src []byte) ([]byte, error) {
	formatted, err := imports.Process(filename, src, nil)
	if err != nil {
		return nil, fmt.Errorf("generated source for %s does not format: %w", filename, err)
	}
	return formatted, nil
}

func fileName(unit *codegen.OutputUnit) string {
	if unit.Package == "" {
		return unit.GoName + ".pb.go"
	}
	return strings.ReplaceAll(unit.Package, ".", "_") + ".pb.go"
}
