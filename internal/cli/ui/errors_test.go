package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/protoforge/protoforge/internal/compiler/errors"
)

func TestFormatError(t *testing.T) {
	out := FormatError(ErrorOptions{
		Context:     "resolve error: RES101",
		Problem:     `unresolved reference "Noed" in shapes.Tree`,
		Location:    "shapes/tree.proto",
		Suggestions: []string{"did you mean shapes.Node?"},
		NoColor:     true,
	})

	assert.Contains(t, out, "❌ RESOLVE ERROR: RES101")
	assert.Contains(t, out, `unresolved reference "Noed" in shapes.Tree`)
	assert.Contains(t, out, "at shapes/tree.proto")
	assert.Contains(t, out, "did you mean shapes.Node?")
}

func TestFormatErrorOmitsEmptySections(t *testing.T) {
	out := FormatError(ErrorOptions{Problem: "something failed", NoColor: true})
	assert.NotContains(t, out, "❌")
	assert.NotContains(t, out, "at ")
}

func TestFormatCompileError(t *testing.T) {
	ce := errors.NewUnresolvedReference("Noed", "shapes.Tree").
		WithFile("shapes/tree.proto").
		WithSuggestion("did you mean shapes.Node?")

	out := FormatCompileError(ce)
	assert.Contains(t, out, "RES101")
	assert.Contains(t, out, "shapes/tree.proto")
	assert.Contains(t, out, "did you mean shapes.Node?")
}

func TestWriteSuccess(t *testing.T) {
	var sb strings.Builder
	WriteSuccess(&sb, "generated 3 packages", true)
	assert.Equal(t, "✓ generated 3 packages\n", sb.String())
}
