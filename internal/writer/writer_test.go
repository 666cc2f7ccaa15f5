package writer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protoforge/protoforge/internal/compiler/codegen"
)

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	units := []codegen.OutputUnit{
		{
			Package:   "paint.deep",
			GoName:    "deep",
			Path:      "paint/deep",
			Fragments: []string{"type   Color   int32\n"},
		},
		{
			GoName:    "pb",
			Path:      "pb",
			Fragments: []string{"type Bare struct{}\n"},
		},
	}

	paths, err := Write(dir, units)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	assert.Equal(t, filepath.Join(dir, "paint", "deep", "paint_deep.pb.go"), paths[0])
	assert.Equal(t, filepath.Join(dir, "pb", "pb.pb.go"), paths[1])

	// Output went through the formatter: gofmt collapses the spacing.
	src, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(src), "type Color int32")
}

func TestWriteRejectsInvalidSource(t *testing.T) {
	units := []codegen.OutputUnit{{
		GoName:    "broken",
		Path:      "broken",
		Fragments: []string{"type Unclosed struct {\n"},
	}}

	_, err := Write(t.TempDir(), units)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not format")
}

func TestFormatAddsMissingImports(t *testing.T) {
	src := []byte("package x\n\nvar t = time.Now()\n")
	formatted, err := Format("x.go", src)
	require.NoError(t, err)
	assert.Contains(t, string(formatted), `import "time"`)
}
