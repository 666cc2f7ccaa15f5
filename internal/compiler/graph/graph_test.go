package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protoforge/protoforge/internal/compiler/descriptor"
	"github.com/protoforge/protoforge/internal/compiler/index"
	"github.com/protoforge/protoforge/internal/compiler/resolve"
)

func build(t *testing.T, files ...*descriptor.File) (*index.Index, *resolve.Resolver) {
	t.Helper()
	idx, err := index.Build(&descriptor.Set{Files: files})
	require.NoError(t, err)
	res := resolve.New(idx)
	require.NoError(t, res.ResolveAll())
	return idx, res
}

func TestBreakLeavesAcyclicGraphAlone(t *testing.T) {
	leaf := &descriptor.Message{Name: "Leaf"}
	node := &descriptor.Message{
		Name: "Node",
		Fields: []*descriptor.Field{
			{Name: "leaf", Number: 1, TypeRef: ".shapes.Leaf"},
			{Name: "value", Number: 2, Scalar: descriptor.ScalarInt32},
		},
	}
	idx, res := build(t, &descriptor.File{
		Name:     "shapes.proto",
		Package:  "shapes",
		Messages: []*descriptor.Message{leaf, node},
	})

	require.NoError(t, Break(idx, res, nil))
	assert.False(t, node.Fields[0].NeedsIndirection)
	assert.False(t, node.Fields[1].NeedsIndirection)
}

func TestBreakSelfReferentialMessage(t *testing.T) {
	tree := &descriptor.Message{
		Name: "Tree",
		Fields: []*descriptor.Field{
			{Name: "left", Number: 1, TypeRef: ".shapes.Tree"},
			{Name: "right", Number: 2, TypeRef: ".shapes.Tree"},
			{Name: "value", Number: 3, Scalar: descriptor.ScalarInt32},
		},
	}
	idx, res := build(t, &descriptor.File{
		Name:     "shapes.proto",
		Package:  "shapes",
		Messages: []*descriptor.Message{tree},
	})

	require.NoError(t, Break(idx, res, nil))
	assert.True(t, tree.Fields[0].NeedsIndirection, "left closes a loop")
	assert.True(t, tree.Fields[1].NeedsIndirection, "right closes a loop")
	assert.False(t, tree.Fields[2].NeedsIndirection, "scalars never contribute edges")
}

func TestBreakIgnoresRepeatedAndMapFields(t *testing.T) {
	tree := &descriptor.Message{
		Name: "Tree",
		Fields: []*descriptor.Field{
			{Name: "branches", Number: 1, Cardinality: descriptor.Repeated, TypeRef: ".shapes.Tree"},
			{
				Name:        "children",
				Number:      2,
				Cardinality: descriptor.Map,
				MapKey:      descriptor.ScalarString,
				MapValueRef: ".shapes.Tree",
			},
		},
	}
	idx, res := build(t, &descriptor.File{
		Name:     "shapes.proto",
		Package:  "shapes",
		Messages: []*descriptor.Message{tree},
	})

	require.NoError(t, Break(idx, res, nil))
	assert.False(t, tree.Fields[0].NeedsIndirection)
	assert.False(t, tree.Fields[1].NeedsIndirection)
}

func TestBreakMutualCycleMarksExactlyOneField(t *testing.T) {
	a := &descriptor.Message{
		Name:   "A",
		Fields: []*descriptor.Field{{Name: "b", Number: 1, TypeRef: ".cyc.B"}},
	}
	b := &descriptor.Message{
		Name:   "B",
		Fields: []*descriptor.Field{{Name: "a", Number: 1, TypeRef: ".cyc.A"}},
	}
	idx, res := build(t, &descriptor.File{
		Name:     "cyc.proto",
		Package:  "cyc",
		Messages: []*descriptor.Message{a, b},
	})

	require.NoError(t, Break(idx, res, nil))

	// Traversal starts from the lexicographically first node, so the
	// back edge is B's field. Exactly one side of the loop is broken.
	assert.False(t, a.Fields[0].NeedsIndirection)
	assert.True(t, b.Fields[0].NeedsIndirection)
}

func TestBreakHonorsConfiguredBoxedFields(t *testing.T) {
	a := &descriptor.Message{
		Name:   "A",
		Fields: []*descriptor.Field{{Name: "b", Number: 1, TypeRef: ".cyc.B"}},
	}
	b := &descriptor.Message{
		Name:   "B",
		Fields: []*descriptor.Field{{Name: "a", Number: 1, TypeRef: ".cyc.A"}},
	}
	idx, res := build(t, &descriptor.File{
		Name:     "cyc.proto",
		Package:  "cyc",
		Messages: []*descriptor.Message{a, b},
	})

	require.NoError(t, Break(idx, res, map[string]bool{"cyc.A.b": true}))

	// The pre-boxed edge already breaks the loop, so cycle analysis has
	// nothing left to mark.
	assert.True(t, a.Fields[0].NeedsIndirection)
	assert.False(t, b.Fields[0].NeedsIndirection)
}

func TestBreakMarksOneofMembers(t *testing.T) {
	node := &descriptor.Message{
		Name: "Node",
		OneOfs: []*descriptor.OneOf{{
			Name: "kind",
			Fields: []*descriptor.Field{
				{Name: "child", Number: 1, TypeRef: ".shapes.Node"},
				{Name: "leaf", Number: 2, Scalar: descriptor.ScalarInt32},
			},
		}},
	}
	idx, res := build(t, &descriptor.File{
		Name:     "shapes.proto",
		Package:  "shapes",
		Messages: []*descriptor.Message{node},
	})

	require.NoError(t, Break(idx, res, nil))
	assert.True(t, node.OneOfs[0].Fields[0].NeedsIndirection)
	assert.False(t, node.OneOfs[0].Fields[1].NeedsIndirection)
}

func TestBreakLongCycleThroughNestedMessages(t *testing.T) {
	inner := &descriptor.Message{
		Name:   "Inner",
		Fields: []*descriptor.Field{{Name: "top", Number: 1, TypeRef: ".deep.Top"}},
	}
	top := &descriptor.Message{
		Name:     "Top",
		Fields:   []*descriptor.Field{{Name: "inner", Number: 1, TypeRef: ".deep.Top.Inner"}},
		Messages: []*descriptor.Message{inner},
	}
	idx, res := build(t, &descriptor.File{
		Name:     "deep.proto",
		Package:  "deep",
		Messages: []*descriptor.Message{top},
	})

	require.NoError(t, Break(idx, res, nil))

	marked := 0
	for _, f := range []*descriptor.Field{top.Fields[0], inner.Fields[0]} {
		if f.NeedsIndirection {
			marked++
		}
	}
	assert.Equal(t, 1, marked, "a two-node loop needs exactly one broken edge")
}
