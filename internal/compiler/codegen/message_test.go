package codegen

import (
	"strings"
	"testing"

	"github.com/protoforge/protoforge/internal/compiler/descriptor"
	"github.com/protoforge/protoforge/internal/compiler/options"
)

func TestMessageRendering(t *testing.T) {
	tree := &descriptor.Message{
		Name:    "Tree",
		Comment: "Tree is a binary tree.",
		Fields: []*descriptor.Field{
			{Name: "left", Number: 1, TypeRef: ".shapes.Tree", NeedsIndirection: true, Comment: "left child"},
			{Name: "value", Number: 2, Scalar: descriptor.ScalarInt32},
		},
	}
	_, res := fixture(t, &descriptor.File{
		Name: "shapes.proto", Package: "shapes", Messages: []*descriptor.Message{tree},
	})
	e := &emitter{mp: NewMapper(res, &options.Options{}, "shapes", ""), opts: &options.Options{}}

	src, _, err := e.message(tree)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"// Tree is a binary tree.",
		"type Tree struct {",
		"// left child",
		"Left *Tree `json:\"left,omitempty\"`",
		"Value int32 `json:\"value\"`",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("missing %q in:\n%s", want, src)
		}
	}
}

func TestMessageCommentsStripped(t *testing.T) {
	m := &descriptor.Message{
		Name:    "Plain",
		Comment: "secret commentary",
		Fields:  []*descriptor.Field{{Name: "v", Number: 1, Scalar: descriptor.ScalarBool, Comment: "also secret"}},
	}
	_, res := fixture(t, &descriptor.File{
		Name: "p.proto", Package: "p", Messages: []*descriptor.Message{m},
	})
	opts := &options.Options{Comments: options.CommentsStrip}
	e := &emitter{mp: NewMapper(res, opts, "p", ""), opts: opts}

	src, _, err := e.message(m)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(src, "secret") {
		t.Errorf("comments leaked into stripped output:\n%s", src)
	}
}

func TestMessageOneofRendering(t *testing.T) {
	node := &descriptor.Message{
		Name: "Node",
		OneOfs: []*descriptor.OneOf{{
			Name: "kind",
			Fields: []*descriptor.Field{
				{Name: "child", Number: 1, TypeRef: ".shapes.Node", NeedsIndirection: true},
				{Name: "leaf_value", Number: 2, Scalar: descriptor.ScalarInt32},
			},
		}},
	}
	_, res := fixture(t, &descriptor.File{
		Name: "shapes.proto", Package: "shapes", Messages: []*descriptor.Message{node},
	})
	e := &emitter{mp: NewMapper(res, &options.Options{}, "shapes", ""), opts: &options.Options{}}

	src, _, err := e.message(node)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"Kind isNode_Kind `json:\"-\"`",
		"type isNode_Kind interface {",
		"isNode_Kind()",
		"type Node_Child struct {",
		"Child *Node `json:\"child,omitempty\"`",
		"func (*Node_Child) isNode_Kind() {}",
		"type Node_LeafValue struct {",
		"LeafValue int32 `json:\"leaf_value\"`",
		"func (*Node_LeafValue) isNode_Kind() {}",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("missing %q in:\n%s", want, src)
		}
	}
}

func TestMessageAttributeInjection(t *testing.T) {
	m := &descriptor.Message{
		Name:   "Tagged",
		Fields: []*descriptor.Field{{Name: "value", Number: 1, Scalar: descriptor.ScalarString}},
	}
	_, res := fixture(t, &descriptor.File{
		Name: "t.proto", Package: "t", Messages: []*descriptor.Message{m},
	})
	opts := &options.Options{
		TypeAttributes:  []options.Attribute{{Path: "t.Tagged", Value: "//custom:directive"}},
		FieldAttributes: []options.Attribute{{Path: "t.Tagged.value", Value: `yaml:"value"`}},
	}
	e := &emitter{mp: NewMapper(res, opts, "t", ""), opts: opts}

	src, _, err := e.message(m)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(src, "//custom:directive\ntype Tagged struct {") {
		t.Errorf("type attribute not emitted above declaration:\n%s", src)
	}
	if !strings.Contains(src, "`json:\"value\" yaml:\"value\"`") {
		t.Errorf("field attribute not merged into tag:\n%s", src)
	}
}

func TestNestedMessageUsesHoistedName(t *testing.T) {
	meta := &descriptor.Message{Name: "Meta"}
	tree := &descriptor.Message{
		Name:     "Tree",
		Fields:   []*descriptor.Field{{Name: "meta", Number: 1, TypeRef: ".shapes.Tree.Meta"}},
		Messages: []*descriptor.Message{meta},
	}
	_, res := fixture(t, &descriptor.File{
		Name: "shapes.proto", Package: "shapes", Messages: []*descriptor.Message{tree},
	})
	e := &emitter{mp: NewMapper(res, &options.Options{}, "shapes", ""), opts: &options.Options{}}

	src, _, err := e.message(tree)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(src, "Meta Tree_Meta `json:\"meta\"`") {
		t.Errorf("nested reference must use hoisted name:\n%s", src)
	}

	nested, _, err := e.message(meta)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(nested, "type Tree_Meta struct {") {
		t.Errorf("hoisted declaration name wrong:\n%s", nested)
	}
}
