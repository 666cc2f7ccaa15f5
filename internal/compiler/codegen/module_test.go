package codegen

import (
	"strings"
	"testing"

	"github.com/protoforge/protoforge/internal/compiler/descriptor"
	"github.com/protoforge/protoforge/internal/compiler/options"
)

// nestedFile declares package deep with a message holding one nested
// message and one nested enum, plus a file-level enum.
func nestedFile() *descriptor.File {
	inner := &descriptor.Message{
		Name:   "Inner",
		Fields: []*descriptor.Field{{Name: "label", Number: 1, Scalar: descriptor.ScalarString}},
	}
	kind := &descriptor.Enum{
		Name:   "Kind",
		Values: []*descriptor.EnumValue{{Name: "KIND_UNKNOWN", Number: 0}},
	}
	outer := &descriptor.Message{
		Name:     "Outer",
		Fields:   []*descriptor.Field{{Name: "inner", Number: 1, TypeRef: ".deep.Outer.Inner"}},
		Messages: []*descriptor.Message{inner},
		Enums:    []*descriptor.Enum{kind},
	}
	standalone := &descriptor.Enum{
		Name:   "Standalone",
		Values: []*descriptor.EnumValue{{Name: "STANDALONE_UNKNOWN", Number: 0}},
	}
	return &descriptor.File{
		Name:     "deep.proto",
		Package:  "deep",
		Messages: []*descriptor.Message{outer},
		Enums:    []*descriptor.Enum{standalone},
	}
}

func TestPackageTreeOrdering(t *testing.T) {
	tree := newPackageTree()
	for _, pkg := range []string{"b.inner", "a", "b", "a.deep.most", ""} {
		tree.insert(pkg)
	}

	got := tree.ordered()
	want := []string{"", "a", "a.deep.most", "b", "b.inner"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestPackageTreeSkipsAbsentIntermediates(t *testing.T) {
	tree := newPackageTree()
	tree.insert("a.b.c")

	got := tree.ordered()
	if len(got) != 1 || got[0] != "a.b.c" {
		t.Fatalf("intermediate packages without files must not emit units: %v", got)
	}
}

func TestOutputUnitSource(t *testing.T) {
	u := &OutputUnit{
		Package: "shapes",
		GoName:  "shapes",
		Path:    "shapes",
		Fragments: []string{
			"type Tree struct {\n}\n",
		},
		Imports: []Import{
			{Path: "google.golang.org/protobuf/types/known/anypb"},
			{Path: "time"},
			{Alias: "paint_deep", Path: "example.com/gen/paint/deep"},
		},
	}

	src := u.Source()

	if !strings.HasPrefix(src, "// Code generated by protoforge. DO NOT EDIT.\n") {
		t.Errorf("missing generated-code header:\n%s", src)
	}
	if !strings.Contains(src, "package shapes\n") {
		t.Errorf("missing package clause:\n%s", src)
	}

	// Stdlib imports are grouped before external ones.
	timeAt := strings.Index(src, `"time"`)
	anypbAt := strings.Index(src, `"google.golang.org/protobuf/types/known/anypb"`)
	if timeAt < 0 || anypbAt < 0 || timeAt > anypbAt {
		t.Errorf("import grouping wrong:\n%s", src)
	}
	if !strings.Contains(src, `paint_deep "example.com/gen/paint/deep"`) {
		t.Errorf("aliased import missing:\n%s", src)
	}
	if !strings.Contains(src, "type Tree struct {") {
		t.Errorf("fragment missing:\n%s", src)
	}
}

func TestOutputUnitSourceOmitsRedundantAlias(t *testing.T) {
	u := &OutputUnit{
		GoName:  "pb",
		Imports: []Import{{Alias: "anypb", Path: "google.golang.org/protobuf/types/known/anypb"}},
	}
	src := u.Source()
	if strings.Contains(src, `anypb "google`) {
		t.Errorf("alias equal to path base must be omitted:\n%s", src)
	}
}

func TestDedupeImports(t *testing.T) {
	got := dedupeImports([]Import{
		{Path: "time"},
		{Path: "strconv"},
		{Path: "time"},
		{Alias: "x", Path: "example.com/x"},
		{Alias: "x", Path: "example.com/x"},
	})
	if len(got) != 3 {
		t.Fatalf("got %v", got)
	}
	// Sorted by path.
	if got[0].Path != "example.com/x" || got[1].Path != "strconv" || got[2].Path != "time" {
		t.Errorf("order wrong: %v", got)
	}
}

func TestBuildHoistsNestedDeclarations(t *testing.T) {
	idx, res := fixture(t, nestedFile())
	units, err := Build(idx, res, &options.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(units) != 1 {
		t.Fatalf("want one unit, got %d", len(units))
	}

	src := units[0].Source()
	order := []string{
		"type Outer struct {",
		"type Outer_Inner struct {",
		"type Outer_Kind int32",
		"type Standalone int32",
	}
	last := -1
	for _, decl := range order {
		at := strings.Index(src, decl)
		if at < 0 {
			t.Fatalf("missing %q in:\n%s", decl, src)
		}
		if at < last {
			t.Errorf("%q out of order:\n%s", decl, src)
		}
		last = at
	}
}

func TestBuildSkipsExternTypes(t *testing.T) {
	idx, res := fixture(t, nestedFile())
	opts := &options.Options{ExternPaths: []options.ExternPath{
		{Prefix: "deep.Outer", ImportPath: "example.com/outer"},
	}}
	units, err := Build(idx, res, opts)
	if err != nil {
		t.Fatal(err)
	}

	src := units[0].Source()
	if strings.Contains(src, "type Outer") {
		t.Errorf("extern-redirected declarations must be skipped:\n%s", src)
	}
	if !strings.Contains(src, "type Standalone int32") {
		t.Errorf("unrelated declarations must survive:\n%s", src)
	}
}
