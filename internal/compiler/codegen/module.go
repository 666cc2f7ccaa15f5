package codegen

import (
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/protoforge/protoforge/internal/compiler/descriptor"
	"github.com/protoforge/protoforge/internal/compiler/index"
	"github.com/protoforge/protoforge/internal/compiler/options"
	"github.com/protoforge/protoforge/internal/compiler/resolve"
)

// OutputUnit is the generated content for one schema package: its
// declaration fragments in stable order, followed by any service-hook
// fragments, plus the imports the fragments need.
type OutputUnit struct {
	// Package is the schema package the unit was grouped under.
	Package string
	// GoName is the Go package identifier of the unit.
	GoName string
	// Path is the unit's output directory relative to the output root.
	Path string

	Fragments []string
	Imports   []Import
}

// Source assembles the unit into a single Go source file.
func (u *OutputUnit) Source() string {
	var sb strings.Builder
	sb.WriteString("// Code generated by protoforge. DO NOT EDIT.\n")
	if u.Package != "" {
		sb.WriteString("// source package: " + u.Package + "\n")
	}
	sb.WriteString("\npackage " + u.GoName + "\n")

	if len(u.Imports) > 0 {
		sb.WriteString("\nimport (\n")
		stdlib, external := splitImports(u.Imports)
		for _, imp := range stdlib {
			sb.WriteString("\t" + imp + "\n")
		}
		if len(stdlib) > 0 && len(external) > 0 {
			sb.WriteString("\n")
		}
		for _, imp := range external {
			sb.WriteString("\t" + imp + "\n")
		}
		sb.WriteString(")\n")
	}

	for _, fragment := range u.Fragments {
		sb.WriteString("\n")
		sb.WriteString(fragment)
	}
	return sb.String()
}

// packageTree groups packages hierarchically by dotted-path segment.
// Only nodes some file actually declares produce output units, but
// intermediate nodes keep the emission order stable: units are emitted
// in depth-first order with children visited by sorted segment.
type packageTree struct {
	pkg      string
	children map[string]*packageTree
	present  bool
}

func newPackageTree() *packageTree {
	return &packageTree{children: make(map[string]*packageTree)}
}

func (t *packageTree) insert(pkg string) {
	node := t
	if pkg != "" {
		for _, segment := range strings.Split(pkg, ".") {
			child, ok := node.children[segment]
			if !ok {
				child = newPackageTree()
				child.pkg = join(node.pkg, segment)
				node.children[segment] = child
			}
			node = child
		}
	}
	node.present = true
}

func (t *packageTree) ordered() []string {
	var pkgs []string
	var walk func(node *packageTree)
	walk = func(node *packageTree) {
		if node.present {
			pkgs = append(pkgs, node.pkg)
		}
		segments := make([]string, 0, len(node.children))
		for segment := range node.children {
			segments = append(segments, segment)
		}
		sort.Strings(segments)
		for _, segment := range segments {
			walk(node.children[segment])
		}
	}
	walk(t)
	return pkgs
}

// declWork is one deferred declaration rendering, mapped in parallel.
type declWork func() (string, []Import, error)

// Build groups every generated declaration by owning package and
// produces one output unit per package. Nested declarations are hoisted
// to their package's flat list under their full dotted name. Within a
// unit, fragments follow descriptor-set file order and declaration
// order within each file, so repeated compilations of unchanged input
// are byte-identical.
//
// Build must only run after the cycle breaker has frozen every
// NeedsIndirection flag: declaration mapping is pure from that point
// and is fanned out across a worker pool.
func Build(idx *index.Index, res *resolve.Resolver, opts *options.Options) ([]OutputUnit, error) {
	set := idx.Set()

	tree := newPackageTree()
	for _, f := range set.Files {
		tree.insert(f.Package)
	}

	var units []OutputUnit
	for _, pkg := range tree.ordered() {
		unit, err := buildUnit(set, res, opts, pkg)
		if err != nil {
			return nil, err
		}
		units = append(units, *unit)
	}
	return units, nil
}

func buildUnit(set *descriptor.Set, res *resolve.Resolver, opts *options.Options, pkg string) (*OutputUnit, error) {
	mp := NewMapper(res, opts, pkg, opts.GoImportBase)
	e := &emitter{mp: mp, opts: opts}

	var work []declWork
	for _, f := range set.Files {
		if f.Package != pkg {
			continue
		}
		for _, m := range f.Messages {
			collectMessage(e, m, &work)
		}
		for _, en := range f.Enums {
			if !mp.Extern(en.FQN) {
				en := en
				work = append(work, func() (string, []Import, error) { return e.enum(en), enumImports, nil })
			}
		}
	}

	fragments := make([]string, len(work))
	importLists := make([][]Import, len(work))
	var g errgroup.Group
	for i, render := range work {
		i, render := i, render
		g.Go(func() error {
			fragment, imports, err := render()
			if err != nil {
				return err
			}
			fragments[i] = fragment
			importLists[i] = imports
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	unit := &OutputUnit{
		Package: pkg,
		GoName:  goPackageName(pkg),
		Path:    packagePath(pkg),
	}
	var imports []Import
	for i, fragment := range fragments {
		unit.Fragments = append(unit.Fragments, fragment)
		imports = append(imports, importLists[i]...)
	}

	// Service fragments follow all type declarations for the package.
	for _, f := range set.Files {
		if f.Package != pkg {
			continue
		}
		for _, s := range f.Services {
			fragment, simports, err := e.service(s)
			if err != nil {
				return nil, err
			}
			if fragment != "" {
				unit.Fragments = append(unit.Fragments, fragment)
				imports = append(imports, simports...)
			}
		}
	}

	unit.Imports = dedupeImports(imports)
	return unit, nil
}

// collectMessage queues a message and, pre-order, every declaration
// nested inside it. Extern-redirected types produce no declaration.
func collectMessage(e *emitter, m *descriptor.Message, work *[]declWork) {
	if !e.mp.Extern(m.FQN) {
		m := m
		*work = append(*work, func() (string, []Import, error) { return e.message(m) })
	}
	for _, nested := range m.Messages {
		collectMessage(e, nested, work)
	}
	for _, en := range m.Enums {
		if !e.mp.Extern(en.FQN) {
			en := en
			*work = append(*work, func() (string, []Import, error) { return e.enum(en), enumImports, nil })
		}
	}
}

func dedupeImports(imports []Import) []Import {
	seen := make(map[Import]bool, len(imports))
	var out []Import
	for _, imp := range imports {
		if seen[imp] {
			continue
		}
		seen[imp] = true
		out = append(out, imp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Alias < out[j].Alias
	})
	return out
}

// splitImports renders import lines grouped stdlib-first, matching
// gofmt's conventional grouping.
func splitImports(imports []Import) (stdlib, external []string) {
	for _, imp := range imports {
		line := `"` + imp.Path + `"`
		if imp.Alias != "" && imp.Alias != pathBase(imp.Path) {
			line = imp.Alias + " " + line
		}
		if strings.Contains(strings.SplitN(imp.Path, "/", 2)[0], ".") {
			external = append(external, line)
		} else {
			stdlib = append(stdlib, line)
		}
	}
	return stdlib, external
}

func pathBase(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

func join(scope, name string) string {
	if scope == "" {
		return name
	}
	return scope + "." + name
}
