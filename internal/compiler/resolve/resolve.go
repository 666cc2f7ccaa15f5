// Package resolve turns textual type references into fully-qualified
// index entries, honoring the IDL's nested-scope shadowing rules.
// Resolution is deterministic and side-effect-free; results are memoized
// per (context, reference) pair.
package resolve

import (
	"strings"

	"github.com/protoforge/protoforge/internal/compiler/descriptor"
	"github.com/protoforge/protoforge/internal/compiler/errors"
	"github.com/protoforge/protoforge/internal/compiler/index"
)

// Kind discriminates a resolved type.
type Kind int

const (
	KindScalar Kind = iota
	KindEnum
	KindMessage
	KindMap
)

// Type is the resolved shape of a field, map component, or method
// signature: a scalar kind, an enum or message handle into the index,
// or a map of two recursively resolved components.
type Type struct {
	Kind    Kind
	Scalar  descriptor.ScalarKind
	Enum    *descriptor.Enum
	Message *descriptor.Message
	Key     *Type
	Value   *Type
}

// FQN returns the fully-qualified name of a resolved enum or message,
// or the scalar keyword otherwise.
func (t *Type) FQN() string {
	switch t.Kind {
	case KindEnum:
		return t.Enum.FQN
	case KindMessage:
		return t.Message.FQN
	default:
		return t.Scalar.String()
	}
}

// Resolver resolves references against a built index.
type Resolver struct {
	idx  *index.Index
	memo map[memoKey]string
}

type memoKey struct {
	file  string
	scope string
	ref   string
}

// New creates a resolver over the given index.
func New(idx *index.Index) *Resolver {
	return &Resolver{
		idx:  idx,
		memo: make(map[memoKey]string),
	}
}

// Reference resolves a textual type reference appearing at the given
// scope (the fully-qualified name of the enclosing message, or the
// file's package for file-level references) inside file f. It returns
// the fully-qualified name of the matched declaration.
//
// Absolute references (leading '.') are looked up directly. Relative
// references search the enclosing scopes innermost-outward down to the
// package root, then the declarations of imported files. The first
// match wins.
func (r *Resolver) Reference(f *descriptor.File, scope, ref string) (string, error) {
	if strings.HasPrefix(ref, ".") {
		fqn := ref[1:]
		if r.idx.HasType(fqn) {
			return fqn, nil
		}
		return "", r.unresolved(f, scope, ref)
	}

	key := memoKey{file: f.Name, scope: scope, ref: ref}
	if fqn, ok := r.memo[key]; ok {
		return fqn, nil
	}

	fqn, ok := r.search(f, scope, ref)
	if !ok {
		return "", r.unresolved(f, scope, ref)
	}
	r.memo[key] = fqn
	return fqn, nil
}

func (r *Resolver) unresolved(f *descriptor.File, scope, ref string) error {
	err := errors.NewUnresolvedReference(ref, scopeOrFile(scope, f)).WithFile(f.Name)
	if similar := suggest(ref, r.idx.TypeNames()); len(similar) > 0 {
		err = err.WithSuggestion("did you mean " + strings.Join(similar, ", ") + "?")
	}
	return err
}

func (r *Resolver) search(f *descriptor.File, scope, ref string) (string, bool) {
	// Innermost scope outward: the referencing declaration itself, each
	// ancestor, and finally the file's package root.
	for s := scope; ; {
		if candidate := join(s, ref); r.idx.HasType(candidate) {
			return candidate, true
		}
		if s == f.Package || s == "" {
			break
		}
		// Scopes above the package root are only reachable through
		// imports, so trimming stops at f.Package.
		if i := strings.LastIndexByte(s, '.'); i >= 0 {
			s = s[:i]
		} else {
			s = ""
		}
	}

	// Imported declarations are visible under their qualified names:
	// direct imports first, then public imports re-exported by them.
	if r.idx.HasType(ref) {
		for _, imp := range r.visibleImports(f) {
			if decl, ok := r.idx.DeclaringFile(ref); ok && decl == imp {
				return ref, true
			}
		}
	}
	return "", false
}

// visibleImports returns the files whose declarations f may reference:
// its direct imports plus, transitively, their public imports. Order
// follows import declaration order for determinism.
func (r *Resolver) visibleImports(f *descriptor.File) []*descriptor.File {
	var visible []*descriptor.File
	seen := map[string]bool{f.Name: true}

	var add func(name string)
	add = func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		imp, ok := r.idx.File(name)
		if !ok {
			return
		}
		visible = append(visible, imp)
		for i, dep := range imp.Imports {
			if imp.IsPublicImport(i) {
				add(dep)
			}
		}
	}
	for _, dep := range f.Imports {
		add(dep)
	}
	return visible
}

// TypeAt resolves a reference and classifies the result as a message or
// enum handle.
func (r *Resolver) TypeAt(f *descriptor.File, scope, ref string) (*Type, error) {
	fqn, err := r.Reference(f, scope, ref)
	if err != nil {
		return nil, err
	}
	if m, ok := r.idx.Message(fqn); ok {
		return &Type{Kind: KindMessage, Message: m}, nil
	}
	e, _ := r.idx.Enum(fqn)
	return &Type{Kind: KindEnum, Enum: e}, nil
}

// FieldType resolves the full shape of a field declared in message m:
// scalar, enum, message, or map with recursively resolved components.
// Cardinality is not part of the result; the caller applies it.
func (r *Resolver) FieldType(m *descriptor.Message, field *descriptor.Field) (*Type, error) {
	if field.Cardinality == descriptor.Map {
		value, err := r.mapValue(m, field)
		if err != nil {
			return nil, err
		}
		return &Type{
			Kind:  KindMap,
			Key:   &Type{Kind: KindScalar, Scalar: field.MapKey},
			Value: value,
		}, nil
	}
	if field.TypeRef == "" {
		return &Type{Kind: KindScalar, Scalar: field.Scalar}, nil
	}
	return r.TypeAt(m.File, m.FQN, field.TypeRef)
}

func (r *Resolver) mapValue(m *descriptor.Message, field *descriptor.Field) (*Type, error) {
	if field.MapValueRef == "" {
		return &Type{Kind: KindScalar, Scalar: field.MapValueScalar}, nil
	}
	return r.TypeAt(m.File, m.FQN, field.MapValueRef)
}

// ResolveAll eagerly resolves every field, map value, and method
// signature in the set, failing fast on the first dangling reference.
// Running it up front gives later stages the guarantee that resolution
// can no longer fail.
func (r *Resolver) ResolveAll() error {
	for _, f := range r.idx.Set().Files {
		for _, m := range f.Messages {
			if err := r.resolveMessage(m); err != nil {
				return err
			}
		}
		for _, s := range f.Services {
			for _, method := range s.Methods {
				if _, err := r.Reference(f, f.Package, method.InputRef); err != nil {
					return err
				}
				if _, err := r.Reference(f, f.Package, method.OutputRef); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (r *Resolver) resolveMessage(m *descriptor.Message) error {
	for _, field := range m.Fields {
		if _, err := r.FieldType(m, field); err != nil {
			return err
		}
	}
	for _, o := range m.OneOfs {
		for _, field := range o.Fields {
			if _, err := r.FieldType(m, field); err != nil {
				return err
			}
		}
	}
	for _, nested := range m.Messages {
		if err := r.resolveMessage(nested); err != nil {
			return err
		}
	}
	return nil
}

func scopeOrFile(scope string, f *descriptor.File) string {
	if scope != "" {
		return scope
	}
	return f.Name
}

func join(scope, name string) string {
	if scope == "" {
		return name
	}
	return scope + "." + name
}
