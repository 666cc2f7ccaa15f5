package codegen

import (
	"strings"

	"github.com/protoforge/protoforge/internal/compiler/descriptor"
	"github.com/protoforge/protoforge/internal/compiler/options"
	"github.com/protoforge/protoforge/internal/compiler/resolve"
)

// Import is one Go import required by a mapped type expression.
type Import struct {
	Alias string
	Path  string
}

// TypeExpr is a mapped Go type expression plus the imports it needs.
type TypeExpr struct {
	Expr    string
	Imports []Import
}

func (t TypeExpr) withImports(more ...Import) TypeExpr {
	t.Imports = append(t.Imports, more...)
	return t
}

// Mapper maps resolved field shapes to Go type expressions for one
// consuming package. Mapping is a pure function of frozen state, so a
// single Mapper may serve many goroutines concurrently.
type Mapper struct {
	res  *resolve.Resolver
	opts *options.Options

	// pkg is the schema package the mapped expressions are emitted
	// into; types from other packages are import-qualified.
	pkg string

	// base is the import path prefix for generated packages.
	base string
}

// NewMapper creates a mapper emitting into the given schema package.
func NewMapper(res *resolve.Resolver, opts *options.Options, pkg, base string) *Mapper {
	return &Mapper{res: res, opts: opts, pkg: pkg, base: base}
}

// wellKnown maps standard interchange types to Go equivalents. Extern
// path rules take precedence over this table.
var wellKnown = map[string]TypeExpr{
	"google.protobuf.Timestamp": {Expr: "time.Time", Imports: []Import{{Path: "time"}}},
	"google.protobuf.Duration":  {Expr: "time.Duration", Imports: []Import{{Path: "time"}}},
	"google.protobuf.Any":       {Expr: "anypb.Any", Imports: []Import{{Path: "google.golang.org/protobuf/types/known/anypb"}}},
	"google.protobuf.Struct":    {Expr: "map[string]any"},
	"google.protobuf.Value":     {Expr: "any"},
	"google.protobuf.ListValue": {Expr: "[]any"},
	"google.protobuf.Empty":     {Expr: "struct{}"},

	"google.protobuf.DoubleValue": {Expr: "*float64"},
	"google.protobuf.FloatValue":  {Expr: "*float32"},
	"google.protobuf.Int64Value":  {Expr: "*int64"},
	"google.protobuf.UInt64Value": {Expr: "*uint64"},
	"google.protobuf.Int32Value":  {Expr: "*int32"},
	"google.protobuf.UInt32Value": {Expr: "*uint32"},
	"google.protobuf.BoolValue":   {Expr: "*bool"},
	"google.protobuf.StringValue": {Expr: "*string"},
	"google.protobuf.BytesValue":  {Expr: "[]byte"},
}

// scalarExpr maps a scalar kind to its Go type. The bytes
// representation is configurable: an owned growable []byte by default,
// or an immutable shared string.
func (mp *Mapper) scalarExpr(k descriptor.ScalarKind) string {
	switch k {
	case descriptor.ScalarDouble:
		return "float64"
	case descriptor.ScalarFloat:
		return "float32"
	case descriptor.ScalarInt32, descriptor.ScalarSint32, descriptor.ScalarSfixed32:
		return "int32"
	case descriptor.ScalarInt64, descriptor.ScalarSint64, descriptor.ScalarSfixed64:
		return "int64"
	case descriptor.ScalarUint32, descriptor.ScalarFixed32:
		return "uint32"
	case descriptor.ScalarUint64, descriptor.ScalarFixed64:
		return "uint64"
	case descriptor.ScalarBool:
		return "bool"
	case descriptor.ScalarString:
		return "string"
	case descriptor.ScalarBytes:
		if mp.opts.BytesAsString {
			return "string"
		}
		return "[]byte"
	default:
		return "any"
	}
}

// FieldType maps a field to its full Go type expression, applying
// cardinality, explicit presence, and indirection on top of the shape
// mapping.
func (mp *Mapper) FieldType(m *descriptor.Message, field *descriptor.Field) (TypeExpr, error) {
	t, err := mp.res.FieldType(m, field)
	if err != nil {
		return TypeExpr{}, err
	}

	switch field.Cardinality {
	case descriptor.Map:
		return mp.mapExpr(t)
	case descriptor.Repeated:
		// Repeated elements are never boxed: the slice is already an
		// indirect container.
		elem, err := mp.typeExpr(t)
		if err == nil {
			elem.Expr = "[]" + elem.Expr
		}
		return elem, err
	}
	return mp.singularExpr(t, field)
}

// mapExpr maps a map shape to map[K]V. The value is never wrapped for
// indirection: the container is already heap-indirect.
func (mp *Mapper) mapExpr(t *resolve.Type) (TypeExpr, error) {
	key := mp.scalarExpr(t.Key.Scalar)
	value, err := mp.typeExpr(t.Value)
	if err != nil {
		return TypeExpr{}, err
	}
	value.Expr = "map[" + key + "]" + value.Expr
	return value, nil
}

func (mp *Mapper) singularExpr(t *resolve.Type, field *descriptor.Field) (TypeExpr, error) {
	expr, err := mp.typeExpr(t)
	if err != nil {
		return TypeExpr{}, err
	}
	switch {
	case t.Kind == resolve.KindMessage && field.NeedsIndirection:
		// The cycle breaker chose this field for indirect storage.
		expr.Expr = pointerTo(expr.Expr)
	case field.Presence:
		// Explicit presence maps to a nullable wrapper; container-like
		// expressions are already nullable.
		expr.Expr = pointerTo(expr.Expr)
	}
	return expr, nil
}

// typeExpr maps a resolved shape without cardinality. The mapping table
// is applied in order: extern-path override, well-known types, then the
// scalar/enum/message cases.
func (mp *Mapper) typeExpr(t *resolve.Type) (TypeExpr, error) {
	switch t.Kind {
	case resolve.KindScalar:
		return TypeExpr{Expr: mp.scalarExpr(t.Scalar)}, nil
	case resolve.KindMap:
		return mp.mapExpr(t)
	case resolve.KindEnum:
		return mp.named(t.Enum.FQN, t.Enum.File.Package), nil
	case resolve.KindMessage:
		return mp.named(t.Message.FQN, t.Message.File.Package), nil
	}
	return TypeExpr{}, nil
}

// named maps a reference to a declared type: extern redirection first,
// then the well-known table, then a local or cross-package reference to
// the generated declaration.
func (mp *Mapper) named(fqn, declPkg string) TypeExpr {
	if rule, ok := mp.opts.MatchExtern(fqn); ok {
		// An exact prefix match redirects the name itself; its local
		// name is relative to the prefix's parent.
		prefix := rule.Prefix
		if prefix == fqn {
			if i := strings.LastIndexByte(prefix, '.'); i >= 0 {
				prefix = prefix[:i]
			} else {
				prefix = ""
			}
		}
		name := declName(prefix, fqn)
		return TypeExpr{
			Expr:    rule.PackageName() + "." + name,
			Imports: []Import{{Path: rule.ImportPath}},
		}
	}
	if expr, ok := wellKnown[fqn]; ok {
		return expr
	}
	name := declName(declPkg, fqn)
	if declPkg == mp.pkg {
		return TypeExpr{Expr: name}
	}
	alias := packageAlias(declPkg)
	path := packagePath(declPkg)
	if mp.base != "" {
		path = mp.base + "/" + path
	}
	return TypeExpr{
		Expr:    alias + "." + name,
		Imports: []Import{{Alias: alias, Path: path}},
	}
}

// Extern reports whether a declared type is redirected to an external
// package, in which case no local declaration is generated for it.
func (mp *Mapper) Extern(fqn string) bool {
	if _, ok := mp.opts.MatchExtern(fqn); ok {
		return true
	}
	_, ok := wellKnown[fqn]
	return ok
}

// pointerTo wraps an expression in a pointer unless it is already
// nullable: an existing pointer, a slice, or a map.
func pointerTo(expr string) string {
	if expr == "" || expr[0] == '*' || expr[0] == '[' || strings.HasPrefix(expr, "map[") {
		return expr
	}
	return "*" + expr
}
