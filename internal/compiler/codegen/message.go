package codegen

import (
	"strings"

	"github.com/protoforge/protoforge/internal/compiler/descriptor"
	"github.com/protoforge/protoforge/internal/compiler/options"
)

// emitter renders declarations for one schema package.
type emitter struct {
	mp   *Mapper
	opts *options.Options
}

// message renders a single message as a named struct, plus one tagged
// union (interface + variant wrappers) per oneof. Nested declarations
// are not rendered here; the module builder hoists them to the package
// level itself.
func (e *emitter) message(m *descriptor.Message) (string, []Import, error) {
	g := &generator{}
	var imports []Import
	name := declName(m.File.Package, m.FQN)

	e.typeHeader(g, m.Comment, m.FQN)
	g.writeLine("type %s struct {", name)
	g.indent++
	for _, field := range m.Fields {
		expr, err := e.mp.FieldType(m, field)
		if err != nil {
			return "", nil, err
		}
		imports = append(imports, expr.Imports...)
		e.structField(g, m, field, expr)
	}
	for _, o := range m.OneOfs {
		if e.comments() && o.Comment != "" {
			g.writeComment(o.Comment)
		}
		g.writeLine("%s %s %s", goName(o.Name), oneofInterface(name, o), "`json:\"-\"`")
	}
	g.indent--
	g.writeLine("}")

	for _, o := range m.OneOfs {
		g.writeLine("")
		oimp, err := e.oneof(g, m, name, o)
		if err != nil {
			return "", nil, err
		}
		imports = append(imports, oimp...)
	}
	return g.String(), imports, nil
}

// structField writes one struct field with its tags.
func (e *emitter) structField(g *generator, m *descriptor.Message, field *descriptor.Field, expr TypeExpr) {
	if e.comments() && field.Comment != "" {
		g.writeComment(field.Comment)
	}
	g.writeLine("%s %s %s", goName(field.Name), expr.Expr, e.fieldTags(m, field, expr.Expr))
}

// fieldTags builds the backtick tag literal for a field: a json tag
// plus any configured attribute fragments.
func (e *emitter) fieldTags(m *descriptor.Message, field *descriptor.Field, expr string) string {
	jsonTag := field.Name
	if nullable(expr) {
		jsonTag += ",omitempty"
	}
	tags := []string{`json:"` + jsonTag + `"`}
	tags = append(tags, options.MatchAttributes(e.opts.FieldAttributes, m.FQN+"."+field.Name)...)
	return "`" + strings.Join(tags, " ") + "`"
}

// oneof renders the tagged union for one oneof group: an interface with
// an unexported marker method and one variant wrapper per member field.
func (e *emitter) oneof(g *generator, m *descriptor.Message, msgName string, o *descriptor.OneOf) ([]Import, error) {
	var imports []Import
	iface := oneofInterface(msgName, o)

	g.writeLine("// %s is the tagged union held by %s.%s; exactly one", iface, msgName, goName(o.Name))
	g.writeLine("// variant is set at a time.")
	g.writeLine("type %s interface {", iface)
	g.indent++
	g.writeLine("%s()", iface)
	g.indent--
	g.writeLine("}")

	for _, field := range o.Fields {
		expr, err := e.mp.FieldType(m, field)
		if err != nil {
			return nil, err
		}
		imports = append(imports, expr.Imports...)

		variant := msgName + "_" + goName(field.Name)
		g.writeLine("")
		if e.comments() && field.Comment != "" {
			g.writeComment(field.Comment)
		}
		g.writeLine("type %s struct {", variant)
		g.indent++
		g.writeLine("%s %s %s", goName(field.Name), expr.Expr, e.fieldTags(m, field, expr.Expr))
		g.indent--
		g.writeLine("}")
		g.writeLine("")
		g.writeLine("func (*%s) %s() {}", variant, iface)
	}
	return imports, nil
}

// typeHeader writes configured attribute directives and the doc comment
// for a declaration.
func (e *emitter) typeHeader(g *generator, comment, fqn string) {
	for _, attr := range options.MatchAttributes(e.opts.TypeAttributes, fqn) {
		g.writeLine("%s", attr)
	}
	if e.comments() && comment != "" {
		g.writeComment(comment)
	}
}

func (e *emitter) comments() bool {
	return e.opts.Comments == options.CommentsInclude
}

func oneofInterface(msgName string, o *descriptor.OneOf) string {
	return "is" + msgName + "_" + goName(o.Name)
}

// nullable reports whether a mapped expression already carries an
// absent state: pointers, slices, and maps.
func nullable(expr string) bool {
	return expr != "" && (expr[0] == '*' || expr[0] == '[' || strings.HasPrefix(expr, "map["))
}
