package codegen

import (
	"sort"

	"github.com/protoforge/protoforge/internal/compiler/descriptor"
)

// enum renders an enum as an int32-backed named-constant type. Aliased
// numeric values are all preserved as constants; the first declared
// name for each number is canonical and drives the reverse name map.
func (e *emitter) enum(en *descriptor.Enum) string {
	g := &generator{}
	name := declName(en.File.Package, en.FQN)

	e.typeHeader(g, en.Comment, en.FQN)
	g.writeLine("type %s int32", name)
	g.writeLine("")
	g.writeLine("const (")
	g.indent++
	for _, v := range en.Values {
		if e.comments() && v.Comment != "" {
			g.writeComment(v.Comment)
		}
		g.writeLine("%s_%s %s = %d", name, v.Name, name, v.Number)
	}
	g.indent--
	g.writeLine(")")
	g.writeLine("")

	canonical := make(map[int32]string)
	var numbers []int32
	for _, v := range en.Values {
		if _, ok := canonical[v.Number]; !ok {
			canonical[v.Number] = v.Name
			numbers = append(numbers, v.Number)
		}
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })

	g.writeLine("// Enum value maps for %s.", name)
	g.writeLine("var (")
	g.indent++
	g.writeLine("%s_name = map[int32]string{", name)
	g.indent++
	for _, n := range numbers {
		g.writeLine("%d: %q,", n, canonical[n])
	}
	g.indent--
	g.writeLine("}")
	g.writeLine("%s_value = map[string]int32{", name)
	g.indent++
	for _, v := range en.Values {
		g.writeLine("%q: %d,", v.Name, v.Number)
	}
	g.indent--
	g.writeLine("}")
	g.indent--
	g.writeLine(")")
	g.writeLine("")

	g.writeLine("// String returns the canonical declared name for the value, or the")
	g.writeLine("// raw number for values unknown to this schema revision.")
	g.writeLine("func (x %s) String() string {", name)
	g.indent++
	g.writeLine("if s, ok := %s_name[int32(x)]; ok {", name)
	g.indent++
	g.writeLine("return s")
	g.indent--
	g.writeLine("}")
	g.writeLine("return %q + strconv.FormatInt(int64(x), 10) + %q", name+"(", ")")
	g.indent--
	g.writeLine("}")
	return g.String()
}

// enumImports are the imports every rendered enum needs: the String
// method formats unknown values with strconv.
var enumImports = []Import{{Path: "strconv"}}
