package codegen

import (
	"github.com/protoforge/protoforge/internal/compiler/descriptor"
	"github.com/protoforge/protoforge/internal/compiler/options"
)

// service builds the structured description of one service and invokes
// the caller-supplied generator. The returned fragment is appended to
// the owning package's output unit after all type declarations; an
// empty fragment contributes nothing.
func (e *emitter) service(s *descriptor.Service) (string, []Import, error) {
	if e.opts.ServiceGenerator == nil {
		return "", nil, nil
	}

	desc := options.Service{
		Name:    s.Name,
		FQN:     s.FQN,
		Comment: s.Comment,
	}
	var imports []Import
	for _, m := range s.Methods {
		input, err := e.methodType(s, m.InputRef)
		if err != nil {
			return "", nil, err
		}
		output, err := e.methodType(s, m.OutputRef)
		if err != nil {
			return "", nil, err
		}
		imports = append(imports, input.Imports...)
		imports = append(imports, output.Imports...)
		desc.Methods = append(desc.Methods, options.Method{
			Name:            m.Name,
			Comment:         m.Comment,
			Input:           input.Expr,
			Output:          output.Expr,
			ClientStreaming: m.ClientStreaming,
			ServerStreaming: m.ServerStreaming,
		})
	}

	fragment, err := e.opts.ServiceGenerator(desc)
	if err != nil {
		return "", nil, err
	}
	if fragment == "" {
		return "", nil, nil
	}
	return fragment, imports, nil
}

// methodType maps a method request or response reference, resolved
// against the service's file scope.
func (e *emitter) methodType(s *descriptor.Service, ref string) (TypeExpr, error) {
	t, err := e.mp.res.TypeAt(s.File, s.File.Package, ref)
	if err != nil {
		return TypeExpr{}, err
	}
	return e.mp.typeExpr(t)
}
