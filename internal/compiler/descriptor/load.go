package descriptor

import (
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Load parses a serialized FileDescriptorSet, as produced by
// `protoc --descriptor_set_out`, and lowers it into a Set.
func Load(data []byte) (*Set, error) {
	var fds descriptorpb.FileDescriptorSet
	if err := proto.Unmarshal(data, &fds); err != nil {
		return nil, fmt.Errorf("failed to parse descriptor set: %w", err)
	}
	return FromProto(&fds), nil
}

// FromProto lowers a parsed FileDescriptorSet into the in-memory model.
// Synthetic map-entry messages are folded back into map-shaped fields,
// and synthetic oneofs backing proto3 optional fields are dropped.
func FromProto(fds *descriptorpb.FileDescriptorSet) *Set {
	set := &Set{Files: make([]*File, 0, len(fds.GetFile()))}
	for _, fdp := range fds.GetFile() {
		set.Files = append(set.Files, lowerFile(fdp))
	}
	return set
}

// lowering walks one FileDescriptorProto, carrying the comment table
// extracted from its source code info.
type lowering struct {
	file     *File
	comments map[string]string
}

func lowerFile(fdp *descriptorpb.FileDescriptorProto) *File {
	f := &File{
		Name:    fdp.GetName(),
		Package: fdp.GetPackage(),
		Syntax:  fdp.GetSyntax(),
		Imports: fdp.GetDependency(),
	}
	if f.Syntax == "" {
		f.Syntax = "proto2"
	}
	for _, p := range fdp.GetPublicDependency() {
		f.PublicImports = append(f.PublicImports, int(p))
	}

	l := &lowering{file: f, comments: commentTable(fdp.GetSourceCodeInfo())}

	prefix := f.Package
	for i, mdp := range fdp.GetMessageType() {
		f.Messages = append(f.Messages, l.lowerMessage(mdp, prefix, nil, commentPath(4, i)))
	}
	for i, edp := range fdp.GetEnumType() {
		f.Enums = append(f.Enums, l.lowerEnum(edp, commentPath(5, i)))
	}
	for i, sdp := range fdp.GetService() {
		f.Services = append(f.Services, l.lowerService(sdp, commentPath(6, i)))
	}
	return f
}

func (l *lowering) lowerMessage(mdp *descriptorpb.DescriptorProto, prefix string, parent *Message, path string) *Message {
	m := &Message{
		Name:    mdp.GetName(),
		Parent:  parent,
		Comment: l.comments[path],
	}
	fqn := mdp.GetName()
	if prefix != "" {
		fqn = prefix + "." + mdp.GetName()
	}

	// Map-entry nested messages are synthetic: remember their
	// descriptors under their fully-qualified names and do not lower
	// them as declarations.
	entries := make(map[string]*descriptorpb.DescriptorProto)
	for _, ndp := range mdp.GetNestedType() {
		if ndp.GetOptions().GetMapEntry() {
			entries[fqn+"."+ndp.GetName()] = ndp
		}
	}

	// Oneofs backing proto3 optional fields are synthetic too; collect
	// the declared ones and attach member fields as they are lowered.
	oneofs := make([]*OneOf, len(mdp.GetOneofDecl()))
	for i, odp := range mdp.GetOneofDecl() {
		oneofs[i] = &OneOf{
			Name:    odp.GetName(),
			Comment: l.comments[path+commentPath(8, i)],
		}
	}

	for i, fdp := range mdp.GetField() {
		field := l.lowerField(fdp, entries, path+commentPath(2, i))
		if fdp.OneofIndex != nil && !fdp.GetProto3Optional() {
			oneofs[fdp.GetOneofIndex()].Fields = append(oneofs[fdp.GetOneofIndex()].Fields, field)
		} else {
			m.Fields = append(m.Fields, field)
		}
	}
	for _, o := range oneofs {
		if len(o.Fields) > 0 {
			m.OneOfs = append(m.OneOfs, o)
		}
	}

	for i, ndp := range mdp.GetNestedType() {
		if ndp.GetOptions().GetMapEntry() {
			continue
		}
		m.Messages = append(m.Messages, l.lowerMessage(ndp, fqn, m, path+commentPath(3, i)))
	}
	for i, edp := range mdp.GetEnumType() {
		e := l.lowerEnum(edp, path+commentPath(4, i))
		e.Parent = m
		m.Enums = append(m.Enums, e)
	}
	return m
}

// lowerField converts one field descriptor, folding map-entry
// references back into a map shape.
func (l *lowering) lowerField(fdp *descriptorpb.FieldDescriptorProto, entries map[string]*descriptorpb.DescriptorProto, path string) *Field {
	f := &Field{
		Name:    fdp.GetName(),
		Number:  fdp.GetNumber(),
		Comment: l.comments[path],
	}

	switch fdp.GetLabel() {
	case descriptorpb.FieldDescriptorProto_LABEL_REPEATED:
		f.Cardinality = Repeated
	default:
		f.Cardinality = Singular
	}
	f.Presence = fdp.GetProto3Optional() ||
		(l.file.Syntax == "proto2" && fdp.GetLabel() == descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL)

	if entry, ok := entries[strings.TrimPrefix(fdp.GetTypeName(), ".")]; ok {
		f.Cardinality = Map
		key, value := entry.GetField()[0], entry.GetField()[1]
		f.MapKey = scalarKind(key.GetType())
		if ref := value.GetTypeName(); ref != "" {
			f.MapValueRef = ref
		} else {
			f.MapValueScalar = scalarKind(value.GetType())
		}
		return f
	}

	if ref := fdp.GetTypeName(); ref != "" {
		f.TypeRef = ref
	} else {
		f.Scalar = scalarKind(fdp.GetType())
	}
	return f
}

func (l *lowering) lowerEnum(edp *descriptorpb.EnumDescriptorProto, path string) *Enum {
	e := &Enum{
		Name:    edp.GetName(),
		Comment: l.comments[path],
	}
	for i, vdp := range edp.GetValue() {
		e.Values = append(e.Values, &EnumValue{
			Name:    vdp.GetName(),
			Number:  vdp.GetNumber(),
			Comment: l.comments[path+commentPath(2, i)],
		})
	}
	return e
}

func (l *lowering) lowerService(sdp *descriptorpb.ServiceDescriptorProto, path string) *Service {
	s := &Service{
		Name:    sdp.GetName(),
		Comment: l.comments[path],
	}
	for i, mdp := range sdp.GetMethod() {
		s.Methods = append(s.Methods, &Method{
			Name:            mdp.GetName(),
			InputRef:        mdp.GetInputType(),
			OutputRef:       mdp.GetOutputType(),
			ClientStreaming: mdp.GetClientStreaming(),
			ServerStreaming: mdp.GetServerStreaming(),
			Comment:         l.comments[path+commentPath(2, i)],
		})
	}
	return s
}

func scalarKind(t descriptorpb.FieldDescriptorProto_Type) ScalarKind {
	switch t {
	case descriptorpb.FieldDescriptorProto_TYPE_DOUBLE:
		return ScalarDouble
	case descriptorpb.FieldDescriptorProto_TYPE_FLOAT:
		return ScalarFloat
	case descriptorpb.FieldDescriptorProto_TYPE_INT32:
		return ScalarInt32
	case descriptorpb.FieldDescriptorProto_TYPE_INT64:
		return ScalarInt64
	case descriptorpb.FieldDescriptorProto_TYPE_UINT32:
		return ScalarUint32
	case descriptorpb.FieldDescriptorProto_TYPE_UINT64:
		return ScalarUint64
	case descriptorpb.FieldDescriptorProto_TYPE_SINT32:
		return ScalarSint32
	case descriptorpb.FieldDescriptorProto_TYPE_SINT64:
		return ScalarSint64
	case descriptorpb.FieldDescriptorProto_TYPE_FIXED32:
		return ScalarFixed32
	case descriptorpb.FieldDescriptorProto_TYPE_FIXED64:
		return ScalarFixed64
	case descriptorpb.FieldDescriptorProto_TYPE_SFIXED32:
		return ScalarSfixed32
	case descriptorpb.FieldDescriptorProto_TYPE_SFIXED64:
		return ScalarSfixed64
	case descriptorpb.FieldDescriptorProto_TYPE_BOOL:
		return ScalarBool
	case descriptorpb.FieldDescriptorProto_TYPE_STRING:
		return ScalarString
	case descriptorpb.FieldDescriptorProto_TYPE_BYTES:
		return ScalarBytes
	default:
		return ScalarNone
	}
}

// commentTable flattens source code info into a path-keyed table of
// leading comments.
func commentTable(info *descriptorpb.SourceCodeInfo) map[string]string {
	table := make(map[string]string)
	for _, loc := range info.GetLocation() {
		comment := strings.TrimSpace(loc.GetLeadingComments())
		if comment == "" {
			continue
		}
		var sb strings.Builder
		for _, p := range loc.GetPath() {
			sb.WriteByte('/')
			sb.WriteString(strconv.Itoa(int(p)))
		}
		table[sb.String()] = comment
	}
	return table
}

func commentPath(kind, index int) string {
	return "/" + strconv.Itoa(kind) + "/" + strconv.Itoa(index)
}
