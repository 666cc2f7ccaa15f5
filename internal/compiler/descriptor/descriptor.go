// Package descriptor defines the in-memory model of a compiled schema:
// files, messages, enums, services, and their fields. It is lowered once
// from a serialized FileDescriptorSet and treated as read-only by every
// pipeline stage except the cycle breaker, which flips the
// NeedsIndirection flag on fields.
package descriptor

// ScalarKind identifies a protobuf scalar type.
type ScalarKind int

const (
	ScalarNone ScalarKind = iota
	ScalarDouble
	ScalarFloat
	ScalarInt32
	ScalarInt64
	ScalarUint32
	ScalarUint64
	ScalarSint32
	ScalarSint64
	ScalarFixed32
	ScalarFixed64
	ScalarSfixed32
	ScalarSfixed64
	ScalarBool
	ScalarString
	ScalarBytes
)

// String returns the protobuf keyword for the scalar kind.
func (k ScalarKind) String() string {
	switch k {
	case ScalarDouble:
		return "double"
	case ScalarFloat:
		return "float"
	case ScalarInt32:
		return "int32"
	case ScalarInt64:
		return "int64"
	case ScalarUint32:
		return "uint32"
	case ScalarUint64:
		return "uint64"
	case ScalarSint32:
		return "sint32"
	case ScalarSint64:
		return "sint64"
	case ScalarFixed32:
		return "fixed32"
	case ScalarFixed64:
		return "fixed64"
	case ScalarSfixed32:
		return "sfixed32"
	case ScalarSfixed64:
		return "sfixed64"
	case ScalarBool:
		return "bool"
	case ScalarString:
		return "string"
	case ScalarBytes:
		return "bytes"
	default:
		return "none"
	}
}

// ValidMapKey reports whether the kind may be used as a map key.
// The IDL restricts keys to integral scalars, bool, and string.
func (k ScalarKind) ValidMapKey() bool {
	switch k {
	case ScalarInt32, ScalarInt64, ScalarUint32, ScalarUint64,
		ScalarSint32, ScalarSint64, ScalarFixed32, ScalarFixed64,
		ScalarSfixed32, ScalarSfixed64, ScalarBool, ScalarString:
		return true
	}
	return false
}

// Cardinality describes how many values a field holds.
type Cardinality int

const (
	Singular Cardinality = iota
	Repeated
	Map
)

func (c Cardinality) String() string {
	switch c {
	case Repeated:
		return "repeated"
	case Map:
		return "map"
	default:
		return "singular"
	}
}

// Set is one compilation's worth of schema files, in descriptor-set order.
type Set struct {
	Files []*File
}

// File is a single schema unit.
type File struct {
	// Name is the path of the file as recorded in the descriptor set,
	// e.g. "shapes/tree.proto".
	Name    string
	Package string
	Syntax  string

	// Imports holds the names of directly imported files.
	// PublicImports lists indices into Imports that are re-exported.
	Imports       []string
	PublicImports []int

	Messages []*Message
	Enums    []*Enum
	Services []*Service
}

// IsPublicImport reports whether the import at index i is re-exported.
func (f *File) IsPublicImport(i int) bool {
	for _, p := range f.PublicImports {
		if p == i {
			return true
		}
	}
	return false
}

// Message is an aggregate type declaration. FQN, File, and Parent are
// populated by the index stage; Name is the local declared name.
type Message struct {
	Name   string
	FQN    string
	File   *File
	Parent *Message

	Fields   []*Field
	OneOfs   []*OneOf
	Messages []*Message
	Enums    []*Enum

	Comment string
}

// Field is one declared field of a message. A field belongs either to
// its message directly or to exactly one of its message's oneofs.
type Field struct {
	Name        string
	Number      int32
	Cardinality Cardinality

	// Scalar is set for scalar-shaped fields; TypeRef carries the raw
	// reference text for enum/message-shaped fields. Exactly one of the
	// two is meaningful.
	Scalar  ScalarKind
	TypeRef string

	// Map key/value shapes, meaningful only when Cardinality == Map.
	MapKey         ScalarKind
	MapValueScalar ScalarKind
	MapValueRef    string

	// Presence marks explicit field presence (proto2 optional or
	// proto3 `optional`).
	Presence bool

	// NeedsIndirection is set by the cycle breaker when the field must
	// be stored behind a pointer to keep the generated type finite.
	NeedsIndirection bool

	Comment string
}

// IsScalar reports whether the field's own shape is a scalar.
func (f *Field) IsScalar() bool {
	return f.Cardinality != Map && f.TypeRef == ""
}

// OneOf is a group of mutually exclusive member fields.
type OneOf struct {
	Name   string
	Fields []*Field

	Comment string
}

// Enum is a named integer type declaration.
type Enum struct {
	Name   string
	FQN    string
	File   *File
	Parent *Message

	Values []*EnumValue

	Comment string
}

// EnumValue is one declared enum constant. Duplicate numbers across
// names are legal; the first declared name for a number is canonical.
type EnumValue struct {
	Name   string
	Number int32

	Comment string
}

// Service is a named group of RPC methods.
type Service struct {
	Name string
	FQN  string
	File *File

	Methods []*Method

	Comment string
}

// Method is one RPC signature. InputRef and OutputRef are raw type
// references resolved against the service's file scope.
type Method struct {
	Name            string
	InputRef        string
	OutputRef       string
	ClientStreaming bool
	ServerStreaming bool

	Comment string
}
