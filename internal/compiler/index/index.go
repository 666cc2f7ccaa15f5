// Package index builds the queryable catalogue of every declared entity
// in a descriptor set, keyed by fully-qualified name. It is the first
// pipeline stage; every later stage looks types up through it.
package index

import (
	"sort"

	"github.com/protoforge/protoforge/internal/compiler/descriptor"
	"github.com/protoforge/protoforge/internal/compiler/errors"
)

// Index maps fully-qualified names to declarations and file names to
// files. It is immutable after Build returns.
type Index struct {
	set      *descriptor.Set
	files    map[string]*descriptor.File
	messages map[string]*descriptor.Message
	enums    map[string]*descriptor.Enum
	services map[string]*descriptor.Service

	// declaredIn records the owning file per fully-qualified name, for
	// duplicate reporting and import-visibility checks.
	declaredIn map[string]*descriptor.File
}

// Build catalogues every declared entity in the set, including deeply
// nested types under their full dotted path. It assigns FQN, File, and
// Parent on each declaration as it walks. Building fails with a
// duplicate-name error if two entities claim one fully-qualified name,
// and with an invalid-map-key error if a map field is keyed by a
// floating-point, bytes, or message kind.
func Build(set *descriptor.Set) (*Index, error) {
	idx := &Index{
		set:        set,
		files:      make(map[string]*descriptor.File),
		messages:   make(map[string]*descriptor.Message),
		enums:      make(map[string]*descriptor.Enum),
		services:   make(map[string]*descriptor.Service),
		declaredIn: make(map[string]*descriptor.File),
	}

	for _, f := range set.Files {
		if prev, ok := idx.files[f.Name]; ok && prev != f {
			return nil, errors.NewDuplicateName(f.Name, prev.Name, f.Name)
		}
		idx.files[f.Name] = f

		for _, m := range f.Messages {
			if err := idx.addMessage(f, nil, m); err != nil {
				return nil, err
			}
		}
		for _, e := range f.Enums {
			if err := idx.addEnum(f, nil, e); err != nil {
				return nil, err
			}
		}
		for _, s := range f.Services {
			s.FQN = join(f.Package, s.Name)
			s.File = f
			if err := idx.claim(s.FQN, f); err != nil {
				return nil, err
			}
			idx.services[s.FQN] = s
		}
	}
	return idx, nil
}

func (idx *Index) addMessage(f *descriptor.File, parent *descriptor.Message, m *descriptor.Message) error {
	scope := f.Package
	if parent != nil {
		scope = parent.FQN
	}
	m.FQN = join(scope, m.Name)
	m.File = f
	m.Parent = parent
	if err := idx.claim(m.FQN, f); err != nil {
		return err
	}
	idx.messages[m.FQN] = m

	for _, field := range allFields(m) {
		if field.Cardinality == descriptor.Map && !field.MapKey.ValidMapKey() {
			return errors.NewInvalidMapKey(m.FQN, field.Name, field.MapKey.String()).WithFile(f.Name)
		}
	}

	for _, nested := range m.Messages {
		if err := idx.addMessage(f, m, nested); err != nil {
			return err
		}
	}
	for _, e := range m.Enums {
		if err := idx.addEnum(f, m, e); err != nil {
			return err
		}
	}
	return nil
}

func (idx *Index) addEnum(f *descriptor.File, parent *descriptor.Message, e *descriptor.Enum) error {
	scope := f.Package
	if parent != nil {
		scope = parent.FQN
	}
	e.FQN = join(scope, e.Name)
	e.File = f
	e.Parent = parent
	if err := idx.claim(e.FQN, f); err != nil {
		return err
	}
	idx.enums[e.FQN] = e
	return nil
}

func (idx *Index) claim(fqn string, f *descriptor.File) error {
	if prev, ok := idx.declaredIn[fqn]; ok {
		return errors.NewDuplicateName(fqn, prev.Name, f.Name)
	}
	idx.declaredIn[fqn] = f
	return nil
}

// Set returns the descriptor set the index was built from. File order
// is preserved from the original descriptor set.
func (idx *Index) Set() *descriptor.Set { return idx.set }

// File returns the file with the given descriptor-set name.
func (idx *Index) File(name string) (*descriptor.File, bool) {
	f, ok := idx.files[name]
	return f, ok
}

// Message returns the message declared at fqn.
func (idx *Index) Message(fqn string) (*descriptor.Message, bool) {
	m, ok := idx.messages[fqn]
	return m, ok
}

// Enum returns the enum declared at fqn.
func (idx *Index) Enum(fqn string) (*descriptor.Enum, bool) {
	e, ok := idx.enums[fqn]
	return e, ok
}

// Service returns the service declared at fqn.
func (idx *Index) Service(fqn string) (*descriptor.Service, bool) {
	s, ok := idx.services[fqn]
	return s, ok
}

// HasType reports whether a message or enum is declared at fqn.
func (idx *Index) HasType(fqn string) bool {
	if _, ok := idx.messages[fqn]; ok {
		return true
	}
	_, ok := idx.enums[fqn]
	return ok
}

// DeclaringFile returns the file that declares the entity at fqn.
func (idx *Index) DeclaringFile(fqn string) (*descriptor.File, bool) {
	f, ok := idx.declaredIn[fqn]
	return f, ok
}

// Messages returns all indexed messages in no particular order.
func (idx *Index) Messages() map[string]*descriptor.Message { return idx.messages }

// TypeNames returns the fully-qualified names of every indexed message
// and enum, sorted.
func (idx *Index) TypeNames() []string {
	names := make([]string, 0, len(idx.messages)+len(idx.enums))
	for fqn := range idx.messages {
		names = append(names, fqn)
	}
	for fqn := range idx.enums {
		names = append(names, fqn)
	}
	sort.Strings(names)
	return names
}

// allFields returns a message's direct fields followed by its oneof
// member fields, in declaration order within each group.
func allFields(m *descriptor.Message) []*descriptor.Field {
	fields := make([]*descriptor.Field, 0, len(m.Fields))
	fields = append(fields, m.Fields...)
	for _, o := range m.OneOfs {
		fields = append(fields, o.Fields...)
	}
	return fields
}

func join(scope, name string) string {
	if scope == "" {
		return name
	}
	return scope + "." + name
}
