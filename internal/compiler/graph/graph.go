// Package graph builds the message-to-message containment graph and
// breaks reference cycles by marking the minimal set of fields that
// must be stored behind a pointer. Only singular, inline message fields
// contribute edges; repeated and map fields are already heap-indirect
// containers.
package graph

import (
	"sort"

	"github.com/protoforge/protoforge/internal/compiler/descriptor"
	"github.com/protoforge/protoforge/internal/compiler/errors"
	"github.com/protoforge/protoforge/internal/compiler/index"
	"github.com/protoforge/protoforge/internal/compiler/resolve"
)

// edge is one singular value-containment relationship. The edge is live
// only while its field is stored inline; marking the field broken
// removes it from the graph.
type edge struct {
	field *descriptor.Field
	to    string
}

type breaker struct {
	nodes []string
	edges map[string][]edge

	// DFS coloring: absent = unvisited, false = on stack, true = done.
	done  map[string]bool
	stack []string
}

// Break marks NeedsIndirection on every field whose containment edge
// closes a cycle. Fields listed in boxed (by fully-qualified field
// path, e.g. "pkg.Msg.field") are marked up front and honored as
// already-broken edges. After marking, detection re-runs as a
// self-consistency guard; a residual cycle is an internal error.
//
// Break must run to completion before the type mapper reads any
// NeedsIndirection flag.
func Break(idx *index.Index, res *resolve.Resolver, boxed map[string]bool) error {
	b := &breaker{edges: make(map[string][]edge)}

	messages := idx.Messages()
	for fqn := range messages {
		b.nodes = append(b.nodes, fqn)
	}
	sort.Strings(b.nodes)

	for _, fqn := range b.nodes {
		m := messages[fqn]
		for _, field := range containmentFields(m) {
			if boxed[m.FQN+"."+field.Name] {
				field.NeedsIndirection = true
			}
			t, err := res.FieldType(m, field)
			if err != nil {
				// Resolution ran to completion before this stage.
				return err
			}
			if t.Kind != resolve.KindMessage {
				continue
			}
			b.edges[fqn] = append(b.edges[fqn], edge{field: field, to: t.Message.FQN})
		}
	}

	b.done = make(map[string]bool, len(b.nodes))
	for _, fqn := range b.nodes {
		b.visit(fqn)
	}

	// Removing every back edge of a depth-first traversal leaves an
	// acyclic graph, so a residual cycle here means the marking pass is
	// buggy. Fail loudly rather than emit an infinite-size type.
	b.done = make(map[string]bool, len(b.nodes))
	b.stack = nil
	for _, fqn := range b.nodes {
		if cycle := b.verify(fqn); cycle != nil {
			return errors.NewUnbrokenCycle(cycle)
		}
	}
	return nil
}

// visit walks the graph depth-first, flagging the field behind every
// back edge it discovers for indirection.
func (b *breaker) visit(fqn string) {
	if _, seen := b.done[fqn]; seen {
		return
	}
	b.done[fqn] = false
	b.stack = append(b.stack, fqn)

	for _, e := range b.edges[fqn] {
		if e.field.NeedsIndirection {
			continue
		}
		if done, seen := b.done[e.to]; seen {
			if !done {
				// e.to is on the traversal stack: this field closes the
				// loop, so it is the one stored indirectly.
				e.field.NeedsIndirection = true
			}
			continue
		}
		b.visit(e.to)
	}

	b.stack = b.stack[:len(b.stack)-1]
	b.done[fqn] = true
}

// verify re-runs detection without marking and returns the offending
// cycle path if a back edge survives.
func (b *breaker) verify(fqn string) []string {
	if _, seen := b.done[fqn]; seen {
		return nil
	}
	b.done[fqn] = false
	b.stack = append(b.stack, fqn)

	for _, e := range b.edges[fqn] {
		if e.field.NeedsIndirection {
			continue
		}
		if done, seen := b.done[e.to]; seen {
			if !done {
				return cyclePath(b.stack, e.to)
			}
			continue
		}
		if cycle := b.verify(e.to); cycle != nil {
			return cycle
		}
	}

	b.stack = b.stack[:len(b.stack)-1]
	b.done[fqn] = true
	return nil
}

// cyclePath extracts the loop from the traversal stack, closed back on
// its first node.
func cyclePath(stack []string, to string) []string {
	for i, fqn := range stack {
		if fqn == to {
			cycle := append([]string{}, stack[i:]...)
			return append(cycle, to)
		}
	}
	return append([]string{}, stack...)
}

// containmentFields returns the fields of m that can contribute
// containment edges: singular fields, both direct and oneof members.
func containmentFields(m *descriptor.Message) []*descriptor.Field {
	var fields []*descriptor.Field
	for _, f := range m.Fields {
		if f.Cardinality == descriptor.Singular {
			fields = append(fields, f)
		}
	}
	for _, o := range m.OneOfs {
		for _, f := range o.Fields {
			if f.Cardinality == descriptor.Singular {
				fields = append(fields, f)
			}
		}
	}
	return fields
}
