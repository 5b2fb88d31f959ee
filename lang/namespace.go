package lang

import (
	"iter"
	"maps"
	"slices"
)

// Namespace is the flat variable store that persists across blocks and
// across calls on one [Interpreter]. It is not safe for concurrent use.
type Namespace struct {
	vars map[string]any
}

// NewNamespace returns an empty namespace.
func NewNamespace() *Namespace {
	return &Namespace{vars: make(map[string]any)}
}

// Get returns the value bound to name.
func (n *Namespace) Get(name string) (any, bool) {
	v, ok := n.vars[name]

	return v, ok
}

// Set binds name to value, replacing any previous binding.
func (n *Namespace) Set(name string, value any) {
	n.vars[name] = value
}

// Merge writes every binding into the namespace, overwriting existing
// values. Names absent from bindings are left untouched, and reserved
// capability names are skipped. It returns the number of names written.
func (n *Namespace) Merge(bindings map[string]any) int {
	count := 0

	for name, value := range bindings {
		if IsReserved(name) {
			continue
		}

		n.vars[name] = value
		count++
	}

	return count
}

// Len returns the number of bound names.
func (n *Namespace) Len() int { return len(n.vars) }

// Names returns the bound names in sorted order.
func (n *Namespace) Names() []string {
	return slices.Sorted(maps.Keys(n.vars))
}

// All returns an iterator over the bindings in name order.
func (n *Namespace) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, name := range n.Names() {
			if !yield(name, n.vars[name]) {
				return
			}
		}
	}
}

// Map returns the live backing map. Writes to it are visible immediately.
func (n *Namespace) Map() map[string]any { return n.vars }

// Snapshot returns a shallow copy of the bindings.
func (n *Namespace) Snapshot() map[string]any { return maps.Clone(n.vars) }
