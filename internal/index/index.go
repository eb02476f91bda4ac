// Package index provides two-phase set indexes: a mutable Builder that
// auto-creates entries on insertion, frozen by Finish into a read-only Index.
// Value sets keep insertion order so every lookup is deterministic.
package index

// Builder accumulates key → set-of-values associations
type Builder[K comparable, V comparable] struct {
	keys     []K
	values   map[K][]V
	seen     map[K]map[V]struct{}
	finished bool
}

// NewBuilder creates an empty builder
func NewBuilder[K comparable, V comparable]() *Builder[K, V] {
	return &Builder[K, V]{
		values: make(map[K][]V),
		seen:   make(map[K]map[V]struct{}),
	}
}

// Add inserts value into the set stored under key. Adding a value already
// present is a no-op. Add panics once Finish has been called.
func (b *Builder[K, V]) Add(key K, value V) {
	if b.finished {
		panic("index: Add after Finish")
	}

	set, ok := b.seen[key]
	if !ok {
		set = make(map[V]struct{})
		b.seen[key] = set
		b.keys = append(b.keys, key)
	}
	if _, dup := set[value]; dup {
		return
	}
	set[value] = struct{}{}
	b.values[key] = append(b.values[key], value)
}

// Finish freezes the builder and returns the read-only index
func (b *Builder[K, V]) Finish() Index[K, V] {
	b.finished = true
	ix := Index[K, V]{keys: b.keys, values: b.values}
	b.keys, b.values, b.seen = nil, nil, nil
	return ix
}

// Index is a frozen key → ordered-set map. Lookups of missing keys return
// nil; nothing is created on read. The zero Index is empty and usable.
type Index[K comparable, V comparable] struct {
	keys   []K
	values map[K][]V
}

// Get returns the values stored under key in insertion order.
// The returned slice is shared and must not be modified.
func (ix Index[K, V]) Get(key K) []V {
	return ix.values[key]
}

// Has reports whether key has at least one value
func (ix Index[K, V]) Has(key K) bool {
	return len(ix.values[key]) > 0
}

// Keys returns the keys in first-insertion order
func (ix Index[K, V]) Keys() []K {
	out := make([]K, len(ix.keys))
	copy(out, ix.keys)
	return out
}

// Len returns the number of keys
func (ix Index[K, V]) Len() int {
	return len(ix.keys)
}
