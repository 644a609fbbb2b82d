package models

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Registry maps ids to entities and keeps insertion order across removals.
type Registry[K comparable, V any] struct {
	entries *orderedmap.OrderedMap[K, V]
}

// NewRegistry creates an empty registry
func NewRegistry[K comparable, V any]() *Registry[K, V] {
	return &Registry[K, V]{entries: orderedmap.New[K, V]()}
}

// Put inserts or replaces the entry for key. A replaced entry keeps its position.
func (r *Registry[K, V]) Put(key K, value V) {
	r.entries.Set(key, value)
}

// Get returns the entry for key and whether it was present
func (r *Registry[K, V]) Get(key K) (V, bool) {
	return r.entries.Get(key)
}

// Delete removes key if present. Remaining entries keep their order.
func (r *Registry[K, V]) Delete(key K) {
	r.entries.Delete(key)
}

// Len returns the number of entries
func (r *Registry[K, V]) Len() int {
	return r.entries.Len()
}

// Values returns the entries in insertion order
func (r *Registry[K, V]) Values() []V {
	out := make([]V, 0, r.entries.Len())
	for pair := r.entries.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Keys returns the keys in insertion order
func (r *Registry[K, V]) Keys() []K {
	out := make([]K, 0, r.entries.Len())
	for pair := r.entries.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}
