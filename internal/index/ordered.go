// Package index implements the secondary-index primitives of §4.1: ordered
// indexes (for range/page queries), hashed non-unique indexes (for
// look-aside), and a ranked ordered index supporting O(log n) rank/select.
//
// Every index stores weak handles (idgen.ID) to the owned entity, never the
// entity itself, matching the arena-of-handles shape described in §9.
package index

import "sort"

// Less compares two ordered-index entries by their computed key.
type Less[K any] func(a, b K) bool

// entry pairs a computed sort key with the id it belongs to.
type entry[K any] struct {
	key K
	id  string
}

// Ordered is a sorted index keyed by a computed, possibly non-unique view
// of an entity (e.g. byName, byCreated). It supports the "replace at
// iterator" contract of §4.1: callers must Remove the old entry before
// mutating the field the index is keyed on, then Insert the new one.
//
// Backed by a sorted slice rather than a balanced tree: rank/select queries
// are O(log n) via binary search (sort.Search), but Insert/Remove are
// O(n) due to the slice shift. This is a deliberate simplification — see
// DESIGN.md — acceptable because writes are already serialized behind the
// single-writer lock (§5) and the entity counts a single forum instance
// holds in memory do not approach the sizes where O(n) shifts dominate.
type Ordered[K any] struct {
	less    Less[K]
	entries []entry[K]
}

// NewOrdered creates an empty ordered index using less as the key
// comparator.
func NewOrdered[K any](less Less[K]) *Ordered[K] {
	return &Ordered[K]{less: less}
}

// Insert adds id at the position determined by key, maintaining order.
func (o *Ordered[K]) Insert(key K, id string) {
	pos := sort.Search(len(o.entries), func(i int) bool {
		return o.less(key, o.entries[i].key) || (!o.less(o.entries[i].key, key) && o.entries[i].id >= id)
	})
	o.entries = append(o.entries, entry[K]{})
	copy(o.entries[pos+1:], o.entries[pos:])
	o.entries[pos] = entry[K]{key: key, id: id}
}

// Remove deletes the (key, id) pair. It is a no-op if not present.
func (o *Ordered[K]) Remove(key K, id string) {
	pos := o.findExact(key, id)
	if pos < 0 {
		return
	}
	o.entries = append(o.entries[:pos], o.entries[pos+1:]...)
}

func (o *Ordered[K]) findExact(key K, id string) int {
	pos := sort.Search(len(o.entries), func(i int) bool {
		return o.less(key, o.entries[i].key) || (!o.less(o.entries[i].key, key) && o.entries[i].id >= id)
	})
	if pos < len(o.entries) && o.entries[pos].id == id && !o.less(key, o.entries[pos].key) && !o.less(o.entries[pos].key, key) {
		return pos
	}
	return -1
}

// Len returns the number of entries.
func (o *Ordered[K]) Len() int { return len(o.entries) }

// Page returns the page-th contiguous slice of size pageSize, in ascending
// or descending order (§4.1 "DisplayContext"). An out-of-range page
// returns an empty, non-nil slice.
func (o *Ordered[K]) Page(page, pageSize int, ascending bool) []string {
	n := len(o.entries)
	if pageSize <= 0 || page < 0 || n == 0 {
		return []string{}
	}
	start := page * pageSize
	if start >= n {
		return []string{}
	}
	end := start + pageSize
	if end > n {
		end = n
	}

	result := make([]string, 0, end-start)
	if ascending {
		for i := start; i < end; i++ {
			result = append(result, o.entries[i].id)
		}
	} else {
		// Descending walks from the tail.
		for i := n - 1 - start; i >= 0 && i > n-1-end; i-- {
			result = append(result, o.entries[i].id)
		}
	}
	return result
}

// All returns every id in ascending key order. Used by the store's
// name-uniqueness scans and name lookups.
func (o *Ordered[K]) All() []string {
	out := make([]string, len(o.entries))
	for i, e := range o.entries {
		out[i] = e.id
	}
	return out
}

// Rank returns the zero-based position of (key, id) in ascending order, or
// -1 if not present. O(log n) as required by §4.1 for "message rank within
// thread" style queries.
func (o *Ordered[K]) Rank(key K, id string) int {
	return o.findExact(key, id)
}

// Select returns the id at ascending rank i, or "" with ok=false if out of
// range.
func (o *Ordered[K]) Select(i int) (string, bool) {
	if i < 0 || i >= len(o.entries) {
		return "", false
	}
	return o.entries[i].id, true
}

// CountFrom returns the number of entries whose key is >= cutoff, via
// binary search on the ascending order already maintained by Insert. Used
// by online-user style windowed counts (e.g. "lastSeen within the last N
// seconds") that only need a count, not the matching ids.
func (o *Ordered[K]) CountFrom(cutoff K) int {
	pos := sort.Search(len(o.entries), func(i int) bool {
		return !o.less(o.entries[i].key, cutoff)
	})
	return len(o.entries) - pos
}
