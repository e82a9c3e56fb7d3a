package index

// Hashed is a non-unique hashed look-aside index: one key maps to a set of
// ids (e.g. "messages by thread", "threads by tag"). The primary id-keyed
// index of each entity type is a plain map from id string to entity, kept
// in store.Collection rather than here.
type Hashed[K comparable] struct {
	buckets map[K]map[string]struct{}
}

// NewHashed creates an empty hashed index.
func NewHashed[K comparable]() *Hashed[K] {
	return &Hashed[K]{buckets: make(map[K]map[string]struct{})}
}

// Insert adds id under key.
func (h *Hashed[K]) Insert(key K, id string) {
	bucket, ok := h.buckets[key]
	if !ok {
		bucket = make(map[string]struct{})
		h.buckets[key] = bucket
	}
	bucket[id] = struct{}{}
}

// Remove deletes id from key's bucket, pruning the bucket if it becomes
// empty.
func (h *Hashed[K]) Remove(key K, id string) {
	bucket, ok := h.buckets[key]
	if !ok {
		return
	}
	delete(bucket, id)
	if len(bucket) == 0 {
		delete(h.buckets, key)
	}
}

// Get returns every id stored under key.
func (h *Hashed[K]) Get(key K) []string {
	bucket := h.buckets[key]
	out := make([]string, 0, len(bucket))
	for id := range bucket {
		out = append(out, id)
	}
	return out
}

// Contains reports whether id is present under key.
func (h *Hashed[K]) Contains(key K, id string) bool {
	bucket, ok := h.buckets[key]
	if !ok {
		return false
	}
	_, ok = bucket[id]
	return ok
}

// Len returns the number of distinct keys currently populated.
func (h *Hashed[K]) Len() int { return len(h.buckets) }
