package entities

import "github.com/danij/Forum-sub001/internal/idgen"

// DiscussionTag is §3's "DiscussionTag".
type DiscussionTag struct {
	Base

	Name string // unique
	UI   []byte // small binary UI blob, bounded

	Threads    map[idgen.ID]struct{} // many-to-many
	Categories map[idgen.ID]struct{} // many-to-many

	// Derived counters, maintained the same way a thread's counters are:
	// recomputed on attach/detach, not during batch import.
	ThreadCount  int
	MessageCount int
}

// NewDiscussionTag allocates a tag with empty relationship sets.
func NewDiscussionTag(id idgen.ID) *DiscussionTag {
	return &DiscussionTag{
		Base:       Base{ID: id},
		Threads:    make(map[idgen.ID]struct{}),
		Categories: make(map[idgen.ID]struct{}),
	}
}
