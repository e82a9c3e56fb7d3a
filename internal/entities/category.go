package entities

import "github.com/danij/Forum-sub001/internal/idgen"

// DiscussionCategory is §3's "DiscussionCategory".
type DiscussionCategory struct {
	Base

	Name        string // unique among siblings
	Description string

	Parent   idgen.ID // Zero == root
	Children []idgen.ID // ordered by DisplayOrder

	DisplayOrder int

	Tags map[idgen.ID]struct{}

	// Derived, aggregated transitively over descendants (§3).
	ThreadCount  int
	MessageCount int
}

// NewDiscussionCategory allocates a category with an empty tag set.
func NewDiscussionCategory(id idgen.ID) *DiscussionCategory {
	return &DiscussionCategory{
		Base: Base{ID: id},
		Tags: make(map[idgen.ID]struct{}),
	}
}
