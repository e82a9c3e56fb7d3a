package entities

import "github.com/danij/Forum-sub001/internal/idgen"

// DiscussionThread is §3's "DiscussionThread".
type DiscussionThread struct {
	Base

	Name            string
	PinDisplayOrder int // 0 = unpinned

	LatestVisibleChange idgen.Timestamp

	Messages          []idgen.ID // ordered collection, owning
	SubscribedUsers   map[idgen.ID]struct{}
	Tags              map[idgen.ID]struct{}
	Approved          bool

	CreatedBy idgen.ID // weak

	// Derived, maintained incrementally except during batch import (§9).
	MessageCount          int
	LatestMessageCreated  idgen.Timestamp

	// Visited is an aggregate counter, maintained from batched
	// "increment visits" deltas (§3: "visited counter, maintained as an
	// aggregate ... batched in memory between events").
	Visited uint64
}

// NewDiscussionThread allocates a thread with empty derived sets.
func NewDiscussionThread(id idgen.ID) *DiscussionThread {
	return &DiscussionThread{
		Base:            Base{ID: id},
		SubscribedUsers: make(map[idgen.ID]struct{}),
		Tags:            make(map[idgen.ID]struct{}),
	}
}
