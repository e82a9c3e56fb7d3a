package entities

import "github.com/danij/Forum-sub001/internal/idgen"

// ContentKind distinguishes where a message's bytes live (§9 "Message
// content storage": "support both inline (small) and mapped-from-
// messages-file (large) variants behind a single MessageContent sum type").
type ContentKind uint8

const (
	// ContentInline stores the content bytes directly on the message.
	ContentInline ContentKind = iota
	// ContentMapped references a (offset, length) span in the external
	// append-only messages file (§6.3 <messagesFile>).
	ContentMapped
)

// MessageContent is the sum type §9 calls for.
type MessageContent struct {
	Kind   ContentKind
	Inline []byte // valid iff Kind == ContentInline
	Offset uint64 // valid iff Kind == ContentMapped
	Size   uint32 // valid iff Kind == ContentMapped
}

// Vote is one user's standing vote on a message (§3 "vote collection (map
// user→{+1|−1, at})").
type Vote struct {
	Value int8 // +1 or -1
	At    idgen.Timestamp
}

// DiscussionThreadMessage is §3's "DiscussionThreadMessage".
type DiscussionThreadMessage struct {
	Base

	Content MessageContent

	ParentThread idgen.ID // owning back-ref
	CreatedBy    idgen.ID // weak

	Approved bool

	Votes    map[idgen.ID]Vote // keyed by voting user
	Comments []idgen.ID        // owning, ordered by created

	// EditHistoryHead points at the most recent prior LastUpdated entry;
	// older entries are not retained in memory (only in the event log).
	EditHistoryHead *LastUpdated
}

// NewDiscussionThreadMessage allocates a message with empty collections.
func NewDiscussionThreadMessage(id idgen.ID) *DiscussionThreadMessage {
	return &DiscussionThreadMessage{
		Base:  Base{ID: id},
		Votes: make(map[idgen.ID]Vote),
	}
}
