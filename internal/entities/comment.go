package entities

import "github.com/danij/Forum-sub001/internal/idgen"

// MessageComment is §3's "MessageComment".
type MessageComment struct {
	Base

	Content string
	Solved  bool

	CreatedBy    idgen.ID // weak
	ParentMessage idgen.ID // owning back-ref
}

// NewMessageComment allocates a comment.
func NewMessageComment(id idgen.ID) *MessageComment {
	return &MessageComment{Base: Base{ID: id}}
}
