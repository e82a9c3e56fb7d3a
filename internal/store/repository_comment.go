package store

import (
	"github.com/danij/Forum-sub001/internal/entities"
	"github.com/danij/Forum-sub001/internal/idgen"
)

// CommentRepository groups commands/queries on MessageComment entities.
type CommentRepository struct {
	col    *Collection
	limits *Limits
}

func NewCommentRepository(col *Collection, limits *Limits) *CommentRepository {
	return &CommentRepository{col: col, limits: limits}
}

// AddComment attaches a comment to a message (§6.2 "POST
// thread_message_comments/<messageId>").
func (r *CommentRepository) AddComment(ctx ObserverContext, messageID idgen.ID, content string) (StatusCode, *entities.MessageComment) {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	r.col.touchLastSeenLocked(ctx.PerformedBy, ctx.CurrentTime, r.limits.LastSeenUpdatePrecision)

	m := r.col.messages[messageID.String()]
	if m == nil {
		return NotFound, nil
	}
	n := len([]rune(content))
	if n < r.limits.CommentMinContentLength {
		return ValueTooShort, nil
	}
	if n > r.limits.CommentMaxContentLength {
		return ValueTooLong, nil
	}

	id := idgen.NewID()
	c := entities.NewMessageComment(id)
	c.Created = ctx.CurrentTime
	c.CreationDetails = sourceIPOrUnspecified(ctx.SourceIP)
	c.Content = content
	c.CreatedBy = ctx.PerformedBy
	c.ParentMessage = messageID

	r.col.comments[id.String()] = c
	m.Comments = append(m.Comments, id)
	r.col.commentsByMessage.Insert(messageID.String(), id.String())

	r.col.notify(WriteEvent{Type: EventAddComment, Ctx: ctx, Payload: c})
	return OK, c
}

// ImportAddComment replays an ADD_NEW_DISCUSSION_THREAD_MESSAGE_COMMENT
// record, preserving the original id (§9 "direct-write entry surface").
func (r *CommentRepository) ImportAddComment(ctx ObserverContext, id, messageID idgen.ID, content string) {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	if _, exists := r.col.comments[id.String()]; exists {
		return
	}
	m := r.col.messages[messageID.String()]
	if m == nil {
		return
	}
	c := entities.NewMessageComment(id)
	c.Created = ctx.CurrentTime
	c.CreationDetails = sourceIPOrUnspecified(ctx.SourceIP)
	c.Content = content
	c.CreatedBy = ctx.PerformedBy
	c.ParentMessage = messageID

	r.col.comments[id.String()] = c
	m.Comments = append(m.Comments, id)
	r.col.commentsByMessage.Insert(messageID.String(), id.String())
}

// SolveComment flips a comment's Solved flag (§3 "a comment may be marked
// solved by the message's author or a privileged user" — the privilege
// check itself lives at the endpoint layer, per §4.5).
func (r *CommentRepository) SolveComment(ctx ObserverContext, id idgen.ID, solved bool) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()

	c := r.col.comments[id.String()]
	if c == nil {
		return NotFound
	}
	if c.Solved == solved {
		return NoEffect
	}
	c.Solved = solved
	c.LastUpdated = entities.LastUpdated{At: ctx.CurrentTime, IP: sourceIPOrUnspecified(ctx.SourceIP), By: ctx.PerformedBy}

	r.col.notify(WriteEvent{Type: EventSolveComment, Ctx: ctx, Payload: c})
	return OK
}

// destroyCommentLocked removes a comment from every index. Invoked both as
// a direct delete and as a cascade from destroyMessageLocked.
func (c *Collection) destroyCommentLocked(id idgen.ID) {
	cm := c.comments[id.String()]
	if cm == nil {
		return
	}
	if m := c.messages[cm.ParentMessage.String()]; m != nil {
		m.Comments = removeID(m.Comments, id)
	}
	c.commentsByMessage.Remove(cm.ParentMessage.String(), id.String())
	delete(c.comments, id.String())
}

// DeleteComment deletes a single comment (§6.2 "DELETE
// thread_message_comments/<commentId>").
func (r *CommentRepository) DeleteComment(ctx ObserverContext, id idgen.ID) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()

	if r.col.comments[id.String()] == nil {
		return NotFound
	}
	r.col.destroyCommentLocked(id)
	r.col.notify(WriteEvent{Type: EventDeleteComment, Ctx: ctx, Payload: id})
	return OK
}

func (r *CommentRepository) GetByID(id idgen.ID) (*entities.MessageComment, bool) {
	r.col.mu.RLock()
	defer r.col.mu.RUnlock()
	c, ok := r.col.comments[id.String()]
	return c, ok
}

// ListByMessage returns every comment attached to messageID, oldest first.
func (r *CommentRepository) ListByMessage(messageID idgen.ID) []*entities.MessageComment {
	r.col.mu.RLock()
	defer r.col.mu.RUnlock()
	m := r.col.messages[messageID.String()]
	if m == nil {
		return nil
	}
	out := make([]*entities.MessageComment, 0, len(m.Comments))
	for _, id := range m.Comments {
		if c := r.col.comments[id.String()]; c != nil {
			out = append(out, c)
		}
	}
	return out
}
