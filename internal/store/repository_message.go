package store

import (
	"github.com/danij/Forum-sub001/internal/entities"
	"github.com/danij/Forum-sub001/internal/idgen"
)

// MessageRepository groups commands/queries on DiscussionThreadMessage
// entities.
type MessageRepository struct {
	col    *Collection
	limits *Limits
}

func NewMessageRepository(col *Collection, limits *Limits) *MessageRepository {
	return &MessageRepository{col: col, limits: limits}
}

// AddMessage posts a new message to threadID (§6.2 "POST
// thread_messages/<threadId>"). content is accepted as inline bytes here;
// the v2 mapped-file variant is constructed by the caller (endpoint layer)
// via AddMessageWithContent when content exceeds the inline threshold.
func (r *MessageRepository) AddMessage(ctx ObserverContext, threadID idgen.ID, content string) (StatusCode, *entities.DiscussionThreadMessage) {
	return r.AddMessageWithContent(ctx, threadID, entities.MessageContent{Kind: entities.ContentInline, Inline: []byte(content)}, len([]rune(content)))
}

// AddMessageWithContent is the general form, accepting either inline or
// mapped MessageContent (§9 "Message content storage", §6.1 "two variants
// of ADD_NEW_DISCUSSION_THREAD_MESSAGE"). contentLength is the logical
// rune length used for bounds checking regardless of storage variant.
func (r *MessageRepository) AddMessageWithContent(ctx ObserverContext, threadID idgen.ID, content entities.MessageContent, contentLength int) (StatusCode, *entities.DiscussionThreadMessage) {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	r.col.touchLastSeenLocked(ctx.PerformedBy, ctx.CurrentTime, r.limits.LastSeenUpdatePrecision)

	t := r.col.threads[threadID.String()]
	if t == nil {
		return NotFound, nil
	}
	if contentLength < r.limits.MessageMinContentLength {
		return ValueTooShort, nil
	}
	if contentLength > r.limits.MessageMaxContentLength {
		return ValueTooLong, nil
	}

	id := idgen.NewID()
	m := entities.NewDiscussionThreadMessage(id)
	m.Created = ctx.CurrentTime
	m.CreationDetails = sourceIPOrUnspecified(ctx.SourceIP)
	m.Content = content
	m.ParentThread = threadID
	m.CreatedBy = ctx.PerformedBy
	m.Approved = true

	r.col.messages[id.String()] = m
	t.Messages = append(t.Messages, id)
	r.col.messagesByCreated.Insert(m.Created, id.String())
	r.col.messagesByUser.Insert(ctx.PerformedBy.String(), id.String())
	if rank := r.col.messagesByThread[threadID.String()]; rank != nil {
		rank.Insert(m.Created, id.String())
	}

	if !r.col.batchMode {
		r.col.recomputeThreadDerivedLocked(threadID.String(), t)
	}

	if u := r.col.users[ctx.PerformedBy.String()]; u != nil {
		r.col.usersByMessageCount.Remove(u.MessageCount, u.ID.String())
		u.MessageCount++
		u.MessagesAuthored = append(u.MessagesAuthored, id)
		r.col.usersByMessageCount.Insert(u.MessageCount, u.ID.String())
	}

	r.col.notify(WriteEvent{Type: EventAddMessage, Ctx: ctx, Payload: m})
	return OK, m
}

// ImportAddMessage replays an ADD_NEW_DISCUSSION_THREAD_MESSAGE record,
// preserving the original id (§9 "direct-write entry surface"; §6.1 "two
// variants of ADD_NEW_DISCUSSION_THREAD_MESSAGE").
func (r *MessageRepository) ImportAddMessage(ctx ObserverContext, id, threadID idgen.ID, content entities.MessageContent) {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	if _, exists := r.col.messages[id.String()]; exists {
		return
	}
	t := r.col.threads[threadID.String()]
	if t == nil {
		return
	}

	m := entities.NewDiscussionThreadMessage(id)
	m.Created = ctx.CurrentTime
	m.CreationDetails = sourceIPOrUnspecified(ctx.SourceIP)
	m.Content = content
	m.ParentThread = threadID
	m.CreatedBy = ctx.PerformedBy
	m.Approved = true

	r.col.messages[id.String()] = m
	t.Messages = append(t.Messages, id)
	r.col.messagesByCreated.Insert(m.Created, id.String())
	r.col.messagesByUser.Insert(ctx.PerformedBy.String(), id.String())
	if rank := r.col.messagesByThread[threadID.String()]; rank != nil {
		rank.Insert(m.Created, id.String())
	}

	if u := r.col.users[ctx.PerformedBy.String()]; u != nil {
		r.col.usersByMessageCount.Remove(u.MessageCount, u.ID.String())
		u.MessageCount++
		u.MessagesAuthored = append(u.MessagesAuthored, id)
		r.col.usersByMessageCount.Insert(u.MessageCount, u.ID.String())
	}
}

// EditContent edits a message's content, recording the edit reason in
// LastUpdated (§6.2 "PUT thread_messages/content/<msgId>").
func (r *MessageRepository) EditContent(ctx ObserverContext, id idgen.ID, newContent, reason string) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	r.col.touchLastSeenLocked(ctx.PerformedBy, ctx.CurrentTime, r.limits.LastSeenUpdatePrecision)

	m := r.col.messages[id.String()]
	if m == nil {
		return NotFound
	}
	n := len([]rune(newContent))
	if n < r.limits.MessageMinContentLength {
		return ValueTooShort
	}
	if n > r.limits.MessageMaxContentLength {
		return ValueTooLong
	}

	prev := m.LastUpdated
	m.Content = entities.MessageContent{Kind: entities.ContentInline, Inline: []byte(newContent)}
	m.LastUpdated = entities.LastUpdated{At: ctx.CurrentTime, IP: sourceIPOrUnspecified(ctx.SourceIP), By: ctx.PerformedBy, Reason: reason}
	if m.EditHistoryHead == nil {
		m.EditHistoryHead = &entities.LastUpdated{}
	}
	*m.EditHistoryHead = prev

	if t := r.col.threads[m.ParentThread.String()]; t != nil && !r.col.batchMode {
		r.col.recomputeThreadDerivedLocked(m.ParentThread.String(), t)
	}

	r.col.notify(WriteEvent{Type: EventEditMessageContent, Ctx: ctx, Payload: m})
	return OK
}

// destroyMessageLocked removes a message and its comments from every
// index (§3: "a message exists only while its thread does" — also invoked
// directly, as a cascade, by ThreadRepository.deleteThreadLocked).
func (r *Collection) destroyMessageLocked(id idgen.ID) {
	m := r.messages[id.String()]
	if m == nil {
		return
	}
	for _, cid := range append([]idgen.ID{}, m.Comments...) {
		r.destroyCommentLocked(cid)
	}
	if t := r.threads[m.ParentThread.String()]; t != nil {
		t.Messages = removeID(t.Messages, id)
	}
	if rank := r.messagesByThread[m.ParentThread.String()]; rank != nil {
		rank.Remove(m.Created, id.String())
	}
	for voter := range m.Votes {
		if u := r.users[voter.String()]; u != nil {
			u.VotesCast = removeID(u.VotesCast, id)
		}
	}
	if m.CreatedBy != idgen.Zero {
		if u := r.users[m.CreatedBy.String()]; u != nil {
			r.usersByMessageCount.Remove(u.MessageCount, u.ID.String())
			u.MessageCount--
			u.MessagesAuthored = removeID(u.MessagesAuthored, id)
			r.usersByMessageCount.Insert(u.MessageCount, u.ID.String())
		}
	}
	r.messagesByCreated.Remove(m.Created, id.String())
	r.messagesByUser.Remove(m.CreatedBy.String(), id.String())
	delete(r.messages, id.String())
}

// DeleteMessage deletes a single message and recomputes its thread's
// derived fields (§8 scenario 3).
func (r *MessageRepository) DeleteMessage(ctx ObserverContext, id idgen.ID) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()

	m := r.col.messages[id.String()]
	if m == nil {
		return NotFound
	}
	parent := m.ParentThread
	r.col.destroyMessageLocked(id)
	if t := r.col.threads[parent.String()]; t != nil {
		r.col.recomputeThreadDerivedLocked(parent.String(), t)
	}

	r.col.notify(WriteEvent{Type: EventDeleteMessage, Ctx: ctx, Payload: id})
	return OK
}

// MoveMessages reparents the given messages into dstThread (§9
// "Supplemented features": message move).
func (r *MessageRepository) MoveMessages(ctx ObserverContext, dstThread idgen.ID, ids []idgen.ID) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()

	dst := r.col.threads[dstThread.String()]
	if dst == nil {
		return NotFound
	}
	affectedSources := map[string]*entities.DiscussionThread{}
	for _, id := range ids {
		m := r.col.messages[id.String()]
		if m == nil || m.ParentThread == dstThread {
			continue
		}
		src := r.col.threads[m.ParentThread.String()]
		if src == nil {
			continue
		}
		src.Messages = removeID(src.Messages, id)
		if rank := r.col.messagesByThread[src.ID.String()]; rank != nil {
			rank.Remove(m.Created, id.String())
		}
		dst.Messages = append(dst.Messages, id)
		if rank := r.col.messagesByThread[dstThread.String()]; rank != nil {
			rank.Insert(m.Created, id.String())
		}
		m.ParentThread = dstThread
		affectedSources[src.ID.String()] = src
	}
	r.col.recomputeThreadDerivedLocked(dstThread.String(), dst)
	for sid, src := range affectedSources {
		r.col.recomputeThreadDerivedLocked(sid, src)
	}

	r.col.notify(WriteEvent{Type: EventMoveMessages, Ctx: ctx, Payload: map[string]any{"dst": dstThread, "ids": ids}})
	return OK
}

// UpVote and DownVote supersede any existing vote from the same user
// (§3 invariant "at most one active vote per message"); ResetVote removes
// it (§8 scenario 4).
func (r *MessageRepository) UpVote(ctx ObserverContext, messageID, userID idgen.ID) StatusCode {
	return r.setVote(ctx, messageID, userID, 1)
}

func (r *MessageRepository) DownVote(ctx ObserverContext, messageID, userID idgen.ID) StatusCode {
	return r.setVote(ctx, messageID, userID, -1)
}

func (r *MessageRepository) setVote(ctx ObserverContext, messageID, userID idgen.ID, value int8) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()

	m := r.col.messages[messageID.String()]
	u := r.col.users[userID.String()]
	if m == nil || u == nil {
		return NotFound
	}
	if existing, ok := m.Votes[userID]; ok && existing.Value == value {
		return NoEffect
	}
	_, hadVote := m.Votes[userID]
	m.Votes[userID] = entities.Vote{Value: value, At: ctx.CurrentTime}
	if !hadVote {
		u.VotesCast = append(u.VotesCast, messageID)
	}

	evt := EventUpVote
	if value < 0 {
		evt = EventDownVote
	}
	r.col.notify(WriteEvent{Type: evt, Ctx: ctx, Payload: map[string]idgen.ID{"message": messageID, "user": userID}})
	return OK
}

// ResetVote removes userID's vote on messageID, subject to the config's
// resetVoteExpiresInSeconds window (§9 "Vote expiry").
func (r *MessageRepository) ResetVote(ctx ObserverContext, messageID, userID idgen.ID) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()

	m := r.col.messages[messageID.String()]
	if m == nil {
		return NotFound
	}
	vote, ok := m.Votes[userID]
	if !ok {
		return NoEffect
	}
	if r.limits.ResetVoteExpiresInSeconds > 0 && int64(ctx.CurrentTime)-int64(vote.At) > r.limits.ResetVoteExpiresInSeconds {
		return NotAllowed
	}
	delete(m.Votes, userID)
	if u := r.col.users[userID.String()]; u != nil {
		u.VotesCast = removeID(u.VotesCast, messageID)
	}

	r.col.notify(WriteEvent{Type: EventResetVote, Ctx: ctx, Payload: map[string]idgen.ID{"message": messageID, "user": userID}})
	return OK
}

func (r *MessageRepository) UpdateApproval(ctx ObserverContext, id idgen.ID, approved bool) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	m := r.col.messages[id.String()]
	if m == nil {
		return NotFound
	}
	if m.Approved == approved {
		return NoEffect
	}
	m.Approved = approved
	if t := r.col.threads[m.ParentThread.String()]; t != nil {
		r.col.recomputeThreadDerivedLocked(m.ParentThread.String(), t)
	}
	r.col.notify(WriteEvent{Type: EventUpdateMessageApproval, Ctx: ctx, Payload: m})
	return OK
}

func (r *MessageRepository) GetByID(id idgen.ID) (*entities.DiscussionThreadMessage, bool) {
	r.col.mu.RLock()
	defer r.col.mu.RUnlock()
	m, ok := r.col.messages[id.String()]
	return m, ok
}

// ListByThread pages a thread's messages in creation order.
func (r *MessageRepository) ListByThread(threadID idgen.ID, dc DisplayContext) []*entities.DiscussionThreadMessage {
	r.col.mu.RLock()
	defer r.col.mu.RUnlock()
	rank := r.col.messagesByThread[threadID.String()]
	if rank == nil {
		return nil
	}
	ascending := dc.SortOrder == Ascending
	ids := rank.Page(dc.PageNumber, r.limits.MessagesPerPage, ascending)
	out := make([]*entities.DiscussionThreadMessage, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.col.messages[id])
	}
	return out
}

// RankInThread returns messageID's zero-based position within its
// thread's creation order (§4.1 "message rank within thread").
func (r *MessageRepository) RankInThread(threadID, messageID idgen.ID) (int, bool) {
	r.col.mu.RLock()
	defer r.col.mu.RUnlock()
	rank := r.col.messagesByThread[threadID.String()]
	m := r.col.messages[messageID.String()]
	if rank == nil || m == nil {
		return 0, false
	}
	pos := rank.Rank(m.Created, messageID.String())
	return pos, pos >= 0
}
