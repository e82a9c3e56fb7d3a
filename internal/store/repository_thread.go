package store

import (
	"sort"

	"github.com/danij/Forum-sub001/internal/entities"
	"github.com/danij/Forum-sub001/internal/idgen"
)

// ThreadRepository groups commands/queries on DiscussionThread entities.
type ThreadRepository struct {
	col    *Collection
	limits *Limits
}

func NewThreadRepository(col *Collection, limits *Limits) *ThreadRepository {
	return &ThreadRepository{col: col, limits: limits}
}

func (r *ThreadRepository) AddThread(ctx ObserverContext, name string, tagIDs []idgen.ID) (StatusCode, *entities.DiscussionThread) {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	r.col.touchLastSeenLocked(ctx.PerformedBy, ctx.CurrentTime, r.limits.LastSeenUpdatePrecision)

	normalized, status := validateName(name, r.limits.ThreadMinNameLength, r.limits.ThreadMaxNameLength)
	if status != OK {
		return status, nil
	}
	for _, tagID := range tagIDs {
		if r.col.tags[tagID.String()] == nil {
			return NotFound, nil
		}
	}

	id := idgen.NewID()
	t := entities.NewDiscussionThread(id)
	t.Created = ctx.CurrentTime
	t.CreationDetails = sourceIPOrUnspecified(ctx.SourceIP)
	t.Name = normalized
	t.LatestVisibleChange = ctx.CurrentTime
	t.CreatedBy = ctx.PerformedBy
	t.Approved = true
	for _, tagID := range tagIDs {
		t.Tags[tagID] = struct{}{}
		r.col.tags[tagID.String()].Threads[id] = struct{}{}
		r.col.threadsByTag.Insert(tagID.String(), id.String())
	}

	r.col.threads[id.String()] = t
	r.col.threadsByName.Insert(t.Name, id.String())
	r.col.threadsByCreated.Insert(t.Created, id.String())
	r.col.threadsByLastUpdated.Insert(t.Created, id.String())
	r.col.threadsByLatestMessageCreated.Insert(t.LatestMessageCreated, id.String())
	r.col.threadsByMessageCount.Insert(0, id.String())
	r.col.threadsByPinDisplayOrder.Insert(0, id.String())
	r.col.threadsByUser.Insert(ctx.PerformedBy.String(), id.String())
	r.col.messagesByThread[id.String()] = indexOrderedTimestamp()

	if u := r.col.users[ctx.PerformedBy.String()]; u != nil {
		r.col.usersByThreadCount.Remove(u.ThreadCount, u.ID.String())
		u.ThreadCount++
		u.ThreadsAuthored = append(u.ThreadsAuthored, id)
		r.col.usersByThreadCount.Insert(u.ThreadCount, u.ID.String())
	}

	r.col.notify(WriteEvent{Type: EventAddThread, Ctx: ctx, Payload: t})
	return OK, t
}

// ImportAddThread replays an ADD_NEW_DISCUSSION_THREAD record, preserving
// the original id (§9 "direct-write entry surface").
func (r *ThreadRepository) ImportAddThread(ctx ObserverContext, id idgen.ID, name string, tagIDs []idgen.ID) {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	if _, exists := r.col.threads[id.String()]; exists {
		return
	}
	t := entities.NewDiscussionThread(id)
	t.Created = ctx.CurrentTime
	t.CreationDetails = sourceIPOrUnspecified(ctx.SourceIP)
	t.Name = name
	t.LatestVisibleChange = ctx.CurrentTime
	t.CreatedBy = ctx.PerformedBy
	t.Approved = true
	for _, tagID := range tagIDs {
		if tag := r.col.tags[tagID.String()]; tag != nil {
			t.Tags[tagID] = struct{}{}
			tag.Threads[id] = struct{}{}
			r.col.threadsByTag.Insert(tagID.String(), id.String())
		}
	}

	r.col.threads[id.String()] = t
	r.col.threadsByName.Insert(t.Name, id.String())
	r.col.threadsByCreated.Insert(t.Created, id.String())
	r.col.threadsByLastUpdated.Insert(t.Created, id.String())
	r.col.threadsByLatestMessageCreated.Insert(t.LatestMessageCreated, id.String())
	r.col.threadsByMessageCount.Insert(0, id.String())
	r.col.threadsByPinDisplayOrder.Insert(0, id.String())
	r.col.threadsByUser.Insert(ctx.PerformedBy.String(), id.String())
	r.col.messagesByThread[id.String()] = indexOrderedTimestamp()

	if u := r.col.users[ctx.PerformedBy.String()]; u != nil {
		r.col.usersByThreadCount.Remove(u.ThreadCount, u.ID.String())
		u.ThreadCount++
		u.ThreadsAuthored = append(u.ThreadsAuthored, id)
		r.col.usersByThreadCount.Insert(u.ThreadCount, u.ID.String())
	}
}

func (r *ThreadRepository) UpdateName(ctx ObserverContext, id idgen.ID, newName string) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	r.col.touchLastSeenLocked(ctx.PerformedBy, ctx.CurrentTime, r.limits.LastSeenUpdatePrecision)

	t := r.col.threads[id.String()]
	if t == nil {
		return NotFound
	}
	normalized, status := validateName(newName, r.limits.ThreadMinNameLength, r.limits.ThreadMaxNameLength)
	if status != OK {
		return status
	}
	r.col.threadsByName.Remove(t.Name, id.String())
	t.Name = normalized
	t.LastUpdated = entities.LastUpdated{At: ctx.CurrentTime, IP: sourceIPOrUnspecified(ctx.SourceIP), By: ctx.PerformedBy}
	r.col.threadsByName.Insert(t.Name, id.String())
	r.col.threadsByLastUpdated.Remove(t.LastUpdated.At, id.String())
	r.col.threadsByLastUpdated.Insert(t.LastUpdated.At, id.String())

	r.col.notify(WriteEvent{Type: EventUpdateThreadName, Ctx: ctx, Payload: t})
	return OK
}

func (r *ThreadRepository) UpdatePinOrder(ctx ObserverContext, id idgen.ID, order int) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()

	t := r.col.threads[id.String()]
	if t == nil {
		return NotFound
	}
	if t.PinDisplayOrder == order {
		return NoEffect
	}
	r.col.threadsByPinDisplayOrder.Remove(t.PinDisplayOrder, id.String())
	t.PinDisplayOrder = order
	r.col.threadsByPinDisplayOrder.Insert(order, id.String())

	r.col.notify(WriteEvent{Type: EventUpdateThreadPinOrder, Ctx: ctx, Payload: t})
	return OK
}

func (r *ThreadRepository) UpdateApproval(ctx ObserverContext, id idgen.ID, approved bool) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()

	t := r.col.threads[id.String()]
	if t == nil {
		return NotFound
	}
	if t.Approved == approved {
		return NoEffect
	}
	t.Approved = approved
	r.col.notify(WriteEvent{Type: EventUpdateThreadApproval, Ctx: ctx, Payload: t})
	return OK
}

// DeleteThread destroys all its messages and comments and removes it from
// every tag/subscriber set (§3 cascade rule).
func (r *ThreadRepository) DeleteThread(ctx ObserverContext, id idgen.ID) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	r.deleteThreadLocked(id)
	r.col.notify(WriteEvent{Type: EventDeleteThread, Ctx: ctx, Payload: id})
	return OK
}

func (r *ThreadRepository) deleteThreadLocked(id idgen.ID) StatusCode {
	t := r.col.threads[id.String()]
	if t == nil {
		return NotFound
	}

	for _, mid := range append([]idgen.ID{}, t.Messages...) {
		r.col.destroyMessageLocked(mid)
	}
	for tagID := range t.Tags {
		if tag := r.col.tags[tagID.String()]; tag != nil {
			delete(tag.Threads, id)
		}
		r.col.threadsByTag.Remove(tagID.String(), id.String())
	}
	for userID := range t.SubscribedUsers {
		if u := r.col.users[userID.String()]; u != nil {
			u.SubscribedThreads = removeID(u.SubscribedThreads, id)
		}
	}
	if t.CreatedBy != idgen.Zero {
		if u := r.col.users[t.CreatedBy.String()]; u != nil {
			r.col.usersByThreadCount.Remove(u.ThreadCount, u.ID.String())
			u.ThreadCount--
			u.ThreadsAuthored = removeID(u.ThreadsAuthored, id)
			r.col.usersByThreadCount.Insert(u.ThreadCount, u.ID.String())
		}
	}

	r.col.threadsByName.Remove(t.Name, id.String())
	r.col.threadsByCreated.Remove(t.Created, id.String())
	r.col.threadsByLastUpdated.Remove(t.LastUpdated.At, id.String())
	r.col.threadsByLatestMessageCreated.Remove(t.LatestMessageCreated, id.String())
	r.col.threadsByMessageCount.Remove(t.MessageCount, id.String())
	r.col.threadsByPinDisplayOrder.Remove(t.PinDisplayOrder, id.String())
	r.col.threadsByUser.Remove(t.CreatedBy.String(), id.String())
	delete(r.col.messagesByThread, id.String())
	delete(r.col.threads, id.String())
	return OK
}

// Subscribe / Unsubscribe maintain the thread<->user subscription set
// (§3).
func (r *ThreadRepository) Subscribe(ctx ObserverContext, threadID, userID idgen.ID) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	t := r.col.threads[threadID.String()]
	u := r.col.users[userID.String()]
	if t == nil || u == nil {
		return NotFound
	}
	if _, exists := t.SubscribedUsers[userID]; exists {
		return NoEffect
	}
	t.SubscribedUsers[userID] = struct{}{}
	u.SubscribedThreads = append(u.SubscribedThreads, threadID)
	r.col.notify(WriteEvent{Type: EventSubscribeToThread, Ctx: ctx, Payload: map[string]idgen.ID{"thread": threadID, "user": userID}})
	return OK
}

func (r *ThreadRepository) Unsubscribe(ctx ObserverContext, threadID, userID idgen.ID) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	t := r.col.threads[threadID.String()]
	u := r.col.users[userID.String()]
	if t == nil || u == nil {
		return NotFound
	}
	if _, exists := t.SubscribedUsers[userID]; !exists {
		return NoEffect
	}
	delete(t.SubscribedUsers, userID)
	u.SubscribedThreads = removeID(u.SubscribedThreads, threadID)
	r.col.notify(WriteEvent{Type: EventUnsubscribeFromThread, Ctx: ctx, Payload: map[string]idgen.ID{"thread": threadID, "user": userID}})
	return OK
}

func (r *ThreadRepository) AttachTag(ctx ObserverContext, threadID, tagID idgen.ID) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	t := r.col.threads[threadID.String()]
	tag := r.col.tags[tagID.String()]
	if t == nil || tag == nil {
		return NotFound
	}
	if _, exists := t.Tags[tagID]; exists {
		return NoEffect
	}
	t.Tags[tagID] = struct{}{}
	tag.Threads[threadID] = struct{}{}
	r.col.threadsByTag.Insert(tagID.String(), threadID.String())
	for catID := range tag.Categories {
		if cat := r.col.categories[catID.String()]; cat != nil {
			r.col.recomputeCategoryCountersLocked(catID.String(), cat)
		}
	}
	r.col.notify(WriteEvent{Type: EventAttachTagToThread, Ctx: ctx, Payload: map[string]idgen.ID{"thread": threadID, "tag": tagID}})
	return OK
}

func (r *ThreadRepository) DetachTag(ctx ObserverContext, threadID, tagID idgen.ID) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	t := r.col.threads[threadID.String()]
	tag := r.col.tags[tagID.String()]
	if t == nil || tag == nil {
		return NotFound
	}
	if _, exists := t.Tags[tagID]; !exists {
		return NoEffect
	}
	delete(t.Tags, tagID)
	delete(tag.Threads, threadID)
	r.col.threadsByTag.Remove(tagID.String(), threadID.String())
	for catID := range tag.Categories {
		if cat := r.col.categories[catID.String()]; cat != nil {
			r.col.recomputeCategoryCountersLocked(catID.String(), cat)
		}
	}
	r.col.notify(WriteEvent{Type: EventDetachTagFromThread, Ctx: ctx, Payload: map[string]idgen.ID{"thread": threadID, "tag": tagID}})
	return OK
}

// MergeThreads merges every thread in srcs into dst: messages are
// reparented, tag/subscriber sets unioned, and the source threads deleted
// (§9 "Supplemented features").
func (r *ThreadRepository) MergeThreads(ctx ObserverContext, dst idgen.ID, srcs []idgen.ID) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()

	dstThread := r.col.threads[dst.String()]
	if dstThread == nil {
		return NotFound
	}
	for _, src := range srcs {
		if src == dst {
			continue
		}
		srcThread := r.col.threads[src.String()]
		if srcThread == nil {
			continue
		}
		for _, mid := range srcThread.Messages {
			if m := r.col.messages[mid.String()]; m != nil {
				m.ParentThread = dst
				r.col.messagesByThread[dst.String()].Insert(m.Created, mid.String())
			}
		}
		dstThread.Messages = append(dstThread.Messages, srcThread.Messages...)
		for tagID := range srcThread.Tags {
			dstThread.Tags[tagID] = struct{}{}
			if tag := r.col.tags[tagID.String()]; tag != nil {
				delete(tag.Threads, src)
				tag.Threads[dst] = struct{}{}
			}
			r.col.threadsByTag.Remove(tagID.String(), src.String())
			r.col.threadsByTag.Insert(tagID.String(), dst.String())
		}
		for userID := range srcThread.SubscribedUsers {
			dstThread.SubscribedUsers[userID] = struct{}{}
			if u := r.col.users[userID.String()]; u != nil {
				u.SubscribedThreads = removeID(u.SubscribedThreads, src)
				u.SubscribedThreads = append(u.SubscribedThreads, dst)
			}
		}
		srcThread.Messages = nil
		srcThread.Tags = make(map[idgen.ID]struct{})
		srcThread.SubscribedUsers = make(map[idgen.ID]struct{})
		r.deleteThreadLocked(src)
	}
	r.col.recomputeThreadDerivedLocked(dst.String(), dstThread)

	r.col.notify(WriteEvent{Type: EventMergeThreads, Ctx: ctx, Payload: map[string]any{"dst": dst, "srcs": srcs}})
	return OK
}

// IncrementVisits batches a visit-count delta for a thread (§3 "visited
// counter... batched in memory between events"). The HTTP endpoint calls
// this synchronously per request; the event-log writer coalesces many
// calls into one INCREMENT_DISCUSSION_THREAD_NUMBER_OF_VISITS record on
// rotation/flush (see eventlog.Writer).
func (r *ThreadRepository) IncrementVisits(threadID idgen.ID, delta uint32) {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	if t := r.col.threads[threadID.String()]; t != nil {
		t.Visited += uint64(delta)
		r.col.pendingVisitDeltas[threadID.String()] += delta
	}
}

// ImportIncrementVisits applies a coalesced
// INCREMENT_DISCUSSION_THREAD_NUMBER_OF_VISITS record during replay,
// without re-accumulating into pendingVisitDeltas (§4.4 post-processing).
func (r *ThreadRepository) ImportIncrementVisits(threadID idgen.ID, count uint32) {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	if t := r.col.threads[threadID.String()]; t != nil {
		t.Visited += uint64(count)
	}
}

func (r *ThreadRepository) GetByID(id idgen.ID) (*entities.DiscussionThread, bool) {
	r.col.mu.RLock()
	defer r.col.mu.RUnlock()
	t, ok := r.col.threads[id.String()]
	return t, ok
}

// ThreadOrderBy enumerates the orderBy values for listing threads.
type ThreadOrderBy int

const (
	ThreadByName ThreadOrderBy = iota
	ThreadByCreated
	ThreadByLastUpdated
	ThreadByLatestMessageCreated
	ThreadByMessageCount
	ThreadByPinDisplayOrder
)

// ListThreads pages the requested index, honoring checkNotChangedSince
// against nothing in particular at list scope (the per-entity check
// applies to single-entity GETs; list endpoints always render, per the
// source's behavior carried through from §4.1).
func (r *ThreadRepository) ListThreads(dc DisplayContext, orderBy ThreadOrderBy) []*entities.DiscussionThread {
	r.col.mu.RLock()
	defer r.col.mu.RUnlock()

	ascending := dc.SortOrder == Ascending
	var ids []string
	switch orderBy {
	case ThreadByName:
		ids = r.col.threadsByName.Page(dc.PageNumber, r.limits.ThreadsPerPage, ascending)
	case ThreadByCreated:
		ids = r.col.threadsByCreated.Page(dc.PageNumber, r.limits.ThreadsPerPage, ascending)
	case ThreadByLastUpdated:
		ids = r.col.threadsByLastUpdated.Page(dc.PageNumber, r.limits.ThreadsPerPage, ascending)
	case ThreadByLatestMessageCreated:
		ids = r.col.threadsByLatestMessageCreated.Page(dc.PageNumber, r.limits.ThreadsPerPage, ascending)
	case ThreadByMessageCount:
		ids = r.col.threadsByMessageCount.Page(dc.PageNumber, r.limits.ThreadsPerPage, ascending)
	case ThreadByPinDisplayOrder:
		ids = r.col.threadsByPinDisplayOrder.Page(dc.PageNumber, r.limits.ThreadsPerPage, ascending)
	}
	out := make([]*entities.DiscussionThread, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.col.threads[id])
	}
	return out
}

// ListThreadsByTag returns every thread tagged with tagID, ordered by name.
func (r *ThreadRepository) ListThreadsByTag(tagID idgen.ID) []*entities.DiscussionThread {
	r.col.mu.RLock()
	defer r.col.mu.RUnlock()
	ids := r.col.threadsByTag.Get(tagID.String())
	out := make([]*entities.DiscussionThread, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.col.threads[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CheckNotModifiedSince implements the "not modified" short-circuit of
// §4.1: the query returns NotUpdatedSinceLastCheck without rendering a
// body when the parent thread has not changed since dc.CheckNotChangedSince.
func (r *ThreadRepository) CheckNotModifiedSince(id idgen.ID, dc DisplayContext) StatusCode {
	if dc.CheckNotChangedSince == 0 {
		return OK
	}
	r.col.mu.RLock()
	defer r.col.mu.RUnlock()
	t := r.col.threads[id.String()]
	if t == nil {
		return NotFound
	}
	if t.LastUpdated.At != 0 && t.LastUpdated.At <= dc.CheckNotChangedSince {
		return NotUpdatedSinceLastCheck
	}
	return OK
}
