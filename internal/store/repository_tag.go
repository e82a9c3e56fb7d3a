package store

import (
	"github.com/danij/Forum-sub001/internal/entities"
	"github.com/danij/Forum-sub001/internal/idgen"
)

// TagRepository groups commands/queries on DiscussionTag entities.
type TagRepository struct {
	col    *Collection
	limits *Limits
}

func NewTagRepository(col *Collection, limits *Limits) *TagRepository {
	return &TagRepository{col: col, limits: limits}
}

func (r *TagRepository) AddTag(ctx ObserverContext, name string, ui []byte) (StatusCode, *entities.DiscussionTag) {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	r.col.touchLastSeenLocked(ctx.PerformedBy, ctx.CurrentTime, r.limits.LastSeenUpdatePrecision)

	normalized, status := validateName(name, r.limits.TagMinNameLength, r.limits.TagMaxNameLength)
	if status != OK {
		return status, nil
	}
	if len(ui) > r.limits.TagMaxUIBinarySize {
		return ValueTooLong, nil
	}
	for _, id := range r.col.tagsByName.All() {
		if r.col.tags[id].Name == normalized {
			return AlreadyExists, nil
		}
	}

	id := idgen.NewID()
	t := entities.NewDiscussionTag(id)
	t.Created = ctx.CurrentTime
	t.CreationDetails = sourceIPOrUnspecified(ctx.SourceIP)
	t.Name = normalized
	t.UI = ui

	r.col.tags[id.String()] = t
	r.col.tagsByName.Insert(t.Name, id.String())

	r.col.notify(WriteEvent{Type: EventAddTag, Ctx: ctx, Payload: t})
	return OK, t
}

// ImportAddTag replays an ADD_NEW_DISCUSSION_TAG record, preserving the
// original id (§9 "direct-write entry surface").
func (r *TagRepository) ImportAddTag(ctx ObserverContext, id idgen.ID, name string, ui []byte) {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	if _, exists := r.col.tags[id.String()]; exists {
		return
	}
	t := entities.NewDiscussionTag(id)
	t.Created = ctx.CurrentTime
	t.CreationDetails = sourceIPOrUnspecified(ctx.SourceIP)
	t.Name = name
	t.UI = ui

	r.col.tags[id.String()] = t
	r.col.tagsByName.Insert(t.Name, id.String())
}

func (r *TagRepository) UpdateTagName(ctx ObserverContext, id idgen.ID, newName string) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	r.col.touchLastSeenLocked(ctx.PerformedBy, ctx.CurrentTime, r.limits.LastSeenUpdatePrecision)

	t := r.col.tags[id.String()]
	if t == nil {
		return NotFound
	}
	normalized, status := validateName(newName, r.limits.TagMinNameLength, r.limits.TagMaxNameLength)
	if status != OK {
		return status
	}
	if normalized == t.Name {
		return NoEffect
	}
	for _, otherID := range r.col.tagsByName.All() {
		if otherID != id.String() && r.col.tags[otherID].Name == normalized {
			return AlreadyExists
		}
	}

	r.col.tagsByName.Remove(t.Name, id.String())
	t.Name = normalized
	t.LastUpdated = entities.LastUpdated{At: ctx.CurrentTime, IP: sourceIPOrUnspecified(ctx.SourceIP), By: ctx.PerformedBy}
	r.col.tagsByName.Insert(t.Name, id.String())

	r.col.notify(WriteEvent{Type: EventUpdateTagName, Ctx: ctx, Payload: t})
	return OK
}

func (r *TagRepository) UpdateTagUI(ctx ObserverContext, id idgen.ID, ui []byte) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	r.col.touchLastSeenLocked(ctx.PerformedBy, ctx.CurrentTime, r.limits.LastSeenUpdatePrecision)

	t := r.col.tags[id.String()]
	if t == nil {
		return NotFound
	}
	if len(ui) > r.limits.TagMaxUIBinarySize {
		return ValueTooLong
	}
	t.UI = ui
	t.LastUpdated = entities.LastUpdated{At: ctx.CurrentTime, IP: sourceIPOrUnspecified(ctx.SourceIP), By: ctx.PerformedBy}
	r.col.notify(WriteEvent{Type: EventUpdateTagUI, Ctx: ctx, Payload: t})
	return OK
}

// DeleteTag cascades per §3: "deleting a tag removes it from every
// thread/category".
func (r *TagRepository) DeleteTag(ctx ObserverContext, id idgen.ID) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()

	t := r.col.tags[id.String()]
	if t == nil {
		return NotFound
	}

	for threadID := range t.Threads {
		if th := r.col.threads[threadID.String()]; th != nil {
			delete(th.Tags, id)
			r.col.threadsByTag.Remove(id.String(), threadID.String())
		}
	}
	for catID := range t.Categories {
		if cat := r.col.categories[catID.String()]; cat != nil {
			delete(cat.Tags, id)
		}
	}

	r.col.tagsByName.Remove(t.Name, id.String())
	delete(r.col.tags, id.String())

	for catID := range t.Categories {
		if cat := r.col.categories[catID.String()]; cat != nil {
			r.col.recomputeCategoryCountersLocked(catID.String(), cat)
		}
	}

	r.col.notify(WriteEvent{Type: EventDeleteTag, Ctx: ctx, Payload: t})
	return OK
}

// MergeTags merges src into dst: every thread/category referencing src is
// repointed to dst, and src is deleted (§9 "Supplemented features": tag
// merge, named but unspecified by the distillation).
func (r *TagRepository) MergeTags(ctx ObserverContext, dst, src idgen.ID) StatusCode {
	r.col.mu.Lock()

	dstTag := r.col.tags[dst.String()]
	srcTag := r.col.tags[src.String()]
	if dstTag == nil || srcTag == nil {
		r.col.mu.Unlock()
		return NotFound
	}
	if dst == src {
		r.col.mu.Unlock()
		return NoEffect
	}

	for threadID := range srcTag.Threads {
		if th := r.col.threads[threadID.String()]; th != nil {
			delete(th.Tags, src)
			th.Tags[dst] = struct{}{}
			r.col.threadsByTag.Remove(src.String(), threadID.String())
			r.col.threadsByTag.Insert(dst.String(), threadID.String())
			dstTag.Threads[threadID] = struct{}{}
		}
	}
	for catID := range srcTag.Categories {
		if cat := r.col.categories[catID.String()]; cat != nil {
			delete(cat.Tags, src)
			cat.Tags[dst] = struct{}{}
			dstTag.Categories[catID] = struct{}{}
		}
	}

	r.col.tagsByName.Remove(srcTag.Name, src.String())
	delete(r.col.tags, src.String())

	r.col.notify(WriteEvent{Type: EventMergeTags, Ctx: ctx, Payload: map[string]idgen.ID{"dst": dst, "src": src}})
	r.col.mu.Unlock()
	return OK
}

func (r *TagRepository) GetByID(id idgen.ID) (*entities.DiscussionTag, bool) {
	r.col.mu.RLock()
	defer r.col.mu.RUnlock()
	t, ok := r.col.tags[id.String()]
	return t, ok
}

func (r *TagRepository) ListTags(dc DisplayContext) []*entities.DiscussionTag {
	r.col.mu.RLock()
	defer r.col.mu.RUnlock()
	ascending := dc.SortOrder == Ascending
	ids := r.col.tagsByName.Page(dc.PageNumber, r.limits.TagsPerPage, ascending)
	out := make([]*entities.DiscussionTag, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.col.tags[id])
	}
	return out
}
