package store

import (
	"sort"

	"github.com/danij/Forum-sub001/internal/entities"
	"github.com/danij/Forum-sub001/internal/idgen"
)

// CategoryRepository groups commands/queries on DiscussionCategory
// entities. The category graph is a forest (§3 invariant): Parent == Zero
// means root, and every reparent is cycle-checked before being applied.
type CategoryRepository struct {
	col    *Collection
	limits *Limits
}

func NewCategoryRepository(col *Collection, limits *Limits) *CategoryRepository {
	return &CategoryRepository{col: col, limits: limits}
}

func (r *CategoryRepository) AddCategory(ctx ObserverContext, name, description string, parent idgen.ID) (StatusCode, *entities.DiscussionCategory) {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	r.col.touchLastSeenLocked(ctx.PerformedBy, ctx.CurrentTime, r.limits.LastSeenUpdatePrecision)

	normalized, status := validateName(name, r.limits.CategoryMinNameLength, r.limits.CategoryMaxNameLength)
	if status != OK {
		return status, nil
	}
	if len(description) > r.limits.CategoryMaxDescriptionLength {
		return ValueTooLong, nil
	}
	if !parent.IsZero() {
		if r.col.categories[parent.String()] == nil {
			return NotFound, nil
		}
	}
	for _, sib := range r.siblingsLocked(parent) {
		if r.col.categories[sib].Name == normalized {
			return AlreadyExists, nil
		}
	}

	id := idgen.NewID()
	cat := entities.NewDiscussionCategory(id)
	cat.Created = ctx.CurrentTime
	cat.CreationDetails = sourceIPOrUnspecified(ctx.SourceIP)
	cat.Name = normalized
	cat.Description = description
	cat.Parent = parent

	r.col.categories[id.String()] = cat
	r.col.categoriesByName.Insert(cat.Name, id.String())
	if !parent.IsZero() {
		p := r.col.categories[parent.String()]
		cat.DisplayOrder = len(p.Children)
		p.Children = append(p.Children, id)
	}

	r.col.notify(WriteEvent{Type: EventAddCategory, Ctx: ctx, Payload: cat})
	return OK, cat
}

// ImportAddCategory replays an ADD_NEW_DISCUSSION_CATEGORY record,
// preserving the original id (§9 "direct-write entry surface").
func (r *CategoryRepository) ImportAddCategory(ctx ObserverContext, id, parent idgen.ID, name, description string) {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	if _, exists := r.col.categories[id.String()]; exists {
		return
	}
	cat := entities.NewDiscussionCategory(id)
	cat.Created = ctx.CurrentTime
	cat.CreationDetails = sourceIPOrUnspecified(ctx.SourceIP)
	cat.Name = name
	cat.Description = description
	cat.Parent = parent

	r.col.categories[id.String()] = cat
	r.col.categoriesByName.Insert(cat.Name, id.String())
	if !parent.IsZero() {
		if p := r.col.categories[parent.String()]; p != nil {
			cat.DisplayOrder = len(p.Children)
			p.Children = append(p.Children, id)
		}
	}
}

func (r *CategoryRepository) siblingsLocked(parent idgen.ID) []string {
	if parent.IsZero() {
		var out []string
		for id, cat := range r.col.categories {
			if cat.Parent.IsZero() {
				out = append(out, id)
			}
		}
		return out
	}
	p := r.col.categories[parent.String()]
	if p == nil {
		return nil
	}
	out := make([]string, len(p.Children))
	for i, c := range p.Children {
		out[i] = c.String()
	}
	return out
}

func (r *CategoryRepository) UpdateName(ctx ObserverContext, id idgen.ID, newName string) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	r.col.touchLastSeenLocked(ctx.PerformedBy, ctx.CurrentTime, r.limits.LastSeenUpdatePrecision)

	cat := r.col.categories[id.String()]
	if cat == nil {
		return NotFound
	}
	normalized, status := validateName(newName, r.limits.CategoryMinNameLength, r.limits.CategoryMaxNameLength)
	if status != OK {
		return status
	}
	for _, sib := range r.siblingsLocked(cat.Parent) {
		if sib != id.String() && r.col.categories[sib].Name == normalized {
			return AlreadyExists
		}
	}

	r.col.categoriesByName.Remove(cat.Name, id.String())
	cat.Name = normalized
	cat.LastUpdated = entities.LastUpdated{At: ctx.CurrentTime, IP: sourceIPOrUnspecified(ctx.SourceIP), By: ctx.PerformedBy}
	r.col.categoriesByName.Insert(cat.Name, id.String())

	r.col.notify(WriteEvent{Type: EventUpdateCategoryName, Ctx: ctx, Payload: cat})
	return OK
}

func (r *CategoryRepository) UpdateDescription(ctx ObserverContext, id idgen.ID, description string) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	r.col.touchLastSeenLocked(ctx.PerformedBy, ctx.CurrentTime, r.limits.LastSeenUpdatePrecision)

	cat := r.col.categories[id.String()]
	if cat == nil {
		return NotFound
	}
	if len(description) > r.limits.CategoryMaxDescriptionLength {
		return ValueTooLong
	}
	cat.Description = description
	cat.LastUpdated = entities.LastUpdated{At: ctx.CurrentTime, IP: sourceIPOrUnspecified(ctx.SourceIP), By: ctx.PerformedBy}
	r.col.notify(WriteEvent{Type: EventUpdateCategoryDescription, Ctx: ctx, Payload: cat})
	return OK
}

// isDescendantLocked reports whether candidate is node or a descendant of
// node, used by the reparent cycle check (§3 invariant, §8 scenario 5).
func (r *CategoryRepository) isDescendantLocked(node, candidate idgen.ID) bool {
	if node == candidate {
		return true
	}
	n := r.col.categories[node.String()]
	if n == nil {
		return false
	}
	for _, child := range n.Children {
		if r.isDescendantLocked(child, candidate) {
			return true
		}
	}
	return false
}

// Reparent changes a category's parent, rejecting moves that would
// introduce a cycle (§3, §8 scenario 5).
func (r *CategoryRepository) Reparent(ctx ObserverContext, id, newParent idgen.ID) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()

	cat := r.col.categories[id.String()]
	if cat == nil {
		return NotFound
	}
	if !newParent.IsZero() && r.col.categories[newParent.String()] == nil {
		return NotFound
	}
	if cat.Parent == newParent {
		return NoEffect
	}
	// A cycle would be created iff newParent is id itself or one of id's
	// own descendants.
	if r.isDescendantLocked(id, newParent) {
		return CircularReferenceNotAllowed
	}

	if !cat.Parent.IsZero() {
		if oldParent := r.col.categories[cat.Parent.String()]; oldParent != nil {
			oldParent.Children = removeID(oldParent.Children, id)
			renumber(r.col, oldParent)
		}
	}
	cat.Parent = newParent
	if !newParent.IsZero() {
		p := r.col.categories[newParent.String()]
		cat.DisplayOrder = len(p.Children)
		p.Children = append(p.Children, id)
	}
	cat.LastUpdated = entities.LastUpdated{At: ctx.CurrentTime, IP: sourceIPOrUnspecified(ctx.SourceIP), By: ctx.PerformedBy}

	r.col.notify(WriteEvent{Type: EventReparentCategory, Ctx: ctx, Payload: cat})
	return OK
}

func removeID(list []idgen.ID, target idgen.ID) []idgen.ID {
	out := list[:0]
	for _, id := range list {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

func renumber(col *Collection, parent *entities.DiscussionCategory) {
	for i, childID := range parent.Children {
		if child := col.categories[childID.String()]; child != nil {
			child.DisplayOrder = i
		}
	}
}

// Reorder changes a child's DisplayOrder among its siblings (§3 "child
// categories ordered by displayOrder").
func (r *CategoryRepository) Reorder(ctx ObserverContext, id idgen.ID, newOrder int) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()

	cat := r.col.categories[id.String()]
	if cat == nil {
		return NotFound
	}
	var siblings []idgen.ID
	if cat.Parent.IsZero() {
		return NotAllowed // root set has no defined order among itself
	}
	p := r.col.categories[cat.Parent.String()]
	siblings = p.Children

	if newOrder < 0 || newOrder >= len(siblings) {
		return InvalidParameters
	}
	current := cat.DisplayOrder
	if current == newOrder {
		return NoEffect
	}

	reordered := removeID(append([]idgen.ID{}, siblings...), id)
	insertPos := newOrder
	if insertPos > len(reordered) {
		insertPos = len(reordered)
	}
	reordered = append(reordered, idgen.Zero)
	copy(reordered[insertPos+1:], reordered[insertPos:])
	reordered[insertPos] = id
	p.Children = reordered
	renumber(r.col, p)

	cat.LastUpdated = entities.LastUpdated{At: ctx.CurrentTime, IP: sourceIPOrUnspecified(ctx.SourceIP), By: ctx.PerformedBy}
	r.col.notify(WriteEvent{Type: EventReorderCategory, Ctx: ctx, Payload: cat})
	return OK
}

// AttachTag / DetachTag maintain the many-to-many category<->tag set
// (§3) and recompute the category's derived counters.
func (r *CategoryRepository) AttachTag(ctx ObserverContext, categoryID, tagID idgen.ID) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	cat := r.col.categories[categoryID.String()]
	tag := r.col.tags[tagID.String()]
	if cat == nil || tag == nil {
		return NotFound
	}
	if _, exists := cat.Tags[tagID]; exists {
		return NoEffect
	}
	cat.Tags[tagID] = struct{}{}
	tag.Categories[categoryID] = struct{}{}
	r.col.recomputeCategoryCountersLocked(categoryID.String(), cat)
	r.col.notify(WriteEvent{Type: EventAttachTagToCategory, Ctx: ctx, Payload: map[string]idgen.ID{"category": categoryID, "tag": tagID}})
	return OK
}

func (r *CategoryRepository) DetachTag(ctx ObserverContext, categoryID, tagID idgen.ID) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()
	cat := r.col.categories[categoryID.String()]
	tag := r.col.tags[tagID.String()]
	if cat == nil || tag == nil {
		return NotFound
	}
	if _, exists := cat.Tags[tagID]; !exists {
		return NoEffect
	}
	delete(cat.Tags, tagID)
	delete(tag.Categories, categoryID)
	r.col.recomputeCategoryCountersLocked(categoryID.String(), cat)
	r.col.notify(WriteEvent{Type: EventDetachTagFromCategory, Ctx: ctx, Payload: map[string]idgen.ID{"category": categoryID, "tag": tagID}})
	return OK
}

// DeleteCategory re-parents children to the deleted category's own parent
// (or to root if none), per §3's cascade rule.
func (r *CategoryRepository) DeleteCategory(ctx ObserverContext, id idgen.ID) StatusCode {
	r.col.mu.Lock()
	defer r.col.mu.Unlock()

	cat := r.col.categories[id.String()]
	if cat == nil {
		return NotFound
	}

	for _, childID := range cat.Children {
		if child := r.col.categories[childID.String()]; child != nil {
			child.Parent = cat.Parent
			if !cat.Parent.IsZero() {
				if newParent := r.col.categories[cat.Parent.String()]; newParent != nil {
					child.DisplayOrder = len(newParent.Children)
					newParent.Children = append(newParent.Children, childID)
				}
			}
		}
	}
	if !cat.Parent.IsZero() {
		if p := r.col.categories[cat.Parent.String()]; p != nil {
			p.Children = removeID(p.Children, id)
			renumber(r.col, p)
		}
	}
	for tagID := range cat.Tags {
		if tag := r.col.tags[tagID.String()]; tag != nil {
			delete(tag.Categories, id)
		}
	}

	r.col.categoriesByName.Remove(cat.Name, id.String())
	delete(r.col.categories, id.String())

	r.col.notify(WriteEvent{Type: EventDeleteCategory, Ctx: ctx, Payload: cat})
	return OK
}

func (r *CategoryRepository) GetByID(id idgen.ID) (*entities.DiscussionCategory, bool) {
	r.col.mu.RLock()
	defer r.col.mu.RUnlock()
	cat, ok := r.col.categories[id.String()]
	return cat, ok
}

// ListRootCategories returns the root set (§3 invariant: "the root set
// covers every category" — every category is reachable from some root by
// following Parent links).
func (r *CategoryRepository) ListRootCategories() []*entities.DiscussionCategory {
	r.col.mu.RLock()
	defer r.col.mu.RUnlock()
	var out []*entities.DiscussionCategory
	for _, cat := range r.col.categories {
		if cat.Parent.IsZero() {
			out = append(out, cat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ListChildren returns categoryID's children in DisplayOrder.
func (r *CategoryRepository) ListChildren(categoryID idgen.ID) []*entities.DiscussionCategory {
	r.col.mu.RLock()
	defer r.col.mu.RUnlock()
	cat := r.col.categories[categoryID.String()]
	if cat == nil {
		return nil
	}
	out := make([]*entities.DiscussionCategory, 0, len(cat.Children))
	for _, id := range cat.Children {
		out = append(out, r.col.categories[id.String()])
	}
	return out
}
