package eventlog

import (
	"github.com/danij/Forum-sub001/internal/entities"
	"github.com/danij/Forum-sub001/internal/idgen"
	"github.com/danij/Forum-sub001/internal/store"
)

// Repositories bundles the direct-write entry points the importer
// dispatches decoded records into (§9 "direct-write entry surface").
type Repositories struct {
	Users      *store.UserRepository
	Threads    *store.ThreadRepository
	Messages   *store.MessageRepository
	Comments   *store.CommentRepository
	Tags       *store.TagRepository
	Categories *store.CategoryRepository
	Collection *store.Collection
}

// decodeContextV1 reads §6.1's context-version-1 layout.
func decodeContextV1(r *reader) store.ObserverContext {
	ts := idgen.Timestamp(r.int64())
	user := r.id()
	ip := r.ip()
	return store.ObserverContext{PerformedBy: user, CurrentTime: ts, SourceIP: ip}
}

func encodeContextV1(c *cursor, ctx store.ObserverContext) {
	c.putInt64(int64(ctx.CurrentTime))
	c.putID(ctx.PerformedBy)
	c.putIP(ctx.SourceIP)
}

const contextVersion1 = 1

// applyFunc decodes a payload (after the shared header + context) and
// dispatches it into repos.
type applyFunc func(repos *Repositories, ctx store.ObserverContext, r *reader) error

// codecEntry binds one eventType to its encoder (WriteEvent -> payload
// bytes appended to c, choosing the wire version the payload requires)
// and the set of wire versions the importer accepts on replay. Every event
// type but ADD_NEW_DISCUSSION_THREAD_MESSAGE has exactly one version; that
// one has two, since §6.1 requires both its inline (v1) and mapped-file
// (v2) storage variants to import correctly.
type codecEntry struct {
	versionFor func(evt store.WriteEvent) uint16
	encode     func(c *cursor, evt store.WriteEvent)
	applyFor   map[uint16]applyFunc
}

// simpleCodec builds a codecEntry for the common case of one event type,
// one wire version.
func simpleCodec(version uint16, encode func(c *cursor, evt store.WriteEvent), apply applyFunc) codecEntry {
	return codecEntry{
		versionFor: func(store.WriteEvent) uint16 { return version },
		encode:     encode,
		applyFor:   map[uint16]applyFunc{version: apply},
	}
}

var codecTable map[store.EventType]codecEntry

func init() {
	codecTable = map[store.EventType]codecEntry{
		store.EventAddUser: simpleCodec(1, encodeAddUser, applyAddUser),
		store.EventUpdateUserName: simpleCodec(1, encodeUserField(func(u *entities.User) string { return u.Name }), applyUpdateUserName),
		store.EventUpdateUserInfo: simpleCodec(1, encodeUserBytes(func(u *entities.User) []byte { return u.Info }), applyUpdateUserInfo),
		store.EventUpdateUserTitle: simpleCodec(1, encodeUserField(func(u *entities.User) string { return u.Title }), applyUpdateUserTitle),
		store.EventUpdateUserSignature: simpleCodec(1, encodeUserField(func(u *entities.User) string { return u.Signature }), applyUpdateUserSignature),
		store.EventUpdateUserLogo: simpleCodec(1, encodeUserBytes(func(u *entities.User) []byte { return u.Logo }), applyUpdateUserLogo),
		store.EventDeleteUser: simpleCodec(1, encodeIDPayload, applyDeleteUser),

		store.EventAddThread: simpleCodec(1, encodeAddThread, applyAddThread),
		store.EventUpdateThreadName: simpleCodec(1, encodeThreadField(func(t *entities.DiscussionThread) string { return t.Name }), applyUpdateThreadName),
		store.EventUpdateThreadPinOrder: simpleCodec(1, encodeThreadPinOrder, applyUpdateThreadPinOrder),
		store.EventUpdateThreadApproval: simpleCodec(1, encodeThreadApproval, applyUpdateThreadApproval),
		store.EventDeleteThread: simpleCodec(1, encodeIDPayload, applyDeleteThread),
		store.EventSubscribeToThread: simpleCodec(1, encodeIDPair("thread", "user"), applySubscribe),
		store.EventUnsubscribeFromThread: simpleCodec(1, encodeIDPair("thread", "user"), applyUnsubscribe),
		store.EventMergeThreads: simpleCodec(1, encodeMergeThreads, applyMergeThreads),
		store.EventAttachTagToThread: simpleCodec(1, encodeIDPair("thread", "tag"), applyAttachTagToThread),
		store.EventDetachTagFromThread: simpleCodec(1, encodeIDPair("thread", "tag"), applyDetachTagFromThread),
		store.EventIncrementThreadVisits: simpleCodec(1, encodeIncrementVisits, applyIncrementVisits),

		store.EventAddMessage: {
			versionFor: addMessageVersion,
			encode:     encodeAddMessage,
			applyFor: map[uint16]applyFunc{
				1: applyAddMessageV1,
				2: applyAddMessageV2,
			},
		},
		store.EventEditMessageContent: simpleCodec(1, encodeEditMessageContent, applyEditMessageContent),
		store.EventMoveMessages: simpleCodec(1, encodeMoveMessages, applyMoveMessages),
		store.EventDeleteMessage: simpleCodec(1, encodeIDPayload, applyDeleteMessage),
		store.EventUpVote: simpleCodec(1, encodeIDPair("message", "user"), applyUpVote),
		store.EventDownVote: simpleCodec(1, encodeIDPair("message", "user"), applyDownVote),
		store.EventResetVote: simpleCodec(1, encodeIDPair("message", "user"), applyResetVote),
		store.EventUpdateMessageApproval: simpleCodec(1, encodeMessageApproval, applyUpdateMessageApproval),

		store.EventAddComment: simpleCodec(1, encodeAddComment, applyAddComment),
		store.EventSolveComment: simpleCodec(1, encodeSolveComment, applySolveComment),
		store.EventDeleteComment: simpleCodec(1, encodeIDPayload, applyDeleteComment),

		store.EventAddTag: simpleCodec(1, encodeAddTag, applyAddTag),
		store.EventUpdateTagName: simpleCodec(1, encodeTagField(func(t *entities.DiscussionTag) string { return t.Name }), applyUpdateTagName),
		store.EventUpdateTagUI: simpleCodec(1, encodeTagUI, applyUpdateTagUI),
		store.EventDeleteTag: simpleCodec(1, encodeIDPayload, applyDeleteTag),
		store.EventMergeTags: simpleCodec(1, encodeIDPair("dst", "src"), applyMergeTags),

		store.EventAddCategory: simpleCodec(1, encodeAddCategory, applyAddCategory),
		store.EventUpdateCategoryName: simpleCodec(1, encodeCategoryField(func(c *entities.DiscussionCategory) string { return c.Name }), applyUpdateCategoryName),
		store.EventUpdateCategoryDescription: simpleCodec(1, encodeCategoryDescription, applyUpdateCategoryDescription),
		store.EventReparentCategory: simpleCodec(1, encodeCategoryParent, applyReparentCategory),
		store.EventReorderCategory: simpleCodec(1, encodeCategoryOrder, applyReorderCategory),
		store.EventAttachTagToCategory: simpleCodec(1, encodeIDPair("category", "tag"), applyAttachTagToCategory),
		store.EventDetachTagFromCategory: simpleCodec(1, encodeIDPair("category", "tag"), applyDetachTagFromCategory),
		store.EventDeleteCategory: simpleCodec(1, encodeIDPayload, applyDeleteCategory),

		store.EventUpdateRequiredPrivilege: simpleCodec(1, encodeRequiredPrivilegeChange, applyRequiredPrivilegeChange),
		store.EventUpdateAssignedPrivilege: simpleCodec(1, encodeAssignedPrivilegeChange, applyAssignedPrivilegeChange),
	}
}

// ---- generic helpers ----

func encodeIDPayload(c *cursor, evt store.WriteEvent) {
	c.putID(evt.Payload.(idgen.ID))
}

func encodeIDPair(aKey, bKey string) func(c *cursor, evt store.WriteEvent) {
	return func(c *cursor, evt store.WriteEvent) {
		m := evt.Payload.(map[string]idgen.ID)
		c.putID(m[aKey])
		c.putID(m[bKey])
	}
}

func decodeIDPair(r *reader) (idgen.ID, idgen.ID) {
	a := r.id()
	b := r.id()
	return a, b
}

func encodeUserField(get func(*entities.User) string) func(c *cursor, evt store.WriteEvent) {
	return func(c *cursor, evt store.WriteEvent) {
		u := evt.Payload.(*entities.User)
		c.putID(u.ID)
		c.putString(get(u))
	}
}

func encodeUserBytes(get func(*entities.User) []byte) func(c *cursor, evt store.WriteEvent) {
	return func(c *cursor, evt store.WriteEvent) {
		u := evt.Payload.(*entities.User)
		c.putID(u.ID)
		c.putBytes(get(u))
	}
}

func encodeThreadField(get func(*entities.DiscussionThread) string) func(c *cursor, evt store.WriteEvent) {
	return func(c *cursor, evt store.WriteEvent) {
		t := evt.Payload.(*entities.DiscussionThread)
		c.putID(t.ID)
		c.putString(get(t))
	}
}

func encodeTagField(get func(*entities.DiscussionTag) string) func(c *cursor, evt store.WriteEvent) {
	return func(c *cursor, evt store.WriteEvent) {
		t := evt.Payload.(*entities.DiscussionTag)
		c.putID(t.ID)
		c.putString(get(t))
	}
}

func encodeCategoryField(get func(*entities.DiscussionCategory) string) func(c *cursor, evt store.WriteEvent) {
	return func(c *cursor, evt store.WriteEvent) {
		cat := evt.Payload.(*entities.DiscussionCategory)
		c.putID(cat.ID)
		c.putString(get(cat))
	}
}

// ---- user ----

func encodeAddUser(c *cursor, evt store.WriteEvent) {
	u := evt.Payload.(*entities.User)
	c.putID(u.ID)
	c.putString(u.Name)
	c.putString(u.Auth)
}

func applyAddUser(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	name := r.string()
	auth := r.string()
	repos.Users.ImportAddUser(ctx, id, name, auth)
	return nil
}

func applyUpdateUserName(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	name := r.string()
	repos.Users.UpdateUserName(ctx, id, name)
	return nil
}

func applyUpdateUserInfo(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	info := r.bytesVal()
	repos.Users.UpdateUserInfo(ctx, id, info)
	return nil
}

func applyUpdateUserTitle(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	title := r.string()
	repos.Users.UpdateUserTitle(ctx, id, title)
	return nil
}

func applyUpdateUserSignature(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	sig := r.string()
	repos.Users.UpdateUserSignature(ctx, id, sig)
	return nil
}

func applyUpdateUserLogo(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	logo := r.bytesVal()
	repos.Users.UpdateUserLogo(ctx, id, logo, 0, 0)
	return nil
}

func applyDeleteUser(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	repos.Users.DeleteUser(ctx, id)
	return nil
}

// ---- thread ----

func encodeAddThread(c *cursor, evt store.WriteEvent) {
	t := evt.Payload.(*entities.DiscussionThread)
	c.putID(t.ID)
	c.putString(t.Name)
	tags := keysOfIDSet(t.Tags)
	c.putUint32(uint32(len(tags)))
	for _, tagID := range tags {
		c.putID(tagID)
	}
}

func applyAddThread(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	name := r.string()
	n := r.uint32()
	tags := make([]idgen.ID, 0, n)
	for i := uint32(0); i < n; i++ {
		tags = append(tags, r.id())
	}
	repos.Threads.ImportAddThread(ctx, id, name, tags)
	return nil
}

func applyUpdateThreadName(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	name := r.string()
	repos.Threads.UpdateName(ctx, id, name)
	return nil
}

func encodeThreadPinOrder(c *cursor, evt store.WriteEvent) {
	t := evt.Payload.(*entities.DiscussionThread)
	c.putID(t.ID)
	c.putUint32(uint32(t.PinDisplayOrder))
}

func applyUpdateThreadPinOrder(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	order := int(r.uint32())
	repos.Threads.UpdatePinOrder(ctx, id, order)
	return nil
}

func encodeThreadApproval(c *cursor, evt store.WriteEvent) {
	t := evt.Payload.(*entities.DiscussionThread)
	c.putID(t.ID)
	c.putBool(t.Approved)
}

func applyUpdateThreadApproval(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	approved := r.boolVal()
	repos.Threads.UpdateApproval(ctx, id, approved)
	return nil
}

func applyDeleteThread(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	repos.Threads.DeleteThread(ctx, id)
	return nil
}

func applySubscribe(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	thread, user := decodeIDPair(r)
	repos.Threads.Subscribe(ctx, thread, user)
	return nil
}

func applyUnsubscribe(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	thread, user := decodeIDPair(r)
	repos.Threads.Unsubscribe(ctx, thread, user)
	return nil
}

func applyAttachTagToThread(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	thread, tag := decodeIDPair(r)
	repos.Threads.AttachTag(ctx, thread, tag)
	return nil
}

func applyDetachTagFromThread(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	thread, tag := decodeIDPair(r)
	repos.Threads.DetachTag(ctx, thread, tag)
	return nil
}

func encodeMergeThreads(c *cursor, evt store.WriteEvent) {
	m := evt.Payload.(map[string]any)
	c.putID(m["dst"].(idgen.ID))
	srcs := m["srcs"].([]idgen.ID)
	c.putUint32(uint32(len(srcs)))
	for _, s := range srcs {
		c.putID(s)
	}
}

func applyMergeThreads(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	dst := r.id()
	n := r.uint32()
	srcs := make([]idgen.ID, 0, n)
	for i := uint32(0); i < n; i++ {
		srcs = append(srcs, r.id())
	}
	repos.Threads.MergeThreads(ctx, dst, srcs)
	return nil
}

func encodeIncrementVisits(c *cursor, evt store.WriteEvent) {
	m := evt.Payload.(map[string]any)
	c.putID(m["thread"].(idgen.ID))
	c.putUint32(m["count"].(uint32))
}

func applyIncrementVisits(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	thread := r.id()
	count := r.uint32()
	repos.Threads.ImportIncrementVisits(thread, count)
	return nil
}

// ---- message ----

// addMessageVersion picks the wire version ADD_NEW_DISCUSSION_THREAD_MESSAGE
// is encoded at: v1 inlines the message bytes, v2 stores a (size, offset)
// pointer into the mapped messages file. The version field in the record
// header carries this distinction, so the payload itself carries no
// discriminator byte.
func addMessageVersion(evt store.WriteEvent) uint16 {
	m := evt.Payload.(*entities.DiscussionThreadMessage)
	if m.Content.Kind == entities.ContentMapped {
		return 2
	}
	return 1
}

func encodeAddMessage(c *cursor, evt store.WriteEvent) {
	m := evt.Payload.(*entities.DiscussionThreadMessage)
	c.putID(m.ID)
	c.putID(m.ParentThread)
	switch m.Content.Kind {
	case entities.ContentMapped:
		c.putUint32(m.Content.Size)
		c.putUint64(m.Content.Offset)
	default:
		c.putBytes(m.Content.Inline)
	}
}

// applyAddMessageV1 decodes the inline-bytes layout.
func applyAddMessageV1(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	threadID := r.id()
	content := entities.MessageContent{Kind: entities.ContentInline, Inline: r.bytesVal()}
	if r.err != nil {
		return r.err
	}
	repos.Messages.ImportAddMessage(ctx, id, threadID, content)
	return nil
}

// applyAddMessageV2 decodes the mapped-file (size, offset) layout.
func applyAddMessageV2(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	threadID := r.id()
	size := r.uint32()
	offset := r.uint64()
	if r.err != nil {
		return r.err
	}
	content := entities.MessageContent{Kind: entities.ContentMapped, Size: size, Offset: offset}
	repos.Messages.ImportAddMessage(ctx, id, threadID, content)
	return nil
}

func encodeEditMessageContent(c *cursor, evt store.WriteEvent) {
	m := evt.Payload.(*entities.DiscussionThreadMessage)
	c.putID(m.ID)
	c.putBytes(m.Content.Inline)
	reason := ""
	if m.LastUpdated.Reason != "" {
		reason = m.LastUpdated.Reason
	}
	c.putString(reason)
}

func applyEditMessageContent(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	content := r.bytesVal()
	reason := r.string()
	repos.Messages.EditContent(ctx, id, string(content), reason)
	return nil
}

func encodeMoveMessages(c *cursor, evt store.WriteEvent) {
	m := evt.Payload.(map[string]any)
	c.putID(m["dst"].(idgen.ID))
	ids := m["ids"].([]idgen.ID)
	c.putUint32(uint32(len(ids)))
	for _, id := range ids {
		c.putID(id)
	}
}

func applyMoveMessages(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	dst := r.id()
	n := r.uint32()
	ids := make([]idgen.ID, 0, n)
	for i := uint32(0); i < n; i++ {
		ids = append(ids, r.id())
	}
	repos.Messages.MoveMessages(ctx, dst, ids)
	return nil
}

func applyDeleteMessage(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	repos.Messages.DeleteMessage(ctx, id)
	return nil
}

func applyUpVote(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	msg, user := decodeIDPair(r)
	repos.Messages.UpVote(ctx, msg, user)
	return nil
}

func applyDownVote(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	msg, user := decodeIDPair(r)
	repos.Messages.DownVote(ctx, msg, user)
	return nil
}

func applyResetVote(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	msg, user := decodeIDPair(r)
	repos.Messages.ResetVote(ctx, msg, user)
	return nil
}

func encodeMessageApproval(c *cursor, evt store.WriteEvent) {
	m := evt.Payload.(*entities.DiscussionThreadMessage)
	c.putID(m.ID)
	c.putBool(m.Approved)
}

func applyUpdateMessageApproval(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	approved := r.boolVal()
	repos.Messages.UpdateApproval(ctx, id, approved)
	return nil
}

// ---- comment ----

func encodeAddComment(c *cursor, evt store.WriteEvent) {
	cm := evt.Payload.(*entities.MessageComment)
	c.putID(cm.ID)
	c.putID(cm.ParentMessage)
	c.putString(cm.Content)
}

func applyAddComment(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	messageID := r.id()
	content := r.string()
	repos.Comments.ImportAddComment(ctx, id, messageID, content)
	return nil
}

func encodeSolveComment(c *cursor, evt store.WriteEvent) {
	cm := evt.Payload.(*entities.MessageComment)
	c.putID(cm.ID)
	c.putBool(cm.Solved)
}

func applySolveComment(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	solved := r.boolVal()
	repos.Comments.SolveComment(ctx, id, solved)
	return nil
}

func applyDeleteComment(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	repos.Comments.DeleteComment(ctx, id)
	return nil
}

// ---- tag ----

func encodeAddTag(c *cursor, evt store.WriteEvent) {
	t := evt.Payload.(*entities.DiscussionTag)
	c.putID(t.ID)
	c.putString(t.Name)
	c.putBytes(t.UI)
}

func applyAddTag(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	name := r.string()
	ui := r.bytesVal()
	repos.Tags.ImportAddTag(ctx, id, name, ui)
	return nil
}

func applyUpdateTagName(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	name := r.string()
	repos.Tags.UpdateTagName(ctx, id, name)
	return nil
}

func encodeTagUI(c *cursor, evt store.WriteEvent) {
	t := evt.Payload.(*entities.DiscussionTag)
	c.putID(t.ID)
	c.putBytes(t.UI)
}

func applyUpdateTagUI(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	ui := r.bytesVal()
	repos.Tags.UpdateTagUI(ctx, id, ui)
	return nil
}

func applyDeleteTag(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	repos.Tags.DeleteTag(ctx, id)
	return nil
}

func applyMergeTags(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	dst, src := decodeIDPair(r)
	repos.Tags.MergeTags(ctx, dst, src)
	return nil
}

// ---- category ----

func encodeAddCategory(c *cursor, evt store.WriteEvent) {
	cat := evt.Payload.(*entities.DiscussionCategory)
	c.putID(cat.ID)
	c.putID(cat.Parent)
	c.putString(cat.Name)
	c.putString(cat.Description)
}

func applyAddCategory(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	parent := r.id()
	name := r.string()
	desc := r.string()
	repos.Categories.ImportAddCategory(ctx, id, parent, name, desc)
	return nil
}

func applyUpdateCategoryName(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	name := r.string()
	repos.Categories.UpdateName(ctx, id, name)
	return nil
}

func encodeCategoryDescription(c *cursor, evt store.WriteEvent) {
	cat := evt.Payload.(*entities.DiscussionCategory)
	c.putID(cat.ID)
	c.putString(cat.Description)
}

func applyUpdateCategoryDescription(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	desc := r.string()
	repos.Categories.UpdateDescription(ctx, id, desc)
	return nil
}

func encodeCategoryParent(c *cursor, evt store.WriteEvent) {
	cat := evt.Payload.(*entities.DiscussionCategory)
	c.putID(cat.ID)
	c.putID(cat.Parent)
}

func applyReparentCategory(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	parent := r.id()
	repos.Categories.Reparent(ctx, id, parent)
	return nil
}

func encodeCategoryOrder(c *cursor, evt store.WriteEvent) {
	cat := evt.Payload.(*entities.DiscussionCategory)
	c.putID(cat.ID)
	c.putUint32(uint32(cat.DisplayOrder))
}

func applyReorderCategory(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	order := int(r.uint32())
	repos.Categories.Reorder(ctx, id, order)
	return nil
}

func applyAttachTagToCategory(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	category, tag := decodeIDPair(r)
	repos.Categories.AttachTag(ctx, category, tag)
	return nil
}

func applyDetachTagFromCategory(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	category, tag := decodeIDPair(r)
	repos.Categories.DetachTag(ctx, category, tag)
	return nil
}

func applyDeleteCategory(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	id := r.id()
	repos.Categories.DeleteCategory(ctx, id)
	return nil
}

// ---- privileges ----

func encodeRequiredPrivilegeChange(c *cursor, evt store.WriteEvent) {
	p := evt.Payload.(store.RequiredPrivilegeChange)
	c.putByte(byte(p.Scope))
	c.putID(p.ScopeID)
	c.putUint16(uint16(p.Privilege))
	c.putUint32(uint32(int32(p.Value)))
}

func applyRequiredPrivilegeChange(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	scope := entities.Scope(r.byteVal())
	scopeID := r.id()
	priv := entities.Privilege(r.uint16())
	value := int(int32(r.uint32()))
	repos.Collection.DirectSetRequiredPrivilege(priv, scope, scopeID, value)
	return nil
}

func encodeAssignedPrivilegeChange(c *cursor, evt store.WriteEvent) {
	p := evt.Payload.(store.AssignedPrivilegeChange)
	c.putID(p.User)
	c.putByte(byte(p.Scope))
	c.putID(p.ScopeID)
	c.putUint16(uint16(p.Privilege))
	c.putUint32(uint32(int32(p.Value)))
	c.putInt64(p.Duration)
}

func applyAssignedPrivilegeChange(repos *Repositories, ctx store.ObserverContext, r *reader) error {
	user := r.id()
	scope := entities.Scope(r.byteVal())
	scopeID := r.id()
	priv := entities.Privilege(r.uint16())
	value := int(int32(r.uint32()))
	duration := r.int64()
	repos.Collection.DirectSetAssignedPrivilege(user, priv, scope, scopeID, value, ctx.CurrentTime, duration)
	return nil
}

// ---- misc ----

func keysOfIDSet(m map[idgen.ID]struct{}) []idgen.ID {
	out := make([]idgen.ID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	return out
}
