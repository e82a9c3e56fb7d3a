package store

import (
	"github.com/danij/Forum-sub001/internal/entities"
	"github.com/danij/Forum-sub001/internal/idgen"
)

// EventType identifies the kind of mutation a WriteEvent carries, matching
// the event-type codes of §6.1. Defined here (rather than in eventlog) so
// repositories can depend on store without creating an import cycle with
// eventlog; eventlog's writer maps these back to wire codes.
type EventType uint16

const (
	EventAddUser EventType = iota
	EventUpdateUserName
	EventUpdateUserInfo
	EventUpdateUserTitle
	EventUpdateUserSignature
	EventUpdateUserLogo
	EventUpdateUserLastSeen
	EventDeleteUser

	EventAddThread
	EventUpdateThreadName
	EventUpdateThreadPinOrder
	EventUpdateThreadApproval
	EventDeleteThread
	EventSubscribeToThread
	EventUnsubscribeFromThread
	EventMergeThreads
	EventAttachTagToThread
	EventDetachTagFromThread
	EventIncrementThreadVisits

	EventAddMessage
	EventEditMessageContent
	EventMoveMessages
	EventDeleteMessage
	EventUpVote
	EventDownVote
	EventResetVote
	EventUpdateMessageApproval

	EventAddComment
	EventSolveComment
	EventDeleteComment

	EventAddTag
	EventUpdateTagName
	EventUpdateTagUI
	EventDeleteTag
	EventMergeTags

	EventAddCategory
	EventUpdateCategoryName
	EventUpdateCategoryDescription
	EventReparentCategory
	EventReorderCategory
	EventAttachTagToCategory
	EventDetachTagFromCategory
	EventDeleteCategory

	EventUpdateRequiredPrivilege
	EventUpdateAssignedPrivilege
)

// WriteEvent is dispatched to every observer synchronously, while the
// writer lock is still held (§9: "called synchronously while the writer
// lock is held so order matches lock order").
type WriteEvent struct {
	Type    EventType
	Ctx     ObserverContext
	Payload any // one of the *entities.* or eventlog-specific payload structs
}

// Observer receives every accepted write. The only observer wired in this
// repo is the event-log writer (C6); §9 notes the source's signal/slot
// mechanism collapses here into an explicit slice of sinks.
type Observer interface {
	OnWrite(evt WriteEvent)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(evt WriteEvent)

func (f ObserverFunc) OnWrite(evt WriteEvent) { f(evt) }

// AssignedPrivilegeChange is the payload of EventUpdateAssignedPrivilege.
type AssignedPrivilegeChange struct {
	entities.AssignedPrivilegeKey
	Value    int
	Duration int64
}

// RequiredPrivilegeChange is the payload of EventUpdateRequiredPrivilege.
type RequiredPrivilegeChange struct {
	Scope     entities.Scope
	ScopeID   idgen.ID
	Privilege entities.Privilege
	Value     int
}
