package entities

import "github.com/danij/Forum-sub001/internal/idgen"

// Scope is the level a privilege applies at (§4.5, GLOSSARY "Scope").
type Scope uint8

const (
	ScopeForumWide Scope = iota
	ScopeCategory
	ScopeTag
	ScopeThread
	ScopeMessage
)

func (s Scope) String() string {
	switch s {
	case ScopeForumWide:
		return "forum_wide"
	case ScopeCategory:
		return "category"
	case ScopeTag:
		return "tag"
	case ScopeThread:
		return "thread"
	case ScopeMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Privilege enumerates the named privileges the original C++ source
// defines; values are reproduced for their resolution semantics only (§9
// "supplemented features"), not as a byte-for-byte port of the original's
// numeric encoding.
type Privilege uint16

const (
	PrivViewForumRoot Privilege = iota
	PrivAddUser
	PrivLoginUser
	PrivViewDiscussionThreadMessage
	PrivViewDiscussionThreadMessageUser
	PrivViewDiscussionThreadMessageVotes
	PrivViewDiscussionThreadMessageIPAddress
	PrivAddNewDiscussionThread
	PrivAddNewDiscussionThreadMessage
	PrivEditDiscussionThreadMessageContent
	PrivDeleteDiscussionThreadMessage
	PrivMoveDiscussionThreadMessage
	PrivUpVote
	PrivDownVote
	PrivResetVote
	PrivAddComment
	PrivSetCommentToSolved
	PrivSubscribeToThread
	PrivUnsubscribeFromThread
	PrivMergeDiscussionThreads
	PrivAdjustPrivilege
	PrivNoThrottling

	// The remaining privileges round out §4.5's "every mutation is
	// authorization-gated" requirement for the entity commands the sampled
	// route list in §6.2 does not individually call out (thread
	// editing/deletion, tag and category CRUD and attach/detach).
	PrivEditDiscussionThread
	PrivDeleteDiscussionThread
	PrivAttachTagToThread
	PrivDetachTagFromThread
	PrivAddNewDiscussionTag
	PrivEditDiscussionTag
	PrivDeleteDiscussionTag
	PrivAddNewDiscussionCategory
	PrivEditDiscussionCategory
	PrivDeleteDiscussionCategory
	PrivDeleteComment
	PrivEditDiscussionCategoryDisplayOrder
	PrivAttachTagToCategory
	PrivDetachTagFromCategory
)

// RequiredPrivilegeTable is the forum-wide required-privilege table (§3
// "PrivilegeGrants"). A missing key means "use the default for the
// privilege", configured via defaultPrivileges (§6.4).
type RequiredPrivilegeTable map[Privilege]int

// AssignedPrivilegeKey identifies one row of the assigned-privilege
// collection: (user, scope target, privilege).
type AssignedPrivilegeKey struct {
	User      idgen.ID
	Scope     Scope
	ScopeID   idgen.ID // Zero for ScopeForumWide
	Privilege Privilege
}

// AssignedPrivilegeGrant is one grant (§3, §4.5): a signed value valid from
// From for Duration seconds (Duration == 0 means indefinite).
type AssignedPrivilegeGrant struct {
	Value    int
	From     idgen.Timestamp
	Duration int64 // seconds; 0 == indefinite
}

// Active reports whether the grant is still within its window at t.
func (g AssignedPrivilegeGrant) Active(t idgen.Timestamp) bool {
	if g.Duration == 0 {
		return true
	}
	return int64(t) < int64(g.From)+g.Duration
}

// RequiredPrivilegeOverrideKey identifies a required-privilege override at
// a non-forum-wide scope (§4.5: "required value for P at the most specific
// scope that has a non-default value").
type RequiredPrivilegeOverrideKey struct {
	Scope     Scope
	ScopeID   idgen.ID
	Privilege Privilege
}
