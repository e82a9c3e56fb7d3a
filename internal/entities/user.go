package entities

import "github.com/danij/Forum-sub001/internal/idgen"

// User is the forum's account entity (§3 "User").
type User struct {
	Base

	Name string // unique, length-bounded
	Auth string // authentication handle, unique

	Info      []byte
	Title     string
	Signature string
	Logo      []byte

	MessageCount int
	ThreadCount  int

	// Back-references, weak (ordered by Created where noted).
	MessagesAuthored  []idgen.ID // ordered by created
	ThreadsAuthored   []idgen.ID
	SubscribedThreads []idgen.ID
	VotesCast         []idgen.ID // message ids this user has voted on

	LastSeen idgen.Timestamp
}

// AnonymousUserName is the display name reserved for the sentinel anonymous
// user (§3: 'Special sentinel user id "anonymous"').
const AnonymousUserName = "anonymous"

// NewAnonymousUser constructs the well-known sentinel user, created once at
// store initialization and never deleted.
func NewAnonymousUser() *User {
	return &User{
		Base: Base{ID: idgen.AnonymousUserID},
		Name: AnonymousUserName,
	}
}
