// Package entities defines the forum's entity graph (§3): Users, Threads,
// Messages, Comments, Tags, Categories, Votes and privilege grants.
//
// Entities reference each other by idgen.ID, never by pointer. This is the
// arena-of-entities-addressed-by-stable-handles shape §9 calls for: a
// back-reference is just an id, and "is this back-reference still live" is
// answered by looking the id up in the owning store.Collection rather than
// by any liveness bit carried on the reference itself.
package entities

import (
	"net"

	"github.com/danij/Forum-sub001/internal/idgen"
)

// LastUpdated records who changed an entity, when, from where, and why
// (§3: "lastUpdated block (at, ip, by ..., reason)").
type LastUpdated struct {
	At     idgen.Timestamp
	IP     net.IP
	By     idgen.ID // weak back-reference to the acting User; Zero if system/import
	Reason string
}

// Base carries the fields every entity shares (§3).
type Base struct {
	ID              idgen.ID
	Created         idgen.Timestamp
	CreationDetails net.IP
	LastUpdated     LastUpdated
}
